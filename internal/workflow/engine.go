package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vk93102/clm-backend/internal/domain"
)

// Action is an approver's response to a pending stage approval.
type Action string

const (
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionDelegate Action = "delegate"
)

// ErrUnknownAction is returned for an action outside approve/reject/delegate.
var ErrUnknownAction = errors.New("workflow: unknown approval action")

// TxRunner executes fn atomically against the approval store. Either every
// write inside fn lands or none do.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// RoleResolver expands a role token to the active actors holding that role
// in a tenant. Injected so tests can supply a fake resolver.
type RoleResolver interface {
	ListActorsByRole(ctx context.Context, tenantID uuid.UUID, role string) ([]uuid.UUID, error)
}

// Notifier receives fire-and-forget notification requests. Failures are
// logged by the engine and never roll back a transaction.
type Notifier interface {
	Enqueue(ctx context.Context, tenantID, recipient uuid.UUID, subject, body string, meta map[string]any) error
}

// PubSubPublisher abstracts the Redis pub/sub publish operation.
type PubSubPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Engine owns the workflow instance lifecycle: starting a run, processing
// approve/reject/delegate actions, advancing stages and completing or
// killing the run. All state transitions are single atomic units; racing
// callers are settled by conditional row updates in the store.
type Engine struct {
	tx          TxRunner
	definitions domain.WorkflowDefinitionRepository
	instances   domain.WorkflowInstanceRepository
	approvals   domain.StageApprovalRepository
	contracts   domain.ContractRepository
	audit       domain.AuditRepository
	roles       RoleResolver
	matcher     *Matcher
	notifier    Notifier
	pubsub      PubSubPublisher
}

func NewEngine(
	tx TxRunner,
	definitions domain.WorkflowDefinitionRepository,
	instances domain.WorkflowInstanceRepository,
	approvals domain.StageApprovalRepository,
	contracts domain.ContractRepository,
	audit domain.AuditRepository,
	roles RoleResolver,
	notifier Notifier,
	pubsub PubSubPublisher,
) *Engine {
	return &Engine{
		tx:          tx,
		definitions: definitions,
		instances:   instances,
		approvals:   approvals,
		contracts:   contracts,
		audit:       audit,
		roles:       roles,
		matcher:     NewMatcher(definitions),
		notifier:    notifier,
		pubsub:      pubsub,
	}
}

// StartWorkflow starts a run of a definition against a contract. When
// definitionID is nil the matcher picks the definition; no match is
// domain.ErrNoMatchingWorkflow. A second start while a run is active or
// paused fails with domain.ErrInstanceAlreadyActive - the store's
// uniqueness guard covers both, so a paused run keeps its claim on the
// contract until resumed or cancelled. Only the first stage's approvals
// are created; later stages materialize lazily on advancement.
func (e *Engine) StartWorkflow(ctx context.Context, tenantID, contractID uuid.UUID, definitionID *uuid.UUID, initiator uuid.UUID, metadata map[string]any) (*domain.WorkflowInstance, error) {
	contract, err := e.contracts.GetByID(ctx, tenantID, contractID)
	if err != nil {
		return nil, fmt.Errorf("workflow.Engine.StartWorkflow: get contract: %w", err)
	}

	var def *domain.WorkflowDefinition
	if definitionID != nil {
		def, err = e.definitions.GetByID(ctx, tenantID, *definitionID)
		if err != nil {
			return nil, fmt.Errorf("workflow.Engine.StartWorkflow: get definition: %w", err)
		}
	} else {
		def, err = e.matcher.FindMatchingWorkflow(ctx, contract)
		if err != nil {
			return nil, err
		}
	}

	// Definitions are validated at save time; re-check here so a legacy row
	// fails fast instead of producing a stuck instance.
	if err := domain.ValidateStages(def.Stages); err != nil {
		return nil, fmt.Errorf("workflow.Engine.StartWorkflow: definition %s: %w", def.ID, err)
	}

	now := time.Now()
	first := def.FirstStage()

	inst := &domain.WorkflowInstance{
		ID:                   uuid.New(),
		TenantID:             tenantID,
		ContractID:           contractID,
		WorkflowDefinitionID: def.ID,
		CurrentStageSeq:      first.Sequence,
		CurrentStageName:     first.StageName,
		Status:               domain.InstanceStatusActive,
		StartedAt:            now,
		Metadata:             metadata,
	}

	var created []*domain.StageApproval

	err = e.tx.InTx(ctx, func(ctx context.Context) error {
		if txErr := e.instances.Create(ctx, inst); txErr != nil {
			return fmt.Errorf("create instance: %w", txErr)
		}

		created, err = e.materializeStage(ctx, inst, first, now)
		if err != nil {
			return err
		}

		if txErr := e.contracts.UpdateStatus(ctx, tenantID, contractID, domain.ContractStatusPendingApproval); txErr != nil {
			return fmt.Errorf("update contract status: %w", txErr)
		}

		return e.audit.Record(ctx, &domain.AuditEntry{
			ID:           uuid.New(),
			TenantID:     tenantID,
			ActorID:      initiator,
			Action:       domain.AuditWorkflowStarted,
			ResourceType: "workflow_instance",
			ResourceID:   inst.ID,
			Metadata: map[string]any{
				"contract_id":     contractID.String(),
				"workflow_id":     def.ID.String(),
				"workflow_name":   def.Name,
				"stage":           first.StageName,
				"approvals":       len(created),
			},
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("workflow.Engine.StartWorkflow: %w", err)
	}

	log.Info().
		Str("contract_id", contractID.String()).
		Str("instance_id", inst.ID.String()).
		Str("workflow", def.Name).
		Int("approvals", len(created)).
		Msg("workflow started")

	e.notifyApprovers(ctx, contract, created)
	e.publishEvent(ctx, inst, EventWorkflowStarted, map[string]any{"stage": first.StageName})

	return inst, nil
}

// ProcessApproval applies an approver's action to a pending approval.
// Exactly one of two racing calls on the same approval succeeds; the other
// fails with domain.ErrApprovalNotPending.
func (e *Engine) ProcessApproval(ctx context.Context, tenantID, approvalID uuid.UUID, action Action, actor uuid.UUID, comments string, delegateTo *uuid.UUID) (*domain.WorkflowInstance, error) {
	approval, err := e.approvals.GetByID(ctx, tenantID, approvalID)
	if err != nil {
		return nil, fmt.Errorf("workflow.Engine.ProcessApproval: get approval: %w", err)
	}

	if approval.Status != domain.ApprovalStatusPending {
		return nil, fmt.Errorf("workflow.Engine.ProcessApproval: approval is %s: %w", approval.Status, domain.ErrApprovalNotPending)
	}

	inst, err := e.instances.GetByID(ctx, tenantID, approval.WorkflowInstanceID)
	if err != nil {
		return nil, fmt.Errorf("workflow.Engine.ProcessApproval: get instance: %w", err)
	}

	if inst.Status != domain.InstanceStatusActive {
		return nil, fmt.Errorf("workflow.Engine.ProcessApproval: instance is %s: %w", inst.Status, domain.ErrConflict)
	}

	// The approver of a delegated slot is the delegate, so the delegation
	// target passes this check on their own row without an exemption.
	if actor != approval.ApproverID {
		return nil, fmt.Errorf("workflow.Engine.ProcessApproval: actor %s is not the approver: %w", actor, domain.ErrUnauthorized)
	}

	switch action {
	case ActionApprove, ActionReject:
	case ActionDelegate:
		if delegateTo == nil || *delegateTo == uuid.Nil {
			return nil, fmt.Errorf("workflow.Engine.ProcessApproval: %w", domain.ErrInvalidDelegateTarget)
		}
	default:
		return nil, fmt.Errorf("workflow.Engine.ProcessApproval: %q: %w", action, ErrUnknownAction)
	}

	now := time.Now()
	contract, err := e.contracts.GetByID(ctx, tenantID, inst.ContractID)
	if err != nil {
		return nil, fmt.Errorf("workflow.Engine.ProcessApproval: get contract: %w", err)
	}

	var (
		nextApprovals []*domain.StageApproval
		events        []pendingEvent
	)

	err = e.tx.InTx(ctx, func(ctx context.Context) error {
		// Take the instance row lock before touching approvals. Two racing
		// approvals on an ALL stage would otherwise each resolve their own
		// row, each read the other as still pending, and neither advance.
		locked, txErr := e.instances.Lock(ctx, tenantID, inst.ID)
		if txErr != nil {
			return fmt.Errorf("lock instance: %w", txErr)
		}
		if locked.Status != domain.InstanceStatusActive {
			return fmt.Errorf("instance is %s: %w", locked.Status, domain.ErrConflict)
		}
		inst = locked

		switch action {
		case ActionApprove:
			na, evts, txErr := e.applyApprove(ctx, inst, approval, contract, actor, comments, now)
			nextApprovals, events = na, evts
			return txErr
		case ActionReject:
			events = []pendingEvent{{EventApprovalRejected, map[string]any{"stage": approval.StageName}}, {EventWorkflowRejected, nil}}
			return e.applyReject(ctx, inst, approval, contract, actor, comments, now)
		case ActionDelegate:
			na, txErr := e.applyDelegate(ctx, inst, approval, actor, comments, *delegateTo, now)
			nextApprovals = na
			events = []pendingEvent{{EventApprovalDelegated, map[string]any{"stage": approval.StageName, "delegate": delegateTo.String()}}}
			return txErr
		default:
			return ErrUnknownAction
		}
	})
	if err != nil {
		return nil, fmt.Errorf("workflow.Engine.ProcessApproval: %w", err)
	}

	e.notifyApprovers(ctx, contract, nextApprovals)
	for _, evt := range events {
		e.publishEvent(ctx, inst, evt.kind, evt.detail)
	}

	refreshed, err := e.instances.GetByID(ctx, tenantID, inst.ID)
	if err != nil {
		return nil, fmt.Errorf("workflow.Engine.ProcessApproval: refresh instance: %w", err)
	}

	return refreshed, nil
}

type pendingEvent struct {
	kind   string
	detail map[string]any
}

// applyApprove resolves the approval, then runs the stage completion check
// and either advances to the next stage or completes the run.
func (e *Engine) applyApprove(ctx context.Context, inst *domain.WorkflowInstance, approval *domain.StageApproval, contract *domain.Contract, actor uuid.UUID, comments string, now time.Time) ([]*domain.StageApproval, []pendingEvent, error) {
	if err := e.approvals.Resolve(ctx, inst.TenantID, approval.ID, domain.ApprovalStatusApproved, now, comments, nil); err != nil {
		return nil, nil, fmt.Errorf("resolve approval: %w", err)
	}

	if err := e.recordApprovalAudit(ctx, inst, approval, domain.AuditApprovalApproved, actor, comments, now); err != nil {
		return nil, nil, err
	}

	events := []pendingEvent{{EventApprovalApproved, map[string]any{"stage": approval.StageName}}}

	stage, ok := e.stageSpec(ctx, inst, approval.StageSeq)
	if !ok {
		// Definition lost its stage row out from under the run; leave the
		// instance where it is rather than guessing.
		log.Error().
			Str("instance_id", inst.ID.String()).
			Int("stage_seq", approval.StageSeq).
			Msg("stage spec missing during completion check")
		return nil, events, nil
	}

	complete, err := e.stageComplete(ctx, inst, stage)
	if err != nil {
		return nil, nil, err
	}
	if !complete {
		return nil, events, nil
	}

	def, err := e.definitions.GetByID(ctx, inst.TenantID, inst.WorkflowDefinitionID)
	if err != nil {
		return nil, nil, fmt.Errorf("get definition: %w", err)
	}

	next, hasNext := def.NextStage(approval.StageSeq)
	if !hasNext {
		if err := e.completeInstance(ctx, inst, contract, actor, now); err != nil {
			return nil, nil, err
		}
		events = append(events, pendingEvent{EventWorkflowCompleted, nil})
		return nil, events, nil
	}

	// AdvanceStage is conditional on the current stage; when two approvals
	// of the same stage race past the completion check, only one advances
	// and materializes the next stage's approvals.
	if err := e.instances.AdvanceStage(ctx, inst.TenantID, inst.ID, next.Sequence, next.StageName); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, events, nil
		}
		return nil, nil, fmt.Errorf("advance stage: %w", err)
	}
	inst.CurrentStageSeq = next.Sequence
	inst.CurrentStageName = next.StageName

	created, err := e.materializeStage(ctx, inst, next, now)
	if err != nil {
		return nil, nil, err
	}

	events = append(events, pendingEvent{EventStageAdvanced, map[string]any{"stage": next.StageName}})
	return created, events, nil
}

func (e *Engine) applyReject(ctx context.Context, inst *domain.WorkflowInstance, approval *domain.StageApproval, contract *domain.Contract, actor uuid.UUID, comments string, now time.Time) error {
	if err := e.approvals.Resolve(ctx, inst.TenantID, approval.ID, domain.ApprovalStatusRejected, now, comments, nil); err != nil {
		return fmt.Errorf("resolve approval: %w", err)
	}

	// One rejection kills the run. Other pending approvals in the instance
	// are left as-is so the audit trail shows who never responded.
	if err := e.instances.TransitionStatus(ctx, inst.TenantID, inst.ID, domain.InstanceStatusActive, domain.InstanceStatusRejected, &now); err != nil {
		return fmt.Errorf("reject instance: %w", err)
	}

	if err := e.contracts.UpdateStatus(ctx, inst.TenantID, contract.ID, domain.ContractStatusRejected); err != nil {
		return fmt.Errorf("update contract status: %w", err)
	}

	if err := e.recordApprovalAudit(ctx, inst, approval, domain.AuditApprovalRejected, actor, comments, now); err != nil {
		return err
	}

	return e.audit.Record(ctx, &domain.AuditEntry{
		ID:           uuid.New(),
		TenantID:     inst.TenantID,
		ActorID:      actor,
		Action:       domain.AuditWorkflowRejected,
		ResourceType: "workflow_instance",
		ResourceID:   inst.ID,
		Metadata:     map[string]any{"contract_id": contract.ID.String(), "stage": approval.StageName},
		CreatedAt:    now,
	})
}

func (e *Engine) applyDelegate(ctx context.Context, inst *domain.WorkflowInstance, approval *domain.StageApproval, actor uuid.UUID, comments string, delegateTo uuid.UUID, now time.Time) ([]*domain.StageApproval, error) {
	if err := e.approvals.Resolve(ctx, inst.TenantID, approval.ID, domain.ApprovalStatusDelegated, now, comments, &delegateTo); err != nil {
		return nil, fmt.Errorf("resolve approval: %w", err)
	}

	// The delegate inherits the deadline; delegation never resets the SLA
	// clock and never advances the stage.
	delegated := &domain.StageApproval{
		ID:                 uuid.New(),
		TenantID:           inst.TenantID,
		WorkflowInstanceID: inst.ID,
		StageSeq:           approval.StageSeq,
		StageName:          approval.StageName,
		ApproverID:         delegateTo,
		Status:             domain.ApprovalStatusPending,
		IsRequired:         approval.IsRequired,
		RequestedAt:        now,
		DueAt:              approval.DueAt,
	}

	if err := e.approvals.Create(ctx, delegated); err != nil {
		return nil, fmt.Errorf("create delegated approval: %w", err)
	}

	if err := e.recordApprovalAudit(ctx, inst, approval, domain.AuditApprovalDelegated, actor, comments, now); err != nil {
		return nil, err
	}

	return []*domain.StageApproval{delegated}, nil
}

// CancelWorkflow administratively cancels an active or paused run.
func (e *Engine) CancelWorkflow(ctx context.Context, tenantID, instanceID, actor uuid.UUID, reason string) error {
	inst, err := e.instances.GetByID(ctx, tenantID, instanceID)
	if err != nil {
		return fmt.Errorf("workflow.Engine.CancelWorkflow: %w", err)
	}

	if !inst.Status.ValidTransition(domain.InstanceStatusCancelled) {
		return fmt.Errorf("workflow.Engine.CancelWorkflow: instance is %s: %w", inst.Status, domain.ErrInvalidTransition)
	}

	now := time.Now()
	err = e.tx.InTx(ctx, func(ctx context.Context) error {
		if txErr := e.instances.TransitionStatus(ctx, tenantID, instanceID, inst.Status, domain.InstanceStatusCancelled, &now); txErr != nil {
			return txErr
		}
		return e.audit.Record(ctx, &domain.AuditEntry{
			ID:           uuid.New(),
			TenantID:     tenantID,
			ActorID:      actor,
			Action:       domain.AuditWorkflowCancelled,
			ResourceType: "workflow_instance",
			ResourceID:   instanceID,
			Metadata:     map[string]any{"reason": reason},
			CreatedAt:    now,
		})
	})
	if err != nil {
		return fmt.Errorf("workflow.Engine.CancelWorkflow: %w", err)
	}

	e.publishEvent(ctx, inst, EventWorkflowCancelled, map[string]any{"reason": reason})
	return nil
}

// PauseWorkflow administratively pauses an active run. Approvals refuse
// processing while the instance is paused.
func (e *Engine) PauseWorkflow(ctx context.Context, tenantID, instanceID, actor uuid.UUID) error {
	return e.adminTransition(ctx, tenantID, instanceID, actor,
		domain.InstanceStatusActive, domain.InstanceStatusPaused, domain.AuditWorkflowPaused)
}

// ResumeWorkflow returns a paused run to active.
func (e *Engine) ResumeWorkflow(ctx context.Context, tenantID, instanceID, actor uuid.UUID) error {
	return e.adminTransition(ctx, tenantID, instanceID, actor,
		domain.InstanceStatusPaused, domain.InstanceStatusActive, domain.AuditWorkflowResumed)
}

func (e *Engine) adminTransition(ctx context.Context, tenantID, instanceID, actor uuid.UUID, from, to domain.InstanceStatus, auditAction string) error {
	now := time.Now()
	err := e.tx.InTx(ctx, func(ctx context.Context) error {
		if txErr := e.instances.TransitionStatus(ctx, tenantID, instanceID, from, to, nil); txErr != nil {
			return txErr
		}
		return e.audit.Record(ctx, &domain.AuditEntry{
			ID:           uuid.New(),
			TenantID:     tenantID,
			ActorID:      actor,
			Action:       auditAction,
			ResourceType: "workflow_instance",
			ResourceID:   instanceID,
			CreatedAt:    now,
		})
	})
	if err != nil {
		return fmt.Errorf("workflow.Engine.adminTransition: %s: %w", auditAction, err)
	}
	return nil
}

// materializeStage resolves every approver spec of a stage and creates one
// pending approval per resolved actor. Resolution failures are fail-open:
// the offending spec is logged and skipped so the remaining approvers can
// still satisfy quorum. Duplicate actors across specs collapse to one slot.
func (e *Engine) materializeStage(ctx context.Context, inst *domain.WorkflowInstance, stage domain.StageSpec, now time.Time) ([]*domain.StageApproval, error) {
	dueAt := now.Add(time.Duration(stage.SLAHours) * time.Hour)

	seen := make(map[uuid.UUID]bool)
	var created []*domain.StageApproval

	for _, spec := range stage.Approvers {
		actors, role := e.resolveApprovers(ctx, inst.TenantID, spec)
		if len(actors) == 0 {
			log.Warn().
				Str("instance_id", inst.ID.String()).
				Str("stage", stage.StageName).
				Str("approver_spec", string(spec)).
				Msg("approver spec resolved to zero actors")
			continue
		}

		for _, actorID := range actors {
			if seen[actorID] {
				continue
			}
			seen[actorID] = true

			a := &domain.StageApproval{
				ID:                 uuid.New(),
				TenantID:           inst.TenantID,
				WorkflowInstanceID: inst.ID,
				StageSeq:           stage.Sequence,
				StageName:          stage.StageName,
				ApproverID:         actorID,
				ApproverRole:       role,
				Status:             domain.ApprovalStatusPending,
				IsRequired:         stage.Required,
				RequestedAt:        now,
				DueAt:              dueAt,
			}
			if err := e.approvals.Create(ctx, a); err != nil {
				return nil, fmt.Errorf("create approval for %s: %w", actorID, err)
			}
			created = append(created, a)
		}
	}

	return created, nil
}

func (e *Engine) resolveApprovers(ctx context.Context, tenantID uuid.UUID, spec domain.ApproverSpec) ([]uuid.UUID, string) {
	if spec.IsRole() {
		actors, err := e.roles.ListActorsByRole(ctx, tenantID, spec.Role())
		if err != nil {
			log.Warn().Err(err).
				Str("tenant_id", tenantID.String()).
				Str("role", spec.Role()).
				Msg("role resolution failed, skipping spec")
			return nil, ""
		}
		return actors, string(spec)
	}

	if id := spec.ActorID(); id != uuid.Nil {
		return []uuid.UUID{id}, ""
	}

	return nil, ""
}

// stageComplete applies the quorum rule over the stage's required
// approvals. ALL: no required slot may still be pending. ANY: at least one
// required slot is approved. Non-required approvals exist for visibility
// but never gate advancement.
func (e *Engine) stageComplete(ctx context.Context, inst *domain.WorkflowInstance, stage domain.StageSpec) (bool, error) {
	approvals, err := e.approvals.ListByStage(ctx, inst.TenantID, inst.ID, stage.Sequence)
	if err != nil {
		return false, fmt.Errorf("list stage approvals: %w", err)
	}

	pending, approved := 0, 0
	for _, a := range approvals {
		if !a.IsRequired {
			continue
		}
		switch a.Status {
		case domain.ApprovalStatusPending:
			pending++
		case domain.ApprovalStatusApproved:
			approved++
		}
	}

	if stage.Quorum == domain.QuorumAny {
		return approved >= 1, nil
	}
	return pending == 0, nil
}

func (e *Engine) completeInstance(ctx context.Context, inst *domain.WorkflowInstance, contract *domain.Contract, actor uuid.UUID, now time.Time) error {
	if err := e.instances.TransitionStatus(ctx, inst.TenantID, inst.ID, domain.InstanceStatusActive, domain.InstanceStatusCompleted, &now); err != nil {
		return fmt.Errorf("complete instance: %w", err)
	}

	if err := e.contracts.UpdateStatus(ctx, inst.TenantID, contract.ID, domain.ContractStatusApproved); err != nil {
		return fmt.Errorf("update contract status: %w", err)
	}

	return e.audit.Record(ctx, &domain.AuditEntry{
		ID:           uuid.New(),
		TenantID:     inst.TenantID,
		ActorID:      actor,
		Action:       domain.AuditWorkflowCompleted,
		ResourceType: "workflow_instance",
		ResourceID:   inst.ID,
		Metadata:     map[string]any{"contract_id": contract.ID.String()},
		CreatedAt:    now,
	})
}

func (e *Engine) recordApprovalAudit(ctx context.Context, inst *domain.WorkflowInstance, approval *domain.StageApproval, action string, actor uuid.UUID, comments string, now time.Time) error {
	return e.audit.Record(ctx, &domain.AuditEntry{
		ID:           uuid.New(),
		TenantID:     inst.TenantID,
		ActorID:      actor,
		Action:       action,
		ResourceType: "stage_approval",
		ResourceID:   approval.ID,
		Metadata:     map[string]any{"stage": approval.StageName, "comments": comments},
		CreatedAt:    now,
	})
}

func (e *Engine) stageSpec(ctx context.Context, inst *domain.WorkflowInstance, seq int) (domain.StageSpec, bool) {
	def, err := e.definitions.GetByID(ctx, inst.TenantID, inst.WorkflowDefinitionID)
	if err != nil {
		log.Error().Err(err).Str("instance_id", inst.ID.String()).Msg("definition lookup failed")
		return domain.StageSpec{}, false
	}
	return def.Stage(seq)
}

// notifyApprovers enqueues one notification per created approval.
// Fire-and-forget: a dispatcher failure is logged, never propagated.
func (e *Engine) notifyApprovers(ctx context.Context, contract *domain.Contract, approvals []*domain.StageApproval) {
	for _, a := range approvals {
		subject := "Approval Required: " + contract.Title
		body := fmt.Sprintf(
			"You have been requested to approve contract %q for stage %q. Please respond by %s.",
			contract.Title, a.StageName, a.DueAt.Format("2006-01-02 15:04"),
		)
		meta := map[string]any{
			"approval_id": a.ID.String(),
			"stage":       a.StageName,
			"due_at":      a.DueAt.Format(time.RFC3339),
		}
		if err := e.notifier.Enqueue(ctx, a.TenantID, a.ApproverID, subject, body, meta); err != nil {
			log.Error().Err(err).
				Str("approval_id", a.ID.String()).
				Str("recipient", a.ApproverID.String()).
				Msg("failed to enqueue approver notification")
		}
	}
}
