package workflow_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vk93102/clm-backend/internal/domain"
)

// In-memory fakes mirroring the postgres store's conditional-update
// semantics: unique in-flight instance per contract, pending-keyed
// approval resolution, stage-keyed advancement.

type fakeTx struct{}

func (fakeTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeDefinitionRepo struct {
	mu   sync.Mutex
	defs map[uuid.UUID]*domain.WorkflowDefinition
}

func newFakeDefinitionRepo() *fakeDefinitionRepo {
	return &fakeDefinitionRepo{defs: make(map[uuid.UUID]*domain.WorkflowDefinition)}
}

func (r *fakeDefinitionRepo) Create(_ context.Context, d *domain.WorkflowDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[d.ID] = d
	return nil
}

func (r *fakeDefinitionRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*domain.WorkflowDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.defs[id]
	if !ok || d.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return d, nil
}

func (r *fakeDefinitionRepo) ListActive(_ context.Context, tenantID uuid.UUID) ([]*domain.WorkflowDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.WorkflowDefinition
	for _, d := range r.defs {
		if d.TenantID == tenantID && d.IsActive {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeDefinitionRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*domain.WorkflowDefinition, error) {
	return r.ListActive(ctx, tenantID)
}

func (r *fakeDefinitionRepo) Update(_ context.Context, d *domain.WorkflowDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[d.ID] = d
	return nil
}

func (r *fakeDefinitionRepo) Delete(_ context.Context, _, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.defs, id)
	return nil
}

type fakeInstanceRepo struct {
	mu        sync.Mutex
	instances map[uuid.UUID]*domain.WorkflowInstance
}

func newFakeInstanceRepo() *fakeInstanceRepo {
	return &fakeInstanceRepo{instances: make(map[uuid.UUID]*domain.WorkflowInstance)}
}

func (r *fakeInstanceRepo) Create(_ context.Context, inst *domain.WorkflowInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.instances {
		inFlight := existing.Status == domain.InstanceStatusActive || existing.Status == domain.InstanceStatusPaused
		if existing.ContractID == inst.ContractID && inFlight {
			return domain.ErrInstanceAlreadyActive
		}
	}
	cp := *inst
	r.instances[inst.ID] = &cp
	return nil
}

func (r *fakeInstanceRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*domain.WorkflowInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.instances[id]
	if !ok || inst.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	cp := *inst
	return &cp, nil
}

func (r *fakeInstanceRepo) Lock(ctx context.Context, tenantID, id uuid.UUID) (*domain.WorkflowInstance, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r *fakeInstanceRepo) GetActiveByContract(_ context.Context, tenantID, contractID uuid.UUID) (*domain.WorkflowInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inst := range r.instances {
		if inst.TenantID == tenantID && inst.ContractID == contractID && inst.Status == domain.InstanceStatusActive {
			cp := *inst
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeInstanceRepo) ListByContract(_ context.Context, tenantID, contractID uuid.UUID) ([]*domain.WorkflowInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.WorkflowInstance
	for _, inst := range r.instances {
		if inst.TenantID == tenantID && inst.ContractID == contractID {
			cp := *inst
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeInstanceRepo) ListByStatus(_ context.Context, tenantID uuid.UUID, status domain.InstanceStatus) ([]*domain.WorkflowInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.WorkflowInstance
	for _, inst := range r.instances {
		if inst.TenantID == tenantID && inst.Status == status {
			cp := *inst
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeInstanceRepo) AdvanceStage(_ context.Context, tenantID, id uuid.UUID, stageSeq int, stageName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.instances[id]
	if !ok || inst.TenantID != tenantID {
		return domain.ErrNotFound
	}
	if inst.Status != domain.InstanceStatusActive || inst.CurrentStageSeq >= stageSeq {
		return domain.ErrConflict
	}
	inst.CurrentStageSeq = stageSeq
	inst.CurrentStageName = stageName
	return nil
}

func (r *fakeInstanceRepo) TransitionStatus(_ context.Context, tenantID, id uuid.UUID, from, to domain.InstanceStatus, completedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.instances[id]
	if !ok || inst.TenantID != tenantID {
		return domain.ErrNotFound
	}
	if inst.Status != from {
		return domain.ErrInvalidTransition
	}
	inst.Status = to
	if completedAt != nil {
		inst.CompletedAt = completedAt
	}
	return nil
}

type fakeApprovalRepo struct {
	mu        sync.Mutex
	approvals map[uuid.UUID]*domain.StageApproval
}

func newFakeApprovalRepo() *fakeApprovalRepo {
	return &fakeApprovalRepo{approvals: make(map[uuid.UUID]*domain.StageApproval)}
}

func (r *fakeApprovalRepo) Create(_ context.Context, a *domain.StageApproval) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.approvals[a.ID] = &cp
	return nil
}

func (r *fakeApprovalRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*domain.StageApproval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.approvals[id]
	if !ok || a.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeApprovalRepo) ListByInstance(_ context.Context, tenantID, instanceID uuid.UUID) ([]*domain.StageApproval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.StageApproval
	for _, a := range r.approvals {
		if a.TenantID == tenantID && a.WorkflowInstanceID == instanceID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeApprovalRepo) ListByStage(_ context.Context, tenantID, instanceID uuid.UUID, stageSeq int) ([]*domain.StageApproval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.StageApproval
	for _, a := range r.approvals {
		if a.TenantID == tenantID && a.WorkflowInstanceID == instanceID && a.StageSeq == stageSeq {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeApprovalRepo) ListPendingByApprover(_ context.Context, tenantID, approverID uuid.UUID) ([]*domain.StageApproval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.StageApproval
	for _, a := range r.approvals {
		if a.TenantID == tenantID && a.ApproverID == approverID && a.Status == domain.ApprovalStatusPending {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeApprovalRepo) ListOverdue(_ context.Context, now time.Time) ([]*domain.StageApproval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.StageApproval
	for _, a := range r.approvals {
		if a.Status == domain.ApprovalStatusPending && now.After(a.DueAt) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeApprovalRepo) Resolve(_ context.Context, tenantID, id uuid.UUID, status domain.ApprovalStatus, respondedAt time.Time, comments string, delegatedTo *uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.approvals[id]
	if !ok || a.TenantID != tenantID {
		return domain.ErrNotFound
	}
	if a.Status != domain.ApprovalStatusPending {
		return domain.ErrApprovalNotPending
	}
	a.Status = status
	a.RespondedAt = &respondedAt
	a.Comments = comments
	a.DelegatedTo = delegatedTo
	return nil
}

type fakeContractRepo struct {
	mu        sync.Mutex
	contracts map[uuid.UUID]*domain.Contract
}

func newFakeContractRepo() *fakeContractRepo {
	return &fakeContractRepo{contracts: make(map[uuid.UUID]*domain.Contract)}
}

func (r *fakeContractRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*domain.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contracts[id]
	if !ok || c.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeContractRepo) UpdateStatus(_ context.Context, tenantID, id uuid.UUID, status domain.ContractStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contracts[id]
	if !ok || c.TenantID != tenantID {
		return domain.ErrNotFound
	}
	c.Status = status
	return nil
}

func (r *fakeContractRepo) put(c *domain.Contract) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.contracts[c.ID] = &cp
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditEntry
}

func (r *fakeAuditRepo) Record(_ context.Context, e *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *fakeAuditRepo) ListByTenant(_ context.Context, tenantID uuid.UUID, _, _ int) ([]*domain.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.AuditEntry
	for _, e := range r.entries {
		if e.TenantID == tenantID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeAuditRepo) ListByResource(_ context.Context, tenantID uuid.UUID, resourceType string, resourceID uuid.UUID) ([]*domain.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.AuditEntry
	for _, e := range r.entries {
		if e.TenantID == tenantID && e.ResourceType == resourceType && e.ResourceID == resourceID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Action
	}
	return out
}

func (r *fakeAuditRepo) count(action string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Action == action {
			n++
		}
	}
	return n
}

type fakeRoleResolver struct {
	mu     sync.Mutex
	byRole map[string][]uuid.UUID
	errFor map[string]error
}

func newFakeRoleResolver() *fakeRoleResolver {
	return &fakeRoleResolver{byRole: make(map[string][]uuid.UUID), errFor: make(map[string]error)}
}

func (r *fakeRoleResolver) ListActorsByRole(_ context.Context, _ uuid.UUID, role string) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.errFor[role]; err != nil {
		return nil, err
	}
	return r.byRole[role], nil
}

type sentNotification struct {
	recipient uuid.UUID
	subject   string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *fakeNotifier) Enqueue(_ context.Context, _, recipient uuid.UUID, subject, _ string, _ map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentNotification{recipient: recipient, subject: subject})
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type fakePublisher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (p *fakePublisher) Publish(_ context.Context, _ string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

// directSpec formats a direct-actor approver spec.
func directSpec(id uuid.UUID) domain.ApproverSpec {
	return domain.ApproverSpec(id.String())
}
