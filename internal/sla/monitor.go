// Package sla detects approvals that blew past their deadline and drives
// the breach/escalation bookkeeping. The monitor runs out of band from the
// approval engine on a fixed interval and shares nothing with it beyond
// the approval store; idempotence comes from the store's one-active-breach
// guard, so overlapping or repeated scans never double-record.
package sla

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vk93102/clm-backend/internal/domain"
)

// Notifier mirrors the engine's fire-and-forget notification dependency.
type Notifier interface {
	Enqueue(ctx context.Context, tenantID, recipient uuid.UUID, subject, body string, meta map[string]any) error
}

// Monitor scans for SLA breaches and escalates per configured rules.
type Monitor struct {
	approvals domain.StageApprovalRepository
	breaches  domain.SLABreachRepository
	rules     domain.SLARuleRepository
	instances domain.WorkflowInstanceRepository
	contracts domain.ContractRepository
	audit     domain.AuditRepository
	notifier  Notifier
}

func NewMonitor(
	approvals domain.StageApprovalRepository,
	breaches domain.SLABreachRepository,
	rules domain.SLARuleRepository,
	instances domain.WorkflowInstanceRepository,
	contracts domain.ContractRepository,
	audit domain.AuditRepository,
	notifier Notifier,
) *Monitor {
	return &Monitor{
		approvals: approvals,
		breaches:  breaches,
		rules:     rules,
		instances: instances,
		contracts: contracts,
		audit:     audit,
		notifier:  notifier,
	}
}

// Run executes ScanForBreaches on a fixed interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("sla monitor started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("sla monitor stopped")
			return
		case now := <-ticker.C:
			breaches, err := m.ScanForBreaches(ctx, now)
			if err != nil {
				log.Error().Err(err).Msg("sla scan failed")
				continue
			}
			if len(breaches) > 0 {
				log.Warn().Int("breaches", len(breaches)).Msg("sla scan recorded new breaches")
			}
		}
	}
}

// ScanForBreaches records one active breach per overdue pending approval
// and escalates where the matching rule asks for it. Safe to re-invoke and
// to run concurrently with approval processing: the store suppresses
// duplicate active breaches, and a failure on one candidate never aborts
// the scan of the rest.
func (m *Monitor) ScanForBreaches(ctx context.Context, now time.Time) ([]*domain.SLABreach, error) {
	overdue, err := m.approvals.ListOverdue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("sla.Monitor.ScanForBreaches: list overdue: %w", err)
	}

	var recorded []*domain.SLABreach
	for _, approval := range overdue {
		breach, scanErr := m.recordBreach(ctx, approval, now)
		if scanErr != nil {
			log.Error().Err(scanErr).
				Str("approval_id", approval.ID.String()).
				Msg("breach recording failed, continuing scan")
			continue
		}
		if breach != nil {
			recorded = append(recorded, breach)
		}
	}

	return recorded, nil
}

func (m *Monitor) recordBreach(ctx context.Context, approval *domain.StageApproval, now time.Time) (*domain.SLABreach, error) {
	inst, err := m.instances.GetByID(ctx, approval.TenantID, approval.WorkflowInstanceID)
	if err != nil {
		return nil, fmt.Errorf("get instance: %w", err)
	}

	rule, err := m.findRule(ctx, inst, approval.StageName)
	if err != nil {
		return nil, err
	}

	breach := &domain.SLABreach{
		ID:                  uuid.New(),
		TenantID:            approval.TenantID,
		WorkflowInstanceID:  approval.WorkflowInstanceID,
		StageApprovalID:     approval.ID,
		BreachTime:          now,
		ExpectedCompletion:  approval.DueAt,
		BreachDurationHours: now.Sub(approval.DueAt).Hours(),
		Status:              domain.BreachStatusActive,
	}
	if rule != nil {
		breach.SLARuleID = &rule.ID
	}

	inserted, err := m.breaches.CreateIfAbsent(ctx, breach)
	if err != nil {
		return nil, fmt.Errorf("create breach: %w", err)
	}
	if !inserted {
		// An active breach already exists for this approval.
		return nil, nil
	}

	if err := m.audit.Record(ctx, &domain.AuditEntry{
		ID:           uuid.New(),
		TenantID:     approval.TenantID,
		ActorID:      uuid.Nil, // system actor
		Action:       domain.AuditSLABreachDetected,
		ResourceType: "stage_approval",
		ResourceID:   approval.ID,
		Metadata: map[string]any{
			"instance_id":   inst.ID.String(),
			"stage":         approval.StageName,
			"overdue_hours": breach.BreachDurationHours,
		},
		CreatedAt: now,
	}); err != nil {
		log.Error().Err(err).Str("breach_id", breach.ID.String()).Msg("breach audit record failed")
	}

	log.Warn().
		Str("approval_id", approval.ID.String()).
		Str("stage", approval.StageName).
		Float64("overdue_hours", breach.BreachDurationHours).
		Msg("sla breach detected")

	if rule != nil && rule.EscalationEnabled {
		m.escalate(ctx, breach, rule, inst, approval, now)
	}

	return breach, nil
}

// findRule picks the most specific active rule matching the approval's
// definition and stage, or nil when the tenant has none.
func (m *Monitor) findRule(ctx context.Context, inst *domain.WorkflowInstance, stageName string) (*domain.SLARule, error) {
	candidates, err := m.rules.ListActive(ctx, inst.TenantID)
	if err != nil {
		return nil, fmt.Errorf("list sla rules: %w", err)
	}

	var best *domain.SLARule
	for _, r := range candidates {
		if !r.Matches(inst.WorkflowDefinitionID, stageName) {
			continue
		}
		if best == nil || r.Specificity() > best.Specificity() {
			best = r
		}
	}

	return best, nil
}

// escalate fans one notification out per configured recipient and marks
// the breach escalated. Notification failures are logged per recipient;
// the breach row is marked escalated as long as the fan-out was attempted.
func (m *Monitor) escalate(ctx context.Context, breach *domain.SLABreach, rule *domain.SLARule, inst *domain.WorkflowInstance, approval *domain.StageApproval, now time.Time) {
	contractTitle := inst.ContractID.String()
	if contract, err := m.contracts.GetByID(ctx, inst.TenantID, inst.ContractID); err == nil {
		contractTitle = contract.Title
	}

	body := rule.EscalationMessage
	if body == "" {
		body = fmt.Sprintf(
			"SLA BREACH: contract %q has exceeded the %dh SLA for stage %q and is %.1fh overdue.",
			contractTitle, rule.SLAHours, approval.StageName, breach.BreachDurationHours,
		)
	}

	for _, recipient := range rule.EscalationUsers {
		err := m.notifier.Enqueue(ctx, inst.TenantID, recipient, "SLA Breach: "+contractTitle, body, map[string]any{
			"breach_id":   breach.ID.String(),
			"sla_rule_id": rule.ID.String(),
			"approval_id": approval.ID.String(),
			"priority":    10,
		})
		if err != nil {
			log.Error().Err(err).
				Str("recipient", recipient.String()).
				Str("breach_id", breach.ID.String()).
				Msg("escalation notification failed")
		}
	}

	if err := m.breaches.MarkEscalated(ctx, breach.ID, now); err != nil {
		log.Error().Err(err).Str("breach_id", breach.ID.String()).Msg("failed to mark breach escalated")
		return
	}
	breach.Escalated = true
	breach.EscalationSentAt = &now
}

// AcknowledgeBreach moves an active breach to acknowledged.
func (m *Monitor) AcknowledgeBreach(ctx context.Context, tenantID, breachID uuid.UUID, notes string) error {
	err := m.breaches.TransitionStatus(ctx, tenantID, breachID, domain.BreachStatusActive, domain.BreachStatusAcknowledged, notes, nil)
	if err != nil {
		return fmt.Errorf("sla.Monitor.AcknowledgeBreach: %w", err)
	}
	return nil
}

// ResolveBreach closes a breach, recording when the approval actually
// completed. Valid from active or acknowledged.
func (m *Monitor) ResolveBreach(ctx context.Context, tenantID, breachID uuid.UUID, notes string, completedAt time.Time) error {
	err := m.breaches.TransitionStatus(ctx, tenantID, breachID, domain.BreachStatusActive, domain.BreachStatusResolved, notes, &completedAt)
	if err == nil {
		return nil
	}
	ackErr := m.breaches.TransitionStatus(ctx, tenantID, breachID, domain.BreachStatusAcknowledged, domain.BreachStatusResolved, notes, &completedAt)
	if ackErr != nil {
		return fmt.Errorf("sla.Monitor.ResolveBreach: %w", ackErr)
	}
	return nil
}
