package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SLARule configures escalation behavior for overdue approvals. A nil
// WorkflowDefinitionID applies the rule to every definition in the tenant;
// an empty StageName applies it to every stage.
type SLARule struct {
	ID                   uuid.UUID
	TenantID             uuid.UUID
	Name                 string
	Description          string
	WorkflowDefinitionID *uuid.UUID
	StageName            string
	SLAHours             int
	EscalationEnabled    bool
	EscalationUsers      []uuid.UUID
	EscalationMessage    string
	IsActive             bool
	CreatedBy            uuid.UUID
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Matches reports whether the rule applies to an approval belonging to the
// given definition and stage.
func (r *SLARule) Matches(definitionID uuid.UUID, stageName string) bool {
	if r.WorkflowDefinitionID != nil && *r.WorkflowDefinitionID != definitionID {
		return false
	}
	if r.StageName != "" && r.StageName != stageName {
		return false
	}
	return true
}

// Specificity orders candidate rules: definition+stage scoped beats
// definition scoped beats stage scoped beats global.
func (r *SLARule) Specificity() int {
	n := 0
	if r.WorkflowDefinitionID != nil {
		n += 2
	}
	if r.StageName != "" {
		n++
	}
	return n
}

type BreachStatus string

const (
	BreachStatusActive       BreachStatus = "active"
	BreachStatusAcknowledged BreachStatus = "acknowledged"
	BreachStatusResolved     BreachStatus = "resolved"
)

// SLABreach records one detected overdue approval occurrence. At most one
// active breach may exist per stage approval; detection is idempotent
// across repeated scans.
type SLABreach struct {
	ID                  uuid.UUID
	TenantID            uuid.UUID
	WorkflowInstanceID  uuid.UUID
	StageApprovalID     uuid.UUID
	SLARuleID           *uuid.UUID
	BreachTime          time.Time
	ExpectedCompletion  time.Time
	ActualCompletion    *time.Time
	BreachDurationHours float64
	Status              BreachStatus
	Escalated           bool
	EscalationSentAt    *time.Time
	ResolutionNotes     string
}

type SLARuleRepository interface {
	Create(ctx context.Context, r *SLARule) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*SLARule, error)
	ListActive(ctx context.Context, tenantID uuid.UUID) ([]*SLARule, error)
	Update(ctx context.Context, r *SLARule) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

type SLABreachRepository interface {
	// CreateIfAbsent inserts the breach unless an active breach already
	// exists for the same stage approval. Returns false when the guard
	// suppressed the insert.
	CreateIfAbsent(ctx context.Context, b *SLABreach) (bool, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*SLABreach, error)
	ListByStatus(ctx context.Context, tenantID uuid.UUID, status BreachStatus) ([]*SLABreach, error)
	ListByInstance(ctx context.Context, tenantID, instanceID uuid.UUID) ([]*SLABreach, error)
	MarkEscalated(ctx context.Context, id uuid.UUID, sentAt time.Time) error
	// TransitionStatus is conditional on the current status, mirroring the
	// approval resolution guard.
	TransitionStatus(ctx context.Context, tenantID, id uuid.UUID, from, to BreachStatus, notes string, actualCompletion *time.Time) error
}
