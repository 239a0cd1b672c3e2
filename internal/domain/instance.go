package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type InstanceStatus string

const (
	InstanceStatusActive    InstanceStatus = "active"
	InstanceStatusCompleted InstanceStatus = "completed"
	InstanceStatusRejected  InstanceStatus = "rejected"
	InstanceStatusCancelled InstanceStatus = "cancelled"
	InstanceStatusPaused    InstanceStatus = "paused"
)

// ValidTransition checks if an instance state transition is allowed.
// Allowed: active->{completed,rejected,cancelled,paused}, paused->{active,cancelled}.
// completed, rejected and cancelled are terminal.
func (s InstanceStatus) ValidTransition(to InstanceStatus) bool {
	switch s {
	case InstanceStatusActive:
		return to == InstanceStatusCompleted || to == InstanceStatusRejected ||
			to == InstanceStatusCancelled || to == InstanceStatusPaused
	case InstanceStatusPaused:
		return to == InstanceStatusActive || to == InstanceStatusCancelled
	default:
		return false
	}
}

// Terminal reports whether no further transitions are possible.
func (s InstanceStatus) Terminal() bool {
	switch s {
	case InstanceStatusCompleted, InstanceStatusRejected, InstanceStatusCancelled:
		return true
	default:
		return false
	}
}

// WorkflowInstance is one run of a WorkflowDefinition against a contract.
// At most one active instance may exist per contract at a time.
type WorkflowInstance struct {
	ID                   uuid.UUID
	TenantID             uuid.UUID
	ContractID           uuid.UUID
	WorkflowDefinitionID uuid.UUID
	CurrentStageSeq      int
	CurrentStageName     string
	Status               InstanceStatus
	StartedAt            time.Time
	CompletedAt          *time.Time
	Metadata             map[string]any
}

type WorkflowInstanceRepository interface {
	// Create inserts the instance. Returns ErrInstanceAlreadyActive when an
	// active instance already exists for the same contract.
	Create(ctx context.Context, inst *WorkflowInstance) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*WorkflowInstance, error)
	// Lock re-reads the instance under a row lock held until the enclosing
	// transaction ends. Serializes racing approvals on the same run so the
	// stage completion check always sees every committed resolution.
	Lock(ctx context.Context, tenantID, id uuid.UUID) (*WorkflowInstance, error)
	GetActiveByContract(ctx context.Context, tenantID, contractID uuid.UUID) (*WorkflowInstance, error)
	ListByContract(ctx context.Context, tenantID, contractID uuid.UUID) ([]*WorkflowInstance, error)
	ListByStatus(ctx context.Context, tenantID uuid.UUID, status InstanceStatus) ([]*WorkflowInstance, error)
	AdvanceStage(ctx context.Context, tenantID, id uuid.UUID, stageSeq int, stageName string) error
	// TransitionStatus performs a conditional update keyed on the current
	// status. Returns ErrInvalidTransition when the row is no longer in
	// `from`, which settles racing terminal transitions.
	TransitionStatus(ctx context.Context, tenantID, id uuid.UUID, from, to InstanceStatus, completedAt *time.Time) error
}
