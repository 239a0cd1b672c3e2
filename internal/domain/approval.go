package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ApprovalStatus string

const (
	ApprovalStatusPending   ApprovalStatus = "pending"
	ApprovalStatusApproved  ApprovalStatus = "approved"
	ApprovalStatusRejected  ApprovalStatus = "rejected"
	ApprovalStatusDelegated ApprovalStatus = "delegated"
	ApprovalStatusExpired   ApprovalStatus = "expired"
)

// StageApproval is one approval slot: (instance, stage, resolved approver).
// Once it leaves pending the row is immutable; audit entries are separate
// rows and are never edited.
type StageApproval struct {
	ID                 uuid.UUID
	TenantID           uuid.UUID
	WorkflowInstanceID uuid.UUID
	StageSeq           int
	StageName          string
	ApproverID         uuid.UUID
	ApproverRole       string // role token the approver was resolved from, "" for direct specs
	Status             ApprovalStatus
	IsRequired         bool
	RequestedAt        time.Time
	DueAt              time.Time
	RespondedAt        *time.Time
	Comments           string
	DelegatedTo        *uuid.UUID
}

// Overdue reports whether the approval is pending past its deadline.
func (a *StageApproval) Overdue(now time.Time) bool {
	return a.Status == ApprovalStatusPending && now.After(a.DueAt)
}

type StageApprovalRepository interface {
	Create(ctx context.Context, a *StageApproval) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*StageApproval, error)
	ListByInstance(ctx context.Context, tenantID, instanceID uuid.UUID) ([]*StageApproval, error)
	ListByStage(ctx context.Context, tenantID, instanceID uuid.UUID, stageSeq int) ([]*StageApproval, error)
	ListPendingByApprover(ctx context.Context, tenantID, approverID uuid.UUID) ([]*StageApproval, error)
	// ListOverdue has no tenant filter - background scan across all tenants.
	ListOverdue(ctx context.Context, now time.Time) ([]*StageApproval, error)
	// Resolve performs the conditional pending->status update that gives
	// ProcessApproval its exactly-once semantics. Returns
	// ErrApprovalNotPending when the row already left pending.
	Resolve(ctx context.Context, tenantID, id uuid.UUID, status ApprovalStatus, respondedAt time.Time, comments string, delegatedTo *uuid.UUID) error
}
