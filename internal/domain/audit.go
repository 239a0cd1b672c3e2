package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Audit actions written by the workflow engine. The sink is append-only;
// external reporting reads these rows, nothing updates or deletes them.
const (
	AuditWorkflowStarted   = "workflow_started"
	AuditWorkflowCompleted = "workflow_completed"
	AuditWorkflowRejected  = "workflow_rejected"
	AuditWorkflowCancelled = "workflow_cancelled"
	AuditWorkflowPaused    = "workflow_paused"
	AuditWorkflowResumed   = "workflow_resumed"
	AuditApprovalApproved  = "approval_approved"
	AuditApprovalRejected  = "approval_rejected"
	AuditApprovalDelegated = "approval_delegated"
	AuditSLABreachDetected = "sla_breach_detected"
	AuditDefinitionCreated = "workflow_definition_created"
	AuditDefinitionUpdated = "workflow_definition_updated"
)

type AuditEntry struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	ActorID      uuid.UUID
	Action       string
	ResourceType string // "contract", "workflow_instance", "stage_approval", ...
	ResourceID   uuid.UUID
	Metadata     map[string]any
	CreatedAt    time.Time
}

type AuditRepository interface {
	Record(ctx context.Context, entry *AuditEntry) error
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*AuditEntry, error)
	ListByResource(ctx context.Context, tenantID uuid.UUID, resourceType string, resourceID uuid.UUID) ([]*AuditEntry, error)
}
