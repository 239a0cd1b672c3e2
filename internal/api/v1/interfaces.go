package v1

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vk93102/clm-backend/internal/domain"
	"github.com/vk93102/clm-backend/internal/workflow"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Contracts() domain.ContractRepository
	Definitions() domain.WorkflowDefinitionRepository
	Instances() domain.WorkflowInstanceRepository
	Approvals() domain.StageApprovalRepository
	SLARules() domain.SLARuleRepository
	SLABreaches() domain.SLABreachRepository
	Audit() domain.AuditRepository
	Notifications() domain.NotificationRepository
	Users() domain.UserRepository
	UserRoles() domain.UserRoleRepository
}

// AuthService abstracts authentication operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Register(ctx context.Context, tenantID uuid.UUID, email, password, name string) (*domain.User, error)
	Login(ctx context.Context, tenantID uuid.UUID, email, password string) (accessToken, refreshToken string, err error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
}

// WorkflowEngine abstracts workflow lifecycle operations for handler testing.
// *workflow.Engine satisfies this interface.
type WorkflowEngine interface {
	StartWorkflow(ctx context.Context, tenantID, contractID uuid.UUID, definitionID *uuid.UUID, initiator uuid.UUID, metadata map[string]any) (*domain.WorkflowInstance, error)
	ProcessApproval(ctx context.Context, tenantID, approvalID uuid.UUID, action workflow.Action, actor uuid.UUID, comments string, delegateTo *uuid.UUID) (*domain.WorkflowInstance, error)
	CancelWorkflow(ctx context.Context, tenantID, instanceID, actor uuid.UUID, reason string) error
	PauseWorkflow(ctx context.Context, tenantID, instanceID, actor uuid.UUID) error
	ResumeWorkflow(ctx context.Context, tenantID, instanceID, actor uuid.UUID) error
}

// SLAService abstracts breach lifecycle operations for handler testing.
// *sla.Monitor satisfies this interface.
type SLAService interface {
	AcknowledgeBreach(ctx context.Context, tenantID, breachID uuid.UUID, notes string) error
	ResolveBreach(ctx context.Context, tenantID, breachID uuid.UUID, notes string, completedAt time.Time) error
}
