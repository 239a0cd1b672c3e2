package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Email        string
	PasswordHash string // argon2id
	Name         string
	Role         string // "admin", "member", or "viewer"
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	List(ctx context.Context, tenantID uuid.UUID) ([]*User, error)
}

// UserRole is a business-role assignment ("legal", "finance", ...) used to
// expand role approver specs. Distinct from User.Role, which gates API
// access, not approvals.
type UserRole struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	UserID    uuid.UUID
	Role      string
	IsActive  bool
	CreatedAt time.Time
}

type UserRoleRepository interface {
	Assign(ctx context.Context, r *UserRole) error
	Revoke(ctx context.Context, tenantID, id uuid.UUID) error
	// ListActorsByRole returns the user IDs of active assignments for a
	// role within a tenant. The engine expands role approver specs with it.
	ListActorsByRole(ctx context.Context, tenantID uuid.UUID, role string) ([]uuid.UUID, error)
	ListByUser(ctx context.Context, tenantID, userID uuid.UUID) ([]*UserRole, error)
}
