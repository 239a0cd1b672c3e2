package middleware

import (
	"context"

	"github.com/google/uuid"
)

// contextKey namespaces the values Auth copies out of a verified token so
// they cannot collide with keys set by other packages.
type contextKey string

const (
	ContextKeyTenantID contextKey = "tenant_id"
	ContextKeyUserID   contextKey = "user_id"
	ContextKeyUserRole contextKey = "role"
)

func claimFromContext[T any](ctx context.Context, key contextKey) (T, bool) {
	v, ok := ctx.Value(key).(T)
	return v, ok
}

// TenantIDFromContext returns the tenant claim of the authenticated
// request. Handlers scope every query by it.
func TenantIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	return claimFromContext[uuid.UUID](ctx, ContextKeyTenantID)
}

// UserIDFromContext returns the acting user's ID. The engine treats this
// as the approver identity when processing approvals.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	return claimFromContext[uuid.UUID](ctx, ContextKeyUserID)
}

// RoleFromContext returns the role claim consumed by RequireRole.
func RoleFromContext(ctx context.Context) (string, bool) {
	return claimFromContext[string](ctx, ContextKeyUserRole)
}
