package middleware

import (
	"net/http"
	"slices"
)

// Roles carried in the JWT role claim. Admins manage workflow definitions
// and SLA rules; members act on approvals; viewers only read.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// RequireRole gates a route on the role claim set by Auth, which must run
// earlier in the chain. A request without a role claim gets 401; a request
// whose role is not in the allow list gets 403.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := RoleFromContext(r.Context())
			if !ok || role == "" {
				http.Error(w, `{"title":"Unauthorized","status":401,"detail":"authentication required"}`, http.StatusUnauthorized)
				return
			}

			if !slices.Contains(roles, role) {
				http.Error(w, `{"title":"Forbidden","status":403,"detail":"insufficient permissions"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin shorthand for the configuration routes.
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(RoleAdmin)
}
