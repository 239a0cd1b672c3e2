package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

// RequireTenant rejects requests whose token carried no tenant claim.
// Every operational route sits behind it; nothing below the middleware
// layer re-checks tenant presence.
func RequireTenant() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tid, ok := TenantIDFromContext(r.Context())
			if !ok || tid == uuid.Nil {
				w.Header().Set("Content-Type", "application/problem+json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"title":"Forbidden","status":403,"detail":"request is not scoped to a tenant"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
