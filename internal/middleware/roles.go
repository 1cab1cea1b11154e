package middleware

import (
	"net/http"

	"github.com/csmith1188/digipogs/internal/api/httpx"
)

// RequirePermission allows only callers at or above the given global level.
func RequirePermission(min int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			perm, ok := Permissions(r.Context())
			if !ok || perm < min {
				httpx.WriteError(w, http.StatusForbidden, "forbidden", "insufficient permissions", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
