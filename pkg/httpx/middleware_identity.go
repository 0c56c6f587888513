package httpx

import (
	"net/http"
	"strings"

	"github.com/fintrakhq/banksync/pkg/slogx"
)

// UserHeader carries the ID of the already-authenticated principal. The
// host application terminates authentication upstream; this service only
// needs to know who the request acts for.
const UserHeader = "X-User-ID"

// RequireUser rejects requests that don't identify an acting user and
// injects the user ID into the request context for downstream handlers.
func RequireUser() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			userID := strings.TrimSpace(r.Header.Get(UserHeader))
			if userID == "" {
				log.Warn("request without user identity", "path", r.URL.Path)
				WriteError(w, http.StatusUnauthorized, "missing "+UserHeader+" header")
				return
			}

			ctx = ContextWithUserID(ctx, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
