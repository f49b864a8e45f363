package rbac

import (
	"log/slog"
	"net/http"

	"github.com/inkpad-app/inkpad/internal/session"
)

// Middleware wires permission checks for HTTP handlers.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// Require ensures the current user holds the named permission, responding
// 403 otherwise. Requests without an authenticated session are also 403.
func (m Middleware) Require(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := session.FromContext(r.Context())
			if sess == nil || sess.UserID == nil {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			ok, err := m.Service.HasPermission(r.Context(), *sess.UserID, permission)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("rbac require", slog.String("permission", permission), slog.Any("error", err))
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !ok {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
