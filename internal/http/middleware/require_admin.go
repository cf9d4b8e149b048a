package middleware

import (
	"net/http"

	"github.com/ateliercarvalho/atelier/internal/session"
)

// RequireAdmin lets through only requests whose admin session is signed in
// with the Admin role. It must run after Sessions.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := session.FromContext(r.Context(), session.AdminDomain)
		switch {
		case m == nil || !m.IsAuthenticated():
			writeError(w, http.StatusUnauthorized, "Sessão expirada. Faça login novamente.")
			return
		case !m.IsAdmin():
			writeError(w, http.StatusForbidden, "Acesso restrito a administradores.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
