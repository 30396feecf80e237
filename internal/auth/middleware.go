package auth

import (
	"encoding/json"
	"net/http"
	"strings"
)

func writeAuthError(w http.ResponseWriter, status int, code, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "details": details})
}

// Middleware requires a valid bearer token and stores its principal in the
// request context.
func Middleware(tokens *Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}

			p, err := tokens.Parse(strings.TrimSpace(raw))
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// Authorize rejects callers whose role may not perform action on resource.
func Authorize(action Action, resource Resource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
				return
			}
			if !Allowed(p.Role, action, resource) {
				writeAuthError(w, http.StatusForbidden, "forbidden",
					string(p.Role)+" may not "+string(action)+" "+string(resource))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
