package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinicdesk/internal/auth"
	"github.com/hackgods/clinicdesk/internal/db"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func loginHandler(svc AuthService, limiter LoginLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeAppError(w, r, err)
			return
		}

		tenantID := db.TenantFromContext(r.Context())
		if limiter != nil {
			key := "login:" + tenantID + ":" + strings.ToLower(strings.TrimSpace(req.Email))
			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				// Fail open when the limiter store is unreachable.
				zerolog.Ctx(r.Context()).Warn().Err(err).Msg("login rate limiter unavailable")
			} else if !allowed {
				writeError(w, http.StatusTooManyRequests, "too_many_attempts", "too many login attempts, try again later")
				return
			}
		}

		res, err := svc.Login(r.Context(), tenantID, req.Email, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
				return
			}
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func meHandler(svc AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := auth.PrincipalFromContext(r.Context())
		u, err := svc.GetUser(r.Context(), p.UserID)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"user":      u,
			"tenant_id": p.TenantID,
		})
	}
}

func createUserHandler(svc AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in auth.CreateUserInput
		if err := decodeJSON(r, &in); err != nil {
			writeAppError(w, r, err)
			return
		}
		u, err := svc.CreateUser(r.Context(), in)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, u)
	}
}
