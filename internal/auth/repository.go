package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/hackgods/clinicdesk/internal/apperr"
)

var (
	ErrUserNotFound       = apperr.NotFound("user_not_found", "user not found")
	ErrEmailTaken         = apperr.Conflict("email_taken", "a user with this email already exists")
	ErrInvalidCredentials = apperr.Validation("invalid_credentials", "email or password is incorrect")
	ErrWeakPassword       = apperr.Validation("weak_password", "password must be at least 8 characters")
	ErrInvalidRole        = apperr.Validation("invalid_role", "role must be one of admin, doctor, staff")
	ErrInvalidEmail       = apperr.Validation("invalid_email", "email is required")
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}
