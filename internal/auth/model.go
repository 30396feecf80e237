package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinicdesk/internal/db"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleDoctor Role = "doctor"
	RoleStaff  Role = "staff"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleDoctor || r == RoleStaff
}

type User struct {
	ID           uuid.UUID       `json:"id"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	FullName     string          `json:"full_name"`
	Role         Role            `json:"role"`
	RecordStatus db.RecordStatus `json:"record_status"`
	ArchivedAt   *time.Time      `json:"archived_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (u *User) Active() bool { return u.RecordStatus == db.RecordActive }

type CreateUserInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID   uuid.UUID `json:"user_id"`
	TenantID string    `json:"tenant_id"`
	Role     Role      `json:"role"`
	Email    string    `json:"email"`
}
