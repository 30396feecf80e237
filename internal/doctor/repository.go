package doctor

import (
	"context"

	"github.com/google/uuid"

	"github.com/hackgods/clinicdesk/internal/apperr"
	"github.com/hackgods/clinicdesk/internal/auth"
	"github.com/hackgods/clinicdesk/internal/db"
	"github.com/hackgods/clinicdesk/internal/schedule"
)

var (
	ErrDoctorNotFound  = apperr.NotFound("doctor_not_found", "doctor not found")
	ErrLicenseTaken    = apperr.Conflict("license_taken", "license number is already registered")
	ErrUserIsDoctor    = apperr.Conflict("user_already_doctor", "user already has a doctor profile")
	ErrUserNotDoctor   = apperr.Validation("user_not_doctor", "user must have the doctor role")
	ErrLicenseRequired = apperr.Validation("license_required", "license_number is required")
	ErrInvalidFee      = apperr.Validation("invalid_fee", "consultation_fee must not be negative")
	ErrInvalidOffices  = apperr.Validation("invalid_offices", "offices need a name and unique ids")
	ErrDoctorArchived  = apperr.BusinessRule("doctor_archived", "doctor is archived")
)

type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	Update(ctx context.Context, d *Doctor) error
	SetSchedule(ctx context.Context, id uuid.UUID, s schedule.WeeklySchedule) error
	SetOffices(ctx context.Context, id uuid.UUID, offices []Office) error
	SetRecordStatus(ctx context.Context, id uuid.UUID, status db.RecordStatus) error

	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	List(ctx context.Context, f ListFilter) ([]Doctor, int, error)
}

// Users resolves the login account a doctor profile hangs off.
type Users interface {
	GetUser(ctx context.Context, id uuid.UUID) (*auth.User, error)
}
