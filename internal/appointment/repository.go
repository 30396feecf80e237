package appointment

import (
	"context"

	"github.com/google/uuid"

	"github.com/hackgods/clinicdesk/internal/apperr"
	"github.com/hackgods/clinicdesk/internal/schedule"
)

var (
	ErrAppointmentNotFound = apperr.NotFound("appointment_not_found", "appointment not found")

	ErrSlotTaken           = apperr.Conflict("appointment_conflict", "doctor already has an appointment overlapping this time")
	ErrScheduleBeingBooked = apperr.Conflict("schedule_being_booked", "doctor's schedule for this date is being booked, please retry")
	ErrConcurrentUpdate    = apperr.Conflict("appointment_changed", "appointment was changed by another request, reload and retry")
	ErrNumberCollision     = apperr.Conflict("appointment_number_taken", "could not allocate an appointment number, please retry")

	ErrInvalidDuration = apperr.Validation("invalid_duration", "duration_minutes must be between 5 and 480")
	ErrInvalidSlot     = apperr.Validation("invalid_slot_minutes", "slot_minutes must be between 5 and 480")
	ErrDateRequired    = apperr.Validation("date_required", "appointment_date is required")
	ErrInPast          = apperr.Validation("appointment_in_past", "appointment must not start in the past")
	ErrUnknownOffice   = apperr.Validation("unknown_office", "office_id is not one of the doctor's offices")
	ErrInvalidStatus   = apperr.Validation("invalid_status", "unknown appointment status")
	ErrPatientRequired = apperr.Validation("patient_required", "patient_id or patient_mobile and patient_first_name are required")
	ErrPatientMismatch = apperr.Validation("patient_mismatch", "patient_id does not match patient_mobile and patient_first_name")
	ErrBulkTooLarge    = apperr.Validation("bulk_too_large", "bulk requests accept at most 100 appointments")
	ErrRangeTooLarge   = apperr.Validation("range_too_large", "report range must be between 1 and 31 days")

	ErrOutsideWorkingHours = apperr.BusinessRule("outside_working_hours", "requested time is outside the doctor's working hours")
	ErrInvalidTransition   = apperr.BusinessRule("invalid_status_transition", "status transition is not allowed")
	ErrNotReschedulable    = apperr.BusinessRule("not_reschedulable", "only scheduled or confirmed appointments can be rescheduled")
)

// Repository is the appointment ledger.
type Repository interface {
	Bookings

	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetByNumber(ctx context.Context, number string) (*Appointment, error)
	List(ctx context.Context, f ListFilter) ([]Appointment, int, error)

	// UpdateStatus moves id from one status to another and fails with
	// ErrConcurrentUpdate when the row is no longer in from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, cancellationReason string) (*Appointment, error)
	Reschedule(ctx context.Context, id uuid.UUID, date schedule.Date, start schedule.Clock, durationMinutes int, officeID string) (*Appointment, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, reason, notes string) (*Appointment, error)

	DailyCounts(ctx context.Context, from, to schedule.Date, doctorID uuid.UUID) ([]DailyCount, error)
}
