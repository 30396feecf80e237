package prescription

import (
	"context"

	"github.com/google/uuid"

	"github.com/hackgods/clinicdesk/internal/apperr"
)

var (
	ErrPrescriptionNotFound = apperr.NotFound("prescription_not_found", "prescription not found")
	ErrItemNotFound         = apperr.NotFound("prescription_item_not_found", "prescription item not found")

	ErrConcurrentUpdate = apperr.Conflict("prescription_changed", "prescription was changed by another request, reload and retry")
	ErrNumberCollision  = apperr.Conflict("prescription_number_taken", "could not allocate a prescription number, please retry")

	ErrInvalidAppointment = apperr.Validation("invalid_appointment", "appointment does not exist or belongs to another patient or doctor")
	ErrMedicineRequired   = apperr.Validation("medicine_required", "each item needs medicine_id or medicine_name")
	ErrInvalidQuantity    = apperr.Validation("invalid_quantity", "quantity must not be negative")
	ErrFollowUpInPast     = apperr.Validation("follow_up_in_past", "follow_up_date must not be in the past")
	ErrInvalidStatus      = apperr.Validation("invalid_status", "unknown prescription status")

	ErrNotDraft          = apperr.BusinessRule("prescription_not_draft", "items can only change while the prescription is a draft")
	ErrNotEditable       = apperr.BusinessRule("prescription_closed", "completed or cancelled prescriptions cannot be edited")
	ErrNoItems           = apperr.BusinessRule("prescription_empty", "a prescription needs at least one item before it is activated")
	ErrInvalidTransition = apperr.BusinessRule("invalid_status_transition", "status transition is not allowed")
)

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	List(ctx context.Context, f ListFilter) ([]Prescription, int, error)
	UpdateDetails(ctx context.Context, p *Prescription) error
	// UpdateStatus fails with ErrConcurrentUpdate when the row is no longer in from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error
	// AddItems appends items after the existing ones.
	AddItems(ctx context.Context, id uuid.UUID, items []Item) error
	RemoveItem(ctx context.Context, id, itemID uuid.UUID) error
}
