package medicine

import (
	"context"

	"github.com/google/uuid"

	"github.com/hackgods/clinicdesk/internal/apperr"
	"github.com/hackgods/clinicdesk/internal/db"
)

var (
	ErrMedicineNotFound = apperr.NotFound("medicine_not_found", "medicine not found")
	ErrShortKeyNotFound = apperr.NotFound("short_key_not_found", "short key not found")
	ErrOwnerNotFound    = apperr.NotFound("doctor_not_found", "short key owner doctor not found")

	ErrMedicineNameTaken = apperr.Conflict("medicine_name_taken", "an active medicine with this name already exists")
	ErrCodeTaken         = apperr.Conflict("short_key_code_taken", "short key code already exists")

	ErrNameRequired   = apperr.Validation("name_required", "name is required")
	ErrInvalidForm    = apperr.Validation("invalid_form", "form must be one of tablet, capsule, syrup, injection, ointment, drops, inhaler, other")
	ErrInvalidCode    = apperr.Validation("invalid_code", "code must be 2-32 letters, digits, '-' or '_'")
	ErrItemsRequired  = apperr.Validation("items_required", "a short key needs at least one item")
	ErrInvalidQty     = apperr.Validation("invalid_quantity", "quantity must not be negative")
	ErrInvalidStatus  = apperr.Validation("invalid_record_status", "status must be active or archived")
	ErrShortKeyClosed = apperr.BusinessRule("short_key_archived", "short key is archived")
)

type Repository interface {
	Create(ctx context.Context, m *Medicine) error
	Update(ctx context.Context, m *Medicine) error
	SetRecordStatus(ctx context.Context, id uuid.UUID, status db.RecordStatus) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error)
	// GetMany returns the medicines found among ids, keyed by id.
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Medicine, error)
	Search(ctx context.Context, f SearchFilter) ([]Medicine, int, error)
}

type ShortKeyRepository interface {
	Create(ctx context.Context, k *ShortKey) error
	Update(ctx context.Context, k *ShortKey) error
	ReplaceItems(ctx context.Context, id uuid.UUID, items []ShortKeyItem) error
	SetRecordStatus(ctx context.Context, id uuid.UUID, status db.RecordStatus) error
	GetByID(ctx context.Context, id uuid.UUID) (*ShortKey, error)
	GetByCode(ctx context.Context, code string) (*ShortKey, error)
	List(ctx context.Context, f ShortKeyFilter) ([]ShortKey, int, error)
}
