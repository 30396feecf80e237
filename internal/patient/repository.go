package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/hackgods/clinicdesk/internal/apperr"
	"github.com/hackgods/clinicdesk/internal/db"
)

var (
	ErrPatientNotFound    = apperr.NotFound("patient_not_found", "patient not found")
	ErrFamilyRootNotFound = apperr.NotFound("family_root_not_found", "no self member is registered for this mobile number")

	ErrDuplicatePatient = apperr.Conflict("patient_exists", "a patient with this mobile number and first name already exists")
	ErrSelfExists       = apperr.Conflict("family_self_exists", "a self member is already registered for this mobile number")

	ErrMobileInvalid           = apperr.Validation("invalid_mobile_number", "mobile_number must be 7 to 15 digits")
	ErrFirstNameRequired       = apperr.Validation("first_name_required", "first_name is required")
	ErrRelationshipInvalid     = apperr.Validation("invalid_relationship", "relationship_to_primary must be one of self, spouse, child, parent, sibling, other")
	ErrPrimaryContactForbidden = apperr.Validation("primary_contact_not_allowed", "primary_contact_mobile must be empty for a self member")
	ErrPrimaryContactRequired  = apperr.Validation("primary_contact_required", "primary_contact_mobile is required for a dependent")
	ErrPrimaryContactMismatch  = apperr.Validation("primary_contact_mismatch", "primary_contact_mobile must equal the family mobile_number")

	ErrFamilyFull       = apperr.BusinessRule("family_full", "family has reached the maximum number of members")
	ErrFamilyHasMembers = apperr.BusinessRule("family_has_dependents", "self member still has active dependents")
)

// Repository is the patient identity store.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	Update(ctx context.Context, p *Patient) error
	SetRecordStatus(ctx context.Context, id uuid.UUID, status db.RecordStatus) (*Patient, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	// FindByKey matches regardless of record status.
	FindByKey(ctx context.Context, mobile, firstName string) (*Patient, error)
	// FindSelfMember returns the active self member for mobile.
	FindSelfMember(ctx context.Context, mobile string) (*Patient, error)
	// CountFamilyMembers counts active members, self included.
	CountFamilyMembers(ctx context.Context, mobile string) (int, error)
	ListFamily(ctx context.Context, mobile string) ([]Patient, error)
	Search(ctx context.Context, f SearchFilter) ([]Patient, int, error)
}

var ErrPatientArchived = apperr.BusinessRule("patient_archived", "patient record is archived")
