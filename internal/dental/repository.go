package dental

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinicdesk/internal/apperr"
)

var (
	ErrProcedureNotFound = apperr.NotFound("procedure_not_found", "dental procedure not found")

	ErrConcurrentUpdate = apperr.Conflict("procedure_changed", "procedure was changed by another request, reload and retry")

	ErrInvalidTooth       = apperr.Validation("invalid_tooth_number", "tooth number is not a valid FDI tooth")
	ErrTeethRequired      = apperr.Validation("tooth_numbers_required", "at least one tooth number is required")
	ErrInvalidSurface     = apperr.Validation("invalid_surface", "unknown tooth surface")
	ErrInvalidCondition   = apperr.Validation("invalid_condition", "unknown tooth condition")
	ErrCodeRequired       = apperr.Validation("procedure_code_required", "procedure_code is required")
	ErrInvalidCost        = apperr.Validation("invalid_cost", "cost must not be negative")
	ErrInvalidStatus      = apperr.Validation("invalid_status", "unknown procedure status")
	ErrInvalidAppointment = apperr.Validation("invalid_appointment", "appointment does not exist or belongs to another patient")

	ErrInvalidTransition = apperr.BusinessRule("invalid_status_transition", "status transition is not allowed")
)

func invalidTooth(n int) error {
	return &apperr.Error{
		Kind:    apperr.KindValidation,
		Code:    ErrInvalidTooth.Code,
		Message: fmt.Sprintf("%d is not a valid FDI tooth number", n),
	}
}

type Repository interface {
	CreateObservation(ctx context.Context, o *Observation) error
	// ListObservations returns a patient's observations newest first; tooth 0 means every tooth.
	ListObservations(ctx context.Context, patientID uuid.UUID, tooth int) ([]Observation, error)

	CreateProcedure(ctx context.Context, p *Procedure) error
	GetProcedure(ctx context.Context, id uuid.UUID) (*Procedure, error)
	// ListProcedures returns a patient's procedures oldest first.
	ListProcedures(ctx context.Context, patientID uuid.UUID) ([]Procedure, error)
	// UpdateProcedureStatus fails with ErrConcurrentUpdate when the row is no longer in from.
	UpdateProcedureStatus(ctx context.Context, id uuid.UUID, from, to ProcedureStatus, performedAt *time.Time) error
}
