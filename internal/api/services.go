package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/hackgods/clinicdesk/internal/appointment"
	"github.com/hackgods/clinicdesk/internal/auth"
	"github.com/hackgods/clinicdesk/internal/db"
	"github.com/hackgods/clinicdesk/internal/dental"
	"github.com/hackgods/clinicdesk/internal/doctor"
	"github.com/hackgods/clinicdesk/internal/medicine"
	"github.com/hackgods/clinicdesk/internal/patient"
	"github.com/hackgods/clinicdesk/internal/prescription"
	"github.com/hackgods/clinicdesk/internal/schedule"
)

type AuthService interface {
	Login(ctx context.Context, tenantID, email, password string) (*auth.LoginResult, error)
	CreateUser(ctx context.Context, in auth.CreateUserInput) (*auth.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*auth.User, error)
}

type PatientService interface {
	Create(ctx context.Context, in patient.CreateInput) (*patient.Patient, error)
	Get(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	GetByKey(ctx context.Context, mobile, firstName string) (*patient.Patient, error)
	Search(ctx context.Context, f patient.SearchFilter) ([]patient.Patient, int, error)
	Update(ctx context.Context, id uuid.UUID, in patient.UpdateInput) (*patient.Patient, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	Restore(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	Family(ctx context.Context, mobile string) (*patient.Family, error)
	Eligibility(ctx context.Context, mobile string) (*patient.Eligibility, error)
	ValidateFamilyMember(ctx context.Context, mobile, firstName string, rel patient.Relationship) (*patient.MemberValidation, error)
}

type DoctorService interface {
	Create(ctx context.Context, in doctor.CreateInput) (*doctor.Doctor, error)
	Get(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
	List(ctx context.Context, f doctor.ListFilter) ([]doctor.Doctor, int, error)
	Update(ctx context.Context, id uuid.UUID, in doctor.UpdateInput) (*doctor.Doctor, error)
	SetSchedule(ctx context.Context, id uuid.UUID, sched schedule.WeeklySchedule) (*doctor.Doctor, error)
	SetOffices(ctx context.Context, id uuid.UUID, offices []doctor.Office) (*doctor.Doctor, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
	Restore(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
}

type AppointmentService interface {
	Create(ctx context.Context, in appointment.CreateInput) (*appointment.Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	GetByNumber(ctx context.Context, number string) (*appointment.Appointment, error)
	List(ctx context.Context, f appointment.ListFilter) ([]appointment.Appointment, int, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, in appointment.DetailsInput) (*appointment.Appointment, error)
	Reschedule(ctx context.Context, id uuid.UUID, in appointment.RescheduleInput) (*appointment.Appointment, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, to appointment.Status, reason string) (*appointment.Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string) (*appointment.Appointment, error)
	BulkStatus(ctx context.Context, ids []uuid.UUID, to appointment.Status, reason string) ([]appointment.BulkResult, error)
	CheckConflict(ctx context.Context, in appointment.ConflictCheck) (*appointment.ConflictResult, error)
	AvailableSlots(ctx context.Context, doctorID uuid.UUID, date schedule.Date, slotMinutes int) ([]schedule.Slot, error)
	SuggestedTimes(ctx context.Context, doctorID uuid.UUID, date schedule.Date, durationMinutes int) ([]appointment.Suggestion, error)
	DailySummary(ctx context.Context, from, to schedule.Date, doctorID uuid.UUID) ([]appointment.DailySummary, error)
}

type PrescriptionService interface {
	Create(ctx context.Context, in prescription.CreateInput) (*prescription.Prescription, error)
	Get(ctx context.Context, id uuid.UUID) (*prescription.Prescription, error)
	List(ctx context.Context, f prescription.ListFilter) ([]prescription.Prescription, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, page db.Page) ([]prescription.Prescription, int, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, in prescription.DetailsInput) (*prescription.Prescription, error)
	AddItem(ctx context.Context, id uuid.UUID, in prescription.ItemInput) (*prescription.Prescription, error)
	ApplyShortKey(ctx context.Context, id uuid.UUID, code string) (*prescription.Prescription, error)
	RemoveItem(ctx context.Context, id, itemID uuid.UUID) (*prescription.Prescription, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, to prescription.Status) (*prescription.Prescription, error)
}

type MedicineService interface {
	Create(ctx context.Context, in medicine.CreateInput) (*medicine.Medicine, error)
	Get(ctx context.Context, id uuid.UUID) (*medicine.Medicine, error)
	Search(ctx context.Context, f medicine.SearchFilter) ([]medicine.Medicine, int, error)
	Update(ctx context.Context, id uuid.UUID, in medicine.UpdateInput) (*medicine.Medicine, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*medicine.Medicine, error)
	Restore(ctx context.Context, id uuid.UUID) (*medicine.Medicine, error)

	CreateShortKey(ctx context.Context, in medicine.ShortKeyInput) (*medicine.ShortKey, error)
	GetShortKey(ctx context.Context, id uuid.UUID) (*medicine.ShortKey, error)
	GetShortKeyByCode(ctx context.Context, code string) (*medicine.ShortKey, error)
	ListShortKeys(ctx context.Context, f medicine.ShortKeyFilter) ([]medicine.ShortKey, int, error)
	UpdateShortKey(ctx context.Context, id uuid.UUID, in medicine.ShortKeyUpdate) (*medicine.ShortKey, error)
	DeactivateShortKey(ctx context.Context, id uuid.UUID) (*medicine.ShortKey, error)
	Expand(ctx context.Context, code string) ([]medicine.Line, error)
}

type DentalService interface {
	RecordObservation(ctx context.Context, patientID uuid.UUID, in dental.ObservationInput) (*dental.Observation, error)
	ListObservations(ctx context.Context, patientID uuid.UUID, tooth int) ([]dental.Observation, error)
	PlanProcedure(ctx context.Context, patientID uuid.UUID, in dental.ProcedureInput) (*dental.Procedure, error)
	ListProcedures(ctx context.Context, patientID uuid.UUID) ([]dental.Procedure, error)
	TransitionProcedure(ctx context.Context, id uuid.UUID, to dental.ProcedureStatus) (*dental.Procedure, error)
	Chart(ctx context.Context, patientID uuid.UUID) (*dental.Chart, error)
}

// LoginLimiter caps login attempts per key.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
