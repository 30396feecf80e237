package dental

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinicdesk/internal/apperr"
	"github.com/hackgods/clinicdesk/internal/appointment"
	"github.com/hackgods/clinicdesk/internal/db"
	"github.com/hackgods/clinicdesk/internal/doctor"
	"github.com/hackgods/clinicdesk/internal/events"
	"github.com/hackgods/clinicdesk/internal/patient"
)

const (
	EventObservationRecorded    = "dental.observation_recorded"
	EventProcedurePlanned       = "dental.procedure_planned"
	EventProcedureStatusChanged = "dental.procedure_status_changed"
)

type Patients interface {
	Get(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

type Doctors interface {
	GetActive(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
}

type Appointments interface {
	Get(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
}

type Service struct {
	repo         Repository
	patients     Patients
	doctors      Doctors
	appointments Appointments
	tx           db.Transactor
	events       events.Recorder
	now          func() time.Time
}

func NewService(repo Repository, patients Patients, doctors Doctors, appointments Appointments, tx db.Transactor, rec events.Recorder) *Service {
	return &Service{
		repo:         repo,
		patients:     patients,
		doctors:      doctors,
		appointments: appointments,
		tx:           tx,
		events:       rec,
		now:          time.Now,
	}
}

func (s *Service) RecordObservation(ctx context.Context, patientID uuid.UUID, in ObservationInput) (*Observation, error) {
	if !ValidTooth(in.ToothNumber) {
		return nil, invalidTooth(in.ToothNumber)
	}
	condition := in.Condition
	if condition == "" {
		condition = ConditionHealthy
	}
	if !condition.Valid() {
		return nil, ErrInvalidCondition
	}
	surfaces, err := normalizeSurfaces(in.Surfaces)
	if err != nil {
		return nil, err
	}
	if err := s.checkPatient(ctx, patientID, in.AppointmentID); err != nil {
		return nil, err
	}

	now := s.now()
	observed := now
	if in.ObservedAt != nil {
		observed = *in.ObservedAt
	}
	o := &Observation{
		ID:            uuid.New(),
		PatientID:     patientID,
		AppointmentID: in.AppointmentID,
		ToothNumber:   in.ToothNumber,
		Surfaces:      surfaces,
		Condition:     condition,
		Notes:         strings.TrimSpace(in.Notes),
		ObservedAt:    observed,
		CreatedAt:     now,
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateObservation(ctx, o); err != nil {
			return err
		}
		return s.record(ctx, EventObservationRecorded, "dental_observation", o.ID, map[string]any{
			"patient_id":   patientID,
			"tooth_number": o.ToothNumber,
			"condition":    o.Condition,
		})
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// ListObservations returns a patient's observations newest first. tooth 0 lists every tooth.
func (s *Service) ListObservations(ctx context.Context, patientID uuid.UUID, tooth int) ([]Observation, error) {
	if tooth != 0 && !ValidTooth(tooth) {
		return nil, invalidTooth(tooth)
	}
	if _, err := s.patients.Get(ctx, patientID); err != nil {
		return nil, err
	}
	return s.repo.ListObservations(ctx, patientID, tooth)
}

func (s *Service) PlanProcedure(ctx context.Context, patientID uuid.UUID, in ProcedureInput) (*Procedure, error) {
	teeth, err := normalizeTeeth(in.ToothNumbers)
	if err != nil {
		return nil, err
	}
	code := strings.ToUpper(strings.TrimSpace(in.ProcedureCode))
	if code == "" {
		return nil, ErrCodeRequired
	}
	if in.Cost < 0 {
		return nil, ErrInvalidCost
	}
	if err := s.checkPatient(ctx, patientID, in.AppointmentID); err != nil {
		return nil, err
	}
	if _, err := s.doctors.GetActive(ctx, in.DoctorID); err != nil {
		return nil, err
	}

	now := s.now()
	p := &Procedure{
		ID:            uuid.New(),
		PatientID:     patientID,
		AppointmentID: in.AppointmentID,
		DoctorID:      in.DoctorID,
		ToothNumbers:  teeth,
		ProcedureCode: code,
		Description:   strings.TrimSpace(in.Description),
		Status:        ProcedurePlanned,
		Cost:          in.Cost,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateProcedure(ctx, p); err != nil {
			return err
		}
		return s.record(ctx, EventProcedurePlanned, "dental_procedure", p.ID, map[string]any{
			"patient_id":     patientID,
			"tooth_numbers":  teeth,
			"procedure_code": code,
		})
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) ListProcedures(ctx context.Context, patientID uuid.UUID) ([]Procedure, error) {
	if _, err := s.patients.Get(ctx, patientID); err != nil {
		return nil, err
	}
	return s.repo.ListProcedures(ctx, patientID)
}

// TransitionProcedure moves a procedure along planned, in_progress, completed;
// completion stamps performed_at.
func (s *Service) TransitionProcedure(ctx context.Context, id uuid.UUID, to ProcedureStatus) (*Procedure, error) {
	if !to.Valid() {
		return nil, ErrInvalidStatus
	}
	var out *Procedure
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetProcedure(ctx, id)
		if err != nil {
			return err
		}
		if !CanTransition(p.Status, to) {
			return &apperr.Error{
				Kind:    apperr.KindBusinessRule,
				Code:    ErrInvalidTransition.Code,
				Message: fmt.Sprintf("cannot move procedure from %s to %s", p.Status, to),
			}
		}
		now := s.now()
		performed := p.PerformedAt
		if to == ProcedureCompleted {
			performed = &now
		}
		if err := s.repo.UpdateProcedureStatus(ctx, id, p.Status, to, performed); err != nil {
			return err
		}
		from := p.Status
		p.Status, p.PerformedAt, p.UpdatedAt = to, performed, now
		out = p
		return s.record(ctx, EventProcedureStatusChanged, "dental_procedure", p.ID, map[string]any{
			"patient_id":      p.PatientID,
			"previous_status": from,
			"status":          to,
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Chart builds the per-tooth view of a patient: every tooth that has an
// observation or a procedure, in FDI order.
func (s *Service) Chart(ctx context.Context, patientID uuid.UUID) (*Chart, error) {
	if _, err := s.patients.Get(ctx, patientID); err != nil {
		return nil, err
	}
	observations, err := s.repo.ListObservations(ctx, patientID, 0)
	if err != nil {
		return nil, err
	}
	procedures, err := s.repo.ListProcedures(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return buildChart(patientID, observations, procedures), nil
}

func buildChart(patientID uuid.UUID, observations []Observation, procedures []Procedure) *Chart {
	teeth := map[int]*Tooth{}
	get := func(n int) *Tooth {
		t, ok := teeth[n]
		if !ok {
			t = &Tooth{ToothNumber: n, Primary: Primary(n), Procedures: []Procedure{}}
			teeth[n] = t
		}
		return t
	}

	for i := range observations {
		o := observations[i]
		t := get(o.ToothNumber)
		if t.Latest == nil || o.ObservedAt.After(t.Latest.ObservedAt) {
			t.Latest = &o
		}
	}
	for _, p := range procedures {
		for _, n := range p.ToothNumbers {
			t := get(n)
			t.Procedures = append(t.Procedures, p)
		}
	}

	chart := &Chart{PatientID: patientID, Teeth: make([]Tooth, 0, len(teeth))}
	for _, t := range teeth {
		chart.Teeth = append(chart.Teeth, *t)
	}
	sort.Slice(chart.Teeth, func(i, j int) bool { return chart.Teeth[i].ToothNumber < chart.Teeth[j].ToothNumber })
	return chart
}

func (s *Service) checkPatient(ctx context.Context, patientID uuid.UUID, appointmentID *uuid.UUID) error {
	p, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return err
	}
	if !p.Active() {
		return patient.ErrPatientArchived
	}
	if appointmentID == nil {
		return nil
	}
	a, err := s.appointments.Get(ctx, *appointmentID)
	if errors.Is(err, apperr.ErrNotFound) {
		return ErrInvalidAppointment
	}
	if err != nil {
		return err
	}
	if a.PatientID != patientID {
		return ErrInvalidAppointment
	}
	return nil
}

func normalizeSurfaces(in []Surface) ([]Surface, error) {
	out := make([]Surface, 0, len(in))
	seen := map[Surface]bool{}
	for _, s := range in {
		s = Surface(strings.ToLower(strings.TrimSpace(string(s))))
		if !s.Valid() {
			return nil, ErrInvalidSurface
		}
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out, nil
}

func (s *Service) record(ctx context.Context, eventType, aggregate string, id uuid.UUID, payload map[string]any) error {
	return s.events.Record(ctx, events.Event{
		Type:          eventType,
		AggregateType: aggregate,
		AggregateID:   id,
		Payload:       payload,
	})
}
