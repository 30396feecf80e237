package prescription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinicdesk/internal/apperr"
	"github.com/hackgods/clinicdesk/internal/appointment"
	"github.com/hackgods/clinicdesk/internal/db"
	"github.com/hackgods/clinicdesk/internal/doctor"
	"github.com/hackgods/clinicdesk/internal/events"
	"github.com/hackgods/clinicdesk/internal/medicine"
	"github.com/hackgods/clinicdesk/internal/patient"
	"github.com/hackgods/clinicdesk/internal/schedule"
	"github.com/hackgods/clinicdesk/internal/telemetry"
)

const (
	EventPrescriptionCreated       = "prescription.created"
	EventPrescriptionUpdated       = "prescription.updated"
	EventPrescriptionItemsChanged  = "prescription.items_changed"
	EventPrescriptionStatusChanged = "prescription.status_changed"

	NumberPrefix = "RX"
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

// Catalog resolves catalog medicines and expands short keys.
type Catalog interface {
	Get(ctx context.Context, id uuid.UUID) (*medicine.Medicine, error)
	Expand(ctx context.Context, code string) ([]medicine.Line, error)
}

type Service struct {
	repo         Repository
	patients     Patients
	doctors      Doctors
	appointments Appointments
	catalog      Catalog
	tx           db.Transactor
	events       events.Recorder
	now          func() time.Time
}

func NewService(repo Repository, patients Patients, doctors Doctors, appointments Appointments, catalog Catalog, tx db.Transactor, rec events.Recorder) *Service {
	return &Service{
		repo:         repo,
		patients:     patients,
		doctors:      doctors,
		appointments: appointments,
		catalog:      catalog,
		tx:           tx,
		events:       rec,
		now:          time.Now,
	}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Prescription, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "prescription.Create")
	defer span.End()

	p, err := s.patients.Get(ctx, in.PatientID)
	if err != nil {
		return nil, err
	}
	if !p.Active() {
		return nil, patient.ErrPatientArchived
	}
	if _, err := s.doctors.GetActive(ctx, in.DoctorID); err != nil {
		return nil, err
	}
	if in.AppointmentID != nil {
		if err := s.checkAppointment(ctx, *in.AppointmentID, in.PatientID, in.DoctorID); err != nil {
			return nil, err
		}
	}
	if err := s.checkFollowUp(in.FollowUpDate); err != nil {
		return nil, err
	}
	items, err := s.resolveItems(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rx := &Prescription{
		ID:            uuid.New(),
		Number:        db.HumanNumber(NumberPrefix, now),
		PatientID:     in.PatientID,
		DoctorID:      in.DoctorID,
		AppointmentID: in.AppointmentID,
		Diagnosis:     strings.TrimSpace(in.Diagnosis),
		Notes:         in.Notes,
		Status:        StatusDraft,
		FollowUpDate:  in.FollowUpDate,
		Items:         items,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, rx); err != nil {
			return err
		}
		return s.record(ctx, EventPrescriptionCreated, rx, nil)
	})
	if err != nil {
		return nil, err
	}
	return rx, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Prescription, int, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	f.Page = f.Page.Clamp()
	return s.repo.List(ctx, f)
}

// ListByPatient returns a patient's prescriptions, newest first.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, page db.Page) ([]Prescription, int, error) {
	if _, err := s.patients.Get(ctx, patientID); err != nil {
		return nil, 0, err
	}
	return s.List(ctx, ListFilter{PatientID: patientID, Page: page})
}

// UpdateDetails edits diagnosis, notes and follow-up of a draft or active prescription.
func (s *Service) UpdateDetails(ctx context.Context, id uuid.UUID, in DetailsInput) (*Prescription, error) {
	var out *Prescription
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		rx, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if rx.Status != StatusDraft && rx.Status != StatusActive {
			return ErrNotEditable
		}
		if in.Diagnosis != nil {
			rx.Diagnosis = strings.TrimSpace(*in.Diagnosis)
		}
		if in.Notes != nil {
			rx.Notes = *in.Notes
		}
		if in.FollowUpDate != nil {
			if err := s.checkFollowUp(*in.FollowUpDate); err != nil {
				return err
			}
			rx.FollowUpDate = *in.FollowUpDate
		}
		rx.UpdatedAt = s.now()
		if err := s.repo.UpdateDetails(ctx, rx); err != nil {
			return err
		}
		out = rx
		return s.record(ctx, EventPrescriptionUpdated, rx, nil)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) AddItem(ctx context.Context, id uuid.UUID, in ItemInput) (*Prescription, error) {
	items, err := s.resolveItems(ctx, []ItemInput{in})
	if err != nil {
		return nil, err
	}
	return s.appendItems(ctx, id, items, "")
}

// ApplyShortKey copies the lines of an active short key onto a draft prescription.
func (s *Service) ApplyShortKey(ctx context.Context, id uuid.UUID, code string) (*Prescription, error) {
	lines, err := s.catalog.Expand(ctx, code)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		medID := l.MedicineID
		items = append(items, Item{
			ID:           uuid.New(),
			MedicineID:   &medID,
			MedicineName: l.MedicineName,
			Dosage:       l.Dosage,
			Frequency:    l.Frequency,
			Duration:     l.Duration,
			Instructions: l.Instructions,
			Quantity:     l.Quantity,
		})
	}
	return s.appendItems(ctx, id, items, medicine.NormalizeCode(code))
}

func (s *Service) appendItems(ctx context.Context, id uuid.UUID, items []Item, shortKey string) (*Prescription, error) {
	var out *Prescription
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		rx, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if rx.Status != StatusDraft {
			return ErrNotDraft
		}
		if err := s.repo.AddItems(ctx, id, items); err != nil {
			return err
		}
		rx.Items = append(rx.Items, items...)
		out = rx
		extra := map[string]any{"added": len(items)}
		if shortKey != "" {
			extra["short_key"] = shortKey
		}
		return s.record(ctx, EventPrescriptionItemsChanged, rx, extra)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) RemoveItem(ctx context.Context, id, itemID uuid.UUID) (*Prescription, error) {
	var out *Prescription
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		rx, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if rx.Status != StatusDraft {
			return ErrNotDraft
		}
		if err := s.repo.RemoveItem(ctx, id, itemID); err != nil {
			return err
		}
		kept := rx.Items[:0]
		for _, it := range rx.Items {
			if it.ID != itemID {
				kept = append(kept, it)
			}
		}
		rx.Items = kept
		out = rx
		return s.record(ctx, EventPrescriptionItemsChanged, rx, map[string]any{"removed": itemID})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) TransitionStatus(ctx context.Context, id uuid.UUID, to Status) (*Prescription, error) {
	if !to.Valid() {
		return nil, ErrInvalidStatus
	}
	var out *Prescription
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		rx, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !CanTransition(rx.Status, to) {
			return &apperr.Error{
				Kind:    apperr.KindBusinessRule,
				Code:    ErrInvalidTransition.Code,
				Message: fmt.Sprintf("cannot move prescription from %s to %s", rx.Status, to),
			}
		}
		if to == StatusActive && len(rx.Items) == 0 {
			return ErrNoItems
		}
		if err := s.repo.UpdateStatus(ctx, id, rx.Status, to); err != nil {
			return err
		}
		from := rx.Status
		rx.Status = to
		rx.UpdatedAt = s.now()
		out = rx
		return s.record(ctx, EventPrescriptionStatusChanged, rx, map[string]any{"previous_status": from})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) checkAppointment(ctx context.Context, appointmentID, patientID, doctorID uuid.UUID) error {
	a, err := s.appointments.Get(ctx, appointmentID)
	if errors.Is(err, apperr.ErrNotFound) {
		return ErrInvalidAppointment
	}
	if err != nil {
		return err
	}
	if a.PatientID != patientID || a.DoctorID != doctorID {
		return ErrInvalidAppointment
	}
	return nil
}

func (s *Service) checkFollowUp(d schedule.Date) error {
	if d.IsZero() {
		return nil
	}
	if d.Before(schedule.DateOf(s.now())) {
		return ErrFollowUpInPast
	}
	return nil
}

// resolveItems fills catalog names for items that reference a medicine.
func (s *Service) resolveItems(ctx context.Context, in []ItemInput) ([]Item, error) {
	items := make([]Item, 0, len(in))
	for _, it := range in {
		if it.Quantity < 0 {
			return nil, ErrInvalidQuantity
		}
		name := strings.TrimSpace(it.MedicineName)
		if it.MedicineID != nil {
			m, err := s.catalog.Get(ctx, *it.MedicineID)
			if err != nil {
				return nil, err
			}
			if !m.Active() {
				return nil, medicine.ErrMedicineNotFound
			}
			name = m.Name
		}
		if name == "" {
			return nil, ErrMedicineRequired
		}
		items = append(items, Item{
			ID:           uuid.New(),
			MedicineID:   it.MedicineID,
			MedicineName: name,
			Dosage:       strings.TrimSpace(it.Dosage),
			Frequency:    strings.TrimSpace(it.Frequency),
			Duration:     strings.TrimSpace(it.Duration),
			Instructions: strings.TrimSpace(it.Instructions),
			Quantity:     it.Quantity,
		})
	}
	return items, nil
}

func (s *Service) record(ctx context.Context, eventType string, rx *Prescription, extra map[string]any) error {
	payload := map[string]any{
		"prescription_number": rx.Number,
		"patient_id":          rx.PatientID,
		"doctor_id":           rx.DoctorID,
		"status":              rx.Status,
		"items":               len(rx.Items),
	}
	for k, v := range extra {
		payload[k] = v
	}
	return s.events.Record(ctx, events.Event{
		Type:          eventType,
		AggregateType: "prescription",
		AggregateID:   rx.ID,
		Payload:       payload,
	})
}
