package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hackgods/clinicdesk/internal/apperr"
	"github.com/hackgods/clinicdesk/internal/db"
	"github.com/hackgods/clinicdesk/internal/doctor"
	"github.com/hackgods/clinicdesk/internal/events"
	"github.com/hackgods/clinicdesk/internal/patient"
	redisclient "github.com/hackgods/clinicdesk/internal/redis"
	"github.com/hackgods/clinicdesk/internal/schedule"
	"github.com/hackgods/clinicdesk/internal/telemetry"
)

const (
	EventAppointmentCreated       = "appointment.created"
	EventAppointmentRescheduled   = "appointment.rescheduled"
	EventAppointmentUpdated       = "appointment.updated"
	EventAppointmentStatusChanged = "appointment.status_changed"

	NumberPrefix = "APT"

	minDuration   = 5
	maxDuration   = 480
	maxBulk       = 100
	maxReportDays = 31
	aggregateType = "appointment"
)

// Patients resolves the patient an appointment is booked for.
type Patients interface {
	Get(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	GetByKey(ctx context.Context, mobile, firstName string) (*patient.Patient, error)
}

// Doctors resolves bookable doctors and their working hours.
type Doctors interface {
	WorkingHours
	GetActive(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
}

type Service struct {
	repo     Repository
	engine   *Engine
	patients Patients
	doctors  Doctors
	locker   redisclient.Locker
	tx       db.Transactor
	events   events.Recorder
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(
	repo Repository,
	patients Patients,
	doctors Doctors,
	locker redisclient.Locker,
	tx db.Transactor,
	rec events.Recorder,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		engine:   NewEngine(repo, doctors),
		patients: patients,
		doctors:  doctors,
		locker:   locker,
		tx:       tx,
		events:   rec,
		logger:   logger.With().Str("component", "appointment").Logger(),
		now:      time.Now,
	}
}

// Create books an appointment. The conflict check and the insert run under a
// per doctor/date lock and inside one transaction; the appointments_no_overlap
// exclusion constraint backs them up.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Appointment, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "appointment.Create", trace.WithAttributes(
		attribute.String("doctor.id", in.DoctorID.String()),
		attribute.String("appointment.date", in.Date.String()),
	))
	defer span.End()

	if err := validateDuration(in.DurationMinutes); err != nil {
		return nil, err
	}
	if err := s.notInPast(in.Date, in.Time); err != nil {
		return nil, err
	}

	p, err := s.resolvePatient(ctx, in)
	if err != nil {
		return nil, err
	}
	d, err := s.doctors.GetActive(ctx, in.DoctorID)
	if err != nil {
		return nil, err
	}
	office := strings.TrimSpace(in.OfficeID)
	if office != "" && !d.HasOffice(office) {
		return nil, ErrUnknownOffice
	}
	if err := fitsWorkingHours(d, in.Date, in.Time, in.DurationMinutes); err != nil {
		return nil, err
	}

	now := s.now()
	a := &Appointment{
		ID:               uuid.New(),
		PatientID:        p.ID,
		PatientMobile:    p.MobileNumber,
		PatientFirstName: p.FirstName,
		DoctorID:         d.ID,
		Date:             in.Date,
		Time:             in.Time,
		DurationMinutes:  in.DurationMinutes,
		Status:           StatusScheduled,
		OfficeID:         office,
		Reason:           strings.TrimSpace(in.Reason),
		Notes:            in.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = s.withScheduleLock(ctx, d.ID, in.Date, func(ctx context.Context) error {
		return s.tx.InTx(ctx, func(ctx context.Context) error {
			conflict, err := s.engine.HasConflict(ctx, d.ID, in.Date, in.Time, in.DurationMinutes, uuid.Nil)
			if err != nil {
				return err
			}
			if conflict {
				return ErrSlotTaken
			}

			a.Number = db.HumanNumber(NumberPrefix, now)
			if err := s.repo.Create(ctx, a); err != nil {
				return err
			}
			return s.record(ctx, EventAppointmentCreated, a, nil)
		})
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", a.ID.String()).
		Str("appointment_number", a.Number).
		Str("doctor_id", a.DoctorID.String()).
		Str("date", a.Date.String()).
		Str("time", a.Time.String()).
		Msg("appointment booked")
	return a, nil
}

// Reschedule moves a scheduled or confirmed appointment. The appointment itself
// is ignored by the conflict check.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, in RescheduleInput) (*Appointment, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "appointment.Reschedule", trace.WithAttributes(
		attribute.String("appointment.id", id.String()),
	))
	defer span.End()

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.Reschedulable() {
		return nil, ErrNotReschedulable
	}

	duration := in.DurationMinutes
	if duration == 0 {
		duration = current.DurationMinutes
	}
	if err := validateDuration(duration); err != nil {
		return nil, err
	}
	if err := s.notInPast(in.Date, in.Time); err != nil {
		return nil, err
	}

	d, err := s.doctors.GetActive(ctx, current.DoctorID)
	if err != nil {
		return nil, err
	}
	office := current.OfficeID
	if in.OfficeID != nil {
		office = strings.TrimSpace(*in.OfficeID)
		if office != "" && !d.HasOffice(office) {
			return nil, ErrUnknownOffice
		}
	}
	if err := fitsWorkingHours(d, in.Date, in.Time, duration); err != nil {
		return nil, err
	}

	var updated *Appointment
	err = s.withScheduleLock(ctx, d.ID, in.Date, func(ctx context.Context) error {
		return s.tx.InTx(ctx, func(ctx context.Context) error {
			fresh, err := s.repo.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if !fresh.Status.Reschedulable() {
				return ErrNotReschedulable
			}

			conflict, err := s.engine.HasConflict(ctx, d.ID, in.Date, in.Time, duration, id)
			if err != nil {
				return err
			}
			if conflict {
				return ErrSlotTaken
			}

			updated, err = s.repo.Reschedule(ctx, id, in.Date, in.Time, duration, office)
			if err != nil {
				return err
			}
			return s.record(ctx, EventAppointmentRescheduled, updated, map[string]any{
				"previous_date":     fresh.Date,
				"previous_time":     fresh.Time,
				"previous_duration": fresh.DurationMinutes,
			})
		})
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return updated, nil
}

// TransitionStatus applies one step of the status machine.
func (s *Service) TransitionStatus(ctx context.Context, id uuid.UUID, to Status, reason string) (*Appointment, error) {
	if !to.Valid() {
		return nil, ErrInvalidStatus
	}

	var out *Appointment
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !CanTransition(a.Status, to) {
			return &apperr.Error{
				Kind:    apperr.KindBusinessRule,
				Code:    ErrInvalidTransition.Code,
				Message: fmt.Sprintf("cannot move appointment from %s to %s", a.Status, to),
			}
		}

		cancellation := ""
		if to == StatusCancelled {
			cancellation = strings.TrimSpace(reason)
		}
		out, err = s.repo.UpdateStatus(ctx, id, a.Status, to, cancellation)
		if err != nil {
			return err
		}
		return s.record(ctx, EventAppointmentStatusChanged, out, map[string]any{"previous_status": a.Status})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*Appointment, error) {
	return s.TransitionStatus(ctx, id, StatusCancelled, reason)
}

// BulkStatus transitions each appointment independently. A failure is reported
// in its result and does not stop the rest.
func (s *Service) BulkStatus(ctx context.Context, ids []uuid.UUID, to Status, reason string) ([]BulkResult, error) {
	if len(ids) > maxBulk {
		return nil, ErrBulkTooLarge
	}
	if !to.Valid() {
		return nil, ErrInvalidStatus
	}

	results := make([]BulkResult, 0, len(ids))
	for _, id := range ids {
		a, err := s.TransitionStatus(ctx, id, to, reason)
		if err == nil {
			results = append(results, BulkResult{ID: id, OK: true, Status: a.Status})
			continue
		}

		res := BulkResult{ID: id, Error: "internal_error", Details: "internal error"}
		if ae, ok := apperr.As(err); ok && ae.Kind != apperr.KindInternal {
			res.Error, res.Details = ae.Code, ae.Message
		} else {
			s.logger.Error().Err(err).Str("appointment_id", id.String()).Msg("bulk status transition failed")
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *Service) UpdateDetails(ctx context.Context, id uuid.UUID, in DetailsInput) (*Appointment, error) {
	var out *Appointment
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		reason, notes := a.Reason, a.Notes
		if in.Reason != nil {
			reason = strings.TrimSpace(*in.Reason)
		}
		if in.Notes != nil {
			notes = *in.Notes
		}
		out, err = s.repo.UpdateDetails(ctx, id, reason, notes)
		if err != nil {
			return err
		}
		return s.record(ctx, EventAppointmentUpdated, out, nil)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByNumber(ctx context.Context, number string) (*Appointment, error) {
	return s.repo.GetByNumber(ctx, strings.ToUpper(strings.TrimSpace(number)))
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Appointment, int, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	f.Page = f.Page.Clamp()
	return s.repo.List(ctx, f)
}

// CheckConflict reports the active appointments a proposed booking would overlap.
func (s *Service) CheckConflict(ctx context.Context, in ConflictCheck) (*ConflictResult, error) {
	if err := validateDuration(in.DurationMinutes); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		return nil, ErrDateRequired
	}
	if _, err := s.doctors.GetActive(ctx, in.DoctorID); err != nil {
		return nil, err
	}

	conflicts, err := s.engine.Conflicts(ctx, in.DoctorID, in.Date, in.Time, in.DurationMinutes, in.ExcludeID)
	if err != nil {
		return nil, err
	}
	if conflicts == nil {
		conflicts = []Appointment{}
	}
	return &ConflictResult{HasConflict: len(conflicts) > 0, Conflicts: conflicts}, nil
}

func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date schedule.Date, slotMinutes int) ([]schedule.Slot, error) {
	if slotMinutes == 0 {
		slotMinutes = DefaultSlotMinutes
	}
	if slotMinutes < minDuration || slotMinutes > maxDuration {
		return nil, ErrInvalidSlot
	}
	if date.IsZero() {
		return nil, ErrDateRequired
	}
	return s.engine.AvailableSlots(ctx, doctorID, date, slotMinutes)
}

func (s *Service) SuggestedTimes(ctx context.Context, doctorID uuid.UUID, date schedule.Date, durationMinutes int) ([]Suggestion, error) {
	if durationMinutes == 0 {
		durationMinutes = DefaultSlotMinutes
	}
	if err := validateDuration(durationMinutes); err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, ErrDateRequired
	}
	return s.engine.SuggestedTimes(ctx, doctorID, date, durationMinutes)
}

// DailySummary counts appointments per day, doctor and status over [from, to].
// A uuid.Nil doctorID covers every doctor.
func (s *Service) DailySummary(ctx context.Context, from, to schedule.Date, doctorID uuid.UUID) ([]DailySummary, error) {
	if from.IsZero() || to.IsZero() {
		return nil, ErrDateRequired
	}
	if to.Before(from) || to.After(from.AddDays(maxReportDays-1)) {
		return nil, ErrRangeTooLarge
	}

	counts, err := s.repo.DailyCounts(ctx, from, to, doctorID)
	if err != nil {
		return nil, fmt.Errorf("daily counts: %w", err)
	}
	return foldCounts(counts), nil
}

func foldCounts(counts []DailyCount) []DailySummary {
	type key struct {
		date     schedule.Date
		doctorID uuid.UUID
	}
	index := make(map[key]int)
	out := []DailySummary{}
	for _, c := range counts {
		k := key{c.Date, c.DoctorID}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, DailySummary{Date: c.Date, DoctorID: c.DoctorID, Counts: map[Status]int{}})
		}
		out[i].Counts[c.Status] += c.Count
		out[i].Total += c.Count
	}
	return out
}

func (s *Service) resolvePatient(ctx context.Context, in CreateInput) (*patient.Patient, error) {
	mobile := patient.NormalizeMobile(in.PatientMobile)
	first := strings.TrimSpace(in.PatientFirstName)

	var (
		p   *patient.Patient
		err error
	)
	switch {
	case in.PatientID != uuid.Nil:
		p, err = s.patients.Get(ctx, in.PatientID)
		if err == nil && mobile != "" && first != "" && (p.MobileNumber != mobile || p.FirstName != first) {
			return nil, ErrPatientMismatch
		}
	case mobile != "" && first != "":
		p, err = s.patients.GetByKey(ctx, mobile, first)
	default:
		return nil, ErrPatientRequired
	}
	if err != nil {
		return nil, err
	}
	if !p.Active() {
		return nil, patient.ErrPatientNotFound
	}
	return p, nil
}

func (s *Service) withScheduleLock(ctx context.Context, doctorID uuid.UUID, date schedule.Date, fn func(context.Context) error) error {
	key := redisclient.ScheduleLockKey(db.TenantFromContext(ctx), doctorID, date)
	err := s.locker.WithScheduleLock(ctx, key, fn)
	switch {
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		s.logger.Warn().Str("lock_key", key).Msg("schedule lock contention")
		return ErrScheduleBeingBooked
	case errors.Is(err, redisclient.ErrLockUnavailable):
		// The no-overlap constraint still rejects a double booking.
		s.logger.Warn().Err(err).Str("lock_key", key).Msg("schedule lock unavailable, writing unlocked")
		return fn(ctx)
	}
	return err
}

func (s *Service) notInPast(date schedule.Date, start schedule.Clock) error {
	if date.IsZero() {
		return ErrDateRequired
	}
	now := s.now()
	today := schedule.DateOf(now)
	if date.Before(today) {
		return ErrInPast
	}
	if date == today && start < schedule.At(now.Hour(), now.Minute()) {
		return ErrInPast
	}
	return nil
}

func validateDuration(minutes int) error {
	if minutes < minDuration || minutes > maxDuration {
		return ErrInvalidDuration
	}
	return nil
}

func fitsWorkingHours(d *doctor.Doctor, date schedule.Date, start schedule.Clock, duration int) error {
	windows := schedule.WorkingWindows(d.Schedule, date)
	if !schedule.FitsWorkingHours(windows, schedule.Span(start, duration)) {
		return ErrOutsideWorkingHours
	}
	return nil
}

func (s *Service) record(ctx context.Context, eventType string, a *Appointment, extra map[string]any) error {
	payload := map[string]any{
		"appointment_number": a.Number,
		"patient_id":         a.PatientID,
		"doctor_id":          a.DoctorID,
		"appointment_date":   a.Date,
		"appointment_time":   a.Time,
		"duration_minutes":   a.DurationMinutes,
		"status":             a.Status,
	}
	for k, v := range extra {
		payload[k] = v
	}
	return s.events.Record(ctx, events.Event{
		Type:          eventType,
		AggregateType: aggregateType,
		AggregateID:   a.ID,
		Payload:       payload,
	})
}
