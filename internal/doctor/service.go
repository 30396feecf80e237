package doctor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinicdesk/internal/apperr"
	"github.com/hackgods/clinicdesk/internal/auth"
	"github.com/hackgods/clinicdesk/internal/db"
	"github.com/hackgods/clinicdesk/internal/events"
	"github.com/hackgods/clinicdesk/internal/schedule"
)

const (
	EventDoctorCreated         = "doctor.created"
	EventDoctorUpdated         = "doctor.updated"
	EventDoctorScheduleChanged = "doctor.schedule_changed"
	EventDoctorArchived        = "doctor.archived"
	EventDoctorRestored        = "doctor.restored"
)

type Service struct {
	repo   Repository
	users  Users
	tx     db.Transactor
	events events.Recorder
	now    func() time.Time
}

func NewService(repo Repository, users Users, tx db.Transactor, rec events.Recorder) *Service {
	return &Service{repo: repo, users: users, tx: tx, events: rec, now: time.Now}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Doctor, error) {
	license := strings.ToUpper(strings.TrimSpace(in.LicenseNumber))
	if license == "" {
		return nil, ErrLicenseRequired
	}
	if in.ConsultationFee < 0 {
		return nil, ErrInvalidFee
	}
	sched := in.Schedule
	if sched == nil {
		sched = schedule.WeeklySchedule{}
	}
	if err := sched.Normalize(); err != nil {
		return nil, apperr.Validation("invalid_schedule", err.Error())
	}
	offices, err := normalizeOffices(in.Offices)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if u.Role != auth.RoleDoctor || !u.Active() {
		return nil, ErrUserNotDoctor
	}

	now := s.now()
	d := &Doctor{
		ID:              uuid.New(),
		UserID:          u.ID,
		FullName:        u.FullName,
		LicenseNumber:   license,
		Specialization:  strings.TrimSpace(in.Specialization),
		Qualification:   strings.TrimSpace(in.Qualification),
		ConsultationFee: in.ConsultationFee,
		Schedule:        sched,
		Offices:         offices,
		RecordStatus:    db.RecordActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, d); err != nil {
			return err
		}
		return s.record(ctx, EventDoctorCreated, d)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func normalizeOffices(in []Office) ([]Office, error) {
	out := make([]Office, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, o := range in {
		o.ID = strings.TrimSpace(o.ID)
		o.Name = strings.TrimSpace(o.Name)
		if o.Name == "" {
			return nil, ErrInvalidOffices
		}
		if o.ID == "" {
			o.ID = uuid.NewString()
		}
		if seen[o.ID] {
			return nil, ErrInvalidOffices
		}
		seen[o.ID] = true
		out = append(out, o)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

// GetActive loads a doctor that can take bookings.
func (s *Service) GetActive(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !d.Active() {
		return nil, ErrDoctorNotFound
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]Doctor, int, error) {
	f.Page = f.Page.Clamp()
	if f.Status == "" {
		f.Status = db.RecordActive
	}
	return s.repo.List(ctx, f)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Doctor, error) {
	d, err := s.activeForWrite(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Specialization != nil {
		d.Specialization = strings.TrimSpace(*in.Specialization)
	}
	if in.Qualification != nil {
		d.Qualification = strings.TrimSpace(*in.Qualification)
	}
	if in.ConsultationFee != nil {
		if *in.ConsultationFee < 0 {
			return nil, ErrInvalidFee
		}
		d.ConsultationFee = *in.ConsultationFee
	}
	d.UpdatedAt = s.now()

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, d); err != nil {
			return err
		}
		return s.record(ctx, EventDoctorUpdated, d)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// SetSchedule replaces the weekly availability. Existing appointments outside
// the new windows are left alone; only new bookings are checked against it.
func (s *Service) SetSchedule(ctx context.Context, id uuid.UUID, sched schedule.WeeklySchedule) (*Doctor, error) {
	if sched == nil {
		sched = schedule.WeeklySchedule{}
	}
	if err := sched.Normalize(); err != nil {
		return nil, apperr.Validation("invalid_schedule", err.Error())
	}
	d, err := s.activeForWrite(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Schedule = sched

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.SetSchedule(ctx, id, sched); err != nil {
			return err
		}
		return s.record(ctx, EventDoctorScheduleChanged, d)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) SetOffices(ctx context.Context, id uuid.UUID, offices []Office) (*Doctor, error) {
	normalized, err := normalizeOffices(offices)
	if err != nil {
		return nil, err
	}
	d, err := s.activeForWrite(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetOffices(ctx, id, normalized); err != nil {
		return nil, err
	}
	d.Offices = normalized
	return d, nil
}

func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.setStatus(ctx, id, db.RecordArchived, EventDoctorArchived)
}

func (s *Service) Restore(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.setStatus(ctx, id, db.RecordActive, EventDoctorRestored)
}

func (s *Service) setStatus(ctx context.Context, id uuid.UUID, status db.RecordStatus, eventType string) (*Doctor, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.RecordStatus == status {
		return d, nil
	}
	d.RecordStatus = status

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.SetRecordStatus(ctx, id, status); err != nil {
			return err
		}
		return s.record(ctx, eventType, d)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// WorkingWindows resolves the doctor's working windows on date, ordered by start.
func (s *Service) WorkingWindows(ctx context.Context, id uuid.UUID, date schedule.Date) ([]schedule.Window, error) {
	d, err := s.GetActive(ctx, id)
	if err != nil {
		return nil, err
	}
	return schedule.WorkingWindows(d.Schedule, date), nil
}

func (s *Service) activeForWrite(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	if !d.Active() {
		return nil, ErrDoctorArchived
	}
	return d, nil
}

func (s *Service) record(ctx context.Context, eventType string, d *Doctor) error {
	return s.events.Record(ctx, events.Event{
		Type:          eventType,
		AggregateType: "doctor",
		AggregateID:   d.ID,
		Payload: map[string]any{
			"license_number": d.LicenseNumber,
			"specialization": d.Specialization,
			"record_status":  d.RecordStatus,
		},
	})
}
