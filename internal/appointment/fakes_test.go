package appointment

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/hackgods/clinicdesk/internal/db"
	"github.com/hackgods/clinicdesk/internal/doctor"
	"github.com/hackgods/clinicdesk/internal/events"
	"github.com/hackgods/clinicdesk/internal/patient"
	redisclient "github.com/hackgods/clinicdesk/internal/redis"
	"github.com/hackgods/clinicdesk/internal/schedule"
)

type memRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*Appointment
}

func newMemRepo() *memRepo {
	return &memRepo{byID: map[uuid.UUID]*Appointment{}}
}

func (m *memRepo) add(a Appointment) *Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	m.byID[a.ID] = &a
	cp := a
	return &cp
}

func (m *memRepo) Create(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Number == a.Number {
			return ErrNumberCollision
		}
		if existing.DoctorID == a.DoctorID && existing.Date == a.Date && existing.Status.Active() &&
			existing.Interval().Overlaps(a.Interval()) {
			return ErrSlotTaken
		}
	}
	cp := *a
	m.byID[a.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memRepo) GetByNumber(_ context.Context, number string) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Number == number {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (m *memRepo) AppointmentsFor(_ context.Context, doctorID uuid.UUID, date schedule.Date, statuses []Status, excludeID uuid.UUID) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Appointment
	for _, a := range m.byID {
		if a.DoctorID != doctorID || a.Date != date || a.ID == excludeID {
			continue
		}
		for _, s := range statuses {
			if a.Status == s {
				out = append(out, *a)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out, nil
}

func (m *memRepo) List(_ context.Context, f ListFilter) ([]Appointment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Appointment
	for _, a := range m.byID {
		if f.DoctorID != uuid.Nil && a.DoctorID != f.DoctorID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status, reason string) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if a.Status != from {
		return nil, ErrConcurrentUpdate
	}
	a.Status = to
	if to == StatusCancelled {
		a.CancellationReason = reason
	}
	cp := *a
	return &cp, nil
}

func (m *memRepo) Reschedule(_ context.Context, id uuid.UUID, date schedule.Date, start schedule.Clock, duration int, officeID string) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	a.Date, a.Time, a.DurationMinutes, a.OfficeID = date, start, duration, officeID
	cp := *a
	return &cp, nil
}

func (m *memRepo) UpdateDetails(_ context.Context, id uuid.UUID, reason, notes string) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	a.Reason, a.Notes = reason, notes
	cp := *a
	return &cp, nil
}

func (m *memRepo) DailyCounts(_ context.Context, from, to schedule.Date, doctorID uuid.UUID) ([]DailyCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	type key struct {
		date   schedule.Date
		doctor uuid.UUID
		status Status
	}
	counts := map[key]int{}
	for _, a := range m.byID {
		if a.Date.Before(from) || a.Date.After(to) {
			continue
		}
		if doctorID != uuid.Nil && a.DoctorID != doctorID {
			continue
		}
		counts[key{a.Date, a.DoctorID, a.Status}]++
	}
	out := make([]DailyCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, DailyCount{Date: k.date, DoctorID: k.doctor, Status: k.status, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].DoctorID != out[j].DoctorID {
			return out[i].DoctorID.String() < out[j].DoctorID.String()
		}
		return out[i].Status < out[j].Status
	})
	return out, nil
}

type memDoctors map[uuid.UUID]*doctor.Doctor

func (m memDoctors) GetActive(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	d, ok := m[id]
	if !ok || !d.Active() {
		return nil, doctor.ErrDoctorNotFound
	}
	cp := *d
	return &cp, nil
}

func (m memDoctors) WorkingWindows(ctx context.Context, id uuid.UUID, date schedule.Date) ([]schedule.Window, error) {
	d, err := m.GetActive(ctx, id)
	if err != nil {
		return nil, err
	}
	return schedule.WorkingWindows(d.Schedule, date), nil
}

type memPatients map[uuid.UUID]*patient.Patient

func (m memPatients) Get(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := m[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (m memPatients) GetByKey(_ context.Context, mobile, first string) (*patient.Patient, error) {
	for _, p := range m {
		if p.MobileNumber == mobile && p.FirstName == first {
			cp := *p
			return &cp, nil
		}
	}
	return nil, patient.ErrPatientNotFound
}

// keyLocker serializes callers per key, like the Redis lock does when it is free.
type keyLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	keys  []string
	busy  bool
	down  error
}

func (l *keyLocker) WithScheduleLock(ctx context.Context, key string, fn func(context.Context) error) error {
	l.mu.Lock()
	if l.busy {
		l.mu.Unlock()
		return redisclient.ErrLockNotAcquired
	}
	if l.down != nil {
		l.mu.Unlock()
		return fmt.Errorf("%w: %w", redisclient.ErrLockUnavailable, l.down)
	}
	if l.locks == nil {
		l.locks = map[string]*sync.Mutex{}
	}
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.keys = append(l.keys, key)
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}

type directTx struct{}

func (directTx) InTx(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) }

type memRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *memRecorder) Record(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *memRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func activeDoctor(sched schedule.WeeklySchedule, offices ...doctor.Office) *doctor.Doctor {
	return &doctor.Doctor{
		ID:           uuid.New(),
		FullName:     "Dr. Rao",
		Schedule:     sched,
		Offices:      offices,
		RecordStatus: db.RecordActive,
	}
}
