package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinicdesk/internal/apperr"
	"github.com/hackgods/clinicdesk/internal/db"
	"github.com/hackgods/clinicdesk/internal/doctor"
	"github.com/hackgods/clinicdesk/internal/patient"
	"github.com/hackgods/clinicdesk/internal/schedule"
)

type fixture struct {
	svc     *Service
	repo    *memRepo
	locker  *keyLocker
	rec     *memRecorder
	doctor  *doctor.Doctor
	patient *patient.Patient
	ctx     context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	d := activeDoctor(nil, doctor.Office{ID: "main", Name: "Main clinic"})
	p := &patient.Patient{
		ID:           uuid.New(),
		MobileNumber: "9876543210",
		FirstName:    "Asha",
		Relationship: patient.RelSelf,
		RecordStatus: db.RecordActive,
	}
	f := &fixture{
		repo:    newMemRepo(),
		locker:  &keyLocker{},
		rec:     &memRecorder{},
		doctor:  d,
		patient: p,
		ctx:     db.WithTenant(context.Background(), "north"),
	}
	f.svc = NewService(f.repo, memPatients{p.ID: p}, memDoctors{d.ID: d}, f.locker, directTx{}, f.rec, zerolog.Nop())
	f.svc.now = func() time.Time { return time.Date(2030, time.January, 7, 8, 0, 0, 0, time.Local) }
	return f
}

func (f *fixture) input(at schedule.Clock, minutes int) CreateInput {
	return CreateInput{
		PatientMobile:    f.patient.MobileNumber,
		PatientFirstName: f.patient.FirstName,
		DoctorID:         f.doctor.ID,
		Date:             monday,
		Time:             at,
		DurationMinutes:  minutes,
		OfficeID:         "main",
		Reason:           "checkup",
	}
}

func (f *fixture) book(t *testing.T, at schedule.Clock, minutes int) *Appointment {
	t.Helper()
	a, err := f.svc.Create(f.ctx, f.input(at, minutes))
	require.NoError(t, err)
	return a
}

func TestCreate(t *testing.T) {
	f := newFixture(t)

	a := f.book(t, schedule.At(10, 0), 30)

	assert.Equal(t, StatusScheduled, a.Status)
	assert.Equal(t, f.patient.ID, a.PatientID)
	assert.Equal(t, "9876543210", a.PatientMobile)
	assert.Equal(t, "Asha", a.PatientFirstName)
	assert.True(t, strings.HasPrefix(a.Number, "APT-20300107-"), a.Number)
	assert.Equal(t, []string{EventAppointmentCreated}, f.rec.types())
	assert.Equal(t, []string{fmt.Sprintf("lock:schedule:north:%s:2030-01-07", f.doctor.ID)}, f.locker.keys)

	stored, err := f.svc.GetByNumber(f.ctx, strings.ToLower(a.Number))
	require.NoError(t, err)
	assert.Equal(t, a.ID, stored.ID)
}

func TestCreate_ByPatientID(t *testing.T) {
	f := newFixture(t)
	in := f.input(schedule.At(9, 0), 30)
	in.PatientID = f.patient.ID
	in.PatientMobile, in.PatientFirstName = "", ""

	a, err := f.svc.Create(f.ctx, in)
	require.NoError(t, err)
	assert.Equal(t, f.patient.ID, a.PatientID)

	in.Time = schedule.At(11, 0)
	in.PatientMobile, in.PatientFirstName = "9876543210", "Ravi"
	_, err = f.svc.Create(f.ctx, in)
	assert.ErrorIs(t, err, ErrPatientMismatch)
}

func TestCreate_Overlap(t *testing.T) {
	f := newFixture(t)
	f.book(t, schedule.At(10, 0), 30)

	_, err := f.svc.Create(f.ctx, f.input(schedule.At(10, 15), 30))
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	f.book(t, schedule.At(10, 30), 30)
	f.book(t, schedule.At(9, 30), 30)
}

func TestCreate_Validation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CreateInput)
		want   error
	}{
		{"zero duration", func(in *CreateInput) { in.DurationMinutes = 0 }, ErrInvalidDuration},
		{"too long", func(in *CreateInput) { in.DurationMinutes = 481 }, ErrInvalidDuration},
		{"no date", func(in *CreateInput) { in.Date = schedule.Date{} }, ErrDateRequired},
		{"yesterday", func(in *CreateInput) { in.Date = monday.AddDays(-1) }, ErrInPast},
		{"earlier today", func(in *CreateInput) { in.Time = schedule.At(7, 30) }, ErrInPast},
		{"unknown office", func(in *CreateInput) { in.OfficeID = "annex" }, ErrUnknownOffice},
		{"no patient", func(in *CreateInput) { in.PatientMobile = "" }, ErrPatientRequired},
		{"unknown patient", func(in *CreateInput) { in.PatientFirstName = "Nobody" }, patient.ErrPatientNotFound},
		{"unknown doctor", func(in *CreateInput) { in.DoctorID = uuid.New() }, doctor.ErrDoctorNotFound},
		{"after hours", func(in *CreateInput) { in.Time = schedule.At(16, 45) }, ErrOutsideWorkingHours},
		{"before hours", func(in *CreateInput) { in.Time = schedule.At(8, 30) }, ErrOutsideWorkingHours},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			in := f.input(schedule.At(10, 0), 30)
			tc.mutate(&in)

			_, err := f.svc.Create(f.ctx, in)
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, f.rec.types())
		})
	}
}

func TestCreate_ArchivedPatient(t *testing.T) {
	f := newFixture(t)
	f.patient.RecordStatus = db.RecordArchived

	_, err := f.svc.Create(f.ctx, f.input(schedule.At(10, 0), 30))
	assert.ErrorIs(t, err, patient.ErrPatientNotFound)
}

func TestCreate_LockHeld(t *testing.T) {
	f := newFixture(t)
	f.locker.busy = true

	_, err := f.svc.Create(f.ctx, f.input(schedule.At(10, 0), 30))
	assert.ErrorIs(t, err, ErrScheduleBeingBooked)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestCreate_RedisDown(t *testing.T) {
	f := newFixture(t)
	f.locker.down = errors.New("dial tcp: connection refused")

	a := f.book(t, schedule.At(10, 0), 30)
	assert.Equal(t, StatusScheduled, a.Status)

	_, err := f.svc.Create(f.ctx, f.input(schedule.At(10, 15), 30))
	assert.ErrorIs(t, err, ErrSlotTaken)

	moved, err := f.svc.Reschedule(f.ctx, a.ID, RescheduleInput{Date: monday, Time: schedule.At(11, 0)})
	require.NoError(t, err)
	assert.Equal(t, schedule.At(11, 0), moved.Time)
}

func TestCreate_ConcurrentSameSlot(t *testing.T) {
	f := newFixture(t)

	const n = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(f.ctx, f.input(schedule.At(11, 0), 30))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrSlotTaken)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	booked, err := f.repo.AppointmentsFor(f.ctx, f.doctor.ID, monday, ActiveStatuses, uuid.Nil)
	require.NoError(t, err)
	assert.Len(t, booked, 1)
}

func TestTransitionStatus(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, schedule.At(10, 0), 30)

	_, err := f.svc.TransitionStatus(f.ctx, a.ID, StatusCompleted, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, apperr.KindBusinessRule, apperr.KindOf(err))

	for _, next := range []Status{StatusConfirmed, StatusInProgress, StatusCompleted} {
		got, err := f.svc.TransitionStatus(f.ctx, a.ID, next, "")
		require.NoError(t, err)
		assert.Equal(t, next, got.Status)
	}

	_, err = f.svc.Cancel(f.ctx, a.ID, "too late")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.svc.TransitionStatus(f.ctx, a.ID, Status("paused"), "")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = f.svc.TransitionStatus(f.ctx, uuid.New(), StatusConfirmed, "")
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestCancel_FreesSlot(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, schedule.At(10, 0), 30)

	got, err := f.svc.Cancel(f.ctx, a.ID, " patient called ")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Equal(t, "patient called", got.CancellationReason)

	f.book(t, schedule.At(10, 0), 30)
}

func TestReschedule(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, schedule.At(10, 0), 30)
	_, err := f.svc.TransitionStatus(f.ctx, a.ID, StatusConfirmed, "")
	require.NoError(t, err)

	moved, err := f.svc.Reschedule(f.ctx, a.ID, RescheduleInput{Date: monday, Time: schedule.At(10, 15)})
	require.NoError(t, err)
	assert.Equal(t, schedule.At(10, 15), moved.Time)
	assert.Equal(t, 30, moved.DurationMinutes)
	assert.Equal(t, StatusConfirmed, moved.Status)
	assert.Equal(t, "main", moved.OfficeID)

	other := f.book(t, schedule.At(14, 0), 60)
	_, err = f.svc.Reschedule(f.ctx, a.ID, RescheduleInput{Date: monday, Time: schedule.At(14, 30)})
	assert.ErrorIs(t, err, ErrSlotTaken)

	moved, err = f.svc.Reschedule(f.ctx, a.ID, RescheduleInput{Date: monday.AddDays(1), Time: schedule.At(14, 30), DurationMinutes: 45})
	require.NoError(t, err)
	assert.Equal(t, monday.AddDays(1), moved.Date)
	assert.Equal(t, 45, moved.DurationMinutes)

	_, err = f.svc.Cancel(f.ctx, other.ID, "")
	require.NoError(t, err)
	_, err = f.svc.Reschedule(f.ctx, other.ID, RescheduleInput{Date: monday, Time: schedule.At(15, 0)})
	assert.ErrorIs(t, err, ErrNotReschedulable)

	assert.Contains(t, f.rec.types(), EventAppointmentRescheduled)
}

func TestReschedule_Validation(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, schedule.At(10, 0), 30)

	annex := "annex"
	_, err := f.svc.Reschedule(f.ctx, a.ID, RescheduleInput{Date: monday, Time: schedule.At(11, 0), OfficeID: &annex})
	assert.ErrorIs(t, err, ErrUnknownOffice)

	_, err = f.svc.Reschedule(f.ctx, a.ID, RescheduleInput{Date: monday, Time: schedule.At(16, 45)})
	assert.ErrorIs(t, err, ErrOutsideWorkingHours)

	_, err = f.svc.Reschedule(f.ctx, a.ID, RescheduleInput{Date: monday.AddDays(-2), Time: schedule.At(11, 0)})
	assert.ErrorIs(t, err, ErrInPast)
}

func TestBulkStatus(t *testing.T) {
	f := newFixture(t)
	first := f.book(t, schedule.At(9, 0), 30)
	second := f.book(t, schedule.At(10, 0), 30)
	_, err := f.svc.Cancel(f.ctx, second.ID, "")
	require.NoError(t, err)
	missing := uuid.New()

	results, err := f.svc.BulkStatus(f.ctx, []uuid.UUID{first.ID, second.ID, missing}, StatusConfirmed, "")
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].OK)
	assert.Equal(t, StatusConfirmed, results[0].Status)
	assert.False(t, results[1].OK)
	assert.Equal(t, "invalid_status_transition", results[1].Error)
	assert.False(t, results[2].OK)
	assert.Equal(t, "appointment_not_found", results[2].Error)

	ids := make([]uuid.UUID, maxBulk+1)
	_, err = f.svc.BulkStatus(f.ctx, ids, StatusConfirmed, "")
	assert.ErrorIs(t, err, ErrBulkTooLarge)
}

func TestUpdateDetails(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, schedule.At(10, 0), 30)

	notes := "bring x-rays"
	got, err := f.svc.UpdateDetails(f.ctx, a.ID, DetailsInput{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "checkup", got.Reason)
	assert.Equal(t, "bring x-rays", got.Notes)
}

func TestCheckConflict(t *testing.T) {
	f := newFixture(t)
	a := f.book(t, schedule.At(10, 0), 30)

	res, err := f.svc.CheckConflict(f.ctx, ConflictCheck{DoctorID: f.doctor.ID, Date: monday, Time: schedule.At(10, 15), DurationMinutes: 30})
	require.NoError(t, err)
	assert.True(t, res.HasConflict)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, a.ID, res.Conflicts[0].ID)

	res, err = f.svc.CheckConflict(f.ctx, ConflictCheck{DoctorID: f.doctor.ID, Date: monday, Time: schedule.At(10, 15), DurationMinutes: 30, ExcludeID: a.ID})
	require.NoError(t, err)
	assert.False(t, res.HasConflict)
	assert.NotNil(t, res.Conflicts)

	_, err = f.svc.CheckConflict(f.ctx, ConflictCheck{DoctorID: uuid.New(), Date: monday, Time: schedule.At(10, 15), DurationMinutes: 30})
	assert.ErrorIs(t, err, doctor.ErrDoctorNotFound)
}

func TestAvailableSlots_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AvailableSlots(f.ctx, f.doctor.ID, monday, 4)
	assert.ErrorIs(t, err, ErrInvalidSlot)

	slots, err := f.svc.AvailableSlots(f.ctx, f.doctor.ID, monday, 0)
	require.NoError(t, err)
	assert.Len(t, slots, 16)

	_, err = f.svc.AvailableSlots(f.ctx, uuid.New(), monday, 30)
	assert.True(t, errors.Is(err, doctor.ErrDoctorNotFound))
}

func TestDailySummary(t *testing.T) {
	f := newFixture(t)
	f.book(t, schedule.At(9, 0), 30)
	cancelled := f.book(t, schedule.At(10, 0), 30)
	_, err := f.svc.Cancel(f.ctx, cancelled.ID, "")
	require.NoError(t, err)
	in := f.input(schedule.At(9, 0), 30)
	in.Date = monday.AddDays(1)
	_, err = f.svc.Create(f.ctx, in)
	require.NoError(t, err)

	got, err := f.svc.DailySummary(f.ctx, monday, monday.AddDays(6), uuid.Nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, monday, got[0].Date)
	assert.Equal(t, 2, got[0].Total)
	assert.Equal(t, map[Status]int{StatusScheduled: 1, StatusCancelled: 1}, got[0].Counts)
	assert.Equal(t, 1, got[1].Total)

	_, err = f.svc.DailySummary(f.ctx, monday, monday.AddDays(31), uuid.Nil)
	assert.ErrorIs(t, err, ErrRangeTooLarge)
	_, err = f.svc.DailySummary(f.ctx, monday, monday.AddDays(-1), uuid.Nil)
	assert.ErrorIs(t, err, ErrRangeTooLarge)
	_, err = f.svc.DailySummary(f.ctx, schedule.Date{}, monday, uuid.Nil)
	assert.ErrorIs(t, err, ErrDateRequired)
}
