package prescription

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinicdesk/internal/apperr"
	"github.com/hackgods/clinicdesk/internal/appointment"
	"github.com/hackgods/clinicdesk/internal/db"
	"github.com/hackgods/clinicdesk/internal/doctor"
	"github.com/hackgods/clinicdesk/internal/events"
	"github.com/hackgods/clinicdesk/internal/medicine"
	"github.com/hackgods/clinicdesk/internal/patient"
	"github.com/hackgods/clinicdesk/internal/schedule"
)

type memRepo struct {
	byID map[uuid.UUID]*Prescription
}

func (m *memRepo) Create(_ context.Context, p *Prescription) error {
	cp := *p
	cp.Items = append([]Item{}, p.Items...)
	m.byID[p.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Prescription, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, ErrPrescriptionNotFound
	}
	cp := *p
	cp.Items = append([]Item{}, p.Items...)
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, f ListFilter) ([]Prescription, int, error) {
	out := []Prescription{}
	for _, p := range m.byID {
		if f.PatientID != uuid.Nil && p.PatientID != f.PatientID {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *memRepo) UpdateDetails(_ context.Context, p *Prescription) error {
	cur := m.byID[p.ID]
	cur.Diagnosis, cur.Notes, cur.FollowUpDate = p.Diagnosis, p.Notes, p.FollowUpDate
	return nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status) error {
	p := m.byID[id]
	if p.Status != from {
		return ErrConcurrentUpdate
	}
	p.Status = to
	return nil
}

func (m *memRepo) AddItems(_ context.Context, id uuid.UUID, items []Item) error {
	p := m.byID[id]
	p.Items = append(p.Items, items...)
	return nil
}

func (m *memRepo) RemoveItem(_ context.Context, id, itemID uuid.UUID) error {
	p := m.byID[id]
	for i, it := range p.Items {
		if it.ID == itemID {
			p.Items = append(p.Items[:i], p.Items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

type memPatients map[uuid.UUID]*patient.Patient

func (m memPatients) Get(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	if p, ok := m[id]; ok {
		return p, nil
	}
	return nil, patient.ErrPatientNotFound
}

type memDoctors map[uuid.UUID]*doctor.Doctor

func (m memDoctors) GetActive(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	if d, ok := m[id]; ok {
		return d, nil
	}
	return nil, doctor.ErrDoctorNotFound
}

type memAppointments map[uuid.UUID]*appointment.Appointment

func (m memAppointments) Get(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	if a, ok := m[id]; ok {
		return a, nil
	}
	return nil, appointment.ErrAppointmentNotFound
}

type memCatalog struct {
	medicines map[uuid.UUID]*medicine.Medicine
	keys      map[string][]medicine.Line
}

func (c *memCatalog) Get(_ context.Context, id uuid.UUID) (*medicine.Medicine, error) {
	if m, ok := c.medicines[id]; ok {
		return m, nil
	}
	return nil, medicine.ErrMedicineNotFound
}

func (c *memCatalog) Expand(_ context.Context, code string) ([]medicine.Line, error) {
	if lines, ok := c.keys[strings.ToUpper(code)]; ok {
		return lines, nil
	}
	return nil, medicine.ErrShortKeyNotFound
}

type directTx struct{}

func (directTx) InTx(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) }

type nopRecorder struct{ n int }

func (r *nopRecorder) Record(context.Context, events.Event) error {
	r.n++
	return nil
}

type fixture struct {
	svc         *Service
	rec         *nopRecorder
	patientID   uuid.UUID
	doctorID    uuid.UUID
	amoxicillin *medicine.Medicine
	visit       *appointment.Appointment
}

var today = schedule.NewDate(2030, time.January, 7)

func newFixture() *fixture {
	p := &patient.Patient{ID: uuid.New(), FirstName: "Asha", RecordStatus: db.RecordActive}
	d := &doctor.Doctor{ID: uuid.New(), RecordStatus: db.RecordActive}
	amox := &medicine.Medicine{ID: uuid.New(), Name: "Amoxicillin", RecordStatus: db.RecordActive}
	para := &medicine.Medicine{ID: uuid.New(), Name: "Paracetamol", RecordStatus: db.RecordActive}
	visit := &appointment.Appointment{ID: uuid.New(), PatientID: p.ID, DoctorID: d.ID}

	f := &fixture{rec: &nopRecorder{}, patientID: p.ID, doctorID: d.ID, amoxicillin: amox, visit: visit}
	catalog := &memCatalog{
		medicines: map[uuid.UUID]*medicine.Medicine{amox.ID: amox, para.ID: para},
		keys: map[string][]medicine.Line{
			"URTI": {
				{MedicineID: amox.ID, MedicineName: "Amoxicillin", Dosage: "1 tab", Frequency: "TID", Quantity: 15},
				{MedicineID: para.ID, MedicineName: "Paracetamol", Dosage: "1 tab", Frequency: "SOS", Quantity: 10},
			},
		},
	}
	f.svc = NewService(
		&memRepo{byID: map[uuid.UUID]*Prescription{}},
		memPatients{p.ID: p},
		memDoctors{d.ID: d},
		memAppointments{visit.ID: visit},
		catalog,
		directTx{},
		f.rec,
	)
	f.svc.now = func() time.Time { return time.Date(2030, time.January, 7, 11, 0, 0, 0, time.UTC) }
	return f
}

func (f *fixture) draft(t *testing.T, items ...ItemInput) *Prescription {
	t.Helper()
	rx, err := f.svc.Create(context.Background(), CreateInput{
		PatientID: f.patientID,
		DoctorID:  f.doctorID,
		Diagnosis: "Pharyngitis",
		Items:     items,
	})
	require.NoError(t, err)
	return rx
}

func TestCreate(t *testing.T) {
	f := newFixture()
	medID := f.amoxicillin.ID

	rx, err := f.svc.Create(context.Background(), CreateInput{
		PatientID:     f.patientID,
		DoctorID:      f.doctorID,
		AppointmentID: &f.visit.ID,
		FollowUpDate:  today.AddDays(7),
		Items: []ItemInput{
			{MedicineID: &medID, MedicineName: "ignored", Dosage: "500mg", Quantity: 10},
			{MedicineName: " Saline gargle ", Instructions: "after meals"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, rx.Status)
	assert.True(t, strings.HasPrefix(rx.Number, "RX-20300107-"), rx.Number)
	require.Len(t, rx.Items, 2)
	assert.Equal(t, "Amoxicillin", rx.Items[0].MedicineName)
	assert.Equal(t, "Saline gargle", rx.Items[1].MedicineName)
	assert.Nil(t, rx.Items[1].MedicineID)
	assert.Equal(t, 1, f.rec.n)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	otherVisit := uuid.New()
	unknownMed := uuid.New()

	cases := []struct {
		name string
		in   CreateInput
		want error
	}{
		{"unknown patient", CreateInput{PatientID: uuid.New(), DoctorID: f.doctorID}, patient.ErrPatientNotFound},
		{"unknown doctor", CreateInput{PatientID: f.patientID, DoctorID: uuid.New()}, doctor.ErrDoctorNotFound},
		{"unknown appointment", CreateInput{PatientID: f.patientID, DoctorID: f.doctorID, AppointmentID: &otherVisit}, ErrInvalidAppointment},
		{"past follow-up", CreateInput{PatientID: f.patientID, DoctorID: f.doctorID, FollowUpDate: today.AddDays(-1)}, ErrFollowUpInPast},
		{"nameless item", CreateInput{PatientID: f.patientID, DoctorID: f.doctorID, Items: []ItemInput{{Dosage: "1"}}}, ErrMedicineRequired},
		{"negative quantity", CreateInput{PatientID: f.patientID, DoctorID: f.doctorID, Items: []ItemInput{{MedicineName: "x", Quantity: -2}}}, ErrInvalidQuantity},
		{"unknown medicine", CreateInput{PatientID: f.patientID, DoctorID: f.doctorID, Items: []ItemInput{{MedicineID: &unknownMed}}}, medicine.ErrMedicineNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreate_AppointmentOfAnotherDoctor(t *testing.T) {
	f := newFixture()
	f.visit.DoctorID = uuid.New()

	_, err := f.svc.Create(context.Background(), CreateInput{PatientID: f.patientID, DoctorID: f.doctorID, AppointmentID: &f.visit.ID})
	assert.ErrorIs(t, err, ErrInvalidAppointment)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestItemsOnlyChangeInDraft(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rx := f.draft(t, ItemInput{MedicineName: "Cough syrup"})

	rx, err := f.svc.AddItem(ctx, rx.ID, ItemInput{MedicineName: "Lozenges", Quantity: 12})
	require.NoError(t, err)
	require.Len(t, rx.Items, 2)

	rx, err = f.svc.RemoveItem(ctx, rx.ID, rx.Items[0].ID)
	require.NoError(t, err)
	require.Len(t, rx.Items, 1)
	assert.Equal(t, "Lozenges", rx.Items[0].MedicineName)

	_, err = f.svc.RemoveItem(ctx, rx.ID, uuid.New())
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = f.svc.TransitionStatus(ctx, rx.ID, StatusActive)
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, rx.ID, ItemInput{MedicineName: "Vitamin C"})
	assert.ErrorIs(t, err, ErrNotDraft)
	_, err = f.svc.RemoveItem(ctx, rx.ID, rx.Items[0].ID)
	assert.ErrorIs(t, err, ErrNotDraft)
}

func TestApplyShortKey(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rx := f.draft(t)

	rx, err := f.svc.ApplyShortKey(ctx, rx.ID, "urti")
	require.NoError(t, err)
	require.Len(t, rx.Items, 2)
	assert.Equal(t, "Amoxicillin", rx.Items[0].MedicineName)
	require.NotNil(t, rx.Items[0].MedicineID)
	assert.Equal(t, f.amoxicillin.ID, *rx.Items[0].MedicineID)
	assert.Equal(t, 10, rx.Items[1].Quantity)

	_, err = f.svc.ApplyShortKey(ctx, rx.ID, "nope")
	assert.ErrorIs(t, err, medicine.ErrShortKeyNotFound)
}

func TestTransitionStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	empty := f.draft(t)
	_, err := f.svc.TransitionStatus(ctx, empty.ID, StatusActive)
	assert.ErrorIs(t, err, ErrNoItems)
	_, err = f.svc.TransitionStatus(ctx, empty.ID, StatusCancelled)
	require.NoError(t, err)

	rx := f.draft(t, ItemInput{MedicineName: "Cetirizine"})
	_, err = f.svc.TransitionStatus(ctx, rx.ID, StatusCompleted)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := f.svc.TransitionStatus(ctx, rx.ID, StatusActive)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)
	got, err = f.svc.TransitionStatus(ctx, rx.ID, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)

	_, err = f.svc.TransitionStatus(ctx, rx.ID, StatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	diagnosis := "late edit"
	_, err = f.svc.UpdateDetails(ctx, rx.ID, DetailsInput{Diagnosis: &diagnosis})
	assert.ErrorIs(t, err, ErrNotEditable)

	_, err = f.svc.TransitionStatus(ctx, rx.ID, "archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestListByPatient(t *testing.T) {
	f := newFixture()
	f.draft(t)
	f.draft(t)

	got, total, err := f.svc.ListByPatient(context.Background(), f.patientID, db.Page{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, got, 2)

	_, _, err = f.svc.ListByPatient(context.Background(), uuid.New(), db.Page{})
	assert.ErrorIs(t, err, patient.ErrPatientNotFound)
}
