package medicine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinicdesk/internal/apperr"
	"github.com/hackgods/clinicdesk/internal/db"
	"github.com/hackgods/clinicdesk/internal/events"
)

type memMedicines struct {
	byID map[uuid.UUID]*Medicine
}

func (m *memMedicines) nameTaken(name string, except uuid.UUID) bool {
	for _, x := range m.byID {
		if x.ID != except && x.Active() && strings.EqualFold(x.Name, name) {
			return true
		}
	}
	return false
}

func (m *memMedicines) Create(_ context.Context, med *Medicine) error {
	if m.nameTaken(med.Name, med.ID) {
		return ErrMedicineNameTaken
	}
	cp := *med
	m.byID[med.ID] = &cp
	return nil
}

func (m *memMedicines) Update(_ context.Context, med *Medicine) error {
	if med.Active() && m.nameTaken(med.Name, med.ID) {
		return ErrMedicineNameTaken
	}
	cp := *med
	m.byID[med.ID] = &cp
	return nil
}

func (m *memMedicines) SetRecordStatus(_ context.Context, id uuid.UUID, status db.RecordStatus) error {
	med, ok := m.byID[id]
	if !ok {
		return ErrMedicineNotFound
	}
	if status == db.RecordActive && m.nameTaken(med.Name, id) {
		return ErrMedicineNameTaken
	}
	med.RecordStatus = status
	return nil
}

func (m *memMedicines) GetByID(_ context.Context, id uuid.UUID) (*Medicine, error) {
	med, ok := m.byID[id]
	if !ok {
		return nil, ErrMedicineNotFound
	}
	cp := *med
	return &cp, nil
}

func (m *memMedicines) GetMany(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*Medicine, error) {
	out := map[uuid.UUID]*Medicine{}
	for _, id := range ids {
		if med, ok := m.byID[id]; ok {
			cp := *med
			out[id] = &cp
		}
	}
	return out, nil
}

func (m *memMedicines) Search(_ context.Context, f SearchFilter) ([]Medicine, int, error) {
	var out []Medicine
	for _, med := range m.byID {
		if med.RecordStatus != f.Status {
			continue
		}
		if f.Query != "" && !strings.HasPrefix(strings.ToLower(med.Name), strings.ToLower(f.Query)) {
			continue
		}
		out = append(out, *med)
	}
	return out, len(out), nil
}

type memKeys struct {
	byID map[uuid.UUID]*ShortKey
}

func (m *memKeys) Create(_ context.Context, k *ShortKey) error {
	for _, x := range m.byID {
		if x.Code == k.Code {
			return ErrCodeTaken
		}
	}
	cp := *k
	m.byID[k.ID] = &cp
	return nil
}

func (m *memKeys) Update(_ context.Context, k *ShortKey) error {
	cur, ok := m.byID[k.ID]
	if !ok {
		return ErrShortKeyNotFound
	}
	cur.Name, cur.Description = k.Name, k.Description
	return nil
}

func (m *memKeys) ReplaceItems(_ context.Context, id uuid.UUID, items []ShortKeyItem) error {
	m.byID[id].Items = items
	return nil
}

func (m *memKeys) SetRecordStatus(_ context.Context, id uuid.UUID, status db.RecordStatus) error {
	k, ok := m.byID[id]
	if !ok {
		return ErrShortKeyNotFound
	}
	k.RecordStatus = status
	return nil
}

func (m *memKeys) GetByID(_ context.Context, id uuid.UUID) (*ShortKey, error) {
	k, ok := m.byID[id]
	if !ok {
		return nil, ErrShortKeyNotFound
	}
	cp := *k
	return &cp, nil
}

func (m *memKeys) GetByCode(_ context.Context, code string) (*ShortKey, error) {
	for _, k := range m.byID {
		if k.Code == code {
			cp := *k
			return &cp, nil
		}
	}
	return nil, ErrShortKeyNotFound
}

func (m *memKeys) List(_ context.Context, f ShortKeyFilter) ([]ShortKey, int, error) {
	var out []ShortKey
	for _, k := range m.byID {
		if k.RecordStatus == f.Status {
			out = append(out, *k)
		}
	}
	return out, len(out), nil
}

type directTx struct{}

func (directTx) InTx(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) }

type countingRecorder struct{ types []string }

func (r *countingRecorder) Record(_ context.Context, e events.Event) error {
	r.types = append(r.types, e.Type)
	return nil
}

func newTestService() (*Service, *countingRecorder) {
	rec := &countingRecorder{}
	svc := NewService(
		&memMedicines{byID: map[uuid.UUID]*Medicine{}},
		&memKeys{byID: map[uuid.UUID]*ShortKey{}},
		directTx{}, rec,
	)
	svc.now = func() time.Time { return time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC) }
	return svc, rec
}

func TestCreateMedicine(t *testing.T) {
	ctx := context.Background()
	svc, rec := newTestService()

	m, err := svc.Create(ctx, CreateInput{Name: " Amoxicillin ", Strength: "500mg"})
	require.NoError(t, err)
	assert.Equal(t, "Amoxicillin", m.Name)
	assert.Equal(t, FormTablet, m.Form)
	assert.True(t, m.Active())
	assert.Equal(t, []string{EventMedicineCreated}, rec.types)

	_, err = svc.Create(ctx, CreateInput{Name: "amoxicillin"})
	assert.ErrorIs(t, err, ErrMedicineNameTaken)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = svc.Create(ctx, CreateInput{Name: "  "})
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = svc.Create(ctx, CreateInput{Name: "Salbutamol", Form: "spray"})
	assert.ErrorIs(t, err, ErrInvalidForm)
}

func TestArchiveFreesName(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	old, err := svc.Create(ctx, CreateInput{Name: "Paracetamol"})
	require.NoError(t, err)
	_, err = svc.Deactivate(ctx, old.ID)
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{Name: "Paracetamol", Strength: "650mg"})
	require.NoError(t, err)

	_, err = svc.Restore(ctx, old.ID)
	assert.ErrorIs(t, err, ErrMedicineNameTaken)
}

func TestUpdateMedicine(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	m, err := svc.Create(ctx, CreateInput{Name: "Ibuprofen"})
	require.NoError(t, err)

	form := FormSyrup
	strength := "100mg/5ml"
	got, err := svc.Update(ctx, m.ID, UpdateInput{Form: &form, Strength: &strength})
	require.NoError(t, err)
	assert.Equal(t, FormSyrup, got.Form)
	assert.Equal(t, "100mg/5ml", got.Strength)
	assert.Equal(t, "Ibuprofen", got.Name)

	_, err = svc.Update(ctx, uuid.New(), UpdateInput{})
	assert.ErrorIs(t, err, ErrMedicineNotFound)
}

func TestSearchDefaultsToActive(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	for _, n := range []string{"Cetirizine", "Cefixime", "Metformin"} {
		_, err := svc.Create(ctx, CreateInput{Name: n})
		require.NoError(t, err)
	}

	got, total, err := svc.Search(ctx, SearchFilter{Query: "ce"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, got, 2)

	_, _, err = svc.Search(ctx, SearchFilter{Status: "gone"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestShortKeyLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, rec := newTestService()
	amox, err := svc.Create(ctx, CreateInput{Name: "Amoxicillin", Strength: "500mg"})
	require.NoError(t, err)
	para, err := svc.Create(ctx, CreateInput{Name: "Paracetamol"})
	require.NoError(t, err)

	k, err := svc.CreateShortKey(ctx, ShortKeyInput{
		Code: " urti ",
		Name: "Upper respiratory infection",
		Items: []ItemInput{
			{MedicineID: amox.ID, Dosage: "1 tab", Frequency: "TID", Duration: "5 days", Quantity: 15},
			{MedicineID: para.ID, Dosage: "1 tab", Frequency: "SOS", Quantity: 10},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "URTI", k.Code)
	require.Len(t, k.Items, 2)
	assert.Equal(t, "Amoxicillin", k.Items[0].MedicineName)

	lines, err := svc.Expand(ctx, "urti")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, amox.ID, lines[0].MedicineID)
	assert.Equal(t, "TID", lines[0].Frequency)
	assert.Equal(t, 10, lines[1].Quantity)

	_, err = svc.CreateShortKey(ctx, ShortKeyInput{Code: "URTI", Name: "dup", Items: []ItemInput{{MedicineID: para.ID}}})
	assert.ErrorIs(t, err, ErrCodeTaken)

	_, err = svc.UpdateShortKey(ctx, k.ID, ShortKeyUpdate{Items: []ItemInput{{MedicineID: para.ID, Quantity: 4}}})
	require.NoError(t, err)
	lines, err = svc.Expand(ctx, "URTI")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Paracetamol", lines[0].MedicineName)

	_, err = svc.DeactivateShortKey(ctx, k.ID)
	require.NoError(t, err)
	_, err = svc.Expand(ctx, "URTI")
	assert.ErrorIs(t, err, ErrShortKeyClosed)

	assert.Contains(t, rec.types, EventShortKeyArchived)
}

func TestShortKeyValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	m, err := svc.Create(ctx, CreateInput{Name: "Omeprazole"})
	require.NoError(t, err)

	_, err = svc.CreateShortKey(ctx, ShortKeyInput{Code: "x", Name: "n", Items: []ItemInput{{MedicineID: m.ID}}})
	assert.ErrorIs(t, err, ErrInvalidCode)

	_, err = svc.CreateShortKey(ctx, ShortKeyInput{Code: "GERD", Name: "n"})
	assert.ErrorIs(t, err, ErrItemsRequired)

	_, err = svc.CreateShortKey(ctx, ShortKeyInput{Code: "GERD", Name: "n", Items: []ItemInput{{MedicineID: uuid.New()}}})
	assert.ErrorIs(t, err, ErrMedicineNotFound)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = svc.CreateShortKey(ctx, ShortKeyInput{Code: "GERD", Name: "n", Items: []ItemInput{{MedicineID: m.ID, Quantity: -1}}})
	assert.ErrorIs(t, err, ErrInvalidQty)

	_, err = svc.Deactivate(ctx, m.ID)
	require.NoError(t, err)
	_, err = svc.CreateShortKey(ctx, ShortKeyInput{Code: "GERD", Name: "n", Items: []ItemInput{{MedicineID: m.ID}}})
	assert.ErrorIs(t, err, ErrMedicineNotFound)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "HTN-1", NormalizeCode(" htn-1 "))
	assert.True(t, ValidCode("HTN-1"))
	assert.True(t, ValidCode("DM_2"))
	assert.False(t, ValidCode("-HTN"))
	assert.False(t, ValidCode("H"))
	assert.False(t, ValidCode("HTN 1"))
}
