package medicine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinicdesk/internal/apperr"
	"github.com/hackgods/clinicdesk/internal/db"
	"github.com/hackgods/clinicdesk/internal/events"
	"github.com/hackgods/clinicdesk/internal/telemetry"
)

const (
	EventMedicineCreated  = "medicine.created"
	EventMedicineUpdated  = "medicine.updated"
	EventMedicineArchived = "medicine.archived"
	EventMedicineRestored = "medicine.restored"
	EventShortKeyCreated  = "short_key.created"
	EventShortKeyUpdated  = "short_key.updated"
	EventShortKeyArchived = "short_key.archived"
)

// Service owns the medicine catalog and the short keys built on it.
type Service struct {
	medicines Repository
	keys      ShortKeyRepository
	tx        db.Transactor
	events    events.Recorder
	now       func() time.Time
}

func NewService(medicines Repository, keys ShortKeyRepository, tx db.Transactor, rec events.Recorder) *Service {
	return &Service{medicines: medicines, keys: keys, tx: tx, events: rec, now: time.Now}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Medicine, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	form := in.Form
	if form == "" {
		form = FormTablet
	}
	if !form.Valid() {
		return nil, ErrInvalidForm
	}

	now := s.now()
	m := &Medicine{
		ID:           uuid.New(),
		Name:         name,
		GenericName:  strings.TrimSpace(in.GenericName),
		Manufacturer: strings.TrimSpace(in.Manufacturer),
		Form:         form,
		Strength:     strings.TrimSpace(in.Strength),
		RecordStatus: db.RecordActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.medicines.Create(ctx, m); err != nil {
			return err
		}
		return s.record(ctx, EventMedicineCreated, "medicine", m.ID, m)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return s.medicines.GetByID(ctx, id)
}

func (s *Service) Search(ctx context.Context, f SearchFilter) ([]Medicine, int, error) {
	if f.Status == "" {
		f.Status = db.RecordActive
	}
	if !f.Status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	if f.Form != "" && !f.Form.Valid() {
		return nil, 0, ErrInvalidForm
	}
	f.Query = strings.TrimSpace(f.Query)
	f.Page = f.Page.Clamp()
	return s.medicines.Search(ctx, f)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Medicine, error) {
	var out *Medicine
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		m, err := s.medicines.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return ErrNameRequired
			}
			m.Name = name
		}
		if in.Form != nil {
			if !in.Form.Valid() {
				return ErrInvalidForm
			}
			m.Form = *in.Form
		}
		if in.GenericName != nil {
			m.GenericName = strings.TrimSpace(*in.GenericName)
		}
		if in.Manufacturer != nil {
			m.Manufacturer = strings.TrimSpace(*in.Manufacturer)
		}
		if in.Strength != nil {
			m.Strength = strings.TrimSpace(*in.Strength)
		}
		m.UpdatedAt = s.now()

		if err := s.medicines.Update(ctx, m); err != nil {
			return err
		}
		out = m
		return s.record(ctx, EventMedicineUpdated, "medicine", m.ID, m)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return s.setMedicineStatus(ctx, id, db.RecordArchived, EventMedicineArchived)
}

// Restore reactivates a medicine. It fails with ErrMedicineNameTaken when an
// active medicine took the name in the meantime.
func (s *Service) Restore(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return s.setMedicineStatus(ctx, id, db.RecordActive, EventMedicineRestored)
}

func (s *Service) setMedicineStatus(ctx context.Context, id uuid.UUID, status db.RecordStatus, eventType string) (*Medicine, error) {
	var out *Medicine
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.medicines.SetRecordStatus(ctx, id, status); err != nil {
			return err
		}
		m, err := s.medicines.GetByID(ctx, id)
		if err != nil {
			return err
		}
		out = m
		return s.record(ctx, eventType, "medicine", m.ID, map[string]any{"record_status": status})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) CreateShortKey(ctx context.Context, in ShortKeyInput) (*ShortKey, error) {
	code := NormalizeCode(in.Code)
	if !ValidCode(code) {
		return nil, ErrInvalidCode
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	now := s.now()
	k := &ShortKey{
		ID:           uuid.New(),
		Code:         code,
		Name:         name,
		Description:  strings.TrimSpace(in.Description),
		DoctorID:     in.DoctorID,
		RecordStatus: db.RecordActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		items, err := s.resolveItems(ctx, in.Items)
		if err != nil {
			return err
		}
		k.Items = items
		if err := s.keys.Create(ctx, k); err != nil {
			return err
		}
		return s.record(ctx, EventShortKeyCreated, "short_key", k.ID, k)
	})
	if err != nil {
		return nil, err
	}
	return k, nil
}

func (s *Service) GetShortKey(ctx context.Context, id uuid.UUID) (*ShortKey, error) {
	return s.keys.GetByID(ctx, id)
}

func (s *Service) GetShortKeyByCode(ctx context.Context, code string) (*ShortKey, error) {
	return s.keys.GetByCode(ctx, NormalizeCode(code))
}

func (s *Service) ListShortKeys(ctx context.Context, f ShortKeyFilter) ([]ShortKey, int, error) {
	if f.Status == "" {
		f.Status = db.RecordActive
	}
	if !f.Status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	f.Page = f.Page.Clamp()
	return s.keys.List(ctx, f)
}

func (s *Service) UpdateShortKey(ctx context.Context, id uuid.UUID, in ShortKeyUpdate) (*ShortKey, error) {
	var out *ShortKey
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		k, err := s.keys.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !k.Active() {
			return ErrShortKeyClosed
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return ErrNameRequired
			}
			k.Name = name
		}
		if in.Description != nil {
			k.Description = strings.TrimSpace(*in.Description)
		}
		k.UpdatedAt = s.now()
		if err := s.keys.Update(ctx, k); err != nil {
			return err
		}

		if in.Items != nil {
			items, err := s.resolveItems(ctx, in.Items)
			if err != nil {
				return err
			}
			if err := s.keys.ReplaceItems(ctx, k.ID, items); err != nil {
				return err
			}
			k.Items = items
		}
		out = k
		return s.record(ctx, EventShortKeyUpdated, "short_key", k.ID, k)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) DeactivateShortKey(ctx context.Context, id uuid.UUID) (*ShortKey, error) {
	var out *ShortKey
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.keys.SetRecordStatus(ctx, id, db.RecordArchived); err != nil {
			return err
		}
		k, err := s.keys.GetByID(ctx, id)
		if err != nil {
			return err
		}
		out = k
		return s.record(ctx, EventShortKeyArchived, "short_key", k.ID, map[string]any{"code": k.Code})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Expand resolves an active short key into prescription lines, in item order.
func (s *Service) Expand(ctx context.Context, code string) ([]Line, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "medicine.Expand")
	defer span.End()

	k, err := s.keys.GetByCode(ctx, NormalizeCode(code))
	if err != nil {
		return nil, err
	}
	if !k.Active() {
		return nil, ErrShortKeyClosed
	}

	lines := make([]Line, 0, len(k.Items))
	for _, it := range k.Items {
		lines = append(lines, Line{
			MedicineID:   it.MedicineID,
			MedicineName: it.MedicineName,
			Dosage:       it.Dosage,
			Frequency:    it.Frequency,
			Duration:     it.Duration,
			Instructions: it.Instructions,
			Quantity:     it.Quantity,
		})
	}
	return lines, nil
}

// resolveItems checks every item against the active catalog.
func (s *Service) resolveItems(ctx context.Context, in []ItemInput) ([]ShortKeyItem, error) {
	if len(in) == 0 {
		return nil, ErrItemsRequired
	}
	ids := make([]uuid.UUID, 0, len(in))
	for _, it := range in {
		if it.Quantity < 0 {
			return nil, ErrInvalidQty
		}
		ids = append(ids, it.MedicineID)
	}

	found, err := s.medicines.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load medicines: %w", err)
	}

	items := make([]ShortKeyItem, 0, len(in))
	for _, it := range in {
		m, ok := found[it.MedicineID]
		if !ok || !m.Active() {
			return nil, apperr.Wrap(ErrMedicineNotFound, fmt.Errorf("medicine %s is not in the active catalog", it.MedicineID))
		}
		items = append(items, ShortKeyItem{
			ID:           uuid.New(),
			MedicineID:   m.ID,
			MedicineName: m.Name,
			Dosage:       strings.TrimSpace(it.Dosage),
			Frequency:    strings.TrimSpace(it.Frequency),
			Duration:     strings.TrimSpace(it.Duration),
			Instructions: strings.TrimSpace(it.Instructions),
			Quantity:     it.Quantity,
		})
	}
	return items, nil
}

func (s *Service) record(ctx context.Context, eventType, aggregate string, id uuid.UUID, payload any) error {
	return s.events.Record(ctx, events.Event{
		Type:          eventType,
		AggregateType: aggregate,
		AggregateID:   id,
		Payload:       payload,
	})
}
