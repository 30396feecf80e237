package patient

import (
	"context"
	"errors"
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
	EventPatientCreated  = "patient.created"
	EventPatientUpdated  = "patient.updated"
	EventPatientArchived = "patient.archived"
	EventPatientRestored = "patient.restored"

	aggregateType = "patient"
)

type Service struct {
	repo      Repository
	tx        db.Transactor
	events    events.Recorder
	maxFamily int
	now       func() time.Time
}

func NewService(repo Repository, tx db.Transactor, rec events.Recorder, maxFamily int) *Service {
	if maxFamily <= 0 {
		maxFamily = 10
	}
	return &Service{
		repo:      repo,
		tx:        tx,
		events:    rec,
		maxFamily: maxFamily,
		now:       time.Now,
	}
}

// MaxFamilySize is the number of active members allowed under one mobile number.
func (s *Service) MaxFamilySize() int { return s.maxFamily }

// Create registers a patient. A self member founds a family; any other
// relationship joins the family of an existing self member with the same mobile.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Patient, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "patient.Create")
	defer span.End()

	p, err := newPatient(in)
	if err != nil {
		return nil, err
	}
	p.ID = uuid.New()
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.checkFamily(ctx, p.MobileNumber, p.FirstName, p.Relationship); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		return s.record(ctx, EventPatientCreated, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// newPatient normalizes in and enforces the rules that need no lookups.
func newPatient(in CreateInput) (*Patient, error) {
	mobile := NormalizeMobile(in.MobileNumber)
	if !ValidMobile(mobile) {
		return nil, ErrMobileInvalid
	}
	first := strings.TrimSpace(in.FirstName)
	if first == "" {
		return nil, ErrFirstNameRequired
	}
	if !in.Relationship.Valid() {
		return nil, ErrRelationshipInvalid
	}

	p := &Patient{
		MobileNumber:     mobile,
		FirstName:        first,
		LastName:         strings.TrimSpace(in.LastName),
		DateOfBirth:      in.DateOfBirth,
		Gender:           in.Gender,
		Relationship:     in.Relationship,
		EmergencyContact: in.EmergencyContact,
		Email:            strings.TrimSpace(in.Email),
		Address:          in.Address,
		BloodGroup:       in.BloodGroup,
		Allergies:        in.Allergies,
		RecordStatus:     db.RecordActive,
	}
	if p.Allergies == nil {
		p.Allergies = []string{}
	}

	contact := NormalizeMobile(in.PrimaryContactMobile)
	if p.Relationship == RelSelf {
		if contact != "" {
			return nil, ErrPrimaryContactForbidden
		}
		return p, nil
	}
	if contact == "" {
		return nil, ErrPrimaryContactRequired
	}
	if contact != mobile {
		return nil, ErrPrimaryContactMismatch
	}
	p.PrimaryContactMobile = &contact
	return p, nil
}

// checkFamily enforces the lookup-backed invariants in the order callers see them:
// self uniqueness or root existence, then key uniqueness, then family size.
func (s *Service) checkFamily(ctx context.Context, mobile, firstName string, rel Relationship) error {
	self, err := s.findSelf(ctx, mobile)
	if err != nil {
		return err
	}
	if rel == RelSelf && self != nil {
		return ErrSelfExists
	}
	if rel != RelSelf && self == nil {
		return ErrFamilyRootNotFound
	}

	existing, err := s.repo.FindByKey(ctx, mobile, firstName)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("lookup patient key: %w", err)
	}
	if existing != nil {
		return ErrDuplicatePatient
	}

	count, err := s.repo.CountFamilyMembers(ctx, mobile)
	if err != nil {
		return fmt.Errorf("count family members: %w", err)
	}
	if count >= s.maxFamily {
		return ErrFamilyFull
	}
	return nil
}

func (s *Service) findSelf(ctx context.Context, mobile string) (*Patient, error) {
	self, err := s.repo.FindSelfMember(ctx, mobile)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup self member: %w", err)
	}
	return self, nil
}

// Eligibility reports whether a new dependent could join the family of mobile.
func (s *Service) Eligibility(ctx context.Context, mobile string) (*Eligibility, error) {
	mobile = NormalizeMobile(mobile)
	if !ValidMobile(mobile) {
		return nil, ErrMobileInvalid
	}

	out := &Eligibility{MobileNumber: mobile, MaxMembers: s.maxFamily}

	self, err := s.findSelf(ctx, mobile)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountFamilyMembers(ctx, mobile)
	if err != nil {
		return nil, fmt.Errorf("count family members: %w", err)
	}
	out.MemberCount = count

	switch {
	case self == nil:
		out.Reason = "no self member is registered for this mobile number"
	case count >= s.maxFamily:
		out.Reason = "family has reached the maximum number of members"
	default:
		out.Eligible = true
	}
	return out, nil
}

// ValidateFamilyMember dry-runs a registration and collects every violated rule.
func (s *Service) ValidateFamilyMember(ctx context.Context, mobile, firstName string, rel Relationship) (*MemberValidation, error) {
	mobile = NormalizeMobile(mobile)
	firstName = strings.TrimSpace(firstName)

	var problems []string
	if !ValidMobile(mobile) {
		problems = append(problems, ErrMobileInvalid.Message)
	}
	if firstName == "" {
		problems = append(problems, ErrFirstNameRequired.Message)
	}
	if !rel.Valid() {
		problems = append(problems, ErrRelationshipInvalid.Message)
	}
	if len(problems) > 0 {
		return &MemberValidation{Errors: problems}, nil
	}

	self, err := s.findSelf(ctx, mobile)
	if err != nil {
		return nil, err
	}
	if rel == RelSelf && self != nil {
		problems = append(problems, ErrSelfExists.Message)
	}
	if rel != RelSelf && self == nil {
		problems = append(problems, ErrFamilyRootNotFound.Message)
	}

	existing, err := s.repo.FindByKey(ctx, mobile, firstName)
	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("lookup patient key: %w", err)
	}
	if existing != nil {
		problems = append(problems, ErrDuplicatePatient.Message)
	}

	count, err := s.repo.CountFamilyMembers(ctx, mobile)
	if err != nil {
		return nil, fmt.Errorf("count family members: %w", err)
	}
	if count >= s.maxFamily {
		problems = append(problems, ErrFamilyFull.Message)
	}

	if problems == nil {
		problems = []string{}
	}
	return &MemberValidation{IsValid: len(problems) == 0, Errors: problems}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByKey(ctx context.Context, mobile, firstName string) (*Patient, error) {
	return s.repo.FindByKey(ctx, NormalizeMobile(mobile), strings.TrimSpace(firstName))
}

// Family returns the active members sharing mobile, self member first.
func (s *Service) Family(ctx context.Context, mobile string) (*Family, error) {
	mobile = NormalizeMobile(mobile)
	members, err := s.repo.ListFamily(ctx, mobile)
	if err != nil {
		return nil, fmt.Errorf("list family: %w", err)
	}
	if len(members) == 0 {
		return nil, ErrFamilyRootNotFound
	}

	f := &Family{MobileNumber: mobile, Members: members, Size: len(members)}
	for i := range members {
		if members[i].Relationship == RelSelf {
			f.Primary = &members[i]
			break
		}
	}
	return f, nil
}

func (s *Service) Search(ctx context.Context, f SearchFilter) ([]Patient, int, error) {
	f.Page = f.Page.Clamp()
	if f.Status == "" {
		f.Status = db.RecordActive
	}
	f.Query = strings.TrimSpace(f.Query)
	return s.repo.Search(ctx, f)
}

// Update changes non-key attributes. Relationship changes re-run the self
// invariants: promoting to self needs the slot free, demoting a self member
// needs it to have no active dependents and another root to attach to.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Patient, error) {
	var updated *Patient
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !p.Active() {
			return ErrPatientArchived
		}

		if in.Relationship != nil && *in.Relationship != p.Relationship {
			if err := s.changeRelationship(ctx, p, *in.Relationship); err != nil {
				return err
			}
		}
		applyUpdate(p, in)
		p.UpdatedAt = s.now()

		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		updated = p
		return s.record(ctx, EventPatientUpdated, p)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) changeRelationship(ctx context.Context, p *Patient, to Relationship) error {
	if !to.Valid() {
		return ErrRelationshipInvalid
	}

	if to == RelSelf {
		self, err := s.findSelf(ctx, p.MobileNumber)
		if err != nil {
			return err
		}
		if self != nil && self.ID != p.ID {
			return ErrSelfExists
		}
		p.Relationship = RelSelf
		p.PrimaryContactMobile = nil
		return nil
	}

	if p.Relationship == RelSelf {
		count, err := s.repo.CountFamilyMembers(ctx, p.MobileNumber)
		if err != nil {
			return fmt.Errorf("count family members: %w", err)
		}
		if count > 1 {
			return ErrFamilyHasMembers
		}
		// p is the only root there is.
		return ErrFamilyRootNotFound
	}

	p.Relationship = to
	return nil
}

func applyUpdate(p *Patient, in UpdateInput) {
	if in.LastName != nil {
		p.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.DateOfBirth != nil {
		p.DateOfBirth = *in.DateOfBirth
	}
	if in.Gender != nil {
		p.Gender = *in.Gender
	}
	if in.EmergencyContact != nil {
		p.EmergencyContact = *in.EmergencyContact
	}
	if in.Email != nil {
		p.Email = strings.TrimSpace(*in.Email)
	}
	if in.Address != nil {
		p.Address = *in.Address
	}
	if in.BloodGroup != nil {
		p.BloodGroup = *in.BloodGroup
	}
	if in.Allergies != nil {
		p.Allergies = in.Allergies
	}
}

// Deactivate archives a patient. A self member with active dependents stays.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var out *Patient
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !p.Active() {
			out = p
			return nil
		}
		if p.Relationship == RelSelf {
			count, err := s.repo.CountFamilyMembers(ctx, p.MobileNumber)
			if err != nil {
				return fmt.Errorf("count family members: %w", err)
			}
			if count > 1 {
				return ErrFamilyHasMembers
			}
		}

		out, err = s.repo.SetRecordStatus(ctx, id, db.RecordArchived)
		if err != nil {
			return err
		}
		return s.record(ctx, EventPatientArchived, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Restore reactivates an archived patient after re-checking the family invariants.
func (s *Service) Restore(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var out *Patient
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p.Active() {
			out = p
			return nil
		}

		self, err := s.findSelf(ctx, p.MobileNumber)
		if err != nil {
			return err
		}
		if p.Relationship == RelSelf && self != nil {
			return ErrSelfExists
		}
		if p.Relationship != RelSelf && self == nil {
			return ErrFamilyRootNotFound
		}
		count, err := s.repo.CountFamilyMembers(ctx, p.MobileNumber)
		if err != nil {
			return fmt.Errorf("count family members: %w", err)
		}
		if count >= s.maxFamily {
			return ErrFamilyFull
		}

		out, err = s.repo.SetRecordStatus(ctx, id, db.RecordActive)
		if err != nil {
			return err
		}
		return s.record(ctx, EventPatientRestored, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) record(ctx context.Context, eventType string, p *Patient) error {
	return s.events.Record(ctx, events.Event{
		Type:          eventType,
		AggregateType: aggregateType,
		AggregateID:   p.ID,
		Payload: map[string]any{
			"mobile_number":           p.MobileNumber,
			"first_name":              p.FirstName,
			"relationship_to_primary": p.Relationship,
			"record_status":           p.RecordStatus,
		},
	})
}

func isNotFound(err error) bool { return errors.Is(err, apperr.ErrNotFound) }
