package patient

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinicdesk/internal/db"
	"github.com/hackgods/clinicdesk/internal/schedule"
)

type Relationship string

const (
	RelSelf    Relationship = "self"
	RelSpouse  Relationship = "spouse"
	RelChild   Relationship = "child"
	RelParent  Relationship = "parent"
	RelSibling Relationship = "sibling"
	RelOther   Relationship = "other"
)

func (r Relationship) Valid() bool {
	switch r {
	case RelSelf, RelSpouse, RelChild, RelParent, RelSibling, RelOther:
		return true
	}
	return false
}

// Key is the natural identity of a patient. Family members share a mobile
// number and are told apart by first name.
type Key struct {
	MobileNumber string `json:"mobile_number"`
	FirstName    string `json:"first_name"`
}

type Patient struct {
	ID                   uuid.UUID       `json:"id"`
	MobileNumber         string          `json:"mobile_number"`
	FirstName            string          `json:"first_name"`
	LastName             string          `json:"last_name"`
	DateOfBirth          schedule.Date   `json:"date_of_birth"`
	Gender               string          `json:"gender"`
	Relationship         Relationship    `json:"relationship_to_primary"`
	PrimaryContactMobile *string         `json:"primary_contact_mobile,omitempty"`
	EmergencyContact     string          `json:"emergency_contact"`
	Email                string          `json:"email"`
	Address              string          `json:"address"`
	BloodGroup           string          `json:"blood_group"`
	Allergies            []string        `json:"allergies"`
	RecordStatus         db.RecordStatus `json:"record_status"`
	ArchivedAt           *time.Time      `json:"archived_at,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

func (p *Patient) Key() Key {
	return Key{MobileNumber: p.MobileNumber, FirstName: p.FirstName}
}

func (p *Patient) Active() bool { return p.RecordStatus == db.RecordActive }

// CreateInput carries a registration request.
type CreateInput struct {
	MobileNumber         string        `json:"mobile_number"`
	FirstName            string        `json:"first_name"`
	LastName             string        `json:"last_name"`
	DateOfBirth          schedule.Date `json:"date_of_birth"`
	Gender               string        `json:"gender"`
	Relationship         Relationship  `json:"relationship_to_primary"`
	PrimaryContactMobile string        `json:"primary_contact_mobile"`
	EmergencyContact     string        `json:"emergency_contact"`
	Email                string        `json:"email"`
	Address              string        `json:"address"`
	BloodGroup           string        `json:"blood_group"`
	Allergies            []string      `json:"allergies"`
}

// UpdateInput changes non-key attributes. Nil fields are left untouched.
type UpdateInput struct {
	LastName         *string        `json:"last_name"`
	DateOfBirth      *schedule.Date `json:"date_of_birth"`
	Gender           *string        `json:"gender"`
	Relationship     *Relationship  `json:"relationship_to_primary"`
	EmergencyContact *string        `json:"emergency_contact"`
	Email            *string        `json:"email"`
	Address          *string        `json:"address"`
	BloodGroup       *string        `json:"blood_group"`
	Allergies        []string       `json:"allergies"`
}

type SearchFilter struct {
	Query  string // first/last name or mobile prefix
	Status db.RecordStatus
	Page   db.Page
}

// Eligibility answers whether a dependent may be registered under a mobile number.
type Eligibility struct {
	MobileNumber string `json:"mobile_number"`
	Eligible     bool   `json:"eligible"`
	Reason       string `json:"reason,omitempty"`
	MemberCount  int    `json:"member_count"`
	MaxMembers   int    `json:"max_members"`
}

// MemberValidation lists every rule a prospective family member would violate.
type MemberValidation struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// Family is a self member plus the dependents registered under the same mobile.
type Family struct {
	MobileNumber string    `json:"mobile_number"`
	Primary      *Patient  `json:"primary,omitempty"`
	Members      []Patient `json:"members"`
	Size         int       `json:"size"`
}

var mobilePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

func NormalizeMobile(s string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(s))
}

func ValidMobile(s string) bool { return mobilePattern.MatchString(s) }
