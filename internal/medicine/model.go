package medicine

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinicdesk/internal/db"
)

type Form string

const (
	FormTablet    Form = "tablet"
	FormCapsule   Form = "capsule"
	FormSyrup     Form = "syrup"
	FormInjection Form = "injection"
	FormOintment  Form = "ointment"
	FormDrops     Form = "drops"
	FormInhaler   Form = "inhaler"
	FormOther     Form = "other"
)

func (f Form) Valid() bool {
	switch f {
	case FormTablet, FormCapsule, FormSyrup, FormInjection, FormOintment, FormDrops, FormInhaler, FormOther:
		return true
	}
	return false
}

type Medicine struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	GenericName  string          `json:"generic_name"`
	Manufacturer string          `json:"manufacturer"`
	Form         Form            `json:"form"`
	Strength     string          `json:"strength"`
	RecordStatus db.RecordStatus `json:"record_status"`
	ArchivedAt   *time.Time      `json:"archived_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (m *Medicine) Active() bool { return m.RecordStatus == db.RecordActive }

type CreateInput struct {
	Name         string `json:"name"`
	GenericName  string `json:"generic_name"`
	Manufacturer string `json:"manufacturer"`
	Form         Form   `json:"form"`
	Strength     string `json:"strength"`
}

type UpdateInput struct {
	Name         *string `json:"name"`
	GenericName  *string `json:"generic_name"`
	Manufacturer *string `json:"manufacturer"`
	Form         *Form   `json:"form"`
	Strength     *string `json:"strength"`
}

// SearchFilter matches Query as a case-insensitive prefix of the name or generic name.
type SearchFilter struct {
	Query  string
	Form   Form
	Status db.RecordStatus
	Page   db.Page
}

// ShortKey is a named bundle of prescription lines a doctor can stamp into a
// prescription by its code.
type ShortKey struct {
	ID           uuid.UUID       `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	DoctorID     *uuid.UUID      `json:"doctor_id,omitempty"`
	Items        []ShortKeyItem  `json:"items"`
	RecordStatus db.RecordStatus `json:"record_status"`
	ArchivedAt   *time.Time      `json:"archived_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (k *ShortKey) Active() bool { return k.RecordStatus == db.RecordActive }

type ShortKeyItem struct {
	ID           uuid.UUID `json:"id"`
	MedicineID   uuid.UUID `json:"medicine_id"`
	MedicineName string    `json:"medicine_name"`
	Dosage       string    `json:"dosage"`
	Frequency    string    `json:"frequency"`
	Duration     string    `json:"duration"`
	Instructions string    `json:"instructions"`
	Quantity     int       `json:"quantity"`
}

type ItemInput struct {
	MedicineID   uuid.UUID `json:"medicine_id"`
	Dosage       string    `json:"dosage"`
	Frequency    string    `json:"frequency"`
	Duration     string    `json:"duration"`
	Instructions string    `json:"instructions"`
	Quantity     int       `json:"quantity"`
}

type ShortKeyInput struct {
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	DoctorID    *uuid.UUID  `json:"doctor_id"`
	Items       []ItemInput `json:"items"`
}

// ShortKeyUpdate replaces the items when Items is non-nil.
type ShortKeyUpdate struct {
	Name        *string     `json:"name"`
	Description *string     `json:"description"`
	Items       []ItemInput `json:"items"`
}

type ShortKeyFilter struct {
	DoctorID uuid.UUID
	Status   db.RecordStatus
	Page     db.Page
}

// Line is a short key item resolved against the catalog, ready to become a
// prescription item.
type Line struct {
	MedicineID   uuid.UUID `json:"medicine_id"`
	MedicineName string    `json:"medicine_name"`
	Dosage       string    `json:"dosage"`
	Frequency    string    `json:"frequency"`
	Duration     string    `json:"duration"`
	Instructions string    `json:"instructions"`
	Quantity     int       `json:"quantity"`
}

var codePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_-]{1,31}$`)

// NormalizeCode upper-cases and trims a short key code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}
