package doctor

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinicdesk/internal/db"
	"github.com/hackgods/clinicdesk/internal/schedule"
)

// Office is a practice location. IDs are unique within one doctor.
type Office struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type Doctor struct {
	ID              uuid.UUID               `json:"id"`
	UserID          uuid.UUID               `json:"user_id"`
	FullName        string                  `json:"full_name"`
	LicenseNumber   string                  `json:"license_number"`
	Specialization  string                  `json:"specialization"`
	Qualification   string                  `json:"qualification"`
	ConsultationFee float64                 `json:"consultation_fee"`
	Schedule        schedule.WeeklySchedule `json:"availability_schedule"`
	Offices         []Office                `json:"offices"`
	RecordStatus    db.RecordStatus         `json:"record_status"`
	ArchivedAt      *time.Time              `json:"archived_at,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

func (d *Doctor) Active() bool { return d.RecordStatus == db.RecordActive }

func (d *Doctor) HasOffice(id string) bool {
	for _, o := range d.Offices {
		if o.ID == id {
			return true
		}
	}
	return false
}

type CreateInput struct {
	UserID          uuid.UUID               `json:"user_id"`
	LicenseNumber   string                  `json:"license_number"`
	Specialization  string                  `json:"specialization"`
	Qualification   string                  `json:"qualification"`
	ConsultationFee float64                 `json:"consultation_fee"`
	Schedule        schedule.WeeklySchedule `json:"availability_schedule"`
	Offices         []Office                `json:"offices"`
}

type UpdateInput struct {
	Specialization  *string  `json:"specialization"`
	Qualification   *string  `json:"qualification"`
	ConsultationFee *float64 `json:"consultation_fee"`
}

type ListFilter struct {
	Specialization string
	Status         db.RecordStatus
	Page           db.Page
}
