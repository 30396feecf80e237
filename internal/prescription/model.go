package prescription

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinicdesk/internal/db"
	"github.com/hackgods/clinicdesk/internal/schedule"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusDraft:  {StatusActive, StatusCancelled},
	StatusActive: {StatusCompleted, StatusCancelled},
}

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Prescription struct {
	ID            uuid.UUID     `json:"id"`
	Number        string        `json:"prescription_number"`
	PatientID     uuid.UUID     `json:"patient_id"`
	DoctorID      uuid.UUID     `json:"doctor_id"`
	AppointmentID *uuid.UUID    `json:"appointment_id,omitempty"`
	Diagnosis     string        `json:"diagnosis"`
	Notes         string        `json:"notes"`
	Status        Status        `json:"status"`
	FollowUpDate  schedule.Date `json:"follow_up_date"`
	Items         []Item        `json:"items"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Item is one prescribed line. MedicineID is nil for free-text medicines that
// are not in the catalog.
type Item struct {
	ID           uuid.UUID  `json:"id"`
	MedicineID   *uuid.UUID `json:"medicine_id,omitempty"`
	MedicineName string     `json:"medicine_name"`
	Dosage       string     `json:"dosage"`
	Frequency    string     `json:"frequency"`
	Duration     string     `json:"duration"`
	Instructions string     `json:"instructions"`
	Quantity     int        `json:"quantity"`
}

type ItemInput struct {
	MedicineID   *uuid.UUID `json:"medicine_id"`
	MedicineName string     `json:"medicine_name"`
	Dosage       string     `json:"dosage"`
	Frequency    string     `json:"frequency"`
	Duration     string     `json:"duration"`
	Instructions string     `json:"instructions"`
	Quantity     int        `json:"quantity"`
}

type CreateInput struct {
	PatientID     uuid.UUID     `json:"patient_id"`
	DoctorID      uuid.UUID     `json:"doctor_id"`
	AppointmentID *uuid.UUID    `json:"appointment_id"`
	Diagnosis     string        `json:"diagnosis"`
	Notes         string        `json:"notes"`
	FollowUpDate  schedule.Date `json:"follow_up_date"`
	Items         []ItemInput   `json:"items"`
}

type DetailsInput struct {
	Diagnosis    *string        `json:"diagnosis"`
	Notes        *string        `json:"notes"`
	FollowUpDate *schedule.Date `json:"follow_up_date"`
}

type ListFilter struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Status    Status
	Page      db.Page
}
