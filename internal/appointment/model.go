package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinicdesk/internal/db"
	"github.com/hackgods/clinicdesk/internal/schedule"
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

// ActiveStatuses occupy the doctor's time and take part in conflict checks.
var ActiveStatuses = []Status{StatusScheduled, StatusConfirmed, StatusInProgress}

var transitions = map[Status][]Status{
	StatusScheduled:  {StatusConfirmed, StatusCancelled, StatusNoShow},
	StatusConfirmed:  {StatusInProgress, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

func (s Status) Active() bool {
	return s == StatusScheduled || s == StatusConfirmed || s == StatusInProgress
}

func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// Reschedulable reports whether an appointment in s may move to another time.
func (s Status) Reschedulable() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Appointment struct {
	ID                 uuid.UUID      `json:"id"`
	Number             string         `json:"appointment_number"`
	PatientID          uuid.UUID      `json:"patient_id"`
	PatientMobile      string         `json:"patient_mobile"`
	PatientFirstName   string         `json:"patient_first_name"`
	DoctorID           uuid.UUID      `json:"doctor_id"`
	Date               schedule.Date  `json:"appointment_date"`
	Time               schedule.Clock `json:"appointment_time"`
	DurationMinutes    int            `json:"duration_minutes"`
	Status             Status         `json:"status"`
	OfficeID           string         `json:"office_id"`
	Reason             string         `json:"reason"`
	Notes              string         `json:"notes"`
	CancellationReason string         `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// Interval is the half-open span [Time, Time+DurationMinutes) the appointment occupies.
func (a *Appointment) Interval() schedule.Interval {
	return schedule.Span(a.Time, a.DurationMinutes)
}

type CreateInput struct {
	PatientID        uuid.UUID      `json:"patient_id"`
	PatientMobile    string         `json:"patient_mobile"`
	PatientFirstName string         `json:"patient_first_name"`
	DoctorID         uuid.UUID      `json:"doctor_id"`
	Date             schedule.Date  `json:"appointment_date"`
	Time             schedule.Clock `json:"appointment_time"`
	DurationMinutes  int            `json:"duration_minutes"`
	OfficeID         string         `json:"office_id"`
	Reason           string         `json:"reason"`
	Notes            string         `json:"notes"`
}

type RescheduleInput struct {
	Date            schedule.Date  `json:"appointment_date"`
	Time            schedule.Clock `json:"appointment_time"`
	DurationMinutes int            `json:"duration_minutes"` // 0 keeps the current duration
	OfficeID        *string        `json:"office_id"`
}

type DetailsInput struct {
	Reason *string `json:"reason"`
	Notes  *string `json:"notes"`
}

type ConflictCheck struct {
	DoctorID        uuid.UUID      `json:"doctor_id"`
	Date            schedule.Date  `json:"appointment_date"`
	Time            schedule.Clock `json:"appointment_time"`
	DurationMinutes int            `json:"duration_minutes"`
	ExcludeID       uuid.UUID      `json:"exclude_appointment_id"`
}

type ConflictResult struct {
	HasConflict bool          `json:"has_conflict"`
	Conflicts   []Appointment `json:"conflicts"`
}

// Suggestion is a free start time offered when the requested one is taken.
type Suggestion struct {
	Date            schedule.Date  `json:"date"`
	Time            schedule.Clock `json:"time"`
	DurationMinutes int            `json:"duration_minutes"`
}

type ListFilter struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	DateFrom  schedule.Date
	DateTo    schedule.Date
	Status    Status
	Page      db.Page
}

// BulkResult reports the outcome for one appointment of a bulk transition.
type BulkResult struct {
	ID      uuid.UUID `json:"id"`
	OK      bool      `json:"ok"`
	Status  Status    `json:"status,omitempty"`
	Error   string    `json:"error,omitempty"`
	Details string    `json:"details,omitempty"`
}

// DailyCount is one (date, doctor, status) bucket of the summary report.
type DailyCount struct {
	Date     schedule.Date
	DoctorID uuid.UUID
	Status   Status
	Count    int
}

type DailySummary struct {
	Date     schedule.Date  `json:"date"`
	DoctorID uuid.UUID      `json:"doctor_id"`
	Counts   map[Status]int `json:"counts"`
	Total    int            `json:"total"`
}
