package dental

import (
	"time"

	"github.com/google/uuid"
)

type Surface string

const (
	SurfaceMesial   Surface = "mesial"
	SurfaceDistal   Surface = "distal"
	SurfaceOcclusal Surface = "occlusal"
	SurfaceIncisal  Surface = "incisal"
	SurfaceBuccal   Surface = "buccal"
	SurfaceLingual  Surface = "lingual"
	SurfacePalatal  Surface = "palatal"
	SurfaceLabial   Surface = "labial"
)

func (s Surface) Valid() bool {
	switch s {
	case SurfaceMesial, SurfaceDistal, SurfaceOcclusal, SurfaceIncisal,
		SurfaceBuccal, SurfaceLingual, SurfacePalatal, SurfaceLabial:
		return true
	}
	return false
}

type Condition string

const (
	ConditionHealthy   Condition = "healthy"
	ConditionCaries    Condition = "caries"
	ConditionFilled    Condition = "filled"
	ConditionMissing   Condition = "missing"
	ConditionCrown     Condition = "crown"
	ConditionRootCanal Condition = "root_canal"
	ConditionFractured Condition = "fractured"
	ConditionImpacted  Condition = "impacted"
	ConditionMobility  Condition = "mobility"
	ConditionOther     Condition = "other"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionHealthy, ConditionCaries, ConditionFilled, ConditionMissing, ConditionCrown,
		ConditionRootCanal, ConditionFractured, ConditionImpacted, ConditionMobility, ConditionOther:
		return true
	}
	return false
}

type ProcedureStatus string

const (
	ProcedurePlanned    ProcedureStatus = "planned"
	ProcedureInProgress ProcedureStatus = "in_progress"
	ProcedureCompleted  ProcedureStatus = "completed"
	ProcedureCancelled  ProcedureStatus = "cancelled"
)

var procedureTransitions = map[ProcedureStatus][]ProcedureStatus{
	ProcedurePlanned:    {ProcedureInProgress, ProcedureCancelled},
	ProcedureInProgress: {ProcedureCompleted, ProcedureCancelled},
}

func (s ProcedureStatus) Valid() bool {
	switch s {
	case ProcedurePlanned, ProcedureInProgress, ProcedureCompleted, ProcedureCancelled:
		return true
	}
	return false
}

func CanTransition(from, to ProcedureStatus) bool {
	for _, next := range procedureTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Observation struct {
	ID            uuid.UUID  `json:"id"`
	PatientID     uuid.UUID  `json:"patient_id"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	ToothNumber   int        `json:"tooth_number"`
	Surfaces      []Surface  `json:"surfaces"`
	Condition     Condition  `json:"condition"`
	Notes         string     `json:"notes"`
	ObservedAt    time.Time  `json:"observed_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

type ObservationInput struct {
	AppointmentID *uuid.UUID `json:"appointment_id"`
	ToothNumber   int        `json:"tooth_number"`
	Surfaces      []Surface  `json:"surfaces"`
	Condition     Condition  `json:"condition"`
	Notes         string     `json:"notes"`
	ObservedAt    *time.Time `json:"observed_at"`
}

type Procedure struct {
	ID            uuid.UUID       `json:"id"`
	PatientID     uuid.UUID       `json:"patient_id"`
	AppointmentID *uuid.UUID      `json:"appointment_id,omitempty"`
	DoctorID      uuid.UUID       `json:"doctor_id"`
	ToothNumbers  []int           `json:"tooth_numbers"`
	ProcedureCode string          `json:"procedure_code"`
	Description   string          `json:"description"`
	Status        ProcedureStatus `json:"status"`
	Cost          float64         `json:"cost"`
	PerformedAt   *time.Time      `json:"performed_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type ProcedureInput struct {
	AppointmentID *uuid.UUID `json:"appointment_id"`
	DoctorID      uuid.UUID  `json:"doctor_id"`
	ToothNumbers  []int      `json:"tooth_numbers"`
	ProcedureCode string     `json:"procedure_code"`
	Description   string     `json:"description"`
	Cost          float64    `json:"cost"`
}

// Tooth is one row of a patient's chart: the most recent observation and every
// procedure touching the tooth, oldest first.
type Tooth struct {
	ToothNumber int          `json:"tooth_number"`
	Primary     bool         `json:"primary"`
	Latest      *Observation `json:"latest_observation,omitempty"`
	Procedures  []Procedure  `json:"procedures"`
}

type Chart struct {
	PatientID uuid.UUID `json:"patient_id"`
	Teeth     []Tooth   `json:"teeth"`
}
