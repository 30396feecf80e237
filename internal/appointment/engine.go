package appointment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hackgods/clinicdesk/internal/schedule"
)

const (
	DefaultSlotMinutes = 30

	sameDaySuggestions   = 3
	maxSuggestions       = 5
	lookaheadDays        = 7
	perDayLookaheadSlots = 2
)

// Bookings lists a doctor's appointments on one date in the given statuses,
// ordered by start time. excludeID, when not uuid.Nil, is left out.
type Bookings interface {
	AppointmentsFor(ctx context.Context, doctorID uuid.UUID, date schedule.Date, statuses []Status, excludeID uuid.UUID) ([]Appointment, error)
}

// WorkingHours resolves the windows a doctor works on a date.
type WorkingHours interface {
	WorkingWindows(ctx context.Context, doctorID uuid.UUID, date schedule.Date) ([]schedule.Window, error)
}

// Engine answers conflict and availability questions. It never writes, and it
// does not judge whether a date lies in the past.
type Engine struct {
	bookings Bookings
	hours    WorkingHours
}

func NewEngine(bookings Bookings, hours WorkingHours) *Engine {
	return &Engine{bookings: bookings, hours: hours}
}

// Conflicts returns the active appointments overlapping [start, start+duration).
// Touching intervals do not overlap.
func (e *Engine) Conflicts(ctx context.Context, doctorID uuid.UUID, date schedule.Date, start schedule.Clock, durationMinutes int, excludeID uuid.UUID) ([]Appointment, error) {
	existing, err := e.bookings.AppointmentsFor(ctx, doctorID, date, ActiveStatuses, excludeID)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	candidate := schedule.Span(start, durationMinutes)
	var out []Appointment
	for _, a := range existing {
		if candidate.Overlaps(a.Interval()) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (e *Engine) HasConflict(ctx context.Context, doctorID uuid.UUID, date schedule.Date, start schedule.Clock, durationMinutes int, excludeID uuid.UUID) (bool, error) {
	conflicts, err := e.Conflicts(ctx, doctorID, date, start, durationMinutes, excludeID)
	if err != nil {
		return false, err
	}
	return len(conflicts) > 0, nil
}

// AvailableSlots lays fixed-length slots over the doctor's working windows on
// date and flags the ones that overlap an active appointment.
func (e *Engine) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date schedule.Date, slotMinutes int) ([]schedule.Slot, error) {
	if slotMinutes <= 0 {
		slotMinutes = DefaultSlotMinutes
	}
	windows, err := e.hours.WorkingWindows(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return []schedule.Slot{}, nil
	}

	existing, err := e.bookings.AppointmentsFor(ctx, doctorID, date, ActiveStatuses, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	busy := make([]schedule.Interval, 0, len(existing))
	for _, a := range existing {
		busy = append(busy, a.Interval())
	}

	slots := schedule.GenerateSlots(windows, slotMinutes, busy)
	if slots == nil {
		slots = []schedule.Slot{}
	}
	return slots, nil
}

// SuggestedTimes offers up to three free starts on date, then tops up from the
// following days, two per day, until five are found or the lookahead runs out.
// The slot step equals durationMinutes.
func (e *Engine) SuggestedTimes(ctx context.Context, doctorID uuid.UUID, date schedule.Date, durationMinutes int) ([]Suggestion, error) {
	out := make([]Suggestion, 0, maxSuggestions)

	take := func(day schedule.Date, limit int) error {
		slots, err := e.AvailableSlots(ctx, doctorID, day, durationMinutes)
		if err != nil {
			return err
		}
		for _, s := range schedule.FreeSlots(slots, limit) {
			out = append(out, Suggestion{Date: day, Time: s.Start, DurationMinutes: durationMinutes})
		}
		return nil
	}

	if err := take(date, sameDaySuggestions); err != nil {
		return nil, err
	}
	if len(out) >= sameDaySuggestions {
		return out, nil
	}

	for i := 1; i <= lookaheadDays && len(out) < maxSuggestions; i++ {
		limit := min(perDayLookaheadSlots, maxSuggestions-len(out))
		if err := take(date.AddDays(i), limit); err != nil {
			return nil, err
		}
	}
	return out, nil
}
