package schedule

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Window is one working period within a day.
type Window struct {
	Start Clock `json:"start_time"`
	End   Clock `json:"end_time"`
}

func (w Window) Interval() Interval { return Interval{Start: w.Start, End: w.End} }

// DefaultWorkingHours applies to doctors that have no schedule at all.
var DefaultWorkingHours = Window{Start: At(9, 0), End: At(17, 0)}

// WeeklySchedule maps a weekday to its ordered working windows.
// Serialized with lowercase weekday names: {"monday": [{"start_time": "09:00", ...}]}.
type WeeklySchedule map[time.Weekday][]Window

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func ParseWeekday(s string) (time.Weekday, error) {
	wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", s)
	}
	return wd, nil
}

func (s WeeklySchedule) MarshalJSON() ([]byte, error) {
	out := make(map[string][]Window, len(s))
	for wd, windows := range s {
		out[strings.ToLower(wd.String())] = windows
	}
	return json.Marshal(out)
}

func (s *WeeklySchedule) UnmarshalJSON(b []byte) error {
	var raw map[string][]Window
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed := make(WeeklySchedule, len(raw))
	for name, windows := range raw {
		wd, err := ParseWeekday(name)
		if err != nil {
			return err
		}
		parsed[wd] = windows
	}
	*s = parsed
	return nil
}

// Normalize sorts every day's windows and rejects empty or overlapping windows.
func (s WeeklySchedule) Normalize() error {
	for wd, windows := range s {
		sort.Slice(windows, func(i, j int) bool { return windows[i].Start < windows[j].Start })
		for i, w := range windows {
			if w.Start >= w.End {
				return fmt.Errorf("%s window %s-%s: start must be before end",
					strings.ToLower(wd.String()), w.Start, w.End)
			}
			if w.End > minutesPerDay {
				return fmt.Errorf("%s window %s-%s ends after midnight",
					strings.ToLower(wd.String()), w.Start, w.End)
			}
			if i > 0 && windows[i-1].Interval().Overlaps(w.Interval()) {
				return fmt.Errorf("%s windows %s-%s and %s-%s overlap",
					strings.ToLower(wd.String()), windows[i-1].Start, windows[i-1].End, w.Start, w.End)
			}
		}
		s[wd] = windows
	}
	return nil
}

// WorkingWindows resolves the windows that apply on d. An empty schedule means
// the doctor never configured one and gets DefaultWorkingHours every day; a
// configured schedule with no entry for d's weekday means a day off.
func WorkingWindows(s WeeklySchedule, d Date) []Window {
	if len(s) == 0 {
		return []Window{DefaultWorkingHours}
	}
	windows := s[d.Weekday()]
	out := make([]Window, len(windows))
	copy(out, windows)
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// FitsWorkingHours reports whether iv lies inside a single window.
func FitsWorkingHours(windows []Window, iv Interval) bool {
	for _, w := range windows {
		if iv.Within(w.Interval()) {
			return true
		}
	}
	return false
}
