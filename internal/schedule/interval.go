package schedule

// Interval is a half-open range [Start, End) on a single date.
type Interval struct {
	Start Clock
	End   Clock
}

// Span returns the interval that starts at start and lasts minutes.
func Span(start Clock, minutes int) Interval {
	return Interval{Start: start, End: start.Add(minutes)}
}

// Overlaps reports whether a and b share any instant. Touching endpoints do not overlap.
func (a Interval) Overlaps(b Interval) bool {
	return a.Start < b.End && a.End > b.Start
}

// Within reports whether a lies entirely inside b.
func (a Interval) Within(b Interval) bool {
	return a.Start >= b.Start && a.End <= b.End
}

func (a Interval) Minutes() int { return int(a.End - a.Start) }

// OverlapsAny reports whether iv overlaps any of busy.
func OverlapsAny(iv Interval, busy []Interval) bool {
	for _, b := range busy {
		if iv.Overlaps(b) {
			return true
		}
	}
	return false
}
