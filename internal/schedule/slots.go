package schedule

// Slot is one fixed-length candidate inside a working window.
type Slot struct {
	Start     Clock `json:"start_time"`
	End       Clock `json:"end_time"`
	Available bool  `json:"is_available"`
}

// GenerateSlots steps through each window by step minutes, emitting a slot while
// it still ends inside the window, and marks slots overlapping busy as unavailable.
// Windows are walked in the order given.
func GenerateSlots(windows []Window, step int, busy []Interval) []Slot {
	if step <= 0 {
		return nil
	}
	var slots []Slot
	for _, w := range windows {
		for start := w.Start; start.Add(step) <= w.End; start = start.Add(step) {
			iv := Span(start, step)
			slots = append(slots, Slot{
				Start:     iv.Start,
				End:       iv.End,
				Available: !OverlapsAny(iv, busy),
			})
		}
	}
	return slots
}

// FreeSlots returns at most limit available slots in order. limit <= 0 means no limit.
func FreeSlots(slots []Slot, limit int) []Slot {
	var free []Slot
	for _, s := range slots {
		if !s.Available {
			continue
		}
		free = append(free, s)
		if limit > 0 && len(free) == limit {
			break
		}
	}
	return free
}
