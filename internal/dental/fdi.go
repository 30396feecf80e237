package dental

import "sort"

// ValidTooth reports whether n is an FDI two-digit tooth number. Quadrants 1-4
// hold permanent teeth 1-8, quadrants 5-8 primary teeth 1-5.
func ValidTooth(n int) bool {
	quadrant, tooth := n/10, n%10
	switch {
	case quadrant >= 1 && quadrant <= 4:
		return tooth >= 1 && tooth <= 8
	case quadrant >= 5 && quadrant <= 8:
		return tooth >= 1 && tooth <= 5
	}
	return false
}

// Primary reports whether n is a primary (deciduous) tooth.
func Primary(n int) bool {
	return ValidTooth(n) && n/10 >= 5
}

// normalizeTeeth validates, de-duplicates and sorts a tooth list.
func normalizeTeeth(teeth []int) ([]int, error) {
	if len(teeth) == 0 {
		return nil, ErrTeethRequired
	}
	seen := make(map[int]bool, len(teeth))
	out := make([]int, 0, len(teeth))
	for _, n := range teeth {
		if !ValidTooth(n) {
			return nil, invalidTooth(n)
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}
