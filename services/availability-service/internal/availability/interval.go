package availability

import "time"

// Interval is a half-open span [Start, End) of UTC instants.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether i and o share any instant. Intervals that only
// touch (one ends exactly when the other starts) do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// HasOverlap reports whether candidate overlaps any of the appointments.
func HasOverlap(candidate Interval, appointments []Interval) bool {
	for _, a := range appointments {
		if candidate.Overlaps(a) {
			return true
		}
	}
	return false
}
