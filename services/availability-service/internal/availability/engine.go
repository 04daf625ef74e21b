package availability

import (
	"fmt"
	"slices"
	"time"

	"cloud.google.com/go/civil"
)

// MaxDurationMinutes caps a single appointment at one day.
const MaxDurationMinutes = minutesPerDay

// professionalDayOffsets are the professional calendar days, relative to the
// client's date, that can contribute slots. Zone offsets stay within ±14h.
var professionalDayOffsets = [...]int{-1, 0, 1}

// SlotQuery is everything needed to compute one client day's slots.
type SlotQuery struct {
	Schedule           ParsedWorkingHours
	ClientDate         civil.Date
	ClientLocation     *time.Location
	DurationMinutes    int
	GranularityMinutes int
	// Appointments must already exclude cancelled bookings.
	Appointments []Interval
	// NotBefore, when set, drops slots that start earlier.
	NotBefore time.Time
}

func (q SlotQuery) Validate() error {
	if q.DurationMinutes <= 0 || q.DurationMinutes > MaxDurationMinutes {
		return fmt.Errorf("%w: %d minutes (must be 1..%d)", ErrInvalidDuration, q.DurationMinutes, MaxDurationMinutes)
	}
	if q.GranularityMinutes <= 0 {
		return fmt.Errorf("%w: %d minutes", ErrInvalidGranularity, q.GranularityMinutes)
	}
	if !q.ClientDate.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidDate, q.ClientDate)
	}
	if q.ClientLocation == nil {
		return fmt.Errorf("%w: client timezone is required", ErrInvalidTimezone)
	}
	return nil
}

// ComputeSlots returns the conflict-free candidates on the client's date,
// ordered by start instant. Each instant appears once.
func ComputeSlots(q SlotQuery) ([]CandidateSlot, error) {
	if q.GranularityMinutes == 0 {
		q.GranularityMinutes = DefaultGranularityMinutes
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	profLoc := q.Schedule.Location
	if profLoc == nil {
		profLoc = time.UTC
	}

	var perOffset [len(professionalDayOffsets)][]CandidateSlot
	for i, offset := range professionalDayOffsets {
		wd := weekdayOfDate(q.ClientDate.AddDays(offset))
		for _, entry := range q.Schedule.EnabledEntries(wd) {
			generated := GenerateCandidateSlots(entry, profLoc, q.ClientLocation, q.ClientDate, offset, q.DurationMinutes, q.GranularityMinutes)
			perOffset[i] = append(perOffset[i], FilterConflicts(generated, q.Appointments)...)
		}
	}

	all := slices.Concat(perOffset[:]...)
	if !q.NotBefore.IsZero() {
		all = slices.DeleteFunc(all, func(s CandidateSlot) bool { return s.StartUTC.Before(q.NotBefore) })
	}
	slices.SortStableFunc(all, func(a, b CandidateSlot) int { return a.StartUTC.Compare(b.StartUTC) })
	all = slices.CompactFunc(all, func(a, b CandidateSlot) bool { return a.StartUTC.Equal(b.StartUTC) })
	if all == nil {
		all = []CandidateSlot{}
	}
	return all, nil
}

// ComputeTimeSlots returns the bookable client-local start times as "HH:MM",
// deduplicated and ascending by time of day.
func ComputeTimeSlots(q SlotQuery) ([]string, error) {
	slots, err := ComputeSlots(q)
	if err != nil {
		return nil, err
	}
	return FormatTimes(slots), nil
}

// FormatTimes renders slots as client-local "HH:MM" strings. Two instants
// that read the same on the client's clock, as in a repeated DST hour, yield
// one entry.
func FormatTimes(slots []CandidateSlot) []string {
	times := make([]TimeOfDay, 0, len(slots))
	for _, s := range slots {
		times = append(times, s.ClientLocalTime)
	}
	slices.Sort(times)
	times = slices.Compact(times)

	out := make([]string, 0, len(times))
	for _, t := range times {
		out = append(out, t.String())
	}
	return out
}

// FindSlot returns the computed slot that starts exactly at start.
func FindSlot(slots []CandidateSlot, start time.Time) (CandidateSlot, bool) {
	for _, s := range slots {
		if s.StartUTC.Equal(start) {
			return s, true
		}
	}
	return CandidateSlot{}, false
}
