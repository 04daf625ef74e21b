package availability

import (
	"time"

	"cloud.google.com/go/civil"
)

// DefaultGranularityMinutes is the spacing between candidate start times.
const DefaultGranularityMinutes = 30

// CandidateSlot is a possible booking start, seen from both sides.
type CandidateSlot struct {
	StartUTC              time.Time
	EndUTC                time.Time
	ProfessionalLocalTime TimeOfDay
	ClientLocalDate       civil.Date
	ClientLocalTime       TimeOfDay
}

func (s CandidateSlot) Interval() Interval {
	return Interval{Start: s.StartUTC, End: s.EndUTC}
}

// GenerateCandidateSlots enumerates start times of a working day that falls
// offsetDays from clientDate on the professional's calendar. Starts run from
// day.Start to day.End-duration inclusive, every granularity minutes, and are
// resolved with the professional zone's offset for that date. Only slots whose
// start lands on clientDate in clientLoc are returned. Nonexistent wall-clock
// times are skipped, and a slot may not run past the instant the shift ends.
func GenerateCandidateSlots(day WorkingHoursEntry, profLoc, clientLoc *time.Location, clientDate civil.Date, offsetDays, durationMinutes, granularityMinutes int) []CandidateSlot {
	if durationMinutes <= 0 || granularityMinutes <= 0 || day.End <= day.Start {
		return nil
	}
	last := int(day.End) - durationMinutes
	if last < int(day.Start) {
		return nil
	}

	profDate := clientDate.AddDays(offsetDays)
	shiftEnd, _ := instant(profDate, day.End, profLoc)
	duration := time.Duration(durationMinutes) * time.Minute

	var slots []CandidateSlot
	for m := int(day.Start); m <= last; m += granularityMinutes {
		local := TimeOfDay(m)
		start, ok := instant(profDate, local, profLoc)
		if !ok {
			continue
		}
		end := start.Add(duration)
		if end.After(shiftEnd) {
			continue
		}
		date, clock := clockOf(start, clientLoc)
		if date != clientDate {
			continue
		}
		slots = append(slots, CandidateSlot{
			StartUTC:              start.UTC(),
			EndUTC:                end.UTC(),
			ProfessionalLocalTime: local,
			ClientLocalDate:       date,
			ClientLocalTime:       clock,
		})
	}
	return slots
}
