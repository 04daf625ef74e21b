package availability

import (
	"time"

	"cloud.google.com/go/civil"
)

// AvailableWeekdays returns the client-side weekdays on which at least part
// of an open working day falls. Each open day is placed on its date in the
// week starting at referenceDate, so the zone offsets used are the ones in
// effect that week. Both the shift start and its last minute are projected
// into clientLoc, since one shift can straddle two client days.
//
// The result holds no duplicates and is in canonical order.
func AvailableWeekdays(parsed ParsedWorkingHours, clientLoc *time.Location, referenceDate civil.Date) []Weekday {
	profLoc := parsed.Location
	if profLoc == nil {
		profLoc = time.UTC
	}

	var seen [7]bool
	refIndex := weekdayOfDate(referenceDate).Index()
	for _, e := range parsed.Entries {
		if !e.Enabled || e.End <= e.Start {
			continue
		}
		date := referenceDate.AddDays((e.Day.Index() - refIndex + 7) % 7)
		start, _ := instant(date, e.Start, profLoc)
		end, _ := instant(date, e.End, profLoc)
		for _, at := range []time.Time{start, end.Add(-time.Minute)} {
			seen[at.In(clientLoc).Weekday()] = true
		}
	}

	out := make([]Weekday, 0, len(Weekdays))
	for i, ok := range seen {
		if ok {
			out = append(out, Weekdays[i])
		}
	}
	return out
}
