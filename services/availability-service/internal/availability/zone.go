package availability

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// LoadLocation resolves an IANA zone id. An empty id means UTC.
func LoadLocation(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, tz)
	}
	return loc, nil
}

// ParseDate parses a "YYYY-MM-DD" calendar date.
func ParseDate(s string) (civil.Date, error) {
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil || !d.IsValid() {
		return civil.Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// instant converts a wall-clock time on date in loc to an absolute time using
// the offset in effect on that date. "24:00" maps to the next midnight.
// ok is false when the wall-clock time does not exist, as inside a
// spring-forward gap.
func instant(date civil.Date, t TimeOfDay, loc *time.Location) (at time.Time, ok bool) {
	if t == minutesPerDay {
		next := date.AddDays(1)
		at = time.Date(next.Year, next.Month, next.Day, 0, 0, 0, 0, loc)
		return at, at.Hour() == 0 && at.Minute() == 0 && civil.DateOf(at) == next
	}
	at = time.Date(date.Year, date.Month, date.Day, t.Hour(), t.Minute(), 0, 0, loc)
	return at, at.Hour() == t.Hour() && at.Minute() == t.Minute() && civil.DateOf(at) == date
}

// clockOf returns the local date and time of day of at in loc.
func clockOf(at time.Time, loc *time.Location) (civil.Date, TimeOfDay) {
	local := at.In(loc)
	return civil.DateOf(local), TimeOfDay(local.Hour()*60 + local.Minute())
}

// DayBounds returns the instants at which date starts and ends in loc.
func DayBounds(date civil.Date, loc *time.Location) Interval {
	next := date.AddDays(1)
	return Interval{
		Start: time.Date(date.Year, date.Month, date.Day, 0, 0, 0, 0, loc).UTC(),
		End:   time.Date(next.Year, next.Month, next.Day, 0, 0, 0, 0, loc).UTC(),
	}
}
