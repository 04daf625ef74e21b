package availability

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

type Weekday string

const (
	Sunday    Weekday = "sunday"
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
)

// Weekdays lists every day in canonical order, aligned with time.Weekday.
var Weekdays = [7]Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

func WeekdayOf(d time.Weekday) Weekday {
	return Weekdays[d]
}

// ParseWeekday matches names case-insensitively, ignoring surrounding space.
func ParseWeekday(s string) (Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, d := range Weekdays {
		if string(d) == s {
			return d, true
		}
	}
	return "", false
}

// Index returns the position in Weekdays, or -1 for an unknown name.
func (w Weekday) Index() int {
	for i, d := range Weekdays {
		if d == w {
			return i
		}
	}
	return -1
}

func weekdayOfDate(d civil.Date) Weekday {
	return WeekdayOf(d.In(time.UTC).Weekday())
}
