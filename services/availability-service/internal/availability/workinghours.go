package availability

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RawWorkingDay is one day of the persisted weekly schedule as the profile
// editor stores it. Times are "HH:MM" strings and may be null.
type RawWorkingDay struct {
	Enabled   bool    `json:"enabled"`
	StartTime *string `json:"startTime"`
	EndTime   *string `json:"endTime"`
}

// PersistedWorkingHours maps weekday names to their stored configuration.
type PersistedWorkingHours map[string]RawWorkingDay

// DecodeWorkingHours decodes the stored JSON blob. Empty input and JSON null
// decode to an empty schedule.
func DecodeWorkingHours(b []byte) (PersistedWorkingHours, error) {
	if len(b) == 0 {
		return PersistedWorkingHours{}, nil
	}
	var raw PersistedWorkingHours
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode working hours: %w", err)
	}
	if raw == nil {
		raw = PersistedWorkingHours{}
	}
	return raw, nil
}

type WorkingHoursEntry struct {
	Day     Weekday
	Enabled bool
	Start   TimeOfDay
	End     TimeOfDay
}

// ParsedWorkingHours is a weekly schedule bound to the zone its times are in.
type ParsedWorkingHours struct {
	Entries  []WorkingHoursEntry
	Timezone string
	Location *time.Location
}

// ParseWorkingHours normalizes raw into one entry per weekday in canonical
// order. Days that are missing, have an unusable time or an empty range are
// closed. The only error is an unknown timezone.
func ParseWorkingHours(raw PersistedWorkingHours, timezone string) (ParsedWorkingHours, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return ParsedWorkingHours{}, err
	}

	byDay := make(map[Weekday]RawWorkingDay, len(raw))
	for key, day := range raw {
		if wd, ok := ParseWeekday(key); ok {
			byDay[wd] = day
		}
	}

	entries := make([]WorkingHoursEntry, 0, len(Weekdays))
	for _, wd := range Weekdays {
		entry := WorkingHoursEntry{Day: wd}
		if day, ok := byDay[wd]; ok && day.Enabled {
			if start, end, err := dayRange(day); err == nil {
				entry.Enabled, entry.Start, entry.End = true, start, end
			}
		}
		entries = append(entries, entry)
	}
	return ParsedWorkingHours{Entries: entries, Timezone: loc.String(), Location: loc}, nil
}

// ValidateWorkingHours is the strict check applied when a professional saves
// a schedule: every key must be a weekday and every enabled day well formed.
func ValidateWorkingHours(raw PersistedWorkingHours, timezone string) error {
	if _, err := LoadLocation(timezone); err != nil {
		return err
	}
	var errs []error
	for key, day := range raw {
		if _, ok := ParseWeekday(key); !ok {
			errs = append(errs, fmt.Errorf("%w: unknown day %q", ErrInvalidSchedule, key))
			continue
		}
		if !day.Enabled {
			continue
		}
		if _, _, err := dayRange(day); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func dayRange(day RawWorkingDay) (TimeOfDay, TimeOfDay, error) {
	if day.StartTime == nil || day.EndTime == nil {
		return 0, 0, fmt.Errorf("%w: enabled day needs startTime and endTime", ErrInvalidSchedule)
	}
	start, err := ParseTimeOfDay(*day.StartTime)
	if err != nil {
		return 0, 0, err
	}
	end, err := ParseTimeOfDay(*day.EndTime)
	if err != nil {
		return 0, 0, err
	}
	if start >= end {
		return 0, 0, fmt.Errorf("%w: startTime %s is not before endTime %s", ErrInvalidSchedule, start, end)
	}
	return start, end, nil
}

// EnabledEntries returns the open entries for wd. More than one entry per day is allowed.
func (p ParsedWorkingHours) EnabledEntries(wd Weekday) []WorkingHoursEntry {
	var out []WorkingHoursEntry
	for _, e := range p.Entries {
		if e.Day == wd && e.Enabled {
			out = append(out, e)
		}
	}
	return out
}

// Closed reports whether no day is open.
func (p ParsedWorkingHours) Closed() bool {
	for _, e := range p.Entries {
		if e.Enabled {
			return false
		}
	}
	return true
}

// Persisted renders p back into the stored blob shape, with every weekday present.
func (p ParsedWorkingHours) Persisted() PersistedWorkingHours {
	out := make(PersistedWorkingHours, len(Weekdays))
	for _, wd := range Weekdays {
		out[string(wd)] = RawWorkingDay{}
	}
	for _, e := range p.Entries {
		if !e.Enabled {
			continue
		}
		start, end := e.Start.String(), e.End.String()
		out[string(e.Day)] = RawWorkingDay{Enabled: true, StartTime: &start, EndTime: &end}
	}
	return out
}
