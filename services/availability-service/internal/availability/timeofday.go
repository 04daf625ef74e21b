package availability

import (
	"fmt"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// TimeOfDay is a wall-clock time as minutes since local midnight.
// The value minutesPerDay ("24:00") marks the end of the day.
type TimeOfDay int

// ParseTimeOfDay accepts "HH:MM" and "HH:MM:SS". Seconds must be zero;
// "24:00" is the only value past 23:59.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	vals := make([]int, len(parts))
	for i, p := range parts {
		if len(p) != 2 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
		}
		vals[i] = n
	}
	h, m := vals[0], vals[1]
	if len(vals) == 3 && vals[2] != 0 {
		return 0, fmt.Errorf("%w: %q has non-zero seconds", ErrInvalidTimeOfDay, s)
	}
	if h == 24 && m == 0 {
		return TimeOfDay(minutesPerDay), nil
	}
	if h > 23 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return TimeOfDay(h*60 + m), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}
