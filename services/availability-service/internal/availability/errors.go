package availability

import "errors"

// Input validation failures. Callers map these to 400 responses.
var (
	ErrInvalidDuration    = errors.New("invalid duration")
	ErrInvalidGranularity = errors.New("invalid granularity")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidTimezone    = errors.New("invalid timezone")
	ErrInvalidTimeOfDay   = errors.New("invalid time of day")
	ErrInvalidSchedule    = errors.New("invalid working hours")
)

// IsInvalidInput reports whether err was caused by caller-supplied input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrInvalidGranularity) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidTimezone) ||
		errors.Is(err, ErrInvalidTimeOfDay) ||
		errors.Is(err, ErrInvalidSchedule)
}
