package model

import "time"

// Booking statuses stored on appointments.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

type Appointment struct {
	ID             string
	ProfessionalID string
	ClientID       string
	ServiceID      string
	StartTime      time.Time
	EndTime        time.Time
	Status         string
	ClientTimezone string
	CreatedAt      time.Time
}

// ProfessionalSchedule is the stored weekly schedule of one professional.
// WorkingHours is the raw JSON blob; Timezone is empty when unset.
type ProfessionalSchedule struct {
	ProfessionalID string
	WorkingHours   []byte
	Timezone       string
	UpdatedAt      time.Time
}
