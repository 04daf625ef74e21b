package scheduling

import "time"

// Topics published through the outbox.
const (
	EventWorkingHoursUpdated  = "professional.working_hours.updated.v1"
	EventAppointmentBooked    = "booking.appointment.booked.v1"
	EventAppointmentCancelled = "booking.appointment.cancelled.v1"
)

type WorkingHoursUpdated struct {
	ProfessionalID string    `json:"professional_id"`
	Timezone       string    `json:"timezone"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type AppointmentEvent struct {
	AppointmentID  string    `json:"appointment_id"`
	ProfessionalID string    `json:"professional_id"`
	ClientID       string    `json:"client_id"`
	ServiceID      string    `json:"service_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	ClientTimezone string    `json:"client_timezone"`
	Status         string    `json:"status"`
	Reason         string    `json:"reason,omitempty"`
}
