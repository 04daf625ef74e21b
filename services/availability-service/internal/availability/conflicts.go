package availability

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/proconnect/marketplace/services/availability-service/internal/model"
)

// AppointmentWindowPadding widens the appointment fetch around the client's
// day. Slots never start outside that day and durations are capped at
// MaxDurationMinutes, so a day of padding on each side catches every
// appointment that can overlap a candidate.
const AppointmentWindowPadding = 24 * time.Hour

// AppointmentWindow returns the span to fetch appointments for when computing
// slots on clientDate.
func AppointmentWindow(clientDate civil.Date, clientLoc *time.Location) Interval {
	day := DayBounds(clientDate, clientLoc)
	return Interval{
		Start: day.Start.Add(-AppointmentWindowPadding),
		End:   day.End.Add(AppointmentWindowPadding),
	}
}

// BlockingIntervals converts stored appointments to intervals, dropping
// cancelled ones and rows with an empty range.
func BlockingIntervals(appts []model.Appointment) []Interval {
	out := make([]Interval, 0, len(appts))
	for _, a := range appts {
		if a.Status == model.StatusCancelled || !a.EndTime.After(a.StartTime) {
			continue
		}
		out = append(out, Interval{Start: a.StartTime.UTC(), End: a.EndTime.UTC()})
	}
	return out
}

// FilterConflicts keeps the slots that overlap none of appointments.
func FilterConflicts(slots []CandidateSlot, appointments []Interval) []CandidateSlot {
	out := make([]CandidateSlot, 0, len(slots))
	for _, s := range slots {
		if !HasOverlap(s.Interval(), appointments) {
			out = append(out, s)
		}
	}
	return out
}
