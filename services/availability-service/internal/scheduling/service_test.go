package scheduling

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/proconnect/marketplace/services/availability-service/internal/availability"
	"github.com/proconnect/marketplace/services/availability-service/internal/model"
)

const mondayNineToFive = `{"monday":{"enabled":true,"startTime":"09:00","endTime":"17:00"}}`

type fakeSchedules struct {
	mu       sync.Mutex
	schedule model.ProfessionalSchedule
	err      error
	calls    int
}

func (f *fakeSchedules) FetchWorkingHours(_ context.Context, professionalID string) (model.ProfessionalSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return model.ProfessionalSchedule{}, f.err
	}
	s := f.schedule
	s.ProfessionalID = professionalID
	return s, nil
}

type fakeAppointments struct {
	mu         sync.Mutex
	appts      []model.Appointment
	err        error
	start, end time.Time
	calledWith string
}

func (f *fakeAppointments) FetchAppointmentsInWindow(_ context.Context, professionalID string, start, end time.Time) ([]model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calledWith, f.start, f.end = professionalID, start, end
	if f.err != nil {
		return nil, f.err
	}
	return f.appts, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(schedules ScheduleStore, appts AppointmentStore) *Service {
	return NewService(schedules, appts, Config{GranularityMinutes: 30}, discardLogger(), nil)
}

func TestGetAvailableTimeSlots(t *testing.T) {
	ny, _ := time.LoadLocation("America/New_York")
	schedules := &fakeSchedules{schedule: model.ProfessionalSchedule{WorkingHours: []byte(mondayNineToFive), Timezone: "America/New_York"}}
	appts := &fakeAppointments{appts: []model.Appointment{
		{StartTime: time.Date(2024, 3, 4, 9, 0, 0, 0, ny), EndTime: time.Date(2024, 3, 4, 10, 0, 0, 0, ny), Status: model.StatusConfirmed},
		{StartTime: time.Date(2024, 3, 4, 12, 0, 0, 0, ny), EndTime: time.Date(2024, 3, 4, 13, 0, 0, 0, ny), Status: model.StatusCancelled},
	}}
	svc := newTestService(schedules, appts)

	got, err := svc.GetAvailableTimeSlots(context.Background(), "pro-1", "2024-03-04", 60, "", "America/Los_Angeles")
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if len(got) != 13 || got[0] != "07:00" || got[len(got)-1] != "13:00" {
		t.Fatalf("unexpected slots %v", got)
	}
	if appts.calledWith != "pro-1" {
		t.Fatalf("appointments fetched for %q", appts.calledWith)
	}
	if want := time.Date(2024, 3, 3, 8, 0, 0, 0, time.UTC); !appts.start.Equal(want) {
		t.Fatalf("expected window start %s, got %s", want, appts.start)
	}
	if want := time.Date(2024, 3, 6, 8, 0, 0, 0, time.UTC); !appts.end.Equal(want) {
		t.Fatalf("expected window end %s, got %s", want, appts.end)
	}
}

func TestAppointmentFailureIsNotTreatedAsFree(t *testing.T) {
	schedules := &fakeSchedules{schedule: model.ProfessionalSchedule{WorkingHours: []byte(mondayNineToFive)}}
	appts := &fakeAppointments{err: errors.New("connection refused")}
	svc := newTestService(schedules, appts)

	got, err := svc.GetAvailableTimeSlots(context.Background(), "pro-1", "2024-03-04", 60, "", "UTC")
	if err == nil {
		t.Fatalf("expected error, got slots %v", got)
	}
	if got != nil {
		t.Fatalf("expected no slots on failure, got %v", got)
	}
}

func TestScheduleNotFound(t *testing.T) {
	svc := newTestService(&fakeSchedules{err: fmt.Errorf("fetch: %w", pgx.ErrNoRows)}, &fakeAppointments{})
	_, err := svc.GetAvailableTimeSlots(context.Background(), "ghost", "2024-03-04", 60, "", "UTC")
	if !errors.Is(err, ErrProfessionalNotFound) {
		t.Fatalf("expected ErrProfessionalNotFound, got %v", err)
	}
	_, err = svc.GetAvailableDates(context.Background(), "ghost", "", "UTC", "2024-03-04")
	if !errors.Is(err, ErrProfessionalNotFound) {
		t.Fatalf("expected ErrProfessionalNotFound, got %v", err)
	}
}

func TestInvalidInputFailsBeforeIO(t *testing.T) {
	schedules := &fakeSchedules{}
	svc := newTestService(schedules, &fakeAppointments{})
	ctx := context.Background()

	cases := []struct {
		date     string
		duration int
		clientTZ string
		want     error
	}{
		{"2024-03-04", 0, "UTC", availability.ErrInvalidDuration},
		{"2024-03-04", 60, "", availability.ErrInvalidTimezone},
		{"2024-03-04", 60, "Not/AZone", availability.ErrInvalidTimezone},
		{"03/04/2024", 60, "UTC", availability.ErrInvalidDate},
	}
	for _, tc := range cases {
		if _, err := svc.GetAvailableTimeSlots(ctx, "pro-1", tc.date, tc.duration, "", tc.clientTZ); !errors.Is(err, tc.want) {
			t.Fatalf("%+v: expected %v, got %v", tc, tc.want, err)
		}
	}
	if schedules.calls != 0 {
		t.Fatalf("expected no store reads, got %d", schedules.calls)
	}
}

func TestMalformedBlobIsClosed(t *testing.T) {
	schedules := &fakeSchedules{schedule: model.ProfessionalSchedule{WorkingHours: []byte(`{"monday":`), Timezone: "UTC"}}
	svc := newTestService(schedules, &fakeAppointments{})

	got, err := svc.GetAvailableTimeSlots(context.Background(), "pro-1", "2024-03-04", 30, "", "UTC")
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected closed schedule, got %v", got)
	}
}

func TestTimezonePrecedence(t *testing.T) {
	schedules := &fakeSchedules{schedule: model.ProfessionalSchedule{WorkingHours: []byte(mondayNineToFive), Timezone: "America/New_York"}}
	svc := newTestService(schedules, &fakeAppointments{})
	ctx := context.Background()

	stored, err := svc.GetAvailableTimeSlots(ctx, "pro-1", "2024-03-04", 60, "", "UTC")
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if stored[0] != "14:00" {
		t.Fatalf("expected stored New York zone to apply, got %v", stored)
	}

	explicit, err := svc.GetAvailableTimeSlots(ctx, "pro-1", "2024-03-04", 60, "Europe/London", "UTC")
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if explicit[0] != "09:00" {
		t.Fatalf("expected explicit London zone to win, got %v", explicit)
	}

	schedules.schedule.Timezone = ""
	fallback, err := svc.GetAvailableTimeSlots(ctx, "pro-1", "2024-03-04", 60, "", "UTC")
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if fallback[0] != "09:00" {
		t.Fatalf("expected UTC default, got %v", fallback)
	}
}

func TestExcludePastUsesServiceClock(t *testing.T) {
	schedules := &fakeSchedules{schedule: model.ProfessionalSchedule{WorkingHours: []byte(mondayNineToFive)}}
	svc := NewService(schedules, &fakeAppointments{}, Config{ExcludePast: true}, discardLogger(), nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 4, 15, 10, 0, 0, time.UTC) }

	got, err := svc.GetAvailableTimeSlots(context.Background(), "pro-1", "2024-03-04", 60, "", "UTC")
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if got[0] != "15:30" {
		t.Fatalf("expected first slot 15:30, got %v", got)
	}
}

func TestGetAvailableDates(t *testing.T) {
	schedules := &fakeSchedules{schedule: model.ProfessionalSchedule{
		WorkingHours: []byte(`{"monday":{"enabled":true,"startTime":"09:00","endTime":"17:00"},"friday":{"enabled":true,"startTime":"20:00","endTime":"23:00"}}`),
		Timezone:     "America/New_York",
	}}
	svc := newTestService(schedules, &fakeAppointments{})
	ctx := context.Background()

	got, err := svc.GetAvailableDates(ctx, "pro-1", "", "Asia/Tokyo", "2024-03-03")
	if err != nil {
		t.Fatalf("dates: %v", err)
	}
	// Monday 09:00-17:00 EST is Monday 23:00 to Tuesday 07:00 JST; Friday evening is Saturday morning.
	if want := []string{"monday", "tuesday", "saturday"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	own, err := svc.GetAvailableDates(ctx, "pro-1", "", "", "2024-03-03")
	if err != nil {
		t.Fatalf("dates: %v", err)
	}
	if want := []string{"monday", "friday"}; !reflect.DeepEqual(own, want) {
		t.Fatalf("expected %v in the professional zone, got %v", want, own)
	}

	if _, err := svc.GetAvailableDates(ctx, "pro-1", "", "Bad/Zone", ""); !errors.Is(err, availability.ErrInvalidTimezone) {
		t.Fatalf("expected invalid timezone, got %v", err)
	}
}

func TestGetAvailableDatesAllClosed(t *testing.T) {
	schedules := &fakeSchedules{schedule: model.ProfessionalSchedule{
		WorkingHours: []byte(`{"monday":{"enabled":false},"tuesday":{"enabled":false}}`),
	}}
	svc := newTestService(schedules, &fakeAppointments{})
	got, err := svc.GetAvailableDates(context.Background(), "pro-1", "", "UTC", "")
	if err != nil {
		t.Fatalf("dates: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", got)
	}
}
