package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/proconnect/marketplace/libs/auth"
	"github.com/proconnect/marketplace/services/availability-service/internal/availability"
	"github.com/proconnect/marketplace/services/availability-service/internal/model"
	"github.com/proconnect/marketplace/services/availability-service/internal/scheduling"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeAvailability struct {
	slots []string
	days  []string
	err   error

	gotDate     string
	gotDuration int
	gotClientTZ string
	gotWeekOf   string
}

func (f *fakeAvailability) GetAvailableTimeSlots(_ context.Context, _ string, clientDate string, durationMinutes int, _ string, clientTZ string) ([]string, error) {
	f.gotDate, f.gotDuration, f.gotClientTZ = clientDate, durationMinutes, clientTZ
	return f.slots, f.err
}

func (f *fakeAvailability) GetAvailableDates(_ context.Context, _ string, _ string, clientTZ, referenceDate string) ([]string, error) {
	f.gotClientTZ, f.gotWeekOf = clientTZ, referenceDate
	return f.days, f.err
}

func TestSlotsHandler(t *testing.T) {
	svc := &fakeAvailability{slots: []string{"06:00", "06:30"}}
	h := NewAvailabilityHandler(svc, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/slots?professional_id=p1&date=2024-03-04&duration_minutes=60&client_tz=America/Los_Angeles", nil)
	rec := httptest.NewRecorder()
	h.Slots(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var got []string
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0] != "06:00" {
		t.Fatalf("slots = %v", got)
	}
	if svc.gotDate != "2024-03-04" || svc.gotDuration != 60 || svc.gotClientTZ != "America/Los_Angeles" {
		t.Fatalf("unexpected args: %+v", svc)
	}
}

func TestSlotsHandlerEmptyIsArray(t *testing.T) {
	h := NewAvailabilityHandler(&fakeAvailability{slots: []string{}}, discardLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/slots?professional_id=p1&date=2024-03-04&duration_minutes=60&client_tz=UTC", nil)
	rec := httptest.NewRecorder()
	h.Slots(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("body = %q, want []", body)
	}
}

func TestSlotsHandlerErrors(t *testing.T) {
	cases := []struct {
		name   string
		method string
		query  string
		err    error
		want   int
	}{
		{"wrong method", http.MethodPost, "professional_id=p1&date=2024-03-04&duration_minutes=60&client_tz=UTC", nil, http.StatusMethodNotAllowed},
		{"missing client tz", http.MethodGet, "professional_id=p1&date=2024-03-04&duration_minutes=60", nil, http.StatusBadRequest},
		{"bad duration", http.MethodGet, "professional_id=p1&date=2024-03-04&duration_minutes=abc&client_tz=UTC", nil, http.StatusBadRequest},
		{"invalid input", http.MethodGet, "professional_id=p1&date=2024-03-04&duration_minutes=0&client_tz=UTC", fmt.Errorf("query: %w", availability.ErrInvalidDuration), http.StatusBadRequest},
		{"not found", http.MethodGet, "professional_id=p1&date=2024-03-04&duration_minutes=60&client_tz=UTC", scheduling.ErrProfessionalNotFound, http.StatusNotFound},
		{"store failure", http.MethodGet, "professional_id=p1&date=2024-03-04&duration_minutes=60&client_tz=UTC", errors.New("connection refused"), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAvailabilityHandler(&fakeAvailability{err: tc.err}, discardLogger())
			rec := httptest.NewRecorder()
			h.Slots(rec, httptest.NewRequest(tc.method, "/api/v1/public/slots?"+tc.query, nil))
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestAvailableDaysHandler(t *testing.T) {
	svc := &fakeAvailability{days: []string{"monday", "tuesday"}}
	h := NewAvailabilityHandler(svc, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/available-days?professional_id=p1&client_tz=Asia/Tokyo&week_of=2024-03-03", nil)
	rec := httptest.NewRecorder()
	h.AvailableDays(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got []string
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[1] != "tuesday" {
		t.Fatalf("days = %v", got)
	}
	if svc.gotClientTZ != "Asia/Tokyo" || svc.gotWeekOf != "2024-03-03" {
		t.Fatalf("unexpected args: %+v", svc)
	}

	rec = httptest.NewRecorder()
	h.AvailableDays(rec, httptest.NewRequest(http.MethodGet, "/api/v1/public/available-days", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing professional_id status = %d", rec.Code)
	}
}

type fakeBooking struct {
	appt      model.Appointment
	err       error
	gotBook   scheduling.BookRequest
	gotCancel [3]string
}

func (f *fakeBooking) Book(_ context.Context, req scheduling.BookRequest) (model.Appointment, error) {
	f.gotBook = req
	return f.appt, f.err
}

func (f *fakeBooking) Cancel(_ context.Context, professionalID, appointmentID, reason string) (model.Appointment, error) {
	f.gotCancel = [3]string{professionalID, appointmentID, reason}
	return f.appt, f.err
}

func TestBookHandler(t *testing.T) {
	start := time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)
	svc := &fakeBooking{appt: model.Appointment{
		ID: "a1", ProfessionalID: "p1", StartTime: start, EndTime: start.Add(time.Hour), Status: model.StatusConfirmed,
	}}
	h := NewBookingHandler(svc, discardLogger())

	body := `{"professional_id":"p1","client_id":"c1","service_id":"s1","start_time":"2024-03-04T15:00:00Z","duration_minutes":60,"client_tz":"America/Los_Angeles"}`
	rec := httptest.NewRecorder()
	h.Book(rec, httptest.NewRequest(http.MethodPost, "/api/v1/public/book", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var got appointmentResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.AppointmentID != "a1" || got.StartTime != "2024-03-04T15:00:00Z" || got.EndTime != "2024-03-04T16:00:00Z" {
		t.Fatalf("response = %+v", got)
	}
	if !svc.gotBook.StartTime.Equal(start) || svc.gotBook.DurationMinutes != 60 || svc.gotBook.ClientTZ != "America/Los_Angeles" {
		t.Fatalf("book request = %+v", svc.gotBook)
	}
}

func TestBookHandlerErrors(t *testing.T) {
	valid := `{"professional_id":"p1","client_id":"c1","service_id":"s1","start_time":"2024-03-04T15:00:00Z","duration_minutes":60,"client_tz":"UTC"}`
	cases := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"bad json", `{`, nil, http.StatusBadRequest},
		{"bad start", `{"start_time":"tomorrow"}`, nil, http.StatusBadRequest},
		{"missing fields", valid, scheduling.ErrInvalidBookingFields, http.StatusBadRequest},
		{"slot unavailable", valid, scheduling.ErrSlotUnavailable, http.StatusUnprocessableEntity},
		{"slot taken", valid, fmt.Errorf("insert: %w", scheduling.ErrSlotTaken), http.StatusConflict},
		{"store failure", valid, errors.New("boom"), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewBookingHandler(&fakeBooking{err: tc.err}, discardLogger())
			rec := httptest.NewRecorder()
			h.Book(rec, httptest.NewRequest(http.MethodPost, "/api/v1/public/book", strings.NewReader(tc.body)))
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestCancelHandler(t *testing.T) {
	svc := &fakeBooking{appt: model.Appointment{ID: "a1", ProfessionalID: "p1", Status: model.StatusCancelled}}
	h := NewBookingHandler(svc, discardLogger())

	rec := httptest.NewRecorder()
	h.Cancel(rec, httptest.NewRequest(http.MethodPost, "/api/v1/appointments/cancel", strings.NewReader(`{"appointment_id":"a1"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("without claims status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments/cancel", strings.NewReader(`{"appointment_id":"a1","reason":"sick"}`))
	req = req.WithContext(auth.ContextWithClaims(req.Context(), &auth.Claims{ProfessionalID: "p1", Role: auth.RoleProfessional}))
	rec = httptest.NewRecorder()
	h.Cancel(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if svc.gotCancel != [3]string{"p1", "a1", "sick"} {
		t.Fatalf("cancel args = %v", svc.gotCancel)
	}

	svc.err = scheduling.ErrAppointmentNotFound
	req = httptest.NewRequest(http.MethodPost, "/api/v1/appointments/cancel", strings.NewReader(`{"appointment_id":"zz"}`))
	req = req.WithContext(auth.ContextWithClaims(req.Context(), &auth.Claims{ProfessionalID: "p1"}))
	rec = httptest.NewRecorder()
	h.Cancel(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("not found status = %d", rec.Code)
	}
}

type fakeWorkingHours struct {
	view    scheduling.WorkingHoursView
	err     error
	updated scheduling.WorkingHoursView
}

func (f *fakeWorkingHours) Get(context.Context, string) (scheduling.WorkingHoursView, error) {
	return f.view, f.err
}

func (f *fakeWorkingHours) Update(_ context.Context, _ string, view scheduling.WorkingHoursView) (scheduling.WorkingHoursView, error) {
	f.updated = view
	return view, f.err
}

func withProfessional(r *http.Request) *http.Request {
	return r.WithContext(auth.ContextWithClaims(r.Context(), &auth.Claims{ProfessionalID: "p1", Role: auth.RoleProfessional}))
}

func TestWorkingHoursHandler(t *testing.T) {
	svc := &fakeWorkingHours{view: scheduling.WorkingHoursView{Timezone: "Europe/Berlin"}}
	h := NewWorkingHoursHandler(svc, discardLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/professionals/working-hours", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("without claims status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withProfessional(httptest.NewRequest(http.MethodGet, "/api/v1/professionals/working-hours", nil)))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Europe/Berlin") {
		t.Fatalf("get status = %d body=%s", rec.Code, rec.Body.String())
	}

	body := `{"timezone":"America/Chicago","working_hours":{"monday":{"enabled":true,"startTime":"08:00","endTime":"12:00"}}}`
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withProfessional(httptest.NewRequest(http.MethodPut, "/api/v1/professionals/working-hours", strings.NewReader(body))))
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d body=%s", rec.Code, rec.Body.String())
	}
	if svc.updated.Timezone != "America/Chicago" {
		t.Fatalf("updated = %+v", svc.updated)
	}
	if day := svc.updated.WorkingHours["monday"]; !day.Enabled || day.StartTime == nil || *day.StartTime != "08:00" {
		t.Fatalf("monday = %+v", day)
	}

	svc.err = fmt.Errorf("validate: %w", availability.ErrInvalidSchedule)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withProfessional(httptest.NewRequest(http.MethodPut, "/api/v1/professionals/working-hours", strings.NewReader(body))))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid schedule status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withProfessional(httptest.NewRequest(http.MethodDelete, "/api/v1/professionals/working-hours", nil)))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("delete status = %d", rec.Code)
	}
}
