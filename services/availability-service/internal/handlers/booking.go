package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/proconnect/marketplace/libs/auth"
	"github.com/proconnect/marketplace/libs/httpx"
	"github.com/proconnect/marketplace/services/availability-service/internal/model"
	"github.com/proconnect/marketplace/services/availability-service/internal/scheduling"
)

type BookingService interface {
	Book(ctx context.Context, req scheduling.BookRequest) (model.Appointment, error)
	Cancel(ctx context.Context, professionalID, appointmentID, reason string) (model.Appointment, error)
}

type BookingHandler struct {
	svc    BookingService
	logger *slog.Logger
}

func NewBookingHandler(svc BookingService, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, logger: logger}
}

type bookRequest struct {
	ProfessionalID  string `json:"professional_id"`
	ClientID        string `json:"client_id"`
	ServiceID       string `json:"service_id"`
	StartTime       string `json:"start_time"`
	DurationMinutes int    `json:"duration_minutes"`
	ClientTZ        string `json:"client_tz"`
	ProfessionalTZ  string `json:"professional_tz"`
}

type appointmentResponse struct {
	AppointmentID  string `json:"appointment_id"`
	ProfessionalID string `json:"professional_id"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	Status         string `json:"status"`
}

type cancelRequest struct {
	AppointmentID string `json:"appointment_id"`
	Reason        string `json:"reason"`
}

// Book serves POST /api/v1/public/book.
func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartTime))
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.Book(r.Context(), scheduling.BookRequest{
		ProfessionalID:  strings.TrimSpace(req.ProfessionalID),
		ClientID:        strings.TrimSpace(req.ClientID),
		ServiceID:       strings.TrimSpace(req.ServiceID),
		StartTime:       start,
		DurationMinutes: req.DurationMinutes,
		ProfessionalTZ:  strings.TrimSpace(req.ProfessionalTZ),
		ClientTZ:        strings.TrimSpace(req.ClientTZ),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toAppointmentResponse(appt))
}

// Cancel serves POST /api/v1/appointments/cancel for the authenticated professional.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.Cancel(r.Context(), claims.ProfessionalID, strings.TrimSpace(req.AppointmentID), strings.TrimSpace(req.Reason))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func toAppointmentResponse(a model.Appointment) appointmentResponse {
	return appointmentResponse{
		AppointmentID:  a.ID,
		ProfessionalID: a.ProfessionalID,
		StartTime:      a.StartTime.UTC().Format(time.RFC3339),
		EndTime:        a.EndTime.UTC().Format(time.RFC3339),
		Status:         a.Status,
	}
}
