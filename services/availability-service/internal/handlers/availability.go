package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/proconnect/marketplace/libs/httpx"
)

type AvailabilityService interface {
	GetAvailableTimeSlots(ctx context.Context, professionalID, clientDate string, durationMinutes int, professionalTZ, clientTZ string) ([]string, error)
	GetAvailableDates(ctx context.Context, professionalID, professionalTZ, clientTZ, referenceDate string) ([]string, error)
}

type AvailabilityHandler struct {
	svc    AvailabilityService
	logger *slog.Logger
}

func NewAvailabilityHandler(svc AvailabilityService, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc, logger: logger}
}

// Slots serves GET /api/v1/public/slots.
func (h *AvailabilityHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	professionalID := strings.TrimSpace(q.Get("professional_id"))
	date := strings.TrimSpace(q.Get("date"))
	clientTZ := strings.TrimSpace(q.Get("client_tz"))
	if professionalID == "" || date == "" || clientTZ == "" {
		http.Error(w, "professional_id, date, and client_tz are required", http.StatusBadRequest)
		return
	}
	duration, err := strconv.Atoi(strings.TrimSpace(q.Get("duration_minutes")))
	if err != nil {
		http.Error(w, "duration_minutes must be an integer", http.StatusBadRequest)
		return
	}

	slots, err := h.svc.GetAvailableTimeSlots(r.Context(), professionalID, date, duration, strings.TrimSpace(q.Get("professional_tz")), clientTZ)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, slots)
}

// AvailableDays serves GET /api/v1/public/available-days.
func (h *AvailabilityHandler) AvailableDays(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	professionalID := strings.TrimSpace(q.Get("professional_id"))
	if professionalID == "" {
		http.Error(w, "professional_id required", http.StatusBadRequest)
		return
	}

	days, err := h.svc.GetAvailableDates(r.Context(), professionalID,
		strings.TrimSpace(q.Get("professional_tz")),
		strings.TrimSpace(q.Get("client_tz")),
		strings.TrimSpace(q.Get("week_of")),
	)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, days)
}
