package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/proconnect/marketplace/libs/httpx"
	"github.com/proconnect/marketplace/services/availability-service/internal/availability"
	"github.com/proconnect/marketplace/services/availability-service/internal/scheduling"
)

// writeError maps domain errors to status codes. Anything unrecognized is a
// dependency failure and is never reported as an empty result.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case availability.IsInvalidInput(err), errors.Is(err, scheduling.ErrInvalidBookingFields):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, scheduling.ErrProfessionalNotFound):
		http.Error(w, "professional not found", http.StatusNotFound)
	case errors.Is(err, scheduling.ErrAppointmentNotFound):
		http.Error(w, "appointment not found", http.StatusNotFound)
	case errors.Is(err, scheduling.ErrSlotUnavailable):
		http.Error(w, "requested time is not available", http.StatusUnprocessableEntity)
	case errors.Is(err, scheduling.ErrSlotTaken):
		http.Error(w, "time slot already booked", http.StatusConflict)
	default:
		logger.Error("request failed",
			"request_id", httpx.RequestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"err", err,
		)
		http.Error(w, "availability temporarily unavailable", http.StatusServiceUnavailable)
	}
}
