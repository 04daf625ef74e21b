package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/proconnect/marketplace/libs/auth"
	"github.com/proconnect/marketplace/libs/httpx"
	"github.com/proconnect/marketplace/services/availability-service/internal/scheduling"
)

type WorkingHoursService interface {
	Get(ctx context.Context, professionalID string) (scheduling.WorkingHoursView, error)
	Update(ctx context.Context, professionalID string, view scheduling.WorkingHoursView) (scheduling.WorkingHoursView, error)
}

// WorkingHoursHandler lets the authenticated professional read and replace
// their weekly schedule.
type WorkingHoursHandler struct {
	svc    WorkingHoursService
	logger *slog.Logger
}

func NewWorkingHoursHandler(svc WorkingHoursService, logger *slog.Logger) *WorkingHoursHandler {
	return &WorkingHoursHandler{svc: svc, logger: logger}
}

func (h *WorkingHoursHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok || claims.ProfessionalID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		view, err := h.svc.Get(r.Context(), claims.ProfessionalID)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, view)
	case http.MethodPut:
		var view scheduling.WorkingHoursView
		if err := json.NewDecoder(r.Body).Decode(&view); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		saved, err := h.svc.Update(r.Context(), claims.ProfessionalID, view)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		h.logger.Info("working hours updated", "professional_id", claims.ProfessionalID, "timezone", saved.Timezone)
		httpx.WriteJSON(w, http.StatusOK, saved)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
