package scheduling

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/proconnect/marketplace/services/availability-service/internal/availability"
	"github.com/proconnect/marketplace/services/availability-service/internal/outbox"
	"github.com/proconnect/marketplace/services/availability-service/internal/storage"
)

type ScheduleWriter interface {
	UpdateWorkingHours(ctx context.Context, tx pgx.Tx, professionalID string, workingHours []byte, timezone string) error
}

type CacheInvalidator interface {
	Invalidate(ctx context.Context, professionalID string) error
}

// ScheduleEditor lets a professional replace their weekly schedule.
type ScheduleEditor struct {
	reader ScheduleStore
	db     TxBeginner
	writer ScheduleWriter
	events EventWriter
	cache  CacheInvalidator
	logger *slog.Logger
	now    func() time.Time
}

func NewScheduleEditor(reader ScheduleStore, db TxBeginner, writer ScheduleWriter, events EventWriter, cache CacheInvalidator, logger *slog.Logger) *ScheduleEditor {
	return &ScheduleEditor{reader: reader, db: db, writer: writer, events: events, cache: cache, logger: logger, now: time.Now}
}

// WorkingHoursView is the normalized schedule returned to the editor UI.
type WorkingHoursView struct {
	Timezone     string                             `json:"timezone"`
	WorkingHours availability.PersistedWorkingHours `json:"working_hours"`
}

func (e *ScheduleEditor) Get(ctx context.Context, professionalID string) (WorkingHoursView, error) {
	stored, err := e.reader.FetchWorkingHours(ctx, professionalID)
	if storage.IsNotFound(err) {
		return WorkingHoursView{}, fmt.Errorf("%w: %s", ErrProfessionalNotFound, professionalID)
	}
	if err != nil {
		return WorkingHoursView{}, fmt.Errorf("load working hours: %w", err)
	}
	raw, err := availability.DecodeWorkingHours(stored.WorkingHours)
	if err != nil {
		e.logger.Warn("malformed working hours, showing as closed", "professional_id", professionalID, "err", err)
		raw = nil
	}
	parsed, err := availability.ParseWorkingHours(raw, stored.Timezone)
	if err != nil {
		e.logger.Warn("stored timezone is invalid", "professional_id", professionalID, "timezone", stored.Timezone)
		parsed, _ = availability.ParseWorkingHours(raw, "UTC")
	}
	return WorkingHoursView{Timezone: parsed.Timezone, WorkingHours: parsed.Persisted()}, nil
}

// Update validates and stores the schedule, queues an update event and drops
// the cached copy. Invalid schedules are rejected rather than coerced.
func (e *ScheduleEditor) Update(ctx context.Context, professionalID string, view WorkingHoursView) (WorkingHoursView, error) {
	if err := availability.ValidateWorkingHours(view.WorkingHours, view.Timezone); err != nil {
		return WorkingHoursView{}, err
	}
	parsed, err := availability.ParseWorkingHours(view.WorkingHours, view.Timezone)
	if err != nil {
		return WorkingHoursView{}, err
	}
	normalized := WorkingHoursView{Timezone: parsed.Timezone, WorkingHours: parsed.Persisted()}
	blob, err := json.Marshal(normalized.WorkingHours)
	if err != nil {
		return WorkingHoursView{}, fmt.Errorf("encode working hours: %w", err)
	}

	tx, err := e.db.Begin(ctx)
	if err != nil {
		return WorkingHoursView{}, fmt.Errorf("update working hours: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := e.writer.UpdateWorkingHours(ctx, tx, professionalID, blob, normalized.Timezone); err != nil {
		if storage.IsNotFound(err) {
			return WorkingHoursView{}, fmt.Errorf("%w: %s", ErrProfessionalNotFound, professionalID)
		}
		return WorkingHoursView{}, err
	}
	evt, err := outbox.NewEvent("professional", professionalID, EventWorkingHoursUpdated, WorkingHoursUpdated{
		ProfessionalID: professionalID,
		Timezone:       normalized.Timezone,
		UpdatedAt:      e.now().UTC(),
	})
	if err != nil {
		return WorkingHoursView{}, err
	}
	if err := e.events.Insert(ctx, tx, evt); err != nil {
		return WorkingHoursView{}, fmt.Errorf("queue working hours event: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return WorkingHoursView{}, fmt.Errorf("update working hours: %w", err)
	}

	// Other replicas drop their copy when the event arrives.
	if err := e.cache.Invalidate(ctx, professionalID); err != nil {
		e.logger.Warn("working hours cache invalidation failed", "professional_id", professionalID, "err", err)
	}
	return normalized, nil
}
