package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	otelx "github.com/proconnect/marketplace/libs/otel"
	"github.com/proconnect/marketplace/services/availability-service/internal/availability"
	"github.com/proconnect/marketplace/services/availability-service/internal/metrics"
	"github.com/proconnect/marketplace/services/availability-service/internal/model"
	"github.com/proconnect/marketplace/services/availability-service/internal/storage"
)

var ErrProfessionalNotFound = errors.New("professional not found")

type ScheduleStore interface {
	FetchWorkingHours(ctx context.Context, professionalID string) (model.ProfessionalSchedule, error)
}

type AppointmentStore interface {
	FetchAppointmentsInWindow(ctx context.Context, professionalID string, start, end time.Time) ([]model.Appointment, error)
}

type Config struct {
	GranularityMinutes int
	// ExcludePast drops slots that start before the service clock.
	ExcludePast bool
}

// Service answers availability questions by loading a professional's
// schedule and appointments and running them through the engine.
type Service struct {
	schedules    ScheduleStore
	appointments AppointmentStore
	cfg          Config
	logger       *slog.Logger
	metrics      *metrics.AvailabilityMetrics
	tracer       trace.Tracer
	now          func() time.Time
}

func NewService(schedules ScheduleStore, appointments AppointmentStore, cfg Config, logger *slog.Logger, m *metrics.AvailabilityMetrics) *Service {
	if cfg.GranularityMinutes <= 0 {
		cfg.GranularityMinutes = availability.DefaultGranularityMinutes
	}
	return &Service{
		schedules:    schedules,
		appointments: appointments,
		cfg:          cfg,
		logger:       logger,
		metrics:      m,
		tracer:       otelx.Tracer("availability-service/scheduling"),
		now:          time.Now,
	}
}

type SlotRequest struct {
	ProfessionalID  string
	ClientDate      string
	DurationMinutes int
	// ProfessionalTZ overrides the stored timezone when set.
	ProfessionalTZ string
	ClientTZ       string
	NotBefore      time.Time
}

// GetAvailableTimeSlots returns the client-local "HH:MM" start times on
// clientDate. Store failures are returned as errors, never as an empty list.
func (s *Service) GetAvailableTimeSlots(ctx context.Context, professionalID, clientDate string, durationMinutes int, professionalTZ, clientTZ string) ([]string, error) {
	slots, err := s.Slots(ctx, SlotRequest{
		ProfessionalID:  professionalID,
		ClientDate:      clientDate,
		DurationMinutes: durationMinutes,
		ProfessionalTZ:  professionalTZ,
		ClientTZ:        clientTZ,
	})
	if err != nil {
		return nil, err
	}
	return availability.FormatTimes(slots), nil
}

// Slots computes the bookable candidates for req.
func (s *Service) Slots(ctx context.Context, req SlotRequest) (_ []availability.CandidateSlot, err error) {
	ctx, span := s.tracer.Start(ctx, "availability.slots", trace.WithAttributes(
		attribute.String("professional.id", req.ProfessionalID),
		attribute.String("client.date", req.ClientDate),
		attribute.String("client.tz", req.ClientTZ),
		attribute.Int("duration.minutes", req.DurationMinutes),
	))
	var count int
	defer func() { s.finish(span, "slots", count, err) }()

	if req.ClientTZ == "" {
		return nil, fmt.Errorf("%w: client timezone is required", availability.ErrInvalidTimezone)
	}
	clientLoc, err := availability.LoadLocation(req.ClientTZ)
	if err != nil {
		return nil, err
	}
	date, err := availability.ParseDate(req.ClientDate)
	if err != nil {
		return nil, err
	}
	query := availability.SlotQuery{
		ClientDate:         date,
		ClientLocation:     clientLoc,
		DurationMinutes:    req.DurationMinutes,
		GranularityMinutes: s.cfg.GranularityMinutes,
		NotBefore:          req.NotBefore,
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if query.NotBefore.IsZero() && s.cfg.ExcludePast {
		query.NotBefore = s.now()
	}

	window := availability.AppointmentWindow(date, clientLoc)
	stored, appts, err := s.load(ctx, req.ProfessionalID, window)
	if err != nil {
		return nil, err
	}
	query.Schedule, err = s.resolve(stored, req.ProfessionalTZ)
	if err != nil {
		return nil, err
	}
	query.Appointments = availability.BlockingIntervals(appts)

	slots, err := availability.ComputeSlots(query)
	if err != nil {
		return nil, err
	}
	count = len(slots)
	return slots, nil
}

// GetAvailableDates returns the weekday names on which the professional can
// be booked as seen from clientTZ. An empty clientTZ means the professional's
// own zone. An empty referenceDate means the current week in the client zone.
func (s *Service) GetAvailableDates(ctx context.Context, professionalID, professionalTZ, clientTZ, referenceDate string) (_ []string, err error) {
	ctx, span := s.tracer.Start(ctx, "availability.dates", trace.WithAttributes(
		attribute.String("professional.id", professionalID),
		attribute.String("client.tz", clientTZ),
	))
	var count int
	defer func() { s.finish(span, "dates", count, err) }()

	if professionalTZ != "" {
		if _, err := availability.LoadLocation(professionalTZ); err != nil {
			return nil, err
		}
	}
	var clientLoc *time.Location
	if clientTZ != "" {
		if clientLoc, err = availability.LoadLocation(clientTZ); err != nil {
			return nil, err
		}
	}
	var ref civil.Date
	if referenceDate != "" {
		if ref, err = availability.ParseDate(referenceDate); err != nil {
			return nil, err
		}
	}

	stored, err := s.fetchSchedule(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	parsed, err := s.resolve(stored, professionalTZ)
	if err != nil {
		return nil, err
	}
	if clientLoc == nil {
		clientLoc = parsed.Location
	}
	if referenceDate == "" {
		ref = civil.DateOf(s.now().In(clientLoc))
	}

	days := availability.AvailableWeekdays(parsed, clientLoc, ref)
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, string(d))
	}
	count = len(out)
	return out, nil
}

// load reads the schedule and the appointments in window concurrently.
// Both reads must succeed.
func (s *Service) load(ctx context.Context, professionalID string, window availability.Interval) (model.ProfessionalSchedule, []model.Appointment, error) {
	var (
		stored model.ProfessionalSchedule
		appts  []model.Appointment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stored, err = s.fetchSchedule(gctx, professionalID)
		return err
	})
	g.Go(func() error {
		start := time.Now()
		var err error
		appts, err = s.appointments.FetchAppointmentsInWindow(gctx, professionalID, window.Start, window.End)
		s.metrics.ObserveStoreRead("appointments", time.Since(start).Seconds())
		if err != nil {
			return fmt.Errorf("load appointments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.ProfessionalSchedule{}, nil, err
	}
	return stored, appts, nil
}

func (s *Service) fetchSchedule(ctx context.Context, professionalID string) (model.ProfessionalSchedule, error) {
	start := time.Now()
	stored, err := s.schedules.FetchWorkingHours(ctx, professionalID)
	s.metrics.ObserveStoreRead("working_hours", time.Since(start).Seconds())
	if storage.IsNotFound(err) {
		return model.ProfessionalSchedule{}, fmt.Errorf("%w: %s", ErrProfessionalNotFound, professionalID)
	}
	if err != nil {
		return model.ProfessionalSchedule{}, fmt.Errorf("load working hours: %w", err)
	}
	return stored, nil
}

// resolve parses the stored schedule. An explicit professionalTZ wins over the
// stored zone, which wins over UTC. Broken stored data closes the schedule
// instead of failing the request.
func (s *Service) resolve(stored model.ProfessionalSchedule, professionalTZ string) (availability.ParsedWorkingHours, error) {
	raw, err := availability.DecodeWorkingHours(stored.WorkingHours)
	if err != nil {
		s.logger.Warn("malformed working hours, treating as closed",
			"professional_id", stored.ProfessionalID, "err", err)
		raw = availability.PersistedWorkingHours{}
	}

	if professionalTZ != "" {
		return availability.ParseWorkingHours(raw, professionalTZ)
	}
	parsed, err := availability.ParseWorkingHours(raw, stored.Timezone)
	if err != nil {
		s.logger.Warn("stored timezone is invalid, treating as closed",
			"professional_id", stored.ProfessionalID, "timezone", stored.Timezone, "err", err)
		return availability.ParseWorkingHours(nil, "UTC")
	}
	return parsed, nil
}

func (s *Service) finish(span trace.Span, kind string, count int, err error) {
	defer span.End()
	switch {
	case err == nil:
		span.SetAttributes(attribute.Int("result.count", count))
		s.metrics.ObserveQuery(kind, "ok", count)
	case availability.IsInvalidInput(err):
		s.metrics.ObserveQuery(kind, "invalid_input", 0)
	case errors.Is(err, ErrProfessionalNotFound):
		s.metrics.ObserveQuery(kind, "not_found", 0)
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.ObserveQuery(kind, "store_error", 0)
		s.logger.Error("availability query failed", "kind", kind, "err", err)
	}
}
