package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"

	"github.com/proconnect/marketplace/services/availability-service/internal/availability"
	"github.com/proconnect/marketplace/services/availability-service/internal/metrics"
	"github.com/proconnect/marketplace/services/availability-service/internal/model"
	"github.com/proconnect/marketplace/services/availability-service/internal/outbox"
	"github.com/proconnect/marketplace/services/availability-service/internal/storage"
)

var (
	// ErrSlotUnavailable means the requested start is not an offered slot.
	ErrSlotUnavailable = errors.New("slot is not available")
	// ErrSlotTaken means another booking won the race for the slot.
	ErrSlotTaken            = errors.New("slot was just booked")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrInvalidBookingFields = errors.New("invalid booking request")
)

type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type AppointmentWriter interface {
	Create(ctx context.Context, tx pgx.Tx, appt *model.Appointment) (string, error)
	Cancel(ctx context.Context, tx pgx.Tx, professionalID, appointmentID, reason string) (model.Appointment, error)
}

type EventWriter interface {
	Insert(ctx context.Context, tx pgx.Tx, evt outbox.Event) error
}

// Booker creates and cancels appointments. Availability is re-checked before
// insert, but the database exclusion constraint is what keeps two bookings
// from overlapping.
type Booker struct {
	slots   *Service
	db      TxBeginner
	appts   AppointmentWriter
	events  EventWriter
	metrics *metrics.AvailabilityMetrics
}

func NewBooker(slots *Service, db TxBeginner, appts AppointmentWriter, events EventWriter) *Booker {
	return &Booker{slots: slots, db: db, appts: appts, events: events, metrics: slots.metrics}
}

type BookRequest struct {
	ProfessionalID  string
	ClientID        string
	ServiceID       string
	StartTime       time.Time
	DurationMinutes int
	ProfessionalTZ  string
	ClientTZ        string
}

func (b *Booker) Book(ctx context.Context, req BookRequest) (model.Appointment, error) {
	if strings.TrimSpace(req.ProfessionalID) == "" || strings.TrimSpace(req.ClientID) == "" || req.StartTime.IsZero() {
		return model.Appointment{}, fmt.Errorf("%w: professional_id, client_id and start_time are required", ErrInvalidBookingFields)
	}
	clientLoc, err := availability.LoadLocation(req.ClientTZ)
	if err != nil {
		return model.Appointment{}, err
	}

	start := req.StartTime.UTC()
	slots, err := b.slots.Slots(ctx, SlotRequest{
		ProfessionalID:  req.ProfessionalID,
		ClientDate:      civil.DateOf(start.In(clientLoc)).String(),
		DurationMinutes: req.DurationMinutes,
		ProfessionalTZ:  req.ProfessionalTZ,
		ClientTZ:        clientLoc.String(),
	})
	if err != nil {
		return model.Appointment{}, err
	}
	slot, ok := availability.FindSlot(slots, start)
	if !ok {
		b.observe("unavailable")
		return model.Appointment{}, ErrSlotUnavailable
	}

	appt := model.Appointment{
		ProfessionalID: req.ProfessionalID,
		ClientID:       req.ClientID,
		ServiceID:      req.ServiceID,
		StartTime:      slot.StartUTC,
		EndTime:        slot.EndUTC,
		Status:         model.StatusConfirmed,
		ClientTimezone: clientLoc.String(),
	}
	err = b.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := b.appts.Create(ctx, tx, &appt); err != nil {
			return err
		}
		return b.emit(ctx, tx, EventAppointmentBooked, appt, "")
	})
	if storage.IsConflict(err) {
		b.observe("conflict")
		return model.Appointment{}, ErrSlotTaken
	}
	if err != nil {
		b.observe("error")
		return model.Appointment{}, fmt.Errorf("book appointment: %w", err)
	}
	b.observe("created")
	return appt, nil
}

// Cancel frees an appointment owned by professionalID.
func (b *Booker) Cancel(ctx context.Context, professionalID, appointmentID, reason string) (model.Appointment, error) {
	if strings.TrimSpace(appointmentID) == "" {
		return model.Appointment{}, fmt.Errorf("%w: appointment_id is required", ErrInvalidBookingFields)
	}
	var appt model.Appointment
	err := b.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		appt, err = b.appts.Cancel(ctx, tx, professionalID, appointmentID, reason)
		if err != nil {
			return err
		}
		return b.emit(ctx, tx, EventAppointmentCancelled, appt, reason)
	})
	if storage.IsNotFound(err) {
		return model.Appointment{}, ErrAppointmentNotFound
	}
	if err != nil {
		return model.Appointment{}, fmt.Errorf("cancel appointment: %w", err)
	}
	return appt, nil
}

func (b *Booker) emit(ctx context.Context, tx pgx.Tx, eventType string, appt model.Appointment, reason string) error {
	evt, err := outbox.NewEvent("appointment", appt.ProfessionalID, eventType, AppointmentEvent{
		AppointmentID:  appt.ID,
		ProfessionalID: appt.ProfessionalID,
		ClientID:       appt.ClientID,
		ServiceID:      appt.ServiceID,
		StartTime:      appt.StartTime,
		EndTime:        appt.EndTime,
		ClientTimezone: appt.ClientTimezone,
		Status:         appt.Status,
		Reason:         reason,
	})
	if err != nil {
		return err
	}
	return b.events.Insert(ctx, tx, evt)
}

func (b *Booker) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := b.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (b *Booker) observe(outcome string) {
	b.metrics.ObserveBooking(outcome)
}
