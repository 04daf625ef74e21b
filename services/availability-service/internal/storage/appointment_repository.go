package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/proconnect/marketplace/services/availability-service/internal/model"
)

type AppointmentRepository struct {
	db Querier
}

func NewAppointmentRepository(db Querier) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.db.Begin(ctx)
}

// FetchAppointmentsInWindow returns the non-cancelled appointments of a
// professional that overlap [start, end), however long they are.
func (r *AppointmentRepository) FetchAppointmentsInWindow(ctx context.Context, professionalID string, start, end time.Time) ([]model.Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id::text, professional_id::text, client_id, service_id, start_time, end_time, status,
			client_timezone, created_at
		FROM appointments
		WHERE professional_id = $1
			AND status <> 'cancelled'
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time ASC
	`, professionalID, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch appointments for %s: %w", professionalID, err)
	}
	defer rows.Close()

	appts := []model.Appointment{}
	for rows.Next() {
		var a model.Appointment
		if err := rows.Scan(
			&a.ID,
			&a.ProfessionalID,
			&a.ClientID,
			&a.ServiceID,
			&a.StartTime,
			&a.EndTime,
			&a.Status,
			&a.ClientTimezone,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch appointments for %s: %w", professionalID, err)
	}
	return appts, nil
}

// Create inserts appt inside tx and returns its id. An overlap with another
// live appointment surfaces as an error for which IsConflict is true.
func (r *AppointmentRepository) Create(ctx context.Context, tx pgx.Tx, appt *model.Appointment) (string, error) {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	err := tx.QueryRow(ctx, `
		INSERT INTO appointments
			(id, professional_id, client_id, service_id, start_time, end_time, status, client_timezone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, appt.ID, appt.ProfessionalID, appt.ClientID, appt.ServiceID,
		appt.StartTime, appt.EndTime, appt.Status, appt.ClientTimezone).Scan(&appt.CreatedAt)
	if err != nil {
		return "", err
	}
	return appt.ID, nil
}

// Cancel marks a professional's appointment cancelled and returns it.
func (r *AppointmentRepository) Cancel(ctx context.Context, tx pgx.Tx, professionalID, appointmentID, reason string) (model.Appointment, error) {
	var a model.Appointment
	err := tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'cancelled',
			cancelled_at = now(),
			cancellation_reason = NULLIF($3, '')
		WHERE id = $1 AND professional_id = $2 AND status <> 'cancelled'
		RETURNING id::text, professional_id::text, client_id, service_id, start_time, end_time, status,
			client_timezone, created_at
	`, appointmentID, professionalID, reason).Scan(
		&a.ID,
		&a.ProfessionalID,
		&a.ClientID,
		&a.ServiceID,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&a.ClientTimezone,
		&a.CreatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	return a, nil
}
