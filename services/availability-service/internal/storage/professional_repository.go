package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/proconnect/marketplace/services/availability-service/internal/model"
)

type ProfessionalRepository struct {
	db Querier
}

func NewProfessionalRepository(db Querier) *ProfessionalRepository {
	return &ProfessionalRepository{db: db}
}

// FetchWorkingHours loads the stored schedule blob and timezone. A NULL
// schedule or timezone comes back empty.
func (r *ProfessionalRepository) FetchWorkingHours(ctx context.Context, professionalID string) (model.ProfessionalSchedule, error) {
	var s model.ProfessionalSchedule
	var blob string
	err := r.db.QueryRow(ctx, `
		SELECT id::text, COALESCE(working_hours::text, ''), COALESCE(timezone, ''), updated_at
		FROM professional_profiles
		WHERE id = $1
	`, professionalID).Scan(&s.ProfessionalID, &blob, &s.Timezone, &s.UpdatedAt)
	if err != nil {
		return model.ProfessionalSchedule{}, fmt.Errorf("fetch working hours for %s: %w", professionalID, err)
	}
	if blob != "" {
		s.WorkingHours = []byte(blob)
	}
	return s, nil
}

// UpdateWorkingHours replaces the schedule and timezone inside tx.
func (r *ProfessionalRepository) UpdateWorkingHours(ctx context.Context, tx pgx.Tx, professionalID string, workingHours []byte, timezone string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE professional_profiles
		SET working_hours = $2::jsonb,
			timezone = NULLIF($3, ''),
			updated_at = now()
		WHERE id = $1
	`, professionalID, string(workingHours), timezone)
	if err != nil {
		return fmt.Errorf("update working hours for %s: %w", professionalID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update working hours for %s: %w", professionalID, pgx.ErrNoRows)
	}
	return nil
}
