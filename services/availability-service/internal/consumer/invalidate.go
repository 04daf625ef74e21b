package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/proconnect/marketplace/services/availability-service/internal/scheduling"
)

type Invalidator interface {
	Invalidate(ctx context.Context, professionalID string) error
}

// InvalidateWorkingHours drops the cached schedule named by a
// working-hours-updated event so every replica sees the edit.
func InvalidateWorkingHours(cache Invalidator) Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var evt scheduling.WorkingHoursUpdated
		if len(msg.Value) > 0 {
			if err := json.Unmarshal(msg.Value, &evt); err != nil {
				return fmt.Errorf("decode working hours event: %w", err)
			}
		}
		professionalID := evt.ProfessionalID
		if professionalID == "" {
			professionalID = string(msg.Key)
		}
		if professionalID == "" {
			return fmt.Errorf("working hours event without professional id")
		}
		return cache.Invalidate(ctx, professionalID)
	}
}
