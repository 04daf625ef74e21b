package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/proconnect/marketplace/services/availability-service/internal/model"
)

const keyPrefix = "availability:working_hours:"

// ScheduleStore loads a professional's stored schedule.
type ScheduleStore interface {
	FetchWorkingHours(ctx context.Context, professionalID string) (model.ProfessionalSchedule, error)
}

// ScheduleCache is a read-through Redis cache in front of a ScheduleStore.
// Redis failures are logged and the store is used directly; only store
// errors reach the caller.
type ScheduleCache struct {
	next   ScheduleStore
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

type cachedSchedule struct {
	ProfessionalID string          `json:"professional_id"`
	WorkingHours   json.RawMessage `json:"working_hours,omitempty"`
	Timezone       string          `json:"timezone"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func NewScheduleCache(next ScheduleStore, rdb redis.Cmdable, ttl time.Duration, logger *slog.Logger) *ScheduleCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ScheduleCache{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func (c *ScheduleCache) FetchWorkingHours(ctx context.Context, professionalID string) (model.ProfessionalSchedule, error) {
	if c.rdb == nil {
		return c.next.FetchWorkingHours(ctx, professionalID)
	}

	raw, err := c.rdb.Get(ctx, keyPrefix+professionalID).Bytes()
	switch {
	case err == nil:
		var cs cachedSchedule
		if jerr := json.Unmarshal(raw, &cs); jerr == nil {
			return model.ProfessionalSchedule{
				ProfessionalID: cs.ProfessionalID,
				WorkingHours:   []byte(cs.WorkingHours),
				Timezone:       cs.Timezone,
				UpdatedAt:      cs.UpdatedAt,
			}, nil
		}
		c.logger.Warn("discarding unreadable cached schedule", "professional_id", professionalID)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("working hours cache read failed", "professional_id", professionalID, "err", err)
	}

	s, err := c.next.FetchWorkingHours(ctx, professionalID)
	if err != nil {
		return model.ProfessionalSchedule{}, err
	}

	cs := cachedSchedule{ProfessionalID: s.ProfessionalID, Timezone: s.Timezone, UpdatedAt: s.UpdatedAt}
	if json.Valid(s.WorkingHours) {
		cs.WorkingHours = s.WorkingHours
	}
	if b, err := json.Marshal(cs); err == nil {
		if err := c.rdb.Set(ctx, keyPrefix+professionalID, b, c.ttl).Err(); err != nil {
			c.logger.Warn("working hours cache write failed", "professional_id", professionalID, "err", err)
		}
	}
	return s, nil
}

// Invalidate drops the cached schedule so the next read goes to the store.
func (c *ScheduleCache) Invalidate(ctx context.Context, professionalID string) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, keyPrefix+professionalID).Err()
}
