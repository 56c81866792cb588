package appointmenttypes

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/coachdesk/coaching-platform/pkg/logging"
)

// CoachConfig bundles a coach's booking catalog for a single cached read.
type CoachConfig struct {
	Types   []AppointmentType `json:"types"`
	Reasons []Reason          `json:"reasons"`
}

type catalogSource interface {
	ListTypesForCoach(ctx context.Context, coachID uuid.UUID, activeOnly bool) ([]AppointmentType, error)
	ListReasonsForCoach(ctx context.Context, coachID uuid.UUID, activeOnly bool) ([]Reason, error)
}

// Cache is a read-through redis cache over the catalog repository.
// A nil redis client degrades to direct repository reads.
type Cache struct {
	redis  *redis.Client
	source catalogSource
	ttl    time.Duration
	logger *logging.Logger
}

// NewCache creates a catalog cache. redisClient may be nil.
func NewCache(redisClient *redis.Client, source catalogSource, ttl time.Duration, logger *logging.Logger) *Cache {
	return &Cache{redis: redisClient, source: source, ttl: ttl, logger: logger}
}

func (c *Cache) key(coachID uuid.UUID) string {
	return fmt.Sprintf("coach:apptconfig:%s", coachID)
}

// Get returns the active catalog for a coach, loading from the repository
// on a miss. Cache failures fall through to the repository so a redis
// outage never blocks booking flows.
func (c *Cache) Get(ctx context.Context, coachID uuid.UUID) (*CoachConfig, error) {
	if c.redis != nil {
		data, err := c.redis.Get(ctx, c.key(coachID)).Bytes()
		if err == nil {
			var cfg CoachConfig
			if err := json.Unmarshal(data, &cfg); err == nil {
				return &cfg, nil
			}
			c.logger.Warn("catalog cache entry corrupt, reloading", "coach_id", coachID)
		} else if err != redis.Nil {
			c.logger.Warn("catalog cache read failed", "coach_id", coachID, "error", err)
		}
	}

	cfg, err := c.load(ctx, coachID)
	if err != nil {
		return nil, err
	}

	if c.redis != nil {
		data, err := json.Marshal(cfg)
		if err == nil {
			if err := c.redis.Set(ctx, c.key(coachID), data, c.ttl).Err(); err != nil {
				c.logger.Warn("catalog cache write failed", "coach_id", coachID, "error", err)
			}
		}
	}
	return cfg, nil
}

// Invalidate drops the cached catalog after a mutation.
func (c *Cache) Invalidate(ctx context.Context, coachID uuid.UUID) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, c.key(coachID)).Err(); err != nil {
		c.logger.Warn("catalog cache invalidate failed", "coach_id", coachID, "error", err)
	}
}

func (c *Cache) load(ctx context.Context, coachID uuid.UUID) (*CoachConfig, error) {
	types, err := c.source.ListTypesForCoach(ctx, coachID, true)
	if err != nil {
		return nil, fmt.Errorf("appointmenttypes: load catalog types: %w", err)
	}
	reasons, err := c.source.ListReasonsForCoach(ctx, coachID, true)
	if err != nil {
		return nil, fmt.Errorf("appointmenttypes: load catalog reasons: %w", err)
	}
	return &CoachConfig{Types: types, Reasons: reasons}, nil
}
