package ads

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Counter tallies ad deliveries.
type Counter interface {
	Incr(ctx context.Context, adID uuid.UUID, event Event) error
	Counts(ctx context.Context, adID uuid.UUID) (impressions, clicks int64, err error)
	Reset(ctx context.Context, adID uuid.UUID) error
}

type Event string

const (
	EventImpression Event = "impressions"
	EventClick      Event = "clicks"
)

// RedisCounter keeps one hash per ad: jama:ad:<id> {impressions, clicks}.
type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func adKey(adID uuid.UUID) string {
	return "jama:ad:" + adID.String()
}

func (c *RedisCounter) Incr(ctx context.Context, adID uuid.UUID, event Event) error {
	if err := c.client.HIncrBy(ctx, adKey(adID), string(event), 1).Err(); err != nil {
		return fmt.Errorf("failed to count %s: %w", event, err)
	}
	return nil
}

func (c *RedisCounter) Counts(ctx context.Context, adID uuid.UUID) (int64, int64, error) {
	vals, err := c.client.HMGet(ctx, adKey(adID), string(EventImpression), string(EventClick)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, 0, fmt.Errorf("failed to read counters: %w", err)
	}
	return asInt(vals, 0), asInt(vals, 1), nil
}

func (c *RedisCounter) Reset(ctx context.Context, adID uuid.UUID) error {
	return c.client.Del(ctx, adKey(adID)).Err()
}

func asInt(vals []interface{}, i int) int64 {
	if i >= len(vals) {
		return 0
	}
	s, ok := vals[i].(string)
	if !ok {
		return 0
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

// DiscardCounter is used when no Redis is configured.
type DiscardCounter struct{}

func (DiscardCounter) Incr(context.Context, uuid.UUID, Event) error { return nil }

func (DiscardCounter) Counts(context.Context, uuid.UUID) (int64, int64, error) { return 0, 0, nil }

func (DiscardCounter) Reset(context.Context, uuid.UUID) error { return nil }
