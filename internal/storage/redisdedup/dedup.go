package redisdedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// markerTTLGrace keeps markers around a little past the event start so a
// slow tick near the boundary cannot double-send.
const markerTTLGrace = 24 * time.Hour

type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Tracker is a DedupStorage backed by Redis. SET NX gives the atomic
// insert-if-absent the multi-instance deployment needs; expiry replaces
// explicit garbage collection.
type Tracker struct {
	client *redis.Client
	now    func() time.Time
}

func New(config Config) *Tracker {
	return &Tracker{
		client: redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
			Password: config.Password,
			DB:       config.DB,
		}),
		now: time.Now,
	}
}

func (t *Tracker) Ping(ctx context.Context) error {
	return t.client.Ping(ctx).Err()
}

func (t *Tracker) Close() error {
	return t.client.Close()
}

func markerKey(userID, eventID string, offsetMinutes int) string {
	return fmt.Sprintf("reminder:%s:%s:%d", userID, eventID, offsetMinutes)
}

func (t *Tracker) HasSent(ctx context.Context, userID, eventID string, offsetMinutes int) (bool, error) {
	n, err := t.client.Exists(ctx, markerKey(userID, eventID, offsetMinutes)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (t *Tracker) MarkSent(
	ctx context.Context,
	userID, eventID string,
	offsetMinutes int,
	eventStart time.Time,
) (bool, error) {
	ttl := markerTTLGrace
	if until := eventStart.Sub(t.now()); until > 0 {
		ttl += until
	}
	return t.client.SetNX(ctx, markerKey(userID, eventID, offsetMinutes), "1", ttl).Result()
}

// RemoveMarkersBefore is a no-op: keys expire on their own.
func (t *Tracker) RemoveMarkersBefore(_ context.Context, _ time.Time) error {
	return nil
}
