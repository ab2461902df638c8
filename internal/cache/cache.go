package cache

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Cache wraps the redis client used for the short-lived live-session cache
// and the per-user last-seen notice cursors.
type Cache struct {
	client *redis.Client
}

// New connects to redis with short timeouts.
func New(addr string) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Cache{client: client}
}

// Healthy verifies redis connectivity.
func (c *Cache) Healthy(ctx context.Context) bool {
	if c == nil || c.client == nil {
		return false
	}
	return c.client.Ping(ctx).Err() == nil
}

func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func liveKey(classID uuid.UUID) string {
	return "live:" + classID.String()
}

// GetLiveSlot returns the cached live-session payload for a class, if fresh.
func (c *Cache) GetLiveSlot(ctx context.Context, classID uuid.UUID) ([]byte, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	payload, err := c.client.Get(ctx, liveKey(classID)).Bytes()
	if err != nil {
		return nil, false
	}
	return payload, true
}

// SetLiveSlot caches a class's live-session payload for the given TTL. The
// TTL bounds staleness to the polling cadence; the evaluator itself is never
// skipped for longer than that.
func (c *Cache) SetLiveSlot(ctx context.Context, classID uuid.UUID, payload []byte, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Set(ctx, liveKey(classID), payload, ttl).Err()
}

func cursorKey(userID, classID uuid.UUID) string {
	return "notice:seen:" + userID.String() + ":" + classID.String()
}

// SeenCursor returns the (created_at, id) position of the newest machine
// notice the user has dismissed for the class, or zero values when none has
// been. The value is stored as "<RFC3339Nano>|<uuid>".
func (c *Cache) SeenCursor(ctx context.Context, userID, classID uuid.UUID) (time.Time, uuid.UUID, error) {
	if c == nil || c.client == nil {
		return time.Time{}, uuid.Nil, nil
	}
	value, err := c.client.Get(ctx, cursorKey(userID, classID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, uuid.Nil, nil
	}
	if err != nil {
		return time.Time{}, uuid.Nil, err
	}

	atPart, idPart, found := strings.Cut(value, "|")
	cursorAt, err := time.Parse(time.RFC3339Nano, atPart)
	if err != nil {
		return time.Time{}, uuid.Nil, err
	}
	if !found {
		// Value written before the id tie-break existed.
		return cursorAt, uuid.Nil, nil
	}
	cursorID, err := uuid.Parse(idPart)
	if err != nil {
		return time.Time{}, uuid.Nil, err
	}
	return cursorAt, cursorID, nil
}

// AdvanceSeenCursor moves the user's cursor forward in (created_at, id)
// order; it never moves back.
func (c *Cache) AdvanceSeenCursor(ctx context.Context, userID, classID uuid.UUID, seenAt time.Time, seenID uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}
	currentAt, currentID, err := c.SeenCursor(ctx, userID, classID)
	if err != nil {
		return err
	}
	if !cursorAfter(seenAt, seenID, currentAt, currentID) {
		return nil
	}
	value := seenAt.Format(time.RFC3339Nano) + "|" + seenID.String()
	return c.client.Set(ctx, cursorKey(userID, classID), value, 0).Err()
}

func cursorAfter(at time.Time, id uuid.UUID, thanAt time.Time, thanID uuid.UUID) bool {
	if !at.Equal(thanAt) {
		return at.After(thanAt)
	}
	return bytes.Compare(id[:], thanID[:]) > 0
}
