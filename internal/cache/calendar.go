// Package cache keeps rendered calendar views in Redis. Entries are keyed
// by a per-employee generation counter; a schedule change bumps the
// counter and orphans the old entries until their TTL runs out.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "salonbook:calendar:"

// LookupObserver is told whether each lookup was served from the cache.
type LookupObserver interface {
	ObserveCacheLookup(hit bool)
}

type Calendar struct {
	client   redis.UniversalClient
	ttl      time.Duration
	log      *slog.Logger
	observer LookupObserver
}

type Option func(*Calendar)

func WithLogger(log *slog.Logger) Option {
	return func(c *Calendar) { c.log = log }
}

func WithLookupObserver(o LookupObserver) Option {
	return func(c *Calendar) { c.observer = o }
}

func NewCalendar(client redis.UniversalClient, ttl time.Duration, opts ...Option) *Calendar {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c := &Calendar{client: client, ttl: ttl, log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(slog.String("component", "calendar_cache"))
	return c
}

func generationKey(employeeID uuid.UUID) string {
	return keyPrefix + "gen:" + employeeID.String()
}

func entryKey(employeeID uuid.UUID, gen, key string) string {
	return keyPrefix + employeeID.String() + ":" + gen + ":" + key
}

func (c *Calendar) generation(ctx context.Context, employeeID uuid.UUID) (string, error) {
	gen, err := c.client.Get(ctx, generationKey(employeeID)).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

// Get decodes a cached view into out. Redis failures are logged and
// reported as a miss with an empty generation, which Put ignores.
func (c *Calendar) Get(ctx context.Context, employeeID uuid.UUID, key string, out any) (string, bool) {
	gen, err := c.generation(ctx, employeeID)
	if err != nil {
		c.log.WarnContext(ctx, "cache generation lookup failed", slog.Any("err", err))
		c.observe(false)
		return "", false
	}

	b, err := c.client.Get(ctx, entryKey(employeeID, gen, key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WarnContext(ctx, "cache get failed", slog.Any("err", err), slog.String("key", key))
		}
		c.observe(false)
		return gen, false
	}
	if err := json.Unmarshal(b, out); err != nil {
		c.log.WarnContext(ctx, "cache entry undecodable", slog.Any("err", err), slog.String("key", key))
		c.observe(false)
		return gen, false
	}
	c.observe(true)
	return gen, true
}

func (c *Calendar) Put(ctx context.Context, employeeID uuid.UUID, gen, key string, v any) {
	if gen == "" {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		c.log.WarnContext(ctx, "cache encode failed", slog.Any("err", err), slog.String("key", key))
		return
	}
	if err := c.client.Set(ctx, entryKey(employeeID, gen, key), b, c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "cache put failed", slog.Any("err", err), slog.String("key", key))
	}
}

// ScheduleChanged invalidates every view of the employee.
func (c *Calendar) ScheduleChanged(ctx context.Context, employeeID uuid.UUID) {
	if err := c.client.Incr(ctx, generationKey(employeeID)).Err(); err != nil {
		c.log.ErrorContext(ctx, "cache invalidation failed",
			slog.Any("err", err),
			slog.String("employee_id", employeeID.String()),
		)
	}
}

func (c *Calendar) observe(hit bool) {
	if c.observer != nil {
		c.observer.ObserveCacheLookup(hit)
	}
}
