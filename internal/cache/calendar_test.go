package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct {
	hits, misses int
}

func (o *countingObserver) ObserveCacheLookup(hit bool) {
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

type view struct {
	Names []string `json:"names"`
}

func newCalendar(t *testing.T, opts ...Option) (*Calendar, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCalendar(client, time.Minute, opts...), mr
}

func TestCalendar_PutGet(t *testing.T) {
	obs := &countingObserver{}
	c, _ := newCalendar(t, WithLookupObserver(obs))
	ctx := context.Background()
	emp := uuid.New()

	var out view
	gen, hit := c.Get(ctx, emp, "week:2024-06-03", &out)
	require.False(t, hit)
	assert.Equal(t, "0", gen)

	c.Put(ctx, emp, gen, "week:2024-06-03", view{Names: []string{"Ana"}})

	gen, hit = c.Get(ctx, emp, "week:2024-06-03", &out)
	require.True(t, hit)
	assert.Equal(t, "0", gen)
	assert.Equal(t, []string{"Ana"}, out.Names)
	assert.Equal(t, 1, obs.hits)
	assert.Equal(t, 1, obs.misses)
}

func TestCalendar_ScheduleChangedInvalidates(t *testing.T) {
	c, _ := newCalendar(t)
	ctx := context.Background()
	emp, other := uuid.New(), uuid.New()

	var out view
	gen, _ := c.Get(ctx, emp, "k", &out)
	c.Put(ctx, emp, gen, "k", view{Names: []string{"old"}})
	otherGen, _ := c.Get(ctx, other, "k", &out)
	c.Put(ctx, other, otherGen, "k", view{Names: []string{"kept"}})

	c.ScheduleChanged(ctx, emp)

	gen, hit := c.Get(ctx, emp, "k", &out)
	assert.False(t, hit)
	assert.Equal(t, "1", gen)

	out = view{}
	_, hit = c.Get(ctx, other, "k", &out)
	require.True(t, hit)
	assert.Equal(t, []string{"kept"}, out.Names)
}

func TestCalendar_StaleGenerationNeverServed(t *testing.T) {
	c, _ := newCalendar(t)
	ctx := context.Background()
	emp := uuid.New()

	var out view
	gen, _ := c.Get(ctx, emp, "k", &out)
	// a write commits between the read and the Put
	c.ScheduleChanged(ctx, emp)
	c.Put(ctx, emp, gen, "k", view{Names: []string{"stale"}})

	_, hit := c.Get(ctx, emp, "k", &out)
	assert.False(t, hit)
}

func TestCalendar_TTL(t *testing.T) {
	c, mr := newCalendar(t)
	ctx := context.Background()
	emp := uuid.New()

	var out view
	gen, _ := c.Get(ctx, emp, "k", &out)
	c.Put(ctx, emp, gen, "k", view{})
	mr.FastForward(2 * time.Minute)

	_, hit := c.Get(ctx, emp, "k", &out)
	assert.False(t, hit)
}

func TestCalendar_RedisDown(t *testing.T) {
	c, mr := newCalendar(t)
	ctx := context.Background()
	mr.Close()

	var out view
	gen, hit := c.Get(ctx, uuid.New(), "k", &out)
	assert.False(t, hit)
	assert.Empty(t, gen)
	c.Put(ctx, uuid.New(), gen, "k", view{})
	c.ScheduleChanged(ctx, uuid.New())
}
