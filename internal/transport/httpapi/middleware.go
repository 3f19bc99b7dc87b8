package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"salonbook/backend/internal/auth"
	"salonbook/backend/internal/domain"
	"salonbook/backend/internal/metrics"
)

func authenticate(authn authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			token := auth.BearerToken(req.Header.Get(echo.HeaderAuthorization))
			actor, err := authn.Authenticate(req.Context(), token)
			if err != nil {
				if errors.Is(err, auth.ErrUnauthenticated) {
					return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid bearer token")
				}
				return err
			}
			c.SetRequest(req.WithContext(auth.WithActor(req.Context(), actor)))
			return next(c)
		}
	}
}

func actorOf(c echo.Context) domain.Actor {
	actor, _ := auth.ActorFrom(c.Request().Context())
	return actor
}

func requestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if _, ok := req.Context().Deadline(); ok {
				return next(c)
			}
			ctx, cancel := context.WithTimeout(req.Context(), timeout)
			defer cancel()
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

func observe(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			elapsed := time.Since(start)
			req := c.Request()
			code := c.Response().Status
			metrics.ObserveHTTPRequest(req.Method, c.Path(), code, elapsed)
			log.Debug("request served",
				slog.String("method", req.Method),
				slog.String("route", c.Path()),
				slog.Int("status", code),
				slog.Duration("elapsed", elapsed),
			)
			return nil
		}
	}
}

type limiterEntry struct {
	limiter *rate.Limiter
	seen    time.Time
}

// rateLimiter keeps one token bucket per actor.
type rateLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*limiterEntry
	now      func() time.Time
}

const (
	limiterIdle    = 10 * time.Minute
	pruneThreshold = 1024
)

func newRateLimiter(rps float64, burst int) *rateLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*limiterEntry),
		now:      time.Now,
	}
}

func (l *rateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.limiters[key]
	if !ok {
		if len(l.limiters) >= pruneThreshold {
			l.prune(now)
		}
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = entry
	}
	entry.seen = now
	return entry.limiter.AllowN(now, 1)
}

func (l *rateLimiter) prune(now time.Time) {
	for key, entry := range l.limiters {
		if now.Sub(entry.seen) > limiterIdle {
			delete(l.limiters, key)
		}
	}
}

func (l *rateLimiter) middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			if actor, ok := auth.ActorFrom(c.Request().Context()); ok {
				key = actor.UserID.String()
			}
			if !l.allow(key) {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded, try again later")
			}
			return next(c)
		}
	}
}
