package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/nicekwell/postboard/internal/metrics"
)

const DefaultOpTimeout = 250 * time.Millisecond

// Outcome tags the result of a cache call. Callers decide what to do on
// Degraded; the client never returns the underlying error.
type Outcome int

const (
	Miss Outcome = iota
	Hit
	OK
	Degraded
)

func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case Miss:
		return "miss"
	case OK:
		return "ok"
	case Degraded:
		return "degraded"
	default:
		return "unknown"
	}
}

type Result struct {
	Outcome Outcome
	Value   []byte
}

var errNoBackend = errors.New("cache backend not configured")

// Client is the best-effort face of a Store. Every call runs under Timeout and
// any backend error is logged and reported as Degraded.
type Client struct {
	Store   Store
	Timeout time.Duration
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

func (c *Client) Get(ctx context.Context, key string) Result {
	if c == nil || c.Store == nil {
		c.degraded("get", key, errNoBackend)
		return Result{Outcome: Degraded}
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	b, found, err := c.Store.Get(ctx, key)
	if err != nil {
		c.degraded("get", key, err)
		return Result{Outcome: Degraded}
	}
	if !found {
		c.Metrics.CacheRequest("get", Miss.String())
		return Result{Outcome: Miss}
	}
	c.Metrics.CacheRequest("get", Hit.String())
	return Result{Outcome: Hit, Value: b}
}

func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) Outcome {
	if c == nil || c.Store == nil {
		c.degraded("set", key, errNoBackend)
		return Degraded
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.Store.Set(ctx, key, value, ttl); err != nil {
		c.degraded("set", key, err)
		return Degraded
	}
	c.Metrics.CacheRequest("set", OK.String())
	return OK
}

func (c *Client) Delete(ctx context.Context, key string) Outcome {
	if c == nil || c.Store == nil {
		c.degraded("delete", key, errNoBackend)
		return Degraded
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.Store.Delete(ctx, key); err != nil {
		c.degraded("delete", key, err)
		return Degraded
	}
	c.Metrics.CacheRequest("delete", OK.String())
	return OK
}

// Ping reports whether the backend answered within Timeout. It is the only
// method that hands an error back, for health reporting.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.Store == nil {
		return errNoBackend
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.Store.Ping(ctx)
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	d := c.Timeout
	if d <= 0 {
		d = DefaultOpTimeout
	}
	return context.WithTimeout(ctx, d)
}

func (c *Client) degraded(op, key string, err error) {
	if c == nil {
		return
	}
	c.Metrics.CacheRequest(op, Degraded.String())
	if c.Logger != nil {
		c.Logger.Warn("cache degraded",
			zap.String("op", op),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
