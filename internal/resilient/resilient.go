// Package resilient wraps remote tool invocations with transient-only
// retry, exponential backoff, and an optional global rate limit.
package resilient

import (
	"context"
	"errors"
	"log"
	"math/rand/v2"
	"net"
	"time"

	"github.com/docent-ai/placard-pipeline/internal/provider"
	"golang.org/x/time/rate"
)

type Options struct {
	MaxRetries     int
	AttemptTimeout time.Duration

	// RateLimitRPS is a global limit shared by every call through the
	// same Caller. Set to <=0 to disable.
	RateLimitRPS float64

	// BackoffInitial is the initial sleep before retrying a transient failure.
	BackoffInitial time.Duration
	// BackoffMax caps exponential backoff.
	BackoffMax time.Duration
	// BackoffJitterFrac applies +/- jitter to backoff sleeps (0.2 = +/-20%).
	BackoffJitterFrac float64

	Logger *log.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.AttemptTimeout <= 0 {
		o.AttemptTimeout = 30 * time.Second
	}
	if o.BackoffInitial <= 0 {
		o.BackoffInitial = 200 * time.Millisecond
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = 2 * time.Second
	}
	return o
}

// Caller retries transient remote failures. Tool rejections and every
// other non-transient error fail after the first attempt.
type Caller struct {
	opts    Options
	limiter *rate.Limiter
	logger  *log.Logger
}

func New(opts Options) *Caller {
	opts = opts.withDefaults()
	c := &Caller{opts: opts, logger: opts.Logger}
	if opts.RateLimitRPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), 1)
	}
	return c
}

// Call invokes op up to 1+MaxRetries times. Each attempt runs under its
// own timeout so a hung remote call cannot occupy a slot forever.
func Call[T any](ctx context.Context, c *Caller, name string, op func(context.Context) (T, error)) (T, error) {
	var lastRes T
	var lastErr error

	attempts := 1 + c.opts.MaxRetries
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return lastRes, err
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return lastRes, err
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.opts.AttemptTimeout)
		res, err := op(attemptCtx)
		cancel()
		if err == nil {
			return res, nil
		}
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return lastRes, ctx.Err()
		}

		lastRes, lastErr = res, err
		if !IsTransient(err) || attempt == attempts-1 {
			if c.logger != nil {
				c.logger.Printf("call %s: giving up after attempt %d: %v", name, attempt+1, err)
			}
			return lastRes, err
		}

		sleep := backoffSleep(c.opts.BackoffInitial, c.opts.BackoffMax, c.opts.BackoffJitterFrac, attempt)
		if c.logger != nil {
			c.logger.Printf("call %s: transient failure on attempt %d, retrying in %s: %v", name, attempt+1, sleep, err)
		}
		t := time.NewTimer(sleep)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return lastRes, ctx.Err()
		}
	}
	return lastRes, lastErr
}

// IsTransient reports whether an error is worth retrying. Tool
// rejections are explicitly permanent even when they wrap a net error.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var toolErr *provider.ToolError
	if errors.As(err, &toolErr) {
		return false
	}
	var te *provider.TransientError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout() || ne.Temporary()
	}
	return false
}

func backoffSleep(initial, max time.Duration, jitterFrac float64, attempt int) time.Duration {
	sleep := initial
	for i := 0; i < attempt && sleep < max; i++ {
		sleep *= 2
		if sleep > max {
			sleep = max
			break
		}
	}
	if jitterFrac <= 0 {
		return sleep
	}
	// Apply +/- jitterFrac.
	j := 1 + (rand.Float64()*2-1)*jitterFrac
	return time.Duration(float64(sleep) * j)
}
