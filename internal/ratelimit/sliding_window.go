package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultLimit  = 3
	DefaultWindow = 5 * time.Minute
	defaultPrefix = "ocakbasi:ratelimit"
	callTimeout   = 2 * time.Second
)

// Outcomes reported to the Observer.
const (
	OutcomeAllowed  = "allowed"
	OutcomeDenied   = "denied"
	OutcomeFailOpen = "fail_open"
)

// The sorted set holds one member per accepted request, scored by its time in ms.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call("ZREMRANGEBYSCORE", key, "-inf", now - window)
local count = redis.call("ZCARD", key)
local allowed = 0
if count < limit then
  redis.call("ZADD", key, now, ARGV[4])
  redis.call("PEXPIRE", key, window)
  count = count + 1
  allowed = 1
end
local reset = now + window
local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
if oldest[2] then
  reset = tonumber(oldest[2]) + window
end
return {allowed, count, reset}
`)

// Decision is the outcome of one Check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// RetryAfter is how long a denied caller should wait, rounded up to a second.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.Reset.Sub(now)
	if wait <= 0 {
		return 0
	}
	return wait.Truncate(time.Second) + time.Second
}

// Observer receives each decision's outcome.
type Observer interface {
	RateLimitDecision(outcome string)
}

// Config describes the Redis connection and the quota.
type Config struct {
	Addr     string
	Password string
	Prefix   string
	Limit    int
	Window   time.Duration
}

// Option customizes a limiter.
type Option func(*SlidingWindowLimiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *SlidingWindowLimiter) { l.now = now }
}

// WithClient uses an existing Redis client instead of dialing Config.Addr.
func WithClient(client *redis.Client) Option {
	return func(l *SlidingWindowLimiter) { l.client = client }
}

// WithObserver reports outcomes to o.
func WithObserver(o Observer) Option {
	return func(l *SlidingWindowLimiter) { l.observer = o }
}

// WithLogger sets the logger used for fail-open warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(l *SlidingWindowLimiter) { l.logger = logger }
}

// SlidingWindowLimiter admits at most Limit requests per key in any trailing
// Window. It fails open: without Redis, or when Redis errors, every request is
// allowed and a warning is logged.
type SlidingWindowLimiter struct {
	client   *redis.Client
	prefix   string
	limit    int
	window   time.Duration
	now      func() time.Time
	observer Observer
	logger   *slog.Logger
}

// NewSlidingWindowLimiter builds a limiter. An empty Addr yields a limiter that
// is not configured and allows everything.
func NewSlidingWindowLimiter(cfg Config, opts ...Option) *SlidingWindowLimiter {
	l := &SlidingWindowLimiter{
		prefix: strings.TrimSpace(cfg.Prefix),
		limit:  cfg.Limit,
		window: cfg.Window,
		now:    time.Now,
		logger: slog.Default(),
	}
	if l.prefix == "" {
		l.prefix = defaultPrefix
	}
	if l.limit <= 0 {
		l.limit = DefaultLimit
	}
	if l.window <= 0 {
		l.window = DefaultWindow
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.client == nil {
		if addr := strings.TrimSpace(cfg.Addr); addr != "" {
			l.client = redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Password})
		}
	}
	return l
}

// Configured reports whether a Redis backend is attached.
func (l *SlidingWindowLimiter) Configured() bool {
	return l != nil && l.client != nil
}

// Check records an attempt for key and reports whether it is within quota.
func (l *SlidingWindowLimiter) Check(ctx context.Context, key string) Decision {
	if l == nil {
		return Decision{Allowed: true}
	}
	now := l.now()
	if l.client == nil {
		l.logger.Warn("rate limiter not configured, allowing request")
		return l.failOpen(now)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	res, err := slidingWindowScript.Run(ctx, l.client,
		[]string{fmt.Sprintf("%s:%s", l.prefix, key)},
		now.UnixMilli(), l.window.Milliseconds(), l.limit, fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString()),
	).Int64Slice()
	if err != nil || len(res) != 3 {
		l.logger.Warn("rate limiter unavailable, allowing request", "key", key, "err", err)
		return l.failOpen(now)
	}

	d := Decision{
		Allowed:   res[0] == 1,
		Limit:     l.limit,
		Remaining: max(l.limit-int(res[1]), 0),
		Reset:     time.UnixMilli(res[2]),
	}
	if d.Allowed {
		l.observe(OutcomeAllowed)
	} else {
		l.observe(OutcomeDenied)
	}
	return d
}

// Close releases the Redis client.
func (l *SlidingWindowLimiter) Close() error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Close()
}

func (l *SlidingWindowLimiter) failOpen(now time.Time) Decision {
	l.observe(OutcomeFailOpen)
	return Decision{Allowed: true, Limit: l.limit, Remaining: l.limit, Reset: now.Add(l.window)}
}

func (l *SlidingWindowLimiter) observe(outcome string) {
	if l.observer != nil {
		l.observer.RateLimitDecision(outcome)
	}
}
