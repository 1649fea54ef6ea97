package querycache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultStaleTime applies to keys queried without an explicit staleness window.
	DefaultStaleTime = time.Minute
	// DefaultRetries is the number of extra attempts after a failed fetch.
	DefaultRetries    = 1
	defaultRetryDelay = 200 * time.Millisecond
)

// DefaultFetchTimeout bounds one shared fetch, retries included.
const DefaultFetchTimeout = 10 * time.Second

// FetchFunc loads a fresh value for a key.
type FetchFunc func(ctx context.Context) (any, error)

// Observer receives cache outcomes. Implemented by internal/metrics.
type Observer interface {
	CacheHit(key string)
	CacheMiss(key string)
	FetchError(key string)
}

// Options configures the client.
type Options struct {
	StaleTime  time.Duration
	Retries    int
	RetryDelay time.Duration
	// FetchTimeout <= 0 uses DefaultFetchTimeout.
	FetchTimeout time.Duration
	Observer     Observer
}

// Client is a process-wide query cache. Concurrent callers for the same key
// share one in-flight fetch; values younger than their staleness window are
// served without fetching; failed fetches are retried a bounded number of times
// and never cached.
type Client struct {
	entries    *gocache.Cache
	flight     singleflight.Group
	staleTime  time.Duration
	retries    int
	retryDelay   time.Duration
	fetchTimeout time.Duration
	observer     Observer
}

// New constructs a client.
func New(opts Options) *Client {
	staleTime := opts.StaleTime
	if staleTime <= 0 {
		staleTime = DefaultStaleTime
	}
	retries := opts.Retries
	if retries < 0 {
		retries = 0
	}
	retryDelay := opts.RetryDelay
	if retryDelay < 0 {
		retryDelay = 0
	}
	fetchTimeout := opts.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}
	return &Client{
		// No janitor goroutine: the key set is small and Get already honors expiry.
		entries:      gocache.New(staleTime, 0),
		staleTime:    staleTime,
		retries:      retries,
		retryDelay:   retryDelay,
		fetchTimeout: fetchTimeout,
		observer:     opts.Observer,
	}
}

// NewDefault returns a client with the default retry policy.
func NewDefault(observer Observer) *Client {
	return New(Options{Retries: DefaultRetries, RetryDelay: defaultRetryDelay, Observer: observer})
}

// permanentError marks a failure that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so Query does not retry it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Query returns the cached value for key or fetches it. staleTime <= 0 uses the client default.
func (c *Client) Query(ctx context.Context, key string, staleTime time.Duration, fetch FetchFunc) (any, error) {
	if v, ok := c.entries.Get(key); ok {
		c.hit(key)
		return v, nil
	}
	c.miss(key)
	if staleTime <= 0 {
		staleTime = c.staleTime
	}
	v, err, _ := c.flight.Do(key, func() (any, error) {
		// A caller that lost the race may find the value already stored.
		if v, ok := c.entries.Get(key); ok {
			return v, nil
		}
		// The fetch is shared by every joined caller, so it must outlive the
		// first caller's cancellation.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		v, err := c.fetchWithRetry(fetchCtx, key, fetch)
		if err != nil {
			return nil, err
		}
		c.entries.Set(key, v, staleTime)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (c *Client) fetchWithRetry(ctx context.Context, key string, fetch FetchFunc) (any, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 && c.retryDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}
		v, err := fetch(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if c.observer != nil {
			c.observer.FetchError(key)
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return nil, perm.err
		}
		slog.Debug("query fetch failed", "key", key, "attempt", attempt+1, "err", err)
	}
	return nil, lastErr
}

// Invalidate drops a cached key so the next Query refetches.
func (c *Client) Invalidate(key string) {
	c.entries.Delete(key)
}

// InvalidateAll drops every cached key, e.g. after the store reconnects.
func (c *Client) InvalidateAll() {
	c.entries.Flush()
}

func (c *Client) hit(key string) {
	if c.observer != nil {
		c.observer.CacheHit(key)
	}
}

func (c *Client) miss(key string) {
	if c.observer != nil {
		c.observer.CacheMiss(key)
	}
}
