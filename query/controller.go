package query

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/s0up4200/cinesearch/tmdb"
)

const (
	// DefaultStaleTime is how long a fetched page is served without refetching
	DefaultStaleTime = 3 * time.Minute
	// DefaultRetries is the number of automatic retries after a failed request
	DefaultRetries = 1
	// DefaultRetryDelay is the pause before a retry
	DefaultRetryDelay = time.Second
	// DefaultMaxEntries bounds the number of cached keys
	DefaultMaxEntries = 256

	updatesBuffer = 32
)

// Fetcher performs a single search request
type Fetcher interface {
	Search(ctx context.Context, query string, page int) (*tmdb.ResultPage, error)
}

// Controller caches search results per key, shares in-flight requests and
// retries failed ones. Resolve never blocks on the network.
type Controller struct {
	fetcher    Fetcher
	backend    Backend
	logger     zerolog.Logger
	staleTime  time.Duration
	retries    int
	retryDelay time.Duration
	now        func() time.Time

	group singleflight.Group
	seq   uint64

	mu      sync.Mutex
	entries *entryCache
	// placeholder is a snapshot of the last page served as a success. Late
	// responses for other keys never modify it.
	placeholder *snapshot

	updates chan Key
	ctx     context.Context
	cancel  context.CancelFunc
}

type snapshot struct {
	key       Key
	data      *tmdb.ResultPage
	updatedAt time.Time
}

// Option configures a Controller
type Option func(*Controller)

// WithStaleTime sets how long results stay fresh
func WithStaleTime(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.staleTime = d
		}
	}
}

// WithRetries sets the number of automatic retries after a failure
func WithRetries(retries int, delay time.Duration) Option {
	return func(c *Controller) {
		if retries >= 0 {
			c.retries = retries
		}
		if delay >= 0 {
			c.retryDelay = delay
		}
	}
}

// WithMaxEntries bounds the number of cached keys
func WithMaxEntries(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.entries = newEntryCache(n)
		}
	}
}

// WithBackend adds a shared second cache tier consulted before the fetcher
func WithBackend(backend Backend) Option {
	return func(c *Controller) {
		c.backend = backend
	}
}

// withClock replaces time.Now in tests
func withClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// NewController creates a new query controller
func NewController(fetcher Fetcher, logger zerolog.Logger, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Controller{
		fetcher:    fetcher,
		logger:     logger,
		staleTime:  DefaultStaleTime,
		retries:    DefaultRetries,
		retryDelay: DefaultRetryDelay,
		now:        time.Now,
		entries:    newEntryCache(DefaultMaxEntries),
		updates:    make(chan Key, updatesBuffer),
		ctx:        ctx,
		cancel:     cancel,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Updates publishes the key of every request that settles. Sends never
// block, so a slow reader may miss keys; re-resolving the active key is
// always safe.
func (c *Controller) Updates() <-chan Key {
	return c.updates
}

// Close abandons all in-flight requests
func (c *Controller) Close() {
	c.cancel()
}

// Resolve reports the state of key, starting a background request when the
// cached value is missing or stale. With enabled false nothing is requested.
func (c *Controller) Resolve(ctx context.Context, key Key, enabled bool) Result {
	if !enabled || !key.Valid() {
		return Result{Key: key, Status: StatusIdle}
	}

	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries.getOrCreate(key)

	switch {
	case e.inflight:
		return c.pendingLocked(key, e)

	case c.recentFailure(e, now):
		return Result{Key: key, Status: StatusError, Err: e.err, UpdatedAt: e.failedAt}

	case c.fresh(e, now):
		c.placeholder = &snapshot{key: key, data: e.data, updatedAt: e.updatedAt}
		c.logger.Debug().Str("query", key.Query).Int("page", key.Page).Msg("Serving cached search results")
		return Result{Key: key, Status: StatusSuccess, Data: e.data, DataKey: key, UpdatedAt: e.updatedAt}
	}

	c.startLocked(key, e)

	return c.pendingLocked(key, e)
}

// Fetch returns the page for key, waiting for the network if needed. It
// shares the cache and in-flight requests with Resolve.
func (c *Controller) Fetch(ctx context.Context, key Key) (*tmdb.ResultPage, error) {
	if !key.Valid() {
		return nil, tmdb.ErrEmptyQuery
	}

	now := c.now()

	c.mu.Lock()
	e := c.entries.getOrCreate(key)
	var ch <-chan singleflight.Result
	switch {
	case e.inflight:
		ch = c.joinLocked(key, e)
	case c.recentFailure(e, now):
		err := e.err
		c.mu.Unlock()
		return nil, err
	case c.fresh(e, now):
		data := e.data
		c.mu.Unlock()
		return data, nil
	default:
		ch = c.startLocked(key, e)
	}
	c.mu.Unlock()

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*tmdb.ResultPage), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops the cached result for key so the next Resolve refetches
func (c *Controller) Invalidate(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.placeholder != nil && c.placeholder.key == key {
		c.placeholder = nil
	}
	return c.entries.remove(key)
}

// Len returns the number of cached keys
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.entries.len()
}

// startLocked begins a background request for key. Every flight gets its own
// name so an entry recreated after eviction never joins a finished flight.
func (c *Controller) startLocked(key Key, e *entry) <-chan singleflight.Result {
	c.seq++
	e.inflight = true
	e.flight = key.String() + "#" + strconv.FormatUint(c.seq, 10)
	return c.joinLocked(key, e)
}

func (c *Controller) joinLocked(key Key, e *entry) <-chan singleflight.Result {
	return c.group.DoChan(e.flight, func() (any, error) {
		return c.run(key)
	})
}

// pendingLocked builds the result for a key whose request is in flight.
// Stale data for the same key wins over the previously displayed key.
func (c *Controller) pendingLocked(key Key, e *entry) Result {
	if e.data != nil {
		return Result{Key: key, Status: StatusFetching, Data: e.data, DataKey: key, UpdatedAt: e.updatedAt}
	}
	if p := c.placeholder; p != nil {
		return Result{Key: key, Status: StatusFetching, Data: p.data, DataKey: p.key, UpdatedAt: p.updatedAt}
	}
	return Result{Key: key, Status: StatusLoading}
}

func (c *Controller) fresh(e *entry, now time.Time) bool {
	return e.data != nil && e.err == nil && now.Sub(e.updatedAt) < c.staleTime
}

// recentFailure reports a failed key that must not be retried yet
func (c *Controller) recentFailure(e *entry, now time.Time) bool {
	return e.err != nil && now.Sub(e.failedAt) < c.staleTime
}

// run is the body of a single flight for key
func (c *Controller) run(key Key) (*tmdb.ResultPage, error) {
	defer c.publish(key)

	// Another flight may have settled the key between the caller's check and
	// this flight starting.
	if page, ok, err := c.settled(key); ok {
		return page, err
	}

	ctx := c.ctx

	if c.backend != nil {
		page, found, err := c.backend.Get(ctx, key)
		if err != nil {
			c.logger.Warn().Err(err).Str("key", key.String()).Msg("Cache backend lookup failed")
		} else if found {
			c.logger.Debug().Str("key", key.String()).Msg("Serving search results from cache backend")
			c.store(key, page, nil)
			return page, nil
		}
	}

	page, err := c.fetchWithRetry(ctx, key)
	c.store(key, page, err)
	if err != nil {
		c.logger.Error().Err(err).Str("query", key.Query).Int("page", key.Page).Msg("Search request failed")
		return nil, err
	}

	if c.backend != nil {
		if err := c.backend.Set(ctx, key, page, c.staleTime); err != nil {
			c.logger.Warn().Err(err).Str("key", key.String()).Msg("Failed to store search results in cache backend")
		}
	}

	return page, nil
}

func (c *Controller) settled(key Key) (*tmdb.ResultPage, bool, error) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries.get(key)
	if e == nil {
		return nil, false, nil
	}
	if c.fresh(e, now) {
		e.inflight = false
		return e.data, true, nil
	}
	if c.recentFailure(e, now) {
		e.inflight = false
		return nil, true, e.err
	}
	return nil, false, nil
}

func (c *Controller) store(key Key, page *tmdb.ResultPage, err error) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries.getOrCreate(key)
	e.inflight = false
	if err != nil {
		e.err = err
		e.failedAt = now
		return
	}
	e.data = page
	e.err = nil
	e.updatedAt = now
}

func (c *Controller) publish(key Key) {
	select {
	case c.updates <- key:
	default:
	}
}

// fetchWithRetry calls the fetcher, retrying transient failures
func (c *Controller) fetchWithRetry(ctx context.Context, key Key) (*tmdb.ResultPage, error) {
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.logger.Warn().
				Err(lastErr).
				Str("query", key.Query).
				Int("page", key.Page).
				Int("attempt", attempt+1).
				Msg("Retrying search request")

			if err := sleep(ctx, c.retryDelay); err != nil {
				return nil, err
			}
		}

		page, err := c.fetcher.Search(ctx, key.Query, key.Page)
		if err == nil {
			return page, nil
		}
		lastErr = err

		if !retryable(ctx, err) {
			break
		}
	}

	return nil, fmt.Errorf("search %q page %d: %w", key.Query, key.Page, lastErr)
}

// retryable reports whether err may succeed on another attempt.
// Configuration errors and cancellation never do.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, tmdb.ErrInvalidConfig) || errors.Is(err, tmdb.ErrEmptyQuery) {
		return false
	}
	return !errors.Is(err, context.Canceled)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
