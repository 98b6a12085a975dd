package radarr

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golift.io/starr"
	"golift.io/starr/radarr"

	"github.com/s0up4200/cinesearch/tmdb"
)

const (
	// DefaultCacheTTL is how long a library lookup is reused
	DefaultCacheTTL = 5 * time.Minute
	// DefaultConcurrency bounds parallel lookups for a page of movies
	DefaultConcurrency = 5
)

// LibraryStatus describes a TMDB movie's presence in the Radarr library
type LibraryStatus struct {
	TMDBID    int64
	InLibrary bool
	RadarrID  int64
	HasFile   bool
	Monitored bool
	Added     time.Time
	Path      string
}

type cachedStatus struct {
	status  *LibraryStatus
	expires time.Time
}

// Client looks up search results in a Radarr library
type Client struct {
	client   RadarrAPI
	logger   zerolog.Logger
	cacheTTL time.Duration
	now      func() time.Time

	mu    sync.Mutex
	cache map[int64]cachedStatus
}

// NewClient creates a new Radarr client and verifies the connection
func NewClient(url, apiKey string, logger zerolog.Logger) (*Client, error) {
	config := starr.New(apiKey, url, 30*time.Second)
	radarrClient := radarr.New(config)

	if err := radarrClient.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to Radarr: %w", err)
	}

	return NewClientWithAPI(radarrClient, logger), nil
}

// NewClientWithAPI creates a client on top of an existing API implementation
func NewClientWithAPI(api RadarrAPI, logger zerolog.Logger) *Client {
	return &Client{
		client:   api,
		logger:   logger,
		cacheTTL: DefaultCacheTTL,
		now:      time.Now,
		cache:    make(map[int64]cachedStatus),
	}
}

// Lookup reports whether the movie with the given TMDB id is in the library
func (c *Client) Lookup(ctx context.Context, tmdbID int64) (*LibraryStatus, error) {
	if status, ok := c.cached(tmdbID); ok {
		return status, nil
	}

	movies, err := c.client.GetMovieContext(ctx, &radarr.GetMovie{TMDBID: tmdbID, ExcludeLocalCovers: true})
	if err != nil {
		return nil, fmt.Errorf("failed to look up TMDB id %d: %w", tmdbID, err)
	}

	status := &LibraryStatus{TMDBID: tmdbID}
	for _, movie := range movies {
		if movie == nil || movie.TmdbID != tmdbID {
			continue
		}
		status.InLibrary = true
		status.RadarrID = movie.ID
		status.HasFile = movie.HasFile
		status.Monitored = movie.Monitored
		status.Added = movie.Added
		status.Path = movie.Path
		break
	}

	c.logger.Debug().
		Int64("tmdb_id", tmdbID).
		Bool("in_library", status.InLibrary).
		Msg("Looked up movie in Radarr")

	c.store(status)
	return status, nil
}

// LookupMovies looks up every movie concurrently. Failed lookups are logged
// and left out of the result.
func (c *Client) LookupMovies(ctx context.Context, movies []tmdb.Movie) (map[int64]*LibraryStatus, error) {
	results := make(map[int64]*LibraryStatus, len(movies))
	if len(movies) == 0 {
		return results, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultConcurrency)

	var mu sync.Mutex

	for _, movie := range movies {
		g.Go(func() error {
			status, err := c.Lookup(ctx, movie.ID)
			if err != nil {
				c.logger.Warn().
					Err(err).
					Int64("tmdb_id", movie.ID).
					Str("movie", movie.Title).
					Msg("Failed to look up movie in Radarr")
				return nil
			}

			mu.Lock()
			results[movie.ID] = status
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// TestConnection returns the Radarr version when the API is reachable
func (c *Client) TestConnection(ctx context.Context) (string, error) {
	status, err := c.client.GetSystemStatusContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get Radarr system status: %w", err)
	}
	return status.Version, nil
}

func (c *Client) cached(tmdbID int64) (*LibraryStatus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.cache[tmdbID]
	if !ok || c.now().After(entry.expires) {
		return nil, false
	}
	return entry.status, true
}

func (c *Client) store(status *LibraryStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache[status.TMDBID] = cachedStatus{status: status, expires: c.now().Add(c.cacheTTL)}
}
