package radarr

import (
	"context"

	"golift.io/starr/radarr"
)

// RadarrAPI defines the Radarr API operations used for library lookups
type RadarrAPI interface {
	// Movie operations
	GetMovieContext(ctx context.Context, params *radarr.GetMovie) ([]*radarr.Movie, error)

	// System operations
	GetSystemStatusContext(ctx context.Context) (*radarr.SystemStatus, error)

	// Health check
	Ping() error
}
