// Package tmdb provides a client for The Movie Database (TMDB) v3 search API.
//
// The client issues exactly one HTTP request per call. Caching, retries and
// request de-duplication are layered above it by the query package.
//
// # Usage
//
//	logger := zerolog.New(os.Stderr)
//	client, err := tmdb.NewClient(
//		"",             // defaults to https://api.themoviedb.org/3
//		os.Getenv("TMDB_TOKEN"),
//		logger,
//		tmdb.WithTimeout(10*time.Second),
//		tmdb.WithRateLimit(20, 5),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	page, err := client.Search(ctx, "batman", 1)
//
// # Error Handling
//
//   - ErrMissingToken: no bearer token configured; no request is sent
//   - ErrTransport: the request could not be completed or returned non-2xx
//   - ErrDecode: the response body did not match the expected shape
//   - APIError: non-2xx response with TMDB's status code and message
//
//	var apiErr *tmdb.APIError
//	if errors.As(err, &apiErr) && apiErr.IsUnauthorized() {
//		// Handle bad token
//	}
package tmdb
