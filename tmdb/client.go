package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the TMDB v3 API root
	DefaultBaseURL = "https://api.themoviedb.org/3"
	// DefaultLanguage is the language tag sent with every search
	DefaultLanguage = "en-US"
	// MaxPage is the highest page TMDB serves for a search, whatever total_pages says
	MaxPage = 500
	// DefaultTimeout bounds a request made with the client's own HTTP client
	DefaultTimeout = 30 * time.Second

	maxBodySize = 2 << 20
)

// Client represents a TMDB API client
type Client struct {
	baseURL    string
	token      string
	language   string
	userAgent  string
	httpClient *http.Client
	timeout    time.Duration
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient creates a new TMDB client. The bearer token is validated here so
// that a missing credential fails at startup rather than on first search.
func NewClient(baseURL, token string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}

	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("%w: invalid base URL %q: %v", ErrInvalidConfig, baseURL, err)
	}

	client := &Client{
		baseURL:  baseURL,
		token:    token,
		language: DefaultLanguage,
		timeout:  DefaultTimeout,
		logger:   logger,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: client.timeout}
	}

	return client, nil
}

// Search performs a single movie search request for the given page
func (c *Client) Search(ctx context.Context, query string, page int) (*ResultPage, error) {
	if c == nil || c.token == "" {
		return nil, ErrMissingToken
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("include_adult", "false")
	params.Set("language", c.language)

	body, err := c.doRequest(ctx, http.MethodGet, "/search/movie", params)
	if err != nil {
		return nil, err
	}

	result, err := decodeResultPage(body)
	if err != nil {
		return nil, err
	}
	if result.Page == 0 {
		result.Page = page
	}

	c.logger.Debug().
		Str("query", query).
		Int("page", page).
		Int("count", len(result.Results)).
		Int("total_pages", result.TotalPages).
		Int("total_results", result.TotalResults).
		Msg("Retrieved search results from TMDB")

	return result, nil
}

// TestConnection verifies that the configured token is accepted by TMDB
func (c *Client) TestConnection(ctx context.Context) error {
	if c == nil || c.token == "" {
		return ErrMissingToken
	}
	_, err := c.doRequest(ctx, http.MethodGet, "/authentication", nil)
	return err
}

// doRequest performs an HTTP request with authentication
func (c *Client) doRequest(ctx context.Context, method, endpoint string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %w", ErrTransport, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, body)
	}

	return body, nil
}

func newAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		Message:    http.StatusText(statusCode),
	}

	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.StatusMessage != "" {
		apiErr.Code = errResp.StatusCode
		apiErr.Message = errResp.StatusMessage
	} else if msg := strings.TrimSpace(string(body)); msg != "" && len(msg) < 256 {
		apiErr.Message = msg
	}

	return apiErr
}

func decodeResultPage(body []byte) (*ResultPage, error) {
	var raw searchResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, &DecodeError{Reason: "invalid JSON", Err: err}
		}
		return nil, &DecodeError{Reason: "unexpected response shape", Err: err}
	}

	if raw.Results == nil {
		return nil, &DecodeError{Reason: "missing results"}
	}
	if raw.TotalPages == nil {
		return nil, &DecodeError{Reason: "missing total_pages"}
	}

	result := &ResultPage{
		Results:    raw.Results,
		TotalPages: *raw.TotalPages,
	}
	if raw.Page != nil {
		result.Page = *raw.Page
	}
	if raw.TotalResults != nil {
		result.TotalResults = *raw.TotalResults
	} else {
		// Older code paths omit total_results; the page itself is the best estimate
		result.TotalResults = len(raw.Results)
	}

	return result, nil
}
