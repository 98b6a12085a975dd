package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/s0up4200/cinesearch/tmdb"
)

// Key identifies one cacheable search result
type Key struct {
	Query string
	Page  int
}

// NewKey builds a key from raw user input
func NewKey(query string, page int) Key {
	return Key{Query: strings.TrimSpace(query), Page: page}
}

// String returns a stable identity for the key
func (k Key) String() string {
	return "movies:" + strconv.Itoa(k.Page) + ":" + k.Query
}

// Valid reports whether the key may be sent to the remote service
func (k Key) Valid() bool {
	return strings.TrimSpace(k.Query) != "" && k.Page >= 1
}

// Status describes the state of a key in the controller
type Status int

const (
	// StatusIdle means no search is enabled
	StatusIdle Status = iota
	// StatusLoading means a request is in flight and there is no data to show
	StatusLoading
	// StatusFetching means a request is in flight while older data is shown
	StatusFetching
	// StatusSuccess means the data for the key is available
	StatusSuccess
	// StatusError means the last request for the key failed
	StatusError
)

// String returns the string representation of a Status
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusFetching:
		return "fetching"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Pending reports whether a request is in flight
func (s Status) Pending() bool {
	return s == StatusLoading || s == StatusFetching
}

// Result is what the controller reports for a key
type Result struct {
	Key    Key
	Status Status
	// Data may belong to a different key while Status is StatusFetching
	Data *tmdb.ResultPage
	// DataKey is the key Data was fetched for
	DataKey   Key
	Err       error
	UpdatedAt time.Time
}

// IsPlaceholder reports whether Data belongs to another key
func (r Result) IsPlaceholder() bool {
	return r.Data != nil && r.DataKey != r.Key
}

// Settled reports whether the key reached a terminal status
func (r Result) Settled() bool {
	return r.Status == StatusSuccess || r.Status == StatusError
}
