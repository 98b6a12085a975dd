package search

import (
	"errors"
	"fmt"
	"strings"

	"github.com/s0up4200/cinesearch/query"
	"github.com/s0up4200/cinesearch/tmdb"
)

var (
	// ErrPageOutOfRange is returned for a page below 1 or past the last known page
	ErrPageOutOfRange = errors.New("page out of range")
	// ErrNoSuchItem is returned when selecting a movie that is not rendered
	ErrNoSuchItem = errors.New("no such item on the current page")
	// ErrUnknownEvent is returned for events Reduce does not handle
	ErrUnknownEvent = errors.New("unknown event")
)

// State is everything the user controls: the submitted query, the page and
// the open detail view.
type State struct {
	Query    string
	Page     int
	Selected *tmdb.Movie
	// TotalPages is the last page count reported for Query
	TotalPages int
	// PagesKnown is set once a result for Query reported TotalPages, which
	// may be 0 for a search without results
	PagesKnown bool
}

// NewState returns the state before any search was submitted
func NewState() State {
	return State{Page: 1}
}

// Enabled reports whether a search should run for this state
func (s State) Enabled() bool {
	return strings.TrimSpace(s.Query) != ""
}

// Key returns the cache key for the active query and page
func (s State) Key() query.Key {
	return query.NewKey(s.Query, s.Page)
}

// LastPage returns the highest page the last result allows, 0 when no
// result reported a page count or the search found nothing
func (s State) LastPage() int {
	return min(s.TotalPages, tmdb.MaxPage)
}

// bounded reports whether ChangePage is checked against LastPage
func (s State) bounded() bool {
	return s.PagesKnown || s.TotalPages > 0
}

// Event is a user intent reported by the presentation surface
type Event interface {
	event()
}

// SubmitSearch starts a new search for Text
type SubmitSearch struct {
	Text string
}

// ChangePage moves to a 1-based page of the current search
type ChangePage struct {
	Page int
}

// SelectItem opens the detail view for Movie
type SelectItem struct {
	Movie tmdb.Movie
}

// CloseDetail closes the detail view
type CloseDetail struct{}

func (SubmitSearch) event() {}
func (ChangePage) event()   {}
func (SelectItem) event()   {}
func (CloseDetail) event()  {}

// Reduce applies ev to s and returns the new state. It has no side effects.
// On error the returned state is s unchanged.
func Reduce(s State, ev Event) (State, error) {
	switch ev := ev.(type) {
	case SubmitSearch:
		trimmed := strings.TrimSpace(ev.Text)
		if trimmed == "" {
			return s, nil
		}
		return State{Query: trimmed, Page: 1}, nil

	case ChangePage:
		if ev.Page < 1 {
			return s, fmt.Errorf("%w: %d", ErrPageOutOfRange, ev.Page)
		}
		if ev.Page == s.Page {
			return s, nil
		}
		if last := s.LastPage(); s.bounded() && ev.Page > last {
			return s, fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, ev.Page, last)
		}
		s.Page = ev.Page
		s.Selected = nil
		return s, nil

	case SelectItem:
		movie := ev.Movie
		s.Selected = &movie
		return s, nil

	case CloseDetail:
		s.Selected = nil
		return s, nil

	default:
		return s, fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}
}
