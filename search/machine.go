package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/s0up4200/cinesearch/notify"
	"github.com/s0up4200/cinesearch/query"
	"github.com/s0up4200/cinesearch/tmdb"
)

// Resolver reports the state of a cache key without blocking
type Resolver interface {
	Resolve(ctx context.Context, key query.Key, enabled bool) query.Result
}

// invalidator is implemented by resolvers that can drop a cached result
type invalidator interface {
	Invalidate(key query.Key) bool
}

// View is what the presentation surface renders
type View struct {
	State  State
	Status query.Status
	// Movies is empty while loading and on error
	Movies       []tmdb.Movie
	TotalPages   int
	TotalResults int
	// Loading is set while any request for the active key is in flight
	Loading bool
	Failed  bool
	Err     error
	// ShowPager is set when there is more than one page to choose from
	ShowPager bool
	// Stale is set when Movies belong to a previous key
	Stale bool
}

// observation is what the reactive rules saw on the previous refresh
type observation struct {
	key   query.Key
	error bool
	empty bool
}

// Machine owns the search state, resolves the active key through the query
// controller and decides when the user is notified.
type Machine struct {
	resolver Resolver
	notifier notify.Notifier
	logger   zerolog.Logger

	mu    sync.Mutex
	state State
	last  observation
	data  *tmdb.ResultPage
}

// NewMachine creates a new Machine in its initial state
func NewMachine(resolver Resolver, notifier notify.Notifier, logger zerolog.Logger) *Machine {
	return &Machine{
		resolver: resolver,
		notifier: notifier,
		logger:   logger,
		state:    NewState(),
	}
}

// State returns a copy of the current state
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// Dispatch applies ev and returns the refreshed view. A rejected event leaves
// the state unchanged and is returned as the error alongside the current view.
func (m *Machine) Dispatch(ctx context.Context, ev Event) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sel, ok := ev.(SelectItem); ok && !m.rendered(sel.Movie.ID) {
		return m.refreshLocked(ctx), fmt.Errorf("%w: movie %d", ErrNoSuchItem, sel.Movie.ID)
	}

	// The page count may have settled since the last refresh
	if _, ok := ev.(ChangePage); ok && m.state.Enabled() {
		m.refreshLocked(ctx)
	}

	next, err := Reduce(m.state, ev)
	if err != nil {
		m.logger.Debug().Err(err).Type("event", ev).Msg("Event rejected")
		return m.refreshLocked(ctx), err
	}

	if next.Query != m.state.Query {
		m.logger.Debug().Str("query", next.Query).Msg("New search submitted")
	}
	m.state = next

	return m.refreshLocked(ctx), nil
}

// Select opens the detail view for the movie at the 1-based index of
// listing, which is what the user sees: the rendered page or a subset of
// it. A nil listing selects from the rendered page.
func (m *Machine) Select(ctx context.Context, listing []tmdb.Movie, index int) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if listing == nil && m.data != nil {
		listing = m.data.Results
	}
	if index < 1 || index > len(listing) {
		return m.refreshLocked(ctx), fmt.Errorf("%w: %d", ErrNoSuchItem, index)
	}

	movie := listing[index-1]
	if !m.rendered(movie.ID) {
		return m.refreshLocked(ctx), fmt.Errorf("%w: movie %d", ErrNoSuchItem, movie.ID)
	}

	m.state, _ = Reduce(m.state, SelectItem{Movie: movie})
	return m.refreshLocked(ctx), nil
}

// Reload drops the cached result for the active key, when the resolver
// supports it, and resolves the key again
func (m *Machine) Reload(ctx context.Context) View {
	m.mu.Lock()
	defer m.mu.Unlock()

	if inv, ok := m.resolver.(invalidator); ok && m.state.Enabled() {
		if inv.Invalidate(m.state.Key()) {
			m.logger.Debug().Str("key", m.state.Key().String()).Msg("Reloading search")
		}
	}
	return m.refreshLocked(ctx)
}

// Refresh resolves the active key, applies the reactive rules and returns
// the view. It is called after every event and whenever a request settles.
func (m *Machine) Refresh(ctx context.Context) View {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.refreshLocked(ctx)
}

func (m *Machine) refreshLocked(ctx context.Context) View {
	if !m.state.Enabled() {
		m.last = observation{}
		m.data = nil
		return View{State: m.state, Status: query.StatusIdle}
	}

	key := m.state.Key()
	res := m.resolver.Resolve(ctx, key, true)
	m.react(key, res)

	view := View{
		State:   m.state,
		Status:  res.Status,
		Loading: res.Status.Pending(),
		Failed:  res.Status == query.StatusError,
		Err:     res.Err,
	}

	// An error never shows movies, not even those of a previous key
	if res.Status == query.StatusError || res.Data == nil {
		m.data = nil
		return view
	}

	m.data = res.Data
	view.Movies = res.Data.Results
	view.TotalPages = res.Data.TotalPages
	view.TotalResults = res.Data.TotalResults
	view.ShowPager = res.Data.TotalPages > 1
	view.Stale = res.IsPlaceholder()
	return view
}

// react runs the notification rules for the result of key. Notifications
// fire on the transition into a state, never on repeated observations of it.
func (m *Machine) react(key query.Key, res query.Result) {
	prev := m.last
	same := prev.key == key

	obs := observation{key: key}

	switch res.Status {
	case query.StatusError:
		obs.error = true
		if !same || !prev.error {
			m.logger.Debug().Str("key", key.String()).Err(res.Err).Msg("Search failed")
			m.notifier.Notify(notify.Failure())
		}

	case query.StatusSuccess:
		if res.Data != nil && !res.IsPlaceholder() {
			m.state.TotalPages = res.Data.TotalPages
			m.state.PagesKnown = true
		}
		if res.Data != nil && res.Data.IsEmpty() {
			obs.empty = true
			m.state.Selected = nil
			if !same || !prev.empty {
				m.logger.Debug().Str("key", key.String()).Msg("Search returned no movies")
				m.notifier.Notify(notify.NoResults())
			}
		}

	case query.StatusFetching:
		if res.Data != nil && !res.IsPlaceholder() {
			m.state.TotalPages = res.Data.TotalPages
			m.state.PagesKnown = true
		}
		// A refresh of the same key keeps the previous outcome so that it
		// does not count as a new transition when it settles the same way.
		if same {
			obs = prev
		}
	}

	m.last = obs
}

// rendered reports whether id is on the page currently shown
func (m *Machine) rendered(id int64) bool {
	if m.data == nil {
		return false
	}
	_, ok := m.data.Find(id)
	return ok
}
