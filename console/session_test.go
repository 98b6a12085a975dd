package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/cinesearch/filter"
	"github.com/s0up4200/cinesearch/notify"
	"github.com/s0up4200/cinesearch/query"
	"github.com/s0up4200/cinesearch/radarr"
	"github.com/s0up4200/cinesearch/search"
	"github.com/s0up4200/cinesearch/tmdb"
)

// stubResolver answers every key from a fixed table
type stubResolver struct {
	pages map[query.Key]*tmdb.ResultPage
}

func (s *stubResolver) Resolve(_ context.Context, key query.Key, enabled bool) query.Result {
	if !enabled {
		return query.Result{Key: key, Status: query.StatusIdle}
	}
	page, ok := s.pages[key]
	if !ok {
		return query.Result{Key: key, Status: query.StatusLoading}
	}
	return query.Result{Key: key, Status: query.StatusSuccess, Data: page, DataKey: key}
}

// stubLibrary reports a fixed set of TMDB IDs as present
type stubLibrary struct {
	present map[int64]bool
	calls   int
}

func (s *stubLibrary) LookupMovies(_ context.Context, movies []tmdb.Movie) (map[int64]*radarr.LibraryStatus, error) {
	s.calls++
	out := make(map[int64]*radarr.LibraryStatus, len(movies))
	for _, m := range movies {
		out[m.ID] = &radarr.LibraryStatus{TMDBID: m.ID, InLibrary: s.present[m.ID]}
	}
	return out, nil
}

func newTestSession(t *testing.T, input string, opts ...SessionOption) (*Session, *bytes.Buffer) {
	t.Helper()

	resolver := &stubResolver{pages: map[query.Key]*tmdb.ResultPage{
		query.NewKey("batman", 1): {Page: 1, Results: testMovies(), TotalPages: 3, TotalResults: 42},
		query.NewKey("batman", 2): {Page: 2, Results: testMovies()[:1], TotalPages: 3, TotalResults: 42},
		query.NewKey("zzzzznonexistentmovie", 1): {Page: 1, TotalPages: 1},
	}}
	board := notify.NewBoard()
	machine := search.NewMachine(resolver, board, zerolog.Nop())

	var out bytes.Buffer
	opts = append([]SessionOption{WithIO(strings.NewReader(input), &out)}, opts...)
	return NewSession(machine, nil, board, zerolog.Nop(), opts...), &out
}

func TestSession_SearchAndDetail(t *testing.T) {
	library := &stubLibrary{present: map[int64]bool{272: true}}
	session, out := newTestSession(t, "batman\n:open 2\n:close\n:q\n", WithLibrary(library))

	require.NoError(t, session.Run(t.Context()))

	got := out.String()
	assert.True(t, strings.HasPrefix(got, MessageIdle))
	assert.Contains(t, got, `Results for "batman" (42 movies, page 1 of 3):`)
	assert.Contains(t, got, "Batman Begins (2005) ★ 7.7 [in library]")
	assert.Contains(t, got, "[1] 2 3 →")
	assert.Contains(t, got, "╭── Batman Begins (2005)")
	assert.Contains(t, got, "├── Radarr: In library")
	assert.Positive(t, library.calls)
	assert.Nil(t, session.machine.State().Selected)
}

func TestSession_Paging(t *testing.T) {
	session, out := newTestSession(t, "batman\n:n\n:page 0\n:p\n:q\n")

	require.NoError(t, session.Run(t.Context()))

	got := out.String()
	assert.Contains(t, got, "page 2 of 3")
	assert.Contains(t, got, "✗ Page out of range")
	assert.Equal(t, 1, session.machine.State().Page)
}

func TestSession_Filter(t *testing.T) {
	filters := filter.NewManager(nil)
	require.NoError(t, filters.RegisterFilters(map[string]string{"modern": "Year > 2000"}))

	session, out := newTestSession(t, "batman\n:filter @modern\n:open 1\n:filters\n:filter\n:filter Rating >\n:q\n", WithFilters(filters))

	require.NoError(t, session.Run(t.Context()))

	got := out.String()
	assert.Contains(t, got, "Filter: Year > 2000 (1 of 3 shown)")
	assert.Contains(t, got, "╭── Batman Begins (2005)")
	assert.Contains(t, got, "  • @modern: Year > 2000")
	assert.Contains(t, got, "✗ ")
	assert.Nil(t, session.filter)
	assert.Len(t, session.displayed, 3)
}

func TestSession_NoResultsNotifiesOnce(t *testing.T) {
	session, out := newTestSession(t, "zzzzznonexistentmovie\n\n\n:q\n")

	require.NoError(t, session.Run(t.Context()))

	got := out.String()
	assert.Equal(t, 1, strings.Count(got, "ℹ "+notify.MessageNoResults))
	assert.NotContains(t, got, "Results for")
}

func TestSession_InvalidInput(t *testing.T) {
	session, out := newTestSession(t, ":bogus\n:open 1\nbatman\n:open 9\n")

	require.NoError(t, session.Run(t.Context()))

	got := out.String()
	assert.Contains(t, got, "✗ Unknown command: :bogus")
	assert.Contains(t, got, "✗ No such item on the current page: 1")
	assert.Contains(t, got, "✗ No such item on the current page: 9")
}

func TestSession_Prompt(t *testing.T) {
	session, out := newTestSession(t, ":help\n", WithPrompt(true))

	require.NoError(t, session.Run(t.Context()))

	got := out.String()
	assert.Equal(t, 2, strings.Count(got, prompt))
	assert.Contains(t, got, ":filter EXPR")
}

func TestSession_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	session, _ := newTestSession(t, "batman\n")
	assert.NoError(t, session.Run(ctx))
}
