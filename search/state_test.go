package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/cinesearch/query"
	"github.com/s0up4200/cinesearch/tmdb"
)

func TestReduce_SubmitSearch(t *testing.T) {
	selected := &tmdb.Movie{ID: 42, Title: "The Answer"}

	tests := []struct {
		name     string
		state    State
		text     string
		expected State
	}{
		{
			name:     "whitespace is ignored",
			state:    State{Query: "batman", Page: 3, Selected: selected, TotalPages: 5},
			text:     "   \t\n",
			expected: State{Query: "batman", Page: 3, Selected: selected, TotalPages: 5},
		},
		{
			name:     "empty is ignored",
			state:    NewState(),
			text:     "",
			expected: NewState(),
		},
		{
			name:     "new query resets page and selection",
			state:    State{Query: "batman", Page: 3, Selected: selected, TotalPages: 5},
			text:     "  superman ",
			expected: State{Query: "superman", Page: 1},
		},
		{
			name:     "same query starts over",
			state:    State{Query: "batman", Page: 4, Selected: selected, TotalPages: 5},
			text:     "batman",
			expected: State{Query: "batman", Page: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Reduce(tt.state, SubmitSearch{Text: tt.text})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestReduce_ChangePage(t *testing.T) {
	selected := &tmdb.Movie{ID: 7}
	base := State{Query: "batman", Page: 1, Selected: selected, TotalPages: 5}

	t.Run("moves and clears selection", func(t *testing.T) {
		got, err := Reduce(base, ChangePage{Page: 3})
		require.NoError(t, err)
		assert.Equal(t, 3, got.Page)
		assert.Nil(t, got.Selected)
		assert.Equal(t, "batman", got.Query)
	})

	t.Run("current page is a no-op", func(t *testing.T) {
		got, err := Reduce(base, ChangePage{Page: 1})
		require.NoError(t, err)
		assert.Equal(t, base, got)
	})

	t.Run("last page is allowed", func(t *testing.T) {
		got, err := Reduce(base, ChangePage{Page: 5})
		require.NoError(t, err)
		assert.Equal(t, 5, got.Page)
	})

	for _, page := range []int{0, -1, 6, 100} {
		t.Run("rejects out of range", func(t *testing.T) {
			got, err := Reduce(base, ChangePage{Page: page})
			assert.ErrorIs(t, err, ErrPageOutOfRange)
			assert.Equal(t, base, got)
		})
	}

	t.Run("unknown total accepts any positive page", func(t *testing.T) {
		got, err := Reduce(State{Query: "batman", Page: 1}, ChangePage{Page: 40})
		require.NoError(t, err)
		assert.Equal(t, 40, got.Page)
	})

	t.Run("no paging once a search is known to be empty", func(t *testing.T) {
		empty := State{Query: "zzzzznonexistentmovie", Page: 1, PagesKnown: true}

		_, err := Reduce(empty, ChangePage{Page: 2})
		assert.ErrorIs(t, err, ErrPageOutOfRange)

		got, err := Reduce(empty, ChangePage{Page: 1})
		require.NoError(t, err)
		assert.Equal(t, empty, got)
	})

	t.Run("new search forgets the page count", func(t *testing.T) {
		known := State{Query: "batman", Page: 2, TotalPages: 5, PagesKnown: true}

		got, err := Reduce(known, SubmitSearch{Text: "heat"})
		require.NoError(t, err)
		assert.False(t, got.PagesKnown)
		assert.Zero(t, got.TotalPages)
	})

	t.Run("capped at the highest served page", func(t *testing.T) {
		huge := State{Query: "a", Page: 1, TotalPages: 2000}
		_, err := Reduce(huge, ChangePage{Page: tmdb.MaxPage + 1})
		assert.ErrorIs(t, err, ErrPageOutOfRange)

		got, err := Reduce(huge, ChangePage{Page: tmdb.MaxPage})
		require.NoError(t, err)
		assert.Equal(t, tmdb.MaxPage, got.Page)
	})
}

func TestReduce_Selection(t *testing.T) {
	movie := tmdb.Movie{ID: 42, Title: "The Answer"}
	state := State{Query: "answer", Page: 1}

	selected, err := Reduce(state, SelectItem{Movie: movie})
	require.NoError(t, err)
	require.NotNil(t, selected.Selected)
	assert.Equal(t, movie, *selected.Selected)

	// The selection is a copy
	movie.Title = "changed"
	assert.Equal(t, "The Answer", selected.Selected.Title)

	closed, err := Reduce(selected, CloseDetail{})
	require.NoError(t, err)
	assert.Nil(t, closed.Selected)

	again, err := Reduce(closed, CloseDetail{})
	require.NoError(t, err)
	assert.Equal(t, closed, again)
}

func TestReduce_SelectThenSearchClearsSelection(t *testing.T) {
	state := State{Query: "batman", Page: 2, TotalPages: 5}

	state, err := Reduce(state, SelectItem{Movie: tmdb.Movie{ID: 42}})
	require.NoError(t, err)
	require.NotNil(t, state.Selected)

	state, err = Reduce(state, SubmitSearch{Text: "superman"})
	require.NoError(t, err)
	assert.Nil(t, state.Selected)
	assert.Equal(t, 1, state.Page)
}

type bogusEvent struct{ SubmitSearch }

func TestReduce_UnknownEvent(t *testing.T) {
	state := State{Query: "batman", Page: 1}

	got, err := Reduce(state, bogusEvent{})
	assert.ErrorIs(t, err, ErrUnknownEvent)
	assert.Equal(t, state, got)
}

func TestState_EnabledAndKey(t *testing.T) {
	assert.False(t, NewState().Enabled())
	assert.False(t, State{Query: "  "}.Enabled())

	state := State{Query: "batman", Page: 2}
	assert.True(t, state.Enabled())
	assert.Equal(t, query.Key{Query: "batman", Page: 2}, state.Key())
}
