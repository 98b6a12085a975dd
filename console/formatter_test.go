package console

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/s0up4200/cinesearch/notify"
	"github.com/s0up4200/cinesearch/query"
	"github.com/s0up4200/cinesearch/radarr"
	"github.com/s0up4200/cinesearch/search"
	"github.com/s0up4200/cinesearch/tmdb"
)

func testMovies() []tmdb.Movie {
	return []tmdb.Movie{
		{ID: 268, Title: "Batman", ReleaseDate: "1989-06-21", VoteAverage: 7.2, PosterPath: "/batman.jpg"},
		{ID: 272, Title: "Batman Begins", ReleaseDate: "2005-06-10", VoteAverage: 7.7},
		{ID: 999, Title: "Batman: Untitled"},
	}
}

func successView(movies []tmdb.Movie, page, totalPages int) search.View {
	return search.View{
		State:        search.State{Query: "batman", Page: page, TotalPages: totalPages},
		Status:       query.StatusSuccess,
		Movies:       movies,
		TotalPages:   totalPages,
		TotalResults: 42,
		ShowPager:    totalPages > 1,
	}
}

func TestFormatter_Idle(t *testing.T) {
	f := NewFormatter()

	out := f.FormatScreen(Screen{View: search.View{State: search.NewState(), Status: query.StatusIdle}})
	assert.Equal(t, MessageIdle+"\n", out)
}

func TestFormatter_Loading(t *testing.T) {
	f := NewFormatter()

	out := f.FormatScreen(Screen{View: search.View{
		State:   search.State{Query: "batman", Page: 1},
		Status:  query.StatusLoading,
		Loading: true,
	}})
	assert.Equal(t, MessageLoading+"\n", out)

	view := successView(testMovies(), 2, 3)
	view.Status = query.StatusFetching
	view.Loading = true
	view.Stale = true
	out = f.FormatScreen(Screen{View: view, Movies: view.Movies})
	assert.Contains(t, out, MessageLoading+" (showing previous results)")
	assert.Contains(t, out, "Batman Begins")
}

func TestFormatter_Error(t *testing.T) {
	f := NewFormatter()

	out := f.FormatScreen(Screen{View: search.View{
		State:  search.State{Query: "batman", Page: 1},
		Status: query.StatusError,
		Failed: true,
	}})
	assert.Contains(t, out, MessageError)
	assert.NotContains(t, out, "Results for")
}

func TestFormatter_Results(t *testing.T) {
	f := NewFormatter()
	movies := testMovies()
	library := map[int64]*radarr.LibraryStatus{
		272: {TMDBID: 272, InLibrary: true},
		268: {TMDBID: 268},
	}

	out := f.FormatResults(successView(movies, 1, 3), movies, "", library)

	assert.Contains(t, out, `Results for "batman" (42 movies, page 1 of 3):`)
	assert.Contains(t, out, "├──  1. Batman (1989) ★ 7.2\n")
	assert.Contains(t, out, "├──  2. Batman Begins (2005) ★ 7.7 [in library]\n")
	assert.Contains(t, out, "╰──  3. Batman: Untitled\n")
}

func TestFormatter_ResultsFiltered(t *testing.T) {
	f := NewFormatter()
	movies := testMovies()
	view := successView(movies, 1, 1)

	out := f.FormatResults(view, movies[1:2], "Year > 2000", nil)
	assert.Contains(t, out, "Filter: Year > 2000 (1 of 3 shown)")
	assert.Contains(t, out, "╰──  1. Batman Begins")

	out = f.FormatResults(view, nil, "Rating > 9", nil)
	assert.Contains(t, out, "No movies on this page match the filter")
}

func TestFormatter_Pager(t *testing.T) {
	f := NewFormatter()

	tests := []struct {
		name    string
		current int
		total   int
		want    string
	}{
		{name: "single page", current: 1, total: 1, want: ""},
		{name: "few pages", current: 2, total: 3, want: "← 1 [2] 3 →"},
		{name: "first of many", current: 1, total: 20, want: "[1] 2 3 4 5 … 20 →"},
		{name: "middle", current: 5, total: 20, want: "← 1 … 3 4 [5] 6 7 … 20 →"},
		{name: "last", current: 20, total: 20, want: "← 1 … 16 17 18 19 [20]"},
		{name: "no gap for adjacent margin", current: 3, total: 20, want: "← 1 2 [3] 4 5 … 20 →"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.FormatPager(tt.current, tt.total))
		})
	}
}

func TestFormatter_ScreenPagerCappedAtMaxPage(t *testing.T) {
	f := NewFormatter()
	view := successView(testMovies(), 1, 1200)

	out := f.FormatScreen(Screen{View: view, Movies: view.Movies})
	assert.Contains(t, out, "… 500 →")
	assert.NotContains(t, out, "1200 →")
}

func TestFormatter_Detail(t *testing.T) {
	f := NewFormatter()
	movie := tmdb.Movie{
		ID:          268,
		Title:       "Batman",
		ReleaseDate: "1989-06-21",
		VoteAverage: 7.2,
		PosterPath:  "/batman.jpg",
		Overview:    strings.Repeat("Gotham needs a hero. ", 10),
	}
	status := &radarr.LibraryStatus{
		TMDBID:    268,
		InLibrary: true,
		HasFile:   true,
		Monitored: true,
		Added:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	out := f.FormatDetail(movie, status)

	assert.Contains(t, out, "╭── Batman (1989)")
	assert.Contains(t, out, "├── Released: 1989-06-21")
	assert.Contains(t, out, "├── Rating: 7.2/10")
	assert.Contains(t, out, "├── Poster: "+movie.PosterURL())
	assert.NotContains(t, out, "Backdrop")
	assert.Contains(t, out, "├── Radarr: In library, downloaded, added 2024-03-01")

	for line := range strings.SplitSeq(out, "\n") {
		if strings.HasPrefix(line, "    ") {
			assert.LessOrEqual(t, len([]rune(line)), wrapWidth+4)
		}
	}
}

func TestFormatter_DetailWithoutOverview(t *testing.T) {
	f := NewFormatter()

	out := f.FormatDetail(tmdb.Movie{ID: 1, Title: "Untitled"}, &radarr.LibraryStatus{TMDBID: 1})
	assert.Contains(t, out, "╭── Untitled\n")
	assert.Contains(t, out, "No overview available.")
	assert.Contains(t, out, "├── Radarr: Not in library")
}

func TestFormatter_ScreenWithSelection(t *testing.T) {
	f := NewFormatter()
	movies := testMovies()
	view := successView(movies, 1, 1)
	view.State.Selected = &movies[1]

	out := f.FormatScreen(Screen{View: view, Movies: movies})
	assert.Contains(t, out, "╭── Batman Begins (2005)")
	assert.NotContains(t, out, "→")
}

func TestFormatter_Notification(t *testing.T) {
	f := NewFormatter()

	assert.Equal(t, "✗ "+notify.MessageFailure, f.FormatNotification(notify.Failure()))
	assert.Equal(t, "ℹ "+notify.MessageNoResults, f.FormatNotification(notify.NoResults()))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ÅÄÖÅÄÖÅ...", truncate("ÅÄÖÅÄÖÅÄÖÅÄÖ", 10))
}
