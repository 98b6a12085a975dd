package console

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/s0up4200/cinesearch/notify"
	"github.com/s0up4200/cinesearch/query"
	"github.com/s0up4200/cinesearch/radarr"
	"github.com/s0up4200/cinesearch/search"
	"github.com/s0up4200/cinesearch/tmdb"
)

const (
	// MessageLoading is shown while a request is in flight
	MessageLoading = "Loading movies..."
	// MessageError is the banner shown while the active search failed
	MessageError = "There was an error, please try again..."
	// MessageIdle invites the first search
	MessageIdle = "Type a movie title and press Enter to search."

	maxTitleWidth = 48
	wrapWidth     = 76
	pagerWindow   = 5
	pagerMargin   = 1
)

// Screen is everything a single render shows
type Screen struct {
	View search.View
	// Movies are the movies to list, after any filter
	Movies []tmdb.Movie
	// Filter is the active filter expression, empty when none
	Filter  string
	Library map[int64]*radarr.LibraryStatus
}

// Formatter renders screens as plain text for a terminal
type Formatter struct{}

// NewFormatter creates a new console formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// FormatScreen renders status lines, results, pager and the detail view
func (f *Formatter) FormatScreen(s Screen) string {
	view := s.View
	if view.Status == query.StatusIdle {
		return MessageIdle + "\n"
	}

	var sb strings.Builder

	if view.Loading {
		sb.WriteString(MessageLoading)
		if view.Stale && len(view.Movies) > 0 {
			sb.WriteString(" (showing previous results)")
		}
		sb.WriteString("\n")
	}
	if view.Failed {
		sb.WriteString(MessageError + "\n")
	}

	if len(view.Movies) > 0 {
		sb.WriteString(f.FormatResults(view, s.Movies, s.Filter, s.Library))
	}

	if view.ShowPager {
		sb.WriteString(f.FormatPager(view.State.Page, min(view.TotalPages, tmdb.MaxPage)))
		sb.WriteString("\n")
	}

	if sel := view.State.Selected; sel != nil {
		sb.WriteString(f.FormatDetail(*sel, s.Library[sel.ID]))
	}

	return sb.String()
}

// FormatResults renders the movie list as a tree
func (f *Formatter) FormatResults(view search.View, movies []tmdb.Movie, filter string, library map[int64]*radarr.LibraryStatus) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "\nResults for %q (%d %s, page %d of %d):\n",
		view.State.Query, view.TotalResults, plural(view.TotalResults, "movie"), view.State.Page, view.TotalPages)

	if filter != "" {
		fmt.Fprintf(&sb, "Filter: %s (%d of %d shown)\n", filter, len(movies), len(view.Movies))
	}
	sb.WriteString("\n")

	if len(movies) == 0 {
		sb.WriteString("╰── No movies on this page match the filter\n\n")
		return sb.String()
	}

	for i, movie := range movies {
		prefix := "├"
		if i == len(movies)-1 {
			prefix = "╰"
		}

		fmt.Fprintf(&sb, "%s── %2d. %s", prefix, i+1, truncate(movie.Title, maxTitleWidth))
		if year := movie.Year(); year > 0 {
			fmt.Fprintf(&sb, " (%d)", year)
		}
		if movie.VoteAverage > 0 {
			fmt.Fprintf(&sb, " ★ %.1f", movie.VoteAverage)
		}
		if status, ok := library[movie.ID]; ok && status.InLibrary {
			sb.WriteString(" [in library]")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	return sb.String()
}

// FormatPager renders page links around current, e.g. "← 1 … 3 4 [5] 6 7 … 20 →"
func (f *Formatter) FormatPager(current, total int) string {
	if total < 2 {
		return ""
	}

	parts := make([]string, 0, pagerWindow+2*pagerMargin+4)
	if current > 1 {
		parts = append(parts, "←")
	}
	for _, page := range pagerPages(current, total) {
		switch {
		case page == 0:
			parts = append(parts, "…")
		case page == current:
			parts = append(parts, "["+strconv.Itoa(page)+"]")
		default:
			parts = append(parts, strconv.Itoa(page))
		}
	}
	if current < total {
		parts = append(parts, "→")
	}

	return strings.Join(parts, " ")
}

// pagerPages lists the pages to show, with 0 marking a gap. It keeps
// pagerMargin pages at each end and pagerWindow pages around current.
func pagerPages(current, total int) []int {
	if total <= pagerWindow+2*pagerMargin {
		pages := make([]int, total)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}

	start := max(current-pagerWindow/2, 1)
	end := start + pagerWindow - 1
	if end > total {
		end = total
		start = total - pagerWindow + 1
	}

	show := func(page int) bool {
		return page <= pagerMargin || page > total-pagerMargin || (page >= start && page <= end)
	}

	var pages []int
	gap := false
	for page := 1; page <= total; page++ {
		if show(page) {
			pages = append(pages, page)
			gap = false
			continue
		}
		if !gap {
			pages = append(pages, 0)
			gap = true
		}
	}
	return pages
}

// FormatDetail renders a single movie
func (f *Formatter) FormatDetail(movie tmdb.Movie, status *radarr.LibraryStatus) string {
	var sb strings.Builder

	sb.WriteString("\n╭── " + movie.Title)
	if year := movie.Year(); year > 0 {
		fmt.Fprintf(&sb, " (%d)", year)
	}
	sb.WriteString("\n")

	if movie.ReleaseDate != "" {
		fmt.Fprintf(&sb, "├── Released: %s\n", movie.ReleaseDate)
	}
	fmt.Fprintf(&sb, "├── Rating: %.1f/10\n", movie.VoteAverage)
	if url := movie.PosterURL(); url != "" {
		fmt.Fprintf(&sb, "├── Poster: %s\n", url)
	}
	if url := movie.BackdropURL(); url != "" {
		fmt.Fprintf(&sb, "├── Backdrop: %s\n", url)
	}
	if status != nil {
		fmt.Fprintf(&sb, "├── Radarr: %s\n", libraryText(status))
	}

	overview := strings.TrimSpace(movie.Overview)
	if overview == "" {
		overview = "No overview available."
	}
	sb.WriteString("╰── Overview:\n")
	for _, line := range wrap(overview, wrapWidth) {
		sb.WriteString("    " + line + "\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// FormatNotification renders a notification as a single line
func (f *Formatter) FormatNotification(n notify.Notification) string {
	switch n.Channel {
	case notify.ChannelError:
		return "✗ " + n.Message
	default:
		return "ℹ " + n.Message
	}
}

func libraryText(status *radarr.LibraryStatus) string {
	if !status.InLibrary {
		return "Not in library"
	}

	parts := []string{"In library"}
	if status.HasFile {
		parts = append(parts, "downloaded")
	} else {
		parts = append(parts, "missing file")
	}
	if !status.Monitored {
		parts = append(parts, "unmonitored")
	}
	if !status.Added.IsZero() {
		parts = append(parts, "added "+status.Added.Format("2006-01-02"))
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}

func wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	line := words[0]
	for _, word := range words[1:] {
		if len([]rune(line))+1+len([]rune(word)) > width {
			lines = append(lines, line)
			line = word
			continue
		}
		line += " " + word
	}
	return append(lines, line)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
