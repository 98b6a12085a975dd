package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/cinesearch/filter"
	"github.com/s0up4200/cinesearch/notify"
	"github.com/s0up4200/cinesearch/query"
	"github.com/s0up4200/cinesearch/radarr"
	"github.com/s0up4200/cinesearch/search"
	"github.com/s0up4200/cinesearch/tmdb"
)

const (
	prompt        = "cinesearch> "
	libraryLookup = 10 * time.Second
)

// Library reports which movies are already in a media library
type Library interface {
	LookupMovies(ctx context.Context, movies []tmdb.Movie) (map[int64]*radarr.LibraryStatus, error)
}

// Session is an interactive, line oriented search loop
type Session struct {
	machine   *search.Machine
	updates   <-chan query.Key
	board     *notify.Board
	filters   *filter.Manager
	library   Library
	formatter *Formatter
	logger    zerolog.Logger

	in          io.Reader
	out         io.Writer
	interactive bool

	filter    *filter.Filter
	displayed []tmdb.Movie
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithLibrary marks movies found in library
func WithLibrary(library Library) SessionOption {
	return func(s *Session) {
		s.library = library
	}
}

// WithFilters makes named filters available to :filter @name
func WithFilters(filters *filter.Manager) SessionOption {
	return func(s *Session) {
		if filters != nil {
			s.filters = filters
		}
	}
}

// WithIO replaces stdin and stdout
func WithIO(in io.Reader, out io.Writer) SessionOption {
	return func(s *Session) {
		s.in = in
		s.out = out
	}
}

// WithPrompt enables the input prompt, for terminals
func WithPrompt(enabled bool) SessionOption {
	return func(s *Session) {
		s.interactive = enabled
	}
}

// NewSession creates a session driving machine. updates carries the keys
// of requests that settled in the background.
func NewSession(machine *search.Machine, updates <-chan query.Key, board *notify.Board, logger zerolog.Logger, opts ...SessionOption) *Session {
	s := &Session{
		machine:   machine,
		updates:   updates,
		board:     board,
		filters:   filter.NewManager(nil),
		formatter: NewFormatter(),
		logger:    logger,
		in:        os.Stdin,
		out:       os.Stdout,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run reads commands until the input ends, :quit is entered or ctx is done
func (s *Session) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	s.render(ctx, s.machine.Refresh(ctx))
	s.prompt()

	for {
		select {
		case <-ctx.Done():
			return nil

		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("failed to read input: %w", err)
					}
				default:
				}
				return nil
			}
			if quit := s.Handle(ctx, line); quit {
				return nil
			}
			s.prompt()

		case key := <-s.updates:
			if key != s.machine.State().Key() {
				s.logger.Debug().Str("key", key.String()).Msg("Ignoring result for inactive search")
				continue
			}
			s.render(ctx, s.machine.Refresh(ctx))
			s.prompt()
		}
	}
}

// Handle executes one input line and reports whether the session should end
func (s *Session) Handle(ctx context.Context, line string) bool {
	cmd, err := parseCommand(line)
	if err != nil {
		s.printError(err)
		return false
	}

	var (
		view search.View
		ok   = true
	)

	switch cmd.kind {
	case cmdQuit:
		return true

	case cmdHelp:
		fmt.Fprintln(s.out, helpText)
		return false

	case cmdFilters:
		s.listFilters()
		return false

	case cmdRefresh:
		view = s.machine.Refresh(ctx)

	case cmdSearch:
		view, err = s.machine.Dispatch(ctx, search.SubmitSearch{Text: cmd.text})

	case cmdNext:
		view, err = s.machine.Dispatch(ctx, search.ChangePage{Page: s.machine.State().Page + 1})

	case cmdPrev:
		view, err = s.machine.Dispatch(ctx, search.ChangePage{Page: s.machine.State().Page - 1})

	case cmdPage:
		view, err = s.machine.Dispatch(ctx, search.ChangePage{Page: cmd.n})

	case cmdOpen:
		view, err = s.machine.Select(ctx, s.listing(), cmd.n)
		ok = err == nil

	case cmdReload:
		view = s.machine.Reload(ctx)

	case cmdClose:
		view, err = s.machine.Dispatch(ctx, search.CloseDetail{})

	case cmdFilter:
		if err = s.setFilter(cmd.text); err != nil {
			ok = false
			break
		}
		view = s.machine.Refresh(ctx)
	}

	if err != nil {
		s.printError(err)
	}
	if ok {
		s.render(ctx, view)
	}
	return false
}

func (s *Session) setFilter(expression string) error {
	if expression == "" {
		s.filter = nil
		return nil
	}

	f, err := s.filters.Resolve(expression)
	if err != nil {
		return err
	}
	s.filter = f
	return nil
}

// render prints the view followed by any pending notifications
func (s *Session) render(ctx context.Context, view search.View) {
	screen := newScreen(view)

	if s.filter != nil && len(view.Movies) > 0 {
		screen.Filter = s.filter.Expression()
		matches, err := s.filter.Apply(view.Movies)
		if err != nil {
			s.printError(err)
		} else {
			screen.Movies = matches
		}
	}
	s.displayed = screen.Movies

	if s.library != nil && len(screen.Movies) > 0 && !view.Loading {
		lookupCtx, cancel := context.WithTimeout(ctx, libraryLookup)
		library, err := s.library.LookupMovies(lookupCtx, screen.Movies)
		cancel()
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to check library status")
		}
		screen.Library = library
	}

	fmt.Fprint(s.out, s.formatter.FormatScreen(screen))

	for _, n := range s.board.Drain() {
		fmt.Fprintln(s.out, s.formatter.FormatNotification(n))
	}
}

// listing returns the movies as numbered on screen, never nil so that an
// empty screen offers nothing to open
func (s *Session) listing() []tmdb.Movie {
	if s.displayed == nil {
		return []tmdb.Movie{}
	}
	return s.displayed
}

func newScreen(view search.View) Screen {
	return Screen{View: view, Movies: view.Movies}
}

func (s *Session) listFilters() {
	names := s.filters.Names()
	if len(names) == 0 {
		fmt.Fprintln(s.out, "No filters configured.")
		return
	}

	fmt.Fprintln(s.out, "Configured filters:")
	for _, name := range names {
		f, _ := s.filters.Get(name)
		fmt.Fprintf(s.out, "  • @%s: %s\n", name, f.Expression())
	}
}

func (s *Session) printError(err error) {
	msg := err.Error()
	if len(msg) > 0 {
		msg = strings.ToUpper(msg[:1]) + msg[1:]
	}
	fmt.Fprintf(s.out, "✗ %s\n", msg)
}

func (s *Session) prompt() {
	if s.interactive {
		fmt.Fprint(s.out, prompt)
	}
}
