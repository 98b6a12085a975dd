package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/s0up4200/cinesearch/console"
	"github.com/s0up4200/cinesearch/filter"
	"github.com/s0up4200/cinesearch/search"
)

var (
	searchPage   int
	searchFilter string
	searchOpen   int
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search QUERY...",
	Short: "Search for movies and print one page of results",
	Long: `Search TMDB for movies matching QUERY and print a single page of results.

Use --filter to narrow the page with an expression, or @name for a filter
defined in the config file.`,
	Example: `  cinesearch search batman
  cinesearch search the dark knight --page 2
  cinesearch search batman --filter 'Rating >= 7 and Year > 2000'
  cinesearch search alien --filter @acclaimed --open 1`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVarP(&searchPage, "page", "p", 1, "page of results to show")
	searchCmd.Flags().StringVarP(&searchFilter, "filter", "f", "", "filter expression or @name")
	searchCmd.Flags().IntVar(&searchOpen, "open", 0, "show details for the Nth movie listed")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 2*cfg.TMDB.Timeout+cfg.Cache.RetryDelay)
	defer cancel()

	text := strings.Join(args, " ")

	var f *filter.Filter
	if searchFilter != "" {
		var err error
		if f, err = filters.Resolve(searchFilter); err != nil {
			return fmt.Errorf("invalid filter expression: %w", err)
		}
	}

	machine := newMachine()
	if _, err := machine.Dispatch(ctx, search.SubmitSearch{Text: text}); err != nil {
		return err
	}

	// The first page tells us how many pages exist
	if _, err := controller.Fetch(ctx, machine.State().Key()); err != nil {
		logger.Debug().Err(err).Msg("Search failed")
	}

	if searchPage != 1 {
		if _, err := machine.Dispatch(ctx, search.ChangePage{Page: searchPage}); err != nil {
			return fmt.Errorf("invalid page %d: %w", searchPage, err)
		}
		if _, err := controller.Fetch(ctx, machine.State().Key()); err != nil {
			logger.Debug().Err(err).Msg("Search failed")
		}
	}

	logger.Debug().Str("query", text).Int("page", searchPage).Msg("Searching movies")

	view := machine.Refresh(ctx)
	screen := console.Screen{View: view, Movies: view.Movies}

	if f != nil && len(view.Movies) > 0 {
		matches, err := f.Apply(view.Movies)
		if err != nil {
			return err
		}
		screen.Movies = matches
		screen.Filter = f.Expression()
	}

	if searchOpen > 0 {
		selected, err := machine.Select(ctx, screen.Movies, searchOpen)
		if err != nil {
			return err
		}
		screen.View = selected
	}

	if radarrClient != nil && len(screen.Movies) > 0 {
		lookupCtx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		library, err := radarrClient.LookupMovies(lookupCtx, screen.Movies)
		cancel()
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to check library status")
		}
		screen.Library = library
	}

	formatter := console.NewFormatter()
	fmt.Print(formatter.FormatScreen(screen))
	for _, n := range board.Drain() {
		fmt.Println(formatter.FormatNotification(n))
	}

	if view.Failed {
		return fmt.Errorf("search failed: %w", view.Err)
	}
	return nil
}
