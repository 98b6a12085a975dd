package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/s0up4200/cinesearch/console"
)

// browseCmd represents the browse command
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Start an interactive search session",
	Long: `Start an interactive search session. Type a movie title to search, then use
:n and :p to page through the results and :open N to show a movie's details.
Type :help for all commands.`,
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interactive := isTerminal(os.Stdin) && isTerminal(os.Stdout)

	opts := []console.SessionOption{
		console.WithFilters(filters),
		console.WithPrompt(interactive),
	}
	if radarrClient != nil {
		opts = append(opts, console.WithLibrary(radarrClient))
	}

	session := console.NewSession(newMachine(), controller.Updates(), board, logger, opts...)

	if interactive {
		logger.Debug().Msg("Starting interactive session, type :help for commands")
	}

	return session.Run(ctx)
}
