package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/cinesearch/config"
	"github.com/s0up4200/cinesearch/filter"
	"github.com/s0up4200/cinesearch/notify"
	"github.com/s0up4200/cinesearch/query"
	"github.com/s0up4200/cinesearch/radarr"
	"github.com/s0up4200/cinesearch/search"
	"github.com/s0up4200/cinesearch/tmdb"
)

const connectTimeout = 10 * time.Second

var (
	cfgFile  string
	logLevel string

	cfg          *config.Config
	logger       zerolog.Logger
	tmdbClient   *tmdb.Client
	radarrClient *radarr.Client
	backend      *query.RedisBackend
	controller   *query.Controller
	board        *notify.Board
	filters      *filter.Manager
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cinesearch",
	Short: "Search The Movie Database from your terminal",
	Long: `cinesearch is a CLI tool that searches The Movie Database (TMDB) for movies,
pages through the results and shows movie details. Results are cached, so
moving back to a page you have already seen is instant.

Run without a subcommand to start an interactive session.`,
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: shutdownApp,
	RunE:               runBrowse,
	SilenceUsage:       true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(testCmd)
}

// initializeApp loads the configuration and builds the clients
func initializeApp(cmd *cobra.Command, args []string) error {
	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = logLevel
	}

	// Setup logger
	logger = setupLogger(cfg.Logging)
	logger.Debug().Str("source", configSource(cfg)).Msg("Configuration loaded")

	// Create TMDB client
	tmdbClient, err = tmdb.NewClient(cfg.TMDB.BaseURL, cfg.TMDB.Token, logger,
		tmdb.WithTimeout(cfg.TMDB.Timeout),
		tmdb.WithLanguage(cfg.TMDB.Language),
		tmdb.WithRateLimit(cfg.TMDB.RateLimit, cfg.TMDB.Burst),
		tmdb.WithUserAgent("cinesearch/"+version),
	)
	if err != nil {
		return fmt.Errorf("failed to create TMDB client: %w", err)
	}

	opts := []query.Option{
		query.WithStaleTime(cfg.Cache.StaleTime),
		query.WithRetries(cfg.Cache.Retries, cfg.Cache.RetryDelay),
		query.WithMaxEntries(cfg.Cache.MaxEntries),
	}

	// Connect the shared cache if configured
	if cfg.Cache.RedisURL != "" {
		ctx, cancel := context.WithTimeout(cmd.Context(), connectTimeout)
		backend, err = query.DialRedis(ctx, cfg.Cache.RedisURL)
		cancel()
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Redis, continuing with the in-memory cache only")
		} else {
			opts = append(opts, query.WithBackend(backend))
			logger.Info().Msg("Redis result cache enabled")
		}
	}

	controller = query.NewController(tmdbClient, logger, opts...)
	board = notify.NewBoard()

	// Register named filters
	filters = filter.NewManager(nil)
	if err := filters.RegisterFilters(cfg.Filter); err != nil {
		return fmt.Errorf("invalid filter in config: %w", err)
	}

	// Create Radarr client if enabled
	if cfg.Radarr.Enabled {
		radarrClient, err = radarr.NewClient(cfg.Radarr.URL, cfg.Radarr.APIKey, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to create Radarr client, continuing without library status")
			radarrClient = nil
		} else {
			logger.Info().Msg("Radarr integration enabled")
		}
	}

	return nil
}

// shutdownApp releases what initializeApp acquired
func shutdownApp(cmd *cobra.Command, args []string) error {
	if controller != nil {
		controller.Close()
	}
	if backend != nil {
		if err := backend.Close(); err != nil {
			logger.Debug().Err(err).Msg("Failed to close Redis connection")
		}
	}
	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isTerminal(os.Stderr),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func configSource(cfg *config.Config) string {
	if cfg.Source == "" {
		return "environment"
	}
	return cfg.Source
}

// newMachine creates a search machine backed by the shared controller
func newMachine() *search.Machine {
	return search.NewMachine(controller, board, logger)
}

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test the connection to TMDB and Radarr",
	Long:  `Verify the TMDB token and, when enabled, the connection to your Radarr instance.`,
	RunE:  runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.TMDB.Timeout+connectTimeout)
	defer cancel()

	fmt.Printf("Testing connection to TMDB at %s...\n", cfg.TMDB.BaseURL)
	if err := tmdbClient.TestConnection(ctx); err != nil {
		fmt.Println("✗ Connection failed")
		return fmt.Errorf("failed to connect to TMDB: %w", err)
	}
	fmt.Println("✓ Connection successful!")

	fmt.Printf("\nConfiguration:\n")
	fmt.Printf("- Source: %s\n", configSource(cfg))
	fmt.Printf("- Language: %s\n", cfg.TMDB.Language)
	fmt.Printf("- Cache stale time: %s\n", cfg.Cache.StaleTime)
	fmt.Printf("- Shared cache: %s\n", boolToStatus(backend != nil))
	fmt.Printf("- Named filters: %d\n", len(filters.Names()))

	if !cfg.Radarr.Enabled {
		fmt.Println("\nRadarr integration: Disabled")
		return nil
	}

	fmt.Printf("\nTesting connection to Radarr at %s...\n", cfg.Radarr.URL)
	if radarrClient == nil {
		fmt.Println("✗ Connection failed")
		return fmt.Errorf("radarr is enabled but not reachable")
	}

	radarrVersion, err := radarrClient.TestConnection(ctx)
	if err != nil {
		fmt.Println("✗ Connection failed")
		return fmt.Errorf("failed to connect to Radarr: %w", err)
	}
	fmt.Printf("✓ Radarr %s connection successful!\n", radarrVersion)

	return nil
}

func boolToStatus(b bool) string {
	if b {
		return "Enabled"
	}
	return "Disabled"
}
