package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/blang/semver"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

const repositorySlug = "s0up4200/cinesearch"

var (
	version   = "dev"
	buildTime = "unknown"

	checkOnly bool
)

// SetVersion records the build information injected by main
func SetVersion(v, built string) {
	version = v
	buildTime = built
	rootCmd.Version = v
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Print version information",
	PersistentPreRunE: skipInitialization,
	RunE:              runVersion,
}

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update cinesearch to the latest release",
	Long: `Download the latest release from GitHub and replace the running binary.
Use --check to only report whether an update is available.`,
	PersistentPreRunE: skipInitialization,
	RunE:              runUpdate,
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().BoolVar(&checkOnly, "check", false, "only check for a newer release")
}

// skipInitialization lets commands run without a TMDB token
func skipInitialization(cmd *cobra.Command, args []string) error {
	return nil
}

// currentVersion parses the build version, false for development builds
func currentVersion() (semver.Version, bool) {
	v, err := semver.ParseTolerant(version)
	if err != nil {
		return semver.Version{}, false
	}
	return v, true
}

func runVersion(cmd *cobra.Command, args []string) error {
	label := version
	if v, ok := currentVersion(); ok {
		label = "v" + v.String()
	}

	fmt.Printf("cinesearch %s\n", label)
	fmt.Printf("- Built: %s\n", buildTime)
	fmt.Printf("- Go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	current, ok := currentVersion()
	if !ok {
		return fmt.Errorf("cannot update a development build (version %q)", version)
	}

	fmt.Printf("Checking for updates to v%s...\n", current)

	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(repositorySlug))
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}
	if !found {
		return fmt.Errorf("no release found for %s/%s", runtime.GOOS, runtime.GOARCH)
	}

	latestVersion, err := semver.ParseTolerant(latest.Version())
	if err != nil {
		return fmt.Errorf("invalid release version %q: %w", latest.Version(), err)
	}

	if latestVersion.LTE(current) {
		fmt.Printf("✓ Already up to date (v%s)\n", current)
		return nil
	}

	fmt.Printf("→ New version available: v%s\n", latestVersion)
	if latest.URL != "" {
		fmt.Printf("  Release notes: %s\n", latest.URL)
	}
	if checkOnly {
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}

	if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
		fmt.Fprintf(os.Stderr, "✗ Update failed\n")
		return fmt.Errorf("failed to update binary: %w", err)
	}

	fmt.Printf("✓ Updated to v%s\n", latestVersion)
	return nil
}
