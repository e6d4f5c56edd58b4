// Package main provides the pubfrac CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/pubfrac/internal/config"
	"github.com/matsen/pubfrac/internal/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	verbose     bool
	configPath  string

	cfg    *config.Config
	logger = zap.NewNop()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		// This ensures Cobra errors (like missing required flags) are visible
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pubfrac",
	Short: "Fractional attribution of publications to divisions",
	Long: `pubfrac computes per-year, per-division publication statistics from a
publication registry export.

Each eligible publication is split across its co-authoring divisions: a
publication listed under k divisions contributes 1/k of its fractional
score to each. Aggregates are computed separately under the Portal and
Scopus publication-type taxonomies.

Eligibility:
  - HSE-list tag in the allowed set (default A, B, A_Book, A_Conf)
  - strict review flag set (--review non-strict widens this)
  - year within the trailing window ending at the latest eligible year

All commands output JSON by default.
Use --human for human-readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load .env file if present (for PUBFRAC_* overrides)
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			exitWithError(ExitConfigError, "loading config: %v", err)
		}

		logger, err = logging.New(cfg.Log.Level, verbose)
		if err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		logger.Debug("config loaded", zap.String("path", cfg.Path()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug diagnostics to stderr")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/pubfrac/config.yml)")
	rootCmd.Version = Version
}
