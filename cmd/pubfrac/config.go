package main

import (
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matsen/pubfrac/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the effective configuration after defaults, the config file and
environment overrides are merged.

Usage:
  pubfrac config           # JSON
  pubfrac config --human   # YAML, suitable as a starting config.yml

Environment:
  PUBFRAC_CONFIG      config file path
  PUBFRAC_LOG_LEVEL   debug, info, warn or error
  PUBFRAC_CACHE_DIR   registry cache directory
  PUBFRAC_ADDR        listen address for serve`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

// ConfigResponse is the JSON output of config.
type ConfigResponse struct {
	Path   string         `json:"path"`
	Config *config.Config `json:"config"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	path := cfg.Path()
	if path == "" {
		path = config.DefaultConfigPath()
	}

	if humanOutput {
		outputHuman("# %s\n", path)
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			exitWithError(ExitError, "encoding config: %v", err)
		}
		return enc.Close()
	}
	outputJSON(ConfigResponse{Path: path, Config: cfg})
	return nil
}
