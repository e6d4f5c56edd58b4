package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/pubfrac/internal/cache"
)

func init() {
	cacheCmd.AddCommand(cacheInfoCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the parsed-registry cache",
	Long: `Inspect or clear the parsed-registry cache.

Parsed registries are cached in SQLite under the cache directory, keyed by
the SHA-256 of the file contents and the column and encoding settings. A
changed file is re-parsed automatically; clearing is never required for
correctness.`,
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "List cached registries",
	Args:  cobra.NoArgs,
	RunE:  runCacheInfo,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached registry",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func mustOpenCache() *cache.Cache {
	c, err := cache.Open(cfg.CachePath())
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	return c
}

func runCacheInfo(cmd *cobra.Command, args []string) error {
	c := mustOpenCache()
	defer c.Close()

	info, err := c.Info(cmd.Context())
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if !humanOutput {
		outputJSON(info)
		return nil
	}

	outputHuman("Cache: %s (%d bytes)\n", info.Path, info.Size)
	if len(info.Entries) == 0 {
		outputHuman("(empty)\n")
		return nil
	}
	for _, e := range info.Entries {
		fallback := ""
		if e.Fallback {
			fallback = ", fallback decode"
		}
		outputHuman("  %s  %6d records  %s%s  %s\n",
			e.CachedAt.Format("2006-01-02 15:04"), e.Records, e.Encoding, fallback, e.Source)
	}
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	c := mustOpenCache()
	defer c.Close()

	n, err := c.Clear(cmd.Context())
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		outputHuman("Removed %d cached registries from %s\n", n, cfg.CachePath())
		return nil
	}
	outputJSON(StatusResponse{Status: "cleared", Path: cfg.CachePath(), Count: n})
	return nil
}
