package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/matsen/pubfrac/internal/server"
)

var (
	serveAddr    string
	serveNoCache bool
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, 127.0.0.1:8080)")
	serveCmd.Flags().BoolVar(&serveNoCache, "no-cache", false, "Bypass the persistent registry cache")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve <file>",
	Short: "Serve aggregates over HTTP",
	Long: `Serve aggregates for one registry file over HTTP.

Endpoints:
  GET /healthcheck
  GET /api/aggregates   one taxonomy, display order
  GET /api/facets       years and divisions of one taxonomy
  GET /api/report       Portal and Scopus reports

Query parameters:
  taxonomy   portal (default) or scopus
  mode       fractional (default) or portal-score
  year       repeatable or comma-separated
  division   repeatable
  top        keep the N divisions with the most publications
  review     strict, non-strict (repeatable or comma-separated)

The file is re-read only when its size or modification time changes.

Usage:
  pubfrac serve registry.csv
  pubfrac serve registry.csv --addr :9000`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	p := openPipeline(serveNoCache)
	defer p.Close()

	// Fail fast on an unreadable or malformed registry.
	if _, err := p.load(cmd.Context(), args[0]); err != nil {
		fail(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(args[0], p.memo, p.builder, logger)
	if !humanOutput {
		outputJSON(StatusResponse{Status: "listening", Path: addr})
	} else {
		outputHuman("Serving %s on http://%s\n", args[0], addr)
	}
	if err := srv.Run(ctx, addr); err != nil {
		exitWithError(ExitError, "server: %v", err)
	}
	return nil
}
