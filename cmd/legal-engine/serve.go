// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/pdiddy/legal-engine/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes the pipeline over HTTP:

  POST /api/legal-query    resolve a question
  GET  /api/legal-domains  list legal domains
  GET  /api/regions        list regions
  GET  /health             service health
  GET  /metrics            pipeline metrics
  POST /metrics/reset      clear metrics

The server shuts down gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := commandConfig(cmd)
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if release, _ := cmd.Flags().GetBool("release"); release {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := commandLogger(cmd)
	p, cleanup, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := server.New(p, server.WithLogger(logger), server.WithVersion(version))
	return srv.Run(ctx, cfg.Server.Addr)
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default server.addr, :8080)")
	serveCmd.Flags().Bool("release", false, "run gin in release mode")

	rootCmd.AddCommand(serveCmd)
}
