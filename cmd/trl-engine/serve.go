// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/trl-engine/internal/api"
	"github.com/pdiddy/trl-engine/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the TRL HTTP API",
	Long: `Serve starts the HTTP API. Endpoints:

  GET  /api/trl?tech=X              assess a technology
  POST /api/trl/predict             assess {"technology": X}
  GET  /api/trl/history?tech=X      recorded assessments, newest first
  GET  /api/trl/distribution        latest assessments per TRL bucket
  GET  /api/trl/progression?tech=X  mean TRL per year
  GET  /healthz                     liveness and pipeline counters

The server stops gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :5001)")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := openPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	handler := api.NewHandler(p.service, logger).Router(cfg.Server.CORSOrigins)
	return serve(ctx, cfg.Server, handler)
}

// serve runs an http.Server until ctx is done, then shuts it down within
// the configured timeout.
func serve(ctx context.Context, sc types.ServerConfig, handler http.Handler) error {
	log := logger.With("system", "http")
	srv := &http.Server{
		Addr:         sc.Addr,
		Handler:      handler,
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", sc.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), sc.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", "error", err)
		return err
	}
	log.Info("server shutdown complete")
	return nil
}
