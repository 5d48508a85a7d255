// Copyright dertuxmalwieder, 2026. Licensed under the CDDL-1.1.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dertuxmalwieder/ws2markdown/internal/api"
	"github.com/dertuxmalwieder/ws2markdown/internal/convert"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve conversions over HTTP",
	Long: `Serve starts an HTTP server. POST a complete WordStar file to /convert
to receive Markdown (or HTML with ?format=html). GET /health reports liveness.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().Int64("max-body-bytes", 8<<20, "largest accepted upload")

	bindFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	bindFlag("server.max_body_bytes", serveCmd.Flags().Lookup("max-body-bytes"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Server.Validate(); err != nil {
		return fmt.Errorf("invalid server settings: %w", err)
	}

	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	srv := api.NewServer(convert.New(cfg.Conversion), cfg.Conversion, cfg.Server.MaxBodyBytes, log)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting ws2markdown", "addr", cfg.Server.Addr, "version", version)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
