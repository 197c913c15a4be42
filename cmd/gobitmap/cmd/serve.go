package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/gobitmap/internal/server"
	"github.com/MeKo-Tech/gobitmap/internal/version"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the decode API",
	Long: `Start an HTTP server that decodes and converts uploaded images.

The server provides the following endpoints:
  POST /decode    - Decode an uploaded image and report its dimensions
  POST /convert   - Re-encode an uploaded image (?to=png|jpeg&quality=N)
  GET  /formats   - List readable and writable formats
  GET  /health    - Health check endpoint
  GET  /metrics   - Prometheus metrics
  GET  /ws/decode - WebSocket, one binary frame per image

Examples:
  gobitmap serve
  gobitmap serve --port 8080
  gobitmap serve --host 0.0.0.0 --port 3000`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		serverConfig, shutdownTimeout, err := serverConfigFromFlags(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
		defer cancel()

		return runServer(ctx, serverConfig, shutdownTimeout)
	},
}

// serverConfigFromFlags merges configuration with explicitly set flags.
func serverConfigFromFlags(cmd *cobra.Command) (server.Config, time.Duration, error) {
	cfg := GetConfig()

	host := cfg.Server.Host
	if cmd.Flags().Changed("host") {
		host, _ = cmd.Flags().GetString("host")
	}

	port := cfg.Server.Port
	if cmd.Flags().Changed("port") {
		port, _ = cmd.Flags().GetInt("port")
	}

	corsOrigin := cfg.Server.CORSOrigin
	if cmd.Flags().Changed("cors-origin") {
		corsOrigin, _ = cmd.Flags().GetString("cors-origin")
	}

	maxUploadSize := cfg.Server.MaxUploadMB
	if cmd.Flags().Changed("max-upload-size") {
		maxUploadSize, _ = cmd.Flags().GetInt("max-upload-size")
	}

	timeout := cfg.Server.TimeoutSec
	if cmd.Flags().Changed("timeout") {
		timeout, _ = cmd.Flags().GetInt("timeout")
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if cmd.Flags().Changed("shutdown-timeout") {
		shutdownTimeout, _ = cmd.Flags().GetInt("shutdown-timeout")
	}

	if port < 1 || port > 65535 {
		return server.Config{}, 0, fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", port)
	}
	if maxUploadSize <= 0 {
		return server.Config{}, 0, fmt.Errorf("invalid max upload size: %d (must be positive)", maxUploadSize)
	}

	return server.Config{
		Host:          host,
		Port:          port,
		CORSOrigin:    corsOrigin,
		MaxUploadMB:   int64(maxUploadSize),
		MaxPixels:     cfg.Decode.MaxPixels,
		TimeoutSec:    timeout,
		EncodeFormat:  cfg.CompressFormat(),
		EncodeQuality: cfg.Encode.Quality,
		Version:       version.Version,
		Logger:        slog.Default(),
	}, time.Duration(shutdownTimeout) * time.Second, nil
}

// runServer serves until ctx is done, then shuts down gracefully.
func runServer(ctx context.Context, serverConfig server.Config, shutdownTimeout time.Duration) error {
	mux := http.NewServeMux()
	server.NewServer(serverConfig).SetupRoutes(mux)

	timeout := time.Duration(serverConfig.TimeoutSec) * time.Second
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", serverConfig.Host, serverConfig.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting decode server", "host", serverConfig.Host, "port", serverConfig.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("Received shutdown signal")
	}

	slog.Info("Starting graceful shutdown", "timeout", shutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
		return fmt.Errorf("shutdown failed: %w", err)
	}

	slog.Info("Graceful shutdown completed")
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().Int("max-upload-size", 50, "maximum upload size in MB")
	serveCmd.Flags().Int("timeout", 30, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
}
