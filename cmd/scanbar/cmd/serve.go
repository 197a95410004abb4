package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/tcx-health/scanbar/internal/audit"
	"github.com/tcx-health/scanbar/internal/config"
	"github.com/tcx-health/scanbar/internal/product"
	"github.com/tcx-health/scanbar/internal/scan"
	"github.com/tcx-health/scanbar/internal/server"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the barcode scanning API",
	Long: `Start an HTTP server that provides REST API endpoints for barcode
scanning and product lookups.

The server provides the following endpoints:
  POST /barcode/scan     - Decode a barcode and resolve the product
  POST /barcode/read     - Decode a barcode only
  GET  /products/search  - Free-text product search
  GET  /scans            - Recent scan history
  GET  /health           - Health check endpoint
  GET  /metrics          - Prometheus metrics

Examples:
  scanbar serve
  scanbar serve --port 8080
  scanbar serve --host 0.0.0.0 --port 3000 --audit-db scans.db`,
	RunE: func(cmd *cobra.Command, _ []string) error {
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
		maxUploadMB := cfg.Server.MaxUploadMB
		if cmd.Flags().Changed("max-upload-size") {
			maxUploadMB, _ = cmd.Flags().GetInt("max-upload-size")
		}
		timeout := cfg.Server.TimeoutSec
		if cmd.Flags().Changed("timeout") {
			timeout, _ = cmd.Flags().GetInt("timeout")
		}
		shutdownTimeout := cfg.Server.ShutdownTimeout
		if cmd.Flags().Changed("shutdown-timeout") {
			shutdownTimeout, _ = cmd.Flags().GetInt("shutdown-timeout")
		}
		auditDB := cfg.Audit.DBPath
		auditEnabled := cfg.Audit.Enabled
		if cmd.Flags().Changed("audit-db") {
			auditDB, _ = cmd.Flags().GetString("audit-db")
			auditEnabled = auditDB != ""
		}
		cacheAddr := cfg.Resolver.CacheAddr
		if cmd.Flags().Changed("cache-addr") {
			cacheAddr, _ = cmd.Flags().GetString("cache-addr")
		}

		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", port)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		serverCfg, cleanup, err := buildServerConfig(cfg, corsOrigin, maxUploadMB, auditEnabled, auditDB, cacheAddr)
		if err != nil {
			return err
		}
		defer cleanup()

		scanServer := server.NewServer(*serverCfg)
		defer func() { _ = scanServer.Close() }()

		mux := http.NewServeMux()
		scanServer.SetupRoutes(mux)

		httpServer := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       time.Duration(timeout) * time.Second,
			WriteTimeout:      time.Duration(timeout) * time.Second,
		}

		go func() {
			slog.Info("Starting scan server", "host", host, "port", port)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Server error", "error", err)
				cancel()
			}
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal", "signal", sig.String())
		case <-ctx.Done():
			slog.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
			time.Duration(shutdownTimeout)*time.Second)
		defer shutdownCancel()

		slog.Info("Shutting down HTTP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
		if err := scanServer.Close(); err != nil {
			slog.Error("Server cleanup error", "error", err)
		}
		slog.Info("Graceful shutdown completed")
		return nil
	},
}

// buildServerConfig assembles the pipeline and its collaborators from the
// effective configuration. The returned cleanup closes whatever was opened.
func buildServerConfig(cfg *config.Config, corsOrigin string, maxUploadMB int,
	auditEnabled bool, auditDB, cacheAddr string,
) (*server.Config, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var resolver product.Resolver
	var searcher *product.Client
	if cfg.Resolver.Enabled {
		opts := []product.ClientOption{
			product.WithBaseURL(cfg.Resolver.BaseURL),
			product.WithTimeout(time.Duration(cfg.Resolver.TimeoutSec) * time.Second),
		}
		if cfg.Resolver.UserAgent != "" {
			opts = append(opts, product.WithUserAgent(cfg.Resolver.UserAgent))
		}
		client := product.NewClient(opts...)
		searcher = client
		resolver = client

		if cacheAddr != "" {
			rdb := redis.NewClient(&redis.Options{Addr: cacheAddr})
			closers = append(closers, func() { _ = rdb.Close() })
			resolver = product.NewCachedResolver(client, rdb,
				time.Duration(cfg.Resolver.CacheTTLSec)*time.Second)
			slog.Info("Product cache enabled", "addr", cacheAddr)
		}
	}

	builder := scan.NewBuilder().
		WithMaxWidth(cfg.Pipeline.MaxWidth).
		WithTryHarder(cfg.Pipeline.TryHarder).
		WithFormats(cfg.DecodeFormats())
	if resolver != nil {
		builder = builder.WithResolver(resolver)
	}
	pipeline, err := builder.Build()
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("building scan pipeline: %w", err)
	}

	serverCfg := &server.Config{
		Pipeline:    pipeline,
		CORSOrigin:  corsOrigin,
		MaxUploadMB: int64(maxUploadMB),
		Debug:       cfg.Debug,
	}
	if searcher != nil {
		serverCfg.Searcher = searcher
	}

	if auditEnabled {
		store, err := audit.Open(auditDB)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("opening audit store: %w", err)
		}
		closers = append(closers, func() { _ = store.Close() })
		serverCfg.History = store
		serverCfg.Recorder = audit.NewRecorder(store, cfg.Audit.BufferSize)
		slog.Info("Scan history enabled", "path", auditDB)
	}

	if cfg.Server.RateLimitEnabled {
		serverCfg.Limiter = server.NewLimiter(
			cfg.Server.RequestsPerMinute,
			cfg.Server.RequestsPerHour,
			cfg.Server.MaxRequestsPerDay,
			cfg.Server.MaxDataPerDay,
		)
	}

	return serverCfg, cleanup, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().Int("max-upload-size", 50, "maximum upload size in MB")
	serveCmd.Flags().Int("timeout", 60, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	serveCmd.Flags().String("audit-db", "", "sqlite path for scan history (empty disables it)")
	serveCmd.Flags().String("cache-addr", "", "redis address for the product cache (empty disables it)")
}
