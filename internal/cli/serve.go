package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"animagif/internal/handlers"
	"animagif/internal/logging"
	"animagif/internal/metrics"
	"animagif/internal/middleware"
	"animagif/internal/startup"
)

const (
	shutdownTimeout         = 30 * time.Second
	metricsCollectInterval  = 30 * time.Second
	serverReadHeaderTimeout = 15 * time.Second
)

func NewServeCmd(deps *Dependencies) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  "Serve the recording, export and catalog API on a local address. Ctrl+C shuts down gracefully, stopping an active recording first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				deps.Config.Server.Addr = addr
			}
			return runServer(deps)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}

func runServer(deps *Dependencies) error {
	startTime := time.Now()
	cfg := deps.Config

	startup.PrintBanner()
	cfg.Log()

	catalogStart := time.Now()
	recordings, err := deps.App.Library().List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}
	startup.LogCatalogInit(cfg.Catalog.Backend, len(recordings), time.Since(catalogStart))

	startup.LogTranscoderInit(deps.Installer, cfg.FFmpeg.UseSystem, cfg.FFmpeg.BinaryPath)

	var collector *metrics.Collector
	if cfg.Server.MetricsEnabled {
		metrics.InitializeMetrics()
		collector = metrics.NewCollector(deps.App.Library(), metricsCollectInterval)
		collector.Start()
	}

	h := handlers.New(deps.App, deps.Installer)
	router := handlers.SetupRouter(h, cfg.Server.MetricsEnabled)
	startup.LogHTTPRoutes(router, cfg.Server.LogHealthChecks)

	var handler http.Handler = router
	if cfg.Server.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	}

	accessLog := middleware.DefaultAccessLogConfig()
	accessLog.LogHealthChecks = cfg.Server.LogHealthChecks
	accessLog.LogPolling = logging.IsDebugEnabled()
	handler = middleware.AccessLog(accessLog)(handler)

	compress, err := middleware.Compression(middleware.DefaultCompressionConfig())
	if err != nil {
		return fmt.Errorf("failed to set up compression: %w", err)
	}
	handler = compress(handler)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: serverReadHeaderTimeout,
		// Exports can hold a request open for a long time.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Addr:            cfg.Server.Addr,
		MetricsEnabled:  cfg.Server.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-serveErr:
		if collector != nil {
			collector.Stop()
		}
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		startup.LogShutdownInitiated(sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping recording and exports")
	if err := deps.App.Close(ctx); err != nil {
		logging.Warn("Recording shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Recording and exports stopped")
	}

	startup.LogShutdownStep("Cleaning up transcoder")
	deps.FFmpeg.Cleanup()
	startup.LogShutdownStepComplete("Transcoder cleanup complete")

	if collector != nil {
		collector.Stop()
		startup.LogShutdownStepComplete("Metrics collector stopped")
	}

	startup.LogShutdownComplete()
	return nil
}
