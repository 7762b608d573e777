package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mediahub/internal/catalog"
	"mediahub/internal/config"
	"mediahub/internal/enrich"
	"mediahub/internal/handlers"
	"mediahub/internal/imagecache"
	"mediahub/internal/logging"
	"mediahub/internal/media"
	"mediahub/internal/metadata"
	"mediahub/internal/middleware"
	"mediahub/internal/scanner"
	"mediahub/internal/startup"
	"mediahub/internal/subtitles"
	"mediahub/internal/workers"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()
	startup.PrintBanner()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	// The declarative config must parse before anything starts; provider
	// credentials come from it.
	file, err := cfg.LoadFile()
	if err != nil {
		logging.Fatal("Config file error: %v", err)
	}

	cat, err := catalog.New(context.Background(), cfg.DatabasePath)
	if err != nil {
		logging.Fatal("Failed to initialize catalog: %v", err)
	}
	defer cat.Close()

	posters, err := imagecache.NewStore(cfg.PosterDir)
	if err != nil {
		logging.Fatal("Failed to initialize image cache: %v", err)
	}

	provider := metadata.NewClient(file.Metadata.URL, file.Metadata.APIKey)

	enrichWorkers := cfg.EnrichWorkers
	if enrichWorkers == 0 {
		enrichWorkers = workers.ForIO(8)
	}
	pool := enrich.NewPool(cat, provider, posters)
	poolCtx, poolCancel := context.WithCancel(context.Background())
	pool.Start(poolCtx, enrichWorkers)

	scn := scanner.New(cfg, cat, pool)
	coordinator := scanner.NewCoordinator(scn)
	coordinator.Run(cfg.ScanInterval)

	subClient := subtitles.NewClient(file.Subtitles.URL, file.Subtitles.DownloadURL, file.Subtitles.APIKey)
	subManager := subtitles.NewManager(subClient, cat, cfg.SubtitleDir, file.Subtitles.Languages)

	previews := media.NewPreviewGenerator(cfg.PreviewDir)

	h := handlers.New(cat, coordinator, previews, subManager, cfg)

	router := mux.NewRouter()
	h.RegisterRoutes(router)

	logged := middleware.Logger(middleware.DefaultLoggingConfig())(router)
	handler := middleware.Metrics(middleware.DefaultMetricsConfig())(logged)

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// Streaming responses have no bounded duration; the timeout
		// writer guards against stalled clients instead.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	if cfg.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:         ":" + cfg.MetricsPort,
			Handler:      metricsMux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(srv, metricsSrv, coordinator, pool, poolCancel)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            cfg.Port,
		MetricsPort:     cfg.MetricsPort,
		MetricsEnabled:  cfg.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("Server error: %v", err)
	}
}

func handleShutdown(srv, metricsSrv *http.Server, coordinator *scanner.Coordinator, pool *enrich.Pool, poolCancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	coordinator.Stop()
	startup.LogShutdownStepComplete("Scanner stopped")

	poolCancel()
	pool.Stop()
	startup.LogShutdownStepComplete("Enrichment pool drained")

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		}
	}

	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
