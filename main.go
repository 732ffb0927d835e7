package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"refsearch/internal/cache"
	"refsearch/internal/filesystem"
	"refsearch/internal/handlers"
	"refsearch/internal/logging"
	"refsearch/internal/middleware"
	"refsearch/internal/search"
	"refsearch/internal/startup"
)

// cachePurgeInterval is how often expired result-cache entries are swept.
// Lookups also expire lazily, so the sweep only bounds database growth.
const cachePurgeInterval = time.Hour

func main() {
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	filesystem.SetDefaultRootResolver(filesystem.NewRootResolver(config.Roots))

	resultCache, err := cache.New(context.Background(), config.DatabasePath, config.CacheTTL)
	if err != nil {
		startup.LogFatal("Cache initialization error: %v", err)
	}
	defer func() {
		if err := resultCache.Close(); err != nil {
			logging.Error("failed to close result cache: %v", err)
		}
	}()

	purgeDone := make(chan struct{})
	go purgeLoop(resultCache, purgeDone)

	svc := search.NewService(resultCache, config.SearchWorkers)
	h := handlers.New(svc, config)
	router := setupRouter(h, config)

	server := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// No blanket write timeout: image searches respond synchronously
		// and can legitimately take minutes on a cold NAS.
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		logging.Info("")
		logging.Info("============================================================")
		logging.Info("  Listening on :%s", config.Port)
		logging.Info("============================================================")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			startup.LogFatal("Server error: %v", err)
		}
	}()

	waitForShutdown(server, svc, purgeDone)
}

func setupRouter(h *handlers.Handlers, config *startup.Config) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.Logging(config.LogHealthChecks))
	if config.MetricsEnabled {
		router.Use(middleware.Metrics())
		router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/search", h.StartSearch).Methods(http.MethodPost)
	api.HandleFunc("/search/progress", h.GetProgress).Methods(http.MethodGet)
	api.HandleFunc("/search/cancel", h.CancelSearch).Methods(http.MethodPost)
	api.HandleFunc("/search/results", h.GetResults).Methods(http.MethodGet)
	api.HandleFunc("/search/reset", h.ResetSearch).Methods(http.MethodPost)
	api.HandleFunc("/image-search", h.ImageSearch).Methods(http.MethodPost)

	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet)
	router.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	router.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	return router
}

func purgeLoop(c *cache.Cache, done <-chan struct{}) {
	ticker := time.NewTicker(cachePurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := c.PurgeExpired(); err != nil {
				logging.Error("cache purge failed: %v", err)
			}
		case <-done:
			return
		}
	}
}

func waitForShutdown(server *http.Server, svc *search.Service, purgeDone chan struct{}) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logging.Info("received %v, shutting down", sig)
	close(purgeDone)

	// Cancel any in-flight search and wait for its run loop to exit so
	// cached writes finish before the process dies.
	if svc.Cancel() {
		select {
		case <-svc.Done():
		case <-time.After(10 * time.Second):
			logging.Warn("search did not stop within 10s, continuing shutdown")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logging.Error("server shutdown error: %v", err)
	}
	logging.Info("shutdown complete")
}
