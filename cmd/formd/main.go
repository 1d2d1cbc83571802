// Command formd serves the custom-form engine over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	iskolarforms "github.com/LouieCads/iskolar-forms"
	"github.com/LouieCads/iskolar-forms/internal/platform/config"
	"github.com/LouieCads/iskolar-forms/internal/platform/logger"
	"github.com/LouieCads/iskolar-forms/internal/platform/metrics"
	"github.com/LouieCads/iskolar-forms/internal/server"
	"github.com/LouieCads/iskolar-forms/internal/storage"
	"github.com/LouieCads/iskolar-forms/internal/submit"
	"github.com/LouieCads/iskolar-forms/internal/uploads"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("ISKOLAR_FORMS_CONFIG"))
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	serviceMetrics := metrics.New(registry)

	uploader := uploads.New(cfg.UploadBaseURL, cfg.UploadTimeout)
	coordinator := submit.New(store, uploader,
		submit.WithLogger(log),
		submit.WithMetrics(serviceMetrics),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/", server.New(store, coordinator, iskolarforms.NewRendererRegistry(), log).Routes())

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown", "error", err)
		}
	}()

	log.Info("form service listening", "addr", cfg.Addr, "database", cfg.DatabasePath)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("serve", "error", err)
		os.Exit(1)
	}
}
