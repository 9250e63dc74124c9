// Command server runs the Curva ABC exporter HTTP service: upload a Lince
// Curva ABC PDF, review the extracted products, download the Excel export.
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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/curva-abc-exporter/internal/domain/report/handler"
	"github.com/FACorreiaa/curva-abc-exporter/internal/domain/report/sector"
	"github.com/FACorreiaa/curva-abc-exporter/internal/domain/report/service"
	"github.com/FACorreiaa/curva-abc-exporter/internal/metrics"
	"github.com/FACorreiaa/curva-abc-exporter/pkg/config"
	"github.com/FACorreiaa/curva-abc-exporter/pkg/cron"
	"github.com/FACorreiaa/curva-abc-exporter/pkg/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := storage.NewLocalStore(cfg.Storage.LocalPath)
	if err != nil {
		return err
	}

	rules, err := loadSectorTable(cfg, logger)
	if err != nil {
		return err
	}
	classifier := sector.NewClassifier(rules, cfg.Sector.FuzzyThreshold)

	var m *metrics.Metrics
	if cfg.Observability.MetricsEnabled {
		m = metrics.New()
	}

	svc := service.NewService(logger, classifier, store, m)
	limiter := rate.NewLimiter(rate.Limit(cfg.Server.RateLimitPerSecond), cfg.Server.RateLimitBurst)
	h := handler.NewHandler(logger, svc, limiter, cfg.Upload.MaxBytes, cfg.Server.BaseURL)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.Observability.MetricsEnabled {
		router.Handle("/metrics", promhttp.Handler())
	}
	router.Mount("/v1", h.Routes())

	scheduler := cron.NewScheduler(store, cfg.Storage.ExportTTL, logger)
	if err := scheduler.Start(); err != nil {
		return err
	}
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

// loadSectorTable returns the operator-supplied keyword table when configured,
// falling back to the built-in defaults.
func loadSectorTable(cfg *config.Config, logger *slog.Logger) ([]sector.Rule, error) {
	if cfg.Sector.TablePath == "" {
		return sector.DefaultTable(), nil
	}

	rules, err := sector.LoadTableFile(cfg.Sector.TablePath)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded sector table",
		slog.String("path", cfg.Sector.TablePath),
		slog.Int("rules", len(rules)))
	return rules, nil
}

// requestLogger logs one line per request with status and latency.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
