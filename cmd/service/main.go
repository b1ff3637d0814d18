package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sony/gobreaker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/local-insights-service/internal/cache"
	"github.com/kjstillabower/local-insights-service/internal/config"
	httphandler "github.com/kjstillabower/local-insights-service/internal/http"
	"github.com/kjstillabower/local-insights-service/internal/models"
	"github.com/kjstillabower/local-insights-service/internal/news"
	"github.com/kjstillabower/local-insights-service/internal/observability"
	"github.com/kjstillabower/local-insights-service/internal/refresh"
	"github.com/kjstillabower/local-insights-service/internal/service"
	"github.com/kjstillabower/local-insights-service/internal/weather"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "local-insights-service",
		Short: "Weather, advisory and news dashboard backend",
	}
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	logger, err := observability.NewLogger()
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	if !cfg.WeatherConfigured() {
		logger.Warn("weather API key missing or placeholder; weather panels will degrade")
	}
	if !cfg.NewsConfigured() {
		logger.Warn("news API key missing or placeholder; news panel will be empty")
	}

	weatherClient := weather.NewOpenWeatherClient(cfg.WeatherAPIKey, cfg.WeatherAPIURL, cfg.WeatherAPITimeout)
	newsClient := news.NewNewsAPIClient(cfg.NewsAPIKey, cfg.NewsAPIURL, cfg.NewsAPITimeout, logger)

	if cfg.BreakerEnabled {
		weatherClient.SetBreaker(newBreaker("weather_api", cfg.BreakerTimeout, logger))
		newsClient.SetBreaker(newBreaker("news_api", cfg.BreakerTimeout, logger))
		logger.Info("circuit breakers enabled", zap.Duration("timeout", cfg.BreakerTimeout))
	}

	var snapshots cache.Cache[models.WeatherSnapshot]
	var articles cache.Cache[[]models.NewsArticle]
	var cachePing func() error
	var cacheClosers []func() error
	switch cfg.CacheBackend {
	case "memcached":
		snapMC, err := cache.NewMemcached[models.WeatherSnapshot](cfg.MemcachedAddrs, "weather:", cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Fatal("memcached cache", zap.Error(err))
		}
		newsMC, err := cache.NewMemcached[[]models.NewsArticle](cfg.MemcachedAddrs, "news:", cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Fatal("memcached cache", zap.Error(err))
		}
		snapshots, articles = snapMC, newsMC
		cachePing = snapMC.Ping
		cacheClosers = append(cacheClosers, snapMC.Close, newsMC.Close)
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	default:
		snapshots = cache.NewInMemory[models.WeatherSnapshot]()
		articles = cache.NewInMemory[[]models.NewsArticle]()
		logger.Info("cache backend: in_memory")
	}

	dashboard := service.NewDashboard(
		weatherClient,
		newsClient,
		snapshots,
		articles,
		cfg.WeatherCacheTTL,
		cfg.NewsCacheTTL,
		logger,
	)

	var refresher *refresh.Worker
	if cfg.RefreshEnabled && len(cfg.TrackedLocations) > 0 {
		refresher = refresh.New(dashboard, cfg.TrackedLocations, cfg.RefreshInterval, logger)
		if err := refresher.Start(); err != nil {
			logger.Fatal("refresh worker", zap.Error(err))
		}
	}

	handler := httphandler.NewHandler(dashboard, httphandler.HandlerConfig{
		DefaultCity:       cfg.DefaultCity,
		DefaultCountry:    cfg.DefaultCountry,
		LocationMinLength: cfg.LocationMinLength,
		LocationMaxLength: cfg.LocationMaxLength,
		QueryMaxLength:    cfg.QueryMaxLength,
		WeatherConfigured: cfg.WeatherConfigured(),
		NewsConfigured:    cfg.NewsConfigured(),
		CachePing:         cachePing,
	}, logger)

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	router := httphandler.NewRouter(handler, logger, limiter, observability.MetricsHandler())

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("server failed", zap.Error(err))
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if refresher != nil {
		refresher.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	for _, closeFn := range cacheClosers {
		if err := closeFn(); err != nil {
			logger.Warn("cache close", zap.Error(err))
		}
	}
	if err := observability.FlushTelemetry(shutdownCtx, logger); err != nil {
		fmt.Fprintf(os.Stderr, "flush telemetry: %v\n", err)
	}
	logger.Info("shutdown complete")
	return nil
}

// newBreaker builds a circuit breaker for one upstream provider. Trips after
// 5 consecutive failures, probes again after timeout.
func newBreaker(name string, timeout time.Duration, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}
