// Package refresh keeps the caches warm for a configured set of locations by
// re-running the weather fetch on a fixed interval. The serving path never
// depends on it; a failed sweep just means the next request pays the fetch.
package refresh

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/kjstillabower/local-insights-service/internal/models"
	"github.com/kjstillabower/local-insights-service/internal/observability"
)

// Fetcher is implemented by the service layer. Fetching through it populates
// the cache as a side effect of the cache-aside pattern.
type Fetcher interface {
	GetWeather(ctx context.Context, city, country string) (models.WeatherSnapshot, error)
}

// Worker periodically refreshes weather for tracked "City,Country" pairs.
type Worker struct {
	scheduler *gocron.Scheduler
	fetcher   Fetcher
	locations []models.DashboardRequest
	interval  time.Duration
	logger    *zap.Logger
}

// New creates a Worker. locations are "City,Country" strings; entries without
// a comma are treated as city-only. Malformed (empty) entries are skipped
// with a warning.
func New(fetcher Fetcher, locations []string, interval time.Duration, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Worker{
		scheduler: gocron.NewScheduler(time.UTC),
		fetcher:   fetcher,
		interval:  interval,
		logger:    logger,
	}
	for _, loc := range locations {
		req, ok := parseLocation(loc)
		if !ok {
			logger.Warn("skipping malformed tracked location", zap.String("location", loc))
			continue
		}
		w.locations = append(w.locations, req)
	}
	return w
}

// Start schedules the periodic sweep and starts the scheduler in the
// background. No-op when there is nothing to track.
func (w *Worker) Start() error {
	if len(w.locations) == 0 {
		w.logger.Info("refresh: no tracked locations, worker idle")
		return nil
	}
	if _, err := w.scheduler.Every(w.interval).Do(w.sweep); err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}
	w.scheduler.StartAsync()
	w.logger.Info("refresh worker started",
		zap.Int("locations", len(w.locations)),
		zap.Duration("interval", w.interval))
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (w *Worker) Stop() {
	w.scheduler.Stop()
}

// sweep fetches all tracked locations concurrently, bounded by the sweep
// interval so overlapping runs cannot pile up.
func (w *Worker) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), w.interval)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	errCh := make(chan error, len(w.locations))
	for _, loc := range w.locations {
		loc := loc
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := w.fetcher.GetWeather(ctx, loc.City, loc.Country); err != nil {
				errCh <- fmt.Errorf("refresh %s,%s: %w", loc.City, loc.Country, err)
			}
		}()
	}
	wg.Wait()
	close(errCh)

	var failed int
	for err := range errCh {
		failed++
		w.logger.Warn("refresh fetch failed", zap.Error(err))
	}

	observability.RefreshDurationSeconds.Observe(time.Since(start).Seconds())
	if failed > 0 {
		observability.RefreshRunsTotal.WithLabelValues("partial").Inc()
		w.logger.Info("refresh sweep finished with failures",
			zap.Int("failed", failed),
			zap.Int("total", len(w.locations)))
		return
	}
	observability.RefreshRunsTotal.WithLabelValues("success").Inc()
	w.logger.Debug("refresh sweep finished", zap.Int("locations", len(w.locations)))
}

// parseLocation splits "City,Country" on the first comma.
func parseLocation(s string) (models.DashboardRequest, bool) {
	city, countryName, _ := strings.Cut(s, ",")
	city = strings.TrimSpace(city)
	if city == "" {
		return models.DashboardRequest{}, false
	}
	return models.DashboardRequest{
		City:    city,
		Country: strings.TrimSpace(countryName),
	}, true
}
