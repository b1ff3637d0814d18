// Package service orchestrates one fetch cycle: weather and news are fetched
// independently (weather failure never blocks news), memoized behind TTL
// caches, and composed with the advisory and astro derivations into a
// dashboard view.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/local-insights-service/internal/advisory"
	"github.com/kjstillabower/local-insights-service/internal/astro"
	"github.com/kjstillabower/local-insights-service/internal/cache"
	"github.com/kjstillabower/local-insights-service/internal/country"
	"github.com/kjstillabower/local-insights-service/internal/models"
	"github.com/kjstillabower/local-insights-service/internal/news"
	"github.com/kjstillabower/local-insights-service/internal/observability"
	"github.com/kjstillabower/local-insights-service/internal/weather"
)

// WeatherPanel is the composed weather section of a dashboard view.
type WeatherPanel struct {
	Snapshot      models.WeatherSnapshot `json:"snapshot"`
	Icon          string                 `json:"icon"`
	WindDirection string                 `json:"windDirection,omitempty"`
	Astro         astro.Times            `json:"astro"`
	Suggestions   []advisory.Suggestion  `json:"suggestions"`
}

// DashboardView is the result of one fetch cycle. Weather is nil when the
// weather fetch failed; WeatherStatus/WeatherMessage then explain why. News
// is always present (possibly empty) regardless of weather outcome.
type DashboardView struct {
	Request        models.DashboardRequest `json:"request"`
	CountryName    string                  `json:"countryName,omitempty"`
	Weather        *WeatherPanel           `json:"weather,omitempty"`
	WeatherStatus  string                  `json:"weatherStatus,omitempty"`
	WeatherMessage string                  `json:"weatherMessage,omitempty"`
	News           []models.NewsArticle    `json:"news"`
	GeneratedAt    time.Time               `json:"generatedAt"`
}

// Dashboard composes weather, advisory, astro and news data for requests.
type Dashboard struct {
	weather    weather.Client
	news       news.Client
	snapshots  cache.Cache[models.WeatherSnapshot]
	articles   cache.Cache[[]models.NewsArticle]
	weatherTTL time.Duration
	newsTTL    time.Duration
	logger     *zap.Logger
}

// NewDashboard creates a Dashboard service with the provided collaborators.
// TTLs bound how long fetched weather and news are memoized per request key.
func NewDashboard(
	weatherClient weather.Client,
	newsClient news.Client,
	snapshots cache.Cache[models.WeatherSnapshot],
	articles cache.Cache[[]models.NewsArticle],
	weatherTTL, newsTTL time.Duration,
	logger *zap.Logger,
) *Dashboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dashboard{
		weather:    weatherClient,
		news:       newsClient,
		snapshots:  snapshots,
		articles:   articles,
		weatherTTL: weatherTTL,
		newsTTL:    newsTTL,
		logger:     logger,
	}
}

// GetDashboard runs one fetch cycle for the request. Weather and news are
// fetched concurrently since neither depends on the other's result; a weather
// failure is folded into the view rather than propagated, so the news panel
// always renders.
func (s *Dashboard) GetDashboard(ctx context.Context, req models.DashboardRequest) DashboardView {
	start := time.Now()
	logger := s.requestLogger(ctx)

	var wg sync.WaitGroup
	var snap models.WeatherSnapshot
	var weatherErr error
	var articles []models.NewsArticle

	wg.Add(2)
	go func() {
		defer wg.Done()
		snap, weatherErr = s.GetWeather(ctx, req.City, req.Country)
	}()
	go func() {
		defer wg.Done()
		articles = s.GetNews(ctx, req.Query, req.Country)
	}()
	wg.Wait()

	view := DashboardView{
		Request:     req,
		News:        articles,
		GeneratedAt: time.Now().UTC(),
	}
	if code, ok := country.Resolve(req.Country); ok {
		view.CountryName = country.Name(code)
	}

	if weatherErr != nil {
		view.WeatherStatus, view.WeatherMessage = describeWeatherFailure(weatherErr)
		logger.Warn("dashboard composed without weather",
			zap.String("city", req.City),
			zap.String("country", req.Country),
			zap.String("status", view.WeatherStatus),
			zap.Error(weatherErr))
	} else {
		view.Weather = buildWeatherPanel(snap)
	}

	observability.DashboardViewsTotal.Inc()
	logger.Debug("dashboard composed",
		zap.String("city", req.City),
		zap.Bool("weather", view.Weather != nil),
		zap.Int("articles", len(articles)),
		zap.Duration("duration", time.Since(start)))
	return view
}

// GetWeather retrieves the snapshot for a city/country pair using the
// cache-aside pattern: cache first, upstream on miss, populate on success.
// Failures propagate typed so the caller can render an explanatory state.
func (s *Dashboard) GetWeather(ctx context.Context, city, countryName string) (models.WeatherSnapshot, error) {
	key := weatherKey(city, countryName)
	logger := s.requestLogger(ctx)

	cached, ok, err := s.snapshots.Get(ctx, key)
	if err != nil {
		observability.CacheErrorsTotal.WithLabelValues("get", categorizeCacheError(err)).Inc()
	} else if ok {
		observability.CacheHitsTotal.WithLabelValues("weather").Inc()
		logger.Debug("weather cache hit", zap.String("key", key))
		return cached, nil
	}

	snap, err := s.weather.Current(ctx, city, countryName)
	if err != nil {
		return models.WeatherSnapshot{}, fmt.Errorf("fetch weather for %s: %w", key, err)
	}

	if setErr := s.snapshots.Set(ctx, key, snap, s.weatherTTL); setErr != nil {
		observability.CacheErrorsTotal.WithLabelValues("set", categorizeCacheError(setErr)).Inc()
		logger.Warn("weather cache set failed", zap.String("key", key), zap.Error(setErr))
	}
	return snap, nil
}

// GetNews retrieves headlines for a country and optional query, memoized for
// the news TTL. Always returns a usable (possibly empty) slice.
func (s *Dashboard) GetNews(ctx context.Context, query, countryName string) []models.NewsArticle {
	key := newsKey(query, countryName)
	logger := s.requestLogger(ctx)

	cached, ok, err := s.articles.Get(ctx, key)
	if err != nil {
		observability.CacheErrorsTotal.WithLabelValues("get", categorizeCacheError(err)).Inc()
	} else if ok {
		observability.CacheHitsTotal.WithLabelValues("news").Inc()
		logger.Debug("news cache hit", zap.String("key", key))
		return cached
	}

	articles := s.news.TopHeadlines(ctx, query, countryName)
	if articles == nil {
		articles = []models.NewsArticle{}
	}

	// An empty result from a degraded fetch is cached too; re-fetching every
	// request would hammer a failing provider.
	if setErr := s.articles.Set(ctx, key, articles, s.newsTTL); setErr != nil {
		observability.CacheErrorsTotal.WithLabelValues("set", categorizeCacheError(setErr)).Inc()
		logger.Warn("news cache set failed", zap.String("key", key), zap.Error(setErr))
	}
	return articles
}

// buildWeatherPanel derives the display panel from one snapshot: astro times
// from the snapshot's own timestamps, then suggestions from its measurements.
func buildWeatherPanel(snap models.WeatherSnapshot) *WeatherPanel {
	times := astro.Compute(snap.ObservedAt, snap.SunriseAt, snap.SunsetAt, snap.UTCOffsetSeconds)

	pressure := snap.PressureHPa
	suggestions := advisory.Suggest(advisory.Input{
		TemperatureC: snap.TemperatureC,
		Description:  snap.ConditionDescription,
		WindSpeedMps: snap.WindSpeedMps,
		HumidityPct:  snap.HumidityPct,
		IsDaytime:    times.IsDay,
		PressureHPa:  &pressure,
		VisibilityM:  snap.VisibilityM,
	})

	panel := &WeatherPanel{
		Snapshot:    snap,
		Icon:        weather.ConditionIcon(snap.ConditionMain),
		Astro:       times,
		Suggestions: suggestions,
	}
	if snap.WindDirectionDeg != nil {
		panel.WindDirection = astro.CardinalDirection(*snap.WindDirectionDeg)
	}
	return panel
}

// describeWeatherFailure maps a typed weather error to a stable status code
// and a message suitable for the dashboard's weather panel placeholder.
func describeWeatherFailure(err error) (status, message string) {
	var provErr *weather.ProviderError
	switch {
	case errors.Is(err, weather.ErrUnconfigured):
		return "UNCONFIGURED", "Weather provider API key is not configured."
	case errors.Is(err, weather.ErrTimeout):
		return "TIMEOUT", "Weather provider did not respond in time. Try again."
	case errors.Is(err, weather.ErrNetwork):
		return "UNREACHABLE", "Weather provider could not be reached. Try again."
	case errors.As(err, &provErr):
		if provErr.Status == 404 {
			return "LOCATION_NOT_FOUND", "Weather provider does not know this city/country. Check the spelling."
		}
		return "PROVIDER_ERROR", fmt.Sprintf("Weather provider rejected the request (HTTP %d).", provErr.Status)
	case errors.Is(err, weather.ErrMalformedResponse), errors.Is(err, weather.ErrIncompleteData):
		return "BAD_PAYLOAD", "Weather provider returned unusable data."
	}
	return "UNKNOWN", "Weather data is unavailable."
}

// categorizeCacheError returns a stable label for cache error metrics.
func categorizeCacheError(err error) string {
	if err == nil {
		return "unknown"
	}
	errStr := err.Error()
	if strings.Contains(errStr, "timeout") {
		return "timeout"
	}
	if strings.Contains(errStr, "connection") || strings.Contains(errStr, "network") {
		return "connection"
	}
	return "unknown"
}

func (s *Dashboard) requestLogger(ctx context.Context) *zap.Logger {
	if l := observability.LoggerFromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// weatherKey normalizes (city, country) into a cache key.
func weatherKey(city, countryName string) string {
	return normalize(city) + "," + normalize(countryName)
}

// newsKey normalizes (query, country) into a cache key.
func newsKey(query, countryName string) string {
	return normalize(countryName) + "|" + normalize(query)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
