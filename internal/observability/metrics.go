package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// OpenWeatherMap API call rate. Watch for: error vs success ratio.
	WeatherAPICallsTotal *prometheus.CounterVec

	// OpenWeatherMap latency per request. Watch for: p95 > 2s (upstream degradation).
	WeatherAPIDuration *prometheus.HistogramVec

	// Weather API failures by category (timeout, provider_5xx, malformed, ...).
	WeatherAPIErrorsTotal *prometheus.CounterVec

	// NewsAPI call rate. News degrades to empty on failure, so this is the
	// only place news provider trouble is visible.
	NewsAPICallsTotal *prometheus.CounterVec

	// NewsAPI latency per request.
	NewsAPIDuration *prometheus.HistogramVec

	// News API failures by category. Nonzero with an empty news panel means
	// the provider is failing, not that there is no news.
	NewsAPIErrorsTotal *prometheus.CounterVec

	// Country names that fell back to the default code. Watch for: growth
	// means users type names missing from the resolver table.
	CountryFallbackTotal prometheus.Counter

	// Cache hits by value type (weather, news).
	CacheHitsTotal *prometheus.CounterVec

	// Cache backend errors by operation and category.
	CacheErrorsTotal *prometheus.CounterVec

	// Dashboard views composed. Watch for: traffic volume, rate() for QPS.
	DashboardViewsTotal prometheus.Counter

	// Background refresh runs by outcome.
	RefreshRunsTotal *prometheus.CounterVec

	// Duration of one full refresh sweep over tracked locations.
	RefreshDurationSeconds prometheus.Histogram

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	WeatherAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiCallsTotal",
			Help: "Total number of OpenWeatherMap API calls",
		},
		[]string{"status"},
	)
	WeatherAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherApiDurationSeconds",
			Help:    "OpenWeatherMap API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	WeatherAPIErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiErrorsTotal",
			Help: "Weather API failures by error category",
		},
		[]string{"category"},
	)
	NewsAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsApiCallsTotal",
			Help: "Total number of NewsAPI calls",
		},
		[]string{"status"},
	)
	NewsAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsApiDurationSeconds",
			Help:    "NewsAPI latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	NewsAPIErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsApiErrorsTotal",
			Help: "News API failures by error category (degraded to empty result)",
		},
		[]string{"category"},
	)
	CountryFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "countryFallbackTotal",
			Help: "Country names that could not be resolved and fell back to the default code",
		},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheHitsTotal",
			Help: "Total number of cache hits by value type",
		},
		[]string{"cacheType"},
	)
	CacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheErrorsTotal",
			Help: "Cache backend errors by operation and category",
		},
		[]string{"operation", "category"},
	)
	DashboardViewsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboardViewsTotal",
			Help: "Total number of dashboard views composed",
		},
	)
	RefreshRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refreshRunsTotal",
			Help: "Background refresh sweeps by outcome",
		},
		[]string{"status"},
	)
	RefreshDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "refreshDurationSeconds",
			Help:    "Duration of one refresh sweep over tracked locations",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30},
		},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		HTTPRequestsInFlight,
		WeatherAPICallsTotal,
		WeatherAPIDuration,
		WeatherAPIErrorsTotal,
		NewsAPICallsTotal,
		NewsAPIDuration,
		NewsAPIErrorsTotal,
		CountryFallbackTotal,
		CacheHitsTotal,
		CacheErrorsTotal,
		DashboardViewsTotal,
		RefreshRunsTotal,
		RefreshDurationSeconds,
		RateLimitDeniedTotal,
	)
}

// MetricsHandler returns the /metrics endpoint handler for the service registry.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// StatusLabel buckets an HTTP status code into a stable metric label.
func StatusLabel(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "success"
	case statusCode == http.StatusTooManyRequests:
		return "rate_limited"
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode >= 500:
		return "server_error"
	default:
		return "error"
	}
}
