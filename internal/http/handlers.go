package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/local-insights-service/internal/models"
	"github.com/kjstillabower/local-insights-service/internal/service"
	"github.com/kjstillabower/local-insights-service/internal/validation"
	"github.com/kjstillabower/local-insights-service/internal/weather"
)

// HandlerConfig holds presentation-layer settings the handlers need.
type HandlerConfig struct {
	DefaultCity    string
	DefaultCountry string

	LocationMinLength int
	LocationMaxLength int
	QueryMaxLength    int

	WeatherConfigured bool
	NewsConfigured    bool

	// CachePing, when set, is called to check cache reachability. Used when
	// backend is memcached.
	CachePing func() error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	dashboard *service.Dashboard
	cfg       HandlerConfig
	logger    *zap.Logger
}

// NewHandler returns a new Handler.
func NewHandler(dashboard *service.Dashboard, cfg HandlerConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		dashboard: dashboard,
		cfg:       cfg,
		logger:    logger,
	}
}

// NewRouter builds the service router with middleware applied.
func NewRouter(h *Handler, logger *zap.Logger, limiter *rate.Limiter, metricsHandler http.Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(CorrelationIDMiddleware(logger))
	r.Use(MetricsMiddleware)
	if limiter != nil {
		r.Use(RateLimitMiddleware(limiter))
	}

	r.HandleFunc("/dashboard", h.GetDashboard).Methods(http.MethodGet)
	r.HandleFunc("/weather/{location}", h.GetWeather).Methods(http.MethodGet)
	r.HandleFunc("/news", h.GetNews).Methods(http.MethodGet)
	r.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	r.Handle("/metrics", metricsHandler).Methods(http.MethodGet)
	return r
}

// GetDashboard handles GET /dashboard?city=&country=&q=. Missing city/country
// fall back to the configured defaults, mirroring the dashboard's automatic
// initial load. The response always carries the news panel; a weather failure
// shows up as weatherStatus/weatherMessage instead of failing the request.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	if strings.TrimSpace(city) == "" {
		city = h.cfg.DefaultCity
	}
	countryName := r.URL.Query().Get("country")
	if strings.TrimSpace(countryName) == "" {
		countryName = h.cfg.DefaultCountry
	}

	city, err := validation.ValidateLocationField(city, h.cfg.LocationMinLength, h.cfg.LocationMaxLength)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_CITY", err.Error())
		return
	}
	countryName, err = validation.ValidateLocationField(countryName, h.cfg.LocationMinLength, h.cfg.LocationMaxLength)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_COUNTRY", err.Error())
		return
	}
	query, err := validation.ValidateQuery(r.URL.Query().Get("q"), h.cfg.QueryMaxLength)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_QUERY", err.Error())
		return
	}

	view := h.dashboard.GetDashboard(r.Context(), models.DashboardRequest{
		City:    city,
		Country: countryName,
		Query:   query,
	})
	writeJSON(w, http.StatusOK, view)
}

// GetWeather handles GET /weather/{location} where location is "City" or
// "City,Country". Unlike /dashboard, weather failures map to error responses
// so callers see the typed failure directly.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	location := strings.TrimSpace(mux.Vars(r)["location"])
	if location == "" {
		writeError(w, r, http.StatusBadRequest, "INVALID_LOCATION", "location is required")
		return
	}
	location, err := validation.ValidateLocationField(location, h.cfg.LocationMinLength, h.cfg.LocationMaxLength)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_LOCATION", err.Error())
		return
	}

	city, countryName, _ := strings.Cut(location, ",")
	snap, err := h.dashboard.GetWeather(r.Context(), city, countryName)
	if err != nil {
		writeWeatherError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GetNews handles GET /news?country=&q=. News degrades internally, so this
// endpoint only ever fails on invalid input.
func (h *Handler) GetNews(w http.ResponseWriter, r *http.Request) {
	countryName := r.URL.Query().Get("country")
	if strings.TrimSpace(countryName) == "" {
		countryName = h.cfg.DefaultCountry
	}
	countryName, err := validation.ValidateLocationField(countryName, h.cfg.LocationMinLength, h.cfg.LocationMaxLength)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_COUNTRY", err.Error())
		return
	}
	query, err := validation.ValidateQuery(r.URL.Query().Get("q"), h.cfg.QueryMaxLength)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_QUERY", err.Error())
		return
	}

	articles := h.dashboard.GetNews(r.Context(), query, countryName)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"articles": articles,
		"count":    len(articles),
	})
}

// GetHealth handles GET /health. The service is degraded (503) only when the
// weather provider is unconfigured, since weather is the page's primary
// datum; missing news only shows in the checks map.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"
	statusCode := http.StatusOK

	if h.cfg.WeatherConfigured {
		checks["weatherApi"] = "configured"
	} else {
		checks["weatherApi"] = "unconfigured"
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}
	if h.cfg.NewsConfigured {
		checks["newsApi"] = "configured"
	} else {
		checks["newsApi"] = "unconfigured"
	}
	if h.cfg.CachePing != nil {
		if h.cfg.CachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			checks["cache"] = "unhealthy"
		}
	}

	writeJSON(w, statusCode, map[string]interface{}{
		"status":    status,
		"service":   "local-insights-service",
		"version":   "dev",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// writeWeatherError maps the weather failure taxonomy onto HTTP statuses.
// Provider rejections surface their upstream status in the message.
func writeWeatherError(w http.ResponseWriter, r *http.Request, err error) {
	if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
		logger.Debug("weather fetch error", zap.Error(err))
	}

	var provErr *weather.ProviderError
	switch {
	case errors.Is(err, weather.ErrUnconfigured):
		writeError(w, r, http.StatusServiceUnavailable, "PROVIDER_UNCONFIGURED", "weather provider API key is not configured")
	case errors.Is(err, weather.ErrTimeout):
		writeError(w, r, http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", "weather provider did not respond in time")
	case errors.Is(err, weather.ErrNetwork):
		writeError(w, r, http.StatusBadGateway, "UPSTREAM_UNREACHABLE", "weather provider could not be reached")
	case errors.As(err, &provErr):
		if provErr.Status == http.StatusNotFound {
			writeError(w, r, http.StatusNotFound, "LOCATION_NOT_FOUND", "weather provider does not know this location")
			return
		}
		writeError(w, r, http.StatusBadGateway, "UPSTREAM_REJECTED", provErr.Error())
	case errors.Is(err, weather.ErrMalformedResponse), errors.Is(err, weather.ErrIncompleteData):
		writeError(w, r, http.StatusBadGateway, "BAD_UPSTREAM_PAYLOAD", "weather provider returned unusable data")
	default:
		writeError(w, r, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "unable to fetch weather data")
	}
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code,
// message, and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v := r.Context().Value("correlation_id"); v != nil {
		corrID = v.(string)
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}
