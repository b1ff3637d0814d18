package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/local-insights-service/internal/cache"
	"github.com/kjstillabower/local-insights-service/internal/models"
	"github.com/kjstillabower/local-insights-service/internal/observability"
	"github.com/kjstillabower/local-insights-service/internal/service"
	"github.com/kjstillabower/local-insights-service/internal/weather"
)

type fakeWeatherClient struct {
	snap models.WeatherSnapshot
	err  error
}

func (f *fakeWeatherClient) Current(ctx context.Context, city, country string) (models.WeatherSnapshot, error) {
	return f.snap, f.err
}

func (f *fakeWeatherClient) Configured() bool { return f.err == nil }

type fakeNewsClient struct {
	articles []models.NewsArticle
}

func (f *fakeNewsClient) TopHeadlines(ctx context.Context, query, countryName string) []models.NewsArticle {
	return f.articles
}

func (f *fakeNewsClient) Configured() bool { return true }

func daySnapshot() models.WeatherSnapshot {
	observed := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	return models.WeatherSnapshot{
		TemperatureC:         21.0,
		FeelsLikeC:           20.5,
		ConditionMain:        "Clear",
		ConditionDescription: "clear sky",
		HumidityPct:          55,
		PressureHPa:          1012,
		WindSpeedMps:         3.0,
		ObservedAt:           observed,
		SunriseAt:            observed.Add(-6 * time.Hour),
		SunsetAt:             observed.Add(6 * time.Hour),
	}
}

func newTestRouter(t *testing.T, wc *fakeWeatherClient, nc *fakeNewsClient, cfg HandlerConfig) http.Handler {
	t.Helper()
	dash := service.NewDashboard(
		wc, nc,
		cache.NewInMemory[models.WeatherSnapshot](),
		cache.NewInMemory[[]models.NewsArticle](),
		10*time.Minute, 5*time.Minute,
		zap.NewNop(),
	)
	if cfg.LocationMinLength == 0 {
		cfg.LocationMinLength = 2
	}
	if cfg.LocationMaxLength == 0 {
		cfg.LocationMaxLength = 80
	}
	if cfg.QueryMaxLength == 0 {
		cfg.QueryMaxLength = 120
	}
	h := NewHandler(dash, cfg, zap.NewNop())
	return NewRouter(h, zap.NewNop(), nil, observability.MetricsHandler())
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v (%s)", err, rec.Body.String())
	}
	return body
}

func TestGetDashboard_Success(t *testing.T) {
	router := newTestRouter(t,
		&fakeWeatherClient{snap: daySnapshot()},
		&fakeNewsClient{articles: []models.NewsArticle{{Title: "headline", URL: "https://example.com"}}},
		HandlerConfig{DefaultCity: "Cape Town", DefaultCountry: "South Africa"},
	)

	req := httptest.NewRequest("GET", "/dashboard?city=London&country=GB", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["weather"] == nil {
		t.Error("expected weather panel in response")
	}
	news, ok := body["news"].([]interface{})
	if !ok || len(news) != 1 {
		t.Errorf("news = %v, want one article", body["news"])
	}
	if rec.Header().Get("X-Correlation-ID") == "" {
		t.Error("expected correlation ID header")
	}
}

func TestGetDashboard_DefaultsApplied(t *testing.T) {
	wc := &fakeWeatherClient{snap: daySnapshot()}
	router := newTestRouter(t, wc, &fakeNewsClient{},
		HandlerConfig{DefaultCity: "Cape Town", DefaultCountry: "South Africa"},
	)

	req := httptest.NewRequest("GET", "/dashboard", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	request, ok := body["request"].(map[string]interface{})
	if !ok {
		t.Fatalf("request = %v", body["request"])
	}
	if request["city"] != "Cape Town" || request["country"] != "South Africa" {
		t.Errorf("request = %v, want configured defaults", request)
	}
}

func TestGetDashboard_NewsDespiteWeatherFailure(t *testing.T) {
	router := newTestRouter(t,
		&fakeWeatherClient{err: weather.ErrNetwork},
		&fakeNewsClient{articles: []models.NewsArticle{{Title: "still here", URL: "https://example.com"}}},
		HandlerConfig{DefaultCity: "Cape Town", DefaultCountry: "South Africa"},
	)

	req := httptest.NewRequest("GET", "/dashboard", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// Dashboard always renders; weather failure is part of the payload.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["weather"] != nil {
		t.Error("expected no weather panel")
	}
	if body["weatherStatus"] != "UNREACHABLE" {
		t.Errorf("weatherStatus = %v, want UNREACHABLE", body["weatherStatus"])
	}
	news, ok := body["news"].([]interface{})
	if !ok || len(news) != 1 {
		t.Errorf("news = %v, want one article despite weather failure", body["news"])
	}
}

func TestGetDashboard_InvalidCity(t *testing.T) {
	router := newTestRouter(t, &fakeWeatherClient{snap: daySnapshot()}, &fakeNewsClient{},
		HandlerConfig{DefaultCity: "Cape Town", DefaultCountry: "South Africa"},
	)

	req := httptest.NewRequest("GET", "/dashboard?city=%3Cscript%3E&country=GB", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decodeBody(t, rec)
	errObj, ok := body["error"].(map[string]interface{})
	if !ok || errObj["code"] != "INVALID_CITY" {
		t.Errorf("error = %v, want INVALID_CITY", body["error"])
	}
	if errObj["requestId"] == "" {
		t.Error("expected requestId in error body")
	}
}

func TestGetWeather_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unconfigured", weather.ErrUnconfigured, http.StatusServiceUnavailable, "PROVIDER_UNCONFIGURED"},
		{"timeout", weather.ErrTimeout, http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT"},
		{"network", weather.ErrNetwork, http.StatusBadGateway, "UPSTREAM_UNREACHABLE"},
		{"not found", &weather.ProviderError{Status: 404}, http.StatusNotFound, "LOCATION_NOT_FOUND"},
		{"rejected", &weather.ProviderError{Status: 401}, http.StatusBadGateway, "UPSTREAM_REJECTED"},
		{"malformed", weather.ErrMalformedResponse, http.StatusBadGateway, "BAD_UPSTREAM_PAYLOAD"},
		{"incomplete", weather.ErrIncompleteData, http.StatusBadGateway, "BAD_UPSTREAM_PAYLOAD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, &fakeWeatherClient{err: tt.err}, &fakeNewsClient{},
				HandlerConfig{DefaultCity: "Cape Town", DefaultCountry: "South Africa"},
			)

			req := httptest.NewRequest("GET", "/weather/London,GB", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			body := decodeBody(t, rec)
			errObj, ok := body["error"].(map[string]interface{})
			if !ok || errObj["code"] != tt.wantCode {
				t.Errorf("error = %v, want code %q", body["error"], tt.wantCode)
			}
		})
	}
}

func TestGetWeather_Success(t *testing.T) {
	router := newTestRouter(t, &fakeWeatherClient{snap: daySnapshot()}, &fakeNewsClient{},
		HandlerConfig{DefaultCity: "Cape Town", DefaultCountry: "South Africa"},
	)

	req := httptest.NewRequest("GET", "/weather/London,GB", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["temperatureC"] != 21.0 {
		t.Errorf("temperatureC = %v, want 21", body["temperatureC"])
	}
}

func TestGetNews_Success(t *testing.T) {
	router := newTestRouter(t, &fakeWeatherClient{snap: daySnapshot()},
		&fakeNewsClient{articles: []models.NewsArticle{
			{Title: "one", URL: "https://example.com/1"},
			{Title: "two", URL: "https://example.com/2"},
		}},
		HandlerConfig{DefaultCity: "Cape Town", DefaultCountry: "South Africa"},
	)

	req := httptest.NewRequest("GET", "/news?country=South+Africa", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["count"] != 2.0 {
		t.Errorf("count = %v, want 2", body["count"])
	}
}

func TestGetNews_EmptyIsStillOK(t *testing.T) {
	router := newTestRouter(t, &fakeWeatherClient{snap: daySnapshot()}, &fakeNewsClient{},
		HandlerConfig{DefaultCity: "Cape Town", DefaultCountry: "South Africa"},
	)

	req := httptest.NewRequest("GET", "/news", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["count"] != 0.0 {
		t.Errorf("count = %v, want 0", body["count"])
	}
	if _, ok := body["articles"].([]interface{}); !ok {
		t.Errorf("articles = %v, want empty array not null", body["articles"])
	}
}

func TestGetHealth(t *testing.T) {
	tests := []struct {
		name       string
		cfg        HandlerConfig
		wantStatus int
		wantState  string
	}{
		{
			"both configured",
			HandlerConfig{WeatherConfigured: true, NewsConfigured: true},
			http.StatusOK, "healthy",
		},
		{
			"news missing is not degraded",
			HandlerConfig{WeatherConfigured: true, NewsConfigured: false},
			http.StatusOK, "healthy",
		},
		{
			"weather missing degrades",
			HandlerConfig{WeatherConfigured: false, NewsConfigured: true},
			http.StatusServiceUnavailable, "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.DefaultCity = "Cape Town"
			cfg.DefaultCountry = "South Africa"
			router := newTestRouter(t, &fakeWeatherClient{snap: daySnapshot()}, &fakeNewsClient{}, cfg)

			req := httptest.NewRequest("GET", "/health", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			body := decodeBody(t, rec)
			if body["status"] != tt.wantState {
				t.Errorf("status = %v, want %q", body["status"], tt.wantState)
			}
			checks, ok := body["checks"].(map[string]interface{})
			if !ok {
				t.Fatalf("checks = %v", body["checks"])
			}
			if _, ok := checks["weatherApi"]; !ok {
				t.Error("expected weatherApi check")
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	dash := service.NewDashboard(
		&fakeWeatherClient{snap: daySnapshot()}, &fakeNewsClient{},
		cache.NewInMemory[models.WeatherSnapshot](),
		cache.NewInMemory[[]models.NewsArticle](),
		10*time.Minute, 5*time.Minute,
		zap.NewNop(),
	)
	h := NewHandler(dash, HandlerConfig{
		DefaultCity: "Cape Town", DefaultCountry: "South Africa",
		LocationMinLength: 2, LocationMaxLength: 80, QueryMaxLength: 120,
	}, zap.NewNop())
	limiter := rate.NewLimiter(rate.Limit(0.001), 1)
	router := NewRouter(h, zap.NewNop(), limiter, observability.MetricsHandler())

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest("GET", "/dashboard", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", first.Code)
	}

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest("GET", "/dashboard", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", second.Code)
	}
	body := decodeBody(t, second)
	errObj, _ := body["error"].(map[string]interface{})
	if errObj["code"] != "RATE_LIMITED" {
		t.Errorf("error = %v, want RATE_LIMITED", body["error"])
	}

	// Health stays reachable when the limiter is exhausted.
	health := httptest.NewRecorder()
	router.ServeHTTP(health, httptest.NewRequest("GET", "/health", nil))
	if health.Code == http.StatusTooManyRequests {
		t.Error("health endpoint must be exempt from rate limiting")
	}
}
