package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/local-insights-service/internal/advisory"
	"github.com/kjstillabower/local-insights-service/internal/cache"
	"github.com/kjstillabower/local-insights-service/internal/models"
	"github.com/kjstillabower/local-insights-service/internal/weather"
)

type stubWeatherClient struct {
	snap  models.WeatherSnapshot
	err   error
	calls int
}

func (s *stubWeatherClient) Current(ctx context.Context, city, country string) (models.WeatherSnapshot, error) {
	s.calls++
	return s.snap, s.err
}

func (s *stubWeatherClient) Configured() bool { return true }

type stubNewsClient struct {
	articles []models.NewsArticle
	calls    int
}

func (s *stubNewsClient) TopHeadlines(ctx context.Context, query, countryName string) []models.NewsArticle {
	s.calls++
	return s.articles
}

func (s *stubNewsClient) Configured() bool { return true }

func intPtr(v int) *int { return &v }

// testSnapshot is a daytime Cape Town observation with every field populated.
func testSnapshot() models.WeatherSnapshot {
	observed := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	return models.WeatherSnapshot{
		TemperatureC:         32.0,
		FeelsLikeC:           34.0,
		ConditionMain:        "Rain",
		ConditionDescription: "moderate rain",
		HumidityPct:          80,
		PressureHPa:          995,
		WindSpeedMps:         12.0,
		WindDirectionDeg:     intPtr(190),
		VisibilityM:          intPtr(4000),
		CloudinessPct:        90,
		ObservedAt:           observed,
		SunriseAt:            observed.Add(-6 * time.Hour),
		SunsetAt:             observed.Add(6 * time.Hour),
		UTCOffsetSeconds:     7200,
	}
}

func newTestDashboard(wc *stubWeatherClient, nc *stubNewsClient) *Dashboard {
	return NewDashboard(
		wc, nc,
		cache.NewInMemory[models.WeatherSnapshot](),
		cache.NewInMemory[[]models.NewsArticle](),
		10*time.Minute, 5*time.Minute,
		zap.NewNop(),
	)
}

func TestGetDashboard_ComposesWeatherAndNews(t *testing.T) {
	wc := &stubWeatherClient{snap: testSnapshot()}
	nc := &stubNewsClient{articles: []models.NewsArticle{{Title: "headline", URL: "https://example.com"}}}
	dash := newTestDashboard(wc, nc)

	view := dash.GetDashboard(context.Background(), models.DashboardRequest{
		City: "Cape Town", Country: "South Africa",
	})

	if view.Weather == nil {
		t.Fatal("expected weather panel")
	}
	if view.WeatherStatus != "" {
		t.Errorf("WeatherStatus = %q, want empty on success", view.WeatherStatus)
	}
	if view.CountryName != "South Africa" {
		t.Errorf("CountryName = %q, want South Africa", view.CountryName)
	}
	if len(view.News) != 1 {
		t.Errorf("got %d articles, want 1", len(view.News))
	}
	if view.Weather.Icon == "" {
		t.Error("expected a condition icon")
	}
	if view.Weather.WindDirection != "S" {
		t.Errorf("WindDirection = %q, want S for 190 degrees", view.Weather.WindDirection)
	}
	if len(view.Weather.Suggestions) == 0 {
		t.Error("expected suggestions from the rule engine")
	}
}

func TestGetDashboard_NewsSurvivesWeatherFailure(t *testing.T) {
	wc := &stubWeatherClient{err: weather.ErrTimeout}
	nc := &stubNewsClient{articles: []models.NewsArticle{{Title: "still here", URL: "https://example.com"}}}
	dash := newTestDashboard(wc, nc)

	view := dash.GetDashboard(context.Background(), models.DashboardRequest{
		City: "Cape Town", Country: "South Africa",
	})

	if view.Weather != nil {
		t.Error("expected no weather panel on fetch failure")
	}
	if view.WeatherStatus != "TIMEOUT" {
		t.Errorf("WeatherStatus = %q, want TIMEOUT", view.WeatherStatus)
	}
	if view.WeatherMessage == "" {
		t.Error("expected an explanatory weather message")
	}
	if len(view.News) != 1 || view.News[0].Title != "still here" {
		t.Errorf("news = %+v, want headlines despite weather failure", view.News)
	}
}

func TestDescribeWeatherFailure(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus string
	}{
		{"unconfigured", weather.ErrUnconfigured, "UNCONFIGURED"},
		{"timeout", weather.ErrTimeout, "TIMEOUT"},
		{"network", weather.ErrNetwork, "UNREACHABLE"},
		{"provider 404", &weather.ProviderError{Status: 404}, "LOCATION_NOT_FOUND"},
		{"provider 401", &weather.ProviderError{Status: 401}, "PROVIDER_ERROR"},
		{"malformed", weather.ErrMalformedResponse, "BAD_PAYLOAD"},
		{"incomplete", weather.ErrIncompleteData, "BAD_PAYLOAD"},
		{"unknown", errors.New("boom"), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, message := describeWeatherFailure(tt.err)
			if status != tt.wantStatus {
				t.Errorf("status = %q, want %q", status, tt.wantStatus)
			}
			if message == "" {
				t.Error("expected a non-empty message")
			}
		})
	}
}

func TestGetWeather_CacheAside(t *testing.T) {
	wc := &stubWeatherClient{snap: testSnapshot()}
	dash := newTestDashboard(wc, &stubNewsClient{})
	ctx := context.Background()

	if _, err := dash.GetWeather(ctx, "Cape Town", "South Africa"); err != nil {
		t.Fatalf("GetWeather: %v", err)
	}
	if _, err := dash.GetWeather(ctx, "Cape Town", "South Africa"); err != nil {
		t.Fatalf("GetWeather: %v", err)
	}
	if wc.calls != 1 {
		t.Errorf("upstream called %d times, want 1 (second request served from cache)", wc.calls)
	}

	// Case and whitespace variations map to the same key.
	if _, err := dash.GetWeather(ctx, "  cape town ", "SOUTH AFRICA"); err != nil {
		t.Fatalf("GetWeather: %v", err)
	}
	if wc.calls != 1 {
		t.Errorf("upstream called %d times, want normalized key to hit cache", wc.calls)
	}
}

func TestGetWeather_FailureNotCached(t *testing.T) {
	wc := &stubWeatherClient{err: weather.ErrNetwork}
	dash := newTestDashboard(wc, &stubNewsClient{})
	ctx := context.Background()

	if _, err := dash.GetWeather(ctx, "Cape Town", "za"); !errors.Is(err, weather.ErrNetwork) {
		t.Fatalf("error = %v, want ErrNetwork", err)
	}
	if _, err := dash.GetWeather(ctx, "Cape Town", "za"); !errors.Is(err, weather.ErrNetwork) {
		t.Fatalf("error = %v, want ErrNetwork", err)
	}
	if wc.calls != 2 {
		t.Errorf("upstream called %d times, want 2 (failures are not cached)", wc.calls)
	}
}

func TestGetNews_CachesEmptyResults(t *testing.T) {
	nc := &stubNewsClient{articles: nil}
	dash := newTestDashboard(&stubWeatherClient{snap: testSnapshot()}, nc)
	ctx := context.Background()

	first := dash.GetNews(ctx, "", "za")
	if first == nil || len(first) != 0 {
		t.Fatalf("got %v, want empty non-nil slice", first)
	}
	dash.GetNews(ctx, "", "za")
	if nc.calls != 1 {
		t.Errorf("upstream called %d times, want 1 (empty result memoized)", nc.calls)
	}
}

func TestGetNews_KeyIncludesQuery(t *testing.T) {
	nc := &stubNewsClient{}
	dash := newTestDashboard(&stubWeatherClient{snap: testSnapshot()}, nc)
	ctx := context.Background()

	dash.GetNews(ctx, "sports", "za")
	dash.GetNews(ctx, "politics", "za")
	if nc.calls != 2 {
		t.Errorf("upstream called %d times, want 2 (distinct queries are distinct keys)", nc.calls)
	}
}

func TestBuildWeatherPanel_HotRainyWindyDay(t *testing.T) {
	panel := buildWeatherPanel(testSnapshot())

	got := make(map[advisory.Category]string)
	for _, s := range panel.Suggestions {
		got[s.Category] = s.Text
	}

	if _, ok := got[advisory.WindAdvisory]; !ok {
		t.Error("expected a wind advisory at 12 m/s")
	}
	if text := got[advisory.Hydration]; text != "Drink plenty of water throughout the day!" {
		t.Errorf("Hydration = %q, want emphatic variant for a hot humid day", text)
	}
	if _, ok := got[advisory.CommuteReadiness]; !ok {
		t.Error("expected commute guidance at 4000m visibility")
	}
	if !panel.Astro.IsDay {
		t.Error("midday observation should be daytime")
	}
	if panel.Astro.DayLength != "12h 0m" {
		t.Errorf("DayLength = %q, want %q", panel.Astro.DayLength, "12h 0m")
	}
}
