package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/kjstillabower/local-insights-service/internal/models"
	"github.com/kjstillabower/local-insights-service/internal/observability"
)

// Client fetches a current-conditions snapshot for a city/country pair.
// Implementations are idempotent and cache-agnostic; memoization is layered
// on by the caller.
type Client interface {
	Current(ctx context.Context, city, country string) (models.WeatherSnapshot, error)
	Configured() bool
}

// OpenWeatherClient talks to the OpenWeatherMap current-weather endpoint.
// One attempt per call; the caller decides whether to re-invoke.
type OpenWeatherClient struct {
	apiKey  string
	apiURL  string
	timeout time.Duration
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewOpenWeatherClient creates a client. An empty apiKey yields a client in
// the unconfigured state: construction succeeds, fetches fail with
// ErrUnconfigured so only weather features degrade.
func NewOpenWeatherClient(apiKey, apiURL string, timeout time.Duration) *OpenWeatherClient {
	return &OpenWeatherClient{
		apiKey:  strings.TrimSpace(apiKey),
		apiURL:  apiURL,
		timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetBreaker installs a circuit breaker around provider calls. The breaker
// trips on transport errors and 5xx/429 responses only; rejections caused by
// the caller's input (bad location, bad key) pass through uncounted.
func (c *OpenWeatherClient) SetBreaker(cb *gobreaker.CircuitBreaker) {
	c.breaker = cb
}

// Configured reports whether a usable API key is present.
func (c *OpenWeatherClient) Configured() bool {
	return c.apiKey != ""
}

// currentConditions mirrors the provider JSON. Required fields are pointers
// so absence is distinguishable from zero values.
type currentConditions struct {
	Main *struct {
		Temp      *float64 `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		Humidity  *int     `json:"humidity"`
		Pressure  *int     `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Wind *struct {
		Speed *float64 `json:"speed"`
		Deg   *int     `json:"deg"`
	} `json:"wind"`
	Clouds *struct {
		All *int `json:"all"`
	} `json:"clouds"`
	Sys *struct {
		Sunrise *int64 `json:"sunrise"`
		Sunset  *int64 `json:"sunset"`
	} `json:"sys"`
	Coord *struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	} `json:"coord"`
	Visibility *int   `json:"visibility"`
	DT         *int64 `json:"dt"`
	Timezone   *int   `json:"timezone"`
}

// Current fetches conditions for "{city},{country}" in metric units and maps
// the payload into a WeatherSnapshot. Any missing required field aborts the
// construction with ErrIncompleteData.
func (c *OpenWeatherClient) Current(ctx context.Context, city, country string) (models.WeatherSnapshot, error) {
	if !c.Configured() {
		return models.WeatherSnapshot{}, ErrUnconfigured
	}

	start := time.Now()
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(reqCtx, city, country)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		return models.WeatherSnapshot{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		observability.WeatherAPIDuration.WithLabelValues("error").Observe(duration)
		classified := classifyTransportError(err)
		observability.WeatherAPIErrorsTotal.WithLabelValues(string(CategorizeError(classified))).Inc()
		return models.WeatherSnapshot{}, classified
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := observability.StatusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(status).Observe(duration)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		provErr := &ProviderError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		observability.WeatherAPIErrorsTotal.WithLabelValues(string(CategorizeError(provErr))).Inc()
		return models.WeatherSnapshot{}, provErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.WeatherAPIErrorsTotal.WithLabelValues(string(ErrorCategoryNetwork)).Inc()
		return models.WeatherSnapshot{}, fmt.Errorf("%w: read response body: %s", ErrNetwork, err)
	}

	var payload currentConditions
	if err := json.Unmarshal(body, &payload); err != nil {
		observability.WeatherAPIErrorsTotal.WithLabelValues(string(ErrorCategoryMalformed)).Inc()
		return models.WeatherSnapshot{}, fmt.Errorf("%w: %s", ErrMalformedResponse, err)
	}

	snap, err := payload.snapshot()
	if err != nil {
		observability.WeatherAPIErrorsTotal.WithLabelValues(string(CategorizeError(err))).Inc()
		return models.WeatherSnapshot{}, err
	}
	return snap, nil
}

func (c *OpenWeatherClient) buildRequest(ctx context.Context, city, country string) (*http.Request, error) {
	baseURL, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	q := strings.TrimSpace(city)
	if cc := strings.TrimSpace(country); cc != "" {
		q = q + "," + cc
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if corrID := observability.CorrelationIDFromContext(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}
	return req, nil
}

// do executes the request, through the breaker when one is installed. 5xx and
// 429 responses count as breaker failures; their bodies are folded into the
// returned ProviderError since the response is consumed inside the breaker.
func (c *OpenWeatherClient) do(req *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.client.Do(req)
	}
	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, doErr := c.client.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, &ProviderError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*http.Response), nil
}

// classifyTransportError maps transport-level failures onto the sentinel
// taxonomy. ProviderError values produced inside the breaker pass through.
func classifyTransportError(err error) error {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: circuit breaker open", ErrNetwork)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		strings.Contains(err.Error(), "Client.Timeout exceeded") {
		return fmt.Errorf("%w: %s", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %s", ErrNetwork, err)
}

// snapshot validates required fields and constructs the snapshot atomically.
func (p currentConditions) snapshot() (models.WeatherSnapshot, error) {
	missing := func(field string) (models.WeatherSnapshot, error) {
		return models.WeatherSnapshot{}, fmt.Errorf("%w: missing %s", ErrIncompleteData, field)
	}

	switch {
	case p.Main == nil:
		return missing("main")
	case p.Main.Temp == nil:
		return missing("main.temp")
	case p.Main.FeelsLike == nil:
		return missing("main.feels_like")
	case p.Main.Humidity == nil:
		return missing("main.humidity")
	case p.Main.Pressure == nil:
		return missing("main.pressure")
	case len(p.Weather) == 0:
		return missing("weather[0]")
	case p.Wind == nil || p.Wind.Speed == nil:
		return missing("wind.speed")
	case p.Clouds == nil || p.Clouds.All == nil:
		return missing("clouds.all")
	case p.Sys == nil || p.Sys.Sunrise == nil || p.Sys.Sunset == nil:
		return missing("sys.sunrise/sunset")
	case p.Coord == nil || p.Coord.Lat == nil || p.Coord.Lon == nil:
		return missing("coord")
	case p.DT == nil:
		return missing("dt")
	case p.Timezone == nil:
		return missing("timezone")
	}

	return models.WeatherSnapshot{
		TemperatureC:         *p.Main.Temp,
		FeelsLikeC:           *p.Main.FeelsLike,
		ConditionMain:        p.Weather[0].Main,
		ConditionDescription: p.Weather[0].Description,
		HumidityPct:          *p.Main.Humidity,
		WindSpeedMps:         *p.Wind.Speed,
		WindDirectionDeg:     p.Wind.Deg,
		PressureHPa:          *p.Main.Pressure,
		VisibilityM:          p.Visibility,
		CloudinessPct:        *p.Clouds.All,
		ObservedAt:           time.Unix(*p.DT, 0).UTC(),
		SunriseAt:            time.Unix(*p.Sys.Sunrise, 0).UTC(),
		SunsetAt:             time.Unix(*p.Sys.Sunset, 0).UTC(),
		UTCOffsetSeconds:     *p.Timezone,
		Coordinates: models.Coordinates{
			Latitude:  *p.Coord.Lat,
			Longitude: *p.Coord.Lon,
		},
	}, nil
}
