// Package news fetches top headlines for a country. Unlike weather, news is
// supplementary: every failure degrades to an empty article list, surfaced
// through logs and the newsApiErrorsTotal counter rather than to the caller.
package news

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
	"go.uber.org/zap"

	"github.com/kjstillabower/local-insights-service/internal/country"
	"github.com/kjstillabower/local-insights-service/internal/models"
	"github.com/kjstillabower/local-insights-service/internal/observability"
	"github.com/kjstillabower/local-insights-service/internal/weather"
)

// maxArticles caps the result regardless of what the provider returns.
const maxArticles = 5

// Client fetches headlines for an optional query and a free-text country
// name. Never fails the caller; an empty slice is a valid result.
type Client interface {
	TopHeadlines(ctx context.Context, query, countryName string) []models.NewsArticle
	Configured() bool
}

// NewsAPIClient talks to the NewsAPI top-headlines endpoint.
type NewsAPIClient struct {
	apiKey  string
	apiURL  string
	timeout time.Duration
	client  *http.Client
	logger  *zap.Logger
	breaker *gobreaker.CircuitBreaker
}

// NewNewsAPIClient creates a client. An empty apiKey yields an unconfigured
// client whose fetches return no articles.
func NewNewsAPIClient(apiKey, apiURL string, timeout time.Duration, logger *zap.Logger) *NewsAPIClient {
	return &NewsAPIClient{
		apiKey:  strings.TrimSpace(apiKey),
		apiURL:  apiURL,
		timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// SetBreaker installs a circuit breaker around provider calls.
func (c *NewsAPIClient) SetBreaker(cb *gobreaker.CircuitBreaker) {
	c.breaker = cb
}

// Configured reports whether a usable API key is present.
func (c *NewsAPIClient) Configured() bool {
	return c.apiKey != ""
}

type headlinesResponse struct {
	Articles []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		Author      string `json:"author"`
		Description string `json:"description"`
	} `json:"articles"`
}

// TopHeadlines resolves countryName to an ISO code (falling back with a
// warning when unresolvable), fetches up to maxArticles headlines in provider
// order, and degrades to an empty slice on any failure.
func (c *NewsAPIClient) TopHeadlines(ctx context.Context, query, countryName string) []models.NewsArticle {
	logger := c.requestLogger(ctx)

	if !c.Configured() {
		observability.NewsAPIErrorsTotal.WithLabelValues(string(weather.ErrorCategoryUnconfigured)).Inc()
		logger.Warn("news provider not configured, skipping fetch")
		return nil
	}

	code, resolved := country.Resolve(countryName)
	if !resolved {
		observability.CountryFallbackTotal.Inc()
		logger.Warn("country name not resolvable, using fallback code",
			zap.String("country", countryName),
			zap.String("fallback", code))
	}

	articles, err := c.fetch(ctx, query, code)
	if err != nil {
		observability.NewsAPIErrorsTotal.WithLabelValues(string(weather.CategorizeError(err))).Inc()
		logger.Warn("news fetch failed, serving empty headlines",
			zap.String("country", code),
			zap.Error(err))
		return nil
	}
	return articles
}

func (c *NewsAPIClient) fetch(ctx context.Context, query, countryCode string) ([]models.NewsArticle, error) {
	start := time.Now()
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(reqCtx, query, countryCode)
	if err != nil {
		observability.NewsAPICallsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.NewsAPICallsTotal.WithLabelValues("error").Inc()
		observability.NewsAPIDuration.WithLabelValues("error").Observe(duration)
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := observability.StatusLabel(resp.StatusCode)
	observability.NewsAPICallsTotal.WithLabelValues(status).Inc()
	observability.NewsAPIDuration.WithLabelValues(status).Observe(duration)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &weather.ProviderError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %s", weather.ErrNetwork, err)
	}

	var payload headlinesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %s", weather.ErrMalformedResponse, err)
	}

	// Provider order preserved; empty is a valid result, not an error.
	n := len(payload.Articles)
	if n > maxArticles {
		n = maxArticles
	}
	articles := make([]models.NewsArticle, 0, n)
	for _, a := range payload.Articles[:n] {
		articles = append(articles, models.NewsArticle{
			Title:       a.Title,
			URL:         a.URL,
			Author:      a.Author,
			Description: a.Description,
		})
	}
	return articles, nil
}

func (c *NewsAPIClient) buildRequest(ctx context.Context, query, countryCode string) (*http.Request, error) {
	baseURL, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("pageSize", fmt.Sprintf("%d", maxArticles))
	params.Set("country", countryCode)
	if q := strings.TrimSpace(query); q != "" {
		params.Set("q", q)
	}
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

func (c *NewsAPIClient) do(req *http.Request) (*http.Response, error) {
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
			return nil, &weather.ProviderError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*http.Response), nil
}

func classifyTransportError(err error) error {
	var provErr *weather.ProviderError
	if errors.As(err, &provErr) {
		return provErr
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: circuit breaker open", weather.ErrNetwork)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		strings.Contains(err.Error(), "Client.Timeout exceeded") {
		return fmt.Errorf("%w: %s", weather.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %s", weather.ErrNetwork, err)
}

// requestLogger returns the request-scoped logger when present, else the
// client's own.
func (c *NewsAPIClient) requestLogger(ctx context.Context) *zap.Logger {
	if l := observability.LoggerFromContext(ctx); l != nil {
		return l
	}
	if c.logger != nil {
		return c.logger
	}
	return zap.NewNop()
}
