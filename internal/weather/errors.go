package weather

import (
	"errors"
	"fmt"
)

// Sentinel failures for the weather fetch pipeline. The caller decides policy:
// none of these are retried here.
var (
	// ErrUnconfigured means the provider API key is missing or a placeholder.
	// Fatal to weather features only; the rest of the dashboard still works.
	ErrUnconfigured = errors.New("weather provider not configured")

	// ErrTimeout means the request exceeded the client's fixed upper bound.
	ErrTimeout = errors.New("weather request timeout")

	// ErrNetwork covers transport failures other than timeout.
	ErrNetwork = errors.New("weather network error")

	// ErrMalformedResponse means the payload failed structural parsing.
	ErrMalformedResponse = errors.New("malformed weather response")

	// ErrIncompleteData means the payload parsed but a required field was
	// absent. The snapshot is never partially constructed.
	ErrIncompleteData = errors.New("incomplete weather data")
)

// ProviderError reports a non-2xx provider response. Status and a trimmed
// body are kept so the caller can surface the rejection verbatim-ish.
type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("weather provider rejected request: HTTP %d", e.Status)
	}
	return fmt.Sprintf("weather provider rejected request: HTTP %d: %s", e.Status, e.Body)
}

// ErrorCategory is a stable label for error classification in metrics.
type ErrorCategory string

const (
	ErrorCategoryUnconfigured ErrorCategory = "unconfigured"
	ErrorCategoryTimeout      ErrorCategory = "timeout"
	ErrorCategoryNetwork      ErrorCategory = "network"
	ErrorCategoryProvider4xx  ErrorCategory = "provider_4xx"
	ErrorCategoryProvider5xx  ErrorCategory = "provider_5xx"
	ErrorCategoryMalformed    ErrorCategory = "malformed"
	ErrorCategoryIncomplete   ErrorCategory = "incomplete"
	ErrorCategoryUnknown      ErrorCategory = "unknown"
)

// CategorizeError maps a fetch error to a stable ErrorCategory for metrics
// (weatherApiErrorsTotal, newsApiErrorsTotal).
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	var provErr *ProviderError
	switch {
	case errors.Is(err, ErrUnconfigured):
		return ErrorCategoryUnconfigured
	case errors.Is(err, ErrTimeout):
		return ErrorCategoryTimeout
	case errors.Is(err, ErrNetwork):
		return ErrorCategoryNetwork
	case errors.As(err, &provErr):
		if provErr.Status >= 500 {
			return ErrorCategoryProvider5xx
		}
		return ErrorCategoryProvider4xx
	case errors.Is(err, ErrMalformedResponse):
		return ErrorCategoryMalformed
	case errors.Is(err, ErrIncompleteData):
		return ErrorCategoryIncomplete
	}
	return ErrorCategoryUnknown
}
