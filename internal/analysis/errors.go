package analysis

import (
	"errors"

	"github.com/couchcryptid/rainfall-badyears/internal/domain"
)

// reasonOf labels an error for metrics.
func reasonOf(err error) string {
	var (
		malformed *domain.MalformedSeriesError
		pct       *domain.InvalidPercentageError
	)
	switch {
	case errors.As(err, &malformed):
		return "malformed_series"
	case errors.As(err, &pct):
		return "invalid_percentage"
	case errors.Is(err, domain.ErrSeriesNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrEmptySelection):
		return "empty_selection"
	case errors.Is(err, domain.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, domain.ErrDuplicateColumn):
		return "duplicate_column"
	default:
		return "internal"
	}
}

// IsClientError reports whether err was caused by the request or its series data
// rather than the service.
func IsClientError(err error) bool {
	return reasonOf(err) != "internal"
}
