package ports

import (
	"errors"
	"fmt"

	"binanceHistory/internal/domain"
)

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// Request validation, raised before any I/O
	ErrInvalidRange        = domain.ErrInvalidRange
	ErrInvalidGranularity  = domain.ErrInvalidGranularity
	ErrUnsupportedKind     = domain.ErrUnsupportedKind
	ErrUnsupportedSegment  = domain.ErrUnsupportedSegment
	ErrUnsupportedInterval = domain.ErrUnsupportedInterval
	ErrMissingInterval     = domain.ErrMissingInterval
	ErrMissingTimeZone     = domain.ErrMissingTimeZone
	ErrInvalidRequest      = errors.New("invalid request parameters or format")

	// Archive host
	ErrNetwork         = errors.New("network error while reaching the archive host")
	ErrDataNotFound    = errors.New("archive not found")
	ErrInvalidArchive  = errors.New("archive content is not valid")
	ErrUnknownSymbol   = errors.New("symbol is not listed on the exchange")
	ErrContextCanceled = errors.New("operation canceled via context")

	// Local storage
	ErrCache              = errors.New("archive cache error")
	ErrConfigurationError = errors.New("invalid or missing configuration")
)

// NotFoundError reports an archive the host confirmed does not exist.
type NotFoundError struct {
	URL string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDataNotFound, e.URL)
}

func (e *NotFoundError) Unwrap() error {
	return ErrDataNotFound
}

// IsValidationError reports whether err stems from a malformed request rather
// than from the archive host or local storage.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidRange, ErrInvalidGranularity, ErrUnsupportedKind, ErrUnsupportedSegment,
		ErrUnsupportedInterval, ErrMissingInterval, ErrMissingTimeZone, ErrInvalidRequest,
		ErrUnknownSymbol,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
