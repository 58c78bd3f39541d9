package domain

import "errors"

// Validation errors raised before any I/O takes place.
var (
	ErrInvalidRange        = errors.New("start cannot be after end")
	ErrInvalidGranularity  = errors.New("granularity must be monthly or daily")
	ErrUnsupportedKind     = errors.New("unsupported data kind")
	ErrUnsupportedSegment  = errors.New("unsupported market segment")
	ErrUnsupportedInterval = errors.New("unsupported kline interval")
	ErrMissingInterval     = errors.New("interval is required for klines")
	ErrMissingTimeZone     = errors.New("timezone is required when start or end carries none")
)
