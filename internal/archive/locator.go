// Package archive plans, downloads and decodes the monthly and daily archives
// published on data.binance.vision.
package archive

import (
	"fmt"
	"net/url"
	"strings"

	"binanceHistory/internal/domain"
	"binanceHistory/internal/ports"
)

// DefaultBaseURL is the public archive host.
const DefaultBaseURL = "https://data.binance.vision"

// Locator builds source URLs for archive descriptors.
type Locator struct {
	baseURL string
}

// NewLocator returns a Locator rooted at baseURL, or at DefaultBaseURL when empty.
func NewLocator(baseURL string) *Locator {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Locator{baseURL: baseURL}
}

// URL returns the source identifier of d:
//
//	{base}/data/{segment}/{granularity}/{kind}/{symbol}/[{interval}/]{symbol}-{kindOrInterval}-{date}.zip
func (l *Locator) URL(d domain.ArchiveDescriptor) (string, error) {
	date, err := d.DateString()
	if err != nil {
		return "", err
	}
	if !d.Segment.Valid() {
		return "", fmt.Errorf("%w: %q", ports.ErrUnsupportedSegment, d.Segment)
	}
	if d.Symbol == "" {
		return "", fmt.Errorf("%w: symbol is empty", ports.ErrInvalidRequest)
	}

	switch d.Kind {
	case domain.KindKlines:
		if d.Interval == "" {
			return "", ports.ErrMissingInterval
		}
		return fmt.Sprintf("%s/data/%s/%s/%s/%s/%s/%s-%s-%s.zip",
			l.baseURL, d.Segment, d.Granularity, d.Kind, d.Symbol, d.Interval,
			d.Symbol, d.Interval, date), nil
	case domain.KindAggTrades:
		return fmt.Sprintf("%s/data/%s/%s/%s/%s/%s-%s-%s.zip",
			l.baseURL, d.Segment, d.Granularity, d.Kind, d.Symbol,
			d.Symbol, d.Kind, date), nil
	default:
		return "", fmt.Errorf("%w: %q", ports.ErrUnsupportedKind, d.Kind)
	}
}

// CachePath returns the path component of a source URL without its leading
// slash. Caches use it to place entries deterministically.
func CachePath(sourceURL string) (string, error) {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return "", fmt.Errorf("%w: cannot parse %q: %w", ports.ErrInvalidRequest, sourceURL, err)
	}
	p := strings.TrimPrefix(u.Path, "/")
	if p == "" || strings.Contains(p, "..") {
		return "", fmt.Errorf("%w: unusable cache path in %q", ports.ErrInvalidRequest, sourceURL)
	}
	return p, nil
}
