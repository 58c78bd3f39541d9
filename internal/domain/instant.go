package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

// Instant is a point in time that may or may not carry its own timezone.
// A naive instant holds wall-clock fields only and is localized later.
type Instant struct {
	t     time.Time
	zoned bool
}

// Zoned wraps t; its location takes precedence over any separately supplied timezone.
func Zoned(t time.Time) Instant {
	return Instant{t: t, zoned: true}
}

// Naive keeps only the wall-clock fields of t and discards its location.
func Naive(t time.Time) Instant {
	return Instant{
		t: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC),
	}
}

// HasZone reports whether the instant carries a timezone.
func (i Instant) HasZone() bool { return i.zoned }

// IsZero reports whether the instant was never set.
func (i Instant) IsZero() bool { return i.t.IsZero() }

// In returns the instant as a time. Naive instants are localized in loc; zoned
// instants are returned unchanged.
func (i Instant) In(loc *time.Location) time.Time {
	if i.zoned {
		return i.t
	}
	return time.Date(i.t.Year(), i.t.Month(), i.t.Day(), i.t.Hour(), i.t.Minute(), i.t.Second(), i.t.Nanosecond(), loc)
}

func (i Instant) String() string {
	if i.zoned {
		return i.t.Format(time.RFC3339Nano)
	}
	return i.t.Format("2006-01-02 15:04:05.999999999")
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04Z07:00",
}

// ParseInstant reads a datetime string. Strings with an explicit offset
// (RFC3339 style) produce zoned instants; loose local forms such as
// "2022-1-2 5:20" or "2022-01-02" produce naive ones.
func ParseInstant(s string) (Instant, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Instant{}, fmt.Errorf("empty datetime")
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Zoned(t), nil
		}
	}
	cfg := &now.Config{TimeLocation: time.UTC, TimeFormats: now.TimeFormats}
	t, err := cfg.Parse(s)
	if err != nil {
		return Instant{}, fmt.Errorf("cannot parse datetime %q: %w", s, err)
	}
	return Naive(t), nil
}

// TimeRange is a requested interval after timezone resolution.
type TimeRange struct {
	Start    time.Time      // inclusive, timezone aware
	End      time.Time      // inclusive, timezone aware
	Location *time.Location // presentation timezone of the returned rows
}

// NormalizeRange resolves the timezone of a request once. A zoned instant keeps
// its own zone; a naive one is localized in tz, which is then required. The
// presentation timezone is the resolved zone of start.
func NormalizeRange(start, end Instant, tz *time.Location) (TimeRange, error) {
	if (!start.HasZone() || !end.HasZone()) && tz == nil {
		return TimeRange{}, ErrMissingTimeZone
	}
	r := TimeRange{Start: start.In(tz), End: end.In(tz)}
	r.Location = r.Start.Location()
	if r.Start.After(r.End) {
		return TimeRange{}, fmt.Errorf("%w: %s > %s", ErrInvalidRange, r.Start, r.End)
	}
	return r, nil
}

// PlanBounds returns the range as timezone-naive UTC times, the reference used
// for archive planning.
func (r TimeRange) PlanBounds() (time.Time, time.Time) {
	return r.Start.UTC(), r.End.UTC()
}
