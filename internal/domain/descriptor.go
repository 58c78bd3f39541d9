package domain

import (
	"fmt"
	"time"
)

// ArchiveDescriptor identifies one published archive. It is a value type; the
// source URL and the cache key are both derived from it.
type ArchiveDescriptor struct {
	Kind        DataKind
	Segment     Segment
	Granularity Granularity
	Symbol      string
	Period      time.Time // first day of the month for Monthly, the day itself for Daily (UTC midnight)
	Interval    string    // kline interval, empty for aggTrades
}

// DateString formats Period the way archive file names do.
func (d ArchiveDescriptor) DateString() (string, error) {
	switch d.Granularity {
	case Monthly:
		return d.Period.Format("2006-01"), nil
	case Daily:
		return d.Period.Format("2006-01-02"), nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidGranularity, d.Granularity)
	}
}

// PeriodEnd returns the first instant after the period covered by the archive.
func (d ArchiveDescriptor) PeriodEnd() time.Time {
	if d.Granularity == Monthly {
		return d.Period.AddDate(0, 1, 0)
	}
	return d.Period.AddDate(0, 0, 1)
}

func (d ArchiveDescriptor) String() string {
	date, err := d.DateString()
	if err != nil {
		date = d.Period.Format(time.DateOnly)
	}
	if d.Kind == KindKlines {
		return fmt.Sprintf("%s %s %s %s %s/%s", d.Segment, d.Granularity, d.Kind, d.Symbol, d.Interval, date)
	}
	return fmt.Sprintf("%s %s %s %s %s", d.Segment, d.Granularity, d.Kind, d.Symbol, date)
}

// MonthStart truncates t to the first day of its month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// DayStart truncates t to midnight of its day.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
