package domain

import (
	"fmt"
	"sort"
	"time"
)

// Table is an ordered, time-indexed set of rows of a single kind. Exactly one
// of Klines or Trades is used, chosen by Kind.
type Table struct {
	Kind   DataKind
	Klines []Kline
	Trades []AggTrade
}

// NewTable returns an empty table of the given kind.
func NewTable(kind DataKind) *Table {
	return &Table{Kind: kind}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t.Kind == KindKlines {
		return len(t.Klines)
	}
	return len(t.Trades)
}

// TimeAt returns the time key of row i.
func (t *Table) TimeAt(i int) time.Time {
	if t.Kind == KindKlines {
		return t.Klines[i].OpenTime
	}
	return t.Trades[i].Time
}

// Append adds the rows of o after the rows of t. Both tables must be of the same kind.
func (t *Table) Append(o *Table) error {
	if o == nil {
		return nil
	}
	if o.Kind != t.Kind {
		return fmt.Errorf("cannot append %s table to %s table", o.Kind, t.Kind)
	}
	t.Klines = append(t.Klines, o.Klines...)
	t.Trades = append(t.Trades, o.Trades...)
	return nil
}

// Between returns the rows whose time key lies in [start, end], both inclusive.
// The table must be sorted by time key. The returned table shares backing storage with t.
func (t *Table) Between(start, end time.Time) *Table {
	n := t.Len()
	lo := sort.Search(n, func(i int) bool { return !t.TimeAt(i).Before(start) })
	hi := sort.Search(n, func(i int) bool { return t.TimeAt(i).After(end) })
	if hi < lo {
		hi = lo
	}
	out := &Table{Kind: t.Kind}
	if t.Kind == KindKlines {
		out.Klines = t.Klines[lo:hi]
	} else {
		out.Trades = t.Trades[lo:hi]
	}
	return out
}

// In returns a copy of t with every time value expressed in loc.
func (t *Table) In(loc *time.Location) *Table {
	out := &Table{Kind: t.Kind}
	if t.Klines != nil {
		out.Klines = make([]Kline, len(t.Klines))
		for i, k := range t.Klines {
			k.OpenTime = k.OpenTime.In(loc)
			k.CloseTime = k.CloseTime.In(loc)
			out.Klines[i] = k
		}
	}
	if t.Trades != nil {
		out.Trades = make([]AggTrade, len(t.Trades))
		for i, tr := range t.Trades {
			tr.Time = tr.Time.In(loc)
			out.Trades[i] = tr
		}
	}
	return out
}

// IsSorted reports whether rows are in non-decreasing time order.
func (t *Table) IsSorted() bool {
	for i := 1; i < t.Len(); i++ {
		if t.TimeAt(i).Before(t.TimeAt(i - 1)) {
			return false
		}
	}
	return true
}

// Sort orders rows by time key, keeping the relative order of equal keys.
func (t *Table) Sort() {
	if t.Kind == KindKlines {
		sort.SliceStable(t.Klines, func(i, j int) bool { return t.Klines[i].OpenTime.Before(t.Klines[j].OpenTime) })
		return
	}
	sort.SliceStable(t.Trades, func(i, j int) bool { return t.Trades[i].Time.Before(t.Trades[j].Time) })
}
