package archive

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binanceHistory/internal/domain"
	"binanceHistory/internal/ports"
)

func publishMonths(t *testing.T, src *mockSource, loc *Locator, months ...domain.ArchiveDescriptor) {
	t.Helper()
	for _, m := range months {
		u, err := loc.URL(m)
		require.NoError(t, err)
		src.published[u] = true
	}
}

func periods(ds []domain.ArchiveDescriptor) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		s, _ := d.DateString()
		out[i] = s
	}
	return out
}

func klinesRequest(start, end time.Time) PlanRequest {
	return PlanRequest{
		Kind: domain.KindKlines, Segment: domain.SegmentSpot, Symbol: "BTCUSDT", Interval: "1m",
		Start: start, End: end,
	}
}

func TestPlanner_Plan(t *testing.T) {
	k := domain.KindKlines
	tests := []struct {
		name       string
		published  []domain.ArchiveDescriptor
		start, end time.Time
		wantMonths []string
		wantDays   int
		wantProbes int
	}{
		{
			name:       "two published months",
			published:  []domain.ArchiveDescriptor{monthly(k, 2022, 2), monthly(k, 2022, 3)},
			start:      time.Date(2022, 2, 10, 0, 0, 0, 0, time.UTC),
			end:        time.Date(2022, 3, 5, 0, 0, 0, 0, time.UTC),
			wantMonths: []string{"2022-02", "2022-03"},
			wantProbes: 1,
		},
		{
			name:       "start on last day of month",
			published:  []domain.ArchiveDescriptor{monthly(k, 2022, 1), monthly(k, 2022, 2), monthly(k, 2022, 3)},
			start:      time.Date(2022, 1, 31, 0, 0, 0, 0, time.UTC),
			end:        time.Date(2022, 3, 5, 0, 0, 0, 0, time.UTC),
			wantMonths: []string{"2022-01", "2022-02", "2022-03"},
			wantProbes: 1,
		},
		{
			name:       "last month unpublished",
			published:  []domain.ArchiveDescriptor{monthly(k, 2022, 9), monthly(k, 2022, 10)},
			start:      time.Date(2022, 9, 15, 0, 0, 0, 0, time.UTC),
			end:        time.Date(2022, 11, 12, 8, 0, 0, 0, time.UTC),
			wantMonths: []string{"2022-09", "2022-10"},
			wantDays:   12,
			wantProbes: 2,
		},
		{
			name:       "last two months unpublished",
			published:  []domain.ArchiveDescriptor{monthly(k, 2022, 9)},
			start:      time.Date(2022, 9, 15, 0, 0, 0, 0, time.UTC),
			end:        time.Date(2022, 11, 2, 0, 0, 0, 0, time.UTC),
			wantMonths: []string{"2022-09"},
			wantDays:   31 + 2,
			wantProbes: 2,
		},
		{
			name:       "removal stops after two months",
			published:  nil,
			start:      time.Date(2022, 8, 15, 0, 0, 0, 0, time.UTC),
			end:        time.Date(2022, 11, 2, 0, 0, 0, 0, time.UTC),
			wantMonths: []string{"2022-08", "2022-09"},
			wantDays:   31 + 2,
			wantProbes: 2,
		},
		{
			name:       "single unpublished month",
			published:  nil,
			start:      time.Date(2022, 11, 1, 0, 0, 0, 0, time.UTC),
			end:        time.Date(2022, 11, 3, 23, 0, 0, 0, time.UTC),
			wantMonths: []string{},
			wantDays:   3,
			wantProbes: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newMockSource()
			loc := NewLocator("")
			publishMonths(t, src, loc, tt.published...)
			planner, err := NewPlanner(PlannerConfig{Locator: loc, Source: src, Logger: &mockLogger{}})
			require.NoError(t, err)

			plan, err := planner.Plan(context.Background(), klinesRequest(tt.start, tt.end))
			require.NoError(t, err)

			assert.Equal(t, tt.wantMonths, periods(plan.Months))
			assert.Len(t, plan.Days, tt.wantDays)
			assert.Len(t, src.probes, tt.wantProbes)
			for _, d := range plan.Days {
				assert.Equal(t, domain.Daily, d.Granularity)
			}
			all := plan.Descriptors()
			for i := 1; i < len(all); i++ {
				assert.True(t, all[i].Period.After(all[i-1].Period), "descriptors must be chronological")
			}
		})
	}
}

func TestPlanner_DaysCoverEarliestUnpublishedMonthThroughEnd(t *testing.T) {
	src := newMockSource()
	loc := NewLocator("")
	publishMonths(t, src, loc, monthly(domain.KindKlines, 2022, 2), monthly(domain.KindKlines, 2022, 3))
	planner, err := NewPlanner(PlannerConfig{Locator: loc, Source: src, Logger: &mockLogger{}})
	require.NoError(t, err)

	end := time.Date(2022, 4, 17, 13, 0, 0, 0, time.UTC)
	plan, err := planner.Plan(context.Background(), klinesRequest(time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC), end))
	require.NoError(t, err)

	assert.Equal(t, []string{"2022-02", "2022-03"}, periods(plan.Months))
	require.Len(t, plan.Days, end.Day())
	assert.Equal(t, time.Date(2022, 4, 1, 0, 0, 0, 0, time.UTC), plan.Days[0].Period)
	assert.Equal(t, time.Date(2022, 4, 17, 0, 0, 0, 0, time.UTC), plan.Days[len(plan.Days)-1].Period)
	assert.Equal(t, "1m", plan.Days[0].Interval)
}

func TestPlanner_CachedMonthSkipsProbe(t *testing.T) {
	src := newMockSource()
	loc := NewLocator("")
	cache := newMemCache()
	u, err := loc.URL(monthly(domain.KindKlines, 2022, 3))
	require.NoError(t, err)
	cache.entries[u] = domain.NewTable(domain.KindKlines)

	planner, err := NewPlanner(PlannerConfig{Locator: loc, Source: src, Cache: cache, Logger: &mockLogger{}})
	require.NoError(t, err)

	plan, err := planner.Plan(context.Background(), klinesRequest(
		time.Date(2022, 2, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2022, 3, 5, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, []string{"2022-02", "2022-03"}, periods(plan.Months))
	assert.Empty(t, plan.Days)
	assert.Empty(t, src.probes)
}

func TestPlanner_Errors(t *testing.T) {
	t.Run("reversed range", func(t *testing.T) {
		src := newMockSource()
		planner, err := NewPlanner(PlannerConfig{Source: src, Logger: &mockLogger{}})
		require.NoError(t, err)
		_, err = planner.Plan(context.Background(), klinesRequest(
			time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2021, 12, 1, 0, 0, 0, 0, time.UTC)))
		assert.True(t, errors.Is(err, ports.ErrInvalidRange))
		assert.Empty(t, src.probes, "no I/O for invalid ranges")
	})

	t.Run("probe network failure", func(t *testing.T) {
		src := newMockSource()
		src.probeErr = fmt.Errorf("HEAD failed: %w: connection refused", ports.ErrNetwork)
		planner, err := NewPlanner(PlannerConfig{Source: src, Logger: &mockLogger{}})
		require.NoError(t, err)
		_, err = planner.Plan(context.Background(), klinesRequest(
			time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC)))
		assert.True(t, errors.Is(err, ports.ErrNetwork))
		assert.Len(t, src.probes, 1, "probe failures are not retried")
	})

	t.Run("klines without interval", func(t *testing.T) {
		src := newMockSource()
		planner, err := NewPlanner(PlannerConfig{Source: src, Logger: &mockLogger{}})
		require.NoError(t, err)
		req := klinesRequest(time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2022, 1, 2, 0, 0, 0, 0, time.UTC))
		req.Interval = ""
		_, err = planner.Plan(context.Background(), req)
		assert.True(t, errors.Is(err, ports.ErrMissingInterval))
		assert.Empty(t, src.probes)
	})

	t.Run("missing dependencies", func(t *testing.T) {
		_, err := NewPlanner(PlannerConfig{Logger: &mockLogger{}})
		assert.Error(t, err)
		_, err = NewPlanner(PlannerConfig{Source: newMockSource()})
		assert.Error(t, err)
	})
}
