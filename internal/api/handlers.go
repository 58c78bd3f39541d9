package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"binanceHistory/internal/app"
	"binanceHistory/internal/domain"
	"binanceHistory/internal/ports"
)

type historyParams struct {
	Symbol   string `form:"symbol" binding:"required"`
	Start    string `form:"start" binding:"required"`
	End      string `form:"end" binding:"required"`
	TZ       string `form:"tz"`
	Segment  string `form:"segment"`
	Interval string `form:"interval"`
}

type historyResponse struct {
	Symbol   string      `json:"symbol"`
	Kind     string      `json:"kind"`
	Segment  string      `json:"segment"`
	Interval string      `json:"interval,omitempty"`
	TimeZone string      `json:"timezone"`
	Count    int         `json:"count"`
	Rows     interface{} `json:"rows"`
}

func (h *handler) fetchHistory(kind domain.DataKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var p historyParams
		if err := c.ShouldBindQuery(&p); err != nil {
			h.fail(c, fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err))
			return
		}
		q, err := h.query(kind, p)
		if err != nil {
			h.fail(c, err)
			return
		}

		table, err := h.history.Fetch(c.Request.Context(), q)
		if err != nil {
			h.fail(c, err)
			return
		}

		resp := historyResponse{
			Symbol:   domain.NormalizeSymbol(q.Symbol),
			Kind:     string(kind),
			Segment:  string(q.Segment),
			Interval: q.Interval,
			Count:    table.Len(),
		}
		if kind == domain.KindKlines {
			resp.Rows = nonNil(table.Klines)
		} else {
			resp.Rows = nonNil(table.Trades)
		}
		if table.Len() > 0 {
			resp.TimeZone = table.TimeAt(0).Location().String()
		} else {
			resp.TimeZone = q.TimeZone.String()
		}
		c.JSON(http.StatusOK, resp)
	}
}

func (h *handler) query(kind domain.DataKind, p historyParams) (app.Query, error) {
	q := app.Query{Kind: kind, Symbol: p.Symbol, TimeZone: h.defaultTZ}

	segment := p.Segment
	if segment == "" {
		segment = string(domain.SegmentSpot)
	}
	seg, err := domain.ParseSegment(segment)
	if err != nil {
		return q, err
	}
	q.Segment = seg

	if kind == domain.KindKlines {
		q.Interval = p.Interval
		if q.Interval == "" {
			q.Interval = h.defaultInterval
		}
	}

	if p.TZ != "" {
		loc, err := time.LoadLocation(p.TZ)
		if err != nil {
			return q, fmt.Errorf("%w: unknown timezone %q", ports.ErrInvalidRequest, p.TZ)
		}
		q.TimeZone = loc
	}

	if q.Start, err = domain.ParseInstant(p.Start); err != nil {
		return q, fmt.Errorf("%w: start: %w", ports.ErrInvalidRequest, err)
	}
	if q.End, err = domain.ParseInstant(p.End); err != nil {
		return q, fmt.Errorf("%w: end: %w", ports.ErrInvalidRequest, err)
	}
	return q, nil
}

func (h *handler) cacheEntries(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "cache backend cannot list entries"})
		return
	}
	entries, err := h.cache.Entries(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if entries == nil {
		entries = []ports.CacheEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(entries), "entries": entries})
}

func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}
