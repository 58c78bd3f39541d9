// Package api exposes the history service over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"binanceHistory/internal/adapters/logger"
	"binanceHistory/internal/app"
	"binanceHistory/internal/domain"
	"binanceHistory/internal/ports"
)

// RequestIDHeader is read from incoming requests and echoed on every response.
const RequestIDHeader = "X-Request-ID"

// HistoryFetcher is the part of app.HistoryService the API needs.
type HistoryFetcher interface {
	Fetch(ctx context.Context, q app.Query) (*domain.Table, error)
}

// Config holds the router dependencies.
type Config struct {
	History HistoryFetcher
	// Cache is optional; without it GET /api/v1/cache answers 501.
	Cache           ports.CacheInspector
	DefaultTimeZone *time.Location
	DefaultInterval string
	Logger          ports.Logger
}

type handler struct {
	history         HistoryFetcher
	cache           ports.CacheInspector
	defaultTZ       *time.Location
	defaultInterval string
	logger          ports.Logger
}

// NewRouter builds the gin engine serving the API.
func NewRouter(cfg Config) (*gin.Engine, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for API router")
	}
	if cfg.History == nil {
		return nil, fmt.Errorf("history service is required for API router")
	}
	if cfg.DefaultTimeZone == nil {
		cfg.DefaultTimeZone = time.UTC
	}
	if cfg.DefaultInterval == "" {
		cfg.DefaultInterval = "15m"
	}
	h := &handler{
		history:         cfg.History,
		cache:           cfg.Cache,
		defaultTZ:       cfg.DefaultTimeZone,
		defaultInterval: cfg.DefaultInterval,
		logger:          cfg.Logger,
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(cfg.Logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		v1.GET("/klines", h.fetchHistory(domain.KindKlines))
		v1.GET("/aggTrades", h.fetchHistory(domain.KindAggTrades))
		v1.GET("/cache", h.cacheEntries)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return r, nil
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func accessLog(l ports.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l.Info(c.Request.Context(), "API request", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}

// statusFor maps errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ports.ErrDataNotFound):
		return http.StatusNotFound
	case ports.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, ports.ErrNetwork):
		return http.StatusBadGateway
	case errors.Is(err, ports.ErrContextCanceled), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(c.Request.Context(), err, "API request failed", map[string]interface{}{"path": c.Request.URL.Path})
	}
	body := gin.H{"error": err.Error()}
	var nf *ports.NotFoundError
	if errors.As(err, &nf) {
		body["url"] = nf.URL
	}
	c.AbortWithStatusJSON(status, body)
}
