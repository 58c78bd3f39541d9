// Package logger implements ports.Logger on top of log/slog, writing to stderr
// or to a size-rotated file.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ContextKey represents keys for context values
type ContextKey string

// RequestIDKey carries the API request ID; it is added to every record logged with that context.
const RequestIDKey ContextKey = "request_id"

// WithRequestID returns a copy of ctx carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestID returns the request ID stored in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// ParseLevel converts a string level to slog.Level. Unknown values map to Info.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config holds logger settings.
type Config struct {
	Level  string
	Format string // "text" or "json"
	// FilePath enables rotation through lumberjack; empty means stderr.
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
}

// Logger implements the ports.Logger interface.
type Logger struct {
	slog   *slog.Logger
	writer io.WriteCloser
}

// New builds a Logger from cfg.
func New(cfg Config) (*Logger, error) {
	w, err := newWriter(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create log writer: %w", err)
	}
	return NewWithWriter(w, cfg), nil
}

// NewWithWriter builds a Logger writing to w. Close closes w if it is an io.Closer.
func NewWithWriter(w io.Writer, cfg Config) *Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	wc, ok := w.(io.WriteCloser)
	if !ok {
		wc = nopWriteCloser{w}
	}
	return &Logger{slog: slog.New(handler), writer: wc}
}

func newWriter(cfg Config) (io.WriteCloser, error) {
	if cfg.FilePath == "" {
		return nopWriteCloser{os.Stderr}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 50
	}
	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    maxSize,
		MaxBackups: cfg.MaxBackups,
	}, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// Close flushes and closes the underlying file, if any.
func (l *Logger) Close() error {
	return l.writer.Close()
}

func (l *Logger) log(ctx context.Context, level slog.Level, msg string, err error, fields ...map[string]interface{}) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.slog.Enabled(ctx, level) {
		return
	}

	attrs := make([]slog.Attr, 0, 4)
	if id := RequestID(ctx); id != "" {
		attrs = append(attrs, slog.String(string(RequestIDKey), id))
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	for _, f := range fields {
		for k, v := range f {
			attrs = append(attrs, slog.Any(k, v))
		}
	}
	l.slog.LogAttrs(ctx, level, msg, attrs...)
}

// Debug logs a message at Debug level.
func (l *Logger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.log(ctx, slog.LevelDebug, msg, nil, fields...)
}

// Info logs a message at Info level.
func (l *Logger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.log(ctx, slog.LevelInfo, msg, nil, fields...)
}

// Warn logs a message at Warning level.
func (l *Logger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.log(ctx, slog.LevelWarn, msg, nil, fields...)
}

// Error logs an error message at Error level.
func (l *Logger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	l.log(ctx, slog.LevelError, msg, err, fields...)
}
