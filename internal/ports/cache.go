package ports

import (
	"context"
	"time"

	"binanceHistory/internal/domain"
)

// ArchiveCache persists decoded archives keyed by their source URL.
type ArchiveCache interface {
	// Lookup returns the cached table for url.
	// Returns nil, nil if nothing is cached.
	Lookup(ctx context.Context, url string, kind domain.DataKind) (*domain.Table, error)
	// Store saves table under url, replacing any previous entry.
	Store(ctx context.Context, url string, table *domain.Table) error
	// Contains reports whether an entry exists for url without loading it.
	Contains(ctx context.Context, url string) (bool, error)
}

// CacheEntry describes one cached archive. Size is bytes on disk for
// file-backed caches and the row count for database-backed ones.
type CacheEntry struct {
	URL      string    `json:"url"`
	Location string    `json:"location"`
	Size     int64     `json:"size"`
	StoredAt time.Time `json:"stored_at"`
}

// CacheInspector is implemented by caches that can enumerate their entries.
type CacheInspector interface {
	Entries(ctx context.Context) ([]CacheEntry, error)
}
