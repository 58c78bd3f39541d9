package ports

import (
	"context"

	"binanceHistory/internal/domain"
)

// ArchiveSource is the transport used to reach published archives.
type ArchiveSource interface {
	// Exists checks whether an archive is published without downloading it.
	// Transport failures are returned wrapped with ErrNetwork.
	Exists(ctx context.Context, url string) (bool, error)

	// Get downloads the archive bytes. A not-found response yields *NotFoundError,
	// transport failures are wrapped with ErrNetwork.
	Get(ctx context.Context, url string) ([]byte, error)
}

// SymbolChecker verifies that a market pair is listed on the exchange.
// Delisted pairs that the exchange still reports count as listed.
type SymbolChecker interface {
	SymbolExists(ctx context.Context, segment domain.Segment, symbol string) (bool, error)
}
