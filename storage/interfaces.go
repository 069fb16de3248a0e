package storage

import (
	"context"

	"song-scraper/models"
)

// BatchStore persists published batches. Everything it holds is part of the
// seen corpus.
type BatchStore interface {
	SaveBatch(ctx context.Context, batch models.QualifiedBatch) error
	SeenUUIDs(ctx context.Context) (map[string]struct{}, error)
	FetchBatch(ctx context.Context, label string) ([]models.FeatureRow, error)
	Close() error
}

// WatchlistStore persists label-watchlist rows, skipping uuids it already
// holds, and returns the rows that were new.
type WatchlistStore interface {
	AppendWatchlist(ctx context.Context, rows []models.FeatureRow) ([]models.FeatureRow, error)
	WatchlistUUIDs(ctx context.Context) (map[string]struct{}, error)
	Close() error
}

// Store is everything a run needs from persistence.
type Store interface {
	BatchStore
	WatchlistStore
}

var _ Store = (*SQLStore)(nil)
