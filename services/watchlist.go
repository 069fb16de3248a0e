package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"song-scraper/models"
	"song-scraper/utils"
)

// WatchlistBuffer collects watchlist rows during a run. It is safe for use
// from worker goroutines.
type WatchlistBuffer struct {
	mu   sync.Mutex
	rows []models.FeatureRow
}

// NewWatchlistBuffer creates an empty buffer.
func NewWatchlistBuffer() *WatchlistBuffer {
	return &WatchlistBuffer{}
}

// Append implements WatchlistSink.
func (b *WatchlistBuffer) Append(row models.FeatureRow) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rows = append(b.rows, row)
}

// Drain returns the buffered rows and empties the buffer.
func (b *WatchlistBuffer) Drain() []models.FeatureRow {
	b.mu.Lock()
	defer b.mu.Unlock()
	rows := b.rows
	b.rows = nil
	return rows
}

// Len reports how many rows are buffered.
func (b *WatchlistBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.rows)
}

// WatchlistStore persists watchlist rows, ignoring uuids it already holds.
// AppendWatchlist returns the rows that were new.
type WatchlistStore interface {
	AppendWatchlist(ctx context.Context, rows []models.FeatureRow) ([]models.FeatureRow, error)
	WatchlistUUIDs(ctx context.Context) (map[string]struct{}, error)
}

// WatchlistService filters buffered watchlist rows and persists the new ones.
type WatchlistService struct {
	filter  *PopulationFilter
	store   WatchlistStore
	metrics *utils.RunMetrics
	logger  *utils.Logger
	now     func() time.Time
}

// NewWatchlistService wires a WatchlistService. metrics may be nil.
func NewWatchlistService(filter *PopulationFilter, store WatchlistStore, metrics *utils.RunMetrics, logger *utils.Logger) *WatchlistService {
	return &WatchlistService{filter: filter, store: store, metrics: metrics, logger: logger, now: time.Now}
}

// Flush drains buf, drops songs already watched, runs the population filter,
// stamps the date and persists. It returns the rows that were newly added to
// the watchlist.
func (s *WatchlistService) Flush(ctx context.Context, buf *WatchlistBuffer) ([]models.FeatureRow, error) {
	rows := buf.Drain()
	if len(rows) == 0 {
		s.logger.Info("[watchlist] No songs in watchlist")
		return nil, nil
	}

	watched, err := s.store.WatchlistUUIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("watchlist: load watched uuids: %w", err)
	}
	fresh := rows[:0:0]
	for _, r := range rows {
		if _, ok := watched[r.SongUUID]; !ok {
			fresh = append(fresh, r)
		}
	}
	if len(fresh) == 0 {
		s.logger.Info("[watchlist] All %d buffered songs are already watched", len(rows))
		return nil, nil
	}

	res := s.filter.Apply(ctx, fresh)
	stamp := day(s.now())
	for i := range res.Rows {
		res.Rows[i].DateAddedToWatchlist = sql.NullTime{Time: stamp, Valid: true}
	}

	added, err := s.store.AppendWatchlist(ctx, res.Rows)
	if err != nil {
		return nil, fmt.Errorf("watchlist: persist %d rows: %w", len(res.Rows), err)
	}
	if s.metrics != nil {
		s.metrics.Watchlisted.Add(float64(len(added)))
	}
	s.logger.Info("[watchlist] %d buffered → %d after filters → %d new", len(rows), len(res.Rows), len(added))
	return added, nil
}
