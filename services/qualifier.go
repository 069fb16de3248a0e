package services

import (
	"context"
	"errors"
	"fmt"

	"song-scraper/models"
	"song-scraper/utils"
)

// RuleStreamConcentration names the post-metrics spike gate in drop reports.
const RuleStreamConcentration = "stream_concentration"

// Qualifier turns a song uuid into a candidate FeatureRow, running the rule
// chain before any stream data is fetched.
type Qualifier struct {
	source    SongSource
	chain     *RuleChain
	cleaner   *Cleaner
	watchlist WatchlistSink
	metrics   *utils.RunMetrics
	logger    *utils.Logger

	platform         string
	maxPercentOneDay float64
}

// QualifierOptions configures a Qualifier.
type QualifierOptions struct {
	Platform         string
	MaxPercentOneDay float64
	Metrics          *utils.RunMetrics
}

// NewQualifier wires a Qualifier. watchlist may be nil, in which case
// watchlist-label songs are simply rejected.
func NewQualifier(source SongSource, chain *RuleChain, watchlist WatchlistSink, logger *utils.Logger, opts QualifierOptions) *Qualifier {
	if opts.Platform == "" {
		opts.Platform = "spotify"
	}
	return &Qualifier{
		source:           source,
		chain:            chain,
		cleaner:          NewCleaner(logger),
		watchlist:        watchlist,
		metrics:          opts.Metrics,
		logger:           logger,
		platform:         opts.Platform,
		maxPercentOneDay: opts.MaxPercentOneDay,
	}
}

// Qualify returns the song's FeatureRow and true when it passes every rule
// and the stream-concentration gate. A rejected song returns false and a nil
// error. Errors are returned only when the song's metadata cannot be read.
func (q *Qualifier) Qualify(ctx context.Context, songUUID string) (models.FeatureRow, bool, error) {
	meta, err := q.source.SongMetadata(ctx, songUUID)
	if err != nil {
		return models.FeatureRow{}, false, fmt.Errorf("qualify %s: %w", songUUID, err)
	}
	if meta.UUID == "" {
		meta.UUID = songUUID
	}

	verdict, rule := q.chain.Evaluate(meta)
	switch verdict.Outcome {
	case Reject:
		q.drop(songUUID, rule, verdict.Reason)
		return models.FeatureRow{}, false, nil
	case RejectToWatchlist:
		q.drop(songUUID, rule, verdict.Reason)
		if q.watchlist != nil {
			series := q.series(ctx, songUUID)
			q.watchlist.Append(q.buildRow(ctx, meta, series))
			q.logger.Debug("[qualifier] Song %s added to watchlist buffer", songUUID)
		}
		return models.FeatureRow{}, false, nil
	}

	series := q.series(ctx, songUUID)
	if len(series) > 0 && ExceedsOneDayShare(series, q.maxPercentOneDay) {
		q.drop(songUUID, RuleStreamConcentration,
			fmt.Sprintf("one day holds more than %.0f%% of 14-day streams", q.maxPercentOneDay))
		return models.FeatureRow{}, false, nil
	}

	return q.buildRow(ctx, meta, series), true, nil
}

// buildRow fetches the main artist's audience figures and merges everything
// into one row. Missing figures stay null.
func (q *Qualifier) buildRow(ctx context.Context, meta models.SongMetadata, series models.StreamSeries) models.FeatureRow {
	if main := meta.MainArtist(); main.UUID != "" {
		stats, err := q.source.ArtistRetention(ctx, main.UUID)
		if err != nil {
			q.logger.Debug("[qualifier] No retention data for artist %s: %v", main.UUID, err)
		} else {
			meta.MainArtistStats = stats
		}
	}
	return q.cleaner.BuildRow(meta, ComputeMetrics(series))
}

// series fetches the stream series. A failed fetch counts as no data.
func (q *Qualifier) series(ctx context.Context, songUUID string) models.StreamSeries {
	series, err := q.source.SongAudience(ctx, songUUID, q.platform, DateRange{})
	if err != nil {
		q.logger.Debug("[qualifier] Song %s has no audience data: %v", songUUID, err)
		return nil
	}
	return series
}

func (q *Qualifier) drop(songUUID, rule, reason string) {
	q.logger.Debug("[qualifier] Song %s rejected by %s: %s", songUUID, rule, reason)
	if q.metrics != nil {
		q.metrics.SongsDropped.WithLabelValues(rule).Inc()
	}
}

// EnrichBatch qualifies songUUIDs concurrently on pool. Results come back in
// input order; songs that fail or are rejected are left out.
func (q *Qualifier) EnrichBatch(ctx context.Context, pool *utils.WorkerPool, songUUIDs []string) []models.FeatureRow {
	results := utils.NewResultMap[int, models.FeatureRow]()

	for i, id := range songUUIDs {
		if ctx.Err() != nil {
			break
		}
		i, id := i, id
		pool.Submit(func() {
			row, ok, err := q.Qualify(ctx, id)
			if err != nil {
				if !skippable(err) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
					q.logger.Warn("[qualifier] %v", err)
				} else {
					q.logger.Debug("[qualifier] %v", err)
				}
				return
			}
			if ok {
				results.Set(i, row)
			}
		})
	}
	pool.Wait()

	collected := results.Snapshot()
	rows := make([]models.FeatureRow, 0, len(collected))
	for i := range songUUIDs {
		if row, ok := collected[i]; ok {
			rows = append(rows, row)
		}
	}
	return rows
}
