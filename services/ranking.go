package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"song-scraper/config"
	"song-scraper/models"
	"song-scraper/utils"
)

// minWeekToWeekIncrease is the growth a ranking song needs to be kept.
const minWeekToWeekIncrease = 100

// RankingScraper collects fast-growing songs from the general top-song
// ranking.
type RankingScraper struct {
	source    RankingSource
	qualifier *Qualifier
	pool      *utils.WorkerPool
	inputs    config.RankingInputs
	logger    *utils.Logger
	now       func() time.Time
}

// NewRankingScraper wires a RankingScraper.
func NewRankingScraper(source RankingSource, qualifier *Qualifier, pool *utils.WorkerPool, inputs config.RankingInputs, logger *utils.Logger) *RankingScraper {
	return &RankingScraper{source: source, qualifier: qualifier, pool: pool, inputs: inputs, logger: logger, now: time.Now}
}

func (s *RankingScraper) query() RankingQuery {
	return RankingQuery{
		Platform:  "spotify",
		Metric:    "streams",
		SortBy:    s.inputs.SortBy,
		Period:    s.inputs.Period,
		MinValue:  s.inputs.MinTotalStreams,
		MaxValue:  s.inputs.MaxTotalStreams,
		MinChange: s.inputs.MinChange,
		MaxChange: s.inputs.MaxChange,
		Pages:     s.inputs.PagesToCollect,
	}
}

// Scrape returns candidate rows and the ranking's update time. It does
// nothing, returning ok=false, when the ranking is more than a day old.
func (s *RankingScraper) Scrape(ctx context.Context) (rows []models.FeatureRow, updatedAt time.Time, ok bool, err error) {
	q := s.query()
	updatedAt, err = s.source.RankingUpdatedAt(ctx, q)
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("ranking: updated at: %w", err)
	}
	if !UpdatedWithin(updatedAt, s.now(), 24*time.Hour) {
		s.logger.Info("[ranking] Ranking last updated %s, skipping", updatedAt.Format(time.RFC3339))
		return nil, updatedAt, false, nil
	}

	entries, err := s.source.TopSongs(ctx, q)
	if err != nil {
		return nil, updatedAt, false, fmt.Errorf("ranking: top songs: %w", err)
	}
	s.logger.Info("[ranking] %d ranking entries", len(entries))

	byUUID := make(map[string]models.RankingEntry, len(entries))
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, dup := byUUID[e.SongUUID]; dup {
			continue
		}
		byUUID[e.SongUUID] = e
		ids = append(ids, e.SongUUID)
	}

	for _, row := range s.qualifier.EnrichBatch(ctx, s.pool, ids) {
		if math.IsNaN(row.WeekToWeekPercentIncrease) || row.WeekToWeekPercentIncrease < minWeekToWeekIncrease {
			continue
		}
		e := byUUID[row.SongUUID]
		row.Ranking = &models.RankingContext{
			Period:        q.Period,
			Total:         e.Total,
			Change:        e.Change,
			PercentChange: e.PercentChange,
		}
		rows = append(rows, row)
	}
	return rows, updatedAt, true, nil
}

// UpdatedWithin reports whether updatedAt is less than window before now.
func UpdatedWithin(updatedAt, now time.Time, window time.Duration) bool {
	return now.Sub(updatedAt) < window
}
