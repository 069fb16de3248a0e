package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"song-scraper/config"
	"song-scraper/models"
	"song-scraper/utils"
)

// Population filter stage names, used as the filter column in drop reports.
const (
	FilterMaxStreams          = "max_streams"
	FilterMaxSpotifyFollowers = "max_spotify_followers"
	FilterFollowerFloor       = "minimum_spotify_followers_if_100k_monthly_listeners"
	FilterMinEarlyAverage     = "min_streams_if_above_0_average"
	FilterMaxTikTokFollowers  = "max_tiktok_followers"
	FilterDuplicateURL        = "duplicate_url"
	FilterSeen                = "seen"
)

const monthlyListenerTier = 100000

// PopulationThresholds are the batch-level ceilings and floors.
type PopulationThresholds struct {
	MaxStreams                  float64
	MaxSpotifyFollowers         float64
	MinFollowersAt100kListeners float64
	MinEarlyAverage             float64
	MaxTikTokFollowers          float64
}

// ThresholdsFromInputs copies the population thresholds out of inputs.
func ThresholdsFromInputs(in *config.Inputs) PopulationThresholds {
	return PopulationThresholds{
		MaxStreams:                  in.MaxStreams,
		MaxSpotifyFollowers:         in.MaxSpotifyFollowers,
		MinFollowersAt100kListeners: in.MinFollowersAt100kListeners,
		MinEarlyAverage:             in.MinAverageStreamsIfAboveZero,
		MaxTikTokFollowers:          in.MaxTikTokFollowers,
	}
}

// FilterResult is a filtered batch plus a record of everything it dropped.
type FilterResult struct {
	Rows  []models.FeatureRow
	Drops []models.Drop
}

type stage struct {
	name string
	keep func(models.FeatureRow) (bool, string)
}

// PopulationFilter applies the batch-level gates to already-qualified rows.
type PopulationFilter struct {
	thresholds PopulationThresholds
	audience   ArtistAudienceProvider
	pool       *utils.WorkerPool
	metrics    *utils.RunMetrics
	logger     *utils.Logger
	platform   string
}

// NewPopulationFilter builds a filter. audience supplies short-video
// follower counts and is queried through pool, one call per distinct main
// artist. metrics may be nil.
func NewPopulationFilter(t PopulationThresholds, audience ArtistAudienceProvider, pool *utils.WorkerPool, metrics *utils.RunMetrics, logger *utils.Logger) *PopulationFilter {
	if pool == nil {
		pool = utils.NewWorkerPool(10, 0)
	}
	return &PopulationFilter{
		thresholds: t,
		audience:   audience,
		pool:       pool,
		metrics:    metrics,
		logger:     logger,
		platform:   "tiktok",
	}
}

// Apply fetches missing short-video follower counts, then runs the stages.
func (f *PopulationFilter) Apply(ctx context.Context, rows []models.FeatureRow) FilterResult {
	rows = f.AttachTikTokFollowers(ctx, rows)
	return f.Filter(rows)
}

// Filter runs every stage in order on rows whose follower counts are
// already attached. It does no I/O. The result is sorted by today's streams,
// highest first, and filtering it again drops nothing.
func (f *PopulationFilter) Filter(rows []models.FeatureRow) FilterResult {
	t := f.thresholds
	stages := []stage{
		{FilterMaxStreams, func(r models.FeatureRow) (bool, string) {
			v := orZero(r.TotalStreams)
			return v <= t.MaxStreams, fmt.Sprintf("total streams %.0f > %.0f", v, t.MaxStreams)
		}},
		{FilterMaxSpotifyFollowers, func(r models.FeatureRow) (bool, string) {
			v := nullZero(r.MainArtistStats.Followers)
			return v <= t.MaxSpotifyFollowers, fmt.Sprintf("main artist followers %.0f > %.0f", v, t.MaxSpotifyFollowers)
		}},
		{FilterFollowerFloor, func(r models.FeatureRow) (bool, string) {
			listeners := nullZero(r.MainArtistStats.MonthlyListeners)
			followers := nullZero(r.MainArtistStats.Followers)
			ok := listeners < monthlyListenerTier || followers >= t.MinFollowersAt100kListeners
			return ok, fmt.Sprintf("%.0f monthly listeners but only %.0f followers (< %.0f)", listeners, followers, t.MinFollowersAt100kListeners)
		}},
		{FilterMinEarlyAverage, func(r models.FeatureRow) (bool, string) {
			v := orZero(r.Day1To3Average)
			return v == 0 || v >= t.MinEarlyAverage, fmt.Sprintf("day 1-3 average %.0f < %.0f", v, t.MinEarlyAverage)
		}},
		{FilterMaxTikTokFollowers, func(r models.FeatureRow) (bool, string) {
			v := nullZero(r.TikTokFollowers)
			return v == 0 || v <= t.MaxTikTokFollowers, fmt.Sprintf("tiktok followers %.0f > %.0f", v, t.MaxTikTokFollowers)
		}},
	}

	var res FilterResult
	current := rows
	for _, s := range stages {
		kept := make([]models.FeatureRow, 0, len(current))
		for _, r := range current {
			if ok, reason := s.keep(r); ok {
				kept = append(kept, r)
			} else {
				res.Drops = append(res.Drops, f.drop(r.SongUUID, s.name, reason))
			}
		}
		f.logger.Debug("[population] %s: %d → %d rows", s.name, len(current), len(kept))
		current = kept
	}

	current, dups := f.dedupeByURL(current)
	res.Drops = append(res.Drops, dups...)

	sort.SliceStable(current, func(i, j int) bool {
		return orZero(current[i].TodayStreams) > orZero(current[j].TodayStreams)
	})
	res.Rows = current
	return res
}

// AttachTikTokFollowers looks up short-video follower counts for rows that
// do not have one yet. Each distinct main artist is queried once; a failed
// lookup counts as 0.
func (f *PopulationFilter) AttachTikTokFollowers(ctx context.Context, rows []models.FeatureRow) []models.FeatureRow {
	if f.audience == nil {
		return rows
	}

	var artists []string
	pending := make(map[string]struct{})
	for _, r := range rows {
		if r.TikTokFollowers.Valid || r.MainArtistUUID == "" {
			continue
		}
		if _, ok := pending[r.MainArtistUUID]; !ok {
			pending[r.MainArtistUUID] = struct{}{}
			artists = append(artists, r.MainArtistUUID)
		}
	}
	if len(artists) == 0 {
		return rows
	}

	counts := utils.NewResultMap[string, float64]()
	for _, id := range artists {
		id := id
		f.pool.Submit(func() {
			n, err := f.audience.ArtistFollowers(ctx, id, f.platform)
			if err != nil {
				f.logger.Debug("[population] %s followers for artist %s unavailable: %v", f.platform, id, err)
				n = 0
			}
			counts.Set(id, n)
		})
	}
	f.pool.Wait()

	out := make([]models.FeatureRow, len(rows))
	copy(out, rows)
	for i := range out {
		if out[i].TikTokFollowers.Valid || out[i].MainArtistUUID == "" {
			continue
		}
		n, _ := counts.Get(out[i].MainArtistUUID)
		out[i].TikTokFollowers = sql.NullFloat64{Float64: n, Valid: true}
	}
	return out
}

func (f *PopulationFilter) dedupeByURL(rows []models.FeatureRow) ([]models.FeatureRow, []models.Drop) {
	seen := make(map[string]struct{}, len(rows))
	kept := make([]models.FeatureRow, 0, len(rows))
	var drops []models.Drop
	for _, r := range rows {
		key := r.URL
		if key == "" {
			key = r.SongUUID
		}
		if _, dup := seen[key]; dup {
			drops = append(drops, f.drop(r.SongUUID, FilterDuplicateURL, "duplicate of "+key))
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, r)
	}
	return kept, drops
}

func (f *PopulationFilter) drop(songUUID, filter, reason string) models.Drop {
	f.logger.Debug("[population] Dropped %s (%s): %s", songUUID, filter, reason)
	if f.metrics != nil {
		f.metrics.SongsDropped.WithLabelValues(filter).Inc()
	}
	return models.Drop{SongUUID: songUUID, Filter: filter, Reason: reason}
}

func nullZero(v sql.NullFloat64) float64 {
	if !v.Valid {
		return 0
	}
	return orZero(v.Float64)
}
