package services

import (
	"context"
	"time"

	"song-scraper/models"
)

// DateRange bounds a stream-series request. Zero values mean "provider
// default".
type DateRange struct {
	Start time.Time
	End   time.Time
}

// MetadataProvider returns the catalogue record for a song.
type MetadataProvider interface {
	SongMetadata(ctx context.Context, songUUID string) (models.SongMetadata, error)
}

// StreamSeriesProvider returns a song's cumulative stream series, most
// recent first. An empty series is not an error.
type StreamSeriesProvider interface {
	SongAudience(ctx context.Context, songUUID, platform string, r DateRange) (models.StreamSeries, error)
}

// ArtistAudienceProvider returns an artist's follower count on a platform.
type ArtistAudienceProvider interface {
	ArtistFollowers(ctx context.Context, artistUUID, platform string) (float64, error)
}

// ArtistStatsProvider returns the main artist's streaming audience figures.
type ArtistStatsProvider interface {
	ArtistRetention(ctx context.Context, artistUUID string) (models.ArtistStats, error)
}

// SongSource bundles the providers the qualifier needs.
type SongSource interface {
	MetadataProvider
	StreamSeriesProvider
	ArtistStatsProvider
}

// SeenCorpusProvider lists every song uuid ever published.
type SeenCorpusProvider interface {
	SeenUUIDs(ctx context.Context) (map[string]struct{}, error)
}

// WatchlistSink receives rows rejected by the label watchlist rule.
type WatchlistSink interface {
	Append(row models.FeatureRow)
}

// OutputSink publishes a qualified batch and returns an external reference
// (a playlist URL or file path).
type OutputSink interface {
	Publish(ctx context.Context, batch models.QualifiedBatch) (string, error)
}

// ChartSource lists charts and their latest rankings.
type ChartSource interface {
	ChartSlugs(ctx context.Context, platform, countryCode string) ([]string, error)
	ChartRanking(ctx context.Context, slug string) ([]models.ChartEntry, error)
}

// PlaylistSource reads playlist tracklisting snapshots.
type PlaylistSource interface {
	TracklistingDates(ctx context.Context, playlistUUID string, end time.Time) ([]time.Time, error)
	Tracklist(ctx context.Context, playlistUUID string, date time.Time) (models.PlaylistSnapshot, error)
}

// RankingQuery parameterises a top-song ranking request.
type RankingQuery struct {
	Platform    string
	Metric      string
	SortBy      string
	Period      string
	MinValue    int
	MaxValue    int
	MinChange   int
	MaxChange   int
	CountryCode string
	Pages       int
}

// RankingSource reads the general top-song ranking.
type RankingSource interface {
	RankingUpdatedAt(ctx context.Context, q RankingQuery) (time.Time, error)
	// TopSongs follows page links until q.Pages pages have been read.
	TopSongs(ctx context.Context, q RankingQuery) ([]models.RankingEntry, error)
}
