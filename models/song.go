package models

import (
	"database/sql"
	"math"
	"time"
)

// StreamPoint is one day of a song's cumulative stream count.
type StreamPoint struct {
	Date  time.Time
	Total float64
}

// StreamSeries holds cumulative stream counts ordered most-recent-first.
// Days the provider has no data for are simply missing.
type StreamSeries []StreamPoint

// Daily returns per-day streams derived from successive differences:
// daily[i] = Total[i] - Total[i+1]. The oldest point has no successor and
// its value is NaN.
func (s StreamSeries) Daily() []float64 {
	daily := make([]float64, len(s))
	for i := range s {
		if i+1 < len(s) {
			daily[i] = s[i].Total - s[i+1].Total
		} else {
			daily[i] = math.NaN()
		}
	}
	return daily
}

// Genre is one entry of the catalogue genre taxonomy.
type Genre struct {
	Root string
	Sub  []string
}

// Artist is a credited artist on a song.
type Artist struct {
	UUID string
	Name string
}

// ArtistStats are the main artist's streaming-platform audience figures.
type ArtistStats struct {
	Followers        sql.NullFloat64
	MonthlyListeners sql.NullFloat64
	ConversionRate   sql.NullFloat64
}

// SongMetadata is the catalogue record for one song.
type SongMetadata struct {
	UUID             string
	Name             sql.NullString
	AppURL           string
	Artists          []Artist
	Labels           []string
	Genres           []Genre
	Duration         sql.NullInt64
	ReleaseDate      sql.NullTime
	Instrumentalness sql.NullFloat64
	MainArtistStats  ArtistStats
}

// MainArtist returns the first credited artist, or the zero Artist.
func (m SongMetadata) MainArtist() Artist {
	if len(m.Artists) == 0 {
		return Artist{}
	}
	return m.Artists[0]
}

// ArtistNames returns the credited artist names in credit order.
func (m SongMetadata) ArtistNames() []string {
	names := make([]string, 0, len(m.Artists))
	for _, a := range m.Artists {
		names = append(names, a.Name)
	}
	return names
}

// Metrics are the numeric features derived from a StreamSeries.
// Undefined values are NaN.
type Metrics struct {
	TodayStreams              float64
	YesterdayStreams          float64
	Day1To3Average            float64
	Day7To9Average            float64
	PercentIncrease           float64
	ThisWeek7DayAverage       float64
	LastWeek7DayAverage       float64
	WeekToWeekPercentIncrease float64
	FourteenDayMax            float64
	FourteenDayMedian         float64
	TotalStreams              float64
}

// UndefinedMetrics returns a Metrics record with every field NaN.
func UndefinedMetrics() Metrics {
	nan := math.NaN()
	return Metrics{
		TodayStreams:              nan,
		YesterdayStreams:          nan,
		Day1To3Average:            nan,
		Day7To9Average:            nan,
		PercentIncrease:           nan,
		ThisWeek7DayAverage:       nan,
		LastWeek7DayAverage:       nan,
		WeekToWeekPercentIncrease: nan,
		FourteenDayMax:            nan,
		FourteenDayMedian:         nan,
		TotalStreams:              nan,
	}
}

// ChartContext records where a chart candidate was found.
type ChartContext struct {
	Country     string
	CountryCode string
	Platform    string
	Slug        string
	TimeOnChart int
}

// PlaylistContext records the playlist a candidate was newly added to.
type PlaylistContext struct {
	Name      string
	UUID      string
	Platform  string
	CrawlDate time.Time
	DateAdded time.Time
}

// RankingContext carries the ranking figures for general-ranking candidates.
type RankingContext struct {
	Period        string
	Total         float64
	Change        float64
	PercentChange float64
}

// FeatureRow is one candidate song: metadata plus derived metrics.
// Keyed by SongUUID.
type FeatureRow struct {
	SongUUID             string
	SongName             string
	URL                  string
	Labels               []string
	Artists              []string
	MainArtist           string
	MainArtistUUID       string
	MainArtistStats      ArtistStats
	Instrumentalness     sql.NullFloat64
	RootGenres           []string
	SubGenres            []string
	ReleaseDate          sql.NullTime
	Duration             sql.NullInt64
	TikTokFollowers      sql.NullFloat64
	DateAddedToWatchlist sql.NullTime

	Metrics

	Chart    *ChartContext
	Playlist *PlaylistContext
	Ranking  *RankingContext
}

// QualifiedBatch is a table of rows that passed every filter, ready to be
// published under Label.
type QualifiedBatch struct {
	Label string
	Date  time.Time
	Rows  []FeatureRow
}

// PlaylistTrack is one song on a playlist tracklisting crawl.
type PlaylistTrack struct {
	SongUUID         string
	SongName         string
	PlaylistName     string
	PlaylistUUID     string
	PlaylistPlatform string
	CrawlDate        time.Time
	DateAdded        time.Time
}

// PlaylistSnapshot is a playlist's tracklist as crawled on CrawlDate.
type PlaylistSnapshot struct {
	CrawlDate time.Time
	Tracks    []PlaylistTrack
}

// ChartEntry is one song on a chart ranking.
type ChartEntry struct {
	SongUUID    string
	TimeOnChart int
	Streams     float64
}

// RankingEntry is one song on the general top-song ranking.
type RankingEntry struct {
	SongUUID      string
	Total         float64
	Change        float64
	PercentChange float64
}

// Drop records why a row was removed from a batch.
type Drop struct {
	SongUUID string
	Filter   string
	Reason   string
}
