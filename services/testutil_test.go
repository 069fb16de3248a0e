package services

import (
	"database/sql"
	"time"

	"song-scraper/models"
	"song-scraper/utils"
)

func newTestLogger() *utils.Logger { return utils.NewDiscardLogger() }

var refDay = time.Date(2023, 10, 10, 0, 0, 0, 0, time.UTC)

// cumulative builds a most-recent-first series from cumulative totals, one
// day apart, ending on refDay.
func cumulative(totals ...float64) models.StreamSeries {
	s := make(models.StreamSeries, len(totals))
	for i, v := range totals {
		s[i] = models.StreamPoint{Date: refDay.AddDate(0, 0, -i), Total: v}
	}
	return s
}

func nullF(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }

func candidate(id string, today float64) models.FeatureRow {
	m := models.Metrics{TodayStreams: today, TotalStreams: 1000}
	return models.FeatureRow{
		SongUUID:       id,
		SongName:       "Song " + id,
		URL:            "https://app.soundcharts.com/app/song/" + id + "/trends",
		MainArtist:     "Artist " + id,
		MainArtistUUID: "artist-" + id,
		Metrics:        m,
	}
}
