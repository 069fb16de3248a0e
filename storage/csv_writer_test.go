package storage

import (
	"database/sql"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"song-scraper/models"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func column(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func TestWriteFeatureCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "chart_2023-10-10.csv")

	m := models.UndefinedMetrics()
	m.TodayStreams = 1234.5
	row := models.FeatureRow{
		SongUUID:        "s1",
		SongName:        "Song, with comma",
		Artists:         []string{"A", "B"},
		MainArtistStats: models.ArtistStats{Followers: sql.NullFloat64{Float64: 900, Valid: true}},
		Metrics:         m,
		Chart:           &models.ChartContext{Country: "United States", Platform: "spotify", Slug: "pop-us", TimeOnChart: 1},
	}

	require.NoError(t, WriteFeatureCSV(path, []models.FeatureRow{row}))
	records := readCSV(t, path)

	require.Len(t, records, 2)
	header, rec := records[0], records[1]
	assert.Equal(t, FeatureHeader, header)
	require.Len(t, rec, len(FeatureHeader))
	assert.Equal(t, "Song, with comma", rec[column(header, "song_name")])
	assert.Equal(t, "A, B", rec[column(header, "artists")])
	assert.Equal(t, "1234.5", rec[column(header, "today_streams")])
	assert.Equal(t, "", rec[column(header, "total_streams")], "NaN is written as empty")
	assert.Equal(t, "900", rec[column(header, "main_artist_spotify_followers")])
	assert.Equal(t, "", rec[column(header, "main_artist_spotify_monthly_listeners")])
	assert.Equal(t, "pop-us", rec[column(header, "chart_slug")])
	assert.Equal(t, "", rec[column(header, "playlist_name")])
}

func TestWriteFeatureCSVTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.csv")
	rows := []models.FeatureRow{{SongUUID: "a", Metrics: models.UndefinedMetrics()}, {SongUUID: "b", Metrics: models.UndefinedMetrics()}}

	require.NoError(t, WriteFeatureCSV(path, rows))
	require.NoError(t, WriteFeatureCSV(path, rows[:1]))

	assert.Len(t, readCSV(t, path), 2)
}

func TestAppendDropsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drops.csv")
	day := time.Date(2023, 10, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, AppendDropsCSV(path, day, []models.Drop{{SongUUID: "a", Filter: "seen", Reason: "published"}}))
	require.NoError(t, AppendDropsCSV(path, day, []models.Drop{{SongUUID: "b", Filter: "max_streams", Reason: "too big"}}))

	records := readCSV(t, path)
	require.Len(t, records, 3, "header is written once")
	assert.Equal(t, DropHeader, records[0])
	assert.Equal(t, []string{"2023-10-10", "b", "max_streams", "too big"}, records[2])
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "", formatFloat(math.NaN()))
	assert.Equal(t, "12.34", formatFloat(12.34))
	assert.Equal(t, "100", formatFloat(100))
}
