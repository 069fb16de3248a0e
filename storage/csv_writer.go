package storage

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"song-scraper/models"
)

// CSVWriter writes records to a CSV file. It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string, header []string) (*CSVWriter, error) {
	return openCSV(path, header, os.O_CREATE|os.O_TRUNC|os.O_WRONLY)
}

// NewAppendingCSVWriter opens path for appending. The header is written only
// when the file is new or empty.
func NewAppendingCSVWriter(path string, header []string) (*CSVWriter, error) {
	return openCSV(path, header, os.O_CREATE|os.O_APPEND|os.O_WRONLY)
}

func openCSV(path string, header []string, flag int) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, fmt.Errorf("csv: open file %q: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: stat %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("csv: write header: %w", err)
		}
		w.Flush()
	}

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteRecords appends records and flushes.
func (c *CSVWriter) WriteRecords(records [][]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, rec := range records {
		if err := c.writer.Write(rec); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

// FeatureHeader is the column order of a published batch table.
var FeatureHeader = []string{
	"song_uuid", "song_name", "url", "labels", "artists", "main_artist", "main_artist_uuid",
	"main_artist_spotify_followers", "main_artist_spotify_monthly_listeners",
	"main_artist_spotify_conversion_rate", "instrumentalness", "root_genres", "sub_genres",
	"release_date", "duration",
	"today_streams", "yesterday_streams", "day_1-3_average", "day_7-9_average", "%_increase",
	"this_week_7_day_average", "last_week_7_day_average", "week_to_week_percentage_increase",
	"14_day_max", "14_day_median", "total_streams", "main_artist_tiktok_followers",
	"country", "platform", "chart_slug", "time_on_chart",
	"playlist_name", "playlist_uuid", "date_added",
	"ranking_period", "ranking_total", "ranking_change", "ranking_percent_change",
	"date_added_to_watchlist",
}

// FeatureRecord renders r in FeatureHeader order. Missing values are empty.
func FeatureRecord(r models.FeatureRow) []string {
	rec := []string{
		r.SongUUID, r.SongName, r.URL,
		strings.Join(r.Labels, ", "), strings.Join(r.Artists, ", "),
		r.MainArtist, r.MainArtistUUID,
		formatNull(r.MainArtistStats.Followers.Float64, r.MainArtistStats.Followers.Valid),
		formatNull(r.MainArtistStats.MonthlyListeners.Float64, r.MainArtistStats.MonthlyListeners.Valid),
		formatNull(r.MainArtistStats.ConversionRate.Float64, r.MainArtistStats.ConversionRate.Valid),
		formatNull(r.Instrumentalness.Float64, r.Instrumentalness.Valid),
		strings.Join(r.RootGenres, ", "), strings.Join(r.SubGenres, ", "),
		formatDate(r.ReleaseDate.Time, r.ReleaseDate.Valid),
		formatInt(r.Duration.Int64, r.Duration.Valid),
		formatFloat(r.TodayStreams), formatFloat(r.YesterdayStreams),
		formatFloat(r.Day1To3Average), formatFloat(r.Day7To9Average), formatFloat(r.PercentIncrease),
		formatFloat(r.ThisWeek7DayAverage), formatFloat(r.LastWeek7DayAverage),
		formatFloat(r.WeekToWeekPercentIncrease),
		formatFloat(r.FourteenDayMax), formatFloat(r.FourteenDayMedian), formatFloat(r.TotalStreams),
		formatNull(r.TikTokFollowers.Float64, r.TikTokFollowers.Valid),
	}

	if c := r.Chart; c != nil {
		rec = append(rec, c.Country, c.Platform, c.Slug, strconv.Itoa(c.TimeOnChart))
	} else {
		rec = append(rec, "", "", "", "")
	}
	if p := r.Playlist; p != nil {
		rec = append(rec, p.Name, p.UUID, formatDate(p.DateAdded, !p.DateAdded.IsZero()))
	} else {
		rec = append(rec, "", "", "")
	}
	if k := r.Ranking; k != nil {
		rec = append(rec, k.Period, formatFloat(k.Total), formatFloat(k.Change), formatFloat(k.PercentChange))
	} else {
		rec = append(rec, "", "", "", "")
	}
	rec = append(rec, formatDate(r.DateAddedToWatchlist.Time, r.DateAddedToWatchlist.Valid))
	return rec
}

// DropHeader is the column order of the drop report.
var DropHeader = []string{"date", "song_uuid", "filter", "reason"}

// DropRecord renders one drop report line.
func DropRecord(date time.Time, d models.Drop) []string {
	return []string{date.Format(time.DateOnly), d.SongUUID, d.Filter, d.Reason}
}

// WriteFeatureCSV writes rows to a fresh CSV file at path.
func WriteFeatureCSV(path string, rows []models.FeatureRow) error {
	w, err := NewCSVWriter(path, FeatureHeader)
	if err != nil {
		return err
	}
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, FeatureRecord(r))
	}
	if err := w.WriteRecords(records); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// AppendDropsCSV appends drops to the report at path.
func AppendDropsCSV(path string, date time.Time, drops []models.Drop) error {
	w, err := NewAppendingCSVWriter(path, DropHeader)
	if err != nil {
		return err
	}
	records := make([][]string, 0, len(drops))
	for _, d := range drops {
		records = append(records, DropRecord(date, d))
	}
	if err := w.WriteRecords(records); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatNull(f float64, valid bool) string {
	if !valid {
		return ""
	}
	return formatFloat(f)
}

func formatInt(n int64, valid bool) string {
	if !valid {
		return ""
	}
	return strconv.FormatInt(n, 10)
}

func formatDate(t time.Time, valid bool) string {
	if !valid {
		return ""
	}
	return t.Format(time.DateOnly)
}
