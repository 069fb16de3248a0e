package services

import (
	"strings"
	"unicode"

	"song-scraper/models"
	"song-scraper/utils"
)

// Cleaner merges catalogue metadata and derived metrics into FeatureRows.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// BuildRow produces the candidate row for one song.
func (c *Cleaner) BuildRow(meta models.SongMetadata, metrics models.Metrics) models.FeatureRow {
	main := meta.MainArtist()

	row := models.FeatureRow{
		SongUUID:         meta.UUID,
		SongName:         normaliseText(meta.Name.String),
		URL:              trendsURL(meta.AppURL),
		Labels:           normaliseList(meta.Labels),
		Artists:          normaliseList(meta.ArtistNames()),
		MainArtist:       normaliseText(main.Name),
		MainArtistUUID:   main.UUID,
		MainArtistStats:  meta.MainArtistStats,
		Instrumentalness: meta.Instrumentalness,
		ReleaseDate:      meta.ReleaseDate,
		Duration:         meta.Duration,
		Metrics:          metrics,
	}
	for _, g := range meta.Genres {
		if root := normaliseText(g.Root); root != "" {
			row.RootGenres = append(row.RootGenres, root)
		}
		row.SubGenres = append(row.SubGenres, normaliseList(g.Sub)...)
	}

	if row.MainArtist == "" {
		c.logger.Debug("[cleaner] Song %s has no credited artist", meta.UUID)
	}
	return row
}

// Clean drops rows without a uuid and keeps the first row per uuid.
func (c *Cleaner) Clean(rows []models.FeatureRow) []models.FeatureRow {
	seen := make(map[string]struct{}, len(rows))
	result := make([]models.FeatureRow, 0, len(rows))

	for _, r := range rows {
		id := strings.TrimSpace(r.SongUUID)
		if id == "" {
			c.logger.Warn("[cleaner] Dropping row with empty uuid: %s", r.SongName)
			continue
		}
		if _, dup := seen[id]; dup {
			c.logger.Debug("[cleaner] Duplicate song skipped: %s", id)
			continue
		}
		seen[id] = struct{}{}
		result = append(result, r)
	}

	if dropped := len(rows) - len(result); dropped > 0 {
		c.logger.Info("[cleaner] Cleaned %d → %d rows (dropped %d)", len(rows), len(result), dropped)
	}
	return result
}

// trendsURL points an app URL at the trends tab instead of the overview.
func trendsURL(appURL string) string {
	return strings.Replace(strings.TrimSpace(appURL), "overview", "trends", 1)
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}

func normaliseList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = normaliseText(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
