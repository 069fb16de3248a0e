package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"song-scraper/config"
	"song-scraper/models"
	"song-scraper/utils"
)

// maxDaysOnChart keeps only songs that entered the chart today.
const maxDaysOnChart = 1

// ChartKeywords translates an inputs genre into slug keywords and words
// that exclude a slug.
func ChartKeywords(genre string) (keywords, exclusions []string) {
	switch genre {
	case "alternative":
		return []string{"alternativ"}, nil
	case "all-genres":
		return []string{"top-200"}, nil
	case "pop":
		return []string{"pop"}, []string{"j-pop", "k-pop", "french-pop"}
	default:
		return []string{genre}, nil
	}
}

// FilterSlugs keeps slugs containing any keyword and no exclusion word,
// ignoring case.
func FilterSlugs(slugs, keywords, exclusions []string) []string {
	var out []string
	for _, slug := range slugs {
		s := strings.ToLower(slug)
		if containsAny(s, keywords) && !containsAny(s, exclusions) {
			out = append(out, slug)
		}
	}
	return out
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, strings.ToLower(w)) {
			return true
		}
	}
	return false
}

// FilterChartEntries keeps chart newcomers below the stream ceiling, one
// entry per song.
func FilterChartEntries(entries []models.ChartEntry, maxStreams float64) []models.ChartEntry {
	seen := make(map[string]struct{}, len(entries))
	var out []models.ChartEntry
	for _, e := range entries {
		if e.TimeOnChart > maxDaysOnChart || e.Streams >= maxStreams {
			continue
		}
		if _, dup := seen[e.SongUUID]; dup {
			continue
		}
		seen[e.SongUUID] = struct{}{}
		out = append(out, e)
	}
	return out
}

// ChartScraper collects candidate rows from chart newcomers.
type ChartScraper struct {
	source     ChartSource
	qualifier  *Qualifier
	pool       *utils.WorkerPool
	metrics    *utils.RunMetrics
	logger     *utils.Logger
	maxStreams float64
	timeout    time.Duration

	// checked holds songs already qualified by a completed target.
	checked *utils.URLSet
}

// NewChartScraper wires a ChartScraper. timeout bounds each chart target.
func NewChartScraper(source ChartSource, qualifier *Qualifier, pool *utils.WorkerPool, metrics *utils.RunMetrics, logger *utils.Logger, maxStreams float64, timeout time.Duration) *ChartScraper {
	return &ChartScraper{
		source:     source,
		qualifier:  qualifier,
		pool:       pool,
		metrics:    metrics,
		logger:     logger,
		maxStreams: maxStreams,
		timeout:    timeout,
		checked:    utils.NewURLSet(),
	}
}

type slugKey struct{ platform, country string }

// Scrape runs every target. A target that exceeds its time budget is
// abandoned whole and the next one starts. A song qualified by an earlier
// completed target is not qualified again.
func (s *ChartScraper) Scrape(ctx context.Context, targets []config.ChartTarget) []models.FeatureRow {
	s.logger.Info("[charts] Scraping %d chart targets", len(targets))
	cache := make(map[slugKey][]string)
	var rows []models.FeatureRow

	for _, t := range targets {
		if ctx.Err() != nil {
			break
		}
		key := slugKey{t.Platform, t.CountryCode}
		slugs, ok := cache[key]
		if !ok {
			var err error
			slugs, err = s.source.ChartSlugs(ctx, t.Platform, t.CountryCode)
			if err != nil {
				s.logger.Debug("[charts] No chart slugs for %s/%s: %v", t.Platform, t.CountryCode, err)
			}
			cache[key] = slugs
		}

		keywords, exclusions := ChartKeywords(t.Genre)
		filtered := FilterSlugs(slugs, keywords, exclusions)
		s.logger.Debug("[charts] %s/%s/%s: %d matching charts", t.Platform, t.Genre, t.CountryCode, len(filtered))

		got, attempted, err := s.scrapeTarget(ctx, t, filtered)
		if err != nil {
			s.logger.Error("[charts] %v", err)
			if errors.Is(err, ErrBatchTimeout) && s.metrics != nil {
				s.metrics.Timeouts.WithLabelValues(t.Platform).Inc()
			}
			continue
		}
		for _, id := range attempted {
			s.checked.Add(id)
		}
		rows = append(rows, got...)
	}

	s.logger.Info("[charts] Collected %d candidate rows", len(rows))
	return rows
}

// scrapeTarget qualifies the newcomers on each slug under one deadline.
// Partial results are discarded when the deadline passes. It also returns
// every song id it qualified, kept or not.
func (s *ChartScraper) scrapeTarget(parent context.Context, t config.ChartTarget, slugs []string) ([]models.FeatureRow, []string, error) {
	ctx := parent
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, s.timeout)
		defer cancel()
	}

	country := config.CountryName(t.CountryCode)
	var rows []models.FeatureRow
	var attempted []string
	local := make(map[string]struct{})
	for _, slug := range slugs {
		s.logger.Debug("[charts] Scraping %s", slug)
		entries, err := s.source.ChartRanking(ctx, slug)
		if err != nil {
			s.logger.Debug("[charts] Ranking for %s unavailable: %v", slug, err)
		}
		entries = FilterChartEntries(entries, s.maxStreams)

		byUUID := make(map[string]models.ChartEntry, len(entries))
		ids := make([]string, 0, len(entries))
		for _, e := range entries {
			if _, dup := local[e.SongUUID]; dup || s.checked.Contains(e.SongUUID) {
				continue
			}
			local[e.SongUUID] = struct{}{}
			byUUID[e.SongUUID] = e
			ids = append(ids, e.SongUUID)
		}
		attempted = append(attempted, ids...)

		for _, row := range s.qualifier.EnrichBatch(ctx, s.pool, ids) {
			e := byUUID[row.SongUUID]
			row.Chart = &models.ChartContext{
				Country:     country,
				CountryCode: t.CountryCode,
				Platform:    t.Platform,
				Slug:        slug,
				TimeOnChart: e.TimeOnChart,
			}
			rows = append(rows, row)
		}

		if err := ctx.Err(); err != nil {
			break
		}
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) && parent.Err() == nil {
		return nil, nil, fmt.Errorf("%w: %s/%s/%s after %v", ErrBatchTimeout, t.Platform, t.Genre, t.CountryCode, s.timeout)
	}
	if err := parent.Err(); err != nil {
		return nil, nil, err
	}
	return rows, attempted, nil
}
