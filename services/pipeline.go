package services

import (
	"context"
	"fmt"
	"time"

	"song-scraper/models"
	"song-scraper/utils"
)

// Scrape types, used as batch label prefixes.
const (
	ScrapePlaylist        = "playlist"
	ScrapeChart           = "chart"
	ScrapeGeneralRanking  = "general"
	ScrapePlaylistHistory = "playlist_history"
)

// Pipeline takes the candidate rows of one scrape through the batch
// filters and hands the survivors to the output sink.
type Pipeline struct {
	cleaner    *Cleaner
	population *PopulationFilter
	seen       SeenCorpusProvider
	output     OutputSink
	metrics    *utils.RunMetrics
	logger     *utils.Logger

	drops   []models.Drop
	batches []models.QualifiedBatch
}

// NewPipeline wires a Pipeline. metrics may be nil.
func NewPipeline(population *PopulationFilter, seen SeenCorpusProvider, output OutputSink, metrics *utils.RunMetrics, logger *utils.Logger) *Pipeline {
	return &Pipeline{
		cleaner:    NewCleaner(logger),
		population: population,
		seen:       seen,
		output:     output,
		metrics:    metrics,
		logger:     logger,
	}
}

// Finish filters rows and publishes what is left under BatchLabel(scrape,
// date). With dropSeen set, songs published by earlier runs are removed
// first. An empty batch is not published.
func (p *Pipeline) Finish(ctx context.Context, scrape string, date time.Time, rows []models.FeatureRow, dropSeen bool) (models.ScrapeSummary, error) {
	label := BatchLabel(scrape, date)
	summary := models.ScrapeSummary{Label: label}
	if p.metrics != nil {
		p.metrics.SongsScraped.WithLabelValues(scrape).Add(float64(len(rows)))
	}

	rows = p.cleaner.Clean(rows)
	res := p.population.Apply(ctx, rows)
	p.drops = append(p.drops, res.Drops...)
	kept := res.Rows

	if dropSeen {
		seen, err := p.seen.SeenUUIDs(ctx)
		if err != nil {
			return summary, fmt.Errorf("%s: seen corpus: %w", label, err)
		}
		var drops []models.Drop
		kept, drops = DropSeen(kept, seen)
		for _, d := range drops {
			p.logger.Debug("[pipeline] Dropped %s (%s): %s", d.SongUUID, d.Filter, d.Reason)
		}
		if p.metrics != nil && len(drops) > 0 {
			p.metrics.SongsDropped.WithLabelValues(FilterSeen).Add(float64(len(drops)))
		}
		p.drops = append(p.drops, drops...)
	}

	p.logger.Info("[pipeline] %s: %d candidates → %d qualified", label, len(rows), len(kept))
	if len(kept) == 0 {
		return summary, nil
	}

	batch := models.QualifiedBatch{Label: label, Date: date, Rows: kept}
	ref, err := p.output.Publish(ctx, batch)
	if err != nil {
		return summary, err
	}
	p.batches = append(p.batches, batch)
	if p.metrics != nil {
		p.metrics.SongsPublished.WithLabelValues(scrape).Add(float64(len(kept)))
	}

	summary.Songs = len(kept)
	summary.Reference = ref
	return summary, nil
}

// Drops returns every drop recorded so far.
func (p *Pipeline) Drops() []models.Drop {
	return p.drops
}

// Batches returns the batches published so far.
func (p *Pipeline) Batches() []models.QualifiedBatch {
	return p.batches
}
