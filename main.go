package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"song-scraper/config"
	"song-scraper/models"
	"song-scraper/scraper/soundcharts"
	"song-scraper/scraper/spotify"
	"song-scraper/services"
	"song-scraper/storage"
	"song-scraper/utils"
)

func main() {
	historyFrom := flag.String("history-from", "", "scrape playlist additions from this day (YYYY-MM-DD) instead of the daily run")
	historyTo := flag.String("history-to", "", "last day of the playlist history scrape (YYYY-MM-DD)")
	exportBatch := flag.String("export-batch", "", "write the stored batch with this label to CSV and exit")
	flag.Parse()

	logger := utils.NewLogger()
	cfg := config.Load()

	if err := cfg.Validate(); err != nil {
		fatal(logger, err)
	}
	inputs, err := config.LoadInputs(cfg.InputsPath)
	if err != nil {
		fatal(logger, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := utils.NewRunID()
	logger.Info("=== Song scraper starting (run %s) ===", runID)
	logger.Info("Config: concurrency: %d | rate: %dms | store: %s | charts: %d targets | playlists: %d",
		cfg.MaxConcurrency, cfg.RateLimitMs, cfg.StorageDriver, len(inputs.ChartTargets), len(inputs.PlaylistURLs))

	var store storage.Store
	store, err = storage.NewSQLStore(cfg.StorageDriver, cfg.DSN())
	if err != nil {
		logger.Error("Failed to open %s store: %v", cfg.StorageDriver, err)
		os.Exit(1)
	}
	defer store.Close()

	metrics := utils.NewRunMetrics()
	pool := utils.NewWorkerPool(cfg.MaxConcurrency, 0)

	api := soundcharts.New(soundcharts.Options{
		BaseURL:     cfg.APIBaseURL,
		AppID:       cfg.APIAppID,
		APIKey:      cfg.APIKey,
		RateLimitMs: cfg.RateLimitMs,
		MaxRetries:  cfg.MaxRetries,
	}, metrics, logger)

	var ids services.IdentifierSource
	var playlists services.PlaylistCreator
	if cfg.SpotifyEnabled() {
		ids = api
		playlists = spotify.New(ctx, spotify.Options{
			ClientID:     cfg.SpotifyClientID,
			ClientSecret: cfg.SpotifyClientSecret,
			RefreshToken: cfg.SpotifyRefreshToken,
			UserID:       cfg.SpotifyUserID,
		}, logger)
	} else {
		logger.Warn("Spotify credentials missing, batches will be published as CSV only")
	}
	publisher := services.NewPublisher(cfg.OutputFolder, store, ids, playlists, pool, logger)

	if *exportBatch != "" {
		exportStoredBatch(ctx, logger, store, publisher, *exportBatch)
		return
	}

	watchBuf := services.NewWatchlistBuffer()
	rules := services.NewDefaultRuleChain(inputs)
	logger.Debug("Rule chain: %s", strings.Join(rules.Names(), " → "))
	qualifier := services.NewQualifier(api, rules, watchBuf, logger, services.QualifierOptions{
		MaxPercentOneDay: inputs.MaxPercentOfStreamsOnOneDay,
		Metrics:          metrics,
	})
	population := services.NewPopulationFilter(services.ThresholdsFromInputs(inputs), api, pool, metrics, logger)
	pipeline := services.NewPipeline(population, store, publisher, metrics, logger)
	playlistScraper := services.NewPlaylistScraper(api, qualifier, pool, logger)

	today := time.Now()

	if *historyFrom != "" {
		runHistory(ctx, logger, playlistScraper, population, publisher, inputs.PlaylistURLs, *historyFrom, *historyTo)
		return
	}

	var run services.RunResult

	if cfg.ScrapePlaylists {
		rows := playlistScraper.Scrape(ctx, inputs.PlaylistURLs)
		run.Scrapes = appendSummary(logger, run.Scrapes, services.ScrapePlaylist)(
			pipeline.Finish(ctx, services.ScrapePlaylist, today, rows, true))
	}

	if cfg.ScrapeCharts {
		charts := services.NewChartScraper(api, qualifier, pool, metrics, logger, inputs.MaxStreams, cfg.ChartTimeout)
		rows := charts.Scrape(ctx, inputs.ChartTargets)
		run.Scrapes = appendSummary(logger, run.Scrapes, services.ScrapeChart)(
			pipeline.Finish(ctx, services.ScrapeChart, today, rows, true))
	}

	if cfg.ScrapeRanking {
		ranking := services.NewRankingScraper(api, qualifier, pool, inputs.Ranking, logger)
		rows, updatedAt, ok, err := ranking.Scrape(ctx)
		switch {
		case err != nil:
			logger.Error("General ranking scrape failed: %v", err)
		case ok:
			run.Scrapes = appendSummary(logger, run.Scrapes, services.ScrapeGeneralRanking)(
				pipeline.Finish(ctx, services.ScrapeGeneralRanking, updatedAt, rows, false))
		}
	}

	logger.Info("Flushing %d watchlist candidates", watchBuf.Len())
	watchlist := services.NewWatchlistService(population, store, metrics, logger)
	added, err := watchlist.Flush(ctx, watchBuf)
	if err != nil {
		logger.Error("Watchlist update failed: %v", err)
	}
	run.WatchlistAdded = len(added)
	if len(added) > 0 {
		if path, err := publisher.WriteTable(services.BatchLabel("label_watchlist", today), added); err != nil {
			logger.Error("Watchlist CSV failed: %v", err)
		} else {
			logger.Info("New watchlist songs saved to %s", path)
		}
	}

	run.Batches = pipeline.Batches()
	run.Drops = pipeline.Drops()
	if path, err := publisher.WriteDrops(today, run.Drops); err != nil {
		logger.Error("Drop report failed: %v", err)
	} else if len(run.Drops) > 0 {
		logger.Info("%d drops recorded in %s", len(run.Drops), path)
	}

	if n := pool.Panics(); n > 0 {
		logger.Warn("%d worker jobs panicked and were skipped", n)
	}

	insightSvc := services.NewInsightService(logger)
	report := insightSvc.Generate(run)
	insightSvc.Print(report)

	if cfg.PushgatewayURL != "" {
		if err := metrics.Push(cfg.PushgatewayURL, "song_scraper"); err != nil {
			logger.Error("%v", err)
		}
	}

	fmt.Printf("  Done. Output → %s | API quota remaining: %d\n\n", cfg.OutputFolder, api.QuotaRemaining())
}

// appendSummary logs a failed scrape and otherwise appends its summary.
func appendSummary(logger *utils.Logger, scrapes []models.ScrapeSummary, scrape string) func(models.ScrapeSummary, error) []models.ScrapeSummary {
	return func(s models.ScrapeSummary, err error) []models.ScrapeSummary {
		if err != nil {
			logger.Error("%s scrape failed: %v", scrape, err)
			return scrapes
		}
		return append(scrapes, s)
	}
}

func runHistory(ctx context.Context, logger *utils.Logger, scraper *services.PlaylistScraper, population *services.PopulationFilter,
	publisher *services.Publisher, urls []string, from, to string) {
	start, err := time.Parse(time.DateOnly, from)
	if err != nil {
		fatal(logger, &config.ConfigurationError{Field: "history-from", Problem: "must be YYYY-MM-DD", Err: err})
	}
	end := time.Now()
	if to != "" {
		if end, err = time.Parse(time.DateOnly, to); err != nil {
			fatal(logger, &config.ConfigurationError{Field: "history-to", Problem: "must be YYYY-MM-DD", Err: err})
		}
	}

	rows := scraper.History(ctx, urls, start, end)
	res := population.Apply(ctx, rows)
	name := fmt.Sprintf("%s_%s_%s", services.ScrapePlaylistHistory, start.Format(time.DateOnly), end.Format(time.DateOnly))
	path, err := publisher.WriteTable(name, res.Rows)
	if err != nil {
		logger.Error("History CSV failed: %v", err)
		os.Exit(1)
	}
	logger.Info("Finished scraping %d songs from playlist history → %s", len(res.Rows), path)
}

func exportStoredBatch(ctx context.Context, logger *utils.Logger, store storage.BatchStore, publisher *services.Publisher, label string) {
	rows, err := store.FetchBatch(ctx, label)
	if err != nil {
		logger.Error("Fetching batch %s failed: %v", label, err)
		os.Exit(1)
	}
	if len(rows) == 0 {
		logger.Warn("No stored batch is labelled %s", label)
		return
	}
	path, err := publisher.WriteTable(label+"_export", rows)
	if err != nil {
		logger.Error("Batch CSV failed: %v", err)
		os.Exit(1)
	}
	logger.Info("Exported %d songs from %s → %s", len(rows), label, path)
}

func fatal(logger *utils.Logger, err error) {
	var cfgErr *config.ConfigurationError
	if errors.As(err, &cfgErr) {
		logger.Error("Configuration error: %v", err)
	} else {
		logger.Error("%v", err)
	}
	os.Exit(1)
}
