package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"song-scraper/models"
	"song-scraper/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// RunResult is everything a run produced, as input to Generate.
type RunResult struct {
	Scrapes        []models.ScrapeSummary
	Batches        []models.QualifiedBatch
	WatchlistAdded int
	Drops          []models.Drop
}

func (s *InsightService) Generate(run RunResult) *models.InsightReport {
	report := &models.InsightReport{
		Scrapes:          run.Scrapes,
		WatchlistAdded:   run.WatchlistAdded,
		SongsByRootGenre: make(map[string]int),
		DropsByFilter:    make(map[string]int),
	}
	for _, d := range run.Drops {
		report.DropsByFilter[d.Filter]++
	}

	var rows []models.FeatureRow
	for _, b := range run.Batches {
		rows = append(rows, b.Rows...)
	}
	if len(rows) == 0 {
		return report
	}
	report.TotalSongs = len(rows)

	var streamed []models.FeatureRow
	var total float64
	for _, r := range rows {
		for _, g := range r.RootGenres {
			report.SongsByRootGenre[g]++
		}
		if math.IsNaN(r.TodayStreams) {
			continue
		}
		streamed = append(streamed, r)
		total += r.TodayStreams
		if r.TodayStreams > report.MaxTodayStreams {
			report.MaxTodayStreams = r.TodayStreams
		}
		if !math.IsNaN(r.PercentIncrease) &&
			(report.FastestGrowing == nil || r.PercentIncrease > report.FastestGrowing.PercentIncrease) {
			row := r
			report.FastestGrowing = &row
		}
	}
	if len(streamed) > 0 {
		report.AverageTodayStream = round2(total / float64(len(streamed)))
	}

	// Top 5 by today's streams
	sort.SliceStable(streamed, func(i, j int) bool {
		return streamed[i].TodayStreams > streamed[j].TodayStreams
	})
	if len(streamed) > 5 {
		report.TopByToday = streamed[:5]
	} else {
		report.TopByToday = streamed
	}

	return report
}

func (s *InsightService) Print(r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  🎵 SONG SCRAPE INSIGHTS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Songs published        : \033[1m%d\033[0m\n", r.TotalSongs)
	fmt.Printf("  Watchlist additions    : \033[1m%d\033[0m\n", r.WatchlistAdded)
	for _, sc := range r.Scrapes {
		ref := sc.Reference
		if ref == "" {
			ref = "-"
		}
		fmt.Printf("  %-22s : \033[1m%d\033[0m  %s\n", truncate(sc.Label, 22), sc.Songs, ref)
	}
	fmt.Println()

	// Stream Stats
	fmt.Printf("\033[1;33m  Today's Streams\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.AverageTodayStream > 0 {
		fmt.Printf("  Average : \033[1;32m%.2f\033[0m\n", r.AverageTodayStream)
		fmt.Printf("  Maximum : \033[1;32m%.0f\033[0m\n", r.MaxTodayStreams)
	} else {
		fmt.Printf("  No stream data available\n")
	}
	fmt.Println()

	if r.FastestGrowing != nil {
		fmt.Printf("\033[1;33m  Fastest Growing Song\033[0m\n")
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  %s\n", truncate(r.FastestGrowing.SongName, 50))
		fmt.Printf("  Artist   : %s\n", r.FastestGrowing.MainArtist)
		fmt.Printf("  Increase : \033[1;31m%.2f%%\033[0m\n", r.FastestGrowing.PercentIncrease)
		fmt.Println()
	}

	fmt.Printf("\033[1;33m  Top 5 by Today's Streams\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.TopByToday) == 0 {
		fmt.Printf("  No songs published\n")
	} else {
		for i, row := range r.TopByToday {
			fmt.Printf("  \033[1m%d.\033[0m %-40s \033[1;32m%.0f\033[0m\n",
				i+1, truncate(row.SongName+" - "+row.MainArtist, 38), row.TodayStreams)
		}
	}
	fmt.Println()

	printCounts("Songs by Root Genre", r.SongsByRootGenre, thin)
	printCounts("Drops by Filter", r.DropsByFilter, thin)

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func printCounts(title string, counts map[string]int, thin string) {
	fmt.Printf("\033[1;33m  %s\033[0m\n", title)
	fmt.Printf("  %s\n", thin)
	if len(counts) == 0 {
		fmt.Printf("  None\n\n")
		return
	}
	type keyCount struct {
		key   string
		count int
	}
	var kcs []keyCount
	for k, c := range counts {
		kcs = append(kcs, keyCount{k, c})
	}
	sort.Slice(kcs, func(i, j int) bool {
		if kcs[i].count != kcs[j].count {
			return kcs[i].count > kcs[j].count
		}
		return kcs[i].key < kcs[j].key
	})
	for _, kc := range kcs {
		bar := strings.Repeat("█", min(kc.count, 30))
		fmt.Printf("  %-30s %s (%d)\n", truncate(kc.key, 28), bar, kc.count)
	}
	fmt.Println()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
