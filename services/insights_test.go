package services

import (
	"math"
	"testing"

	"song-scraper/models"
	"song-scraper/utils"
)

func sampleRun() RunResult {
	rows := []models.FeatureRow{
		candidate("a", 200),
		candidate("b", 50),
		candidate("c", 120),
		candidate("d", 300),
		candidate("e", 10),
		candidate("f", 90),
		candidate("g", math.NaN()),
	}
	rows[0].RootGenres = []string{"pop"}
	rows[1].RootGenres = []string{"pop", "electronic"}
	rows[2].PercentIncrease = 40
	rows[3].PercentIncrease = math.NaN()
	rows[4].PercentIncrease = 250

	return RunResult{
		Scrapes: []models.ScrapeSummary{{Label: "chart_2023-10-10", Songs: 7, Reference: "https://open.spotify.com/playlist/x"}},
		Batches: []models.QualifiedBatch{{Label: "chart_2023-10-10", Rows: rows}},
		Drops: []models.Drop{
			{SongUUID: "x", Filter: FilterSeen},
			{SongUUID: "y", Filter: FilterSeen},
			{SongUUID: "z", Filter: FilterMaxStreams},
		},
		WatchlistAdded: 2,
	}
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(utils.NewDiscardLogger())
	r := svc.Generate(sampleRun())
	if r.TotalSongs != 7 {
		t.Errorf("TotalSongs: got %d, want 7", r.TotalSongs)
	}
	if r.WatchlistAdded != 2 {
		t.Errorf("WatchlistAdded: got %d, want 2", r.WatchlistAdded)
	}
	if r.SongsByRootGenre["pop"] != 2 || r.SongsByRootGenre["electronic"] != 1 {
		t.Errorf("SongsByRootGenre: got %v", r.SongsByRootGenre)
	}
	if r.DropsByFilter[FilterSeen] != 2 || r.DropsByFilter[FilterMaxStreams] != 1 {
		t.Errorf("DropsByFilter: got %v", r.DropsByFilter)
	}
}

func TestInsightStreams(t *testing.T) {
	svc := NewInsightService(utils.NewDiscardLogger())
	r := svc.Generate(sampleRun())
	// NaN today-streams are left out of the average
	if r.AverageTodayStream != 128.33 {
		t.Errorf("AverageTodayStream: got %.2f, want 128.33", r.AverageTodayStream)
	}
	if r.MaxTodayStreams != 300 {
		t.Errorf("MaxTodayStreams: got %.0f, want 300", r.MaxTodayStreams)
	}
}

func TestInsightTopByToday(t *testing.T) {
	svc := NewInsightService(utils.NewDiscardLogger())
	r := svc.Generate(sampleRun())
	if len(r.TopByToday) != 5 {
		t.Fatalf("TopByToday: got %d rows, want 5", len(r.TopByToday))
	}
	want := []string{"d", "a", "c", "f", "b"}
	for i, row := range r.TopByToday {
		if row.SongUUID != want[i] {
			t.Errorf("TopByToday[%d]: got %s, want %s", i, row.SongUUID, want[i])
		}
	}
}

func TestInsightFastestGrowing(t *testing.T) {
	svc := NewInsightService(utils.NewDiscardLogger())
	r := svc.Generate(sampleRun())
	if r.FastestGrowing == nil {
		t.Fatal("FastestGrowing should not be nil")
	}
	if r.FastestGrowing.SongUUID != "e" {
		t.Errorf("FastestGrowing: got %s, want e", r.FastestGrowing.SongUUID)
	}
}

func TestInsightEmptyRun(t *testing.T) {
	svc := NewInsightService(utils.NewDiscardLogger())
	r := svc.Generate(RunResult{})
	if r.TotalSongs != 0 || r.FastestGrowing != nil || len(r.TopByToday) != 0 {
		t.Errorf("empty run should produce an empty report, got %+v", r)
	}
	svc.Print(r)
}

func TestTruncate(t *testing.T) {
	if got := truncate("Ünïcödé song title", 10); got != "Ünïcödé..." {
		t.Errorf("truncate: got %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate: got %q", got)
	}
}
