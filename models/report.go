package models

// ScrapeSummary describes one published scrape batch.
type ScrapeSummary struct {
	Label     string
	Songs     int
	Reference string
}

// InsightReport holds the run summary printed at the end of a scrape.
type InsightReport struct {
	TotalSongs         int
	Scrapes            []ScrapeSummary
	WatchlistAdded     int
	AverageTodayStream float64
	MaxTodayStreams    float64
	TopByToday         []FeatureRow
	FastestGrowing     *FeatureRow
	SongsByRootGenre   map[string]int
	DropsByFilter      map[string]int
}
