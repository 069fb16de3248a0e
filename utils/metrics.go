package utils

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// RunMetrics collects counters for one scrape run. The scraper runs as a
// cron job, so the values are pushed to a Pushgateway instead of scraped.
type RunMetrics struct {
	registry *prometheus.Registry

	SongsDropped   *prometheus.CounterVec
	SongsPublished *prometheus.CounterVec
	SongsScraped   *prometheus.CounterVec
	Timeouts       *prometheus.CounterVec
	Watchlisted    prometheus.Counter
	QuotaRemaining prometheus.Gauge
}

// NewRunMetrics registers the run counters on a private registry.
func NewRunMetrics() *RunMetrics {
	m := &RunMetrics{
		registry: prometheus.NewRegistry(),
		SongsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "song_scraper_songs_dropped_total",
				Help: "Songs removed by a filter stage",
			},
			[]string{"filter"},
		),
		SongsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "song_scraper_songs_published_total",
				Help: "Songs published per scrape type",
			},
			[]string{"scrape"},
		),
		SongsScraped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "song_scraper_songs_scraped_total",
				Help: "Candidate rows produced per scrape type before batch filters",
			},
			[]string{"scrape"},
		),
		Timeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "song_scraper_target_timeouts_total",
				Help: "Chart targets abandoned because they exceeded their time budget",
			},
			[]string{"platform"},
		),
		Watchlisted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "song_scraper_watchlist_added_total",
			Help: "Songs newly added to the label watchlist",
		}),
		QuotaRemaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "song_scraper_api_quota_remaining",
			Help: "Remaining analytics API quota reported by the last response",
		}),
	}
	m.registry.MustRegister(m.SongsDropped, m.SongsPublished, m.SongsScraped,
		m.Timeouts, m.Watchlisted, m.QuotaRemaining)
	return m
}

// Registry exposes the underlying registry (tests, ad-hoc gathering).
func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Push sends the collected metrics to a Pushgateway.
func (m *RunMetrics) Push(gatewayURL, job string) error {
	if err := push.New(gatewayURL, job).Gatherer(m.registry).Push(); err != nil {
		return fmt.Errorf("metrics: push to %s: %w", gatewayURL, err)
	}
	return nil
}
