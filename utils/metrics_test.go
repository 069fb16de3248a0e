package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMetricsRegistry(t *testing.T) {
	m := NewRunMetrics()
	m.SongsDropped.WithLabelValues("seen").Add(3)
	m.SongsPublished.WithLabelValues("chart").Inc()
	m.Watchlisted.Inc()

	n, err := testutil.GatherAndCount(m.Registry(), "song_scraper_songs_dropped_total", "song_scraper_watchlist_added_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SongsDropped.WithLabelValues("seen")))
}

func TestRunMetricsPush(t *testing.T) {
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewRunMetrics()
	m.Watchlisted.Inc()
	require.NoError(t, m.Push(srv.URL, "song_scraper"))
	assert.Equal(t, http.MethodPut, method)
	assert.True(t, strings.HasSuffix(path, "/metrics/job/song_scraper"), path)
}

func TestRunMetricsPushError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewRunMetrics().Push(srv.URL, "song_scraper")
	assert.ErrorContains(t, err, "metrics: push")
}
