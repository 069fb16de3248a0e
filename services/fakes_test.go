package services

import (
	"context"
	"fmt"
	"sync"

	"song-scraper/models"
)

type fakeSource struct {
	mu        sync.Mutex
	meta      map[string]models.SongMetadata
	series    map[string]models.StreamSeries
	stats     map[string]models.ArtistStats
	seriesErr error

	seriesCalls    map[string]int
	retentionCalls int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		meta:        map[string]models.SongMetadata{},
		series:      map[string]models.StreamSeries{},
		stats:       map[string]models.ArtistStats{},
		seriesCalls: map[string]int{},
	}
}

func (f *fakeSource) SongMetadata(_ context.Context, id string) (models.SongMetadata, error) {
	m, ok := f.meta[id]
	if !ok {
		return models.SongMetadata{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return m, nil
}

func (f *fakeSource) SongAudience(_ context.Context, id, _ string, _ DateRange) (models.StreamSeries, error) {
	f.mu.Lock()
	f.seriesCalls[id]++
	f.mu.Unlock()
	if f.seriesErr != nil {
		return nil, f.seriesErr
	}
	return f.series[id], nil
}

func (f *fakeSource) ArtistRetention(_ context.Context, artist string) (models.ArtistStats, error) {
	f.mu.Lock()
	f.retentionCalls++
	f.mu.Unlock()
	s, ok := f.stats[artist]
	if !ok {
		return models.ArtistStats{}, ErrProviderUnavailable
	}
	return s, nil
}

func (f *fakeSource) calls(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seriesCalls[id]
}

type fakeAudience struct {
	mu     sync.Mutex
	counts map[string]float64
	fail   map[string]bool
	calls  map[string]int
}

func newFakeAudience(counts map[string]float64) *fakeAudience {
	return &fakeAudience{counts: counts, fail: map[string]bool{}, calls: map[string]int{}}
}

func (f *fakeAudience) ArtistFollowers(_ context.Context, artist, _ string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[artist]++
	if f.fail[artist] {
		return 0, ErrProviderUnavailable
	}
	return f.counts[artist], nil
}

type fakeSeen struct {
	ids map[string]struct{}
	err error
}

func (f fakeSeen) SeenUUIDs(context.Context) (map[string]struct{}, error) {
	return f.ids, f.err
}

type fakeOutput struct {
	batches []models.QualifiedBatch
	err     error
}

func (f *fakeOutput) Publish(_ context.Context, b models.QualifiedBatch) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.batches = append(f.batches, b)
	return "ref:" + b.Label, nil
}
