package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"song-scraper/models"
	"song-scraper/utils"
)

type memBatches struct{ saved []string }

func (m *memBatches) SaveBatch(_ context.Context, b models.QualifiedBatch) error {
	m.saved = append(m.saved, b.Label)
	return nil
}

type fakeIDs map[string]string

func (f fakeIDs) SpotifyID(_ context.Context, id string) (string, error) {
	if v, ok := f[id]; ok {
		return v, nil
	}
	return "", ErrNotFound
}

type fakePlaylistCreator struct {
	name   string
	tracks []string
	err    error
}

func (f *fakePlaylistCreator) CreatePlaylist(_ context.Context, name string, ids []string) (string, error) {
	f.name, f.tracks = name, ids
	if f.err != nil {
		return "", f.err
	}
	return "https://open.spotify.com/playlist/new", nil
}

func testBatch() models.QualifiedBatch {
	return models.QualifiedBatch{
		Label: BatchLabel(ScrapeChart, refDay),
		Date:  refDay,
		Rows:  []models.FeatureRow{candidate("a", 3), candidate("b", 2), candidate("c", 1)},
	}
}

func TestPublishCreatesPlaylistInBatchOrder(t *testing.T) {
	dir := t.TempDir()
	store := &memBatches{}
	creator := &fakePlaylistCreator{}
	p := NewPublisher(dir, store, fakeIDs{"a": "ta", "c": "tc"}, creator, utils.NewWorkerPool(3, 0), newTestLogger())

	ref, err := p.Publish(context.Background(), testBatch())

	require.NoError(t, err)
	assert.Equal(t, "https://open.spotify.com/playlist/new", ref)
	assert.Equal(t, "chart_2023-10-10", creator.name)
	assert.Equal(t, []string{"ta", "tc"}, creator.tracks)
	assert.Equal(t, []string{"chart_2023-10-10"}, store.saved)
	assert.FileExists(t, filepath.Join(dir, "chart_2023-10-10.csv"))
}

func TestPublishFallsBackToCSVPath(t *testing.T) {
	dir := t.TempDir()
	creator := &fakePlaylistCreator{err: errors.New("401")}
	p := NewPublisher(dir, nil, fakeIDs{"a": "ta"}, creator, nil, newTestLogger())

	ref, err := p.Publish(context.Background(), testBatch())

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "chart_2023-10-10.csv"), ref)

	p = NewPublisher(dir, nil, nil, nil, nil, newTestLogger())
	ref, err = p.Publish(context.Background(), testBatch())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "chart_2023-10-10.csv"), ref)
}

func TestWriteDrops(t *testing.T) {
	dir := t.TempDir()
	p := NewPublisher(dir, nil, nil, nil, nil, newTestLogger())

	path, err := p.WriteDrops(refDay, nil)
	require.NoError(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no drops means no file")

	path, err = p.WriteDrops(refDay, []models.Drop{{SongUUID: "a", Filter: FilterSeen}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "drops_2023-10-10.csv"), path)
	assert.FileExists(t, path)
}
