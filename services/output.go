package services

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"song-scraper/models"
	"song-scraper/storage"
	"song-scraper/utils"
)

// BatchLabel names a batch "<scrape>_<YYYY-MM-DD>".
func BatchLabel(scrape string, date time.Time) string {
	return scrape + "_" + date.Format(time.DateOnly)
}

// BatchSaver records a published batch so later runs treat its songs as seen.
type BatchSaver interface {
	SaveBatch(ctx context.Context, batch models.QualifiedBatch) error
}

// IdentifierSource maps a catalogue song uuid to a streaming-service track id.
type IdentifierSource interface {
	SpotifyID(ctx context.Context, songUUID string) (string, error)
}

// PlaylistCreator creates a playlist from track ids and returns its URL.
type PlaylistCreator interface {
	CreatePlaylist(ctx context.Context, name string, trackIDs []string) (string, error)
}

// Publisher writes a batch to CSV, records it in the store and, when a
// playlist creator is configured, builds a streaming playlist from it.
type Publisher struct {
	folder    string
	store     BatchSaver
	ids       IdentifierSource
	playlists PlaylistCreator
	pool      *utils.WorkerPool
	logger    *utils.Logger
}

// NewPublisher wires a Publisher. ids and playlists may both be nil to skip
// playlist creation.
func NewPublisher(folder string, store BatchSaver, ids IdentifierSource, playlists PlaylistCreator, pool *utils.WorkerPool, logger *utils.Logger) *Publisher {
	if pool == nil {
		pool = utils.NewWorkerPool(10, 0)
	}
	return &Publisher{folder: folder, store: store, ids: ids, playlists: playlists, pool: pool, logger: logger}
}

// Publish implements OutputSink. It returns the playlist URL, or the CSV
// path when no playlist was created.
func (p *Publisher) Publish(ctx context.Context, batch models.QualifiedBatch) (string, error) {
	path := filepath.Join(p.folder, batch.Label+".csv")
	if err := storage.WriteFeatureCSV(path, batch.Rows); err != nil {
		return "", fmt.Errorf("publish %s: %w", batch.Label, err)
	}
	p.logger.Info("[output] %d rows saved as %s", len(batch.Rows), path)

	if p.store != nil {
		if err := p.store.SaveBatch(ctx, batch); err != nil {
			return "", fmt.Errorf("publish %s: %w", batch.Label, err)
		}
	}

	if p.ids == nil || p.playlists == nil {
		return path, nil
	}
	url, err := p.createPlaylist(ctx, batch)
	if err != nil {
		p.logger.Error("[output] Playlist for %s not created: %v", batch.Label, err)
		return path, nil
	}
	p.logger.Info("[output] Playlist for %s: %s", batch.Label, url)
	return url, nil
}

func (p *Publisher) createPlaylist(ctx context.Context, batch models.QualifiedBatch) (string, error) {
	found := utils.NewResultMap[int, string]()
	for i, r := range batch.Rows {
		i, id := i, r.SongUUID
		p.pool.Submit(func() {
			trackID, err := p.ids.SpotifyID(ctx, id)
			if err != nil || trackID == "" {
				p.logger.Debug("[output] No spotify id for %s: %v", id, err)
				return
			}
			found.Set(i, trackID)
		})
	}
	p.pool.Wait()

	ids := found.Snapshot()
	trackIDs := make([]string, 0, len(ids))
	for i := range batch.Rows {
		if id, ok := ids[i]; ok {
			trackIDs = append(trackIDs, id)
		}
	}
	if len(trackIDs) == 0 {
		return "", fmt.Errorf("no spotify ids resolved for %d songs", len(batch.Rows))
	}
	return p.playlists.CreatePlaylist(ctx, batch.Label, trackIDs)
}

// WriteDrops appends drops to <folder>/drops_<date>.csv.
func (p *Publisher) WriteDrops(date time.Time, drops []models.Drop) (string, error) {
	path := filepath.Join(p.folder, "drops_"+date.Format(time.DateOnly)+".csv")
	if len(drops) == 0 {
		return path, nil
	}
	if err := storage.AppendDropsCSV(path, date, drops); err != nil {
		return "", fmt.Errorf("write drops: %w", err)
	}
	return path, nil
}

// WriteTable writes rows to <folder>/<name>.csv without recording a batch.
func (p *Publisher) WriteTable(name string, rows []models.FeatureRow) (string, error) {
	path := filepath.Join(p.folder, name+".csv")
	if err := storage.WriteFeatureCSV(path, rows); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}
