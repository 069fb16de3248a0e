package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"song-scraper/models"
	"song-scraper/utils"
)

// PlaylistScraper finds songs newly added to watched playlists.
type PlaylistScraper struct {
	source    PlaylistSource
	qualifier *Qualifier
	pool      *utils.WorkerPool
	logger    *utils.Logger
	now       func() time.Time
}

// NewPlaylistScraper wires a PlaylistScraper.
func NewPlaylistScraper(source PlaylistSource, qualifier *Qualifier, pool *utils.WorkerPool, logger *utils.Logger) *PlaylistScraper {
	return &PlaylistScraper{source: source, qualifier: qualifier, pool: pool, logger: logger, now: time.Now}
}

// Scrape returns candidate rows for songs added to each playlist on its
// latest crawl.
func (s *PlaylistScraper) Scrape(ctx context.Context, playlistURLs []string) []models.FeatureRow {
	s.logger.Info("[playlists] Scraping %d playlists", len(playlistURLs))
	var rows []models.FeatureRow
	for i, u := range playlistURLs {
		if ctx.Err() != nil {
			break
		}
		id := utils.UUIDFromURL(u)
		if id == "" {
			s.logger.Warn("[playlists] Cannot find a playlist id in %q", u)
			continue
		}
		tracks, err := s.NewlyAdded(ctx, id)
		if err != nil {
			s.logger.Debug("[playlists] %v", err)
			continue
		}
		rows = append(rows, s.enrich(ctx, tracks)...)
		s.logger.Debug("[playlists] Finished %d/%d: %s", i+1, len(playlistURLs), u)
	}
	s.logger.Info("[playlists] Collected %d candidate rows", len(rows))
	return rows
}

// NewlyAdded compares the two most recent tracklistings of a playlist.
func (s *PlaylistScraper) NewlyAdded(ctx context.Context, playlistUUID string) ([]models.PlaylistTrack, error) {
	dates, err := s.source.TracklistingDates(ctx, playlistUUID, s.now())
	if err != nil {
		return nil, fmt.Errorf("playlist %s: tracklisting dates: %w", playlistUUID, err)
	}
	if len(dates) < 2 {
		return nil, fmt.Errorf("playlist %s: need two tracklistings, have %d: %w", playlistUUID, len(dates), ErrMalformedRecord)
	}
	sortDesc(dates)

	today, err := s.source.Tracklist(ctx, playlistUUID, dates[0])
	if err != nil {
		return nil, fmt.Errorf("playlist %s: tracklist %s: %w", playlistUUID, dates[0].Format(time.DateOnly), err)
	}
	yesterday, err := s.source.Tracklist(ctx, playlistUUID, dates[1])
	if err != nil {
		return nil, fmt.Errorf("playlist %s: tracklist %s: %w", playlistUUID, dates[1].Format(time.DateOnly), err)
	}

	added := SongsAddedInLastDay(today, yesterday)
	s.logger.Info("[playlists] Today: %d, yesterday: %d, %d new songs on %s",
		len(today.Tracks), len(yesterday.Tracks), len(added), playlistUUID)
	return added, nil
}

// History returns candidate rows for songs added to each playlist between
// start and end, inclusive of both days.
func (s *PlaylistScraper) History(ctx context.Context, playlistURLs []string, start, end time.Time) []models.FeatureRow {
	from := day(start)
	to := day(end).Add(24*time.Hour - time.Second)
	s.logger.Info("[playlists] History scrape from %s to %s", from.Format(time.DateOnly), to.Format(time.DateOnly))

	var rows []models.FeatureRow
	for _, u := range playlistURLs {
		if ctx.Err() != nil {
			break
		}
		id := utils.UUIDFromURL(u)
		dates, err := s.source.TracklistingDates(ctx, id, s.now())
		if err != nil {
			s.logger.Debug("[playlists] playlist %s: %v", id, err)
			continue
		}

		var tracks []models.PlaylistTrack
		for _, d := range dates {
			if d.Before(from) || d.After(to) {
				continue
			}
			snap, err := s.source.Tracklist(ctx, id, d)
			if err != nil {
				s.logger.Debug("[playlists] playlist %s on %s: %v", id, d.Format(time.DateOnly), err)
				continue
			}
			tracks = append(tracks, withCrawlDate(snap)...)
		}

		rows = append(rows, s.enrich(ctx, SongsAddedInRange(tracks))...)
	}
	return rows
}

// enrich qualifies the tracks in parallel and copies the playlist context
// onto each surviving row.
func (s *PlaylistScraper) enrich(ctx context.Context, tracks []models.PlaylistTrack) []models.FeatureRow {
	if len(tracks) == 0 {
		return nil
	}
	byUUID := make(map[string]models.PlaylistTrack, len(tracks))
	ids := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if _, dup := byUUID[t.SongUUID]; !dup {
			ids = append(ids, t.SongUUID)
		}
		byUUID[t.SongUUID] = t
	}

	rows := s.qualifier.EnrichBatch(ctx, s.pool, ids)
	for i := range rows {
		t, ok := byUUID[rows[i].SongUUID]
		if !ok {
			continue
		}
		rows[i].Playlist = &models.PlaylistContext{
			Name:      t.PlaylistName,
			UUID:      t.PlaylistUUID,
			Platform:  t.PlaylistPlatform,
			CrawlDate: t.CrawlDate,
			DateAdded: t.DateAdded,
		}
	}
	return rows
}

func sortDesc(dates []time.Time) {
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
}
