package services

import (
	"sort"
	"time"

	"song-scraper/models"
)

// DropSeen removes rows whose uuid has been published before. Nothing else
// is touched.
func DropSeen(rows []models.FeatureRow, seen map[string]struct{}) ([]models.FeatureRow, []models.Drop) {
	kept := make([]models.FeatureRow, 0, len(rows))
	var drops []models.Drop
	for _, r := range rows {
		if _, ok := seen[r.SongUUID]; ok {
			drops = append(drops, models.Drop{SongUUID: r.SongUUID, Filter: FilterSeen, Reason: "published in an earlier batch"})
			continue
		}
		kept = append(kept, r)
	}
	return kept, drops
}

// AssignDateAdded truncates crawl dates to the day, sorts tracks by crawl
// date and sets each track's DateAdded to the earliest crawl date its uuid
// appears on. The input slice is not modified.
func AssignDateAdded(tracks []models.PlaylistTrack) []models.PlaylistTrack {
	out := make([]models.PlaylistTrack, len(tracks))
	copy(out, tracks)
	for i := range out {
		out[i].CrawlDate = day(out[i].CrawlDate)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CrawlDate.Before(out[j].CrawlDate)
	})

	earliest := make(map[string]time.Time, len(out))
	for _, t := range out {
		if _, ok := earliest[t.SongUUID]; !ok {
			earliest[t.SongUUID] = t.CrawlDate
		}
	}
	for i := range out {
		out[i].DateAdded = earliest[out[i].SongUUID]
	}
	return out
}

// SongsAddedOnLatestCrawl keeps the tracks that first appeared on the most
// recent crawl date in tracks.
func SongsAddedOnLatestCrawl(tracks []models.PlaylistTrack) []models.PlaylistTrack {
	if len(tracks) == 0 {
		return nil
	}
	dated := AssignDateAdded(tracks)
	latest := dated[len(dated)-1].CrawlDate

	var out []models.PlaylistTrack
	for _, t := range dated {
		if t.DateAdded.Equal(latest) {
			out = append(out, t)
		}
	}
	return out
}

// SongsAddedInLastDay compares two adjacent snapshots and returns the tracks
// that are new in the later one.
func SongsAddedInLastDay(today, yesterday models.PlaylistSnapshot) []models.PlaylistTrack {
	union := make([]models.PlaylistTrack, 0, len(today.Tracks)+len(yesterday.Tracks))
	union = append(union, withCrawlDate(today)...)
	union = append(union, withCrawlDate(yesterday)...)
	return SongsAddedOnLatestCrawl(union)
}

// SongsAddedInRange handles a run of snapshots covering a date range. Songs
// already present on the oldest crawl were added before the range started
// and are dropped. Each remaining uuid is kept once, from its latest crawl.
func SongsAddedInRange(tracks []models.PlaylistTrack) []models.PlaylistTrack {
	if len(tracks) == 0 {
		return nil
	}
	dated := AssignDateAdded(tracks)
	oldest := dated[0].CrawlDate

	last := make(map[string]int)
	var order []string
	for i, t := range dated {
		if t.DateAdded.Equal(oldest) {
			continue
		}
		if _, ok := last[t.SongUUID]; !ok {
			order = append(order, t.SongUUID)
		}
		last[t.SongUUID] = i
	}

	idx := make([]int, 0, len(order))
	for _, id := range order {
		idx = append(idx, last[id])
	}
	sort.Ints(idx)

	out := make([]models.PlaylistTrack, 0, len(idx))
	for _, i := range idx {
		out = append(out, dated[i])
	}
	return out
}

func withCrawlDate(s models.PlaylistSnapshot) []models.PlaylistTrack {
	out := make([]models.PlaylistTrack, len(s.Tracks))
	copy(out, s.Tracks)
	for i := range out {
		if out[i].CrawlDate.IsZero() {
			out[i].CrawlDate = s.CrawlDate
		}
	}
	return out
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
