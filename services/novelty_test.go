package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"song-scraper/models"
)

var (
	oct9  = time.Date(2023, 10, 9, 0, 0, 0, 0, time.UTC)
	oct10 = time.Date(2023, 10, 10, 0, 0, 0, 0, time.UTC)
)

func tracks(date time.Time, ids ...string) []models.PlaylistTrack {
	out := make([]models.PlaylistTrack, len(ids))
	for i, id := range ids {
		out[i] = models.PlaylistTrack{SongUUID: id, CrawlDate: date}
	}
	return out
}

func uuids(ts []models.PlaylistTrack) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.SongUUID
	}
	return out
}

func TestSongsAddedInLastDay(t *testing.T) {
	today := models.PlaylistSnapshot{CrawlDate: oct10, Tracks: tracks(time.Time{}, "1", "2", "3")}
	yesterday := models.PlaylistSnapshot{CrawlDate: oct9, Tracks: tracks(time.Time{}, "1", "2")}

	added := SongsAddedInLastDay(today, yesterday)

	assert.Equal(t, []string{"3"}, uuids(added))
	assert.Equal(t, oct10, added[0].DateAdded)
}

func TestAssignDateAddedEarliestWins(t *testing.T) {
	in := append(tracks(oct10.Add(15*time.Hour), "1"), tracks(oct9.Add(3*time.Hour), "1")...)

	out := AssignDateAdded(in)

	require.Len(t, out, 2)
	for _, tr := range out {
		assert.Equal(t, oct9, tr.DateAdded)
	}
	assert.Equal(t, oct10.Add(15*time.Hour), in[0].CrawlDate, "input must not be modified")
}

func TestSongsAddedInRange(t *testing.T) {
	oct11 := oct10.AddDate(0, 0, 1)
	var all []models.PlaylistTrack
	all = append(all, tracks(oct9, "old", "a")...)
	all = append(all, tracks(oct10, "old", "a", "b")...)
	all = append(all, tracks(oct11, "old", "b", "c")...)

	got := SongsAddedInRange(all)

	assert.Equal(t, []string{"b", "c"}, uuids(got))
	assert.Equal(t, oct11, got[0].CrawlDate, "latest crawl of each song is kept")
	assert.Equal(t, oct10, got[0].DateAdded)
	assert.Nil(t, SongsAddedInRange(nil))
}

func TestDropSeen(t *testing.T) {
	rows := []models.FeatureRow{candidate("a", 1), candidate("b", 2), candidate("c", 3)}
	seen := map[string]struct{}{"b": {}, "zzz": {}}

	kept, drops := DropSeen(rows, seen)

	assert.Equal(t, []models.FeatureRow{rows[0], rows[2]}, kept)
	require.Len(t, drops, 1)
	assert.Equal(t, "b", drops[0].SongUUID)
	assert.Equal(t, FilterSeen, drops[0].Filter)
}
