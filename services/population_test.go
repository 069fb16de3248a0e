package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"song-scraper/models"
	"song-scraper/utils"
)

var testThresholds = PopulationThresholds{
	MaxStreams:                  1_000_000,
	MaxSpotifyFollowers:         500_000,
	MinFollowersAt100kListeners: 5_000,
	MinEarlyAverage:             100,
	MaxTikTokFollowers:          100_000,
}

func newTestFilter(audience ArtistAudienceProvider) *PopulationFilter {
	return NewPopulationFilter(testThresholds, audience, utils.NewWorkerPool(4, 0), nil, newTestLogger())
}

func dropFilters(drops []models.Drop) map[string]string {
	out := make(map[string]string, len(drops))
	for _, d := range drops {
		out[d.SongUUID] = d.Filter
	}
	return out
}

func TestFollowerFloorOnlyAppliesAbove100kListeners(t *testing.T) {
	big := candidate("big", 10)
	big.MainArtistStats.MonthlyListeners = nullF(150_000)
	big.MainArtistStats.Followers = nullF(1_000)

	small := candidate("small", 10)
	small.MainArtistStats.MonthlyListeners = nullF(50_000)
	small.MainArtistStats.Followers = nullF(1_000)

	res := newTestFilter(nil).Filter([]models.FeatureRow{big, small})

	require.Len(t, res.Rows, 1)
	assert.Equal(t, "small", res.Rows[0].SongUUID)
	assert.Equal(t, map[string]string{"big": FilterFollowerFloor}, dropFilters(res.Drops))
}

func TestPopulationFilterStages(t *testing.T) {
	tooMany := candidate("streams", 1)
	tooMany.TotalStreams = 2_000_000

	famous := candidate("famous", 1)
	famous.MainArtistStats.Followers = nullF(900_000)

	slow := candidate("slow", 1)
	slow.Day1To3Average = 40

	viral := candidate("viral", 1)
	viral.TikTokFollowers = nullF(250_000)

	zeroTikTok := candidate("zero", 3)
	zeroTikTok.TikTokFollowers = nullF(0)

	dupe := candidate("dupe", 2)
	dupe.URL = zeroTikTok.URL

	fine := candidate("fine", 5)
	fine.Day1To3Average = 150

	res := newTestFilter(nil).Filter([]models.FeatureRow{tooMany, famous, slow, viral, zeroTikTok, dupe, fine})

	var kept []string
	for _, r := range res.Rows {
		kept = append(kept, r.SongUUID)
	}
	assert.Equal(t, []string{"fine", "zero"}, kept, "survivors sorted by today's streams")
	assert.Equal(t, map[string]string{
		"streams": FilterMaxStreams,
		"famous":  FilterMaxSpotifyFollowers,
		"slow":    FilterMinEarlyAverage,
		"viral":   FilterMaxTikTokFollowers,
		"dupe":    FilterDuplicateURL,
	}, dropFilters(res.Drops))
}

func TestPopulationFilterIdempotent(t *testing.T) {
	rows := []models.FeatureRow{candidate("a", 3), candidate("b", 9), candidate("c", 1)}
	rows[1].TotalStreams = 5_000_000

	f := newTestFilter(nil)
	once := f.Filter(rows)
	twice := f.Filter(once.Rows)

	assert.Equal(t, once.Rows, twice.Rows)
	assert.Empty(t, twice.Drops)
}

func TestAttachTikTokFollowers(t *testing.T) {
	audience := newFakeAudience(map[string]float64{"artist-a": 300_000, "artist-b": 10})
	audience.fail["artist-c"] = true

	a1 := candidate("a", 1)
	a2 := candidate("a2", 1)
	a2.MainArtistUUID = "artist-a"
	b := candidate("b", 1)
	c := candidate("c", 1)
	known := candidate("known", 1)
	known.TikTokFollowers = nullF(7)

	res := newTestFilter(audience).Apply(context.Background(), []models.FeatureRow{a1, a2, b, c, known})

	assert.Equal(t, 1, audience.calls["artist-a"], "one lookup per distinct artist")
	assert.Zero(t, audience.calls["artist-known"], "rows with a count are not looked up again")

	filters := dropFilters(res.Drops)
	assert.Equal(t, FilterMaxTikTokFollowers, filters["a"])
	assert.Equal(t, FilterMaxTikTokFollowers, filters["a2"])
	require.Len(t, res.Rows, 3)
	for _, r := range res.Rows {
		if r.SongUUID == "c" {
			assert.True(t, r.TikTokFollowers.Valid)
			assert.Zero(t, r.TikTokFollowers.Float64, "failed lookup counts as zero")
		}
	}
}
