package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validInputs = `
label_watchlist: ["Sony Music"]
label_blocklist: ["Warner", 1234]
artist_blocklist: ["Bad Bunny", "  "]
song_blocklist_urls:
  - https://app.soundcharts.com/app/song/7d534228-5165-11e9-9375-549f35161576/overview
playlist_urls: []
charts:
  - platform: spotify
    genre: pop
    country: united-states
  - platform: spotify
    genre: all-genres
    country: ""
max_artists_on_track: 3
max_spotify_followers: 50000
max_streams: 2000000
max_tiktok_followers: 100000
minimum_spotify_followers_if_100k_monthly_listeners: 5000
minimum_average_streams_if_above_0: 1000
x_percent_of_streams_are_from_one_day_in_last_14_days: 40
ranking:
  period: week
  min_total_streams: 1000
  max_total_streams: 100000
  min_change_in_total_streams_over_period: 0
  max_change_in_total_streams_over_period: 50000
  pages_to_collect: 2
`

func TestParseInputsValid(t *testing.T) {
	in, err := ParseInputs([]byte(validInputs))
	require.NoError(t, err)

	assert.Equal(t, []string{"Warner", "1234"}, in.LabelBlocklist)
	assert.Equal(t, []string{"Bad Bunny"}, in.ArtistBlocklist)
	assert.Equal(t, 3, in.MaxArtistsOnTrack)
	assert.Equal(t, 40.0, in.MaxPercentOfStreamsOnOneDay)
	assert.False(t, in.WaiveLanguageCheckInstrumentals)
	assert.Equal(t, []ChartTarget{{Platform: "spotify", Genre: "pop", CountryCode: "US"}}, in.ChartTargets)
	assert.Equal(t, "week", in.Ranking.Period)
	assert.Equal(t, "percent", in.Ranking.SortBy)
	assert.Equal(t, 2, in.Ranking.PagesToCollect)
}

func TestParseInputsMissingThreshold(t *testing.T) {
	_, err := ParseInputs([]byte(`max_artists_on_track: 3`))
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, err.Error(), "max_streams")
}

func TestParseInputsWrongType(t *testing.T) {
	_, err := ParseInputs([]byte("max_artists_on_track: three\n"))
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "inputs", cfgErr.Field)
}

func TestParseInputsUnknownCountry(t *testing.T) {
	doc := `
charts:
  - platform: spotify
    genre: pop
    country: atlantis
max_artists_on_track: 3
max_spotify_followers: 1
max_streams: 1
max_tiktok_followers: 1
minimum_spotify_followers_if_100k_monthly_listeners: 1
minimum_average_streams_if_above_0: 1
x_percent_of_streams_are_from_one_day_in_last_14_days: 1
`
	_, err := ParseInputs([]byte(doc))
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "charts.country", cfgErr.Field)
}

func TestExpandAllCountries(t *testing.T) {
	targets, err := expandChartTargets([]rawChart{{Platform: "spotify", Genre: "pop", Country: "all-countries"}})
	require.NoError(t, err)
	assert.Len(t, targets, len(AllCountryCodes()))

	seen := map[string]bool{}
	for _, tg := range targets {
		assert.False(t, seen[tg.CountryCode], "duplicate code %s", tg.CountryCode)
		seen[tg.CountryCode] = true
	}
	assert.True(t, seen["CZ"])
}

func TestCountryName(t *testing.T) {
	assert.Equal(t, "United States", CountryName("US"))
	assert.Equal(t, "Czech Republic", CountryName("CZ"))
	assert.Equal(t, "XX", CountryName("XX"))
}

func TestLoadInputsMissingFile(t *testing.T) {
	_, err := LoadInputs(filepath.Join(t.TempDir(), "nope.yaml"))
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestConfigValidate(t *testing.T) {
	c := &Config{StorageDriver: "sqlite3"}
	var cfgErr *ConfigurationError
	require.True(t, errors.As(c.Validate(), &cfgErr))
	assert.Contains(t, cfgErr.Field, "SOUNDCHARTS_APP_ID")

	c = &Config{StorageDriver: "mysql", APIAppID: "id", APIKey: "key"}
	require.True(t, errors.As(c.Validate(), &cfgErr))
	assert.Equal(t, "STORAGE_DRIVER", cfgErr.Field)

	c = &Config{StorageDriver: "postgres", APIAppID: "id", APIKey: "key"}
	assert.NoError(t, c.Validate())
}
