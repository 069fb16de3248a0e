package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigurationError reports a required setting that is absent or has the
// wrong type. It is fatal at startup.
type ConfigurationError struct {
	Field   string
	Problem string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %s: %v", e.Field, e.Problem, e.Err)
	}
	return fmt.Sprintf("config: %s: %s", e.Field, e.Problem)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ChartTarget is one (platform, genre, country) combination to scrape.
type ChartTarget struct {
	Platform    string
	Genre       string
	CountryCode string
}

// RankingInputs bound the general top-song ranking query.
type RankingInputs struct {
	Period          string
	SortBy          string
	MinTotalStreams int
	MaxTotalStreams int
	MinChange       int
	MaxChange       int
	PagesToCollect  int
}

// Inputs are the operator-maintained filter thresholds and lists.
type Inputs struct {
	LabelWatchlist   []string
	LabelBlocklist   []string
	ArtistBlocklist  []string
	SongBlocklistURL []string
	PlaylistURLs     []string
	ChartTargets     []ChartTarget

	MaxArtistsOnTrack               int
	MaxSpotifyFollowers             float64
	MaxStreams                      float64
	MaxTikTokFollowers              float64
	MinFollowersAt100kListeners     float64
	MinAverageStreamsIfAboveZero    float64
	MaxPercentOfStreamsOnOneDay     float64
	WaiveLanguageCheckInstrumentals bool

	Ranking RankingInputs
}

type rawChart struct {
	Platform string `yaml:"platform"`
	Genre    string `yaml:"genre"`
	Country  string `yaml:"country"`
}

type rawRanking struct {
	Period          *string `yaml:"period"`
	SortBy          *string `yaml:"sort_by"`
	MinTotalStreams *int    `yaml:"min_total_streams"`
	MaxTotalStreams *int    `yaml:"max_total_streams"`
	MinChange       *int    `yaml:"min_change_in_total_streams_over_period"`
	MaxChange       *int    `yaml:"max_change_in_total_streams_over_period"`
	PagesToCollect  *int    `yaml:"pages_to_collect"`
}

type rawInputs struct {
	LabelWatchlist    []string   `yaml:"label_watchlist"`
	LabelBlocklist    []string   `yaml:"label_blocklist"`
	ArtistBlocklist   []string   `yaml:"artist_blocklist"`
	SongBlocklistURLs []string   `yaml:"song_blocklist_urls"`
	PlaylistURLs      []string   `yaml:"playlist_urls"`
	Charts            []rawChart `yaml:"charts"`

	MaxArtistsOnTrack            *int  `yaml:"max_artists_on_track"`
	MaxSpotifyFollowers          *int  `yaml:"max_spotify_followers"`
	MaxStreams                   *int  `yaml:"max_streams"`
	MaxTikTokFollowers           *int  `yaml:"max_tiktok_followers"`
	MinFollowersAt100kListeners  *int  `yaml:"minimum_spotify_followers_if_100k_monthly_listeners"`
	MinAverageStreamsIfAboveZero *int  `yaml:"minimum_average_streams_if_above_0"`
	MaxPercentOnOneDay           *int  `yaml:"x_percent_of_streams_are_from_one_day_in_last_14_days"`
	WaiveInstrumentals           *bool `yaml:"waive_language_check_for_instrumentals"`

	Ranking *rawRanking `yaml:"ranking"`
}

// LoadInputs reads and validates the inputs file at path.
func LoadInputs(path string) (*Inputs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{Field: path, Problem: "cannot read inputs file", Err: err}
	}
	return ParseInputs(data)
}

// ParseInputs decodes and validates an inputs document.
func ParseInputs(data []byte) (*Inputs, error) {
	var raw rawInputs
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, &ConfigurationError{Field: "inputs", Problem: "invalid document", Err: err}
	}

	var errs []error
	required := func(name string, v *int) float64 {
		if v == nil {
			errs = append(errs, &ConfigurationError{Field: name, Problem: "required integer is missing"})
			return 0
		}
		if *v < 0 {
			errs = append(errs, &ConfigurationError{Field: name, Problem: "must not be negative"})
		}
		return float64(*v)
	}

	in := &Inputs{
		LabelWatchlist:   clean(raw.LabelWatchlist),
		LabelBlocklist:   clean(raw.LabelBlocklist),
		ArtistBlocklist:  clean(raw.ArtistBlocklist),
		SongBlocklistURL: clean(raw.SongBlocklistURLs),
		PlaylistURLs:     clean(raw.PlaylistURLs),

		MaxArtistsOnTrack:            int(required("max_artists_on_track", raw.MaxArtistsOnTrack)),
		MaxSpotifyFollowers:          required("max_spotify_followers", raw.MaxSpotifyFollowers),
		MaxStreams:                   required("max_streams", raw.MaxStreams),
		MaxTikTokFollowers:           required("max_tiktok_followers", raw.MaxTikTokFollowers),
		MinFollowersAt100kListeners:  required("minimum_spotify_followers_if_100k_monthly_listeners", raw.MinFollowersAt100kListeners),
		MinAverageStreamsIfAboveZero: required("minimum_average_streams_if_above_0", raw.MinAverageStreamsIfAboveZero),
		MaxPercentOfStreamsOnOneDay:  required("x_percent_of_streams_are_from_one_day_in_last_14_days", raw.MaxPercentOnOneDay),
	}
	if raw.WaiveInstrumentals != nil {
		in.WaiveLanguageCheckInstrumentals = *raw.WaiveInstrumentals
	}
	if in.MaxPercentOfStreamsOnOneDay > 100 {
		errs = append(errs, &ConfigurationError{Field: "x_percent_of_streams_are_from_one_day_in_last_14_days", Problem: "must be a percentage between 0 and 100"})
	}

	targets, err := expandChartTargets(raw.Charts)
	if err != nil {
		errs = append(errs, err)
	}
	in.ChartTargets = targets

	if raw.Ranking != nil {
		r := raw.Ranking
		in.Ranking = RankingInputs{
			MinTotalStreams: int(required("ranking.min_total_streams", r.MinTotalStreams)),
			MaxTotalStreams: int(required("ranking.max_total_streams", r.MaxTotalStreams)),
			MinChange:       int(required("ranking.min_change_in_total_streams_over_period", r.MinChange)),
			MaxChange:       int(required("ranking.max_change_in_total_streams_over_period", r.MaxChange)),
			PagesToCollect:  int(required("ranking.pages_to_collect", r.PagesToCollect)),
		}
		if r.Period == nil || *r.Period == "" {
			errs = append(errs, &ConfigurationError{Field: "ranking.period", Problem: "required string is missing"})
		} else {
			in.Ranking.Period = *r.Period
		}
		in.Ranking.SortBy = "percent"
		if r.SortBy != nil && *r.SortBy != "" {
			in.Ranking.SortBy = *r.SortBy
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return in, nil
}

// expandChartTargets resolves country names such as "united-states" or
// "all-countries" into per-country chart targets.
func expandChartTargets(charts []rawChart) ([]ChartTarget, error) {
	var targets []ChartTarget
	for _, c := range charts {
		if c.Platform == "" || c.Genre == "" || c.Country == "" {
			continue
		}
		name := formatCountryName(c.Country)
		if name == "All Countries" {
			for _, code := range AllCountryCodes() {
				targets = append(targets, ChartTarget{Platform: c.Platform, Genre: c.Genre, CountryCode: code})
			}
			continue
		}
		code, ok := CountryCodes[name]
		if !ok {
			return nil, &ConfigurationError{Field: "charts.country", Problem: "unknown country " + fmt.Sprintf("%q", c.Country)}
		}
		targets = append(targets, ChartTarget{Platform: c.Platform, Genre: c.Genre, CountryCode: code})
	}
	return targets, nil
}

// AllCountryCodes returns every known country code in a stable order.
func AllCountryCodes() []string {
	seen := make(map[string]struct{}, len(CountryCodes))
	codes := make([]string, 0, len(CountryCodes))
	for _, code := range CountryCodes {
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func formatCountryName(s string) string {
	parts := strings.Split(strings.TrimSpace(s), "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + strings.ToLower(p[1:])
	}
	return strings.Join(parts, " ")
}

func clean(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
