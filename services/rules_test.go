package services

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"

	"song-scraper/config"
	"song-scraper/models"
)

func song(name string) models.SongMetadata {
	return models.SongMetadata{
		UUID:    "7d5a2b1c-1111-4222-8333-944455556666",
		Name:    sql.NullString{String: name, Valid: name != ""},
		Artists: []models.Artist{{UUID: "a1", Name: "Main Act"}},
		Labels:  []string{"Indie Records"},
	}
}

func TestLanguageRule(t *testing.T) {
	rule := LanguageRule(false)
	tests := []struct {
		name string
		meta models.SongMetadata
		want Outcome
	}{
		{"ascii", song("Hello, World! 123"), Keep},
		{"accent", song("café"), Reject},
		{"cyrillic", song("привет"), Reject},
		{"kana", song("なに"), Reject},
		{"missing name", song(""), Reject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rule.Evaluate(tt.meta).Outcome)
		})
	}
}

func TestLanguageRuleWaivesInstrumentals(t *testing.T) {
	meta := song("なに")
	meta.Instrumentalness = sql.NullFloat64{Float64: 0.9, Valid: true}

	assert.Equal(t, Keep, LanguageRule(true).Evaluate(meta).Outcome)
	assert.Equal(t, Reject, LanguageRule(false).Evaluate(meta).Outcome)
}

type countingRule struct {
	name  string
	out   Outcome
	calls int
}

func (r *countingRule) Name() string { return r.name }
func (r *countingRule) Evaluate(models.SongMetadata) Verdict {
	r.calls++
	return Verdict{Outcome: r.out}
}

func TestRuleChainShortCircuits(t *testing.T) {
	first := &countingRule{name: "first", out: Keep}
	second := &countingRule{name: "second", out: Reject}
	third := &countingRule{name: "third", out: Keep}

	chain := NewRuleChain(first, second, third)
	v, fired := chain.Evaluate(song("x"))

	assert.Equal(t, Reject, v.Outcome)
	assert.Equal(t, "second", fired)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Zero(t, third.calls, "rules after the first rejection must not run")
	assert.Equal(t, []string{"first", "second", "third"}, chain.Names())
}

func testInputs() *config.Inputs {
	return &config.Inputs{
		LabelWatchlist:    []string{"  Big Label "},
		LabelBlocklist:    []string{"banned music"},
		ArtistBlocklist:   []string{"Karaoke"},
		SongBlocklistURL:  []string{"https://app.soundcharts.com/app/song/0a0a0a0a-1111-4222-8333-944455556666/overview"},
		MaxArtistsOnTrack: 2,
	}
}

func TestDefaultRuleChain(t *testing.T) {
	chain := NewDefaultRuleChain(testInputs())
	assert.Equal(t, []string{RuleWatchlistLabel, RuleSongBlocklist, RuleMaxArtists, RuleBannedLabel, RuleBannedArtist, RuleLanguage}, chain.Names())

	watched := song("Tune")
	watched.Labels = []string{"BIG LABEL"}

	blocked := song("Tune")
	blocked.UUID = "0a0a0a0a-1111-4222-8333-944455556666"

	crowded := song("Tune")
	crowded.Artists = []models.Artist{{Name: "A"}, {Name: "B"}, {Name: "C"}}

	banned := song("Tune")
	banned.Labels = []string{" Banned Music"}

	karaoke := song("Tune")
	karaoke.Artists = []models.Artist{{Name: "The Karaoke Crew"}}

	lowerKaraoke := song("Tune")
	lowerKaraoke.Artists = []models.Artist{{Name: "karaoke kids"}}

	tests := []struct {
		name      string
		meta      models.SongMetadata
		want      Outcome
		wantFired string
	}{
		{"passes", song("Tune"), Keep, ""},
		{"watchlist label", watched, RejectToWatchlist, RuleWatchlistLabel},
		{"blocklisted song", blocked, Reject, RuleSongBlocklist},
		{"too many artists", crowded, Reject, RuleMaxArtists},
		{"banned label", banned, Reject, RuleBannedLabel},
		{"banned artist", karaoke, Reject, RuleBannedArtist},
		{"artist match is case sensitive", lowerKaraoke, Keep, ""},
		{"non-ascii name", song("Canción"), Reject, RuleLanguage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, fired := chain.Evaluate(tt.meta)
			assert.Equal(t, tt.want, v.Outcome, v.Reason)
			assert.Equal(t, tt.wantFired, fired)
		})
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "reject_to_watchlist", RejectToWatchlist.String())
	assert.Equal(t, "outcome(9)", Outcome(9).String())
}
