package services

import (
	"fmt"
	"strings"

	"song-scraper/config"
	"song-scraper/models"
	"song-scraper/utils"
)

// Outcome is the decision a Rule makes about one song.
type Outcome int

const (
	Keep Outcome = iota
	Reject
	RejectToWatchlist
)

func (o Outcome) String() string {
	switch o {
	case Keep:
		return "keep"
	case Reject:
		return "reject"
	case RejectToWatchlist:
		return "reject_to_watchlist"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Verdict is a rule's decision plus a human-readable reason.
type Verdict struct {
	Outcome Outcome
	Reason  string
}

var keep = Verdict{Outcome: Keep}

// Rule is one named predicate in the qualification chain.
type Rule interface {
	Name() string
	Evaluate(meta models.SongMetadata) Verdict
}

// Rule names, also used as the filter column in drop reports.
const (
	RuleWatchlistLabel = "watchlist_label"
	RuleSongBlocklist  = "song_blocklist"
	RuleMaxArtists     = "max_artists"
	RuleBannedLabel    = "banned_label"
	RuleBannedArtist   = "banned_artist"
	RuleLanguage       = "language"
)

type ruleFunc struct {
	name string
	eval func(models.SongMetadata) Verdict
}

func (r ruleFunc) Name() string                               { return r.name }
func (r ruleFunc) Evaluate(meta models.SongMetadata) Verdict { return r.eval(meta) }

// RuleChain evaluates rules in order and stops at the first one that does
// not keep the song.
type RuleChain struct {
	rules []Rule
}

// NewRuleChain builds a chain from rules in evaluation order.
func NewRuleChain(rules ...Rule) *RuleChain {
	return &RuleChain{rules: rules}
}

// NewDefaultRuleChain builds the standard six-rule chain from inputs.
func NewDefaultRuleChain(in *config.Inputs) *RuleChain {
	return NewRuleChain(
		WatchlistLabelRule(in.LabelWatchlist),
		SongBlocklistRule(in.SongBlocklistURL),
		MaxArtistsRule(in.MaxArtistsOnTrack),
		BannedLabelRule(in.LabelBlocklist),
		BannedArtistRule(in.ArtistBlocklist),
		LanguageRule(in.WaiveLanguageCheckInstrumentals),
	)
}

// Evaluate returns the first non-Keep verdict and the name of the rule that
// produced it. A song that passes every rule gets a Keep verdict and an empty
// name.
func (c *RuleChain) Evaluate(meta models.SongMetadata) (Verdict, string) {
	for _, r := range c.rules {
		if v := r.Evaluate(meta); v.Outcome != Keep {
			return v, r.Name()
		}
	}
	return keep, ""
}

// Names lists the rules in evaluation order.
func (c *RuleChain) Names() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.Name()
	}
	return names
}

// WatchlistLabelRule diverts songs signed to a watched label to the
// watchlist instead of the main pipeline.
func WatchlistLabelRule(labels []string) Rule {
	watched := labelSet(labels)
	return ruleFunc{name: RuleWatchlistLabel, eval: func(meta models.SongMetadata) Verdict {
		if l, ok := matchLabel(meta.Labels, watched); ok {
			return Verdict{Outcome: RejectToWatchlist, Reason: "signed to watchlist label " + l}
		}
		return keep
	}}
}

// SongBlocklistRule rejects specific songs, given by their app URLs.
func SongBlocklistRule(urls []string) Rule {
	blocked := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if id := utils.UUIDFromURL(u); id != "" {
			blocked[id] = struct{}{}
		}
	}
	return ruleFunc{name: RuleSongBlocklist, eval: func(meta models.SongMetadata) Verdict {
		if _, ok := blocked[meta.UUID]; ok {
			return Verdict{Outcome: Reject, Reason: "song is blocklisted"}
		}
		return keep
	}}
}

// MaxArtistsRule rejects songs crediting more than max artists.
func MaxArtistsRule(max int) Rule {
	return ruleFunc{name: RuleMaxArtists, eval: func(meta models.SongMetadata) Verdict {
		if n := len(meta.Artists); n > max {
			return Verdict{Outcome: Reject, Reason: fmt.Sprintf("%d artists, max %d", n, max)}
		}
		return keep
	}}
}

// BannedLabelRule rejects songs signed to a banned label.
func BannedLabelRule(labels []string) Rule {
	banned := labelSet(labels)
	return ruleFunc{name: RuleBannedLabel, eval: func(meta models.SongMetadata) Verdict {
		if l, ok := matchLabel(meta.Labels, banned); ok {
			return Verdict{Outcome: Reject, Reason: "signed to banned label " + l}
		}
		return keep
	}}
}

// BannedArtistRule rejects songs whose main artist name contains a blocked
// token. Matching is case-sensitive.
func BannedArtistRule(tokens []string) Rule {
	return ruleFunc{name: RuleBannedArtist, eval: func(meta models.SongMetadata) Verdict {
		main := meta.MainArtist().Name
		for _, tok := range tokens {
			if tok != "" && strings.Contains(main, tok) {
				return Verdict{Outcome: Reject, Reason: fmt.Sprintf("main artist %q matches %q", main, tok)}
			}
		}
		return keep
	}}
}

// LanguageRule keeps songs whose name is plain printable ASCII. With
// waiveInstrumentals set, instrumental tracks skip the check.
func LanguageRule(waiveInstrumentals bool) Rule {
	return ruleFunc{name: RuleLanguage, eval: func(meta models.SongMetadata) Verdict {
		if waiveInstrumentals && IsInstrumental(meta) {
			return keep
		}
		if !meta.Name.Valid {
			return Verdict{Outcome: Reject, Reason: "song has no name"}
		}
		if !IsPlainASCII(meta.Name.String) {
			return Verdict{Outcome: Reject, Reason: fmt.Sprintf("name %q is not plain ASCII", meta.Name.String)}
		}
		return keep
	}}
}

// IsPlainASCII reports whether s holds only ASCII letters, digits,
// punctuation and whitespace.
func IsPlainASCII(s string) bool {
	for _, r := range s {
		switch {
		case r >= 0x20 && r <= 0x7e:
		case r == '\t', r == '\n', r == '\r', r == '\v', r == '\f':
		default:
			return false
		}
	}
	return true
}

// IsInstrumental reports an instrumentalness score of at least 0.5.
func IsInstrumental(meta models.SongMetadata) bool {
	return meta.Instrumentalness.Valid && meta.Instrumentalness.Float64 >= 0.5
}

func normaliseLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func labelSet(labels []string) map[string]struct{} {
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if n := normaliseLabel(l); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

func matchLabel(labels []string, set map[string]struct{}) (string, bool) {
	for _, l := range labels {
		if _, ok := set[normaliseLabel(l)]; ok {
			return l, true
		}
	}
	return "", false
}
