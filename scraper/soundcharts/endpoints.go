package soundcharts

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"song-scraper/models"
	"song-scraper/services"
)

const audienceChunkDays = 90

type songObject struct {
	UUID        string  `json:"uuid"`
	Name        *string `json:"name"`
	AppURL      string  `json:"appUrl"`
	ReleaseDate *string `json:"releaseDate"`
	Duration    *int64  `json:"duration"`
	Artists     []struct {
		UUID string `json:"uuid"`
		Name string `json:"name"`
	} `json:"artists"`
	Labels []struct {
		Name string `json:"name"`
	} `json:"labels"`
	Genres []struct {
		Root string   `json:"root"`
		Sub  []string `json:"sub"`
	} `json:"genres"`
	Audio *struct {
		Instrumentalness *float64 `json:"instrumentalness"`
	} `json:"audio"`
}

// SongMetadata implements services.MetadataProvider.
func (c *Client) SongMetadata(ctx context.Context, songUUID string) (models.SongMetadata, error) {
	var resp struct {
		Object *songObject `json:"object"`
	}
	if err := c.get(ctx, "/api/v2.25/song/"+songUUID, nil, &resp); err != nil {
		return models.SongMetadata{}, err
	}
	if resp.Object == nil || resp.Object.UUID == "" {
		return models.SongMetadata{}, fmt.Errorf("%w: song %s has no object", services.ErrMalformedRecord, songUUID)
	}
	return toSongMetadata(*resp.Object), nil
}

func toSongMetadata(o songObject) models.SongMetadata {
	m := models.SongMetadata{UUID: o.UUID, AppURL: o.AppURL}
	if o.Name != nil {
		m.Name = sql.NullString{String: *o.Name, Valid: true}
	}
	if o.Duration != nil {
		m.Duration = sql.NullInt64{Int64: *o.Duration, Valid: true}
	}
	if o.ReleaseDate != nil {
		if t, ok := parseDate(*o.ReleaseDate); ok {
			m.ReleaseDate = sql.NullTime{Time: t, Valid: true}
		}
	}
	if o.Audio != nil && o.Audio.Instrumentalness != nil {
		m.Instrumentalness = sql.NullFloat64{Float64: *o.Audio.Instrumentalness, Valid: true}
	}
	for _, a := range o.Artists {
		m.Artists = append(m.Artists, models.Artist{UUID: a.UUID, Name: a.Name})
	}
	for _, l := range o.Labels {
		m.Labels = append(m.Labels, l.Name)
	}
	for _, g := range o.Genres {
		m.Genres = append(m.Genres, models.Genre{Root: g.Root, Sub: g.Sub})
	}
	return m
}

type audienceItem struct {
	Date  string `json:"date"`
	Plots []struct {
		Value *float64 `json:"value"`
	} `json:"plots"`
}

// SongAudience implements services.StreamSeriesProvider. Ranges longer than
// 90 days are fetched in 90-day chunks.
func (c *Client) SongAudience(ctx context.Context, songUUID, platform string, r services.DateRange) (models.StreamSeries, error) {
	path := fmt.Sprintf("/api/v2/song/%s/audience/%s", songUUID, platform)
	if r.Start.IsZero() || r.End.IsZero() {
		var resp listResponse[audienceItem]
		if err := c.get(ctx, path, nil, &resp); err != nil {
			return nil, err
		}
		return toSeries(resp.Items), nil
	}

	var all []audienceItem
	for _, w := range chunkRange(r.Start, r.End, audienceChunkDays) {
		var resp listResponse[audienceItem]
		err := c.get(ctx, path, map[string]string{
			"startDate": w.Start.Format(time.DateOnly),
			"endDate":   w.End.Format(time.DateOnly),
		}, &resp)
		if err != nil {
			c.logger.Debug("[soundcharts] Audience chunk %s..%s for %s: %v",
				w.Start.Format(time.DateOnly), w.End.Format(time.DateOnly), songUUID, err)
			continue
		}
		all = append(all, resp.Items...)
	}
	return toSeries(all), nil
}

// chunkRange splits [start, end] into windows of at most days days, newest
// first.
func chunkRange(start, end time.Time, days int) []services.DateRange {
	var out []services.DateRange
	for e := end; !e.Before(start); {
		s := e.AddDate(0, 0, -(days - 1))
		if s.Before(start) {
			s = start
		}
		out = append(out, services.DateRange{Start: s, End: e})
		e = s.AddDate(0, 0, -1)
	}
	return out
}

// toSeries keeps one point per day and orders the series newest first.
func toSeries(items []audienceItem) models.StreamSeries {
	byDay := make(map[time.Time]float64, len(items))
	for _, it := range items {
		if len(it.Plots) == 0 || it.Plots[0].Value == nil {
			continue
		}
		d, ok := parseDate(it.Date)
		if !ok {
			continue
		}
		byDay[d] = *it.Plots[0].Value
	}
	series := make(models.StreamSeries, 0, len(byDay))
	for d, v := range byDay {
		series = append(series, models.StreamPoint{Date: d, Total: v})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date.After(series[j].Date) })
	return series
}

// ArtistFollowers implements services.ArtistAudienceProvider. It returns the
// most recent follower count, or 0 with an error when none is available.
func (c *Client) ArtistFollowers(ctx context.Context, artistUUID, platform string) (float64, error) {
	var resp listResponse[struct {
		Date          string   `json:"date"`
		FollowerCount *float64 `json:"followerCount"`
	}]
	if err := c.get(ctx, fmt.Sprintf("/api/v2/artist/%s/audience/%s", artistUUID, platform), nil, &resp); err != nil {
		return 0, err
	}

	var best *float64
	var bestDate time.Time
	for _, it := range resp.Items {
		if it.FollowerCount == nil {
			continue
		}
		d, _ := parseDate(it.Date)
		if best == nil || d.After(bestDate) {
			best, bestDate = it.FollowerCount, d
		}
	}
	if best == nil {
		return 0, fmt.Errorf("%w: no %s audience for artist %s", services.ErrNotFound, platform, artistUUID)
	}
	return *best, nil
}

// ArtistRetention implements services.ArtistStatsProvider using the most
// recent retention day.
func (c *Client) ArtistRetention(ctx context.Context, artistUUID string) (models.ArtistStats, error) {
	var resp listResponse[struct {
		Followers      *float64 `json:"followers"`
		Listeners      *float64 `json:"listeners"`
		ConversionRate *float64 `json:"conversionRate"`
	}]
	if err := c.get(ctx, fmt.Sprintf("/api/v2/artist/%s/spotify/retention", artistUUID), nil, &resp); err != nil {
		return models.ArtistStats{}, err
	}
	if len(resp.Items) == 0 {
		return models.ArtistStats{}, fmt.Errorf("%w: no retention data for artist %s", services.ErrNotFound, artistUUID)
	}
	last := resp.Items[len(resp.Items)-1]
	return models.ArtistStats{
		Followers:        nullFloat(last.Followers),
		MonthlyListeners: nullFloat(last.Listeners),
		ConversionRate:   nullFloat(last.ConversionRate),
	}, nil
}

// ChartSlugs implements services.ChartSource.
func (c *Client) ChartSlugs(ctx context.Context, platform, countryCode string) ([]string, error) {
	items, _, err := collect[struct {
		Slug string `json:"slug"`
	}](ctx, c, "/api/v2/chart/song/by-platform/"+platform, map[string]string{
		"countryCode": strings.ToLower(countryCode),
		"offset":      "0",
		"limit":       pageLimit,
	}, 0)
	if err != nil {
		return nil, err
	}
	slugs := make([]string, 0, len(items))
	for _, it := range items {
		slugs = append(slugs, it.Slug)
	}
	return slugs, nil
}

// ChartRanking implements services.ChartSource with the latest ranking of a
// chart.
func (c *Client) ChartRanking(ctx context.Context, slug string) ([]models.ChartEntry, error) {
	items, _, err := collect[struct {
		Song struct {
			UUID string `json:"uuid"`
		} `json:"song"`
		TimeOnChart int     `json:"timeOnChart"`
		Metric      float64 `json:"metric"`
	}](ctx, c, "/api/v2.14/chart/song/"+slug+"/ranking/latest", map[string]string{
		"offset": "0",
		"limit":  pageLimit,
	}, 0)
	if err != nil {
		return nil, err
	}
	entries := make([]models.ChartEntry, 0, len(items))
	for _, it := range items {
		entries = append(entries, models.ChartEntry{SongUUID: it.Song.UUID, TimeOnChart: it.TimeOnChart, Streams: it.Metric})
	}
	return entries, nil
}

const tracklistingPeriods = 5

// TracklistingDates implements services.PlaylistSource. It walks back five
// 89-day windows from end.
func (c *Client) TracklistingDates(ctx context.Context, playlistUUID string, end time.Time) ([]time.Time, error) {
	var dates []time.Time
	for i := 0; i < tracklistingPeriods; i++ {
		var resp listResponse[string]
		err := c.get(ctx, "/api/v2.20/playlist/"+playlistUUID+"/available-tracklistings", map[string]string{
			"offset":  "0",
			"endDate": end.Format(time.DateOnly),
		}, &resp)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Items {
			if t, err := time.Parse(time.RFC3339, raw); err == nil {
				dates = append(dates, t)
			}
		}
		end = end.AddDate(0, 0, -89)
	}
	return dedupeTimes(dates), nil
}

type tracklistRelated struct {
	Playlist struct {
		Name     string `json:"name"`
		UUID     string `json:"uuid"`
		Platform string `json:"platform"`
	} `json:"playlist"`
	Date string `json:"date"`
}

// Tracklist implements services.PlaylistSource. The crawl date comes from
// the response's related date, not the playlist's latest crawl.
func (c *Client) Tracklist(ctx context.Context, playlistUUID string, date time.Time) (models.PlaylistSnapshot, error) {
	items, rawRelated, err := collect[struct {
		Song struct {
			UUID string `json:"uuid"`
			Name string `json:"name"`
		} `json:"song"`
	}](ctx, c, "/api/v2.20/playlist/"+playlistUUID+"/tracks/"+date.UTC().Format(time.RFC3339), map[string]string{
		"offset": "0",
		"limit":  pageLimit,
	}, 0)
	if err != nil {
		return models.PlaylistSnapshot{}, err
	}

	var related tracklistRelated
	if len(rawRelated) > 0 {
		if err := json.Unmarshal(rawRelated, &related); err != nil {
			return models.PlaylistSnapshot{}, fmt.Errorf("%w: playlist %s related: %v", services.ErrMalformedRecord, playlistUUID, err)
		}
	}
	crawl := date
	if t, ok := parseDate(related.Date); ok {
		crawl = t
	}

	snap := models.PlaylistSnapshot{CrawlDate: crawl}
	for _, it := range items {
		snap.Tracks = append(snap.Tracks, models.PlaylistTrack{
			SongUUID:         it.Song.UUID,
			SongName:         it.Song.Name,
			PlaylistName:     related.Playlist.Name,
			PlaylistUUID:     related.Playlist.UUID,
			PlaylistPlatform: related.Playlist.Platform,
			CrawlDate:        crawl,
		})
	}
	return snap, nil
}

func rankingParams(q services.RankingQuery) map[string]string {
	p := map[string]string{
		"sortBy":    q.SortBy,
		"period":    q.Period,
		"minValue":  strconv.Itoa(q.MinValue),
		"maxValue":  strconv.Itoa(q.MaxValue),
		"minChange": strconv.Itoa(q.MinChange),
		"maxChange": strconv.Itoa(q.MaxChange),
	}
	if q.CountryCode != "" {
		p["countryCode"] = q.CountryCode
	}
	return p
}

// RankingUpdatedAt implements services.RankingSource.
func (c *Client) RankingUpdatedAt(ctx context.Context, q services.RankingQuery) (time.Time, error) {
	var resp struct {
		Related struct {
			UpdatedAt string `json:"updatedAt"`
		} `json:"related"`
	}
	if err := c.get(ctx, fmt.Sprintf("/api/v2/top-song/%s/%s", q.Platform, q.Metric), rankingParams(q), &resp); err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, resp.Related.UpdatedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: ranking updatedAt %q", services.ErrMalformedRecord, resp.Related.UpdatedAt)
	}
	return t, nil
}

// TopSongs implements services.RankingSource.
func (c *Client) TopSongs(ctx context.Context, q services.RankingQuery) ([]models.RankingEntry, error) {
	pages := q.Pages
	if pages <= 0 {
		pages = 1
	}
	items, _, err := collect[struct {
		Song struct {
			UUID string `json:"uuid"`
		} `json:"song"`
		Total   float64 `json:"total"`
		Change  float64 `json:"change"`
		Percent float64 `json:"percent"`
	}](ctx, c, fmt.Sprintf("/api/v2/top-song/%s/%s", q.Platform, q.Metric), rankingParams(q), pages)
	if err != nil {
		return nil, err
	}
	out := make([]models.RankingEntry, 0, len(items))
	for _, it := range items {
		out = append(out, models.RankingEntry{SongUUID: it.Song.UUID, Total: it.Total, Change: it.Change, PercentChange: it.Percent})
	}
	return out, nil
}

// SpotifyID implements services.IdentifierSource.
func (c *Client) SpotifyID(ctx context.Context, songUUID string) (string, error) {
	var resp listResponse[struct {
		Identifier string `json:"identifier"`
	}]
	if err := c.get(ctx, "/api/v2/song/"+songUUID+"/identifiers", map[string]string{"platform": "spotify"}, &resp); err != nil {
		return "", err
	}
	if len(resp.Items) == 0 || resp.Items[0].Identifier == "" {
		return "", fmt.Errorf("%w: no spotify identifier for %s", services.ErrNotFound, songUUID)
	}
	return resp.Items[0].Identifier, nil
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}
	if len(s) >= 10 {
		if t, err := time.Parse(time.DateOnly, s[:10]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func dedupeTimes(ts []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(ts))
	out := make([]time.Time, 0, len(ts))
	for _, t := range ts {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
