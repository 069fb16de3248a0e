// Package spotify creates playlists on the streaming service for published
// batches.
package spotify

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"

	"song-scraper/utils"
)

const (
	defaultBaseURL  = "https://api.spotify.com/v1"
	defaultTokenURL = "https://accounts.spotify.com/api/token"

	// maxTracksPerRequest stays under the API's 100-uri limit.
	maxTracksPerRequest = 90
)

// Options configures a Client. BaseURL and TokenURL default to the public
// endpoints.
type Options struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	UserID       string
	BaseURL      string
	TokenURL     string
}

// Client creates playlists on behalf of one user, refreshing its access
// token as needed.
type Client struct {
	http   *resty.Client
	userID string
	logger *utils.Logger
}

// New builds a Client whose HTTP transport is authorised by a refresh-token
// based oauth2 token source.
func New(ctx context.Context, opts Options, logger *utils.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = defaultTokenURL
	}
	conf := &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  opts.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
	ts := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: opts.RefreshToken})

	hc := resty.NewWithClient(oauth2.NewClient(ctx, ts)).
		SetBaseURL(opts.BaseURL).
		SetHeader("Content-Type", "application/json")

	return &Client{http: hc, userID: opts.UserID, logger: logger}
}

type playlistResponse struct {
	ID           string `json:"id"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

// CreatePlaylist creates a private playlist called name holding trackIDs in
// order and returns its public URL.
func (c *Client) CreatePlaylist(ctx context.Context, name string, trackIDs []string) (string, error) {
	var pl playlistResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"name":        name,
			"public":      false,
			"description": "New songs collected by song-scraper",
		}).
		SetResult(&pl).
		Post("/users/" + c.userID + "/playlists")
	if err != nil {
		return "", fmt.Errorf("spotify: create playlist: %w", err)
	}
	if resp.IsError() || pl.ID == "" {
		return "", fmt.Errorf("spotify: create playlist: status %d: %s", resp.StatusCode(), resp.String())
	}

	for start := 0; start < len(trackIDs); start += maxTracksPerRequest {
		end := min(start+maxTracksPerRequest, len(trackIDs))
		uris := make([]string, 0, end-start)
		for _, id := range trackIDs[start:end] {
			uris = append(uris, "spotify:track:"+id)
		}

		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(map[string]any{"uris": uris}).
			Post("/playlists/" + pl.ID + "/tracks")
		if err != nil {
			return "", fmt.Errorf("spotify: add tracks: %w", err)
		}
		if resp.IsError() {
			return "", fmt.Errorf("spotify: add tracks: status %d: %s", resp.StatusCode(), resp.String())
		}
		c.logger.Debug("[spotify] Added %d tracks to %s", len(uris), name)
	}

	if pl.ExternalURLs.Spotify != "" {
		return pl.ExternalURLs.Spotify, nil
	}
	return "https://open.spotify.com/playlist/" + pl.ID, nil
}
