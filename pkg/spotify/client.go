// Package spotify provides a read-only client for the Spotify catalog API.
//
// The client never holds Spotify credentials of its own. At construction it
// asks the scrobble server for a delegated credential and installs it once
// the fetch completes; until then requests go out unauthenticated. Callers
// that need authenticated calls should wait on Ready before issuing them.
//
// Example usage:
//
//	import "github.com/earshot-fm/earshot/pkg/spotify"
//
//	client := spotify.NewClient(spotify.Config{
//	    BaseURL: "https://api.spotify.com/v1",
//	}, scrobbleClient)
//
//	<-client.Ready()
//	track, err := client.Track(ctx, "4uLU6hMCjMI75M1A2tKUQC")
package spotify

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/earshot-fm/earshot/pkg/httpapi"
	"github.com/earshot-fm/earshot/pkg/scrobbled"
)

// TokenSource supplies a delegated Spotify credential. It is implemented by
// *scrobbled.Client.
type TokenSource interface {
	SpotifyToken(ctx context.Context) (*scrobbled.TokenGrant, error)
}

// Config holds client configuration.
type Config struct {
	BaseURL    string          // Required: Spotify API base URL
	HTTPClient *http.Client    // Optional: HTTP client (defaults to http.DefaultClient)
	Logger     *zerolog.Logger // Optional: logger for bootstrap diagnostics
}

// Client is a Spotify catalog API client.
type Client struct {
	api    *httpapi.Client
	logger zerolog.Logger
	ready  chan struct{}
}

// NewClient creates a new catalog client and starts the credential bootstrap
// in the background.
//
// The bootstrap asks tokens for a delegated credential. On success the
// credential is installed on the underlying transport; on failure, or when
// the server returns an empty token, the failure is logged and the client
// stays unauthenticated. Construction never fails or blocks on the
// bootstrap, and there is no in-session retry: requests issued while
// unauthenticated are sent without an Authorization header and will be
// rejected upstream.
func NewClient(cfg Config, tokens TokenSource) *Client {
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "spotify").Logger()
	}

	c := &Client{
		api: httpapi.NewClient(httpapi.Config{
			BaseURL:    cfg.BaseURL,
			HTTPClient: cfg.HTTPClient,
		}),
		logger: logger,
		ready:  make(chan struct{}),
	}

	go c.bootstrap(tokens)

	return c
}

// bootstrap fetches and installs the delegated credential, then closes the
// ready channel whatever the outcome.
func (c *Client) bootstrap(tokens TokenSource) {
	defer close(c.ready)

	grant, err := tokens.SpotifyToken(context.Background())
	if err != nil {
		c.logger.Error().Err(err).Msg("Could not get Spotify token")
		return
	}
	if grant.Token == "" {
		c.logger.Error().Msg("Could not get Spotify token: token is empty")
		return
	}

	c.api.SetCredential(grant.Token, grant.Type)
	c.logger.Debug().Msg("Spotify credential installed")
}

// Ready returns a channel closed once the credential bootstrap has finished,
// whether it succeeded or definitively failed. After it is closed,
// IsAuthenticated reports the outcome.
func (c *Client) Ready() <-chan struct{} {
	return c.ready
}

// IsAuthenticated reports whether a delegated credential is installed.
func (c *Client) IsAuthenticated() bool {
	return c.api.IsAuthenticated()
}

// Track fetches a single track by id.
func (c *Client) Track(ctx context.Context, id string) (*Track, error) {
	var track Track
	if _, err := c.api.Do(ctx, http.MethodGet, "/tracks/"+id, nil, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// Tracks fetches up to 50 tracks in one request. The ids are joined by
// comma into a single query parameter.
func (c *Client) Tracks(ctx context.Context, ids []string) (*SeveralTracks, error) {
	var several SeveralTracks
	if _, err := c.api.Do(ctx, http.MethodGet, "/tracks?ids="+strings.Join(ids, ","), nil, &several); err != nil {
		return nil, err
	}
	return &several, nil
}

// Album fetches a single album by id.
func (c *Client) Album(ctx context.Context, id string) (*Album, error) {
	var album Album
	if _, err := c.api.Do(ctx, http.MethodGet, "/albums/"+id, nil, &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// Playlist fetches a playlist by id. query is appended verbatim as the raw
// query string and may be empty.
func (c *Client) Playlist(ctx context.Context, id, query string) (*Playlist, error) {
	var playlist Playlist
	if _, err := c.api.Do(ctx, http.MethodGet, "/playlists/"+id+"?"+query, nil, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}
