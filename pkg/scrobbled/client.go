// Package scrobbled provides a client for the earshot scrobble server.
//
// The scrobble server records what each tracked user played and when. It
// also issues a delegated Spotify credential so clients can query the
// Spotify catalog without holding Spotify credentials of their own.
//
// Example usage:
//
//	import "github.com/earshot-fm/earshot/pkg/scrobbled"
//
//	client := scrobbled.NewClient(scrobbled.Config{
//	    BaseURL: "https://scrobble.example.com",
//	})
//
//	records, err := client.Users(ctx, []string{"u1", "u2"})
//	if err != nil {
//	    log.Fatal(err)
//	}
package scrobbled

import (
	"context"
	"net/http"
	"strings"

	"github.com/earshot-fm/earshot/pkg/httpapi"
)

// Config holds client configuration.
type Config struct {
	BaseURL    string         // Required: scrobble server base URL
	HTTPClient *http.Client   // Optional: HTTP client (defaults to http.DefaultClient)
	Logger     httpapi.Logger // Optional: Logger interface for debug logging
}

// Client is a scrobble-server API client. Requests to the scrobble server
// itself are unauthenticated.
type Client struct {
	api *httpapi.Client
}

// NewClient creates a new scrobble-server client.
func NewClient(cfg Config) *Client {
	return &Client{
		api: httpapi.NewClient(httpapi.Config{
			BaseURL:    cfg.BaseURL,
			HTTPClient: cfg.HTTPClient,
			Logger:     cfg.Logger,
		}),
	}
}

// SpotifyToken fetches the delegated Spotify credential.
//
// The returned token is meant for use against the Spotify API, not for
// calling the scrobble server. An empty token in an otherwise successful
// response is valid and means no credential is currently available.
func (c *Client) SpotifyToken(ctx context.Context) (*TokenGrant, error) {
	var grant TokenGrant
	if _, err := c.api.Do(ctx, http.MethodGet, "/spotify-token", nil, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

// Users fetches listening records for the given user ids.
//
// Users the server does not know are simply absent from the result: a
// shorter (or empty) list is not an error.
func (c *Client) Users(ctx context.Context, userIDs []string) ([]UserScrobbles, error) {
	var records []UserScrobbles
	if _, err := c.api.Do(ctx, http.MethodGet, "/?q="+strings.Join(userIDs, ","), nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}
