package store

import (
	"github.com/earshot-fm/earshot/pkg/scrobbled"
	"github.com/earshot-fm/earshot/pkg/spotify"
)

// Track is a normalized track row. The album and artists are held by
// reference only; ingestion guarantees the referenced rows exist by the time
// the track is visible.
type Track struct {
	ID       string   `json:"id"`
	AlbumID  string   `json:"album"`
	Artists  []string `json:"artists"`
	Name     string   `json:"name"`
	Duration int      `json:"duration"` // milliseconds
}

// Album is a normalized album row. Images are copied verbatim from the
// catalog, nil slots included: an album without usable cover art is valid.
type Album struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Images []*spotify.Image `json:"images"`
}

// Artist is a normalized artist row.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserUpdate is a partial update to a cached user record. Nil fields are
// left untouched, so a refreshed scrobble list can be pushed without
// re-sending the profile.
type UserUpdate struct {
	Profile   *scrobbled.User
	Scrobbles []scrobbled.Scrobble
}
