package scrobbled

// User is a scrobble-server user profile.
type User struct {
	ID            string  `json:"id"`
	Username      string  `json:"username"`
	Discriminator string  `json:"discriminator"`
	Avatar        *string `json:"avatar"` // nil when the user has no avatar
}

// Scrobble is a single recorded listen.
//
// A nil EndTime means the scrobble is still active: the user is currently
// playing this track. This is a load-bearing null and must survive JSON
// round-trips, never coerced to zero.
type Scrobble struct {
	TrackID   string `json:"id"` // Spotify track id
	StartTime int64  `json:"startTime"`
	EndTime   *int64 `json:"endTime"`
}

// UserScrobbles pairs a user profile with their recorded listens, newest
// first as returned by the server.
type UserScrobbles struct {
	User      User       `json:"user"`
	Scrobbles []Scrobble `json:"scrobbles"`
}

// TokenGrant is a delegated Spotify credential issued by the scrobble
// server for use against the Spotify API.
type TokenGrant struct {
	Token string `json:"token"`
	Type  string `json:"type"`
}

// Active reports whether the scrobble is the user's currently-playing track.
func (s Scrobble) Active() bool {
	return s.EndTime == nil
}
