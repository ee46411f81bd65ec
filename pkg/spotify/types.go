package spotify

// Image is a cover-image descriptor.
//
// Image lists are typed []*Image because the catalog is permitted to return
// albums with missing cover art, including an explicit null slot in the
// images array. A nil element preserves that hole; callers must tolerate it.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height *int   `json:"height,omitempty"`
}

// ArtistSimple is the abbreviated artist object nested in tracks and albums.
type ArtistSimple struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Href         string            `json:"href,omitempty"`
	URI          string            `json:"uri,omitempty"`
	ExternalURLs map[string]string `json:"external_urls,omitempty"`
}

// AlbumSimple is the abbreviated album object nested in tracks.
type AlbumSimple struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name"`
	AlbumType            string         `json:"album_type,omitempty"`
	Artists              []ArtistSimple `json:"artists,omitempty"`
	Images               []*Image       `json:"images"`
	ReleaseDate          string         `json:"release_date,omitempty"`
	ReleaseDatePrecision string         `json:"release_date_precision,omitempty"`
	Href                 string         `json:"href,omitempty"`
	URI                  string         `json:"uri,omitempty"`
}

// Track is a full catalog track, embedding its album and artists.
type Track struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Album       AlbumSimple    `json:"album"`
	Artists     []ArtistSimple `json:"artists"`
	DurationMS  int            `json:"duration_ms"`
	DiscNumber  int            `json:"disc_number,omitempty"`
	TrackNumber int            `json:"track_number,omitempty"`
	Explicit    bool           `json:"explicit,omitempty"`
	Popularity  int            `json:"popularity,omitempty"`
	PreviewURL  string         `json:"preview_url,omitempty"`
	Href        string         `json:"href,omitempty"`
	URI         string         `json:"uri,omitempty"`
}

// SeveralTracks is the envelope returned by the batch track endpoint.
type SeveralTracks struct {
	Tracks []Track `json:"tracks"`
}

// Paging is the catalog's offset-based pagination envelope.
type Paging[T any] struct {
	Href     string `json:"href"`
	Items    []T    `json:"items"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
	Total    int    `json:"total"`
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
}

// Album is a full catalog album.
type Album struct {
	AlbumSimple
	Genres     []string      `json:"genres,omitempty"`
	Label      string        `json:"label,omitempty"`
	Popularity int           `json:"popularity,omitempty"`
	Tracks     Paging[Track] `json:"tracks"`
}

// PublicUser is the public profile of a playlist owner.
type PublicUser struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Href        string   `json:"href,omitempty"`
	URI         string   `json:"uri,omitempty"`
	Images      []*Image `json:"images,omitempty"`
}

// PlaylistTrack is a playlist entry wrapping a track.
type PlaylistTrack struct {
	AddedAt string     `json:"added_at,omitempty"`
	AddedBy PublicUser `json:"added_by"`
	IsLocal bool       `json:"is_local"`
	Track   Track      `json:"track"`
}

// Playlist is a full catalog playlist.
type Playlist struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	Description   string                `json:"description,omitempty"`
	Collaborative bool                  `json:"collaborative"`
	Public        *bool                 `json:"public,omitempty"`
	SnapshotID    string                `json:"snapshot_id"`
	Owner         PublicUser            `json:"owner"`
	Images        []*Image              `json:"images"`
	Tracks        Paging[PlaylistTrack] `json:"tracks"`
	Href          string                `json:"href,omitempty"`
	URI           string                `json:"uri,omitempty"`
}
