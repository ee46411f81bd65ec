// Package store implements the normalized entity cache at the heart of
// earshot. Raw catalog tracks arriving from the Spotify client are
// deduplicated into three parallel tables (tracks, artists, albums) keyed by
// id, and every change is mirrored through a best-effort durable store so a
// later run can skip refetching metadata it has already seen.
package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/earshot-fm/earshot/internal/mirror"
	"github.com/earshot-fm/earshot/pkg/scrobbled"
	"github.com/earshot-fm/earshot/pkg/spotify"
)

// Mirror keys for the serialized entity tables.
const (
	keyTracks  = "tracks"
	keyArtists = "artists"
	keyAlbums  = "albums"
)

// Store is the in-memory normalized entity cache.
//
// Entity tables are append-only for the lifetime of the process: a row is
// created once per id and never mutated or evicted afterwards, so re-ingesting
// a known id is a no-op. User records are the exception, merged on each
// update because listening state changes over time.
//
// All mutations of one ingestion happen under a single lock acquisition, so
// a reader never observes a track whose album or artists are missing. Mirror
// writes happen outside the lock; concurrent ingestions can overlap there,
// but each write is a full table snapshot, so the race is last-write-wins
// rather than a partial write.
type Store struct {
	mu      sync.RWMutex
	tracks  map[string]Track
	albums  map[string]Album
	artists map[string]Artist
	users   map[string]scrobbled.UserScrobbles
	now     time.Time

	mirrorEnabled bool
	mirror        mirror.Mirror
	logger        zerolog.Logger
}

// New creates an empty store mirrored through m. A nil m disables mirroring
// from the start.
func New(m mirror.Mirror, logger zerolog.Logger) *Store {
	return &Store{
		tracks:        make(map[string]Track),
		albums:        make(map[string]Album),
		artists:       make(map[string]Artist),
		users:         make(map[string]scrobbled.UserScrobbles),
		now:           time.Now(),
		mirrorEnabled: m != nil,
		mirror:        m,
		logger:        logger.With().Str("component", "store").Logger(),
	}
}

// Load rehydrates the entity tables from the mirror. It should be called
// once, before the store is first used. A missing tracks key means nothing
// was persisted yet and is not an error. Any other failure disables the
// mirror for the session and leaves the tables empty.
func (s *Store) Load(ctx context.Context) error {
	if !s.MirrorEnabled() {
		return nil
	}

	tracks, artists, albums, err := s.readSnapshot(ctx)
	if err != nil {
		s.disableMirror(err, "Disabling mirror: rehydration failed")
		return err
	}
	if tracks == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, track := range tracks {
		s.tracks[id] = track
	}
	for id, artist := range artists {
		s.artists[id] = artist
	}
	for id, album := range albums {
		s.albums[id] = album
	}

	s.logger.Debug().
		Int("tracks", len(tracks)).
		Int("artists", len(artists)).
		Int("albums", len(albums)).
		Msg("Rehydrated entity tables from mirror")
	return nil
}

// readSnapshot decodes all three tables before any of them is committed, so
// a corrupt mirror never leaves the store partially populated.
func (s *Store) readSnapshot(ctx context.Context) (map[string]Track, map[string]Artist, map[string]Album, error) {
	data, ok, err := s.mirror.Get(ctx, keyTracks)
	if err != nil {
		return nil, nil, nil, err
	}
	if !ok {
		return nil, nil, nil, nil
	}

	var tracks map[string]Track
	if err := json.Unmarshal(data, &tracks); err != nil {
		return nil, nil, nil, err
	}

	var artists map[string]Artist
	if data, _, err = s.mirror.Get(ctx, keyArtists); err != nil {
		return nil, nil, nil, err
	} else if err := json.Unmarshal(data, &artists); err != nil {
		return nil, nil, nil, err
	}

	var albums map[string]Album
	if data, _, err = s.mirror.Get(ctx, keyAlbums); err != nil {
		return nil, nil, nil, err
	} else if err := json.Unmarshal(data, &albums); err != nil {
		return nil, nil, nil, err
	}

	return tracks, artists, albums, nil
}

// SaveTracks ingests a batch of raw catalog tracks.
//
// For each track in input order: a track already in the table is skipped
// entirely, nested album and artists included, since a known track is
// assumed to have pulled in its dependencies when it was first seen.
// Otherwise the normalized track row is inserted together with any of its
// artists and its album that are not yet cached. After the whole batch, if
// anything changed and the mirror is still enabled, the full tables are
// serialized and written through.
//
// A mirror failure disables the mirror for the rest of the session and is
// swallowed: ingestion itself has already succeeded in memory.
func (s *Store) SaveTracks(ctx context.Context, tracks []spotify.Track) error {
	s.mu.Lock()

	changes := 0
	for _, track := range tracks {
		if _, ok := s.tracks[track.ID]; ok {
			continue
		}
		changes++

		artistIDs := make([]string, len(track.Artists))
		for i, artist := range track.Artists {
			artistIDs[i] = artist.ID
		}
		s.tracks[track.ID] = Track{
			ID:       track.ID,
			AlbumID:  track.Album.ID,
			Artists:  artistIDs,
			Name:     track.Name,
			Duration: track.DurationMS,
		}

		for _, artist := range track.Artists {
			if _, ok := s.artists[artist.ID]; ok {
				continue
			}
			s.artists[artist.ID] = Artist{
				ID:   artist.ID,
				Name: artist.Name,
			}
		}

		if _, ok := s.albums[track.Album.ID]; !ok {
			s.albums[track.Album.ID] = Album{
				ID:     track.Album.ID,
				Name:   track.Album.Name,
				Images: track.Album.Images,
			}
		}
	}

	if changes == 0 || !s.mirrorEnabled {
		s.mu.Unlock()
		return nil
	}

	// Serialize the snapshot under the lock; write it outside.
	snapshot, err := s.encodeTables()
	s.mu.Unlock()
	if err != nil {
		s.disableMirror(err, "Disabling mirror: failed to serialize entity tables")
		return nil
	}

	// All three tables land in one atomic write: a failure must not leave
	// the mirror holding a new tracks table against stale artist/album
	// tables, or a later rehydration would break referential completeness.
	if err := s.mirror.SetAll(ctx, snapshot); err != nil {
		s.disableMirror(err, "Disabling mirror: write-through failed")
	}

	return nil
}

// encodeTables serializes the three entity tables. Must be called with the
// lock held.
func (s *Store) encodeTables() (map[string][]byte, error) {
	snapshot := make(map[string][]byte, 3)
	for key, table := range map[string]any{
		keyTracks:  s.tracks,
		keyArtists: s.artists,
		keyAlbums:  s.albums,
	} {
		data, err := json.Marshal(table)
		if err != nil {
			return nil, err
		}
		snapshot[key] = data
	}
	return snapshot, nil
}

// disableMirror downgrades the session to memory-only caching.
func (s *Store) disableMirror(err error, msg string) {
	s.mu.Lock()
	already := !s.mirrorEnabled
	s.mirrorEnabled = false
	s.mu.Unlock()

	if !already {
		s.logger.Warn().Err(err).Msg(msg)
	}
}

// UpdateUser shallow-merges data into the cached record for userID,
// creating the record if absent. Only non-nil fields overwrite.
func (s *Store) UpdateUser(userID string, data UserUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.users[userID]
	if data.Profile != nil {
		record.User = *data.Profile
	}
	if data.Scrobbles != nil {
		record.Scrobbles = data.Scrobbles
	}
	s.users[userID] = record
}

// ResetUsers drops all cached user records, forcing the next refresh to
// repopulate them from the scrobble server.
func (s *Store) ResetUsers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[string]scrobbled.UserScrobbles)
}

// RefreshNow updates the shared "current time" snapshot.
func (s *Store) RefreshNow() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = time.Now()
}

// Now returns the "current time" snapshot taken at the last RefreshNow.
func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now
}

// TrackByID returns the normalized track row for id.
func (s *Store) TrackByID(id string) (Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	track, ok := s.tracks[id]
	return track, ok
}

// AlbumByID returns the normalized album row for id.
func (s *Store) AlbumByID(id string) (Album, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	album, ok := s.albums[id]
	return album, ok
}

// ArtistByID returns the normalized artist row for id.
func (s *Store) ArtistByID(id string) (Artist, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	artist, ok := s.artists[id]
	return artist, ok
}

// UserByID returns the cached record for userID.
func (s *Store) UserByID(userID string) (scrobbled.UserScrobbles, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.users[userID]
	return record, ok
}

// HasTrack reports whether the track id is already cached.
func (s *Store) HasTrack(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tracks[id]
	return ok
}

// TrackCount returns the number of cached tracks.
func (s *Store) TrackCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tracks)
}

// MirrorEnabled reports whether write-through persistence is still active
// for this session.
func (s *Store) MirrorEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mirrorEnabled
}
