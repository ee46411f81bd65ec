// Package feed drives the refresh cycle: pull listening records from the
// scrobble server, resolve any track metadata the store has not seen yet,
// and push the results into the entity cache.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/earshot-fm/earshot/internal/store"
	"github.com/earshot-fm/earshot/pkg/scrobbled"
	"github.com/earshot-fm/earshot/pkg/spotify"
)

// maxBatchIDs is the Spotify batch track endpoint's id limit per request.
const maxBatchIDs = 50

// Refresher fetches listening records for a fixed set of users and keeps
// the store's metadata tables in step with them.
type Refresher struct {
	scrobbles *scrobbled.Client
	catalog   *spotify.Client
	store     *store.Store
	userIDs   []string
	logger    zerolog.Logger
}

// NewRefresher creates a Refresher for the given user ids.
func NewRefresher(scrobbles *scrobbled.Client, catalog *spotify.Client, st *store.Store, userIDs []string, logger zerolog.Logger) *Refresher {
	return &Refresher{
		scrobbles: scrobbles,
		catalog:   catalog,
		store:     st,
		userIDs:   userIDs,
		logger:    logger.With().Str("component", "feed").Logger(),
	}
}

// Refresh performs one full cycle: fetch users, resolve unknown tracks in
// batches, update user records, refresh the time snapshot.
//
// A scrobble-server failure aborts the cycle. A catalog failure only
// degrades it: user records are still updated and the unresolved tracks stay
// unresolved until a later cycle.
func (r *Refresher) Refresh(ctx context.Context) error {
	records, err := r.scrobbles.Users(ctx, r.userIDs)
	if err != nil {
		return fmt.Errorf("failed to fetch listening records: %w", err)
	}

	missing := r.missingTrackIDs(records)
	for start := 0; start < len(missing); start += maxBatchIDs {
		end := min(start+maxBatchIDs, len(missing))

		several, err := r.catalog.Tracks(ctx, missing[start:end])
		if err != nil {
			r.logger.Warn().Err(err).
				Int("unresolved", len(missing)-start).
				Msg("Failed to resolve track metadata, continuing without it")
			break
		}
		if err := r.store.SaveTracks(ctx, several.Tracks); err != nil {
			return fmt.Errorf("failed to ingest tracks: %w", err)
		}
	}

	for _, record := range records {
		profile := record.User
		r.store.UpdateUser(record.User.ID, store.UserUpdate{
			Profile:   &profile,
			Scrobbles: record.Scrobbles,
		})
	}

	r.store.RefreshNow()

	r.logger.Debug().
		Int("users", len(records)).
		Int("resolved", len(missing)).
		Msg("Refresh complete")
	return nil
}

// missingTrackIDs collects, in first-seen order, the distinct track ids
// referenced by the records that the store has not cached yet.
func (r *Refresher) missingTrackIDs(records []scrobbled.UserScrobbles) []string {
	seen := make(map[string]struct{})
	var missing []string
	for _, record := range records {
		for _, scrobble := range record.Scrobbles {
			if _, ok := seen[scrobble.TrackID]; ok {
				continue
			}
			seen[scrobble.TrackID] = struct{}{}
			if !r.store.HasTrack(scrobble.TrackID) {
				missing = append(missing, scrobble.TrackID)
			}
		}
	}
	return missing
}

// Run refreshes immediately and then on every tick until the context is
// cancelled. Refresh errors are logged, not fatal: the next tick retries the
// whole cycle. After each successful refresh a notification is sent on
// refreshed (when non-nil) without blocking, so a slow consumer only
// coalesces updates.
func (r *Refresher) Run(ctx context.Context, interval time.Duration, refreshed chan<- struct{}) error {
	r.logger.Info().
		Dur("interval", interval).
		Int("users", len(r.userIDs)).
		Msg("Starting feed")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.refreshAndNotify(ctx, refreshed)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("Feed stopped")
			return ctx.Err()
		case <-ticker.C:
			r.refreshAndNotify(ctx, refreshed)
		}
	}
}

func (r *Refresher) refreshAndNotify(ctx context.Context, refreshed chan<- struct{}) {
	if err := r.Refresh(ctx); err != nil {
		r.logger.Error().Err(err).Msg("Refresh failed")
		return
	}
	if refreshed != nil {
		select {
		case refreshed <- struct{}{}:
		default:
		}
	}
}
