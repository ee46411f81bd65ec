//go:build integration
// +build integration

package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/earshot-fm/earshot/internal/feed"
	"github.com/earshot-fm/earshot/internal/mirror"
	"github.com/earshot-fm/earshot/internal/store"
	"github.com/earshot-fm/earshot/pkg/scrobbled"
	"github.com/earshot-fm/earshot/pkg/spotify"
)

// TestFullRefreshCycle wires real clients, the store and a SQLite mirror
// against fake upstream servers: credential relay, listening-record fetch,
// batch metadata resolution, write-through, and rehydration on a second run.
func TestFullRefreshCycle(t *testing.T) {
	scrobbleSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/spotify-token":
			w.Write([]byte(`{"token":"relay-token","type":"Bearer"}`))
		case "/":
			if got := r.URL.RawQuery; got != "q=u1" {
				t.Errorf("users query = %q, expected q=u1", got)
			}
			w.Write([]byte(`[
				{
					"user": {"id": "u1", "username": "alice", "discriminator": "0001", "avatar": null},
					"scrobbles": [{"id": "t1", "startTime": 1000, "endTime": null}]
				}
			]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer scrobbleSrv.Close()

	var catalogHits atomic.Int32
	catalogSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		catalogHits.Add(1)
		if auth := r.Header.Get("Authorization"); auth != "Bearer relay-token" {
			t.Errorf("Authorization = %q, expected the relayed credential", auth)
		}
		ids := strings.Split(r.URL.Query().Get("ids"), ",")
		tracks := make([]string, len(ids))
		for i, id := range ids {
			tracks[i] = fmt.Sprintf(`{
				"id": %q, "name": "track", "duration_ms": 1000,
				"album": {"id": "al1", "name": "album", "images": [null]},
				"artists": [{"id": "ar1", "name": "artist"}]
			}`, id)
		}
		fmt.Fprintf(w, `{"tracks": [%s]}`, strings.Join(tracks, ","))
	}))
	defer catalogSrv.Close()

	dbPath := filepath.Join(t.TempDir(), "mirror.db")
	ctx := context.Background()

	// First run: everything is fetched and mirrored.
	func() {
		m, err := mirror.NewSQLite(dbPath)
		if err != nil {
			t.Fatalf("failed to open mirror: %v", err)
		}
		defer m.Close()

		st := store.New(m, zerolog.Nop())
		if err := st.Load(ctx); err != nil {
			t.Fatalf("Load failed: %v", err)
		}

		scrobbles := scrobbled.NewClient(scrobbled.Config{BaseURL: scrobbleSrv.URL})
		catalog := spotify.NewClient(spotify.Config{BaseURL: catalogSrv.URL}, scrobbles)
		select {
		case <-catalog.Ready():
		case <-time.After(5 * time.Second):
			t.Fatal("credential bootstrap did not finish")
		}
		if !catalog.IsAuthenticated() {
			t.Fatal("expected the delegated credential to be installed")
		}

		refresher := feed.NewRefresher(scrobbles, catalog, st, []string{"u1"}, zerolog.Nop())
		if err := refresher.Refresh(ctx); err != nil {
			t.Fatalf("Refresh failed: %v", err)
		}

		if !st.HasTrack("t1") {
			t.Fatal("expected t1 after refresh")
		}
		record, ok := st.UserByID("u1")
		if !ok || len(record.Scrobbles) != 1 {
			t.Fatalf("unexpected user record: %+v", record)
		}
		if record.Scrobbles[0].EndTime != nil {
			t.Error("active scrobble sentinel lost")
		}
	}()

	if catalogHits.Load() != 1 {
		t.Fatalf("expected exactly 1 catalog call, got %d", catalogHits.Load())
	}

	// Second run: the mirror rehydrates the tables, so the catalog is never hit.
	m, err := mirror.NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen mirror: %v", err)
	}
	defer m.Close()

	st := store.New(m, zerolog.Nop())
	if err := st.Load(ctx); err != nil {
		t.Fatalf("Load after restart failed: %v", err)
	}
	if !st.HasTrack("t1") {
		t.Fatal("expected t1 to be rehydrated")
	}
	album, ok := st.AlbumByID("al1")
	if !ok {
		t.Fatal("expected al1 to be rehydrated")
	}
	if len(album.Images) != 1 || album.Images[0] != nil {
		t.Errorf("album image hole lost through the mirror: %+v", album.Images)
	}

	scrobbles := scrobbled.NewClient(scrobbled.Config{BaseURL: scrobbleSrv.URL})
	catalog := spotify.NewClient(spotify.Config{BaseURL: catalogSrv.URL}, scrobbles)
	refresher := feed.NewRefresher(scrobbles, catalog, st, []string{"u1"}, zerolog.Nop())
	if err := refresher.Refresh(ctx); err != nil {
		t.Fatalf("Refresh after restart failed: %v", err)
	}
	if catalogHits.Load() != 1 {
		t.Errorf("rehydrated run hit the catalog (%d calls, expected 1)", catalogHits.Load())
	}
}
