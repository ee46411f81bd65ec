package mirror

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
)

func newTestMirror(t *testing.T) *SQLite {
	t.Helper()
	m, err := NewSQLite(filepath.Join(t.TempDir(), "mirror.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestSQLite_SetAllGet(t *testing.T) {
	m := newTestMirror(t)
	ctx := context.Background()

	if err := m.SetAll(ctx, map[string][]byte{"tracks": []byte(`{"t1":{}}`)}); err != nil {
		t.Fatalf("SetAll failed: %v", err)
	}

	value, ok, err := m.Get(ctx, "tracks")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("expected key to be present")
	}
	if !bytes.Equal(value, []byte(`{"t1":{}}`)) {
		t.Errorf("value = %q, expected %q", value, `{"t1":{}}`)
	}
}

func TestSQLite_SetAllMultipleKeys(t *testing.T) {
	m := newTestMirror(t)
	ctx := context.Background()

	want := map[string][]byte{
		"tracks":  []byte("t"),
		"artists": []byte("a"),
		"albums":  []byte("al"),
	}
	if err := m.SetAll(ctx, want); err != nil {
		t.Fatalf("SetAll failed: %v", err)
	}

	for key, expected := range want {
		value, ok, err := m.Get(ctx, key)
		if err != nil || !ok {
			t.Fatalf("Get(%q) failed: %v, ok=%v", key, err, ok)
		}
		if !bytes.Equal(value, expected) {
			t.Errorf("Get(%q) = %q, expected %q", key, value, expected)
		}
	}
}

func TestSQLite_Overwrite(t *testing.T) {
	m := newTestMirror(t)
	ctx := context.Background()

	if err := m.SetAll(ctx, map[string][]byte{"albums": []byte("old")}); err != nil {
		t.Fatalf("SetAll failed: %v", err)
	}
	if err := m.SetAll(ctx, map[string][]byte{"albums": []byte("new")}); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	value, ok, err := m.Get(ctx, "albums")
	if err != nil || !ok {
		t.Fatalf("Get failed: %v, ok=%v", err, ok)
	}
	if string(value) != "new" {
		t.Errorf("value = %q, expected new", value)
	}
}

func TestSQLite_MissingKey(t *testing.T) {
	m := newTestMirror(t)

	_, ok, err := m.Get(context.Background(), "artists")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("expected missing key to report absent, not error")
	}
}

func TestSQLite_SurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "mirror.db")
	ctx := context.Background()

	m, err := NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	if err := m.SetAll(ctx, map[string][]byte{"tracks": []byte("persisted")}); err != nil {
		t.Fatalf("SetAll failed: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	value, ok, err := reopened.Get(ctx, "tracks")
	if err != nil || !ok {
		t.Fatalf("Get after reopen failed: %v, ok=%v", err, ok)
	}
	if string(value) != "persisted" {
		t.Errorf("value = %q, expected persisted", value)
	}
}
