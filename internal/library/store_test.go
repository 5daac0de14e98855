package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func addRecording(t *testing.T, store *Store, id, title, path string) {
	t.Helper()
	err := store.Add(context.Background(), Recording{
		ID:        id,
		Path:      path,
		Title:     title,
		Kind:      KindRecording,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
}

func TestStoreAddGetList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	addRecording(t, store, "a1", "first clip", "/videos/first.mkv")
	addRecording(t, store, "b2", "second clip", "/videos/second.mkv")

	rec, err := store.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Title != "first clip" || rec.Kind != KindRecording {
		t.Errorf("Get = %+v", rec)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("List returned %d entries, want 2", len(list))
	}
}

func TestStoreGetMissing(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) = %v, want ErrNotFound", err)
	}
}

func TestStoreSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	addRecording(t, store, "a1", "boss fight highlight", "/videos/boss.mkv")
	addRecording(t, store, "b2", "desktop demo", "/videos/demo.mkv")

	hits, err := store.Search(ctx, "boss")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "a1" {
		t.Errorf("Search(boss) = %+v", hits)
	}

	// Empty query lists everything.
	all, err := store.Search(ctx, "")
	if err != nil {
		t.Fatalf("Search(empty): %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Search(empty) returned %d entries, want 2", len(all))
	}

	// FTS operators in user input must not break the query.
	if _, err := store.Search(ctx, `"unbalanced OR (`); err != nil {
		t.Errorf("Search with operators: %v", err)
	}
}

func TestStoreRemoveWithFile(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	dir := t.TempDir()
	mediaPath := filepath.Join(dir, "clip.mkv")
	if err := os.WriteFile(mediaPath, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	addRecording(t, store, "a1", "clip", mediaPath)

	if err := store.Remove(ctx, "a1", true); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(mediaPath); !os.IsNotExist(err) {
		t.Error("media file should have been deleted")
	}
	if _, err := store.Get(ctx, "a1"); !errors.Is(err, ErrNotFound) {
		t.Error("entry should be gone from the store")
	}
}

func TestStoreRemoveKeepsFile(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	dir := t.TempDir()
	mediaPath := filepath.Join(dir, "clip.mkv")
	if err := os.WriteFile(mediaPath, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	addRecording(t, store, "a1", "clip", mediaPath)

	if err := store.Remove(ctx, "a1", false); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(mediaPath); err != nil {
		t.Error("media file should still exist")
	}
}

func TestStoreRemoveMissingFileTolerated(t *testing.T) {
	store := newTestStore(t)
	addRecording(t, store, "a1", "clip", "/nonexistent/clip.mkv")

	if err := store.Remove(context.Background(), "a1", true); err != nil {
		t.Errorf("Remove with missing media file: %v", err)
	}
}
