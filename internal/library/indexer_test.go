package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseProbeOutput(t *testing.T) {
	data := []byte(`{
		"format": {"duration": "93.541000"},
		"streams": [
			{"codec_type": "audio"},
			{"codec_type": "video", "width": 1920, "height": 1080}
		]
	}`)

	info, err := parseProbeOutput(data)
	if err != nil {
		t.Fatalf("parseProbeOutput: %v", err)
	}
	if info.DurationSeconds != 93.541 {
		t.Errorf("duration = %v, want 93.541", info.DurationSeconds)
	}
	if info.Width != 1920 || info.Height != 1080 {
		t.Errorf("dimensions = %dx%d, want 1920x1080", info.Width, info.Height)
	}
}

func TestParseProbeOutputNoVideoStream(t *testing.T) {
	info, err := parseProbeOutput([]byte(`{"format": {"duration": "5.0"}, "streams": []}`))
	if err != nil {
		t.Fatalf("parseProbeOutput: %v", err)
	}
	if info.Width != 0 || info.Height != 0 {
		t.Errorf("dimensions = %dx%d, want 0x0", info.Width, info.Height)
	}
}

func TestParseProbeOutputGarbage(t *testing.T) {
	if _, err := parseProbeOutput([]byte("not json")); err == nil {
		t.Error("expected decode error")
	}
}

func TestIndexerRecordsMetadata(t *testing.T) {
	store := newTestStore(t)

	dir := t.TempDir()
	mediaPath := filepath.Join(dir, "recording_2025-01-27_10-30-00.mkv")
	if err := os.WriteFile(mediaPath, []byte("media bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	ix := NewIndexer(store, true)
	ix.probe = func(ctx context.Context, path string) (MediaInfo, error) {
		return MediaInfo{DurationSeconds: 42.5, Width: 1280, Height: 720}, nil
	}
	ix.thumb = func(ctx context.Context, src, dst string) error {
		return os.WriteFile(dst, []byte("jpg"), 0o644)
	}

	rec, err := ix.Index(context.Background(), mediaPath, KindRecording)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if rec.ID == "" {
		t.Error("recording id not assigned")
	}
	if rec.Title != "recording_2025-01-27_10-30-00" {
		t.Errorf("title = %q", rec.Title)
	}
	if rec.DurationSeconds != 42.5 || rec.Width != 1280 {
		t.Errorf("metadata = %+v", rec)
	}
	if rec.SizeBytes != int64(len("media bytes")) {
		t.Errorf("size = %d", rec.SizeBytes)
	}
	if _, err := os.Stat(rec.Thumbnail); err != nil {
		t.Errorf("thumbnail missing: %v", err)
	}

	stored, err := store.Get(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Path != mediaPath {
		t.Errorf("stored path = %q", stored.Path)
	}
}

func TestIndexerToleratesProbeAndThumbnailFailure(t *testing.T) {
	store := newTestStore(t)

	ix := NewIndexer(store, true)
	ix.probe = func(ctx context.Context, path string) (MediaInfo, error) {
		return MediaInfo{}, errors.New("probe broke")
	}
	ix.thumb = func(ctx context.Context, src, dst string) error {
		return errors.New("thumb broke")
	}

	rec, err := ix.Index(context.Background(), "/videos/clip.mkv", KindReplay)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if rec.DurationSeconds != 0 || rec.Thumbnail != "" {
		t.Errorf("degraded entry = %+v", rec)
	}
}
