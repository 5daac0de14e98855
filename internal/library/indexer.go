package library

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/capturelab/grabnode/internal/logging"
	"github.com/capturelab/grabnode/internal/process"
	"github.com/google/uuid"
)

// Indexer adds finished media files to the store, probing their metadata
// and rendering a thumbnail.
type Indexer struct {
	store      *Store
	thumbnails bool
	logger     *slog.Logger

	probe func(ctx context.Context, path string) (MediaInfo, error)
	thumb func(ctx context.Context, src, dst string) error
}

// NewIndexer wires an indexer to the store. thumbnails toggles best-effort
// thumbnail rendering next to each media file.
func NewIndexer(store *Store, thumbnails bool) *Indexer {
	return &Indexer{
		store:      store,
		thumbnails: thumbnails,
		logger:     logging.GetLogger("library"),
		probe:      ProbeMedia,
		thumb:      renderThumbnail,
	}
}

// Index records a finished media file. Probe failures degrade to zeroed
// metadata and a thumbnail failure is only a warning: the file exists and
// must be findable even when ffprobe dislikes it.
func (ix *Indexer) Index(ctx context.Context, path, kind string) (Recording, error) {
	rec := Recording{
		ID:        uuid.NewString(),
		Path:      path,
		Title:     strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Kind:      kind,
		CreatedAt: time.Now(),
	}

	if fi, err := os.Stat(path); err == nil {
		rec.SizeBytes = fi.Size()
	}

	info, err := ix.probe(ctx, path)
	if err != nil {
		ix.logger.Warn("Media probe failed", "path", path, "error", err)
	} else {
		rec.DurationSeconds = info.DurationSeconds
		rec.Width = info.Width
		rec.Height = info.Height
	}

	if ix.thumbnails {
		thumbPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".jpg"
		if err := ix.thumb(ctx, path, thumbPath); err != nil {
			ix.logger.Warn("Thumbnail generation failed", "path", path, "error", err)
		} else {
			rec.Thumbnail = thumbPath
		}
	}

	if err := ix.store.Add(ctx, rec); err != nil {
		return Recording{}, err
	}
	ix.logger.Info("Indexed recording", "id", rec.ID, "path", path, "kind", kind)
	return rec, nil
}

// renderThumbnail grabs a frame five seconds in, scaled to 320px wide.
// Shorter files make ffmpeg fail the seek; the caller treats that as
// non-fatal.
func renderThumbnail(ctx context.Context, src, dst string) error {
	_, err := process.Run(ctx, []string{
		"-y",
		"-ss", "5",
		"-i", src,
		"-frames:v", "1",
		"-vf", "scale=320:-1",
		dst,
	})
	return err
}
