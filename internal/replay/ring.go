package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/capturelab/grabnode/internal/logging"
	"github.com/capturelab/grabnode/internal/process"
)

const (
	indexFileName      = "segments.csv"
	segmentFilePattern = "seg_%03d.mkv"
	manifestFileName   = "concat.txt"
)

// ErrNoSegments indicates the ring holds nothing usable for the requested
// window: the index is missing or empty, or every referenced file has
// already been rotated away.
var ErrNoSegments = errors.New("replay ring holds no usable segments")

// Config fixes a ring's backing directory and rotation geometry. The
// retained window is SegmentSeconds * MaxSegments.
type Config struct {
	Dir            string `json:"dir"`
	SegmentSeconds int    `json:"segment_seconds"`
	MaxSegments    int    `json:"max_segments"`
}

// IndexPath is the rotation index the segment muxer maintains.
func (c Config) IndexPath() string {
	return filepath.Join(c.Dir, indexFileName)
}

// SegmentPattern is the printf-style filename template handed to the
// segment muxer.
func (c Config) SegmentPattern() string {
	return filepath.Join(c.Dir, segmentFilePattern)
}

// Window is the total duration retained once the ring is full.
func (c Config) Window() time.Duration {
	return time.Duration(c.SegmentSeconds*c.MaxSegments) * time.Second
}

// Segment is one line of the rotation index.
type Segment struct {
	Filename string  `json:"filename"`
	Start    float64 `json:"start_seconds"`
	End      float64 `json:"end_seconds"`
}

// Ring reads the segment rotation of one replay session.
type Ring struct {
	cfg    Config
	logger *slog.Logger
	run    runFunc
}

type runFunc = func(ctx context.Context, args []string) (string, error)

// NewRing creates a reader for the given ring directory. It does not touch
// the filesystem; call Reset to prepare the directory for a new session.
func NewRing(cfg Config) *Ring {
	return &Ring{
		cfg:    cfg,
		logger: logging.GetLogger("replay"),
		run:    process.Run,
	}
}

// Config returns the ring's geometry.
func (r *Ring) Config() Config {
	return r.cfg
}

// ParseSegments reads the rotation index in file order. A missing index is
// an empty ring, not an error; lines with fewer than three comma-separated
// fields are dropped; times that fail to parse decode as zero.
func (r *Ring) ParseSegments() ([]Segment, error) {
	data, err := os.ReadFile(r.cfg.IndexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read segment index: %w", err)
	}

	var segments []Segment
	for _, line := range strings.Split(string(data), "\n") {
		parts := strings.Split(line, ",")
		if len(parts) < 3 {
			continue
		}
		start, _ := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		end, _ := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		segments = append(segments, Segment{
			Filename: strings.TrimSpace(parts[0]),
			Start:    start,
			End:      end,
		})
	}
	return segments, nil
}

// SelectLast returns absolute paths for the segments covering the trailing
// window of the given length: max(1, floor(seconds/segmentDuration))
// entries, capped at what the index holds. Paths the live writer has
// already rotated away are dropped; an empty result is ErrNoSegments.
func (r *Ring) SelectLast(seconds int) ([]string, error) {
	segments, err := r.ParseSegments()
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, ErrNoSegments
	}

	needed := 1
	if r.cfg.SegmentSeconds > 0 {
		if n := seconds / r.cfg.SegmentSeconds; n > 1 {
			needed = n
		}
	}
	if needed > len(segments) {
		needed = len(segments)
	}

	var paths []string
	for _, seg := range segments[len(segments)-needed:] {
		p := seg.Filename
		if !filepath.IsAbs(p) {
			p = filepath.Join(r.cfg.Dir, p)
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		paths = append(paths, p)
	}
	if len(paths) == 0 {
		return nil, ErrNoSegments
	}

	r.logger.Debug("Selected replay segments", "count", len(paths), "seconds", seconds)
	return paths, nil
}

// Reset wipes and recreates the backing directory so no segments from a
// prior session survive into the next one. The caller must have stopped
// any live writer for this directory first; the ring holds no lock
// against it.
func (r *Ring) Reset() error {
	if err := os.RemoveAll(r.cfg.Dir); err != nil {
		return fmt.Errorf("clear ring directory: %w", err)
	}
	if err := os.MkdirAll(r.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("create ring directory: %w", err)
	}
	return nil
}
