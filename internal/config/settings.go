package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/capturelab/grabnode/internal/ffmpeg"
	"github.com/capturelab/grabnode/internal/replay"
	"github.com/pelletier/go-toml/v2"
)

// Settings is the capture-domain configuration shared by the recorder
// service, the CLI commands, and the hot-reload watcher. Server and
// logging options live on the CLI Options struct; these sections cover
// what a running session consumes.
type Settings struct {
	Capture CaptureSettings `toml:"capture"`
	Replay  ReplaySettings  `toml:"replay"`
	Storage StorageSettings `toml:"storage"`
	Export  ExportSettings  `toml:"export"`
}

// CaptureSettings selects what and how to grab.
type CaptureSettings struct {
	Display      string         `toml:"display"`
	FPS          int            `toml:"fps"`
	Quality      ffmpeg.Quality `toml:"quality"`
	Container    string         `toml:"container"`
	Encoder      string         `toml:"encoder"` // vaapi, nvenc, qsv, software; empty picks the best available
	AudioEnabled bool           `toml:"audio_enabled"`
	AudioSource  string         `toml:"audio_source"` // pulse source name; empty auto-selects the monitor
}

// ReplaySettings shapes the instant-replay ring.
type ReplaySettings struct {
	DurationSeconds int    `toml:"duration_seconds"`
	SegmentSeconds  int    `toml:"segment_seconds"`
	SaveSeconds     int    `toml:"save_seconds"`
	CacheDir        string `toml:"cache_dir"` // empty prefers /dev/shm
}

// StorageSettings places recordings and the library database.
type StorageSettings struct {
	OutputDir  string `toml:"output_dir"`
	DBPath     string `toml:"db_path"`
	Thumbnails bool   `toml:"thumbnails"`
}

// ExportSettings points at optional user-defined export presets.
type ExportSettings struct {
	PresetsFile string `toml:"presets_file"`
}

// MaxSegments converts the retained window into a segment count,
// rounding up so the ring never holds less than the requested duration.
func (r ReplaySettings) MaxSegments() int {
	if r.SegmentSeconds <= 0 {
		return 1
	}
	n := (r.DurationSeconds + r.SegmentSeconds - 1) / r.SegmentSeconds
	if n < 1 {
		return 1
	}
	return n
}

// RingConfig resolves the replay settings into a ring geometry. An empty
// cache dir prefers the ram-backed /dev/shm so continuous segment writes
// never touch the disk, falling back to the system temp dir.
func (r ReplaySettings) RingConfig() replay.Config {
	dir := r.CacheDir
	if dir == "" {
		if fi, err := os.Stat("/dev/shm"); err == nil && fi.IsDir() {
			dir = "/dev/shm/grabnode/replay"
		} else {
			dir = filepath.Join(os.TempDir(), "grabnode", "replay")
		}
	}
	return replay.Config{
		Dir:            dir,
		SegmentSeconds: r.SegmentSeconds,
		MaxSegments:    r.MaxSegments(),
	}
}

// DefaultSettings returns the settings used when no file overrides them.
func DefaultSettings() Settings {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	outputDir := filepath.Join(home, "Videos", "grabnode")

	return Settings{
		Capture: CaptureSettings{
			Display:      ":0",
			FPS:          60,
			Quality:      ffmpeg.QualityHigh,
			Container:    "mkv",
			AudioEnabled: true,
		},
		Replay: ReplaySettings{
			DurationSeconds: 120,
			SegmentSeconds:  3,
			SaveSeconds:     30,
		},
		Storage: StorageSettings{
			OutputDir:  outputDir,
			DBPath:     filepath.Join(outputDir, "library.db"),
			Thumbnails: true,
		},
	}
}

// LoadSettings reads the settings file over the defaults. A missing file
// is not an error: the defaults stand. Used directly as the loader of a
// config.Watcher so hot reloads always see fresh data.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings: %w", err)
	}
	if err := toml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("parse settings: %w", err)
	}
	return settings, nil
}

// EnsureDirs creates the directories a session writes into.
func (s Settings) EnsureDirs() error {
	dirs := []string{
		s.Storage.OutputDir,
		filepath.Dir(s.Storage.DBPath),
		s.Replay.RingConfig().Dir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
