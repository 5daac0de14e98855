package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/capturelab/grabnode/internal/audio"
	"github.com/capturelab/grabnode/internal/capture"
	"github.com/capturelab/grabnode/internal/config"
	"github.com/capturelab/grabnode/internal/encoders"
	"github.com/capturelab/grabnode/internal/events"
	"github.com/capturelab/grabnode/internal/ffmpeg"
	"github.com/capturelab/grabnode/internal/library"
	"github.com/capturelab/grabnode/internal/logging"
	"github.com/capturelab/grabnode/internal/metrics"
	"github.com/capturelab/grabnode/internal/process"
	"github.com/capturelab/grabnode/internal/replay"
)

// Session state errors.
var (
	ErrAlreadyRecording = errors.New("a recording is already running")
	ErrNotRecording     = errors.New("no recording is running")
	ErrReplayActive     = errors.New("a replay session is already running")
	ErrReplayInactive   = errors.New("no replay session is running")
)

// supervisor is the slice of process.Supervisor the service drives.
// Narrowed to an interface so session logic is testable without spawning
// the real encoder.
type supervisor interface {
	State() process.State
	StateChanges() *process.Slot[process.State]
	Progress() process.Progress
	ProgressChanges() *process.Slot[process.Progress]
	StopGraceful() error
	Kill() error
	Done() <-chan struct{}
}

type spawnFunc func(args []string) (supervisor, error)

// Service owns the recorder's shared mutable state: the settings
// snapshot, the cached encoder catalog, and the live sessions.
type Service struct {
	catalog *encoders.Catalog
	bus     *events.Bus
	indexer *library.Indexer
	logger  *slog.Logger

	spawn       spawnFunc
	detectSize  func(ctx context.Context) (int, int, error)
	monitorName func(ctx context.Context) (string, error)

	mu        sync.Mutex
	settings  config.Settings
	recording *recordingSession
	replaying *replaySession
}

type recordingSession struct {
	id        string
	path      string
	container string
	sup       supervisor
	startedAt time.Time
}

type replaySession struct {
	sup  supervisor
	ring *replay.Ring
}

// New creates the session service. indexer may be nil; finished files are
// then left unindexed (CLI one-shot use).
func New(settings config.Settings, catalog *encoders.Catalog, bus *events.Bus, indexer *library.Indexer) *Service {
	logger := logging.GetLogger("recorder")
	return &Service{
		catalog: catalog,
		bus:     bus,
		indexer: indexer,
		logger:  logger,

		spawn: func(args []string) (supervisor, error) {
			return process.Spawn(args, process.WithStderrLog(logging.GetLogger("ffmpeg"), ffmpeg.ParseLogLevel))
		},
		detectSize:  capture.DetectDisplaySize,
		monitorName: audio.DefaultMonitor,

		settings: settings,
	}
}

// Settings returns the current settings snapshot.
func (s *Service) Settings() config.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// ApplySettings installs a new settings snapshot, typically from the
// config watcher. A live replay session is restarted so its writer picks
// up the capture and ring changes; a live manual recording is left
// untouched so a reload cannot truncate someone's take.
func (s *Service) ApplySettings(ctx context.Context, settings config.Settings) {
	s.mu.Lock()
	restartReplay := s.replaying != nil && captureAffecting(s.settings, settings)
	s.settings = settings
	s.mu.Unlock()

	if restartReplay {
		s.logger.Info("Capture settings changed, restarting replay writer")
		if err := s.ReplayStop(); err != nil && !errors.Is(err, ErrReplayInactive) {
			s.logger.Error("Replay restart: stop failed", "error", err)
			return
		}
		if err := s.ReplayStart(ctx); err != nil {
			s.logger.Error("Replay restart: start failed", "error", err)
		}
	}
}

func captureAffecting(prev, next config.Settings) bool {
	return prev.Capture != next.Capture || prev.Replay != next.Replay
}

// StartOptions override the configured capture defaults for one session.
type StartOptions struct {
	Source    *capture.Source // nil grabs the configured display fullscreen
	Quality   *ffmpeg.Quality
	Container string
}

// RecordingInfo describes a started or finished recording.
type RecordingInfo struct {
	ID      string `json:"id"`
	Path    string `json:"path"`
	Encoder string `json:"encoder"`
}

// StartRecording spawns a single-file recording. Only one manual
// recording may run at a time.
func (s *Service) StartRecording(ctx context.Context, opts StartOptions) (RecordingInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.recording != nil {
		return RecordingInfo{}, ErrAlreadyRecording
	}

	settings := s.settings
	req, err := s.buildRequest(ctx, settings, opts)
	if err != nil {
		return RecordingInfo{}, err
	}

	container := settings.Capture.Container
	if opts.Container != "" {
		container = opts.Container
	}

	path := filepath.Join(settings.Storage.OutputDir,
		time.Now().Format("recording_2006-01-02_15-04-05")+"."+container)

	sup, err := s.spawn(ffmpeg.Recording(req, path, container))
	if err != nil {
		return RecordingInfo{}, fmt.Errorf("start recording: %w", err)
	}

	session := &recordingSession{
		id:        uuid.NewString(),
		path:      path,
		container: container,
		sup:       sup,
		startedAt: time.Now(),
	}
	s.recording = session

	metrics.IncSessionsStarted(metrics.KindRecording)
	go s.pump(metrics.KindRecording, sup, func() { s.reapRecording(session) })

	s.bus.Publish(events.RecordingStartedEvent{
		ID:        session.id,
		Path:      path,
		Encoder:   req.Encoder.Name,
		Display:   req.Source.Display,
		Timestamp: time.Now().Format(time.RFC3339),
	})
	s.logger.Info("Recording started", "id", session.id, "path", path, "encoder", req.Encoder.Name)

	return RecordingInfo{ID: session.id, Path: path, Encoder: req.Encoder.Name}, nil
}

// StopRecording gracefully finishes the live recording, indexes the file
// into the library, and returns its path.
func (s *Service) StopRecording(ctx context.Context) (RecordingInfo, error) {
	s.mu.Lock()
	session := s.recording
	s.recording = nil
	s.mu.Unlock()

	if session == nil {
		return RecordingInfo{}, ErrNotRecording
	}

	if err := session.sup.StopGraceful(); err != nil {
		s.logger.Error("Recording stop reported error", "id", session.id, "error", err)
	}

	var sizeBytes int64
	if fi, err := os.Stat(session.path); err == nil {
		sizeBytes = fi.Size()
	}

	s.bus.Publish(events.RecordingStoppedEvent{
		ID:              session.id,
		Path:            session.path,
		DurationSeconds: time.Since(session.startedAt).Seconds(),
		SizeBytes:       sizeBytes,
		Timestamp:       time.Now().Format(time.RFC3339),
	})
	s.logger.Info("Recording stopped", "id", session.id, "path", session.path)

	s.index(ctx, session.path, library.KindRecording)

	return RecordingInfo{ID: session.id, Path: session.path}, nil
}

// ReplayStart wipes the ring directory and spawns the segmented writer
// that feeds it.
func (s *Service) ReplayStart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.replaying != nil {
		return ErrReplayActive
	}

	settings := s.settings
	ring := replay.NewRing(settings.Replay.RingConfig())
	if err := ring.Reset(); err != nil {
		return fmt.Errorf("prepare replay ring: %w", err)
	}

	req, err := s.buildRequest(ctx, settings, StartOptions{})
	if err != nil {
		return err
	}

	sup, err := s.spawn(ffmpeg.ReplayFeed(req, ring.Config()))
	if err != nil {
		return fmt.Errorf("start replay writer: %w", err)
	}

	session := &replaySession{sup: sup, ring: ring}
	s.replaying = session

	metrics.IncSessionsStarted(metrics.KindReplay)
	go s.pump(metrics.KindReplay, sup, func() { s.reapReplay(session) })

	cfg := ring.Config()
	s.bus.Publish(events.ReplayStartedEvent{
		Dir:            cfg.Dir,
		SegmentSeconds: cfg.SegmentSeconds,
		MaxSegments:    cfg.MaxSegments,
		Timestamp:      time.Now().Format(time.RFC3339),
	})
	s.logger.Info("Replay buffer started", "dir", cfg.Dir, "window", cfg.Window())
	return nil
}

// ReplayStop shuts the writer down and wipes the ring so no stale
// segments leak into the next session.
func (s *Service) ReplayStop() error {
	s.mu.Lock()
	session := s.replaying
	s.replaying = nil
	s.mu.Unlock()

	if session == nil {
		return ErrReplayInactive
	}

	if err := session.sup.StopGraceful(); err != nil {
		s.logger.Error("Replay stop reported error", "error", err)
	}
	if err := session.ring.Reset(); err != nil {
		s.logger.Warn("Replay ring cleanup failed", "error", err)
	}

	s.bus.Publish(events.ReplayStoppedEvent{Timestamp: time.Now().Format(time.RFC3339)})
	s.logger.Info("Replay buffer stopped")
	return nil
}

// ReplaySave materializes the trailing window of the live ring into a
// standalone clip. seconds <= 0 takes the configured default. The live
// writer keeps running; the rotation race is tolerated by the ring's
// existence filtering.
func (s *Service) ReplaySave(ctx context.Context, seconds int) (RecordingInfo, error) {
	s.mu.Lock()
	session := s.replaying
	settings := s.settings
	s.mu.Unlock()

	if session == nil {
		return RecordingInfo{}, ErrReplayInactive
	}
	if seconds <= 0 {
		seconds = settings.Replay.SaveSeconds
	}

	path := filepath.Join(settings.Storage.OutputDir,
		time.Now().Format("replay_2006-01-02_15-04-05")+".mkv")

	if err := session.ring.SaveLast(ctx, seconds, path); err != nil {
		return RecordingInfo{}, err
	}

	metrics.IncReplaysSaved()
	id := uuid.NewString()
	s.bus.Publish(events.ReplaySavedEvent{
		ID:        id,
		Path:      path,
		Seconds:   float64(seconds),
		Timestamp: time.Now().Format(time.RFC3339),
	})
	s.logger.Info("Replay clip saved", "path", path, "seconds", seconds)

	s.index(ctx, path, library.KindReplay)

	return RecordingInfo{ID: id, Path: path}, nil
}

// SessionStatus describes one live (or idle) session slot.
type SessionStatus struct {
	Active   bool             `json:"active"`
	ID       string           `json:"id,omitempty"`
	Path     string           `json:"path,omitempty"`
	State    string           `json:"state,omitempty"`
	Progress process.Progress `json:"progress"`
}

// Status is the recorder's full live view.
type Status struct {
	Recording SessionStatus `json:"recording"`
	Replay    SessionStatus `json:"replay"`
}

// Status reports both session slots with their latest progress.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	var status Status
	if s.recording != nil {
		status.Recording = SessionStatus{
			Active:   true,
			ID:       s.recording.id,
			Path:     s.recording.path,
			State:    string(s.recording.sup.State()),
			Progress: s.recording.sup.Progress(),
		}
	}
	if s.replaying != nil {
		status.Replay = SessionStatus{
			Active:   true,
			Path:     s.replaying.ring.Config().Dir,
			State:    string(s.replaying.sup.State()),
			Progress: s.replaying.sup.Progress(),
		}
	}
	return status
}

// Close stops whatever is still running. Used on daemon shutdown.
func (s *Service) Close(ctx context.Context) {
	if _, err := s.StopRecording(ctx); err != nil && !errors.Is(err, ErrNotRecording) {
		s.logger.Error("Shutdown: recording stop failed", "error", err)
	}
	if err := s.ReplayStop(); err != nil && !errors.Is(err, ErrReplayInactive) {
		s.logger.Error("Shutdown: replay stop failed", "error", err)
	}
}

// buildRequest resolves settings and per-call overrides into one encode
// request. A missing audio monitor degrades to video-only capture rather
// than refusing to record.
func (s *Service) buildRequest(ctx context.Context, settings config.Settings, opts StartOptions) (ffmpeg.Request, error) {
	source := settings.Capture
	req := ffmpeg.Request{Quality: source.Quality}
	if opts.Quality != nil {
		req.Quality = *opts.Quality
	}

	if opts.Source != nil {
		req.Source = *opts.Source
	} else {
		width, height, err := s.detectSize(ctx)
		if err != nil {
			return ffmpeg.Request{}, fmt.Errorf("detect display size: %w", err)
		}
		req.Source = capture.NewFullscreen(source.Display, width, height, source.FPS)
	}

	list := s.catalog.Get(ctx)
	if source.Encoder != "" {
		if enc, ok := encoders.ByKind(list, encoders.Kind(source.Encoder)); ok {
			req.Encoder = enc
		} else {
			s.logger.Warn("Configured encoder unavailable, picking best", "encoder", source.Encoder)
			req.Encoder = encoders.SelectBest(list)
		}
	} else {
		req.Encoder = encoders.SelectBest(list)
	}

	if source.AudioEnabled {
		req.AudioSource = source.AudioSource
		if req.AudioSource == "" {
			name, err := s.monitorName(ctx)
			if err != nil {
				s.logger.Warn("No desktop audio monitor, recording without audio", "error", err)
			} else {
				req.AudioSource = name
			}
		}
	}
	return req, nil
}

func (s *Service) index(ctx context.Context, path, kind string) {
	if s.indexer == nil {
		return
	}
	if _, err := s.indexer.Index(ctx, path, kind); err != nil {
		s.logger.Warn("Library indexing failed", "path", path, "error", err)
	}
}

// reapRecording clears a recording slot whose process exited on its own.
// The normal stop path has already detached the session; this only fires
// on crashes and self-terminating runs.
func (s *Service) reapRecording(session *recordingSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recording == session {
		s.recording = nil
		s.logger.Error("Recording process exited unexpectedly",
			"id", session.id, "state", string(session.sup.State()))
	}
}

func (s *Service) reapReplay(session *replaySession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replaying == session {
		s.replaying = nil
		s.logger.Error("Replay writer exited unexpectedly",
			"state", string(session.sup.State()))
	}
}
