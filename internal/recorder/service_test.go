package recorder

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/capturelab/grabnode/internal/capture"
	"github.com/capturelab/grabnode/internal/config"
	"github.com/capturelab/grabnode/internal/encoders"
	"github.com/capturelab/grabnode/internal/events"
	"github.com/capturelab/grabnode/internal/ffmpeg"
	"github.com/capturelab/grabnode/internal/process"
	"github.com/capturelab/grabnode/internal/replay"
)

func mustQuality(t *testing.T, s string) ffmpeg.Quality {
	t.Helper()
	q, err := ffmpeg.ParseQuality(s)
	if err != nil {
		t.Fatalf("ParseQuality(%q): %v", s, err)
	}
	return q
}

func captureRegion() capture.Source {
	return capture.NewRegion(":0", 100, 200, 800, 600, 30)
}

// fakeSupervisor stands in for a spawned encoder process.
type fakeSupervisor struct {
	state    *process.Slot[process.State]
	progress *process.Slot[process.Progress]
	done     chan struct{}
	once     sync.Once

	mu        sync.Mutex
	stopCalls int
	killCalls int
}

func newFakeSupervisor() *fakeSupervisor {
	return &fakeSupervisor{
		state:    process.NewSlot(process.StateStarting),
		progress: process.NewSlot(process.Progress{}),
		done:     make(chan struct{}),
	}
}

func (f *fakeSupervisor) State() process.State                            { return f.state.Get() }
func (f *fakeSupervisor) StateChanges() *process.Slot[process.State]      { return f.state }
func (f *fakeSupervisor) Progress() process.Progress                      { return f.progress.Get() }
func (f *fakeSupervisor) ProgressChanges() *process.Slot[process.Progress] { return f.progress }
func (f *fakeSupervisor) Done() <-chan struct{}                           { return f.done }

func (f *fakeSupervisor) StopGraceful() error {
	f.mu.Lock()
	f.stopCalls++
	f.mu.Unlock()
	f.exit(process.StateStopped)
	return nil
}

func (f *fakeSupervisor) Kill() error {
	f.mu.Lock()
	f.killCalls++
	f.mu.Unlock()
	f.exit(process.StateStopped)
	return nil
}

func (f *fakeSupervisor) exit(state process.State) {
	f.once.Do(func() {
		f.state.Set(state)
		close(f.done)
	})
}

type spawnRecorder struct {
	mu   sync.Mutex
	args [][]string
	sups []*fakeSupervisor
	err  error
}

func (r *spawnRecorder) spawn(args []string) (supervisor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	sup := newFakeSupervisor()
	r.args = append(r.args, args)
	r.sups = append(r.sups, sup)
	return sup, nil
}

func (r *spawnRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sups)
}

func (r *spawnRecorder) last() *fakeSupervisor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sups[len(r.sups)-1]
}

func (r *spawnRecorder) lastArgs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.args[len(r.args)-1]
}

func testSettings(t *testing.T) config.Settings {
	t.Helper()
	s := config.DefaultSettings()
	dir := t.TempDir()
	s.Storage.OutputDir = filepath.Join(dir, "out")
	s.Storage.DBPath = filepath.Join(dir, "library.db")
	s.Replay.CacheDir = filepath.Join(dir, "ring")
	return s
}

func newTestService(t *testing.T) (*Service, *spawnRecorder, *events.Bus) {
	t.Helper()
	bus := events.New()
	spawner := &spawnRecorder{}

	svc := New(testSettings(t), encoders.NewCatalog(time.Minute), bus, nil)
	svc.spawn = spawner.spawn
	svc.detectSize = func(ctx context.Context) (int, int, error) { return 1920, 1080, nil }
	svc.monitorName = func(ctx context.Context) (string, error) {
		return "alsa_output.analog-stereo.monitor", nil
	}
	return svc, spawner, bus
}

func TestStartRecordingSpawnsGrabCommand(t *testing.T) {
	svc, spawner, _ := newTestService(t)

	info, err := svc.StartRecording(context.Background(), StartOptions{})
	if err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if info.ID == "" || info.Path == "" {
		t.Errorf("info = %+v", info)
	}
	if !strings.HasPrefix(filepath.Base(info.Path), "recording_") {
		t.Errorf("output name = %q", filepath.Base(info.Path))
	}

	args := strings.Join(spawner.lastArgs(), " ")
	if !strings.Contains(args, "-f x11grab") {
		t.Errorf("args missing grab input: %s", args)
	}
	if !strings.Contains(args, "-f pulse -i alsa_output.analog-stereo.monitor") {
		t.Errorf("args missing audio input: %s", args)
	}
	if !strings.Contains(args, "-g 120") {
		t.Errorf("args missing keyframe interval: %s", args)
	}
}

func TestStartRecordingTwiceFails(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.StartRecording(ctx, StartOptions{}); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if _, err := svc.StartRecording(ctx, StartOptions{}); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("second start = %v, want ErrAlreadyRecording", err)
	}
}

func TestStopRecordingWhenIdle(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.StopRecording(context.Background()); !errors.Is(err, ErrNotRecording) {
		t.Errorf("stop = %v, want ErrNotRecording", err)
	}
}

func TestRecordingLifecycleEvents(t *testing.T) {
	svc, spawner, bus := newTestService(t)
	ctx := context.Background()

	started := make(chan events.RecordingStartedEvent, 1)
	stopped := make(chan events.RecordingStoppedEvent, 1)
	defer bus.Subscribe(func(e events.RecordingStartedEvent) { started <- e })()
	defer bus.Subscribe(func(e events.RecordingStoppedEvent) { stopped <- e })()

	info, err := svc.StartRecording(ctx, StartOptions{})
	if err != nil {
		t.Fatalf("StartRecording: %v", err)
	}

	select {
	case e := <-started:
		if e.ID != info.ID {
			t.Errorf("started event id = %q, want %q", e.ID, info.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no started event")
	}

	if _, err := svc.StopRecording(ctx); err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	if spawner.last().stopCalls != 1 {
		t.Errorf("graceful stop called %d times, want 1", spawner.last().stopCalls)
	}

	select {
	case e := <-stopped:
		if e.Path != info.Path {
			t.Errorf("stopped event path = %q, want %q", e.Path, info.Path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no stopped event")
	}
}

func TestCrashedRecordingFreesTheSlot(t *testing.T) {
	svc, spawner, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.StartRecording(ctx, StartOptions{}); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}

	spawner.last().exit(process.StateFailed)

	deadline := time.After(2 * time.Second)
	for svc.Status().Recording.Active {
		select {
		case <-deadline:
			t.Fatal("recording slot not cleared after crash")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// The slot is free for a fresh session.
	if _, err := svc.StartRecording(ctx, StartOptions{}); err != nil {
		t.Errorf("restart after crash: %v", err)
	}
}

func TestReplayLifecycle(t *testing.T) {
	svc, spawner, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.ReplayStart(ctx); err != nil {
		t.Fatalf("ReplayStart: %v", err)
	}
	if err := svc.ReplayStart(ctx); !errors.Is(err, ErrReplayActive) {
		t.Errorf("second start = %v, want ErrReplayActive", err)
	}

	args := strings.Join(spawner.lastArgs(), " ")
	if !strings.Contains(args, "-f segment") || !strings.Contains(args, "segments.csv") {
		t.Errorf("replay args missing segment output: %s", args)
	}

	if !svc.Status().Replay.Active {
		t.Error("replay not reported active")
	}

	if err := svc.ReplayStop(); err != nil {
		t.Fatalf("ReplayStop: %v", err)
	}
	if err := svc.ReplayStop(); !errors.Is(err, ErrReplayInactive) {
		t.Errorf("second stop = %v, want ErrReplayInactive", err)
	}
}

func TestReplaySaveRequiresSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.ReplaySave(context.Background(), 30); !errors.Is(err, ErrReplayInactive) {
		t.Errorf("save = %v, want ErrReplayInactive", err)
	}
}

func TestReplaySaveEmptyRing(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.ReplayStart(ctx); err != nil {
		t.Fatalf("ReplayStart: %v", err)
	}
	if _, err := svc.ReplaySave(ctx, 30); !errors.Is(err, replay.ErrNoSegments) {
		t.Errorf("save on empty ring = %v, want ErrNoSegments", err)
	}
}

func TestApplySettingsRestartsReplayWriter(t *testing.T) {
	svc, spawner, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.ReplayStart(ctx); err != nil {
		t.Fatalf("ReplayStart: %v", err)
	}
	if spawner.count() != 1 {
		t.Fatalf("spawn count = %d, want 1", spawner.count())
	}

	next := svc.Settings()
	next.Capture.FPS = 30
	svc.ApplySettings(ctx, next)

	if spawner.count() != 2 {
		t.Errorf("spawn count after reload = %d, want 2 (writer restarted)", spawner.count())
	}
	if got := svc.Settings().Capture.FPS; got != 30 {
		t.Errorf("settings FPS = %d, want 30", got)
	}

	// A reload that touches nothing capture-related leaves the writer alone.
	same := svc.Settings()
	svc.ApplySettings(ctx, same)
	if spawner.count() != 2 {
		t.Errorf("spawn count after no-op reload = %d, want 2", spawner.count())
	}
}

func TestProgressPumpPublishesEvents(t *testing.T) {
	svc, spawner, bus := newTestService(t)
	ctx := context.Background()

	progressCh := make(chan events.RecordingProgressEvent, 4)
	defer bus.Subscribe(func(e events.RecordingProgressEvent) { progressCh <- e })()

	if _, err := svc.StartRecording(ctx, StartOptions{}); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}

	spawner.last().progress.Set(process.Progress{Frame: 99, FPS: 60, Time: "00:00:01.65", Speed: "1.00x", SizeKB: 640})

	select {
	case e := <-progressCh:
		if e.Frame != 99 || e.Kind != "recording" {
			t.Errorf("progress event = %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no progress event")
	}
}

func TestStartOptionsOverrideSourceAndContainer(t *testing.T) {
	svc, spawner, _ := newTestService(t)

	quality := mustQuality(t, "lossless")
	src := captureRegion()
	info, err := svc.StartRecording(context.Background(), StartOptions{
		Source:    &src,
		Quality:   &quality,
		Container: "mp4",
	})
	if err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if filepath.Ext(info.Path) != ".mp4" {
		t.Errorf("path ext = %q, want .mp4", filepath.Ext(info.Path))
	}

	args := strings.Join(spawner.lastArgs(), " ")
	if !strings.Contains(args, ":0.0+100,200") {
		t.Errorf("region offset missing from args: %s", args)
	}
}
