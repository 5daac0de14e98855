package process

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/capturelab/grabnode/internal/logging"
)

const (
	ffmpegBinary  = "ffmpeg"
	ffprobeBinary = "ffprobe"

	defaultGracefulTimeout = 10 * time.Second
	defaultKillTimeout     = 5 * time.Second
)

// ErrFFmpegNotFound indicates the ffmpeg binary is missing from PATH.
var ErrFFmpegNotFound = errors.New("ffmpeg binary not found in PATH")

// ErrFFprobeNotFound indicates the ffprobe binary is missing from PATH.
var ErrFFprobeNotFound = errors.New("ffprobe binary not found in PATH")

// LogParser extracts a log level and message from a stderr line, so encoder
// output lands at sensible levels instead of all-info.
type LogParser func(line string) (level, msg string)

// Supervisor owns a single spawned encoder process. Create one per spawn
// and discard it after the process exits.
type Supervisor struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser

	logger     *slog.Logger
	procLogger *slog.Logger
	logParser  LogParser

	stateMu  sync.Mutex
	state    *Slot[State]
	progress *Slot[Progress]

	stopRequested   atomic.Bool
	gracefulTimeout time.Duration
	killTimeout     time.Duration

	done     chan struct{}
	exitCode int
	waitErr  error
}

// SpawnOption adjusts a Supervisor before its process starts.
type SpawnOption func(*Supervisor)

// WithStderrLog routes the process's stderr lines to the given logger,
// using parser to pick levels. Without it, lines land on the package
// logger at debug.
func WithStderrLog(logger *slog.Logger, parser LogParser) SpawnOption {
	return func(s *Supervisor) {
		s.procLogger = logger
		s.logParser = parser
	}
}

// Spawn starts the encoder with the given argument list. The child's stdin
// stays writable for the quit command, stdout is discarded, and stderr
// feeds the state and progress slots until the process exits.
func Spawn(args []string, opts ...SpawnOption) (*Supervisor, error) {
	return spawn(ffmpegBinary, args, opts...)
}

func spawn(binary string, args []string, opts ...SpawnOption) (*Supervisor, error) {
	s := &Supervisor{
		logger:          logging.GetLogger("process"),
		state:           NewSlot(StateStarting),
		progress:        NewSlot(Progress{}),
		gracefulTimeout: defaultGracefulTimeout,
		killTimeout:     defaultKillTimeout,
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	cmd := exec.Command(binary, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return nil, ErrFFmpegNotFound
		}
		return nil, fmt.Errorf("start %s: %w", binary, err)
	}

	s.cmd = cmd
	s.stdin = stdin
	s.logger.Info("Process started", "binary", binary, "pid", cmd.Process.Pid)
	s.logger.Debug("Process arguments", "args", strings.Join(args, " "))

	go s.readStderr(stderr)

	return s, nil
}

// readStderr is the only writer of the state and progress slots. It ends
// when the child closes its stderr, which happens exactly at process exit,
// and then reaps the child.
func (s *Supervisor) readStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 512*1024)
	scanner.Split(scanStatusLines)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		s.observeLine(line)
	}

	s.finish(s.cmd.Wait())
}

func (s *Supervisor) observeLine(line string) {
	if strings.Contains(line, "Output #0") || strings.Contains(line, "frame=") {
		s.transition(StateRunning)
	}

	if p, ok := ParseProgress(line); ok {
		s.progress.Set(p)
		s.stderrLogger().Debug(line)
		return
	}

	s.logLine(line)
}

func (s *Supervisor) stderrLogger() *slog.Logger {
	if s.procLogger != nil {
		return s.procLogger
	}
	return s.logger
}

func (s *Supervisor) logLine(line string) {
	logger := s.stderrLogger()
	if s.logParser == nil {
		logger.Debug(line)
		return
	}

	level, msg := s.logParser(line)
	switch level {
	case "panic", "fatal", "error":
		logger.Error(msg)
	case "warning":
		logger.Warn(msg)
	case "verbose", "debug", "trace":
		logger.Debug(msg)
	default:
		logger.Info(msg)
	}
}

// finish records the exit result and publishes the terminal state. Any exit
// after a stop request counts as stopped: ffmpeg's interactive quit path
// routinely exits non-zero without anything having gone wrong.
func (s *Supervisor) finish(waitErr error) {
	final := StateStopped

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
	case errors.As(waitErr, &exitErr):
		if !s.stopRequested.Load() && exitErr.ExitCode() != 0 {
			final = StateFailed
		}
	default:
		s.waitErr = waitErr
		final = StateFailed
	}

	s.exitCode = exitCodeFromError(waitErr)
	s.transition(final)
	close(s.done)

	s.logger.Info("Process exited", "exit_code", s.exitCode, "state", string(final))
}

// transition applies a state change if the machine allows it: terminal
// states are final, and running is only reachable from starting so a late
// progress line cannot undo a stop request.
func (s *Supervisor) transition(to State) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	cur := s.state.Get()
	if cur.Terminal() || cur == to {
		return
	}
	if to == StateRunning && cur != StateStarting {
		return
	}
	s.state.Set(to)
}

// StopGraceful asks the encoder to finish by writing the interactive quit
// command to its stdin, then waits up to the graceful timeout for exit.
// A failed write or a timeout escalates to Kill.
func (s *Supervisor) StopGraceful() error {
	select {
	case <-s.done:
		return nil
	default:
	}

	s.stopRequested.Store(true)
	s.transition(StateStopping)

	if _, err := io.WriteString(s.stdin, "q"); err != nil {
		s.logger.Warn("Quit command write failed, killing", "error", err)
		return s.Kill()
	}

	select {
	case <-s.done:
		return s.waitErr
	case <-time.After(s.gracefulTimeout):
		s.logger.Warn("Process ignored quit command, killing", "timeout", s.gracefulTimeout)
		return s.Kill()
	}
}

// Kill forcibly terminates the process. Killing an already-exited process
// is a no-op success.
func (s *Supervisor) Kill() error {
	s.stopRequested.Store(true)
	s.transition(StateStopping)

	select {
	case <-s.done:
		return nil
	default:
	}

	if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		s.logger.Error("Failed to kill process", "error", err)
	}

	select {
	case <-s.done:
	case <-time.After(s.killTimeout):
		s.logger.Error("Process did not exit after kill signal")
	}
	return nil
}

// State returns the latest published state.
func (s *Supervisor) State() State {
	return s.state.Get()
}

// StateChanges exposes the state slot for observation.
func (s *Supervisor) StateChanges() *Slot[State] {
	return s.state
}

// Progress returns the latest progress snapshot.
func (s *Supervisor) Progress() Progress {
	return s.progress.Get()
}

// ProgressChanges exposes the progress slot for observation.
func (s *Supervisor) ProgressChanges() *Slot[Progress] {
	return s.progress
}

// Done is closed once the process exit has been observed.
func (s *Supervisor) Done() <-chan struct{} {
	return s.done
}

// ExitCode returns the process exit code. Valid only after Done is closed.
func (s *Supervisor) ExitCode() int {
	return s.exitCode
}

// PID returns the child's process id.
func (s *Supervisor) PID() int {
	return s.cmd.Process.Pid
}

// exitCodeFromError extracts an exit code from a Wait error: 0 for nil,
// the child's code for ExitError, 1 otherwise.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

// scanStatusLines splits on \n or \r: ffmpeg redraws its status line with
// bare carriage returns, so newline-only splitting would batch progress
// updates until exit.
func scanStatusLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
