package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// RunError reports a short-lived invocation that exited non-zero, keeping
// the encoder's own error text.
type RunError struct {
	Binary   string
	ExitCode int
	Stderr   string
}

func (e *RunError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("%s exited with code %d", e.Binary, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Binary, e.ExitCode, msg)
}

// Run executes ffmpeg with the given arguments and waits for completion.
// Returns captured stderr on success; failures carry the stderr text in a
// *RunError. Used for trial encodes, concatenation, and thumbnails.
func Run(ctx context.Context, args []string) (string, error) {
	_, stderr, err := runCapture(ctx, ffmpegBinary, args, ErrFFmpegNotFound)
	return stderr, err
}

// RunProbe executes ffprobe with the given arguments and returns its stdout.
func RunProbe(ctx context.Context, args []string) (string, error) {
	stdout, _, err := runCapture(ctx, ffprobeBinary, args, ErrFFprobeNotFound)
	return stdout, err
}

func runCapture(ctx context.Context, binary string, args []string, notFound error) (stdout, stderr string, err error) {
	cmd := exec.CommandContext(ctx, binary, args...)

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	stdout = outBuf.String()
	stderr = errBuf.String()

	if runErr == nil {
		return stdout, stderr, nil
	}

	if errors.Is(runErr, exec.ErrNotFound) || errors.Is(runErr, os.ErrNotExist) {
		return stdout, stderr, notFound
	}
	if ctx.Err() != nil {
		return stdout, stderr, fmt.Errorf("%s: %w", binary, ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return stdout, stderr, &RunError{
			Binary:   binary,
			ExitCode: exitErr.ExitCode(),
			Stderr:   stderr,
		}
	}
	return stdout, stderr, fmt.Errorf("%s: %w", binary, runErr)
}
