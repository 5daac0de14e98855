// Package audio enumerates PulseAudio capture sources by parsing pactl
// output. Desktop audio is captured from monitor sources (the loopback of
// an output sink); everything else is treated as a microphone input.
package audio

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/capturelab/grabnode/internal/logging"
)

// ErrNoMonitor indicates no desktop-audio monitor source exists.
var ErrNoMonitor = errors.New("no desktop audio monitor source found")

// Kind distinguishes desktop-audio monitors from microphone inputs.
type Kind string

const (
	KindMonitor Kind = "monitor"
	KindInput   Kind = "input"
)

// Source is one PulseAudio capture source. Name is the value handed to
// the encoder's pulse input.
type Source struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// ListSources asks pactl for the capture sources. A failing pactl (sound
// server not running) yields an empty list rather than an error; a
// missing pactl binary is an error for the diagnostics report to surface.
func ListSources(ctx context.Context) ([]Source, error) {
	out, err := exec.CommandContext(ctx, "pactl", "list", "short", "sources").Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, nil
		}
		return nil, fmt.Errorf("pactl: %w", err)
	}

	sources := parseSources(string(out))
	logging.GetLogger("audio").Debug("Enumerated audio sources", "count", len(sources))
	return sources, nil
}

// DefaultMonitor returns the first desktop-audio monitor source.
func DefaultMonitor(ctx context.Context) (string, error) {
	sources, err := ListSources(ctx)
	if err != nil {
		return "", err
	}
	for _, s := range sources {
		if s.Kind == KindMonitor {
			return s.Name, nil
		}
	}
	return "", ErrNoMonitor
}

// parseSources decodes "pactl list short sources" lines: tab-separated
// index, name, driver, sample spec, state. Names containing ".monitor"
// are sink loopbacks.
func parseSources(out string) []Source {
	var sources []Source
	for _, line := range strings.Split(out, "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			continue
		}
		name := parts[1]
		kind := KindInput
		if strings.Contains(name, ".monitor") {
			kind = KindMonitor
		}
		sources = append(sources, Source{ID: parts[0], Name: name, Kind: kind})
	}
	return sources
}
