package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/capturelab/grabnode/internal/logging"
)

// ErrNoDisplay indicates no X11 session is reachable from the environment.
var ErrNoDisplay = errors.New("DISPLAY is not set")

const (
	fallbackWidth  = 1920
	fallbackHeight = 1080
)

// DisplayFromEnv returns the X11 display string of the current session.
func DisplayFromEnv() (string, error) {
	if d := os.Getenv("DISPLAY"); d != "" {
		return d, nil
	}
	return "", ErrNoDisplay
}

// DetectDisplaySize queries the root window dimensions, trying xdpyinfo
// first and falling back to xrandr. When both tools run but neither output
// parses, a 1080p fallback is returned rather than an error.
func DetectDisplaySize(ctx context.Context) (width, height int, err error) {
	if out, xerr := exec.CommandContext(ctx, "xdpyinfo").Output(); xerr == nil {
		if w, h, ok := parseDimensionsLine(string(out)); ok {
			logging.GetLogger("capture").Debug("Detected display size", "width", w, "height", h, "tool", "xdpyinfo")
			return w, h, nil
		}
	}

	out, xerr := exec.CommandContext(ctx, "xrandr", "--current").Output()
	if xerr != nil {
		return 0, 0, fmt.Errorf("xrandr: %w", xerr)
	}
	if w, h, ok := parseConnectedResolution(string(out)); ok {
		logging.GetLogger("capture").Debug("Detected display size", "width", w, "height", h, "tool", "xrandr")
		return w, h, nil
	}
	return fallbackWidth, fallbackHeight, nil
}

// Window is one entry of the window manager's client list.
type Window struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ListWindows returns the window manager's current client list.
func ListWindows(ctx context.Context) ([]Window, error) {
	out, err := exec.CommandContext(ctx, "wmctrl", "-l").Output()
	if err != nil {
		return nil, fmt.Errorf("wmctrl: %w", err)
	}
	return parseWindowList(string(out)), nil
}

// ActiveWindow returns the id of the currently focused window.
func ActiveWindow(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "xdotool", "getactivewindow").Output()
	if err != nil {
		return "", fmt.Errorf("xdotool getactivewindow: %w", err)
	}
	id := strings.TrimSpace(string(out))
	if id == "" {
		return "", errors.New("xdotool returned no window id")
	}
	return id, nil
}

// SelectWindow blocks until the user clicks a window, returning its id.
func SelectWindow(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "xdotool", "selectwindow").Output()
	if err != nil {
		return "", fmt.Errorf("xdotool selectwindow: %w", err)
	}
	id := strings.TrimSpace(string(out))
	if id == "" {
		return "", errors.New("xdotool returned no window id")
	}
	return id, nil
}

// parseDimensionsLine finds the xdpyinfo root dimensions, a line like
// "dimensions:    1920x1080 pixels (508x285 millimeters)".
func parseDimensionsLine(out string) (int, int, bool) {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "dimensions:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if w, h, ok := parseResolution(fields[1]); ok {
			return w, h, true
		}
	}
	return 0, 0, false
}

// parseConnectedResolution finds the active mode of a connected xrandr
// output, a line like "eDP-1 connected primary 1920x1080+0+0 (...)".
func parseConnectedResolution(out string) (int, int, bool) {
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, " connected") {
			continue
		}
		for _, word := range strings.Fields(line) {
			if !strings.Contains(word, "x") || !strings.Contains(word, "+") {
				continue
			}
			res, _, _ := strings.Cut(word, "+")
			if w, h, ok := parseResolution(res); ok {
				return w, h, true
			}
		}
	}
	return 0, 0, false
}

func parseResolution(s string) (int, int, bool) {
	ws, hs, ok := strings.Cut(s, "x")
	if !ok {
		return 0, 0, false
	}
	w, err := strconv.Atoi(ws)
	if err != nil || w <= 0 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

// parseWindowList decodes "wmctrl -l" lines: id, desktop, host, then the
// title taking the rest of the line.
func parseWindowList(out string) []Window {
	var windows []Window
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		windows = append(windows, Window{
			ID:    fields[0],
			Title: strings.Join(fields[3:], " "),
		})
	}
	return windows
}
