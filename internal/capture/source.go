package capture

import (
	"fmt"
	"strconv"
)

// Mode selects which part of the display a source grabs.
type Mode string

const (
	ModeFullscreen Mode = "fullscreen"
	ModeWindow     Mode = "window"
	ModeRegion     Mode = "region"
)

// Source is one x11grab input: a whole display, a single window, or a
// cropped region. Built by the session layer, consumed read-only by the
// command synthesis.
type Source struct {
	Mode     Mode   `json:"mode"`
	Display  string `json:"display"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	X        int    `json:"x,omitempty"`
	Y        int    `json:"y,omitempty"`
	WindowID string `json:"window_id,omitempty"`
	FPS      int    `json:"fps"`
}

// NewFullscreen grabs the entire root window of a display.
func NewFullscreen(display string, width, height, fps int) Source {
	return Source{Mode: ModeFullscreen, Display: display, Width: width, Height: height, FPS: fps}
}

// NewWindow grabs a single window by its X11 window id.
func NewWindow(display, windowID string, fps int) Source {
	return Source{Mode: ModeWindow, Display: display, WindowID: windowID, FPS: fps}
}

// NewRegion grabs a fixed rectangle offset from the display origin.
func NewRegion(display string, x, y, width, height, fps int) Source {
	return Source{Mode: ModeRegion, Display: display, X: x, Y: y, Width: width, Height: height, FPS: fps}
}

// InputArgs returns the x11grab input flags for this source. Flag order and
// the ".0" screen suffix are part of ffmpeg's x11grab grammar.
func (s Source) InputArgs() []string {
	args := []string{"-f", "x11grab", "-framerate", strconv.Itoa(s.FPS)}

	switch s.Mode {
	case ModeWindow:
		return append(args, "-window_id", s.WindowID, "-i", s.Display+".0")
	case ModeRegion:
		return append(args,
			"-video_size", fmt.Sprintf("%dx%d", s.Width, s.Height),
			"-i", fmt.Sprintf("%s.0+%d,%d", s.Display, s.X, s.Y))
	default:
		return append(args,
			"-video_size", fmt.Sprintf("%dx%d", s.Width, s.Height),
			"-i", s.Display+".0")
	}
}

func (s Source) String() string {
	switch s.Mode {
	case ModeWindow:
		return fmt.Sprintf("window %s on %s @%dfps", s.WindowID, s.Display, s.FPS)
	case ModeRegion:
		return fmt.Sprintf("region %dx%d+%d,%d on %s @%dfps", s.Width, s.Height, s.X, s.Y, s.Display, s.FPS)
	default:
		return fmt.Sprintf("fullscreen %dx%d on %s @%dfps", s.Width, s.Height, s.Display, s.FPS)
	}
}
