// Package doctor runs read-only environment probes so users can see at a
// glance why a capture setup is not working. Every check is independent;
// a failing probe never stops the others.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/capturelab/grabnode/internal/audio"
	"github.com/capturelab/grabnode/internal/encoders"
)

// Check is one probe result.
type Check struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
}

// Report is the full diagnostics run.
type Report struct {
	Checks []Check `json:"checks"`
}

// Healthy reports whether every check passed.
func (r Report) Healthy() bool {
	for _, c := range r.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

// Options points the probes at the directories a session would use.
type Options struct {
	OutputDir string
	CacheDir  string
	Catalog   *encoders.Catalog
}

// Run executes all probes concurrently and returns them in a fixed order.
func Run(ctx context.Context, opts Options) Report {
	probes := []struct {
		name string
		fn   func(context.Context) Check
	}{
		{"ffmpeg", checkFFmpeg},
		{"ffprobe", checkFFprobe},
		{"x11grab", checkX11Grab},
		{"display", checkDisplay},
		{"audio", checkAudio},
		{"vaapi_nodes", checkRenderNodes},
		{"hardware_encoder", func(ctx context.Context) Check { return checkHardwareEncoder(ctx, opts.Catalog) }},
		{"output_dir", func(context.Context) Check { return checkWritableDir("output_dir", opts.OutputDir) }},
		{"cache_dir", func(context.Context) Check { return checkWritableDir("cache_dir", opts.CacheDir) }},
	}

	results := make([]Check, len(probes))
	g, gctx := errgroup.WithContext(ctx)
	for i, probe := range probes {
		i, probe := i, probe
		g.Go(func() error {
			results[i] = probe.fn(gctx)
			results[i].Name = probe.name
			return nil
		})
	}
	_ = g.Wait()

	return Report{Checks: results}
}

func checkFFmpeg(ctx context.Context) Check {
	out, err := exec.CommandContext(ctx, "ffmpeg", "-version").Output()
	if err != nil {
		return Check{Detail: "ffmpeg not found in PATH"}
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return Check{OK: true, Detail: strings.TrimSpace(line)}
}

func checkFFprobe(ctx context.Context) Check {
	if _, err := exec.CommandContext(ctx, "ffprobe", "-version").Output(); err != nil {
		return Check{Detail: "ffprobe not found in PATH"}
	}
	return Check{OK: true, Detail: "ffprobe present"}
}

func checkX11Grab(ctx context.Context) Check {
	out, err := exec.CommandContext(ctx, "ffmpeg", "-hide_banner", "-devices").Output()
	if err != nil {
		return Check{Detail: "could not list ffmpeg devices"}
	}
	if !strings.Contains(string(out), "x11grab") {
		return Check{Detail: "ffmpeg built without x11grab support"}
	}
	return Check{OK: true, Detail: "x11grab input device available"}
}

func checkDisplay(context.Context) Check {
	display := os.Getenv("DISPLAY")
	if display == "" {
		return Check{Detail: "DISPLAY is not set; no X11 session reachable"}
	}
	return Check{OK: true, Detail: "DISPLAY=" + display}
}

func checkAudio(ctx context.Context) Check {
	sources, err := audio.ListSources(ctx)
	if err != nil {
		return Check{Detail: "pactl not available: " + err.Error()}
	}
	if len(sources) == 0 {
		return Check{Detail: "sound server running but no capture sources found"}
	}
	monitors := 0
	for _, s := range sources {
		if s.Kind == audio.KindMonitor {
			monitors++
		}
	}
	return Check{OK: true, Detail: fmt.Sprintf("%d sources (%d desktop monitors)", len(sources), monitors)}
}

func checkRenderNodes(context.Context) Check {
	matches, _ := filepath.Glob("/dev/dri/renderD*")
	if len(matches) == 0 {
		return Check{Detail: "no DRM render nodes; VAAPI unavailable"}
	}
	return Check{OK: true, Detail: strings.Join(matches, ", ")}
}

// checkHardwareEncoder consults the cached catalog rather than probing
// fresh: the doctor should describe the state the recorder actually uses.
func checkHardwareEncoder(ctx context.Context, catalog *encoders.Catalog) Check {
	if catalog == nil {
		return Check{Detail: "encoder catalog not initialized"}
	}
	for _, e := range catalog.Get(ctx) {
		if e.Hardware() && e.Available {
			detail := string(e.Kind) + " (" + e.Name + ")"
			if e.Device != "" {
				detail += " on " + e.Device
			}
			return Check{OK: true, Detail: detail}
		}
	}
	return Check{Detail: "no hardware encoder passed its trial; falling back to libx264"}
}

func checkWritableDir(name, dir string) Check {
	if dir == "" {
		return Check{Detail: name + " not configured"}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Check{Detail: fmt.Sprintf("cannot create %s: %v", dir, err)}
	}
	probe := filepath.Join(dir, ".grabnode-doctor")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		return Check{Detail: fmt.Sprintf("%s not writable: %v", dir, err)}
	}
	_ = os.Remove(probe)
	return Check{OK: true, Detail: dir}
}
