package export

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/capturelab/grabnode/internal/events"
	"github.com/capturelab/grabnode/internal/ffmpeg"
	"github.com/capturelab/grabnode/internal/logging"
	"github.com/capturelab/grabnode/internal/process"
)

// Job is one export request.
type Job struct {
	Source string  `json:"source"`
	Output string  `json:"output"`
	Preset string  `json:"preset"`
	Start  float64 `json:"start,omitempty"`  // trim-in point in seconds
	Length float64 `json:"length,omitempty"` // trimmed duration; 0 keeps the rest
}

// Pipeline runs export jobs through the external encoder.
type Pipeline struct {
	presets map[string]Preset
	bus     *events.Bus
	logger  *slog.Logger

	run func(ctx context.Context, args []string) (string, error)
}

// NewPipeline creates a pipeline over the given preset set. bus may be
// nil for CLI use; completion events are then skipped.
func NewPipeline(presets map[string]Preset, bus *events.Bus) *Pipeline {
	return &Pipeline{
		presets: presets,
		bus:     bus,
		logger:  logging.GetLogger("export"),
		run:     process.Run,
	}
}

// Presets returns the pipeline's preset set.
func (p *Pipeline) Presets() map[string]Preset {
	return p.presets
}

// Export re-encodes the job's source per its preset, blocking until the
// encoder finishes. The completion event fires on both outcomes so UI
// listeners always see the job settle.
func (p *Pipeline) Export(ctx context.Context, job Job) error {
	preset, ok := p.presets[job.Preset]
	if !ok {
		return fmt.Errorf("unknown export preset %q", job.Preset)
	}

	args := Args(job, preset)
	p.logger.Info("Export started", "source", job.Source, "output", job.Output, "preset", job.Preset)

	_, err := p.run(ctx, args)
	p.publishFinished(job, err)
	if err != nil {
		return fmt.Errorf("export %s: %w", job.Source, err)
	}

	p.logger.Info("Export finished", "output", job.Output)
	return nil
}

func (p *Pipeline) publishFinished(job Job, err error) {
	if p.bus == nil {
		return
	}
	ev := events.ExportFinishedEvent{
		Source:    job.Source,
		Output:    job.Output,
		Preset:    job.Preset,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	p.bus.Publish(ev)
}

// Args assembles the encode command for a job: trim-in before the input
// (fast keyframe seek), trim length after it, the preset's filter chain,
// h264/aac with loudness normalization, and a streamable mp4 header when
// the container is mp4.
func Args(job Job, preset Preset) []string {
	args := []string{"-y"}

	if job.Start > 0 {
		args = append(args, "-ss", formatSeconds(job.Start))
	}
	args = append(args, "-i", job.Source)
	if job.Length > 0 {
		args = append(args, "-t", formatSeconds(job.Length))
	}

	filter := preset.VideoFilter
	if preset.FPS > 0 {
		if filter != "" {
			filter += ","
		}
		filter += "fps=" + strconv.Itoa(preset.FPS)
	}
	if filter != "" {
		args = append(args, "-vf", filter)
	}

	args = append(args,
		"-c:v", "libx264",
		"-preset", preset.SpeedPreset,
		"-crf", strconv.Itoa(preset.CRF),
		"-c:a", "aac",
		"-b:a", preset.AudioBitrate,
		"-af", "loudnorm",
	)

	if preset.Container == "mp4" {
		args = append(args, "-movflags", "+faststart")
	}

	return append(args, "-f", ffmpeg.Muxer(preset.Container), job.Output)
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}
