package library

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/capturelab/grabnode/internal/process"
)

// MediaInfo is the subset of ffprobe output the library stores.
type MediaInfo struct {
	DurationSeconds float64
	Width           int
	Height          int
}

// ProbeMedia asks ffprobe for a file's duration and video dimensions.
func ProbeMedia(ctx context.Context, path string) (MediaInfo, error) {
	out, err := process.RunProbe(ctx, []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	})
	if err != nil {
		return MediaInfo{}, fmt.Errorf("probe %s: %w", path, err)
	}
	return parseProbeOutput([]byte(out))
}

// probeReport mirrors the ffprobe JSON shape. Duration arrives as a
// string inside format; dimensions come from the first video stream.
type probeReport struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

func parseProbeOutput(data []byte) (MediaInfo, error) {
	var report probeReport
	if err := json.Unmarshal(data, &report); err != nil {
		return MediaInfo{}, fmt.Errorf("decode probe output: %w", err)
	}

	var info MediaInfo
	info.DurationSeconds, _ = strconv.ParseFloat(report.Format.Duration, 64)
	for _, stream := range report.Streams {
		if stream.CodecType == "video" {
			info.Width = stream.Width
			info.Height = stream.Height
			break
		}
	}
	return info, nil
}
