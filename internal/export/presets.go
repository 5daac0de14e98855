// Package export re-encodes finished recordings into delivery formats.
// Presets fix the target shape (scale, quality, container); the pipeline
// assembles the encode arguments and supervises the conversion.
package export

import (
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

// Preset is one delivery target. VideoFilter is an ffmpeg -vf chain
// applied before encoding; empty keeps the source geometry.
type Preset struct {
	Name         string `toml:"-" json:"name"`
	Description  string `toml:"description" json:"description"`
	VideoFilter  string `toml:"video_filter" json:"video_filter,omitempty"`
	CRF          int    `toml:"crf" json:"crf"`
	SpeedPreset  string `toml:"speed_preset" json:"speed_preset"`
	FPS          int    `toml:"fps" json:"fps,omitempty"`
	AudioBitrate string `toml:"audio_bitrate" json:"audio_bitrate"`
	Container    string `toml:"container" json:"container"`
}

// BuiltinPresets are the delivery targets shipped with the recorder.
func BuiltinPresets() map[string]Preset {
	return map[string]Preset{
		"high_quality": {
			Name:         "high_quality",
			Description:  "Near-lossless archive copy",
			CRF:          18,
			SpeedPreset:  "slow",
			AudioBitrate: "256k",
			Container:    "mp4",
		},
		"youtube": {
			Name:         "youtube",
			Description:  "1080p upload master",
			VideoFilter:  "scale=-2:1080",
			CRF:          20,
			SpeedPreset:  "medium",
			AudioBitrate: "192k",
			Container:    "mp4",
		},
		"shorts": {
			Name:         "shorts",
			Description:  "Vertical 1080x1920 crop",
			VideoFilter:  "crop=ih*9/16:ih,scale=1080:1920",
			CRF:          21,
			SpeedPreset:  "medium",
			AudioBitrate: "192k",
			Container:    "mp4",
		},
		"trailer": {
			Name:         "trailer",
			Description:  "Compact 720p preview",
			VideoFilter:  "scale=-2:720",
			CRF:          23,
			SpeedPreset:  "fast",
			FPS:          30,
			AudioBitrate: "128k",
			Container:    "mp4",
		},
	}
}

// LoadPresets merges user-defined presets from a TOML file over the
// built-ins. Users can override a built-in by reusing its name. An empty
// path or a missing file yields just the built-ins.
func LoadPresets(path string) (map[string]Preset, error) {
	presets := BuiltinPresets()
	if path == "" {
		return presets, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return presets, nil
		}
		return nil, fmt.Errorf("read presets: %w", err)
	}

	var user map[string]Preset
	if err := toml.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}

	for name, p := range user {
		p.Name = name
		if p.SpeedPreset == "" {
			p.SpeedPreset = "medium"
		}
		if p.AudioBitrate == "" {
			p.AudioBitrate = "192k"
		}
		if p.Container == "" {
			p.Container = "mp4"
		}
		presets[name] = p
	}
	return presets, nil
}

// PresetNames returns the preset names sorted for stable listings.
func PresetNames(presets map[string]Preset) []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
