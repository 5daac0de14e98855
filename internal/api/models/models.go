// Package models holds the request and response shapes of the HTTP API.
package models

import (
	"github.com/capturelab/grabnode/internal/audio"
	"github.com/capturelab/grabnode/internal/capture"
	"github.com/capturelab/grabnode/internal/doctor"
	"github.com/capturelab/grabnode/internal/encoders"
	"github.com/capturelab/grabnode/internal/export"
	"github.com/capturelab/grabnode/internal/library"
	"github.com/capturelab/grabnode/internal/logging"
	"github.com/capturelab/grabnode/internal/recorder"
)

// HealthResponse reports API liveness.
type HealthResponse struct {
	Body struct {
		Status string `json:"status" example:"ok" doc:"Health status"`
	}
}

// VersionResponse carries build metadata.
type VersionResponse struct {
	Body VersionData
}

// VersionData is the version payload.
type VersionData struct {
	Version   string `json:"version" example:"1.2.0" doc:"Application version"`
	Commit    string `json:"commit" doc:"Git commit hash"`
	BuildDate string `json:"build_date" doc:"Build timestamp"`
	GoVersion string `json:"go_version" doc:"Go toolchain version"`
	Platform  string `json:"platform" example:"linux/amd64" doc:"Build platform"`
}

// StartRecordingRequest selects what to capture. All fields are optional;
// the configured defaults fill the gaps.
type StartRecordingRequest struct {
	Body struct {
		Mode      string `json:"mode,omitempty" example:"fullscreen" doc:"Capture mode: fullscreen, window, or region; default fullscreen"`
		WindowID  string `json:"window_id,omitempty" doc:"X11 window id for window mode"`
		X         int    `json:"x,omitempty" doc:"Region origin X"`
		Y         int    `json:"y,omitempty" doc:"Region origin Y"`
		Width     int    `json:"width,omitempty" doc:"Region width"`
		Height    int    `json:"height,omitempty" doc:"Region height"`
		Quality   string `json:"quality,omitempty" example:"high" doc:"Quality preset or quantizer value"`
		Container string `json:"container,omitempty" example:"mkv" doc:"Output container"`
	}
}

// RecordingResponse describes a started or finished recording.
type RecordingResponse struct {
	Body recorder.RecordingInfo
}

// StatusResponse is the live session view.
type StatusResponse struct {
	Body recorder.Status
}

// SaveReplayRequest asks for the trailing window of the replay ring.
type SaveReplayRequest struct {
	Body struct {
		Seconds int `json:"seconds,omitempty" minimum:"0" doc:"Clip length; 0 takes the configured default"`
	}
}

// EncodersResponse lists the probed encoder catalog.
type EncodersResponse struct {
	Body struct {
		Encoders []encoders.Encoder `json:"encoders" doc:"Catalog in preference order"`
		Best     string             `json:"best" example:"h264_vaapi" doc:"Encoder the recorder would pick"`
	}
}

// DisplayResponse reports the reachable X11 display.
type DisplayResponse struct {
	Body struct {
		Display string `json:"display" example:":0" doc:"X11 display"`
		Width   int    `json:"width" doc:"Root window width"`
		Height  int    `json:"height" doc:"Root window height"`
	}
}

// WindowsResponse lists the window manager's clients.
type WindowsResponse struct {
	Body struct {
		Windows []capture.Window `json:"windows"`
	}
}

// AudioSourcesResponse lists PulseAudio capture sources.
type AudioSourcesResponse struct {
	Body struct {
		Sources []audio.Source `json:"sources"`
	}
}

// RecordingsResponse lists library entries.
type RecordingsResponse struct {
	Body struct {
		Recordings []library.Recording `json:"recordings"`
	}
}

// RecordingDetailResponse is one library entry.
type RecordingDetailResponse struct {
	Body library.Recording
}

// ExportRequest submits an export job.
type ExportRequest struct {
	Body struct {
		ID     string  `json:"id" doc:"Library recording id to export"`
		Preset string  `json:"preset" example:"youtube" doc:"Export preset name"`
		Start  float64 `json:"start,omitempty" minimum:"0" doc:"Trim-in point in seconds"`
		Length float64 `json:"length,omitempty" minimum:"0" doc:"Trimmed duration in seconds"`
	}
}

// ExportResponse reports the scheduled export.
type ExportResponse struct {
	Body struct {
		Output string `json:"output" doc:"Path the export is written to"`
	}
}

// ExportPresetsResponse lists the available presets.
type ExportPresetsResponse struct {
	Body struct {
		Presets []export.Preset `json:"presets"`
	}
}

// DoctorResponse is the diagnostics report.
type DoctorResponse struct {
	Body struct {
		Healthy bool           `json:"healthy" doc:"True when every check passed"`
		Checks  []doctor.Check `json:"checks"`
	}
}

// LogsResponse returns buffered log entries.
type LogsResponse struct {
	Body struct {
		Entries []logging.Entry `json:"entries"`
	}
}
