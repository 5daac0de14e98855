package events

// Event type constants for kelindar/event.
const (
	TypeRecordingStarted uint32 = iota + 1
	TypeRecordingStopped
	TypeRecordingProgress
	TypeReplayStarted
	TypeReplayStopped
	TypeReplaySaved
	TypeExportFinished
	TypeLogEntry
	TypeConfigReloaded
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// RecordingStartedEvent is published when a recording session begins writing.
type RecordingStartedEvent struct {
	ID        string `json:"id" example:"9f3c2a1e" doc:"Recording session identifier"`
	Path      string `json:"path" example:"/home/user/Videos/grabnode/recording_2025-01-27_10-30-00.mkv" doc:"Output file path"`
	Encoder   string `json:"encoder" example:"h264_vaapi" doc:"Encoder selected for the session"`
	Display   string `json:"display" example:":0" doc:"X11 display being captured"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for RecordingStartedEvent.
func (e RecordingStartedEvent) Type() uint32 { return TypeRecordingStarted }

// RecordingStoppedEvent is published once a recording has been finalized.
type RecordingStoppedEvent struct {
	ID              string  `json:"id" example:"9f3c2a1e" doc:"Recording session identifier"`
	Path            string  `json:"path" doc:"Output file path"`
	DurationSeconds float64 `json:"duration_seconds" example:"93.5" doc:"Recorded duration in seconds"`
	SizeBytes       int64   `json:"size_bytes" example:"104857600" doc:"Output file size in bytes"`
	Timestamp       string  `json:"timestamp" example:"2025-01-27T10:31:33Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for RecordingStoppedEvent.
func (e RecordingStoppedEvent) Type() uint32 { return TypeRecordingStopped }

// RecordingProgressEvent carries a decoded ffmpeg status line for an active
// session. Kind distinguishes the direct recording from the replay writer.
type RecordingProgressEvent struct {
	Kind   string  `json:"kind" example:"recording" doc:"Session kind: recording or replay"`
	Frame  int64   `json:"frame" example:"1234" doc:"Frames encoded so far"`
	FPS    float64 `json:"fps" example:"60.0" doc:"Current encoding rate"`
	Time   string  `json:"time" example:"00:00:20.57" doc:"Encoded stream position"`
	Speed  string  `json:"speed" example:"1.0x" doc:"Encoding speed relative to realtime"`
	SizeKB int64   `json:"size_kb" example:"10240" doc:"Output size in kilobytes"`
}

// Type returns the event type identifier for RecordingProgressEvent.
func (e RecordingProgressEvent) Type() uint32 { return TypeRecordingProgress }

// ReplayStartedEvent is published when the replay ring writer starts.
type ReplayStartedEvent struct {
	Dir            string `json:"dir" example:"/dev/shm/grabnode/replay" doc:"Segment ring directory"`
	SegmentSeconds int    `json:"segment_seconds" example:"3" doc:"Duration of each segment"`
	MaxSegments    int    `json:"max_segments" example:"40" doc:"Segments kept before the ring wraps"`
	Timestamp      string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ReplayStartedEvent.
func (e ReplayStartedEvent) Type() uint32 { return TypeReplayStarted }

// ReplayStoppedEvent is published when the replay ring writer shuts down.
type ReplayStoppedEvent struct {
	Timestamp string `json:"timestamp" example:"2025-01-27T10:45:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ReplayStoppedEvent.
func (e ReplayStoppedEvent) Type() uint32 { return TypeReplayStopped }

// ReplaySavedEvent is published after a replay clip has been materialized.
type ReplaySavedEvent struct {
	ID        string  `json:"id" example:"b81d44c0" doc:"Saved clip identifier"`
	Path      string  `json:"path" example:"/home/user/Videos/grabnode/replay_2025-01-27_10-40-00.mkv" doc:"Saved clip path"`
	Seconds   float64 `json:"seconds" example:"30" doc:"Requested clip length in seconds"`
	Timestamp string  `json:"timestamp" example:"2025-01-27T10:40:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ReplaySavedEvent.
func (e ReplaySavedEvent) Type() uint32 { return TypeReplaySaved }

// ExportFinishedEvent is published when an export job completes, whether it
// succeeded or not. Error is empty on success.
type ExportFinishedEvent struct {
	Source    string `json:"source" doc:"Input file path"`
	Output    string `json:"output" doc:"Exported file path"`
	Preset    string `json:"preset" example:"youtube" doc:"Export preset applied"`
	Error     string `json:"error,omitempty" doc:"Failure detail, empty when the export succeeded"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:50:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ExportFinishedEvent.
func (e ExportFinishedEvent) Type() uint32 { return TypeExportFinished }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number for deduplication"`
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"recorder" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }

// ConfigReloadedEvent is published after the configuration file has been
// re-read and applied.
type ConfigReloadedEvent struct {
	Path      string `json:"path" example:"/home/user/.config/grabnode/config.toml" doc:"Configuration file path"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:35:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ConfigReloadedEvent.
func (e ConfigReloadedEvent) Type() uint32 { return TypeConfigReloaded }
