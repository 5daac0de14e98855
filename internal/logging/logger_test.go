package logging

import (
	"context"
	"log/slog"
	"strings"
	"testing"
)

func resetState(t *testing.T) {
	t.Helper()
	mu.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	moduleHandlers = make(map[string]*swapHandler)
	globalConfig = Config{}
	configured = false
	logBuffer = nil
	mu.Unlock()
}

func TestModuleLevelOverride(t *testing.T) {
	resetState(t)

	Configure(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"process": "debug",
			"api":     "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"process", true, true, true},
		{"api", false, false, true},
		{"other", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			handler := GetLogger(tt.module).Handler()
			ctx := context.Background()

			if got := handler.Enabled(ctx, slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("module %q: Debug enabled = %v, want %v", tt.module, got, tt.wantDebug)
			}
			if got := handler.Enabled(ctx, slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("module %q: Info enabled = %v, want %v", tt.module, got, tt.wantInfo)
			}
			if got := handler.Enabled(ctx, slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("module %q: Warn enabled = %v, want %v", tt.module, got, tt.wantWarn)
			}
		})
	}
}

func TestGetLoggerBeforeConfigure(t *testing.T) {
	resetState(t)

	loggerBefore := GetLogger("process")
	handlerBefore := loggerBefore.Handler()

	if handlerBefore.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("logger created before Configure should not have debug enabled")
	}

	Configure(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"process": "debug",
		},
	})

	loggerAfter := GetLogger("process")
	if loggerBefore != loggerAfter {
		t.Error("logger should be cached across Configure")
	}
	if !loggerAfter.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("cached logger should have debug enabled after Configure")
	}
}

func TestBufferBeforeConfigure(t *testing.T) {
	resetState(t)

	ring := Buffer()
	if ring == nil {
		t.Fatal("Buffer() returned nil before Configure")
	}
	if got := ring.Snapshot(); got != nil {
		t.Errorf("Snapshot() = %v, want nil for empty ring", got)
	}

	// The same ring must be handed out once Configure runs.
	Configure(Config{Level: "info", Format: "text"})
	if Buffer() != ring {
		t.Error("Configure replaced the lazily created ring")
	}
}

func TestDerivedLoggerSurvivesConfigure(t *testing.T) {
	resetState(t)

	child := GetLogger("export").With("job", "j1")

	Configure(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"export": "debug",
		},
	})

	if !child.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("derived logger should see the new level after Configure")
	}

	child.Info("transcode running")

	var found *Entry
	entries := Buffer().Snapshot()
	for i := range entries {
		if entries[i].Message == "transcode running" {
			found = &entries[i]
		}
	}
	if found == nil {
		t.Fatal("entry from derived logger not found in ring buffer")
	}
	if found.Module != "export" {
		t.Errorf("module = %q, want %q", found.Module, "export")
	}
	if found.Attributes["job"] != "j1" {
		t.Errorf("job attr = %v, want %q", found.Attributes["job"], "j1")
	}
}

func TestApplyLevels(t *testing.T) {
	resetState(t)

	Configure(Config{Level: "info", Format: "text"})

	handler := GetLogger("replay").Handler()
	if handler.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug should start disabled")
	}

	ApplyLevels("info", map[string]string{"replay": "debug"})

	if !handler.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be enabled after ApplyLevels")
	}

	ApplyLevels("error", nil)

	if handler.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("warn should be disabled after raising the global level")
	}
}

func TestRingWrapAround(t *testing.T) {
	ring := NewRing(3)
	for i := 0; i < 5; i++ {
		ring.Append(Entry{Message: string(rune('a' + i))})
	}

	if ring.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", ring.Len())
	}

	got := ring.Snapshot()
	want := []string{"c", "d", "e"}
	for i, entry := range got {
		if entry.Message != want[i] {
			t.Errorf("entry %d = %q, want %q", i, entry.Message, want[i])
		}
	}
}

func TestBufferHandlerCapturesEntries(t *testing.T) {
	resetState(t)

	Configure(Config{Level: "info", Format: "text"})

	var published []Entry
	SetPublisher(func(entry Entry) {
		published = append(published, entry)
	})
	defer SetPublisher(nil)

	logger := GetLogger("capture")
	logger.Info("display detected", "display", ":0")

	entries := Buffer().Snapshot()
	var found *Entry
	for i := range entries {
		if entries[i].Message == "display detected" {
			found = &entries[i]
		}
	}
	if found == nil {
		t.Fatal("entry not found in ring buffer")
	}
	if found.Module != "capture" {
		t.Errorf("module = %q, want %q", found.Module, "capture")
	}
	if found.Attributes["display"] != ":0" {
		t.Errorf("display attr = %v, want %q", found.Attributes["display"], ":0")
	}

	if len(published) == 0 {
		t.Fatal("publisher was not invoked")
	}
	if published[len(published)-1].Message != "display detected" {
		t.Errorf("published message = %q", published[len(published)-1].Message)
	}
}

func TestParseLevelValues(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
		isNil bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"invalid", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLevel(tt.input)
			if tt.isNil {
				if got != nil {
					t.Errorf("parseLevel(%q) = %v, want nil", tt.input, *got)
				}
				return
			}
			if got == nil {
				t.Errorf("parseLevel(%q) = nil, want %v", tt.input, tt.want)
			} else if *got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, *got, tt.want)
			}
		})
	}
}

func TestFormatLine(t *testing.T) {
	entry := Entry{
		Level:      "info",
		Module:     "recorder",
		Message:    "recording started",
		Attributes: map[string]any{"encoder": "h264_vaapi"},
	}

	line := FormatLine(entry)
	for _, want := range []string{"[INFO]", "[recorder]", "recording started", "encoder=h264_vaapi"} {
		if !strings.Contains(line, want) {
			t.Errorf("FormatLine missing %q in %q", want, line)
		}
	}
}
