package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
)

const defaultBufferSize = 1000

// Logger is a duck-typed interface satisfied by *slog.Logger.
// Use this interface instead of *slog.Logger to decouple from the concrete type.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config represents logging configuration.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

var (
	mu              sync.RWMutex
	moduleLoggers   = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	moduleHandlers  = make(map[string]*swapHandler)
	globalConfig    Config
	globalLevelVar  = &slog.LevelVar{}
	configured      bool
	logBuffer       *Ring
	publisher       Publisher
)

// Configure sets up the logging system. Loggers handed out before Configure
// keep working; their levels and handler chains are updated in place.
func Configure(config Config) {
	mu.Lock()
	defer mu.Unlock()

	globalConfig = config
	configured = true

	if logBuffer == nil {
		logBuffer = NewRing(defaultBufferSize)
	}

	globalLevelVar.Set(levelOrDefault(config.Level, slog.LevelInfo))

	// Handlers created before Configure lack the buffer/journal chain.
	// Each module logger routes through a swapHandler, so the chain is
	// replaced underneath it and cached *slog.Logger values stay valid.
	for module, levelVar := range moduleLevelVars {
		levelVar.Set(moduleLevel(config, module))
		moduleHandlers[module].Swap(newHandler(config.Format, levelVar))
	}

	slog.SetDefault(slog.New(newHandler(config.Format, globalLevelVar)))
}

// ApplyLevels updates the global and per-module levels at runtime without
// recreating any logger. Used by the config watcher on hot reload.
func ApplyLevels(level string, modules map[string]string) {
	mu.Lock()
	defer mu.Unlock()

	globalConfig.Level = level
	globalConfig.Modules = modules
	globalLevelVar.Set(levelOrDefault(level, slog.LevelInfo))

	for module, levelVar := range moduleLevelVars {
		levelVar.Set(moduleLevel(globalConfig, module))
	}
}

// GetLogger returns a logger for the specified module, creating it if needed.
func GetLogger(module string) *slog.Logger {
	mu.RLock()
	if logger, exists := moduleLoggers[module]; exists {
		mu.RUnlock()
		return logger
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()

	// Another goroutine may have created it between the locks.
	if logger, exists := moduleLoggers[module]; exists {
		return logger
	}

	levelVar := &slog.LevelVar{}
	if configured {
		levelVar.Set(moduleLevel(globalConfig, module))
	} else {
		levelVar.Set(slog.LevelInfo)
	}

	format := globalConfig.Format
	if !configured {
		format = "text"
	}

	handler := newSwapHandler(newHandler(format, levelVar))
	logger := slog.New(handler).With("module", module)
	moduleLoggers[module] = logger
	moduleLevelVars[module] = levelVar
	moduleHandlers[module] = handler
	return logger
}

// Buffer returns the log ring buffer for reading historical entries.
// The ring is created on first use, so callers never see a nil ring
// even before Configure has run.
func Buffer() *Ring {
	return ensureBuffer()
}

// SetPublisher registers a callback invoked for each new log entry.
// Used to feed log events to SSE clients without an import cycle.
func SetPublisher(p Publisher) {
	mu.Lock()
	defer mu.Unlock()
	publisher = p
}

func currentBuffer() *Ring {
	return ensureBuffer()
}

func ensureBuffer() *Ring {
	mu.RLock()
	ring := logBuffer
	mu.RUnlock()
	if ring != nil {
		return ring
	}

	mu.Lock()
	defer mu.Unlock()
	if logBuffer == nil {
		logBuffer = NewRing(defaultBufferSize)
	}
	return logBuffer
}

func currentPublisher() Publisher {
	mu.RLock()
	defer mu.RUnlock()
	return publisher
}

// moduleLevel resolves the effective level for a module from config.
func moduleLevel(config Config, module string) slog.Level {
	level := levelOrDefault(config.Level, slog.LevelInfo)
	if levelStr, ok := config.Modules[module]; ok {
		if parsed := parseLevel(levelStr); parsed != nil {
			level = *parsed
		}
	}
	return level
}

// newHandler assembles the output chain for one logger: stdout (text or
// JSON), journald when running under systemd, and the ring buffer.
func newHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var stdoutHandler slog.Handler
	if format == "json" {
		stdoutHandler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		stdoutHandler = slog.NewTextHandler(os.Stdout, opts)
	}

	var handlers []slog.Handler
	if isStdoutAvailable() {
		handlers = append(handlers, stdoutHandler)
	}
	if journalAvailable() {
		handlers = append(handlers, newJournalHandler(level))
	}
	// The buffer handler resolves the ring lazily, so it is safe to
	// attach before Configure has run.
	handlers = append(handlers, newBufferHandler(level))

	switch len(handlers) {
	case 1:
		return handlers[0]
	default:
		return fanoutHandler(handlers)
	}
}

// isStdoutAvailable reports whether stdout is a terminal, pipe, socket, or
// regular file (not /dev/null, which is a device).
func isStdoutAvailable() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return (mode&os.ModeCharDevice) != 0 || (mode&os.ModeNamedPipe) != 0 || (mode&os.ModeSocket) != 0 || mode.IsRegular()
}

// parseLevel converts a string level to slog.Level, nil if unrecognized.
func parseLevel(level string) *slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		l := slog.LevelDebug
		return &l
	case "info":
		l := slog.LevelInfo
		return &l
	case "warn", "warning":
		l := slog.LevelWarn
		return &l
	case "error":
		l := slog.LevelError
		return &l
	default:
		return nil
	}
}

func levelOrDefault(level string, fallback slog.Level) slog.Level {
	if parsed := parseLevel(level); parsed != nil {
		return *parsed
	}
	return fallback
}

// swapHandler delegates every call to a replaceable inner handler. Module
// loggers are built on one, so Configure can swap the output chain while
// loggers cached by callers keep working. Derived handlers from WithAttrs
// and WithGroup share the swappable state and replay their transforms on
// whatever chain is current.
type swapHandler struct {
	state *swapState
	wrap  []func(slog.Handler) slog.Handler
}

type swapState struct {
	mu    sync.RWMutex
	inner slog.Handler
}

func newSwapHandler(inner slog.Handler) *swapHandler {
	return &swapHandler{state: &swapState{inner: inner}}
}

// Swap replaces the inner handler chain.
func (h *swapHandler) Swap(inner slog.Handler) {
	h.state.mu.Lock()
	h.state.inner = inner
	h.state.mu.Unlock()
}

func (h *swapHandler) resolve() slog.Handler {
	h.state.mu.RLock()
	inner := h.state.inner
	h.state.mu.RUnlock()
	for _, w := range h.wrap {
		inner = w(inner)
	}
	return inner
}

func (h *swapHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.resolve().Enabled(ctx, level)
}

func (h *swapHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.resolve().Handle(ctx, r)
}

func (h *swapHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(func(inner slog.Handler) slog.Handler {
		return inner.WithAttrs(attrs)
	})
}

func (h *swapHandler) WithGroup(name string) slog.Handler {
	return h.derive(func(inner slog.Handler) slog.Handler {
		return inner.WithGroup(name)
	})
}

func (h *swapHandler) derive(w func(slog.Handler) slog.Handler) *swapHandler {
	wrap := make([]func(slog.Handler) slog.Handler, len(h.wrap), len(h.wrap)+1)
	copy(wrap, h.wrap)
	return &swapHandler{state: h.state, wrap: append(wrap, w)}
}

// fanoutHandler fans a record out to every handler that accepts its level.
type fanoutHandler []slog.Handler

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			_ = h.Handle(ctx, r.Clone())
		}
	}
	return nil
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make(fanoutHandler, len(f))
	for i, h := range f {
		handlers[i] = h.WithAttrs(attrs)
	}
	return handlers
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	handlers := make(fanoutHandler, len(f))
	for i, h := range f {
		handlers[i] = h.WithGroup(name)
	}
	return handlers
}
