// Package metrics provides Prometheus metrics for capture sessions.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session kinds used as the metric label.
const (
	KindRecording = "recording"
	KindReplay    = "replay"
)

// State gauge values.
const (
	StateStopped  = 0
	StateStarting = 1
	StateRunning  = 2
	StateStopping = 3
	StateFailed   = -1
)

var (
	sessionFPS = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "grabnode",
		Subsystem: "recorder",
		Name:      "fps",
		Help:      "Current encoding FPS",
	}, []string{"kind"})

	sessionFrame = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "grabnode",
		Subsystem: "recorder",
		Name:      "frame",
		Help:      "Frames encoded so far",
	}, []string{"kind"})

	sessionSpeed = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "grabnode",
		Subsystem: "recorder",
		Name:      "processing_speed",
		Help:      "Encoding speed multiplier relative to realtime",
	}, []string{"kind"})

	sessionSizeKB = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "grabnode",
		Subsystem: "recorder",
		Name:      "size_kbytes",
		Help:      "Output size written so far in kilobytes",
	}, []string{"kind"})

	sessionState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "grabnode",
		Subsystem: "recorder",
		Name:      "state",
		Help:      "Session state code: 0 stopped, 1 starting, 2 running, 3 stopping, -1 failed",
	}, []string{"kind"})

	sessionsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grabnode",
		Subsystem: "recorder",
		Name:      "sessions_started_total",
		Help:      "Sessions started since process launch",
	}, []string{"kind"})

	sessionsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grabnode",
		Subsystem: "recorder",
		Name:      "sessions_completed_total",
		Help:      "Sessions that reached a terminal state",
	}, []string{"kind"})

	replaysSaved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "grabnode",
		Subsystem: "recorder",
		Name:      "replays_saved_total",
		Help:      "Replay clips materialized from the segment ring",
	})

	// Local cache for status API access.
	sessionCache   = make(map[string]*SessionMetrics)
	sessionCacheMu sync.RWMutex
)

// SessionMetrics holds current metric values for a session kind.
type SessionMetrics struct {
	FPS    float64
	Frame  float64
	Speed  float64
	SizeKB float64
	State  float64
}

// SetSessionFPS sets the current FPS for a session kind.
func SetSessionFPS(kind string, fps float64) {
	sessionFPS.WithLabelValues(kind).Set(fps)
	updateCache(kind, func(m *SessionMetrics) { m.FPS = fps })
}

// SetSessionFrame sets the encoded frame count for a session kind.
func SetSessionFrame(kind string, frame float64) {
	sessionFrame.WithLabelValues(kind).Set(frame)
	updateCache(kind, func(m *SessionMetrics) { m.Frame = frame })
}

// SetSessionSpeed sets the encoding speed multiplier for a session kind.
func SetSessionSpeed(kind string, speed float64) {
	sessionSpeed.WithLabelValues(kind).Set(speed)
	updateCache(kind, func(m *SessionMetrics) { m.Speed = speed })
}

// SetSessionSizeKB sets the output size for a session kind.
func SetSessionSizeKB(kind string, sizeKB float64) {
	sessionSizeKB.WithLabelValues(kind).Set(sizeKB)
	updateCache(kind, func(m *SessionMetrics) { m.SizeKB = sizeKB })
}

// SetSessionState sets the state code for a session kind.
func SetSessionState(kind string, state float64) {
	sessionState.WithLabelValues(kind).Set(state)
	updateCache(kind, func(m *SessionMetrics) { m.State = state })
}

// IncSessionsStarted counts a session launch.
func IncSessionsStarted(kind string) {
	sessionsStarted.WithLabelValues(kind).Inc()
}

// IncSessionsCompleted counts a session reaching a terminal state.
func IncSessionsCompleted(kind string) {
	sessionsCompleted.WithLabelValues(kind).Inc()
}

// IncReplaysSaved counts a materialized replay clip.
func IncReplaysSaved() {
	replaysSaved.Inc()
}

// DeleteSessionMetrics removes all metrics for a session kind.
func DeleteSessionMetrics(kind string) {
	sessionFPS.DeleteLabelValues(kind)
	sessionFrame.DeleteLabelValues(kind)
	sessionSpeed.DeleteLabelValues(kind)
	sessionSizeKB.DeleteLabelValues(kind)
	sessionState.DeleteLabelValues(kind)

	sessionCacheMu.Lock()
	delete(sessionCache, kind)
	sessionCacheMu.Unlock()
}

// GetSessionMetrics returns current metric values for a session kind.
func GetSessionMetrics(kind string) *SessionMetrics {
	sessionCacheMu.RLock()
	defer sessionCacheMu.RUnlock()
	if m, ok := sessionCache[kind]; ok {
		dup := *m
		return &dup
	}
	return nil
}

// GetAllSessionMetrics returns metrics for all active session kinds.
func GetAllSessionMetrics() map[string]*SessionMetrics {
	sessionCacheMu.RLock()
	defer sessionCacheMu.RUnlock()
	result := make(map[string]*SessionMetrics, len(sessionCache))
	for kind, m := range sessionCache {
		dup := *m
		result[kind] = &dup
	}
	return result
}

func updateCache(kind string, update func(*SessionMetrics)) {
	sessionCacheMu.Lock()
	defer sessionCacheMu.Unlock()
	m, ok := sessionCache[kind]
	if !ok {
		m = &SessionMetrics{}
		sessionCache[kind] = m
	}
	update(m)
}
