package recorder

import (
	"strconv"
	"strings"

	"github.com/capturelab/grabnode/internal/events"
	"github.com/capturelab/grabnode/internal/metrics"
	"github.com/capturelab/grabnode/internal/process"
)

// pump bridges one supervisor's published slots onto the event bus and
// the Prometheus gauges until the process exits. It observes latest
// values only; a burst of progress lines collapses into whatever is
// current when the pump wakes up.
func (s *Service) pump(kind string, sup supervisor, onExit func()) {
	defer func() {
		metrics.IncSessionsCompleted(kind)
		metrics.SetSessionState(kind, stateCode(sup.State()))
		onExit()
	}()

	var lastProgress uint64
	var lastState uint64

	s.publishState(kind, sup.State())

	for {
		stateCh := sup.StateChanges().Changed()
		progressCh := sup.ProgressChanges().Changed()

		if gen := sup.StateChanges().Generation(); gen != lastState {
			lastState = gen
			s.publishState(kind, sup.State())
		}
		if gen := sup.ProgressChanges().Generation(); gen != lastProgress {
			lastProgress = gen
			s.publishProgress(kind, sup.Progress())
		}

		select {
		case <-sup.Done():
			// Flush whatever arrived between the last wake-up and exit.
			s.publishState(kind, sup.State())
			return
		case <-stateCh:
		case <-progressCh:
		}
	}
}

func (s *Service) publishState(kind string, state process.State) {
	metrics.SetSessionState(kind, stateCode(state))
}

func (s *Service) publishProgress(kind string, p process.Progress) {
	metrics.SetSessionFPS(kind, p.FPS)
	metrics.SetSessionFrame(kind, float64(p.Frame))
	metrics.SetSessionSpeed(kind, speedValue(p.Speed))
	metrics.SetSessionSizeKB(kind, float64(p.SizeKB))

	s.bus.Publish(events.RecordingProgressEvent{
		Kind:   kind,
		Frame:  p.Frame,
		FPS:    p.FPS,
		Time:   p.Time,
		Speed:  p.Speed,
		SizeKB: p.SizeKB,
	})
}

func stateCode(state process.State) float64 {
	switch state {
	case process.StateStarting:
		return metrics.StateStarting
	case process.StateRunning:
		return metrics.StateRunning
	case process.StateStopping:
		return metrics.StateStopping
	case process.StateFailed:
		return metrics.StateFailed
	default:
		return metrics.StateStopped
	}
}

// speedValue decodes ffmpeg's "1.02x" speed text; unparseable forms
// gauge as zero.
func speedValue(speed string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSuffix(speed, "x"), 64)
	return v
}
