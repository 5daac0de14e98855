package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/capturelab/grabnode/internal/events"
)

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time event stream for session state, replay clips, exports, and config reloads",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"recording-started":  events.RecordingStartedEvent{},
		"recording-stopped":  events.RecordingStoppedEvent{},
		"recording-progress": events.RecordingProgressEvent{},
		"replay-started":     events.ReplayStartedEvent{},
		"replay-stopped":     events.ReplayStoppedEvent{},
		"replay-saved":       events.ReplaySavedEvent{},
		"export-finished":    events.ExportFinishedEvent{},
		"config-reloaded":    events.ConfigReloadedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		// Per-connection channel; slow consumers drop events rather than
		// stalling the bus.
		eventCh := make(chan any, 10)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.RecordingStartedEvent](s.options.EventBus, eventCh),
			events.SubscribeToChannel[events.RecordingStoppedEvent](s.options.EventBus, eventCh),
			events.SubscribeToChannel[events.RecordingProgressEvent](s.options.EventBus, eventCh),
			events.SubscribeToChannel[events.ReplayStartedEvent](s.options.EventBus, eventCh),
			events.SubscribeToChannel[events.ReplayStoppedEvent](s.options.EventBus, eventCh),
			events.SubscribeToChannel[events.ReplaySavedEvent](s.options.EventBus, eventCh),
			events.SubscribeToChannel[events.ExportFinishedEvent](s.options.EventBus, eventCh),
			events.SubscribeToChannel[events.ConfigReloadedEvent](s.options.EventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// Initial confirmation so EventSource clients know the stream
		// is live before any session activity happens.
		if err := send.Data(events.ConfigReloadedEvent{
			Path:      "connected",
			Timestamp: time.Now().Format(time.RFC3339),
		}); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
