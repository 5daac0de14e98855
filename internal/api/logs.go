package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/capturelab/grabnode/internal/api/models"
	"github.com/capturelab/grabnode/internal/events"
	"github.com/capturelab/grabnode/internal/logging"
)

// registerLogRoutes registers the log snapshot and streaming endpoints.
func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Recent Logs",
		Description: "Snapshot of the in-memory log ring buffer",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct {
		Level  string `query:"level" doc:"Only entries at this level"`
		Module string `query:"module" doc:"Only entries from this module"`
	}) (*models.LogsResponse, error) {
		entries := logging.Buffer().Snapshot()
		if input.Level != "" || input.Module != "" {
			filtered := make([]logging.Entry, 0, len(entries))
			for _, e := range entries {
				if input.Level != "" && !strings.EqualFold(e.Level, input.Level) {
					continue
				}
				if input.Module != "" && e.Module != input.Module {
					continue
				}
				filtered = append(filtered, e)
			}
			entries = filtered
		}

		resp := &models.LogsResponse{}
		resp.Body.Entries = entries
		return resp, nil
	})

	sse.Register(s.api, huma.Operation{
		OperationID: "logs-stream",
		Method:      http.MethodGet,
		Path:        "/api/logs/stream",
		Summary:     "Log Stream",
		Description: "Real-time log streaming via Server-Sent Events. Sends historical logs first, then streams new logs.",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"message": events.LogEntryEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		// Historical entries first so clients see context before the
		// live tail begins.
		for _, entry := range logging.Buffer().Snapshot() {
			event := events.LogEntryEvent{
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			}
			if err := send.Data(event); err != nil {
				return
			}
		}

		eventCh := make(chan any, 100) // larger buffer for logs
		unsubscribe := events.SubscribeToChannel[events.LogEntryEvent](s.options.EventBus, eventCh)
		defer unsubscribe()

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
