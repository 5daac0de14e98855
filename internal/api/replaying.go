package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/capturelab/grabnode/internal/api/models"
	"github.com/capturelab/grabnode/internal/replay"
)

func (s *Server) registerReplayRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "start-replay",
		Method:      http.MethodPost,
		Path:        "/api/replay/start",
		Summary:     "Start Replay Buffer",
		Description: "Begin capturing into the rolling replay buffer",
		Tags:        []string{"replay"},
		Security:    withAuth(),
		Errors:      []int{401, 409, 500},
	}, func(ctx context.Context, input *struct{}) (*models.StatusResponse, error) {
		if err := s.options.Recorder.ReplayStart(ctx); err != nil {
			return nil, mapSessionError(err, "start replay buffer")
		}
		return &models.StatusResponse{Body: s.options.Recorder.Status()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stop-replay",
		Method:      http.MethodPost,
		Path:        "/api/replay/stop",
		Summary:     "Stop Replay Buffer",
		Description: "Stop the replay buffer and discard its segments",
		Tags:        []string{"replay"},
		Security:    withAuth(),
		Errors:      []int{401, 409, 500},
	}, func(ctx context.Context, input *struct{}) (*models.StatusResponse, error) {
		if err := s.options.Recorder.ReplayStop(); err != nil {
			return nil, mapSessionError(err, "stop replay buffer")
		}
		return &models.StatusResponse{Body: s.options.Recorder.Status()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "save-replay",
		Method:      http.MethodPost,
		Path:        "/api/replay/save",
		Summary:     "Save Replay",
		Description: "Materialize the trailing seconds of the replay buffer into a clip",
		Tags:        []string{"replay"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 409, 500},
	}, func(ctx context.Context, input *models.SaveReplayRequest) (*models.RecordingResponse, error) {
		info, err := s.options.Recorder.ReplaySave(ctx, input.Body.Seconds)
		if err != nil {
			if errors.Is(err, replay.ErrNoSegments) {
				return nil, huma.Error404NotFound("Replay buffer holds no finished segments yet", err)
			}
			return nil, mapSessionError(err, "save replay")
		}
		return &models.RecordingResponse{Body: info}, nil
	})
}
