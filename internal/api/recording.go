package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/capturelab/grabnode/internal/api/models"
	"github.com/capturelab/grabnode/internal/capture"
	"github.com/capturelab/grabnode/internal/ffmpeg"
	"github.com/capturelab/grabnode/internal/process"
	"github.com/capturelab/grabnode/internal/recorder"
)

func (s *Server) registerRecordingRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "start-recording",
		Method:      http.MethodPost,
		Path:        "/api/recording/start",
		Summary:     "Start Recording",
		Description: "Start a single-file screen recording with the configured or overridden capture settings",
		Tags:        []string{"recording"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 409, 500},
	}, func(ctx context.Context, input *models.StartRecordingRequest) (*models.RecordingResponse, error) {
		opts, err := s.startOptions(ctx, input)
		if err != nil {
			return nil, err
		}

		info, err := s.options.Recorder.StartRecording(ctx, opts)
		if err != nil {
			return nil, mapSessionError(err, "start recording")
		}
		return &models.RecordingResponse{Body: info}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stop-recording",
		Method:      http.MethodPost,
		Path:        "/api/recording/stop",
		Summary:     "Stop Recording",
		Description: "Gracefully finish the live recording and index it into the library",
		Tags:        []string{"recording"},
		Security:    withAuth(),
		Errors:      []int{401, 409, 500},
	}, func(ctx context.Context, input *struct{}) (*models.RecordingResponse, error) {
		info, err := s.options.Recorder.StopRecording(ctx)
		if err != nil {
			return nil, mapSessionError(err, "stop recording")
		}
		return &models.RecordingResponse{Body: info}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "recording-status",
		Method:      http.MethodGet,
		Path:        "/api/recording/status",
		Summary:     "Session Status",
		Description: "Live state and progress of the recording and replay sessions",
		Tags:        []string{"recording"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct{}) (*models.StatusResponse, error) {
		return &models.StatusResponse{Body: s.options.Recorder.Status()}, nil
	})
}

// startOptions translates the request body into recorder overrides,
// resolving window and region modes into capture sources.
func (s *Server) startOptions(ctx context.Context, input *models.StartRecordingRequest) (recorder.StartOptions, error) {
	var opts recorder.StartOptions
	body := input.Body

	if body.Quality != "" {
		q, err := ffmpeg.ParseQuality(body.Quality)
		if err != nil {
			return opts, huma.Error400BadRequest("Invalid quality", err)
		}
		opts.Quality = &q
	}
	opts.Container = body.Container

	settings := s.options.Recorder.Settings()
	display := settings.Capture.Display
	fps := settings.Capture.FPS

	switch body.Mode {
	case "", "fullscreen":
		// The recorder detects the display size itself.
	case "window":
		windowID := body.WindowID
		if windowID == "" {
			active, err := capture.ActiveWindow(ctx)
			if err != nil {
				return opts, huma.Error400BadRequest("No window id given and active-window lookup failed", err)
			}
			windowID = active
		}
		src := capture.NewWindow(display, windowID, fps)
		opts.Source = &src
	case "region":
		if body.Width <= 0 || body.Height <= 0 {
			return opts, huma.Error400BadRequest("Region mode requires positive width and height")
		}
		src := capture.NewRegion(display, body.X, body.Y, body.Width, body.Height, fps)
		opts.Source = &src
	default:
		return opts, huma.Error400BadRequest("Unknown capture mode " + body.Mode)
	}

	return opts, nil
}

// mapSessionError converts recorder sentinels into HTTP errors.
func mapSessionError(err error, action string) error {
	switch {
	case errors.Is(err, recorder.ErrAlreadyRecording),
		errors.Is(err, recorder.ErrReplayActive):
		return huma.Error409Conflict("Session already running", err)
	case errors.Is(err, recorder.ErrNotRecording),
		errors.Is(err, recorder.ErrReplayInactive):
		return huma.Error409Conflict("No session running", err)
	case errors.Is(err, process.ErrFFmpegNotFound):
		return huma.Error500InternalServerError("Encoder binary not found", err)
	default:
		return huma.Error500InternalServerError("Failed to "+action, err)
	}
}
