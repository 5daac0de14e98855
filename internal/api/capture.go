package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/capturelab/grabnode/internal/api/models"
	"github.com/capturelab/grabnode/internal/capture"
)

func (s *Server) registerCaptureRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-displays",
		Method:      http.MethodGet,
		Path:        "/api/capture/displays",
		Summary:     "Display Info",
		Description: "The configured X11 display and its detected root window size",
		Tags:        []string{"capture"},
		Security:    withAuth(),
		Errors:      []int{401, 500},
	}, func(ctx context.Context, input *struct{}) (*models.DisplayResponse, error) {
		width, height, err := capture.DetectDisplaySize(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("Display size detection failed", err)
		}
		resp := &models.DisplayResponse{}
		resp.Body.Display = s.options.Recorder.Settings().Capture.Display
		resp.Body.Width = width
		resp.Body.Height = height
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-windows",
		Method:      http.MethodGet,
		Path:        "/api/capture/windows",
		Summary:     "List Windows",
		Description: "The window manager's current client list, candidates for window capture",
		Tags:        []string{"capture"},
		Security:    withAuth(),
		Errors:      []int{401, 500},
	}, func(ctx context.Context, input *struct{}) (*models.WindowsResponse, error) {
		windows, err := capture.ListWindows(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("Window listing failed", err)
		}
		resp := &models.WindowsResponse{}
		resp.Body.Windows = windows
		return resp, nil
	})
}
