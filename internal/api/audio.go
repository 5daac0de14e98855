package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/capturelab/grabnode/internal/api/models"
	"github.com/capturelab/grabnode/internal/audio"
)

func (s *Server) registerAudioRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-audio-sources",
		Method:      http.MethodGet,
		Path:        "/api/audio/sources",
		Summary:     "List Audio Sources",
		Description: "PulseAudio capture sources, including desktop monitor sources",
		Tags:        []string{"audio"},
		Security:    withAuth(),
		Errors:      []int{401, 500},
	}, func(ctx context.Context, input *struct{}) (*models.AudioSourcesResponse, error) {
		sources, err := audio.ListSources(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError("Audio source listing failed", err)
		}
		resp := &models.AudioSourcesResponse{}
		resp.Body.Sources = sources
		return resp, nil
	})
}
