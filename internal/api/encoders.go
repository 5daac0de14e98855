package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/capturelab/grabnode/internal/api/models"
	"github.com/capturelab/grabnode/internal/encoders"
)

func (s *Server) registerEncoderRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-encoders",
		Method:      http.MethodGet,
		Path:        "/api/encoders",
		Summary:     "List Encoders",
		Description: "The probed encoder catalog in preference order. Results are cached; refresh=true re-probes every backend immediately",
		Tags:        []string{"encoders"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct {
		Refresh bool `query:"refresh" doc:"Bypass the cache and re-probe all backends"`
	}) (*models.EncodersResponse, error) {
		var list []encoders.Encoder
		if input.Refresh {
			list = s.options.Catalog.Refresh(ctx)
		} else {
			list = s.options.Catalog.Get(ctx)
		}

		resp := &models.EncodersResponse{}
		resp.Body.Encoders = list
		resp.Body.Best = encoders.SelectBest(list).Name
		return resp, nil
	})
}
