package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/capturelab/grabnode/internal/api/models"
	"github.com/capturelab/grabnode/internal/doctor"
)

func (s *Server) registerDoctorRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "run-doctor",
		Method:      http.MethodGet,
		Path:        "/api/doctor",
		Summary:     "Run Diagnostics",
		Description: "Probe the capture environment: binaries, display, audio, render nodes, directories",
		Tags:        []string{"system"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct{}) (*models.DoctorResponse, error) {
		report := doctor.Run(ctx, s.options.Doctor)
		resp := &models.DoctorResponse{}
		resp.Body.Healthy = report.Healthy()
		resp.Body.Checks = report.Checks
		return resp, nil
	})
}
