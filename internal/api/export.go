package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/capturelab/grabnode/internal/api/models"
	"github.com/capturelab/grabnode/internal/export"
	"github.com/capturelab/grabnode/internal/library"
)

func (s *Server) registerExportRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-export-presets",
		Method:      http.MethodGet,
		Path:        "/api/export/presets",
		Summary:     "List Export Presets",
		Tags:        []string{"export"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(ctx context.Context, input *struct{}) (*models.ExportPresetsResponse, error) {
		presets := s.options.Exporter.Presets()
		resp := &models.ExportPresetsResponse{}
		for _, name := range export.PresetNames(presets) {
			resp.Body.Presets = append(resp.Body.Presets, presets[name])
		}
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "start-export",
		Method:      http.MethodPost,
		Path:        "/api/export",
		Summary:     "Export Recording",
		Description: "Re-encode a library recording with a preset. The job runs in the background; completion arrives on the event stream",
		Tags:        []string{"export"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 404, 500},
	}, func(ctx context.Context, input *models.ExportRequest) (*models.ExportResponse, error) {
		rec, err := s.options.Library.Get(ctx, input.Body.ID)
		if err != nil {
			if errors.Is(err, library.ErrNotFound) {
				return nil, huma.Error404NotFound("Recording not found", err)
			}
			return nil, huma.Error500InternalServerError("Library query failed", err)
		}

		preset, ok := s.options.Exporter.Presets()[input.Body.Preset]
		if !ok {
			return nil, huma.Error400BadRequest("Unknown export preset " + input.Body.Preset)
		}

		job := export.Job{
			Source: rec.Path,
			Output: exportOutputPath(s.options.Recorder.Settings().Storage.OutputDir, rec.Path, preset),
			Preset: preset.Name,
			Start:  input.Body.Start,
			Length: input.Body.Length,
		}

		// The request context dies with the response; the encode may run
		// for minutes. Completion is published on the event bus.
		go func() {
			if err := s.options.Exporter.Export(context.Background(), job); err != nil {
				s.logger.Error("Export failed", "source", job.Source, "error", err)
			}
		}()

		resp := &models.ExportResponse{}
		resp.Body.Output = job.Output
		return resp, nil
	})
}

func exportOutputPath(dir, source string, preset export.Preset) string {
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	name := fmt.Sprintf("%s_%s_%s.%s", stem, preset.Name, time.Now().Format("2006-01-02_15-04-05"), preset.Container)
	return filepath.Join(dir, name)
}
