package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/capturelab/grabnode/internal/api/models"
	"github.com/capturelab/grabnode/internal/library"
)

func (s *Server) registerLibraryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-recordings",
		Method:      http.MethodGet,
		Path:        "/api/recordings",
		Summary:     "List Recordings",
		Description: "Library entries, newest first; a search query runs full-text search over titles and paths",
		Tags:        []string{"library"},
		Security:    withAuth(),
		Errors:      []int{401, 500},
	}, func(ctx context.Context, input *struct {
		Query string `query:"query" doc:"Full-text search query; empty lists everything"`
	}) (*models.RecordingsResponse, error) {
		var (
			recordings []library.Recording
			err        error
		)
		if input.Query != "" {
			recordings, err = s.options.Library.Search(ctx, input.Query)
		} else {
			recordings, err = s.options.Library.List(ctx)
		}
		if err != nil {
			return nil, huma.Error500InternalServerError("Library query failed", err)
		}
		resp := &models.RecordingsResponse{}
		resp.Body.Recordings = recordings
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-recording",
		Method:      http.MethodGet,
		Path:        "/api/recordings/{id}",
		Summary:     "Get Recording",
		Tags:        []string{"library"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 500},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id" doc:"Recording id"`
	}) (*models.RecordingDetailResponse, error) {
		rec, err := s.options.Library.Get(ctx, input.ID)
		if err != nil {
			if errors.Is(err, library.ErrNotFound) {
				return nil, huma.Error404NotFound("Recording not found", err)
			}
			return nil, huma.Error500InternalServerError("Library query failed", err)
		}
		return &models.RecordingDetailResponse{Body: rec}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-recording",
		Method:      http.MethodDelete,
		Path:        "/api/recordings/{id}",
		Summary:     "Delete Recording",
		Description: "Remove a library entry, optionally deleting the media file with it",
		Tags:        []string{"library"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 500},
	}, func(ctx context.Context, input *struct {
		ID         string `path:"id" doc:"Recording id"`
		DeleteFile bool   `query:"delete_file" doc:"Also delete the media file from disk"`
	}) (*struct{}, error) {
		err := s.options.Library.Remove(ctx, input.ID, input.DeleteFile)
		if err != nil {
			if errors.Is(err, library.ErrNotFound) {
				return nil, huma.Error404NotFound("Recording not found", err)
			}
			return nil, huma.Error500InternalServerError("Library delete failed", err)
		}
		return &struct{}{}, nil
	})
}
