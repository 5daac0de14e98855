// Package api exposes the recorder over HTTP for the desktop UI: session
// control, the encoder catalog, the recordings library, diagnostics, and
// an SSE event stream.
package api

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/capturelab/grabnode/internal/api/models"
	"github.com/capturelab/grabnode/internal/doctor"
	"github.com/capturelab/grabnode/internal/encoders"
	"github.com/capturelab/grabnode/internal/events"
	"github.com/capturelab/grabnode/internal/export"
	"github.com/capturelab/grabnode/internal/library"
	"github.com/capturelab/grabnode/internal/logging"
	"github.com/capturelab/grabnode/internal/recorder"
	"github.com/capturelab/grabnode/internal/updater"
	"github.com/capturelab/grabnode/internal/version"
)

// Options wires the server to the application services.
type Options struct {
	AuthUsername string
	AuthPassword string

	Recorder      *recorder.Service
	Catalog       *encoders.Catalog
	Library       *library.Store
	Exporter      *export.Pipeline
	UpdateService updater.Service
	EventBus      *events.Bus
	Doctor        doctor.Options

	PrometheusHandler http.Handler
}

// Server is the Huma v2 API server over Go's native mux.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	options    *Options
	logger     *slog.Logger
}

// NewServer builds the API with CORS, request logging, optional basic
// auth, and all route groups registered.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	corsConfig := DefaultCORSConfig()
	AddCORSHandler(mux, corsConfig)

	config := huma.DefaultConfig("grabnode API", version.String())
	config.Info.Description = "Desktop capture and instant-replay control API"
	// Relative paths keep the OpenAPI document host-agnostic.
	config.Servers = []*huma.Server{}
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basicAuth": {
			Type:   "http",
			Scheme: "basic",
		},
	}

	api := humago.New(mux, config)

	server := &Server{
		api:     api,
		mux:     mux,
		options: opts,
		logger:  logging.GetLogger("api"),
	}

	api.UseMiddleware(NewCORSMiddleware(corsConfig))
	api.UseMiddleware(HTTPLoggingMiddleware)
	if opts.AuthUsername != "" && opts.AuthPassword != "" {
		api.UseMiddleware(server.basicAuthMiddleware(opts.AuthUsername, opts.AuthPassword))
	}

	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	server.registerRoutes()
	return server
}

// API returns the Huma API instance, used by tests to drive requests.
func (s *Server) API() huma.API {
	return s.api
}

// Start serves until the listener fails or Stop is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting API server", "addr", addr)
	s.httpServer = &http.Server{Addr: addr, Handler: s.mux}
	return s.httpServer.ListenAndServe()
}

// Stop closes the server immediately; SSE connections do not drain.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Tags:        []string{"system"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *struct{}) (*models.HealthResponse, error) {
		resp := &models.HealthResponse{}
		resp.Body.Status = "ok"
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Tags:        []string{"system"},
		Security:    []map[string][]string{},
	}, func(ctx context.Context, input *struct{}) (*models.VersionResponse, error) {
		info := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Version:   info.Version,
				Commit:    info.Commit,
				BuildDate: info.BuildDate,
				GoVersion: info.GoVersion,
				Platform:  info.Platform,
			},
		}, nil
	})

	s.registerRecordingRoutes()
	s.registerReplayRoutes()
	s.registerEncoderRoutes()
	s.registerCaptureRoutes()
	s.registerAudioRoutes()
	s.registerLibraryRoutes()
	s.registerExportRoutes()
	s.registerDoctorRoutes()
	s.registerLogRoutes()
	s.registerUpdateRoutes()
	s.registerSSERoutes()
}

// withAuth marks an operation as requiring basic auth.
func withAuth() []map[string][]string {
	return []map[string][]string{
		{"basicAuth": {}},
	}
}

// basicAuthMiddleware guards operations carrying a security requirement.
// SSE clients cannot set headers from EventSource, so a base64 "auth"
// query parameter is accepted as a fallback.
func (s *Server) basicAuthMiddleware(username, password string) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		op := ctx.Operation()
		if op != nil && len(op.Security) == 0 {
			next(ctx)
			return
		}

		var credentials string
		if authHeader := ctx.Header("Authorization"); authHeader != "" {
			const prefix = "Basic "
			if !strings.HasPrefix(authHeader, prefix) {
				s.unauthorized(ctx, "Invalid authentication type")
				return
			}
			decoded, err := base64.StdEncoding.DecodeString(authHeader[len(prefix):])
			if err != nil {
				s.unauthorized(ctx, "Invalid credentials format")
				return
			}
			credentials = string(decoded)
		} else if queryAuth := ctx.Query("auth"); queryAuth != "" {
			decoded, err := base64.StdEncoding.DecodeString(queryAuth)
			if err != nil {
				s.unauthorized(ctx, "Invalid credentials format")
				return
			}
			credentials = string(decoded)
		}

		if credentials == "" {
			s.unauthorized(ctx, "Authentication required")
			return
		}

		parts := strings.SplitN(credentials, ":", 2)
		if len(parts) != 2 || parts[0] != username || parts[1] != password {
			s.unauthorized(ctx, "Invalid credentials")
			return
		}

		next(ctx)
	}
}

func (s *Server) unauthorized(ctx huma.Context, message string) {
	ctx.SetHeader("WWW-Authenticate", `Basic realm="grabnode API"`)
	huma.WriteErr(s.api, ctx, http.StatusUnauthorized, message)
}
