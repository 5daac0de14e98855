package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/capturelab/grabnode/cmd"
	"github.com/capturelab/grabnode/internal/api"
	"github.com/capturelab/grabnode/internal/config"
	"github.com/capturelab/grabnode/internal/doctor"
	"github.com/capturelab/grabnode/internal/encoders"
	"github.com/capturelab/grabnode/internal/events"
	"github.com/capturelab/grabnode/internal/export"
	"github.com/capturelab/grabnode/internal/library"
	"github.com/capturelab/grabnode/internal/logging"
	"github.com/capturelab/grabnode/internal/metrics/exporters"
	"github.com/capturelab/grabnode/internal/recorder"
	"github.com/capturelab/grabnode/internal/updater"
)

// Options for the CLI - flat structure with toml mapping. The capture,
// replay, storage, and export sections of the same file are loaded
// separately via config.LoadSettings and hot-reloaded at runtime.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":9080" toml:"server.port" env:"SERVER_PORT"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Update settings
	UpdateRepository string `help:"GitHub repository for self-updates" default:"capturelab/grabnode" toml:"update.repository" env:"UPDATE_REPOSITORY"`
	UpdatePrerelease bool   `help:"Include prereleases when checking for updates" default:"false" toml:"update.prerelease" env:"UPDATE_PRERELEASE"`

	// Logging settings
	LoggingLevel    string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat   string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingRecorder string `help:"Recorder logging level" default:"info" toml:"logging.recorder" env:"LOGGING_RECORDER"`
	LoggingEncoders string `help:"Encoders logging level" default:"info" toml:"logging.encoders" env:"LOGGING_ENCODERS"`
	LoggingCapture  string `help:"Capture logging level" default:"info" toml:"logging.capture" env:"LOGGING_CAPTURE"`
	LoggingReplay   string `help:"Replay buffer logging level" default:"info" toml:"logging.replay" env:"LOGGING_REPLAY"`
	LoggingLibrary  string `help:"Library logging level" default:"info" toml:"logging.library" env:"LOGGING_LIBRARY"`
	LoggingExport   string `help:"Export logging level" default:"info" toml:"logging.export" env:"LOGGING_EXPORT"`
	LoggingProcess  string `help:"Process supervisor logging level" default:"info" toml:"logging.process" env:"LOGGING_PROCESS"`
	LoggingAPI      string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically; CLI flags win over file and env.
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			logging.GetLogger("main").Warn("Failed to load config", "error", loadErr)
		}

		logging.Configure(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"recorder": opts.LoggingRecorder,
				"encoders": opts.LoggingEncoders,
				"capture":  opts.LoggingCapture,
				"replay":   opts.LoggingReplay,
				"library":  opts.LoggingLibrary,
				"export":   opts.LoggingExport,
				"process":  opts.LoggingProcess,
				"api":      opts.LoggingAPI,
			},
		})

		logger := logging.GetLogger("main")

		settings, err := config.LoadSettings(opts.Config)
		if err != nil {
			logger.Warn("Failed to load capture settings, using defaults", "error", err)
		}
		if err := settings.EnsureDirs(); err != nil {
			logger.Error("Failed to create data directories", "error", err)
			os.Exit(1)
		}

		eventBus := events.New()

		// Mirror every log line onto the event bus for SSE streaming.
		var logSeq atomic.Uint64
		logging.SetPublisher(func(entry logging.Entry) {
			eventBus.Publish(events.LogEntryEvent{
				Seq:        logSeq.Add(1),
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		})

		store, err := library.NewStore(settings.Storage.DBPath)
		if err != nil {
			logger.Error("Failed to open recordings library", "error", err)
			os.Exit(1)
		}
		indexer := library.NewIndexer(store, settings.Storage.Thumbnails)

		catalog := encoders.NewCatalog(encoders.DefaultTTL)

		presets, err := export.LoadPresets(settings.Export.PresetsFile)
		if err != nil {
			logger.Warn("Failed to load export presets, using built-ins", "error", err)
			presets = export.BuiltinPresets()
		}
		exporter := export.NewPipeline(presets, eventBus)

		rec := recorder.New(settings, catalog, eventBus, indexer)

		updateService, err := updater.NewService(&updater.Options{
			Repository: opts.UpdateRepository,
			Prerelease: opts.UpdatePrerelease,
		})
		if err != nil {
			logger.Warn("Failed to initialize update service", "error", err)
		}

		server := api.NewServer(&api.Options{
			AuthUsername:  opts.AuthUsername,
			AuthPassword:  opts.AuthPassword,
			Recorder:      rec,
			Catalog:       catalog,
			Library:       store,
			Exporter:      exporter,
			UpdateService: updateService,
			EventBus:      eventBus,
			Doctor: doctor.Options{
				OutputDir: settings.Storage.OutputDir,
				CacheDir:  settings.Replay.RingConfig().Dir,
				Catalog:   catalog,
			},
			PrometheusHandler: exporters.HTTPHandler(),
		})

		// Hot-reload the capture sections on config file changes. Logging
		// levels come from the same file, so re-apply those too.
		watcher := config.NewConfigWatcher(opts.Config, config.LoadSettings, logging.GetLogger("config"))
		watcher.OnReload(func(next config.Settings) {
			if dirErr := next.EnsureDirs(); dirErr != nil {
				logger.Warn("Reload: failed to create data directories", "error", dirErr)
				return
			}
			rec.ApplySettings(context.Background(), next)

			lcfg := config.LoadLoggingConfig(opts.Config)
			logging.ApplyLevels(lcfg.Level, lcfg.Modules)

			eventBus.Publish(events.ConfigReloadedEvent{
				Path:      opts.Config,
				Timestamp: time.Now().Format(time.RFC3339),
			})
		})

		hooks.OnStart(func() {
			if watchErr := watcher.Start(); watchErr != nil {
				logger.Warn("Config watcher disabled", "error", watchErr)
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			// Finish live sessions before the library closes under them.
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			rec.Close(ctx)
			cancel()

			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping config watcher", "error", stopErr)
			}
			if closeErr := store.Close(); closeErr != nil {
				logger.Warn("Error closing recordings library", "error", closeErr)
			}
		})
	})

	cli.Root().Use = "grabnode"
	cli.Root().AddCommand(
		cmd.CreateRecordCmd(),
		cmd.CreateReplayCmd(),
		cmd.CreateEncodersCmd(),
		cmd.CreateDoctorCmd(),
		cmd.CreateVersionCmd(),
	)

	cli.Run()
}
