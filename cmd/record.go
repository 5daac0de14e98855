// Package cmd holds the headless subcommands: one-shot recording, a
// standalone replay buffer session, encoder probing, and diagnostics.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/capturelab/grabnode/internal/config"
	"github.com/capturelab/grabnode/internal/encoders"
	"github.com/capturelab/grabnode/internal/events"
	"github.com/capturelab/grabnode/internal/ffmpeg"
	"github.com/capturelab/grabnode/internal/library"
	"github.com/capturelab/grabnode/internal/logging"
	"github.com/capturelab/grabnode/internal/recorder"
)

// CreateRecordCmd creates the record command: a one-shot recording
// without the API server, stopped by Ctrl-C or --duration.
func CreateRecordCmd() *cobra.Command {
	var configFile string
	var quality string
	var container string
	var duration time.Duration
	var logJSON bool

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record the screen to a file",
		Long: `Starts a fullscreen recording using the configured capture settings ` +
			`and stops on Ctrl-C (or after --duration). The finished file is added to the library.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			initCommandLogging(logJSON)
			logger := logging.GetLogger("record")

			svc, store, err := buildRecorder(configFile)
			if err != nil {
				return err
			}
			defer store.Close()

			var opts recorder.StartOptions
			if quality != "" {
				q, parseErr := ffmpeg.ParseQuality(quality)
				if parseErr != nil {
					return parseErr
				}
				opts.Quality = &q
			}
			opts.Container = container

			ctx := context.Background()
			info, err := svc.StartRecording(ctx, opts)
			if err != nil {
				return fmt.Errorf("start recording: %w", err)
			}
			logger.Info("Recording", "path", info.Path, "encoder", info.Encoder)
			fmt.Printf("Recording to %s (encoder %s), Ctrl-C to stop\n", info.Path, info.Encoder)

			waitForStop(duration)

			stopped, err := svc.StopRecording(ctx)
			if err != nil {
				return fmt.Errorf("stop recording: %w", err)
			}
			fmt.Printf("Saved %s\n", stopped.Path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "config.toml", "Path to configuration file")
	cmd.Flags().StringVarP(&quality, "quality", "q", "", "Quality preset override (low, medium, high, lossless)")
	cmd.Flags().StringVar(&container, "container", "", "Container override (mkv, mp4, mov)")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "Stop automatically after this long (0 records until interrupted)")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Log in JSON format")
	return cmd
}

// initCommandLogging sets up minimal logging for headless commands.
func initCommandLogging(logJSON bool) {
	cfg := logging.Config{Level: "info", Format: "text"}
	if logJSON {
		cfg.Format = "json"
	}
	logging.Configure(cfg)
}

// buildRecorder assembles the recorder stack a headless command needs.
// The caller owns the returned store.
func buildRecorder(configFile string) (*recorder.Service, *library.Store, error) {
	settings, err := config.LoadSettings(configFile)
	if err != nil {
		return nil, nil, err
	}
	if err := settings.EnsureDirs(); err != nil {
		return nil, nil, err
	}

	store, err := library.NewStore(settings.Storage.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open recordings library: %w", err)
	}

	indexer := library.NewIndexer(store, settings.Storage.Thumbnails)
	catalog := encoders.NewCatalog(encoders.DefaultTTL)
	svc := recorder.New(settings, catalog, events.New(), indexer)
	return svc, store, nil
}

// waitForStop blocks until SIGINT/SIGTERM or, when d > 0, the timeout.
func waitForStop(d time.Duration) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if d > 0 {
		select {
		case <-sigCh:
		case <-time.After(d):
		}
		return
	}
	<-sigCh
}
