package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/capturelab/grabnode/internal/config"
	"github.com/capturelab/grabnode/internal/logging"
)

// CreateReplayCmd creates the replay command: a standalone replay buffer
// session that runs until interrupted. Clips are saved through the API of
// a running daemon; this command only keeps the ring warm.
func CreateReplayCmd() *cobra.Command {
	var configFile string
	var logJSON bool

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Run the instant-replay buffer",
		Long: `Continuously captures the screen into a rolling segment ring until Ctrl-C, ` +
			`then discards the buffer. Capture settings hot-reload when the config file changes.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			initCommandLogging(logJSON)
			logger := logging.GetLogger("replay")

			svc, store, err := buildRecorder(configFile)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := svc.ReplayStart(context.Background()); err != nil {
				return fmt.Errorf("start replay buffer: %w", err)
			}
			fmt.Println("Replay buffer running, Ctrl-C to stop")

			// Capture settings follow the config file while running; a
			// capture-affecting change restarts the ring writer.
			watcher := config.NewConfigWatcher(configFile, config.LoadSettings, logging.GetLogger("config"))
			watcher.OnReload(func(next config.Settings) {
				svc.ApplySettings(context.Background(), next)
			})
			if watchErr := watcher.Start(); watchErr != nil {
				logger.Warn("Config watcher disabled", "error", watchErr)
			}
			defer watcher.Stop()

			waitForStop(0)

			if stopErr := svc.ReplayStop(); stopErr != nil {
				return fmt.Errorf("stop replay buffer: %w", stopErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "config.toml", "Path to configuration file")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Log in JSON format")
	return cmd
}
