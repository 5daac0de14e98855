package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/capturelab/grabnode/internal/config"
	"github.com/capturelab/grabnode/internal/doctor"
	"github.com/capturelab/grabnode/internal/encoders"
)

// CreateDoctorCmd creates the doctor command: diagnose the capture
// environment and exit non-zero if anything is broken.
func CreateDoctorCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the capture environment",
		Long:  `Checks encoder binaries, the X11 display, audio, GPU render nodes, and data directories, and reports what a recording session would find.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			initCommandLogging(false)

			settings, err := config.LoadSettings(configFile)
			if err != nil {
				return err
			}

			report := doctor.Run(context.Background(), doctor.Options{
				OutputDir: settings.Storage.OutputDir,
				CacheDir:  settings.Replay.RingConfig().Dir,
				Catalog:   encoders.NewCatalog(time.Minute),
			})

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, check := range report.Checks {
				status := "ok"
				if !check.OK {
					status = "FAIL"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", check.Name, status, check.Detail)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if !report.Healthy() {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "config.toml", "Path to configuration file")
	return cmd
}
