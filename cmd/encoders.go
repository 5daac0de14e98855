package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/capturelab/grabnode/internal/encoders"
)

// CreateEncodersCmd creates the encoders command: probe every encode
// backend with a trial encode and print the catalog.
func CreateEncodersCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "encoders",
		Short: "Probe available hardware encoders",
		Long:  `Runs a trial encode against each backend (VAAPI, NVENC, QSV, software) and reports which ones work on this machine.`,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			initCommandLogging(false)

			list := encoders.Discover(context.Background())
			best := encoders.SelectBest(list)

			if asJSON {
				out := struct {
					Encoders []encoders.Encoder `json:"encoders"`
					Best     string             `json:"best"`
				}{list, best.Name}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ENCODER\tKIND\tAVAILABLE\tDEVICE")
			for _, e := range list {
				marker := ""
				if e.Name == best.Name {
					marker = " *"
				}
				fmt.Fprintf(w, "%s%s\t%s\t%t\t%s\n", e.Name, marker, e.Kind, e.Available, e.Device)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Println("\n* selected by default")
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the catalog as JSON")
	return cmd
}
