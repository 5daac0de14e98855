package replay

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Materialize concatenates the selected segment files into output by
// stream copy, no re-encode. The concat manifest written for the muxer is
// removed on every path out, success or failure.
func (r *Ring) Materialize(ctx context.Context, paths []string, output string) error {
	manifest := filepath.Join(r.cfg.Dir, manifestFileName)

	var sb strings.Builder
	for _, p := range paths {
		fmt.Fprintf(&sb, "file '%s'\n", p)
	}
	if err := os.WriteFile(manifest, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write concat manifest: %w", err)
	}
	defer os.Remove(manifest)

	args := []string{"-y", "-f", "concat", "-safe", "0", "-i", manifest, "-c", "copy", output}
	if _, err := r.run(ctx, args); err != nil {
		return fmt.Errorf("concatenate segments: %w", err)
	}

	r.logger.Info("Replay saved", "output", output, "segments", len(paths))
	return nil
}

// SaveLast materializes the trailing window of the ring into output.
func (r *Ring) SaveLast(ctx context.Context, seconds int, output string) error {
	paths, err := r.SelectLast(seconds)
	if err != nil {
		return err
	}
	return r.Materialize(ctx, paths, output)
}
