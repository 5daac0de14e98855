package encoders

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/capturelab/grabnode/internal/logging"
	"github.com/capturelab/grabnode/internal/process"
)

// Kind names an encode backend.
type Kind string

const (
	KindVAAPI    Kind = "vaapi"
	KindNVENC    Kind = "nvenc"
	KindQSV      Kind = "qsv"
	KindSoftware Kind = "software"
)

// Encoder describes one encode backend on this machine. Immutable once
// produced by discovery.
type Encoder struct {
	Name      string `json:"name"`
	Kind      Kind   `json:"kind"`
	Available bool   `json:"available"`
	Device    string `json:"device,omitempty"`
}

// Hardware reports whether the encoder runs on a GPU backend.
func (e Encoder) Hardware() bool {
	return e.Kind != KindSoftware
}

const probeTimeout = 10 * time.Second

// trialSource is a synthetic one-frame input: encoding it exercises the
// backend without touching the display or needing capture permissions.
const trialSource = "testsrc=duration=0.1:size=64x64:rate=1"

// Discover probes each hardware backend with a trial encode and returns
// the catalog in preference order: VAAPI, NVENC, QSV, software. It never
// fails: probe errors and timeouts demote a backend to Available=false,
// and the software entry is always available even when the encoder binary
// itself is missing from PATH.
func Discover(ctx context.Context) []Encoder {
	logger := logging.GetLogger("encoders")

	return []Encoder{
		probeVAAPI(ctx, logger),
		probeBackend(ctx, logger, KindNVENC, "h264_nvenc"),
		probeBackend(ctx, logger, KindQSV, "h264_qsv"),
		{Name: "libx264", Kind: KindSoftware, Available: true},
	}
}

// SelectBest returns the first available encoder in catalog order. Total
// by construction: the software entry guarantees a match.
func SelectBest(list []Encoder) Encoder {
	for _, e := range list {
		if e.Available {
			return e
		}
	}
	return Encoder{Name: "libx264", Kind: KindSoftware, Available: true}
}

// ByKind finds an available encoder of the given kind, for configurations
// that pin a backend instead of taking the preference order.
func ByKind(list []Encoder, kind Kind) (Encoder, bool) {
	for _, e := range list {
		if e.Kind == kind && e.Available {
			return e, true
		}
	}
	return Encoder{}, false
}

// probeVAAPI walks the DRM render nodes and claims the first one that
// completes a trial encode. At most one VAAPI entry is ever produced.
func probeVAAPI(ctx context.Context, logger *slog.Logger) Encoder {
	enc := Encoder{Name: "h264_vaapi", Kind: KindVAAPI}
	for _, device := range renderNodes() {
		err := trialEncode(ctx,
			"-vaapi_device", device,
			"-vf", "format=nv12,hwupload",
			"-c:v", "h264_vaapi")
		if err != nil {
			logger.Debug("VAAPI probe failed", "device", device, "error", err)
			continue
		}
		logger.Info("VAAPI encoder available", "device", device)
		enc.Available = true
		enc.Device = device
		break
	}
	return enc
}

func probeBackend(ctx context.Context, logger *slog.Logger, kind Kind, codec string) Encoder {
	enc := Encoder{Name: codec, Kind: kind}
	if err := trialEncode(ctx, "-c:v", codec); err != nil {
		logger.Debug("Encoder probe failed", "codec", codec, "error", err)
		return enc
	}
	logger.Info("Hardware encoder available", "codec", codec)
	enc.Available = true
	return enc
}

// trialEncode runs a one-frame encode of the synthetic source through the
// given encode flags, discarding the output. Success is exit code zero.
func trialEncode(ctx context.Context, encodeArgs ...string) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	args := []string{"-y", "-loglevel", "error", "-f", "lavfi", "-i", trialSource}
	args = append(args, encodeArgs...)
	args = append(args, "-frames:v", "1", "-f", "null", "-")

	_, err := process.Run(ctx, args)
	return err
}

// renderNodes lists the DRM render devices present on this machine.
func renderNodes() []string {
	var nodes []string
	for i := 128; i < 136; i++ {
		path := fmt.Sprintf("/dev/dri/renderD%d", i)
		if _, err := os.Stat(path); err == nil {
			nodes = append(nodes, path)
		}
	}
	return nodes
}
