package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"
)

// Quality selects the rate-control operating point. The named presets map
// to fixed quantizer constants on two scales: QP for the hardware
// backends, CRF for the software one. Custom carries an explicit value
// applied unchanged on whichever scale the encoder uses. The zero value
// is Medium.
type Quality struct {
	preset string
	custom int
}

var (
	QualityLow      = Quality{preset: "low"}
	QualityMedium   = Quality{preset: "medium"}
	QualityHigh     = Quality{preset: "high"}
	QualityLossless = Quality{preset: "lossless"}
)

// CustomQuality pins an explicit quantizer value.
func CustomQuality(value int) Quality {
	return Quality{preset: "custom", custom: value}
}

// QP is the quantization parameter for the CQP-style hardware backends.
func (q Quality) QP() int {
	switch q.preset {
	case "low":
		return 30
	case "high":
		return 20
	case "lossless":
		return 0
	case "custom":
		return q.custom
	default:
		return 25
	}
}

// CRF is the constant rate factor for the software backend.
func (q Quality) CRF() int {
	switch q.preset {
	case "low":
		return 28
	case "high":
		return 18
	case "lossless":
		return 0
	case "custom":
		return q.custom
	default:
		return 23
	}
}

func (q Quality) String() string {
	switch q.preset {
	case "custom":
		return strconv.Itoa(q.custom)
	case "":
		return "medium"
	default:
		return q.preset
	}
}

// ParseQuality reads a preset name or a bare quantizer value.
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return QualityLow, nil
	case "medium", "":
		return QualityMedium, nil
	case "high":
		return QualityHigh, nil
	case "lossless":
		return QualityLossless, nil
	}

	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return Quality{}, fmt.Errorf("unknown quality %q (want low, medium, high, lossless, or a number)", s)
	}
	if v < 0 || v > 51 {
		return Quality{}, fmt.Errorf("quality value %d out of range 0-51", v)
	}
	return CustomQuality(v), nil
}

// MarshalText makes Quality usable directly in TOML and JSON config.
func (q Quality) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalText parses the same forms as ParseQuality.
func (q *Quality) UnmarshalText(text []byte) error {
	parsed, err := ParseQuality(string(text))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}
