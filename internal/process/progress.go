package process

import (
	"strconv"
	"strings"
)

// Progress is the latest decoded ffmpeg status line. Time and Speed keep
// ffmpeg's own textual forms ("00:00:02.05", "1.00x").
type Progress struct {
	Frame  int64   `json:"frame"`
	FPS    float64 `json:"fps"`
	Time   string  `json:"time"`
	Speed  string  `json:"speed"`
	SizeKB int64   `json:"size_kb"`
}

// ParseProgress decodes an ffmpeg stderr status line. ffmpeg emits two
// layouts of the same line:
//
//	frame=  123 fps= 60 q=20.0 size=    1234kB time=00:00:02.05 speed=1.00x
//	frame=500 fps=60 q=20.0 size=5000kB time=00:00:08.33 speed=1.02x
//
// Both are handled by treating an empty value after "key=" as "take the next
// field". Lines missing either the frame or time marker are not progress;
// unparseable values inside a progress line decode as zero rather than
// failing the line.
func ParseProgress(line string) (Progress, bool) {
	if !strings.Contains(line, "frame=") || !strings.Contains(line, "time=") {
		return Progress{}, false
	}

	fields := strings.Fields(line)
	value := func(key string) string {
		for i, f := range fields {
			v, ok := strings.CutPrefix(f, key)
			if !ok {
				continue
			}
			if v != "" {
				return v
			}
			if i+1 < len(fields) {
				return fields[i+1]
			}
			return ""
		}
		return ""
	}

	var p Progress
	p.Frame, _ = strconv.ParseInt(value("frame="), 10, 64)
	p.FPS, _ = strconv.ParseFloat(value("fps="), 64)
	p.Time = value("time=")
	p.Speed = value("speed=")

	size := value("size=")
	size = strings.TrimSuffix(size, "kB")
	size = strings.TrimSuffix(size, "KiB")
	p.SizeKB, _ = strconv.ParseInt(strings.TrimSpace(size), 10, 64)

	return p, true
}
