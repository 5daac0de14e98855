package ffmpeg

import (
	"strconv"

	"github.com/capturelab/grabnode/internal/capture"
	"github.com/capturelab/grabnode/internal/encoders"
	"github.com/capturelab/grabnode/internal/replay"
)

// gopSize is the keyframe interval shared by all backends. Segments
// produced by the replay feed rotate on whole GOPs, so every segment file
// is independently seekable and concatenable.
const gopSize = "120"

// Request carries everything argument synthesis needs for one recording.
type Request struct {
	Encoder     encoders.Encoder
	Source      capture.Source
	Quality     Quality
	AudioSource string // pulse source name; empty records video only
}

// Recording builds the argument list for a single-file recording. The
// container picks the muxer via Muxer and is otherwise passed through
// unvalidated.
func Recording(req Request, output, container string) []string {
	args := commonArgs(req)
	return append(args, "-f", Muxer(container), output)
}

// ReplayFeed builds the argument list for the rotating segmented
// recording that feeds a replay ring: fixed-length matroska segments, a
// CSV rotation index, wrap-around naming, and per-segment timestamp
// reset.
func ReplayFeed(req Request, ring replay.Config) []string {
	args := commonArgs(req)
	return append(args,
		"-f", "segment",
		"-segment_time", strconv.Itoa(ring.SegmentSeconds),
		"-segment_format", "matroska",
		"-segment_wrap", strconv.Itoa(ring.MaxSegments),
		"-segment_list", ring.IndexPath(),
		"-segment_list_type", "csv",
		"-reset_timestamps", "1",
		ring.SegmentPattern(),
	)
}

// commonArgs assembles the shared front of both command shapes. Group
// order matters to ffmpeg: overwrite, device init, grab input, audio
// input, video encode, audio encode.
func commonArgs(req Request) []string {
	args := []string{"-y"}

	if req.Encoder.Kind == encoders.KindVAAPI && req.Encoder.Device != "" {
		args = append(args, "-vaapi_device", req.Encoder.Device)
	}

	args = append(args, req.Source.InputArgs()...)

	if req.AudioSource != "" {
		args = append(args, "-f", "pulse", "-i", req.AudioSource)
	}

	args = append(args, encodeArgs(req.Encoder.Kind, req.Quality)...)

	if req.AudioSource != "" {
		args = append(args, "-map", "1:a", "-c:a", "aac", "-b:a", "192k")
	}
	return args
}

// encodeArgs emits the backend-specific video encode group. Each backend
// speaks its own rate-control vocabulary over the same quality scalar;
// VAAPI additionally needs the frames uploaded to the GPU through a
// filter chain before they reach the encoder.
func encodeArgs(kind encoders.Kind, q Quality) []string {
	switch kind {
	case encoders.KindVAAPI:
		return []string{
			"-filter_complex", "[0:v]hwupload,scale_vaapi=format=nv12[vout]",
			"-map", "[vout]",
			"-c:v", "h264_vaapi",
			"-rc_mode", "CQP",
			"-qp", strconv.Itoa(q.QP()),
			"-g", gopSize,
		}
	case encoders.KindNVENC:
		return []string{
			"-map", "0:v",
			"-c:v", "h264_nvenc",
			"-preset", "p4",
			"-rc", "constqp",
			"-qp", strconv.Itoa(q.QP()),
			"-g", gopSize,
		}
	case encoders.KindQSV:
		return []string{
			"-map", "0:v",
			"-c:v", "h264_qsv",
			"-preset", "medium",
			"-global_quality", strconv.Itoa(q.QP()),
			"-g", gopSize,
		}
	default:
		return []string{
			"-map", "0:v",
			"-c:v", "libx264",
			"-preset", "fast",
			"-crf", strconv.Itoa(q.CRF()),
			"-g", gopSize,
		}
	}
}

// Muxer maps user-facing container names to ffmpeg muxer names. Unknown
// names pass through untouched; ffmpeg rejects them itself if they name
// no muxer.
func Muxer(container string) string {
	switch container {
	case "mkv":
		return "matroska"
	case "mp4":
		return "mp4"
	case "webm":
		return "webm"
	case "avi":
		return "avi"
	case "mov":
		return "mov"
	case "ts":
		return "mpegts"
	default:
		return container
	}
}
