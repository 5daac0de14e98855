package ffmpeg

import "strings"

// logLevels are the level names ffmpeg emits when run with
// "-loglevel level+info" style flags.
var logLevels = map[string]bool{
	"quiet":   true,
	"panic":   true,
	"fatal":   true,
	"error":   true,
	"warning": true,
	"info":    true,
	"verbose": true,
	"debug":   true,
	"trace":   true,
}

// ParseLogLevel splits an ffmpeg stderr line into its level and message.
// Two shapes occur: "[info] message" and, for component logs,
// "[libx264 @ 0x55d1...] [warning] message"; the component prefix stays in
// the message, only the level bracket is stripped. Anything else counts
// as info.
func ParseLogLevel(line string) (level, msg string) {
	bracket, rest, ok := bracketPrefix(line)
	if !ok {
		return "info", line
	}

	if logLevels[bracket] {
		return bracket, rest
	}

	// Component-prefixed: look for a level bracket right after it.
	if next, tail, ok := bracketPrefix(rest); ok && logLevels[next] {
		return next, "[" + bracket + "] " + tail
	}
	return "info", line
}

// bracketPrefix peels a leading "[...] " group off the line.
func bracketPrefix(line string) (content, rest string, ok bool) {
	if len(line) < 3 || line[0] != '[' {
		return "", "", false
	}
	content, rest, ok = strings.Cut(line[1:], "] ")
	return content, rest, ok
}
