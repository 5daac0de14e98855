// Package process supervises the external ffmpeg binary.
//
// A Supervisor owns one spawned ffmpeg process: it holds the stdin pipe for
// the interactive quit command, discards stdout, and reads stderr line by
// line on a dedicated goroutine. That goroutine is the only writer of the
// published state and progress slots; everything else (StopGraceful, Kill,
// status queries) runs in caller context.
//
// State machine:
//
//	starting → running   (first "Output #0" or progress line on stderr)
//	starting → stopped   (process exits cleanly before producing output)
//	running  → stopping  (stop requested)
//	stopping → stopped   (exit observed; any exit code after a stop request)
//	any      → failed    (unexpected non-zero exit or wait failure)
//
// stopped and failed are terminal. ffmpeg commonly exits with a non-zero
// "interrupted" code after the quit command; an exit observed after a stop
// request is therefore always reported as stopped.
//
// Run and RunOutput execute short-lived ffmpeg/ffprobe invocations (trial
// encodes, concatenation, media probing) and capture their output.
package process
