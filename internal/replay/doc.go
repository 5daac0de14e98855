// Package replay reads the rotating segment ring that a live segmented
// recording maintains, and turns an arbitrary trailing window of it into a
// standalone clip by stream-copy concatenation.
//
// The ring's authoritative state is the segment index file written by the
// encoder's segment muxer, not anything tracked in memory here. The index
// and the segment files are concurrently rewritten by the live encoder;
// readers tolerate the wrap race by filtering out paths that have already
// been rotated away instead of locking against the writer.
package replay
