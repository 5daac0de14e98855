// Package ffmpeg synthesizes ffmpeg argument lists for recordings and
// replay rings, and decodes ffmpeg's stderr log levels. Synthesis is pure:
// flag names and group ordering are a compatibility contract with ffmpeg's
// argument grammar, nothing here spawns a process or touches the
// filesystem.
package ffmpeg
