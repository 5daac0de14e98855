// Package recorder owns the live capture sessions. A Service holds the
// configuration snapshot, the encoder catalog, and at most one manual
// recording plus one replay session at a time; every mutation goes
// through its lock so the packages underneath can stay singleton-free.
//
// Each live session gets a pump goroutine that bridges the supervisor's
// state and progress slots onto the event bus and the Prometheus gauges.
// The pump ends when the supervised process exits.
package recorder
