// Package stream delivers status snapshots to clients in two modes.
//
// Poll mode returns exactly one freshly produced snapshot per call.
//
// Stream mode keeps a long-lived subscription open: Open emits one snapshot
// immediately and then one per refresh interval until the stream is closed.
//
// # Stream Lifecycle
//
// Every stream owns exactly one timer. The refresh interval is read from the
// producer when the stream opens and does not change afterwards. Each tick
// emits a snapshot and then re-arms the timer, so emissions of a single
// stream never overlap.
//
// A stream moves from OPEN to CLOSED exactly once, either through
// Handle.Close (the peer disconnected) or because an emission failed. On that
// transition the timer is stopped, the stream is removed from the publisher
// and the close callback runs once. No emission starts after Close returns.
// A closed handle cannot be reopened; opening again creates a new stream.
//
// Streams are independent: closing one never affects another.
package stream
