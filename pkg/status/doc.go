// Package status implements the filament sensor status model.
//
// A Model turns raw readings from a Source into Snapshot values. Snapshots
// are immutable values: one is built per poll response or stream tick and
// discarded after delivery. All derived fields are computed here, never
// taken from the source:
//
//   - actualFilamentMm = movementPulses * mm_per_pulse
//   - deficitMm = max(0, expected - actual)
//   - passRatio = actual / expected (0 while nothing is expected)
//
// Every percentage, ratio and ordinal is clamped into its declared range, so
// consumers never need to re-validate a snapshot.
//
// # Sources
//
// Source is the pluggable sensor capability. SimulatedSource produces
// randomized readings for development and demos; StaticSource and
// SourceFunc give tests full control over the values.
package status
