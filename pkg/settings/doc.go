// Package settings holds the device configuration of the filament sensor.
//
// There is exactly one Store per process. It is created at startup from
// Defaults (optionally overlaid by the config file) and changes only through
// Merge, a field-by-field overwrite: every key present in the partial update
// replaces the stored value, absent keys are left untouched.
//
// # Forward Compatibility
//
// Keys the service does not know are accepted and kept verbatim as
// extensions, so a richer web UI or newer firmware configuration can round
// trip through an older service without losing data.
//
// # Validation
//
// The store performs no range validation. A merge is rejected only when the
// body is not a JSON object or when a known key carries a value that cannot
// be decoded into that field's type; in both cases nothing is applied.
package settings
