// Package client is a typed HTTP client for the sensor API.
//
// Poll endpoints map to one method each. StreamStatus subscribes to the
// server-sent status event stream and hands every decoded snapshot to a
// callback until the context is cancelled, the callback returns an error or
// the server closes the stream.
package client
