// Package msgs defines the telemetry messages published outside the
// vehicle. Messages are protobuf-serializable and travel in a Typed
// envelope carrying the type ID, source link and sample time.
package msgs
