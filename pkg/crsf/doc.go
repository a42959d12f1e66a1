// Package crsf implements the CRSF serial protocol engine.
package crsf

// CRSF is spoken between an RC receiver and a flight controller over a
// single full-duplex UART (420000 baud, 8N1). Every frame on the wire is
//
//	[address][length][type][payload ...][crc]
//
// where length counts type, payload and crc, and crc is CRC8 DVB-S2 over
// type and payload.
//
// The Framer recovers frame boundaries from an arbitrary byte stream:
// implausible length bytes are skipped one at a time, frames failing the
// CRC check are dropped as a whole, and a stale partial frame is flushed
// after the packet timeout.
//
// The Engine drives the Framer from an io.ReadWriter with a bounded,
// non-blocking Poll, decodes payloads, tracks link liveness and sends
// channel and telemetry frames back. Decoded samples are published to a
// lock-guarded Snapshot which can be read from other goroutines.
