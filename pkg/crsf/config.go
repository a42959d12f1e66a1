package crsf

import "time"

// Config holds the engine constants.
type Config struct {
	// MaxPayload bounds accepted and sent payloads, at most MaxPayloadSize.
	MaxPayload int
	// BufferSize is the receive buffer capacity.
	BufferSize int
	// PacketTimeout flushes a partial frame when no byte arrives in time.
	PacketTimeout time.Duration
	// Failsafe marks the link down when no byte arrives in time.
	Failsafe time.Duration
	// ReadBatch is the maximum number of bytes read per Poll.
	ReadBatch int
	// PollInterval is how long Run idles after a Poll read nothing.
	PollInterval time.Duration
}

// DefaultConfig returns the defaults observed on real links.
func DefaultConfig() Config {
	return Config{
		MaxPayload:    MaxPayloadSize,
		BufferSize:    MaxFrameSize,
		PacketTimeout: 100 * time.Millisecond,
		Failsafe:      100 * time.Millisecond,
		ReadBatch:     32,
		PollInterval:  time.Millisecond,
	}
}

func (c *Config) maxPayload() int {
	if c.MaxPayload <= 0 || c.MaxPayload > MaxPayloadSize {
		return MaxPayloadSize
	}
	return c.MaxPayload
}

func (c *Config) readBatch() int {
	if c.ReadBatch <= 0 {
		return 32
	}
	return c.ReadBatch
}
