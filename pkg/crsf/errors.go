package crsf

import (
	"errors"
	"fmt"
)

var (
	// ErrPayloadTooLarge indicates a payload exceeds the maximum payload size.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrNotReady indicates the link is down or passthrough is active.
	ErrNotReady = errors.New("not ready")
	// ErrEmptyPayload indicates a frame without payload, which has no valid
	// length byte.
	ErrEmptyPayload = errors.New("empty payload")
	// ErrShortPayload indicates a payload is too short for its frame type.
	ErrShortPayload = errors.New("short payload")
	// ErrInvalidChannel indicates a channel index outside 1..16.
	ErrInvalidChannel = errors.New("invalid channel")
	// ErrTransportUnavailable matches any TransportError with errors.Is.
	ErrTransportUnavailable = errors.New("transport unavailable")
)

// MalformedLengthError reports a length byte outside the valid window.
type MalformedLengthError struct {
	Length byte
}

// Error implements error.
func (e *MalformedLengthError) Error() string {
	return fmt.Sprintf("malformed length %d", e.Length)
}

// CrcMismatchError reports a frame failing the CRC check.
type CrcMismatchError struct {
	Type FrameType
	Want byte
	Got  byte
}

// Error implements error.
func (e *CrcMismatchError) Error() string {
	return fmt.Sprintf("crc mismatch on %s: want %02x, got %02x", e.Type, e.Want, e.Got)
}

// UnknownFrameTypeError reports a frame type without a decoder.
type UnknownFrameTypeError struct {
	Type FrameType
}

// Error implements error.
func (e *UnknownFrameTypeError) Error() string {
	return fmt.Sprintf("unknown frame type %s", e.Type)
}

// TransportError wraps failures of the underlying byte stream.
type TransportError struct {
	Op  string
	Err error
}

// Error implements error.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrTransportUnavailable) hold.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransportUnavailable
}
