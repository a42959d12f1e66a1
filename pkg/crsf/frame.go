package crsf

import (
	"fmt"
	"io"
)

// Frame size limits.
const (
	MaxFrameSize   = 64
	MaxPayloadSize = 60
	// minLength is the smallest valid length byte: type, one payload byte and crc.
	minLength = 3
)

// BaudRate is the UART bit rate of CRSF.
const BaudRate = 420000

// Device addresses.
const (
	AddressBroadcast         byte = 0x00
	AddressFlightController  byte = 0xC8
	AddressRadioTransmitter  byte = 0xEA
	AddressReceiver          byte = 0xEC
	AddressTransmitterModule byte = 0xEE
)

// FrameType identifies the payload of a frame.
type FrameType byte

// Frame types.
const (
	FrameGPS              FrameType = 0x02
	FrameBatterySensor    FrameType = 0x08
	FrameLinkStatistics   FrameType = 0x14
	FrameRCChannelsPacked FrameType = 0x16
	FrameAttitude         FrameType = 0x1E
	FrameFlightMode       FrameType = 0x21
)

var frameTypeNames = map[FrameType]string{
	FrameGPS:              "GPS",
	FrameBatterySensor:    "BATTERY_SENSOR",
	FrameLinkStatistics:   "LINK_STATISTICS",
	FrameRCChannelsPacked: "RC_CHANNELS_PACKED",
	FrameAttitude:         "ATTITUDE",
	FrameFlightMode:       "FLIGHT_MODE",
}

// String implements fmt.Stringer.
func (t FrameType) String() string {
	if name, ok := frameTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("0x%02X", byte(t))
}

// Frame is a verified frame.
type Frame struct {
	Address byte
	Type    FrameType
	Payload []byte
}

// Encode builds the on-wire bytes of a frame. The payload holds 1 to
// MaxPayloadSize bytes.
func Encode(addr byte, typ FrameType, payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}
	if len(payload) > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}
	b := make([]byte, len(payload)+4)
	b[0], b[1], b[2] = addr, byte(len(payload)+2), byte(typ)
	copy(b[3:], payload)
	b[len(b)-1] = CRC8(b[2 : len(b)-1])
	return b, nil
}

// Bytes returns encoded bytes for sending.
func (f *Frame) Bytes() ([]byte, error) {
	return Encode(f.Address, f.Type, f.Payload)
}

// WriteTo writes encoded bytes in a single Write.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	b, err := f.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}

// Decode decodes the payload by frame type.
func (f *Frame) Decode() (Sample, error) {
	return DecodePayload(f.Type, f.Payload)
}

// DecodePayload decodes a payload by frame type. Unknown types yield an
// Unknown sample together with an *UnknownFrameTypeError so the caller can
// forward them.
func DecodePayload(typ FrameType, payload []byte) (Sample, error) {
	switch typ {
	case FrameRCChannelsPacked:
		ch, err := UnpackChannels(payload)
		if err != nil {
			return nil, err
		}
		return ch, nil
	case FrameGPS:
		return decodeGPS(payload)
	case FrameLinkStatistics:
		return decodeLinkStatistics(payload)
	case FrameAttitude:
		return decodeAttitude(payload)
	case FrameFlightMode:
		return decodeFlightMode(payload), nil
	case FrameBatterySensor:
		return decodeBattery(payload)
	}
	unknown := &Unknown{Type: typ, Data: append([]byte(nil), payload...)}
	return unknown, &UnknownFrameTypeError{Type: typ}
}
