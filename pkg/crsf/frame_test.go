package crsf

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// RC_CHANNELS_PACKED with all 16 channels at ChannelValueMid.
var centerFrame = []byte{
	0xc8, 0x18, 0x16,
	0xe0, 0x03, 0x1f, 0xf8, 0xc0, 0x07, 0x3e, 0xf0, 0x81, 0x0f, 0x7c,
	0xe0, 0x03, 0x1f, 0xf8, 0xc0, 0x07, 0x3e, 0xf0, 0x81, 0x0f, 0x7c,
	0xad,
}

func TestCRC8(t *testing.T) {
	require.Equal(t, byte(0xbc), CRC8([]byte("123456789")))
	require.Equal(t, byte(0xad), CRC8(centerFrame[2:25]))
	require.Equal(t, byte(0), CRC8(nil))
}

func TestEncode(t *testing.T) {
	b, err := Encode(AddressFlightController, FrameRCChannelsPacked, centerFrame[3:25])
	require.NoError(t, err)
	require.Equal(t, centerFrame, b)

	b, err = Encode(AddressFlightController, FrameFlightMode, make([]byte, MaxPayloadSize))
	require.NoError(t, err)
	require.Len(t, b, MaxFrameSize)
	require.Equal(t, byte(MaxPayloadSize+2), b[1])

	b, err = Encode(AddressFlightController, FrameFlightMode, make([]byte, MaxPayloadSize+1))
	require.Equal(t, ErrPayloadTooLarge, err)
	require.Nil(t, b)
	b, err = Encode(AddressFlightController, FrameFlightMode, nil)
	require.Equal(t, ErrEmptyPayload, err)
	require.Nil(t, b)
}

func TestEncodeShortestFrame(t *testing.T) {
	b, err := Encode(AddressFlightController, FrameFlightMode, []byte{0})
	require.NoError(t, err)
	require.Equal(t, byte(minLength), b[1])

	r := NewFramer(0, 0).Feed(b)
	require.Empty(t, r.Skipped)
	require.Equal(t, []Frame{{Address: AddressFlightController, Type: FrameFlightMode, Payload: []byte{0}}}, r.Frames)
}


func TestFrameWriteTo(t *testing.T) {
	f := &Frame{Address: AddressFlightController, Type: FrameRCChannelsPacked, Payload: centerFrame[3:25]}
	var buf bytes.Buffer
	n, err := f.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(len(centerFrame)), n)
	require.Equal(t, centerFrame, buf.Bytes())

	f.Payload = make([]byte, MaxPayloadSize+1)
	buf.Reset()
	_, err = f.WriteTo(&buf)
	require.Equal(t, ErrPayloadTooLarge, err)
	require.Zero(t, buf.Len())
}

func TestDecodePayload(t *testing.T) {
	sample, err := DecodePayload(FrameRCChannelsPacked, centerFrame[3:25])
	require.NoError(t, err)
	ch, ok := sample.(RawChannels)
	require.True(t, ok)
	require.Equal(t, uint16(ChannelValueMid), ch[15])

	sample, err = DecodePayload(FrameType(0x7f), []byte{1, 2, 3})
	var unknown *UnknownFrameTypeError
	require.True(t, errors.As(err, &unknown))
	require.Equal(t, FrameType(0x7f), unknown.Type)
	require.Equal(t, &Unknown{Type: 0x7f, Data: []byte{1, 2, 3}}, sample)

	require.Equal(t, "ATTITUDE", FrameAttitude.String())
	require.Equal(t, "0x7F", FrameType(0x7f).String())
}
