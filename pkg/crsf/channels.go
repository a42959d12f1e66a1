package crsf

// Channel counts and payload size of RC_CHANNELS_PACKED.
const (
	ChannelCount        = 16
	ChannelsPayloadSize = 22
	channelBits         = 11
	channelMask         = 1<<channelBits - 1
)

// Raw channel codes.
const (
	ChannelValueMin  = 172
	ChannelValue1000 = 191
	ChannelValueMid  = 992
	ChannelValue2000 = 1792
	ChannelValueMax  = 1811
)

// Normalized channel values in microseconds.
const (
	MicrosMin = 1000
	MicrosMid = 1500
	MicrosMax = 2000
)

const channelDelta = ChannelValue2000 - ChannelValue1000

// RawChannels is a channel set in the native 11-bit domain.
type RawChannels [ChannelCount]uint16

// Channels is a channel set in microseconds.
type Channels [ChannelCount]int

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// RawToMicros converts a raw channel code to microseconds, rounding to
// the nearest microsecond.
func RawToMicros(raw int) int {
	raw = clamp(raw, ChannelValue1000, ChannelValue2000)
	return MicrosMin + ((raw-ChannelValue1000)*1000+channelDelta/2)/channelDelta
}

// MicrosToRaw converts microseconds to the raw channel code which decodes
// back to exactly the same value.
func MicrosToRaw(us int) int {
	us = clamp(us, MicrosMin, MicrosMax)
	raw := ChannelValue1000 + ((us-MicrosMin)*channelDelta+500)/1000
	raw = clamp(raw, ChannelValue1000, ChannelValue2000)
	if got := RawToMicros(raw); got < us && raw < ChannelValue2000 {
		if RawToMicros(raw+1) == us {
			raw++
		}
	} else if got > us && raw > ChannelValue1000 {
		if RawToMicros(raw-1) == us {
			raw--
		}
	}
	return raw
}

// Micros converts all channels to microseconds.
func (r RawChannels) Micros() (c Channels) {
	for n, v := range r {
		c[n] = RawToMicros(int(v))
	}
	return
}

// Raw converts all channels to raw codes.
func (c Channels) Raw() (r RawChannels) {
	for n, v := range c {
		r[n] = uint16(MicrosToRaw(v))
	}
	return
}

// Pack packs the channels into the 22-byte payload, least significant
// bit first.
func (r RawChannels) Pack() []byte {
	b := make([]byte, 0, ChannelsPayloadSize)
	var acc uint32
	var bits uint
	for _, v := range r {
		acc |= uint32(v&channelMask) << bits
		for bits += channelBits; bits >= 8; bits -= 8 {
			b = append(b, byte(acc))
			acc >>= 8
		}
	}
	return b
}

// UnpackChannels unpacks a RC_CHANNELS_PACKED payload.
func UnpackChannels(payload []byte) (r RawChannels, err error) {
	if len(payload) < ChannelsPayloadSize {
		return r, ErrShortPayload
	}
	var acc uint32
	var bits uint
	n := 0
	for i := range r {
		for ; bits < channelBits; bits += 8 {
			acc |= uint32(payload[n]) << bits
			n++
		}
		r[i] = uint16(acc & channelMask)
		acc >>= channelBits
		bits -= channelBits
	}
	return r, nil
}

// FrameType implements Sample.
func (r RawChannels) FrameType() FrameType { return FrameRCChannelsPacked }

// Payload implements Sample.
func (r RawChannels) Payload() []byte { return r.Pack() }

// Neutral returns the failsafe channel set: all channels centered and
// throttle (channel 3) at minimum.
func Neutral() (c Channels) {
	for n := range c {
		c[n] = MicrosMid
	}
	c[2] = MicrosMin
	return
}
