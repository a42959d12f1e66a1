package msgs

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/crsf.go/pkg/crsf"
)

func TestFromSample(t *testing.T) {
	stats := &crsf.LinkStatistics{Raw: [10]byte{60, 62, 100, 0xf6, 1, 4, 2, 70, 98, 5}}
	testCases := []struct {
		name   string
		sample crsf.Sample
		expect SerializableMessage
	}{
		{
			name:   "gps",
			sample: &crsf.GPS{Latitude: 525000000, Longitude: -12345678, GroundSpeed: 123, Heading: 9000, Altitude: 1100, Satellites: 9},
			expect: &GPS{Latitude: 52.5, Longitude: -1.2345678, SpeedKmh: 12.3, Heading: 90, Altitude: 100, Satellites: 9},
		},
		{
			name:   "attitude",
			sample: crsf.NewAttitude(1750, -350, -175),
			expect: &Attitude{Pitch: 10, Roll: -2, Yaw: 359},
		},
		{
			name:   "battery",
			sample: &crsf.Battery{Voltage: 12.6, Current: 1500, Capacity: 2200, Remaining: 75},
			expect: &Battery{Voltage: 12.6, Current: 1500, Capacity: 2200, Remaining: 75},
		},
		{
			name:   "flight mode",
			sample: &crsf.FlightMode{Mode: "ANGL"},
			expect: &FlightMode{Mode: "ANGL"},
		},
		{
			name:   "link stats",
			sample: stats,
			expect: &LinkStats{
				UplinkRssi1: 60, UplinkRssi2: 62, UplinkLinkQuality: 100, UplinkSnr: -10,
				ActiveAntenna: 1, RfMode: 4, UplinkTxPower: 2,
				DownlinkRssi: 70, DownlinkLinkQuality: 98, DownlinkSnr: 5,
			},
		},
		{
			name:   "channels",
			sample: crsf.Neutral().Raw(),
			expect: FromChannels(crsf.Neutral()),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg := FromSample(tc.sample)
			require.NotNil(t, msg)
			assert.Equal(t, tc.expect.Kind(), msg.Kind())
			switch expect := tc.expect.(type) {
			case *GPS:
				got := msg.(*GPS)
				assert.InDelta(t, expect.Latitude, got.Latitude, 1e-9)
				assert.InDelta(t, expect.Longitude, got.Longitude, 1e-9)
				assert.InDelta(t, expect.SpeedKmh, got.SpeedKmh, 1e-9)
				assert.InDelta(t, expect.Heading, got.Heading, 1e-9)
				assert.Equal(t, expect.Altitude, got.Altitude)
				assert.Equal(t, expect.Satellites, got.Satellites)
			case *Attitude:
				got := msg.(*Attitude)
				assert.InDelta(t, expect.Pitch, got.Pitch, 1e-9)
				assert.InDelta(t, expect.Roll, got.Roll, 1e-9)
				assert.InDelta(t, expect.Yaw, got.Yaw, 1e-9)
			default:
				assert.Equal(t, tc.expect, msg)
			}
		})
	}
	require.Nil(t, FromSample(&crsf.Unknown{Type: 0x7f}))
}

func TestTypedEnvelope(t *testing.T) {
	at := time.Unix(1700000000, 123)
	typed, err := TypedFrom(&Battery{Voltage: 16.8, Current: 300, Capacity: 1300, Remaining: 99}, "primary", at)
	require.NoError(t, err)
	require.Equal(t, BatteryTypeID, typed.TypeId)

	data, err := typed.Encode()
	require.NoError(t, err)
	decoded, err := DecodeTyped(data)
	require.NoError(t, err)
	require.Equal(t, "primary", decoded.Source)
	require.True(t, at.Equal(decoded.Timestamp()))

	msg, err := decoded.Decode()
	require.NoError(t, err)
	require.Equal(t, &Battery{Voltage: 16.8, Current: 300, Capacity: 1300, Remaining: 99}, msg)

	_, err = TypedFrom("not a message", "", at)
	require.Equal(t, ErrNotSerializable, err)

	_, err = (&Typed{TypeId: 0x1234}).Decode()
	require.Error(t, err)
	_, ok := err.(*ErrUnknownType)
	require.True(t, ok)
}

func TestPackedChannels(t *testing.T) {
	ch := crsf.Neutral()
	ch[0] = 2000
	typed, err := TypedFrom(FromChannels(ch), "", time.Now())
	require.NoError(t, err)
	msg, err := typed.Decode()
	require.NoError(t, err)
	values := msg.(*Channels).Values
	require.Len(t, values, crsf.ChannelCount)
	require.Equal(t, int32(2000), values[0])
	require.Equal(t, int32(1000), values[2])
}

func TestJSON(t *testing.T) {
	data, err := EncodeJSON(&FlightMode{Mode: "HOR"})
	require.NoError(t, err)
	require.JSONEq(t, `{"mode":"HOR"}`, string(data))

	data, err = EncodeJSON(&LinkStats{UplinkSnr: -3})
	require.NoError(t, err)
	require.Contains(t, string(data), `"uplink_snr":-3`)
	msg, err := DecodeJSON("link_stats", data)
	require.NoError(t, err)
	require.Equal(t, int32(-3), msg.(*LinkStats).UplinkSnr)

	_, err = DecodeJSON("radar", data)
	require.Error(t, err)
}

func TestFromEvent(t *testing.T) {
	now := time.Unix(100, 0)
	msg := FromEvent(crsf.Event{Kind: crsf.EventLinkDown, Time: now, Link: crsf.LinkState{LastReceive: now}})
	require.Equal(t, &LinkEvent{Up: false, Event: crsf.EventLinkDown.String(), LastReceive: now.UnixNano()}, msg)

	msg = FromEvent(crsf.Event{Kind: crsf.EventFrame, Sample: &crsf.FlightMode{Mode: "ACRO"}})
	require.Equal(t, &FlightMode{Mode: "ACRO"}, msg)

	kind, ok := KindOf("link")
	require.True(t, ok)
	require.Equal(t, LinkEventTypeID, kind.TypeID())
}

func TestStatusOf(t *testing.T) {
	var buf bytes.Buffer
	e := crsf.NewEngine(&buf, crsf.DefaultConfig())
	st := StatusOf("primary", true, e)
	require.Equal(t, &Status{Source: "primary", Active: true}, st)

	raw := crsf.Neutral().Raw()
	frame, err := crsf.Encode(crsf.AddressFlightController, crsf.FrameRCChannelsPacked, raw.Pack())
	require.NoError(t, err)
	e.Feed(frame)
	st = StatusOf("primary", false, e)
	assert.True(t, st.Up)
	assert.False(t, st.Active)
	assert.Equal(t, uint64(1), st.Frames)
	assert.NotZero(t, st.LastChannels)

	data, err := EncodeJSON(st)
	require.NoError(t, err)
	msg, err := DecodeJSON("status", data)
	require.NoError(t, err)
	require.Equal(t, st, msg)
}
