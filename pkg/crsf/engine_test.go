package crsf

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// testStream returns queued bytes and records writes. An empty queue reads
// as no data.
type testStream struct {
	in      bytes.Buffer
	out     bytes.Buffer
	readErr error
}

func (s *testStream) Read(p []byte) (int, error) {
	if s.readErr != nil {
		return 0, s.readErr
	}
	if s.in.Len() == 0 {
		return 0, nil
	}
	return s.in.Read(p)
}

func (s *testStream) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

type timeoutError struct{}

func (timeoutError) Error() string { return "i/o timeout" }
func (timeoutError) Timeout() bool { return true }

type engineRecorder struct {
	events   []Event
	observed []byte
}

func newTestEngine() (*Engine, *testStream, *fakeClock, *engineRecorder) {
	s, clock, rec := &testStream{}, newFakeClock(), &engineRecorder{}
	e := NewEngine(s, DefaultConfig())
	e.Now = clock.Now
	e.Handler = HandleEventFunc(func(ev Event) { rec.events = append(rec.events, ev) })
	e.Observer = ObserveByteFunc(func(b byte) { rec.observed = append(rec.observed, b) })
	return e, s, clock, rec
}

func eventKinds(events []Event) (kinds []EventKind) {
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	return
}

func TestEngineCenterFrame(t *testing.T) {
	e, _, clock, rec := newTestEngine()
	require.False(t, e.IsLinkUp())

	events := e.Feed(centerFrame)
	require.Equal(t, []EventKind{EventLinkUp, EventFrame}, eventKinds(events))
	require.Equal(t, events, rec.events)
	require.True(t, e.IsLinkUp())
	require.Equal(t, clock.Now(), e.LastReceiveTime())
	require.Equal(t, clock.Now(), e.LastChannelsTime())
	for n := 1; n <= ChannelCount; n++ {
		require.Equalf(t, 1500, e.GetChannel(n), "channel %d", n)
	}
	require.Equal(t, uint16(ChannelValueMid), e.RawChannels()[0])

	// link-up is reported once
	events = e.Feed(centerFrame)
	require.Equal(t, []EventKind{EventFrame}, eventKinds(events))
}

func TestEngineLinkDown(t *testing.T) {
	e, _, clock, rec := newTestEngine()
	e.Feed(centerFrame)
	rec.events = nil

	clock.advance(50 * time.Millisecond)
	require.Empty(t, e.Tick())
	require.True(t, e.IsLinkUp())

	clock.advance(51 * time.Millisecond)
	events := e.Tick()
	require.Equal(t, []EventKind{EventLinkDown}, eventKinds(events))
	require.False(t, events[0].Link.Up)
	require.False(t, e.IsLinkUp())

	clock.advance(time.Second)
	require.Empty(t, e.Tick())

	// any other frame keeps the link down
	e.Feed(mustEncode(t, AddressFlightController, FrameFlightMode, []byte("ACRO\x00")))
	require.False(t, e.IsLinkUp())
	require.Empty(t, e.Tick())

	events = e.Feed(centerFrame)
	require.Equal(t, []EventKind{EventLinkUp, EventFrame}, eventKinds(events))
	require.Equal(t, []EventKind{EventLinkDown, EventFrame, EventLinkUp, EventFrame}, eventKinds(rec.events))
}

func TestEngineSendChannelsMinMax(t *testing.T) {
	e, s, _, _ := newTestEngine()
	e.Feed(centerFrame)

	require.NoError(t, e.SetChannel(1, 1000))
	require.NoError(t, e.SendChannels())
	require.NoError(t, e.SetChannel(1, 2000))
	require.NoError(t, e.SendChannels())

	r := NewFramer(0, 0).Feed(s.out.Bytes())
	require.Empty(t, r.Errors)
	require.Len(t, r.Frames, 2)
	expect := []uint16{ChannelValue1000, ChannelValue2000}
	for n, frame := range r.Frames {
		require.Equal(t, AddressFlightController, frame.Address)
		require.Equal(t, FrameRCChannelsPacked, frame.Type)
		raw, err := UnpackChannels(frame.Payload)
		require.NoError(t, err)
		require.Equalf(t, expect[n], raw[0], "frame[%d]", n)
		require.Equalf(t, uint16(ChannelValueMid), raw[1], "frame[%d]", n)
	}
}

func TestEngineSetChannel(t *testing.T) {
	e, _, _, _ := newTestEngine()
	require.Equal(t, Neutral(), e.Channels())
	require.NoError(t, e.SetChannel(16, 2500))
	require.Equal(t, 2000, e.GetChannel(16))
	require.NoError(t, e.SetChannel(1, 10))
	require.Equal(t, 1000, e.GetChannel(1))
	require.Equal(t, ErrInvalidChannel, e.SetChannel(0, 1500))
	require.Equal(t, ErrInvalidChannel, e.SetChannel(17, 1500))
	require.Zero(t, e.GetChannel(17))
}

func TestEngineNotReady(t *testing.T) {
	e, s, _, _ := newTestEngine()
	require.Equal(t, ErrNotReady, e.SendChannels())
	require.Equal(t, ErrNotReady, e.QueueTelemetry(AddressFlightController, FrameFlightMode, []byte("ACRO")))
	require.Equal(t, ErrNotReady, e.WriteRaw([]byte{1}))

	e.Feed(centerFrame)
	e.SetPassthrough(true)
	require.Equal(t, ErrNotReady, e.SendChannels())
	require.Equal(t, ErrNotReady, e.SendBattery(&Battery{Voltage: 12}))
	require.Zero(t, s.out.Len())
}

func TestEngineQueueTelemetry(t *testing.T) {
	e, s, _, _ := newTestEngine()
	e.Feed(centerFrame)

	require.Equal(t, ErrPayloadTooLarge, e.QueueTelemetry(AddressFlightController, FrameFlightMode, make([]byte, MaxPayloadSize+1)))
	require.Zero(t, s.out.Len())

	require.Equal(t, ErrEmptyPayload, e.QueueTelemetry(AddressFlightController, FrameFlightMode, nil))
	require.Zero(t, s.out.Len())

	require.NoError(t, e.QueueTelemetry(AddressFlightController, FrameFlightMode, make([]byte, MaxPayloadSize)))
	require.Equal(t, MaxFrameSize, s.out.Len())

	s.out.Reset()
	battery := &Battery{Voltage: 16.8, Current: 2500, Capacity: 420, Remaining: 90}
	require.NoError(t, e.SendBattery(battery))
	r := NewFramer(0, 0).Feed(s.out.Bytes())
	require.Len(t, r.Frames, 1)
	sample, err := r.Frames[0].Decode()
	require.NoError(t, err)
	require.Equal(t, battery, sample)

	e.Config.MaxPayload = 8
	require.Equal(t, ErrPayloadTooLarge, e.QueueTelemetry(AddressFlightController, FrameFlightMode, make([]byte, 9)))
}

func TestEnginePassthrough(t *testing.T) {
	e, s, _, rec := newTestEngine()
	e.Feed(centerFrame[:5])
	e.SetPassthrough(true)
	require.True(t, e.Passthrough())

	require.Empty(t, e.Feed(centerFrame))
	require.Equal(t, centerFrame, rec.observed)
	require.NoError(t, e.WriteRaw([]byte{0x55, 0xaa}))
	require.Equal(t, []byte{0x55, 0xaa}, s.out.Bytes())

	// partial frame received before passthrough is dropped
	rec.observed = nil
	e.SetPassthrough(false)
	events := e.Feed(centerFrame)
	require.Equal(t, []EventKind{EventLinkUp, EventFrame}, eventKinds(events))
	require.Empty(t, rec.observed)
}

func TestEnginePacketTimeout(t *testing.T) {
	e, _, clock, rec := newTestEngine()
	e.Feed(centerFrame[:7])
	clock.advance(100 * time.Millisecond)
	e.Tick()
	require.Empty(t, rec.observed)
	require.Zero(t, e.Stats().Flushed)

	clock.advance(time.Millisecond)
	e.Tick()
	require.Equal(t, centerFrame[:7], rec.observed)
	require.Equal(t, uint64(7), e.Stats().Flushed)

	events := e.Feed(centerFrame)
	require.Equal(t, []EventKind{EventLinkUp, EventFrame}, eventKinds(events))
}

func TestEngineAddressFilter(t *testing.T) {
	e, _, _, _ := newTestEngine()
	frame := append([]byte(nil), centerFrame...)
	frame[0] = AddressReceiver
	require.Empty(t, e.Feed(frame))
	require.False(t, e.IsLinkUp())
	require.Equal(t, uint64(1), e.Stats().Frames)
}

func TestEngineUnknownFrame(t *testing.T) {
	e, _, _, _ := newTestEngine()
	events := e.Feed(mustEncode(t, AddressFlightController, FrameType(0x7f), []byte{1, 2, 3}))
	require.Len(t, events, 1)
	require.Equal(t, EventFrame, events[0].Kind)
	require.Equal(t, &Unknown{Type: 0x7f, Data: []byte{1, 2, 3}}, events[0].Sample)
}

func TestEngineTelemetry(t *testing.T) {
	e, _, clock, _ := newTestEngine()
	gps := &GPS{Latitude: 1, Longitude: 2, Satellites: 7}
	att := NewAttitude(175, 350, 525)
	stream := concat(
		mustEncode(t, AddressFlightController, FrameGPS, gps.Payload()),
		mustEncode(t, AddressFlightController, FrameAttitude, att.Payload()),
		mustEncode(t, AddressFlightController, FrameFlightMode, []byte("HOR\x00")),
		mustEncode(t, AddressFlightController, FrameBatterySensor, (&Battery{Voltage: 11.1}).Payload()),
		mustEncode(t, AddressFlightController, FrameLinkStatistics, make([]byte, LinkStatisticsPayloadSize)),
		centerFrame,
	)
	e.Feed(stream)

	tm := e.Telemetry()
	assert.Equal(t, gps, tm.GPS)
	assert.Equal(t, att, tm.Attitude)
	assert.Equal(t, "HOR", tm.FlightMode.Mode)
	assert.Equal(t, 11.1, tm.Battery.Voltage)
	assert.NotNil(t, tm.LinkStats)
	assert.True(t, tm.Link.Up)
	assert.Equal(t, clock.Now(), tm.Updated)
}

func TestEnginePoll(t *testing.T) {
	e, s, _, _ := newTestEngine()
	ctx := context.Background()

	events, err := e.Poll(ctx)
	require.NoError(t, err)
	require.Empty(t, events)

	s.in.Write(concat(centerFrame, centerFrame))
	events, err = e.Poll(ctx)
	require.NoError(t, err)
	require.Equal(t, []EventKind{EventLinkUp, EventFrame}, eventKinds(events))
	require.Equal(t, 2*len(centerFrame)-32, s.in.Len())

	events, err = e.Poll(ctx)
	require.NoError(t, err)
	require.Equal(t, []EventKind{EventFrame}, eventKinds(events))

	s.readErr = timeoutError{}
	_, err = e.Poll(ctx)
	require.NoError(t, err)

	s.readErr = errors.New("device removed")
	_, err = e.Poll(ctx)
	require.True(t, errors.Is(err, ErrTransportUnavailable))
	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	require.Equal(t, "read", terr.Op)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = e.Poll(cctx)
	require.Equal(t, context.Canceled, err)
}

func TestEngineRun(t *testing.T) {
	e, s, _, _ := newTestEngine()
	s.in.Write(centerFrame)
	s.readErr = nil
	ctx, cancel := context.WithCancel(context.Background())
	e.Handler = HandleEventFunc(func(ev Event) {
		if ev.Kind == EventFrame {
			cancel()
		}
	})
	require.Equal(t, context.Canceled, e.Run(ctx))
	require.True(t, e.IsLinkUp())
}

func TestFailsafeChannels(t *testing.T) {
	now := time.Now()
	ch := Neutral()
	ch[0] = 1800
	link := LinkState{LastChannels: now.Add(-50 * time.Millisecond)}
	require.Equal(t, ch, FailsafeChannels(ch, link, now, 100*time.Millisecond))
	link.LastChannels = now.Add(-150 * time.Millisecond)
	require.Equal(t, Neutral(), FailsafeChannels(ch, link, now, 100*time.Millisecond))
	require.Equal(t, Neutral(), FailsafeChannels(ch, LinkState{}, now, 100*time.Millisecond))
}

func TestEngineSnapshotLink(t *testing.T) {
	e, _, clock, _ := newTestEngine()
	e.Feed(centerFrame)
	first := clock.Now()
	clock.advance(50 * time.Millisecond)
	e.Feed(mustEncode(t, AddressFlightController, FrameFlightMode, []byte("ACRO\x00")))

	link := e.Snapshot().Read().Link
	require.True(t, link.Up)
	require.Equal(t, clock.Now(), link.LastReceive)
	require.Equal(t, first, link.LastChannels)

	clock.advance(time.Second)
	e.Tick()
	require.False(t, e.Snapshot().Read().Link.Up)
}

// blockingStream holds writes until released.
type blockingStream struct {
	testStream
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStream) Write(p []byte) (int, error) {
	s.entered <- struct{}{}
	<-s.release
	return s.testStream.Write(p)
}

func TestEngineWriteOutsideLock(t *testing.T) {
	s := &blockingStream{entered: make(chan struct{}), release: make(chan struct{})}
	e := NewEngine(s, DefaultConfig())
	e.Feed(centerFrame)
	require.NoError(t, e.SetChannel(1, 1800))

	sent := make(chan error, 1)
	go func() { sent <- e.SendChannels() }()
	<-s.entered

	// state stays accessible while the write blocks
	require.True(t, e.IsLinkUp())
	require.Equal(t, 1800, e.GetChannel(1))
	require.NoError(t, e.SetChannel(2, 1200))
	require.Len(t, e.Feed(centerFrame), 1)

	close(s.release)
	require.NoError(t, <-sent)
	r := NewFramer(0, 0).Feed(s.out.Bytes())
	require.Len(t, r.Frames, 1)
	raw, err := UnpackChannels(r.Frames[0].Payload)
	require.NoError(t, err)
	require.Equal(t, 1800, raw.Micros()[0])
}
