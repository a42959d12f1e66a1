package crsf

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"
)

// Engine drives the protocol over a byte stream.
//
// Feed, Tick, Poll and Run must be called from a single goroutine. The
// other methods are safe for concurrent use.
type Engine struct {
	ReadWriter io.ReadWriter
	Config     Config
	Handler    EventHandler
	Observer   ByteObserver
	// Now is the clock, time.Now if nil.
	Now func() time.Time

	framer  *Framer
	readBuf []byte

	// writeLock serializes writes to ReadWriter, lock guards the state.
	writeLock    sync.Mutex
	lock         sync.RWMutex
	link         LinkState
	passthrough  bool
	resetPending bool
	channels     Channels
	rxRaw        RawChannels
	stats        FramerStats
	snapshot     Snapshot
}

// NewEngine creates an Engine. Outbound channels start at Neutral.
func NewEngine(rw io.ReadWriter, conf Config) *Engine {
	return &Engine{
		ReadWriter: rw,
		Config:     conf,
		Now:        time.Now,
		framer:     NewFramer(conf.BufferSize, conf.MaxPayload),
		channels:   Neutral(),
	}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Feed processes received bytes and returns the resulting events, which
// are also dispatched to Handler.
func (e *Engine) Feed(p []byte) []Event {
	if len(p) == 0 {
		return nil
	}
	now := e.now()
	e.lock.Lock()
	e.link.LastReceive = now
	passthrough, reset := e.passthrough, e.resetPending
	e.resetPending = false
	e.lock.Unlock()

	if reset {
		e.framer.Reset()
	}
	if passthrough {
		e.observe(p)
		e.snapshot.SetLink(e.Link())
		return nil
	}

	r := e.framer.Feed(p)
	if glog.V(2) {
		for _, err := range r.Errors {
			glog.Infof("crsf: %v", err)
		}
	}
	e.observe(r.Skipped)

	var events []Event
	for _, frame := range r.Frames {
		events = e.processFrame(events, now, frame)
	}
	e.lock.Lock()
	e.stats = e.framer.Stats()
	link := e.link
	e.lock.Unlock()
	e.snapshot.SetLink(link)
	e.dispatch(events)
	return events
}

// Tick flushes a stale partial frame and evaluates the failsafe timer.
func (e *Engine) Tick() []Event {
	now := e.now()
	e.lock.Lock()
	last := e.link.LastReceive
	e.lock.Unlock()

	if e.framer.Len() > 0 && now.Sub(last) > e.Config.PacketTimeout {
		flushed := e.framer.Flush()
		glog.V(2).Infof("crsf: packet timeout, flushed %d bytes", len(flushed))
		e.observe(flushed)
		e.lock.Lock()
		e.stats = e.framer.Stats()
		e.lock.Unlock()
	}

	var events []Event
	e.lock.Lock()
	if e.link.Up && now.Sub(e.link.LastReceive) > e.Config.Failsafe {
		e.link.Up = false
		events = append(events, Event{Kind: EventLinkDown, Time: now, Link: e.link})
	}
	e.lock.Unlock()
	if len(events) > 0 {
		glog.Warning("crsf: link down")
		e.snapshot.SetLink(events[0].Link)
	}
	e.dispatch(events)
	return events
}

// Poll reads at most Config.ReadBatch bytes, feeds them and ticks. A read
// timeout or an empty read means no data and is not an error.
func (e *Engine) Poll(ctx context.Context) ([]Event, error) {
	events, _, err := e.poll(ctx)
	return events, err
}

func (e *Engine) poll(ctx context.Context) ([]Event, int, error) {
	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	default:
	}
	if batch := e.Config.readBatch(); len(e.readBuf) != batch {
		e.readBuf = make([]byte, batch)
	}
	n, err := e.ReadWriter.Read(e.readBuf)
	var events []Event
	if n > 0 {
		events = e.Feed(e.readBuf[:n])
	}
	if err != nil && !os.IsTimeout(err) {
		return events, n, &TransportError{Op: "read", Err: err}
	}
	return append(events, e.Tick()...), n, nil
}

// Run polls until the context is canceled or the transport fails.
func (e *Engine) Run(ctx context.Context) error {
	for {
		_, n, err := e.poll(ctx)
		if err != nil {
			return err
		}
		if n == 0 && e.Config.PollInterval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.Config.PollInterval):
			}
		}
	}
}

func (e *Engine) processFrame(events []Event, now time.Time, frame Frame) []Event {
	if frame.Address != AddressFlightController {
		glog.V(3).Infof("crsf: ignore %s frame to %02x", frame.Type, frame.Address)
		return events
	}
	sample, err := frame.Decode()
	if err != nil {
		var unknown *UnknownFrameTypeError
		if !errors.As(err, &unknown) {
			glog.V(2).Infof("crsf: drop %s frame: %v", frame.Type, err)
			return events
		}
		glog.V(2).Infof("crsf: %v", err)
	}

	switch s := sample.(type) {
	case RawChannels:
		e.lock.Lock()
		e.rxRaw = s
		e.channels = s.Micros()
		e.link.LastChannels = now
		wasUp := e.link.Up
		e.link.Up = true
		link := e.link
		e.lock.Unlock()
		if !wasUp {
			glog.Info("crsf: link up")
			e.snapshot.SetLink(link)
			events = append(events, Event{Kind: EventLinkUp, Time: now, Link: link})
		}
	default:
		e.snapshot.Publish(sample, now)
	}
	return append(events, Event{Kind: EventFrame, Time: now, Frame: frame, Sample: sample})
}

func (e *Engine) dispatch(events []Event) {
	if h := e.Handler; h != nil {
		for _, ev := range events {
			h.HandleEvent(ev)
		}
	}
}

func (e *Engine) observe(p []byte) {
	if o := e.Observer; o != nil {
		for _, b := range p {
			o.ObserveByte(b)
		}
	}
}

// Link returns the link state.
func (e *Engine) Link() LinkState {
	e.lock.RLock()
	defer e.lock.RUnlock()
	return e.link
}

// IsLinkUp indicates if the link is up.
func (e *Engine) IsLinkUp() bool {
	return e.Link().Up
}

// LastReceiveTime returns when the last byte arrived.
func (e *Engine) LastReceiveTime() time.Time {
	return e.Link().LastReceive
}

// LastChannelsTime returns when the last valid channel frame arrived.
func (e *Engine) LastChannelsTime() time.Time {
	return e.Link().LastChannels
}

// Stats returns the framing counters.
func (e *Engine) Stats() FramerStats {
	e.lock.RLock()
	defer e.lock.RUnlock()
	return e.stats
}

// Snapshot returns the telemetry snapshot. Its link state is published
// after every Feed and on link down.
func (e *Engine) Snapshot() *Snapshot {
	return &e.snapshot
}

// Telemetry copies out the latest samples with the current link state.
func (e *Engine) Telemetry() Telemetry {
	t := e.snapshot.Read()
	t.Link = e.Link()
	return t
}

// SetPassthrough switches passthrough mode. The receive buffer is dropped
// before the next bytes are processed.
func (e *Engine) SetPassthrough(enabled bool) {
	e.lock.Lock()
	if e.passthrough != enabled {
		e.passthrough, e.resetPending = enabled, true
	}
	e.lock.Unlock()
	glog.Infof("crsf: passthrough %v", enabled)
}

// Passthrough indicates if passthrough mode is active.
func (e *Engine) Passthrough() bool {
	e.lock.RLock()
	defer e.lock.RUnlock()
	return e.passthrough
}

// SetChannel stores a channel value (index 1..16), clamped to
// MicrosMin..MicrosMax.
func (e *Engine) SetChannel(index, us int) error {
	if index < 1 || index > ChannelCount {
		return ErrInvalidChannel
	}
	e.lock.Lock()
	e.channels[index-1] = clamp(us, MicrosMin, MicrosMax)
	e.lock.Unlock()
	return nil
}

// SetChannels stores all channel values.
func (e *Engine) SetChannels(ch Channels) {
	e.lock.Lock()
	for n, us := range ch {
		e.channels[n] = clamp(us, MicrosMin, MicrosMax)
	}
	e.lock.Unlock()
}

// GetChannel returns a channel value (index 1..16) in microseconds, 0 for
// an invalid index. The channel table holds the latest of a received
// channel frame or SetChannel.
func (e *Engine) GetChannel(index int) int {
	if index < 1 || index > ChannelCount {
		return 0
	}
	e.lock.RLock()
	defer e.lock.RUnlock()
	return e.channels[index-1]
}

// Channels returns the channel table.
func (e *Engine) Channels() Channels {
	e.lock.RLock()
	defer e.lock.RUnlock()
	return e.channels
}

// RawChannels returns the raw codes of the last received channel frame.
func (e *Engine) RawChannels() RawChannels {
	e.lock.RLock()
	defer e.lock.RUnlock()
	return e.rxRaw
}

// SendChannels sends the channel table as a RC_CHANNELS_PACKED frame.
func (e *Engine) SendChannels() error {
	e.lock.RLock()
	err := e.ready()
	raw := e.channels.Raw()
	e.lock.RUnlock()
	if err != nil {
		return err
	}
	return e.write(AddressFlightController, FrameRCChannelsPacked, raw.Pack())
}

// QueueTelemetry sends a frame immediately. Nothing is written when the
// request is rejected.
func (e *Engine) QueueTelemetry(addr byte, typ FrameType, payload []byte) error {
	if len(payload) == 0 {
		return ErrEmptyPayload
	}
	if len(payload) > e.Config.maxPayload() {
		return ErrPayloadTooLarge
	}
	e.lock.RLock()
	err := e.ready()
	e.lock.RUnlock()
	if err != nil {
		return err
	}
	return e.write(addr, typ, payload)
}

// QueueSample sends an encoded sample to the flight controller address.
func (e *Engine) QueueSample(sample Sample) error {
	return e.QueueTelemetry(AddressFlightController, sample.FrameType(), sample.Payload())
}

// SendBattery sends a BATTERY_SENSOR frame.
func (e *Engine) SendBattery(b *Battery) error {
	return e.QueueSample(b)
}

// WriteRaw writes bytes unframed while passthrough is active.
func (e *Engine) WriteRaw(p []byte) error {
	if !e.Passthrough() {
		return ErrNotReady
	}
	return e.writeBytes(p)
}

func (e *Engine) ready() error {
	if !e.link.Up || e.passthrough {
		return ErrNotReady
	}
	return nil
}

// write encodes a frame and writes it outside of the state lock.
func (e *Engine) write(addr byte, typ FrameType, payload []byte) error {
	b, err := Encode(addr, typ, payload)
	if err != nil {
		return err
	}
	return e.writeBytes(b)
}

func (e *Engine) writeBytes(b []byte) error {
	e.writeLock.Lock()
	defer e.writeLock.Unlock()
	if _, err := e.ReadWriter.Write(b); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	return nil
}
