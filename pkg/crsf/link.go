package crsf

import "time"

// LinkState is the liveness of the link.
type LinkState struct {
	// Up turns true on a valid channel frame and false after Failsafe
	// elapsed without any byte.
	Up           bool
	LastReceive  time.Time
	LastChannels time.Time
}

// ChannelsStale reports whether no channel frame arrived within threshold.
func (s LinkState) ChannelsStale(now time.Time, threshold time.Duration) bool {
	return s.LastChannels.IsZero() || now.Sub(s.LastChannels) > threshold
}

// FailsafeChannels returns ch while channel frames are fresh, otherwise
// the Neutral set. The engine never applies this by itself; it is the
// policy for actuation consumers.
func FailsafeChannels(ch Channels, link LinkState, now time.Time, threshold time.Duration) Channels {
	if link.ChannelsStale(now, threshold) {
		return Neutral()
	}
	return ch
}

// EventKind is the kind of an Event.
type EventKind int

// Event kinds.
const (
	// EventFrame carries a decoded frame addressed to the flight controller.
	EventFrame EventKind = iota
	// EventLinkUp is emitted on the first channel frame after link down.
	EventLinkUp
	// EventLinkDown is emitted once when Failsafe elapsed.
	EventLinkDown
)

// String implements fmt.Stringer.
func (k EventKind) String() string {
	switch k {
	case EventFrame:
		return "frame"
	case EventLinkUp:
		return "link-up"
	case EventLinkDown:
		return "link-down"
	}
	return "unknown"
}

// Event is emitted by the engine.
type Event struct {
	Kind EventKind
	Time time.Time
	// Frame and Sample are set for EventFrame. Sample is *Unknown for
	// frame types without a decoder.
	Frame  Frame
	Sample Sample
	// Link is set for EventLinkUp and EventLinkDown.
	Link LinkState
}

// EventHandler is called with events after a batch of bytes is processed.
type EventHandler interface {
	HandleEvent(Event)
}

// HandleEventFunc is func type of EventHandler.
type HandleEventFunc func(Event)

// HandleEvent implements EventHandler.
func (f HandleEventFunc) HandleEvent(ev Event) {
	f(ev)
}

// ByteObserver receives bytes not consumed by framing: resync skips,
// packet timeout flushes and everything received in passthrough mode.
type ByteObserver interface {
	ObserveByte(byte)
}

// ObserveByteFunc is func type of ByteObserver.
type ObserveByteFunc func(byte)

// ObserveByte implements ByteObserver.
func (f ObserveByteFunc) ObserveByte(b byte) {
	f(b)
}
