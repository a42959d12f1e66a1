package mqtt

import (
	"sync"
	"time"

	"github.com/robotalks/crsf.go/pkg/crsf"
	"github.com/robotalks/crsf.go/pkg/telemetry/msgs"
)

// DefaultChannelsInterval limits how often channel values are published.
const DefaultChannelsInterval = 100 * time.Millisecond

// Publisher is a telemetry Sink publishing to <prefix><client-id>/<kind>.
type Publisher struct {
	Queue            *Queue
	ChannelsInterval time.Duration

	lock         sync.Mutex
	lastChannels time.Time
}

// NewPublisher creates a Publisher on the Queue.
func NewPublisher(q *Queue) *Publisher {
	return &Publisher{Queue: q, ChannelsInterval: DefaultChannelsInterval}
}

// Consume implements telemetry.Sink.
func (p *Publisher) Consume(source string, ev crsf.Event) error {
	msg := msgs.FromEvent(ev)
	if msg == nil {
		return nil
	}
	if _, ok := msg.(*msgs.Channels); ok && !p.channelsDue(ev.Time) {
		return nil
	}
	return p.Publish(source, msg, ev.Time)
}

func (p *Publisher) channelsDue(at time.Time) bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	if !p.lastChannels.IsZero() && at.Sub(p.lastChannels) < p.ChannelsInterval {
		return false
	}
	p.lastChannels = at
	return true
}

// Publish publishes a message in the configured format.
func (p *Publisher) Publish(source string, msg msgs.SerializableMessage, at time.Time) error {
	var payload []byte
	var err error
	if p.Queue.Format == FormatJSON {
		payload, err = msgs.EncodeJSON(msg)
	} else {
		var typed *msgs.Typed
		if typed, err = msgs.TypedFrom(msg, source, at); err == nil {
			payload, err = typed.Encode()
		}
	}
	if err != nil {
		return err
	}
	p.Queue.Pub(Topic(p.Queue.ClientID, msg.Kind()), payload)
	return nil
}

// PublishSwitch publishes a failover switch as a link event.
func (p *Publisher) PublishSwitch(from, to, reason string, at time.Time) error {
	return p.Publish(to, &msgs.LinkEvent{
		Up:     true,
		Event:  msgs.LinkEventSwitch,
		Detail: from + " -> " + to + ": " + reason,
	}, at)
}

// Topic builds the topic of a message kind.
func Topic(clientID, kind string) string {
	if clientID == "" {
		return kind
	}
	return clientID + "/" + kind
}
