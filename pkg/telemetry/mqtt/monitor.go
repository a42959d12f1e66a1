package mqtt

import (
	"context"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/crsf.go/pkg/telemetry/msgs"
)

// Received is a decoded telemetry message.
type Received struct {
	Topic  string
	Source string
	Time   time.Time
	Msg    msgs.SerializableMessage
}

// Monitor subscribes to published telemetry and decodes it.
type Monitor struct {
	Queue *Queue
	// Pattern is relative to the topic prefix, "#" by default.
	Pattern string
	Handler func(Received)
	// Now stamps JSON messages which carry no time.
	Now func() time.Time
}

// Decode decodes a payload received on topic.
func (m *Monitor) Decode(topic string, payload []byte) (Received, error) {
	r := Received{Topic: topic}
	kind := topic
	if pos := strings.LastIndex(topic, "/"); pos >= 0 {
		kind = topic[pos+1:]
	}
	if m.Queue.Format == FormatJSON {
		msg, err := msgs.DecodeJSON(kind, payload)
		if err != nil {
			return r, err
		}
		r.Msg, r.Time = msg, m.now()
		return r, nil
	}
	typed, err := msgs.DecodeTyped(payload)
	if err != nil {
		return r, err
	}
	if r.Msg, err = typed.Decode(); err != nil {
		return r, err
	}
	r.Source, r.Time = typed.Source, typed.Timestamp()
	return r, nil
}

func (m *Monitor) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Monitor) handle(topic string, payload []byte) {
	r, err := m.Decode(topic, payload)
	if err != nil {
		glog.Warningf("decode %q: %v", topic, err)
		return
	}
	if h := m.Handler; h != nil {
		h(r)
	}
}

// Run implements Runnable.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.Queue.Connect(); err != nil {
		return err
	}
	defer m.Queue.Close()
	pattern := m.Pattern
	if pattern == "" {
		pattern = "#"
	}
	sub, err := m.Queue.Sub(pattern, m.handle)
	if err != nil {
		return err
	}
	defer sub.Close()
	<-ctx.Done()
	return ctx.Err()
}
