// Package telemetry delivers engine events to consumers outside the
// protocol loop: MQTT publishers, recorders and consoles.
package telemetry

import (
	"context"
	"errors"

	"github.com/golang/glog"

	"github.com/robotalks/crsf.go/pkg/crsf"
	fx "github.com/robotalks/crsf.go/pkg/framework"
)

// Sink consumes engine events. Source names the link the event came from.
type Sink interface {
	Consume(source string, ev crsf.Event) error
}

// SinkFunc is the func form of Sink.
type SinkFunc func(source string, ev crsf.Event) error

// Consume implements Sink.
func (f SinkFunc) Consume(source string, ev crsf.Event) error {
	return f(source, ev)
}

// Fanout delivers every event to all Sinks.
type Fanout []Sink

// Consume implements Sink.
func (f Fanout) Consume(source string, ev crsf.Event) error {
	var errs fx.AggregatedError
	for _, sink := range f {
		errs.Add(sink.Consume(source, ev))
	}
	return errs.Aggregate()
}

// Handler adapts a Sink to an engine EventHandler. Errors are logged.
func Handler(sink Sink, source string) crsf.EventHandler {
	return crsf.HandleEventFunc(func(ev crsf.Event) {
		if err := sink.Consume(source, ev); err != nil {
			glog.Warningf("telemetry %s: %v", source, err)
		}
	})
}

// ErrQueueFull is returned by Async when the buffer is full and the event
// is dropped.
var ErrQueueFull = errors.New("telemetry queue full")

type sourcedEvent struct {
	source string
	ev     crsf.Event
}

// Async buffers events for a slow Sink so the engine loop never waits on
// it. Run drains the buffer.
type Async struct {
	Sink Sink

	queue chan sourcedEvent
}

// NewAsync creates an Async with the buffer size.
func NewAsync(sink Sink, size int) *Async {
	return &Async{Sink: sink, queue: make(chan sourcedEvent, size)}
}

// Consume implements Sink.
func (a *Async) Consume(source string, ev crsf.Event) error {
	select {
	case a.queue <- sourcedEvent{source: source, ev: ev}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run implements Runnable.
func (a *Async) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item := <-a.queue:
			if err := a.Sink.Consume(item.source, item.ev); err != nil {
				glog.Warningf("telemetry %s: %v", item.source, err)
			}
		}
	}
}
