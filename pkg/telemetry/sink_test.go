package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/crsf.go/pkg/crsf"
)

type recordSink struct {
	sources []string
	events  []crsf.Event
	err     error
}

func (s *recordSink) Consume(source string, ev crsf.Event) error {
	s.sources = append(s.sources, source)
	s.events = append(s.events, ev)
	return s.err
}

func TestFanout(t *testing.T) {
	a, b := &recordSink{}, &recordSink{err: errors.New("disk full")}
	fanout := Fanout{a, b}
	ev := crsf.Event{Kind: crsf.EventLinkUp}
	err := fanout.Consume("primary", ev)
	require.Error(t, err)
	require.Equal(t, "disk full", err.Error())
	require.Equal(t, []string{"primary"}, a.sources)
	require.Equal(t, []crsf.Event{ev}, b.events)

	Handler(Fanout{a}, "backup").HandleEvent(ev)
	require.Equal(t, []string{"primary", "backup"}, a.sources)
}

func TestAsync(t *testing.T) {
	received := make(chan string, 4)
	async := NewAsync(SinkFunc(func(source string, ev crsf.Event) error {
		received <- source
		return nil
	}), 1)
	require.NoError(t, async.Consume("primary", crsf.Event{}))
	require.Equal(t, ErrQueueFull, async.Consume("backup", crsf.Event{}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- async.Run(ctx) }()
	select {
	case source := <-received:
		require.Equal(t, "primary", source)
	case <-time.After(5 * time.Second):
		t.Fatal("event not delivered")
	}
	cancel()
	require.Equal(t, context.Canceled, <-done)
}
