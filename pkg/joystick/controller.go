// Package joystick drives channel values from a joystick.
package joystick

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/crsf.go/pkg/crsf"
	fx "github.com/robotalks/crsf.go/pkg/framework"
	"github.com/robotalks/crsf.go/pkg/joystick/device"
)

// DefaultReopenInterval is the wait before reopening a lost device.
const DefaultReopenInterval = time.Second

// ChannelSetter receives channel values, e.g. link.Failover or crsf.Engine.
type ChannelSetter interface {
	SetChannel(index, us int) error
}

// Controller reads the joystick in the background and applies events to
// the channel table in the loop.
type Controller struct {
	Path           string
	Mapping        *Mapping
	Target         ChannelSetter
	Verbose        bool
	ReopenInterval time.Duration
	// Open opens the device, device.Open by default.
	Open func(path string) (device.Device, error)

	channels crsf.Channels
	eventCh  chan device.Event
	dev      device.Device
}

// NewController creates a Controller.
func NewController(path string, mapping *Mapping, target ChannelSetter) *Controller {
	return &Controller{
		Path:           path,
		Mapping:        mapping,
		Target:         target,
		ReopenInterval: DefaultReopenInterval,
		Open:           device.Open,
		channels:       crsf.Neutral(),
	}
}

type eventMsg struct {
	event device.Event
}

// lostMsg is posted when the device stops delivering events.
type lostMsg struct{}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(c)
	loop.AddController(fx.PrLvControl, c)
}

// Run implements Runnable.
func (c *Controller) Run(ctx context.Context) error {
	defer func() {
		if c.dev != nil {
			c.dev.Close()
		}
	}()
	loopCtl := fx.LoopCtlFrom(ctx)
	openTimer := time.After(0)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-openTimer:
			openTimer = nil
			dev, err := c.Open(c.Path)
			if err != nil {
				glog.Warningf("open joystick %s: %v", c.Path, err)
				openTimer = time.After(c.ReopenInterval)
				continue
			}
			glog.Infof("joystick %s %q opened: %d axes, %d buttons", dev.Path(), dev.Name(), dev.AxisCount(), dev.ButtonCount())
			c.dev, c.eventCh = dev, make(chan device.Event, 1)
			go c.poll(ctx, dev, c.eventCh)
		case ev, ok := <-c.eventCh:
			if ok {
				loopCtl.PostMessage(&eventMsg{event: ev})
			} else {
				c.dev.Close()
				c.dev, c.eventCh = nil, nil
				openTimer = time.After(c.ReopenInterval)
				loopCtl.PostMessage(&lostMsg{})
			}
			loopCtl.TriggerNext()
		}
	}
}

func (c *Controller) poll(ctx context.Context, dev device.Device, ch chan<- device.Event) {
	defer close(ch)
	for {
		ev, err := dev.ReadEvent()
		if err != nil {
			glog.Warningf("joystick %s read error: %v", dev.Path(), err)
			return
		}
		if c.Verbose {
			var prefix string
			if ev.IsInit() {
				prefix = "[INIT] "
			}
			switch evt := ev.(type) {
			case device.AxisEvent:
				glog.Infof(prefix+"axis %d: %d", evt.Index(), evt.Value())
			case device.ButtonEvent:
				glog.Infof(prefix+"button %d: %v", evt.Index(), evt.Pressed())
			}
		}
		select {
		case ch <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// Control implements Controller. The mapped channels are applied on every
// iteration, as received channel frames overwrite the target's table.
func (c *Controller) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(func(msg fx.Message) bool {
		switch m := msg.(type) {
		case *eventMsg:
			c.Mapping.Apply(&c.channels, m.event)
			return true
		case *lostMsg:
			glog.Warning("joystick lost, channels neutralized")
			c.Mapping.Neutralize(&c.channels)
			return true
		}
		return false
	})
	return c.apply()
}

func (c *Controller) apply() error {
	var errs fx.AggregatedError
	for _, a := range c.Mapping.Axes {
		errs.Add(c.Target.SetChannel(a.Channel, c.channels[a.Channel-1]))
	}
	for _, ch := range c.Mapping.Buttons {
		errs.Add(c.Target.SetChannel(ch, c.channels[ch-1]))
	}
	return errs.Aggregate()
}

// Channels returns the values derived from the joystick.
func (c *Controller) Channels() crsf.Channels {
	return c.channels
}
