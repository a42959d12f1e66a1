package link

import (
	"errors"
	"time"

	"github.com/robotalks/crsf.go/pkg/crsf"
	fx "github.com/robotalks/crsf.go/pkg/framework"
)

// Default send intervals.
const (
	DefaultChannelsInterval = 20 * time.Millisecond
	DefaultBatteryInterval  = 200 * time.Millisecond
)

// throttle passes at most once per Interval of loop time.
type throttle struct {
	Interval time.Duration
	last     time.Time
}

func (t *throttle) due(now time.Time) bool {
	if !t.last.IsZero() && now.Sub(t.last) < t.Interval {
		return false
	}
	t.last = now
	return true
}

// ChannelSender sends the channel table on the active link.
type ChannelSender struct {
	Failover *Failover
	throttle
}

// NewChannelSender creates a ChannelSender.
func NewChannelSender(f *Failover, interval time.Duration) *ChannelSender {
	if interval <= 0 {
		interval = DefaultChannelsInterval
	}
	return &ChannelSender{Failover: f, throttle: throttle{Interval: interval}}
}

// Control implements Controller. Nothing is sent while the link is down.
func (s *ChannelSender) Control(cc fx.ControlContext) error {
	if !s.due(cc.Time()) {
		return nil
	}
	if err := s.Failover.SendChannels(); err != nil && !errors.Is(err, crsf.ErrNotReady) {
		return err
	}
	return nil
}

// AddToLoop implements LoopAdder.
func (s *ChannelSender) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvActuate, s)
}

// BatterySource reads the battery, nil when not available.
type BatterySource func() (*crsf.Battery, error)

// BatterySender sends battery telemetry on the active link.
type BatterySender struct {
	Failover *Failover
	Source   BatterySource
	throttle
}

// NewBatterySender creates a BatterySender.
func NewBatterySender(f *Failover, source BatterySource, interval time.Duration) *BatterySender {
	if interval <= 0 {
		interval = DefaultBatteryInterval
	}
	return &BatterySender{Failover: f, Source: source, throttle: throttle{Interval: interval}}
}

// Control implements Controller.
func (s *BatterySender) Control(cc fx.ControlContext) error {
	if !s.due(cc.Time()) {
		return nil
	}
	battery, err := s.Source()
	if err != nil || battery == nil {
		return err
	}
	if err := s.Failover.Active().SendBattery(battery); err != nil && !errors.Is(err, crsf.ErrNotReady) {
		return err
	}
	return nil
}

// AddToLoop implements LoopAdder.
func (s *BatterySender) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvPostProc, s)
}
