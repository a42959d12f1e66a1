// Package link switches between a primary and a backup CRSF link.
package link

import (
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/crsf.go/pkg/crsf"
	fx "github.com/robotalks/crsf.go/pkg/framework"
)

// Link indexes.
const (
	Primary = 0
	Backup  = 1
)

// DefaultSwitchTimeout is the silence after which the other link is tried.
const DefaultSwitchTimeout = 60 * time.Second

// SwitchHandler is called after the active link changed.
type SwitchHandler func(from, to int, reason string)

// Failover keeps one of two engines active. The active link is switched
// when it goes down, or when no channel frame arrived on it within
// Timeout since it became active.
type Failover struct {
	Engines  [2]*crsf.Engine
	Timeout  time.Duration
	OnSwitch SwitchHandler
	Now      func() time.Time

	lock         sync.RWMutex
	active       int
	wasUp        bool
	lastActivity time.Time
}

// NewFailover creates a Failover. backup may be nil, then the primary
// link is always active.
func NewFailover(primary, backup *crsf.Engine, timeout time.Duration) *Failover {
	if timeout <= 0 {
		timeout = DefaultSwitchTimeout
	}
	return &Failover{
		Engines: [2]*crsf.Engine{primary, backup},
		Timeout: timeout,
		Now:     time.Now,
	}
}

// Name returns the name of a link index.
func Name(index int) string {
	if index == Primary {
		return "primary"
	}
	return "backup"
}

// ActiveIndex returns the index of the active link.
func (f *Failover) ActiveIndex() int {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return f.active
}

// Active returns the active engine.
func (f *Failover) Active() *crsf.Engine {
	return f.Engines[f.ActiveIndex()]
}

// Check evaluates the switching rules and reports whether a switch
// happened.
func (f *Failover) Check() bool {
	if f.Engines[Backup] == nil {
		return false
	}
	now := f.Now()
	f.lock.Lock()
	if f.lastActivity.IsZero() {
		f.lastActivity = now
	}
	state := f.Engines[f.active].Link()
	if state.LastChannels.After(f.lastActivity) {
		f.lastActivity = state.LastChannels
	}
	var reason string
	switch {
	case f.wasUp && !state.Up:
		reason = "link down"
	case now.Sub(f.lastActivity) > f.Timeout:
		reason = "no activity"
	}
	f.wasUp = state.Up
	if reason == "" {
		f.lock.Unlock()
		return false
	}
	from := f.active
	f.active = 1 - from
	f.lastActivity = now
	f.wasUp = f.Engines[f.active].IsLinkUp()
	f.lock.Unlock()

	glog.Warningf("link: switch from %s to %s: %s", Name(from), Name(1-from), reason)
	if h := f.OnSwitch; h != nil {
		h(from, 1-from, reason)
	}
	return true
}

// SetChannels stores channels on both links so the values survive a switch.
func (f *Failover) SetChannels(ch crsf.Channels) {
	for _, e := range f.Engines {
		if e != nil {
			e.SetChannels(ch)
		}
	}
}

// SetChannel sets one channel on both links.
func (f *Failover) SetChannel(index, us int) error {
	for _, e := range f.Engines {
		if e != nil {
			if err := e.SetChannel(index, us); err != nil {
				return err
			}
		}
	}
	return nil
}

// Channels returns the channel table of the active link.
func (f *Failover) Channels() crsf.Channels {
	return f.Active().Channels()
}

// SendChannels sends the channel table on the active link.
func (f *Failover) SendChannels() error {
	return f.Active().SendChannels()
}

// AddToLoop implements LoopAdder: both engines run in the background and
// the switching rules are evaluated every iteration.
func (f *Failover) AddToLoop(loop *fx.Loop) {
	for n, e := range f.Engines {
		if e != nil {
			loop.AddRunnable(fx.NamedRun("crsf-"+Name(n), e))
		}
	}
	loop.AddController(fx.PrLvSense, fx.ControlFunc(func(fx.ControlContext) error {
		f.Check()
		return nil
	}))
}
