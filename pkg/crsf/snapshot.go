package crsf

import (
	"sync"
	"time"
)

// Telemetry is a consistent copy of the latest samples. Nil fields were
// never received. Samples are immutable once published.
type Telemetry struct {
	Link       LinkState
	GPS        *GPS
	Attitude   *Attitude
	Battery    *Battery
	FlightMode *FlightMode
	LinkStats  *LinkStatistics
	Updated    time.Time
}

// Snapshot guards the latest sample of each kind.
type Snapshot struct {
	lock sync.RWMutex
	data Telemetry
}

// Publish replaces the latest sample of its kind. It returns false for
// samples not kept in the snapshot.
func (s *Snapshot) Publish(sample Sample, at time.Time) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	switch v := sample.(type) {
	case *GPS:
		s.data.GPS = v
	case *Attitude:
		s.data.Attitude = v
	case *Battery:
		s.data.Battery = v
	case *FlightMode:
		s.data.FlightMode = v
	case *LinkStatistics:
		s.data.LinkStats = v
	default:
		return false
	}
	s.data.Updated = at
	return true
}

// SetLink replaces the link state.
func (s *Snapshot) SetLink(link LinkState) {
	s.lock.Lock()
	s.data.Link = link
	s.lock.Unlock()
}

// Read copies out the snapshot.
func (s *Snapshot) Read() Telemetry {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.data
}
