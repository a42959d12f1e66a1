// Package device reads Linux joystick devices (/dev/input/jsN).
package device

import (
	"errors"
	"io"
	"strconv"
)

// ErrUnsupported is returned by Open on platforms without joystick support.
var ErrUnsupported = errors.New("joystick devices not supported on this platform")

// Event is an axis or button change.
type Event interface {
	// IsInit indicates the event reports the initial state.
	IsInit() bool
	// Index returns either Axis or Button index.
	Index() int
}

// AxisEvent reports an axis position in [-32767, 32767].
type AxisEvent interface {
	Event
	Value() int
}

// ButtonEvent reports a button state.
type ButtonEvent interface {
	Event
	Pressed() bool
}

// Device represents an opened joystick.
type Device interface {
	io.Closer
	// Path returns the device path.
	Path() string
	// Name returns the name reported by the driver.
	Name() string
	AxisCount() int
	ButtonCount() int
	// ReadEvent blocks until the next event.
	ReadEvent() (Event, error)
}

// Axis is an AxisEvent value.
type Axis struct {
	Number int
	Pos    int
	Init   bool
}

// IsInit implements Event.
func (a Axis) IsInit() bool { return a.Init }

// Index implements Event.
func (a Axis) Index() int { return a.Number }

// Value implements AxisEvent.
func (a Axis) Value() int { return a.Pos }

// Button is a ButtonEvent value.
type Button struct {
	Number int
	Down   bool
	Init   bool
}

// IsInit implements Event.
func (b Button) IsInit() bool { return b.Init }

// Index implements Event.
func (b Button) Index() int { return b.Number }

// Pressed implements ButtonEvent.
func (b Button) Pressed() bool { return b.Down }

// Path returns the device path of a joystick index.
func Path(index int) string {
	return "/dev/input/js" + strconv.Itoa(index)
}
