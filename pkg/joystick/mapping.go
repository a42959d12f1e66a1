package joystick

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/robotalks/crsf.go/pkg/crsf"
	"github.com/robotalks/crsf.go/pkg/joystick/device"
)

// ThrottleChannel is the 1-based channel reverted to MicrosMin, not
// center, when the device is lost.
const ThrottleChannel = 3

// AxisToMicros maps an axis value in [-32768, 32767] to [1000, 2000] with
// 0 at 1500.
func AxisToMicros(v int) int {
	var nf float64
	if v >= 0 {
		nf = float64(v) / 32767
	} else {
		nf = float64(v) / 32768
	}
	us := int(float64(crsf.MicrosMid) + nf*500 + 0.5)
	switch {
	case us < crsf.MicrosMin:
		return crsf.MicrosMin
	case us > crsf.MicrosMax:
		return crsf.MicrosMax
	}
	return us
}

// AxisMap binds an axis to a channel.
type AxisMap struct {
	Channel int
	Invert  bool
}

// Mapping binds axes and buttons to 1-based channels.
type Mapping struct {
	Axes    map[int]AxisMap
	Buttons map[int]int
}

// DefaultMapping maps axes 0..3 to channels 1..4.
func DefaultMapping() *Mapping {
	return &Mapping{
		Axes:    map[int]AxisMap{0: {Channel: 1}, 1: {Channel: 2}, 2: {Channel: 3}, 3: {Channel: 4}},
		Buttons: map[int]int{},
	}
}

// ParseMapping parses a comma separated list of bindings like
// "a0=1,a1=-2,b0=5". An axis bound to a negative channel is inverted.
func ParseMapping(s string) (*Mapping, error) {
	m := &Mapping{Axes: make(map[int]AxisMap), Buttons: make(map[int]int)}
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item == "" {
			continue
		}
		pos := strings.IndexByte(item, '=')
		if pos < 2 || (item[0] != 'a' && item[0] != 'b') {
			return nil, fmt.Errorf("invalid binding %q", item)
		}
		index, err := strconv.Atoi(item[1:pos])
		if err != nil || index < 0 {
			return nil, fmt.Errorf("invalid binding %q", item)
		}
		ch, err := strconv.Atoi(item[pos+1:])
		invert := ch < 0
		if invert {
			ch = -ch
		}
		if err != nil || ch < 1 || ch > crsf.ChannelCount || (invert && item[0] == 'b') {
			return nil, fmt.Errorf("invalid channel in %q", item)
		}
		if item[0] == 'a' {
			m.Axes[index] = AxisMap{Channel: ch, Invert: invert}
		} else {
			m.Buttons[index] = ch
		}
	}
	return m, nil
}

// String formats the mapping in the form accepted by ParseMapping.
func (m *Mapping) String() string {
	var items []string
	for index, a := range m.Axes {
		ch := a.Channel
		if a.Invert {
			ch = -ch
		}
		items = append(items, fmt.Sprintf("a%d=%d", index, ch))
	}
	for index, ch := range m.Buttons {
		items = append(items, fmt.Sprintf("b%d=%d", index, ch))
	}
	sort.Strings(items)
	return strings.Join(items, ",")
}

// Apply updates ch with the event and reports whether a mapped channel
// changed.
func (m *Mapping) Apply(ch *crsf.Channels, ev device.Event) bool {
	index, us := -1, 0
	switch e := ev.(type) {
	case device.AxisEvent:
		a, ok := m.Axes[e.Index()]
		if !ok {
			return false
		}
		v := e.Value()
		if a.Invert {
			v = -v
		}
		index, us = a.Channel-1, AxisToMicros(v)
	case device.ButtonEvent:
		c, ok := m.Buttons[e.Index()]
		if !ok {
			return false
		}
		index, us = c-1, crsf.MicrosMin
		if e.Pressed() {
			us = crsf.MicrosMax
		}
	}
	if index < 0 || index >= len(ch) || ch[index] == us {
		return false
	}
	ch[index] = us
	return true
}

// Neutralize reverts mapped channels to center, and the throttle to
// MicrosMin.
func (m *Mapping) Neutralize(ch *crsf.Channels) {
	set := func(c int) {
		if c < 1 || c > len(ch) {
			return
		}
		if c == ThrottleChannel {
			ch[c-1] = crsf.MicrosMin
		} else {
			ch[c-1] = crsf.MicrosMid
		}
	}
	for _, a := range m.Axes {
		set(a.Channel)
	}
	for _, c := range m.Buttons {
		set(c)
	}
}
