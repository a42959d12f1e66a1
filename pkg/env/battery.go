package env

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/robotalks/crsf.go/pkg/crsf"
)

// PowerSupply reads a Linux power_supply class device, e.g.
// /sys/class/power_supply/BAT0. Values are in micro units.
type PowerSupply struct {
	Dir string
}

// readInt reads an attribute, ok is false when the device lacks it.
func (p PowerSupply) readInt(name string) (v int64, ok bool, err error) {
	data, err := os.ReadFile(filepath.Join(p.Dir, name))
	if os.IsNotExist(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	v, err = strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	return v, err == nil, err
}

// Read implements link.BatterySource. voltage_now is required, current,
// capacity and charge are reported as 0 when absent.
func (p PowerSupply) Read() (*crsf.Battery, error) {
	uv, ok, err := p.readInt("voltage_now")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: no voltage_now", p.Dir)
	}
	b := &crsf.Battery{Voltage: float64(uv) / 1e6}
	if ua, ok, err := p.readInt("current_now"); err != nil {
		return nil, err
	} else if ok {
		if ua < 0 {
			ua = -ua
		}
		b.Current = uint16(clampInt(ua/1000, 0xffff))
	}
	if uah, ok, err := p.readInt("charge_full"); err != nil {
		return nil, err
	} else if ok {
		b.Capacity = uint32(clampInt(uah/1000, 0xffffff))
	}
	if pct, ok, err := p.readInt("capacity"); err != nil {
		return nil, err
	} else if ok {
		b.Remaining = uint8(clampInt(pct, 100))
	}
	return b, nil
}

func clampInt(v, max int64) int64 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
