package telemetry

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/crsf.go/pkg/cli/sh"
	"github.com/robotalks/crsf.go/pkg/crsf"
	"github.com/robotalks/crsf.go/pkg/telemetry/msgs"
)

// Samples lists the samples in t, filtered by message kind if kind is not
// empty.
func Samples(t crsf.Telemetry, kind string) []msgs.SerializableMessage {
	var samples []crsf.Sample
	if t.GPS != nil {
		samples = append(samples, t.GPS)
	}
	if t.Attitude != nil {
		samples = append(samples, t.Attitude)
	}
	if t.Battery != nil {
		samples = append(samples, t.Battery)
	}
	if t.FlightMode != nil {
		samples = append(samples, t.FlightMode)
	}
	if t.LinkStats != nil {
		samples = append(samples, t.LinkStats)
	}
	var out []msgs.SerializableMessage
	for _, s := range samples {
		if msg := msgs.FromSample(s); msg != nil && (kind == "" || msg.Kind() == kind) {
			out = append(out, msg)
		}
	}
	return out
}

// ParseBattery parses "VOLTS [MA [MAH [PERCENT]]]".
func ParseBattery(args []string) (*crsf.Battery, error) {
	if len(args) == 0 || len(args) > 4 {
		return nil, fmt.Errorf("expect VOLTS [MA [MAH [PERCENT]]]")
	}
	var b crsf.Battery
	var err error
	if b.Voltage, err = strconv.ParseFloat(args[0], 64); err != nil || b.Voltage < 0 {
		return nil, fmt.Errorf("invalid voltage %q", args[0])
	}
	limits := []uint64{0xffff, 0xffffff, 100}
	values := make([]uint64, len(limits))
	for n, arg := range args[1:] {
		if values[n], err = strconv.ParseUint(arg, 10, 32); err != nil || values[n] > limits[n] {
			return nil, fmt.Errorf("invalid value %q", arg)
		}
	}
	b.Current, b.Capacity, b.Remaining = uint16(values[0]), uint32(values[1]), uint8(values[2])
	return &b, nil
}

var (
	// TelemetryCmd prints the latest telemetry of the active link.
	TelemetryCmd = ishell.Cmd{
		Name:    "telemetry",
		Aliases: []string{"t"},
		Help:    "[gps|attitude|battery|flight_mode|link_stats]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			var kind string
			if len(c.Args) > 0 {
				kind = c.Args[0]
			}
			samples := Samples(sh.EnvFrom(c).Failover.Active().Telemetry(), kind)
			if len(samples) == 0 && !sh.ShellFrom(c).OutputJSON {
				c.Println("No telemetry received")
				return
			}
			for _, msg := range samples {
				sh.PrintMessage(c, msg)
			}
		}),
	}

	// BatteryCmd sends a battery frame on the active link.
	BatteryCmd = ishell.Cmd{
		Name:    "battery",
		Aliases: []string{"bat"},
		Help:    "VOLTS [MA [MAH [PERCENT]]]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			b, err := ParseBattery(c.Args)
			if err == nil {
				err = sh.EnvFrom(c).Failover.Active().SendBattery(b)
			}
			sh.PrintResult(c, err)
		}),
	}
)

func init() {
	sh.AddCmds(
		&TelemetryCmd,
		&BatteryCmd,
	)
}
