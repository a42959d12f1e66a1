package link

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/crsf.go/pkg/cli/sh"
	"github.com/robotalks/crsf.go/pkg/link"
	"github.com/robotalks/crsf.go/pkg/telemetry/msgs"
)

// ChannelValue is a channel index (1..16) with a value in microseconds.
type ChannelValue struct {
	Index  int
	Micros int
}

// ParseChannelValues parses "CH=US" arguments, or "CH US" pairs.
func ParseChannelValues(args []string) ([]ChannelValue, error) {
	var tokens []string
	for _, arg := range args {
		tokens = append(tokens, strings.Split(arg, "=")...)
	}
	if len(tokens) == 0 || len(tokens)%2 != 0 {
		return nil, fmt.Errorf("expect CH=US pairs")
	}
	values := make([]ChannelValue, 0, len(tokens)/2)
	for n := 0; n < len(tokens); n += 2 {
		index, err := strconv.Atoi(tokens[n])
		if err != nil {
			return nil, fmt.Errorf("invalid channel %q", tokens[n])
		}
		us, err := strconv.Atoi(tokens[n+1])
		if err != nil {
			return nil, fmt.Errorf("invalid value %q", tokens[n+1])
		}
		values = append(values, ChannelValue{Index: index, Micros: us})
	}
	return values, nil
}

// ParseHex parses bytes given as hex strings, e.g. "c8 18" or "c818".
func ParseHex(args []string) ([]byte, error) {
	var b strings.Builder
	for _, arg := range args {
		arg = strings.TrimPrefix(strings.TrimPrefix(arg, "0x"), "0X")
		b.WriteString(arg)
	}
	str := b.String()
	if str == "" {
		return nil, fmt.Errorf("bytes expected")
	}
	return hex.DecodeString(str)
}

// ParseOnOff parses a switch argument.
func ParseOnOff(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "on", "1", "true", "yes":
		return true, nil
	case "off", "0", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("expect on or off, got %q", arg)
}

var (
	// StatusCmd prints the state of each link.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			f := sh.EnvFrom(c).Failover
			active := f.ActiveIndex()
			for n, e := range f.Engines {
				if e != nil {
					sh.PrintMessage(c, msgs.StatusOf(link.Name(n), n == active, e))
				}
			}
		}),
	}

	// ChannelsCmd prints the outbound channel table, or with "rx" the
	// last received channels.
	ChannelsCmd = ishell.Cmd{
		Name:    "channels",
		Aliases: []string{"ch"},
		Help:    "[rx]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			f := sh.EnvFrom(c).Failover
			ch := f.Channels()
			if len(c.Args) > 0 && c.Args[0] == "rx" {
				ch = f.Active().RawChannels().Micros()
			}
			sh.PrintMessage(c, msgs.FromChannels(ch))
		}),
	}

	// SetCmd sets channel values on both links.
	SetCmd = ishell.Cmd{
		Name:    "set",
		Aliases: []string{"s"},
		Help:    "CH=US ...",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			values, err := ParseChannelValues(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			f := sh.EnvFrom(c).Failover
			for _, v := range values {
				if err = f.SetChannel(v.Index, v.Micros); err != nil {
					break
				}
			}
			sh.PrintResult(c, err)
		}),
	}

	// SendCmd sends the channel table on the active link now.
	SendCmd = ishell.Cmd{
		Name: "send",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.PrintResult(c, sh.EnvFrom(c).Failover.SendChannels())
		}),
	}

	// PassthroughCmd switches passthrough mode of the active link.
	PassthroughCmd = ishell.Cmd{
		Name:    "passthrough",
		Aliases: []string{"pt"},
		Help:    "[on|off]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			e := sh.EnvFrom(c).Failover.Active()
			if len(c.Args) == 0 {
				c.Printf("passthrough %v\n", e.Passthrough())
				return
			}
			enabled, err := ParseOnOff(c.Args[0])
			if err == nil {
				e.SetPassthrough(enabled)
			}
			sh.PrintResult(c, err)
		}),
	}

	// RawCmd writes bytes to the active link in passthrough mode.
	RawCmd = ishell.Cmd{
		Name: "raw",
		Help: "HEX ...",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			data, err := ParseHex(c.Args)
			if err == nil {
				err = sh.EnvFrom(c).Failover.Active().WriteRaw(data)
			}
			sh.PrintResult(c, err)
		}),
	}
)

func init() {
	sh.AddCmds(
		&StatusCmd,
		&ChannelsCmd,
		&SetCmd,
		&SendCmd,
		&PassthroughCmd,
		&RawCmd,
	)
}
