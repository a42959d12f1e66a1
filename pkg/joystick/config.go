package joystick

import (
	"flag"
	"strconv"

	"github.com/robotalks/crsf.go/pkg/joystick/device"
)

// Config defines the configurations for the controller.
type Config struct {
	// Device is a device path or index, empty to disable the joystick.
	Device  string
	Mapping string
	Verbose bool
}

var defaultConfig = Config{
	Mapping: DefaultMapping().String(),
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Device, "joystick", defaultConfig.Device, "Joystick device path or index, empty to disable.")
	flag.StringVar(&defaultConfig.Mapping, "joystick-map", defaultConfig.Mapping, "Joystick bindings, e.g. a0=1,a1=-2,b0=5.")
	flag.BoolVar(&defaultConfig.Verbose, "joystick-verbose", defaultConfig.Verbose, "Log joystick events.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Enabled reports whether a device is configured.
func (c *Config) Enabled() bool {
	return c.Device != ""
}

// DevicePath resolves Device to a path.
func (c *Config) DevicePath() string {
	if index, err := strconv.Atoi(c.Device); err == nil {
		return device.Path(index)
	}
	return c.Device
}

// NewController creates a controller using the config.
func (c *Config) NewController(target ChannelSetter) (*Controller, error) {
	mapping, err := ParseMapping(c.Mapping)
	if err != nil {
		return nil, err
	}
	ctl := NewController(c.DevicePath(), mapping, target)
	ctl.Verbose = c.Verbose
	return ctl, nil
}
