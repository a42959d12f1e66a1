// Package env assembles the runtime of the CRSF daemon and tools from
// command line flags and environment variables.
package env

import (
	"flag"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/robotalks/crsf.go/pkg/crsf"
	"github.com/robotalks/crsf.go/pkg/link"
)

// Config provides the options shared by all commands.
type Config struct {
	// Port is the transport URL of the primary link.
	Port string
	// BackupPort is the transport URL of the backup link, empty to disable
	// failover.
	BackupPort string
	// Baud applies to port URLs without a baud parameter.
	Baud int

	PacketTimeout   time.Duration
	Failsafe        time.Duration
	SwitchTimeout   time.Duration
	SendInterval    time.Duration
	BatteryInterval time.Duration

	// MQTTURL is the broker to publish telemetry to, empty to disable.
	// e.g. mqtt://host:1883/crsf/
	MQTTURL string
	// DBPath is the sqlite file recording telemetry, empty to disable.
	DBPath string
	// BatteryPath is a power_supply device reported as battery telemetry,
	// empty to disable.
	BatteryPath string
	ClientID    string
}

var defaultConfig = Config{
	Port:            "serial:///dev/ttyAMA0",
	Baud:            crsf.BaudRate,
	PacketTimeout:   crsf.DefaultConfig().PacketTimeout,
	Failsafe:        crsf.DefaultConfig().Failsafe,
	SwitchTimeout:   link.DefaultSwitchTimeout,
	SendInterval:    link.DefaultChannelsInterval,
	BatteryInterval: link.DefaultBatteryInterval,
}

func init() {
	if val := os.Getenv("CRSF_PORT"); val != "" {
		defaultConfig.Port = val
	}
	if val := os.Getenv("CRSF_BACKUP_PORT"); val != "" {
		defaultConfig.BackupPort = val
	}
	if val := os.Getenv("CRSF_MQTT_URL"); val != "" {
		defaultConfig.MQTTURL = val
	}
	if val := os.Getenv("CRSF_DB"); val != "" {
		defaultConfig.DBPath = val
	}
	if val := os.Getenv("CRSF_BATTERY"); val != "" {
		defaultConfig.BatteryPath = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Primary link URL, e.g. serial:///dev/ttyAMA0, tcp://host:port")
	flag.StringVar(&defaultConfig.BackupPort, "backup-port", defaultConfig.BackupPort, "Backup link URL, empty to disable failover")
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Serial baud rate when not in the port URL")
	flag.DurationVar(&defaultConfig.PacketTimeout, "packet-timeout", defaultConfig.PacketTimeout, "Flush partial frames after this silence")
	flag.DurationVar(&defaultConfig.Failsafe, "failsafe", defaultConfig.Failsafe, "Link down after this silence")
	flag.DurationVar(&defaultConfig.SwitchTimeout, "switch-timeout", defaultConfig.SwitchTimeout, "Switch links after this time without channel frames")
	flag.DurationVar(&defaultConfig.SendInterval, "send-interval", defaultConfig.SendInterval, "Channel frame interval")
	flag.DurationVar(&defaultConfig.BatteryInterval, "battery-interval", defaultConfig.BatteryInterval, "Battery telemetry interval")
	flag.StringVar(&defaultConfig.MQTTURL, "mqtt", defaultConfig.MQTTURL, "MQTT broker URL for telemetry, empty to disable")
	flag.StringVar(&defaultConfig.DBPath, "db", defaultConfig.DBPath, "SQLite file recording telemetry, empty to disable")
	flag.StringVar(&defaultConfig.BatteryPath, "battery", defaultConfig.BatteryPath, "Power supply reported as battery, e.g. /sys/class/power_supply/BAT0")
	flag.StringVar(&defaultConfig.ClientID, "id", defaultConfig.ClientID, "Client ID, derived from the machine ID if empty")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// EngineConfig returns the engine settings.
func (c *Config) EngineConfig() crsf.Config {
	conf := crsf.DefaultConfig()
	if c.PacketTimeout > 0 {
		conf.PacketTimeout = c.PacketTimeout
	}
	if c.Failsafe > 0 {
		conf.Failsafe = c.Failsafe
	}
	return conf
}

// PortURL adds the configured baud to a port URL which has none.
func (c *Config) PortURL(port string) string {
	u, err := url.Parse(port)
	if err != nil || c.Baud <= 0 {
		return port
	}
	q := u.Query()
	if q.Get("baud") != "" {
		return port
	}
	q.Set("baud", strconv.Itoa(c.Baud))
	u.RawQuery = q.Encode()
	return u.String()
}

// ID returns ClientID, or the machine derived ID.
func (c *Config) ID() string {
	if c.ClientID == "" {
		c.ClientID = ClientID()
	}
	return c.ClientID
}
