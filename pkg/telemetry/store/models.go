package store

import (
	"time"

	"github.com/robotalks/crsf.go/pkg/telemetry/msgs"
)

// Record is the common part of every row.
type Record struct {
	ID     uint      `gorm:"primaryKey"`
	Source string    `gorm:"size:32;index"`
	Time   time.Time `gorm:"index"`
}

// GPSRecord is a row of gps.
type GPSRecord struct {
	Record
	msgs.GPS `gorm:"embedded"`
}

// TableName implements gorm schema.Tabler.
func (GPSRecord) TableName() string { return "gps" }

// AttitudeRecord is a row of attitude.
type AttitudeRecord struct {
	Record
	msgs.Attitude `gorm:"embedded"`
}

// TableName implements gorm schema.Tabler.
func (AttitudeRecord) TableName() string { return "attitude" }

// BatteryRecord is a row of battery.
type BatteryRecord struct {
	Record
	msgs.Battery `gorm:"embedded"`
}

// TableName implements gorm schema.Tabler.
func (BatteryRecord) TableName() string { return "battery" }

// FlightModeRecord is a row of flight_mode.
type FlightModeRecord struct {
	Record
	msgs.FlightMode `gorm:"embedded"`
}

// TableName implements gorm schema.Tabler.
func (FlightModeRecord) TableName() string { return "flight_mode" }

// LinkStatsRecord is a row of link_stats.
type LinkStatsRecord struct {
	Record
	msgs.LinkStats `gorm:"embedded"`
}

// TableName implements gorm schema.Tabler.
func (LinkStatsRecord) TableName() string { return "link_stats" }

// LinkEventRecord is a row of link_events.
type LinkEventRecord struct {
	Record
	msgs.LinkEvent `gorm:"embedded"`
}

// TableName implements gorm schema.Tabler.
func (LinkEventRecord) TableName() string { return "link_events" }

var models = []interface{}{
	&GPSRecord{},
	&AttitudeRecord{},
	&BatteryRecord{},
	&FlightModeRecord{},
	&LinkStatsRecord{},
	&LinkEventRecord{},
}
