// Package store records telemetry into sqlite through gorm, using the
// pure Go modernc.org/sqlite driver.
package store

import (
	"fmt"
	"time"

	"github.com/golang/glog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"github.com/robotalks/crsf.go/pkg/crsf"
	"github.com/robotalks/crsf.go/pkg/telemetry/msgs"
)

// Config holds recorder configuration.
type Config struct {
	// Path of the sqlite database file.
	Path string
}

// Recorder appends decoded samples and link events to sqlite tables.
type Recorder struct {
	db *gorm.DB
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
}

type glogWriter struct{}

func (glogWriter) Printf(format string, args ...interface{}) {
	glog.Warningf(format, args...)
}

// Open opens or creates the database and migrates the tables.
func Open(conf Config) (*Recorder, error) {
	if conf.Path == "" {
		return nil, fmt.Errorf("database path required")
	}
	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: conf.Path}, &gorm.Config{
		Logger: logger.New(glogWriter{}, logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, err
		}
	}
	if err := db.AutoMigrate(models...); err != nil {
		sqlDB.Close()
		return nil, err
	}
	glog.Infof("telemetry recorder: %s", conf.Path)
	return &Recorder{db: db}, nil
}

// Consume implements telemetry.Sink. Channel frames are not recorded.
func (r *Recorder) Consume(source string, ev crsf.Event) error {
	rec := Record{Source: source, Time: ev.Time}
	var row interface{}
	switch msg := msgs.FromEvent(ev).(type) {
	case *msgs.GPS:
		row = &GPSRecord{Record: rec, GPS: *msg}
	case *msgs.Attitude:
		row = &AttitudeRecord{Record: rec, Attitude: *msg}
	case *msgs.Battery:
		row = &BatteryRecord{Record: rec, Battery: *msg}
	case *msgs.FlightMode:
		row = &FlightModeRecord{Record: rec, FlightMode: *msg}
	case *msgs.LinkStats:
		row = &LinkStatsRecord{Record: rec, LinkStats: *msg}
	case *msgs.LinkEvent:
		row = &LinkEventRecord{Record: rec, LinkEvent: *msg}
	default:
		return nil
	}
	return r.db.Create(row).Error
}

// RecordSwitch records a failover switch.
func (r *Recorder) RecordSwitch(from, to, reason string, at time.Time) error {
	return r.db.Create(&LinkEventRecord{
		Record: Record{Source: to, Time: at},
		LinkEvent: msgs.LinkEvent{
			Up:     true,
			Event:  msgs.LinkEventSwitch,
			Detail: from + " -> " + to + ": " + reason,
		},
	}).Error
}

func (r *Recorder) recent(limit int, out interface{}) error {
	return r.db.Order("id desc").Limit(limit).Find(out).Error
}

// RecentGPS returns up to limit latest GPS rows, newest first.
func (r *Recorder) RecentGPS(limit int) (rows []GPSRecord, err error) {
	err = r.recent(limit, &rows)
	return
}

// RecentBattery returns up to limit latest battery rows, newest first.
func (r *Recorder) RecentBattery(limit int) (rows []BatteryRecord, err error) {
	err = r.recent(limit, &rows)
	return
}

// RecentAttitude returns up to limit latest attitude rows, newest first.
func (r *Recorder) RecentAttitude(limit int) (rows []AttitudeRecord, err error) {
	err = r.recent(limit, &rows)
	return
}

// RecentLinkEvents returns up to limit latest link events, newest first.
func (r *Recorder) RecentLinkEvents(limit int) (rows []LinkEventRecord, err error) {
	err = r.recent(limit, &rows)
	return
}

// Count returns the number of rows of a record type, e.g. &GPSRecord{}.
func (r *Recorder) Count(model interface{}) (n int64, err error) {
	err = r.db.Model(model).Count(&n).Error
	return
}

// Health checks the database connection.
func (r *Recorder) Health() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close closes the database.
func (r *Recorder) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
