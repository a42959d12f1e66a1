package sim

import (
	"math"
	"sync"
	"time"

	"github.com/robotalks/crsf.go/pkg/crsf"
)

// Channel assignment of the sticks, 1-based.
const (
	ChannelRoll     = 1
	ChannelPitch    = 2
	ChannelThrottle = 3
	ChannelYaw      = 4
)

// VehicleConfig describes the simulated vehicle.
type VehicleConfig struct {
	// DriveSpeedMax is the speed (m/s) at full throttle.
	DriveSpeedMax float64
	// Accel (m/s^2) bounds speed changes, 0 changes speed immediately.
	Accel float64
	// TurnSpeedMax is the turn rate (degrees/s) at full yaw.
	TurnSpeedMax float64
	// TiltMax is the attitude (degrees) at full roll or pitch.
	TiltMax float64
	// Cells is the number of battery cells.
	Cells int
	// Capacity is the battery capacity in mAh.
	Capacity uint32
	// CurrentMax is the draw (mA) at full throttle.
	CurrentMax float64
}

// DefaultVehicleConfig is a small quad on a 4S battery.
var DefaultVehicleConfig = VehicleConfig{
	DriveSpeedMax: 15,
	Accel:         5,
	TurnSpeedMax:  90,
	TiltMax:       30,
	Cells:         4,
	Capacity:      1500,
	CurrentMax:    30000,
}

// Vehicle integrates the motion of a vehicle steered by channels.
type Vehicle struct {
	Config VehicleConfig
	Home   Geo

	lock     sync.Mutex
	pose     Pose2D
	speed    float64
	target   float64
	turnRate float64
	pitch    float64
	roll     float64
	current  float64
	usedMAh  float64
	updated  time.Time
}

// NewVehicle creates a Vehicle at home.
func NewVehicle(conf VehicleConfig, home Geo) *Vehicle {
	return &Vehicle{Config: conf, Home: home}
}

// approach returns the distance covered in dt seconds while the speed v
// moves towards target at accel, and the speed reached.
func approach(v, target, accel, dt float64) (dist, speed float64) {
	if accel <= 0 || v == target {
		return target * dt, target
	}
	diff := target - v
	a := math.Copysign(accel, diff)
	tAccel := math.Abs(diff) / accel
	if tAccel >= dt {
		return v*dt + a*dt*dt/2, v + a*dt
	}
	return v*tAccel + a*tAccel*tAccel/2 + target*(dt-tAccel), target
}

// stick maps a channel to -1..1 around MicrosMid.
func stick(ch crsf.Channels, index int) float64 {
	return float64(ch[index-1]-crsf.MicrosMid) / float64(crsf.MicrosMid-crsf.MicrosMin)
}

// Steer advances the motion to now and applies new stick positions.
func (v *Vehicle) Steer(ch crsf.Channels, now time.Time) {
	v.lock.Lock()
	defer v.lock.Unlock()
	v.advance(now)
	throttle := (stick(ch, ChannelThrottle) + 1) / 2
	v.target = throttle * v.Config.DriveSpeedMax
	v.current = throttle * v.Config.CurrentMax
	v.turnRate = stick(ch, ChannelYaw) * v.Config.TurnSpeedMax * math.Pi / 180
	v.pitch = stick(ch, ChannelPitch) * v.Config.TiltMax
	v.roll = stick(ch, ChannelRoll) * v.Config.TiltMax
}

// Update advances the motion to now.
func (v *Vehicle) Update(now time.Time) {
	v.lock.Lock()
	v.advance(now)
	v.lock.Unlock()
}

func (v *Vehicle) advance(now time.Time) {
	if v.updated.IsZero() || !now.After(v.updated) {
		if v.updated.IsZero() {
			v.updated = now
		}
		return
	}
	dt := now.Sub(v.updated).Seconds()
	v.updated = now
	var dist float64
	dist, v.speed = approach(v.speed, v.target, v.Config.Accel, dt)
	turn := v.turnRate * dt
	v.pose.OffsetBy(v.pose.Heading.AddRadians(turn / 2).Project(dist))
	v.pose.Heading = v.pose.Heading.AddRadians(turn)
	v.usedMAh += v.current * dt / 3600
}

// Pose returns the current position and heading.
func (v *Vehicle) Pose() Pose2D {
	v.lock.Lock()
	defer v.lock.Unlock()
	return v.pose
}

// Speed returns the ground speed in m/s.
func (v *Vehicle) Speed() float64 {
	v.lock.Lock()
	defer v.lock.Unlock()
	return v.speed
}

// GPS reports the position.
func (v *Vehicle) GPS() *crsf.GPS {
	v.lock.Lock()
	defer v.lock.Unlock()
	geo := v.Home.Offset(v.pose.Pos2D)
	return &crsf.GPS{
		Latitude:    int32(math.Round(geo.Latitude * 1e7)),
		Longitude:   int32(math.Round(geo.Longitude * 1e7)),
		GroundSpeed: uint16(math.Round(math.Abs(v.speed) * 3.6 * 10)),
		Heading:     uint16(math.Round(v.pose.Heading.Compass()*100)) % 36000,
		Altitude:    uint16(math.Max(0, math.Round(geo.Altitude+1000))),
		Satellites:  12,
	}
}

// Attitude reports the attitude.
func (v *Vehicle) Attitude() *crsf.Attitude {
	v.lock.Lock()
	defer v.lock.Unlock()
	raw := func(deg float64) int16 {
		return int16(math.Round(deg * crsf.AttitudeDivisor))
	}
	return crsf.NewAttitude(raw(v.pitch), raw(v.roll), raw(v.pose.Heading.Degrees()))
}

// Battery reports a linear discharge of the configured battery.
func (v *Vehicle) Battery() *crsf.Battery {
	v.lock.Lock()
	defer v.lock.Unlock()
	remaining := 1.0
	if v.Config.Capacity > 0 {
		remaining = math.Max(0, 1-v.usedMAh/float64(v.Config.Capacity))
	}
	cellVolts := 3.5 + 0.7*remaining
	return &crsf.Battery{
		Voltage:   math.Round(cellVolts*float64(v.Config.Cells)*100) / 100,
		Current:   uint16(math.Min(v.current, 0xffff)),
		Capacity:  uint32(math.Round(v.usedMAh)),
		Remaining: uint8(math.Round(remaining * 100)),
	}
}
