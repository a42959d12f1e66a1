// Package sim simulates a CRSF receiver on a vehicle. It is registered as
// the "sim" transport so the daemon and the console run without hardware.
package sim

import "math"

// earthRadius is the mean radius in meters.
const earthRadius = 6371000.0

// Pos2D is an offset in meters, X to the north and Y to the east.
type Pos2D struct {
	X, Y float64
}

// OffsetBy performs Add in-place.
func (p *Pos2D) OffsetBy(p1 Pos2D) *Pos2D {
	p.X += p1.X
	p.Y += p1.Y
	return p
}

// Pose2D is a position with heading.
type Pose2D struct {
	Pos2D
	Heading Angle
}

// Geo is a position on earth in degrees and meters.
type Geo struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
}

// Offset returns the position moved by p, using an equirectangular
// approximation valid for short distances.
func (g Geo) Offset(p Pos2D) Geo {
	lat := g.Latitude * math.Pi / 180
	return Geo{
		Latitude:  g.Latitude + p.X/earthRadius*180/math.Pi,
		Longitude: g.Longitude + p.Y/(earthRadius*math.Cos(lat))*180/math.Pi,
		Altitude:  g.Altitude,
	}
}
