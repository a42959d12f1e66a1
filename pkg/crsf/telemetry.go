package crsf

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Sample is a decoded payload.
type Sample interface {
	FrameType() FrameType
	// Payload encodes the sample back to its payload bytes.
	Payload() []byte
}

// Payload sizes of fixed-size telemetry frames.
const (
	GPSPayloadSize            = 15
	AttitudePayloadSize       = 6
	BatteryPayloadSize        = 8
	LinkStatisticsPayloadSize = 10
)

// AttitudeDivisor scales raw attitude values to degrees.
// Measured against Betaflight/iNAV output rather than taken from the
// protocol documentation (which states 1/10000 rad).
const AttitudeDivisor = 175.0

// GPS carries the GPS frame fields in host order, unscaled.
type GPS struct {
	Latitude    int32  // degrees * 1e7
	Longitude   int32  // degrees * 1e7
	GroundSpeed uint16 // km/h * 10
	Heading     uint16 // degrees * 100
	Altitude    uint16 // meters + 1000
	Satellites  uint8
}

// FrameType implements Sample.
func (g *GPS) FrameType() FrameType { return FrameGPS }

// Payload implements Sample.
func (g *GPS) Payload() []byte {
	b := make([]byte, GPSPayloadSize)
	binary.BigEndian.PutUint32(b[0:], uint32(g.Latitude))
	binary.BigEndian.PutUint32(b[4:], uint32(g.Longitude))
	binary.BigEndian.PutUint16(b[8:], g.GroundSpeed)
	binary.BigEndian.PutUint16(b[10:], g.Heading)
	binary.BigEndian.PutUint16(b[12:], g.Altitude)
	b[14] = g.Satellites
	return b
}

// LatitudeDeg returns latitude in degrees.
func (g *GPS) LatitudeDeg() float64 { return float64(g.Latitude) / 1e7 }

// LongitudeDeg returns longitude in degrees.
func (g *GPS) LongitudeDeg() float64 { return float64(g.Longitude) / 1e7 }

// SpeedKmh returns ground speed in km/h.
func (g *GPS) SpeedKmh() float64 { return float64(g.GroundSpeed) / 10 }

// HeadingDeg returns heading in degrees.
func (g *GPS) HeadingDeg() float64 { return float64(g.Heading) / 100 }

// AltitudeM returns altitude in meters.
func (g *GPS) AltitudeM() int { return int(g.Altitude) - 1000 }

func decodeGPS(p []byte) (*GPS, error) {
	if len(p) < GPSPayloadSize {
		return nil, ErrShortPayload
	}
	return &GPS{
		Latitude:    int32(binary.BigEndian.Uint32(p[0:])),
		Longitude:   int32(binary.BigEndian.Uint32(p[4:])),
		GroundSpeed: binary.BigEndian.Uint16(p[8:]),
		Heading:     binary.BigEndian.Uint16(p[10:]),
		Altitude:    binary.BigEndian.Uint16(p[12:]),
		Satellites:  p[14],
	}, nil
}

// LinkStatistics is the opaque link statistics block.
type LinkStatistics struct {
	Raw [LinkStatisticsPayloadSize]byte
}

// FrameType implements Sample.
func (s *LinkStatistics) FrameType() FrameType { return FrameLinkStatistics }

// Payload implements Sample.
func (s *LinkStatistics) Payload() []byte {
	return append([]byte(nil), s.Raw[:]...)
}

// UplinkRSSI1 is the uplink RSSI of antenna 1 in -dBm.
func (s *LinkStatistics) UplinkRSSI1() uint8 { return s.Raw[0] }

// UplinkRSSI2 is the uplink RSSI of antenna 2 in -dBm.
func (s *LinkStatistics) UplinkRSSI2() uint8 { return s.Raw[1] }

// UplinkLinkQuality is the uplink packet success rate in percent.
func (s *LinkStatistics) UplinkLinkQuality() uint8 { return s.Raw[2] }

// UplinkSNR is the uplink signal to noise ratio in dB.
func (s *LinkStatistics) UplinkSNR() int8 { return int8(s.Raw[3]) }

// ActiveAntenna is the index of the active antenna.
func (s *LinkStatistics) ActiveAntenna() uint8 { return s.Raw[4] }

// RFMode is the RF profile index.
func (s *LinkStatistics) RFMode() uint8 { return s.Raw[5] }

// UplinkTxPower is the transmit power index.
func (s *LinkStatistics) UplinkTxPower() uint8 { return s.Raw[6] }

// DownlinkRSSI is the downlink RSSI in -dBm.
func (s *LinkStatistics) DownlinkRSSI() uint8 { return s.Raw[7] }

// DownlinkLinkQuality is the downlink packet success rate in percent.
func (s *LinkStatistics) DownlinkLinkQuality() uint8 { return s.Raw[8] }

// DownlinkSNR is the downlink signal to noise ratio in dB.
func (s *LinkStatistics) DownlinkSNR() int8 { return int8(s.Raw[9]) }

func decodeLinkStatistics(p []byte) (*LinkStatistics, error) {
	if len(p) < LinkStatisticsPayloadSize {
		return nil, ErrShortPayload
	}
	s := &LinkStatistics{}
	copy(s.Raw[:], p)
	return s, nil
}

// Attitude is the vehicle attitude in degrees.
type Attitude struct {
	Pitch float64
	Roll  float64
	// Yaw is normalized to [0, 360).
	Yaw float64
	// Raw holds the wire values in order: pitch, roll, yaw.
	Raw [3]int16
}

// FrameType implements Sample.
func (a *Attitude) FrameType() FrameType { return FrameAttitude }

// Payload implements Sample.
func (a *Attitude) Payload() []byte {
	b := make([]byte, AttitudePayloadSize)
	for n, v := range a.Raw {
		binary.BigEndian.PutUint16(b[n*2:], uint16(v))
	}
	return b
}

// NewAttitude builds an Attitude from raw wire values.
func NewAttitude(pitch, roll, yaw int16) *Attitude {
	a := &Attitude{Raw: [3]int16{pitch, roll, yaw}}
	a.Pitch = float64(pitch) / AttitudeDivisor
	a.Roll = float64(roll) / AttitudeDivisor
	a.Yaw = math.Mod(float64(yaw)/AttitudeDivisor, 360)
	if a.Yaw < 0 {
		a.Yaw += 360
	}
	return a
}

// Bytes 0-1 carry pitch and 2-3 carry roll, swapped relative to the
// published frame layout.
func decodeAttitude(p []byte) (*Attitude, error) {
	if len(p) < AttitudePayloadSize {
		return nil, ErrShortPayload
	}
	return NewAttitude(
		int16(binary.BigEndian.Uint16(p[0:])),
		int16(binary.BigEndian.Uint16(p[2:])),
		int16(binary.BigEndian.Uint16(p[4:])),
	), nil
}

// FlightMode is the flight mode label.
type FlightMode struct {
	Mode string
}

// FrameType implements Sample.
func (m *FlightMode) FrameType() FrameType { return FrameFlightMode }

// Payload implements Sample.
func (m *FlightMode) Payload() []byte {
	return append([]byte(m.Mode), 0)
}

func decodeFlightMode(p []byte) *FlightMode {
	if pos := bytes.IndexByte(p, 0); pos >= 0 {
		p = p[:pos]
	}
	return &FlightMode{Mode: string(p)}
}

// Battery is the battery sensor reading.
type Battery struct {
	Voltage   float64 // volts, 0.01 V resolution on the wire
	Current   uint16  // mA
	Capacity  uint32  // mAh, 24 bits on the wire
	Remaining uint8   // percent
}

// FrameType implements Sample.
func (b *Battery) FrameType() FrameType { return FrameBatterySensor }

// Payload implements Sample.
func (b *Battery) Payload() []byte {
	p := make([]byte, BatteryPayloadSize)
	binary.BigEndian.PutUint16(p[0:], uint16(math.Round(b.Voltage*100)))
	binary.BigEndian.PutUint16(p[2:], b.Current)
	p[4], p[5], p[6] = byte(b.Capacity>>16), byte(b.Capacity>>8), byte(b.Capacity)
	p[7] = b.Remaining
	return p
}

func decodeBattery(p []byte) (*Battery, error) {
	if len(p) < BatteryPayloadSize {
		return nil, ErrShortPayload
	}
	return &Battery{
		Voltage:   float64(binary.BigEndian.Uint16(p[0:])) / 100,
		Current:   binary.BigEndian.Uint16(p[2:]),
		Capacity:  uint32(p[4])<<16 | uint32(p[5])<<8 | uint32(p[6]),
		Remaining: p[7],
	}, nil
}

// Unknown carries a frame without a decoder.
type Unknown struct {
	Type FrameType
	Data []byte
}

// FrameType implements Sample.
func (u *Unknown) FrameType() FrameType { return u.Type }

// Payload implements Sample.
func (u *Unknown) Payload() []byte { return u.Data }
