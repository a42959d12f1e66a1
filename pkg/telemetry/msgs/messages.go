package msgs

import (
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/crsf.go/pkg/crsf"
	fx "github.com/robotalks/crsf.go/pkg/framework"
)

// TypeIDs
const (
	GPSTypeID        uint32 = GroupTelemetry | TypeIDKindEvent | 0x0001
	AttitudeTypeID   uint32 = GroupTelemetry | TypeIDKindEvent | 0x0002
	BatteryTypeID    uint32 = GroupTelemetry | TypeIDKindEvent | 0x0003
	FlightModeTypeID uint32 = GroupTelemetry | TypeIDKindEvent | 0x0004
	LinkStatsTypeID  uint32 = GroupTelemetry | TypeIDKindEvent | 0x0005
	LinkEventTypeID  uint32 = GroupTelemetry | TypeIDKindEvent | 0x0006
	ChannelsTypeID   uint32 = GroupTelemetry | TypeIDKindEvent | 0x0007
)

// GPS is the position report in natural units.
type GPS struct {
	Latitude   float64 `protobuf:"fixed64,1,opt,name=latitude,proto3" json:"latitude"`
	Longitude  float64 `protobuf:"fixed64,2,opt,name=longitude,proto3" json:"longitude"`
	SpeedKmh   float64 `protobuf:"fixed64,3,opt,name=speed_kmh,proto3" json:"speed_kmh"`
	Heading    float64 `protobuf:"fixed64,4,opt,name=heading,proto3" json:"heading"`
	Altitude   int32   `protobuf:"zigzag32,5,opt,name=altitude,proto3" json:"altitude"`
	Satellites uint32  `protobuf:"varint,6,opt,name=satellites,proto3" json:"satellites"`
}

// NewMessage implements SerializableMessage.
func (m *GPS) NewMessage() fx.Message { return &GPS{} }

// TypeID implements SerializableMessage.
func (m *GPS) TypeID() uint32 { return GPSTypeID }

// Kind implements SerializableMessage.
func (m *GPS) Kind() string { return "gps" }

// ProtoMessage implements proto.Message.
func (m *GPS) ProtoMessage() {}

// Reset implements proto.Message.
func (m *GPS) Reset() { *m = GPS{} }

// String implements proto.Message.
func (m *GPS) String() string { return proto.CompactTextString(m) }

// Attitude is in degrees.
type Attitude struct {
	Pitch float64 `protobuf:"fixed64,1,opt,name=pitch,proto3" json:"pitch"`
	Roll  float64 `protobuf:"fixed64,2,opt,name=roll,proto3" json:"roll"`
	Yaw   float64 `protobuf:"fixed64,3,opt,name=yaw,proto3" json:"yaw"`
}

// NewMessage implements SerializableMessage.
func (m *Attitude) NewMessage() fx.Message { return &Attitude{} }

// TypeID implements SerializableMessage.
func (m *Attitude) TypeID() uint32 { return AttitudeTypeID }

// Kind implements SerializableMessage.
func (m *Attitude) Kind() string { return "attitude" }

// ProtoMessage implements proto.Message.
func (m *Attitude) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Attitude) Reset() { *m = Attitude{} }

// String implements proto.Message.
func (m *Attitude) String() string { return proto.CompactTextString(m) }

// Battery is the battery sensor reading.
type Battery struct {
	Voltage   float64 `protobuf:"fixed64,1,opt,name=voltage,proto3" json:"voltage"`
	Current   uint32  `protobuf:"varint,2,opt,name=current,proto3" json:"current"`
	Capacity  uint32  `protobuf:"varint,3,opt,name=capacity,proto3" json:"capacity"`
	Remaining uint32  `protobuf:"varint,4,opt,name=remaining,proto3" json:"remaining"`
}

// NewMessage implements SerializableMessage.
func (m *Battery) NewMessage() fx.Message { return &Battery{} }

// TypeID implements SerializableMessage.
func (m *Battery) TypeID() uint32 { return BatteryTypeID }

// Kind implements SerializableMessage.
func (m *Battery) Kind() string { return "battery" }

// ProtoMessage implements proto.Message.
func (m *Battery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Battery) Reset() { *m = Battery{} }

// String implements proto.Message.
func (m *Battery) String() string { return proto.CompactTextString(m) }

// FlightMode is the flight mode label.
type FlightMode struct {
	Mode string `protobuf:"bytes,1,opt,name=mode,proto3" json:"mode"`
}

// NewMessage implements SerializableMessage.
func (m *FlightMode) NewMessage() fx.Message { return &FlightMode{} }

// TypeID implements SerializableMessage.
func (m *FlightMode) TypeID() uint32 { return FlightModeTypeID }

// Kind implements SerializableMessage.
func (m *FlightMode) Kind() string { return "flight_mode" }

// ProtoMessage implements proto.Message.
func (m *FlightMode) ProtoMessage() {}

// Reset implements proto.Message.
func (m *FlightMode) Reset() { *m = FlightMode{} }

// String implements proto.Message.
func (m *FlightMode) String() string { return proto.CompactTextString(m) }

// LinkStats is the decoded link statistics block.
type LinkStats struct {
	UplinkRssi1         uint32 `protobuf:"varint,1,opt,name=uplink_rssi1,proto3" json:"uplink_rssi1"`
	UplinkRssi2         uint32 `protobuf:"varint,2,opt,name=uplink_rssi2,proto3" json:"uplink_rssi2"`
	UplinkLinkQuality   uint32 `protobuf:"varint,3,opt,name=uplink_link_quality,proto3" json:"uplink_link_quality"`
	UplinkSnr           int32  `protobuf:"zigzag32,4,opt,name=uplink_snr,proto3" json:"uplink_snr"`
	ActiveAntenna       uint32 `protobuf:"varint,5,opt,name=active_antenna,proto3" json:"active_antenna"`
	RfMode              uint32 `protobuf:"varint,6,opt,name=rf_mode,proto3" json:"rf_mode"`
	UplinkTxPower       uint32 `protobuf:"varint,7,opt,name=uplink_tx_power,proto3" json:"uplink_tx_power"`
	DownlinkRssi        uint32 `protobuf:"varint,8,opt,name=downlink_rssi,proto3" json:"downlink_rssi"`
	DownlinkLinkQuality uint32 `protobuf:"varint,9,opt,name=downlink_link_quality,proto3" json:"downlink_link_quality"`
	DownlinkSnr         int32  `protobuf:"zigzag32,10,opt,name=downlink_snr,proto3" json:"downlink_snr"`
}

// NewMessage implements SerializableMessage.
func (m *LinkStats) NewMessage() fx.Message { return &LinkStats{} }

// TypeID implements SerializableMessage.
func (m *LinkStats) TypeID() uint32 { return LinkStatsTypeID }

// Kind implements SerializableMessage.
func (m *LinkStats) Kind() string { return "link_stats" }

// ProtoMessage implements proto.Message.
func (m *LinkStats) ProtoMessage() {}

// Reset implements proto.Message.
func (m *LinkStats) Reset() { *m = LinkStats{} }

// String implements proto.Message.
func (m *LinkStats) String() string { return proto.CompactTextString(m) }

// LinkEvent reports link-up, link-down and failover switches.
type LinkEvent struct {
	Up    bool   `protobuf:"varint,1,opt,name=up,proto3" json:"up"`
	Event string `protobuf:"bytes,2,opt,name=event,proto3" json:"event"`
	// Detail is the switch reason for failover events.
	Detail string `protobuf:"bytes,3,opt,name=detail,proto3" json:"detail,omitempty"`
	// LastReceive is unix time in nanoseconds.
	LastReceive int64 `protobuf:"varint,4,opt,name=last_receive,proto3" json:"last_receive"`
}

// LinkEventSwitch is the Event of failover switches. Other events carry
// crsf.EventKind names.
const LinkEventSwitch = "switch"

// NewMessage implements SerializableMessage.
func (m *LinkEvent) NewMessage() fx.Message { return &LinkEvent{} }

// TypeID implements SerializableMessage.
func (m *LinkEvent) TypeID() uint32 { return LinkEventTypeID }

// Kind implements SerializableMessage.
func (m *LinkEvent) Kind() string { return "link" }

// ProtoMessage implements proto.Message.
func (m *LinkEvent) ProtoMessage() {}

// Reset implements proto.Message.
func (m *LinkEvent) Reset() { *m = LinkEvent{} }

// String implements proto.Message.
func (m *LinkEvent) String() string { return proto.CompactTextString(m) }

// Channels are the 16 channel values in microseconds.
type Channels struct {
	Values []int32 `protobuf:"varint,1,rep,packed,name=values,proto3" json:"values"`
}

// NewMessage implements SerializableMessage.
func (m *Channels) NewMessage() fx.Message { return &Channels{} }

// TypeID implements SerializableMessage.
func (m *Channels) TypeID() uint32 { return ChannelsTypeID }

// Kind implements SerializableMessage.
func (m *Channels) Kind() string { return "channels" }

// ProtoMessage implements proto.Message.
func (m *Channels) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Channels) Reset() { *m = Channels{} }

// String implements proto.Message.
func (m *Channels) String() string { return proto.CompactTextString(m) }

// FromSample converts a decoded sample. It returns nil for samples
// without a message, e.g. unknown frame types.
func FromSample(sample crsf.Sample) SerializableMessage {
	switch s := sample.(type) {
	case *crsf.GPS:
		return &GPS{
			Latitude:   s.LatitudeDeg(),
			Longitude:  s.LongitudeDeg(),
			SpeedKmh:   s.SpeedKmh(),
			Heading:    s.HeadingDeg(),
			Altitude:   int32(s.AltitudeM()),
			Satellites: uint32(s.Satellites),
		}
	case *crsf.Attitude:
		return &Attitude{Pitch: s.Pitch, Roll: s.Roll, Yaw: s.Yaw}
	case *crsf.Battery:
		return &Battery{
			Voltage:   s.Voltage,
			Current:   uint32(s.Current),
			Capacity:  s.Capacity,
			Remaining: uint32(s.Remaining),
		}
	case *crsf.FlightMode:
		return &FlightMode{Mode: s.Mode}
	case *crsf.LinkStatistics:
		return &LinkStats{
			UplinkRssi1:         uint32(s.UplinkRSSI1()),
			UplinkRssi2:         uint32(s.UplinkRSSI2()),
			UplinkLinkQuality:   uint32(s.UplinkLinkQuality()),
			UplinkSnr:           int32(s.UplinkSNR()),
			ActiveAntenna:       uint32(s.ActiveAntenna()),
			RfMode:              uint32(s.RFMode()),
			UplinkTxPower:       uint32(s.UplinkTxPower()),
			DownlinkRssi:        uint32(s.DownlinkRSSI()),
			DownlinkLinkQuality: uint32(s.DownlinkLinkQuality()),
			DownlinkSnr:         int32(s.DownlinkSNR()),
		}
	case crsf.RawChannels:
		return FromChannels(s.Micros())
	}
	return nil
}

// FromChannels converts channel values.
func FromChannels(ch crsf.Channels) *Channels {
	m := &Channels{Values: make([]int32, len(ch))}
	for n, v := range ch {
		m.Values[n] = int32(v)
	}
	return m
}

// FromEvent converts an engine event. It returns nil when the event
// carries nothing to publish.
func FromEvent(ev crsf.Event) SerializableMessage {
	switch ev.Kind {
	case crsf.EventFrame:
		return FromSample(ev.Sample)
	case crsf.EventLinkUp, crsf.EventLinkDown:
		return &LinkEvent{
			Up:          ev.Link.Up,
			Event:       ev.Kind.String(),
			LastReceive: ev.Link.LastReceive.UnixNano(),
		}
	}
	return nil
}
