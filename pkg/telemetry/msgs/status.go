package msgs

import (
	"time"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/crsf.go/pkg/crsf"
	fx "github.com/robotalks/crsf.go/pkg/framework"
)

// StatusTypeID is the TypeID of Status.
const StatusTypeID uint32 = GroupTelemetry | 0x0100

// Status describes a link engine at one moment.
type Status struct {
	Source      string `protobuf:"bytes,1,opt,name=source,proto3" json:"source"`
	Active      bool   `protobuf:"varint,2,opt,name=active,proto3" json:"active"`
	Up          bool   `protobuf:"varint,3,opt,name=up,proto3" json:"up"`
	Passthrough bool   `protobuf:"varint,4,opt,name=passthrough,proto3" json:"passthrough"`
	// LastReceive and LastChannels are unix time in nanoseconds, 0 if never.
	LastReceive  int64  `protobuf:"varint,5,opt,name=last_receive,proto3" json:"last_receive"`
	LastChannels int64  `protobuf:"varint,6,opt,name=last_channels,proto3" json:"last_channels"`
	Frames       uint64 `protobuf:"varint,7,opt,name=frames,proto3" json:"frames"`
	Resyncs      uint64 `protobuf:"varint,8,opt,name=resyncs,proto3" json:"resyncs"`
	CrcErrors    uint64 `protobuf:"varint,9,opt,name=crc_errors,proto3" json:"crc_errors"`
	Overflows    uint64 `protobuf:"varint,10,opt,name=overflows,proto3" json:"overflows"`
	Flushed      uint64 `protobuf:"varint,11,opt,name=flushed,proto3" json:"flushed"`
}

// NewMessage implements SerializableMessage.
func (m *Status) NewMessage() fx.Message { return &Status{} }

// TypeID implements SerializableMessage.
func (m *Status) TypeID() uint32 { return StatusTypeID }

// Kind implements SerializableMessage.
func (m *Status) Kind() string { return "status" }

// ProtoMessage implements proto.Message.
func (m *Status) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Status) Reset() { *m = Status{} }

// String implements proto.Message.
func (m *Status) String() string { return proto.CompactTextString(m) }

// StatusOf reads the status of an engine.
func StatusOf(source string, active bool, e *crsf.Engine) *Status {
	link, stats := e.Link(), e.Stats()
	return &Status{
		Source:       source,
		Active:       active,
		Up:           link.Up,
		Passthrough:  e.Passthrough(),
		LastReceive:  unixNano(link.LastReceive),
		LastChannels: unixNano(link.LastChannels),
		Frames:       stats.Frames,
		Resyncs:      stats.Resyncs,
		CrcErrors:    stats.CrcErrors,
		Overflows:    stats.Overflows,
		Flushed:      stats.Flushed,
	}
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}
