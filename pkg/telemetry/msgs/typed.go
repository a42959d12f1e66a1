package msgs

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang/protobuf/jsonpb"
	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/crsf.go/pkg/framework"
)

// TypeID masks
const (
	TypeIDMaskKind  uint32 = 0x80000000
	TypeIDMaskGroup uint32 = 0x7fff0000
	TypeIDMaskID    uint32 = 0x0000ffff
)

// TypeIDKindEvent marks messages describing something that happened.
const TypeIDKindEvent uint32 = 0x80000000

// GroupTelemetry is the group of all messages in this package.
const GroupTelemetry uint32 = 0x00010000

// ErrUnknownType indicates unknown type id.
type ErrUnknownType struct {
	TypeID uint32
}

// Error implements error.
func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown type: %x", e.TypeID)
}

// ErrNotSerializable indicates the message is not serializable.
var ErrNotSerializable = errors.New("not serializable message")

// SerializableMessage can be serialized over the wire.
type SerializableMessage interface {
	proto.Message
	NewMessage() fx.Message
	TypeID() uint32
	// Kind names the message in topics and tables.
	Kind() string
}

// MessageTypes are predefined mapping of type ID to messages.
var MessageTypes = map[uint32]SerializableMessage{
	GPSTypeID:        (*GPS)(nil),
	AttitudeTypeID:   (*Attitude)(nil),
	BatteryTypeID:    (*Battery)(nil),
	FlightModeTypeID: (*FlightMode)(nil),
	LinkStatsTypeID:  (*LinkStats)(nil),
	LinkEventTypeID:  (*LinkEvent)(nil),
	ChannelsTypeID:   (*Channels)(nil),
	StatusTypeID:     (*Status)(nil),
}

// KindOf finds the message type by kind name.
func KindOf(kind string) (SerializableMessage, bool) {
	for _, msgType := range MessageTypes {
		if msgType.Kind() == kind {
			return msgType, true
		}
	}
	return nil, false
}

// Typed wraps a message with type information.
type Typed struct {
	TypeId  uint32 `protobuf:"varint,1,opt,name=type_id,proto3" json:"type_id,omitempty"`
	Message []byte `protobuf:"bytes,2,opt,name=message,proto3" json:"message,omitempty"`
	Source  string `protobuf:"bytes,3,opt,name=source,proto3" json:"source,omitempty"`
	// Time is unix time in nanoseconds.
	Time int64 `protobuf:"varint,4,opt,name=time,proto3" json:"time,omitempty"`
}

// ProtoMessage implements proto.Message.
func (p *Typed) ProtoMessage() {}

// Reset implements proto.Message.
func (p *Typed) Reset() { *p = Typed{} }

// String implements proto.Message.
func (p *Typed) String() string { return proto.CompactTextString(p) }

// TypedFrom creates a Typed from a serializable message.
func TypedFrom(msg fx.Message, source string, at time.Time) (*Typed, error) {
	s, ok := msg.(SerializableMessage)
	if !ok {
		return nil, ErrNotSerializable
	}
	data, err := proto.Marshal(s)
	if err != nil {
		return nil, err
	}
	return &Typed{TypeId: s.TypeID(), Message: data, Source: source, Time: at.UnixNano()}, nil
}

// Decode decodes the envelope into actual message.
func (p *Typed) Decode() (SerializableMessage, error) {
	msgType, ok := MessageTypes[p.TypeId]
	if !ok {
		return nil, &ErrUnknownType{TypeID: p.TypeId}
	}
	msg := msgType.NewMessage().(SerializableMessage)
	if err := proto.Unmarshal(p.Message, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Timestamp converts Time.
func (p *Typed) Timestamp() time.Time {
	return time.Unix(0, p.Time)
}

// Encode encodes the Typed to bytes.
func (p *Typed) Encode() ([]byte, error) {
	return proto.Marshal(p)
}

// DecodeTyped decodes bytes into Typed.
func DecodeTyped(data []byte) (*Typed, error) {
	var typed Typed
	if err := proto.Unmarshal(data, &typed); err != nil {
		return nil, err
	}
	return &typed, nil
}

var jsonMarshaler = jsonpb.Marshaler{OrigName: true, EmitDefaults: true}

// EncodeJSON encodes a message as JSON using protobuf field names.
func EncodeJSON(msg SerializableMessage) ([]byte, error) {
	str, err := jsonMarshaler.MarshalToString(msg)
	return []byte(str), err
}

// DecodeJSON decodes JSON of the message kind.
func DecodeJSON(kind string, data []byte) (SerializableMessage, error) {
	msgType, ok := KindOf(kind)
	if !ok {
		return nil, fmt.Errorf("unknown message kind %q", kind)
	}
	msg := msgType.NewMessage().(SerializableMessage)
	if err := jsonpb.UnmarshalString(string(data), msg); err != nil {
		return nil, err
	}
	return msg, nil
}
