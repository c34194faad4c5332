package wire

import (
	"fmt"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/proto"
)

// Name is the content-subtype the codec registers under; it matches the
// standard protobuf codec so servers see application/grpc+proto.
const Name = "proto"

// Codec is a grpc encoding.Codec for wire records. Generated protobuf
// messages are passed through to the protobuf runtime.
type Codec struct{}

var _ encoding.Codec = Codec{}

func (Codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case Message:
		return m.AppendWire(nil), nil
	case proto.Message:
		return proto.Marshal(m)
	default:
		return nil, fmt.Errorf("wire: cannot marshal %T", v)
	}
}

func (Codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case Message:
		return m.UnmarshalWire(data)
	case proto.Message:
		return proto.Unmarshal(data, m)
	default:
		return fmt.Errorf("wire: cannot unmarshal into %T", v)
	}
}

func (Codec) Name() string {
	return Name
}
