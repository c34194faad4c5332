// Package wire holds the Sendlix request and response records and their
// protobuf wire encoding. Field numbers mirror the sendlix.api.v1 schema.
package wire

import (
	"maps"
	"slices"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Message is a record that can be written to and read from protobuf wire format.
type Message interface {
	AppendWire(b []byte) []byte
	UnmarshalWire(b []byte) error
}

// Marshal encodes m into a fresh buffer.
func Marshal(m Message) []byte {
	return m.AppendWire(nil)
}

type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

// consumeFields walks every field in b, handing each to fn. Fields fn does not
// recognise must be skipped with protowire.ConsumeFieldValue.
func consumeFields(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		n, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
	}
	return nil
}

func skip(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	return protowire.ConsumeFieldValue(num, typ, b), nil
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	return appendVarint(b, num, protowire.EncodeBool(v))
}

func appendMessage[T any, P interface {
	*T
	Message
}](b []byte, num protowire.Number, m P) []byte {
	if m == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m.AppendWire(nil))
}

func appendRepeated[T any, P interface {
	*T
	Message
}](b []byte, num protowire.Number, list []P) []byte {
	for _, m := range list {
		if m == nil {
			// Repeated message entries are always written, even when empty.
			m = P(new(T))
		}
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendBytes(b, m.AppendWire(nil))
	}
	return b
}

func appendRepeatedString(b []byte, num protowire.Number, list []string) []byte {
	for _, s := range list {
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendString(b, s)
	}
	return b
}

// appendStringMap writes a map<string,string> in sorted key order so output
// is deterministic.
func appendStringMap(b []byte, num protowire.Number, m map[string]string) []byte {
	for _, k := range slices.Sorted(maps.Keys(m)) {
		var entry []byte
		entry = appendString(entry, 1, k)
		entry = appendString(entry, 2, m[k])
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}
	return b
}

func appendTimestamp(b []byte, num protowire.Number, ts *timestamppb.Timestamp) []byte {
	if ts == nil {
		return b
	}
	var inner []byte
	inner = appendVarint(inner, 1, uint64(ts.GetSeconds()))
	inner = appendVarint(inner, 2, uint64(int64(ts.GetNanos())))
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, inner)
}

func consumeString(typ protowire.Type, b []byte) (string, int) {
	if typ != protowire.BytesType {
		return "", -1
	}
	return protowire.ConsumeString(b)
}

func consumeVarint(typ protowire.Type, b []byte) (uint64, int) {
	if typ != protowire.VarintType {
		return 0, -1
	}
	return protowire.ConsumeVarint(b)
}

func consumeMessage[T any, P interface {
	*T
	Message
}](typ protowire.Type, b []byte) (P, int, error) {
	if typ != protowire.BytesType {
		return nil, -1, nil
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, n, nil
	}
	m := P(new(T))
	if err := m.UnmarshalWire(v); err != nil {
		return nil, n, err
	}
	return m, n, nil
}

func consumeMapEntry(typ protowire.Type, b []byte, into *map[string]string) (int, error) {
	if typ != protowire.BytesType {
		return -1, nil
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return n, nil
	}

	var key, value string
	err := consumeFields(v, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			s, n := consumeString(typ, b)
			key = s
			return n, nil
		case 2:
			s, n := consumeString(typ, b)
			value = s
			return n, nil
		}
		return skip(num, typ, b)
	})
	if err != nil {
		return n, err
	}

	if *into == nil {
		*into = make(map[string]string)
	}
	(*into)[key] = value
	return n, nil
}

func consumeTimestamp(typ protowire.Type, b []byte) (*timestamppb.Timestamp, int, error) {
	if typ != protowire.BytesType {
		return nil, -1, nil
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, n, nil
	}

	ts := &timestamppb.Timestamp{}
	err := consumeFields(v, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			x, n := consumeVarint(typ, b)
			ts.Seconds = int64(x)
			return n, nil
		case 2:
			x, n := consumeVarint(typ, b)
			ts.Nanos = int32(x)
			return n, nil
		}
		return skip(num, typ, b)
	})
	return ts, n, err
}
