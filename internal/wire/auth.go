package wire

import (
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type APIKey struct {
	Secret string
	KeyID  int64
}

func (m *APIKey) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Secret)
	return appendVarint(b, 2, uint64(m.KeyID))
}

func (m *APIKey) UnmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := consumeString(typ, b)
			m.Secret = v
			return n, nil
		case 2:
			v, n := consumeVarint(typ, b)
			m.KeyID = int64(v)
			return n, nil
		}
		return skip(num, typ, b)
	})
}

type AuthRequest struct {
	APIKey *APIKey
}

func (m *AuthRequest) AppendWire(b []byte) []byte {
	return appendMessage(b, 1, m.APIKey)
}

func (m *AuthRequest) UnmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			v, n, err := consumeMessage[APIKey](typ, b)
			m.APIKey = v
			return n, err
		}
		return skip(num, typ, b)
	})
}

// AuthResponse carries the issued bearer token. Expires holds the lifetime in
// seconds counted from issuance, not an absolute instant.
type AuthResponse struct {
	Token   string
	Expires *timestamppb.Timestamp
}

func (m *AuthResponse) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Token)
	return appendTimestamp(b, 2, m.Expires)
}

func (m *AuthResponse) UnmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := consumeString(typ, b)
			m.Token = v
			return n, nil
		case 2:
			v, n, err := consumeTimestamp(typ, b)
			m.Expires = v
			return n, err
		}
		return skip(num, typ, b)
	})
}
