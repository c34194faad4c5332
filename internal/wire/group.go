package wire

import "google.golang.org/protobuf/encoding/protowire"

// FailureHandling tells the server what to do with entries it cannot insert.
type FailureHandling int32

const (
	FailureHandlingDefault FailureHandling = 0
	FailureHandlingAbort   FailureHandling = 1
	FailureHandlingSkip    FailureHandling = 2
)

// GroupEntry is one recipient of an insert batch with its own substitutions.
type GroupEntry struct {
	Email         *EmailData
	Substitutions map[string]string
}

func (m *GroupEntry) AppendWire(b []byte) []byte {
	b = appendMessage(b, 1, m.Email)
	return appendStringMap(b, 2, m.Substitutions)
}

func (m *GroupEntry) UnmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeMessage[EmailData](typ, b)
			m.Email = v
			return n, err
		case 2:
			return consumeMapEntry(typ, b, &m.Substitutions)
		}
		return skip(num, typ, b)
	})
}

type InsertEmailToGroupRequest struct {
	GroupID         string
	Entries         []*GroupEntry
	FailureHandling FailureHandling
}

func (m *InsertEmailToGroupRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.GroupID)
	b = appendRepeated(b, 2, m.Entries)
	return appendVarint(b, 3, uint64(m.FailureHandling))
}

func (m *InsertEmailToGroupRequest) UnmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := consumeString(typ, b)
			m.GroupID = v
			return n, nil
		case 2:
			v, n, err := consumeMessage[GroupEntry](typ, b)
			if v != nil {
				m.Entries = append(m.Entries, v)
			}
			return n, err
		case 3:
			v, n := consumeVarint(typ, b)
			m.FailureHandling = FailureHandling(v)
			return n, nil
		}
		return skip(num, typ, b)
	})
}

// GroupEmailRequest addresses a single member of a group. It is the request
// for both RemoveEmailFromGroup and CheckEmailInGroup.
type GroupEmailRequest struct {
	GroupID string
	Email   string
}

func (m *GroupEmailRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.GroupID)
	return appendString(b, 2, m.Email)
}

func (m *GroupEmailRequest) UnmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := consumeString(typ, b)
			m.GroupID = v
			return n, nil
		case 2:
			v, n := consumeString(typ, b)
			m.Email = v
			return n, nil
		}
		return skip(num, typ, b)
	})
}

type UpdateResponse struct {
	Success bool
	Message string
}

func (m *UpdateResponse) AppendWire(b []byte) []byte {
	b = appendBool(b, 1, m.Success)
	return appendString(b, 2, m.Message)
}

func (m *UpdateResponse) UnmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := consumeVarint(typ, b)
			m.Success = protowire.DecodeBool(v)
			return n, nil
		case 2:
			v, n := consumeString(typ, b)
			m.Message = v
			return n, nil
		}
		return skip(num, typ, b)
	})
}

type CheckEmailInGroupResponse struct {
	Exists bool
}

func (m *CheckEmailInGroupResponse) AppendWire(b []byte) []byte {
	return appendBool(b, 1, m.Exists)
}

func (m *CheckEmailInGroupResponse) UnmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			v, n := consumeVarint(typ, b)
			m.Exists = protowire.DecodeBool(v)
			return n, nil
		}
		return skip(num, typ, b)
	})
}
