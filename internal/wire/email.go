package wire

import (
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type EmailData struct {
	Email string
	Name  string
}

func (m *EmailData) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Email)
	return appendString(b, 2, m.Name)
}

func (m *EmailData) UnmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := consumeString(typ, b)
			m.Email = v
			return n, nil
		case 2:
			v, n := consumeString(typ, b)
			m.Name = v
			return n, nil
		}
		return skip(num, typ, b)
	})
}

type AttachmentData struct {
	ContentURL string
	Filename   string
	Type       string
}

func (m *AttachmentData) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.ContentURL)
	b = appendString(b, 2, m.Filename)
	return appendString(b, 3, m.Type)
}

func (m *AttachmentData) UnmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := consumeString(typ, b)
			m.ContentURL = v
			return n, nil
		case 2:
			v, n := consumeString(typ, b)
			m.Filename = v
			return n, nil
		case 3:
			v, n := consumeString(typ, b)
			m.Type = v
			return n, nil
		}
		return skip(num, typ, b)
	})
}

type AdditionalInfos struct {
	Attachments []*AttachmentData
	Category    string
	SendAt      *timestamppb.Timestamp
}

func (m *AdditionalInfos) AppendWire(b []byte) []byte {
	b = appendRepeated(b, 1, m.Attachments)
	b = appendString(b, 2, m.Category)
	return appendTimestamp(b, 3, m.SendAt)
}

func (m *AdditionalInfos) UnmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeMessage[AttachmentData](typ, b)
			if v != nil {
				m.Attachments = append(m.Attachments, v)
			}
			return n, err
		case 2:
			v, n := consumeString(typ, b)
			m.Category = v
			return n, nil
		case 3:
			v, n, err := consumeTimestamp(typ, b)
			m.SendAt = v
			return n, err
		}
		return skip(num, typ, b)
	})
}

// MailContentType selects how a v1 MailContent value is interpreted.
type MailContentType int32

const (
	MailContentHTML MailContentType = 0
	MailContentText MailContentType = 1
)

func (t MailContentType) String() string {
	switch t {
	case MailContentHTML:
		return "HTML"
	case MailContentText:
		return "TEXT"
	default:
		return "UNKNOWN"
	}
}

// MailContent is the v1 single-body content record.
type MailContent struct {
	Value    string
	Type     MailContentType
	Tracking bool
}

func (m *MailContent) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Value)
	b = appendVarint(b, 2, uint64(m.Type))
	return appendBool(b, 3, m.Tracking)
}

func (m *MailContent) UnmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := consumeString(typ, b)
			m.Value = v
			return n, nil
		case 2:
			v, n := consumeVarint(typ, b)
			m.Type = MailContentType(v)
			return n, nil
		case 3:
			v, n := consumeVarint(typ, b)
			m.Tracking = protowire.DecodeBool(v)
			return n, nil
		}
		return skip(num, typ, b)
	})
}

// MailData is the v1 SendEmail request.
type MailData struct {
	From            *EmailData
	To              []*EmailData
	Cc              []*EmailData
	Bcc             []*EmailData
	Subject         string
	Content         *MailContent
	ReplyTo         *EmailData
	Substitutions   map[string]string
	AdditionalInfos *AdditionalInfos
}

func (m *MailData) AppendWire(b []byte) []byte {
	b = appendMessage(b, 1, m.From)
	b = appendRepeated(b, 2, m.To)
	b = appendRepeated(b, 3, m.Cc)
	b = appendRepeated(b, 4, m.Bcc)
	b = appendString(b, 5, m.Subject)
	b = appendMessage(b, 6, m.Content)
	b = appendMessage(b, 7, m.ReplyTo)
	b = appendStringMap(b, 8, m.Substitutions)
	return appendMessage(b, 9, m.AdditionalInfos)
}

func (m *MailData) UnmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeMessage[EmailData](typ, b)
			m.From = v
			return n, err
		case 2, 3, 4:
			v, n, err := consumeMessage[EmailData](typ, b)
			if v != nil {
				switch num {
				case 2:
					m.To = append(m.To, v)
				case 3:
					m.Cc = append(m.Cc, v)
				default:
					m.Bcc = append(m.Bcc, v)
				}
			}
			return n, err
		case 5:
			v, n := consumeString(typ, b)
			m.Subject = v
			return n, nil
		case 6:
			v, n, err := consumeMessage[MailContent](typ, b)
			m.Content = v
			return n, err
		case 7:
			v, n, err := consumeMessage[EmailData](typ, b)
			m.ReplyTo = v
			return n, err
		case 8:
			return consumeMapEntry(typ, b, &m.Substitutions)
		case 9:
			v, n, err := consumeMessage[AdditionalInfos](typ, b)
			m.AdditionalInfos = v
			return n, err
		}
		return skip(num, typ, b)
	})
}

// TextContent is the v2 body record with separate HTML and plain text parts.
type TextContent struct {
	HTML     string
	Text     string
	Tracking bool
}

func (m *TextContent) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.HTML)
	b = appendString(b, 2, m.Text)
	return appendBool(b, 3, m.Tracking)
}

func (m *TextContent) UnmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := consumeString(typ, b)
			m.HTML = v
			return n, nil
		case 2:
			v, n := consumeString(typ, b)
			m.Text = v
			return n, nil
		case 3:
			v, n := consumeVarint(typ, b)
			m.Tracking = protowire.DecodeBool(v)
			return n, nil
		}
		return skip(num, typ, b)
	})
}

// InlineImage is an image embedded in a v2 HTML body and referenced as cid:ContentID.
type InlineImage struct {
	ContentID string
	Type      string
	Data      []byte
}

func (m *InlineImage) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.ContentID)
	b = appendString(b, 2, m.Type)
	return appendBytes(b, 3, m.Data)
}

func (m *InlineImage) UnmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := consumeString(typ, b)
			m.ContentID = v
			return n, nil
		case 2:
			v, n := consumeString(typ, b)
			m.Type = v
			return n, nil
		case 3:
			if typ != protowire.BytesType {
				return -1, nil
			}
			v, n := protowire.ConsumeBytes(b)
			m.Data = append([]byte(nil), v...)
			return n, nil
		}
		return skip(num, typ, b)
	})
}

// SendMailRequest is the v2 SendEmail request.
type SendMailRequest struct {
	From            *EmailData
	To              []*EmailData
	Cc              []*EmailData
	Bcc             []*EmailData
	Subject         string
	ReplyTo         *EmailData
	Body            *TextContent
	Substitutions   map[string]string
	AdditionalInfos *AdditionalInfos
	Images          []*InlineImage
}

func (m *SendMailRequest) AppendWire(b []byte) []byte {
	b = appendMessage(b, 1, m.From)
	b = appendRepeated(b, 2, m.To)
	b = appendRepeated(b, 3, m.Cc)
	b = appendRepeated(b, 4, m.Bcc)
	b = appendString(b, 5, m.Subject)
	b = appendMessage(b, 6, m.ReplyTo)
	b = appendMessage(b, 7, m.Body)
	b = appendStringMap(b, 8, m.Substitutions)
	b = appendMessage(b, 9, m.AdditionalInfos)
	return appendRepeated(b, 10, m.Images)
}

func (m *SendMailRequest) UnmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeMessage[EmailData](typ, b)
			m.From = v
			return n, err
		case 2, 3, 4:
			v, n, err := consumeMessage[EmailData](typ, b)
			if v != nil {
				switch num {
				case 2:
					m.To = append(m.To, v)
				case 3:
					m.Cc = append(m.Cc, v)
				default:
					m.Bcc = append(m.Bcc, v)
				}
			}
			return n, err
		case 5:
			v, n := consumeString(typ, b)
			m.Subject = v
			return n, nil
		case 6:
			v, n, err := consumeMessage[EmailData](typ, b)
			m.ReplyTo = v
			return n, err
		case 7:
			v, n, err := consumeMessage[TextContent](typ, b)
			m.Body = v
			return n, err
		case 8:
			return consumeMapEntry(typ, b, &m.Substitutions)
		case 9:
			v, n, err := consumeMessage[AdditionalInfos](typ, b)
			m.AdditionalInfos = v
			return n, err
		case 10:
			v, n, err := consumeMessage[InlineImage](typ, b)
			if v != nil {
				m.Images = append(m.Images, v)
			}
			return n, err
		}
		return skip(num, typ, b)
	})
}

// EmlMail carries a complete RFC 5322 message.
type EmlMail struct {
	Mail            []byte
	AdditionalInfos *AdditionalInfos
}

func (m *EmlMail) AppendWire(b []byte) []byte {
	b = appendBytes(b, 1, m.Mail)
	return appendMessage(b, 2, m.AdditionalInfos)
}

func (m *EmlMail) UnmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			if typ != protowire.BytesType {
				return -1, nil
			}
			v, n := protowire.ConsumeBytes(b)
			m.Mail = append([]byte(nil), v...)
			return n, nil
		case 2:
			v, n, err := consumeMessage[AdditionalInfos](typ, b)
			m.AdditionalInfos = v
			return n, err
		}
		return skip(num, typ, b)
	})
}

// GroupMailData is the v1 SendGroupEmail request.
type GroupMailData struct {
	From     *EmailData
	GroupID  string
	Subject  string
	Content  *MailContent
	Category string
}

func (m *GroupMailData) AppendWire(b []byte) []byte {
	b = appendMessage(b, 1, m.From)
	b = appendString(b, 2, m.GroupID)
	b = appendString(b, 3, m.Subject)
	b = appendMessage(b, 4, m.Content)
	return appendString(b, 5, m.Category)
}

func (m *GroupMailData) UnmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeMessage[EmailData](typ, b)
			m.From = v
			return n, err
		case 2:
			v, n := consumeString(typ, b)
			m.GroupID = v
			return n, nil
		case 3:
			v, n := consumeString(typ, b)
			m.Subject = v
			return n, nil
		case 4:
			v, n, err := consumeMessage[MailContent](typ, b)
			m.Content = v
			return n, err
		case 5:
			v, n := consumeString(typ, b)
			m.Category = v
			return n, nil
		}
		return skip(num, typ, b)
	})
}

// GroupMailRequest is the v2 SendGroupEmail request.
type GroupMailRequest struct {
	From     *EmailData
	GroupID  string
	Subject  string
	Body     *TextContent
	Category string
	Images   []*InlineImage
}

func (m *GroupMailRequest) AppendWire(b []byte) []byte {
	b = appendMessage(b, 1, m.From)
	b = appendString(b, 2, m.GroupID)
	b = appendString(b, 3, m.Subject)
	b = appendMessage(b, 4, m.Body)
	b = appendString(b, 5, m.Category)
	return appendRepeated(b, 6, m.Images)
}

func (m *GroupMailRequest) UnmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeMessage[EmailData](typ, b)
			m.From = v
			return n, err
		case 2:
			v, n := consumeString(typ, b)
			m.GroupID = v
			return n, nil
		case 3:
			v, n := consumeString(typ, b)
			m.Subject = v
			return n, nil
		case 4:
			v, n, err := consumeMessage[TextContent](typ, b)
			m.Body = v
			return n, err
		case 5:
			v, n := consumeString(typ, b)
			m.Category = v
			return n, nil
		case 6:
			v, n, err := consumeMessage[InlineImage](typ, b)
			if v != nil {
				m.Images = append(m.Images, v)
			}
			return n, err
		}
		return skip(num, typ, b)
	})
}

// SendEmailResponse is shared by SendEmail, SendEmlEmail and SendGroupEmail.
type SendEmailResponse struct {
	Message    []string
	EmailsLeft int64
}

func (m *SendEmailResponse) AppendWire(b []byte) []byte {
	b = appendRepeatedString(b, 1, m.Message)
	return appendVarint(b, 2, uint64(m.EmailsLeft))
}

func (m *SendEmailResponse) UnmarshalWire(b []byte) error {
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n := consumeString(typ, b)
			if n >= 0 {
				m.Message = append(m.Message, v)
			}
			return n, nil
		case 2:
			v, n := consumeVarint(typ, b)
			m.EmailsLeft = int64(v)
			return n, nil
		}
		return skip(num, typ, b)
	})
}
