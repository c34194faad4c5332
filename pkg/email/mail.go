package email

import (
	"time"

	"github.com/samber/lo"

	"github.com/sendlix/sendlix-go/internal/wire"
)

// Address is a mailbox with an optional display name.
type Address struct {
	Email string
	Name  string
}

// Addr wraps a bare address.
func Addr(email string) Address {
	return Address{Email: email}
}

// Addrs wraps several bare addresses.
func Addrs(emails ...string) []Address {
	return lo.Map(emails, func(e string, _ int) Address {
		return Addr(e)
	})
}

// Mail is a single message to one or more recipients. At least one of HTML
// and Text must be set.
type Mail struct {
	From    Address
	To      []Address
	Cc      []Address
	Bcc     []Address
	ReplyTo *Address
	Subject string

	HTML string
	Text string
	// Tracking enables open and click tracking. It needs an HTML body.
	Tracking bool

	Substitutions map[string]string
	// InlineImages are embedded by content id. Schema v2 only.
	InlineImages []InlineImage
}

// InlineImage is referenced from the HTML body as cid:ContentID.
type InlineImage struct {
	ContentID   string
	ContentType string
	Data        []byte
}

// GroupMail is sent to every member of a group.
type GroupMail struct {
	From     Address
	GroupID  string
	Subject  string
	HTML     string
	Text     string
	Tracking bool
	Category string

	InlineImages []InlineImage
}

// Attachment is fetched by the API from ContentURL.
type Attachment struct {
	ContentURL  string
	Filename    string
	ContentType string
}

// SendResult is returned by Send and SendEML. EmailsLeft is only reported by
// servers speaking schema v1 and is zero otherwise.
type SendResult struct {
	MessageIDs []string
	EmailsLeft int64
}

type sendOptions struct {
	attachments []Attachment
	category    string
	sendAt      time.Time
}

// SendOption adds delivery metadata to Send and SendEML.
type SendOption func(*sendOptions)

func WithAttachments(attachments ...Attachment) SendOption {
	return func(o *sendOptions) { o.attachments = append(o.attachments, attachments...) }
}

func WithCategory(category string) SendOption {
	return func(o *sendOptions) { o.category = category }
}

// WithSendAt schedules delivery. Sub-second precision is dropped.
func WithSendAt(t time.Time) SendOption {
	return func(o *sendOptions) { o.sendAt = t }
}

func (o *sendOptions) additionalInfos() *wire.AdditionalInfos {
	if len(o.attachments) == 0 && o.category == "" && o.sendAt.IsZero() {
		return nil
	}

	infos := &wire.AdditionalInfos{Category: o.category}
	if len(o.attachments) > 0 {
		infos.Attachments = lo.Map(o.attachments, func(a Attachment, _ int) *wire.AttachmentData {
			return &wire.AttachmentData{ContentURL: a.ContentURL, Filename: a.Filename, Type: a.ContentType}
		})
	}
	if !o.sendAt.IsZero() {
		infos.SendAt = timestamp(o.sendAt)
	}
	return infos
}
