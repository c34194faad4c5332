package email

import (
	"context"

	"github.com/sendlix/sendlix-go/internal/wire"
	"github.com/sendlix/sendlix-go/pkg/eml"
	sdkerrors "github.com/sendlix/sendlix-go/pkg/errors"
)

// Send validates m, then sends it in one call. Validation failures are
// returned before any network I/O, including the token exchange.
func (c *Client) Send(ctx context.Context, m Mail, opts ...SendOption) (*SendResult, error) {
	if err := validateMail(c.validate, &m); err != nil {
		return nil, err
	}

	var so sendOptions
	for _, opt := range opts {
		opt(&so)
	}

	var req wire.Message
	switch c.schema {
	case SchemaV1:
		v1, err := buildMailV1(&m, &so)
		if err != nil {
			return nil, err
		}
		req = v1
	default:
		req = buildMailV2(&m, &so)
	}

	resp := &wire.SendEmailResponse{}
	if err := c.Invoke(ctx, wire.MethodSendEmail, req, resp); err != nil {
		return nil, err
	}

	c.Logger.DebugContext(ctx, "email sent", "schema", c.schema.String(), "recipients", len(m.To)+len(m.Cc)+len(m.Bcc), "messages", len(resp.Message))
	return result(resp), nil
}

// SendEML sends a pre-built RFC 5322 message. The source is read before
// the call; read failures are returned as is.
func (c *Client) SendEML(ctx context.Context, src eml.Source, opts ...SendOption) (*SendResult, error) {
	if src == nil {
		return nil, sdkerrors.Field("eml", sdkerrors.ErrMissingRequiredField)
	}

	raw, err := src.Bytes(ctx)
	if err != nil {
		return nil, err
	}

	var so sendOptions
	for _, opt := range opts {
		opt(&so)
	}

	req := &wire.EmlMail{Mail: raw, AdditionalInfos: so.additionalInfos()}
	resp := &wire.SendEmailResponse{}
	if err := c.Invoke(ctx, wire.MethodSendEmlEmail, req, resp); err != nil {
		return nil, err
	}

	c.Logger.DebugContext(ctx, "eml sent", "size", len(raw), "messages", len(resp.Message))
	return result(resp), nil
}

// SendGroup mails every member of a group and returns the remaining credit
// count reported by the server.
func (c *Client) SendGroup(ctx context.Context, m GroupMail) (int64, error) {
	if err := validateGroupMail(c.validate, &m); err != nil {
		return 0, err
	}

	var req wire.Message
	switch c.schema {
	case SchemaV1:
		v1, err := buildGroupMailV1(&m)
		if err != nil {
			return 0, err
		}
		req = v1
	default:
		req = buildGroupMailV2(&m)
	}

	resp := &wire.SendEmailResponse{}
	if err := c.Invoke(ctx, wire.MethodSendGroupEmail, req, resp); err != nil {
		return 0, err
	}

	c.Logger.DebugContext(ctx, "group email sent", "group_id", m.GroupID, "emails_left", resp.EmailsLeft)
	return resp.EmailsLeft, nil
}

func result(resp *wire.SendEmailResponse) *SendResult {
	ids := resp.Message
	if ids == nil {
		ids = []string{}
	}
	return &SendResult{MessageIDs: ids, EmailsLeft: resp.EmailsLeft}
}
