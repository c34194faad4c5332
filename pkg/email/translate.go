package email

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/sendlix/sendlix-go/internal/wire"
	sdkerrors "github.com/sendlix/sendlix-go/pkg/errors"
	"github.com/sendlix/sendlix-go/pkg/validator"
)

// validateMail checks fields in declaration order and returns the first
// failure. It never performs I/O.
func validateMail(v *validator.Validator, m *Mail) error {
	if err := validateSender(v, m.From); err != nil {
		return err
	}
	if err := v.NotEmpty("to", m.To); err != nil {
		return err
	}
	for _, list := range []struct {
		name  string
		addrs []Address
	}{{"to", m.To}, {"cc", m.Cc}, {"bcc", m.Bcc}} {
		for i, a := range list.addrs {
			if err := v.Address(fmt.Sprintf("%s[%d]", list.name, i), a.Email); err != nil {
				return err
			}
		}
	}
	if m.ReplyTo != nil {
		if err := v.Address("reply_to", m.ReplyTo.Email); err != nil {
			return err
		}
	}
	if err := v.Present("subject", m.Subject); err != nil {
		return err
	}
	return validateBody(v, m.HTML, m.Text, m.Tracking)
}

func validateGroupMail(v *validator.Validator, m *GroupMail) error {
	if err := validateSender(v, m.From); err != nil {
		return err
	}
	if err := v.Present("group_id", m.GroupID); err != nil {
		return err
	}
	if err := v.Present("subject", m.Subject); err != nil {
		return err
	}
	return validateBody(v, m.HTML, m.Text, m.Tracking)
}

func validateSender(v *validator.Validator, from Address) error {
	if err := v.Present("from", from.Email); err != nil {
		return err
	}
	return v.Address("from", from.Email)
}

func validateBody(v *validator.Validator, html, text string, tracking bool) error {
	if err := v.Present("content", html+text); err != nil {
		return err
	}
	if tracking && html == "" {
		return sdkerrors.Field("tracking", sdkerrors.ErrTrackingRequiresHTML)
	}
	return nil
}

func emailData(a Address) *wire.EmailData {
	return &wire.EmailData{Email: a.Email, Name: a.Name}
}

func emailList(addrs []Address) []*wire.EmailData {
	if len(addrs) == 0 {
		return nil
	}
	return lo.Map(addrs, func(a Address, _ int) *wire.EmailData {
		return emailData(a)
	})
}

func timestamp(t time.Time) *timestamppb.Timestamp {
	return &timestamppb.Timestamp{Seconds: t.Unix()}
}

// mailContentV1 picks the single body schema v1 can carry. HTML wins when
// both are set.
func mailContentV1(html, text string, tracking bool) *wire.MailContent {
	if html != "" {
		return &wire.MailContent{Value: html, Type: wire.MailContentHTML, Tracking: tracking}
	}
	return &wire.MailContent{Value: text, Type: wire.MailContentText, Tracking: tracking}
}

func inlineImages(images []InlineImage) []*wire.InlineImage {
	if len(images) == 0 {
		return nil
	}
	return lo.Map(images, func(img InlineImage, _ int) *wire.InlineImage {
		return &wire.InlineImage{ContentID: img.ContentID, Type: img.ContentType, Data: img.Data}
	})
}

func rejectImagesV1(images []InlineImage) error {
	if len(images) > 0 {
		return sdkerrors.Field("inline_images", fmt.Errorf("%w: inline images need schema v2", sdkerrors.ErrInvalidSchemaVersion))
	}
	return nil
}

func buildMailV1(m *Mail, o *sendOptions) (*wire.MailData, error) {
	if err := rejectImagesV1(m.InlineImages); err != nil {
		return nil, err
	}

	req := &wire.MailData{
		From:            emailData(m.From),
		To:              emailList(m.To),
		Cc:              emailList(m.Cc),
		Bcc:             emailList(m.Bcc),
		Subject:         m.Subject,
		Content:         mailContentV1(m.HTML, m.Text, m.Tracking),
		Substitutions:   m.Substitutions,
		AdditionalInfos: o.additionalInfos(),
	}
	if m.ReplyTo != nil {
		req.ReplyTo = emailData(*m.ReplyTo)
	}
	return req, nil
}

func buildMailV2(m *Mail, o *sendOptions) *wire.SendMailRequest {
	req := &wire.SendMailRequest{
		From:            emailData(m.From),
		To:              emailList(m.To),
		Cc:              emailList(m.Cc),
		Bcc:             emailList(m.Bcc),
		Subject:         m.Subject,
		Body:            &wire.TextContent{HTML: m.HTML, Text: m.Text, Tracking: m.Tracking},
		Substitutions:   m.Substitutions,
		AdditionalInfos: o.additionalInfos(),
		Images:          inlineImages(m.InlineImages),
	}
	if m.ReplyTo != nil {
		req.ReplyTo = emailData(*m.ReplyTo)
	}
	return req
}

func buildGroupMailV1(m *GroupMail) (*wire.GroupMailData, error) {
	if err := rejectImagesV1(m.InlineImages); err != nil {
		return nil, err
	}
	return &wire.GroupMailData{
		From:     emailData(m.From),
		GroupID:  m.GroupID,
		Subject:  m.Subject,
		Content:  mailContentV1(m.HTML, m.Text, m.Tracking),
		Category: m.Category,
	}, nil
}

func buildGroupMailV2(m *GroupMail) *wire.GroupMailRequest {
	return &wire.GroupMailRequest{
		From:     emailData(m.From),
		GroupID:  m.GroupID,
		Subject:  m.Subject,
		Body:     &wire.TextContent{HTML: m.HTML, Text: m.Text, Tracking: m.Tracking},
		Category: m.Category,
		Images:   inlineImages(m.InlineImages),
	}
}
