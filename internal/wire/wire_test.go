package wire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func TestAPIKeyEncoding(t *testing.T) {
	b := Marshal(&APIKey{Secret: "abc", KeyID: 1})

	want := protowire.AppendTag(nil, 1, protowire.BytesType)
	want = protowire.AppendString(want, "abc")
	want = protowire.AppendTag(want, 2, protowire.VarintType)
	want = protowire.AppendVarint(want, 1)

	assert.Equal(t, want, b)
}

func TestTimestampMatchesProtobufRuntime(t *testing.T) {
	ts := timestamppb.New(time.Unix(1700000000, 250))

	want, err := proto.Marshal(ts)
	require.NoError(t, err)

	b := Marshal(&AuthResponse{Expires: ts})
	_, _, n := protowire.ConsumeTag(b)
	inner, m := protowire.ConsumeBytes(b[n:])
	require.Positive(t, m)

	assert.Equal(t, want, inner)
}

func TestAuthRoundTrip(t *testing.T) {
	req := &AuthRequest{APIKey: &APIKey{Secret: "s3cret", KeyID: 42}}
	var gotReq AuthRequest
	require.NoError(t, gotReq.UnmarshalWire(Marshal(req)))
	assert.Equal(t, req, &gotReq)

	resp := &AuthResponse{Token: "tok1", Expires: &timestamppb.Timestamp{Seconds: 3600}}
	var gotResp AuthResponse
	require.NoError(t, gotResp.UnmarshalWire(Marshal(resp)))
	assert.Equal(t, "tok1", gotResp.Token)
	assert.Equal(t, int64(3600), gotResp.Expires.GetSeconds())
}

func TestSendMailRequestRoundTrip(t *testing.T) {
	req := &SendMailRequest{
		From:    &EmailData{Email: "sender@example.com", Name: "Sender"},
		To:      []*EmailData{{Email: "a@example.com"}, {Email: "b@example.com", Name: "B"}},
		Cc:      []*EmailData{{Email: "c@example.com"}},
		Subject: "Hello",
		ReplyTo: &EmailData{Email: "reply@example.com"},
		Body:    &TextContent{HTML: "<p>hi</p>", Text: "hi", Tracking: true},
		Substitutions: map[string]string{
			"{{name}}": "Ada",
			"{{city}}": "London",
		},
		AdditionalInfos: &AdditionalInfos{
			Attachments: []*AttachmentData{{ContentURL: "https://cdn.example.com/a.pdf", Filename: "a.pdf", Type: "application/pdf"}},
			Category:    "welcome",
			SendAt:      &timestamppb.Timestamp{Seconds: 1700000000},
		},
		Images: []*InlineImage{{ContentID: "logo", Type: "image/png", Data: []byte{0x89, 0x50}}},
	}

	var got SendMailRequest
	require.NoError(t, got.UnmarshalWire(Marshal(req)))

	assert.Equal(t, req.From, got.From)
	assert.Equal(t, req.To, got.To)
	assert.Equal(t, req.Cc, got.Cc)
	assert.Empty(t, got.Bcc)
	assert.Equal(t, req.Body, got.Body)
	assert.Equal(t, req.Substitutions, got.Substitutions)
	assert.Equal(t, req.AdditionalInfos.Attachments, got.AdditionalInfos.Attachments)
	assert.Equal(t, "welcome", got.AdditionalInfos.Category)
	assert.Equal(t, int64(1700000000), got.AdditionalInfos.SendAt.GetSeconds())
	assert.Equal(t, req.Images, got.Images)
}

func TestStringMapIsDeterministic(t *testing.T) {
	m := map[string]string{"b": "2", "a": "1", "c": "3"}
	first := Marshal(&GroupEntry{Substitutions: m})
	for range 10 {
		assert.Equal(t, first, Marshal(&GroupEntry{Substitutions: m}))
	}
}

func TestInsertRequestRoundTrip(t *testing.T) {
	req := &InsertEmailToGroupRequest{
		GroupID: "g1",
		Entries: []*GroupEntry{
			{Email: &EmailData{Email: "a@b.com"}},
			{Email: &EmailData{Email: "c@d.com", Name: "C"}, Substitutions: map[string]string{"k": "v"}},
		},
		FailureHandling: FailureHandlingSkip,
	}

	var got InsertEmailToGroupRequest
	require.NoError(t, got.UnmarshalWire(Marshal(req)))
	assert.Equal(t, req, &got)
}

func TestUnknownFieldsAreSkipped(t *testing.T) {
	b := Marshal(&UpdateResponse{Success: true, Message: "ok"})
	b = protowire.AppendTag(b, 99, protowire.BytesType)
	b = protowire.AppendString(b, "future field")

	var got UpdateResponse
	require.NoError(t, got.UnmarshalWire(b))
	assert.True(t, got.Success)
	assert.Equal(t, "ok", got.Message)
}

func TestTruncatedInput(t *testing.T) {
	b := Marshal(&SendEmailResponse{Message: []string{"msg-1"}, EmailsLeft: 3})

	var got SendEmailResponse
	assert.Error(t, got.UnmarshalWire(b[:len(b)-3]))
}

func TestCodec(t *testing.T) {
	c := Codec{}
	assert.Equal(t, "proto", c.Name())

	b, err := c.Marshal(&CheckEmailInGroupResponse{Exists: true})
	require.NoError(t, err)

	var got CheckEmailInGroupResponse
	require.NoError(t, c.Unmarshal(b, &got))
	assert.True(t, got.Exists)

	ts := timestamppb.New(time.Unix(10, 0))
	b, err = c.Marshal(ts)
	require.NoError(t, err)
	var gotTS timestamppb.Timestamp
	require.NoError(t, c.Unmarshal(b, &gotTS))
	assert.Equal(t, int64(10), gotTS.GetSeconds())

	_, err = c.Marshal("not a message")
	assert.Error(t, err)
	assert.Error(t, c.Unmarshal(nil, new(int)))
}
