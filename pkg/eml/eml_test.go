package eml

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdkerrors "github.com/sendlix/sendlix-go/pkg/errors"
)

const sample = "From: a@b.com\r\nTo: c@d.com\r\nSubject: hi\r\n\r\nbody\r\n"

type fakeS3 struct {
	objects map[string]string
	input   *s3.GetObjectInput
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.input = in
	body, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestFromBytes(t *testing.T) {
	b, err := FromBytes([]byte(sample)).Bytes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sample, string(b))

	_, err = FromBytes(nil).Bytes(context.Background())
	assert.Error(t, err)
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mail.eml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	b, err := FromFile(path).Bytes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sample, string(b))

	_, err = FromFile(filepath.Join(t.TempDir(), "missing.eml")).Bytes(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFromReader(t *testing.T) {
	b, err := FromReader(strings.NewReader(sample)).Bytes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sample, string(b))

	_, err = FromReader(nil).Bytes(context.Background())
	assert.ErrorIs(t, err, sdkerrors.ErrMissingRequiredField)
}

func TestFromS3(t *testing.T) {
	api := &fakeS3{objects: map[string]string{"mails/2024/welcome.eml": sample}}

	b, err := FromS3(api, "mails", "2024/welcome.eml").Bytes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sample, string(b))
	assert.Equal(t, "mails", aws.ToString(api.input.Bucket))
	assert.Equal(t, "2024/welcome.eml", aws.ToString(api.input.Key))

	_, err = FromS3(api, "mails", "nope.eml").Bytes(context.Background())
	assert.ErrorContains(t, err, "NoSuchKey")

	_, err = FromS3(nil, "mails", "x").Bytes(context.Background())
	assert.ErrorIs(t, err, sdkerrors.ErrMissingCredential)
}

func TestParse(t *testing.T) {
	api := &fakeS3{objects: map[string]string{"bucket/path/to/mail.eml": sample}}

	src, err := Parse("s3://bucket/path/to/mail.eml", api)
	require.NoError(t, err)
	b, err := src.Bytes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sample, string(b))

	src, err = Parse("/tmp/mail.eml", api)
	require.NoError(t, err)
	assert.Equal(t, fileSource("/tmp/mail.eml"), src)

	for _, bad := range []string{"s3://bucket", "s3:///key", "s3://bucket/"} {
		_, err = Parse(bad, api)
		assert.ErrorIs(t, err, sdkerrors.ErrInvalidFormat, bad)
	}

	_, err = Parse("", api)
	assert.ErrorIs(t, err, sdkerrors.ErrMissingRequiredField)

	assert.True(t, IsS3("s3://b/k"))
	assert.False(t, IsS3("b/k"))
}
