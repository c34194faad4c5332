// Package eml supplies the raw RFC 5322 bytes sent by SendEML.
package eml

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	sdkerrors "github.com/sendlix/sendlix-go/pkg/errors"
)

// Source yields the bytes of one raw message.
type Source interface {
	Bytes(ctx context.Context) ([]byte, error)
}

// S3GetObjectAPI is the subset of *s3.Client used by FromS3.
type S3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var errEmptyMessage = errors.New("raw message is empty")

type bytesSource []byte

// FromBytes serves b as is.
func FromBytes(b []byte) Source {
	return bytesSource(b)
}

func (s bytesSource) Bytes(context.Context) ([]byte, error) {
	if len(s) == 0 {
		return nil, sdkerrors.Field("eml", errEmptyMessage)
	}
	return s, nil
}

type fileSource string

// FromFile reads the message from path when Bytes is called.
func FromFile(path string) Source {
	return fileSource(path)
}

func (s fileSource) Bytes(context.Context) ([]byte, error) {
	b, err := os.ReadFile(string(s))
	if err != nil {
		return nil, fmt.Errorf("read eml file %s: %w", string(s), err)
	}
	return b, nil
}

type readerSource struct {
	r io.Reader
}

// FromReader drains r on the first Bytes call.
func FromReader(r io.Reader) Source {
	return readerSource{r: r}
}

func (s readerSource) Bytes(context.Context) ([]byte, error) {
	if s.r == nil {
		return nil, sdkerrors.Field("eml", sdkerrors.ErrMissingRequiredField)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(s.r); err != nil {
		return nil, fmt.Errorf("read eml: %w", err)
	}
	return buf.Bytes(), nil
}

type s3Source struct {
	api    S3GetObjectAPI
	bucket string
	key    string
}

// FromS3 downloads s3://bucket/key with api.
func FromS3(api S3GetObjectAPI, bucket, key string) Source {
	return s3Source{api: api, bucket: bucket, key: key}
}

func (s s3Source) Bytes(ctx context.Context) ([]byte, error) {
	if s.api == nil {
		return nil, fmt.Errorf("s3://%s/%s: %w", s.bucket, s.key, sdkerrors.ErrMissingCredential)
	}

	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, s.key, err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return b, nil
}

// Parse resolves a command line reference: "s3://bucket/key" or a file path.
// "-" reads standard input.
func Parse(ref string, api S3GetObjectAPI) (Source, error) {
	switch {
	case ref == "":
		return nil, sdkerrors.Field("eml", sdkerrors.ErrMissingRequiredField)
	case ref == "-":
		return FromReader(os.Stdin), nil
	case strings.HasPrefix(ref, "s3://"):
		bucket, key, ok := strings.Cut(strings.TrimPrefix(ref, "s3://"), "/")
		if !ok || bucket == "" || key == "" {
			return nil, fmt.Errorf("%w: expected s3://bucket/key, got %q", sdkerrors.ErrInvalidFormat, ref)
		}
		return FromS3(api, bucket, key), nil
	default:
		return FromFile(ref), nil
	}
}

// IsS3 reports whether ref names an S3 object.
func IsS3(ref string) bool {
	return strings.HasPrefix(ref, "s3://")
}
