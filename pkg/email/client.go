// Package email sends single messages, raw EML messages and group mailings
// through the Sendlix Email service.
package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"

	"google.golang.org/grpc"

	"github.com/sendlix/sendlix-go/internal/transport"
	"github.com/sendlix/sendlix-go/pkg/auth"
	sdkerrors "github.com/sendlix/sendlix-go/pkg/errors"
	"github.com/sendlix/sendlix-go/pkg/validator"
)

// SchemaVersion selects the request layout sent to the Email service.
type SchemaVersion int

const (
	// SchemaV1 carries a single body tagged HTML or TEXT and reports the
	// remaining credit count.
	SchemaV1 SchemaVersion = 1
	// SchemaV2 carries separate HTML and text bodies and inline images.
	SchemaV2 SchemaVersion = 2
)

func (v SchemaVersion) String() string {
	return fmt.Sprintf("v%d", int(v))
}

// ParseSchemaVersion accepts "1", "2", "v1" or "v2".
func ParseSchemaVersion(s string) (SchemaVersion, error) {
	switch s {
	case "1", "v1":
		return SchemaV1, nil
	case "2", "v2", "":
		return SchemaV2, nil
	}
	return 0, fmt.Errorf("%w: %q", sdkerrors.ErrInvalidSchemaVersion, s)
}

type options struct {
	transport.ClientOptions
	schema SchemaVersion
}

type Option func(*options)

func WithConn(conn grpc.ClientConnInterface) Option {
	return func(o *options) { o.Conn = conn }
}

func WithTarget(target string) Option {
	return func(o *options) { o.Target = target }
}

func WithInsecure() Option {
	return func(o *options) { o.Insecure = true }
}

// WithTLSConfig replaces the default TLS 1.2+ system roots configuration.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(o *options) { o.TLSConfig = cfg }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.Logger = logger }
}

func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *options) { o.DialOptions = append(o.DialOptions, opts...) }
}

// WithSchemaVersion picks the request layout. The default is SchemaV2.
func WithSchemaVersion(v SchemaVersion) Option {
	return func(o *options) { o.schema = v }
}

// Client talks to the Email service. It is safe for concurrent use.
type Client struct {
	*transport.Base
	schema   SchemaVersion
	validate *validator.Validator
}

// New creates a Client that authenticates every call with a. The caller keeps
// ownership of a.
func New(a auth.Authenticator, opts ...Option) (*Client, error) {
	return newClient(a, nil, applyOptions(opts))
}

// NewWithAPIKey creates a Client with its own auth.Auth, which is closed with
// the client.
func NewWithAPIKey(apiKey string, opts ...Option) (*Client, error) {
	o := applyOptions(opts)

	a, err := auth.New(apiKey, authOptions(o.ClientOptions)...)
	if err != nil {
		return nil, err
	}

	c, err := newClient(a, a, o)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	return c, nil
}

func applyOptions(opts []Option) options {
	o := options{schema: SchemaV2}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// authOptions points an owned auth.Auth at the same endpoint as the client.
func authOptions(o transport.ClientOptions) []auth.Option {
	opts := []auth.Option{auth.WithLogger(o.Logger)}
	if o.Conn != nil {
		return append(opts, auth.WithConn(o.Conn))
	}
	opts = append(opts, auth.WithTarget(o.Target), auth.WithTLSConfig(o.TLSConfig), auth.WithDialOptions(o.DialOptions...))
	if o.Insecure {
		opts = append(opts, auth.WithInsecure())
	}
	return opts
}

func newClient(a auth.Authenticator, owned io.Closer, o options) (*Client, error) {
	if a == nil {
		return nil, sdkerrors.ErrMissingCredential
	}
	if o.schema != SchemaV1 && o.schema != SchemaV2 {
		return nil, fmt.Errorf("%w: %d", sdkerrors.ErrInvalidSchemaVersion, int(o.schema))
	}

	header := func(ctx context.Context) (string, string, error) {
		h, err := a.AuthHeader(ctx)
		return h.Name, h.Value, err
	}

	var closers []io.Closer
	if owned != nil {
		closers = append(closers, owned)
	}
	base, err := transport.NewBase(header, o.ClientOptions, closers...)
	if err != nil {
		return nil, err
	}

	return &Client{Base: base, schema: o.schema, validate: validator.New()}, nil
}

// SchemaVersion reports the request layout in use.
func (c *Client) SchemaVersion() SchemaVersion {
	return c.schema
}
