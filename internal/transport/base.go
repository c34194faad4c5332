package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	sdkerrors "github.com/sendlix/sendlix-go/pkg/errors"
)

// HeaderFunc produces the authorization header for one call. It may block on
// a token exchange.
type HeaderFunc func(ctx context.Context) (name, value string, err error)

// ClientOptions are the connection settings shared by every service client.
type ClientOptions struct {
	Conn        grpc.ClientConnInterface
	Target      string
	Insecure    bool
	TLSConfig   *tls.Config
	Logger      *slog.Logger
	DialOptions []grpc.DialOption
}

// Base is the call plumbing embedded by the service clients.
type Base struct {
	conn    grpc.ClientConnInterface
	header  HeaderFunc
	closers []io.Closer
	Logger  *slog.Logger
}

// NewBase dials a connection unless opts.Conn is set. owned closers are
// released by Close after the connection.
func NewBase(header HeaderFunc, opts ClientOptions, owned ...io.Closer) (*Base, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	b := &Base{header: header, Logger: logger}
	if opts.Conn != nil {
		b.conn = opts.Conn
	} else {
		conn, err := Dial(Config{
			Target:      opts.Target,
			Insecure:    opts.Insecure,
			TLSConfig:   opts.TLSConfig,
			Logger:      logger,
			DialOptions: opts.DialOptions,
		})
		if err != nil {
			return nil, err
		}
		b.conn = conn
		b.closers = append(b.closers, conn)
	}
	b.closers = append(b.closers, owned...)
	return b, nil
}

// Invoke attaches the current bearer header and performs one unary call.
// Header errors are returned as produced; transport errors are wrapped with
// ErrRemoteCallFailed.
func (b *Base) Invoke(ctx context.Context, method string, req, resp any) error {
	name, value, err := b.header(ctx)
	if err != nil {
		return err
	}
	ctx = metadata.AppendToOutgoingContext(ctx, strings.ToLower(name), value)

	if err := b.conn.Invoke(ctx, method, req, resp, CallOptions()...); err != nil {
		return sdkerrors.Remote(err)
	}
	return nil
}

// Close releases the connection and anything the client owns. A second call
// repeats the teardown and reports whatever the closers return.
func (b *Base) Close() error {
	var errs []error
	for _, c := range b.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
