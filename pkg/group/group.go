// Package group manages the members of Sendlix recipient groups.
package group

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"

	"github.com/samber/lo"
	"google.golang.org/grpc"

	"github.com/sendlix/sendlix-go/internal/transport"
	"github.com/sendlix/sendlix-go/internal/wire"
	"github.com/sendlix/sendlix-go/pkg/auth"
	"github.com/sendlix/sendlix-go/pkg/email"
	sdkerrors "github.com/sendlix/sendlix-go/pkg/errors"
	"github.com/sendlix/sendlix-go/pkg/validator"
)

const (
	opInsert = "insert"
	opRemove = "remove"
)

// Recipient is a group member with its own template substitutions.
type Recipient struct {
	email.Address
	Substitutions map[string]string
}

// Recipients wraps bare addresses.
func Recipients(emails ...string) []Recipient {
	return lo.Map(emails, func(e string, _ int) Recipient {
		return Recipient{Address: email.Addr(e)}
	})
}

// FailureHandling tells the server what to do with entries it cannot insert.
type FailureHandling int32

const (
	// OnFailureDefault leaves the decision to the server.
	OnFailureDefault FailureHandling = FailureHandling(wire.FailureHandlingDefault)
	// OnFailureAbort rejects the whole batch.
	OnFailureAbort FailureHandling = FailureHandling(wire.FailureHandlingAbort)
	// OnFailureSkip inserts the valid entries and drops the rest.
	OnFailureSkip FailureHandling = FailureHandling(wire.FailureHandlingSkip)
)

// ParseFailureHandling accepts "default", "abort" or "skip".
func ParseFailureHandling(s string) (FailureHandling, error) {
	switch s {
	case "", "default":
		return OnFailureDefault, nil
	case "abort":
		return OnFailureAbort, nil
	case "skip":
		return OnFailureSkip, nil
	}
	return 0, fmt.Errorf("%w: unknown failure handling %q", sdkerrors.ErrInvalidFormat, s)
}

type insertOptions struct {
	substitutions map[string]string
	onFailure     FailureHandling
}

type InsertOption func(*insertOptions)

// WithSubstitutions sets substitutions shared by every recipient. A
// recipient's own value for a key takes precedence.
func WithSubstitutions(subs map[string]string) InsertOption {
	return func(o *insertOptions) { o.substitutions = subs }
}

func WithFailureHandling(f FailureHandling) InsertOption {
	return func(o *insertOptions) { o.onFailure = f }
}

type options struct {
	transport.ClientOptions
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

// Client talks to the Group service. It is safe for concurrent use.
type Client struct {
	*transport.Base
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

	authOpts := []auth.Option{auth.WithLogger(o.Logger)}
	if o.Conn != nil {
		authOpts = append(authOpts, auth.WithConn(o.Conn))
	} else {
		authOpts = append(authOpts, auth.WithTarget(o.Target), auth.WithTLSConfig(o.TLSConfig), auth.WithDialOptions(o.DialOptions...))
		if o.Insecure {
			authOpts = append(authOpts, auth.WithInsecure())
		}
	}

	a, err := auth.New(apiKey, authOpts...)
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
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func newClient(a auth.Authenticator, owned io.Closer, o options) (*Client, error) {
	if a == nil {
		return nil, sdkerrors.ErrMissingCredential
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
	return &Client{Base: base, validate: validator.New()}, nil
}

// Insert adds recipients to groupID in one call. It returns true on success
// and a *errors.RejectedError carrying the server's message when the server
// reports failure.
func (c *Client) Insert(ctx context.Context, groupID string, recipients []Recipient, opts ...InsertOption) (bool, error) {
	if err := c.validate.Present("group_id", groupID); err != nil {
		return false, err
	}
	if err := c.validate.NotEmpty("recipients", recipients); err != nil {
		return false, err
	}
	for i, r := range recipients {
		if err := c.validate.Address(fmt.Sprintf("recipients[%d]", i), r.Email); err != nil {
			return false, err
		}
	}

	var ins insertOptions
	for _, opt := range opts {
		opt(&ins)
	}

	req := &wire.InsertEmailToGroupRequest{
		GroupID:         groupID,
		FailureHandling: wire.FailureHandling(ins.onFailure),
		Entries:         lo.Map(recipients, func(r Recipient, _ int) *wire.GroupEntry {
			return &wire.GroupEntry{
				Email:         &wire.EmailData{Email: r.Email, Name: r.Name},
				Substitutions: lo.Assign(ins.substitutions, r.Substitutions),
			}
		}),
	}

	resp := &wire.UpdateResponse{}
	if err := c.Invoke(ctx, wire.MethodInsertEmailToGroup, req, resp); err != nil {
		return false, err
	}
	if !resp.Success {
		c.Logger.InfoContext(ctx, "group insert rejected", "group_id", groupID, "message", resp.Message)
		return false, &sdkerrors.RejectedError{Operation: opInsert, Message: resp.Message}
	}

	c.Logger.DebugContext(ctx, "group insert", "group_id", groupID, "count", len(recipients))
	return true, nil
}

// Remove deletes address from groupID. The address is passed to the server
// unvalidated.
func (c *Client) Remove(ctx context.Context, groupID, address string) (bool, error) {
	req := &wire.GroupEmailRequest{GroupID: groupID, Email: address}
	resp := &wire.UpdateResponse{}
	if err := c.Invoke(ctx, wire.MethodRemoveEmailFromGroup, req, resp); err != nil {
		return false, err
	}
	if !resp.Success {
		c.Logger.InfoContext(ctx, "group remove rejected", "group_id", groupID, "message", resp.Message)
		return false, &sdkerrors.RejectedError{Operation: opRemove, Message: resp.Message}
	}
	return true, nil
}

// Contains reports whether address is a member of groupID.
func (c *Client) Contains(ctx context.Context, groupID, address string) (bool, error) {
	req := &wire.GroupEmailRequest{GroupID: groupID, Email: address}
	resp := &wire.CheckEmailInGroupResponse{}
	if err := c.Invoke(ctx, wire.MethodCheckEmailInGroup, req, resp); err != nil {
		return false, err
	}
	return resp.Exists, nil
}
