// Package auth exchanges a Sendlix API key for short-lived bearer tokens and
// caches them until they expire.
package auth

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/sendlix/sendlix-go/internal/transport"
	"github.com/sendlix/sendlix-go/internal/wire"
	"github.com/sendlix/sendlix-go/pkg/clock"
	sdkerrors "github.com/sendlix/sendlix-go/pkg/errors"
)

const (
	HeaderName   = "Authorization"
	BearerPrefix = "Bearer "
)

// Header is a single request header.
type Header struct {
	Name  string
	Value string
}

func bearer(token string) Header {
	return Header{Name: HeaderName, Value: BearerPrefix + token}
}

// Authenticator produces the authorization header for outgoing calls.
type Authenticator interface {
	AuthHeader(ctx context.Context) (Header, error)
}

type cachedToken struct {
	token     string
	expiresAt time.Time
}

// Auth is the default Authenticator. It is safe for concurrent use; concurrent
// cache misses share one exchange.
type Auth struct {
	key    APIKey
	conn   grpc.ClientConnInterface
	closer io.Closer
	clock  clock.Clock
	logger *slog.Logger

	mu     sync.Mutex
	cached *cachedToken
	group  singleflight.Group
}

type options struct {
	transport.ClientOptions
	clock clock.Clock
}

type Option func(*options)

// WithConn exchanges tokens over conn instead of dialing a dedicated
// connection. conn must not itself carry per-RPC credentials.
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

func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *options) { o.DialOptions = append(o.DialOptions, opts...) }
}

func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.Logger = logger }
}

// New parses apiKey and prepares an Auth. No token is fetched until the
// first AuthHeader call.
func New(apiKey string, opts ...Option) (*Auth, error) {
	key, err := ParseAPIKey(apiKey)
	if err != nil {
		return nil, err
	}

	o := options{clock: clock.System{}}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	a := &Auth{
		key:    key,
		clock:  o.clock,
		logger: logger,
	}

	if o.Conn != nil {
		a.conn = o.Conn
	} else {
		conn, err := transport.Dial(transport.Config{
			Target:      o.Target,
			Insecure:    o.Insecure,
			TLSConfig:   o.TLSConfig,
			Logger:      logger,
			DialOptions: o.DialOptions,
		})
		if err != nil {
			return nil, err
		}
		a.conn = conn
		a.closer = conn
	}

	return a, nil
}

// KeyID returns the public half of the API key.
func (a *Auth) KeyID() int64 {
	return a.key.KeyID
}

// AuthHeader returns a header carrying a currently valid token. A cached token
// is returned without I/O; otherwise a token is exchanged for the API key.
// Failed exchanges leave the cache untouched and are not retried.
func (a *Auth) AuthHeader(ctx context.Context) (Header, error) {
	if h, ok := a.cachedHeader(); ok {
		return h, nil
	}

	// The shared exchange must outlive any single waiter's cancellation.
	ch := a.group.DoChan("token", func() (any, error) {
		return a.exchange(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return Header{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Header{}, res.Err
		}
		return res.Val.(Header), nil
	}
}

// Invalidate drops the cached token so the next AuthHeader call exchanges again.
func (a *Auth) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cached = nil
}

// Close releases the connection Auth dialed itself, if any.
func (a *Auth) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func (a *Auth) cachedHeader() (Header, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cached != nil && a.cached.expiresAt.After(a.clock.Now()) {
		return bearer(a.cached.token), true
	}
	return Header{}, false
}

func (a *Auth) exchange(ctx context.Context) (Header, error) {
	req := &wire.AuthRequest{APIKey: &wire.APIKey{Secret: a.key.Secret, KeyID: a.key.KeyID}}
	resp := &wire.AuthResponse{}

	if err := a.conn.Invoke(ctx, wire.MethodGetJwtToken, req, resp, transport.CallOptions()...); err != nil {
		a.logger.WarnContext(ctx, "token exchange failed", "key_id", a.key.KeyID, "error", err)
		return Header{}, fmt.Errorf("%w: %w", sdkerrors.ErrAuthExchangeFailed, err)
	}
	if resp.Token == "" {
		a.logger.WarnContext(ctx, "token exchange returned no token", "key_id", a.key.KeyID)
		return Header{}, fmt.Errorf("%w: no response from server", sdkerrors.ErrAuthExchangeFailed)
	}

	now := a.clock.Now()
	expiresAt := now.Add(time.Duration(resp.Expires.GetSeconds()) * time.Second)
	if resp.Expires.GetSeconds() <= 0 {
		expiresAt = tokenExpiry(resp.Token, now)
	}

	a.mu.Lock()
	a.cached = &cachedToken{token: resp.Token, expiresAt: expiresAt}
	a.mu.Unlock()

	a.logger.DebugContext(ctx, "token refreshed", "key_id", a.key.KeyID, "expires_at", expiresAt)
	return bearer(resp.Token), nil
}

// tokenExpiry reads the exp claim of a JWT without verifying it. Tokens
// without a readable exp are treated as already expired.
func tokenExpiry(token string, now time.Time) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil || claims.ExpiresAt == nil {
		return now
	}
	return claims.ExpiresAt.Time
}

// PerRPC adapts an Authenticator to gRPC per-RPC credentials for callers that
// dial their own connections.
func PerRPC(a Authenticator, requireTLS bool) credentials.PerRPCCredentials {
	return perRPC{auth: a, requireTLS: requireTLS}
}

type perRPC struct {
	auth       Authenticator
	requireTLS bool
}

func (p perRPC) GetRequestMetadata(ctx context.Context, _ ...string) (map[string]string, error) {
	h, err := p.auth.AuthHeader(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{strings.ToLower(h.Name): h.Value}, nil
}

func (p perRPC) RequireTransportSecurity() bool {
	return p.requireTLS
}
