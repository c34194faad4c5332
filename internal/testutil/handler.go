// Package testutil provides in-process stand-ins for the Sendlix API: a
// FakeConn that answers Invoke directly and a bufconn backed Server that
// speaks real gRPC. Both route every payload through wire.Codec.
package testutil

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/sendlix/sendlix-go/internal/wire"
)

const (
	AuthHeader   = "authorization"
	BearerPrefix = "Bearer "
)

// Handler answers one call. req is the encoded request payload; the
// outgoing metadata of the caller is available as incoming metadata on ctx.
type Handler func(ctx context.Context, req []byte) (wire.Message, error)

// Call is a recorded request.
type Call struct {
	Method   string
	Payload  []byte
	Metadata metadata.MD
}

// Reply adapts a typed function to a Handler, decoding the request payload
// into Req first.
func Reply[Req, Resp any, PReq interface {
	*Req
	wire.Message
}, PResp interface {
	*Resp
	wire.Message
}](fn func(ctx context.Context, req PReq) (PResp, error)) Handler {
	return func(ctx context.Context, b []byte) (wire.Message, error) {
		req := PReq(new(Req))
		if err := req.UnmarshalWire(b); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "decode request: %v", err)
		}
		resp, err := fn(ctx, req)
		if err != nil {
			return nil, err
		}
		return resp, nil
	}
}

// Fail returns a Handler that always fails with the given status.
func Fail(code codes.Code, msg string) Handler {
	return func(context.Context, []byte) (wire.Message, error) {
		return nil, status.Error(code, msg)
	}
}

// Decode unmarshals a recorded payload.
func Decode[T any, P interface {
	*T
	wire.Message
}](b []byte) (P, error) {
	m := P(new(T))
	if err := m.UnmarshalWire(b); err != nil {
		return nil, err
	}
	return m, nil
}

// BearerToken extracts the token from the authorization metadata, or "".
func BearerToken(md metadata.MD) string {
	vals := md.Get(AuthHeader)
	if len(vals) == 0 || len(vals[0]) < len(BearerPrefix) || vals[0][:len(BearerPrefix)] != BearerPrefix {
		return ""
	}
	return vals[0][len(BearerPrefix):]
}

// rawFrame carries an undecoded payload through wire.Codec.
type rawFrame []byte

func (f *rawFrame) AppendWire(b []byte) []byte {
	return append(b, *f...)
}

func (f *rawFrame) UnmarshalWire(b []byte) error {
	*f = append((*f)[:0], b...)
	return nil
}

type registry struct {
	handlers map[string]Handler
	calls    []Call
}

func (r *registry) handle(method string, h Handler) {
	if r.handlers == nil {
		r.handlers = make(map[string]Handler)
	}
	r.handlers[method] = h
}

func (r *registry) callsFor(method string) []Call {
	var out []Call
	for _, c := range r.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}
