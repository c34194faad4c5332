package testutil

import (
	"context"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// FakeConn is a grpc.ClientConnInterface that dispatches unary calls to
// registered handlers. Calls without a forced codec fail, which catches
// clients that forget the wire call options.
type FakeConn struct {
	mu  sync.Mutex
	reg registry
}

var _ grpc.ClientConnInterface = (*FakeConn)(nil)

func NewFakeConn() *FakeConn {
	return &FakeConn{}
}

// Handle registers h for method, replacing any previous handler.
func (f *FakeConn) Handle(method string, h Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reg.handle(method, h)
}

// Calls returns the recorded calls for method in order.
func (f *FakeConn) Calls(method string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reg.callsFor(method)
}

func (f *FakeConn) Invoke(ctx context.Context, method string, args, reply any, opts ...grpc.CallOption) error {
	codec := forcedCodec(opts)
	if codec == nil {
		return status.Errorf(codes.Internal, "no codec forced for %s", method)
	}

	payload, err := codec.Marshal(args)
	if err != nil {
		return status.Errorf(codes.Internal, "marshal: %v", err)
	}

	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()

	f.mu.Lock()
	f.reg.calls = append(f.reg.calls, Call{Method: method, Payload: payload, Metadata: md})
	h := f.reg.handlers[method]
	f.mu.Unlock()

	if h == nil {
		return status.Errorf(codes.Unimplemented, "unknown method %s", method)
	}
	if err := ctx.Err(); err != nil {
		return status.FromContextError(err).Err()
	}

	resp, err := h(metadata.NewIncomingContext(ctx, md), payload)
	if err != nil {
		return err
	}

	out, err := codec.Marshal(resp)
	if err != nil {
		return status.Errorf(codes.Internal, "marshal response: %v", err)
	}
	return codec.Unmarshal(out, reply)
}

func (f *FakeConn) NewStream(context.Context, *grpc.StreamDesc, string, ...grpc.CallOption) (grpc.ClientStream, error) {
	return nil, status.Error(codes.Unimplemented, "streams are not supported")
}

func forcedCodec(opts []grpc.CallOption) encoding.Codec {
	for _, o := range opts {
		if fc, ok := o.(grpc.ForceCodecCallOption); ok {
			return fc.Codec
		}
	}
	return nil
}
