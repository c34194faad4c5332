package testutil

import (
	"context"
	"net"
	"sync"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/sendlix/sendlix-go/internal/wire"
)

const bufSize = 1 << 20

// Target is the address clients pass to reach a Server.
const Target = "passthrough:///bufnet"

// Server is an in-memory gRPC server that accepts any method and routes it to
// a registered Handler.
type Server struct {
	lis *bufconn.Listener
	srv *grpc.Server

	mu  sync.Mutex
	reg registry
}

// NewServer starts a Server that is stopped when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{lis: bufconn.Listen(bufSize)}
	s.srv = grpc.NewServer(
		grpc.ForceServerCodec(wire.Codec{}),
		grpc.UnknownServiceHandler(s.serve),
	)

	go func() {
		_ = s.srv.Serve(s.lis)
	}()

	t.Cleanup(func() {
		s.srv.Stop()
		_ = s.lis.Close()
	})
	return s
}

// Handle registers h for method, replacing any previous handler.
func (s *Server) Handle(method string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reg.handle(method, h)
}

// Calls returns the recorded calls for method in order.
func (s *Server) Calls(method string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.callsFor(method)
}

// DialOptions route a client created with Target to this server.
func (s *Server) DialOptions() []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return s.lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
}

func (s *Server) serve(_ any, stream grpc.ServerStream) error {
	method, ok := grpc.MethodFromServerStream(stream)
	if !ok {
		return status.Error(codes.Internal, "method not found in stream")
	}

	var frame rawFrame
	if err := stream.RecvMsg(&frame); err != nil {
		return err
	}

	md, _ := metadata.FromIncomingContext(stream.Context())

	s.mu.Lock()
	s.reg.calls = append(s.reg.calls, Call{Method: method, Payload: []byte(frame), Metadata: md.Copy()})
	h := s.reg.handlers[method]
	s.mu.Unlock()

	if h == nil {
		return status.Errorf(codes.Unimplemented, "unknown method %s", method)
	}

	resp, err := h(stream.Context(), frame)
	if err != nil {
		return err
	}
	return stream.SendMsg(resp)
}
