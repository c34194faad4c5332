package transport

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// RequestIDHeader carries a per-call correlation id.
const RequestIDHeader = "x-request-id"

// UnaryRequestIDInterceptor attaches a fresh uuid to every outgoing call
// unless the caller already set one.
func UnaryRequestIDInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if md, ok := metadata.FromOutgoingContext(ctx); !ok || len(md.Get(RequestIDHeader)) == 0 {
			ctx = metadata.AppendToOutgoingContext(ctx, RequestIDHeader, uuid.NewString())
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// UnaryLoggingInterceptor logs each call with its duration and status code.
func UnaryLoggingInterceptor(logger *slog.Logger) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		start := time.Now()

		err := invoker(ctx, method, req, reply, cc, opts...)

		var requestID string
		if md, ok := metadata.FromOutgoingContext(ctx); ok {
			if ids := md.Get(RequestIDHeader); len(ids) > 0 {
				requestID = ids[0]
			}
		}

		attrs := []any{
			"method", method,
			"duration", time.Since(start),
			"code", status.Code(err).String(),
			"request_id", requestID,
		}
		if err != nil {
			logger.WarnContext(ctx, "rpc failed", append(attrs, "error", err)...)
		} else {
			logger.DebugContext(ctx, "rpc completed", attrs...)
		}
		return err
	}
}
