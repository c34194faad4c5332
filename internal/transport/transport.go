// Package transport builds the gRPC connection shared by the Sendlix clients.
package transport

import (
	"crypto/tls"
	"fmt"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/sendlix/sendlix-go/internal/wire"
)

const (
	Version       = "1.0.0"
	UserAgent     = "sendlix-go-sdk/" + Version
	DefaultTarget = "api.sendlix.com:443"
)

// Config describes how to reach the Sendlix API.
type Config struct {
	Target      string
	Insecure    bool
	TLSConfig   *tls.Config
	Logger      *slog.Logger
	DialOptions []grpc.DialOption
}

// CallOptions are attached to every Invoke so wire records are encoded with
// wire.Codec even on connections the SDK did not dial itself.
func CallOptions() []grpc.CallOption {
	return []grpc.CallOption{grpc.ForceCodec(wire.Codec{})}
}

// Dial creates a client connection. Like grpc.NewClient it does not block;
// the connection is established on the first RPC.
func Dial(cfg Config) (*grpc.ClientConn, error) {
	target := cfg.Target
	if target == "" {
		target = DefaultTarget
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	opts := []grpc.DialOption{
		grpc.WithUserAgent(UserAgent),
		grpc.WithDefaultCallOptions(CallOptions()...),
		grpc.WithChainUnaryInterceptor(
			UnaryRequestIDInterceptor(),
			UnaryLoggingInterceptor(logger),
		),
	}

	if cfg.Insecure {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	} else {
		tlsConfig := cfg.TLSConfig
		if tlsConfig == nil {
			tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(tlsConfig)))
	}

	opts = append(opts, cfg.DialOptions...)

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		logger.Error("gRPC connection failed", "target", target, "error", err)
		return nil, fmt.Errorf("failed to create gRPC client for %s: %w", target, err)
	}

	logger.Debug("gRPC client created", "target", target, "insecure", cfg.Insecure)
	return conn, nil
}
