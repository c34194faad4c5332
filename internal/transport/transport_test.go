package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/sendlix/sendlix-go/internal/wire"
	sdkerrors "github.com/sendlix/sendlix-go/pkg/errors"
)

type recordingConn struct {
	md   metadata.MD
	opts []grpc.CallOption
	err  error
}

func (r *recordingConn) Invoke(ctx context.Context, _ string, _, _ any, opts ...grpc.CallOption) error {
	r.md, _ = metadata.FromOutgoingContext(ctx)
	r.opts = opts
	return r.err
}

func (r *recordingConn) NewStream(context.Context, *grpc.StreamDesc, string, ...grpc.CallOption) (grpc.ClientStream, error) {
	return nil, errors.New("not implemented")
}

type closeFunc func() error

func (f closeFunc) Close() error { return f() }

func staticHeader(ctx context.Context) (string, string, error) {
	return "Authorization", "Bearer tok1", nil
}

func TestBaseInvokeAttachesHeaderAndCodec(t *testing.T) {
	conn := &recordingConn{}
	b, err := NewBase(staticHeader, ClientOptions{Conn: conn})
	require.NoError(t, err)

	require.NoError(t, b.Invoke(context.Background(), "/svc/M", &wire.APIKey{}, &wire.APIKey{}))

	assert.Equal(t, []string{"Bearer tok1"}, conn.md.Get("authorization"))
	require.Len(t, conn.opts, 1)
	fc, ok := conn.opts[0].(grpc.ForceCodecCallOption)
	require.True(t, ok)
	assert.Equal(t, wire.Name, fc.Codec.Name())
}

func TestBaseInvokeHeaderErrorIsVerbatim(t *testing.T) {
	headerErr := errors.New("exchange failed")
	conn := &recordingConn{}
	b, err := NewBase(func(context.Context) (string, string, error) {
		return "", "", headerErr
	}, ClientOptions{Conn: conn})
	require.NoError(t, err)

	err = b.Invoke(context.Background(), "/svc/M", &wire.APIKey{}, &wire.APIKey{})
	assert.Same(t, headerErr, err)
	assert.Nil(t, conn.md)
}

func TestBaseInvokeWrapsRemoteErrors(t *testing.T) {
	conn := &recordingConn{err: status.Error(codes.Unavailable, "down")}
	b, err := NewBase(staticHeader, ClientOptions{Conn: conn})
	require.NoError(t, err)

	err = b.Invoke(context.Background(), "/svc/M", &wire.APIKey{}, &wire.APIKey{})
	assert.ErrorIs(t, err, sdkerrors.ErrRemoteCallFailed)
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestBaseCloseRunsOwnedClosers(t *testing.T) {
	var closed int
	boom := errors.New("boom")
	b, err := NewBase(staticHeader, ClientOptions{Conn: &recordingConn{}},
		closeFunc(func() error { closed++; return nil }),
		closeFunc(func() error { closed++; return boom }),
	)
	require.NoError(t, err)

	assert.ErrorIs(t, b.Close(), boom)
	assert.Equal(t, 2, closed)
}

func TestDialDoesNotConnect(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	conn, err := Dial(Config{Target: "passthrough:///unreachable:1", Insecure: true, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	assert.Equal(t, "passthrough:///unreachable:1", conn.Target())
	assert.Contains(t, logs.String(), "gRPC client created")
}

func TestDialOwnedByBase(t *testing.T) {
	b, err := NewBase(staticHeader, ClientOptions{Target: "passthrough:///unreachable:1", Insecure: true})
	require.NoError(t, err)
	assert.NoError(t, b.Close())
}

func TestConfigureClientTLS(t *testing.T) {
	cfg, err := ConfigureClientTLS(TLSOptions{ServerName: "api.internal"})
	require.NoError(t, err)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	assert.Equal(t, "api.internal", cfg.ServerName)
	assert.Nil(t, cfg.RootCAs)

	_, err = ConfigureClientTLS(TLSOptions{CertFile: "cert.pem"})
	assert.ErrorContains(t, err, "must be set together")

	_, err = ConfigureClientTLS(TLSOptions{CAFile: filepath.Join(t.TempDir(), "missing.pem")})
	assert.ErrorIs(t, err, os.ErrNotExist)

	garbage := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(garbage, []byte("not a certificate"), 0o600))
	_, err = ConfigureClientTLS(TLSOptions{CAFile: garbage})
	assert.ErrorContains(t, err, "failed to add CA certificate")
}
