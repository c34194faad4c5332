package group

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/sendlix/sendlix-go/internal/testutil"
	"github.com/sendlix/sendlix-go/internal/wire"
	"github.com/sendlix/sendlix-go/pkg/auth"
	"github.com/sendlix/sendlix-go/pkg/email"
	sdkerrors "github.com/sendlix/sendlix-go/pkg/errors"
)

type staticAuth struct{ calls int }

func (s *staticAuth) AuthHeader(context.Context) (auth.Header, error) {
	s.calls++
	return auth.Header{Name: auth.HeaderName, Value: auth.BearerPrefix + "tok1"}, nil
}

func updateHandler(success bool, msg string) testutil.Handler {
	return testutil.Reply(func(context.Context, *wire.GroupEmailRequest) (*wire.UpdateResponse, error) {
		return &wire.UpdateResponse{Success: success, Message: msg}, nil
	})
}

func insertHandler(success bool, msg string) testutil.Handler {
	return testutil.Reply(func(context.Context, *wire.InsertEmailToGroupRequest) (*wire.UpdateResponse, error) {
		return &wire.UpdateResponse{Success: success, Message: msg}, nil
	})
}

func newTestClient(t *testing.T) (*Client, *testutil.FakeConn, *staticAuth) {
	t.Helper()
	conn := testutil.NewFakeConn()
	a := &staticAuth{}
	c, err := New(a, WithConn(conn))
	require.NoError(t, err)
	return c, conn, a
}

func TestNew_RequiresAuthenticator(t *testing.T) {
	_, err := New(nil, WithConn(testutil.NewFakeConn()))
	assert.ErrorIs(t, err, sdkerrors.ErrMissingCredential)
}

func TestInsert_SingleAddress(t *testing.T) {
	c, conn, _ := newTestClient(t)
	conn.Handle(wire.MethodInsertEmailToGroup, insertHandler(true, ""))

	ok, err := c.Insert(context.Background(), "g1", Recipients("a@b.com"))
	require.NoError(t, err)
	assert.True(t, ok)

	calls := conn.Calls(wire.MethodInsertEmailToGroup)
	require.Len(t, calls, 1)
	assert.Equal(t, "tok1", testutil.BearerToken(calls[0].Metadata))

	req, err := testutil.Decode[wire.InsertEmailToGroupRequest](calls[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, "g1", req.GroupID)
	require.Len(t, req.Entries, 1)
	assert.Equal(t, &wire.EmailData{Email: "a@b.com"}, req.Entries[0].Email)
	assert.Empty(t, req.Entries[0].Substitutions)
	assert.Equal(t, wire.FailureHandlingDefault, req.FailureHandling)
}

func TestInsert_Rejected(t *testing.T) {
	c, conn, _ := newTestClient(t)
	conn.Handle(wire.MethodInsertEmailToGroup, insertHandler(false, "dup"))

	ok, err := c.Insert(context.Background(), "g1", Recipients("a@b.com"))
	assert.False(t, ok)
	require.ErrorIs(t, err, sdkerrors.ErrOperationRejected)
	assert.EqualError(t, err, "dup")

	var rejected *sdkerrors.RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "insert", rejected.Operation)
}

func TestInsert_SubstitutionsAndPolicy(t *testing.T) {
	c, conn, _ := newTestClient(t)
	conn.Handle(wire.MethodInsertEmailToGroup, insertHandler(true, ""))

	recipients := []Recipient{
		{Address: email.Address{Email: "ada@example.com", Name: "Ada"}, Substitutions: map[string]string{"name": "Ada"}},
		{Address: email.Addr("bob@example.com")},
	}
	shared := map[string]string{"name": "friend", "plan": "pro"}

	_, err := c.Insert(context.Background(), "g1", recipients,
		WithSubstitutions(shared),
		WithFailureHandling(OnFailureSkip),
	)
	require.NoError(t, err)

	req, err := testutil.Decode[wire.InsertEmailToGroupRequest](conn.Calls(wire.MethodInsertEmailToGroup)[0].Payload)
	require.NoError(t, err)
	require.Len(t, req.Entries, 2)
	assert.Equal(t, "Ada", req.Entries[0].Email.Name)
	assert.Equal(t, map[string]string{"name": "Ada", "plan": "pro"}, req.Entries[0].Substitutions)
	assert.Equal(t, map[string]string{"name": "friend", "plan": "pro"}, req.Entries[1].Substitutions)
	assert.Equal(t, wire.FailureHandlingSkip, req.FailureHandling)

	assert.Equal(t, map[string]string{"name": "friend", "plan": "pro"}, shared, "shared map must not be mutated")
}

func TestInsert_Validation(t *testing.T) {
	c, conn, a := newTestClient(t)

	_, err := c.Insert(context.Background(), "g1", Recipients("a@b.com", "not-an-address"))
	require.ErrorIs(t, err, sdkerrors.ErrInvalidAddressFormat)
	var fe *sdkerrors.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "recipients[1]", fe.Field)

	_, err = c.Insert(context.Background(), "g1", nil)
	assert.ErrorIs(t, err, sdkerrors.ErrMissingRequiredField)

	_, err = c.Insert(context.Background(), "", Recipients("a@b.com"))
	assert.ErrorIs(t, err, sdkerrors.ErrMissingRequiredField)

	assert.Empty(t, conn.Calls(wire.MethodInsertEmailToGroup))
	assert.Zero(t, a.calls)
}

func TestInsert_RemoteError(t *testing.T) {
	c, conn, _ := newTestClient(t)
	conn.Handle(wire.MethodInsertEmailToGroup, testutil.Fail(codes.NotFound, "group g1 not found"))

	_, err := c.Insert(context.Background(), "g1", Recipients("a@b.com"))
	require.ErrorIs(t, err, sdkerrors.ErrRemoteCallFailed)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestRemove(t *testing.T) {
	c, conn, _ := newTestClient(t)
	conn.Handle(wire.MethodRemoveEmailFromGroup, updateHandler(true, ""))

	ok, err := c.Remove(context.Background(), "g1", "a@b.com")
	require.NoError(t, err)
	assert.True(t, ok)

	req, err := testutil.Decode[wire.GroupEmailRequest](conn.Calls(wire.MethodRemoveEmailFromGroup)[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, &wire.GroupEmailRequest{GroupID: "g1", Email: "a@b.com"}, req)
}

func TestRemove_RejectedAndUnvalidated(t *testing.T) {
	c, conn, _ := newTestClient(t)
	conn.Handle(wire.MethodRemoveEmailFromGroup, updateHandler(false, "email was added less than 30 minutes ago"))

	ok, err := c.Remove(context.Background(), "g1", "whatever")
	assert.False(t, ok)
	require.ErrorIs(t, err, sdkerrors.ErrOperationRejected)
	assert.EqualError(t, err, "email was added less than 30 minutes ago")
	assert.Len(t, conn.Calls(wire.MethodRemoveEmailFromGroup), 1)
}

func TestContains(t *testing.T) {
	c, conn, _ := newTestClient(t)

	conn.Handle(wire.MethodCheckEmailInGroup, testutil.Reply(func(_ context.Context, req *wire.GroupEmailRequest) (*wire.CheckEmailInGroupResponse, error) {
		return &wire.CheckEmailInGroupResponse{Exists: req.Email == "member@example.com"}, nil
	}))

	ok, err := c.Contains(context.Background(), "g1", "member@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Contains(context.Background(), "g1", "stranger@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestContains_RemoteError(t *testing.T) {
	c, conn, _ := newTestClient(t)
	conn.Handle(wire.MethodCheckEmailInGroup, testutil.Fail(codes.PermissionDenied, "forbidden"))

	ok, err := c.Contains(context.Background(), "g1", "a@b.com")
	assert.False(t, ok)
	assert.ErrorIs(t, err, sdkerrors.ErrRemoteCallFailed)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestParseFailureHandling(t *testing.T) {
	for in, want := range map[string]FailureHandling{"": OnFailureDefault, "default": OnFailureDefault, "abort": OnFailureAbort, "skip": OnFailureSkip} {
		got, err := ParseFailureHandling(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFailureHandling("retry")
	assert.ErrorIs(t, err, sdkerrors.ErrInvalidFormat)
}

func TestGroupOverBufconn(t *testing.T) {
	srv := testutil.NewServer(t)
	srv.Handle(wire.MethodGetJwtToken, testutil.Reply(func(context.Context, *wire.AuthRequest) (*wire.AuthResponse, error) {
		return &wire.AuthResponse{Token: "grp-token", Expires: &timestamppb.Timestamp{Seconds: 3600}}, nil
	}))
	srv.Handle(wire.MethodCheckEmailInGroup, testutil.Reply(func(context.Context, *wire.GroupEmailRequest) (*wire.CheckEmailInGroupResponse, error) {
		return &wire.CheckEmailInGroupResponse{Exists: true}, nil
	}))

	c, err := NewWithAPIKey("abc.1", WithTarget(testutil.Target), WithInsecure(), WithDialOptions(srv.DialOptions()...))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	ok, err := c.Contains(context.Background(), "g1", "a@b.com")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "grp-token", testutil.BearerToken(srv.Calls(wire.MethodCheckEmailInGroup)[0].Metadata))
}
