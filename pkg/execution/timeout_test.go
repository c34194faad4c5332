package execution

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTimeout_Expires(t *testing.T) {
	_, err := WithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithTimeout_ReturnsResult(t *testing.T) {
	got, err := WithTimeout(context.Background(), time.Second, func(ctx context.Context) (string, error) {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		return "done", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "done", got)
}

func TestWithTimeout_ZeroMeansNoDeadline(t *testing.T) {
	_, err := WithTimeout(context.Background(), 0, func(ctx context.Context) (struct{}, error) {
		_, ok := ctx.Deadline()
		assert.False(t, ok)
		return struct{}{}, nil
	})
	assert.NoError(t, err)
}
