package util

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestParallelRunsEverything(t *testing.T) {
	defer goleak.VerifyNone(t)

	var sum atomic.Int64
	err := Parallel(context.Background(), []int{1, 2, 3, 4, 5}, 2, func(_ context.Context, n int) error {
		sum.Add(int64(n))
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(15), sum.Load())
}

func TestParallelJoinsErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	errOdd := errors.New("odd")
	var ran atomic.Int32
	err := Parallel(context.Background(), []int{1, 2, 3, 4}, 3, func(_ context.Context, n int) error {
		ran.Add(1)
		if n%2 == 1 {
			return errOdd
		}
		return nil
	})
	assert.ErrorIs(t, err, errOdd)
	assert.Equal(t, int32(4), ran.Load(), "a failure must not stop other inputs")
}

func TestParallelCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Parallel(ctx, []string{"a", "b"}, 1, func(context.Context, string) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
