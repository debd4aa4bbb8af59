package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"spendtrack/internal/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (c *countingRefresher) Refresh(ctx context.Context) error {
	c.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("expected a deadline")
	}
	return c.err
}

func TestRunOnce(t *testing.T) {
	r := &countingRefresher{}
	w := NewRefreshWorker(r, "@every 1h", time.Second, log.Discard())
	require.NoError(t, w.RunOnce(context.Background()))

	r.err = errors.New("drive down")
	err := w.RunOnce(context.Background())
	require.Error(t, err)

	st := w.Stats()
	assert.Equal(t, int64(2), st.Runs)
	assert.Equal(t, int64(1), st.Failures)
	assert.Equal(t, "drive down", st.LastError)
	assert.Equal(t, "@every 1h", st.Schedule)
}

func TestStartSchedules(t *testing.T) {
	w := NewRefreshWorker(&countingRefresher{}, "*/15 * * * *", time.Second, log.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, w.Start(ctx))
	require.NoError(t, w.Start(ctx))
	next, ok := w.Next()
	require.True(t, ok)
	assert.True(t, next.After(time.Now()))
	assert.Zero(t, next.Minute()%15)

	w.Stop(context.Background())
	_, ok = w.Next()
	assert.False(t, ok)
	w.Stop(context.Background())
}

func TestStartErrors(t *testing.T) {
	w := NewRefreshWorker(&countingRefresher{}, "", 0, nil)
	assert.ErrorIs(t, w.Start(context.Background()), ErrNoSchedule)

	w = NewRefreshWorker(&countingRefresher{}, "every tuesday", 0, nil)
	assert.Error(t, w.Start(context.Background()))
	_, ok := w.Next()
	assert.False(t, ok)
}
