package chat

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (s *countingSweeper) SweepExpired(context.Context) (int, error) {
	s.calls.Add(1)
	return 3, s.err
}

func TestNewReaperRejectsBadSchedule(t *testing.T) {
	_, err := NewReaper(&countingSweeper{}, "every now and then", zap.NewNop())
	assert.Error(t, err)
}

func TestReaperRunOnce(t *testing.T) {
	sweeper := &countingSweeper{}
	r, err := NewReaper(sweeper, "", zap.NewNop())
	require.NoError(t, err)

	r.runOnce()
	sweeper.err = errors.New("redis down")
	r.runOnce()

	assert.Equal(t, int32(2), sweeper.calls.Load())
}

func TestReaperRunsOnSchedule(t *testing.T) {
	sweeper := &countingSweeper{}
	r, err := NewReaper(sweeper, "@every 1s", zap.NewNop())
	require.NoError(t, err)

	r.Start()
	defer r.Stop(context.Background())

	assert.Eventually(t, func() bool {
		return sweeper.calls.Load() > 0
	}, 3*time.Second, 50*time.Millisecond)
}
