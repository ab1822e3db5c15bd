package refresh

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type countingRefresher struct {
	calls int32
}

func (c *countingRefresher) RefreshStale() {
	atomic.AddInt32(&c.calls, 1)
}

func TestSweeperTicksAndStops(t *testing.T) {
	target := &countingRefresher{}
	s := NewSweeper(target, time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) && atomic.LoadInt32(&target.calls) == 0 {
		time.Sleep(20 * time.Millisecond)
	}
	assert.Positive(t, atomic.LoadInt32(&target.calls), "sweep never ran")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}

	after := atomic.LoadInt32(&target.calls)
	time.Sleep(1100 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&target.calls), "no sweeps after shutdown")
}

func TestSweeperDefaultsInterval(t *testing.T) {
	s := NewSweeper(&countingRefresher{}, 0, zap.NewNop())
	assert.Equal(t, 5*time.Second, s.interval)
}
