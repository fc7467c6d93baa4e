package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"jobtrack-backend/internal/watch/usecase"

	"github.com/stretchr/testify/assert"
)

type countingRefresher struct {
	runs atomic.Int32
}

func (r *countingRefresher) RefreshAll(context.Context) (*usecase.Stats, error) {
	r.runs.Add(1)
	return &usecase.Stats{}, nil
}

func TestSchedulerRunsImmediatelyAndOnTick(t *testing.T) {
	r := &countingRefresher{}
	s := NewWatchRefreshScheduler(r, 20*time.Millisecond)
	s.Start()

	assert.Eventually(t, func() bool { return r.runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	after := r.runs.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, after, r.runs.Load())
}

func TestSchedulerStopWithoutStart(t *testing.T) {
	s := NewWatchRefreshScheduler(&countingRefresher{}, 0)
	assert.Equal(t, 6*time.Hour, s.interval)
	s.Stop()
	s.Stop()
}
