package scheduler

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"jobtrack-backend/internal/watch/usecase"
)

// Refresher runs one watch refresh batch.
type Refresher interface {
	RefreshAll(ctx context.Context) (*usecase.Stats, error)
}

// WatchRefreshScheduler renews Gmail watches on a fixed interval
type WatchRefreshScheduler struct {
	refresher Refresher
	interval  time.Duration
	stopChan  chan struct{}
	stopOnce  sync.Once
	started   atomic.Bool
	done      chan struct{}
}

func NewWatchRefreshScheduler(refresher Refresher, interval time.Duration) *WatchRefreshScheduler {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &WatchRefreshScheduler{
		refresher: refresher,
		interval:  interval,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start begins the scheduler loop. The first batch runs immediately.
func (s *WatchRefreshScheduler) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	log.Printf("[WatchScheduler] Starting watch refresh scheduler (interval: %s)", s.interval)

	go func() {
		defer close(s.done)
		s.run()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.run()
			case <-s.stopChan:
				log.Println("[WatchScheduler] Scheduler stopped")
				return
			}
		}
	}()
}

// Stop ends the loop and waits for a running batch to return.
func (s *WatchRefreshScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	if s.started.Load() {
		<-s.done
	}
}

func (s *WatchRefreshScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	if _, err := s.refresher.RefreshAll(ctx); err != nil {
		log.Printf("[WatchScheduler] Error refreshing watches: %v", err)
	}
}
