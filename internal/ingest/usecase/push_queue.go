package usecase

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync"

	"jobtrack-backend/internal/ingest/domain"

	"golang.org/x/sync/singleflight"
)

// PushHandler processes one push notification.
type PushHandler interface {
	HandlePush(ctx context.Context, emailAddress string, pushedHistoryID uint64) (*domain.BatchResult, error)
}

// PushJob is one queued push notification.
type PushJob struct {
	EmailAddress string
	HistoryID    uint64
}

// PushQueue runs push dispatches on a fixed pool of workers. Each dispatch
// handles its refs sequentially; separate pushes run in parallel.
type PushQueue struct {
	handler     PushHandler
	jobQueue    chan PushJob
	workerWg    sync.WaitGroup
	workerCount int
	group       singleflight.Group
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
	stopped     bool
	mu          sync.Mutex
}

func NewPushQueue(handler PushHandler, workerCount, queueSize int) *PushQueue {
	if workerCount <= 0 {
		workerCount = 2
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &PushQueue{
		handler:     handler,
		jobQueue:    make(chan PushJob, queueSize),
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the workers
func (q *PushQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started || q.stopped {
		return
	}

	for i := 0; i < q.workerCount; i++ {
		q.workerWg.Add(1)
		go q.worker(i)
	}
	q.started = true
	log.Printf("[PushQueue] Started %d workers", q.workerCount)
}

// Stop cancels in-flight dispatches after their current ref and waits for
// the workers to exit. Queued jobs that were not picked up are dropped.
func (q *PushQueue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	q.cancel()
	close(q.jobQueue)
	q.mu.Unlock()

	q.workerWg.Wait()
	log.Println("[PushQueue] All workers stopped")
}

// Enqueue adds a job without blocking. It returns false when the queue is
// full or stopped.
func (q *PushQueue) Enqueue(job PushJob) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return false
	}
	select {
	case q.jobQueue <- job:
		return true
	default:
		return false
	}
}

func (q *PushQueue) worker(id int) {
	defer q.workerWg.Done()

	for job := range q.jobQueue {
		if q.ctx.Err() != nil {
			continue
		}
		q.process(job)
	}

	log.Printf("[PushQueue] Worker %d stopped", id)
}

// process collapses identical jobs that are already running into one dispatch.
func (q *PushQueue) process(job PushJob) {
	key := fmt.Sprintf("%s:%d", job.EmailAddress, job.HistoryID)
	_, err, shared := q.group.Do(key, func() (res interface{}, err error) {
		// a panic in one dispatch must not take down the worker
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[PushQueue] PANIC push %s: %v\n%s", key, r, debug.Stack())
				err = fmt.Errorf("dispatch panicked: %v", r)
			}
		}()
		return q.handler.HandlePush(q.ctx, job.EmailAddress, job.HistoryID)
	})
	if shared {
		log.Printf("[PushQueue] push %s shared an in-flight dispatch", key)
	}
	if err != nil {
		log.Printf("[PushQueue] push %s failed: %v", key, err)
	}
}
