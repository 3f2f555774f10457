package usecase

import (
	"context"
	"sync"

	"github.com/fekuna/speakeasy-board-service/internal/board"
	"github.com/fekuna/speakeasy-board-service/internal/metrics"
)

// orderQueue persists optimistic reorders one at a time. Each scope keeps
// only its newest job: a job that was overtaken before it ran is skipped.
type orderQueue struct {
	run     sync.Mutex
	mu      sync.Mutex
	latest  map[string]uint64
	pending sync.WaitGroup
}

func newOrderQueue() *orderQueue {
	return &orderQueue{latest: make(map[string]uint64)}
}

func (q *orderQueue) enqueue(scope string, job func(ctx context.Context) error, onErr func(scope string, err error)) {
	q.mu.Lock()
	q.latest[scope]++
	seq := q.latest[scope]
	q.mu.Unlock()

	q.pending.Add(1)
	go func() {
		defer q.pending.Done()

		q.run.Lock()
		defer q.run.Unlock()

		q.mu.Lock()
		superseded := q.latest[scope] != seq
		q.mu.Unlock()
		if superseded {
			return
		}

		if err := job(context.Background()); err != nil {
			onErr(scope, err)
		}
	}()
}

func (q *orderQueue) wait() {
	q.pending.Wait()
}

// WaitPersisted blocks until every queued reorder has been written or has
// failed.
func (s *TreeStore) WaitPersisted() {
	s.orders.wait()
}

func observeReorderFailure(a board.Adapter) {
	metrics.ObserveReorderPersistFailure(string(a.Backend()))
}
