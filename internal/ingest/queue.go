package ingest

import (
	"sync"

	"github.com/gammazero/deque"
	"github.com/sentrytypes/sentrytypes/dsn"
)

// fairQueue holds jobs per project and hands them out one project at a
// time, so a busy project cannot starve the others.
type fairQueue struct {
	lk      sync.Mutex
	cond    *sync.Cond
	pending map[dsn.ProjectID]*deque.Deque[*job]
	order   *deque.Deque[dsn.ProjectID]
	length  int
	limit   int
	closed  bool
}

func newFairQueue(limit int) *fairQueue {
	q := &fairQueue{
		pending: make(map[dsn.ProjectID]*deque.Deque[*job]),
		order:   deque.New[dsn.ProjectID](),
		limit:   limit,
	}
	q.cond = sync.NewCond(&q.lk)
	return q
}

// Push adds a job and returns the queue length. It fails with ErrQueueFull
// when limit jobs are already waiting.
func (q *fairQueue) Push(j *job) (int, error) {
	q.lk.Lock()
	defer q.lk.Unlock()

	if q.closed {
		return q.length, ErrClosed
	}
	if q.limit > 0 && q.length >= q.limit {
		return q.length, ErrQueueFull
	}

	jobs, ok := q.pending[j.projectID]
	if !ok {
		jobs = deque.New[*job]()
		q.pending[j.projectID] = jobs
		q.order.PushBack(j.projectID)
	}
	jobs.PushBack(j)
	q.length++
	q.cond.Signal()
	return q.length, nil
}

// Pop waits for a job and takes it from the project at the front of the
// queue. That project goes to the back if it has more jobs. After Close, Pop
// returns the remaining jobs and then false.
func (q *fairQueue) Pop() (*job, bool) {
	q.lk.Lock()
	defer q.lk.Unlock()

	for q.length == 0 {
		if q.closed {
			return nil, false
		}
		q.cond.Wait()
	}

	projectID := q.order.PopFront()
	jobs := q.pending[projectID]
	j := jobs.PopFront()
	if jobs.Len() == 0 {
		delete(q.pending, projectID)
	} else {
		q.order.PushBack(projectID)
	}
	q.length--
	return j, true
}

func (q *fairQueue) Len() int {
	q.lk.Lock()
	defer q.lk.Unlock()
	return q.length
}

// Close stops new jobs from being added and wakes waiting workers.
func (q *fairQueue) Close() {
	q.lk.Lock()
	q.closed = true
	q.lk.Unlock()
	q.cond.Broadcast()
}
