package expiration

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/karupanerura/identity-cache/internal/panicutil"
)

// Token identifies a scheduled task. The zero Token never identifies a task.
type Token uint64

// Scheduler runs one-shot expiration tasks keyed by K on a single background goroutine.
// It is safe for concurrent use.
//
// The delay queue and the per-key task registry share one mutex, so Schedule and Cancel
// are serialized across all keys. The lock is held only for a heap operation.
//
// The worker sleeps on a wall-clock timer until the earliest deadline as reported by
// the configured now function. When now does not follow wall time, call Wake after
// moving it so the worker re-reads it.
type Scheduler[K comparable] struct {
	onExpire func(K, Token)
	now      func() time.Time
	onPanic  func(error)

	mu     sync.Mutex
	queue  taskQueue[K]
	tasks  map[K]*task[K]
	last   Token
	closed bool

	wake      chan struct{}
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// NewScheduler creates a new scheduler and launches its background worker.
// onExpire is called on the worker goroutine, without any scheduler lock held, once per fired task.
// The worker runs until Close is called.
func NewScheduler[K comparable](onExpire func(K, Token), opts ...Option) *Scheduler[K] {
	options := defaultOptions()
	for _, opt := range opts {
		opt.apply(&options)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler[K]{
		onExpire: onExpire,
		now:      options.now,
		onPanic:  options.onPanic,
		queue:    make(taskQueue[K], 0, options.capacity),
		tasks:    make(map[K]*task[K], options.capacity),
		wake:     make(chan struct{}, 1),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

// Schedule arms a one-shot task that fires for the key after the given delay.
// A pending task for the same key is cancelled first.
// It returns the zero Token without arming anything once the scheduler is closed.
func (s *Scheduler[K]) Schedule(key K, after time.Duration) Token {
	return s.ScheduleAt(key, s.now().Add(after))
}

// ScheduleAt is like Schedule but takes the deadline itself.
// A deadline that has already passed fires on the next run of the worker.
func (s *Scheduler[K]) ScheduleAt(key K, at time.Time) Token {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0
	}

	if old, ok := s.tasks[key]; ok {
		heap.Remove(&s.queue, old.index)
	}
	s.last++
	t := &task[K]{key: key, token: s.last, at: at}
	heap.Push(&s.queue, t)
	s.tasks[key] = t
	head := s.queue[0] == t
	s.mu.Unlock()

	if head {
		s.notify()
	}
	return t.token
}

// Cancel cancels the pending task for the key.
// It reports whether a pending task was cancelled.
// A task that the worker has already picked up cannot be cancelled.
func (s *Scheduler[K]) Cancel(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[key]
	if !ok {
		return false
	}
	heap.Remove(&s.queue, t.index)
	delete(s.tasks, key)
	return true
}

// Pending returns the number of armed tasks.
func (s *Scheduler[K]) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.tasks)
}

// Close drops every pending task and stops the background worker.
// It waits for a callback in progress to return, so it must not be called from onExpire.
func (s *Scheduler[K]) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.queue = nil
		clear(s.tasks)
		s.mu.Unlock()

		s.cancel()
		<-s.done
	})
}

// Wake makes the worker re-read the current time and fire every task that is due.
// It never blocks.
func (s *Scheduler[K]) Wake() {
	s.notify()
}

func (s *Scheduler[K]) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// run is the worker loop.
func (s *Scheduler[K]) run(ctx context.Context) {
	defer close(s.done)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		due, wait, armed := s.popExpired()
		for _, t := range due {
			panicutil.Guard(func() {
				s.onExpire(t.key, t.token)
			}, s.onPanic)()
		}
		if len(due) != 0 {
			continue
		}

		var fired <-chan time.Time
		if armed {
			timer.Reset(wait)
			fired = timer.C
		}
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		case <-fired:
		}
		timer.Stop()
	}
}

// popExpired removes the tasks whose deadline has passed.
// It also returns the time until the next deadline, if any task is left.
func (s *Scheduler[K]) popExpired() (due []*task[K], wait time.Duration, armed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for len(s.queue) != 0 && !s.queue[0].at.After(now) {
		t := heap.Pop(&s.queue).(*task[K])
		delete(s.tasks, t.key)
		due = append(due, t)
	}
	if len(s.queue) != 0 {
		return due, s.queue[0].at.Sub(now), true
	}
	return due, 0, false
}
