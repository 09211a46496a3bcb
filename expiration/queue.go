package expiration

import "time"

type task[K comparable] struct {
	key   K
	token Token
	at    time.Time
	index int
}

// taskQueue implements heap.Interface ordered by deadline.
type taskQueue[K comparable] []*task[K]

func (q taskQueue[K]) Len() int { return len(q) }

func (q taskQueue[K]) Less(i, j int) bool {
	if q[i].at.Equal(q[j].at) {
		return q[i].token < q[j].token
	}
	return q[i].at.Before(q[j].at)
}

func (q taskQueue[K]) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue[K]) Push(x any) {
	t := x.(*task[K])
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *taskQueue[K]) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}
