package queue

import (
	"github.com/pkg/errors"
)

var ErrQueueEmpty = errors.New("queue is empty")

type Queue[T any] interface {
	Enqueue(v T)
	Dequeue() (T, error)
	Peek() (T, error)
	Len() int
}

// SliceQueue is a FIFO queue over a slice. Dequeued slots are released
// so long-lived queues do not pin their elements.
type SliceQueue[T any] struct {
	queue []T
}

func New[T any](initial ...T) *SliceQueue[T] {
	q := &SliceQueue[T]{queue: make([]T, 0, len(initial))}
	q.queue = append(q.queue, initial...)
	return q
}

var _ Queue[int] = (*SliceQueue[int])(nil)

func (q *SliceQueue[T]) Enqueue(v T) {
	q.queue = append(q.queue, v)
}

func (q *SliceQueue[T]) Dequeue() (T, error) {
	var zero T
	if len(q.queue) == 0 {
		return zero, ErrQueueEmpty
	}

	v := q.queue[0]
	q.queue[0] = zero
	q.queue = q.queue[1:]

	return v, nil
}

func (q *SliceQueue[T]) Peek() (T, error) {
	if len(q.queue) == 0 {
		var zero T
		return zero, ErrQueueEmpty
	}
	return q.queue[0], nil
}

func (q *SliceQueue[T]) Len() int { return len(q.queue) }
