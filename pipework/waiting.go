package pipework

import (
	"slices"
)

// waiter is a sender or receiver parked on an endpoint until a counterpart
// arrives.
//
// All fields other than done are guarded by the endpoint's domain lock.
// Whoever completes a waiter writes msg (for a receiver) before closing
// done, so the parked goroutine may read msg without the lock once done is
// closed.
type waiter[T any] struct {
	msg       T
	done      chan struct{}
	completed bool
}

func newWaiter[T any](msg T) *waiter[T] {
	return &waiter[T]{
		msg:  msg,
		done: make(chan struct{}),
	}
}

func (w *waiter[T]) complete() {
	w.completed = true
	close(w.done)
}

// waitQueue holds parked parties in arrival order.
type waitQueue[T any] struct {
	items []*waiter[T]
}

func (q *waitQueue[T]) push(w *waiter[T]) {
	q.items = append(q.items, w)
}

func (q *waitQueue[T]) front() *waiter[T] {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

func (q *waitQueue[T]) remove(w *waiter[T]) bool {
	i := slices.Index(q.items, w)
	if i < 0 {
		return false
	}
	q.items = slices.Delete(q.items, i, i+1)
	return true
}

func (q *waitQueue[T]) len() int {
	return len(q.items)
}
