// Package queue provides an unbounded FIFO shared between goroutines.
package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var ErrClosed = errors.New("queue is closed")

// Queue is an unbounded FIFO. A pump goroutine owns the backing slice: Push hands items to it
// over one channel and Pop takes the oldest item from another, so no lock guards the slice.
type Queue[T any] struct {
	in       chan T
	out      chan T
	done     chan struct{}
	size     atomic.Int64
	once     sync.Once
	dropOnce sync.Once
}

func New[T any]() *Queue[T] {
	q := &Queue[T]{
		in:   make(chan T),
		out:  make(chan T),
		done: make(chan struct{}),
	}
	go q.pump()
	return q
}

func (q *Queue[T]) pump() {
	defer close(q.out)

	var zero T
	var pending []T
	in := q.in
	for {
		select {
		case <-q.done:
			return
		default:
		}
		if len(pending) == 0 {
			if in == nil {
				return
			}
			select {
			case item, ok := <-in:
				if !ok {
					in = nil
					continue
				}
				pending = append(pending, item)
			case <-q.done:
				return
			}
			continue
		}
		select {
		case item, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			pending = append(pending, item)
		case q.out <- pending[0]:
			pending[0] = zero
			pending = pending[1:]
		case <-q.done:
			return
		}
	}
}

// Push appends item. It never waits for a consumer. Pushing to a closed queue panics.
func (q *Queue[T]) Push(item T) {
	q.size.Add(1)
	q.in <- item
}

// Pop removes and returns the oldest item, blocking until there is one. Once the queue is
// closed and drained it returns the zero value.
func (q *Queue[T]) Pop() T {
	item, ok := <-q.out
	if ok {
		q.size.Add(-1)
	}
	return item
}

// PopContext is Pop that gives up when ctx is done. It returns ErrClosed once a closed
// queue has been drained.
func (q *Queue[T]) PopContext(ctx context.Context) (T, error) {
	var zero T
	select {
	case item, ok := <-q.out:
		if !ok {
			return zero, ErrClosed
		}
		q.size.Add(-1)
		return item, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// IsEmpty reports whether no item is waiting. It is only meaningful once every producer
// has returned from Push.
func (q *Queue[T]) IsEmpty() bool {
	return q.size.Load() == 0
}

// Len is the number of items pushed and not yet popped.
func (q *Queue[T]) Len() int {
	return int(q.size.Load())
}

// Close stops accepting items. Items already pushed can still be popped.
func (q *Queue[T]) Close() {
	q.once.Do(func() { close(q.in) })
}

// Discard closes the queue and drops whatever is still waiting, which lets the pump
// goroutine exit even if nobody pops again. Pop then returns the zero value.
func (q *Queue[T]) Discard() {
	q.Close()
	q.dropOnce.Do(func() {
		close(q.done)
		q.size.Store(0)
	})
}
