package assets

import (
	"context"
	"fmt"
)

// State is the lifecycle of an asynchronously loaded resource.
type State int

const (
	StatePending State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type result[T any] struct {
	value T
	err   error
}

// Resource is a value loaded on a background goroutine and polled by its
// owner. Only the owner calls its methods; the loader goroutine hands the
// result over through a channel.
type Resource[T any] struct {
	load  func() (T, error)
	done  chan result[T]
	state State
	value T
	err   error
	loads int
}

// LoadAsync starts load on a new goroutine and returns the pending resource.
func LoadAsync[T any](load func() (T, error)) *Resource[T] {
	r := &Resource[T]{load: load}
	r.start()
	return r
}

// Ready wraps an already available value.
func Ready[T any](value T) *Resource[T] {
	return &Resource[T]{state: StateReady, value: value}
}

func (r *Resource[T]) start() {
	r.state = StatePending
	r.err = nil
	r.loads++
	done := make(chan result[T], 1)
	r.done = done
	load := r.load
	go func() {
		v, err := load()
		done <- result[T]{value: v, err: err}
	}()
}

// Poll collects a finished load without blocking and reports the state.
func (r *Resource[T]) Poll() State {
	if r.state != StatePending {
		return r.state
	}
	select {
	case res := <-r.done:
		r.finish(res)
	default:
	}
	return r.state
}

func (r *Resource[T]) finish(res result[T]) {
	r.done = nil
	if res.err != nil {
		r.state = StateFailed
		r.err = res.err
		return
	}
	r.state = StateReady
	r.value = res.value
}

// Get polls and returns the value, ErrPending while loading, or the load
// error.
func (r *Resource[T]) Get() (T, error) {
	var zero T
	switch r.Poll() {
	case StateReady:
		return r.value, nil
	case StateFailed:
		return zero, r.err
	default:
		return zero, ErrPending
	}
}

// Err returns the load error of a failed resource.
func (r *Resource[T]) Err() error {
	return r.err
}

// Loads returns how many times the loader was started.
func (r *Resource[T]) Loads() int {
	return r.loads
}

// Wait blocks until the load finishes or ctx is done. Tools and tests use it;
// the frame loop polls instead.
func (r *Resource[T]) Wait(ctx context.Context) (T, error) {
	if r.state == StatePending {
		select {
		case res := <-r.done:
			r.finish(res)
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
	return r.Get()
}

// Reload restarts the loader unless a load is already in flight or the
// resource has no loader. Returns true if a new load started.
func (r *Resource[T]) Reload() bool {
	if r.load == nil || r.Poll() == StatePending {
		return false
	}
	r.start()
	return true
}
