// Package coro wraps a stealthrocket coroutine with a cancellable,
// stateful API.
//
// The body suspends in Yield and the caller drives it with Start, Resume
// and Throw. Exactly one side runs at a time. A throw is delivered as the
// return value of the pending Yield, so the body unwinds through its own
// error returns and deferred calls.
package coro

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/stealthrocket/coroutine"
)

var (
	ErrTerminated = errors.New("coroutine is terminated")
	ErrStarted    = errors.New("coroutine is already started")
)

type State uint8

const (
	StateConfigured State = iota
	StateRunning
	StateSuspended
	StateCompleted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateConfigured:
		return "configured"
	case StateRunning:
		return "running"
	case StateSuspended:
		return "suspended"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

func (s State) Terminated() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Coroutine yields values of type T and is resumed with a nil error or a
// cancellation signal.
type Coroutine[T any] struct {
	body func(y *Yielder[T]) error

	// Created on start, so an unstarted coroutine holds no goroutine.
	co   coroutine.Coroutine[T, error]
	done chan struct{}

	// Written by the body, read by the caller once Next reports the end.
	err    error
	signal error

	state State
	mu    sync.Mutex // guards state and serializes callers.
}

func New[T any](body func(y *Yielder[T]) error) *Coroutine[T] {
	return &Coroutine[T]{
		body:  body,
		done:  make(chan struct{}),
		state: StateConfigured,
	}
}

// Start runs the body until its first yield or until it returns.
// ok is false when the body returned without yielding.
func (c *Coroutine[T]) Start() (v T, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateConfigured {
		return v, false, ErrStarted
	}
	return c.startLocked()
}

func (c *Coroutine[T]) startLocked() (T, bool, error) {
	c.state = StateRunning
	c.co = coroutine.New[T, error](c.run)
	return c.nextLocked()
}

// Resume continues a suspended coroutine until its next yield or until the
// body returns. An unstarted coroutine is started.
func (c *Coroutine[T]) Resume() (v T, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.state == StateConfigured:
		return c.startLocked()
	case c.state.Terminated():
		return v, false, ErrTerminated
	}

	c.state = StateRunning
	c.co.Send(nil)
	return c.nextLocked()
}

// Throw injects signal at the current suspension point and waits for the
// body to unwind. Once thrown, every later Yield returns signal without
// suspending. The body returning signal (or an error wrapping it) counts as
// a clean cancellation and yields a nil error.
func (c *Coroutine[T]) Throw(signal error) error {
	if signal == nil {
		return errors.New("cancellation signal must not be nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.state == StateConfigured:
		// Body never ran, so there is nothing to unwind.
		c.signal = signal
		c.state = StateCancelled
		close(c.done)
		return nil
	case c.state.Terminated():
		return ErrTerminated
	}

	c.state = StateRunning
	c.signal = signal
	c.co.Send(signal)
	_, _, err := c.nextLocked()
	if err != nil && errors.Is(err, signal) {
		return nil
	}
	return err
}

func (c *Coroutine[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coroutine[T]) Terminated() bool { return c.State().Terminated() }

// Done is closed once the body has returned.
func (c *Coroutine[T]) Done() <-chan struct{} { return c.done }

func (c *Coroutine[T]) run() {
	defer close(c.done)
	defer func() {
		if e := recover(); e != nil {
			c.err = errors.Errorf("coroutine panicked: %v", e)
		}
	}()

	c.err = c.body(&Yielder[T]{c: c})
}

func (c *Coroutine[T]) nextLocked() (v T, ok bool, err error) {
	if c.co.Next() {
		c.state = StateSuspended
		return c.co.Recv(), true, nil
	}

	switch {
	case c.signal != nil:
		c.state = StateCancelled
	case c.err != nil:
		c.state = StateFailed
	default:
		c.state = StateCompleted
	}

	return v, false, c.err
}

// Yielder is handed to the body and is only valid on the body's goroutine.
type Yielder[T any] struct{ c *Coroutine[T] }

// Yield suspends the body and hands v to the caller. It returns nil when the
// caller resumes, or the cancellation signal when the caller throws.
func (y *Yielder[T]) Yield(v T) error {
	if signal := y.c.signal; signal != nil {
		return signal
	}
	return coroutine.Yield[T, error](v)
}
