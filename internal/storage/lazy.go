package storage

import (
	"sync/atomic"
)

type state uint32

const (
	notComputed state = iota
	computing
	recursionDetected
	postComputing
	computed
)

// Lazy is a value computed at most once, on first Force.
type Lazy[T any] struct {
	m           *Manager
	name        string
	compute     func() T
	onRecursion func(firstTime bool) T
	postCompute func(T)

	state atomic.Uint32
	value T
}

// NewLazy returns a cell whose recursion falls back to the manager's
// default handler.
func NewLazy[T any](m *Manager, name string, compute func() T) *Lazy[T] {
	return &Lazy[T]{m: m, name: name, compute: compute}
}

// NewLazyWithFallback returns a cell that answers recursive access with
// onRecursion. firstTime is true on the first recursive access only.
func NewLazyWithFallback[T any](m *Manager, name string, compute func() T, onRecursion func(firstTime bool) T) *Lazy[T] {
	return &Lazy[T]{m: m, name: name, compute: compute, onRecursion: onRecursion}
}

// NewRecursionTolerantLazy returns a cell that answers recursive access
// with a fixed value.
func NewRecursionTolerantLazy[T any](m *Manager, name string, compute func() T, onRecursion T) *Lazy[T] {
	return NewLazyWithFallback(m, name, compute, func(bool) T { return onRecursion })
}

// NewLazyWithPostCompute runs postCompute after compute, while still
// holding the lock. During postCompute the computing goroutine already
// sees the value; other goroutines wait until postCompute returns.
// A nil onRecursion uses the manager's default handler.
func NewLazyWithPostCompute[T any](m *Manager, name string, compute func() T, onRecursion func(firstTime bool) T, postCompute func(T)) *Lazy[T] {
	return &Lazy[T]{m: m, name: name, compute: compute, onRecursion: onRecursion, postCompute: postCompute}
}

// Force returns the cached value, computing it if necessary.
func (l *Lazy[T]) Force() T {
	if state(l.state.Load()) == computed {
		return l.value
	}
	var out T
	l.m.Compute(func() { out = l.forceLocked() })
	return out
}

// IsComputed reports whether Force will return without computing.
func (l *Lazy[T]) IsComputed() bool {
	return state(l.state.Load()) == computed
}

// IsComputing reports whether a computation is in progress.
func (l *Lazy[T]) IsComputing() bool {
	s := state(l.state.Load())
	return s == computing || s == recursionDetected || s == postComputing
}

func (l *Lazy[T]) forceLocked() T {
	switch state(l.state.Load()) {
	case computed, postComputing:
		return l.value
	case computing:
		l.state.Store(uint32(recursionDetected))
		return l.recursion(true)
	case recursionDetected:
		return l.recursion(false)
	}

	l.state.Store(uint32(computing))
	done := false
	defer func() {
		if !done {
			var zero T
			l.value = zero
			l.state.Store(uint32(notComputed))
		}
	}()

	v := l.compute()
	l.value = v
	if l.postCompute != nil {
		l.state.Store(uint32(postComputing))
		l.postCompute(v)
	}
	l.compute = nil
	l.state.Store(uint32(computed))
	done = true
	return v
}

func (l *Lazy[T]) recursion(firstTime bool) T {
	l.m.traceRecursion(l.name, firstTime)
	if l.onRecursion == nil {
		l.m.recursionDetected(l.name)
	}
	return l.onRecursion(firstTime)
}

// Computed wraps an already known value in a Lazy.
func Computed[T any](m *Manager, name string, v T) *Lazy[T] {
	l := &Lazy[T]{m: m, name: name, value: v}
	l.state.Store(uint32(computed))
	return l
}
