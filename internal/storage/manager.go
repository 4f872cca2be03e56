package storage

import (
	"sync"

	"descgraph/internal/fault"
	"descgraph/internal/trace"
)

// Config configures a Manager.
type Config struct {
	// Name appears in recursion panics and trace events.
	Name string
	// Tracer receives lazy.recursion points. Nil means trace.Nop.
	Tracer trace.Tracer
}

// Manager owns the storage-wide lock shared by its cells.
type Manager struct {
	name   string
	tracer trace.Tracer

	mu    sync.Mutex
	cond  *sync.Cond
	owner uint64 // goroutine holding the lock, 0 if free
	depth int
}

func NewManager(cfg Config) *Manager {
	if cfg.Tracer == nil {
		cfg.Tracer = trace.Nop
	}
	if cfg.Name == "" {
		cfg.Name = "storage"
	}
	m := &Manager{name: cfg.Name, tracer: cfg.Tracer}
	m.cond = sync.NewCond(&m.mu)
	return m
}

func (m *Manager) Name() string { return m.name }

// Compute runs fn while holding the storage lock. Calls nest on the same
// goroutine. The lock is released even if fn panics.
func (m *Manager) Compute(fn func()) {
	m.lock()
	defer m.unlock()
	fn()
}

func (m *Manager) lock() {
	gid := trace.GoroutineID()
	m.mu.Lock()
	for m.depth > 0 && m.owner != gid {
		m.cond.Wait()
	}
	m.owner = gid
	m.depth++
	m.mu.Unlock()
}

func (m *Manager) unlock() {
	m.mu.Lock()
	m.depth--
	if m.depth == 0 {
		m.owner = 0
		m.cond.Broadcast()
	}
	m.mu.Unlock()
}

// heldByCurrent reports whether the calling goroutine owns the lock.
func (m *Manager) heldByCurrent() bool {
	gid := trace.GoroutineID()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.depth > 0 && m.owner == gid
}

func (m *Manager) traceRecursion(cell string, firstTime bool) {
	if !firstTime {
		return
	}
	trace.Point(m.tracer, trace.ScopeLazy, "lazy.recursion", cell, map[string]string{"manager": m.name})
}

// recursionDetected is the default handler for cells without onRecursion.
func (m *Manager) recursionDetected(cell string) {
	panic(fault.Precondition("recursion detected on %s in storage manager %s", cell, m.name))
}
