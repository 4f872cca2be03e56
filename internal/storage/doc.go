// Package storage provides the lazily computed, cached values every
// descriptor is built from.
//
// All cells created from one Manager share a single reentrant lock. A
// computation may force other cells of the same manager on the same
// goroutine; other goroutines block until the outermost computation
// returns. Re-entering a cell that is still computing is a recursion: the
// cell's onRecursion callback decides the value (it is not cached), or the
// manager's default handler panics with a fault.PreconditionError.
//
// Computed values are published with an atomic state store, so reading a
// computed cell never takes the lock.
package storage
