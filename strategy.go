// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package keyp

import (
	"code.hybscloud.com/iox"
)

// Strategy is the pluggable acquire/release logic for one kind of
// synchronization primitive. Implementations are zero-size markers: no
// heap allocation, no captured state. Which strategy guards a [Locked]
// segment is a construction-time choice.
//
// Blocking acquisitions return (guard, true) on success and (zero, false)
// on a detected invalid state: a consumed [Cell] or a poisoned container.
// Busy primitives block rather than fail.
//
// Try acquisitions never block: they return [iox.ErrWouldBlock] while the
// primitive is merely busy, [ErrAbsent] for a consumed cell, and
// [ErrPoisoned] for a poisoned container.
type Strategy[L, P any] interface {
	Shared(l *L) (Guard[P], bool)
	Exclusive(l *L) (Guard[P], bool)
	TryShared(l *L) (Guard[P], error)
	TryExclusive(l *L) (Guard[P], error)
}

// MuStrategy acquires a [Mu] container. Exclusive-only: Shared degrades
// to Exclusive.
type MuStrategy[P any] struct{}

// Exclusive blocks until the mutex is held.
func (MuStrategy[P]) Exclusive(l *Mu[P]) (Guard[P], bool) {
	l.mu.Lock()
	if l.poisoned.Load() != 0 {
		l.mu.Unlock()
		return Guard[P]{}, false
	}
	return NewPoisonableGuard(&l.payload, l.mu.Unlock, func() { l.poisoned.Store(1) }), true
}

// Shared degrades to Exclusive: a plain mutex has no shared mode.
func (s MuStrategy[P]) Shared(l *Mu[P]) (Guard[P], bool) {
	return s.Exclusive(l)
}

// TryExclusive acquires without blocking.
func (MuStrategy[P]) TryExclusive(l *Mu[P]) (Guard[P], error) {
	if !l.mu.TryLock() {
		return Guard[P]{}, iox.ErrWouldBlock
	}
	if l.poisoned.Load() != 0 {
		l.mu.Unlock()
		return Guard[P]{}, ErrPoisoned
	}
	return NewPoisonableGuard(&l.payload, l.mu.Unlock, func() { l.poisoned.Store(1) }), nil
}

// TryShared degrades to TryExclusive.
func (s MuStrategy[P]) TryShared(l *Mu[P]) (Guard[P], error) {
	return s.TryExclusive(l)
}

// RWStrategy acquires an [RW] container: shared read locks in parallel,
// exclusive write locks alone.
type RWStrategy[P any] struct{}

// Shared blocks until a read lock is held.
func (RWStrategy[P]) Shared(l *RW[P]) (Guard[P], bool) {
	l.mu.RLock()
	if l.poisoned.Load() != 0 {
		l.mu.RUnlock()
		return Guard[P]{}, false
	}
	return NewGuard(&l.payload, l.mu.RUnlock), true
}

// Exclusive blocks until the write lock is held.
func (RWStrategy[P]) Exclusive(l *RW[P]) (Guard[P], bool) {
	l.mu.Lock()
	if l.poisoned.Load() != 0 {
		l.mu.Unlock()
		return Guard[P]{}, false
	}
	return NewPoisonableGuard(&l.payload, l.mu.Unlock, func() { l.poisoned.Store(1) }), true
}

// TryShared acquires a read lock without blocking.
func (RWStrategy[P]) TryShared(l *RW[P]) (Guard[P], error) {
	if !l.mu.TryRLock() {
		return Guard[P]{}, iox.ErrWouldBlock
	}
	if l.poisoned.Load() != 0 {
		l.mu.RUnlock()
		return Guard[P]{}, ErrPoisoned
	}
	return NewGuard(&l.payload, l.mu.RUnlock), nil
}

// TryExclusive acquires the write lock without blocking.
func (RWStrategy[P]) TryExclusive(l *RW[P]) (Guard[P], error) {
	if !l.mu.TryLock() {
		return Guard[P]{}, iox.ErrWouldBlock
	}
	if l.poisoned.Load() != 0 {
		l.mu.Unlock()
		return Guard[P]{}, ErrPoisoned
	}
	return NewPoisonableGuard(&l.payload, l.mu.Unlock, func() { l.poisoned.Store(1) }), nil
}

// CellStrategy acquires a [Cell] container. Never blocks: acquiring a
// taken or consumed cell is absence. Poisoning a cell guard consumes the
// payload, so the cell stays absent forever after.
type CellStrategy[P any] struct{}

// Exclusive takes the payload out of the slot.
func (CellStrategy[P]) Exclusive(l *Cell[P]) (Guard[P], bool) {
	g, err := take(l)
	return g, err == nil
}

// Shared degrades to Exclusive: a single-owner cell has one access mode.
func (s CellStrategy[P]) Shared(l *Cell[P]) (Guard[P], bool) {
	return s.Exclusive(l)
}

// TryExclusive takes the payload out of the slot; [ErrAbsent] when taken
// or consumed. Identical to Exclusive apart from the error form, since a
// cell never blocks.
func (CellStrategy[P]) TryExclusive(l *Cell[P]) (Guard[P], error) {
	return take(l)
}

// TryShared degrades to TryExclusive.
func (s CellStrategy[P]) TryShared(l *Cell[P]) (Guard[P], error) {
	return take(l)
}

// take moves the payload out of the cell slot into a box the guard
// mutates in place; release hands the boxed value back to the slot
// unless the guard was poisoned (consuming the payload).
func take[P any](l *Cell[P]) (Guard[P], error) {
	v, err := l.slot.Dequeue()
	if err != nil {
		return Guard[P]{}, ErrAbsent
	}
	box := new(P)
	*box = v
	consumed := false
	return NewPoisonableGuard(box,
		func() {
			if consumed {
				return
			}
			_ = l.slot.Enqueue(box)
		},
		func() { consumed = true },
	), nil
}
