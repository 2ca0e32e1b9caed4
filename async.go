// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package keyp

import (
	"context"

	"code.hybscloud.com/atomix"
	"golang.org/x/sync/semaphore"
)

// AsyncStrategy is the suspension-model counterpart of [Strategy]: the
// calling goroutine parks while waiting, and the context is the
// cancellation surface. Cancellation while parked returns ctx.Err() with
// the lock never acquired; a cancelled acquisition never partially holds
// a primitive. Invalid states surface as [ErrAbsent] or [ErrPoisoned].
type AsyncStrategy[L, P any] interface {
	Shared(ctx context.Context, l *L) (Guard[P], error)
	Exclusive(ctx context.Context, l *L) (Guard[P], error)
}

// AsyncMu is the suspension-model exclusive-lock container, backed by a
// weighted semaphore so waiters park and honor cancellation.
type AsyncMu[P any] struct {
	sem      *semaphore.Weighted
	poisoned atomix.Uint32
	payload  P
}

// NewAsyncMu creates a suspension-model exclusive-lock container guarding p.
func NewAsyncMu[P any](p P) *AsyncMu[P] {
	return &AsyncMu[P]{sem: semaphore.NewWeighted(1), payload: p}
}

// maxShared bounds concurrent shared holders of an [AsyncRW]. Exclusive
// acquisition takes the full weight, excluding every shared holder.
const maxShared = 1 << 30

// AsyncRW is the suspension-model shared/exclusive-lock container:
// shared holders take one unit of a weighted semaphore, an exclusive
// holder takes all of them.
type AsyncRW[P any] struct {
	sem      *semaphore.Weighted
	poisoned atomix.Uint32
	payload  P
}

// NewAsyncRW creates a suspension-model shared/exclusive-lock container
// guarding p.
func NewAsyncRW[P any](p P) *AsyncRW[P] {
	return &AsyncRW[P]{sem: semaphore.NewWeighted(maxShared), payload: p}
}

// AsyncCell is the suspension-model single-owner cell: a one-slot channel
// hand-off. Acquisition takes the payload out of the slot, parking until
// it is available or the context is cancelled; poisoning consumes the
// payload and closes the slot, so the cell is absent forever and parked
// waiters wake with [ErrAbsent] instead of waiting on a payload that can
// never return. Unlike [Cell], the slot is a channel, so contending
// goroutines are safe.
type AsyncCell[P any] struct {
	slot     chan P
	consumed atomix.Uint32
}

// NewAsyncCell creates a suspension-model cell holding p.
func NewAsyncCell[P any](p P) *AsyncCell[P] {
	c := &AsyncCell[P]{slot: make(chan P, 1)}
	c.slot <- p
	return c
}

// AsyncMuStrategy acquires an [AsyncMu]. Exclusive-only: Shared degrades
// to Exclusive.
type AsyncMuStrategy[P any] struct{}

// Exclusive parks until the semaphore unit is held or ctx is cancelled.
func (AsyncMuStrategy[P]) Exclusive(ctx context.Context, l *AsyncMu[P]) (Guard[P], error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return Guard[P]{}, err
	}
	if l.poisoned.Load() != 0 {
		l.sem.Release(1)
		return Guard[P]{}, ErrPoisoned
	}
	return NewPoisonableGuard(&l.payload,
		func() { l.sem.Release(1) },
		func() { l.poisoned.Store(1) },
	), nil
}

// Shared degrades to Exclusive.
func (s AsyncMuStrategy[P]) Shared(ctx context.Context, l *AsyncMu[P]) (Guard[P], error) {
	return s.Exclusive(ctx, l)
}

// AsyncRWStrategy acquires an [AsyncRW]: shared holders in parallel,
// exclusive alone.
type AsyncRWStrategy[P any] struct{}

// Shared parks until one semaphore unit is held or ctx is cancelled.
func (AsyncRWStrategy[P]) Shared(ctx context.Context, l *AsyncRW[P]) (Guard[P], error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return Guard[P]{}, err
	}
	if l.poisoned.Load() != 0 {
		l.sem.Release(1)
		return Guard[P]{}, ErrPoisoned
	}
	return NewGuard(&l.payload, func() { l.sem.Release(1) }), nil
}

// Exclusive parks until the full semaphore weight is held or ctx is
// cancelled.
func (AsyncRWStrategy[P]) Exclusive(ctx context.Context, l *AsyncRW[P]) (Guard[P], error) {
	if err := l.sem.Acquire(ctx, maxShared); err != nil {
		return Guard[P]{}, err
	}
	if l.poisoned.Load() != 0 {
		l.sem.Release(maxShared)
		return Guard[P]{}, ErrPoisoned
	}
	return NewPoisonableGuard(&l.payload,
		func() { l.sem.Release(maxShared) },
		func() { l.poisoned.Store(1) },
	), nil
}

// AsyncCellStrategy acquires an [AsyncCell], parking until the payload is
// in the slot. Exclusive-only: Shared degrades to Exclusive.
type AsyncCellStrategy[P any] struct{}

// Exclusive takes the payload out of the slot, parking until it is
// available or ctx is cancelled.
func (AsyncCellStrategy[P]) Exclusive(ctx context.Context, l *AsyncCell[P]) (Guard[P], error) {
	if l.consumed.Load() != 0 {
		return Guard[P]{}, ErrAbsent
	}
	select {
	case v, ok := <-l.slot:
		if !ok {
			return Guard[P]{}, ErrAbsent
		}
		box := new(P)
		*box = v
		return NewPoisonableGuard(box,
			func() {
				if l.consumed.Load() != 0 {
					return
				}
				l.slot <- *box
			},
			func() {
				if l.consumed.Add(1) == 1 {
					close(l.slot)
				}
			},
		), nil
	case <-ctx.Done():
		return Guard[P]{}, ctx.Err()
	}
}

// Shared degrades to Exclusive.
func (s AsyncCellStrategy[P]) Shared(ctx context.Context, l *AsyncCell[P]) (Guard[P], error) {
	return s.Exclusive(ctx, l)
}
