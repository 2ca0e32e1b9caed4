// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package keyp

import "context"

// AsyncLocked is the suspension-model counterpart of [Locked]: each lock
// segment parks the calling goroutine instead of spinning it, and the
// context cancels a pending acquisition. Once a chain contains an async
// segment, every operation on it is asynchronous; there is no way back to
// the synchronous surface within one chain.
//
// Errors: [ErrAbsent] for a missed path, [ErrPoisoned] for a poisoned
// container, ctx.Err() for cancellation. Acquisition order is the literal
// composition order, outermost first; suspension never reorders which
// lock is requested first.
type AsyncLocked[R, V any] struct {
	view   func(ctx context.Context, r *R, f func(*V)) error
	update func(ctx context.Context, r *R, f func(*V)) error
}

// NewAsyncLocked creates a one-segment async lock accessor from the
// outer-accessor/strategy/inner-accessor triple.
func NewAsyncLocked[R, L, M, V any](outer Key[R, L], s AsyncStrategy[L, M], inner Key[M, V]) AsyncLocked[R, V] {
	return AsyncLocked[R, V]{
		view: func(ctx context.Context, r *R, f func(*V)) error {
			l, ok := outer.Get(r)
			if !ok {
				return ErrAbsent
			}
			g, err := s.Shared(ctx, l)
			if err != nil {
				return err
			}
			return inAsyncSection(&g, inner.Get, f, false)
		},
		update: func(ctx context.Context, r *R, f func(*V)) error {
			l, ok := outer.Get(r)
			if !ok {
				return ErrAbsent
			}
			g, err := s.Exclusive(ctx, l)
			if err != nil {
				return err
			}
			return inAsyncSection(&g, inner.GetMut, f, true)
		},
	}
}

// inAsyncSection is the async analog of inSection: apply inside the
// critical section, release on all paths, poison on panic out of an
// exclusive section.
func inAsyncSection[M, V any](g *Guard[M], resolve func(*M) (*V, bool), f func(*V), excl bool) error {
	defer func() {
		if r := recover(); r != nil {
			if excl {
				g.Poison()
			}
			g.Release()
			panic(r)
		}
	}()
	v, ok := resolve(g.Payload())
	if ok {
		f(v)
	}
	g.Release()
	if !ok {
		return ErrAbsent
	}
	return nil
}

// View runs f on the value while shared access is held.
func (k AsyncLocked[R, V]) View(ctx context.Context, r *R, f func(*V)) error {
	return k.view(ctx, r, f)
}

// Update runs f on the value while exclusive access is held.
func (k AsyncLocked[R, V]) Update(ctx context.Context, r *R, f func(*V)) error {
	return k.update(ctx, r, f)
}

// Get returns an owned shallow copy of the value, taken while shared
// access was held.
func (k AsyncLocked[R, V]) Get(ctx context.Context, r *R) (V, error) {
	var v V
	err := k.view(ctx, r, func(p *V) { v = *p })
	return v, err
}

// Set replaces the value with update(old) while exclusive access is held.
func (k AsyncLocked[R, V]) Set(ctx context.Context, r *R, update func(V) V) error {
	return k.update(ctx, r, func(p *V) { *p = update(*p) })
}

// ComposeAsync sequences two async lock accessors; b runs entirely inside
// a's critical section, so a's locks are requested strictly before b's.
// Cancellation between the two leaves b's lock never acquired.
func ComposeAsync[R, V, W any](a AsyncLocked[R, V], b AsyncLocked[V, W]) AsyncLocked[R, W] {
	return AsyncLocked[R, W]{
		view: func(ctx context.Context, r *R, f func(*W)) error {
			inner := ErrAbsent
			if err := a.view(ctx, r, func(v *V) { inner = b.view(ctx, v, f) }); err != nil {
				return err
			}
			return inner
		},
		update: func(ctx context.Context, r *R, f func(*W)) error {
			inner := ErrAbsent
			if err := a.update(ctx, r, func(v *V) { inner = b.update(ctx, v, f) }); err != nil {
				return err
			}
			return inner
		},
	}
}

// AsyncLockThen extends an async lock accessor with a plain accessor
// applied inside the critical section.
func AsyncLockThen[R, V, W any](k AsyncLocked[R, V], next Key[V, W]) AsyncLocked[R, W] {
	return AsyncLocked[R, W]{
		view: func(ctx context.Context, r *R, f func(*W)) error {
			inner := ErrAbsent
			if err := k.view(ctx, r, func(v *V) {
				if w, ok := next.Get(v); ok {
					inner = nil
					f(w)
				}
			}); err != nil {
				return err
			}
			return inner
		},
		update: func(ctx context.Context, r *R, f func(*W)) error {
			inner := ErrAbsent
			if err := k.update(ctx, r, func(v *V) {
				if w, ok := next.GetMut(v); ok {
					inner = nil
					f(w)
				}
			}); err != nil {
				return err
			}
			return inner
		},
	}
}

// ThenAsyncLock prefixes an async lock accessor with a plain accessor
// resolved before any lock is touched; prefix absence never invokes the
// strategy.
func ThenAsyncLock[R, V, W any](pre Key[R, V], k AsyncLocked[V, W]) AsyncLocked[R, W] {
	return AsyncLocked[R, W]{
		view: func(ctx context.Context, r *R, f func(*W)) error {
			v, ok := pre.Get(r)
			if !ok {
				return ErrAbsent
			}
			return k.view(ctx, v, f)
		},
		update: func(ctx context.Context, r *R, f func(*W)) error {
			v, ok := pre.Get(r)
			if !ok {
				return ErrAbsent
			}
			return k.update(ctx, v, f)
		},
	}
}

// SyncToAsync raises a synchronous lock accessor into the asynchronous
// world. The explicit one-way crossing: acquisition still blocks (the
// underlying primitive is synchronous), but a context already cancelled
// before the segment is entered prevents any acquisition.
func SyncToAsync[R, V any](k Locked[R, V]) AsyncLocked[R, V] {
	return AsyncLocked[R, V]{
		view: func(ctx context.Context, r *R, f func(*V)) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !k.view(r, f) {
				return ErrAbsent
			}
			return nil
		},
		update: func(ctx context.Context, r *R, f func(*V)) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !k.update(r, f) {
				return ErrAbsent
			}
			return nil
		},
	}
}

// ComposeSyncAsync sequences a synchronous outer segment with an
// asynchronous inner one. The result is asynchronous: the chain has
// crossed into the async world and stays there.
func ComposeSyncAsync[R, V, W any](a Locked[R, V], b AsyncLocked[V, W]) AsyncLocked[R, W] {
	return ComposeAsync(SyncToAsync(a), b)
}

// ComposeAsyncSync sequences an asynchronous outer segment with a
// synchronous inner one. The inner acquisition blocks inside the outer
// critical section; the chain as a whole remains asynchronous.
func ComposeAsyncSync[R, V, W any](a AsyncLocked[R, V], b Locked[V, W]) AsyncLocked[R, W] {
	return ComposeAsync(a, SyncToAsync(b))
}
