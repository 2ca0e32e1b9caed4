// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package keyp

// Locked is an accessor whose path crosses one or more lock segments.
// The critical section is a scoped callback: the callback runs while
// every guard along the path is held, and no reference escapes a guard's
// lifetime. Each View/Update call is its own acquire→apply→release state
// machine; no lock state persists across calls.
//
// Acquisition order is the literal composition order, outermost first.
type Locked[R, V any] struct {
	view   func(r *R, f func(*V)) bool
	update func(r *R, f func(*V)) bool
}

// NewLocked creates a one-segment lock accessor from the triple: outer
// accessor to the lock container, strategy for the container's primitive,
// inner accessor applied to the guarded payload.
//
// The outer read path is used for both View and Update, since locking
// needs no mutable access to the container, so a [ReadOnly] outer works.
// Update requires the inner accessor's write path.
func NewLocked[R, L, M, V any](outer Key[R, L], s Strategy[L, M], inner Key[M, V]) Locked[R, V] {
	return Locked[R, V]{
		view: func(r *R, f func(*V)) bool {
			l, ok := outer.Get(r)
			if !ok {
				return false
			}
			g, ok := s.Shared(l)
			if !ok {
				return false
			}
			return inSection(&g, inner.Get, f, false)
		},
		update: func(r *R, f func(*V)) bool {
			l, ok := outer.Get(r)
			if !ok {
				return false
			}
			g, ok := s.Exclusive(l)
			if !ok {
				return false
			}
			return inSection(&g, inner.GetMut, f, true)
		},
	}
}

// inSection applies the inner resolution and callback while g is held,
// releasing on every path. A panic out of an exclusive section poisons
// the container before the guard drops, then rethrows.
func inSection[M, V any](g *Guard[M], resolve func(*M) (*V, bool), f func(*V), excl bool) bool {
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
	return ok
}

// View runs f on the value while shared access is held.
// Reports false when any segment of the path is absent; f is then not
// invoked and no later segment is touched.
func (k Locked[R, V]) View(r *R, f func(*V)) bool {
	return k.view(r, f)
}

// Update runs f on the value while exclusive access is held.
// Release is deterministic on all paths, including absence and panic.
func (k Locked[R, V]) Update(r *R, f func(*V)) bool {
	return k.update(r, f)
}

// Get returns an owned shallow copy of the value, taken while shared
// access was held. The copy is a plain Go assignment; the payload's own
// duplication logic is never invoked.
func (k Locked[R, V]) Get(r *R) (V, bool) {
	var v V
	ok := k.view(r, func(p *V) { v = *p })
	return v, ok
}

// Set replaces the value with update(old) while exclusive access is held.
func (k Locked[R, V]) Set(r *R, update func(V) V) bool {
	return k.update(r, func(p *V) { *p = update(*p) })
}

// Compose sequences two lock accessors: b runs entirely inside a's
// critical section, so a's locks are acquired strictly before b's and
// released strictly after. Compose(a, b) always orders a before b; two
// independently built chains touching the same locks in opposite orders
// can deadlock, which keyp does not detect.
//
// Compose is associative in both the final value and the total
// acquisition order.
func Compose[R, V, W any](a Locked[R, V], b Locked[V, W]) Locked[R, W] {
	return Locked[R, W]{
		view: func(r *R, f func(*W)) bool {
			ok := false
			a.view(r, func(v *V) { ok = b.view(v, f) })
			return ok
		},
		update: func(r *R, f func(*W)) bool {
			ok := false
			a.update(r, func(v *V) { ok = b.update(v, f) })
			return ok
		},
	}
}

// LockThen extends a lock accessor with a plain accessor applied inside
// the critical section.
func LockThen[R, V, W any](k Locked[R, V], next Key[V, W]) Locked[R, W] {
	return Locked[R, W]{
		view: func(r *R, f func(*W)) bool {
			ok := false
			k.view(r, func(v *V) {
				if w, present := next.Get(v); present {
					ok = true
					f(w)
				}
			})
			return ok
		},
		update: func(r *R, f func(*W)) bool {
			ok := false
			k.update(r, func(v *V) {
				if w, present := next.GetMut(v); present {
					ok = true
					f(w)
				}
			})
			return ok
		},
	}
}

// ThenLock prefixes a lock accessor with a plain accessor resolved before
// any lock is touched. Absence of the prefix short-circuits: the lock
// strategy is never invoked. The prefix read path serves both directions,
// since mutation happens behind the lock, not through the prefix.
func ThenLock[R, V, W any](pre Key[R, V], k Locked[V, W]) Locked[R, W] {
	return Locked[R, W]{
		view: func(r *R, f func(*W)) bool {
			v, ok := pre.Get(r)
			if !ok {
				return false
			}
			return k.view(v, f)
		},
		update: func(r *R, f func(*W)) bool {
			v, ok := pre.Get(r)
			if !ok {
				return false
			}
			return k.update(v, f)
		},
	}
}

// Lift raises a plain accessor to a degenerate lock accessor with no lock
// segment, for composition with real ones.
func Lift[R, V any](k Key[R, V]) Locked[R, V] {
	return Locked[R, V]{
		view: func(r *R, f func(*V)) bool {
			v, ok := k.Get(r)
			if !ok {
				return false
			}
			f(v)
			return true
		},
		update: func(r *R, f func(*V)) bool {
			v, ok := k.GetMut(r)
			if !ok {
				return false
			}
			f(v)
			return true
		},
	}
}
