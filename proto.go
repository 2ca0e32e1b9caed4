// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package keyp

import (
	"code.hybscloud.com/kont"
)

// walkResult is the type-erased Eff-world traversal result: Left is a
// short-circuit (absence, poisoning), Right carries the erased value.
// Concrete types are recovered at the drive boundary.
type walkResult = kont.Either[error, kont.Resumed]

// walkEff is an Eff-world traversal step.
type walkEff = kont.Eff[walkResult]

// Acquire is the effect operation for entering one lock segment. The
// bound try thunk is non-blocking: dispatch returns
// [code.hybscloud.com/iox.ErrWouldBlock] while the primitive is busy,
// which leaves the suspension unconsumed for retry.
type Acquire[P any] struct {
	kont.Phantom[*P]
	Excl bool
	try  func() (Guard[P], error)
}

// DispatchLock tries the pending acquisition. On success the guard joins
// the pass's held stack and the resumed value is the guarded payload
// pointer, valid until the matching [Release] is dispatched.
func (a Acquire[P]) DispatchLock(ps *Pass) (kont.Resumed, error) {
	g, err := a.try()
	if err != nil {
		return nil, err
	}
	ps.push(g.Release)
	return g.Payload(), nil
}

// Release is the effect operation for leaving the innermost held lock
// segment. Never blocks.
type Release struct {
	kont.Phantom[struct{}]
}

// DispatchLock releases the most recently acquired guard.
func (Release) DispatchLock(ps *Pass) (kont.Resumed, error) {
	ps.pop()
	return struct{}{}, nil
}

// lockDispatcher is the structural interface for lock operations.
// DispatchLock is non-blocking; iox.ErrWouldBlock marks the acquisition
// boundary where a drive may park, retry, or be cancelled.
type lockDispatcher interface {
	DispatchLock(ps *Pass) (kont.Resumed, error)
}

// Proto is the Eff-world form of a lock accessor: a traversal that
// performs each lock acquisition as an effect on kont, so a chain can be
// driven one suspension at a time ([Step]/[Advance]), run to completion
// ([Exec]), or abandoned between acquisitions ([Cancel]).
//
// Effects are performed strictly in composition order; guard lifetimes
// are strictly nested.
type Proto[R, V any] struct {
	walk func(r *R, excl bool, k func(*V) walkEff) walkEff
}

// NewProto creates a one-segment Eff-world lock accessor from the
// outer-accessor/strategy/inner-accessor triple, using the strategy's
// non-blocking try acquisitions.
func NewProto[R, L, M, V any](outer Key[R, L], s Strategy[L, M], inner Key[M, V]) Proto[R, V] {
	return Proto[R, V]{walk: func(r *R, excl bool, k func(*V) walkEff) walkEff {
		l, ok := outer.Get(r)
		if !ok {
			return absentEff()
		}
		try := func() (Guard[M], error) {
			if excl {
				return s.TryExclusive(l)
			}
			return s.TryShared(l)
		}
		return kont.Bind(kont.Perform(Acquire[M]{Excl: excl, try: try}), func(m *M) walkEff {
			var v *V
			var present bool
			if excl {
				v, present = inner.GetMut(m)
			} else {
				v, present = inner.Get(m)
			}
			if !present {
				return kont.Then(kont.Perform(Release{}), absentEff())
			}
			return kont.Bind(k(v), func(res walkResult) walkEff {
				return kont.Then(kont.Perform(Release{}), kont.Pure(res))
			})
		})
	}}
}

// ComposeProto sequences two Eff-world lock accessors; b's acquisitions
// are performed inside a's critical section, strictly after a's.
func ComposeProto[R, V, W any](a Proto[R, V], b Proto[V, W]) Proto[R, W] {
	return Proto[R, W]{walk: func(r *R, excl bool, k func(*W) walkEff) walkEff {
		return a.walk(r, excl, func(v *V) walkEff {
			return b.walk(v, excl, k)
		})
	}}
}

// ProtoThen extends an Eff-world lock accessor with a plain accessor
// applied inside the critical section.
func ProtoThen[R, V, W any](p Proto[R, V], next Key[V, W]) Proto[R, W] {
	return Proto[R, W]{walk: func(r *R, excl bool, k func(*W) walkEff) walkEff {
		return p.walk(r, excl, func(v *V) walkEff {
			var w *W
			var present bool
			if excl {
				w, present = next.GetMut(v)
			} else {
				w, present = next.Get(v)
			}
			if !present {
				return absentEff()
			}
			return k(w)
		})
	}}
}

// ThenProto prefixes an Eff-world lock accessor with a plain accessor
// resolved before any effect is performed; prefix absence completes the
// drive without a single acquisition.
func ThenProto[R, V, W any](pre Key[R, V], p Proto[V, W]) Proto[R, W] {
	return Proto[R, W]{walk: func(r *R, excl bool, k func(*W) walkEff) walkEff {
		v, ok := pre.Get(r)
		if !ok {
			return absentEff()
		}
		return p.walk(v, excl, k)
	}}
}

// LiftProto raises a plain accessor to an effect-free Eff-world segment.
func LiftProto[R, V any](k Key[R, V]) Proto[R, V] {
	return Proto[R, V]{walk: func(r *R, excl bool, kk func(*V) walkEff) walkEff {
		var v *V
		var present bool
		if excl {
			v, present = k.GetMut(r)
		} else {
			v, present = k.Get(r)
		}
		if !present {
			return absentEff()
		}
		return kk(v)
	}}
}

// Get builds the drive that returns an owned shallow copy of the value,
// taken while every guard along the chain is held.
func (p Proto[R, V]) Get(r *R) kont.Eff[kont.Either[error, V]] {
	eff := p.walk(r, false, func(v *V) walkEff {
		return kont.Pure(kont.Right[error, kont.Resumed](*v))
	})
	return kont.Map(eff, concrete[V])
}

// Set builds the drive that replaces the value with update(old) while
// every guard along the chain is held, returning the new value.
func (p Proto[R, V]) Set(r *R, update func(V) V) kont.Eff[kont.Either[error, V]] {
	eff := p.walk(r, true, func(v *V) walkEff {
		*v = update(*v)
		return kont.Pure(kont.Right[error, kont.Resumed](*v))
	})
	return kont.Map(eff, concrete[V])
}

// absentEff completes a traversal with Left(ErrAbsent).
func absentEff() walkEff {
	return kont.Pure(kont.Left[error, kont.Resumed](ErrAbsent))
}

// concrete recovers the drive's concrete value type at the erasure
// boundary.
func concrete[V any](e walkResult) kont.Either[error, V] {
	if l, ok := e.GetLeft(); ok {
		return kont.Left[error, V](l)
	}
	r, _ := e.GetRight()
	return kont.Right[error, V](r.(V))
}
