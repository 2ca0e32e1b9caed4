// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package keyp

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// Step evaluates an Eff-world drive until the first lock effect.
// Returns (result, nil) on completion, or (zero, suspension) if pending.
func Step[V any](drive kont.Expr[kont.Either[error, V]]) (kont.Either[error, V], *kont.Suspension[kont.Either[error, V]]) {
	return kont.StepExpr(drive)
}

// Advance dispatches the suspended lock operation against the pass.
// DispatchLock is non-blocking: it returns iox.ErrWouldBlock while the
// primitive is busy, leaving the suspension unconsumed for retry.
//
// A hard acquisition failure (consumed cell, poisoned lock) discards the
// suspension, unwinds every guard the pass holds, and completes the
// drive with Left.
func Advance[V any](ps *Pass, susp *kont.Suspension[kont.Either[error, V]]) (kont.Either[error, V], *kont.Suspension[kont.Either[error, V]], error) {
	lop, ok := susp.Op().(lockDispatcher)
	if !ok {
		panic("keyp: unhandled effect in Advance")
	}
	v, err := lop.DispatchLock(ps)
	if err != nil {
		if err == iox.ErrWouldBlock {
			var zero kont.Either[error, V]
			return zero, susp, err
		}
		susp.Discard()
		ps.unwind()
		return kont.Left[error, V](err), nil, nil
	}
	result, next := susp.Resume(v)
	return result, next, nil
}

// Cancel abandons a drive between acquisitions: the pending suspension is
// discarded without dispatching, so the awaited lock is never acquired,
// and every guard the pass holds is released in LIFO order.
func Cancel[V any](ps *Pass, susp *kont.Suspension[kont.Either[error, V]]) {
	if susp != nil {
		susp.Discard()
	}
	ps.unwind()
}
