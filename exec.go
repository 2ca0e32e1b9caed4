// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package keyp

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// lockHandler implements kont.Handler for lock effects. Waits past the
// iox.ErrWouldBlock boundary with adaptive backoff; hard acquisition
// failures unwind the pass and short-circuit the drive with Left.
// Value type: passed to the evaluation loop on the stack.
type lockHandler[V any] struct {
	ps *Pass
}

// Dispatch implements kont.Handler via structural interface assertion.
func (h lockHandler[V]) Dispatch(op kont.Operation) (kont.Resumed, bool) {
	lop, ok := op.(lockDispatcher)
	if !ok {
		panic("keyp: unhandled effect in lockHandler")
	}
	var bo iox.Backoff
	for {
		v, err := lop.DispatchLock(h.ps)
		if err == nil {
			return v, true
		}
		if err != iox.ErrWouldBlock {
			h.ps.unwind()
			return kont.Left[error, V](err), false
		}
		bo.Wait()
	}
}

// Exec runs an Eff-world drive to completion on the calling goroutine,
// blocking on iox.ErrWouldBlock via adaptive backoff (iox.Backoff),
// without spawning goroutines or creating channels.
func Exec[V any](ps *Pass, drive kont.Eff[kont.Either[error, V]]) kont.Either[error, V] {
	h := lockHandler[V]{ps: ps}
	return kont.Handle(drive, h)
}

// ExecExpr runs an Expr-world drive to completion on the calling
// goroutine, blocking on iox.ErrWouldBlock via adaptive backoff.
func ExecExpr[V any](ps *Pass, drive kont.Expr[kont.Either[error, V]]) kont.Either[error, V] {
	h := lockHandler[V]{ps: ps}
	return kont.HandleExpr(drive, h)
}
