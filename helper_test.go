// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package keyp_test

import (
	"code.hybscloud.com/keyp"
	"code.hybscloud.com/kont"
)

// driveExpr drives an Expr-world traversal to completion via Step+Advance
// loop. Retries on iox.ErrWouldBlock (primitive busy).
// Used by stepping tests to exercise the non-blocking path.
func driveExpr[V any](ps *keyp.Pass, drive kont.Expr[kont.Either[error, V]]) kont.Either[error, V] {
	result, susp := keyp.Step[V](drive)
	for susp != nil {
		var err error
		result, susp, err = keyp.Advance(ps, susp)
		if err != nil {
			continue
		}
	}
	return result
}

// mustRight unwraps a Right drive result or fails the test.
func mustRight[V any](tb interface {
	Helper()
	Fatalf(format string, args ...any)
}, e kont.Either[error, V]) V {
	tb.Helper()
	if l, ok := e.GetLeft(); ok {
		tb.Fatalf("unexpected Left: %v", l)
	}
	v, _ := e.GetRight()
	return v
}
