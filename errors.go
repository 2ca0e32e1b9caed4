// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package keyp

import "errors"

// ErrAbsent reports that the navigated path currently resolves to
// nothing: a non-matching arm, a nil link, an out-of-range index, or a
// consumed cell. Absence short-circuits the remainder of a chain and is
// surfaced to the caller; it is never a panic.
var ErrAbsent = errors.New("keyp: path absent")

// ErrPoisoned reports that a lock container was poisoned: an exclusive
// critical section panicked while holding its guard. Later acquisitions
// surface this instead of silently succeeding.
var ErrPoisoned = errors.New("keyp: lock poisoned")
