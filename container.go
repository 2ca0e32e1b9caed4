// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package keyp

import (
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/lfq"
)

// Lock containers are pointer-shaped: a *Mu[P], *RW[P] or *Cell[P] handle
// is shared by every accessor chain reaching the payload, and duplicating
// a handle is a pointer copy. The payload itself is never duplicated by
// the container.

// Mu is an exclusive-lock container. Acquisition blocks the calling
// goroutine; there is no shared mode, so shared acquisition degrades to
// exclusive.
type Mu[P any] struct {
	mu       sync.Mutex
	poisoned atomix.Uint32
	payload  P
}

// NewMu creates an exclusive-lock container guarding p.
func NewMu[P any](p P) *Mu[P] {
	return &Mu[P]{payload: p}
}

// RW is a shared/exclusive-lock container. Shared acquisitions proceed in
// parallel while no exclusive holder exists.
type RW[P any] struct {
	mu       sync.RWMutex
	poisoned atomix.Uint32
	payload  P
}

// NewRW creates a shared/exclusive-lock container guarding p.
func NewRW[P any](p P) *RW[P] {
	return &RW[P]{payload: p}
}

// cellCapacity keeps the hand-off ring power-of-two sized; at most one
// element is ever in flight.
const cellCapacity = 2

// Cell is a single-owner interior-mutability container: a one-slot
// hand-off backed by a bounded lock-free queue. Acquisition takes the
// payload out of the slot; release puts it back. Acquiring while taken,
// or after the payload was consumed by poisoning, reports absence rather
// than blocking.
//
// The slot is single-producer single-consumer: a Cell belongs to one
// owner and is not a cross-goroutine synchronization point. Use [Mu] or
// [RW] (or their async counterparts) to share across goroutines.
type Cell[P any] struct {
	slot lfq.SPSC[P]
}

// NewCell creates a single-owner cell holding p.
func NewCell[P any](p P) *Cell[P] {
	c := &Cell[P]{}
	c.slot.Init(cellCapacity)
	_ = c.slot.Enqueue(&p)
	return c
}
