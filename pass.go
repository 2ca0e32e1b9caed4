// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package keyp

// Pass is the per-drive state for one Eff-world traversal: the stack of
// guards currently held between suspensions. Create one Pass per
// [Proto.Get]/[Proto.Set] drive; a Pass is not shared across drives or
// goroutines.
type Pass struct {
	held   []func()
	serial Serial
}

// NewPass creates the drive state for one Eff-world traversal.
func NewPass() *Pass {
	return &Pass{serial: nextSerial()}
}

// Serial returns the serial number assigned to this pass.
func (ps *Pass) Serial() Serial {
	return ps.serial
}

// Held reports how many guards the pass currently holds.
func (ps *Pass) Held() int {
	return len(ps.held)
}

// push records a held guard's release action.
func (ps *Pass) push(release func()) {
	ps.held = append(ps.held, release)
}

// pop releases the most recently acquired guard. Guard lifetimes are
// strictly nested, so release order is always LIFO.
func (ps *Pass) pop() {
	n := len(ps.held)
	if n == 0 {
		return
	}
	rel := ps.held[n-1]
	ps.held = ps.held[:n-1]
	rel()
}

// unwind releases every held guard in LIFO order. Used when a drive is
// short-circuited or cancelled mid-chain.
func (ps *Pass) unwind() {
	for len(ps.held) > 0 {
		ps.pop()
	}
}
