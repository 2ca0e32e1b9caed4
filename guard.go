// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package keyp

// Guard is the acquired-access handle for one lock segment, held for the
// duration of a critical section. The payload pointer is valid only until
// Release. Guards are affine: Release after the first call is a no-op.
type Guard[P any] struct {
	payload *P
	release func()
	poison  func()
}

// NewGuard creates a guard over a payload pointer with a release action.
// Intended for [Strategy] implementations.
func NewGuard[P any](payload *P, release func()) Guard[P] {
	return Guard[P]{payload: payload, release: release}
}

// NewPoisonableGuard is [NewGuard] with a poison action, invoked when the
// critical section panics before the guard is released.
func NewPoisonableGuard[P any](payload *P, release, poison func()) Guard[P] {
	return Guard[P]{payload: payload, release: release, poison: poison}
}

// Payload returns the guarded payload pointer.
// Must not be retained past Release.
func (g *Guard[P]) Payload() *P {
	return g.payload
}

// Release ends the critical section. Idempotent.
func (g *Guard[P]) Release() {
	if g.release == nil {
		return
	}
	rel := g.release
	g.release = nil
	g.payload = nil
	rel()
}

// Poison marks the underlying container poisoned, if the strategy
// supports poisoning. Does not release.
func (g *Guard[P]) Poison() {
	if g.poison != nil {
		g.poison()
	}
}
