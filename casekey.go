// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package keyp

// Case is a failable accessor over one arm of a tagged union, with
// reconstruction: embed builds a whole union value from an arm value.
// Law: Extract(Embed(a)) is present and equals a, for every a.
type Case[U, A any] struct {
	embed      func(A) U
	extract    func(*U) *A
	extractMut func(*U) *A
}

// NewCase creates a case accessor from an embed function and the
// extraction pair. extract and extractMut return nil when the union
// currently holds a different arm.
func NewCase[U, A any](embed func(A) U, extract, extractMut func(*U) *A) Case[U, A] {
	return Case[U, A]{embed: embed, extract: extract, extractMut: extractMut}
}

// Embed reconstructs a union value holding the arm a.
func (c Case[U, A]) Embed(a A) U {
	return c.embed(a)
}

// Extract resolves the arm for reading. Absent on a non-matching arm.
func (c Case[U, A]) Extract(u *U) (*A, bool) {
	a := c.extract(u)
	return a, a != nil
}

// ExtractMut resolves the arm for writing. Absent on a non-matching arm.
func (c Case[U, A]) ExtractMut(u *U) (*A, bool) {
	a := c.extractMut(u)
	return a, a != nil
}

// Key projects the case accessor to a plain [Key] for composition.
// The embed direction is not carried; writes mutate the matching arm
// in place and miss when the union holds another arm.
func (c Case[U, A]) Key() Key[U, A] {
	return Key[U, A]{read: c.extract, write: c.extractMut}
}
