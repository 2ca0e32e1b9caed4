// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package keyp

// Key is a composable accessor from a root type R to a value type V.
// The read and write paths return a pointer into the root; a nil result
// means the path is currently absent. A Key holds no reference to any
// specific root instance and is reused across invocations; copying a Key
// copies two function handles and nothing else.
type Key[R, V any] struct {
	read  func(*R) *V
	write func(*R) *V
}

// Failable is an accessor whose traversal may not resolve to a value.
// The shape is identical to [Key]: absence is uniformly representable,
// so failable and total accessors compose freely.
type Failable[R, V any] = Key[R, V]

// New creates an accessor from a read function and a write function.
// write may be nil for a read-only accessor.
func New[R, V any](read, write func(*R) *V) Key[R, V] {
	return Key[R, V]{read: read, write: write}
}

// NewFailable creates a failable accessor. Identical to [New]; the name
// records at the call site that the traversal is expected to miss.
func NewFailable[R, V any](read, write func(*R) *V) Failable[R, V] {
	return New(read, write)
}

// ReadOnly creates an accessor with no write path.
// GetMut and Set through it report absence.
func ReadOnly[R, V any](read func(*R) *V) Key[R, V] {
	return Key[R, V]{read: read}
}

// Field creates an accessor whose read and write paths are the same
// projection. The common constructor for direct struct fields.
func Field[R, V any](proj func(*R) *V) Key[R, V] {
	return Key[R, V]{read: proj, write: proj}
}

// Get resolves the read path against r.
// Returns (nil, false) when the path is absent.
func (k Key[R, V]) Get(r *R) (*V, bool) {
	if k.read == nil {
		return nil, false
	}
	v := k.read(r)
	return v, v != nil
}

// GetMut resolves the write path against r.
// Returns (nil, false) when the path is absent or the accessor is read-only.
func (k Key[R, V]) GetMut(r *R) (*V, bool) {
	if k.write == nil {
		return nil, false
	}
	v := k.write(r)
	return v, v != nil
}

// Set writes v through the accessor. Reports whether the write path resolved.
func (k Key[R, V]) Set(r *R, v V) bool {
	p, ok := k.GetMut(r)
	if !ok {
		return false
	}
	*p = v
	return true
}

// Then sequences two accessors into one: read applies a's read, then, if
// present, b's read. Absence short-circuits: b is never invoked when a's
// path misses. Free function because Go methods cannot introduce the W
// type parameter.
func Then[R, V, W any](a Key[R, V], b Key[V, W]) Key[R, W] {
	return Key[R, W]{
		read: func(r *R) *W {
			v, ok := a.Get(r)
			if !ok {
				return nil
			}
			w, _ := b.Get(v)
			return w
		},
		write: func(r *R) *W {
			v, ok := a.GetMut(r)
			if !ok {
				return nil
			}
			w, _ := b.GetMut(v)
			return w
		},
	}
}

// Id is the identity accessor. Useful as the inner accessor of a lock
// segment that targets the whole guarded payload.
func Id[V any]() Key[V, V] {
	proj := func(v *V) *V { return v }
	return Key[V, V]{read: proj, write: proj}
}

// Index is an accessor for the i-th element of a slice.
// Absent when i is out of range.
func Index[E any](i int) Key[[]E, E] {
	proj := func(s *[]E) *E {
		if i < 0 || i >= len(*s) {
			return nil
		}
		return &(*s)[i]
	}
	return Key[[]E, E]{read: proj, write: proj}
}

// Deref is an accessor through one level of pointer indirection.
// Absent on nil. Also serves as the optional unwrap for *E-shaped
// optional fields.
func Deref[E any]() Key[*E, E] {
	proj := func(p **E) *E { return *p }
	return Key[*E, E]{read: proj, write: proj}
}
