// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package keyp_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"code.hybscloud.com/keyp"
)

type aroot struct {
	m *keyp.AsyncMu[mid]
}

func asyncValue() keyp.AsyncLocked[aroot, int] {
	return keyp.NewAsyncLocked(
		keyp.ReadOnly(func(r *aroot) *keyp.AsyncMu[mid] { return r.m }),
		keyp.AsyncMuStrategy[mid]{},
		keyp.Field(func(m *mid) *int { return &m.value }),
	)
}

func TestAsyncGetSet(t *testing.T) {
	ctx := context.Background()
	k := asyncValue()
	r := aroot{m: keyp.NewAsyncMu(mid{value: 41})}

	got, err := k.Get(ctx, &r)
	if err != nil || got != 41 {
		t.Fatalf("Get got (%d, %v), want (41, nil)", got, err)
	}
	if err := k.Set(ctx, &r, func(v int) int { return v + 1 }); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if got, _ := k.Get(ctx, &r); got != 42 {
		t.Fatalf("Get after Set got %d, want 42", got)
	}
}

func TestAsyncCancelWhileParked(t *testing.T) {
	// Cancelling the parked acquirer leaves the lock unheld; the next
	// acquirer succeeds immediately.
	k := asyncValue()
	r := aroot{m: keyp.NewAsyncMu(mid{value: 1})}

	holding := make(chan struct{})
	release := make(chan struct{})
	holderDone := make(chan struct{})
	go func() {
		defer close(holderDone)
		k.Update(context.Background(), &r, func(*int) {
			close(holding)
			<-release
		})
	}()
	<-holding

	ctx, cancel := context.WithCancel(context.Background())
	parkedErr := make(chan error, 1)
	go func() {
		_, err := k.Get(ctx, &r)
		parkedErr <- err
	}()

	time.Sleep(10 * time.Millisecond) // let the acquirer park
	cancel()
	if err := <-parkedErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("parked Get got %v, want context.Canceled", err)
	}

	close(release)
	<-holderDone

	// The cancelled acquisition left nothing held.
	got, err := k.Get(context.Background(), &r)
	if err != nil || got != 1 {
		t.Fatalf("follow-up Get got (%d, %v), want (1, nil)", got, err)
	}
}

func TestAsyncAbsent(t *testing.T) {
	k := asyncValue()
	r := aroot{} // nil container link

	if _, err := k.Get(context.Background(), &r); err != keyp.ErrAbsent {
		t.Fatalf("Get got %v, want ErrAbsent", err)
	}
}

type abranch struct {
	b *keyp.AsyncMu[leaf]
}

type atree struct {
	a *keyp.AsyncRW[abranch]
}

func asyncChain() keyp.AsyncLocked[atree, int] {
	outer := keyp.NewAsyncLocked(
		keyp.ReadOnly(func(r *atree) *keyp.AsyncRW[abranch] { return r.a }),
		keyp.AsyncRWStrategy[abranch]{},
		keyp.Id[abranch](),
	)
	inner := keyp.NewAsyncLocked(
		keyp.ReadOnly(func(s *abranch) *keyp.AsyncMu[leaf] { return s.b }),
		keyp.AsyncMuStrategy[leaf]{},
		keyp.Field(func(l *leaf) *int { return &l.val }),
	)
	return keyp.ComposeAsync(outer, inner)
}

func TestComposeAsyncTwoLevels(t *testing.T) {
	ctx := context.Background()
	k := asyncChain()
	r := atree{a: keyp.NewAsyncRW(abranch{b: keyp.NewAsyncMu(leaf{val: 41})})}

	if got, err := k.Get(ctx, &r); err != nil || got != 41 {
		t.Fatalf("Get got (%d, %v), want (41, nil)", got, err)
	}
	if err := k.Set(ctx, &r, func(v int) int { return v + 1 }); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if got, _ := k.Get(ctx, &r); got != 42 {
		t.Fatalf("Get after Set got %d, want 42", got)
	}
}

func TestAsyncCancelBetweenLevels(t *testing.T) {
	// Cancellation after the outer acquisition but before the inner one:
	// the inner lock is never acquired and the outer guard is released.
	k := asyncChain()
	r := atree{a: keyp.NewAsyncRW(abranch{b: keyp.NewAsyncMu(leaf{val: 1})})}

	// Hold the inner lock so the chain parks there.
	innerK := keyp.NewAsyncLocked(
		keyp.ReadOnly(func(s *abranch) *keyp.AsyncMu[leaf] { return s.b }),
		keyp.AsyncMuStrategy[leaf]{},
		keyp.Id[leaf](),
	)
	holding := make(chan struct{})
	release := make(chan struct{})
	holderDone := make(chan struct{})
	// Reach the shared branch value for the standalone inner accessor.
	var inner abranch
	outerView := keyp.NewAsyncLocked(
		keyp.ReadOnly(func(rr *atree) *keyp.AsyncRW[abranch] { return rr.a }),
		keyp.AsyncRWStrategy[abranch]{},
		keyp.Id[abranch](),
	)
	if err := outerView.View(context.Background(), &r, func(s *abranch) { inner = *s }); err != nil {
		t.Fatalf("outer View error: %v", err)
	}
	go func() {
		defer close(holderDone)
		innerK.Update(context.Background(), &inner, func(*leaf) {
			close(holding)
			<-release
		})
	}()
	<-holding

	ctx, cancel := context.WithCancel(context.Background())
	parkedErr := make(chan error, 1)
	go func() {
		_, err := k.Get(ctx, &r)
		parkedErr <- err
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	if err := <-parkedErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("parked chain Get got %v, want context.Canceled", err)
	}

	// Outer guard was released on the way out: an exclusive outer
	// acquisition succeeds while the inner lock is still held.
	probe, probeCancel := context.WithTimeout(context.Background(), time.Second)
	defer probeCancel()
	if err := outerView.Update(probe, &r, func(*abranch) {}); err != nil {
		t.Fatalf("outer lock still held after cancellation: %v", err)
	}

	close(release)
	<-holderDone
}

type syncPart struct {
	b *keyp.AsyncMu[leaf]
}

func TestSyncToAsyncCrossing(t *testing.T) {
	sk := keyp.NewLocked(
		keyp.ReadOnly(func(r *root) *keyp.Mu[mid] { return r.m }),
		keyp.MuStrategy[mid]{},
		keyp.Field(func(m *mid) *int { return &m.value }),
	)
	ak := keyp.SyncToAsync(sk)
	r := root{m: keyp.NewMu(mid{value: 41})}

	got, err := ak.Get(context.Background(), &r)
	if err != nil || got != 41 {
		t.Fatalf("Get got (%d, %v), want (41, nil)", got, err)
	}

	// An already-cancelled context never acquires.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ak.Get(ctx, &r); !errors.Is(err, context.Canceled) {
		t.Fatalf("Get got %v, want context.Canceled", err)
	}
}

type mixedRoot struct {
	s *keyp.RW[syncPart]
}

func TestComposeSyncAsyncMixedChain(t *testing.T) {
	// Sync outer (RW) handing off into an async inner (AsyncMu): the
	// chain is asynchronous end to end.
	outer := keyp.NewLocked(
		keyp.ReadOnly(func(r *mixedRoot) *keyp.RW[syncPart] { return r.s }),
		keyp.RWStrategy[syncPart]{},
		keyp.Id[syncPart](),
	)
	inner := keyp.NewAsyncLocked(
		keyp.ReadOnly(func(p *syncPart) *keyp.AsyncMu[leaf] { return p.b }),
		keyp.AsyncMuStrategy[leaf]{},
		keyp.Field(func(l *leaf) *int { return &l.val }),
	)
	k := keyp.ComposeSyncAsync(outer, inner)

	r := mixedRoot{s: keyp.NewRW(syncPart{b: keyp.NewAsyncMu(leaf{val: 5})})}
	if err := k.Set(context.Background(), &r, func(v int) int { return v * 8 }); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if got, _ := k.Get(context.Background(), &r); got != 40 {
		t.Fatalf("value got %d, want 40", got)
	}
}

func TestComposeAsyncSyncMixedChain(t *testing.T) {
	// Async outer handing off into a sync inner; the result stays async.
	type asyncOuterRoot struct {
		o *keyp.AsyncMu[root]
	}
	outer := keyp.NewAsyncLocked(
		keyp.ReadOnly(func(r *asyncOuterRoot) *keyp.AsyncMu[root] { return r.o }),
		keyp.AsyncMuStrategy[root]{},
		keyp.Id[root](),
	)
	k := keyp.ComposeAsyncSync(outer, lockedValue())

	r := asyncOuterRoot{o: keyp.NewAsyncMu(root{m: keyp.NewMu(mid{value: 41})})}
	if got, err := k.Get(context.Background(), &r); err != nil || got != 41 {
		t.Fatalf("Get got (%d, %v), want (41, nil)", got, err)
	}
}

func TestAsyncCellTakePutAndConsume(t *testing.T) {
	type croot struct {
		c *keyp.AsyncCell[mid]
	}
	k := keyp.NewAsyncLocked(
		keyp.ReadOnly(func(r *croot) *keyp.AsyncCell[mid] { return r.c }),
		keyp.AsyncCellStrategy[mid]{},
		keyp.Field(func(m *mid) *int { return &m.value }),
	)
	r := croot{c: keyp.NewAsyncCell(mid{value: 3})}

	if err := k.Set(context.Background(), &r, func(v int) int { return v + 4 }); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if got, _ := k.Get(context.Background(), &r); got != 7 {
		t.Fatalf("value got %d, want 7", got)
	}

	// A panicking update consumes the payload.
	func() {
		defer func() { _ = recover() }()
		k.Update(context.Background(), &r, func(*int) { panic("boom") })
	}()
	if _, err := k.Get(context.Background(), &r); err != keyp.ErrAbsent {
		t.Fatalf("consumed cell Get got %v, want ErrAbsent", err)
	}
}

func TestAsyncCellConsumeWakesParkedWaiter(t *testing.T) {
	// Consuming the payload while a waiter is parked must wake the
	// waiter with absence; the dead cell never refills the slot.
	type croot struct {
		c *keyp.AsyncCell[mid]
	}
	k := keyp.NewAsyncLocked(
		keyp.ReadOnly(func(r *croot) *keyp.AsyncCell[mid] { return r.c }),
		keyp.AsyncCellStrategy[mid]{},
		keyp.Id[mid](),
	)
	r := croot{c: keyp.NewAsyncCell(mid{value: 1})}

	holding := make(chan struct{})
	boom := make(chan struct{})
	holderDone := make(chan struct{})
	go func() {
		defer close(holderDone)
		defer func() { _ = recover() }()
		k.Update(context.Background(), &r, func(*mid) {
			close(holding)
			<-boom
			panic("boom")
		})
	}()
	<-holding

	// Park a waiter with no cancellation surface: absence is its only
	// way out.
	parkedErr := make(chan error, 1)
	go func() {
		_, err := k.Get(context.Background(), &r)
		parkedErr <- err
	}()
	time.Sleep(10 * time.Millisecond) // let the waiter park
	close(boom)

	if err := <-parkedErr; err != keyp.ErrAbsent {
		t.Fatalf("parked Get got %v, want ErrAbsent", err)
	}
	<-holderDone

	if _, err := k.Get(context.Background(), &r); err != keyp.ErrAbsent {
		t.Fatalf("consumed cell Get got %v, want ErrAbsent", err)
	}
}

func TestAsyncCellCancelWhileEmpty(t *testing.T) {
	type croot struct {
		c *keyp.AsyncCell[mid]
	}
	k := keyp.NewAsyncLocked(
		keyp.ReadOnly(func(r *croot) *keyp.AsyncCell[mid] { return r.c }),
		keyp.AsyncCellStrategy[mid]{},
		keyp.Id[mid](),
	)
	r := croot{c: keyp.NewAsyncCell(mid{value: 1})}

	holding := make(chan struct{})
	release := make(chan struct{})
	holderDone := make(chan struct{})
	go func() {
		defer close(holderDone)
		k.Update(context.Background(), &r, func(*mid) {
			close(holding)
			<-release
		})
	}()
	<-holding

	ctx, cancel := context.WithCancel(context.Background())
	parkedErr := make(chan error, 1)
	go func() {
		_, err := k.Get(ctx, &r)
		parkedErr <- err
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	if err := <-parkedErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("parked cell Get got %v, want context.Canceled", err)
	}

	close(release)
	<-holderDone

	if _, err := k.Get(context.Background(), &r); err != nil {
		t.Fatalf("cell unavailable after release: %v", err)
	}
}
