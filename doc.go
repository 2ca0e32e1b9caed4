// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package keyp provides composable lock-aware accessors (keypaths) for
// navigating and mutating deeply nested data, including data guarded by
// synchronization primitives.
//
// An accessor is a declared read/write function pair from a root type to a
// value type. Accessors compose: chains traverse optional links, tagged-union
// arms, indexed elements, and lock containers, acquiring and releasing guards
// as each get or set call crosses lock segments.
//
// # Architecture
//
//   - Accessors: [Key] is a read/write pair; absence is a nil result, never a
//     panic. [Case] covers tagged-union arms with reconstruction via embed.
//   - Lock segments: [Locked] is an accessor triple (outer accessor, lock
//     [Strategy], inner accessor). The critical section is a scoped callback;
//     references never escape a held guard.
//   - Primitives: exclusive [Mu], shared/exclusive [RW], and the single-owner
//     cell [Cell] (one-slot hand-off via [code.hybscloud.com/lfq]), each with
//     a context-aware counterpart ([AsyncMu], [AsyncRW], [AsyncCell]) whose
//     acquisition is a suspension point with cancellation.
//   - Stepping: the Eff-world [Proto] performs each acquisition as an effect
//     on [code.hybscloud.com/kont], driven one suspension at a time with
//     [Step] and [Advance] (non-blocking, [code.hybscloud.com/iox.ErrWouldBlock]
//     at the acquisition boundary) or to completion with [Exec].
//
// # API Topologies
//
//   - Plain: [New], [ReadOnly], [Field], [NewFailable], [NewCase]; composition
//     via [Then]; adapters [Index], [Deref].
//   - Sync lock: [NewLocked], [Compose], [LockThen], [ThenLock], [Lift];
//     access via [Locked.View], [Locked.Update], [Locked.Get], [Locked.Set].
//   - Async lock: [NewAsyncLocked], [ComposeAsync], [AsyncLockThen],
//     [ThenAsyncLock]; cross-model interop is explicit and one-way into the
//     asynchronous world: [SyncToAsync], [ComposeSyncAsync], [ComposeAsyncSync].
//   - Eff-world: [NewProto], [ComposeProto], [LiftProto]; drive with
//     [Step]/[Advance] on a [Pass], block with [Exec], abandon with [Cancel].
//
// # Ordering
//
// A composed chain acquires locks in the literal order it was composed, outer
// before inner, with no internal reordering. Two independently built chains
// that touch the same two locks in opposite orders can deadlock; keyp does
// not detect this. Keeping acquisition order consistent across chains is the
// caller's lock-nesting discipline.
//
// # Shallow-Clone Contract
//
// Every duplication keyp performs is O(1): accessor values hold only function
// handles, strategies are zero-size markers, and lock containers are shared
// by pointer. The guarded payload's own duplication logic is never invoked by
// composition or access.
//
// # Example
//
//	type App struct{ db *keyp.Mu[DB] }
//	outer := keyp.ReadOnly(func(a *App) *keyp.Mu[DB] { return a.db })
//	conns := keyp.Field(func(d *DB) *int { return &d.conns })
//	k := keyp.NewLocked(outer, keyp.MuStrategy[DB]{}, conns)
//	n, ok := k.Get(&app)                              // lock, copy, unlock
//	k.Set(&app, func(n int) int { return n + 1 })
package keyp
