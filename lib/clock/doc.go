// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Production code accepts a Clock interface parameter instead of calling
// time.Now or time.After directly. In production, Real() provides the
// standard library behavior. In tests, Fake() provides a deterministic
// clock that advances only when Advance is called.
//
// # Wiring Pattern
//
// Add a Clock field to structs that wait on time:
//
//	type Manager struct {
//	    clock clock.Clock
//	    // ...
//	}
//
// In production:
//
//	m := NewManager(patterns, timeout, clock.Real())
//
// In tests:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	m := NewManager(patterns, timeout, c)
//	// ... start the goroutine that waits ...
//	c.WaitForTimers(1)  // wait for the goroutine to register its timer
//	c.Advance(timeout)  // fire the timer deterministically
//
// # FakeClock Synchronization
//
// When a goroutine calls After on a FakeClock, it registers a pending
// timer. Use WaitForTimers to block until a specific number of timers
// are registered before calling Advance. This eliminates the race
// between timer registration and time advancement that plagues tests
// using time.Sleep for synchronization.
package clock
