// Package engine implements tickloop's cooperative event engine.
//
// # Overview
//
// The engine owns two fixed-capacity tables: periodic schedules and
// trigger/callback reactions with debounce (timeout) and deferred
// execution (delay). A caller registers hooks during setup, calls Begin
// once to arm every timer against a common reference tick, then calls Run
// repeatedly from a single cooperative loop.
//
// # Poll pass
//
// Run reads the clock exactly once per pass and services the tables in a
// fixed order:
//
//  1. Due schedules: advance next-due by the interval (phase-locked to the
//     Begin reference), then invoke the callback.
//  2. Due pending reactions: clear the pending flag, then invoke the
//     callback.
//  3. Trigger checks: evaluate each active trigger at most once; a firing
//     arms the cool-down and either runs the callback immediately
//     (delay 0) or marks it pending for a later pass.
//
// State is always updated before the callback runs, so callbacks may call
// back into the engine's control API (pause themselves, rearm timers,
// register new hooks). Hooks registered mid-pass participate from the next
// pass onward.
//
// # Concurrency
//
// There is none. The engine is single-threaded by contract: Run must never
// be invoked concurrently with itself or with registration/control calls.
// No method blocks; every call is bounded by table capacity.
package engine
