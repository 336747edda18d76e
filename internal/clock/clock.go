// Package clock provides engine.Clock implementations: a wall clock for
// the daemon and a hand-advanced clock for tests and simulations.
package clock

import (
	"time"

	"tickloop/internal/engine"
)

// Wall derives millisecond ticks from the runtime's monotonic clock,
// counted from the moment the Wall was created. The uint32 conversion
// wraps naturally after ~49.7 days, matching the engine's tick domain.
type Wall struct {
	origin time.Time
}

func NewWall() *Wall { return &Wall{origin: time.Now()} }

func (w *Wall) Now() engine.Ticks {
	return engine.Ticks(uint64(time.Since(w.origin).Milliseconds()))
}

// Manual is a test clock. Not safe for concurrent use; the engine's
// single-threaded contract makes that a non-issue in practice.
type Manual struct {
	now engine.Ticks
}

func NewManual(at engine.Ticks) *Manual { return &Manual{now: at} }

func (m *Manual) Now() engine.Ticks { return m.now }

func (m *Manual) Set(at engine.Ticks) { m.now = at }

// Advance moves the clock forward by d (truncated to milliseconds).
func (m *Manual) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	m.now += engine.Ticks(uint64(d.Milliseconds()))
}
