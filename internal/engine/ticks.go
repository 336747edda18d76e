package engine

import "time"

// Ticks is the engine's time domain: an unsigned millisecond counter that
// wraps around at 2^32 ms (about 49.7 days), mirroring the millisecond
// clocks of small controllers.
type Ticks uint32

// before reports whether a is strictly earlier than b in modular tick
// time. The signed-difference form stays correct across the uint32
// rollover as long as the two instants are less than 2^31 ms (about 24.8
// days) apart, which bounds every interval, timeout and delay the engine
// accepts in practice.
func before(a, b Ticks) bool { return int32(a-b) < 0 }

// durTicks converts a wall duration to ticks. Negative durations clamp to
// zero; sub-millisecond remainders are truncated.
func durTicks(d time.Duration) Ticks {
	if d <= 0 {
		return 0
	}
	return Ticks(uint64(d.Milliseconds()))
}
