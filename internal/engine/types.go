package engine

// Action is a hook callback. Actions take no arguments, return nothing,
// and must not block; they may freely call back into the engine's control
// API (self-manipulation is supported).
type Action func()

// Trigger is a reaction predicate. Triggers take no arguments, must not
// block, and are evaluated at most once per poll pass while the reaction
// is active and out of cool-down.
type Trigger func() bool

// Clock supplies the current tick count. The engine reads it once per
// Begin/Run pass and once per relative-timestamp conversion; it never
// reads time twice within a pass.
type Clock interface {
	Now() Ticks
}

// NoID is returned by AddSchedule/AddReaction when a table is full (or a
// required callback is nil). No state is mutated in that case.
const NoID = -1

// Config fixes the engine's shape at construction time.
//
// Control selects between the full profile (pause/resume supported) and
// the compact profile, which trades that controllability away: with
// Control false, Pause*/Resume* are no-ops and every hook stays active
// for the engine's lifetime. Stop/Cancel/SetNext* remain available in
// both profiles.
type Config struct {
	MaxSchedules int
	MaxReactions int
	Control      bool
}

// DefaultConfig is the full-featured profile.
func DefaultConfig() Config {
	return Config{MaxSchedules: 8, MaxReactions: 8, Control: true}
}

// CompactConfig is the small-footprint profile: narrower tables, no
// pause/resume surface.
func CompactConfig() Config {
	return Config{MaxSchedules: 4, MaxReactions: 4, Control: false}
}

func (c Config) withDefaults() Config {
	if c.MaxSchedules <= 0 {
		c.MaxSchedules = 8
	}
	if c.MaxReactions <= 0 {
		c.MaxReactions = 8
	}
	return c
}

// schedule is one periodic task. next always holds the absolute tick the
// engine will compare against "now"; after a firing it advances by exactly
// interval, keeping ticks phase-locked to the Begin reference.
type schedule struct {
	run      Action
	interval Ticks
	next     Ticks
	active   bool
}

// reaction is one trigger/callback pair. timeout is stored pre-widened to
// at least delay, so the cool-down can never expire while a delayed
// callback is still outstanding.
type reaction struct {
	check     Trigger
	run       Action
	timeout   Ticks
	delay     Ticks
	nextCheck Ticks
	nextRun   Ticks
	active    bool
}

// bitset packs the per-reaction pending flags, one bit each. Byte-level
// footprint parity with the smallest controller deployments.
type bitset []uint8

func newBitset(n int) bitset { return make(bitset, (n+7)/8) }

func (b bitset) get(i int) bool { return b[i/8]&(1<<uint(i%8)) != 0 }
func (b bitset) set(i int)      { b[i/8] |= 1 << uint(i%8) }
func (b bitset) clear(i int)    { b[i/8] &^= 1 << uint(i%8) }

// EventKind classifies observer events.
type EventKind int

const (
	EventScheduleFired EventKind = iota
	EventReactionTriggered
	EventReactionFired
	EventReactionStopped
	EventReactionCanceled
)

func (k EventKind) String() string {
	switch k {
	case EventScheduleFired:
		return "schedule_fired"
	case EventReactionTriggered:
		return "reaction_triggered"
	case EventReactionFired:
		return "reaction_fired"
	case EventReactionStopped:
		return "reaction_stopped"
	case EventReactionCanceled:
		return "reaction_canceled"
	default:
		return "unknown"
	}
}

// Event is a purely observational record handed to the observer callback.
// At carries the engine tick associated with the event where one is
// naturally available (zero otherwise, e.g. for StopReaction).
type Event struct {
	Kind EventKind
	ID   int
	At   Ticks
}
