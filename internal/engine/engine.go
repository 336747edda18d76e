package engine

import (
	"time"

	"tickloop/pkg/logx"
)

// Engine owns the schedule and reaction tables. Construct with New,
// register hooks, call Begin once, then drive Run from one cooperative
// loop. The zero value is not usable.
type Engine struct {
	cfg   Config
	clock Clock
	log   logx.Logger

	observe func(Event)

	// Backing arrays are allocated at full capacity up front: append never
	// reallocates, so hooks registered from inside a callback land in the
	// same array the current pass is iterating.
	schedules []schedule
	reactions []reaction
	pending   bitset

	began    bool
	earlyRun bool
}

func New(cfg Config, clk Clock, log logx.Logger) *Engine {
	cfg = cfg.withDefaults()
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Engine{
		cfg:       cfg,
		clock:     clk,
		log:       log,
		schedules: make([]schedule, 0, cfg.MaxSchedules),
		reactions: make([]reaction, 0, cfg.MaxReactions),
		pending:   newBitset(cfg.MaxReactions),
	}
}

// Observe installs an observer for firing/cancel events. Observational
// only: the engine never changes behavior based on the observer, and the
// observer must not block.
func (e *Engine) Observe(fn func(Event)) { e.observe = fn }

func (e *Engine) emit(ev Event) {
	if e.observe != nil {
		e.observe(ev)
	}
}

// AddSchedule appends a periodic task and returns its id (the stable slot
// index), or NoID if the table is full or run is nil. startDelay shifts
// the first firing relative to the Begin reference.
func (e *Engine) AddSchedule(run Action, interval, startDelay time.Duration) int {
	if run == nil {
		e.log.Warn("schedule rejected: nil callback")
		return NoID
	}
	if len(e.schedules) >= e.cfg.MaxSchedules {
		e.log.Warn("schedule rejected: table full", logx.Int("max", e.cfg.MaxSchedules))
		return NoID
	}
	// With a zero start delay the first firing lands one full interval
	// after Begin; a nonzero start delay is the first due offset as-is.
	next := durTicks(startDelay)
	if next == 0 {
		next = durTicks(interval)
	}
	e.schedules = append(e.schedules, schedule{
		run:      run,
		interval: durTicks(interval),
		next:     next,
		active:   true,
	})
	id := len(e.schedules) - 1
	e.log.Debug("schedule added", logx.Int("id", id), logx.Duration("interval", interval))
	return id
}

// AddReaction appends a trigger/callback pair and returns its id, or NoID
// if the table is full or either function is nil. The stored timeout is
// widened to at least delay so the cool-down outlasts the pending window.
func (e *Engine) AddReaction(check Trigger, run Action, timeout, delay, startDelay time.Duration) int {
	if check == nil || run == nil {
		e.log.Warn("reaction rejected: nil trigger or callback")
		return NoID
	}
	if len(e.reactions) >= e.cfg.MaxReactions {
		e.log.Warn("reaction rejected: table full", logx.Int("max", e.cfg.MaxReactions))
		return NoID
	}
	to := durTicks(timeout)
	dl := durTicks(delay)
	if to < dl {
		to = dl
	}
	e.reactions = append(e.reactions, reaction{
		check:     check,
		run:       run,
		timeout:   to,
		delay:     dl,
		nextCheck: durTicks(startDelay),
		active:    true,
	})
	id := len(e.reactions) - 1
	e.log.Debug("reaction added", logx.Int("id", id),
		logx.Duration("timeout", timeout), logx.Duration("delay", delay))
	return id
}

// Begin arms every timer against a single common reference tick. Call
// exactly once, after all setup registrations and before the first Run.
func (e *Engine) Begin() {
	now := e.clock.Now()
	for i := range e.schedules {
		e.schedules[i].next += now
	}
	for i := range e.reactions {
		e.reactions[i].nextCheck += now
	}
	e.began = true
	e.log.Debug("engine armed",
		logx.Uint32("tick", uint32(now)),
		logx.Int("schedules", len(e.schedules)),
		logx.Int("reactions", len(e.reactions)))
}

// Run performs one poll pass: due schedules, then due pending reactions,
// then trigger evaluation. A single clock snapshot covers the whole pass,
// and each phase iterates the table length captured at pass start, so
// hooks registered by a callback first participate on the next pass.
//
// Running before Begin is a documented precondition violation: offsets are
// still relative to tick zero, so most hooks are immediately due. The
// engine warns once and proceeds.
func (e *Engine) Run() {
	if !e.began && !e.earlyRun {
		e.earlyRun = true
		e.log.Warn("run before begin: hook offsets are still relative to tick zero")
	}
	now := e.clock.Now()

	nSchd := len(e.schedules)
	nRct := len(e.reactions)

	for i := 0; i < nSchd; i++ {
		s := &e.schedules[i]
		if s.active && before(s.next, now) {
			// Advance from the previous due tick, not from now, so firings
			// stay phase-locked to the Begin reference across polling jitter.
			s.next += s.interval
			// Callback last: it may manipulate its own entry.
			s.run()
			e.log.Debug("schedule executed", logx.Int("id", i))
			e.emit(Event{Kind: EventScheduleFired, ID: i, At: now})
		}
	}

	for i := 0; i < nRct; i++ {
		r := &e.reactions[i]
		if e.pending.get(i) && before(r.nextRun, now) {
			e.pending.clear(i)
			r.run()
			e.log.Debug("reaction executed", logx.Int("id", i))
			e.emit(Event{Kind: EventReactionFired, ID: i, At: now})
		}
	}

	for i := 0; i < nRct; i++ {
		r := &e.reactions[i]
		// A reaction in cool-down is skipped entirely: the predicate is not
		// even invoked. That skip is the debounce.
		if !r.active || !before(r.nextCheck, now) {
			continue
		}
		if !r.check() {
			continue
		}
		r.nextCheck = now + r.timeout
		if r.delay == 0 {
			r.run()
			e.log.Debug("reaction triggered and executed", logx.Int("id", i))
			e.emit(Event{Kind: EventReactionFired, ID: i, At: now})
		} else {
			r.nextRun = now + r.delay
			e.pending.set(i)
			e.log.Debug("reaction triggered", logx.Int("id", i))
			e.emit(Event{Kind: EventReactionTriggered, ID: i, At: now})
		}
	}
}

// Schedules returns the number of registered schedules.
func (e *Engine) Schedules() int { return len(e.schedules) }

// Reactions returns the number of registered reactions.
func (e *Engine) Reactions() int { return len(e.reactions) }
