package engine

import "tickloop/pkg/logx"

// Control surface. Every operation here is total: out-of-range ids are
// silent no-ops, matching the engine's sentinel-based error design. Ids
// are the slot indices returned at registration and stay valid for the
// engine's lifetime; there is no removal, only deactivation.

// PauseSchedule deactivates a schedule. Its clock state (next due tick)
// is preserved, not reset. No-op in the compact profile.
func (e *Engine) PauseSchedule(id int) {
	if !e.control("pause schedule", id) {
		return
	}
	if id < 0 || id >= len(e.schedules) {
		return
	}
	e.schedules[id].active = false
	e.log.Debug("schedule paused", logx.Int("id", id))
}

// ResumeSchedule reactivates a schedule and sets its next due tick to at,
// interpreted relative to now unless absolute. No-op in the compact
// profile.
func (e *Engine) ResumeSchedule(id int, at Ticks, absolute bool) {
	if !e.control("resume schedule", id) {
		return
	}
	if id < 0 || id >= len(e.schedules) {
		return
	}
	if !absolute {
		at += e.clock.Now()
	}
	s := &e.schedules[id]
	s.active = true
	s.next = at
	e.log.Debug("schedule resumed", logx.Int("id", id), logx.Uint32("at", uint32(at)))
}

// PauseTrigger disables trigger evaluation for a reaction. An
// already-pending callback still executes at its scheduled tick; use
// StopReaction or CancelReaction to suppress it. No-op in the compact
// profile.
func (e *Engine) PauseTrigger(id int) {
	if !e.control("pause trigger", id) {
		return
	}
	if id < 0 || id >= len(e.reactions) {
		return
	}
	e.reactions[id].active = false
	e.log.Debug("trigger paused", logx.Int("id", id))
}

// ResumeTrigger reactivates trigger evaluation and sets the next check
// tick to at, interpreted relative to now unless absolute. No-op in the
// compact profile.
func (e *Engine) ResumeTrigger(id int, at Ticks, absolute bool) {
	if !e.control("resume trigger", id) {
		return
	}
	if id < 0 || id >= len(e.reactions) {
		return
	}
	if !absolute {
		at += e.clock.Now()
	}
	r := &e.reactions[id]
	r.active = true
	r.nextCheck = at
	e.log.Debug("trigger resumed", logx.Int("id", id), logx.Uint32("at", uint32(at)))
}

// StopReaction clears an outstanding pending callback but leaves the
// cool-down untouched: the trigger stays debounced until the previously
// armed check tick.
func (e *Engine) StopReaction(id int) {
	if id < 0 || id >= len(e.reactions) {
		return
	}
	e.pending.clear(id)
	e.log.Debug("reaction stopped", logx.Int("id", id))
	e.emit(Event{Kind: EventReactionStopped, ID: id})
}

// CancelReaction clears an outstanding pending callback and rearms the
// next trigger check at at (relative to now unless absolute), ending the
// debounce early or extending it.
func (e *Engine) CancelReaction(id int, at Ticks, absolute bool) {
	if id < 0 || id >= len(e.reactions) {
		return
	}
	if !absolute {
		at += e.clock.Now()
	}
	e.reactions[id].nextCheck = at
	e.pending.clear(id)
	e.log.Debug("reaction canceled", logx.Int("id", id), logx.Uint32("at", uint32(at)))
	e.emit(Event{Kind: EventReactionCanceled, ID: id, At: at})
}

// SetNextSchedule manually sets a schedule's next due tick without
// touching its active state.
func (e *Engine) SetNextSchedule(id int, at Ticks, absolute bool) {
	if id < 0 || id >= len(e.schedules) {
		return
	}
	if !absolute {
		at += e.clock.Now()
	}
	e.schedules[id].next = at
}

// SetNextTrigger manually sets a reaction's next trigger check tick
// without touching its active state or pending flag.
func (e *Engine) SetNextTrigger(id int, at Ticks, absolute bool) {
	if id < 0 || id >= len(e.reactions) {
		return
	}
	if !absolute {
		at += e.clock.Now()
	}
	e.reactions[id].nextCheck = at
}

func (e *Engine) control(op string, id int) bool {
	if e.cfg.Control {
		return true
	}
	e.log.Debug("control disabled in compact profile", logx.String("op", op), logx.Int("id", id))
	return false
}
