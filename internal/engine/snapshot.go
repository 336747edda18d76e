package engine

// ScheduleInfo is a point-in-time view of one schedule slot.
type ScheduleInfo struct {
	ID       int
	Active   bool
	Interval Ticks
	NextDue  Ticks
}

// ReactionInfo is a point-in-time view of one reaction slot. Timeout is
// the stored (widened) cool-down.
type ReactionInfo struct {
	ID        int
	Active    bool
	Pending   bool
	Timeout   Ticks
	Delay     Ticks
	NextCheck Ticks
	NextRun   Ticks
}

// Snapshot is an observability view of the engine. Intended for
// diagnostics and status output, not for synchronization.
type Snapshot struct {
	Began        bool
	Control      bool
	MaxSchedules int
	MaxReactions int
	Schedules    []ScheduleInfo
	Reactions    []ReactionInfo
}

func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{
		Began:        e.began,
		Control:      e.cfg.Control,
		MaxSchedules: e.cfg.MaxSchedules,
		MaxReactions: e.cfg.MaxReactions,
		Schedules:    make([]ScheduleInfo, len(e.schedules)),
		Reactions:    make([]ReactionInfo, len(e.reactions)),
	}
	for i := range e.schedules {
		s := &e.schedules[i]
		snap.Schedules[i] = ScheduleInfo{
			ID:       i,
			Active:   s.active,
			Interval: s.interval,
			NextDue:  s.next,
		}
	}
	for i := range e.reactions {
		r := &e.reactions[i]
		snap.Reactions[i] = ReactionInfo{
			ID:        i,
			Active:    r.active,
			Pending:   e.pending.get(i),
			Timeout:   r.timeout,
			Delay:     r.delay,
			NextCheck: r.nextCheck,
			NextRun:   r.nextRun,
		}
	}
	return snap
}
