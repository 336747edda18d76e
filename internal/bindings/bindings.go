package bindings

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"tickloop/internal/config"
	"tickloop/internal/engine"
	logx "tickloop/pkg/logx"
)

// Set is the result of binding a config to an engine: the registered ids
// and the names behind them.
type Set struct {
	scheduleNames []string
	reactionNames []string
}

// HookName resolves an observer event to the configured hook name.
func (s *Set) HookName(ev engine.Event) string {
	var names []string
	if ev.Kind == engine.EventScheduleFired {
		names = s.scheduleNames
	} else {
		names = s.reactionNames
	}
	if ev.ID >= 0 && ev.ID < len(names) {
		return names[ev.ID]
	}
	return fmt.Sprintf("id-%d", ev.ID)
}

// EngineConfig maps the config profile onto an engine configuration.
func EngineConfig(cfg config.EngineConfig) engine.Config {
	var ec engine.Config
	if strings.EqualFold(strings.TrimSpace(cfg.Profile), "compact") {
		ec = engine.CompactConfig()
	} else {
		ec = engine.DefaultConfig()
	}
	if cfg.MaxSchedules > 0 {
		ec.MaxSchedules = cfg.MaxSchedules
	}
	if cfg.MaxReactions > 0 {
		ec.MaxReactions = cfg.MaxReactions
	}
	return ec
}

// Build registers every configured schedule and reaction on eng. The config
// must already be validated; Build still fails cleanly on table overflow.
// Call before Begin.
func Build(cfg *config.Config, eng *engine.Engine, log logx.Logger) (*Set, error) {
	set := &Set{}

	for i, sc := range cfg.Schedules {
		spec, err := config.ParseEvery(sc.Every)
		if err != nil {
			return nil, fmt.Errorf("schedules[%d].every: %w", i, err)
		}
		startDelay, err := config.ParseDurationField(fmt.Sprintf("schedules[%d].start_delay", i), sc.StartDelay)
		if err != nil {
			return nil, err
		}
		action := buildAction(sc.Name, sc.Command, sc.CommandTimeout, log)

		id := eng.AddSchedule(action, spec.Every, startDelay)
		if id == engine.NoID {
			return nil, fmt.Errorf("schedules[%d] %q: schedule table full", i, sc.Name)
		}
		set.scheduleNames = append(set.scheduleNames, sc.Name)
		log.Info("schedule bound",
			logx.String("name", sc.Name),
			logx.Int("id", id),
			logx.Duration("every", spec.Every),
			logx.String("spec", spec.Source))
	}

	for i, rc := range cfg.Reactions {
		timeout, err := config.ParseDurationField(fmt.Sprintf("reactions[%d].timeout", i), rc.Timeout)
		if err != nil {
			return nil, err
		}
		delay, err := config.ParseDurationField(fmt.Sprintf("reactions[%d].delay", i), rc.Delay)
		if err != nil {
			return nil, err
		}
		startDelay, err := config.ParseDurationField(fmt.Sprintf("reactions[%d].start_delay", i), rc.StartDelay)
		if err != nil {
			return nil, err
		}

		trigger := buildTrigger(rc.Watch, rc.Condition)
		action := buildAction(rc.Name, rc.Command, rc.CommandTimeout, log)

		// One-shot reactions pause their own trigger after the first confirmed
		// firing. The id is not known until AddReaction returns, so the wrapper
		// closes over a slot filled in below; registration happens before Begin,
		// long before the first invocation.
		var selfID int
		run := action
		if rc.OneShot {
			run = func() {
				action()
				eng.PauseTrigger(selfID)
			}
		}

		id := eng.AddReaction(trigger, run, timeout, delay, startDelay)
		if id == engine.NoID {
			return nil, fmt.Errorf("reactions[%d] %q: reaction table full", i, rc.Name)
		}
		selfID = id
		set.reactionNames = append(set.reactionNames, rc.Name)
		log.Info("reaction bound",
			logx.String("name", rc.Name),
			logx.Int("id", id),
			logx.String("watch", rc.Watch),
			logx.Duration("timeout", timeout),
			logx.Duration("delay", delay),
			logx.Bool("one_shot", rc.OneShot))
	}

	return set, nil
}

// buildTrigger returns a predicate over the watched path. Condition "missing"
// inverts the existence check; anything else means "exists".
func buildTrigger(path, condition string) engine.Trigger {
	missing := strings.EqualFold(strings.TrimSpace(condition), "missing")
	return func() bool {
		_, err := os.Stat(path)
		exists := err == nil
		if missing {
			return !exists
		}
		return exists
	}
}

// buildAction returns the hook callback. With no command it is a heartbeat
// log line; with one it launches the argv in the background so the poll loop
// never waits on a child process. A still-running previous invocation makes
// the new one a logged skip, not a pile-up.
func buildAction(name string, argv []string, timeoutRaw string, log logx.Logger) engine.Action {
	if len(argv) == 0 {
		return func() {
			log.Info("heartbeat", logx.String("hook", name))
		}
	}

	timeout, err := config.ParseDurationOrDefault("command_timeout", timeoutRaw, time.Minute)
	if err != nil {
		timeout = time.Minute
	}

	var running atomic.Bool
	return func() {
		if !running.CompareAndSwap(false, true) {
			log.Warn("command still running; skipping", logx.String("hook", name))
			return
		}
		go func() {
			defer running.Store(false)

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			start := time.Now()
			cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
			out, err := cmd.CombinedOutput()
			took := time.Since(start)
			if err != nil {
				log.Warn("command failed",
					logx.String("hook", name),
					logx.Err(err),
					logx.Duration("took", took),
					logx.String("output", tail(out, 512)))
				return
			}
			log.Info("command finished",
				logx.String("hook", name),
				logx.Duration("took", took))
		}()
	}
}

func tail(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		s = s[len(s)-n:]
	}
	return s
}
