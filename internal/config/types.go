package config

import (
	"fmt"
	"strings"
)

// Config is the daemon configuration. YAML and JSON are both accepted;
// unknown fields are rejected so typos surface at load time instead of
// silently doing nothing.
//
// All duration-valued fields are Go duration strings (e.g. "500ms", "10s").
type Config struct {
	// PollInterval is the cooperative loop period. Default: "10ms".
	PollInterval string `json:"poll_interval,omitempty"`

	Logging LoggingConfig `json:"logging"`
	Engine  EngineConfig  `json:"engine"`

	// Journal records hook firings. If omitted, journaling is disabled.
	Journal *JournalConfig `json:"journal,omitempty"`

	Schedules []ScheduleConfig `json:"schedules"`
	Reactions []ReactionConfig `json:"reactions"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// EngineConfig selects the engine profile and table capacities.
//
// Profile values:
//   - "" or "default": full profile (pause/resume supported), 8/8 tables
//   - "compact": small-footprint profile (no pause/resume), 4/4 tables
//
// MaxSchedules/MaxReactions override the profile's capacities when > 0.
type EngineConfig struct {
	Profile      string `json:"profile,omitempty"`
	MaxSchedules int    `json:"max_schedules,omitempty"`
	MaxReactions int    `json:"max_reactions,omitempty"`
}

// JournalConfig controls the firing journal.
//
// Driver values:
//   - "none": disabled
//   - "file": append-only JSONL file
//   - "sqlite": SQLite database file
type JournalConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
	// RatePerSec caps journal appends; excess events are dropped, never
	// queued (the journal must not slow the poll loop). Default: 50.
	RatePerSec int `json:"rate_per_sec,omitempty"`
	// Retention. Zero values keep the defaults (10000 records, 7 days).
	MaxRecords int    `json:"max_records,omitempty"`
	MaxAge     string `json:"max_age,omitempty"`
}

// ScheduleConfig declares one periodic hook.
type ScheduleConfig struct {
	Name string `json:"name"`
	// Every accepts a Go duration ("55s"), a compact HH:MM interval
	// ("01:30" = every 90 minutes), or a cron spec with a constant gap
	// ("@every 2h", "@hourly").
	Every      string `json:"every"`
	StartDelay string `json:"start_delay,omitempty"`

	// Command is the argv to run on each firing. Empty means a heartbeat
	// log line.
	Command        []string `json:"command,omitempty"`
	CommandTimeout string   `json:"command_timeout,omitempty"`
}

// ReactionConfig declares one trigger/callback hook.
type ReactionConfig struct {
	Name string `json:"name"`

	// Watch is the filesystem path the trigger inspects each pass.
	Watch string `json:"watch"`
	// Condition is "exists" (default) or "missing".
	Condition string `json:"condition,omitempty"`

	// Timeout is the debounce cool-down; Delay defers the command after a
	// confirmed trigger. Timeout is widened to at least Delay.
	Timeout    string `json:"timeout"`
	Delay      string `json:"delay,omitempty"`
	StartDelay string `json:"start_delay,omitempty"`

	Command        []string `json:"command,omitempty"`
	CommandTimeout string   `json:"command_timeout,omitempty"`

	// OneShot pauses the trigger after its first confirmed firing.
	OneShot bool `json:"one_shot,omitempty"`
}

// Validate checks everything that can be checked without running hooks.
func (c *Config) Validate() error {
	if _, err := ParseDurationOrDefault("poll_interval", c.PollInterval, 0); err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(c.Engine.Profile)) {
	case "", "default", "compact":
	default:
		return fmt.Errorf("engine.profile: unknown profile %q", c.Engine.Profile)
	}

	if j := c.Journal; j != nil {
		switch strings.ToLower(strings.TrimSpace(j.Driver)) {
		case "", "none", "file", "sqlite", "sqlite3":
		default:
			return fmt.Errorf("journal.driver: unknown driver %q", j.Driver)
		}
		if _, err := ParseDurationField("journal.busy_timeout", j.BusyTimeout); err != nil {
			return err
		}
		if _, err := ParseDurationField("journal.max_age", j.MaxAge); err != nil {
			return err
		}
	}

	names := make(map[string]bool)
	for i, s := range c.Schedules {
		path := fmt.Sprintf("schedules[%d]", i)
		if err := validateName(path, s.Name, names); err != nil {
			return err
		}
		if _, err := ParseEvery(s.Every); err != nil {
			return fmt.Errorf("%s.every: %w", path, err)
		}
		if _, err := ParseDurationField(path+".start_delay", s.StartDelay); err != nil {
			return err
		}
		if _, err := ParseDurationField(path+".command_timeout", s.CommandTimeout); err != nil {
			return err
		}
	}
	for i, r := range c.Reactions {
		path := fmt.Sprintf("reactions[%d]", i)
		if err := validateName(path, r.Name, names); err != nil {
			return err
		}
		if strings.TrimSpace(r.Watch) == "" {
			return fmt.Errorf("%s.watch: path is required", path)
		}
		switch strings.ToLower(strings.TrimSpace(r.Condition)) {
		case "", "exists", "missing":
		default:
			return fmt.Errorf("%s.condition: unknown condition %q", path, r.Condition)
		}
		for _, f := range []struct{ name, raw string }{
			{".timeout", r.Timeout},
			{".delay", r.Delay},
			{".start_delay", r.StartDelay},
			{".command_timeout", r.CommandTimeout},
		} {
			if _, err := ParseDurationField(path+f.name, f.raw); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateName(path, name string, seen map[string]bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%s.name: name is required", path)
	}
	if seen[name] {
		return fmt.Errorf("%s.name: duplicate hook name %q", path, name)
	}
	seen[name] = true
	return nil
}
