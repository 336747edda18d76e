package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Spec is a parsed `every` schedule spec, resolved to the fixed interval
// the engine runs on.
//
// Accepted syntaxes:
//   - Go durations: "55s", "2h30m"
//   - Interval HH:MM: "00:50" = every 50 minutes, "02:30" = every 2h30m
//   - Cron specs with a constant gap: "@every 55m", "@hourly", "@daily",
//     or a 5-field expression whose consecutive firings are equidistant
//     (e.g. "*/5 * * * *")
//
// To force an interpretation, prefix with "cron:", "interval:" or "every:".
// Calendar expressions with varying gaps (e.g. "0 0 1 * *") are rejected:
// the engine is fixed-interval and phase-locked, so only the constant gap
// survives parsing; a cron spec's phase alignment does not.
type Spec struct {
	Every time.Duration
	// Source is the syntax that matched: "duration", "hhmm" or "cron".
	Source string
}

// cronProbe is the reference instant used to probe cron specs for a
// constant gap. UTC avoids DST artifacts in the probe.
var cronProbe = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

func ParseEvery(raw string) (Spec, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Spec{}, fmt.Errorf("empty schedule spec")
	}

	force := ""
	for _, p := range []string{"cron:", "interval:", "every:"} {
		if strings.HasPrefix(s, p) {
			force = strings.TrimSuffix(p, ":")
			s = strings.TrimSpace(strings.TrimPrefix(s, p))
			break
		}
	}
	if force == "interval" || force == "every" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return Spec{}, fmt.Errorf("invalid interval %q: %w", s, err)
		}
		return intervalSpec(d, "duration")
	}
	if force == "cron" {
		return parseCron(s)
	}

	// Unforced: cron specs are recognizable by shape.
	if strings.HasPrefix(s, "@") || strings.Contains(s, " ") {
		return parseCron(s)
	}
	if d, err := time.ParseDuration(s); err == nil {
		return intervalSpec(d, "duration")
	}
	if h, m, err := parseHHMM(s); err == nil {
		return intervalSpec(time.Duration(h)*time.Hour+time.Duration(m)*time.Minute, "hhmm")
	}
	return Spec{}, fmt.Errorf("unrecognized schedule spec %q", raw)
}

func intervalSpec(d time.Duration, source string) (Spec, error) {
	if d < time.Millisecond {
		return Spec{}, fmt.Errorf("interval %s is below the 1ms tick resolution", d)
	}
	return Spec{Every: d, Source: source}, nil
}

func parseCron(s string) (Spec, error) {
	sched, err := cron.ParseStandard(s)
	if err != nil {
		return Spec{}, fmt.Errorf("invalid cron spec %q: %w", s, err)
	}

	// Probe a few consecutive firings: the engine only supports specs that
	// resolve to one fixed interval.
	prev := sched.Next(cronProbe)
	var gap time.Duration
	for i := 0; i < 4; i++ {
		next := sched.Next(prev)
		d := next.Sub(prev)
		if i == 0 {
			gap = d
		} else if d != gap {
			return Spec{}, fmt.Errorf("cron spec %q has a varying gap (%s vs %s); only fixed-interval specs are supported", s, gap, d)
		}
		prev = next
	}
	return intervalSpec(gap, "cron")
}

// parseHHMM parses the compact interval form: "HH:MM" meaning every
// HH hours and MM minutes.
func parseHHMM(s string) (hour int, minute int, err error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	if h == 0 && m == 0 {
		return 0, 0, fmt.Errorf("interval %q must be greater than zero", s)
	}
	return h, m, nil
}
