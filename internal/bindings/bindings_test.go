package bindings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"tickloop/internal/clock"
	"tickloop/internal/config"
	"tickloop/internal/engine"
	logx "tickloop/pkg/logx"
)

func TestEngineConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   config.EngineConfig
		want engine.Config
	}{
		{name: "default", in: config.EngineConfig{}, want: engine.Config{MaxSchedules: 8, MaxReactions: 8, Control: true}},
		{name: "compact", in: config.EngineConfig{Profile: "compact"}, want: engine.Config{MaxSchedules: 4, MaxReactions: 4, Control: false}},
		{name: "overrides", in: config.EngineConfig{Profile: "default", MaxSchedules: 16, MaxReactions: 2}, want: engine.Config{MaxSchedules: 16, MaxReactions: 2, Control: true}},
	}
	for _, tt := range tests {
		if got := EngineConfig(tt.in); got != tt.want {
			t.Errorf("%s: EngineConfig = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestBuildBindsAndNames(t *testing.T) {
	t.Parallel()

	clk := clock.NewManual(1000)
	eng := engine.New(engine.DefaultConfig(), clk, logx.Nop())

	cfg := &config.Config{
		Schedules: []config.ScheduleConfig{
			{Name: "heartbeat", Every: "100ms"},
		},
		Reactions: []config.ReactionConfig{
			{Name: "flag", Watch: filepath.Join(t.TempDir(), "flag"), Timeout: "500ms"},
		},
	}

	set, err := Build(cfg, eng, logx.Nop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if eng.Schedules() != 1 || eng.Reactions() != 1 {
		t.Fatalf("registered %d/%d hooks, want 1/1", eng.Schedules(), eng.Reactions())
	}
	if got := set.HookName(engine.Event{Kind: engine.EventScheduleFired, ID: 0}); got != "heartbeat" {
		t.Errorf("schedule name = %q", got)
	}
	if got := set.HookName(engine.Event{Kind: engine.EventReactionFired, ID: 0}); got != "flag" {
		t.Errorf("reaction name = %q", got)
	}
	if got := set.HookName(engine.Event{Kind: engine.EventScheduleFired, ID: 9}); got != "id-9" {
		t.Errorf("out-of-range name = %q", got)
	}
}

func TestBuildRejectsOverflow(t *testing.T) {
	t.Parallel()

	clk := clock.NewManual(0)
	eng := engine.New(engine.Config{MaxSchedules: 1, MaxReactions: 1, Control: true}, clk, logx.Nop())

	cfg := &config.Config{
		Schedules: []config.ScheduleConfig{
			{Name: "a", Every: "1s"},
			{Name: "b", Every: "1s"},
		},
	}
	if _, err := Build(cfg, eng, logx.Nop()); err == nil {
		t.Fatal("expected table-full error")
	}
}

func TestTriggerConditions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	present := filepath.Join(dir, "present")
	if err := os.WriteFile(present, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	absent := filepath.Join(dir, "absent")

	tests := []struct {
		name      string
		path      string
		condition string
		want      bool
	}{
		{name: "exists hit", path: present, condition: "exists", want: true},
		{name: "exists miss", path: absent, condition: "", want: false},
		{name: "missing hit", path: absent, condition: "missing", want: true},
		{name: "missing miss", path: present, condition: "missing", want: false},
	}
	for _, tt := range tests {
		if got := buildTrigger(tt.path, tt.condition)(); got != tt.want {
			t.Errorf("%s: trigger = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestOneShotPausesAfterFiring(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	flag := filepath.Join(dir, "flag")
	if err := os.WriteFile(flag, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	clk := clock.NewManual(1000)
	eng := engine.New(engine.DefaultConfig(), clk, logx.Nop())

	cfg := &config.Config{
		Reactions: []config.ReactionConfig{
			{Name: "once", Watch: flag, Timeout: "100ms", OneShot: true},
		},
	}
	if _, err := Build(cfg, eng, logx.Nop()); err != nil {
		t.Fatal(err)
	}

	var fired int
	eng.Observe(func(ev engine.Event) {
		if ev.Kind == engine.EventReactionFired {
			fired++
		}
	})

	eng.Begin()
	clk.Advance(10 * time.Millisecond)
	eng.Run()
	if fired != 1 {
		t.Fatalf("fired = %d after first pass, want 1", fired)
	}

	// Well past the cool-down: a one-shot must stay quiet.
	clk.Advance(10 * time.Second)
	eng.Run()
	clk.Advance(200 * time.Millisecond)
	eng.Run()
	if fired != 1 {
		t.Errorf("fired = %d after later passes, want 1", fired)
	}
}

func TestHeartbeatActionRuns(t *testing.T) {
	t.Parallel()

	clk := clock.NewManual(0)
	eng := engine.New(engine.DefaultConfig(), clk, logx.Nop())
	cfg := &config.Config{
		Schedules: []config.ScheduleConfig{{Name: "hb", Every: "50ms"}},
	}
	if _, err := Build(cfg, eng, logx.Nop()); err != nil {
		t.Fatal(err)
	}

	var fired int
	eng.Observe(func(ev engine.Event) {
		if ev.Kind == engine.EventScheduleFired {
			fired++
		}
	})
	eng.Begin()
	clk.Advance(60 * time.Millisecond)
	eng.Run()
	if fired != 1 {
		t.Errorf("heartbeat fired %d times, want 1", fired)
	}
}
