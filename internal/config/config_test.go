package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestManagerLoadYAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "tickloop.yaml", `
poll_interval: 10ms
logging:
  level: debug
  console: true
  file:
    enabled: false
    path: ""
engine:
  profile: default
journal:
  driver: file
  path: /tmp/firings.jsonl
schedules:
  - name: heartbeat
    every: 55s
  - name: nightly
    every: "@every 24h"
    start_delay: 5m
    command: ["/usr/local/bin/backup", "--quick"]
    command_timeout: 2m
reactions:
  - name: flag-file
    watch: /tmp/flag
    timeout: 500ms
    delay: 200ms
    command: ["/bin/true"]
`)

	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := m.Get(); got != cfg {
		t.Error("Get returned a different config than Load committed")
	}
	if len(cfg.Schedules) != 2 || len(cfg.Reactions) != 1 {
		t.Fatalf("got %d schedules, %d reactions", len(cfg.Schedules), len(cfg.Reactions))
	}
	if cfg.Schedules[1].Command[0] != "/usr/local/bin/backup" {
		t.Errorf("command not decoded: %v", cfg.Schedules[1].Command)
	}
	if cfg.Journal == nil || cfg.Journal.Driver != "file" {
		t.Errorf("journal not decoded: %+v", cfg.Journal)
	}
}

func TestManagerRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "tickloop.yaml", `
logging:
  level: info
  console: true
  file: {enabled: false, path: ""}
engine: {}
schedulez:
  - name: typo
    every: 1s
`)
	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatal("expected unknown-field error")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	sched := func(name, every string) ScheduleConfig {
		return ScheduleConfig{Name: name, Every: every}
	}

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "ok",
			cfg: Config{
				Schedules: []ScheduleConfig{sched("a", "1s")},
				Reactions: []ReactionConfig{{Name: "b", Watch: "/tmp/x", Timeout: "500ms"}},
			},
		},
		{
			name:    "bad poll interval",
			cfg:     Config{PollInterval: "fast"},
			wantErr: "poll_interval",
		},
		{
			name:    "bad profile",
			cfg:     Config{Engine: EngineConfig{Profile: "turbo"}},
			wantErr: "engine.profile",
		},
		{
			name:    "bad journal driver",
			cfg:     Config{Journal: &JournalConfig{Driver: "postgres"}},
			wantErr: "journal.driver",
		},
		{
			name:    "missing schedule name",
			cfg:     Config{Schedules: []ScheduleConfig{sched("", "1s")}},
			wantErr: "schedules[0].name",
		},
		{
			name:    "bad schedule spec",
			cfg:     Config{Schedules: []ScheduleConfig{sched("a", "whenever")}},
			wantErr: "schedules[0].every",
		},
		{
			name: "duplicate name across kinds",
			cfg: Config{
				Schedules: []ScheduleConfig{sched("x", "1s")},
				Reactions: []ReactionConfig{{Name: "x", Watch: "/tmp/x", Timeout: "1s"}},
			},
			wantErr: "duplicate",
		},
		{
			name:    "reaction without watch path",
			cfg:     Config{Reactions: []ReactionConfig{{Name: "r", Timeout: "1s"}}},
			wantErr: "reactions[0].watch",
		},
		{
			name:    "bad condition",
			cfg:     Config{Reactions: []ReactionConfig{{Name: "r", Watch: "/x", Timeout: "1s", Condition: "sometimes"}}},
			wantErr: "reactions[0].condition",
		},
		{
			name:    "bad reaction delay",
			cfg:     Config{Reactions: []ReactionConfig{{Name: "r", Watch: "/x", Timeout: "1s", Delay: "-2s"}}},
			wantErr: "reactions[0].delay",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
