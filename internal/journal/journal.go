package journal

import (
	"context"
	"errors"
	"strings"
	"time"

	logx "tickloop/pkg/logx"
)

// ErrDisabled is returned by store methods after Close.
var ErrDisabled = errors.New("journal disabled")

// Record is one persisted hook firing.
type Record struct {
	// At is wall-clock time of the poll pass that produced the event.
	At time.Time `json:"at"`
	// Tick is the engine's millisecond tick at that pass.
	Tick uint32 `json:"tick"`
	// Hook is the configured hook name; Kind is the event kind string
	// (schedule_fired, reaction_triggered, ...).
	Hook string `json:"hook"`
	Kind string `json:"kind"`
}

// Config selects and tunes the journal backend.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only

	// RatePerSec caps appends; 0 means the default of 50.
	RatePerSec int
	// Retention limits; zero values mean 10000 records / 7 days.
	MaxRecords int
	MaxAge     time.Duration
}

func (c Config) withDefaults() Config {
	if c.RatePerSec <= 0 {
		c.RatePerSec = 50
	}
	if c.MaxRecords <= 0 {
		c.MaxRecords = 10000
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 7 * 24 * time.Hour
	}
	return c
}

// Store is the persistence API behind the Recorder.
type Store interface {
	Append(ctx context.Context, r Record) error
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)
	// Prune drops records beyond keep or older than olderThan and reports
	// how many were removed.
	Prune(ctx context.Context, keep int, olderThan time.Time) (int, error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if journaling is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg.withDefaults(), log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg.withDefaults(), log)
	default:
		return nil, errors.New("unknown journal driver: " + driver)
	}
}
