//go:build sqlite
// +build sqlite

package journal

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "tickloop/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("journal.path is required for sqlite driver")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Append(ctx context.Context, r Record) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if r.At.IsZero() {
		r.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO firings(at, tick, hook, kind) VALUES(?,?,?,?)`,
		r.At.Format(time.RFC3339Nano), int64(r.Tick), r.Hook, r.Kind,
	)
	return err
}

func (s *sqliteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, tick, hook, kind FROM firings ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			at   string
			tick int64
			r    Record
		)
		if err := rows.Scan(&at, &tick, &r.Hook, &r.Kind); err != nil {
			return nil, err
		}
		r.Tick = uint32(tick)
		if t, perr := time.Parse(time.RFC3339Nano, at); perr == nil {
			r.At = t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Prune(ctx context.Context, keep int, olderThan time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, ErrDisabled
	}
	var removed int64
	if !olderThan.IsZero() {
		res, err := s.db.ExecContext(ctx,
			`DELETE FROM firings WHERE at < ?`, olderThan.Format(time.RFC3339Nano))
		if err != nil {
			return 0, err
		}
		n, _ := res.RowsAffected()
		removed += n
	}
	if keep > 0 {
		res, err := s.db.ExecContext(ctx,
			`DELETE FROM firings WHERE id NOT IN (SELECT id FROM firings ORDER BY id DESC LIMIT ?)`, keep)
		if err != nil {
			return int(removed), err
		}
		n, _ := res.RowsAffected()
		removed += n
	}
	return int(removed), nil
}
