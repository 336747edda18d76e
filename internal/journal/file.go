package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	logx "tickloop/pkg/logx"
)

// fileStore is the dependency-free journal backend: one append-only JSON
// Lines file, pruned in place by rewrite-and-rename.
type fileStore struct {
	log logx.Logger
	cfg Config

	mu     sync.Mutex
	f      *os.File
	writes int
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("journal.path is required for file driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return &fileStore{log: log, cfg: cfg, f: f}, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

func (s *fileStore) Append(ctx context.Context, r Record) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return ErrDisabled
	}
	if r.At.IsZero() {
		r.At = time.Now()
	}
	if err := json.NewEncoder(s.f).Encode(r); err != nil {
		return err
	}
	s.writes++
	return nil
}

func (s *fileStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil, ErrDisabled
	}
	all, err := s.readAllLocked()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	// newest first
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return all, nil
}

func (s *fileStore) Prune(ctx context.Context, keep int, olderThan time.Time) (int, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return 0, ErrDisabled
	}
	all, err := s.readAllLocked()
	if err != nil {
		return 0, err
	}

	kept := all[:0]
	for _, r := range all {
		if !olderThan.IsZero() && r.At.Before(olderThan) {
			continue
		}
		kept = append(kept, r)
	}
	if keep > 0 && len(kept) > keep {
		kept = kept[len(kept)-keep:]
	}
	removed := len(all) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	path := s.f.Name()
	tmp := path + ".tmp"
	tf, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, err
	}
	enc := json.NewEncoder(tf)
	for _, r := range kept {
		if err := enc.Encode(r); err != nil {
			_ = tf.Close()
			return 0, err
		}
	}
	if err := tf.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return 0, err
	}

	// Reopen the append handle on the renamed file.
	_ = s.f.Close()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		s.f = nil
		return removed, err
	}
	s.f = f
	return removed, nil
}

func (s *fileStore) readAllLocked() ([]Record, error) {
	f, err := os.Open(s.f.Name())
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Record
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var r Record
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			// A torn last line from a crash is not worth failing reads over.
			continue
		}
		out = append(out, r)
	}
	return out, sc.Err()
}
