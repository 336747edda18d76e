package journal

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	logx "tickloop/pkg/logx"
)

// Recorder decouples the poll loop from journal writes. Note is non-blocking
// and drops under pressure; a writer goroutine drains the buffer and runs
// periodic retention pruning.
type Recorder struct {
	store Store
	cfg   Config
	log   logx.Logger

	lim *rate.Limiter
	ch  chan Record

	dropped atomic.Uint64
}

func NewRecorder(store Store, cfg Config, log logx.Logger) *Recorder {
	cfg = cfg.withDefaults()
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Recorder{
		store: store,
		cfg:   cfg,
		log:   log,
		lim:   rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
		ch:    make(chan Record, 256),
	}
}

// Note queues a record for persistence. Never blocks; over-rate or
// buffer-full records are counted and dropped.
func (r *Recorder) Note(rec Record) {
	if r == nil || r.store == nil {
		return
	}
	if !r.lim.Allow() {
		r.dropped.Add(1)
		return
	}
	select {
	case r.ch <- rec:
	default:
		r.dropped.Add(1)
	}
}

// Dropped reports how many records were discarded since start.
func (r *Recorder) Dropped() uint64 { return r.dropped.Load() }

// Run drains queued records until ctx is done, pruning retention hourly.
func (r *Recorder) Run(ctx context.Context) error {
	if r == nil || r.store == nil {
		<-ctx.Done()
		return nil
	}

	prune := time.NewTicker(time.Hour)
	defer prune.Stop()
	r.pruneOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			// Drain what is already buffered before shutting down.
			for {
				select {
				case rec := <-r.ch:
					r.append(rec)
				default:
					return nil
				}
			}
		case rec := <-r.ch:
			r.append(rec)
		case <-prune.C:
			r.pruneOnce(ctx)
		}
	}
}

func (r *Recorder) append(rec Record) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.store.Append(ctx, rec); err != nil {
		r.log.Warn("journal append failed", logx.Err(err), logx.String("hook", rec.Hook))
	}
}

func (r *Recorder) pruneOnce(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	n, err := r.store.Prune(pctx, r.cfg.MaxRecords, time.Now().Add(-r.cfg.MaxAge))
	if err != nil {
		r.log.Warn("journal prune failed", logx.Err(err))
		return
	}
	if n > 0 {
		r.log.Debug("journal pruned", logx.Int("removed", n))
	}
}
