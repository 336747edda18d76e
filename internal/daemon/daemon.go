// Package daemon assembles the process: config, logging, engine, bindings,
// journal and the poll loop, wired under one supervisor.
package daemon

import (
	"context"
	"fmt"
	"time"

	sd "github.com/coreos/go-systemd/v22/daemon"

	"tickloop/internal/bindings"
	"tickloop/internal/clock"
	"tickloop/internal/config"
	"tickloop/internal/engine"
	"tickloop/internal/journal"
	"tickloop/internal/runtime/supervisor"
	logx "tickloop/pkg/logx"
)

const defaultPollInterval = 10 * time.Millisecond

type App struct {
	cfgMgr *config.Manager
	logSvc *logx.Service
	log    logx.Logger

	eng   *engine.Engine
	set   *bindings.Set
	store journal.Store
	rec   *journal.Recorder

	poll time.Duration
	sup  *supervisor.Supervisor
}

func New(cfgPath string) (*App, error) {
	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	mgr.SetLogger(log.With(logx.String("svc", "config")))

	poll, err := config.ParseDurationOrDefault("poll_interval", cfg.PollInterval, defaultPollInterval)
	if err != nil {
		return nil, err
	}

	return &App{
		cfgMgr: mgr,
		logSvc: logSvc,
		log:    log,
		poll:   poll,
	}, nil
}

// Start builds the engine from the loaded config, arms it, and launches the
// poll loop, journal writer and config watcher. It returns immediately; the
// caller waits on ctx and then calls Stop.
func (a *App) Start(ctx context.Context) error {
	cfg := a.cfgMgr.Get()

	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log.With(logx.String("svc", "supervisor"))),
		supervisor.WithCancelOnError(true),
	)

	a.eng = engine.New(bindings.EngineConfig(cfg.Engine), clock.NewWall(),
		a.log.With(logx.String("svc", "engine")))

	if cfg.Journal != nil {
		jcfg, err := journalConfig(cfg.Journal)
		if err != nil {
			return err
		}
		store, err := journal.Open(jcfg, a.log.With(logx.String("svc", "journal")))
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		if store != nil {
			a.store = store
			a.rec = journal.NewRecorder(store, jcfg, a.log.With(logx.String("svc", "journal")))
			a.sup.Go("journal", a.rec.Run)
		}
	}

	set, err := bindings.Build(cfg, a.eng, a.log.With(logx.String("svc", "bindings")))
	if err != nil {
		return err
	}
	a.set = set

	if a.rec != nil {
		rec := a.rec
		a.eng.Observe(func(ev engine.Event) {
			rec.Note(journal.Record{
				At:   time.Now(),
				Tick: uint32(ev.At),
				Hook: set.HookName(ev),
				Kind: ev.Kind.String(),
			})
		})
	}

	// Under systemd with WatchdogSec set, the keep-alive ping runs as a
	// regular engine schedule: if the poll loop wedges, the ping stops and
	// systemd restarts us.
	if wd, werr := sd.SdWatchdogEnabled(false); werr == nil && wd > 0 {
		a.eng.AddSchedule(func() {
			_, _ = sd.SdNotify(false, sd.SdNotifyWatchdog)
		}, wd/2, 0)
		a.log.Info("systemd watchdog enabled", logx.Duration("interval", wd/2))
	}

	a.eng.Begin()
	a.log.Info("engine started",
		logx.Int("schedules", a.eng.Schedules()),
		logx.Int("reactions", a.eng.Reactions()),
		logx.Duration("poll_interval", a.poll))

	a.sup.Go0("poll-loop", a.pollLoop)
	a.sup.Go("config-watch", a.cfgMgr.Watch)
	a.sup.Go0("config-apply", a.applyLoop)

	_, _ = sd.SdNotify(false, sd.SdNotifyReady)
	return nil
}

// pollLoop drives the engine. Every engine interaction after Begin happens
// on this goroutine; nothing else may touch the tables.
func (a *App) pollLoop(ctx context.Context) {
	t := time.NewTicker(a.poll)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			a.eng.Run()
		}
	}
}

// applyLoop picks up config reloads. Only logging changes apply live; the
// engine's tables are fixed after Begin, so hook or engine edits need a
// restart.
func (a *App) applyLoop(ctx context.Context) {
	ch := a.cfgMgr.Subscribe(1)
	defer a.cfgMgr.Unsubscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-ch:
			if !ok {
				return
			}
			a.logSvc.Apply(logx.Config{
				Level:   cfg.Logging.Level,
				Console: cfg.Logging.Console,
				File: logx.FileConfig{
					Enabled: cfg.Logging.File.Enabled,
					Path:    cfg.Logging.File.Path,
				},
			})
			a.log.Info("logging config applied; hook and engine changes take effect on restart")
		}
	}
}

func (a *App) Stop() {
	_, _ = sd.SdNotify(false, sd.SdNotifyStopping)
	if a.sup != nil {
		if !a.sup.Stop(5 * time.Second) {
			a.log.Warn("shutdown timed out waiting for goroutines")
		}
		if err := a.sup.Err(); err != nil {
			a.log.Error("supervisor reported error", logx.Err(err))
		}
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	a.log.Info("stopped")
	_ = a.logSvc.Close()
}

func journalConfig(jc *config.JournalConfig) (journal.Config, error) {
	busy, err := config.ParseDurationField("journal.busy_timeout", jc.BusyTimeout)
	if err != nil {
		return journal.Config{}, err
	}
	maxAge, err := config.ParseDurationField("journal.max_age", jc.MaxAge)
	if err != nil {
		return journal.Config{}, err
	}
	return journal.Config{
		Driver:      jc.Driver,
		Path:        jc.Path,
		BusyTimeout: busy,
		RatePerSec:  jc.RatePerSec,
		MaxRecords:  jc.MaxRecords,
		MaxAge:      maxAge,
	}, nil
}
