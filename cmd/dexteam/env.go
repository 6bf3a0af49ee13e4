package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/dexteam/internal/catalog"
	"github.com/hpungsan/dexteam/internal/config"
	"github.com/hpungsan/dexteam/internal/db"
	"github.com/hpungsan/dexteam/internal/roster"
	"github.com/hpungsan/dexteam/internal/session"
	"github.com/hpungsan/dexteam/internal/storage"
)

// appEnv builds the controller on first use so that help and version never
// touch the database or the network.
type appEnv struct {
	baseDir string
	cfg     *config.Config
	logger  *zap.Logger

	// kv and catalog are set by tests; nil means SQLite and the HTTP client.
	kv      storage.KV
	catalog session.Catalog

	ctrl    *session.Controller
	closers []func() error
}

func newAppEnv(baseDir string, cfg *config.Config, logger *zap.Logger) *appEnv {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &appEnv{baseDir: baseDir, cfg: cfg, logger: logger}
}

// controller opens the store, restores the team and wires the catalog.
// ephemeral keeps the team in memory only.
func (e *appEnv) controller(ephemeral bool) (*session.Controller, error) {
	if e.ctrl != nil {
		return e.ctrl, nil
	}

	kv := e.kv
	switch {
	case kv != nil:
	case ephemeral:
		kv = storage.NewMemoryKV()
	default:
		database, err := db.Init(e.baseDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		db.ConfigurePool(database, e.cfg)
		e.closers = append(e.closers, database.Close)
		kv = db.NewKV(database)
	}

	r := roster.New(storage.NewRosterStore(kv, e.cfg.StorageKey), e.logger.Named("roster"))
	r.Restore()

	cat := e.catalog
	if cat == nil {
		cat = catalog.NewFromConfig(e.cfg, Version)
	}

	e.ctrl = session.New(r, cat, e.cfg.CatalogSize, session.WithLogger(e.logger.Named("session")))
	e.logger.Debug("controller ready",
		zap.Int("team_size", r.Len()),
		zap.Bool("ephemeral", ephemeral),
		zap.Duration("http_timeout", time.Duration(e.cfg.HTTPTimeoutSeconds)*time.Second),
	)
	return e.ctrl, nil
}

// Close releases the database, if one was opened.
func (e *appEnv) Close() {
	for _, closeFn := range e.closers {
		if err := closeFn(); err != nil {
			e.logger.Warn("close failed", zap.Error(err))
		}
	}
	e.closers = nil
}
