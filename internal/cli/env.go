package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sadopc/lockin/internal/config"
	"github.com/sadopc/lockin/internal/daylog"
	"github.com/sadopc/lockin/internal/kv"
	"github.com/sadopc/lockin/internal/notify"
	"github.com/sadopc/lockin/internal/state"
	"github.com/sadopc/lockin/internal/store"
)

// env is everything a command works on, opened from the config.
type env struct {
	cfg      config.Config
	logger   *slog.Logger
	kv       *kv.Store
	ws       *state.Workspace
	notes    *store.Store
	days     *daylog.Store
	notifier *notify.Notifier

	closers []io.Closer
}

func loadConfig(o *rootOptions) (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, err
	}
	if o.dataDir != "" {
		cfg.DataDir = o.dataDir
	}
	return cfg, nil
}

// openEnv loads the config and opens every store. Only a data directory that
// cannot be created or a kv file that cannot be read is fatal; the document
// store falls back on its own.
func openEnv(ctx context.Context, o *rootOptions) (*env, error) {
	cfg, err := loadConfig(o)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	e := &env{cfg: cfg}
	e.logger, err = e.openLogger()
	if err != nil {
		return nil, err
	}

	e.kv, err = kv.Open(cfg.KVPath(), kv.WithLogger(e.logger))
	if err != nil {
		e.Close()
		return nil, err
	}
	e.ws = state.Open(e.kv, state.WithLogger(e.logger))

	e.notes, err = store.New(cfg.NotesPath(), store.WithLogger(e.logger))
	if err != nil {
		e.Close()
		return nil, err
	}
	e.closers = append(e.closers, e.notes)

	e.days = daylog.Open(ctx, e.kv, daylog.Options{
		Path:         cfg.DaysPath(),
		Disabled:     !cfg.Storage.Document,
		ProbeTimeout: cfg.Storage.ProbeTimeout,
		Logger:       e.logger,
	})
	e.closers = append(e.closers, e.days)

	e.notifier = notify.New(cfg.Sound.Enabled, cfg.Notify.Enabled, e.logger)
	return e, nil
}

func (e *env) openLogger() (*slog.Logger, error) {
	path := e.cfg.LogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	e.closers = append(e.closers, f)
	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: e.cfg.LogLevel()})), nil
}

// Close releases the stores in reverse order of opening.
func (e *env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

// withEnv opens the env for the duration of fn.
func withEnv(ctx context.Context, o *rootOptions, fn func(*env) error) error {
	e, err := openEnv(ctx, o)
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(e)
}
