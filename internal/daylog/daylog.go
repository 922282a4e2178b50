// Package daylog records completed days. Records go to the document store
// when it is usable and to a list in the kv file otherwise, so a day is never
// lost because the database is unavailable.
package daylog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/sadopc/lockin/internal/kv"
	"github.com/sadopc/lockin/internal/store"
)

type Day = store.CompletedDay

const (
	DefaultProbeTimeout = 2 * time.Second
	probeRetryInterval  = 50 * time.Millisecond
)

// Outcome reports where a saved day ended up.
type Outcome int

const (
	SavedPrimary Outcome = iota
	SavedFallback
)

// MsgFallback is shown when a day was kept in backup storage.
const MsgFallback = "Saved using backup storage. Your data is safe."

type Options struct {
	Path         string // completed-days database file
	Disabled     bool
	ProbeTimeout time.Duration
	Logger       *slog.Logger
}

type Store struct {
	primary    Backend
	primaryErr error
	fallback   Backend
	closer     io.Closer
	logger     *slog.Logger
}

// Open probes the document store and wires the kv fallback. It never fails:
// when the probe does, the store runs on the fallback alone and ProbeErr
// reports why. Days left in the fallback by earlier runs are moved into the
// document store when it is available.
func Open(ctx context.Context, fallback *kv.Store, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Store{
		fallback: &kvBackend{kv: fallback, logger: logger},
		logger:   logger,
	}

	db, err := probe(ctx, opts)
	if err != nil {
		s.primaryErr = err
		logger.Warn("document store unavailable, using backup storage", "kind", Kind(err), "err", err)
		return s
	}
	s.primary = &docBackend{db: db}
	s.closer = db

	if n, err := s.Sync(ctx); err != nil {
		logger.Warn("move backup days into document store", "err", err)
	} else if n > 0 {
		logger.Info("moved backup days into document store", "count", n)
	}
	return s
}

// probe opens the day database while holding the upgrade lock, waiting at
// most the probe timeout for another process to release it.
func probe(ctx context.Context, opts Options) (*store.DayDB, error) {
	if opts.Disabled {
		return nil, fmt.Errorf("document store disabled by config: %w", ErrUnsupported)
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, classify(fmt.Errorf("create data directory: %w", err))
	}

	timeout := opts.ProbeTimeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	lock := flock.New(opts.Path + ".upgrade.lock")
	locked, err := lock.TryLockContext(ctx, probeRetryInterval)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, classify(fmt.Errorf("acquire upgrade lock: %w", err))
	}
	if !locked {
		return nil, fmt.Errorf("upgrade lock held for %s: %w", timeout, ErrBlocked)
	}
	defer func() { _ = lock.Unlock() }()

	db, err := store.OpenDayDB(opts.Path)
	if err != nil {
		return nil, classify(err)
	}
	return db, nil
}

// ProbeErr is the classified reason the document store is not in use, or nil.
func (s *Store) ProbeErr() error { return s.primaryErr }

func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Save writes day, replacing any record with the same date. It succeeds when
// either backend accepts the record. When both fail the error wraps
// ErrUnsupported, ErrBlocked or ErrUnknown, classified from the primary failure.
func (s *Store) Save(ctx context.Context, day Day) (Outcome, error) {
	primaryErr := s.primaryErr
	if primaryErr == nil {
		primaryErr = ErrUnknown
	}
	if s.primary != nil {
		err := s.primary.Put(ctx, day)
		if err == nil {
			s.dropBackup(ctx, day.Date)
			return SavedPrimary, nil
		}
		primaryErr = classify(err)
		s.logger.Warn("document store save failed, using backup storage", "date", day.Date, "err", err)
	}

	if err := s.fallback.Put(ctx, day); err != nil {
		s.logger.Error("backup storage save failed", "date", day.Date, "err", err)
		return SavedFallback, fmt.Errorf("save day %s: %w (backup: %v)", day.Date, primaryErr, err)
	}
	return SavedFallback, nil
}

// dropBackup removes the backup copy of date once the document store holds a
// newer one.
func (s *Store) dropBackup(ctx context.Context, date string) {
	kb, ok := s.fallback.(*kvBackend)
	if !ok {
		return
	}
	if err := kb.remove(ctx, date); err != nil {
		s.logger.Warn("drop stale backup day", "date", date, "err", err)
	}
}

// GetAll returns every completed day sorted by date. Days in the backup list
// are newer than any document store copy and win on equal dates.
func (s *Store) GetAll(ctx context.Context) ([]Day, error) {
	backup, fbErr := s.fallback.All(ctx)
	if s.primary == nil {
		if fbErr != nil {
			return nil, fmt.Errorf("list days: %w (backup: %v)", s.primaryErr, fbErr)
		}
		return backup, nil
	}

	days, err := s.primary.All(ctx)
	if err != nil {
		s.logger.Warn("document store read failed, using backup storage", "err", err)
		if fbErr != nil {
			return nil, fmt.Errorf("list days: %w (backup: %v)", classify(err), fbErr)
		}
		return backup, nil
	}
	if fbErr != nil {
		s.logger.Warn("backup storage read failed", "err", fbErr)
		return days, nil
	}

	newer := make(map[string]Day, len(backup))
	for _, d := range backup {
		newer[d.Date] = d
	}
	merged := make([]Day, 0, len(days)+len(backup))
	for _, d := range days {
		if _, ok := newer[d.Date]; !ok {
			merged = append(merged, d)
		}
	}
	merged = append(merged, backup...)
	sortDays(merged)
	return merged, nil
}

// Get returns the day for date, preferring the backup copy. A missing record
// is not an error.
func (s *Store) Get(ctx context.Context, date string) (Day, bool, error) {
	day, ok, fbErr := s.fallback.Get(ctx, date)
	if fbErr == nil && ok {
		return day, true, nil
	}
	if fbErr != nil {
		s.logger.Warn("backup storage read failed", "date", date, "err", fbErr)
	}
	if s.primary == nil {
		if fbErr != nil {
			return Day{}, false, fmt.Errorf("get day %s: %w", date, fbErr)
		}
		return Day{}, false, nil
	}

	day, ok, err := s.primary.Get(ctx, date)
	if err != nil {
		s.logger.Warn("document store read failed", "date", date, "err", err)
		if fbErr != nil {
			return Day{}, false, fmt.Errorf("get day %s: %w (backup: %v)", date, classify(err), fbErr)
		}
		return Day{}, false, nil
	}
	return day, ok, nil
}

// Sync moves days from the backup list into the document store, replacing
// older records, and clears the list once every record has been copied.
func (s *Store) Sync(ctx context.Context) (int, error) {
	if s.primary == nil {
		return 0, fmt.Errorf("sync days: %w", s.primaryErr)
	}
	days, err := s.fallback.All(ctx)
	if err != nil {
		return 0, err
	}
	if len(days) == 0 {
		return 0, nil
	}
	for i, d := range days {
		if err := s.primary.Put(ctx, d); err != nil {
			return i, fmt.Errorf("sync day %s: %w", d.Date, classify(err))
		}
	}
	if kb, ok := s.fallback.(*kvBackend); ok {
		if err := kb.clear(); err != nil {
			return len(days), fmt.Errorf("clear backup days: %w", err)
		}
	}
	return len(days), nil
}
