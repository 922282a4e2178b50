// Package kv is a small JSON key/value file shared by every lockin process.
// Values are stored as raw JSON under fixed string keys; each write rewrites the
// whole file while holding an exclusive file lock.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when the file lock could not be acquired in time.
var ErrLocked = errors.New("kv file is locked by another process")

const (
	defaultLockTimeout = 3 * time.Second
	lockRetryInterval  = 100 * time.Millisecond
)

type Store struct {
	path        string
	lock        *flock.Flock
	lockTimeout time.Duration
	logger      *slog.Logger

	mu sync.Mutex
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// Open prepares the store at path. The file itself is created on first write.
func Open(path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create kv directory: %w", err)
	}
	s := &Store{
		path:        path,
		lock:        flock.New(path + ".lock"),
		lockTimeout: defaultLockTimeout,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Path() string { return s.path }

// Get decodes the value under key into v. It reports false when the key is absent.
func (s *Store) Get(key string, v any) (bool, error) {
	var found bool
	err := s.withLock(func() error {
		data, err := s.readAll()
		if err != nil {
			return err
		}
		raw, ok := data[key]
		if !ok {
			return nil
		}
		found = true
		if err := json.Unmarshal(raw, v); err != nil {
			return fmt.Errorf("decode %q: %w", key, err)
		}
		return nil
	})
	return found, err
}

// Set encodes v and stores it under key.
func (s *Store) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return s.Update(func(data map[string]json.RawMessage) error {
		data[key] = raw
		return nil
	})
}

func (s *Store) Delete(key string) error {
	return s.Update(func(data map[string]json.RawMessage) error {
		delete(data, key)
		return nil
	})
}

// Update runs fn against the decoded file and writes the result back, all
// under one lock so read-modify-write sequences are not interleaved.
func (s *Store) Update(fn func(map[string]json.RawMessage) error) error {
	return s.withLock(func() error {
		data, err := s.readAll()
		if err != nil {
			return err
		}
		if err := fn(data); err != nil {
			return err
		}
		return s.writeAll(data)
	})
}

func (s *Store) Keys() ([]string, error) {
	var keys []string
	err := s.withLock(func() error {
		data, err := s.readAll()
		if err != nil {
			return err
		}
		for k := range data {
			keys = append(keys, k)
		}
		return nil
	})
	sort.Strings(keys)
	return keys, err
}

func (s *Store) withLock(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.lockTimeout)
	defer cancel()

	locked, err := s.lock.TryLockContext(ctx, lockRetryInterval)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("acquire kv lock: %w", err)
	}
	if !locked {
		return ErrLocked
	}
	defer func() { _ = s.lock.Unlock() }()

	return fn()
}

func (s *Store) readAll() (map[string]json.RawMessage, error) {
	data := map[string]json.RawMessage{}
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read kv file: %w", err)
	}
	if len(b) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(b, &data); err != nil {
		// A corrupt file degrades to empty state; the next write replaces it.
		s.logger.Warn("kv file is not valid JSON, starting empty", "path", s.path, "err", err)
		return map[string]json.RawMessage{}, nil
	}
	return data, nil
}

func (s *Store) writeAll(data map[string]json.RawMessage) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode kv file: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write kv file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace kv file: %w", err)
	}
	return nil
}
