package kv

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "kv.json"))
	require.NoError(t, err)
	return s
}

func TestGetMissingKey(t *testing.T) {
	s := newTestStore(t)

	var v []string
	found, err := s.Get("nothing", &v)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, v)
}

func TestSetThenGet(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set("count", 7))
	var n int
	found, err := s.Get("count", &n)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 7, n)
}

func TestSetPersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.json")
	a, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, a.Set("theme", "rose"))

	b, err := Open(path)
	require.NoError(t, err)
	var theme string
	found, err := b.Get("theme", &theme)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "rose", theme)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Set("a", 1))
	require.NoError(t, s.Set("b", 2))
	require.NoError(t, s.Delete("a"))

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, keys)
}

func TestUpdateIsAtomicReadModifyWrite(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Set("n", 1))

	err := s.Update(func(data map[string]json.RawMessage) error {
		var n int
		require.NoError(t, json.Unmarshal(data["n"], &n))
		data["n"], _ = json.Marshal(n + 1)
		return nil
	})
	require.NoError(t, err)

	var n int
	_, err = s.Get("n", &n)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUpdateErrorLeavesFileUntouched(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Set("keep", "yes"))

	boom := errors.New("boom")
	err := s.Update(func(data map[string]json.RawMessage) error {
		delete(data, "keep")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var v string
	found, _ := s.Get("keep", &v)
	assert.True(t, found)
}

func TestCorruptFileDegradesToEmpty(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o644))

	var v string
	found, err := s.Get("anything", &v)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set("fresh", "value"))
	found, err = s.Get("fresh", &v)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestLockedByOtherHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.json")
	s, err := Open(path, WithLockTimeout(150*time.Millisecond))
	require.NoError(t, err)

	other := flock.New(path + ".lock")
	require.NoError(t, other.Lock())
	defer other.Unlock()

	err = s.Set("x", 1)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestWatchSeesExternalWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.json")
	s, err := Open(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 8)
	ready := make(chan struct{})
	go func() {
		close(ready)
		_ = s.Watch(ctx, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()
	<-ready
	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)

	other, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, other.Set("tasks", []string{"a"}))

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("expected a change notification")
	}
}
