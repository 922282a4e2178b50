package daylog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/lockin/internal/kv"
	"github.com/sadopc/lockin/internal/model"
	"github.com/sadopc/lockin/internal/store"
)

type failingBackend struct {
	err   error
	calls int
}

func (f *failingBackend) Put(context.Context, Day) error {
	f.calls++
	return f.err
}

func (f *failingBackend) All(context.Context) ([]Day, error) {
	f.calls++
	return nil, f.err
}

func (f *failingBackend) Get(context.Context, string) (Day, bool, error) {
	f.calls++
	return Day{}, false, f.err
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestKV(t *testing.T) *kv.Store {
	t.Helper()
	s, err := kv.Open(filepath.Join(t.TempDir(), "kv.json"))
	require.NoError(t, err)
	return s
}

func openTestStore(t *testing.T) (*Store, *kv.Store, Options) {
	t.Helper()
	fallback := newTestKV(t)
	opts := Options{Path: filepath.Join(t.TempDir(), "days.db")}
	s := Open(context.Background(), fallback, opts)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.ProbeErr())
	return s, fallback, opts
}

func day(date string, rate int) Day {
	return Day{
		Date:           date,
		Tasks:          []store.DayTask{{Text: "walk", Completed: rate > 0}},
		CompletionRate: rate,
	}
}

// ============================================================
// Document store path
// ============================================================

func TestSaveAndGetThroughDocumentStore(t *testing.T) {
	s, fallback, _ := openTestStore(t)
	ctx := context.Background()

	out, err := s.Save(ctx, day("2026-04-02", 50))
	require.NoError(t, err)
	assert.Equal(t, SavedPrimary, out)

	got, ok, err := s.Get(ctx, "2026-04-02")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 50, got.CompletionRate)

	keys, err := fallback.Keys()
	require.NoError(t, err)
	assert.NotContains(t, keys, FallbackKey)
}

func TestSaveSameDateOverwrites(t *testing.T) {
	s, _, _ := openTestStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, day("2026-04-01", 20))
	require.NoError(t, err)
	_, err = s.Save(ctx, day("2026-04-02", 40))
	require.NoError(t, err)
	before, err := s.GetAll(ctx)
	require.NoError(t, err)

	_, err = s.Save(ctx, day("2026-04-02", 100))
	require.NoError(t, err)
	after, err := s.GetAll(ctx)
	require.NoError(t, err)

	assert.Len(t, after, len(before))
	assert.Equal(t, 100, after[1].CompletionRate)
}

func TestGetMissingDay(t *testing.T) {
	s, _, _ := openTestStore(t)
	_, ok, err := s.Get(context.Background(), "1999-01-01")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetAllSortedByDate(t *testing.T) {
	s, _, _ := openTestStore(t)
	ctx := context.Background()
	for _, d := range []string{"2026-05-03", "2026-05-01", "2026-05-02"} {
		_, err := s.Save(ctx, day(d, 10))
		require.NoError(t, err)
	}
	days, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, "2026-05-01", days[0].Date)
	assert.Equal(t, "2026-05-03", days[2].Date)
}

// ============================================================
// Fallback path
// ============================================================

func TestPrimaryFailureFallsBack(t *testing.T) {
	fallback := newTestKV(t)
	primary := &failingBackend{err: errors.New("disk I/O error")}
	s := &Store{primary: primary, fallback: &kvBackend{kv: fallback, logger: discard()}, logger: discard()}
	ctx := context.Background()

	out, err := s.Save(ctx, day("2026-04-03", 80))
	require.NoError(t, err)
	assert.Equal(t, SavedFallback, out)

	days, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "2026-04-03", days[0].Date)

	got, ok, err := s.Get(ctx, "2026-04-03")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 80, got.CompletionRate)
}

func TestDisabledDocumentStoreUsesFallback(t *testing.T) {
	fallback := newTestKV(t)
	s := Open(context.Background(), fallback, Options{Path: filepath.Join(t.TempDir(), "days.db"), Disabled: true})
	defer s.Close()
	assert.Equal(t, KindUnsupported, Kind(s.ProbeErr()))

	ctx := context.Background()
	_, err := s.Save(ctx, day("2026-04-01", 10))
	require.NoError(t, err)
	out, err := s.Save(ctx, day("2026-04-01", 90))
	require.NoError(t, err)
	assert.Equal(t, SavedFallback, out)

	days, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, 90, days[0].CompletionRate)

	_, err = s.Sync(ctx)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestBothBackendsFailing(t *testing.T) {
	tests := []struct {
		name       string
		primaryErr error
		want       ErrorKind
	}{
		{"busy", errors.New("database is locked (5) (SQLITE_BUSY)"), KindBlocked},
		{"kv lock", kv.ErrLocked, KindBlocked},
		{"read only", errors.New("attempt to write a readonly database: read-only file system"), KindUnsupported},
		{"permission", &os.PathError{Op: "open", Path: "/x", Err: os.ErrPermission}, KindUnsupported},
		{"other", errors.New("disk I/O error"), KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Store{
				primary:  &failingBackend{err: tt.primaryErr},
				fallback: &failingBackend{err: errors.New("backup full")},
				logger:   discard(),
			}
			_, err := s.Save(context.Background(), day("2026-04-01", 10))
			require.Error(t, err)
			assert.Equal(t, tt.want, Kind(err))
			assert.NotEmpty(t, Message(Kind(err)))
		})
	}
}

func TestBlockedProbe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "days.db")
	holder := flock.New(path + ".upgrade.lock")
	locked, err := holder.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer holder.Unlock()

	start := time.Now()
	s := Open(context.Background(), newTestKV(t), Options{Path: path, ProbeTimeout: 150 * time.Millisecond})
	defer s.Close()

	assert.ErrorIs(t, s.ProbeErr(), ErrBlocked)
	assert.Less(t, time.Since(start), 2*time.Second)

	out, err := s.Save(context.Background(), day("2026-04-01", 60))
	require.NoError(t, err)
	assert.Equal(t, SavedFallback, out)
}

func TestCorruptFallbackListReadsEmpty(t *testing.T) {
	fallback := newTestKV(t)
	require.NoError(t, fallback.Set(FallbackKey, "garbage"))
	b := &kvBackend{kv: fallback, logger: discard()}

	days, err := b.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, days)

	require.NoError(t, b.Put(context.Background(), day("2026-04-01", 10)))
	days, err = b.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, days, 1)
}

// ============================================================
// Sync
// ============================================================

func TestOpenMovesBackupDaysIntoDocumentStore(t *testing.T) {
	fallback := newTestKV(t)
	path := filepath.Join(t.TempDir(), "days.db")
	ctx := context.Background()

	offline := Open(ctx, fallback, Options{Path: path, Disabled: true})
	_, err := offline.Save(ctx, day("2026-04-05", 70))
	require.NoError(t, err)

	online := Open(ctx, fallback, Options{Path: path})
	defer online.Close()
	require.NoError(t, online.ProbeErr())

	keys, err := fallback.Keys()
	require.NoError(t, err)
	assert.NotContains(t, keys, FallbackKey)

	got, ok, err := online.primary.Get(ctx, "2026-04-05")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 70, got.CompletionRate)
}

func TestGetAllMergesBackupDays(t *testing.T) {
	s, fallback, _ := openTestStore(t)
	ctx := context.Background()
	_, err := s.Save(ctx, day("2026-04-01", 10))
	require.NoError(t, err)

	b := &kvBackend{kv: fallback, logger: discard()}
	require.NoError(t, b.Put(ctx, day("2026-04-01", 99)))
	require.NoError(t, b.Put(ctx, day("2026-04-02", 20)))

	days, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, 99, days[0].CompletionRate, "backup copy is the newer one")

	n, err := s.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, ok, err := s.Get(ctx, "2026-04-01")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 99, got.CompletionRate)
}

// flakyBackend fails while err is set and passes through otherwise.
type flakyBackend struct {
	Backend
	err error
}

func (f *flakyBackend) Put(ctx context.Context, day Day) error {
	if f.err != nil {
		return f.err
	}
	return f.Backend.Put(ctx, day)
}

func TestOverwriteSurvivesBackendSwitches(t *testing.T) {
	s, fallback, _ := openTestStore(t)
	ctx := context.Background()
	flaky := &flakyBackend{Backend: s.primary}
	s.primary = flaky

	rate := func() int {
		t.Helper()
		days, err := s.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, days, 1)
		got, ok, err := s.Get(ctx, "2026-04-01")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, days[0].CompletionRate, got.CompletionRate, "GetAll and Get agree")
		return got.CompletionRate
	}

	out, err := s.Save(ctx, day("2026-04-01", 10))
	require.NoError(t, err)
	assert.Equal(t, SavedPrimary, out)

	flaky.err = errors.New("database is locked (5) (SQLITE_BUSY)")
	out, err = s.Save(ctx, day("2026-04-01", 90))
	require.NoError(t, err)
	assert.Equal(t, SavedFallback, out)
	assert.Equal(t, 90, rate(), "backup overwrite is visible")

	flaky.err = nil
	out, err = s.Save(ctx, day("2026-04-01", 50))
	require.NoError(t, err)
	assert.Equal(t, SavedPrimary, out)
	assert.Equal(t, 50, rate(), "document store save replaces the backup copy")

	keys, err := fallback.Keys()
	require.NoError(t, err)
	assert.NotContains(t, keys, FallbackKey)

	n, err := s.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 50, rate())
}

func TestSyncAppliesBackupOverwrite(t *testing.T) {
	s, fallback, _ := openTestStore(t)
	ctx := context.Background()
	flaky := &flakyBackend{Backend: s.primary}
	s.primary = flaky

	_, err := s.Save(ctx, day("2026-04-01", 10))
	require.NoError(t, err)
	flaky.err = errors.New("database is locked (5) (SQLITE_BUSY)")
	_, err = s.Save(ctx, day("2026-04-01", 90))
	require.NoError(t, err)
	flaky.err = nil

	n, err := s.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, ok, err := flaky.Backend.Get(ctx, "2026-04-01")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 90, got.CompletionRate)

	keys, err := fallback.Keys()
	require.NoError(t, err)
	assert.NotContains(t, keys, FallbackKey)
}

// ============================================================
// Completion helpers
// ============================================================

func TestCompleteRefusesEmptyList(t *testing.T) {
	_, err := Complete(nil, "", time.Now())
	assert.ErrorIs(t, err, ErrNoTasks)
}

func TestCompleteSnapshotsTasks(t *testing.T) {
	now := time.Date(2026, 6, 1, 22, 30, 0, 0, time.Local)
	tasks := []model.Task{
		{ID: 1, Text: "a", Completed: true, Pomodoros: 3},
		{ID: 2, Text: "b", Completed: true},
		{ID: 3, Text: "c", Completed: true},
		{ID: 4, Text: "d"},
		{ID: 5, Text: "e"},
	}
	d, err := Complete(tasks, "", now)
	require.NoError(t, err)
	assert.Equal(t, "2026-06-01", d.Date)
	assert.Equal(t, 60, d.CompletionRate)
	assert.Equal(t, store.DayTask{Text: "a", Completed: true}, d.Tasks[0])
	assert.Equal(t, "Day completed! 60% success rate", SuccessMessage(d))
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	path := filepath.Join(dir, "me.png")
	require.NoError(t, os.WriteFile(path, png, 0o644))

	url, err := LoadImage(path)
	require.NoError(t, err)
	assert.Contains(t, url, "data:image/png;base64,")

	ctype, data, err := DecodeImage(url)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ctype)
	assert.Equal(t, png, data)

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o644))
	_, err = LoadImage(txt)
	assert.Error(t, err)
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "", Message(KindNone))
	assert.Contains(t, Message(KindBlocked), "blocked")
	assert.Contains(t, Message(KindUnsupported), "does not support")
	assert.Contains(t, Message(KindUnknown), "still in memory")
}
