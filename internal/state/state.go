// Package state holds the persisted application state: tasks, timer settings,
// the heatmap, the pomodoro count, the theme and the welcome flag. Each value
// lives under its own key in the kv file and is written back on every change.
package state

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/sadopc/lockin/internal/kv"
	"github.com/sadopc/lockin/internal/model"
	"github.com/sadopc/lockin/internal/pomodoro"
	"github.com/sadopc/lockin/internal/stats"
)

const (
	KeyTasks         = "lockInTasks"
	KeySettings      = "lockInSettings"
	KeyHeatmap       = "lockInHeatmap"
	KeyPomodoroCount = "lockInPomodoroCount"
	KeyTheme         = "lockInTheme"
	KeyWelcomeSeen   = "lockInWelcomeSeen"
)

var ErrTaskNotFound = errors.New("task not found")

// Workspace is the in-memory copy of everything stored in the kv file.
type Workspace struct {
	kv     *kv.Store
	logger *slog.Logger
	now    func() time.Time

	mu            sync.Mutex
	tasks         *Tasks
	settings      model.Settings
	heatmap       model.Heatmap
	pomodoroCount int
	theme         model.Theme
	welcomeSeen   bool
}

type Option func(*Workspace)

func WithLogger(l *slog.Logger) Option {
	return func(w *Workspace) {
		if l != nil {
			w.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *Workspace) { w.now = now }
}

// Open loads every value from store. Missing or malformed values fall back to
// their defaults.
func Open(store *kv.Store, opts ...Option) *Workspace {
	w := &Workspace{
		kv:     store,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.tasks = &Tasks{save: w.saveTasks, now: w.now}
	w.Reload()
	return w
}

// Reload re-reads the kv file, picking up writes from other processes.
// The active task selection survives when the task still exists.
func (w *Workspace) Reload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	tasks := SeedTasks()
	w.load(KeyTasks, &tasks, func() { tasks = SeedTasks() })
	w.tasks.replace(tasks)

	settings := model.DefaultSettings()
	w.load(KeySettings, &settings, func() { settings = model.DefaultSettings() })
	w.settings = settings.Clamp()

	heatmap := model.Heatmap{}
	w.load(KeyHeatmap, &heatmap, func() { heatmap = model.Heatmap{} })
	if heatmap == nil {
		heatmap = model.Heatmap{}
	}
	w.heatmap = heatmap

	count := 0
	w.load(KeyPomodoroCount, &count, func() { count = 0 })
	if count < 0 {
		count = 0
	}
	w.pomodoroCount = count

	theme := model.ThemeCyan
	w.load(KeyTheme, &theme, func() { theme = model.ThemeCyan })
	if !theme.Valid() {
		theme = model.ThemeCyan
	}
	w.theme = theme

	seen := false
	w.load(KeyWelcomeSeen, &seen, func() { seen = false })
	w.welcomeSeen = seen
}

func (w *Workspace) load(key string, v any, reset func()) {
	if _, err := w.kv.Get(key, v); err != nil {
		w.logger.Warn("stored value unreadable, using default", "key", key, "err", err)
		reset()
	}
}

func (w *Workspace) set(key string, v any) error {
	if err := w.kv.Set(key, v); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (w *Workspace) saveTasks(tasks []model.Task) error {
	return w.set(KeyTasks, tasks)
}

func (w *Workspace) Tasks() *Tasks { return w.tasks }

func (w *Workspace) Settings() model.Settings {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.settings
}

// SetSettings clamps s, stores it and returns the stored value.
func (w *Workspace) SetSettings(s model.Settings) (model.Settings, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s = s.Clamp()
	if err := w.set(KeySettings, s); err != nil {
		return w.settings, err
	}
	w.settings = s
	return s, nil
}

// Heatmap returns a copy of the level map.
func (w *Workspace) Heatmap() model.Heatmap {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.heatmap.Clone()
}

func (w *Workspace) SetLevel(date string, level int) error {
	if level < model.MinLevel || level > model.MaxLevel {
		return fmt.Errorf("heatmap level %d out of range", level)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	next := w.heatmap.Clone()
	next[date] = level
	if err := w.set(KeyHeatmap, next); err != nil {
		return err
	}
	w.heatmap = next
	return nil
}

// CycleLevel advances the level for date the way a heatmap cell click does.
func (w *Workspace) CycleLevel(date string) (int, error) {
	w.mu.Lock()
	level := stats.CycleLevel(w.heatmap[date])
	w.mu.Unlock()
	return level, w.SetLevel(date, level)
}

// RefreshToday recomputes today's heatmap level from the task list. It does
// nothing when there are no tasks.
func (w *Workspace) RefreshToday() error {
	level, ok := stats.HeatmapLevel(w.tasks.List())
	if !ok {
		return nil
	}
	return w.SetLevel(model.DateKey(w.now()), level)
}

func (w *Workspace) PomodoroCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pomodoroCount
}

func (w *Workspace) SetPomodoroCount(n int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.set(KeyPomodoroCount, n); err != nil {
		return err
	}
	w.pomodoroCount = n
	return nil
}

func (w *Workspace) Theme() model.Theme {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.theme
}

func (w *Workspace) SetTheme(t model.Theme) error {
	if !t.Valid() {
		return fmt.Errorf("unknown theme %q", t)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.set(KeyTheme, t); err != nil {
		return err
	}
	w.theme = t
	return nil
}

func (w *Workspace) WelcomeSeen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.welcomeSeen
}

func (w *Workspace) MarkWelcomeSeen() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.set(KeyWelcomeSeen, true); err != nil {
		return err
	}
	w.welcomeSeen = true
	return nil
}

// ApplyCompletion records the side effects of a finished timer phase: the
// active task and the counter advance after a focus session, and today's
// heatmap level is recomputed. Every step is attempted; the first error is
// returned.
func (w *Workspace) ApplyCompletion(c pomodoro.Completion) error {
	var errs []error
	if c.From == pomodoro.Focus {
		if id, ok := w.tasks.ActiveID(); ok {
			if err := w.tasks.IncrementPomodoros(id); err != nil && !errors.Is(err, ErrTaskNotFound) {
				errs = append(errs, err)
			}
		}
		if err := w.SetPomodoroCount(c.Count); err != nil {
			errs = append(errs, err)
		}
	}
	if err := w.RefreshToday(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		w.logger.Warn("record timer completion", "err", errs[0], "failures", len(errs))
		return errs[0]
	}
	return nil
}
