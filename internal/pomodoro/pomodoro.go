// Package pomodoro is the focus/break state machine behind the timer view.
// It holds no clock of its own: the caller drives it with Tick once a second.
package pomodoro

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sadopc/lockin/internal/model"
)

type Mode int

const (
	Focus Mode = iota
	ShortBreak
	LongBreak
)

func (m Mode) Name() string {
	switch m {
	case ShortBreak:
		return "Short Break"
	case LongBreak:
		return "Long Break"
	default:
		return "Focus"
	}
}

func (m Mode) IsBreak() bool { return m != Focus }

// LongBreakEvery is the number of focus sessions per long break.
const LongBreakEvery = 4

const (
	MsgFocusDone = "Pomodoro completed! Time for a break"
	MsgBreakDone = "Break completed! Ready to focus?"
)

// Chime plays the completion sound. A Play error is logged and otherwise
// ignored; implementations that play in the background log their own failures.
type Chime interface {
	Play() error
}

// Completion describes a phase that ran out.
type Completion struct {
	From    Mode
	To      Mode
	Count   int // pomodoro count after the transition
	Message string
}

type Timer struct {
	settings  model.Settings
	mode      Mode
	remaining time.Duration
	running   bool
	count     int

	chime  Chime
	logger *slog.Logger
}

type Option func(*Timer)

func WithChime(c Chime) Option {
	return func(t *Timer) { t.chime = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(t *Timer) {
		if l != nil {
			t.logger = l
		}
	}
}

// New returns a paused timer in Focus mode. count is the persisted number of
// completed focus sessions.
func New(settings model.Settings, count int, opts ...Option) *Timer {
	t := &Timer{
		settings: settings.Clamp(),
		count:    count,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.remaining = t.Duration(Focus)
	return t
}

func (t *Timer) Mode() Mode               { return t.mode }
func (t *Timer) Remaining() time.Duration { return t.remaining }
func (t *Timer) Running() bool            { return t.running }
func (t *Timer) Count() int               { return t.count }
func (t *Timer) Settings() model.Settings { return t.settings }
func (t *Timer) SetCount(n int)           { t.count = n }

// Duration is the full length of mode under the current settings.
func (t *Timer) Duration(m Mode) time.Duration {
	switch m {
	case ShortBreak:
		return time.Duration(t.settings.ShortBreakTime) * time.Minute
	case LongBreak:
		return time.Duration(t.settings.LongBreakTime) * time.Minute
	default:
		return time.Duration(t.settings.FocusTime) * time.Minute
	}
}

// Switch moves to mode, pauses, and reloads the full duration.
func (t *Timer) Switch(m Mode) {
	t.mode = m
	t.running = false
	t.remaining = t.Duration(m)
}

func (t *Timer) Toggle() { t.running = !t.running }
func (t *Timer) Start()  { t.running = true }
func (t *Timer) Pause()  { t.running = false }

func (t *Timer) Reset() {
	t.running = false
	t.remaining = t.Duration(t.mode)
}

// SetDurations applies new settings. A paused timer that has not started the
// current phase picks up the new length.
func (t *Timer) SetDurations(s model.Settings) {
	untouched := !t.running && t.remaining == t.Duration(t.mode)
	t.settings = s.Clamp()
	if untouched {
		t.remaining = t.Duration(t.mode)
	}
}

// Tick advances a running timer by one second. It reports a Completion when
// the phase runs out; the timer is then paused in the next mode.
func (t *Timer) Tick() (Completion, bool) {
	if !t.running {
		return Completion{}, false
	}
	if t.remaining > time.Second {
		t.remaining -= time.Second
		return Completion{}, false
	}
	t.remaining = 0
	return t.complete(), true
}

func (t *Timer) complete() Completion {
	t.running = false
	if t.chime != nil {
		if err := t.chime.Play(); err != nil {
			t.logger.Warn("chime failed", "err", err)
		}
	}

	c := Completion{From: t.mode}
	if t.mode == Focus {
		c.To = ShortBreak
		if t.count%LongBreakEvery == LongBreakEvery-1 {
			c.To = LongBreak
		}
		t.count++
		c.Message = MsgFocusDone
	} else {
		c.To = Focus
		c.Message = MsgBreakDone
	}
	c.Count = t.count
	t.Switch(c.To)
	return c
}

// Progress is the elapsed fraction of the current phase, 0 to 1.
func (t *Timer) Progress() float64 {
	total := t.Duration(t.mode)
	if total <= 0 {
		return 0
	}
	return 1 - float64(t.remaining)/float64(total)
}

func (t *Timer) Format() string {
	return Format(t.remaining)
}

// Format renders d as MM:SS, rounding partial seconds up.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
