package pomodoro

import (
	"errors"
	"testing"
	"time"

	"github.com/sadopc/lockin/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChime struct {
	plays int
	err   error
}

func (f *fakeChime) Play() error {
	f.plays++
	return f.err
}

func quick() model.Settings {
	return model.Settings{FocusTime: 1, ShortBreakTime: 1, LongBreakTime: 2}
}

// runOut ticks until the current phase completes.
func runOut(t *testing.T, tm *Timer) Completion {
	t.Helper()
	tm.Start()
	for i := 0; i < 3600; i++ {
		if c, done := tm.Tick(); done {
			return c
		}
	}
	t.Fatal("phase never completed")
	return Completion{}
}

func TestNewStartsPausedInFocus(t *testing.T) {
	tm := New(model.DefaultSettings(), 0)
	assert.Equal(t, Focus, tm.Mode())
	assert.False(t, tm.Running())
	assert.Equal(t, 25*time.Minute, tm.Remaining())
	assert.Equal(t, "25:00", tm.Format())
}

func TestTickWhilePausedDoesNothing(t *testing.T) {
	tm := New(quick(), 0)
	_, done := tm.Tick()
	assert.False(t, done)
	assert.Equal(t, time.Minute, tm.Remaining())
}

func TestTickDecrements(t *testing.T) {
	tm := New(quick(), 0)
	tm.Toggle()
	tm.Tick()
	tm.Tick()
	assert.Equal(t, 58*time.Second, tm.Remaining())
	assert.Equal(t, "00:58", tm.Format())
}

func TestToggleKeepsRemaining(t *testing.T) {
	tm := New(quick(), 0)
	tm.Toggle()
	tm.Tick()
	tm.Toggle()
	assert.False(t, tm.Running())
	assert.Equal(t, 59*time.Second, tm.Remaining())
}

func TestSwitchResetsAndPauses(t *testing.T) {
	tm := New(quick(), 0)
	tm.Toggle()
	tm.Tick()
	tm.Switch(LongBreak)
	assert.Equal(t, LongBreak, tm.Mode())
	assert.False(t, tm.Running())
	assert.Equal(t, 2*time.Minute, tm.Remaining())
}

func TestReset(t *testing.T) {
	tm := New(quick(), 0)
	tm.Switch(ShortBreak)
	tm.Toggle()
	tm.Tick()
	tm.Reset()
	assert.False(t, tm.Running())
	assert.Equal(t, ShortBreak, tm.Mode())
	assert.Equal(t, time.Minute, tm.Remaining())
}

func TestFourthFocusGoesToLongBreak(t *testing.T) {
	chime := &fakeChime{}
	tm := New(quick(), 0, WithChime(chime))

	want := []Mode{ShortBreak, ShortBreak, ShortBreak, LongBreak}
	for i, next := range want {
		require.Equal(t, Focus, tm.Mode())
		c := runOut(t, tm)
		assert.Equal(t, Focus, c.From)
		assert.Equal(t, next, c.To, "focus session %d", i+1)
		assert.Equal(t, i+1, c.Count)
		assert.Equal(t, MsgFocusDone, c.Message)
		assert.False(t, tm.Running())
		assert.Equal(t, tm.Duration(next), tm.Remaining())

		c = runOut(t, tm)
		assert.Equal(t, Focus, c.To)
		assert.Equal(t, MsgBreakDone, c.Message)
	}
	assert.Equal(t, 4, tm.Count())
	assert.Equal(t, 8, chime.plays)
}

func TestPersistedCountDecidesLongBreak(t *testing.T) {
	tm := New(quick(), 7)
	c := runOut(t, tm)
	assert.Equal(t, LongBreak, c.To)
	assert.Equal(t, 8, tm.Count())
}

func TestBreakCompletionKeepsCount(t *testing.T) {
	tm := New(quick(), 2)
	tm.Switch(ShortBreak)
	runOut(t, tm)
	assert.Equal(t, 2, tm.Count())
	assert.Equal(t, Focus, tm.Mode())
}

func TestChimeFailureIsSwallowed(t *testing.T) {
	chime := &fakeChime{err: errors.New("no audio device")}
	tm := New(quick(), 0, WithChime(chime))
	c := runOut(t, tm)
	assert.Equal(t, ShortBreak, c.To)
	assert.Equal(t, 1, chime.plays)
}

func TestSetDurations(t *testing.T) {
	tm := New(quick(), 0)
	tm.SetDurations(model.Settings{FocusTime: 50, ShortBreakTime: 10, LongBreakTime: 20})
	assert.Equal(t, 50*time.Minute, tm.Remaining(), "untouched phase follows new length")

	tm.Toggle()
	tm.Tick()
	tm.SetDurations(model.Settings{FocusTime: 30, ShortBreakTime: 10, LongBreakTime: 20})
	assert.Equal(t, 50*time.Minute-time.Second, tm.Remaining(), "phase in progress keeps its time")
	assert.Equal(t, 30*time.Minute, tm.Duration(Focus))
}

func TestProgress(t *testing.T) {
	tm := New(quick(), 0)
	assert.Equal(t, 0.0, tm.Progress())
	tm.Toggle()
	for i := 0; i < 30; i++ {
		tm.Tick()
	}
	assert.InDelta(t, 0.5, tm.Progress(), 1e-9)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "00:00", Format(0))
	assert.Equal(t, "00:00", Format(-time.Second))
	assert.Equal(t, "01:05", Format(65*time.Second))
	assert.Equal(t, "00:01", Format(500*time.Millisecond))
	assert.Equal(t, "60:00", Format(time.Hour))
}

func TestModeName(t *testing.T) {
	assert.Equal(t, "Focus", Focus.Name())
	assert.Equal(t, "Short Break", ShortBreak.Name())
	assert.Equal(t, "Long Break", LongBreak.Name())
	assert.True(t, LongBreak.IsBreak())
	assert.False(t, Focus.IsBreak())
}
