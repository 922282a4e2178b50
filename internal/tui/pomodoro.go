package tui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/lockin/internal/notify"
	"github.com/sadopc/lockin/internal/pomodoro"
	"github.com/sadopc/lockin/internal/state"
)

var timerModes = []pomodoro.Mode{pomodoro.Focus, pomodoro.ShortBreak, pomodoro.LongBreak}

type pomodoroModel struct {
	timer    *pomodoro.Timer
	ws       *state.Workspace
	notifier *notify.Notifier
	width    int
	height   int
}

func newPomodoroModel(ws *state.Workspace, n *notify.Notifier, logger *slog.Logger) pomodoroModel {
	opts := []pomodoro.Option{pomodoro.WithLogger(logger)}
	if n != nil {
		opts = append(opts, pomodoro.WithChime(asyncChime{play: n.Play, logger: logger}))
	}
	return pomodoroModel{
		timer:    pomodoro.New(ws.Settings(), ws.PomodoroCount(), opts...),
		ws:       ws,
		notifier: n,
	}
}

// asyncChime plays the tone off the update loop so the UI keeps ticking.
// Play always reports success; a failed tone is logged by the goroutine.
type asyncChime struct {
	play   func() error
	logger *slog.Logger
}

func (c asyncChime) Play() error {
	go func() {
		if err := c.play(); err != nil {
			c.logger.Warn("chime failed", "err", err)
		}
	}()
	return nil
}

func (p *pomodoroModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

// sync pulls durations and the counter from the workspace after it reloads.
func (p *pomodoroModel) sync() {
	p.timer.SetDurations(p.ws.Settings())
	p.timer.SetCount(p.ws.PomodoroCount())
}

func (p pomodoroModel) update(msg tea.Msg) (pomodoroModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if c, done := p.timer.Tick(); done {
			return p, p.complete(c)
		}
		return p, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Toggle):
			p.timer.Toggle()
		case key.Matches(msg, keys.Reset):
			p.timer.Reset()
		case key.Matches(msg, keys.Focus):
			p.timer.Switch(pomodoro.Focus)
		case key.Matches(msg, keys.ShortBreak):
			p.timer.Switch(pomodoro.ShortBreak)
		case key.Matches(msg, keys.LongBreak):
			p.timer.Switch(pomodoro.LongBreak)
		}
	}
	return p, nil
}

// complete records a finished phase and reports it as a toast.
func (p pomodoroModel) complete(c pomodoro.Completion) tea.Cmd {
	err := p.ws.ApplyCompletion(c)
	n := p.notifier
	return func() tea.Msg {
		if n != nil {
			n.Info(notify.AppName, c.Message)
		}
		if err != nil {
			return errStatus(c.Message+" (not saved)", err)
		}
		return statusMsg{text: c.Message}
	}
}

func (p pomodoroModel) view(width int) string {
	w := width - 6
	if w < 20 {
		w = 20
	}

	var tabs []string
	for _, m := range timerModes {
		if m == p.timer.Mode() {
			tabs = append(tabs, activeTabStyle.Render(m.Name()))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(m.Name()))
		}
	}
	modeRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	clock := timerStyle.Width(w).Render(bigTime(p.timer.Format()))

	runState := mutedStyle.Render("paused")
	if p.timer.Running() {
		runState = successStyle.Render("running")
	}

	active := mutedStyle.Render("No task selected. Press a on a task to focus it.")
	if id, ok := p.ws.Tasks().ActiveID(); ok {
		if t, found := p.ws.Tasks().Get(id); found {
			active = "Working on: " + highlightStyle.Render(truncate(t.Text, w-12))
		}
	}

	count := mutedStyle.Render(fmt.Sprintf("Pomodoros completed: %d", p.timer.Count()))

	content := lipgloss.JoinVertical(lipgloss.Center,
		modeRow,
		"",
		clock,
		"",
		progressBar(p.timer.Progress(), w-4),
		runState,
		"",
		active,
		count,
	)
	return activePanelStyle.Width(width - 2).Render(content)
}

func progressBar(frac float64, width int) string {
	if width < 4 {
		width = 4
	}
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * float64(width))
	return accentStyle.Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", width-filled))
}

// bigTime spaces out MM:SS so it reads at a glance.
func bigTime(s string) string {
	return strings.Join(strings.Split(s, ""), " ")
}
