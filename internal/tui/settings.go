package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/lockin/internal/model"
	"github.com/sadopc/lockin/internal/state"
)

type settingsModel struct {
	ws     *state.Workspace
	width  int
	height int

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	focusTime      *string
	shortBreakTime *string
	longBreakTime  *string
	theme          *string
}

func newSettingsModel(ws *state.Workspace) settingsModel {
	ft, sb, lb, th := "", "", "", ""
	return settingsModel{
		ws:             ws,
		focusTime:      &ft,
		shortBreakTime: &sb,
		longBreakTime:  &lb,
		theme:          &th,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) capturing() bool {
	return s.formActive
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	cur := s.ws.Settings()
	*s.focusTime = strconv.Itoa(cur.FocusTime)
	*s.shortBreakTime = strconv.Itoa(cur.ShortBreakTime)
	*s.longBreakTime = strconv.Itoa(cur.LongBreakTime)
	*s.theme = string(s.ws.Theme())

	themeOpts := make([]huh.Option[string], 0, len(model.Themes))
	for _, t := range model.Themes {
		swatch := lipgloss.NewStyle().Foreground(palettes[t].primary).Render("● ")
		themeOpts = append(themeOpts, huh.NewOption(swatch+string(t), string(t)))
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Focus (1-60 min)").Value(s.focusTime).Validate(minutes(60)),
			huh.NewInput().Title("Short break (1-30 min)").Value(s.shortBreakTime).Validate(minutes(30)),
			huh.NewInput().Title("Long break (1-60 min)").Value(s.longBreakTime).Validate(minutes(60)),
		).Title("Timer"),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Accent color").
				Options(themeOpts...).
				Value(s.theme),
		).Title("Appearance"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

// minutes validates a whole number of minutes between 1 and hi.
func minutes(hi int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("enter a number")
		}
		if n < 1 || n > hi {
			return fmt.Errorf("must be between 1 and %d", hi)
		}
		return nil
	}
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	switch s.form.State {
	case huh.StateCompleted:
		s.formActive = false
		s.form = nil
		return s, s.save()
	case huh.StateAborted:
		s.formActive = false
		s.form = nil
	}
	return s, cmd
}

func (s settingsModel) save() tea.Cmd {
	next := model.Settings{
		FocusTime:      atoi(*s.focusTime),
		ShortBreakTime: atoi(*s.shortBreakTime),
		LongBreakTime:  atoi(*s.longBreakTime),
	}
	if _, err := s.ws.SetSettings(next); err != nil {
		return func() tea.Msg { return errStatus("Save settings", err) }
	}

	cmds := []tea.Cmd{
		func() tea.Msg { return stateChangedMsg{} },
		statusCmd("Settings saved"),
	}
	if t := model.Theme(*s.theme); t != s.ws.Theme() {
		if err := s.ws.SetTheme(t); err != nil {
			return func() tea.Msg { return errStatus("Save theme", err) }
		}
		cmds = append(cmds, func() tea.Msg { return themeChangedMsg{} })
	}
	return tea.Batch(cmds...)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func (s settingsModel) view(width int) string {
	if s.formActive && s.form != nil {
		return panelStyle.Width(width - 2).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Settings"), "", s.form.View()),
		)
	}

	cur := s.ws.Settings()
	rows := []string{titleStyle.Render("Settings"), ""}
	add := func(label, value string) {
		rows = append(rows, fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(16).Render(label), highlightStyle.Render(value)))
	}
	add("Focus", fmt.Sprintf("%d min", cur.FocusTime))
	add("Short break", fmt.Sprintf("%d min", cur.ShortBreakTime))
	add("Long break", fmt.Sprintf("%d min", cur.LongBreakTime))
	add("Accent color", string(s.ws.Theme()))
	add("Pomodoros", strconv.Itoa(s.ws.PomodoroCount()))

	rows = append(rows, "", mutedStyle.Render("Press enter to edit settings, t to cycle the accent color"))
	return panelStyle.Width(width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
