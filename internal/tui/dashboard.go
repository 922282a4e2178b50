package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/lockin/internal/daylog"
	"github.com/sadopc/lockin/internal/model"
	"github.com/sadopc/lockin/internal/state"
	"github.com/sadopc/lockin/internal/stats"
)

// dashboardModel is the task list beside the timer, with the stat cards and
// the complete-day form.
type dashboardModel struct {
	ws     *state.Workspace
	days   *daylog.Store
	now    func() time.Time
	width  int
	height int

	cursor int
	adding bool
	input  textinput.Model

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	confirm   *bool
	imagePath *string
}

func newDashboardModel(ws *state.Workspace, days *daylog.Store, now func() time.Time) dashboardModel {
	in := textinput.New()
	in.Placeholder = "What do you want to get done?"
	in.CharLimit = 200
	confirm, image := true, ""
	return dashboardModel{
		ws:        ws,
		days:      days,
		now:       now,
		input:     in,
		confirm:   &confirm,
		imagePath: &image,
	}
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
	d.input.Width = w/2 - 10
}

func (d dashboardModel) capturing() bool {
	return d.adding || d.formActive
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if d.formActive && d.form != nil {
		return d.updateForm(msg)
	}
	if d.adding {
		return d.updateInput(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return d, nil
	}
	tasks := d.ws.Tasks().List()

	switch {
	case key.Matches(km, keys.Up):
		if d.cursor > 0 {
			d.cursor--
		}
	case key.Matches(km, keys.Down):
		if d.cursor < len(tasks)-1 {
			d.cursor++
		}
	case key.Matches(km, keys.New):
		d.adding = true
		d.input.SetValue("")
		return d, d.input.Focus()
	case key.Matches(km, keys.Enter):
		if d.cursor < len(tasks) {
			if _, err := d.ws.Tasks().Toggle(tasks[d.cursor].ID); err != nil {
				return d, func() tea.Msg { return errStatus("Toggle task", err) }
			}
			return d, d.refreshHeatmap()
		}
	case key.Matches(km, keys.Activate):
		if d.cursor < len(tasks) {
			_ = d.ws.Tasks().SetActive(tasks[d.cursor].ID)
		}
	case key.Matches(km, keys.Delete):
		if d.cursor < len(tasks) {
			if err := d.ws.Tasks().Delete(tasks[d.cursor].ID); err != nil {
				return d, func() tea.Msg { return errStatus("Delete task", err) }
			}
			if d.cursor >= len(tasks)-1 && d.cursor > 0 {
				d.cursor--
			}
			return d, d.refreshHeatmap()
		}
	case key.Matches(km, keys.Complete):
		return d.showCompleteForm()
	}
	return d, nil
}

func (d dashboardModel) updateInput(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Back):
			d.adding = false
			d.input.Blur()
			return d, nil
		case key.Matches(km, keys.Enter):
			d.adding = false
			d.input.Blur()
			task, added, err := d.ws.Tasks().Add(d.input.Value())
			if err != nil {
				return d, func() tea.Msg { return errStatus("Add task", err) }
			}
			if added {
				d.cursor = len(d.ws.Tasks().List()) - 1
				return d, tea.Batch(statusCmd("Added "+task.Text), d.refreshHeatmap())
			}
			return d, nil
		}
	}
	var cmd tea.Cmd
	d.input, cmd = d.input.Update(msg)
	return d, cmd
}

// refreshHeatmap recomputes today's level after the task list changed.
func (d dashboardModel) refreshHeatmap() tea.Cmd {
	if err := d.ws.RefreshToday(); err != nil {
		return func() tea.Msg { return errStatus("Update heatmap", err) }
	}
	return nil
}

func (d dashboardModel) showCompleteForm() (dashboardModel, tea.Cmd) {
	tasks := d.ws.Tasks().List()
	if len(tasks) == 0 {
		return d, func() tea.Msg {
			return statusMsg{text: "Add some tasks first to complete your day!", isError: true}
		}
	}
	*d.confirm = true
	*d.imagePath = ""

	title := fmt.Sprintf("Complete day %d? %d/%d tasks done (%d%%)",
		d.now().Day(), stats.Completed(tasks), len(tasks), stats.CompletionRate(tasks))

	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Progress picture (optional path)").
				Value(d.imagePath).
				Validate(func(s string) error {
					s = strings.TrimSpace(s)
					if s == "" {
						return nil
					}
					if _, err := os.Stat(s); err != nil {
						return errors.New("file not found")
					}
					return nil
				}),
			huh.NewConfirm().
				Title(title).
				Affirmative("Complete").
				Negative("Cancel").
				Value(d.confirm),
		),
	).WithShowHelp(true).WithShowErrors(true)

	d.formActive = true
	return d, d.form.Init()
}

func (d dashboardModel) updateForm(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			d.formActive = false
			d.form = nil
			return d, nil
		}
	}

	form, cmd := d.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.form = f
	}

	switch d.form.State {
	case huh.StateCompleted:
		d.formActive = false
		d.form = nil
		if !*d.confirm {
			return d, nil
		}
		return d, d.completeDay(strings.TrimSpace(*d.imagePath))
	case huh.StateAborted:
		d.formActive = false
		d.form = nil
		return d, nil
	}
	return d, cmd
}

// completeDay saves today's snapshot and reports where it landed.
func (d dashboardModel) completeDay(imagePath string) tea.Cmd {
	tasks := d.ws.Tasks().List()
	now := d.now()
	days := d.days
	return func() tea.Msg {
		image := ""
		if imagePath != "" {
			var err error
			if image, err = daylog.LoadImage(imagePath); err != nil {
				return errStatus("Photo", err)
			}
		}
		day, err := daylog.Complete(tasks, image, now)
		if errors.Is(err, daylog.ErrNoTasks) {
			return statusMsg{text: "Add some tasks first to complete your day!", isError: true}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		out, err := days.Save(ctx, day)
		if err != nil {
			return dayCompletedMsg{status: statusMsg{text: daylog.Message(daylog.Kind(err)), isError: true}}
		}
		if out == daylog.SavedFallback {
			return dayCompletedMsg{status: statusMsg{text: daylog.MsgFallback}}
		}
		return dayCompletedMsg{status: statusMsg{text: daylog.SuccessMessage(day)}}
	}
}

func (d dashboardModel) view(width int) string {
	if d.formActive && d.form != nil {
		title := titleStyle.Render("Complete Day")
		return panelStyle.Width(width - 2).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", d.form.View()),
		)
	}

	tasks := d.ws.Tasks().List()
	activeID, _ := d.ws.Tasks().ActiveID()
	inner := width - 8

	var rows []string
	rows = append(rows, titleStyle.Render(fmt.Sprintf("Today's Tasks  %d/%d", stats.Completed(tasks), len(tasks))))
	rows = append(rows, "")

	if len(tasks) == 0 {
		rows = append(rows, mutedStyle.Render("No tasks yet. Press n to add one."))
	}
	for i, t := range tasks {
		rows = append(rows, d.renderTask(i, t, t.ID == activeID, inner))
	}

	if d.adding {
		rows = append(rows, "", d.input.View())
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("n: new  enter: done  a: focus  d: delete  c: complete day"))

	return panelStyle.Width(width - 2).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderTask(i int, t model.Task, active bool, width int) string {
	cursor := "  "
	style := normalItemStyle
	if i == d.cursor {
		cursor = "> "
		style = selectedItemStyle
	}
	check := "[ ]"
	if t.Completed {
		check = successStyle.Render("[x]")
	}
	marker := ""
	if active {
		marker = accentStyle.Render(" ◉")
	}
	tomatoes := ""
	if t.Pomodoros > 0 {
		tomatoes = mutedStyle.Render(fmt.Sprintf(" (%d)", t.Pomodoros))
	}
	text := truncate(t.Text, width-12)
	if t.Completed {
		text = mutedStyle.Strikethrough(true).Render(text)
	} else {
		text = style.Render(text)
	}
	return cursor + check + " " + text + marker + tomatoes
}

// statsView renders the summary cards under the timer.
func statsView(sum stats.Summary, width int) string {
	cards := []struct {
		label string
		value string
		color lipgloss.Color
	}{
		{"Streak", fmt.Sprintf("%d days", sum.Streak), colorWarning},
		{"Active days", fmt.Sprintf("%d", sum.ActiveDays), colorPrimary},
		{"Completion", fmt.Sprintf("%d%%", sum.CompletionRate), rateColor(sum.CompletionRate)},
		{"Tasks done", fmt.Sprintf("%d", sum.TasksDone), colorSuccess},
		{"Pomodoros", fmt.Sprintf("%d", sum.Pomodoros), colorHighlight},
	}

	cardWidth := width/len(cards) - 2
	if cardWidth < 12 {
		cardWidth = 12
	}
	var rendered []string
	for _, c := range cards {
		body := lipgloss.JoinVertical(lipgloss.Center,
			lipgloss.NewStyle().Bold(true).Foreground(c.color).Render(c.value),
			mutedStyle.Render(c.label),
		)
		rendered = append(rendered, lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Width(cardWidth).
			Align(lipgloss.Center).
			Render(body))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}
