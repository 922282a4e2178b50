package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/lockin/internal/daylog"
	"github.com/sadopc/lockin/internal/export"
	"github.com/sadopc/lockin/internal/kv"
	"github.com/sadopc/lockin/internal/notify"
	"github.com/sadopc/lockin/internal/state"
	"github.com/sadopc/lockin/internal/stats"
	"github.com/sadopc/lockin/internal/store"
)

// Deps are the opened stores the UI works on. Notifier and KV may be nil.
type Deps struct {
	Workspace *state.Workspace
	Notes     *store.Store
	Days      *daylog.Store
	KV        *kv.Store
	Notifier  *notify.Notifier
	Logger    *slog.Logger
	ExportDir string
	Now       func() time.Time
}

type Option func(*App)

// WithPage opens the pages view on the page with the given id.
func WithPage(id string) Option {
	return func(a *App) { a.startPage = id }
}

// App is the root Bubble Tea model.
type App struct {
	deps   Deps
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int
	startPage     string

	pomodoro  pomodoroModel
	dashboard dashboardModel
	notes     notesModel
	calendar  calendarModel
	heatmap   heatmapModel
	pages     pagesModel
	settings  settingsModel

	help      help.Model
	status    string
	statusErr bool
	statusSeq int
}

func NewApp(deps Deps, opts ...Option) App {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	h := help.New()
	h.ShowAll = false

	a := App{
		deps:       deps,
		activeView: viewTimer,
		pomodoro:   newPomodoroModel(deps.Workspace, deps.Notifier, deps.Logger),
		dashboard:  newDashboardModel(deps.Workspace, deps.Days, deps.Now),
		notes:      newNotesModel(deps.Notes),
		calendar:   newCalendarModel(deps.Days, deps.Now),
		heatmap:    newHeatmapModel(deps.Workspace, deps.Now),
		pages:      newPagesModel(deps.Notes, deps.ExportDir),
		settings:   newSettingsModel(deps.Workspace),
		help:       h,
	}
	for _, opt := range opts {
		opt(&a)
	}

	a.notes.refresh()
	a.pages.refresh()
	if a.startPage != "" {
		if a.pages.open(a.startPage) {
			a.activeView = viewPages
		} else {
			a.status = "Page not found: " + a.startPage
			a.statusErr = true
		}
	}
	return a
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(), a.calendar.load()}
	if !a.deps.Workspace.WelcomeSeen() {
		ws := a.deps.Workspace
		cmds = append(cmds, func() tea.Msg {
			if err := ws.MarkWelcomeSeen(); err != nil {
				return errStatus("Save welcome flag", err)
			}
			return statusMsg{text: "Welcome to lockin! Pick a task, press a to focus it and space to start."}
		})
	}
	return tea.Batch(cmds...)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func clearStatusCmd(seq int) tea.Cmd {
	return tea.Tick(statusDuration, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.pomodoro.setSize(a.width/2, contentHeight)
		a.dashboard.setSize(a.width-a.width/2, contentHeight)
		a.notes.setSize(a.width, contentHeight)
		a.calendar.setSize(a.width, contentHeight)
		a.heatmap.setSize(a.width, contentHeight)
		a.pages.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// A child capturing input (text field or form) gets every key.
		if a.isInputActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Theme):
			return a, a.cycleTheme()
		case key.Matches(msg, keys.Export) && a.activeView != viewPages:
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchView(viewTimer)
		case key.Matches(msg, keys.Tab2):
			return a.switchView(viewNotes)
		case key.Matches(msg, keys.Tab3):
			return a.switchView(viewCalendar)
		case key.Matches(msg, keys.Tab4):
			return a.switchView(viewHeatmap)
		case key.Matches(msg, keys.Tab5):
			return a.switchView(viewPages)
		case key.Matches(msg, keys.Tab6):
			return a.switchView(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchView((a.activeView + 1) % viewState(len(viewNames)))
		}

	case tickMsg:
		// The timer runs whatever view is shown.
		var cmd tea.Cmd
		a.pomodoro, cmd = a.pomodoro.update(msg)
		return a, tea.Batch(tickCmd(), cmd)

	case statusMsg:
		return a.setStatus(msg)

	case clearStatusMsg:
		if msg.seq == a.statusSeq {
			a.status = ""
			a.statusErr = false
		}
		return a, nil

	case dayCompletedMsg:
		m, cmd := a.setStatus(msg.status)
		a = m.(App)
		return a, tea.Batch(cmd, a.calendar.load())

	case stateChangedMsg:
		a.deps.Workspace.Reload()
		a.pomodoro.sync()
		applyTheme(a.deps.Workspace.Theme())
		return a, nil

	case themeChangedMsg:
		applyTheme(a.deps.Workspace.Theme())
		return a, nil

	case exportDoneMsg:
		a.exportPicking = false
		return a.setStatus(statusMsg{text: "Exported to " + msg.path})

	case editorDoneMsg:
		var cmd tea.Cmd
		a.pages, cmd = a.pages.update(msg)
		return a, cmd

	case daysLoadedMsg:
		var cmd tea.Cmd
		a.calendar, cmd = a.calendar.update(msg)
		return a, cmd
	}

	return a.updateActiveView(msg)
}

func (a App) setStatus(msg statusMsg) (tea.Model, tea.Cmd) {
	a.status = msg.text
	a.statusErr = msg.isError
	a.statusSeq++
	return a, clearStatusCmd(a.statusSeq)
}

func (a App) switchView(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	switch v {
	case viewNotes:
		a.notes.refresh()
	case viewPages:
		a.pages.refresh()
	case viewCalendar:
		return a, a.calendar.load()
	}
	return a, nil
}

func (a App) cycleTheme() tea.Cmd {
	ws := a.deps.Workspace
	next := ws.Theme().Next()
	if err := ws.SetTheme(next); err != nil {
		return func() tea.Msg { return errStatus("Save theme", err) }
	}
	return tea.Batch(
		func() tea.Msg { return themeChangedMsg{} },
		statusCmd(fmt.Sprintf("Theme: %s", next)),
	)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTimer:
		if km, ok := msg.(tea.KeyMsg); ok && !a.dashboard.capturing() && isTimerKey(km) {
			a.pomodoro, cmd = a.pomodoro.update(msg)
		} else {
			a.dashboard, cmd = a.dashboard.update(msg)
		}
	case viewNotes:
		a.notes, cmd = a.notes.update(msg)
	case viewCalendar:
		a.calendar, cmd = a.calendar.update(msg)
	case viewHeatmap:
		a.heatmap, cmd = a.heatmap.update(msg)
	case viewPages:
		a.pages, cmd = a.pages.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func isTimerKey(km tea.KeyMsg) bool {
	return key.Matches(km, keys.Toggle, keys.Reset, keys.Focus, keys.ShortBreak, keys.LongBreak)
}

func (a App) isInputActive() bool {
	switch a.activeView {
	case viewTimer:
		return a.dashboard.capturing()
	case viewNotes:
		return a.notes.capturing()
	case viewPages:
		return a.pages.capturing()
	case viewSettings:
		return a.settings.capturing()
	}
	return false
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTimer:
		content = a.timerView()
	case viewNotes:
		content = a.notes.view(a.width)
	case viewCalendar:
		content = a.calendar.view(a.width)
	case viewHeatmap:
		content = a.heatmap.view(a.width)
	case viewPages:
		content = a.pages.view(a.width)
	case viewSettings:
		content = a.settings.view(a.width)
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

// timerView puts the clock beside the task list with the stat cards below.
func (a App) timerView() string {
	left := a.width / 2
	top := lipgloss.JoinHorizontal(lipgloss.Top,
		a.pomodoro.view(left),
		a.dashboard.view(a.width-left),
	)
	ws := a.deps.Workspace
	sum := stats.Summarize(ws.Tasks().List(), ws.Heatmap(), ws.PomodoroCount(), a.deps.Now())
	return lipgloss.JoinVertical(lipgloss.Left, top, statsView(sum, a.width))
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("lockin")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		if a.statusErr {
			status = errorStyle.Render(" " + a.status)
		} else {
			status = successStyle.Render(" " + a.status)
		}
	}

	// Keep the countdown visible from every view.
	timerInfo := ""
	if a.activeView != viewTimer {
		t := a.pomodoro.timer
		if t.Running() {
			timerInfo = accentStyle.Render(" ● " + t.Mode().Name() + " " + t.Format())
		} else if t.Progress() > 0 {
			timerInfo = warningStyle.Render(" ⏸ " + t.Mode().Name() + " " + t.Format())
		}
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

var exportFormats = []string{"CSV", "JSON", "JSON with photos"}

func (a App) renderExportPicker() string {
	var rows []string
	rows = append(rows, titleStyle.Render("Export Completed Days"))
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	days := a.deps.Days
	dir := a.deps.ExportDir
	now := a.deps.Now()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		all, err := days.GetAll(ctx)
		if err != nil {
			return errStatus("Export", err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errStatus("Export", err)
		}

		base := filepath.Join(dir, "lockin-days-"+now.Format("2006-01-02"))
		var path string
		switch format {
		case 0:
			path = base + ".csv"
			err = export.DaysToCSV(all, path)
		default:
			path = base + ".json"
			err = export.DaysToJSON(all, format == 2, path)
		}
		if err != nil {
			return errStatus("Export", err)
		}
		return exportDoneMsg{path: path}
	}
}

// Run starts the full-screen UI and blocks until the user quits or ctx ends.
// Changes to the kv file made by other processes are picked up live.
func Run(ctx context.Context, deps Deps, opts ...Option) error {
	applyColorProfile()
	applyTheme(deps.Workspace.Theme())

	app := NewApp(deps, opts...)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	if deps.KV != nil {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		logger := app.deps.Logger
		go func() {
			err := deps.KV.Watch(watchCtx, func() { p.Send(stateChangedMsg{}) })
			if err != nil {
				logger.Warn("kv watch stopped", "err", err)
			}
		}()
	}

	_, err := p.Run()
	if err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
