package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	xansi "github.com/charmbracelet/x/ansi"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTimer viewState = iota
	viewNotes
	viewCalendar
	viewHeatmap
	viewPages
	viewSettings
)

var viewNames = []string{"Timer", "Notes", "Calendar", "Heatmap", "Pages", "Settings"}

// --- Messages ---

type tickMsg time.Time

type statusMsg struct {
	text    string
	isError bool
}

type clearStatusMsg struct {
	seq int
}

// stateChangedMsg is sent when the kv file was rewritten, possibly by
// another lockin process.
type stateChangedMsg struct{}

type themeChangedMsg struct{}

// dayCompletedMsg refreshes the calendar after a save attempt and carries
// the toast describing where the day landed.
type dayCompletedMsg struct {
	status statusMsg
}

type exportDoneMsg struct {
	path string
}

// statusDuration is how long a toast stays in the footer.
const statusDuration = 4 * time.Second

// --- Helpers ---

func errStatus(prefix string, err error) statusMsg {
	return statusMsg{text: prefix + ": " + err.Error(), isError: true}
}

func statusCmd(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

// truncate cuts s to width terminal cells, adding an ellipsis when it had to.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if xansi.StringWidth(s) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return xansi.Cut(s, 0, width-1) + "…"
}

// firstLine returns the first non-blank line of s.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// padRight pads s with spaces to width cells.
func padRight(s string, width int) string {
	if pad := width - xansi.StringWidth(s); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}
	return s
}
