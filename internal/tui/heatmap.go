package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/lockin/internal/model"
	"github.com/sadopc/lockin/internal/state"
	"github.com/sadopc/lockin/internal/stats"
)

// heatmapDays is the span of the year grid, a full 53 weeks.
const heatmapDays = 371

type heatmapModel struct {
	ws     *state.Workspace
	now    func() time.Time
	cursor int // index into the cells, heatmapDays-1 is today
	width  int
	height int
}

func newHeatmapModel(ws *state.Workspace, now func() time.Time) heatmapModel {
	return heatmapModel{ws: ws, now: now, cursor: heatmapDays - 1}
}

func (h *heatmapModel) setSize(w, hgt int) {
	h.width = w
	h.height = hgt
}

func (h heatmapModel) update(msg tea.Msg) (heatmapModel, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return h, nil
	}
	switch {
	case key.Matches(km, keys.Up):
		h.cursor = max(0, h.cursor-1)
	case key.Matches(km, keys.Down):
		h.cursor = min(heatmapDays-1, h.cursor+1)
	case key.Matches(km, keys.Left):
		h.cursor = max(0, h.cursor-7)
	case key.Matches(km, keys.Right):
		h.cursor = min(heatmapDays-1, h.cursor+7)
	case key.Matches(km, keys.Enter):
		cells := stats.YearCells(h.now(), heatmapDays)
		date := model.DateKey(cells[h.cursor])
		level, err := h.ws.CycleLevel(date)
		if err != nil {
			return h, func() tea.Msg { return errStatus("Update heatmap", err) }
		}
		return h, statusCmd(fmt.Sprintf("%s set to level %d", date, level))
	}
	return h, nil
}

func (h heatmapModel) view(width int) string {
	today := h.now()
	hm := h.ws.Heatmap()
	cells := stats.YearCells(today, heatmapDays)

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Activity"), "  ",
		warningStyle.Render(fmt.Sprintf("%d day streak", stats.CurrentStreak(hm, today))), "  ",
		mutedStyle.Render(fmt.Sprintf("%d active days", stats.ActiveDays(hm))),
	)

	// Columns are weeks and rows are weekdays, padded so the first column
	// starts on Sunday.
	lead := int(cells[0].Weekday())
	cols := (lead + len(cells) + 6) / 7
	grid := make([][]string, 7)
	for r := range grid {
		grid[r] = make([]string, cols)
		for c := range grid[r] {
			grid[r][c] = " "
		}
	}
	for i, t := range cells {
		pos := lead + i
		level := hm[model.DateKey(t)]
		cell := lipgloss.NewStyle().Foreground(levelColor(level)).Render("■")
		if i == h.cursor {
			cell = lipgloss.NewStyle().Foreground(colorFg).Bold(true).Render("◆")
		}
		grid[pos%7][pos/7] = cell
	}

	// Keep the most recent weeks when the terminal is narrow.
	maxCols := (width - 14) / 2
	start := 0
	if maxCols > 0 && cols > maxCols {
		start = cols - maxCols
	}

	var b strings.Builder
	b.WriteString(header + "\n\n")
	b.WriteString("    " + h.monthLabels(cells, lead, start, cols) + "\n")
	dayLabels := []string{"", "Mon", "", "Wed", "", "Fri", ""}
	for r := 0; r < 7; r++ {
		b.WriteString(mutedStyle.Render(padRight(dayLabels[r], 4)))
		b.WriteString(strings.Join(grid[r][start:], " "))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Less "))
	for l := model.MinLevel; l <= model.MaxLevel; l++ {
		b.WriteString(lipgloss.NewStyle().Foreground(levelColor(l)).Render("■ "))
	}
	b.WriteString(mutedStyle.Render("More"))

	sel := cells[h.cursor]
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%s  level %d", sel.Format("Mon, Jan 2 2006"), hm[model.DateKey(sel)]))
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render("arrows: move  enter: cycle level"))

	return panelStyle.Width(width - 2).Render(b.String())
}

// monthLabels writes a month abbreviation above the first week of each month.
func (h heatmapModel) monthLabels(cells []time.Time, lead, start, cols int) string {
	line := make([]byte, 0, (cols-start)*2)
	lastMonth := time.Month(0)
	for c := start; c < cols; c++ {
		idx := c*7 - lead
		if idx < 0 {
			idx = 0
		}
		if idx >= len(cells) {
			break
		}
		m := cells[idx].Month()
		if m != lastMonth && len(line) <= (c-start)*2 {
			for len(line) < (c-start)*2 {
				line = append(line, ' ')
			}
			line = append(line, m.String()[:3]...)
			lastMonth = m
		}
	}
	return mutedStyle.Render(string(line))
}
