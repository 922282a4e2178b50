package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/lockin/internal/daylog"
	"github.com/sadopc/lockin/internal/model"
	"github.com/sadopc/lockin/internal/stats"
)

// chartDays is how many recent completed days the rate chart shows.
const chartDays = 14

type daysLoadedMsg struct {
	days []daylog.Day
	err  error
}

type calendarModel struct {
	days   *daylog.Store
	now    func() time.Time
	byDate map[string]daylog.Day
	recent []daylog.Day
	err    error

	month    time.Time // first of the shown month
	selected int       // day of month, 1-based
	detail   bool

	chart  barchart.Model
	width  int
	height int
}

func newCalendarModel(days *daylog.Store, now func() time.Time) calendarModel {
	today := now()
	return calendarModel{
		days:     days,
		now:      now,
		byDate:   map[string]daylog.Day{},
		month:    time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()),
		selected: today.Day(),
		chart:    barchart.New(60, 10),
	}
}

func (c *calendarModel) setSize(w, h int) {
	c.width = w
	c.height = h
	c.buildChart()
}

func (c calendarModel) load() tea.Cmd {
	days := c.days
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		all, err := days.GetAll(ctx)
		return daysLoadedMsg{days: all, err: err}
	}
}

func (c calendarModel) update(msg tea.Msg) (calendarModel, tea.Cmd) {
	switch msg := msg.(type) {
	case daysLoadedMsg:
		c.err = msg.err
		c.byDate = make(map[string]daylog.Day, len(msg.days))
		for _, d := range msg.days {
			c.byDate[d.Date] = d
		}
		c.recent = msg.days
		if len(c.recent) > chartDays {
			c.recent = c.recent[len(c.recent)-chartDays:]
		}
		c.buildChart()
		return c, nil

	case tea.KeyMsg:
		if c.detail {
			if key.Matches(msg, keys.Back) || key.Matches(msg, keys.Enter) {
				c.detail = false
			}
			return c, nil
		}
		last := c.month.AddDate(0, 1, -1).Day()
		switch {
		case key.Matches(msg, keys.Left):
			if c.selected > 1 {
				c.selected--
			} else {
				c.shiftMonth(-1)
				c.selected = c.month.AddDate(0, 1, -1).Day()
			}
		case key.Matches(msg, keys.Right):
			if c.selected < last {
				c.selected++
			} else {
				c.shiftMonth(1)
				c.selected = 1
			}
		case key.Matches(msg, keys.Up):
			c.selected = max(1, c.selected-7)
		case key.Matches(msg, keys.Down):
			c.selected = min(last, c.selected+7)
		case msg.String() == "[":
			c.shiftMonth(-1)
		case msg.String() == "]":
			c.shiftMonth(1)
		case key.Matches(msg, keys.Enter):
			if _, ok := c.byDate[c.selectedKey()]; ok {
				c.detail = true
			}
		}
	}
	return c, nil
}

func (c *calendarModel) shiftMonth(n int) {
	c.month = c.month.AddDate(0, n, 0)
	if last := c.month.AddDate(0, 1, -1).Day(); c.selected > last {
		c.selected = last
	}
}

func (c calendarModel) selectedKey() string {
	return model.DateKey(time.Date(c.month.Year(), c.month.Month(), c.selected, 0, 0, 0, 0, c.month.Location()))
}

func (c *calendarModel) buildChart() {
	chartWidth := c.width - 12
	if chartWidth < 20 {
		chartWidth = 20
	}
	c.chart = barchart.New(chartWidth, 8)

	var bars []barchart.BarData
	for _, d := range c.recent {
		label := d.Date
		if t, err := time.Parse(model.DateLayout, d.Date); err == nil {
			label = t.Format("02")
		}
		bars = append(bars, barchart.BarData{
			Label: label,
			Values: []barchart.BarValue{{
				Name:  d.Date,
				Value: float64(d.CompletionRate),
				Style: lipgloss.NewStyle().Foreground(bucketColor(stats.CalendarBucket(d.CompletionRate))),
			}},
		})
	}
	if len(bars) == 0 {
		return
	}
	c.chart.PushAll(bars)
	c.chart.Draw()
}

func (c calendarModel) view(width int) string {
	if c.detail {
		return c.detailView(width)
	}

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Calendar"), "  ",
		accentStyle.Render(c.month.Format("January 2006")),
		"  ", mutedStyle.Render(fmt.Sprintf("%d days completed", len(c.byDate))),
	)

	var rows []string
	rows = append(rows, header, "")
	if c.err != nil {
		rows = append(rows, errorStyle.Render("Error: "+c.err.Error()), "")
	}
	rows = append(rows, c.grid(), "", c.legend(), "")

	if len(c.recent) > 0 {
		rows = append(rows, mutedStyle.Render("Completion rate, last completed days"), c.chart.View(), "")
	}

	rows = append(rows, mutedStyle.Render("←/→/↑/↓: move  [ ]: month  enter: details"))
	return panelStyle.Width(width - 2).Render(strings.Join(rows, "\n"))
}

func (c calendarModel) grid() string {
	today := model.DateKey(c.now())
	var b strings.Builder
	for _, wd := range []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"} {
		b.WriteString(mutedStyle.Render(fmt.Sprintf(" %-4s", wd)))
	}
	b.WriteString("\n")

	for i, cell := range stats.MonthGrid(c.month) {
		if i > 0 && i%7 == 0 {
			b.WriteString("\n")
		}
		if cell.IsZero() {
			b.WriteString("     ")
			continue
		}
		b.WriteString(c.cell(cell, today))
	}
	return b.String()
}

func (c calendarModel) cell(t time.Time, today string) string {
	dateKey := model.DateKey(t)
	style := lipgloss.NewStyle().Width(4).Align(lipgloss.Center)
	if d, ok := c.byDate[dateKey]; ok {
		style = style.Background(bucketColor(stats.CalendarBucket(d.CompletionRate))).Foreground(lipgloss.Color("#111827"))
	} else {
		style = style.Foreground(colorFg)
	}
	if dateKey == today {
		style = style.Bold(true).Underline(true)
	}
	if t.Day() == c.selected {
		style = style.Reverse(true)
	}
	return " " + style.Render(fmt.Sprintf("%d", t.Day()))
}

func (c calendarModel) legend() string {
	items := []struct {
		label string
		b     stats.Bucket
	}{
		{"90%+", stats.BucketPerfect},
		{"75%+", stats.BucketGreat},
		{"60%+", stats.BucketGood},
		{"40%+", stats.BucketFair},
		{"<40%", stats.BucketLow},
	}
	var parts []string
	for _, it := range items {
		dot := lipgloss.NewStyle().Foreground(bucketColor(it.b)).Render("■")
		parts = append(parts, dot+" "+mutedStyle.Render(it.label))
	}
	return strings.Join(parts, "  ")
}

func (c calendarModel) detailView(width int) string {
	d := c.byDate[c.selectedKey()]
	done := 0
	for _, t := range d.Tasks {
		if t.Completed {
			done++
		}
	}

	var rows []string
	rows = append(rows, titleStyle.Render(d.Date), "")
	rate := lipgloss.NewStyle().Bold(true).Foreground(rateColor(d.CompletionRate)).Render(fmt.Sprintf("%d%%", d.CompletionRate))
	rows = append(rows, fmt.Sprintf("%s  %d/%d tasks", rate, done, len(d.Tasks)), "")
	for _, t := range d.Tasks {
		if t.Completed {
			rows = append(rows, successStyle.Render("[x] ")+mutedStyle.Strikethrough(true).Render(truncate(t.Text, width-14)))
		} else {
			rows = append(rows, "[ ] "+truncate(t.Text, width-14))
		}
	}
	if d.Image != "" {
		ctype, data, err := daylog.DecodeImage(d.Image)
		if err == nil {
			rows = append(rows, "", highlightStyle.Render(fmt.Sprintf("Photo attached (%s, %d KB)", ctype, len(data)/1024)))
		}
	}
	rows = append(rows, "", mutedStyle.Render("esc: back"))
	return panelStyle.Width(width - 2).Render(strings.Join(rows, "\n"))
}
