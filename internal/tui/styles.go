package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/sadopc/lockin/internal/model"
	"github.com/sadopc/lockin/internal/stats"
)

// palette is one accent theme. shades runs from the darkest heatmap level to
// the brightest.
type palette struct {
	primary lipgloss.Color
	shades  [5]lipgloss.Color
}

var palettes = map[model.Theme]palette{
	model.ThemeCyan:    {"#06B6D4", [5]lipgloss.Color{"#164E63", "#0E7490", "#0891B2", "#06B6D4", "#67E8F9"}},
	model.ThemePurple:  {"#A855F7", [5]lipgloss.Color{"#581C87", "#7E22CE", "#9333EA", "#A855F7", "#D8B4FE"}},
	model.ThemeEmerald: {"#10B981", [5]lipgloss.Color{"#064E3B", "#047857", "#059669", "#10B981", "#6EE7B7"}},
	model.ThemeAmber:   {"#F59E0B", [5]lipgloss.Color{"#78350F", "#B45309", "#D97706", "#F59E0B", "#FCD34D"}},
	model.ThemeRose:    {"#F43F5E", [5]lipgloss.Color{"#881337", "#BE123C", "#E11D48", "#F43F5E", "#FDA4AF"}},
	model.ThemeIndigo:  {"#6366F1", [5]lipgloss.Color{"#312E81", "#4338CA", "#4F46E5", "#6366F1", "#A5B4FC"}},
}

// Color palette
var (
	colorPrimary   = palettes[model.ThemeCyan].primary
	colorShades    = palettes[model.ThemeCyan].shades
	colorMuted     = lipgloss.Color("#666666")
	colorSuccess   = lipgloss.Color("#10B981")
	colorWarning   = lipgloss.Color("#F59E0B")
	colorError     = lipgloss.Color("#EF4444")
	colorFg        = lipgloss.Color("#E5E7EB")
	colorSubtle    = lipgloss.Color("#374151")
	colorHighlight = lipgloss.Color("#93C5FD")
)

// Theme-independent styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFg)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	highlightStyle = lipgloss.NewStyle().
			Foreground(colorHighlight)

	headerStyle = lipgloss.NewStyle().
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	normalItemStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(1, 2)
)

// Styles that follow the accent color; rebuilt by applyTheme.
var (
	activeTabStyle    lipgloss.Style
	inactiveTabStyle  lipgloss.Style
	activePanelStyle  lipgloss.Style
	accentStyle       lipgloss.Style
	timerStyle        lipgloss.Style
	selectedItemStyle lipgloss.Style
)

func init() {
	applyTheme(model.ThemeCyan)
}

// applyTheme switches the accent palette. Unknown themes fall back to cyan.
func applyTheme(t model.Theme) {
	p, ok := palettes[t]
	if !ok {
		p = palettes[model.ThemeCyan]
	}
	colorPrimary = p.primary
	colorShades = p.shades

	activeTabStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorPrimary).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(colorPrimary).
		Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
		Foreground(colorMuted).
		Padding(0, 2)

	activePanelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Padding(1, 2)

	accentStyle = lipgloss.NewStyle().
		Foreground(colorPrimary)

	timerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorPrimary).
		Align(lipgloss.Center)

	selectedItemStyle = lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true)
}

// levelColor is the heatmap cell color for level 0..5.
func levelColor(level int) lipgloss.Color {
	if level <= 0 {
		return colorSubtle
	}
	if level > len(colorShades) {
		level = len(colorShades)
	}
	return colorShades[level-1]
}

func bucketColor(b stats.Bucket) lipgloss.Color {
	switch b {
	case stats.BucketPerfect:
		return lipgloss.Color("#10B981")
	case stats.BucketGreat:
		return lipgloss.Color("#84CC16")
	case stats.BucketGood:
		return lipgloss.Color("#F59E0B")
	case stats.BucketFair:
		return lipgloss.Color("#F97316")
	case stats.BucketLow:
		return lipgloss.Color("#EF4444")
	}
	return colorSubtle
}

// rateColor colors a completion percentage the way the day summary does.
func rateColor(rate int) lipgloss.Color {
	switch {
	case rate >= 80:
		return colorSuccess
	case rate >= 60:
		return colorWarning
	}
	return colorError
}

// applyColorProfile honors NO_COLOR and otherwise trusts the terminal,
// upgrading when TERM or COLORTERM advertise more than was detected.
func applyColorProfile() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}

	profile := termenv.ColorProfile()
	term := strings.ToLower(os.Getenv("TERM"))
	colorterm := strings.ToLower(os.Getenv("COLORTERM"))
	switch {
	case strings.Contains(colorterm, "truecolor"), strings.Contains(colorterm, "24bit"):
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	case strings.Contains(term, "256color"):
		if profile == termenv.Ascii || profile == termenv.ANSI {
			profile = termenv.ANSI256
		}
	}
	lipgloss.SetColorProfile(profile)
}
