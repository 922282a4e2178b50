package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/lockin/internal/store"
)

var noteColorValues = map[store.NoteColor]lipgloss.Color{
	store.NoteYellow: "#FACC15",
	store.NotePink:   "#F472B6",
	store.NoteBlue:   "#60A5FA",
	store.NoteGreen:  "#4ADE80",
	store.NotePurple: "#C084FC",
	store.NoteOrange: "#FB923C",
}

type notesModel struct {
	store  *store.Store
	notes  []store.StickyNote
	cursor int
	width  int
	height int
	err    error

	searching bool
	search    textinput.Model
	query     string

	formActive bool
	form       *huh.Form
	editingID  int64 // 0 when the form creates a note

	// Form values as pointers (survive value copies)
	formTitle   *string
	formContent *string
	formColor   *string
	formTags    *string
}

func newNotesModel(s *store.Store) notesModel {
	in := textinput.New()
	in.Placeholder = "Search notes..."
	in.CharLimit = 100
	var title, content, color, tags string
	return notesModel{
		store:       s,
		search:      in,
		formTitle:   &title,
		formContent: &content,
		formColor:   &color,
		formTags:    &tags,
	}
}

func (m *notesModel) setSize(w, h int) {
	m.width = w
	m.height = h
	m.search.Width = w - 20
}

func (m notesModel) capturing() bool {
	return m.searching || m.formActive
}

// refresh reloads the list, pinned notes first.
func (m *notesModel) refresh() {
	notes, err := m.store.SearchNotes(m.query)
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].Pinned && !notes[j].Pinned
	})
	m.notes = notes
	if m.cursor >= len(m.notes) {
		m.cursor = max(0, len(m.notes)-1)
	}
}

func (m notesModel) update(msg tea.Msg) (notesModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}
	if m.searching {
		return m.updateSearch(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(km, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(km, keys.Down):
		if m.cursor < len(m.notes)-1 {
			m.cursor++
		}
	case key.Matches(km, keys.Search):
		m.searching = true
		m.search.SetValue(m.query)
		return m, m.search.Focus()
	case key.Matches(km, keys.Back):
		if m.query != "" {
			m.query = ""
			m.refresh()
		}
	case key.Matches(km, keys.New):
		return m.showForm(nil, store.QuickNote)
	case key.Matches(km, keys.Template):
		return m.createFromTemplate()
	case key.Matches(km, keys.Edit), key.Matches(km, keys.Enter):
		if n := m.selected(); n != nil {
			return m.showForm(n, store.NoteInput{})
		}
	case key.Matches(km, keys.Pin):
		if n := m.selected(); n != nil {
			if _, err := m.store.TogglePin(n.ID); err != nil {
				return m, func() tea.Msg { return errStatus("Pin note", err) }
			}
			m.refresh()
		}
	case key.Matches(km, keys.Delete):
		if n := m.selected(); n != nil {
			if err := m.store.DeleteNote(n.ID); err != nil {
				return m, func() tea.Msg { return errStatus("Delete note", err) }
			}
			m.refresh()
			return m, statusCmd("Note deleted")
		}
	}
	return m, nil
}

func (m notesModel) selected() *store.StickyNote {
	if m.cursor < 0 || m.cursor >= len(m.notes) {
		return nil
	}
	return &m.notes[m.cursor]
}

func (m notesModel) updateSearch(msg tea.Msg) (notesModel, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Back):
			m.searching = false
			m.search.Blur()
			return m, nil
		case key.Matches(km, keys.Enter):
			m.searching = false
			m.search.Blur()
			m.query = strings.TrimSpace(m.search.Value())
			m.cursor = 0
			m.refresh()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// createFromTemplate adds a Todo List note straight away.
func (m notesModel) createFromTemplate() (notesModel, tea.Cmd) {
	n, err := m.store.CreateNote(store.TodoNote)
	if err != nil {
		return m, func() tea.Msg { return errStatus("Create note", err) }
	}
	m.refresh()
	for i := range m.notes {
		if m.notes[i].ID == n.ID {
			m.cursor = i
		}
	}
	return m, statusCmd("Created " + n.Title)
}

func (m notesModel) showForm(n *store.StickyNote, defaults store.NoteInput) (notesModel, tea.Cmd) {
	if n != nil {
		m.editingID = n.ID
		*m.formTitle = n.Title
		*m.formContent = n.Content
		*m.formColor = string(n.Color)
		*m.formTags = strings.Join(n.Tags, ", ")
	} else {
		m.editingID = 0
		*m.formTitle = defaults.Title
		*m.formContent = defaults.Content
		*m.formColor = string(defaults.Color)
		*m.formTags = ""
	}

	colorOpts := make([]huh.Option[string], 0, len(store.NoteColors))
	for _, c := range store.NoteColors {
		label := lipgloss.NewStyle().Foreground(noteColorValues[c]).Render("■ " + string(c))
		colorOpts = append(colorOpts, huh.NewOption(label, string(c)))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(m.formTitle).
				CharLimit(100),
			huh.NewText().
				Title("Content").
				Value(m.formContent).
				Lines(6),
			huh.NewSelect[string]().
				Title("Color").
				Options(colorOpts...).
				Value(m.formColor),
			huh.NewInput().
				Title("Tags (comma separated)").
				Value(m.formTags),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m notesModel) updateForm(msg tea.Msg) (notesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.formActive = false
		m.form = nil
		return m.saveForm()
	case huh.StateAborted:
		m.formActive = false
		m.form = nil
	}
	return m, cmd
}

func (m notesModel) saveForm() (notesModel, tea.Cmd) {
	title := strings.TrimSpace(*m.formTitle)
	content := *m.formContent
	color := store.NoteColor(*m.formColor)
	tags := parseTags(*m.formTags)

	if m.editingID == 0 {
		_, err := m.store.CreateNote(store.NoteInput{
			Title:   title,
			Content: content,
			Color:   color,
			Tags:    tags,
		})
		if err != nil {
			return m, func() tea.Msg { return errStatus("Create note", err) }
		}
		m.refresh()
		return m, statusCmd("Note created")
	}

	_, err := m.store.UpdateNote(m.editingID, store.NotePatch{
		Title:   &title,
		Content: &content,
		Color:   &color,
		Tags:    &tags,
	})
	if err != nil {
		return m, func() tea.Msg { return errStatus("Update note", err) }
	}
	m.refresh()
	return m, statusCmd("Note saved")
}

// parseTags splits a comma separated list, dropping blanks and duplicates.
func parseTags(s string) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func (m notesModel) view(width int) string {
	if m.formActive && m.form != nil {
		heading := "New Note"
		if m.editingID != 0 {
			heading = "Edit Note"
		}
		return panelStyle.Width(width - 2).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(heading), "", m.form.View()),
		)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Sticky Notes (%d)", len(m.notes))))
	if m.query != "" {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  matching %q", m.query)))
	}
	b.WriteString("\n\n")

	if m.searching {
		b.WriteString(m.search.View() + "\n\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n")
	}

	if len(m.notes) == 0 {
		if m.query != "" {
			b.WriteString(mutedStyle.Render("No notes match. Press esc to clear the search."))
		} else {
			b.WriteString(mutedStyle.Render("No notes yet. Press n for a quick note or T for a todo list."))
		}
	}

	inner := width - 10
	for i, n := range m.notes {
		b.WriteString(m.renderNote(i, n, inner))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("n: new  T: todo template  e: edit  p: pin  d: delete  /: search"))
	return panelStyle.Width(width - 2).Render(b.String())
}

func (m notesModel) renderNote(i int, n store.StickyNote, width int) string {
	cursor := "  "
	style := normalItemStyle
	if i == m.cursor {
		cursor = "> "
		style = selectedItemStyle
	}
	swatch := lipgloss.NewStyle().Foreground(noteColorValues[n.Color]).Render("■")
	pin := "  "
	if n.Pinned {
		pin = warningStyle.Render("📌")
	}
	title := n.Title
	if title == "" {
		title = "Untitled"
	}
	line := cursor + swatch + " " + pin + " " + style.Render(truncate(title, width/2))
	if preview := firstLine(n.Content); preview != "" {
		line += "  " + mutedStyle.Render(truncate(preview, width/2-6))
	}
	if len(n.Tags) > 0 {
		line += "  " + highlightStyle.Render("#"+strings.Join(n.Tags, " #"))
	}
	return line
}
