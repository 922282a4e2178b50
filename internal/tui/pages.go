package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/lockin/internal/export"
	"github.com/sadopc/lockin/internal/store"
)

type pagesModel struct {
	store     *store.Store
	exportDir string
	pages     []store.Page
	cursor    int
	err       error

	viewing string // page id shown in the reader, empty for the list
	scroll  int

	formActive bool
	form       *huh.Form
	renamingID string // empty when the form creates a page

	// Form values as pointers (survive value copies)
	formTitle *string
	formDesc  *string

	width  int
	height int
}

func newPagesModel(s *store.Store, exportDir string) pagesModel {
	var title, desc string
	return pagesModel{
		store:     s,
		exportDir: exportDir,
		formTitle: &title,
		formDesc:  &desc,
	}
}

func (p *pagesModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

func (p pagesModel) capturing() bool {
	return p.formActive
}

func (p *pagesModel) refresh() {
	pages, err := p.store.ListPages()
	if err != nil {
		p.err = err
		return
	}
	p.err = nil
	p.pages = pages
	if p.cursor >= len(p.pages) {
		p.cursor = max(0, len(p.pages)-1)
	}
	if p.viewing != "" && p.find(p.viewing) < 0 {
		p.viewing = ""
	}
}

// open shows the page with the given id in the reader.
func (p *pagesModel) open(id string) bool {
	p.refresh()
	i := p.find(id)
	if i < 0 {
		return false
	}
	p.cursor = i
	p.viewing = id
	p.scroll = 0
	return true
}

func (p pagesModel) find(id string) int {
	for i := range p.pages {
		if p.pages[i].ID == id {
			return i
		}
	}
	return -1
}

func (p pagesModel) selected() *store.Page {
	if p.cursor < 0 || p.cursor >= len(p.pages) {
		return nil
	}
	return &p.pages[p.cursor]
}

func (p pagesModel) update(msg tea.Msg) (pagesModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case editorDoneMsg:
		return p.applyEdit(msg)

	case tea.KeyMsg:
		if p.viewing != "" {
			return p.updateReader(msg)
		}
		switch {
		case key.Matches(msg, keys.Up):
			if p.cursor > 0 {
				p.cursor--
			}
		case key.Matches(msg, keys.Down):
			if p.cursor < len(p.pages)-1 {
				p.cursor++
			}
		case key.Matches(msg, keys.Enter):
			if pg := p.selected(); pg != nil {
				p.viewing = pg.ID
				p.scroll = 0
			}
		case key.Matches(msg, keys.New):
			return p.showForm(nil)
		case msg.String() == "r":
			if pg := p.selected(); pg != nil {
				return p.showForm(pg)
			}
		case key.Matches(msg, keys.Edit):
			if pg := p.selected(); pg != nil {
				return p, p.edit(*pg)
			}
		case key.Matches(msg, keys.Export):
			if pg := p.selected(); pg != nil {
				return p, p.export(*pg)
			}
		case key.Matches(msg, keys.Delete):
			if pg := p.selected(); pg != nil {
				if err := p.store.DeletePage(pg.ID); err != nil {
					return p, func() tea.Msg { return errStatus("Delete page", err) }
				}
				title := pg.Title
				p.refresh()
				return p, statusCmd("Deleted " + title)
			}
		}
	}
	return p, nil
}

func (p pagesModel) updateReader(msg tea.KeyMsg) (pagesModel, tea.Cmd) {
	i := p.find(p.viewing)
	if i < 0 {
		p.viewing = ""
		return p, nil
	}
	switch {
	case key.Matches(msg, keys.Back):
		p.viewing = ""
	case key.Matches(msg, keys.Up):
		p.scroll = max(0, p.scroll-1)
	case key.Matches(msg, keys.Down):
		p.scroll++
	case key.Matches(msg, keys.Edit):
		return p, p.edit(p.pages[i])
	case key.Matches(msg, keys.Export):
		return p, p.export(p.pages[i])
	}
	return p, nil
}

func (p pagesModel) edit(pg store.Page) tea.Cmd {
	cmd, err := openEditor(pg.ID, pg.Content)
	if err != nil {
		return func() tea.Msg { return errStatus("Open editor", err) }
	}
	return cmd
}

func (p pagesModel) applyEdit(msg editorDoneMsg) (pagesModel, tea.Cmd) {
	after, changed, err := readEditorResult(msg)
	if err != nil {
		return p, func() tea.Msg { return errStatus("Editor", err) }
	}
	if !changed {
		return p, statusCmd("No changes from " + editorName())
	}
	if err := p.store.UpdatePageContent(msg.pageID, after); err != nil {
		return p, func() tea.Msg { return errStatus("Save page", err) }
	}
	p.refresh()
	return p, statusCmd("Page saved")
}

func (p pagesModel) export(pg store.Page) tea.Cmd {
	dir := p.exportDir
	return func() tea.Msg {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errStatus("Export", err)
		}
		path := filepath.Join(dir, export.PageFileName(pg))
		if err := export.PageToMarkdown(pg, path); err != nil {
			return errStatus("Export", err)
		}
		return exportDoneMsg{path: path}
	}
}

func (p pagesModel) showForm(pg *store.Page) (pagesModel, tea.Cmd) {
	if pg != nil {
		p.renamingID = pg.ID
		*p.formTitle = pg.Title
		*p.formDesc = pg.Description
	} else {
		p.renamingID = ""
		*p.formTitle = ""
		*p.formDesc = ""
	}

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Page title").
				Value(p.formTitle).
				CharLimit(100).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("title is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Description").
				Value(p.formDesc).
				CharLimit(200),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p pagesModel) updateForm(msg tea.Msg) (pagesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	switch p.form.State {
	case huh.StateCompleted:
		p.formActive = false
		p.form = nil
		return p.saveForm()
	case huh.StateAborted:
		p.formActive = false
		p.form = nil
	}
	return p, cmd
}

func (p pagesModel) saveForm() (pagesModel, tea.Cmd) {
	if p.renamingID != "" {
		if err := p.store.RenamePage(p.renamingID, *p.formTitle, *p.formDesc); err != nil {
			return p, func() tea.Msg { return errStatus("Rename page", err) }
		}
		p.refresh()
		return p, statusCmd("Page renamed")
	}
	pg, err := p.store.CreatePage(*p.formTitle, *p.formDesc)
	if err != nil {
		return p, func() tea.Msg { return errStatus("Create page", err) }
	}
	p.refresh()
	if i := p.find(pg.ID); i >= 0 {
		p.cursor = i
	}
	return p, statusCmd("Created " + pg.Emoji + " " + pg.Title)
}

func (p pagesModel) view(width int) string {
	if p.formActive && p.form != nil {
		heading := "New Page"
		if p.renamingID != "" {
			heading = "Rename Page"
		}
		return panelStyle.Width(width - 2).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(heading), "", p.form.View()),
		)
	}
	if i := p.find(p.viewing); p.viewing != "" && i >= 0 {
		return p.readerView(p.pages[i], width)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Pages (%d)", len(p.pages))))
	b.WriteString("\n\n")
	if p.err != nil {
		b.WriteString(errorStyle.Render("Error: "+p.err.Error()) + "\n")
	}
	if len(p.pages) == 0 {
		b.WriteString(mutedStyle.Render("No pages yet. Press n to create one."))
	}

	inner := width - 10
	for i, pg := range p.pages {
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		bar := lipgloss.NewStyle().Foreground(lipgloss.Color(pg.Color)).Render("▌")
		line := cursor + bar + pg.Emoji + " " + style.Render(truncate(pg.Title, inner/2))
		if pg.Description != "" {
			line += "  " + mutedStyle.Render(truncate(pg.Description, inner/2-8))
		}
		b.WriteString(line + "\n")
		b.WriteString("     " + mutedStyle.Render("updated "+pg.UpdatedAt.Local().Format("Jan 2 15:04")) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("n: new  enter: open  e: edit in $EDITOR  r: rename  x: export  d: delete"))
	return panelStyle.Width(width - 2).Render(b.String())
}

func (p pagesModel) readerView(pg store.Page, width int) string {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(pg.Color)).Render(pg.Emoji + " " + pg.Title)
	rows := []string{header}
	if pg.Description != "" {
		rows = append(rows, mutedStyle.Render(pg.Description))
	}
	rows = append(rows, "")

	body := renderMarkdown(pg.Content, width-10)
	if body == "" {
		body = mutedStyle.Render("Empty page. Press e to write in " + editorName() + ".")
	}
	lines := strings.Split(body, "\n")

	visible := p.height - 12
	if visible < 5 {
		visible = 5
	}
	start := min(p.scroll, max(0, len(lines)-visible))
	end := min(len(lines), start+visible)
	rows = append(rows, lines[start:end]...)

	rows = append(rows, "", mutedStyle.Render("↑/↓: scroll  e: edit  x: export  esc: back"))
	return panelStyle.Width(width - 2).Render(strings.Join(rows, "\n"))
}
