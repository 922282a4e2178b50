package tui

import (
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type editorDoneMsg struct {
	pageID string
	path   string
	before string
	err    error
}

func editorName() string {
	if v := strings.TrimSpace(os.Getenv("VISUAL")); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv("EDITOR")); v != "" {
		return v
	}
	return "vi"
}

// openEditor writes content to a temp file and suspends the program while
// $VISUAL or $EDITOR edits it.
func openEditor(pageID, content string) (tea.Cmd, error) {
	args := strings.Fields(editorName())
	if len(args) == 0 {
		args = []string{"vi"}
	}

	f, err := os.CreateTemp("", "lockin-page-*.md")
	if err != nil {
		return nil, err
	}
	path := f.Name()
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, err
	}
	_ = f.Close()

	cmd := exec.Command(args[0], append(args[1:], path)...)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorDoneMsg{pageID: pageID, path: path, before: content, err: err}
	}), nil
}

// readEditorResult returns the edited text and removes the temp file.
// changed is false when the text is the same apart from surrounding space.
func readEditorResult(msg editorDoneMsg) (after string, changed bool, err error) {
	defer func() { _ = os.Remove(msg.path) }()
	if msg.err != nil {
		return "", false, msg.err
	}
	b, err := os.ReadFile(msg.path)
	if err != nil {
		return "", false, err
	}
	after = string(b)
	return after, strings.TrimSpace(after) != strings.TrimSpace(msg.before), nil
}
