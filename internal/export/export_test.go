package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/lockin/internal/store"
)

func sampleDays() []store.CompletedDay {
	return []store.CompletedDay{
		{
			Date: "2026-03-01",
			Tasks: []store.DayTask{
				{Text: "workout", Completed: true},
				{Text: "read", Completed: false},
			},
			CompletionRate: 50,
		},
		{
			Date:           "2026-03-02",
			Tasks:          []store.DayTask{{Text: "water", Completed: true}},
			Image:          "data:image/png;base64,iVBORw0KGgo=",
			CompletionRate: 100,
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	return records
}

// ============================================================
// CSV
// ============================================================

func TestDaysToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "days.csv")
	if err := DaysToCSV(sampleDays(), path); err != nil {
		t.Fatalf("DaysToCSV: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 3 {
		t.Fatalf("expected 3 rows (1 header + 2 data), got %d", len(records))
	}

	expectedHeader := []string{"Date", "Completion (%)", "Done", "Total", "Tasks", "Photo"}
	for i, h := range expectedHeader {
		if records[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}

	row := records[1]
	if row[0] != "2026-03-01" || row[1] != "50" || row[2] != "1" || row[3] != "2" {
		t.Fatalf("unexpected first row: %q", row)
	}
	if row[4] != "[x] workout | [ ] read" {
		t.Fatalf("Tasks = %q", row[4])
	}
	if row[5] != "no" || records[2][5] != "yes" {
		t.Fatalf("photo column wrong: %q / %q", row[5], records[2][5])
	}
}

func TestDaysToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := DaysToCSV(nil, path); err != nil {
		t.Fatal(err)
	}
	if records := readCSV(t, path); len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestDaysToCSVSpecialCharacters(t *testing.T) {
	days := []store.CompletedDay{{
		Date:  "2026-03-03",
		Tasks: []store.DayTask{{Text: `say "hi", then leave`, Completed: true}},
	}}
	path := filepath.Join(t.TempDir(), "special.csv")
	if err := DaysToCSV(days, path); err != nil {
		t.Fatal(err)
	}
	records := readCSV(t, path)
	if records[1][4] != `[x] say "hi", then leave` {
		t.Fatalf("task text mangled: %q", records[1][4])
	}
}

func TestDaysToCSVBadPath(t *testing.T) {
	if err := DaysToCSV(nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// JSON
// ============================================================

func TestDaysToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "days.json")
	if err := DaysToJSON(sampleDays(), false, path); err != nil {
		t.Fatalf("DaysToJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if result.Count != 2 || len(result.Days) != 2 {
		t.Fatalf("count = %d, days = %d, want 2", result.Count, len(result.Days))
	}
	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not valid RFC3339: %q", result.ExportedAt)
	}

	d := result.Days[1]
	if d.Date != "2026-03-02" || d.CompletionRate != 100 || d.Done != 1 || d.Total != 1 {
		t.Fatalf("unexpected day: %+v", d)
	}
	if !d.HasImage || d.Image != "" {
		t.Fatalf("image should be flagged but not embedded: %+v", d)
	}
}

func TestDaysToJSONWithImages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "days.json")
	if err := DaysToJSON(sampleDays(), true, path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "data:image/png;base64,") {
		t.Fatal("image should be embedded")
	}
}

func TestDaysToJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := DaysToJSON(nil, false, path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"days": []`) {
		t.Fatalf("empty export should carry an empty list, got %s", data)
	}
}

func TestDaysToJSONBadPath(t *testing.T) {
	if err := DaysToJSON(nil, false, "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// Page markdown
// ============================================================

func samplePage() store.Page {
	return store.Page{
		ID:          "5f0c2a8e-1111-4c3b-9d44-0123456789ab",
		Title:       "Morning Routine",
		Description: "what I do before 9",
		Color:       "#14B8A6",
		Emoji:       "📝",
		Content:     "# Steps\n\n- stretch\n- coffee\n",
		CreatedAt:   time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2026, 2, 3, 9, 30, 0, 0, time.UTC),
	}
}

func TestPageMarkdownRoundTrip(t *testing.T) {
	want := samplePage()
	data, err := MarshalPage(want)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "---\nid: ") {
		t.Fatalf("missing frontmatter:\n%s", data)
	}

	got, err := ParsePageMarkdown(data)
	if err != nil {
		t.Fatalf("ParsePageMarkdown: %v", err)
	}
	if got.ID != want.ID || got.Title != want.Title || got.Description != want.Description {
		t.Fatalf("metadata mismatch: %+v", got)
	}
	if got.Color != want.Color || got.Emoji != want.Emoji {
		t.Fatalf("style mismatch: %+v", got)
	}
	if got.Content != want.Content {
		t.Fatalf("content = %q, want %q", got.Content, want.Content)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Fatalf("timestamps mismatch: %v / %v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestParsePageWithoutFrontmatter(t *testing.T) {
	p, err := ParsePageMarkdown([]byte("intro\n\n## Weekly Review\n\nbody"))
	if err != nil {
		t.Fatal(err)
	}
	if p.ID != "" || p.Title != "Weekly Review" {
		t.Fatalf("unexpected page: %+v", p)
	}
}

func TestParsePageCRLF(t *testing.T) {
	p, err := ParsePageMarkdown([]byte("---\r\ntitle: Win\r\n---\r\nbody\r\n"))
	if err != nil {
		t.Fatal(err)
	}
	if p.Title != "Win" || p.Content != "body\n" {
		t.Fatalf("unexpected page: %+v", p)
	}
}

func TestParsePageUnclosedFrontmatter(t *testing.T) {
	if _, err := ParsePageMarkdown([]byte("---\ntitle: x\nbody")); err == nil {
		t.Fatal("expected error for unclosed frontmatter")
	}
}

func TestPageToMarkdownAndReadPages(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "2026", "feb")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	p := samplePage()
	if err := PageToMarkdown(p, filepath.Join(nested, PageFileName(p))); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "loose.md"), []byte("just text"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "skip.txt"), []byte("# no"), 0o644); err != nil {
		t.Fatal(err)
	}

	pages, files, err := ReadPages(filepath.Join(dir, "**", "*"))
	if err != nil {
		t.Fatalf("ReadPages: %v", err)
	}
	if len(pages) != 2 || len(files) != 2 {
		t.Fatalf("expected 2 pages, got %d (%v)", len(pages), files)
	}

	titles := map[string]bool{}
	for _, pg := range pages {
		titles[pg.Title] = true
	}
	if !titles["Morning Routine"] || !titles["loose"] {
		t.Fatalf("unexpected titles: %v", titles)
	}
}

func TestPageFileName(t *testing.T) {
	tests := []struct {
		title, want string
	}{
		{"Morning Routine", "morning-routine.md"},
		{"  Q3 / Goals!  ", "q3--goals.md"},
		{"😀", "abc.md"},
	}
	for _, tt := range tests {
		got := PageFileName(store.Page{ID: "abc", Title: tt.title})
		if got != tt.want {
			t.Errorf("PageFileName(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}
