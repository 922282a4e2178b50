package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// steppingClock returns a clock that advances one second per call.
func steppingClock() func() time.Time {
	t := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newClockedStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory(WithClock(steppingClock()))
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestDayDB(t *testing.T) *DayDB {
	t.Helper()
	d, err := OpenDayDB(":memory:")
	if err != nil {
		t.Fatalf("open day db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != currentVersion {
		t.Fatalf("expected user_version %d, got %d", currentVersion, version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/notes.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen: should succeed and not re-migrate
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s2.Close()
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// Sticky notes
// ============================================================

func TestCreateAndGetNote(t *testing.T) {
	s := newTestStore(t)
	n, err := s.CreateNote(NoteInput{
		Title:    "Groceries",
		Content:  "milk",
		Color:    NotePink,
		Position: Point{X: 10, Y: 20},
		Tags:     []string{"home"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if n.ID == 0 {
		t.Fatal("expected non-zero ID")
	}
	if n.Title != "Groceries" || n.Content != "milk" || n.Color != NotePink {
		t.Fatalf("unexpected note: %+v", n)
	}
	if n.Position != (Point{X: 10, Y: 20}) {
		t.Fatalf("position not stored: %+v", n.Position)
	}
	if n.Size != defaultNoteSize {
		t.Fatalf("expected default size, got %+v", n.Size)
	}
	if len(n.Tags) != 1 || n.Tags[0] != "home" {
		t.Fatalf("tags not stored: %v", n.Tags)
	}
	if n.CreatedAt.IsZero() || !n.CreatedAt.Equal(n.UpdatedAt) {
		t.Fatalf("created and updated should be stamped equal: %v %v", n.CreatedAt, n.UpdatedAt)
	}
}

func TestCreateNoteInvalidColorFallsBack(t *testing.T) {
	s := newTestStore(t)
	n, err := s.CreateNote(NoteInput{Title: "x", Color: "magenta"})
	if err != nil {
		t.Fatal(err)
	}
	if n.Color != NoteYellow {
		t.Fatalf("expected yellow, got %s", n.Color)
	}
}

func TestGetNoteNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetNote(999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateNoteMergesPartialFields(t *testing.T) {
	s := newClockedStore(t)
	n, _ := s.CreateNote(NoteInput{Title: "Old", Content: "keep me", Tags: []string{"a"}})

	title := "New"
	updated, err := s.UpdateNote(n.ID, NotePatch{Title: &title})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Title != "New" {
		t.Fatalf("title not updated: %q", updated.Title)
	}
	if updated.Content != "keep me" || len(updated.Tags) != 1 {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
	if !updated.UpdatedAt.After(n.UpdatedAt) {
		t.Fatal("updated_at should advance")
	}
	if !updated.CreatedAt.Equal(n.CreatedAt) {
		t.Fatal("created_at should not change")
	}
}

func TestUpdateNoteMissing(t *testing.T) {
	s := newTestStore(t)
	title := "x"
	_, err := s.UpdateNote(42, NotePatch{Title: &title})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTogglePin(t *testing.T) {
	s := newTestStore(t)
	n, _ := s.CreateNote(QuickNote)
	pinned, err := s.TogglePin(n.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !pinned.Pinned {
		t.Fatal("note should be pinned")
	}
	unpinned, _ := s.TogglePin(n.ID)
	if unpinned.Pinned {
		t.Fatal("note should be unpinned")
	}
}

func TestDeleteNote(t *testing.T) {
	s := newTestStore(t)
	n, _ := s.CreateNote(QuickNote)
	if err := s.DeleteNote(n.ID); err != nil {
		t.Fatal(err)
	}
	notes, _ := s.ListNotes()
	if len(notes) != 0 {
		t.Fatalf("expected no notes, got %d", len(notes))
	}
}

func TestListNotesMostRecentlyUpdatedFirst(t *testing.T) {
	s := newClockedStore(t)
	a, _ := s.CreateNote(NoteInput{Title: "A"})
	s.CreateNote(NoteInput{Title: "B"})
	s.CreateNote(NoteInput{Title: "C"})

	content := "touched"
	s.UpdateNote(a.ID, NotePatch{Content: &content})

	notes, err := s.ListNotes()
	if err != nil {
		t.Fatal(err)
	}
	got := []string{notes[0].Title, notes[1].Title, notes[2].Title}
	want := []string{"A", "C", "B"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestListNotesEmpty(t *testing.T) {
	s := newTestStore(t)
	notes, err := s.ListNotes()
	if err != nil {
		t.Fatal(err)
	}
	if notes != nil {
		t.Fatalf("expected nil slice, got %d items", len(notes))
	}
}

func TestSearchNotes(t *testing.T) {
	s := newTestStore(t)
	s.CreateNote(NoteInput{Title: "Shopping", Content: "eggs"})
	s.CreateNote(NoteInput{Title: "Ideas", Content: "Write a BLOG post"})
	s.CreateNote(NoteInput{Title: "Misc", Tags: []string{"Blogging"}})

	tests := []struct {
		q    string
		want int
	}{
		{"shop", 1},
		{"blog", 2},
		{"EGGS", 1},
		{"nothing", 0},
		{"", 3},
	}
	for _, tt := range tests {
		got, err := s.SearchNotes(tt.q)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != tt.want {
			t.Errorf("SearchNotes(%q) = %d notes, want %d", tt.q, len(got), tt.want)
		}
	}
}

func TestNotesByTag(t *testing.T) {
	s := newTestStore(t)
	s.CreateNote(NoteInput{Title: "a", Tags: []string{"work", "urgent"}})
	s.CreateNote(NoteInput{Title: "b", Tags: []string{"home"}})

	notes, err := s.NotesByTag("work")
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0].Title != "a" {
		t.Fatalf("unexpected notes: %+v", notes)
	}
	// Exact tag match, unlike search.
	notes, _ = s.NotesByTag("wor")
	if len(notes) != 0 {
		t.Fatal("partial tag should not match")
	}
}

// ============================================================
// Pages
// ============================================================

func TestCreateAndGetPage(t *testing.T) {
	s := newTestStore(t)
	p, err := s.CreatePage("  Launch plan ", "q3 goals")
	if err != nil {
		t.Fatal(err)
	}
	if p.ID == "" || p.Title != "Launch plan" || p.Description != "q3 goals" {
		t.Fatalf("unexpected page: %+v", p)
	}
	if p.Color == "" || p.Emoji == "" {
		t.Fatal("color and emoji should be assigned")
	}

	got, err := s.GetPage(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != p.Title {
		t.Fatalf("got %q", got.Title)
	}
}

func TestCreatePageRequiresTitle(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreatePage("   ", ""); err == nil {
		t.Fatal("expected error for empty title")
	}
}

func TestGetPageNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetPage("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdatePageContentAndRename(t *testing.T) {
	s := newClockedStore(t)
	p, _ := s.CreatePage("Draft", "")

	if err := s.UpdatePageContent(p.ID, "# Hello"); err != nil {
		t.Fatal(err)
	}
	if err := s.RenamePage(p.ID, "Final", "done"); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetPage(p.ID)
	if got.Content != "# Hello" || got.Title != "Final" || got.Description != "done" {
		t.Fatalf("unexpected page: %+v", got)
	}
	if !got.UpdatedAt.After(p.UpdatedAt) {
		t.Fatal("updated_at should advance")
	}
}

func TestUpdateMissingPage(t *testing.T) {
	s := newTestStore(t)
	if err := s.UpdatePageContent("ghost", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeletePage("ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutPageKeepsCreatedAt(t *testing.T) {
	s := newClockedStore(t)
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := s.PutPage(Page{ID: "fixed", Title: "Imported", CreatedAt: created}); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetPage("fixed")
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("created_at = %v, want %v", got.CreatedAt, created)
	}
}

func TestListPagesOrder(t *testing.T) {
	s := newClockedStore(t)
	a, _ := s.CreatePage("A", "")
	s.CreatePage("B", "")
	s.UpdatePageContent(a.ID, "edited")

	pages, err := s.ListPages()
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 2 || pages[0].Title != "A" {
		t.Fatalf("expected A first, got %+v", pages)
	}
}

// ============================================================
// Completed days
// ============================================================

func TestDayDBCreatesTableAndBumpsVersion(t *testing.T) {
	d := newTestDayDB(t)
	ok, err := d.hasTable()
	if err != nil || !ok {
		t.Fatalf("table should exist: %v", err)
	}
	v, _ := d.Version()
	if v != 1 {
		t.Fatalf("expected version 1, got %d", v)
	}
}

func TestDayDBUpgradesWhenTableMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "days.db")
	d, err := OpenDayDB(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.db.Exec(`DROP TABLE completed_days`); err != nil {
		t.Fatal(err)
	}
	d.Close()

	d2, err := OpenDayDB(path)
	if err != nil {
		t.Fatal(err)
	}
	defer d2.Close()
	v, _ := d2.Version()
	if v != 2 {
		t.Fatalf("expected version bump to 2, got %d", v)
	}
	if err := d2.PutDay(context.Background(), CompletedDay{Date: "2026-01-01"}); err != nil {
		t.Fatalf("put after upgrade: %v", err)
	}
}

func TestPutDayOverwritesSameDate(t *testing.T) {
	d := newTestDayDB(t)
	ctx := context.Background()

	d.PutDay(ctx, CompletedDay{Date: "2026-02-01", CompletionRate: 40, Tasks: []DayTask{{Text: "a"}}})
	d.PutDay(ctx, CompletedDay{Date: "2026-02-01", CompletionRate: 100, Tasks: []DayTask{{Text: "a", Completed: true}}})

	days, err := d.ListDays(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(days))
	}
	if days[0].CompletionRate != 100 || !days[0].Tasks[0].Completed {
		t.Fatalf("record not overwritten: %+v", days[0])
	}
}

func TestGetDay(t *testing.T) {
	d := newTestDayDB(t)
	ctx := context.Background()
	d.PutDay(ctx, CompletedDay{Date: "2026-02-03", Image: "data:image/png;base64,AAAA", CompletionRate: 60})

	day, err := d.GetDay(ctx, "2026-02-03")
	if err != nil {
		t.Fatal(err)
	}
	if day.Image == "" || day.CompletionRate != 60 {
		t.Fatalf("unexpected day: %+v", day)
	}
	if day.Tasks == nil {
		t.Fatal("nil tasks should round-trip as empty list")
	}

	_, err = d.GetDay(ctx, "2026-02-04")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListDaysSortedByDate(t *testing.T) {
	d := newTestDayDB(t)
	ctx := context.Background()
	d.PutDay(ctx, CompletedDay{Date: "2026-02-03"})
	d.PutDay(ctx, CompletedDay{Date: "2026-01-15"})
	d.PutDay(ctx, CompletedDay{Date: "2026-02-01"})

	days, _ := d.ListDays(ctx)
	if days[0].Date != "2026-01-15" || days[2].Date != "2026-02-03" {
		t.Fatalf("not sorted: %v", days)
	}
}
