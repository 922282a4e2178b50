package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const noteColumns = `id, title, content, color, pos_x, pos_y, width, height, pinned, tags, created_at, updated_at`

var (
	defaultNoteSize = Size{Width: 280, Height: 250}

	// QuickNote and TodoNote are the two note templates offered by the UI.
	QuickNote = NoteInput{Title: "Quick Note", Color: NoteYellow, Size: defaultNoteSize}
	TodoNote  = NoteInput{Title: "Todo List", Content: "• Task 1\n• Task 2\n• Task 3", Color: NoteBlue, Size: defaultNoteSize}
)

func (s *Store) CreateNote(in NoteInput) (*StickyNote, error) {
	if !in.Color.Valid() {
		in.Color = NoteYellow
	}
	if in.Size.Width == 0 && in.Size.Height == 0 {
		in.Size = defaultNoteSize
	}
	tags, err := encodeTags(in.Tags)
	if err != nil {
		return nil, err
	}
	now := s.stamp()
	res, err := s.db.Exec(
		`INSERT INTO sticky_notes (title, content, color, pos_x, pos_y, width, height, pinned, tags, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Title, in.Content, string(in.Color), in.Position.X, in.Position.Y,
		in.Size.Width, in.Size.Height, boolInt(in.Pinned), tags, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetNote(id)
}

func (s *Store) GetNote(id int64) (*StickyNote, error) {
	row := s.db.QueryRow(`SELECT `+noteColumns+` FROM sticky_notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get note %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get note %d: %w", id, err)
	}
	return n, nil
}

// UpdateNote merges the non-nil fields of p into the note and stamps updated_at.
func (s *Store) UpdateNote(id int64, p NotePatch) (*StickyNote, error) {
	n, err := s.GetNote(id)
	if err != nil {
		return nil, err
	}
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Color != nil && p.Color.Valid() {
		n.Color = *p.Color
	}
	if p.Position != nil {
		n.Position = *p.Position
	}
	if p.Size != nil {
		n.Size = *p.Size
	}
	if p.Pinned != nil {
		n.Pinned = *p.Pinned
	}
	if p.Tags != nil {
		n.Tags = *p.Tags
	}
	tags, err := encodeTags(n.Tags)
	if err != nil {
		return nil, err
	}

	_, err = s.db.Exec(
		`UPDATE sticky_notes SET title = ?, content = ?, color = ?, pos_x = ?, pos_y = ?, width = ?, height = ?,
		 pinned = ?, tags = ?, updated_at = ? WHERE id = ?`,
		n.Title, n.Content, string(n.Color), n.Position.X, n.Position.Y, n.Size.Width, n.Size.Height,
		boolInt(n.Pinned), tags, s.stamp(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update note %d: %w", id, err)
	}
	return s.GetNote(id)
}

func (s *Store) TogglePin(id int64) (*StickyNote, error) {
	n, err := s.GetNote(id)
	if err != nil {
		return nil, err
	}
	pinned := !n.Pinned
	return s.UpdateNote(id, NotePatch{Pinned: &pinned})
}

func (s *Store) DeleteNote(id int64) error {
	_, err := s.db.Exec(`DELETE FROM sticky_notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete note %d: %w", id, err)
	}
	return nil
}

// ListNotes returns every note, most recently updated first.
func (s *Store) ListNotes() ([]StickyNote, error) {
	return s.queryNotes(`SELECT ` + noteColumns + ` FROM sticky_notes ORDER BY updated_at DESC, id DESC`)
}

// SearchNotes matches q case-insensitively against title, content and tags.
func (s *Store) SearchNotes(q string) ([]StickyNote, error) {
	all, err := s.ListNotes()
	if err != nil {
		return nil, err
	}
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return all, nil
	}
	var out []StickyNote
	for _, n := range all {
		if noteMatches(n, q) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *Store) NotesByTag(tag string) ([]StickyNote, error) {
	all, err := s.ListNotes()
	if err != nil {
		return nil, err
	}
	var out []StickyNote
	for _, n := range all {
		for _, t := range n.Tags {
			if t == tag {
				out = append(out, n)
				break
			}
		}
	}
	return out, nil
}

func noteMatches(n StickyNote, q string) bool {
	if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Content), q) {
		return true
	}
	for _, t := range n.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

func (s *Store) queryNotes(query string, args ...any) ([]StickyNote, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []StickyNote
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(r rowScanner) (*StickyNote, error) {
	n := &StickyNote{}
	var color, tags, createdAt, updatedAt string
	var pinned int
	err := r.Scan(&n.ID, &n.Title, &n.Content, &color, &n.Position.X, &n.Position.Y,
		&n.Size.Width, &n.Size.Height, &pinned, &tags, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	n.Color = NoteColor(color)
	n.Pinned = pinned == 1
	if err := json.Unmarshal([]byte(tags), &n.Tags); err != nil {
		n.Tags = nil
	}
	n.CreatedAt = parseStamp(createdAt)
	n.UpdatedAt = parseStamp(updatedAt)
	return n, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
