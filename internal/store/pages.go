package store

import (
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"
)

var (
	PageColors = []string{"#3B82F6", "#14B8A6", "#EF4444", "#EC4899", "#06B6D4", "#F59E0B"}
	PageEmojis = []string{"🚀", "💡", "🎯", "⚡", "🔥", "💎", "🌟", "🎨", "🛠️", "📈"}
)

const pageColumns = `id, title, description, content, color, emoji, created_at, updated_at`

// CreatePage stores a new empty page with a random color and emoji.
func (s *Store) CreatePage(title, description string) (*Page, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("create page: title is required")
	}
	p := Page{
		ID:          uuid.New().String(),
		Title:       title,
		Description: strings.TrimSpace(description),
		Color:       PageColors[rand.IntN(len(PageColors))],
		Emoji:       PageEmojis[rand.IntN(len(PageEmojis))],
	}
	if err := s.PutPage(p); err != nil {
		return nil, err
	}
	return s.GetPage(p.ID)
}

// PutPage inserts or fully replaces a page. An empty ID gets a fresh one.
func (s *Store) PutPage(p Page) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := s.stamp()
	created := now
	if !p.CreatedAt.IsZero() {
		created = p.CreatedAt.UTC().Format(timeLayout)
	}
	_, err := s.db.Exec(
		`INSERT INTO pages (id, title, description, content, color, emoji, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET title = excluded.title, description = excluded.description,
		   content = excluded.content, color = excluded.color, emoji = excluded.emoji,
		   updated_at = excluded.updated_at`,
		p.ID, p.Title, p.Description, p.Content, p.Color, p.Emoji, created, now,
	)
	if err != nil {
		return fmt.Errorf("put page %s: %w", p.ID, err)
	}
	return nil
}

func (s *Store) GetPage(id string) (*Page, error) {
	row := s.db.QueryRow(`SELECT `+pageColumns+` FROM pages WHERE id = ?`, id)
	p, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get page %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get page %s: %w", id, err)
	}
	return p, nil
}

func (s *Store) UpdatePageContent(id, content string) error {
	return s.execPage(id, `UPDATE pages SET content = ?, updated_at = ? WHERE id = ?`, content, s.stamp(), id)
}

func (s *Store) RenamePage(id, title, description string) error {
	return s.execPage(id, `UPDATE pages SET title = ?, description = ?, updated_at = ? WHERE id = ?`,
		title, description, s.stamp(), id)
}

func (s *Store) DeletePage(id string) error {
	return s.execPage(id, `DELETE FROM pages WHERE id = ?`, id)
}

func (s *Store) execPage(id, query string, args ...any) error {
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("page %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("page %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListPages returns pages, most recently updated first.
func (s *Store) ListPages() ([]Page, error) {
	rows, err := s.db.Query(`SELECT ` + pageColumns + ` FROM pages ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, *p)
	}
	return pages, rows.Err()
}

func scanPage(r rowScanner) (*Page, error) {
	p := &Page{}
	var createdAt, updatedAt string
	if err := r.Scan(&p.ID, &p.Title, &p.Description, &p.Content, &p.Color, &p.Emoji, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.CreatedAt = parseStamp(createdAt)
	p.UpdatedAt = parseStamp(updatedAt)
	return p, nil
}
