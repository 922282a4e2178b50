package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/sadopc/lockin/internal/store"
)

type frontmatter struct {
	ID          string    `yaml:"id"`
	Title       string    `yaml:"title"`
	Description string    `yaml:"description,omitempty"`
	Color       string    `yaml:"color,omitempty"`
	Emoji       string    `yaml:"emoji,omitempty"`
	Created     time.Time `yaml:"created,omitempty"`
	Updated     time.Time `yaml:"updated,omitempty"`
}

// MarshalPage renders p as markdown with a YAML frontmatter block.
func MarshalPage(p store.Page) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	err := enc.Encode(frontmatter{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Color:       p.Color,
		Emoji:       p.Emoji,
		Created:     p.CreatedAt.UTC(),
		Updated:     p.UpdatedAt.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode frontmatter: %w", err)
	}
	buf.WriteString("---\n")
	buf.WriteString(p.Content)
	return buf.Bytes(), nil
}

// PageToMarkdown writes p to path.
func PageToMarkdown(p store.Page, path string) error {
	data, err := MarshalPage(p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write markdown file: %w", err)
	}
	return nil
}

// ParsePageMarkdown reads a page written by MarshalPage. Files without
// frontmatter become a page titled by their first heading, with an empty id.
func ParsePageMarkdown(data []byte) (store.Page, error) {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(data, []byte("---\n")) {
		return store.Page{Title: firstHeading(string(data)), Content: string(data)}, nil
	}

	rest := data[len("---\n"):]
	end := bytes.Index(rest, []byte("\n---\n"))
	var meta, body []byte
	switch {
	case bytes.HasPrefix(rest, []byte("---\n")):
		body = rest[len("---\n"):]
	case end >= 0:
		meta, body = rest[:end+1], rest[end+len("\n---\n"):]
	case bytes.HasSuffix(rest, []byte("\n---")):
		meta = rest[:len(rest)-len("---")]
	default:
		return store.Page{}, fmt.Errorf("parse page: frontmatter has no closing delimiter")
	}

	var fm frontmatter
	if err := yaml.Unmarshal(meta, &fm); err != nil {
		return store.Page{}, fmt.Errorf("parse frontmatter: %w", err)
	}
	p := store.Page{
		ID:          fm.ID,
		Title:       fm.Title,
		Description: fm.Description,
		Color:       fm.Color,
		Emoji:       fm.Emoji,
		Content:     string(body),
		CreatedAt:   fm.Created,
		UpdatedAt:   fm.Updated,
	}
	if p.Title == "" {
		p.Title = firstHeading(p.Content)
	}
	return p, nil
}

var headingRe = regexp.MustCompile(`(?m)^#{1,6}[ \t]+(.+?)[ \t#]*$`)

func firstHeading(md string) string {
	if m := headingRe.FindStringSubmatch(md); m != nil {
		return m[1]
	}
	return ""
}

// ReadPages parses every markdown file matching pattern. Patterns may use **
// to descend into subdirectories.
func ReadPages(pattern string) ([]store.Page, []string, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}

	var pages []store.Page
	var files []string
	for _, path := range matches {
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", path, err)
		}
		p, err := ParsePageMarkdown(data)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		if p.Title == "" {
			p.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		pages = append(pages, p)
		files = append(files, path)
	}
	return pages, files, nil
}

// PageFileName is a filesystem-safe name for p.
func PageFileName(p store.Page) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(p.Title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	name := strings.Trim(b.String(), "-")
	if name == "" {
		name = p.ID
	}
	return name + ".md"
}
