package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sadopc/lockin/internal/export"
	"github.com/sadopc/lockin/internal/store"
)

func newPageCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "page",
		Aliases: []string{"pages", "p"},
		Short:   "Manage markdown pages",
	}

	var desc string
	create := &cobra.Command{
		Use:   "new <title>",
		Short: "Create an empty page",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), o, func(e *env) error {
				p, err := e.notes.CreatePage(strings.Join(args, " "), desc)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s)\n", p.Emoji, p.Title, p.ID)
				return nil
			})
		},
	}
	create.Flags().StringVar(&desc, "desc", "", "short description")

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List pages",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), o, func(e *env) error {
				pages, err := e.notes.ListPages()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(pages) == 0 {
					fmt.Fprintln(out, "No pages.")
					return nil
				}
				rows := make([][]string, 0, len(pages))
				for _, p := range pages {
					rows = append(rows, []string{
						shortID(p.ID), p.Emoji + " " + p.Title, p.Description, p.UpdatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(out, newTable("ID", "Title", "Description", "Updated").Rows(rows...).Render())
				return nil
			})
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a page as markdown with frontmatter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), o, func(e *env) error {
				p, err := resolvePage(e.notes, args[0])
				if err != nil {
					return err
				}
				data, err := export.MarshalPage(*p)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			})
		},
	}

	var outPath string
	exp := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a page to a markdown file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), o, func(e *env) error {
				p, err := resolvePage(e.notes, args[0])
				if err != nil {
					return err
				}
				path := outPath
				if path == "" {
					if err := os.MkdirAll(e.cfg.ExportDir(), 0o755); err != nil {
						return fmt.Errorf("create export directory: %w", err)
					}
					path = filepath.Join(e.cfg.ExportDir(), export.PageFileName(*p))
				}
				if err := export.PageToMarkdown(*p, path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", p.Title, path)
				return nil
			})
		},
	}
	exp.Flags().StringVarP(&outPath, "out", "o", "", "output file (default <data dir>/exports/<title>.md)")

	imp := &cobra.Command{
		Use:   "import <glob>",
		Short: "Import markdown files as pages",
		Long: `Import every .md file matching the glob. Files exported by lockin keep
their id, so importing them again replaces the page. ** matches subdirectories.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), o, func(e *env) error {
				pages, files, err := export.ReadPages(args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for i, p := range pages {
					if err := e.notes.PutPage(p); err != nil {
						return fmt.Errorf("import %s: %w", files[i], err)
					}
					fmt.Fprintf(out, "Imported %s from %s\n", p.Title, files[i])
				}
				fmt.Fprintf(out, "%d pages imported\n", len(pages))
				return nil
			})
		},
	}

	rm := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a page",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), o, func(e *env) error {
				p, err := resolvePage(e.notes, args[0])
				if err != nil {
					return err
				}
				if err := e.notes.DeletePage(p.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", p.Title)
				return nil
			})
		},
	}

	cmd.AddCommand(create, list, show, exp, imp, rm)
	return cmd
}

// resolvePage finds a page by full id or a unique id prefix.
func resolvePage(s *store.Store, id string) (*store.Page, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("page id is empty")
	}
	if p, err := s.GetPage(id); err == nil {
		return p, nil
	}
	pages, err := s.ListPages()
	if err != nil {
		return nil, err
	}
	var match *store.Page
	for i := range pages {
		if !strings.HasPrefix(pages[i].ID, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("page id %q is ambiguous", id)
		}
		match = &pages[i]
	}
	if match == nil {
		return nil, fmt.Errorf("page %q: %w", id, store.ErrNotFound)
	}
	return match, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
