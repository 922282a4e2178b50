package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sadopc/lockin/internal/store"
)

func newNoteCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "note",
		Aliases: []string{"notes", "n"},
		Short:   "Manage sticky notes",
	}

	var (
		title    string
		color    string
		tags     []string
		pinned   bool
		template string
	)
	add := &cobra.Command{
		Use:   "add [content]",
		Short: "Create a note",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := store.QuickNote
			switch template {
			case "", "quick":
			case "todo":
				in = store.TodoNote
			default:
				return fmt.Errorf("unknown template %q (want quick or todo)", template)
			}
			if len(args) > 0 {
				in.Content = strings.Join(args, " ")
			}
			if title != "" {
				in.Title = title
			}
			if color != "" {
				c := store.NoteColor(color)
				if !c.Valid() {
					return fmt.Errorf("unknown color %q", color)
				}
				in.Color = c
			}
			in.Tags = tags
			in.Pinned = pinned

			return withEnv(cmd.Context(), o, func(e *env) error {
				n, err := e.notes.CreateNote(in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created note %d: %s\n", n.ID, n.Title)
				return nil
			})
		},
	}
	add.Flags().StringVar(&title, "title", "", "note title")
	add.Flags().StringVar(&color, "color", "", "yellow, pink, blue, green, purple or orange")
	add.Flags().StringSliceVar(&tags, "tag", nil, "tag (repeatable)")
	add.Flags().BoolVar(&pinned, "pin", false, "pin the note")
	add.Flags().StringVar(&template, "template", "", "start from a template: quick or todo")

	var tag string
	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List notes, pinned first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), o, func(e *env) error {
				var notes []store.StickyNote
				var err error
				if tag != "" {
					notes, err = e.notes.NotesByTag(tag)
				} else {
					notes, err = e.notes.ListNotes()
				}
				if err != nil {
					return err
				}
				printNotes(cmd.OutOrStdout(), notes)
				return nil
			})
		},
	}
	list.Flags().StringVar(&tag, "tag", "", "only notes with this tag")

	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search note titles, content and tags",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), o, func(e *env) error {
				notes, err := e.notes.SearchNotes(strings.Join(args, " "))
				if err != nil {
					return err
				}
				printNotes(cmd.OutOrStdout(), notes)
				return nil
			})
		},
	}

	rm := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a note",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEnv(cmd.Context(), o, func(e *env) error {
				if err := e.notes.DeleteNote(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted note %d\n", id)
				return nil
			})
		},
	}

	pin := &cobra.Command{
		Use:   "pin <id>",
		Short: "Pin or unpin a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEnv(cmd.Context(), o, func(e *env) error {
				n, err := e.notes.TogglePin(id)
				if err != nil {
					return err
				}
				verb := "Unpinned"
				if n.Pinned {
					verb = "Pinned"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s note %d\n", verb, n.ID)
				return nil
			})
		},
	}

	cmd.AddCommand(add, list, search, rm, pin)
	return cmd
}

func printNotes(w io.Writer, notes []store.StickyNote) {
	if len(notes) == 0 {
		fmt.Fprintln(w, "No notes.")
		return
	}
	var pinned, rest [][]string
	for _, n := range notes {
		row := []string{
			strconv.FormatInt(n.ID, 10),
			pinMark(n.Pinned),
			string(n.Color),
			n.Title,
			preview(n.Content, 40),
			strings.Join(n.Tags, ", "),
		}
		if n.Pinned {
			pinned = append(pinned, row)
		} else {
			rest = append(rest, row)
		}
	}
	fmt.Fprintln(w, newTable("ID", "Pin", "Color", "Title", "Content", "Tags").Rows(append(pinned, rest...)...).Render())
}

func pinMark(p bool) string {
	if p {
		return "*"
	}
	return ""
}

// preview flattens s onto one line and cuts it to n runes.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
