package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sadopc/lockin/internal/stats"
)

func newTaskCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks", "t"},
		Short:   "Manage today's task list",
	}

	add := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), o, func(e *env) error {
				task, ok, err := e.ws.Tasks().Add(strings.Join(args, " "))
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("task text is empty")
				}
				if err := e.ws.RefreshToday(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added task %d: %s\n", task.ID, task.Text)
				return nil
			})
		},
	}

	var asJSON bool
	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), o, func(e *env) error {
				tasks := e.ws.Tasks().List()
				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(tasks)
				}
				if len(tasks) == 0 {
					fmt.Fprintln(out, "No tasks.")
					return nil
				}
				rows := make([][]string, 0, len(tasks))
				for _, t := range tasks {
					rows = append(rows, []string{
						strconv.FormatInt(t.ID, 10), checkbox(t.Completed), strconv.Itoa(t.Pomodoros), t.Text,
					})
				}
				fmt.Fprintln(out, newTable("ID", "Done", "Pomodoros", "Task").Rows(rows...).Render())
				fmt.Fprintf(out, "%d/%d done (%d%%)\n", stats.Completed(tasks), len(tasks), stats.CompletionRate(tasks))
				return nil
			})
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "print tasks as JSON")

	done := &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a task's completed state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEnv(cmd.Context(), o, func(e *env) error {
				task, err := e.ws.Tasks().Toggle(id)
				if err != nil {
					return err
				}
				if err := e.ws.RefreshToday(); err != nil {
					return err
				}
				state := "not done"
				if task.Completed {
					state = "done"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %q %s\n", task.Text, state)
				return nil
			})
		},
	}

	rm := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEnv(cmd.Context(), o, func(e *env) error {
				if err := e.ws.Tasks().Delete(id); err != nil {
					return err
				}
				if err := e.ws.RefreshToday(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d\n", id)
				return nil
			})
		},
	}

	cmd.AddCommand(add, list, done, rm)
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#374151"))).
		Headers(headers...)
}
