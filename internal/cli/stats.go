package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/lockin/internal/stats"
)

func newStatsCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show streak, active days and today's progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), o, func(e *env) error {
				sum := stats.Summarize(e.ws.Tasks().List(), e.ws.Heatmap(), e.ws.PomodoroCount(), time.Now())
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Streak:       %d days\n", sum.Streak)
				fmt.Fprintf(out, "Active days:  %d\n", sum.ActiveDays)
				fmt.Fprintf(out, "Completion:   %d%%\n", sum.CompletionRate)
				fmt.Fprintf(out, "Tasks done:   %d\n", sum.TasksDone)
				fmt.Fprintf(out, "Pomodoros:    %d\n", sum.Pomodoros)
				return nil
			})
		},
	}
}
