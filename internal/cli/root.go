// Package cli is the lockin command line: the full-screen UI plus scriptable
// subcommands over the same data.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Build metadata injected with -ldflags "-X".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

type rootOptions struct {
	configPath string
	dataDir    string
}

// NewRootCmd builds the command tree. Running it without a subcommand opens
// the UI.
func NewRootCmd() *cobra.Command {
	o := &rootOptions{}

	root := &cobra.Command{
		Use:   "lockin",
		Short: "Pomodoro timer, daily tasks and notes in your terminal",
		Long: `lockin keeps a focus timer, today's task list, a progress heatmap,
sticky notes and markdown pages in one place.

Run without arguments to open the full-screen UI.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, o, "")
		},
	}
	root.PersistentFlags().StringVar(&o.configPath, "config", "", "config file (default is <config dir>/lockin/config.yaml)")
	root.PersistentFlags().StringVar(&o.dataDir, "data-dir", "", "directory holding lockin data (overrides data_dir)")

	root.AddCommand(
		newTUICmd(o),
		newTaskCmd(o),
		newNoteCmd(o),
		newDayCmd(o),
		newPageCmd(o),
		newStatsCmd(o),
		newConfigCmd(o),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
