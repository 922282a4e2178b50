package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the lockin version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionString())
		},
	}
}

func versionString() string {
	if Version == "dev" {
		return fmt.Sprintf("lockin dev (%s/%s)", runtime.GOOS, runtime.GOARCH)
	}
	return fmt.Sprintf("lockin %s (commit: %s, built: %s, %s/%s)", Version, Commit, Date, runtime.GOOS, runtime.GOARCH)
}
