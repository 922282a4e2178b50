package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file and data locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(o)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config:  %s\n", cfg.Path())
			fmt.Fprintf(out, "data:    %s\n", cfg.DataDir)
			fmt.Fprintf(out, "kv:      %s\n", cfg.KVPath())
			fmt.Fprintf(out, "notes:   %s\n", cfg.NotesPath())
			fmt.Fprintf(out, "days:    %s\n", cfg.DaysPath())
			fmt.Fprintf(out, "log:     %s\n", cfg.LogPath())
			return nil
		},
	})
	return cmd
}
