package cli

import (
	"github.com/spf13/cobra"

	"github.com/sadopc/lockin/internal/model"
	"github.com/sadopc/lockin/internal/tui"
)

func newTUICmd(o *rootOptions) *cobra.Command {
	var page string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the full-screen UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, o, page)
		},
	}
	cmd.Flags().StringVar(&page, "page", "", "open the page with this id (or id prefix)")
	return cmd
}

func runTUI(cmd *cobra.Command, o *rootOptions, page string) error {
	return withEnv(cmd.Context(), o, func(e *env) error {
		if t := model.Theme(e.cfg.Theme); t != "" {
			if err := e.ws.SetTheme(t); err != nil {
				e.logger.Warn("ignoring configured theme", "theme", t, "err", err)
			}
		}

		var opts []tui.Option
		if page != "" {
			p, err := resolvePage(e.notes, page)
			if err != nil {
				return err
			}
			opts = append(opts, tui.WithPage(p.ID))
		}

		e.logger.Info("starting ui", "data_dir", e.cfg.DataDir, "document_store", e.days.ProbeErr() == nil)
		return tui.Run(cmd.Context(), tui.Deps{
			Workspace: e.ws,
			Notes:     e.notes,
			Days:      e.days,
			KV:        e.kv,
			Notifier:  e.notifier,
			Logger:    e.logger,
			ExportDir: e.cfg.ExportDir(),
		}, opts...)
	})
}
