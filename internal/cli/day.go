package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/lockin/internal/daylog"
	"github.com/sadopc/lockin/internal/export"
	"github.com/sadopc/lockin/internal/model"
)

func newDayCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "day",
		Aliases: []string{"days"},
		Short:   "Complete days and browse the history",
	}

	var image string
	complete := &cobra.Command{
		Use:   "complete",
		Short: "Save today's tasks as a completed day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), o, func(e *env) error {
				dataURL := ""
				if image != "" {
					var err error
					if dataURL, err = daylog.LoadImage(image); err != nil {
						return err
					}
				}
				day, err := daylog.Complete(e.ws.Tasks().List(), dataURL, time.Now())
				if errors.Is(err, daylog.ErrNoTasks) {
					return errors.New("add some tasks first to complete your day")
				}
				if err != nil {
					return err
				}

				out, err := e.days.Save(cmd.Context(), day)
				if err != nil {
					e.logger.Error("save day", "date", day.Date, "err", err)
					return fmt.Errorf("%s: %w", daylog.Message(daylog.Kind(err)), err)
				}
				if out == daylog.SavedFallback {
					fmt.Fprintln(cmd.OutOrStdout(), daylog.MsgFallback)
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), daylog.SuccessMessage(day))
				return nil
			})
		},
	}
	complete.Flags().StringVar(&image, "image", "", "attach a progress picture")

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List completed days",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), o, func(e *env) error {
				days, err := e.days.GetAll(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(days) == 0 {
					fmt.Fprintln(out, "No completed days.")
					return nil
				}
				rows := make([][]string, 0, len(days))
				for _, d := range days {
					done := 0
					for _, t := range d.Tasks {
						if t.Completed {
							done++
						}
					}
					photo := ""
					if d.Image != "" {
						photo = "yes"
					}
					rows = append(rows, []string{
						d.Date, strconv.Itoa(d.CompletionRate) + "%", fmt.Sprintf("%d/%d", done, len(d.Tasks)), photo,
					})
				}
				fmt.Fprintln(out, newTable("Date", "Rate", "Done", "Photo").Rows(rows...).Render())
				return nil
			})
		},
	}

	var savePhoto string
	show := &cobra.Command{
		Use:   "show [date]",
		Short: "Show one completed day (default today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := model.DateKey(time.Now())
			if len(args) == 1 {
				if _, err := time.Parse(model.DateLayout, args[0]); err != nil {
					return fmt.Errorf("invalid date %q (want YYYY-MM-DD)", args[0])
				}
				date = args[0]
			}
			return withEnv(cmd.Context(), o, func(e *env) error {
				d, found, err := e.days.Get(cmd.Context(), date)
				if err != nil {
					return err
				}
				if !found {
					return fmt.Errorf("no completed day on %s", date)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s  %d%%\n\n", d.Date, d.CompletionRate)
				for _, t := range d.Tasks {
					fmt.Fprintf(out, "%s %s\n", checkbox(t.Completed), t.Text)
				}
				if d.Image == "" {
					return nil
				}
				ctype, data, err := daylog.DecodeImage(d.Image)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\nPhoto: %s, %d bytes\n", ctype, len(data))
				if savePhoto != "" {
					if err := os.WriteFile(savePhoto, data, 0o644); err != nil {
						return fmt.Errorf("save photo: %w", err)
					}
					fmt.Fprintf(out, "Photo saved to %s\n", savePhoto)
				}
				return nil
			})
		},
	}
	show.Flags().StringVar(&savePhoto, "save-photo", "", "write the attached picture to this file")

	var (
		format     string
		withImages bool
		outPath    string
	)
	exp := &cobra.Command{
		Use:   "export",
		Short: "Export the history as CSV or JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != "csv" && format != "json" {
				return fmt.Errorf("unknown format %q (want csv or json)", format)
			}
			return withEnv(cmd.Context(), o, func(e *env) error {
				days, err := e.days.GetAll(cmd.Context())
				if err != nil {
					return err
				}
				path := outPath
				if path == "" {
					if err := os.MkdirAll(e.cfg.ExportDir(), 0o755); err != nil {
						return fmt.Errorf("create export directory: %w", err)
					}
					path = filepath.Join(e.cfg.ExportDir(), "lockin-days-"+time.Now().Format("2006-01-02")+"."+format)
				}
				if format == "csv" {
					err = export.DaysToCSV(days, path)
				} else {
					err = export.DaysToJSON(days, withImages, path)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d days to %s\n", len(days), path)
				return nil
			})
		},
	}
	exp.Flags().StringVar(&format, "format", "csv", "csv or json")
	exp.Flags().BoolVar(&withImages, "images", false, "embed photos in JSON exports")
	exp.Flags().StringVarP(&outPath, "out", "o", "", "output file (default <data dir>/exports/...)")

	sync := &cobra.Command{
		Use:   "sync",
		Short: "Move days kept in backup storage into the document store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), o, func(e *env) error {
				if err := e.days.ProbeErr(); err != nil {
					return fmt.Errorf("document store unavailable (%s): %w", daylog.Kind(err), err)
				}
				n, err := e.days.Sync(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved %d days from backup storage\n", n)
				return nil
			})
		},
	}

	cmd.AddCommand(complete, list, show, exp, sync)
	return cmd
}
