package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sadopc/lockin/internal/store"
)

// DaysToCSV writes one row per completed day. Task texts are joined with
// " | " and prefixed with [x] or [ ].
func DaysToCSV(days []store.CompletedDay, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"Date", "Completion (%)", "Done", "Total", "Tasks", "Photo"}); err != nil {
		return err
	}

	for _, d := range days {
		done, total := tally(d)
		row := []string{
			d.Date,
			strconv.Itoa(d.CompletionRate),
			strconv.Itoa(done),
			strconv.Itoa(total),
			formatTasks(d.Tasks),
			yesNo(d.Image != ""),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func tally(d store.CompletedDay) (done, total int) {
	for _, t := range d.Tasks {
		if t.Completed {
			done++
		}
	}
	return done, len(d.Tasks)
}

func formatTasks(tasks []store.DayTask) string {
	parts := make([]string, len(tasks))
	for i, t := range tasks {
		mark := "[ ]"
		if t.Completed {
			mark = "[x]"
		}
		parts[i] = mark + " " + t.Text
	}
	return strings.Join(parts, " | ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
