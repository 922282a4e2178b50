package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/lockin/internal/store"
)

type jsonExport struct {
	ExportedAt string    `json:"exported_at"`
	Count      int       `json:"count"`
	Days       []jsonDay `json:"days"`
}

type jsonDay struct {
	Date           string          `json:"date"`
	CompletionRate int             `json:"completion_rate"`
	Done           int             `json:"done"`
	Total          int             `json:"total"`
	Tasks          []store.DayTask `json:"tasks"`
	HasImage       bool            `json:"has_image"`
	Image          string          `json:"image,omitempty"`
}

// DaysToJSON writes the completed-day history to path. Attached photos are
// only embedded when withImages is set.
func DaysToJSON(days []store.CompletedDay, withImages bool, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(days),
		Days:       []jsonDay{},
	}

	for _, d := range days {
		done, total := tally(d)
		entry := jsonDay{
			Date:           d.Date,
			CompletionRate: d.CompletionRate,
			Done:           done,
			Total:          total,
			Tasks:          d.Tasks,
			HasImage:       d.Image != "",
		}
		if withImages {
			entry.Image = d.Image
		}
		export.Days = append(export.Days, entry)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
