package daylog

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sadopc/lockin/internal/model"
	"github.com/sadopc/lockin/internal/stats"
	"github.com/sadopc/lockin/internal/store"
)

// MaxImageSize bounds the photo attached to a day.
const MaxImageSize = 8 << 20

// Complete snapshots tasks as the record for the day containing now.
func Complete(tasks []model.Task, image string, now time.Time) (Day, error) {
	if len(tasks) == 0 {
		return Day{}, ErrNoTasks
	}
	snap := make([]store.DayTask, len(tasks))
	for i, t := range tasks {
		snap[i] = store.DayTask{Text: t.Text, Completed: t.Completed}
	}
	return Day{
		Date:           model.DateKey(now),
		Tasks:          snap,
		Image:          image,
		CompletionRate: stats.CompletionRate(tasks),
	}, nil
}

// SuccessMessage is the toast for a day saved to the document store.
func SuccessMessage(day Day) string {
	return fmt.Sprintf("Day completed! %d%% success rate", day.CompletionRate)
}

// LoadImage reads an image file and returns it as a data URL.
func LoadImage(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("load image: %w", err)
	}
	if info.Size() > MaxImageSize {
		return "", fmt.Errorf("load image: %s is larger than %d MB", path, MaxImageSize>>20)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("load image: %w", err)
	}
	ctype := http.DetectContentType(data)
	if !strings.HasPrefix(ctype, "image/") {
		return "", fmt.Errorf("load image: %s is %s, not an image", path, ctype)
	}
	return "data:" + ctype + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// DecodeImage splits a data URL into its media type and bytes.
func DecodeImage(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, fmt.Errorf("decode image: not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("decode image: missing payload")
	}
	ctype, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return ctype, []byte(payload), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode image: %w", err)
	}
	return ctype, data, nil
}
