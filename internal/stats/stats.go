// Package stats derives the dashboard numbers from task and heatmap snapshots.
// Every function is pure; callers pass copies and re-run them on each render.
package stats

import (
	"math"
	"time"

	"github.com/sadopc/lockin/internal/model"
)

// StreakLevel is the minimum heatmap level that keeps a streak alive.
const StreakLevel = 3

// CompletionRate is round(100 * completed / total), or 0 for an empty list.
func CompletionRate(tasks []model.Task) int {
	if len(tasks) == 0 {
		return 0
	}
	return int(math.Round(100 * float64(Completed(tasks)) / float64(len(tasks))))
}

func Completed(tasks []model.Task) int {
	n := 0
	for _, t := range tasks {
		if t.Completed {
			n++
		}
	}
	return n
}

// HeatmapLevel maps the completion ratio of tasks to a level from 0 to 5.
// ok is false when there are no tasks, in which case the heatmap is left alone.
func HeatmapLevel(tasks []model.Task) (level int, ok bool) {
	if len(tasks) == 0 {
		return 0, false
	}
	return LevelForRatio(float64(Completed(tasks)) / float64(len(tasks))), true
}

func LevelForRatio(r float64) int {
	switch {
	case r >= 1:
		return 5
	case r >= 0.8:
		return 4
	case r >= 0.6:
		return 3
	case r >= 0.4:
		return 2
	case r >= 0.2:
		return 1
	}
	return 0
}

// CurrentStreak counts consecutive calendar days ending at today whose level
// is at least StreakLevel. A day that is missing or below the bar, today
// included, ends the streak.
func CurrentStreak(h model.Heatmap, today time.Time) int {
	day := dayStart(today)
	streak := 0
	for {
		level, ok := h[model.DateKey(day)]
		if !ok || level < StreakLevel {
			return streak
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
}

// ActiveDays counts days with a level above zero.
func ActiveDays(h model.Heatmap) int {
	n := 0
	for _, level := range h {
		if level > 0 {
			n++
		}
	}
	return n
}

// CycleLevel is the next level when a heatmap cell is clicked.
func CycleLevel(level int) int {
	if level >= 4 {
		return 0
	}
	return level + 1
}

type Summary struct {
	Streak         int
	ActiveDays     int
	CompletionRate int
	TasksDone      int
	Pomodoros      int
}

func Summarize(tasks []model.Task, h model.Heatmap, pomodoros int, today time.Time) Summary {
	return Summary{
		Streak:         CurrentStreak(h, today),
		ActiveDays:     ActiveDays(h),
		CompletionRate: CompletionRate(tasks),
		TasksDone:      Completed(tasks),
		Pomodoros:      pomodoros,
	}
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
