package stats

import "time"

// Bucket groups a completed day's rate for calendar coloring.
type Bucket int

const (
	BucketNone Bucket = iota
	BucketLow         // below 40
	BucketFair        // 40-59
	BucketGood        // 60-74
	BucketGreat       // 75-89
	BucketPerfect     // 90+
)

func CalendarBucket(rate int) Bucket {
	switch {
	case rate >= 90:
		return BucketPerfect
	case rate >= 75:
		return BucketGreat
	case rate >= 60:
		return BucketGood
	case rate >= 40:
		return BucketFair
	}
	return BucketLow
}

// MonthGrid lays out the month containing t as weeks starting on Sunday.
// Cells before the first of the month are zero times.
func MonthGrid(t time.Time) []time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	days := first.AddDate(0, 1, -1).Day()

	cells := make([]time.Time, int(first.Weekday()), int(first.Weekday())+days)
	for d := 0; d < days; d++ {
		cells = append(cells, first.AddDate(0, 0, d))
	}
	return cells
}

// YearCells returns the n days ending at today, oldest first.
func YearCells(today time.Time, n int) []time.Time {
	start := dayStart(today).AddDate(0, 0, -(n - 1))
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}
