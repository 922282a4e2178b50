// Package model holds the plain records shared by the timer, the task list and
// the statistics code. They serialize to the same JSON the kv file stores.
package model

import (
	"time"
)

type Task struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	Pomodoros int    `json:"pomodoros"`
}

// Settings are the timer durations in minutes.
type Settings struct {
	FocusTime      int `json:"focusTime"`
	ShortBreakTime int `json:"shortBreakTime"`
	LongBreakTime  int `json:"longBreakTime"`
}

func DefaultSettings() Settings {
	return Settings{FocusTime: 25, ShortBreakTime: 5, LongBreakTime: 15}
}

// Clamp bounds each duration to the ranges the settings form accepts and
// replaces zero values with the defaults.
func (s Settings) Clamp() Settings {
	d := DefaultSettings()
	s.FocusTime = clamp(s.FocusTime, d.FocusTime, 60)
	s.ShortBreakTime = clamp(s.ShortBreakTime, d.ShortBreakTime, 30)
	s.LongBreakTime = clamp(s.LongBreakTime, d.LongBreakTime, 60)
	return s
}

func clamp(v, fallback, hi int) int {
	if v <= 0 {
		return fallback
	}
	if v > hi {
		return hi
	}
	return v
}

// Heatmap maps a DateKey to a level between 0 and 5.
type Heatmap map[string]int

const (
	MinLevel = 0
	MaxLevel = 5
)

// Clone returns an independent copy, safe to hand to pure functions.
func (h Heatmap) Clone() Heatmap {
	out := make(Heatmap, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

const DateLayout = "2006-01-02"

// DateKey formats t in its own location as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

type Theme string

const (
	ThemeCyan    Theme = "cyan"
	ThemePurple  Theme = "purple"
	ThemeEmerald Theme = "emerald"
	ThemeAmber   Theme = "amber"
	ThemeRose    Theme = "rose"
	ThemeIndigo  Theme = "indigo"
)

var Themes = []Theme{ThemeCyan, ThemePurple, ThemeEmerald, ThemeAmber, ThemeRose, ThemeIndigo}

func (t Theme) Valid() bool {
	for _, v := range Themes {
		if t == v {
			return true
		}
	}
	return false
}

// Next returns the theme after t, wrapping around.
func (t Theme) Next() Theme {
	for i, v := range Themes {
		if v == t {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}
