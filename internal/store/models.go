package store

import "time"

type NoteColor string

const (
	NoteYellow NoteColor = "yellow"
	NotePink   NoteColor = "pink"
	NoteBlue   NoteColor = "blue"
	NoteGreen  NoteColor = "green"
	NotePurple NoteColor = "purple"
	NoteOrange NoteColor = "orange"
)

var NoteColors = []NoteColor{NoteYellow, NotePink, NoteBlue, NoteGreen, NotePurple, NoteOrange}

func (c NoteColor) Valid() bool {
	for _, v := range NoteColors {
		if c == v {
			return true
		}
	}
	return false
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type StickyNote struct {
	ID        int64
	Title     string
	Content   string
	Color     NoteColor
	Position  Point
	Size      Size
	CreatedAt time.Time
	UpdatedAt time.Time
	Pinned    bool
	Tags      []string
}

// NoteInput holds the caller-supplied fields of a new note.
type NoteInput struct {
	Title    string
	Content  string
	Color    NoteColor
	Position Point
	Size     Size
	Pinned   bool
	Tags     []string
}

// NotePatch is a partial update; nil fields are left unchanged.
type NotePatch struct {
	Title    *string
	Content  *string
	Color    *NoteColor
	Position *Point
	Size     *Size
	Pinned   *bool
	Tags     *[]string
}

// DayTask is the snapshot of one task at the moment a day was completed.
type DayTask struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// CompletedDay is the record written when the user finalizes a day.
type CompletedDay struct {
	Date           string    `json:"date"` // YYYY-MM-DD
	Tasks          []DayTask `json:"tasks"`
	Image          string    `json:"image,omitempty"` // data URL
	CompletionRate int       `json:"completionRate"`
}

type Page struct {
	ID          string
	Title       string
	Description string
	Content     string // markdown
	Color       string
	Emoji       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
