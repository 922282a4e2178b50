package state

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sadopc/lockin/internal/model"
)

// SeedTasks is the list a fresh install starts with.
func SeedTasks() []model.Task {
	return []model.Task{
		{ID: 1, Text: "Fruit only for snacks/treats"},
		{ID: 2, Text: "45 minutes workout"},
		{ID: 3, Text: "1 gallon of water"},
		{ID: 4, Text: "Progress picture"},
		{ID: 5, Text: "10 minutes reading"},
	}
}

// Tasks is the ordered task list plus the active selection. The selection is
// session state and is never persisted.
type Tasks struct {
	mu     sync.Mutex
	items  []model.Task
	active int64
	lastID int64
	save   func([]model.Task) error
	now    func() time.Time
}

func (t *Tasks) replace(items []model.Task) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append([]model.Task(nil), items...)
	for _, it := range t.items {
		if it.ID > t.lastID {
			t.lastID = it.ID
		}
	}
	if _, ok := t.index(t.active); !ok {
		t.active = 0
	}
}

// List returns a copy of the tasks in display order.
func (t *Tasks) List() []model.Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]model.Task(nil), t.items...)
}

func (t *Tasks) Get(id int64) (model.Task, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.index(id)
	if !ok {
		return model.Task{}, false
	}
	return t.items[i], true
}

// Add appends a task. Blank text is ignored and reported with ok=false.
// IDs come from the clock in milliseconds and never repeat.
func (t *Tasks) Add(text string) (task model.Task, ok bool, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Task{}, false, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.now().UnixMilli()
	if id <= t.lastID {
		id = t.lastID + 1
	}
	task = model.Task{ID: id, Text: text}
	next := append(append([]model.Task(nil), t.items...), task)
	if err := t.commit(next); err != nil {
		return model.Task{}, false, err
	}
	t.lastID = id
	return task, true, nil
}

func (t *Tasks) Toggle(id int64) (model.Task, error) {
	return t.modify(id, func(task *model.Task) { task.Completed = !task.Completed })
}

func (t *Tasks) IncrementPomodoros(id int64) error {
	_, err := t.modify(id, func(task *model.Task) { task.Pomodoros++ })
	return err
}

// Delete removes a task and clears the selection if it pointed at it.
func (t *Tasks) Delete(id int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.index(id)
	if !ok {
		return fmt.Errorf("delete task %d: %w", id, ErrTaskNotFound)
	}
	next := append(append([]model.Task(nil), t.items[:i]...), t.items[i+1:]...)
	if err := t.commit(next); err != nil {
		return err
	}
	if t.active == id {
		t.active = 0
	}
	return nil
}

// SetActive selects id, or clears the selection when id is already selected.
func (t *Tasks) SetActive(id int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.index(id); !ok {
		return fmt.Errorf("select task %d: %w", id, ErrTaskNotFound)
	}
	if t.active == id {
		t.active = 0
	} else {
		t.active = id
	}
	return nil
}

func (t *Tasks) ActiveID() (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active, t.active != 0
}

func (t *Tasks) modify(id int64, fn func(*model.Task)) (model.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.index(id)
	if !ok {
		return model.Task{}, fmt.Errorf("update task %d: %w", id, ErrTaskNotFound)
	}
	next := append([]model.Task(nil), t.items...)
	fn(&next[i])
	if err := t.commit(next); err != nil {
		return model.Task{}, err
	}
	return next[i], nil
}

// commit persists next and only then makes it current.
func (t *Tasks) commit(next []model.Task) error {
	if next == nil {
		next = []model.Task{}
	}
	if err := t.save(next); err != nil {
		return err
	}
	t.items = next
	return nil
}

func (t *Tasks) index(id int64) (int, bool) {
	if id == 0 {
		return 0, false
	}
	for i, it := range t.items {
		if it.ID == id {
			return i, true
		}
	}
	return 0, false
}
