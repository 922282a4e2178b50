package daylog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/sadopc/lockin/internal/kv"
	"github.com/sadopc/lockin/internal/store"
)

// FallbackKey is the kv key holding the backup list of completed days.
const FallbackKey = "lock-in-completed-days"

// Backend is one place completed days can be kept.
type Backend interface {
	Put(ctx context.Context, day Day) error
	All(ctx context.Context) ([]Day, error)
	Get(ctx context.Context, date string) (Day, bool, error)
}

type docBackend struct {
	db *store.DayDB
}

func (b *docBackend) Put(ctx context.Context, day Day) error {
	return b.db.PutDay(ctx, day)
}

func (b *docBackend) All(ctx context.Context) ([]Day, error) {
	return b.db.ListDays(ctx)
}

func (b *docBackend) Get(ctx context.Context, date string) (Day, bool, error) {
	day, err := b.db.GetDay(ctx, date)
	if errors.Is(err, store.ErrNotFound) {
		return Day{}, false, nil
	}
	if err != nil {
		return Day{}, false, err
	}
	return *day, true, nil
}

// kvBackend keeps every day in one JSON list. Each save rewrites the list.
type kvBackend struct {
	kv     *kv.Store
	logger *slog.Logger
}

func (b *kvBackend) Put(_ context.Context, day Day) error {
	err := b.kv.Update(func(data map[string]json.RawMessage) error {
		days := b.decode(data[FallbackKey])
		kept := days[:0]
		for _, d := range days {
			if d.Date != day.Date {
				kept = append(kept, d)
			}
		}
		raw, err := json.Marshal(append(kept, day))
		if err != nil {
			return fmt.Errorf("encode days: %w", err)
		}
		data[FallbackKey] = raw
		return nil
	})
	if err != nil {
		return fmt.Errorf("save day %s to backup: %w", day.Date, err)
	}
	return nil
}

func (b *kvBackend) All(_ context.Context) ([]Day, error) {
	var raw json.RawMessage
	if _, err := b.kv.Get(FallbackKey, &raw); err != nil {
		return nil, fmt.Errorf("load backup days: %w", err)
	}
	days := b.decode(raw)
	sortDays(days)
	return days, nil
}

func (b *kvBackend) Get(ctx context.Context, date string) (Day, bool, error) {
	days, err := b.All(ctx)
	if err != nil {
		return Day{}, false, err
	}
	for _, d := range days {
		if d.Date == date {
			return d, true, nil
		}
	}
	return Day{}, false, nil
}

// remove drops date from the list. The file is only rewritten when the date
// is present.
func (b *kvBackend) remove(ctx context.Context, date string) error {
	if _, ok, err := b.Get(ctx, date); err != nil || !ok {
		return err
	}
	err := b.kv.Update(func(data map[string]json.RawMessage) error {
		days := b.decode(data[FallbackKey])
		kept := days[:0]
		for _, d := range days {
			if d.Date != date {
				kept = append(kept, d)
			}
		}
		if len(kept) == 0 {
			delete(data, FallbackKey)
			return nil
		}
		raw, err := json.Marshal(kept)
		if err != nil {
			return fmt.Errorf("encode days: %w", err)
		}
		data[FallbackKey] = raw
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove day %s from backup: %w", date, err)
	}
	return nil
}

func (b *kvBackend) clear() error {
	return b.kv.Delete(FallbackKey)
}

// decode reads the stored list; anything unreadable counts as empty.
func (b *kvBackend) decode(raw json.RawMessage) []Day {
	if len(raw) == 0 {
		return nil
	}
	var days []Day
	if err := json.Unmarshal(raw, &days); err != nil {
		b.logger.Warn("backup day list unreadable, treating as empty", "err", err)
		return nil
	}
	return days
}

func sortDays(days []Day) {
	sort.SliceStable(days, func(i, j int) bool { return days[i].Date < days[j].Date })
}
