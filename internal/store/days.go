package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

const dayTable = "completed_days"

// DayDB is the completed-days database. It is kept apart from the notes
// database so each can be upgraded on its own.
type DayDB struct {
	db *sql.DB
}

// OpenDayDB opens the database at path. When the completed_days table is
// missing, the schema version is bumped and the table created before returning.
func OpenDayDB(path string) (*DayDB, error) {
	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	d := &DayDB{db: db}
	if err := d.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("upgrade day db: %w", err)
	}
	return d, nil
}

func (d *DayDB) Close() error {
	return d.db.Close()
}

// Version reports the schema version stored in the database header.
func (d *DayDB) Version() (int, error) {
	var v int
	if err := d.db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}
	return v, nil
}

func (d *DayDB) hasTable() (bool, error) {
	var n int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, dayTable).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("inspect schema: %w", err)
	}
	return n > 0, nil
}

func (d *DayDB) ensureSchema() error {
	ok, err := d.hasTable()
	if err != nil || ok {
		return err
	}
	version, err := d.Version()
	if err != nil {
		return err
	}

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const ddl = `
	CREATE TABLE IF NOT EXISTS completed_days (
		date            TEXT PRIMARY KEY,
		tasks           TEXT NOT NULL DEFAULT '[]',
		image           TEXT NOT NULL DEFAULT '',
		completion_rate INTEGER NOT NULL DEFAULT 0
	);`
	if _, err := tx.Exec(ddl); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", version+1)); err != nil {
		return err
	}
	return tx.Commit()
}

// PutDay writes the record for day.Date, replacing any earlier one.
func (d *DayDB) PutDay(ctx context.Context, day CompletedDay) error {
	tasks := day.Tasks
	if tasks == nil {
		tasks = []DayTask{}
	}
	b, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encode day tasks: %w", err)
	}
	_, err = d.db.ExecContext(ctx,
		`INSERT INTO completed_days (date, tasks, image, completion_rate) VALUES (?, ?, ?, ?)
		 ON CONFLICT(date) DO UPDATE SET tasks = excluded.tasks, image = excluded.image,
		   completion_rate = excluded.completion_rate`,
		day.Date, string(b), day.Image, day.CompletionRate,
	)
	if err != nil {
		return fmt.Errorf("put day %s: %w", day.Date, err)
	}
	return nil
}

func (d *DayDB) GetDay(ctx context.Context, date string) (*CompletedDay, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT date, tasks, image, completion_rate FROM completed_days WHERE date = ?`, date)
	day, err := scanDay(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get day %s: %w", date, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get day %s: %w", date, err)
	}
	return day, nil
}

// ListDays returns every completed day in date order.
func (d *DayDB) ListDays(ctx context.Context) ([]CompletedDay, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT date, tasks, image, completion_rate FROM completed_days ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}
	defer rows.Close()

	var days []CompletedDay
	for rows.Next() {
		day, err := scanDay(rows)
		if err != nil {
			return nil, err
		}
		days = append(days, *day)
	}
	return days, rows.Err()
}

func scanDay(r rowScanner) (*CompletedDay, error) {
	day := &CompletedDay{}
	var tasks string
	if err := r.Scan(&day.Date, &tasks, &day.Image, &day.CompletionRate); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tasks), &day.Tasks); err != nil {
		return nil, fmt.Errorf("decode day %s tasks: %w", day.Date, err)
	}
	return day, nil
}
