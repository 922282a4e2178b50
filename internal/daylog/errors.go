package daylog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sadopc/lockin/internal/kv"
)

var (
	// ErrUnsupported means the document store cannot exist in this
	// environment: a read-only or missing data directory, or disabled by config.
	ErrUnsupported = errors.New("document storage not supported")
	// ErrBlocked means another process holds the database or its upgrade lock.
	ErrBlocked = errors.New("document storage blocked")
	ErrUnknown = errors.New("document storage failed")

	ErrNoTasks = errors.New("no tasks to complete")
)

type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindUnsupported
	KindBlocked
	KindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnsupported:
		return "unsupported"
	case KindBlocked:
		return "blocked"
	case KindUnknown:
		return "unknown"
	default:
		return "none"
	}
}

// Kind reports which storage failure err carries.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrUnsupported):
		return KindUnsupported
	case errors.Is(err, ErrBlocked):
		return KindBlocked
	default:
		return KindUnknown
	}
}

// Message is the text shown to the user when a day could not be saved at all.
func Message(k ErrorKind) string {
	switch k {
	case KindNone:
		return ""
	case KindUnsupported:
		return "Your system does not support data storage here. Check the data directory."
	case KindBlocked:
		return "Database blocked by another lockin instance. Close other instances."
	default:
		return "Could not save your day. Your tasks are still in memory."
	}
}

// classify wraps err with the sentinel matching its cause. Errors that are
// already classified pass through.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnsupported) || errors.Is(err, ErrBlocked) || errors.Is(err, ErrUnknown) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinelFor(err), err)
}

func sentinelFor(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return ErrBlocked
		case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_READONLY, sqlite3.SQLITE_PERM, sqlite3.SQLITE_NOTADB:
			return ErrUnsupported
		}
	}
	switch {
	case errors.Is(err, os.ErrPermission):
		return ErrUnsupported
	case errors.Is(err, kv.ErrLocked), errors.Is(err, context.DeadlineExceeded):
		return ErrBlocked
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "read-only"), strings.Contains(msg, "not supported"):
		return ErrUnsupported
	case strings.Contains(msg, "locked"), strings.Contains(msg, "busy"), strings.Contains(msg, "blocked"):
		return ErrBlocked
	}
	return ErrUnknown
}
