// Package journal persists performed actions (key presses, unit switches,
// yank copies) to a SQLite table asynchronously, for later inspection via
// the control surface.
package journal

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/cadkeys/idgen"
)

// Schema for the actions table.
const Schema = `
CREATE TABLE IF NOT EXISTS actions (
	id TEXT PRIMARY KEY,
	action TEXT NOT NULL,
	detail TEXT,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_actions_ts ON actions(timestamp);
CREATE INDEX IF NOT EXISTS idx_actions_action ON actions(action);
`

// Entry is one journaled action.
type Entry struct {
	ID        string
	Action    string
	Detail    string
	Timestamp int64 // unix milliseconds
}

// Store persists entries asynchronously. Writes never block the event loop:
// the buffer drops on overflow.
type Store struct {
	db   *sql.DB
	ch   chan *Entry
	done chan struct{}
	once sync.Once
}

// Open creates (or opens) the journal database at path and starts the flush
// goroutine.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: init schema: %w", err)
	}

	s := &Store{
		db:   db,
		ch:   make(chan *Entry, 1024),
		done: make(chan struct{}),
	}
	go s.flushLoop()
	return s, nil
}

// Record queues an action for async persistence. Non-blocking; drops if the
// buffer is full.
func (s *Store) Record(action, detail string) {
	e := &Entry{
		ID:        idgen.NanoID(),
		Action:    action,
		Detail:    detail,
		Timestamp: time.Now().UnixMilli(),
	}
	select {
	case s.ch <- e:
	default:
		// buffer full, drop to avoid backpressure on the event loop
	}
}

// Recent returns the latest n entries, newest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, action, detail, timestamp FROM actions ORDER BY timestamp DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("journal: query recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Action, &e.Detail, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close drains the buffer, stops the flush goroutine and closes the database.
func (s *Store) Close() error {
	s.once.Do(func() {
		close(s.ch)
		<-s.done
	})
	return s.db.Close()
}

func (s *Store) flushLoop() {
	defer close(s.done)

	batch := make([]*Entry, 0, 64)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-s.ch:
			if !ok {
				s.flushBatch(batch)
				return
			}
			batch = append(batch, e)
			if len(batch) >= 64 {
				s.flushBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flushBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *Store) flushBatch(batch []*Entry) {
	if len(batch) == 0 {
		return
	}

	tx, err := s.db.Begin()
	if err != nil {
		slog.Error("journal: begin tx", "error", err)
		return
	}

	stmt, err := tx.Prepare(`INSERT INTO actions (id, action, detail, timestamp)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		slog.Error("journal: prepare", "error", err)
		return
	}
	defer stmt.Close()

	for _, e := range batch {
		if _, err := stmt.Exec(e.ID, e.Action, e.Detail, e.Timestamp); err != nil {
			slog.Error("journal: insert", "error", err)
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("journal: commit", "error", err)
	}
}
