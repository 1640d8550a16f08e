// Package session implements the append-only SQLite log of evaluated
// mini-notation sources and diagnostics, keyed by a session UUID. It
// stores source text and diagnostics only, never Pattern values.
package session

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"

	"github.com/chase3718/strudel-go/pkg/diag"
)

// Store is an append-only log backed by a SQLite database in WAL mode.
type Store struct {
	db        *sql.DB
	SessionID string
}

// Open creates or opens the database at path and starts a fresh session
// ID for this process. WAL mode plus a busy timeout keep concurrent
// CLI/watch goroutines from tripping over SQLITE_BUSY.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(60000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("session: open db: %w", err)
	}
	db.SetMaxOpenConns(4)

	s := &Store{db: db, SessionID: uuid.NewString()}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS evaluations (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		source     TEXT NOT NULL,
		ok         INTEGER NOT NULL,
		error      TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_evaluations_session ON evaluations(session_id, id);

	CREATE TABLE IF NOT EXISTS diagnostics (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		kind       TEXT NOT NULL,
		message    TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_diagnostics_session ON diagnostics(session_id, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// RecordEvaluation appends one evaluated source string and whether it
// succeeded, with the failure message if not.
func (s *Store) RecordEvaluation(source string, evalErr error) error {
	ok := 1
	var msg sql.NullString
	if evalErr != nil {
		ok = 0
		msg = sql.NullString{String: evalErr.Error(), Valid: true}
	}
	_, err := s.db.Exec(
		`INSERT INTO evaluations (session_id, source, ok, error, created_at) VALUES (?, ?, ?, ?, ?)`,
		s.SessionID, source, ok, msg, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// RecordDiagnostic appends one diagnostic emitted during this session.
func (s *Store) RecordDiagnostic(d diag.Diagnostic) error {
	_, err := s.db.Exec(
		`INSERT INTO diagnostics (session_id, kind, message, created_at) VALUES (?, ?, ?, ?)`,
		s.SessionID, d.Kind.String(), d.Message, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Evaluation is one historical row from RecordEvaluation.
type Evaluation struct {
	Source    string
	OK        bool
	Error     string
	CreatedAt time.Time
}

// History returns every evaluation recorded for this session, oldest
// first.
func (s *Store) History() ([]Evaluation, error) {
	rows, err := s.db.Query(
		`SELECT source, ok, COALESCE(error, ''), created_at FROM evaluations
		 WHERE session_id = ? ORDER BY id ASC`, s.SessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Evaluation
	for rows.Next() {
		var e Evaluation
		var ok int
		var created string
		if err := rows.Scan(&e.Source, &ok, &e.Error, &created); err != nil {
			return nil, err
		}
		e.OK = ok != 0
		e.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("session: parse created_at: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DrainDiagnostics reads d until it's empty (non-blocking) and persists
// every diagnostic; write errors are ignored and do not stop the drain.
func (s *Store) DrainDiagnostics(d diag.Sink) {
	for {
		select {
		case diagnostic := <-d:
			_ = s.RecordDiagnostic(diagnostic)
		default:
			return
		}
	}
}
