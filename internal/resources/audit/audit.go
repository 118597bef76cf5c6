// Package audit implements the operational audit trail: one row per
// feedback answer and per pipeline stage completion, stored in SQLite so a
// caller can inspect a run's history without re-executing it. This is
// distinct from the persistence codec's round-trip contract: the audit
// trail is not restored by decoding a DocumentBase.
package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS feedback_log (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id    TEXT NOT NULL,
    attribute     TEXT NOT NULL,
    document      TEXT NOT NULL,
    answer_kind   TEXT NOT NULL,
    distance      REAL NOT NULL,
    tau_after     REAL NOT NULL,
    created_at    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS stage_log (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id    TEXT NOT NULL,
    stage         TEXT NOT NULL,
    attribute     TEXT NOT NULL,
    metrics_json  TEXT NOT NULL DEFAULT '{}',
    created_at    TEXT NOT NULL
);
`

// Recorder is the narrow interface callers write the audit trail through
// (matchctl's interaction callback records each answer with it); the core
// algorithm packages do not import this package.
type Recorder interface {
	RecordAnswer(attribute, document, answerKind string, distance, tauAfter float64) error
	RecordStage(stage, attribute string, metrics map[string]any) error
}

// Store is a SQLite-backed Recorder. Every row it writes is tagged with the
// SessionID of the Store that wrote it, so rows from concurrent matchctl
// runs against the same audit database can be told apart.
type Store struct {
	db        *sql.DB
	SessionID string
}

// Open opens (creating if necessary) a SQLite audit database at path and
// runs its schema. Each Open call mints a fresh SessionID identifying the
// run that follows.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: set journal mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: create schema: %w", err)
	}
	return &Store{db: db, SessionID: uuid.New().String()}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB returns the underlying handle, for callers that need direct access
// (e.g. the fixture-export command).
func (s *Store) DB() *sql.DB { return s.db }

// RecordAnswer implements Recorder.
func (s *Store) RecordAnswer(attribute, document, answerKind string, distance, tauAfter float64) error {
	_, err := s.db.Exec(
		`INSERT INTO feedback_log (session_id, attribute, document, answer_kind, distance, tau_after, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.SessionID, attribute, document, answerKind, distance, tauAfter, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// RecordStage implements Recorder.
func (s *Store) RecordStage(stage, attribute string, metrics map[string]any) error {
	data, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("audit: marshal stage metrics: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO stage_log (session_id, stage, attribute, metrics_json, created_at) VALUES (?, ?, ?, ?, ?)`,
		s.SessionID, stage, attribute, string(data), time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// NoOp is a Recorder that discards everything, for callers that don't want
// an audit trail (e.g. unit tests).
type NoOp struct{}

func (NoOp) RecordAnswer(string, string, string, float64, float64) error { return nil }
func (NoOp) RecordStage(string, string, map[string]any) error            { return nil }
