// Package learning is the persistent log of (prompt, generated, final,
// context, outcome) records described in §4.9: a SQLite-backed store with a
// record/edit/similarity-lookup/count/clear contract.
package learning

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrPatternNotFound is returned when a pattern id has no matching row.
var ErrPatternNotFound = errors.New("learning: pattern not found")

// Pattern is one learning-store record, per §3's "learning pattern" type.
type Pattern struct {
	ID               string
	Prompt           string
	GeneratedCommand string
	FinalCommand     *string
	ContextSnapshot  []byte
	ExecutionSuccess *bool
	UserRating       *uint8
	Timestamp        time.Time
}

// Store is a SQLite-backed learning log. The zero value is not usable; build
// one with Open.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures the command_patterns/improvement_patterns tables and their
// indexes exist.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("learning: open database: %w", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite has no internal connection pool locking

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("learning: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS command_patterns (
	id                 TEXT PRIMARY KEY,
	prompt             TEXT NOT NULL,
	generated_command  TEXT NOT NULL,
	final_command      TEXT,
	context_snapshot   BLOB,
	execution_success  INTEGER,
	user_rating        INTEGER,
	timestamp          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_command_patterns_timestamp ON command_patterns(timestamp);
CREATE INDEX IF NOT EXISTS idx_command_patterns_prompt ON command_patterns(prompt);
CREATE INDEX IF NOT EXISTS idx_command_patterns_has_edit ON command_patterns(final_command);

CREATE TABLE IF NOT EXISTS improvement_patterns (
	id                     TEXT PRIMARY KEY,
	original_template      TEXT NOT NULL,
	improvement_template   TEXT NOT NULL,
	frequency              INTEGER NOT NULL DEFAULT 0,
	contexts               TEXT,
	created_at             TEXT NOT NULL,
	updated_at             TEXT NOT NULL,
	UNIQUE(original_template, improvement_template)
);
`

// Record appends one interaction to the log, per §4.8 step 8 and §4.9's
// record(pattern) contract. finalCommand and contextSnapshot may be empty.
func (s *Store) Record(prompt, generated, finalCommand string, contextSnapshot []byte, executionSuccess *bool) error {
	id := uuid.New().String()
	now := time.Now().UTC().Format(time.RFC3339)

	var final sql.NullString
	if finalCommand != "" {
		final = sql.NullString{String: finalCommand, Valid: true}
	}
	var success sql.NullBool
	if executionSuccess != nil {
		success = sql.NullBool{Bool: *executionSuccess, Valid: true}
	}

	_, err := s.db.Exec(`
		INSERT INTO command_patterns (id, prompt, generated_command, final_command, context_snapshot, execution_success, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, prompt, generated, final, contextSnapshot, success, now)
	if err != nil {
		return fmt.Errorf("learning: insert pattern: %w", err)
	}
	return nil
}

// LearnFromEdit sets final_command on an existing record, marking that the
// user edited the generated command before running it, per §4.9.
func (s *Store) LearnFromEdit(id, editedCommand string) error {
	result, err := s.db.Exec(`UPDATE command_patterns SET final_command = ? WHERE id = ?`, editedCommand, id)
	if err != nil {
		return fmt.Errorf("learning: update final_command: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("learning: rows affected: %w", err)
	}
	if affected == 0 {
		return ErrPatternNotFound
	}
	return nil
}

// Count returns the total number of stored patterns.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM command_patterns`).Scan(&n); err != nil {
		return 0, fmt.Errorf("learning: count patterns: %w", err)
	}
	return n, nil
}

// ClearAll deletes every stored command pattern and mined improvement.
func (s *Store) ClearAll() error {
	if _, err := s.db.Exec(`DELETE FROM command_patterns`); err != nil {
		return fmt.Errorf("learning: clear patterns: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM improvement_patterns`); err != nil {
		return fmt.Errorf("learning: clear improvements: %w", err)
	}
	return nil
}

// allPrompts returns the id, prompt, generated and final command, and
// timestamp of every stored pattern, used by FindSimilar's in-memory scoring
// pass and by MineImprovements; the corpus is expected to stay small enough
// for this to be cheaper than a SQL-side tokenizer.
func (s *Store) allPrompts() ([]Pattern, error) {
	rows, err := s.db.Query(`SELECT id, prompt, generated_command, final_command, timestamp FROM command_patterns`)
	if err != nil {
		return nil, fmt.Errorf("learning: query patterns: %w", err)
	}
	defer rows.Close()

	var out []Pattern
	for rows.Next() {
		var p Pattern
		var final sql.NullString
		var ts string
		if err := rows.Scan(&p.ID, &p.Prompt, &p.GeneratedCommand, &final, &ts); err != nil {
			return nil, fmt.Errorf("learning: scan pattern: %w", err)
		}
		if final.Valid {
			v := final.String
			p.FinalCommand = &v
		}
		p.Timestamp, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("learning: parse timestamp: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// All returns every stored pattern in full, most recent first, for the
// `cmdai patterns list`/`export` CLI surface.
func (s *Store) All() ([]Pattern, error) {
	rows, err := s.db.Query(`
		SELECT id, prompt, generated_command, final_command, context_snapshot, execution_success, user_rating, timestamp
		FROM command_patterns ORDER BY timestamp DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("learning: query patterns: %w", err)
	}
	defer rows.Close()

	var out []Pattern
	for rows.Next() {
		var p Pattern
		var final, ts sql.NullString
		var success sql.NullBool
		var rating sql.NullInt64
		if err := rows.Scan(&p.ID, &p.Prompt, &p.GeneratedCommand, &final, &p.ContextSnapshot, &success, &rating, &ts); err != nil {
			return nil, fmt.Errorf("learning: scan pattern: %w", err)
		}
		if final.Valid {
			v := final.String
			p.FinalCommand = &v
		}
		if success.Valid {
			v := success.Bool
			p.ExecutionSuccess = &v
		}
		if rating.Valid {
			v := uint8(rating.Int64)
			p.UserRating = &v
		}
		p.Timestamp, err = time.Parse(time.RFC3339, ts.String)
		if err != nil {
			return nil, fmt.Errorf("learning: parse timestamp: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
