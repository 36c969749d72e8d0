// Package journal keeps a sqlite log of recording operations: which edges
// were recorded when, in which mode, and where the artifact landed. The
// engine itself never reads it; the CLI and HTTP layers write to it and the
// history views query it.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const currentSchemaVersion = 1

// Journal wraps the sqlite recording log.
type Journal struct {
	db *sql.DB
}

// Record is one logged recording operation.
type Record struct {
	ID          int64
	Stem        string
	FromVersion int
	ToVersion   int
	Mode        string // "transform" or "pixeldiff"
	MatrixPath  string
	CreatedAt   time.Time
}

// Open opens or creates the journal database at path.
func Open(path string) (*Journal, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_timeout=5000&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal migration failed: %w", err)
	}
	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) migrate() error {
	if _, err := j.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return err
	}

	var version int
	err := j.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if err == sql.ErrNoRows {
		if _, err := j.db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, currentSchemaVersion); err != nil {
			return err
		}
		version = 0
	} else if err != nil {
		return err
	}

	if version < 1 {
		if _, err := j.db.Exec(`
			CREATE TABLE IF NOT EXISTS recordings (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				stem TEXT NOT NULL,
				from_version INTEGER NOT NULL,
				to_version INTEGER NOT NULL,
				mode TEXT NOT NULL,
				matrix_path TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_recordings_stem ON recordings(stem);
		`); err != nil {
			return err
		}
	}

	if version != currentSchemaVersion {
		if _, err := j.db.Exec(`UPDATE schema_version SET version = ?`, currentSchemaVersion); err != nil {
			return err
		}
	}
	return nil
}

// Add logs a recording operation.
func (j *Journal) Add(stem string, from, to int, mode, matrixPath string) error {
	_, err := j.db.Exec(
		`INSERT INTO recordings (stem, from_version, to_version, mode, matrix_path, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		stem, from, to, mode, matrixPath, time.Now().UTC(),
	)
	return err
}

// History returns the recordings for one collection, newest first. An empty
// stem returns everything.
func (j *Journal) History(stem string) ([]Record, error) {
	query := `SELECT id, stem, from_version, to_version, mode, matrix_path, created_at FROM recordings`
	args := []any{}
	if stem != "" {
		query += ` WHERE stem = ?`
		args = append(args, stem)
	}
	query += ` ORDER BY id DESC`

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Stem, &r.FromVersion, &r.ToVersion, &r.Mode, &r.MatrixPath, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
