// Package journal persists protocol telemetry (registrations,
// assignments, completions) to SQLite. Recording is best-effort: the
// coordinator logs journal errors and keeps serving.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Journal wraps an SQLite database recording one row per protocol event.
type Journal struct {
	conn *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	build_id    TEXT NOT NULL,
	instance_id TEXT NOT NULL,
	event       TEXT NOT NULL,
	test_spec   TEXT NOT NULL DEFAULT '',
	detail      INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_build ON events(build_id);
`

// Open opens (or creates) a journal database at the given path and
// applies the schema. Parent directories are created as needed.
func Open(path string) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}

	// WAL mode: the coordinator writes while dashboards read
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}

	return &Journal{conn: conn, path: path}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.conn.Close()
}

// Path returns the location of the journal database file.
func (j *Journal) Path() string {
	return j.path
}

// RecordRegistration records that an instance registered with a
// candidate list of the given size.
func (j *Journal) RecordRegistration(buildID, instanceID string, candidates int) error {
	return j.insert(buildID, instanceID, "registered", "", candidates)
}

// RecordAssignment records that a spec was handed to an instance.
func (j *Journal) RecordAssignment(buildID, instanceID, testSpec string) error {
	return j.insert(buildID, instanceID, "assigned", testSpec, 0)
}

// RecordCompletion records that an instance reported completion.
func (j *Journal) RecordCompletion(buildID, instanceID string) error {
	return j.insert(buildID, instanceID, "completed", "", 0)
}

func (j *Journal) insert(buildID, instanceID, event, testSpec string, detail int) error {
	_, err := j.conn.Exec(
		"INSERT INTO events (build_id, instance_id, event, test_spec, detail, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		buildID, instanceID, event, testSpec, detail, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record %s event: %w", event, err)
	}
	return nil
}

// Assignment is one recorded spec hand-out.
type Assignment struct {
	InstanceID string
	TestSpec   string
	CreatedAt  time.Time
}

// AssignmentsForBuild returns every recorded assignment for a build in
// insertion order, for post-run analysis.
func (j *Journal) AssignmentsForBuild(buildID string) ([]Assignment, error) {
	rows, err := j.conn.Query(
		"SELECT instance_id, test_spec, created_at FROM events WHERE build_id = ? AND event = 'assigned' ORDER BY id",
		buildID,
	)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.InstanceID, &a.TestSpec, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}
