// Package approvals persists the side table correlating emailed approval
// codes with the workflow instance waiting on the decision. The store is
// written once per approval-request email and read once when the decision
// arrives over HTTP; codes are unique per email, so no coordination beyond
// the database itself is needed.
package approvals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// partitionKey mirrors the fixed partition the records are filed under.
const partitionKey = "Approval"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS approvals (
    partition_key TEXT NOT NULL DEFAULT 'Approval',
    approval_code TEXT NOT NULL PRIMARY KEY,
    workflow_id   TEXT NOT NULL,
    created_at    TEXT NOT NULL
);
`

// ErrNotFound indicates the approval code is unknown or already consumed.
var ErrNotFound = errors.New("approval code not found")

// Record is one persisted approval correlation.
type Record struct {
	PartitionKey string
	ApprovalCode string
	WorkflowID   string
	CreatedAt    time.Time
}

// Store manages approval-record persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the approvals database at path, creating
// parent directories as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure approvals dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put records a freshly minted approval code for the given workflow instance.
// Re-inserting the same code is a no-op, which keeps redelivered email
// activities harmless.
func (s *Store) Put(ctx context.Context, approvalCode, workflowID string) error {
	if approvalCode == "" {
		return errors.New("approval code is required")
	}
	if workflowID == "" {
		return errors.New("workflow id is required")
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO approvals (partition_key, approval_code, workflow_id, created_at)
         VALUES (?, ?, ?, ?)`,
		partitionKey, approvalCode, workflowID, now)
	if err != nil {
		return fmt.Errorf("insert approval record: %w", err)
	}
	return nil
}

// Get resolves an approval code to the waiting workflow instance.
func (s *Store) Get(ctx context.Context, approvalCode string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT partition_key, approval_code, workflow_id, created_at
         FROM approvals WHERE approval_code = ?`,
		approvalCode)

	var rec Record
	var createdAt string
	if err := row.Scan(&rec.PartitionKey, &rec.ApprovalCode, &rec.WorkflowID, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query approval record: %w", err)
	}
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		rec.CreatedAt = ts
	}
	return &rec, nil
}

// ListByWorkflow returns every outstanding approval record for a workflow
// instance, oldest first. Redelivered email activities can leave more than
// one.
func (s *Store) ListByWorkflow(ctx context.Context, workflowID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT partition_key, approval_code, workflow_id, created_at
         FROM approvals WHERE workflow_id = ? ORDER BY created_at`,
		workflowID)
	if err != nil {
		return nil, fmt.Errorf("query approval records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var createdAt string
		if err := rows.Scan(&rec.PartitionKey, &rec.ApprovalCode, &rec.WorkflowID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan approval record: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			rec.CreatedAt = ts
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes a consumed approval record. Deleting an unknown code is not
// an error; a stale record is merely unused.
func (s *Store) Delete(ctx context.Context, approvalCode string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM approvals WHERE approval_code = ?`, approvalCode); err != nil {
		return fmt.Errorf("delete approval record: %w", err)
	}
	return nil
}
