package chat

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// maxRecent caps a single Recent query.
const maxRecent = 1000

// Store persists transcript entries.
type Store interface {
	Create(ctx context.Context, e *Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// SQLiteStore keeps entries in the transcript table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a transcript store on db. The transcript table is
// created by the embedded migrations.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Create inserts e. The ID and At are generated if empty.
func (s *SQLiteStore) Create(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	if !e.Role.Valid() {
		return fmt.Errorf("inserting transcript entry: invalid role %q", e.Role)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transcript (id, role, text, created_at) VALUES (?, ?, ?, ?)`,
		e.ID, string(e.Role), e.Text, e.At.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting transcript entry: %w", err)
	}
	return nil
}

// Recent returns up to limit of the newest entries, oldest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultHistory
	}
	if limit > maxRecent {
		limit = maxRecent
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, text, created_at FROM (
			SELECT id, role, text, created_at, seq FROM transcript
			ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying transcript: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var role, createdAt string
		if err := rows.Scan(&e.ID, &role, &e.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning transcript row: %w", err)
		}
		e.Role = Role(role)
		// Format is controlled by Create
		e.At, _ = time.Parse(time.RFC3339Nano, createdAt) //nolint:errcheck // Format is controlled
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transcript: %w", err)
	}
	return entries, nil
}
