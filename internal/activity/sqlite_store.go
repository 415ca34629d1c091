// Package activity persists the append-only deletion and unsubscribe logs.
// Both sequences are truncated most-recent-kept on every append.
package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/calder/inbox-sentinel/internal/core"
)

// Default retention limits.
const (
	DefaultMaxDeletions    = 100
	DefaultMaxUnsubscribes = 50
)

const schema = `
CREATE TABLE IF NOT EXISTS deletion_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	message_id TEXT NOT NULL,
	sender TEXT NOT NULL,
	subject TEXT NOT NULL,
	snippet TEXT NOT NULL,
	domain TEXT NOT NULL,
	spam_score INTEGER NOT NULL,
	deleted_at TIMESTAMP NOT NULL,
	reason TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS unsubscribe_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	message_id TEXT NOT NULL,
	sender TEXT NOT NULL,
	subject TEXT NOT NULL,
	snippet TEXT NOT NULL,
	domain TEXT NOT NULL,
	unsubscribe_link TEXT NOT NULL,
	logged_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS analytics_snapshots (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	payload TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// SQLiteStore implements the ActivityLog interface on a local SQLite
// database, the append-heavy "local" persistence namespace.
type SQLiteStore struct {
	db              *sqlx.DB
	maxDeletions    int
	maxUnsubscribes int
}

// NewSQLiteStore opens (or creates) the activity database at dbPath and
// applies the schema.
func NewSQLiteStore(dbPath string, maxDeletions, maxUnsubscribes int) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open activity database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply activity schema: %w", err)
	}

	if maxDeletions <= 0 {
		maxDeletions = DefaultMaxDeletions
	}
	if maxUnsubscribes <= 0 {
		maxUnsubscribes = DefaultMaxUnsubscribes
	}

	return &SQLiteStore{
		db:              db,
		maxDeletions:    maxDeletions,
		maxUnsubscribes: maxUnsubscribes,
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AppendDeletion appends a deletion record and trims to the retention limit.
func (s *SQLiteStore) AppendDeletion(ctx context.Context, entry core.DeletionLog) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO deletion_logs (message_id, sender, subject, snippet, domain, spam_score, deleted_at, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Sender, entry.Subject, entry.Snippet, entry.Domain, entry.SpamScore, entry.DeletedAt, entry.Reason)
	if err != nil {
		return fmt.Errorf("failed to insert deletion log: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM deletion_logs
		WHERE id NOT IN (SELECT id FROM deletion_logs ORDER BY id DESC LIMIT ?)
	`, s.maxDeletions)
	if err != nil {
		return fmt.Errorf("failed to trim deletion logs: %w", err)
	}

	return tx.Commit()
}

// AppendUnsubscribe appends an unsubscribe record and trims to the
// retention limit.
func (s *SQLiteStore) AppendUnsubscribe(ctx context.Context, entry core.UnsubscribeLog) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO unsubscribe_logs (message_id, sender, subject, snippet, domain, unsubscribe_link, logged_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Sender, entry.Subject, entry.Snippet, entry.Domain, entry.UnsubscribeLink, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert unsubscribe log: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM unsubscribe_logs
		WHERE id NOT IN (SELECT id FROM unsubscribe_logs ORDER BY id DESC LIMIT ?)
	`, s.maxUnsubscribes)
	if err != nil {
		return fmt.Errorf("failed to trim unsubscribe logs: %w", err)
	}

	return tx.Commit()
}

// Deletions returns the retained deletion records, oldest first.
func (s *SQLiteStore) Deletions(ctx context.Context) ([]core.DeletionLog, error) {
	logs := []core.DeletionLog{}
	err := s.db.SelectContext(ctx, &logs, `
		SELECT message_id, sender, subject, snippet, domain, spam_score, deleted_at, reason
		FROM deletion_logs ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query deletion logs: %w", err)
	}
	return logs, nil
}

// Unsubscribes returns the retained unsubscribe records, oldest first.
func (s *SQLiteStore) Unsubscribes(ctx context.Context) ([]core.UnsubscribeLog, error) {
	logs := []core.UnsubscribeLog{}
	err := s.db.SelectContext(ctx, &logs, `
		SELECT message_id, sender, subject, snippet, domain, unsubscribe_link, logged_at
		FROM unsubscribe_logs ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsubscribe logs: %w", err)
	}
	return logs, nil
}

// Clear removes all activity records.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM deletion_logs`); err != nil {
		return fmt.Errorf("failed to clear deletion logs: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM unsubscribe_logs`); err != nil {
		return fmt.Errorf("failed to clear unsubscribe logs: %w", err)
	}
	return nil
}

// SaveSnapshot upserts the serialized analytics snapshot, written by the
// periodic persistence timer.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, payload []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analytics_snapshots (id, payload, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, string(payload), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save analytics snapshot: %w", err)
	}
	return nil
}
