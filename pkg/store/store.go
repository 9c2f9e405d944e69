// Package store is the SQLite persistence layer: the reply↔origin
// associations that authorize reaction deletion, and the error journal
// consulted on restart. Each operation is atomic on its own; nothing here
// needs cross-operation transactions.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/yomikobot/yomiko/pkg/logger"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("store: record not found")

// ReplyRecord associates an origin message with the bot's reply messages.
// Created once per answered origin message, deleted on authorized
// reaction deletion, never mutated in between.
type ReplyRecord struct {
	OriginMessageID string
	OriginChannelID string
	OriginAuthorID  string
	ReplyMessageIDs []string
	CreatedAt       time.Time
}

// ErrorRecord is one journaled fault. Notified flips to true once the
// record has been surfaced after a restart; records are never deleted.
type ErrorRecord struct {
	ID         string
	ErrorText  string
	OccurredAt time.Time
	Notified   bool
}

// Store wraps the SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open db %s: %w", path, err)
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	logger.InfoCF("store", "Database opened", map[string]interface{}{
		"path": path,
	})
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS replies (
		origin_message_id TEXT PRIMARY KEY,
		origin_channel_id TEXT NOT NULL,
		origin_author_id TEXT NOT NULL,
		reply_message_ids TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS errors (
		id TEXT PRIMARY KEY,
		error_text TEXT NOT NULL,
		occurred_at TEXT NOT NULL,
		notified INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_errors_notified ON errors(notified);
	`
	_, err := s.db.Exec(schema)
	return err
}

// AddReply inserts a reply record. ReplyMessageIDs must be non-empty.
func (s *Store) AddReply(rec ReplyRecord) error {
	if len(rec.ReplyMessageIDs) == 0 {
		return fmt.Errorf("reply record for %s has no reply message ids", rec.OriginMessageID)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	idsJSON, err := json.Marshal(rec.ReplyMessageIDs)
	if err != nil {
		return fmt.Errorf("marshal reply ids: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO replies (origin_message_id, origin_channel_id, origin_author_id, reply_message_ids, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.OriginMessageID, rec.OriginChannelID, rec.OriginAuthorID,
		string(idsJSON), rec.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert reply record: %w", err)
	}
	return nil
}

// ReplyByMessage looks a record up by message id. The id may be the
// origin message or any of the bot's reply messages — a delete reaction
// can land on either.
func (s *Store) ReplyByMessage(messageID string) (*ReplyRecord, error) {
	row := s.db.QueryRow(`
		SELECT origin_message_id, origin_channel_id, origin_author_id, reply_message_ids, created_at
		FROM replies
		WHERE origin_message_id = ?`,
		messageID,
	)
	rec, err := scanReply(row)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lookup reply by origin: %w", err)
	}

	// Not an origin id; scan the reply-id arrays. The JSON array is stored
	// as text, so match on the quoted id.
	rows, err := s.db.Query(`
		SELECT origin_message_id, origin_channel_id, origin_author_id, reply_message_ids, created_at
		FROM replies
		WHERE reply_message_ids LIKE ?`,
		`%"`+messageID+`"%`,
	)
	if err != nil {
		return nil, fmt.Errorf("lookup reply by reply id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanReply(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reply record: %w", err)
		}
		for _, id := range rec.ReplyMessageIDs {
			if id == messageID {
				return rec, nil
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reply records: %w", err)
	}
	return nil, ErrNotFound
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReply(row rowScanner) (*ReplyRecord, error) {
	var rec ReplyRecord
	var idsJSON, createdAt string
	if err := row.Scan(&rec.OriginMessageID, &rec.OriginChannelID, &rec.OriginAuthorID, &idsJSON, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(idsJSON), &rec.ReplyMessageIDs); err != nil {
		return nil, fmt.Errorf("unmarshal reply ids: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		rec.CreatedAt = t
	}
	return &rec, nil
}

// DeleteReply removes a record by origin message id. Deleting a missing
// record is not an error; deletion is idempotent.
func (s *Store) DeleteReply(originMessageID string) error {
	_, err := s.db.Exec(`DELETE FROM replies WHERE origin_message_id = ?`, originMessageID)
	if err != nil {
		return fmt.Errorf("delete reply record: %w", err)
	}
	return nil
}

// AddError journals a fault.
func (s *Store) AddError(rec ErrorRecord) error {
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO errors (id, error_text, occurred_at, notified)
		VALUES (?, ?, ?, ?)`,
		rec.ID, rec.ErrorText, rec.OccurredAt.Format(time.RFC3339), rec.Notified,
	)
	if err != nil {
		return fmt.Errorf("insert error record: %w", err)
	}
	return nil
}

// UnnotifiedErrors returns journaled faults that have not been surfaced
// yet, oldest first.
func (s *Store) UnnotifiedErrors() ([]ErrorRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, error_text, occurred_at, notified
		FROM errors
		WHERE notified = 0
		ORDER BY occurred_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query unnotified errors: %w", err)
	}
	defer rows.Close()

	var out []ErrorRecord
	for rows.Next() {
		var rec ErrorRecord
		var occurredAt string
		if err := rows.Scan(&rec.ID, &rec.ErrorText, &occurredAt, &rec.Notified); err != nil {
			return nil, fmt.Errorf("scan error record: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, occurredAt); err == nil {
			rec.OccurredAt = t
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate error records: %w", err)
	}
	return out, nil
}

// MarkNotified flips the notified flag on the given error records.
func (s *Store) MarkNotified(ids []string) error {
	for _, id := range ids {
		if _, err := s.db.Exec(`UPDATE errors SET notified = 1 WHERE id = ?`, id); err != nil {
			return fmt.Errorf("mark error %s notified: %w", id, err)
		}
	}
	return nil
}

// ErrorCounts returns (total, unnotified) journal sizes.
func (s *Store) ErrorCounts() (int, int, error) {
	var total, unnotified int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM errors`).Scan(&total); err != nil {
		return 0, 0, fmt.Errorf("count errors: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM errors WHERE notified = 0`).Scan(&unnotified); err != nil {
		return 0, 0, fmt.Errorf("count unnotified errors: %w", err)
	}
	return total, unnotified, nil
}
