// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/bazarle/bazarle-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrClosed        = errors.New("cache is closed")
	ErrDatabaseError = errors.New("database error")
)

// =============================================================================
// HISTORY CACHE
// =============================================================================

// Cache is a local sqlite-backed copy of conversation history. It lets the
// client paint the last known state of a conversation before the server
// history load completes, and keeps something readable when offline.
//
// Only authoritative messages are cached. Optimistic placeholders never hit
// disk; they either reconcile into a server message or fail in memory.
type Cache struct {
	db *sql.DB
}

// DefaultPath returns the default cache location, ~/.bazarle/cache.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".bazarle", "cache.db"), nil
}

// Open opens (creating if needed) the history cache at path.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
	}

	c := &Cache{db: db}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id         TEXT NOT NULL,
		peer_id    TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		body       BLOB NOT NULL,
		PRIMARY KEY (peer_id, id)
	);
	CREATE INDEX IF NOT EXISTS idx_messages_peer_time
		ON messages(peer_id, created_at);
	`
	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// =============================================================================
// SAVE / LOAD
// =============================================================================

// SaveMessages upserts a batch of server messages for a conversation.
// Optimistic placeholders in the batch are skipped.
func (c *Cache) SaveMessages(ctx context.Context, peerID string, messages []*model.Message) error {
	if c.db == nil {
		return ErrClosed
	}
	if peerID == "" {
		return errors.New("peer id cannot be empty")
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (id, peer_id, created_at, body)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(peer_id, id) DO UPDATE SET created_at = excluded.created_at, body = excluded.body
	`)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer stmt.Close()

	for _, msg := range messages {
		if msg.IsOptimistic() {
			continue
		}
		body, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to encode message %s: %w", msg.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, msg.ID, peerID, msg.CreatedAt.UnixMilli(), body); err != nil {
			return fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
	}

	return tx.Commit()
}

// LoadMessages returns up to limit cached messages for a conversation in
// chronological order. limit <= 0 means no limit.
func (c *Cache) LoadMessages(ctx context.Context, peerID string, limit int) ([]*model.Message, error) {
	if c.db == nil {
		return nil, ErrClosed
	}

	query := `
		SELECT body FROM (
			SELECT body, created_at FROM messages
			WHERE peer_id = ?
			ORDER BY created_at DESC
			LIMIT ?
		) ORDER BY created_at ASC
	`
	if limit <= 0 {
		limit = -1
	}

	rows, err := c.db.QueryContext(ctx, query, peerID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var messages []*model.Message
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		var msg model.Message
		if err := json.Unmarshal(body, &msg); err != nil {
			// A corrupt row is skipped rather than failing the whole load.
			continue
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// Prune keeps only the newest maxPerPeer messages for every conversation.
func (c *Cache) Prune(ctx context.Context, maxPerPeer int) error {
	if c.db == nil {
		return ErrClosed
	}
	if maxPerPeer <= 0 {
		return nil
	}

	_, err := c.db.ExecContext(ctx, `
		DELETE FROM messages
		WHERE rowid IN (
			SELECT rowid FROM (
				SELECT rowid, ROW_NUMBER() OVER (
					PARTITION BY peer_id ORDER BY created_at DESC
				) AS rn
				FROM messages
			) WHERE rn > ?
		)
	`, maxPerPeer)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// DeletePeer drops all cached history for one conversation.
func (c *Cache) DeletePeer(ctx context.Context, peerID string) error {
	if c.db == nil {
		return ErrClosed
	}
	_, err := c.db.ExecContext(ctx, "DELETE FROM messages WHERE peer_id = ?", peerID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// Clear drops all cached history. Used on logout so the next user never
// sees the previous user's conversations.
func (c *Cache) Clear(ctx context.Context) error {
	if c.db == nil {
		return ErrClosed
	}
	_, err := c.db.ExecContext(ctx, "DELETE FROM messages")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// Stats reports per-conversation cached message counts.
func (c *Cache) Stats(ctx context.Context) (map[string]int, error) {
	if c.db == nil {
		return nil, ErrClosed
	}

	rows, err := c.db.QueryContext(ctx, "SELECT peer_id, COUNT(*) FROM messages GROUP BY peer_id")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var peerID string
		var count int
		if err := rows.Scan(&peerID, &count); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		stats[peerID] = count
	}
	return stats, rows.Err()
}
