// Package store keeps a local record of conversations so the chat listing
// survives without any server-side chat API: the transport only pushes
// individual messages, so the bridge builds its own recency index.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hybridz/wa-form-bridge/internal/gateway"
)

// MessageStore is a sqlite-backed log of inbound and outbound messages.
type MessageStore struct {
	db *sql.DB
}

// Open creates (or opens) the message database at path.
func Open(path string) (*MessageStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open message db: %w", err)
	}

	_, err = db.Exec(`
	CREATE TABLE IF NOT EXISTS chats (
		jid TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		is_group BOOLEAN NOT NULL DEFAULT 0,
		last_message TEXT NOT NULL DEFAULT '',
		last_message_at TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS messages (
		id TEXT,
		chat_jid TEXT,
		body TEXT,
		sent_at TIMESTAMP,
		is_from_me BOOLEAN,
		PRIMARY KEY (id, chat_jid),
		FOREIGN KEY (chat_jid) REFERENCES chats(jid)
	);`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &MessageStore{db: db}, nil
}

// Close releases the database handle.
func (s *MessageStore) Close() error { return s.db.Close() }

// Record logs one message and refreshes the chat's recency row. A non-empty
// name updates the stored contact name; an empty one keeps the previous value.
func (s *MessageStore) Record(ctx context.Context, chatJID, msgID, name, body string, at time.Time, isGroup, fromMe bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chats (jid, name, is_group, last_message, last_message_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(jid) DO UPDATE SET
			name = CASE WHEN excluded.name != '' THEN excluded.name ELSE chats.name END,
			is_group = excluded.is_group,
			last_message = excluded.last_message,
			last_message_at = excluded.last_message_at`,
		chatJID, name, isGroup, body, at)
	if err != nil {
		return fmt.Errorf("upsert chat: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO messages (id, chat_jid, body, sent_at, is_from_me)
		VALUES (?, ?, ?, ?, ?)`,
		msgID, chatJID, body, at, fromMe)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// RecentConversations returns up to limit chats, most recent first.
func (s *MessageStore) RecentConversations(ctx context.Context, limit int) ([]gateway.ConversationSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT jid, name, is_group, last_message, last_message_at
		FROM chats
		ORDER BY last_message_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query chats: %w", err)
	}
	defer rows.Close()

	var out []gateway.ConversationSummary
	for rows.Next() {
		var c gateway.ConversationSummary
		var at sql.NullTime
		if err := rows.Scan(&c.ID, &c.Name, &c.IsGroup, &c.LastMessage, &at); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		if c.LastMessage == "" {
			c.LastMessage = "No messages"
		}
		if at.Valid {
			c.Timestamp = at.Time.Unix()
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
