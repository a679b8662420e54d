package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const messageColumns = `id, chat_id, sender, timestamp, text, media_key, media_url, media_type, file_name`

func scanMessage(row interface{ Scan(...any) error }, m *Message) error {
	return row.Scan(&m.ID, &m.ChatID, &m.Sender, &m.Timestamp, &m.Text, &m.MediaKey, &m.MediaURL, &m.MediaType, &m.FileName)
}

// AppendMessage adds m to its conversation, creating the conversation row if
// needed. The store assigns m.ID (when empty) and m.Timestamp; timestamps are
// strictly increasing within a conversation even if the wall clock is not.
func (db *DB) AppendMessage(ctx context.Context, m *Message) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixMilli()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO chats (id, created_at) VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING`, m.ChatID, now); err != nil {
		return fmt.Errorf("ensure chat: %w", err)
	}

	var last int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(timestamp), 0) FROM messages WHERE chat_id = ?`, m.ChatID).
		Scan(&last); err != nil {
		return fmt.Errorf("read last timestamp: %w", err)
	}
	ts := now
	if ts <= last {
		ts = last + 1
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages (id, chat_id, sender, timestamp, text, media_key, media_url, media_type, file_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ChatID, m.Sender, ts, m.Text, m.MediaKey, m.MediaURL, m.MediaType, m.FileName, now); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	m.Timestamp = ts
	return nil
}

// LatestMessage returns the most recent message of a conversation, or nil if
// the conversation has none.
func (db *DB) LatestMessage(ctx context.Context, chatID string) (*Message, error) {
	var m Message
	err := scanMessage(db.QueryRowContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE chat_id = ?
		ORDER BY timestamp DESC, seq DESC
		LIMIT 1`, chatID), &m)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMessages returns every message of a conversation, oldest first.
func (db *DB) ListMessages(ctx context.Context, chatID string) ([]Message, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE chat_id = ?
		ORDER BY timestamp ASC, seq ASC`, chatID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := scanMessage(rows, &m); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MessageCount returns the total number of messages across all conversations.
func (db *DB) MessageCount(ctx context.Context) (int64, error) {
	var count int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}
