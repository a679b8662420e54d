package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// EnsureConversation creates the conversation row if it does not exist yet.
// Existing rows are left untouched.
func (db *DB) EnsureConversation(ctx context.Context, c *Conversation) error {
	created := c.CreatedAt
	if created == 0 {
		created = time.Now().UnixMilli()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO chats (id, patient_email, operator_email, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		c.ID, c.PatientEmail, c.OperatorEmail, created)
	return err
}

// ListConversationIDs enumerates every conversation container.
func (db *DB) ListConversationIDs(ctx context.Context) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT id FROM chats ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetConversation returns a conversation by id, or nil if it does not exist.
func (db *DB) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	var c Conversation
	err := db.QueryRowContext(ctx, `
		SELECT id, patient_email, operator_email, created_at
		FROM chats WHERE id = ?`, id).
		Scan(&c.ID, &c.PatientEmail, &c.OperatorEmail, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ConversationCount returns the number of conversation containers.
func (db *DB) ConversationCount(ctx context.Context) (int64, error) {
	var count int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chats`).Scan(&count)
	return count, err
}
