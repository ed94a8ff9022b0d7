package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one persisted turn of a document conversation.
type ChatMessage struct {
	ID         string
	DocumentID string
	Role       string
	Content    string
	CreatedAt  time.Time
}

// SaveMessage appends a conversation turn to the transcript for a document.
func (d *DB) SaveMessage(ctx context.Context, documentID, role, content string) error {
	_, err := d.Pool.ExecContext(ctx,
		`INSERT INTO chat_messages (id, document_id, role, content) VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), documentID, role, content,
	)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

// ListMessages returns a document's transcript in chronological order.
func (d *DB) ListMessages(ctx context.Context, documentID string) ([]ChatMessage, error) {
	rows, err := d.Pool.QueryContext(ctx,
		`SELECT id, document_id, role, content, created_at
		 FROM chat_messages WHERE document_id = $1 ORDER BY created_at`,
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	var result []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.DocumentID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}
