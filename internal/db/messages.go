package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/vedasage/sage/pkg/ai"
)

// ChatMessageLog persists session histories in the chat_messages table. It
// implements session.MessageLog.
type ChatMessageLog struct {
	conn *pgxpool.Pool
}

func NewChatMessageLog(conn *pgxpool.Pool) *ChatMessageLog {
	return &ChatMessageLog{conn: conn}
}

func (l *ChatMessageLog) Append(ctx context.Context, sessionID string, message ai.ChatMessage) error {
	publicID, err := gonanoid.New()
	if err != nil {
		return fmt.Errorf("generate message id: %w", err)
	}
	_, err = l.conn.Exec(ctx, `
		INSERT INTO chat_messages (public_id, session_id, role, content)
		VALUES ($1, $2, $3, $4)`,
		publicID, sessionID, message.Role, message.Message,
	)
	if err != nil {
		return fmt.Errorf("append chat message: %w", err)
	}
	return nil
}

// Replace swaps the whole persisted history of a session in one
// transaction, used after summarization collapses the in-memory history.
func (l *ChatMessageLog) Replace(ctx context.Context, sessionID string, messages []ai.ChatMessage) error {
	tx, err := l.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("replace history: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM chat_messages WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("replace history: %w", err)
	}
	for _, message := range messages {
		publicID, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("generate message id: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO chat_messages (public_id, session_id, role, content)
			VALUES ($1, $2, $3, $4)`,
			publicID, sessionID, message.Role, message.Message,
		); err != nil {
			return fmt.Errorf("replace history: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}

func (l *ChatMessageLog) Clear(ctx context.Context, sessionID string) error {
	if _, err := l.conn.Exec(ctx, `DELETE FROM chat_messages WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Load returns a session's persisted history in append order.
func (l *ChatMessageLog) Load(ctx context.Context, sessionID string) ([]ai.ChatMessage, error) {
	rows, err := l.conn.Query(ctx, `
		SELECT role, content
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	messages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ai.ChatMessage, error) {
		var m ai.ChatMessage
		err := row.Scan(&m.Role, &m.Message)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("load history scan: %w", err)
	}
	return messages, nil
}
