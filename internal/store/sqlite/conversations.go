package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vovakirdan/wirechat-bridge/internal/core"
	"github.com/vovakirdan/wirechat-bridge/internal/store"
)

// ==== ConversationStore implementation ====

const conversationColumns = `id, type, unread_count, pinned, pinned_time, marks, is_thread, ext, last_message`

// SaveConversation inserts or replaces a conversation.
func (s *SQLiteStore) SaveConversation(ctx context.Context, owner string, conv *core.Conversation) error {
	var marks string
	if len(conv.Marks) > 0 {
		raw, err := json.Marshal(conv.Marks)
		if err != nil {
			return fmt.Errorf("encode marks: %w", err)
		}
		marks = string(raw)
	}
	var last sql.NullString
	var lastTS int64
	if conv.LastMessage != nil {
		raw, err := json.Marshal(conv.LastMessage)
		if err != nil {
			return fmt.Errorf("encode last message: %w", err)
		}
		last = sql.NullString{String: string(raw), Valid: true}
		lastTS = messageTime(conv.LastMessage)
	}

	query := `
		INSERT OR REPLACE INTO conversations (owner, ` + conversationColumns + `, last_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		owner, conv.ID, int(conv.Type), conv.UnreadCount, conv.Pinned, conv.PinnedTime,
		marks, conv.IsThread, conv.Ext, last, lastTS,
	)
	if err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}
	return nil
}

// GetConversation retrieves a conversation by id.
func (s *SQLiteStore) GetConversation(ctx context.Context, owner, id string) (*core.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE owner = ? AND id = ?`
	conv, err := scanConversation(s.db.QueryRowContext(ctx, query, owner, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("conversation %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query conversation: %w", err)
	}
	return conv, nil
}

// ListConversations lists conversations most recently active first; those
// without a last message come last.
func (s *SQLiteStore) ListConversations(ctx context.Context, owner string) ([]*core.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE owner = ?
		ORDER BY last_message IS NULL, last_ts DESC, id
	`
	rows, err := s.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	convs := make([]*core.Conversation, 0)
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

// DeleteConversation removes a conversation and reports whether it existed.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, owner, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return false, fmt.Errorf("delete conversation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteAllConversations removes every conversation of the owner.
func (s *SQLiteStore) DeleteAllConversations(ctx context.Context, owner string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE owner = ?`, owner); err != nil {
		return fmt.Errorf("delete conversations: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*core.Conversation, error) {
	var (
		conv     core.Conversation
		convType int
		marks    string
		last     sql.NullString
	)
	err := row.Scan(&conv.ID, &convType, &conv.UnreadCount, &conv.Pinned, &conv.PinnedTime,
		&marks, &conv.IsThread, &conv.Ext, &last)
	if err != nil {
		return nil, err
	}
	conv.Type = core.ConversationType(convType)
	if marks != "" {
		if err := json.Unmarshal([]byte(marks), &conv.Marks); err != nil {
			return nil, fmt.Errorf("decode marks: %w", err)
		}
	}
	if last.Valid {
		msg, err := decodeMessage(last.String)
		if err != nil {
			return nil, err
		}
		conv.LastMessage = msg
	}
	return &conv, nil
}
