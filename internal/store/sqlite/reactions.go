package sqlite

import (
	"context"
	"fmt"

	"github.com/vovakirdan/wirechat-bridge/internal/core"
	"github.com/vovakirdan/wirechat-bridge/internal/store"
)

// ==== ReactionStore implementation ====

// AddReaction records a reaction; adding the same one twice is a no-op.
func (s *SQLiteStore) AddReaction(ctx context.Context, e *store.ReactionEntry) error {
	query := `
		INSERT OR IGNORE INTO reactions (msg_id, reaction, user_id, created_at)
		VALUES (?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, e.MessageID, e.Reaction, e.UserID, e.CreatedAt); err != nil {
		return fmt.Errorf("insert reaction: %w", err)
	}
	return nil
}

// RemoveReaction deletes a reaction and reports whether it existed.
func (s *SQLiteStore) RemoveReaction(ctx context.Context, msgID, reaction, userID string) (bool, error) {
	query := `DELETE FROM reactions WHERE msg_id = ? AND reaction = ? AND user_id = ?`
	res, err := s.db.ExecContext(ctx, query, msgID, reaction, userID)
	if err != nil {
		return false, fmt.Errorf("delete reaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ListReactions returns the reactions of the given messages, oldest first.
func (s *SQLiteStore) ListReactions(ctx context.Context, msgIDs []string) ([]*store.ReactionEntry, error) {
	entries := make([]*store.ReactionEntry, 0)
	if len(msgIDs) == 0 {
		return entries, nil
	}
	query := `
		SELECT msg_id, reaction, user_id, created_at
		FROM reactions
		WHERE msg_id IN (` + placeholders(len(msgIDs)) + `)
		ORDER BY created_at, rowid
	`
	args := make([]any, len(msgIDs))
	for i, id := range msgIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e store.ReactionEntry
		if err := rows.Scan(&e.MessageID, &e.Reaction, &e.UserID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reaction: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// ==== GroupAckStore implementation ====

// SaveGroupAck records an acknowledgement.
func (s *SQLiteStore) SaveGroupAck(ctx context.Context, ack *core.GroupReadAck) error {
	query := `
		INSERT INTO group_acks (ack_id, msg_id, from_user, content, count, ts)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query, ack.AckID, ack.MsgID, ack.From, ack.Content, ack.Count, ack.Timestamp)
	if err != nil {
		return fmt.Errorf("insert group ack: %w", err)
	}
	return nil
}

// ListGroupAcks returns up to limit acks of a message after afterAckID.
func (s *SQLiteStore) ListGroupAcks(ctx context.Context, msgID, afterAckID string, limit int) ([]*core.GroupReadAck, error) {
	query := `
		SELECT ack_id, msg_id, from_user, content, count, ts
		FROM group_acks
		WHERE msg_id = ?
		  AND seq > COALESCE((SELECT seq FROM group_acks WHERE ack_id = ?), 0)
		ORDER BY seq
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, msgID, afterAckID, limit)
	if err != nil {
		return nil, fmt.Errorf("query group acks: %w", err)
	}
	defer rows.Close()

	acks := make([]*core.GroupReadAck, 0)
	for rows.Next() {
		var a core.GroupReadAck
		if err := rows.Scan(&a.AckID, &a.MsgID, &a.From, &a.Content, &a.Count, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scan group ack: %w", err)
		}
		acks = append(acks, &a)
	}
	return acks, rows.Err()
}
