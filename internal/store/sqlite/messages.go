package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vovakirdan/wirechat-bridge/internal/core"
	"github.com/vovakirdan/wirechat-bridge/internal/store"
)

// ==== MessageStore implementation ====

// SaveMessage inserts a message or replaces the stored copy with the same local id.
func (s *SQLiteStore) SaveMessage(ctx context.Context, owner string, msg *core.Message) error {
	key := msg.LocalID
	if key == "" {
		key = msg.ID
	}
	if key == "" {
		return errors.New("save message: message has no id")
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	var attrs string
	if len(msg.Attributes) > 0 {
		raw, err := json.Marshal(msg.Attributes)
		if err != nil {
			return fmt.Errorf("encode attributes: %w", err)
		}
		attrs = string(raw)
	}
	var pinTime int64
	if msg.Pin != nil {
		pinTime = max(msg.Pin.PinTime, 1)
	}

	query := `
		INSERT INTO messages (owner, local_id, msg_id, conversation_id, sender, type, content, attributes, ts, pin_time, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner, local_id) DO UPDATE SET
			msg_id = excluded.msg_id,
			conversation_id = excluded.conversation_id,
			sender = excluded.sender,
			type = excluded.type,
			content = excluded.content,
			attributes = excluded.attributes,
			ts = excluded.ts,
			pin_time = excluded.pin_time,
			payload = excluded.payload
	`
	_, err = s.db.ExecContext(ctx, query,
		owner, key, msg.ID, msg.ConversationID, msg.From, string(msg.Type),
		searchableContent(msg), attrs, messageTime(msg), pinTime, string(payload),
	)
	if err != nil {
		return fmt.Errorf("upsert message: %w", err)
	}
	return nil
}

// GetMessage finds a message by id or local id.
func (s *SQLiteStore) GetMessage(ctx context.Context, owner, id string) (*core.Message, error) {
	if id == "" {
		return nil, fmt.Errorf("message: %w", store.ErrNotFound)
	}
	query := `
		SELECT payload FROM messages
		WHERE owner = ? AND (local_id = ? OR msg_id = ?)
		ORDER BY seq DESC
		LIMIT 1
	`
	var payload string
	err := s.db.QueryRowContext(ctx, query, owner, id, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("message %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query message: %w", err)
	}
	return decodeMessage(payload)
}

// DeleteMessage removes a message by id or local id.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, owner, id string) error {
	query := `DELETE FROM messages WHERE owner = ? AND (local_id = ? OR msg_id = ?)`
	res, err := s.db.ExecContext(ctx, query, owner, id, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("message %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// ListMessages returns messages matching q, newest first unless q.Ascending.
func (s *SQLiteStore) ListMessages(ctx context.Context, owner string, q store.MessageQuery) ([]*core.Message, error) {
	where := []string{"owner = ?"}
	args := []any{owner}

	if q.ConversationID != "" {
		where = append(where, "conversation_id = ?")
		args = append(args, q.ConversationID)
	}
	if q.From != "" {
		where = append(where, "sender = ?")
		args = append(args, q.From)
	}
	if len(q.Types) > 0 {
		where = append(where, "type IN ("+placeholders(len(q.Types))+")")
		for _, t := range q.Types {
			args = append(args, string(t))
		}
	}
	if q.Keywords != "" {
		pattern := "%" + escapeLike(q.Keywords) + "%"
		switch q.Scope {
		case core.SearchScopeAttributes:
			where = append(where, `attributes LIKE ? ESCAPE '\'`)
			args = append(args, pattern)
		case core.SearchScopeAll:
			where = append(where, `(content LIKE ? ESCAPE '\' OR attributes LIKE ? ESCAPE '\')`)
			args = append(args, pattern, pattern)
		default:
			where = append(where, `content LIKE ? ESCAPE '\'`)
			args = append(args, pattern)
		}
	}
	if q.Since > 0 {
		where = append(where, "ts >= ?")
		args = append(args, q.Since)
	}
	if q.Until > 0 {
		where = append(where, "ts <= ?")
		args = append(args, q.Until)
	}
	if q.PinnedOnly {
		where = append(where, "pin_time > 0")
	}

	order := "DESC"
	cmp := "<"
	if q.Ascending {
		order = "ASC"
		cmp = ">"
	}
	if q.Anchor != "" {
		where = append(where, "(ts, seq) "+cmp+" (SELECT ts, seq FROM messages WHERE owner = ? AND (local_id = ? OR msg_id = ?) LIMIT 1)")
		args = append(args, owner, q.Anchor, q.Anchor)
	}

	query := "SELECT payload FROM messages WHERE " + strings.Join(where, " AND ") +
		" ORDER BY ts " + order + ", seq " + order
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	msgs := make([]*core.Message, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg, err := decodeMessage(payload)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// DeleteMessagesBefore removes every message older than ts.
func (s *SQLiteStore) DeleteMessagesBefore(ctx context.Context, owner string, ts int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE owner = ? AND ts < ?`, owner, ts)
	if err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	return nil
}

// DeleteConversationMessages removes all messages of a conversation.
func (s *SQLiteStore) DeleteConversationMessages(ctx context.Context, owner, conversationID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE owner = ? AND conversation_id = ?`, owner, conversationID)
	if err != nil {
		return fmt.Errorf("delete conversation messages: %w", err)
	}
	return nil
}

// DeleteAllMessages removes every message of the owner.
func (s *SQLiteStore) DeleteAllMessages(ctx context.Context, owner string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE owner = ?`, owner)
	if err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	return nil
}

func decodeMessage(payload string) (*core.Message, error) {
	var msg core.Message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	return &msg, nil
}

// messageTime is the ordering key: server time once known, local time before.
func messageTime(msg *core.Message) int64 {
	if msg.ServerTime != 0 {
		return msg.ServerTime
	}
	return msg.LocalTime
}

// searchableContent is the text keyword searches match for each body kind.
func searchableContent(msg *core.Message) string {
	switch b := msg.Body.(type) {
	case *core.TextBody:
		return b.Content
	case *core.LocationBody:
		return strings.TrimSpace(b.Address + " " + b.BuildingName)
	case *core.FileBody:
		return b.DisplayName
	case *core.ImageBody:
		return b.DisplayName
	case *core.VideoBody:
		return b.DisplayName
	case *core.VoiceBody:
		return b.DisplayName
	case *core.CmdBody:
		return b.Action
	case *core.CustomBody:
		return b.Event
	case *core.CombineBody:
		return strings.TrimSpace(b.Title + " " + b.Summary)
	}
	return ""
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
