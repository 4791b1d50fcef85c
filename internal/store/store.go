package store

import (
	"context"
	"errors"
	"time"

	"github.com/vovakirdan/wirechat-bridge/internal/core"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

// User represents an account that can open an engine session.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// MessageQuery selects messages of one owner. Zero values leave a filter open.
type MessageQuery struct {
	ConversationID string
	From           string
	Types          []core.MessageType

	// Keywords matches message content, attributes or both depending on Scope.
	Keywords string
	Scope    core.SearchScope

	// Anchor is a message id or local id; results start strictly after it
	// in the chosen direction.
	Anchor string
	// Since and Until bound the message timestamp, inclusive. Zero is open.
	Since int64
	Until int64

	PinnedOnly bool
	// Ascending returns the oldest messages first.
	Ascending bool
	Limit     int
}

// ReactionEntry is one user's reaction to a message.
type ReactionEntry struct {
	MessageID string
	Reaction  string
	UserID    string
	CreatedAt int64
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// MessageStore handles message persistence. Every message belongs to the
// account (owner) whose session stored it.
type MessageStore interface {
	// SaveMessage inserts or replaces a message, keyed by its local id
	// (or its id when it has no local id).
	SaveMessage(ctx context.Context, owner string, msg *core.Message) error

	// GetMessage finds a message by id or local id.
	GetMessage(ctx context.Context, owner, id string) (*core.Message, error)

	// DeleteMessage removes a message by id or local id.
	DeleteMessage(ctx context.Context, owner, id string) error

	// ListMessages returns messages matching q, ordered by time.
	ListMessages(ctx context.Context, owner string, q MessageQuery) ([]*core.Message, error)

	// DeleteMessagesBefore removes every message older than ts.
	DeleteMessagesBefore(ctx context.Context, owner string, ts int64) error

	// DeleteConversationMessages removes all messages of a conversation.
	DeleteConversationMessages(ctx context.Context, owner, conversationID string) error

	// DeleteAllMessages removes every message of the owner.
	DeleteAllMessages(ctx context.Context, owner string) error
}

// ConversationStore handles conversation persistence.
type ConversationStore interface {
	// SaveConversation inserts or replaces a conversation.
	SaveConversation(ctx context.Context, owner string, conv *core.Conversation) error

	// GetConversation retrieves a conversation by id.
	GetConversation(ctx context.Context, owner, id string) (*core.Conversation, error)

	// ListConversations lists every conversation of the owner, most recently
	// active first.
	ListConversations(ctx context.Context, owner string) ([]*core.Conversation, error)

	// DeleteConversation removes a conversation and reports whether it existed.
	DeleteConversation(ctx context.Context, owner, id string) (bool, error)

	// DeleteAllConversations removes every conversation of the owner.
	DeleteAllConversations(ctx context.Context, owner string) error
}

// ReactionStore handles message reactions.
type ReactionStore interface {
	// AddReaction records a reaction; adding the same one twice is a no-op.
	AddReaction(ctx context.Context, e *ReactionEntry) error

	// RemoveReaction deletes a reaction and reports whether it existed.
	RemoveReaction(ctx context.Context, msgID, reaction, userID string) (bool, error)

	// ListReactions returns the reactions of the given messages, oldest first.
	ListReactions(ctx context.Context, msgIDs []string) ([]*ReactionEntry, error)
}

// GroupAckStore handles group read acknowledgements.
type GroupAckStore interface {
	// SaveGroupAck records an acknowledgement.
	SaveGroupAck(ctx context.Context, ack *core.GroupReadAck) error

	// ListGroupAcks returns up to limit acks of a message after afterAckID
	// (from the start when empty), oldest first.
	ListGroupAcks(ctx context.Context, msgID, afterAckID string, limit int) ([]*core.GroupReadAck, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore
	ConversationStore
	ReactionStore
	GroupAckStore

	// Close closes the underlying database connection.
	Close() error
}
