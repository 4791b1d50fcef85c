package engine

import (
	"context"

	"github.com/vovakirdan/wirechat-bridge/internal/core"
)

// StatusCallback receives the lifecycle of one asynchronous engine call:
// zero or more OnProgress calls followed by exactly one of OnSuccess or
// OnError. Callbacks may run on any goroutine.
type StatusCallback interface {
	OnProgress(progress int)
	OnSuccess()
	OnError(err *Error)
}

// ConversationPage is a server-fetched set of conversations keyed by id.
// The engine may keep mutating it while callers read it; Version changes
// whenever the set is structurally modified.
type ConversationPage interface {
	// Snapshot copies the current contents together with the version they belong to.
	Snapshot() ([]*core.Conversation, uint64)
	// Version returns the current modification counter.
	Version() uint64
}

// Session exposes the logged-in user, if any.
type Session interface {
	// CurrentUser returns the logged-in user id, or "" without a session.
	CurrentUser() string
}

// MessageEngine covers message send, download and query operations.
type MessageEngine interface {
	// SendMessage sends msg asynchronously and reports through cb. The engine
	// assigns msg.ID and updates msg.Status before calling OnSuccess.
	SendMessage(ctx context.Context, msg *core.Message, cb StatusCallback)
	// DownloadAttachment fetches the full attachment of msg asynchronously.
	DownloadAttachment(ctx context.Context, msg *core.Message, cb StatusCallback)
	// DownloadThumbnail fetches the thumbnail of msg asynchronously.
	DownloadThumbnail(ctx context.Context, msg *core.Message, cb StatusCallback)

	// GetMessage looks a message up by canonical or local id. It returns nil, nil when absent.
	GetMessage(ctx context.Context, id string) (*core.Message, error)
	UpdateMessage(ctx context.Context, msg *core.Message) error
	ImportMessages(ctx context.Context, msgs []*core.Message) error
	RecallMessage(ctx context.Context, msg *core.Message) error
	ModifyMessage(ctx context.Context, msgID string, body *core.TextBody) (*core.Message, error)

	AckMessageRead(ctx context.Context, to, msgID string) error
	AckGroupMessageRead(ctx context.Context, groupID, msgID, content string) error
	AckConversationRead(ctx context.Context, conversationID string) error
	FetchGroupReadAcks(ctx context.Context, msgID, startAckID string, pageSize int) (*core.CursorResult[*core.GroupReadAck], error)

	SearchMessages(ctx context.Context, q core.SearchQuery) ([]*core.Message, error)
	FetchHistoryMessages(ctx context.Context, q core.HistoryQuery) (*core.CursorResult[*core.Message], error)
	DeleteMessagesBefore(ctx context.Context, timestamp int64) error
	RemoveMessagesFromServer(ctx context.Context, conversationID string, t core.ConversationType, msgIDs []string) error
	RemoveMessagesFromServerBefore(ctx context.Context, conversationID string, t core.ConversationType, timestamp int64) error

	TranslateMessage(ctx context.Context, msg *core.Message, languages []string) (*core.Message, error)
	FetchSupportedLanguages(ctx context.Context) ([]*core.Language, error)
	DownloadAndParseCombineMessage(ctx context.Context, msg *core.Message) ([]*core.Message, error)
	ReportMessage(ctx context.Context, msgID, tag, reason string) error
}

// ReactionEngine covers message reactions.
type ReactionEngine interface {
	AddReaction(ctx context.Context, msgID, reaction string) error
	RemoveReaction(ctx context.Context, msgID, reaction string) error
	FetchReactionList(ctx context.Context, msgIDs []string, chatType core.ChatType, groupID string) (map[string][]*core.Reaction, error)
	FetchReactionDetail(ctx context.Context, msgID, reaction, cursor string, pageSize int) (*core.CursorResult[*core.Reaction], error)
}

// PinEngine covers pinned messages.
type PinEngine interface {
	PinMessage(ctx context.Context, msgID string) error
	UnpinMessage(ctx context.Context, msgID string) error
	FetchPinnedMessages(ctx context.Context, conversationID string) ([]*core.Message, error)
}

// ConversationEngine covers local and server conversation state.
type ConversationEngine interface {
	Session

	// GetConversation returns nil, nil when the conversation is absent and createIfAbsent is false.
	GetConversation(ctx context.Context, id string, t core.ConversationType, createIfAbsent, isThread bool) (*core.Conversation, error)
	// AllConversations returns the locally cached conversations, already sorted.
	AllConversations(ctx context.Context) ([]*core.Conversation, error)
	MarkAllConversationsAsRead(ctx context.Context) error
	UnreadMessageCount(ctx context.Context) (int, error)
	DeleteConversation(ctx context.Context, id string, deleteMessages bool) (bool, error)
	DeleteRemoteConversation(ctx context.Context, id string, t core.ConversationType, deleteMessages bool) error
	DeleteAllMessagesAndConversations(ctx context.Context, clearServerData bool) error
	PinConversation(ctx context.Context, id string, pinned bool) error
	AddConversationMark(ctx context.Context, ids []string, mark core.Mark) error
	RemoveConversationMark(ctx context.Context, ids []string, mark core.Mark) error

	// FetchConversations fetches every conversation from the server.
	FetchConversations(ctx context.Context) (ConversationPage, error)
	FetchConversationsByPage(ctx context.Context, pageNum, pageSize int) (ConversationPage, error)
	FetchConversationsByCursor(ctx context.Context, cursor string, pageSize int) (*core.CursorResult[*core.Conversation], error)
	FetchPinnedConversations(ctx context.Context, cursor string, pageSize int) (*core.CursorResult[*core.Conversation], error)
	FetchConversationsByFilter(ctx context.Context, cursor string, filter core.ConversationFilter) (*core.CursorResult[*core.Conversation], error)
}

// ListenerRegistry manages push listeners.
type ListenerRegistry interface {
	AddMessageListener(l MessageListener)
	RemoveMessageListener(l MessageListener)
	AddConversationListener(l ConversationListener)
	RemoveConversationListener(l ConversationListener)
}

// Engine is the messaging engine the bridge drives.
type Engine interface {
	Session
	MessageEngine
	ReactionEngine
	PinEngine
	ConversationEngine
	ListenerRegistry
}
