package core

// GroupReadAck records that a group member read a message.
type GroupReadAck struct {
	AckID     string `json:"ackId"`
	MsgID     string `json:"msgId"`
	From      string `json:"from"`
	Content   string `json:"content,omitempty"`
	Count     int    `json:"count"`
	Timestamp int64  `json:"timestamp"`
}

// Reaction is an aggregated emoji reaction on one message.
type Reaction struct {
	Reaction      string   `json:"reaction"`
	Count         int      `json:"count"`
	IsAddedBySelf bool     `json:"isAddedBySelf"`
	UserList      []string `json:"userList"`
}

// ReactionChange reports the reactions of a message after a change.
type ReactionChange struct {
	ConversationID string      `json:"conversationId"`
	MessageID      string      `json:"messageId"`
	Reactions      []*Reaction `json:"reactions"`
}

// PinOperation tells whether a message was pinned or unpinned.
type PinOperation int

const (
	PinOperationPin PinOperation = iota
	PinOperationUnpin
)

// PinInfo describes who pinned a message and when.
type PinInfo struct {
	PinTime    int64  `json:"pinTime"`
	OperatorID string `json:"operatorId"`
}

// Language is a translation target supported by the engine.
type Language struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"nativeName"`
}

// SearchDirection orders message queries relative to a starting point.
type SearchDirection string

const (
	SearchUp   SearchDirection = "up"
	SearchDown SearchDirection = "down"
)

// ParseSearchDirection maps anything other than "up" to SearchDown.
func ParseSearchDirection(s string) SearchDirection {
	if s == string(SearchUp) {
		return SearchUp
	}
	return SearchDown
}

// SearchScope selects the message fields a keyword search matches against.
type SearchScope int

const (
	SearchScopeContent SearchScope = iota
	SearchScopeAttributes
	SearchScopeAll
)

// SearchQuery selects messages stored locally.
type SearchQuery struct {
	Keywords  string
	Timestamp int64
	MaxCount  int
	From      string
	Direction SearchDirection
	Scope     SearchScope
}

// HistoryQuery selects one page of a conversation's history.
type HistoryQuery struct {
	ConversationID string
	Type           ConversationType
	PageSize       int
	Cursor         string
	Direction      SearchDirection
	From           string
	MessageTypes   []MessageType
	StartTime      int64
	EndTime        int64
}

// ConversationFilter narrows a server-side conversation listing.
type ConversationFilter struct {
	PageSize int
	Mark     Mark
}
