package core

// ConversationType mirrors ChatType for conversations.
type ConversationType int

const (
	ConversationChat ConversationType = iota
	ConversationGroup
	ConversationRoom
)

// Valid reports whether t is a known conversation type.
func (t ConversationType) Valid() bool {
	return t >= ConversationChat && t <= ConversationRoom
}

// Mark is a user-defined label attached to conversations.
type Mark int

// MaxMark is the highest mark value accepted.
const MaxMark Mark = 19

// Conversation is a chat with a peer, group or room.
// A nil LastMessage means nothing was ever received in it.
type Conversation struct {
	ID          string           `json:"convId"`
	Type        ConversationType `json:"type"`
	LastMessage *Message         `json:"latestMessage,omitempty"`
	UnreadCount int              `json:"unreadCount"`
	Pinned      bool             `json:"isPinned"`
	PinnedTime  int64            `json:"pinnedTime"`
	Marks       []Mark           `json:"marks,omitempty"`
	IsThread    bool             `json:"isThread"`
	Ext         string           `json:"ext,omitempty"`
}

// LastActivity returns the ordering key and whether one exists.
func (c *Conversation) LastActivity() (int64, bool) {
	if c.LastMessage == nil {
		return 0, false
	}
	return c.LastMessage.ServerTime, true
}

// HasMark reports whether the conversation carries the mark.
func (c *Conversation) HasMark(mark Mark) bool {
	for _, m := range c.Marks {
		if m == mark {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the conversation.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	cp := *c
	cp.LastMessage = c.LastMessage.Clone()
	if c.Marks != nil {
		cp.Marks = append([]Mark(nil), c.Marks...)
	}
	return &cp
}

// CursorResult is one page of a cursor-paginated listing. An empty Cursor
// means there are no further pages.
type CursorResult[T any] struct {
	Cursor string `json:"cursor"`
	Data   []T    `json:"list"`
}
