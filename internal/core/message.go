package core

// MessageType selects the body variant carried by a message.
type MessageType string

const (
	MessageText     MessageType = "txt"
	MessageImage    MessageType = "img"
	MessageVoice    MessageType = "voice"
	MessageVideo    MessageType = "video"
	MessageFile     MessageType = "file"
	MessageLocation MessageType = "loc"
	MessageCommand  MessageType = "cmd"
	MessageCustom   MessageType = "custom"
	MessageCombine  MessageType = "combine"
)

// HasAttachment reports whether messages of this type carry a downloadable file.
func (t MessageType) HasAttachment() bool {
	switch t {
	case MessageImage, MessageVoice, MessageVideo, MessageFile:
		return true
	default:
		return false
	}
}

// MessageStatus is the delivery state of a message.
// It moves created -> sending -> sent -> delivered/read, or ends in failed.
type MessageStatus string

const (
	StatusCreated   MessageStatus = "created"
	StatusSending   MessageStatus = "sending"
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
	StatusFailed    MessageStatus = "failed"
)

// ChatType tells whether a message targets a single user, a group or a chat room.
type ChatType int

const (
	ChatSingle ChatType = iota
	ChatGroup
	ChatRoom
)

// Direction marks messages as outgoing or incoming relative to the session user.
type Direction string

const (
	DirectionSend    Direction = "send"
	DirectionReceive Direction = "rec"
)

// Message is the domain model for a chat message.
//
// LocalID is chosen by the caller and never changes. ID is assigned by the
// engine at most once, when the message is sent.
type Message struct {
	ID             string
	LocalID        string
	ConversationID string
	From           string
	To             string
	ChatType       ChatType
	Direction      Direction
	Type           MessageType
	Status         MessageStatus
	Body           Body
	Attributes     map[string]Attribute

	Unread        bool
	Listened      bool
	IsThread      bool
	NeedGroupAck  bool
	HasReadAck    bool
	HasDeliverAck bool
	GroupAckCount int
	ReceiverList  []string

	// Milliseconds since the Unix epoch.
	LocalTime  int64
	ServerTime int64

	Pin *PinInfo
}

// Key returns the identifier used to correlate the message: the canonical id
// once assigned, the local id before that.
func (m *Message) Key() string {
	if m.ID != "" {
		return m.ID
	}
	return m.LocalID
}

// Clone returns a deep copy of the message.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	cp := *m
	if m.Body != nil {
		cp.Body = m.Body.Clone()
	}
	if m.Attributes != nil {
		cp.Attributes = make(map[string]Attribute, len(m.Attributes))
		for k, v := range m.Attributes {
			cp.Attributes[k] = v
		}
	}
	if m.ReceiverList != nil {
		cp.ReceiverList = append([]string(nil), m.ReceiverList...)
	}
	if m.Pin != nil {
		pin := *m.Pin
		cp.Pin = &pin
	}
	return &cp
}

// CloneMessages deep-copies a slice of messages.
func CloneMessages(msgs []*Message) []*Message {
	if msgs == nil {
		return nil
	}
	out := make([]*Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}
