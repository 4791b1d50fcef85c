package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventMessagesReceived delivers new inbound messages.
	EventMessagesReceived EventKind = iota
	// EventCmdMessagesReceived delivers new inbound command messages.
	EventCmdMessagesReceived
	// EventMessagesDelivered reports a batch of delivery acks.
	EventMessagesDelivered
	// EventMessageDeliveryAck reports the delivery ack of one message.
	EventMessageDeliveryAck
	// EventMessagesRead reports a batch of read acks.
	EventMessagesRead
	// EventMessageReadAck reports the read ack of one message.
	EventMessageReadAck
	// EventMessagesRecalled reports messages recalled by their senders.
	EventMessagesRecalled
	// EventGroupMessageRead reports group read acks.
	EventGroupMessageRead
	// EventGroupAckUpdated tells clients the group ack index changed. No payload.
	EventGroupAckUpdated
	// EventReactionChanged reports reaction changes.
	EventReactionChanged
	// EventMessageContentChanged reports an edited message.
	EventMessageContentChanged
	// EventMessagePinChanged reports a pin or unpin of a message.
	EventMessagePinChanged
	// EventConversationUpdate tells clients the conversation list changed. No payload.
	EventConversationUpdate
	// EventConversationRead reports that a peer read a whole conversation.
	EventConversationRead

	// EventOperationProgress reports progress of an in-flight operation.
	EventOperationProgress
	// EventOperationSuccess is the success terminal of an operation.
	EventOperationSuccess
	// EventOperationError is the failure terminal of an operation.
	EventOperationError
)

var eventKindNames = [...]string{
	EventMessagesReceived:      "messages_received",
	EventCmdMessagesReceived:   "cmd_messages_received",
	EventMessagesDelivered:     "messages_delivered",
	EventMessageDeliveryAck:    "message_delivery_ack",
	EventMessagesRead:          "messages_read",
	EventMessageReadAck:        "message_read_ack",
	EventMessagesRecalled:      "messages_recalled",
	EventGroupMessageRead:      "group_message_read",
	EventGroupAckUpdated:       "group_ack_updated",
	EventReactionChanged:       "reaction_changed",
	EventMessageContentChanged: "message_content_changed",
	EventMessagePinChanged:     "message_pin_changed",
	EventConversationUpdate:    "conversation_update",
	EventConversationRead:      "conversation_read",
	EventOperationProgress:     "operation_progress",
	EventOperationSuccess:      "operation_success",
	EventOperationError:        "operation_error",
}

func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "unknown"
}

// IsOperation reports whether the kind belongs to an operation lifecycle.
func (k EventKind) IsOperation() bool {
	return k == EventOperationProgress || k == EventOperationSuccess || k == EventOperationError
}

// IsTerminal reports whether the kind ends an operation lifecycle. Terminal
// events are never dropped for a slow client; the client is evicted instead.
func (k EventKind) IsTerminal() bool {
	return k == EventOperationSuccess || k == EventOperationError
}

// Event is sent to clients to describe what happened in the system.
// Only the fields relevant to Kind are set.
type Event struct {
	Kind EventKind

	// Operation lifecycle.
	LocalID  string
	Progress int
	Error    *CoreError

	Message  *Message
	Messages []*Message

	GroupAcks       []*GroupReadAck
	ReactionChanges []*ReactionChange

	// Content changes.
	Operator      string
	OperationTime int64

	// Pin changes.
	MessageID      string
	ConversationID string
	PinOperation   PinOperation
	Pin            *PinInfo

	// Conversation read.
	From string
	To   string
}
