// Package proto defines the JSON frames exchanged with bridge clients.
package proto

import "encoding/json"

const (
	ProtocolVersion = 1

	InboundTypeRequest = "request"

	OutboundTypeReply = "reply"
	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// Inbound is the envelope for frames coming from the client.
type Inbound struct {
	Type   string                     `json:"type"`
	ID     string                     `json:"id"`
	Method string                     `json:"method"`
	Params map[string]json.RawMessage `json:"params,omitempty"`
}

// Outbound is the envelope for frames sent to the client. Replies echo
// the request id; events carry the event name instead.
type Outbound struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Error describes a failed request.
type Error struct {
	Kind    string `json:"kind"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Event names.
const (
	EventMessagesReceived      = "onMessagesReceived"
	EventCmdMessagesReceived   = "onCmdMessagesReceived"
	EventMessagesRead          = "onMessagesRead"
	EventMessageReadAck        = "onMessageReadAck"
	EventMessagesDelivered     = "onMessagesDelivered"
	EventMessageDeliveryAck    = "onMessageDeliveryAck"
	EventMessagesRecalled      = "onMessagesRecalled"
	EventGroupMessageRead      = "onGroupMessageRead"
	EventGroupAckUpdated       = "onReadAckForGroupMessageUpdated"
	EventReactionChanged       = "onMessageReactionDidChange"
	EventMessageContentChanged = "onMessageContentChanged"
	EventMessagePinChanged     = "onMessagePinChanged"
	EventConversationUpdate    = "onConversationUpdate"
	EventConversationRead      = "onConversationHasRead"
	EventOperationProgress     = "onMessageProgressUpdate"
	EventOperationSuccess      = "onMessageSuccess"
	EventOperationError        = "onMessageError"
)

// OperationProgress is the payload of EventOperationProgress.
type OperationProgress struct {
	LocalID  string `json:"localId"`
	Progress int    `json:"progress"`
}

// OperationResult is the payload of EventOperationSuccess and EventOperationError.
type OperationResult struct {
	LocalID string `json:"localId"`
	Message any    `json:"message,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// ContentChanged is the payload of EventMessageContentChanged.
type ContentChanged struct {
	Message       any    `json:"message"`
	Operator      string `json:"operator"`
	OperationTime int64  `json:"operationTime"`
}

// PinChanged is the payload of EventMessagePinChanged.
type PinChanged struct {
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
	PinOperation   int    `json:"pinOperation"`
	Pin            any    `json:"pinInfo,omitempty"`
}

// ConversationRead is the payload of EventConversationRead.
type ConversationRead struct {
	From string `json:"from"`
	To   string `json:"to"`
}
