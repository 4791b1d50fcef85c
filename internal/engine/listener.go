package engine

import "github.com/vovakirdan/wirechat-bridge/internal/core"

// MessageListener receives message push notifications from the engine.
type MessageListener interface {
	OnMessagesReceived(msgs []*core.Message)
	OnCmdMessagesReceived(msgs []*core.Message)
	OnMessagesRead(msgs []*core.Message)
	OnMessagesDelivered(msgs []*core.Message)
	OnMessagesRecalled(msgs []*core.Message)
	OnGroupMessageRead(acks []*core.GroupReadAck)
	OnReadAckForGroupMessageUpdated()
	OnReactionChanged(changes []*core.ReactionChange)
	OnMessageContentChanged(msg *core.Message, operatorID string, operationTime int64)
	OnMessagePinChanged(messageID, conversationID string, op core.PinOperation, info *core.PinInfo)
}

// ConversationListener receives conversation push notifications from the engine.
type ConversationListener interface {
	OnConversationUpdate()
	OnConversationRead(from, to string)
}
