package listener

import (
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-bridge/internal/core"
	"github.com/vovakirdan/wirechat-bridge/internal/engine"
)

type messageListener struct {
	pub core.Publisher
	log *zerolog.Logger
}

var _ engine.MessageListener = (*messageListener)(nil)

func (l *messageListener) OnMessagesReceived(msgs []*core.Message) {
	l.pub.Publish(&core.Event{Kind: core.EventMessagesReceived, Messages: core.CloneMessages(msgs)})
}

func (l *messageListener) OnCmdMessagesReceived(msgs []*core.Message) {
	l.pub.Publish(&core.Event{Kind: core.EventCmdMessagesReceived, Messages: core.CloneMessages(msgs)})
}

// OnMessagesRead emits one read ack per message, then the batch.
func (l *messageListener) OnMessagesRead(msgs []*core.Message) {
	batch := core.CloneMessages(msgs)
	for _, m := range batch {
		l.pub.Publish(&core.Event{Kind: core.EventMessageReadAck, Message: m})
	}
	l.pub.Publish(&core.Event{Kind: core.EventMessagesRead, Messages: batch})
}

// OnMessagesDelivered emits one delivery ack per message, then the batch.
func (l *messageListener) OnMessagesDelivered(msgs []*core.Message) {
	batch := core.CloneMessages(msgs)
	for _, m := range batch {
		l.pub.Publish(&core.Event{Kind: core.EventMessageDeliveryAck, Message: m})
	}
	l.pub.Publish(&core.Event{Kind: core.EventMessagesDelivered, Messages: batch})
}

func (l *messageListener) OnMessagesRecalled(msgs []*core.Message) {
	l.pub.Publish(&core.Event{Kind: core.EventMessagesRecalled, Messages: core.CloneMessages(msgs)})
}

func (l *messageListener) OnGroupMessageRead(acks []*core.GroupReadAck) {
	l.pub.Publish(&core.Event{Kind: core.EventGroupMessageRead, GroupAcks: acks})
}

func (l *messageListener) OnReadAckForGroupMessageUpdated() {
	l.pub.Publish(&core.Event{Kind: core.EventGroupAckUpdated})
}

func (l *messageListener) OnReactionChanged(changes []*core.ReactionChange) {
	l.pub.Publish(&core.Event{Kind: core.EventReactionChanged, ReactionChanges: changes})
}

func (l *messageListener) OnMessageContentChanged(msg *core.Message, operatorID string, operationTime int64) {
	l.pub.Publish(&core.Event{
		Kind:          core.EventMessageContentChanged,
		Message:       msg.Clone(),
		Operator:      operatorID,
		OperationTime: operationTime,
	})
}

func (l *messageListener) OnMessagePinChanged(messageID, conversationID string, op core.PinOperation, info *core.PinInfo) {
	l.log.Debug().Str("msg_id", messageID).Str("conversation_id", conversationID).Int("op", int(op)).Msg("pin changed")
	l.pub.Publish(&core.Event{
		Kind:           core.EventMessagePinChanged,
		MessageID:      messageID,
		ConversationID: conversationID,
		PinOperation:   op,
		Pin:            info,
	})
}

type conversationListener struct {
	pub core.Publisher
}

var _ engine.ConversationListener = (*conversationListener)(nil)

func (l *conversationListener) OnConversationUpdate() {
	l.pub.Publish(&core.Event{Kind: core.EventConversationUpdate})
}

func (l *conversationListener) OnConversationRead(from, to string) {
	l.pub.Publish(&core.Event{Kind: core.EventConversationRead, From: from, To: to})
}
