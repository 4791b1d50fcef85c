package local

import (
	"context"

	"github.com/vovakirdan/wirechat-bridge/internal/core"
	"github.com/vovakirdan/wirechat-bridge/internal/engine"
)

// Deliver injects messages from peers as if they had arrived from the
// server. Command messages are handed to listeners without being stored.
func (e *Engine) Deliver(ctx context.Context, msgs []*core.Message) error {
	user, err := e.session()
	if err != nil {
		return err
	}

	var regular, cmds []*core.Message
	for _, m := range msgs {
		in := m.Clone()
		if in.ID == "" {
			in.ID = e.newID()
		}
		if in.To == "" {
			in.To = user
		}
		if in.ServerTime == 0 {
			in.ServerTime = e.nowMillis()
		}
		if in.Status == "" {
			in.Status = core.StatusSent
		}
		in.Direction = core.DirectionReceive
		if in.ConversationID == "" {
			in.ConversationID, _ = conversationOf(in, user)
		}

		if in.Type == core.MessageCommand {
			cmds = append(cmds, in)
			continue
		}
		in.Unread = true
		if err := e.store.SaveMessage(ctx, user, in); err != nil {
			return storeError(err, engine.ErrCodeGeneral)
		}
		if err := e.touchConversation(ctx, user, in, 1); err != nil {
			return err
		}
		regular = append(regular, in)
	}

	if len(regular) > 0 {
		e.notifyMessages(func(l engine.MessageListener) { l.OnMessagesReceived(core.CloneMessages(regular)) })
		e.notifyConversationUpdate()
	}
	if len(cmds) > 0 {
		e.notifyMessages(func(l engine.MessageListener) { l.OnCmdMessagesReceived(cmds) })
	}
	return nil
}

// MarkDelivered records that peers received messages the session user sent.
func (e *Engine) MarkDelivered(ctx context.Context, msgIDs []string) error {
	return e.peerAck(ctx, msgIDs, false)
}

// MarkRead records that peers read messages the session user sent.
func (e *Engine) MarkRead(ctx context.Context, msgIDs []string) error {
	return e.peerAck(ctx, msgIDs, true)
}

func (e *Engine) peerAck(ctx context.Context, msgIDs []string, read bool) error {
	user, err := e.session()
	if err != nil {
		return err
	}
	acked := make([]*core.Message, 0, len(msgIDs))
	for _, id := range msgIDs {
		msg, err := e.requireMessage(ctx, user, id)
		if err != nil {
			return err
		}
		msg.HasDeliverAck = true
		msg.Status = core.StatusDelivered
		if read {
			msg.HasReadAck = true
			msg.Status = core.StatusRead
		}
		if err := e.store.SaveMessage(ctx, user, msg); err != nil {
			return storeError(err, engine.ErrCodeGeneral)
		}
		acked = append(acked, msg)
	}
	if len(acked) == 0 {
		return nil
	}
	e.notifyMessages(func(l engine.MessageListener) {
		if read {
			l.OnMessagesRead(core.CloneMessages(acked))
		} else {
			l.OnMessagesDelivered(core.CloneMessages(acked))
		}
	})
	return nil
}
