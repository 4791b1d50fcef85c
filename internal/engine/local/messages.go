package local

import (
	"context"
	"errors"

	"github.com/vovakirdan/wirechat-bridge/internal/core"
	"github.com/vovakirdan/wirechat-bridge/internal/engine"
	"github.com/vovakirdan/wirechat-bridge/internal/store"
)

// GetMessage returns nil, nil when no message has the id.
func (e *Engine) GetMessage(ctx context.Context, id string) (*core.Message, error) {
	user, err := e.session()
	if err != nil {
		return nil, err
	}
	return e.loadMessage(ctx, user, id)
}

func (e *Engine) loadMessage(ctx context.Context, user, id string) (*core.Message, error) {
	msg, err := e.store.GetMessage(ctx, user, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err, engine.ErrCodeMessageNotFound)
	}
	return msg, nil
}

func (e *Engine) requireMessage(ctx context.Context, user, id string) (*core.Message, error) {
	msg, err := e.loadMessage(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, engine.NewError(engine.ErrCodeMessageNotFound, "message "+id+" not found")
	}
	return msg, nil
}

func (e *Engine) UpdateMessage(ctx context.Context, msg *core.Message) error {
	user, err := e.session()
	if err != nil {
		return err
	}
	if _, err := e.requireMessage(ctx, user, msg.Key()); err != nil {
		return err
	}
	if err := e.store.SaveMessage(ctx, user, msg); err != nil {
		return storeError(err, engine.ErrCodeGeneral)
	}
	return nil
}

// ImportMessages stores messages as they are, without sending them.
func (e *Engine) ImportMessages(ctx context.Context, msgs []*core.Message) error {
	user, err := e.session()
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		if msg.Key() == "" {
			return engine.NewError(engine.ErrCodeMessageInvalid, "imported message has no id")
		}
		if msg.ConversationID == "" {
			msg.ConversationID, _ = conversationOf(msg, user)
		}
		if err := e.store.SaveMessage(ctx, user, msg); err != nil {
			return storeError(err, engine.ErrCodeGeneral)
		}
		if err := e.touchConversation(ctx, user, msg, 0); err != nil {
			return err
		}
	}
	e.notifyConversationUpdate()
	return nil
}

// RecallMessage withdraws a message the session user sent.
func (e *Engine) RecallMessage(ctx context.Context, msg *core.Message) error {
	user, err := e.session()
	if err != nil {
		return err
	}
	if msg.From != user {
		return engine.NewError(engine.ErrCodeMessageInvalid, "only the sender can recall a message")
	}
	if err := e.store.DeleteMessage(ctx, user, msg.Key()); err != nil {
		return storeError(err, engine.ErrCodeMessageNotFound)
	}
	if err := e.refreshConversation(ctx, user, msg.ConversationID); err != nil {
		return err
	}
	if msg.ChatType == core.ChatSingle && msg.To == user {
		recalled := []*core.Message{msg.Clone()}
		e.notifyMessages(func(l engine.MessageListener) { l.OnMessagesRecalled(recalled) })
	}
	e.notifyConversationUpdate()
	return nil
}

// ModifyMessage replaces the content of a text message.
func (e *Engine) ModifyMessage(ctx context.Context, msgID string, body *core.TextBody) (*core.Message, error) {
	user, err := e.session()
	if err != nil {
		return nil, err
	}
	msg, err := e.requireMessage(ctx, user, msgID)
	if err != nil {
		return nil, err
	}
	text, ok := msg.Body.(*core.TextBody)
	if !ok || body == nil {
		return nil, engine.NewError(engine.ErrCodeMessageInvalid, "only text messages can be modified")
	}
	text.Content = body.Content
	text.Translations = nil
	if err := e.store.SaveMessage(ctx, user, msg); err != nil {
		return nil, storeError(err, engine.ErrCodeGeneral)
	}

	changed := msg.Clone()
	at := e.nowMillis()
	e.notifyMessages(func(l engine.MessageListener) { l.OnMessageContentChanged(changed, user, at) })
	return msg, nil
}

func (e *Engine) AckMessageRead(ctx context.Context, to, msgID string) error {
	user, err := e.session()
	if err != nil {
		return err
	}
	msg, err := e.requireMessage(ctx, user, msgID)
	if err != nil {
		return err
	}
	wasUnread := msg.Unread
	msg.Unread = false
	msg.HasReadAck = true
	if err := e.store.SaveMessage(ctx, user, msg); err != nil {
		return storeError(err, engine.ErrCodeGeneral)
	}
	if wasUnread {
		if err := e.adjustUnread(ctx, user, msg.ConversationID, -1); err != nil {
			return err
		}
	}
	if to == user {
		read := []*core.Message{msg.Clone()}
		e.notifyMessages(func(l engine.MessageListener) { l.OnMessagesRead(read) })
	}
	return nil
}

func (e *Engine) adjustUnread(ctx context.Context, user, convID string, delta int) error {
	conv, err := e.loadConversation(ctx, user, convID)
	if err != nil || conv == nil {
		return err
	}
	conv.UnreadCount = max(conv.UnreadCount+delta, 0)
	return e.saveConversation(ctx, user, conv)
}

func (e *Engine) AckGroupMessageRead(ctx context.Context, groupID, msgID, content string) error {
	user, err := e.session()
	if err != nil {
		return err
	}
	msg, err := e.requireMessage(ctx, user, msgID)
	if err != nil {
		return err
	}
	if msg.ChatType != core.ChatGroup || msg.To != groupID {
		return engine.NewError(engine.ErrCodeMessageInvalid, "message does not belong to group "+groupID)
	}

	msg.GroupAckCount++
	ack := &core.GroupReadAck{
		AckID:     e.newID(),
		MsgID:     msg.Key(),
		From:      user,
		Content:   content,
		Count:     msg.GroupAckCount,
		Timestamp: e.nowMillis(),
	}
	if err := e.store.SaveGroupAck(ctx, ack); err != nil {
		return storeError(err, engine.ErrCodeGeneral)
	}
	if err := e.store.SaveMessage(ctx, user, msg); err != nil {
		return storeError(err, engine.ErrCodeGeneral)
	}

	acks := []*core.GroupReadAck{ack}
	e.notifyMessages(func(l engine.MessageListener) {
		l.OnGroupMessageRead(acks)
		l.OnReadAckForGroupMessageUpdated()
	})
	return nil
}

func (e *Engine) AckConversationRead(ctx context.Context, conversationID string) error {
	user, err := e.session()
	if err != nil {
		return err
	}
	conv, err := e.requireConversation(ctx, user, conversationID)
	if err != nil {
		return err
	}
	if err := e.markConversationRead(ctx, user, conv); err != nil {
		return err
	}
	if conversationID == user {
		for _, l := range e.conversationListeners() {
			l.OnConversationRead(user, conversationID)
		}
	}
	e.notifyConversationUpdate()
	return nil
}

// FetchGroupReadAcks pages through the read acks of a group message.
func (e *Engine) FetchGroupReadAcks(ctx context.Context, msgID, startAckID string, pageSize int) (*core.CursorResult[*core.GroupReadAck], error) {
	user, err := e.session()
	if err != nil {
		return nil, err
	}
	if _, err := e.requireMessage(ctx, user, msgID); err != nil {
		return nil, err
	}
	acks, err := e.store.ListGroupAcks(ctx, msgID, startAckID, pageSize)
	if err != nil {
		return nil, storeError(err, engine.ErrCodeGeneral)
	}
	res := &core.CursorResult[*core.GroupReadAck]{Data: acks}
	if pageSize > 0 && len(acks) == pageSize {
		res.Cursor = acks[len(acks)-1].AckID
	}
	return res, nil
}

func (e *Engine) SearchMessages(ctx context.Context, q core.SearchQuery) ([]*core.Message, error) {
	user, err := e.session()
	if err != nil {
		return nil, err
	}
	sq := store.MessageQuery{
		From:     q.From,
		Keywords: q.Keywords,
		Scope:    q.Scope,
		Limit:    q.MaxCount,
	}
	if q.Direction == core.SearchUp {
		if q.Timestamp > 0 {
			sq.Until = q.Timestamp
		}
	} else {
		sq.Ascending = true
		if q.Timestamp > 0 {
			sq.Since = q.Timestamp
		}
	}
	msgs, err := e.store.ListMessages(ctx, user, sq)
	if err != nil {
		return nil, storeError(err, engine.ErrCodeGeneral)
	}
	return msgs, nil
}

// FetchHistoryMessages pages through a conversation. The cursor is the id
// of the last message of the previous page; up walks towards older messages.
func (e *Engine) FetchHistoryMessages(ctx context.Context, q core.HistoryQuery) (*core.CursorResult[*core.Message], error) {
	user, err := e.session()
	if err != nil {
		return nil, err
	}
	if q.Cursor != "" {
		if _, err := e.requireMessage(ctx, user, q.Cursor); err != nil {
			return nil, err
		}
	}
	msgs, err := e.store.ListMessages(ctx, user, store.MessageQuery{
		ConversationID: q.ConversationID,
		From:           q.From,
		Types:          q.MessageTypes,
		Anchor:         q.Cursor,
		Since:          q.StartTime,
		Until:          q.EndTime,
		Ascending:      q.Direction == core.SearchDown,
		Limit:          q.PageSize,
	})
	if err != nil {
		return nil, storeError(err, engine.ErrCodeGeneral)
	}
	res := &core.CursorResult[*core.Message]{Data: msgs}
	if q.PageSize > 0 && len(msgs) == q.PageSize {
		res.Cursor = msgs[len(msgs)-1].Key()
	}
	return res, nil
}

func (e *Engine) DeleteMessagesBefore(ctx context.Context, timestamp int64) error {
	user, err := e.session()
	if err != nil {
		return err
	}
	if err := e.store.DeleteMessagesBefore(ctx, user, timestamp); err != nil {
		return storeError(err, engine.ErrCodeGeneral)
	}
	return e.refreshAll(ctx, user)
}

func (e *Engine) refreshAll(ctx context.Context, user string) error {
	convs, err := e.store.ListConversations(ctx, user)
	if err != nil {
		return storeError(err, engine.ErrCodeGeneral)
	}
	for _, c := range convs {
		if err := e.refreshConversation(ctx, user, c.ID); err != nil {
			return err
		}
	}
	e.notifyConversationUpdate()
	return nil
}

func (e *Engine) RemoveMessagesFromServer(ctx context.Context, conversationID string, _ core.ConversationType, msgIDs []string) error {
	user, err := e.session()
	if err != nil {
		return err
	}
	for _, id := range msgIDs {
		if err := e.store.DeleteMessage(ctx, user, id); err != nil && !errors.Is(err, store.ErrNotFound) {
			return storeError(err, engine.ErrCodeGeneral)
		}
	}
	if err := e.refreshConversation(ctx, user, conversationID); err != nil {
		return err
	}
	e.notifyConversationUpdate()
	return nil
}

func (e *Engine) RemoveMessagesFromServerBefore(ctx context.Context, conversationID string, _ core.ConversationType, timestamp int64) error {
	user, err := e.session()
	if err != nil {
		return err
	}
	if timestamp <= 0 {
		timestamp = e.nowMillis()
	}
	old, err := e.store.ListMessages(ctx, user, store.MessageQuery{ConversationID: conversationID, Until: timestamp - 1})
	if err != nil {
		return storeError(err, engine.ErrCodeGeneral)
	}
	for _, m := range old {
		if err := e.store.DeleteMessage(ctx, user, m.Key()); err != nil && !errors.Is(err, store.ErrNotFound) {
			return storeError(err, engine.ErrCodeGeneral)
		}
	}
	if err := e.refreshConversation(ctx, user, conversationID); err != nil {
		return err
	}
	e.notifyConversationUpdate()
	return nil
}

// TranslateMessage fills the translations of a text message.
func (e *Engine) TranslateMessage(ctx context.Context, msg *core.Message, languages []string) (*core.Message, error) {
	user, err := e.session()
	if err != nil {
		return nil, err
	}
	if e.translator == nil {
		return nil, engine.NewError(engine.ErrCodeTranslateDisabled, "translation is not enabled")
	}
	text, ok := msg.Body.(*core.TextBody)
	if !ok {
		return nil, engine.NewError(engine.ErrCodeMessageInvalid, "only text messages can be translated")
	}
	if len(languages) == 0 {
		languages = text.TargetLanguages
	}

	translations := make(map[string]string, len(languages))
	for k, v := range text.Translations {
		translations[k] = v
	}
	for _, lang := range languages {
		out, err := e.translator.Translate(ctx, text.Content, lang)
		if err != nil {
			return nil, engine.NewError(engine.ErrCodeTranslateDisabled, err.Error())
		}
		translations[lang] = out
	}
	text.TargetLanguages = languages
	text.Translations = translations

	if existing, _ := e.loadMessage(ctx, user, msg.Key()); existing != nil {
		if err := e.store.SaveMessage(ctx, user, msg); err != nil {
			return nil, storeError(err, engine.ErrCodeGeneral)
		}
	}
	return msg, nil
}

func (e *Engine) FetchSupportedLanguages(ctx context.Context) ([]*core.Language, error) {
	if e.translator == nil {
		return nil, engine.NewError(engine.ErrCodeTranslateDisabled, "translation is not enabled")
	}
	langs, err := e.translator.Languages(ctx)
	if err != nil {
		return nil, engine.AsError(err)
	}
	return langs, nil
}

// DownloadAndParseCombineMessage resolves the messages bundled in a combine message.
func (e *Engine) DownloadAndParseCombineMessage(ctx context.Context, msg *core.Message) ([]*core.Message, error) {
	user, err := e.session()
	if err != nil {
		return nil, err
	}
	body, ok := msg.Body.(*core.CombineBody)
	if !ok {
		return nil, engine.NewError(engine.ErrCodeMessageInvalid, "not a combine message")
	}
	if len(body.MessageIDs) == 0 && body.RemotePath == "" {
		return nil, engine.NewError(engine.ErrCodeFileNotFound, "combine message has no content")
	}
	out := make([]*core.Message, 0, len(body.MessageIDs))
	for _, id := range body.MessageIDs {
		m, err := e.loadMessage(ctx, user, id)
		if err != nil {
			return nil, err
		}
		if m != nil {
			out = append(out, m)
		}
	}
	return out, nil
}

func (e *Engine) ReportMessage(ctx context.Context, msgID, tag, reason string) error {
	user, err := e.session()
	if err != nil {
		return err
	}
	if _, err := e.requireMessage(ctx, user, msgID); err != nil {
		return err
	}
	e.log.Info().Str("user", user).Str("msg_id", msgID).Str("tag", tag).Str("reason", reason).Msg("message reported")
	return nil
}
