package local

import (
	"context"
	"errors"
	"sort"

	"github.com/vovakirdan/wirechat-bridge/internal/core"
	"github.com/vovakirdan/wirechat-bridge/internal/engine"
	"github.com/vovakirdan/wirechat-bridge/internal/store"
)

// conversationOf derives the conversation a message belongs to, seen from user.
func conversationOf(msg *core.Message, user string) (string, core.ConversationType) {
	switch msg.ChatType {
	case core.ChatGroup:
		return msg.To, core.ConversationGroup
	case core.ChatRoom:
		return msg.To, core.ConversationRoom
	}
	if msg.Direction == core.DirectionSend || msg.From == user {
		return msg.To, core.ConversationChat
	}
	return msg.From, core.ConversationChat
}

// loadConversation returns the stored conversation or nil when absent.
func (e *Engine) loadConversation(ctx context.Context, user, id string) (*core.Conversation, error) {
	conv, err := e.store.GetConversation(ctx, user, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(err, engine.ErrCodeConversationAbsent)
	}
	return conv, nil
}

func (e *Engine) requireConversation(ctx context.Context, user, id string) (*core.Conversation, error) {
	conv, err := e.loadConversation(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, engine.NewError(engine.ErrCodeConversationAbsent, "conversation "+id+" does not exist")
	}
	return conv, nil
}

func (e *Engine) saveConversation(ctx context.Context, user string, conv *core.Conversation) error {
	if err := e.store.SaveConversation(ctx, user, conv); err != nil {
		return storeError(err, engine.ErrCodeGeneral)
	}
	e.page().put(conv)
	return nil
}

// touchConversation records msg as activity in its conversation, creating
// the conversation when needed.
func (e *Engine) touchConversation(ctx context.Context, user string, msg *core.Message, unreadDelta int) error {
	id, t := conversationOf(msg, user)
	conv, err := e.loadConversation(ctx, user, id)
	if err != nil {
		return err
	}
	if conv == nil {
		conv = &core.Conversation{ID: id, Type: t, IsThread: msg.IsThread}
	}
	if conv.LastMessage == nil || timeOf(msg) >= timeOf(conv.LastMessage) {
		conv.LastMessage = msg.Clone()
	}
	conv.UnreadCount = max(conv.UnreadCount+unreadDelta, 0)
	return e.saveConversation(ctx, user, conv)
}

// refreshConversation recomputes the last message of a conversation after
// messages were removed from it.
func (e *Engine) refreshConversation(ctx context.Context, user, id string) error {
	conv, err := e.loadConversation(ctx, user, id)
	if err != nil || conv == nil {
		return err
	}
	latest, err := e.store.ListMessages(ctx, user, store.MessageQuery{ConversationID: id, Limit: 1})
	if err != nil {
		return storeError(err, engine.ErrCodeGeneral)
	}
	conv.LastMessage = nil
	if len(latest) > 0 {
		conv.LastMessage = latest[0]
	}
	return e.saveConversation(ctx, user, conv)
}

func timeOf(msg *core.Message) int64 {
	if msg.ServerTime != 0 {
		return msg.ServerTime
	}
	return msg.LocalTime
}

func (e *Engine) GetConversation(ctx context.Context, id string, t core.ConversationType, createIfAbsent, isThread bool) (*core.Conversation, error) {
	user, err := e.session()
	if err != nil {
		return nil, err
	}
	conv, err := e.loadConversation(ctx, user, id)
	if err != nil || conv != nil || !createIfAbsent {
		return conv, err
	}

	conv = &core.Conversation{ID: id, Type: t, IsThread: isThread}
	if err := e.saveConversation(ctx, user, conv); err != nil {
		return nil, err
	}
	e.notifyConversationUpdate()
	return conv, nil
}

func (e *Engine) AllConversations(ctx context.Context) ([]*core.Conversation, error) {
	user, err := e.session()
	if err != nil {
		return nil, err
	}
	convs, err := e.store.ListConversations(ctx, user)
	if err != nil {
		return nil, storeError(err, engine.ErrCodeGeneral)
	}
	return convs, nil
}

func (e *Engine) MarkAllConversationsAsRead(ctx context.Context) error {
	user, err := e.session()
	if err != nil {
		return err
	}
	convs, err := e.store.ListConversations(ctx, user)
	if err != nil {
		return storeError(err, engine.ErrCodeGeneral)
	}
	for _, conv := range convs {
		if conv.UnreadCount == 0 {
			continue
		}
		if err := e.markConversationRead(ctx, user, conv); err != nil {
			return err
		}
	}
	e.notifyConversationUpdate()
	return nil
}

func (e *Engine) markConversationRead(ctx context.Context, user string, conv *core.Conversation) error {
	msgs, err := e.store.ListMessages(ctx, user, store.MessageQuery{ConversationID: conv.ID})
	if err != nil {
		return storeError(err, engine.ErrCodeGeneral)
	}
	for _, m := range msgs {
		if !m.Unread {
			continue
		}
		m.Unread = false
		if err := e.store.SaveMessage(ctx, user, m); err != nil {
			return storeError(err, engine.ErrCodeGeneral)
		}
	}
	conv.UnreadCount = 0
	if conv.LastMessage != nil {
		conv.LastMessage.Unread = false
	}
	return e.saveConversation(ctx, user, conv)
}

func (e *Engine) UnreadMessageCount(ctx context.Context) (int, error) {
	user, err := e.session()
	if err != nil {
		return 0, err
	}
	convs, err := e.store.ListConversations(ctx, user)
	if err != nil {
		return 0, storeError(err, engine.ErrCodeGeneral)
	}
	total := 0
	for _, c := range convs {
		total += c.UnreadCount
	}
	return total, nil
}

func (e *Engine) DeleteConversation(ctx context.Context, id string, deleteMessages bool) (bool, error) {
	user, err := e.session()
	if err != nil {
		return false, err
	}
	existed, err := e.store.DeleteConversation(ctx, user, id)
	if err != nil {
		return false, storeError(err, engine.ErrCodeGeneral)
	}
	if deleteMessages {
		if err := e.store.DeleteConversationMessages(ctx, user, id); err != nil {
			return false, storeError(err, engine.ErrCodeGeneral)
		}
	}
	e.page().remove(id)
	if existed {
		e.notifyConversationUpdate()
	}
	return existed, nil
}

func (e *Engine) DeleteRemoteConversation(ctx context.Context, id string, _ core.ConversationType, deleteMessages bool) error {
	existed, err := e.DeleteConversation(ctx, id, deleteMessages)
	if err != nil {
		return err
	}
	if !existed {
		return engine.NewError(engine.ErrCodeConversationAbsent, "conversation "+id+" does not exist")
	}
	return nil
}

func (e *Engine) DeleteAllMessagesAndConversations(ctx context.Context, clearServerData bool) error {
	user, err := e.session()
	if err != nil {
		return err
	}
	if err := e.store.DeleteAllMessages(ctx, user); err != nil {
		return storeError(err, engine.ErrCodeGeneral)
	}
	if err := e.store.DeleteAllConversations(ctx, user); err != nil {
		return storeError(err, engine.ErrCodeGeneral)
	}
	e.page().clear()
	e.log.Info().Str("user", user).Bool("clear_server", clearServerData).Msg("all messages and conversations deleted")
	e.notifyConversationUpdate()
	return nil
}

func (e *Engine) PinConversation(ctx context.Context, id string, pinned bool) error {
	user, err := e.session()
	if err != nil {
		return err
	}
	conv, err := e.requireConversation(ctx, user, id)
	if err != nil {
		return err
	}
	conv.Pinned = pinned
	conv.PinnedTime = 0
	if pinned {
		conv.PinnedTime = e.nowMillis()
	}
	if err := e.saveConversation(ctx, user, conv); err != nil {
		return err
	}
	e.notifyConversationUpdate()
	return nil
}

func (e *Engine) AddConversationMark(ctx context.Context, ids []string, mark core.Mark) error {
	return e.updateMarks(ctx, ids, func(conv *core.Conversation) {
		if !conv.HasMark(mark) {
			conv.Marks = append(conv.Marks, mark)
		}
	})
}

func (e *Engine) RemoveConversationMark(ctx context.Context, ids []string, mark core.Mark) error {
	return e.updateMarks(ctx, ids, func(conv *core.Conversation) {
		kept := conv.Marks[:0]
		for _, m := range conv.Marks {
			if m != mark {
				kept = append(kept, m)
			}
		}
		conv.Marks = kept
	})
}

func (e *Engine) updateMarks(ctx context.Context, ids []string, apply func(*core.Conversation)) error {
	user, err := e.session()
	if err != nil {
		return err
	}
	for _, id := range ids {
		conv, err := e.requireConversation(ctx, user, id)
		if err != nil {
			return err
		}
		apply(conv)
		if err := e.saveConversation(ctx, user, conv); err != nil {
			return err
		}
	}
	e.notifyConversationUpdate()
	return nil
}

// FetchConversations returns the session's live conversation set.
func (e *Engine) FetchConversations(_ context.Context) (engine.ConversationPage, error) {
	if _, err := e.session(); err != nil {
		return nil, err
	}
	return e.page(), nil
}

// FetchConversationsByPage returns one fixed page; pageNum starts at 1.
func (e *Engine) FetchConversationsByPage(ctx context.Context, pageNum, pageSize int) (engine.ConversationPage, error) {
	convs, err := e.AllConversations(ctx)
	if err != nil {
		return nil, err
	}
	if pageNum < 1 {
		pageNum = 1
	}
	start := min((pageNum-1)*pageSize, len(convs))
	end := min(start+pageSize, len(convs))
	return newConversationPage(convs[start:end]), nil
}

func (e *Engine) FetchConversationsByCursor(ctx context.Context, cursor string, pageSize int) (*core.CursorResult[*core.Conversation], error) {
	convs, err := e.AllConversations(ctx)
	if err != nil {
		return nil, err
	}
	return cursorPage(convs, cursor, pageSize), nil
}

// FetchPinnedConversations pages through pinned conversations, most recently pinned first.
func (e *Engine) FetchPinnedConversations(ctx context.Context, cursor string, pageSize int) (*core.CursorResult[*core.Conversation], error) {
	convs, err := e.AllConversations(ctx)
	if err != nil {
		return nil, err
	}
	pinned := make([]*core.Conversation, 0, len(convs))
	for _, c := range convs {
		if c.Pinned {
			pinned = append(pinned, c)
		}
	}
	sort.SliceStable(pinned, func(i, j int) bool { return pinned[i].PinnedTime > pinned[j].PinnedTime })
	return cursorPage(pinned, cursor, pageSize), nil
}

func (e *Engine) FetchConversationsByFilter(ctx context.Context, cursor string, filter core.ConversationFilter) (*core.CursorResult[*core.Conversation], error) {
	convs, err := e.AllConversations(ctx)
	if err != nil {
		return nil, err
	}
	marked := make([]*core.Conversation, 0, len(convs))
	for _, c := range convs {
		if c.HasMark(filter.Mark) {
			marked = append(marked, c)
		}
	}
	return cursorPage(marked, cursor, filter.PageSize), nil
}

// cursorPage returns up to pageSize conversations following the one whose
// id is cursor. The next cursor is empty on the last page.
func cursorPage(convs []*core.Conversation, cursor string, pageSize int) *core.CursorResult[*core.Conversation] {
	start := 0
	if cursor != "" {
		start = len(convs)
		for i, c := range convs {
			if c.ID == cursor {
				start = i + 1
				break
			}
		}
	}
	end := len(convs)
	if pageSize > 0 {
		end = min(start+pageSize, len(convs))
	}
	res := &core.CursorResult[*core.Conversation]{Data: append([]*core.Conversation{}, convs[start:end]...)}
	if end < len(convs) && end > start {
		res.Cursor = convs[end-1].ID
	}
	return res
}
