package local

import (
	"context"

	"github.com/vovakirdan/wirechat-bridge/internal/core"
	"github.com/vovakirdan/wirechat-bridge/internal/engine"
	"github.com/vovakirdan/wirechat-bridge/internal/store"
)

func (e *Engine) AddReaction(ctx context.Context, msgID, reaction string) error {
	return e.changeReaction(ctx, msgID, reaction, true)
}

func (e *Engine) RemoveReaction(ctx context.Context, msgID, reaction string) error {
	return e.changeReaction(ctx, msgID, reaction, false)
}

func (e *Engine) changeReaction(ctx context.Context, msgID, reaction string, add bool) error {
	user, err := e.session()
	if err != nil {
		return err
	}
	msg, err := e.requireMessage(ctx, user, msgID)
	if err != nil {
		return err
	}
	if reaction == "" {
		return engine.NewError(engine.ErrCodeInvalidParam, "reaction is empty")
	}

	if add {
		err = e.store.AddReaction(ctx, &store.ReactionEntry{
			MessageID: msgID,
			Reaction:  reaction,
			UserID:    user,
			CreatedAt: e.nowMillis(),
		})
	} else {
		var removed bool
		removed, err = e.store.RemoveReaction(ctx, msgID, reaction, user)
		if err == nil && !removed {
			return engine.NewError(engine.ErrCodeInvalidParam, "reaction "+reaction+" was not added")
		}
	}
	if err != nil {
		return storeError(err, engine.ErrCodeGeneral)
	}

	byMsg, err := e.reactions(ctx, user, []string{msgID})
	if err != nil {
		return err
	}
	changes := []*core.ReactionChange{{
		ConversationID: msg.ConversationID,
		MessageID:      msgID,
		Reactions:      byMsg[msgID],
	}}
	e.notifyMessages(func(l engine.MessageListener) { l.OnReactionChanged(changes) })
	return nil
}

// reactions aggregates stored entries per message and reaction, in the
// order reactions were first added.
func (e *Engine) reactions(ctx context.Context, user string, msgIDs []string) (map[string][]*core.Reaction, error) {
	entries, err := e.store.ListReactions(ctx, msgIDs)
	if err != nil {
		return nil, storeError(err, engine.ErrCodeGeneral)
	}
	out := make(map[string][]*core.Reaction, len(msgIDs))
	index := make(map[[2]string]*core.Reaction)
	for _, en := range entries {
		key := [2]string{en.MessageID, en.Reaction}
		r, ok := index[key]
		if !ok {
			r = &core.Reaction{Reaction: en.Reaction, UserList: []string{}}
			index[key] = r
			out[en.MessageID] = append(out[en.MessageID], r)
		}
		r.Count++
		r.UserList = append(r.UserList, en.UserID)
		if en.UserID == user {
			r.IsAddedBySelf = true
		}
	}
	return out, nil
}

func (e *Engine) FetchReactionList(ctx context.Context, msgIDs []string, _ core.ChatType, _ string) (map[string][]*core.Reaction, error) {
	user, err := e.session()
	if err != nil {
		return nil, err
	}
	return e.reactions(ctx, user, msgIDs)
}

// FetchReactionDetail pages through the users behind one reaction. The
// cursor is the last user id of the previous page.
func (e *Engine) FetchReactionDetail(ctx context.Context, msgID, reaction, cursor string, pageSize int) (*core.CursorResult[*core.Reaction], error) {
	user, err := e.session()
	if err != nil {
		return nil, err
	}
	byMsg, err := e.reactions(ctx, user, []string{msgID})
	if err != nil {
		return nil, err
	}
	var found *core.Reaction
	for _, r := range byMsg[msgID] {
		if r.Reaction == reaction {
			found = r
			break
		}
	}
	res := &core.CursorResult[*core.Reaction]{Data: []*core.Reaction{}}
	if found == nil {
		return res, nil
	}

	users := found.UserList
	start := 0
	if cursor != "" {
		start = len(users)
		for i, u := range users {
			if u == cursor {
				start = i + 1
				break
			}
		}
	}
	end := min(start+pageSize, len(users))
	page := *found
	page.UserList = append([]string{}, users[start:end]...)
	res.Data = append(res.Data, &page)
	if end < len(users) && end > start {
		res.Cursor = users[end-1]
	}
	return res, nil
}

func (e *Engine) PinMessage(ctx context.Context, msgID string) error {
	return e.setPin(ctx, msgID, true)
}

func (e *Engine) UnpinMessage(ctx context.Context, msgID string) error {
	return e.setPin(ctx, msgID, false)
}

func (e *Engine) setPin(ctx context.Context, msgID string, pin bool) error {
	user, err := e.session()
	if err != nil {
		return err
	}
	msg, err := e.requireMessage(ctx, user, msgID)
	if err != nil {
		return err
	}
	info := &core.PinInfo{PinTime: e.nowMillis(), OperatorID: user}
	op := core.PinOperationPin
	if pin {
		msg.Pin = info
	} else {
		if msg.Pin == nil {
			return engine.NewError(engine.ErrCodeMessageInvalid, "message is not pinned")
		}
		op = core.PinOperationUnpin
		msg.Pin = nil
	}
	if err := e.store.SaveMessage(ctx, user, msg); err != nil {
		return storeError(err, engine.ErrCodeGeneral)
	}
	e.notifyMessages(func(l engine.MessageListener) {
		l.OnMessagePinChanged(msg.Key(), msg.ConversationID, op, info)
	})
	return nil
}

func (e *Engine) FetchPinnedMessages(ctx context.Context, conversationID string) ([]*core.Message, error) {
	user, err := e.session()
	if err != nil {
		return nil, err
	}
	msgs, err := e.store.ListMessages(ctx, user, store.MessageQuery{ConversationID: conversationID, PinnedOnly: true})
	if err != nil {
		return nil, storeError(err, engine.ErrCodeGeneral)
	}
	return msgs, nil
}
