package dispatch

import (
	"context"

	"github.com/vovakirdan/wirechat-bridge/internal/conversation"
	"github.com/vovakirdan/wirechat-bridge/internal/core"
)

const defaultPageSize = 20

func (d *Dispatcher) registerConversationHandlers() {
	d.handle(MethodGetConversation, d.getConversation)
	d.handle(MethodGetThreadConversation, d.getThreadConversation)
	d.handle(MethodMarkAllChatMsgAsRead, d.markAllAsRead)
	d.handle(MethodGetUnreadMessageCount, d.unreadCount)
	d.handle(MethodLoadAllConversations, d.loadAllConversations)
	d.handle(MethodGetConversationsFromServer, d.conversationsFromServer)
	d.handle(MethodFetchConversationsWithPage, d.conversationsWithPage)
	d.handle(MethodGetConversationsWithCursor, d.conversationsWithCursor)
	d.handle(MethodGetPinnedConversationsWithCursor, d.pinnedConversationsWithCursor)
	d.handle(MethodFetchConversationsByOptions, d.conversationsByOptions)
	d.handle(MethodDeleteConversation, d.deleteConversation)
	d.handle(MethodDeleteRemoteConversation, d.deleteRemoteConversation)
	d.handle(MethodPinConversation, d.pinConversation)
	d.handle(MethodAddConversationsMark, d.conversationsMark(true))
	d.handle(MethodDeleteConversationsMark, d.conversationsMark(false))
	d.handle(MethodDeleteAllMessageAndConversation, d.deleteAll)
}

func (d *Dispatcher) getConversation(ctx context.Context, p Params) (any, error) {
	convID, err := p.String("convId")
	if err != nil {
		return nil, err
	}
	convType, err := p.ConversationType("type")
	if err != nil {
		return nil, err
	}
	create, err := p.OptBool("createIfNeed", true)
	if err != nil {
		return nil, err
	}
	return d.background(ctx, func(ctx context.Context) (any, error) {
		return d.engine.GetConversation(ctx, convID, convType, create, false)
	})
}

func (d *Dispatcher) getThreadConversation(ctx context.Context, p Params) (any, error) {
	convID, err := p.String("convId")
	if err != nil {
		return nil, err
	}
	return d.background(ctx, func(ctx context.Context) (any, error) {
		return d.engine.GetConversation(ctx, convID, core.ConversationGroup, true, true)
	})
}

func (d *Dispatcher) markAllAsRead(ctx context.Context, _ Params) (any, error) {
	if err := d.engine.MarkAllConversationsAsRead(ctx); err != nil {
		return nil, err
	}
	return true, nil
}

func (d *Dispatcher) unreadCount(ctx context.Context, _ Params) (any, error) {
	return d.engine.UnreadMessageCount(ctx)
}

func (d *Dispatcher) loadAllConversations(ctx context.Context, _ Params) (any, error) {
	return d.convs.Local(ctx)
}

func (d *Dispatcher) conversationsFromServer(ctx context.Context, _ Params) (any, error) {
	return d.background(ctx, func(ctx context.Context) (any, error) {
		return d.convs.FetchAll(ctx)
	})
}

func (d *Dispatcher) conversationsWithPage(ctx context.Context, p Params) (any, error) {
	pageNum, err := p.Int("pageNum")
	if err != nil {
		return nil, err
	}
	pageSize, err := p.PositiveInt("pageSize")
	if err != nil {
		return nil, err
	}
	return d.background(ctx, func(ctx context.Context) (any, error) {
		return d.convs.FetchPage(ctx, pageNum, pageSize)
	})
}

func cursorParams(p Params) (string, int, error) {
	cursor, err := p.OptString("cursor", "")
	if err != nil {
		return "", 0, err
	}
	pageSize, err := p.OptInt("pageSize", defaultPageSize)
	if err != nil {
		return "", 0, err
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return cursor, pageSize, nil
}

func (d *Dispatcher) conversationsWithCursor(ctx context.Context, p Params) (any, error) {
	cursor, pageSize, err := cursorParams(p)
	if err != nil {
		return nil, err
	}
	return d.background(ctx, func(ctx context.Context) (any, error) {
		return d.convs.FetchCursor(ctx, cursor, pageSize)
	})
}

func (d *Dispatcher) pinnedConversationsWithCursor(ctx context.Context, p Params) (any, error) {
	cursor, pageSize, err := cursorParams(p)
	if err != nil {
		return nil, err
	}
	return d.background(ctx, func(ctx context.Context) (any, error) {
		return d.convs.FetchPinned(ctx, cursor, pageSize)
	})
}

// conversationsByOptions runs exactly one of the pinned, marked or plain
// fetches; pinned wins when both filters are given.
func (d *Dispatcher) conversationsByOptions(ctx context.Context, p Params) (any, error) {
	cursor, pageSize, err := cursorParams(p)
	if err != nil {
		return nil, err
	}
	pinned, err := p.OptBool("pinned", false)
	if err != nil {
		return nil, err
	}
	f := conversation.Filter{Cursor: cursor, PageSize: pageSize, Pinned: pinned}
	if p.Has("mark") {
		mark, err := p.Mark("mark")
		if err != nil {
			return nil, err
		}
		f.Mark = &mark
	}
	return d.background(ctx, func(ctx context.Context) (any, error) {
		return d.convs.FetchFiltered(ctx, f)
	})
}

func (d *Dispatcher) deleteConversation(ctx context.Context, p Params) (any, error) {
	convID, err := p.String("convId")
	if err != nil {
		return nil, err
	}
	deleteMessages, err := p.Bool("deleteMessages")
	if err != nil {
		return nil, err
	}
	return d.background(ctx, func(ctx context.Context) (any, error) {
		return d.engine.DeleteConversation(ctx, convID, deleteMessages)
	})
}

func (d *Dispatcher) deleteRemoteConversation(ctx context.Context, p Params) (any, error) {
	convID, err := p.String("conversationId")
	if err != nil {
		return nil, err
	}
	convType, err := p.ConversationType("conversationType")
	if err != nil {
		return nil, err
	}
	deleteMessages, err := p.Bool("isDeleteRemoteMessage")
	if err != nil {
		return nil, err
	}
	return d.backgroundAck(ctx, func(ctx context.Context) error {
		return d.engine.DeleteRemoteConversation(ctx, convID, convType, deleteMessages)
	})
}

func (d *Dispatcher) pinConversation(ctx context.Context, p Params) (any, error) {
	convID, err := p.String("convId")
	if err != nil {
		return nil, err
	}
	pinned, err := p.OptBool("isPinned", true)
	if err != nil {
		return nil, err
	}
	return d.backgroundAck(ctx, func(ctx context.Context) error {
		return d.engine.PinConversation(ctx, convID, pinned)
	})
}

func (d *Dispatcher) conversationsMark(add bool) Handler {
	return func(ctx context.Context, p Params) (any, error) {
		ids, err := p.Strings("convIds")
		if err != nil {
			return nil, err
		}
		mark, err := p.Mark("mark")
		if err != nil {
			return nil, err
		}
		return d.backgroundAck(ctx, func(ctx context.Context) error {
			if add {
				return d.engine.AddConversationMark(ctx, ids, mark)
			}
			return d.engine.RemoveConversationMark(ctx, ids, mark)
		})
	}
}

func (d *Dispatcher) deleteAll(ctx context.Context, p Params) (any, error) {
	clearServer, err := p.Bool("clearServerData")
	if err != nil {
		return nil, err
	}
	return d.backgroundAck(ctx, func(ctx context.Context) error {
		return d.engine.DeleteAllMessagesAndConversations(ctx, clearServer)
	})
}
