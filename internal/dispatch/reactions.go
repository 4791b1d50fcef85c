package dispatch

import (
	"context"

	"github.com/vovakirdan/wirechat-bridge/internal/core"
)

func (d *Dispatcher) registerReactionHandlers() {
	d.handle(MethodAddReaction, d.reaction(true))
	d.handle(MethodRemoveReaction, d.reaction(false))
	d.handle(MethodFetchReactionList, d.fetchReactionList)
	d.handle(MethodFetchReactionDetail, d.fetchReactionDetail)
	d.handle(MethodPinMessage, d.pin(true))
	d.handle(MethodUnpinMessage, d.pin(false))
	d.handle(MethodFetchPinnedMessages, d.fetchPinnedMessages)
}

func (d *Dispatcher) reaction(add bool) Handler {
	return func(ctx context.Context, p Params) (any, error) {
		msgID, err := p.String("msgId")
		if err != nil {
			return nil, err
		}
		reaction, err := p.String("reaction")
		if err != nil {
			return nil, err
		}
		return d.backgroundAck(ctx, func(ctx context.Context) error {
			if add {
				return d.engine.AddReaction(ctx, msgID, reaction)
			}
			return d.engine.RemoveReaction(ctx, msgID, reaction)
		})
	}
}

func (d *Dispatcher) fetchReactionList(ctx context.Context, p Params) (any, error) {
	ids, err := p.Strings("msgIds")
	if err != nil {
		return nil, err
	}
	chatType, err := p.Int("chatType")
	if err != nil {
		return nil, err
	}
	groupID, err := p.OptString("groupId", "")
	if err != nil {
		return nil, err
	}
	return d.background(ctx, func(ctx context.Context) (any, error) {
		return d.engine.FetchReactionList(ctx, ids, core.ChatType(chatType), groupID)
	})
}

func (d *Dispatcher) fetchReactionDetail(ctx context.Context, p Params) (any, error) {
	msgID, err := p.String("msgId")
	if err != nil {
		return nil, err
	}
	reaction, err := p.String("reaction")
	if err != nil {
		return nil, err
	}
	pageSize, err := p.PositiveInt("pageSize")
	if err != nil {
		return nil, err
	}
	cursor, err := p.OptString("cursor", "")
	if err != nil {
		return nil, err
	}
	return d.background(ctx, func(ctx context.Context) (any, error) {
		return d.engine.FetchReactionDetail(ctx, msgID, reaction, cursor, pageSize)
	})
}

func (d *Dispatcher) pin(pin bool) Handler {
	return func(ctx context.Context, p Params) (any, error) {
		msgID, err := p.String("msgId")
		if err != nil {
			return nil, err
		}
		return d.backgroundAck(ctx, func(ctx context.Context) error {
			if pin {
				return d.engine.PinMessage(ctx, msgID)
			}
			return d.engine.UnpinMessage(ctx, msgID)
		})
	}
}

func (d *Dispatcher) fetchPinnedMessages(ctx context.Context, p Params) (any, error) {
	convID, err := p.String("convId")
	if err != nil {
		return nil, err
	}
	return d.background(ctx, func(ctx context.Context) (any, error) {
		return d.engine.FetchPinnedMessages(ctx, convID)
	})
}
