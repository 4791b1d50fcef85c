package dispatch

import (
	"context"
	"time"

	"github.com/vovakirdan/wirechat-bridge/internal/core"
	"github.com/vovakirdan/wirechat-bridge/internal/merge"
	"github.com/vovakirdan/wirechat-bridge/internal/operation"
)

func (d *Dispatcher) registerMessageHandlers() {
	d.handle(MethodSendMessage, d.sendMessage)
	d.handle(MethodResendMessage, d.resendMessage)
	d.handle(MethodRecallMessage, d.recallMessage)
	d.handle(MethodGetMessage, d.getMessage)
	d.handle(MethodUpdateChatMessage, d.updateChatMessage)
	d.handle(MethodImportMessages, d.importMessages)
	d.handle(MethodAckMessageRead, d.ackMessageRead)
	d.handle(MethodAckGroupMessageRead, d.ackGroupMessageRead)
	d.handle(MethodAckConversationRead, d.ackConversationRead)
	d.handle(MethodAsyncFetchGroupAcks, d.fetchGroupAcks)
	d.handle(MethodDownloadAttachment, d.download(operation.KindDownloadAttachment, true))
	d.handle(MethodDownloadThumbnail, d.download(operation.KindDownloadThumbnail, true))
	d.handle(MethodDownloadAttachmentInCombine, d.download(operation.KindDownloadAttachment, false))
	d.handle(MethodDownloadThumbnailInCombine, d.download(operation.KindDownloadThumbnail, false))
	d.handle(MethodFetchHistoryMessages, d.fetchHistoryMessages)
	d.handle(MethodFetchHistoryMessagesByOptions, d.fetchHistoryMessagesByOptions)
	d.handle(MethodSearchChatMsgFromDB, d.searchMessages)
	d.handle(MethodDeleteMessagesBeforeTimestamp, d.deleteMessagesBefore)
	d.handle(MethodRemoveMessagesFromServerWithMsgIDs, d.removeMessagesByIDs)
	d.handle(MethodRemoveMessagesFromServerWithTs, d.removeMessagesBefore)
	d.handle(MethodTranslateMessage, d.translateMessage)
	d.handle(MethodFetchSupportedLanguages, d.fetchSupportedLanguages)
	d.handle(MethodReportMessage, d.reportMessage)
	d.handle(MethodModifyMessage, d.modifyMessage)
	d.handle(MethodDownloadAndParseCombineMessage, d.downloadAndParseCombine)
}

// sendMessage starts an asynchronous send. The reply is the accepted
// message with status sending; the outcome arrives as operation events
// keyed by the message's local id.
func (d *Dispatcher) sendMessage(_ context.Context, p Params) (any, error) {
	msg, err := p.Message("message")
	if err != nil {
		return nil, err
	}
	if msg.LocalID == "" {
		msg.LocalID = d.newID()
	}
	if msg.LocalTime == 0 {
		msg.LocalTime = time.Now().UnixMilli()
	}
	msg.Direction = core.DirectionSend
	msg.Status = core.StatusSending

	h := d.tracker.Begin(operation.KindSend, msg)
	d.exec.Start(func(ctx context.Context) {
		d.engine.SendMessage(ctx, msg, h)
	})
	return h.Accepted(), nil
}

// resendMessage resends the stored copy matched by local id when there is
// one, the caller's message otherwise. Either way the status is reset to
// created before the engine takes over.
func (d *Dispatcher) resendMessage(ctx context.Context, p Params) (any, error) {
	msg, err := p.Message("message")
	if err != nil {
		return nil, err
	}
	if msg.LocalID == "" {
		return nil, core.MissingParamError("message.localId")
	}

	stored, err := d.engine.GetMessage(ctx, msg.LocalID)
	if err != nil {
		return nil, err
	}
	target := msg
	if stored != nil {
		target = stored
	}
	target.Status = core.StatusCreated

	h := d.tracker.Begin(operation.KindResend, target)
	d.exec.Start(func(ctx context.Context) {
		d.engine.SendMessage(ctx, target, h)
	})
	return h.Accepted(), nil
}

// download starts an attachment or thumbnail fetch. When resolve is set the
// message is looked up by id and must exist; otherwise the caller's copy
// is used as is, as for messages nested inside a combined message.
func (d *Dispatcher) download(kind operation.Kind, resolve bool) Handler {
	return func(ctx context.Context, p Params) (any, error) {
		msg, err := p.Message("message")
		if err != nil {
			return nil, err
		}
		if resolve {
			stored, err := d.engine.GetMessage(ctx, msg.Key())
			if err != nil {
				return nil, err
			}
			if stored == nil {
				return nil, core.NotFoundError("message", msg.Key())
			}
			msg = stored
		}
		if msg.LocalID == "" {
			msg.LocalID = msg.Key()
		}

		h := d.tracker.Begin(kind, msg)
		d.exec.Start(func(ctx context.Context) {
			if kind == operation.KindDownloadThumbnail {
				d.engine.DownloadThumbnail(ctx, msg, h)
			} else {
				d.engine.DownloadAttachment(ctx, msg, h)
			}
		})
		return h.Accepted(), nil
	}
}

// recallMessage resolves the target locally first; an unknown id is a
// not-found error and the engine is never asked to recall.
func (d *Dispatcher) recallMessage(ctx context.Context, p Params) (any, error) {
	id, err := p.String("msg_id")
	if err != nil {
		return nil, err
	}
	return d.backgroundAck(ctx, func(ctx context.Context) error {
		msg, err := d.engine.GetMessage(ctx, id)
		if err != nil {
			return err
		}
		if msg == nil {
			return core.NotFoundError("message", id)
		}
		return d.engine.RecallMessage(ctx, msg)
	})
}

func (d *Dispatcher) getMessage(ctx context.Context, p Params) (any, error) {
	id, err := p.String("msg_id")
	if err != nil {
		return nil, err
	}
	msg, err := d.engine.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// updateChatMessage merges the caller's edit into the stored message and
// writes the result back.
func (d *Dispatcher) updateChatMessage(ctx context.Context, p Params) (any, error) {
	edit, err := p.Message("message")
	if err != nil {
		return nil, err
	}
	return d.background(ctx, func(ctx context.Context) (any, error) {
		stored, err := d.engine.GetMessage(ctx, edit.Key())
		if err != nil {
			return nil, err
		}
		if stored == nil {
			return nil, core.NotFoundError("message", edit.Key())
		}
		merged := merge.Message(edit, stored)
		if err := d.engine.UpdateMessage(ctx, merged); err != nil {
			return nil, err
		}
		return merged, nil
	})
}

func (d *Dispatcher) importMessages(ctx context.Context, p Params) (any, error) {
	msgs, err := p.Messages("messages")
	if err != nil {
		return nil, err
	}
	return d.backgroundAck(ctx, func(ctx context.Context) error {
		return d.engine.ImportMessages(ctx, msgs)
	})
}

func (d *Dispatcher) ackMessageRead(ctx context.Context, p Params) (any, error) {
	msgID, err := p.String("msg_id")
	if err != nil {
		return nil, err
	}
	to, err := p.String("to")
	if err != nil {
		return nil, err
	}
	return d.backgroundAck(ctx, func(ctx context.Context) error {
		return d.engine.AckMessageRead(ctx, to, msgID)
	})
}

func (d *Dispatcher) ackGroupMessageRead(ctx context.Context, p Params) (any, error) {
	msgID, err := p.String("msg_id")
	if err != nil {
		return nil, err
	}
	groupID, err := p.String("group_id")
	if err != nil {
		return nil, err
	}
	content, err := p.OptString("content", "")
	if err != nil {
		return nil, err
	}
	return d.backgroundAck(ctx, func(ctx context.Context) error {
		return d.engine.AckGroupMessageRead(ctx, groupID, msgID, content)
	})
}

func (d *Dispatcher) ackConversationRead(ctx context.Context, p Params) (any, error) {
	convID, err := p.String("convId")
	if err != nil {
		return nil, err
	}
	return d.backgroundAck(ctx, func(ctx context.Context) error {
		return d.engine.AckConversationRead(ctx, convID)
	})
}

func (d *Dispatcher) fetchGroupAcks(ctx context.Context, p Params) (any, error) {
	msgID, err := p.String("msg_id")
	if err != nil {
		return nil, err
	}
	pageSize, err := p.PositiveInt("pageSize")
	if err != nil {
		return nil, err
	}
	ackID, err := p.OptString("ack_id", "")
	if err != nil {
		return nil, err
	}
	return d.background(ctx, func(ctx context.Context) (any, error) {
		return d.engine.FetchGroupReadAcks(ctx, msgID, ackID, pageSize)
	})
}

func (d *Dispatcher) fetchHistoryMessages(ctx context.Context, p Params) (any, error) {
	convID, err := p.String("convId")
	if err != nil {
		return nil, err
	}
	convType, err := p.ConversationType("type")
	if err != nil {
		return nil, err
	}
	pageSize, err := p.PositiveInt("pageSize")
	if err != nil {
		return nil, err
	}
	startMsgID, err := p.String("startMsgId")
	if err != nil {
		return nil, err
	}
	direction, err := p.OptString("direction", string(core.SearchUp))
	if err != nil {
		return nil, err
	}
	q := core.HistoryQuery{
		ConversationID: convID,
		Type:           convType,
		PageSize:       pageSize,
		Cursor:         startMsgID,
		Direction:      core.ParseSearchDirection(direction),
	}
	return d.background(ctx, func(ctx context.Context) (any, error) {
		return d.engine.FetchHistoryMessages(ctx, q)
	})
}

// historyOptions narrows fetchHistoryMessagesByOptions.
type historyOptions struct {
	From      string             `json:"from"`
	MsgTypes  []core.MessageType `json:"msgTypes"`
	StartTime int64              `json:"startTs"`
	EndTime   int64              `json:"endTs"`
	Direction string             `json:"direction"`
}

func (d *Dispatcher) fetchHistoryMessagesByOptions(ctx context.Context, p Params) (any, error) {
	convID, err := p.String("convId")
	if err != nil {
		return nil, err
	}
	convType, err := p.ConversationType("type")
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
	var opts historyOptions
	if _, err := p.decodeOpt("options", &opts); err != nil {
		return nil, err
	}
	q := core.HistoryQuery{
		ConversationID: convID,
		Type:           convType,
		PageSize:       pageSize,
		Cursor:         cursor,
		Direction:      core.ParseSearchDirection(opts.Direction),
		From:           opts.From,
		MessageTypes:   opts.MsgTypes,
		StartTime:      opts.StartTime,
		EndTime:        opts.EndTime,
	}
	if opts.Direction == "" {
		q.Direction = core.SearchUp
	}
	return d.background(ctx, func(ctx context.Context) (any, error) {
		return d.engine.FetchHistoryMessages(ctx, q)
	})
}

func (d *Dispatcher) searchMessages(ctx context.Context, p Params) (any, error) {
	var q core.SearchQuery
	var err error
	if q.Keywords, err = p.String("keywords"); err != nil {
		return nil, err
	}
	if q.Timestamp, err = p.Int64("timestamp"); err != nil {
		return nil, err
	}
	if q.MaxCount, err = p.PositiveInt("maxCount"); err != nil {
		return nil, err
	}
	if q.From, err = p.String("from"); err != nil {
		return nil, err
	}
	direction, err := p.String("direction")
	if err != nil {
		return nil, err
	}
	q.Direction = core.ParseSearchDirection(direction)
	scope, err := p.OptInt("searchScope", int(core.SearchScopeContent))
	if err != nil {
		return nil, err
	}
	q.Scope = core.SearchScope(scope)

	msgs, err := d.engine.SearchMessages(ctx, q)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []*core.Message{}
	}
	return msgs, nil
}

func (d *Dispatcher) deleteMessagesBefore(ctx context.Context, p Params) (any, error) {
	ts, err := p.Int64("timestamp")
	if err != nil {
		return nil, err
	}
	return d.backgroundAck(ctx, func(ctx context.Context) error {
		return d.engine.DeleteMessagesBefore(ctx, ts)
	})
}

func (d *Dispatcher) removeMessagesByIDs(ctx context.Context, p Params) (any, error) {
	convID, err := p.String("convId")
	if err != nil {
		return nil, err
	}
	convType, err := p.ConversationType("type")
	if err != nil {
		return nil, err
	}
	ids, err := p.Strings("msgIds")
	if err != nil {
		return nil, err
	}
	return d.backgroundAck(ctx, func(ctx context.Context) error {
		return d.engine.RemoveMessagesFromServer(ctx, convID, convType, ids)
	})
}

func (d *Dispatcher) removeMessagesBefore(ctx context.Context, p Params) (any, error) {
	convID, err := p.String("convId")
	if err != nil {
		return nil, err
	}
	convType, err := p.ConversationType("type")
	if err != nil {
		return nil, err
	}
	ts, err := p.OptInt64("timestamp", 0)
	if err != nil {
		return nil, err
	}
	return d.backgroundAck(ctx, func(ctx context.Context) error {
		return d.engine.RemoveMessagesFromServerBefore(ctx, convID, convType, ts)
	})
}

func (d *Dispatcher) translateMessage(ctx context.Context, p Params) (any, error) {
	msg, err := p.Message("message")
	if err != nil {
		return nil, err
	}
	languages, err := p.OptStrings("languages")
	if err != nil {
		return nil, err
	}
	return d.background(ctx, func(ctx context.Context) (any, error) {
		return d.engine.TranslateMessage(ctx, msg, languages)
	})
}

func (d *Dispatcher) fetchSupportedLanguages(ctx context.Context, _ Params) (any, error) {
	return d.background(ctx, func(ctx context.Context) (any, error) {
		return d.engine.FetchSupportedLanguages(ctx)
	})
}

func (d *Dispatcher) reportMessage(ctx context.Context, p Params) (any, error) {
	msgID, err := p.String("msgId")
	if err != nil {
		return nil, err
	}
	tag, err := p.String("tag")
	if err != nil {
		return nil, err
	}
	reason, err := p.String("reason")
	if err != nil {
		return nil, err
	}
	return d.backgroundAck(ctx, func(ctx context.Context) error {
		return d.engine.ReportMessage(ctx, msgID, tag, reason)
	})
}

func (d *Dispatcher) modifyMessage(ctx context.Context, p Params) (any, error) {
	msgID, err := p.String("msgId")
	if err != nil {
		return nil, err
	}
	var body core.TextBody
	if err := p.Decode("body", &body); err != nil {
		return nil, err
	}
	return d.background(ctx, func(ctx context.Context) (any, error) {
		return d.engine.ModifyMessage(ctx, msgID, &body)
	})
}

func (d *Dispatcher) downloadAndParseCombine(ctx context.Context, p Params) (any, error) {
	msg, err := p.Message("message")
	if err != nil {
		return nil, err
	}
	if msg.Type != core.MessageCombine {
		return nil, core.InvalidParamError("message", errNotCombine)
	}
	return d.background(ctx, func(ctx context.Context) (any, error) {
		return d.engine.DownloadAndParseCombineMessage(ctx, msg)
	})
}
