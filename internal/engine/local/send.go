package local

import (
	"context"

	"github.com/vovakirdan/wirechat-bridge/internal/core"
	"github.com/vovakirdan/wirechat-bridge/internal/engine"
)

// SendMessage sends msg on a separate goroutine. On success msg carries its
// canonical id, status sent and the server time.
func (e *Engine) SendMessage(ctx context.Context, msg *core.Message, cb engine.StatusCallback) {
	e.transfers.Add(1)
	go func() {
		defer e.transfers.Done()
		if err := e.send(ctx, msg, cb); err != nil {
			e.log.Debug().Str("local_id", msg.LocalID).Err(err).Msg("send failed")
			cb.OnError(engine.AsError(err))
			return
		}
		cb.OnSuccess()
		e.loopback(msg)
	}()
}

func (e *Engine) send(ctx context.Context, msg *core.Message, cb engine.StatusCallback) error {
	user, err := e.session()
	if err != nil {
		return err
	}
	if msg.To == "" {
		return engine.NewError(engine.ErrCodeMessageInvalid, "message has no recipient")
	}
	if msg.Body == nil || msg.Body.Type() != msg.Type {
		return engine.NewError(engine.ErrCodeMessageInvalid, "message body does not match type "+string(msg.Type))
	}

	if att := attachmentOf(msg.Body); att != nil {
		if att.LocalPath == "" && att.RemotePath == "" {
			return engine.NewError(engine.ErrCodeFileNotFound, "attachment has no file")
		}
		if err := e.transfer(ctx, cb); err != nil {
			return err
		}
		if att.RemotePath == "" {
			att.RemotePath = "wirechat://files/" + e.newID()
		}
	}

	if msg.ID == "" {
		msg.ID = e.newID()
	}
	msg.From = user
	msg.Direction = core.DirectionSend
	msg.Status = core.StatusSent
	msg.ServerTime = e.nowMillis()
	if msg.ConversationID == "" {
		msg.ConversationID, _ = conversationOf(msg, user)
	}

	if msg.Type == core.MessageCommand {
		return nil
	}
	if err := e.store.SaveMessage(ctx, user, msg); err != nil {
		return storeError(err, engine.ErrCodeGeneral)
	}
	if err := e.touchConversation(ctx, user, msg, 0); err != nil {
		return err
	}
	e.notifyConversationUpdate()
	return nil
}

// transfer reports e.steps evenly spaced progress values ending at 100.
func (e *Engine) transfer(ctx context.Context, cb engine.StatusCallback) error {
	for i := 1; i <= e.steps; i++ {
		if err := ctx.Err(); err != nil {
			return engine.NewError(engine.ErrCodeGeneral, "transfer cancelled: "+err.Error())
		}
		cb.OnProgress(i * 100 / e.steps)
	}
	return nil
}

// loopback hands messages addressed to the session user back as received.
func (e *Engine) loopback(sent *core.Message) {
	user := e.CurrentUser()
	if user == "" || sent.ChatType != core.ChatSingle || sent.To != user {
		return
	}
	in := sent.Clone()
	in.Direction = core.DirectionReceive
	in.Unread = true
	msgs := []*core.Message{in}
	if in.Type == core.MessageCommand {
		e.notifyMessages(func(l engine.MessageListener) { l.OnCmdMessagesReceived(msgs) })
		return
	}
	e.notifyMessages(func(l engine.MessageListener) { l.OnMessagesReceived(msgs) })
}

// attachmentOf returns the file part of attachment bodies.
func attachmentOf(body core.Body) *core.FileAttachment {
	switch b := body.(type) {
	case *core.ImageBody:
		return &b.FileAttachment
	case *core.VideoBody:
		return &b.FileAttachment
	case *core.VoiceBody:
		return &b.FileAttachment
	case *core.FileBody:
		return &b.FileAttachment
	}
	return nil
}

// DownloadAttachment fetches the full attachment of msg.
func (e *Engine) DownloadAttachment(ctx context.Context, msg *core.Message, cb engine.StatusCallback) {
	e.download(ctx, msg, cb, false)
}

// DownloadThumbnail fetches the thumbnail of an image or video message.
func (e *Engine) DownloadThumbnail(ctx context.Context, msg *core.Message, cb engine.StatusCallback) {
	e.download(ctx, msg, cb, true)
}

func (e *Engine) download(ctx context.Context, msg *core.Message, cb engine.StatusCallback, thumbnail bool) {
	e.transfers.Add(1)
	go func() {
		defer e.transfers.Done()
		if err := e.fetchFile(ctx, msg, cb, thumbnail); err != nil {
			e.log.Debug().Str("local_id", msg.LocalID).Bool("thumbnail", thumbnail).Err(err).Msg("download failed")
			cb.OnError(engine.AsError(err))
			return
		}
		cb.OnSuccess()
	}()
}

func (e *Engine) fetchFile(ctx context.Context, msg *core.Message, cb engine.StatusCallback, thumbnail bool) error {
	user, err := e.session()
	if err != nil {
		return err
	}
	remote, local, err := downloadTarget(msg, thumbnail)
	if err != nil {
		return err
	}
	if *remote == "" {
		return engine.NewError(engine.ErrCodeFileNotFound, "attachment has no remote file")
	}
	if err := e.transfer(ctx, cb); err != nil {
		return err
	}
	name := "file"
	if thumbnail {
		name = "thumb"
	}
	*local = "downloads/" + msg.Key() + "/" + name

	// Persist a copy so the stored message remembers where the file is.
	stored := msg.Clone()
	if thumbnail {
		setThumbnailStatus(stored.Body, core.DownloadSucceeded)
	} else if att := attachmentOf(stored.Body); att != nil {
		att.DownloadStatus = core.DownloadSucceeded
	}
	if existing, _ := e.store.GetMessage(ctx, user, msg.Key()); existing != nil {
		if err := e.store.SaveMessage(ctx, user, stored); err != nil {
			return storeError(err, engine.ErrCodeGeneral)
		}
	}
	return nil
}

// downloadTarget returns pointers to the remote and local path fields the
// download reads and writes.
func downloadTarget(msg *core.Message, thumbnail bool) (remote, local *string, err error) {
	if !thumbnail {
		att := attachmentOf(msg.Body)
		if att == nil {
			return nil, nil, engine.NewError(engine.ErrCodeFileInvalid, "message has no attachment")
		}
		return &att.RemotePath, &att.LocalPath, nil
	}
	switch b := msg.Body.(type) {
	case *core.ImageBody:
		return &b.ThumbnailRemotePath, &b.ThumbnailLocalPath, nil
	case *core.VideoBody:
		return &b.ThumbnailRemotePath, &b.ThumbnailLocalPath, nil
	}
	return nil, nil, engine.NewError(engine.ErrCodeFileInvalid, "message has no thumbnail")
}

func setThumbnailStatus(body core.Body, status core.DownloadStatus) {
	switch b := body.(type) {
	case *core.ImageBody:
		b.ThumbnailDownloadStatus = status
	case *core.VideoBody:
		b.ThumbnailDownloadStatus = status
	}
}
