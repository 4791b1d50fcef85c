// Package merge folds a partially populated message edit into the stored
// copy of the same message.
package merge

import "github.com/vovakirdan/wirechat-bridge/internal/core"

// Message returns a copy of stored updated from edit. Neither argument is
// modified.
//
// Scalars are taken from edit unconditionally. Attributes present in edit
// overwrite stored ones, keeping edit's type; stored-only attributes are
// kept. The body is merged by the stored message's type using one merge
// function per variant; an unknown stored type or an edit body of a
// different variant leaves the stored body untouched.
func Message(edit, stored *core.Message) *core.Message {
	out := stored.Clone()
	if edit == nil {
		return out
	}

	out.Status = edit.Status
	out.LocalTime = edit.LocalTime
	out.NeedGroupAck = edit.NeedGroupAck
	out.IsThread = edit.IsThread
	out.Unread = edit.Unread
	out.Listened = edit.Listened
	if edit.ReceiverList != nil {
		out.ReceiverList = append([]string(nil), edit.ReceiverList...)
	} else {
		out.ReceiverList = nil
	}

	out.Attributes = Attributes(edit.Attributes, out.Attributes)
	out.Body = Body(out.Type, edit.Body, out.Body)
	return out
}

// Attributes overlays edit onto stored and returns the result in a new map.
func Attributes(edit, stored map[string]core.Attribute) map[string]core.Attribute {
	if len(edit) == 0 {
		return stored
	}
	out := make(map[string]core.Attribute, len(stored)+len(edit))
	for k, v := range stored {
		out[k] = v
	}
	for k, v := range edit {
		out[k] = v
	}
	return out
}

// Body merges edit into a copy of stored according to t.
func Body(t core.MessageType, edit, stored core.Body) core.Body {
	if edit == nil || stored == nil {
		return stored
	}
	merger, ok := bodyMergers[t]
	if !ok {
		return stored
	}
	if edit.Type() != t || stored.Type() != t {
		return stored
	}
	out := stored.Clone()
	merger(edit, out)
	return out
}

type bodyMerger func(edit, dst core.Body)

var bodyMergers = map[core.MessageType]bodyMerger{
	core.MessageText:     mergeText,
	core.MessageCommand:  mergeCmd,
	core.MessageFile:     mergeFile,
	core.MessageVoice:    mergeVoice,
	core.MessageImage:    mergeImage,
	core.MessageVideo:    mergeVideo,
	core.MessageLocation: replaceBody,
	core.MessageCustom:   replaceBody,
	core.MessageCombine:  replaceBody,
}

// text: content, target languages.
func mergeText(edit, dst core.Body) {
	e, d := edit.(*core.TextBody), dst.(*core.TextBody)
	d.Content = e.Content
	d.TargetLanguages = append([]string(nil), e.TargetLanguages...)
}

// command: deliver-online-only.
func mergeCmd(edit, dst core.Body) {
	e, d := edit.(*core.CmdBody), dst.(*core.CmdBody)
	d.DeliverOnlineOnly = e.DeliverOnlineOnly
}

// file fields: display name, local path, remote path, secret, size, download status.
func mergeAttachment(e core.FileAttachment, d *core.FileAttachment) {
	d.DisplayName = e.DisplayName
	d.LocalPath = e.LocalPath
	d.RemotePath = e.RemotePath
	d.Secret = e.Secret
	d.FileSize = e.FileSize
	d.DownloadStatus = e.DownloadStatus
}

func mergeFile(edit, dst core.Body) {
	mergeAttachment(edit.(*core.FileBody).FileAttachment, &dst.(*core.FileBody).FileAttachment)
}

// voice: file fields only; duration is kept.
func mergeVoice(edit, dst core.Body) {
	mergeAttachment(edit.(*core.VoiceBody).FileAttachment, &dst.(*core.VoiceBody).FileAttachment)
}

// image: file fields, send-original flag, thumbnail local path, remote path and status.
func mergeImage(edit, dst core.Body) {
	e, d := edit.(*core.ImageBody), dst.(*core.ImageBody)
	mergeAttachment(e.FileAttachment, &d.FileAttachment)
	d.SendOriginalImage = e.SendOriginalImage
	d.ThumbnailLocalPath = e.ThumbnailLocalPath
	d.ThumbnailRemotePath = e.ThumbnailRemotePath
	d.ThumbnailDownloadStatus = e.ThumbnailDownloadStatus
}

// video: file fields, thumbnail remote path, size, secret, local path and status.
func mergeVideo(edit, dst core.Body) {
	e, d := edit.(*core.VideoBody), dst.(*core.VideoBody)
	mergeAttachment(e.FileAttachment, &d.FileAttachment)
	d.ThumbnailRemotePath = e.ThumbnailRemotePath
	d.ThumbnailWidth = e.ThumbnailWidth
	d.ThumbnailHeight = e.ThumbnailHeight
	d.ThumbnailSecret = e.ThumbnailSecret
	d.ThumbnailLocalPath = e.ThumbnailLocalPath
	d.ThumbnailDownloadStatus = e.ThumbnailDownloadStatus
}

// replaceBody swaps the whole body for the edit's.
func replaceBody(edit, dst core.Body) {
	switch d := dst.(type) {
	case *core.LocationBody:
		*d = *edit.(*core.LocationBody)
	case *core.CustomBody:
		*d = *edit.Clone().(*core.CustomBody)
	case *core.CombineBody:
		*d = *edit.Clone().(*core.CombineBody)
	}
}
