package operation

import "github.com/vovakirdan/wirechat-bridge/internal/core"

// ApplyDownloadStatus writes status into msg's body. Image and video bodies
// track the full attachment and the thumbnail separately; voice and file
// bodies only track the full attachment, so thumbnail updates on them are
// ignored. It reports whether a field was written.
func ApplyDownloadStatus(msg *core.Message, status core.DownloadStatus, thumbnail bool) bool {
	if msg == nil {
		return false
	}
	switch b := msg.Body.(type) {
	case *core.ImageBody:
		if thumbnail {
			b.ThumbnailDownloadStatus = status
		} else {
			b.DownloadStatus = status
		}
	case *core.VideoBody:
		if thumbnail {
			b.ThumbnailDownloadStatus = status
		} else {
			b.DownloadStatus = status
		}
	case *core.VoiceBody:
		if thumbnail {
			return false
		}
		b.DownloadStatus = status
	case *core.FileBody:
		if thumbnail {
			return false
		}
		b.DownloadStatus = status
	default:
		return false
	}
	return true
}
