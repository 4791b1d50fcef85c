package core

// DownloadStatus tracks the local copy of an attachment.
type DownloadStatus string

const (
	DownloadNone        DownloadStatus = "none"
	DownloadDownloading DownloadStatus = "downloading"
	DownloadSucceeded   DownloadStatus = "succeeded"
	DownloadFailed      DownloadStatus = "failed"
)

// Body is the type-specific payload of a message. The set of implementations
// is closed: one struct per MessageType.
type Body interface {
	Type() MessageType
	Clone() Body
}

// NewBody returns an empty body for the given type, or nil when the type is unknown.
func NewBody(t MessageType) Body {
	switch t {
	case MessageText:
		return &TextBody{}
	case MessageImage:
		return &ImageBody{}
	case MessageVoice:
		return &VoiceBody{}
	case MessageVideo:
		return &VideoBody{}
	case MessageFile:
		return &FileBody{}
	case MessageLocation:
		return &LocationBody{}
	case MessageCommand:
		return &CmdBody{}
	case MessageCustom:
		return &CustomBody{}
	case MessageCombine:
		return &CombineBody{}
	default:
		return nil
	}
}

// FileAttachment holds the fields shared by every body that points at a file.
type FileAttachment struct {
	DisplayName    string         `json:"displayName"`
	LocalPath      string         `json:"localPath"`
	RemotePath     string         `json:"remotePath"`
	Secret         string         `json:"secret"`
	FileSize       int64          `json:"fileSize"`
	DownloadStatus DownloadStatus `json:"fileStatus"`
}

type TextBody struct {
	Content         string            `json:"content"`
	TargetLanguages []string          `json:"targetLanguages,omitempty"`
	Translations    map[string]string `json:"translations,omitempty"`
}

func (b *TextBody) Type() MessageType { return MessageText }

func (b *TextBody) Clone() Body {
	cp := *b
	cp.TargetLanguages = cloneStrings(b.TargetLanguages)
	cp.Translations = cloneStringMap(b.Translations)
	return &cp
}

type ImageBody struct {
	FileAttachment
	SendOriginalImage       bool           `json:"sendOriginalImage"`
	ThumbnailLocalPath      string         `json:"thumbnailLocalPath"`
	ThumbnailRemotePath     string         `json:"thumbnailRemotePath"`
	ThumbnailSecret         string         `json:"thumbnailSecret"`
	ThumbnailDownloadStatus DownloadStatus `json:"thumbnailStatus"`
	Width                   float64        `json:"width"`
	Height                  float64        `json:"height"`
}

func (b *ImageBody) Type() MessageType { return MessageImage }

func (b *ImageBody) Clone() Body {
	cp := *b
	return &cp
}

type VoiceBody struct {
	FileAttachment
	Duration int `json:"duration"`
}

func (b *VoiceBody) Type() MessageType { return MessageVoice }

func (b *VoiceBody) Clone() Body {
	cp := *b
	return &cp
}

type VideoBody struct {
	FileAttachment
	Duration                int            `json:"duration"`
	ThumbnailLocalPath      string         `json:"thumbnailLocalPath"`
	ThumbnailRemotePath     string         `json:"thumbnailRemotePath"`
	ThumbnailSecret         string         `json:"thumbnailSecret"`
	ThumbnailDownloadStatus DownloadStatus `json:"thumbnailStatus"`
	ThumbnailWidth          float64        `json:"thumbnailWidth"`
	ThumbnailHeight         float64        `json:"thumbnailHeight"`
}

func (b *VideoBody) Type() MessageType { return MessageVideo }

func (b *VideoBody) Clone() Body {
	cp := *b
	return &cp
}

type FileBody struct {
	FileAttachment
}

func (b *FileBody) Type() MessageType { return MessageFile }

func (b *FileBody) Clone() Body {
	cp := *b
	return &cp
}

type LocationBody struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Address      string  `json:"address"`
	BuildingName string  `json:"buildingName"`
}

func (b *LocationBody) Type() MessageType { return MessageLocation }

func (b *LocationBody) Clone() Body {
	cp := *b
	return &cp
}

type CmdBody struct {
	Action            string `json:"action"`
	DeliverOnlineOnly bool   `json:"deliverOnlineOnly"`
}

func (b *CmdBody) Type() MessageType { return MessageCommand }

func (b *CmdBody) Clone() Body {
	cp := *b
	return &cp
}

type CustomBody struct {
	Event  string            `json:"event"`
	Params map[string]string `json:"params,omitempty"`
}

func (b *CustomBody) Type() MessageType { return MessageCustom }

func (b *CustomBody) Clone() Body {
	cp := *b
	cp.Params = cloneStringMap(b.Params)
	return &cp
}

// CombineBody references a bundle of forwarded messages stored as a remote file.
type CombineBody struct {
	Title          string   `json:"title"`
	Summary        string   `json:"summary"`
	CompatibleText string   `json:"compatibleText"`
	MessageIDs     []string `json:"messageIdList,omitempty"`
	LocalPath      string   `json:"localPath"`
	RemotePath     string   `json:"remotePath"`
	Secret         string   `json:"secret"`
}

func (b *CombineBody) Type() MessageType { return MessageCombine }

func (b *CombineBody) Clone() Body {
	cp := *b
	cp.MessageIDs = cloneStrings(b.MessageIDs)
	return &cp
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
