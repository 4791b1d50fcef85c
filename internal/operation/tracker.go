// Package operation correlates multi-phase engine callbacks with the local
// id of the message they belong to and turns them into ordered events.
package operation

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-bridge/internal/core"
)

// Kind is the engine action a handle tracks.
type Kind int

const (
	KindSend Kind = iota
	KindResend
	KindDownloadAttachment
	KindDownloadThumbnail
)

func (k Kind) String() string {
	switch k {
	case KindSend:
		return "send"
	case KindResend:
		return "resend"
	case KindDownloadAttachment:
		return "download_attachment"
	case KindDownloadThumbnail:
		return "download_thumbnail"
	default:
		return "unknown"
	}
}

func (k Kind) isDownload() bool {
	return k == KindDownloadAttachment || k == KindDownloadThumbnail
}

// Outcome labels passed to observers.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Observer is told about every finished operation.
type Observer func(kind Kind, outcome string)

// Tracker owns the in-flight operation handles.
type Tracker struct {
	pub      core.Publisher
	log      *zerolog.Logger
	observer Observer

	mu       sync.Mutex
	inflight map[string]*Handle
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithObserver registers a function called once per finished operation.
func WithObserver(fn Observer) TrackerOption {
	return func(t *Tracker) { t.observer = fn }
}

// NewTracker builds a tracker that publishes operation events to pub.
func NewTracker(pub core.Publisher, logger *zerolog.Logger, opts ...TrackerOption) *Tracker {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "operation").Logger()
	t := &Tracker{
		pub:      pub,
		log:      &l,
		inflight: make(map[string]*Handle),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Begin binds a new handle to msg's local id. It must be called before the
// engine is invoked so no callback can be missed. For downloads the
// relevant download status is set to downloading right away.
func (t *Tracker) Begin(kind Kind, msg *core.Message) *Handle {
	if kind.isDownload() {
		ApplyDownloadStatus(msg, core.DownloadDownloading, kind == KindDownloadThumbnail)
	}
	h := &Handle{
		kind:     kind,
		localID:  msg.LocalID,
		msg:      msg,
		accepted: msg.Clone(),
		tracker:  t,
		progress: make(chan int, progressBuffer),
		done:     make(chan Result, 1),
	}

	t.mu.Lock()
	if prev, ok := t.inflight[h.localID]; ok {
		t.log.Debug().Str("local_id", h.localID).Str("kind", prev.kind.String()).Msg("replacing in-flight handle")
	}
	t.inflight[h.localID] = h
	t.mu.Unlock()

	t.log.Debug().Str("local_id", h.localID).Str("kind", kind.String()).Msg("operation started")
	return h
}

// Lookup returns the latest in-flight handle for a local id.
func (t *Tracker) Lookup(localID string) (*Handle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.inflight[localID]
	return h, ok
}

// InFlight returns the number of handles awaiting a terminal callback.
func (t *Tracker) InFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight)
}

func (t *Tracker) release(h *Handle, outcome string) {
	t.mu.Lock()
	if cur, ok := t.inflight[h.localID]; ok && cur == h {
		delete(t.inflight, h.localID)
	}
	t.mu.Unlock()

	if t.observer != nil {
		t.observer(h.kind, outcome)
	}
}

func (t *Tracker) publish(ev *core.Event) {
	if t.pub != nil {
		t.pub.Publish(ev)
	}
}
