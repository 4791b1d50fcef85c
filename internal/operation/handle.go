package operation

import (
	"context"
	"sync"

	"github.com/vovakirdan/wirechat-bridge/internal/core"
	"github.com/vovakirdan/wirechat-bridge/internal/engine"
)

const progressBuffer = 16

// Result is the terminal outcome of an operation.
type Result struct {
	LocalID string
	Message *core.Message
	Err     *core.CoreError
}

// Handle ties one engine action to a local id. It implements
// engine.StatusCallback; callbacks arriving after the terminal one are
// ignored.
type Handle struct {
	kind     Kind
	localID  string
	msg      *core.Message
	accepted *core.Message
	tracker  *Tracker

	mu       sync.Mutex
	finished bool
	progress chan int
	done     chan Result
}

var _ engine.StatusCallback = (*Handle)(nil)

// LocalID returns the caller-chosen id the handle is keyed by.
func (h *Handle) LocalID() string { return h.localID }

// Kind returns the tracked action.
func (h *Handle) Kind() Kind { return h.kind }

// Accepted returns a copy of the message as it was when the operation began.
func (h *Handle) Accepted() *core.Message { return h.accepted.Clone() }

// Progress yields progress percentages and is closed once the operation finishes.
// Values are dropped when the reader falls behind.
func (h *Handle) Progress() <-chan int { return h.progress }

// Done yields the single terminal result and is then closed.
func (h *Handle) Done() <-chan Result { return h.done }

// Wait blocks until the operation finishes or ctx is done.
func (h *Handle) Wait(ctx context.Context) (Result, error) {
	select {
	case res := <-h.done:
		return res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (h *Handle) OnProgress(progress int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.finished {
		return
	}
	if h.kind.isDownload() {
		ApplyDownloadStatus(h.msg, core.DownloadDownloading, h.kind == KindDownloadThumbnail)
	}
	select {
	case h.progress <- progress:
	default:
	}
	h.tracker.publish(&core.Event{
		Kind:     core.EventOperationProgress,
		LocalID:  h.localID,
		Progress: progress,
	})
}

func (h *Handle) OnSuccess() {
	h.finish(core.DownloadSucceeded, nil)
}

func (h *Handle) OnError(err *engine.Error) {
	if err == nil {
		err = engine.NewError(engine.ErrCodeGeneral, "unknown engine error")
	}
	h.finish(core.DownloadFailed, core.EngineError(err.Code, err.Description))
}

func (h *Handle) finish(status core.DownloadStatus, cerr *core.CoreError) {
	h.mu.Lock()
	if h.finished {
		h.mu.Unlock()
		h.tracker.log.Warn().Str("local_id", h.localID).Msg("duplicate terminal callback ignored")
		return
	}
	h.finished = true

	if h.kind.isDownload() {
		ApplyDownloadStatus(h.msg, status, h.kind == KindDownloadThumbnail)
	}
	snapshot := h.msg.Clone()
	ev := &core.Event{LocalID: h.localID, Message: snapshot}
	outcome := OutcomeSuccess
	if cerr != nil {
		ev.Kind = core.EventOperationError
		ev.Error = cerr
		outcome = OutcomeError
	} else {
		ev.Kind = core.EventOperationSuccess
	}
	h.tracker.publish(ev)

	close(h.progress)
	h.done <- Result{LocalID: h.localID, Message: snapshot.Clone(), Err: cerr}
	close(h.done)
	h.mu.Unlock()

	log := h.tracker.log.Debug()
	if cerr != nil {
		log = h.tracker.log.Warn().Int("code", cerr.Code).Str("error", cerr.Message)
	}
	log.Str("local_id", h.localID).Str("kind", h.kind.String()).Str("outcome", outcome).Msg("operation finished")
	h.tracker.release(h, outcome)
}
