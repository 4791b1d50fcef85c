// Package conversation produces ordered conversation listings from the
// engine's local cache and server fetches.
package conversation

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-bridge/internal/core"
	"github.com/vovakirdan/wirechat-bridge/internal/engine"
)

// Synchronizer lists conversations in a deterministic order.
type Synchronizer struct {
	engine  engine.ConversationEngine
	log     *zerolog.Logger
	onRetry func(attempt int)
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithRetryHook registers a function called each time a sort pass is
// discarded because the page changed underneath it.
func WithRetryHook(fn func(attempt int)) Option {
	return func(s *Synchronizer) { s.onRetry = fn }
}

// New builds a synchronizer on top of eng.
func New(eng engine.ConversationEngine, logger *zerolog.Logger, opts ...Option) *Synchronizer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "conversation").Logger()
	s := &Synchronizer{engine: eng, log: &l}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Local returns the engine-maintained sorted list, or an empty list when
// nobody is logged in.
func (s *Synchronizer) Local(ctx context.Context) ([]*core.Conversation, error) {
	if s.engine.CurrentUser() == "" {
		return []*core.Conversation{}, nil
	}
	convs, err := s.engine.AllConversations(ctx)
	if err != nil {
		return nil, err
	}
	if convs == nil {
		convs = []*core.Conversation{}
	}
	return convs, nil
}

// FetchAll fetches every conversation from the server and sorts them.
func (s *Synchronizer) FetchAll(ctx context.Context) ([]*core.Conversation, error) {
	page, err := s.engine.FetchConversations(ctx)
	if err != nil {
		return nil, err
	}
	return s.Sorted(ctx, page)
}

// FetchPage fetches one numbered page from the server and sorts it.
func (s *Synchronizer) FetchPage(ctx context.Context, pageNum, pageSize int) ([]*core.Conversation, error) {
	page, err := s.engine.FetchConversationsByPage(ctx, pageNum, pageSize)
	if err != nil {
		return nil, err
	}
	return s.Sorted(ctx, page)
}

// FetchCursor fetches one cursor page of conversations.
func (s *Synchronizer) FetchCursor(ctx context.Context, cursor string, pageSize int) (*core.CursorResult[*core.Conversation], error) {
	return s.engine.FetchConversationsByCursor(ctx, cursor, pageSize)
}

// FetchPinned fetches one cursor page of pinned conversations.
func (s *Synchronizer) FetchPinned(ctx context.Context, cursor string, pageSize int) (*core.CursorResult[*core.Conversation], error) {
	return s.engine.FetchPinnedConversations(ctx, cursor, pageSize)
}

// Filter selects a filtered fetch. Pinned wins over Mark; with neither set
// the plain cursor fetch is used.
type Filter struct {
	Cursor   string
	PageSize int
	Pinned   bool
	Mark     *core.Mark
}

// FetchFiltered runs exactly one of the pinned, marked or plain fetches.
func (s *Synchronizer) FetchFiltered(ctx context.Context, f Filter) (*core.CursorResult[*core.Conversation], error) {
	switch {
	case f.Pinned:
		if f.Mark != nil {
			s.log.Debug().Int("mark", int(*f.Mark)).Msg("pinned filter set, ignoring mark")
		}
		return s.engine.FetchPinnedConversations(ctx, f.Cursor, f.PageSize)
	case f.Mark != nil:
		return s.engine.FetchConversationsByFilter(ctx, f.Cursor, core.ConversationFilter{PageSize: f.PageSize, Mark: *f.Mark})
	default:
		return s.engine.FetchConversationsByCursor(ctx, f.Cursor, f.PageSize)
	}
}

// Sorted orders the page by last activity. If the page changes while a
// pass runs, the pass is discarded and repeated on a fresh snapshot until
// one completes cleanly or ctx is done.
func (s *Synchronizer) Sorted(ctx context.Context, page engine.ConversationPage) ([]*core.Conversation, error) {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		items, version := page.Snapshot()
		SortByActivity(items)
		if page.Version() == version {
			if attempt > 1 {
				s.log.Debug().Int("attempt", attempt).Int("count", len(items)).Msg("conversation sort settled")
			}
			return items, nil
		}
		s.log.Debug().Int("attempt", attempt).Msg("conversation page changed during sort, retrying")
		if s.onRetry != nil {
			s.onRetry(attempt)
		}
	}
}

// SortByActivity orders conversations by last message time, newest first.
// Conversations without a last message go after all others. Ties keep
// their input order.
func SortByActivity(convs []*core.Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		ti, oki := convs[i].LastActivity()
		tj, okj := convs[j].LastActivity()
		switch {
		case oki && okj:
			return ti > tj
		case oki:
			return true
		default:
			return false
		}
	})
}
