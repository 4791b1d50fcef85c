package conversation

import (
	"context"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-bridge/internal/core"
	"github.com/vovakirdan/wirechat-bridge/internal/engine"
)

func conv(id string, ts int64) *core.Conversation {
	c := &core.Conversation{ID: id}
	if ts > 0 {
		c.LastMessage = &core.Message{ID: "m-" + id, ServerTime: ts}
	}
	return c
}

func ids(convs []*core.Conversation) []string {
	out := make([]string, len(convs))
	for i, c := range convs {
		out[i] = c.ID
	}
	return out
}

func TestSortByActivity(t *testing.T) {
	convs := []*core.Conversation{
		conv("empty1", 0),
		conv("old", 10),
		conv("new", 30),
		conv("tieA", 20),
		conv("empty2", 0),
		conv("tieB", 20),
	}
	SortByActivity(convs)
	assert.Equal(t, []string{"new", "tieA", "tieB", "old", "empty1", "empty2"}, ids(convs))
}

// flakyPage reports a changed version for the first n passes.
type flakyPage struct {
	items    []*core.Conversation
	changes  int
	version  atomic.Uint64
	attempts int
}

func (p *flakyPage) Snapshot() ([]*core.Conversation, uint64) {
	p.attempts++
	out := make([]*core.Conversation, len(p.items))
	copy(out, p.items)
	return out, p.version.Load()
}

func (p *flakyPage) Version() uint64 {
	if p.changes > 0 {
		p.changes--
		return p.version.Add(1)
	}
	return p.version.Load()
}

func TestSortedRetriesUntilStable(t *testing.T) {
	items := make([]*core.Conversation, 0, 50)
	for i := 0; i < 50; i++ {
		items = append(items, conv(string(rune('A'+i)), int64(rand.Intn(5))))
	}
	page := &flakyPage{items: items, changes: 3}

	retries := 0
	s := New(nil, nil, WithRetryHook(func(int) { retries++ }))
	out, err := s.Sorted(context.Background(), page)
	require.NoError(t, err)

	assert.Equal(t, 4, page.attempts)
	assert.Equal(t, 3, retries)
	assert.ElementsMatch(t, ids(items), ids(out), "result must be a permutation of the input")
	for i := 1; i < len(out); i++ {
		prev, okPrev := out[i-1].LastActivity()
		cur, okCur := out[i].LastActivity()
		if okPrev && okCur {
			assert.GreaterOrEqual(t, prev, cur)
		}
		if !okPrev {
			assert.False(t, okCur, "conversation with activity after one without")
		}
	}
}

func TestSortedStopsOnContextCancel(t *testing.T) {
	page := &flakyPage{items: []*core.Conversation{conv("a", 1)}, changes: 1 << 30}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	s := New(nil, nil, WithRetryHook(func(int) {
		calls++
		if calls == 5 {
			cancel()
		}
	}))

	_, err := s.Sorted(ctx, page)
	require.ErrorIs(t, err, context.Canceled)
}

type stubEngine struct {
	engine.ConversationEngine
	user   string
	local  []*core.Conversation
	called []string
}

func (e *stubEngine) CurrentUser() string { return e.user }

func (e *stubEngine) AllConversations(context.Context) ([]*core.Conversation, error) {
	e.called = append(e.called, "local")
	return e.local, nil
}

func (e *stubEngine) FetchConversationsByCursor(_ context.Context, cursor string, _ int) (*core.CursorResult[*core.Conversation], error) {
	e.called = append(e.called, "cursor")
	return &core.CursorResult[*core.Conversation]{Cursor: cursor}, nil
}

func (e *stubEngine) FetchPinnedConversations(_ context.Context, cursor string, _ int) (*core.CursorResult[*core.Conversation], error) {
	e.called = append(e.called, "pinned")
	return &core.CursorResult[*core.Conversation]{Cursor: cursor}, nil
}

func (e *stubEngine) FetchConversationsByFilter(_ context.Context, cursor string, f core.ConversationFilter) (*core.CursorResult[*core.Conversation], error) {
	e.called = append(e.called, "mark")
	return &core.CursorResult[*core.Conversation]{Cursor: cursor}, nil
}

func TestLocalWithoutSessionIsEmpty(t *testing.T) {
	eng := &stubEngine{local: []*core.Conversation{conv("a", 1)}}
	s := New(eng, nil)

	out, err := s.Local(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
	assert.Empty(t, eng.called, "engine must not be queried without a session")

	eng.user = "alice"
	out, err = s.Local(context.Background())
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestFilteredFetchPrecedence(t *testing.T) {
	mark := core.Mark(3)
	cases := []struct {
		name   string
		filter Filter
		want   string
	}{
		{"pinned wins over mark", Filter{Pinned: true, Mark: &mark}, "pinned"},
		{"pinned only", Filter{Pinned: true}, "pinned"},
		{"mark only", Filter{Mark: &mark}, "mark"},
		{"plain", Filter{}, "cursor"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eng := &stubEngine{user: "alice"}
			s := New(eng, nil)
			_, err := s.FetchFiltered(context.Background(), tc.filter)
			require.NoError(t, err)
			assert.Equal(t, []string{tc.want}, eng.called)
		})
	}
}
