package local

import (
	"sync"

	"github.com/vovakirdan/wirechat-bridge/internal/core"
)

// conversationPage is a live set of conversations. The engine keeps
// writing into the session's page while callers hold it; every structural
// change bumps the version.
type conversationPage struct {
	mu      sync.Mutex
	order   []string
	items   map[string]*core.Conversation
	version uint64
}

func newConversationPage(convs []*core.Conversation) *conversationPage {
	p := &conversationPage{items: make(map[string]*core.Conversation, len(convs))}
	for _, c := range convs {
		if _, ok := p.items[c.ID]; !ok {
			p.order = append(p.order, c.ID)
		}
		p.items[c.ID] = c.Clone()
	}
	return p
}

func (p *conversationPage) Snapshot() ([]*core.Conversation, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*core.Conversation, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.items[id].Clone())
	}
	return out, p.version
}

func (p *conversationPage) Version() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.version
}

func (p *conversationPage) put(c *core.Conversation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.items[c.ID]; !ok {
		p.order = append(p.order, c.ID)
	}
	p.items[c.ID] = c.Clone()
	p.version++
}

func (p *conversationPage) remove(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.items[id]; !ok {
		return
	}
	delete(p.items, id)
	for i, cur := range p.order {
		if cur == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	p.version++
}

func (p *conversationPage) clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = make(map[string]*core.Conversation)
	p.order = nil
	p.version++
}
