// Package listener republishes engine push notifications as hub events.
package listener

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-bridge/internal/core"
	"github.com/vovakirdan/wirechat-bridge/internal/engine"
)

// Bridge keeps at most one pair of listeners registered with the engine.
type Bridge struct {
	registry engine.ListenerRegistry
	pub      core.Publisher
	log      *zerolog.Logger

	mu   sync.Mutex
	msgs *messageListener
	conv *conversationListener
}

// New builds an inactive bridge. Call Subscribe to start forwarding.
func New(registry engine.ListenerRegistry, pub core.Publisher, logger *zerolog.Logger) *Bridge {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "listener").Logger()
	return &Bridge{registry: registry, pub: pub, log: &l}
}

// Subscribe registers fresh listeners, removing any previously registered
// ones first. Calling it repeatedly leaves exactly one subscription.
func (b *Bridge) Subscribe() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.unsubscribeLocked()

	b.msgs = &messageListener{pub: b.pub, log: b.log}
	b.conv = &conversationListener{pub: b.pub}
	b.registry.AddMessageListener(b.msgs)
	b.registry.AddConversationListener(b.conv)
	b.log.Info().Msg("engine listeners subscribed")
}

// Unsubscribe removes the registered listeners, if any.
func (b *Bridge) Unsubscribe() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unsubscribeLocked() {
		b.log.Info().Msg("engine listeners unsubscribed")
	}
}

// Active reports whether listeners are registered.
func (b *Bridge) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.msgs != nil
}

func (b *Bridge) unsubscribeLocked() bool {
	removed := false
	if b.msgs != nil {
		b.registry.RemoveMessageListener(b.msgs)
		b.msgs = nil
		removed = true
	}
	if b.conv != nil {
		b.registry.RemoveConversationListener(b.conv)
		b.conv = nil
		removed = true
	}
	return removed
}
