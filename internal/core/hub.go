package core

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// DefaultEventBuffer is the hub queue size used when none is given.
const DefaultEventBuffer = 256

// Publisher accepts events for delivery to clients.
type Publisher interface {
	Publish(event *Event)
}

// Hub is the single delivery context. Events published from any goroutine
// are queued and handed to clients by the Run goroutine alone, so every
// client observes the same total order.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	events     chan *Event
	done       chan struct{}

	log       *zerolog.Logger
	onDeliver func(*Event)
	onDrop    func(*Event, *Client)
	dropped   atomic.Uint64
	evicted   atomic.Uint64
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithEventBuffer sets the size of the hub's inbound queue.
func WithEventBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.events = make(chan *Event, n)
		}
	}
}

// WithDeliverHook registers a function called on the hub goroutine for every event.
func WithDeliverHook(fn func(*Event)) HubOption {
	return func(h *Hub) { h.onDeliver = fn }
}

// WithDropHook registers a function called when a slow client misses an event.
func WithDropHook(fn func(*Event, *Client)) HubOption {
	return func(h *Hub) { h.onDrop = fn }
}

// NewHub creates a new hub. Call Run to start delivery.
func NewHub(logger *zerolog.Logger, opts ...HubOption) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "hub").Logger()
	h := &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan *Event, DefaultEventBuffer),
		done:       make(chan struct{}),
		log:        &l,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run delivers events until ctx is cancelled. On exit every registered
// client's event channel is closed.
func (h *Hub) Run(ctx context.Context) {
	clients := newClientSet()
	defer func() {
		close(h.done)
		clients.closeAll()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			if clients.add(c) {
				h.log.Debug().Str("client_id", c.ID).Int("clients", clients.len()).Msg("client registered")
			}
		case c := <-h.unregister:
			if clients.remove(c) {
				close(c.Events)
				h.log.Debug().Str("client_id", c.ID).Int("clients", clients.len()).Msg("client unregistered")
			}
		case ev := <-h.events:
			h.deliver(clients, ev)
		}
	}
}

func (h *Hub) deliver(clients *clientSet, ev *Event) {
	if h.onDeliver != nil {
		h.onDeliver(ev)
	}
	for _, c := range clients.broadcast(ev) {
		h.dropped.Add(1)
		if h.onDrop != nil {
			h.onDrop(ev, c)
		}
		if !ev.Kind.IsTerminal() {
			h.log.Warn().Str("client_id", c.ID).Str("event", ev.Kind.String()).Msg("client buffer full, event dropped")
			continue
		}
		if clients.remove(c) {
			close(c.Events)
			h.evicted.Add(1)
			h.log.Warn().Str("client_id", c.ID).Str("local_id", ev.LocalID).Str("event", ev.Kind.String()).Msg("client buffer full on terminal event, client evicted")
		}
	}
}

// RegisterClient adds a client to the delivery set.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// UnregisterClient removes a client and closes its event channel.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues an event. Events published after Run has returned are discarded.
func (h *Hub) Publish(ev *Event) {
	if ev == nil {
		return
	}
	select {
	case h.events <- ev:
	case <-h.done:
	}
}

// Dropped returns how many client deliveries were skipped because of full buffers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Evicted returns how many clients were disconnected because they could not
// take an operation's terminal event.
func (h *Hub) Evicted() uint64 {
	return h.evicted.Load()
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}
