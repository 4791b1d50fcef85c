package core

// DefaultClientBuffer is the event buffer size used when none is given.
const DefaultClientBuffer = 64

// Client is a connected caller as seen by the core layer.
type Client struct {
	ID     string
	Name   string
	Events chan *Event
}

// NewClient constructs a client with an initialized event channel.
func NewClient(id, name string, buffer int) *Client {
	if name == "" {
		name = id
	}
	if buffer <= 0 {
		buffer = DefaultClientBuffer
	}
	return &Client{
		ID:     id,
		Name:   name,
		Events: make(chan *Event, buffer),
	}
}
