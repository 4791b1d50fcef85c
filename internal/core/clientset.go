package core

// clientSet holds the clients registered with a hub. It is owned by the hub
// goroutine and is not safe for concurrent use.
type clientSet struct {
	clients map[*Client]struct{}
}

func newClientSet() *clientSet {
	return &clientSet{clients: make(map[*Client]struct{})}
}

// add inserts a client. Returns true if newly added.
func (s *clientSet) add(c *Client) bool {
	if _, exists := s.clients[c]; exists {
		return false
	}
	s.clients[c] = struct{}{}
	return true
}

// remove deletes a client. Returns true if removed.
func (s *clientSet) remove(c *Client) bool {
	if _, exists := s.clients[c]; !exists {
		return false
	}
	delete(s.clients, c)
	return true
}

// broadcast sends an event to every client and returns the clients whose
// buffer was full. Slow consumers lose the event.
func (s *clientSet) broadcast(event *Event) []*Client {
	var dropped []*Client
	for client := range s.clients {
		select {
		case client.Events <- event:
		default:
			dropped = append(dropped, client)
		}
	}
	return dropped
}

func (s *clientSet) len() int {
	return len(s.clients)
}

// closeAll closes every client's event channel and empties the set.
func (s *clientSet) closeAll() {
	for client := range s.clients {
		close(client.Events)
		delete(s.clients, client)
	}
}
