package core

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestHubDeliversToAllClients(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	alice := NewClient("a", "alice", 0)
	bob := NewClient("b", "bob", 0)
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	hub.Publish(&Event{Kind: EventConversationRead, From: "carol", To: "alice"})

	for _, c := range []*Client{alice, bob} {
		ev := mustEvent(t, c.Events, EventConversationRead)
		if ev.From != "carol" || ev.To != "alice" {
			t.Fatalf("unexpected event for %s: %+v", c.Name, ev)
		}
	}
}

func TestHubPreservesPublishOrder(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	alice := NewClient("a", "alice", 512)
	hub.RegisterClient(alice)

	for i := 0; i < 100; i++ {
		hub.Publish(&Event{Kind: EventOperationProgress, LocalID: "tmp", Progress: i})
	}

	for i := 0; i < 100; i++ {
		ev := mustEvent(t, alice.Events, EventOperationProgress)
		if ev.Progress != i {
			t.Fatalf("event %d out of order: got progress %d", i, ev.Progress)
		}
	}
}

func TestHubOrdersConcurrentPublishersPerSource(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	alice := NewClient("a", "alice", 1024)
	bob := NewClient("b", "bob", 1024)
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	var wg sync.WaitGroup
	for _, id := range []string{"x", "y"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				hub.Publish(&Event{Kind: EventOperationProgress, LocalID: id, Progress: i})
			}
		}(id)
	}
	wg.Wait()

	// Both clients observe the same interleaving.
	var seqA, seqB []string
	for i := 0; i < 100; i++ {
		a := mustEvent(t, alice.Events, EventOperationProgress)
		b := mustEvent(t, bob.Events, EventOperationProgress)
		seqA = append(seqA, a.LocalID)
		seqB = append(seqB, b.LocalID)
	}
	for i := range seqA {
		if seqA[i] != seqB[i] {
			t.Fatalf("clients disagree on order at %d: %s vs %s", i, seqA[i], seqB[i])
		}
	}
}

func TestHubDropsForSlowClient(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var mu sync.Mutex
	drops := 0
	hub := NewHub(nil, WithDropHook(func(*Event, *Client) {
		mu.Lock()
		drops++
		mu.Unlock()
	}))
	go hub.Run(ctx)

	slow := NewClient("s", "slow", 1)
	hub.RegisterClient(slow)

	hub.Publish(&Event{Kind: EventConversationUpdate})
	hub.Publish(&Event{Kind: EventConversationUpdate})
	hub.Publish(&Event{Kind: EventGroupAckUpdated})

	deadline := time.Now().Add(2 * time.Second)
	for hub.Dropped() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.Dropped() != 2 {
		t.Fatalf("expected 2 drops, got %d", hub.Dropped())
	}
	mu.Lock()
	defer mu.Unlock()
	if drops != 2 {
		t.Fatalf("expected drop hook to fire twice, got %d", drops)
	}
}

func TestHubUnregisterClosesEvents(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	alice := NewClient("a", "alice", 0)
	hub.RegisterClient(alice)
	hub.UnregisterClient(alice)

	select {
	case _, ok := <-alice.Events:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("events channel not closed")
	}
}

func TestHubPublishAfterStopDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil, WithEventBuffer(1))
	go hub.Run(ctx)
	cancel()
	<-hub.Done()

	finished := make(chan struct{})
	go func() {
		hub.Publish(&Event{Kind: EventConversationUpdate})
		hub.Publish(&Event{Kind: EventConversationUpdate})
		hub.RegisterClient(NewClient("late", "", 0))
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked after hub stopped")
	}
}

func TestHubEvictsClientThatCannotTakeTerminal(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	slow := NewClient("s", "slow", 4)
	fast := NewClient("f", "fast", 64)
	hub.RegisterClient(slow)
	hub.RegisterClient(fast)

	for i := 1; i <= 10; i++ {
		hub.Publish(&Event{Kind: EventOperationProgress, LocalID: "tmp-1", Progress: i * 10})
	}
	hub.Publish(&Event{Kind: EventOperationSuccess, LocalID: "tmp-1"})

	ev := mustEvent(t, fast.Events, EventOperationSuccess)
	if ev.LocalID != "tmp-1" {
		t.Fatalf("unexpected terminal for fast client: %+v", ev)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.Evicted() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	// The slow client keeps what it buffered, then sees its channel closed
	// instead of silently missing the terminal event.
	received := 0
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-slow.Events:
			if !ok {
				if received != 4 {
					t.Fatalf("expected 4 buffered events before close, got %d", received)
				}
				if hub.Evicted() != 1 {
					t.Fatalf("expected 1 eviction, got %d", hub.Evicted())
				}
				// Unregistering an evicted client must not close its channel twice.
				hub.UnregisterClient(slow)
				return
			}
			if ev.Kind.IsTerminal() {
				t.Fatalf("slow client unexpectedly received terminal event")
			}
			received++
		case <-timeout:
			t.Fatalf("slow client was neither given the terminal nor evicted")
		}
	}
}

func TestHubKeepsClientWithRoomForTerminal(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	c := NewClient("c", "carol", 2)
	hub.RegisterClient(c)

	hub.Publish(&Event{Kind: EventOperationProgress, LocalID: "tmp-2", Progress: 50})
	hub.Publish(&Event{Kind: EventOperationError, LocalID: "tmp-2"})

	mustEvent(t, c.Events, EventOperationProgress)
	mustEvent(t, c.Events, EventOperationError)
	if hub.Evicted() != 0 {
		t.Fatalf("expected no eviction, got %d", hub.Evicted())
	}
}
