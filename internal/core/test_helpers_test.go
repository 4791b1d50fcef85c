package core

import (
	"testing"
	"time"
)

const eventWait = 2 * time.Second

// mustEvent skips events of other kinds until one of kind arrives.
func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	timer := time.NewTimer(eventWait)
	defer timer.Stop()
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("event channel closed while waiting for %s", kind)
			}
			if ev != nil && ev.Kind == kind {
				return ev
			}
		case <-timer.C:
			t.Fatalf("expected event kind %s not received", kind)
			return nil
		}
	}
}
