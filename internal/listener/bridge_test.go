package listener

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-bridge/internal/core"
	"github.com/vovakirdan/wirechat-bridge/internal/engine"
)

type fakeRegistry struct {
	mu   sync.Mutex
	msgs []engine.MessageListener
	conv []engine.ConversationListener
}

func (r *fakeRegistry) AddMessageListener(l engine.MessageListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, l)
}

func (r *fakeRegistry) RemoveMessageListener(l engine.MessageListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cur := range r.msgs {
		if cur == l {
			r.msgs = append(r.msgs[:i], r.msgs[i+1:]...)
			return
		}
	}
}

func (r *fakeRegistry) AddConversationListener(l engine.ConversationListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conv = append(r.conv, l)
}

func (r *fakeRegistry) RemoveConversationListener(l engine.ConversationListener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cur := range r.conv {
		if cur == l {
			r.conv = append(r.conv[:i], r.conv[i+1:]...)
			return
		}
	}
}

type recorder struct {
	events []*core.Event
}

func (r *recorder) Publish(ev *core.Event) { r.events = append(r.events, ev) }

func (r *recorder) kinds() []core.EventKind {
	out := make([]core.EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

func TestSubscribeIsIdempotent(t *testing.T) {
	reg := &fakeRegistry{}
	b := New(reg, &recorder{}, nil)

	b.Subscribe()
	b.Subscribe()
	b.Subscribe()

	assert.Len(t, reg.msgs, 1)
	assert.Len(t, reg.conv, 1)
	assert.True(t, b.Active())

	b.Unsubscribe()
	assert.Empty(t, reg.msgs)
	assert.Empty(t, reg.conv)
	assert.False(t, b.Active())

	// Unsubscribing twice is harmless.
	b.Unsubscribe()
}

func TestReadAndDeliveredEmitPerMessageAcks(t *testing.T) {
	reg := &fakeRegistry{}
	rec := &recorder{}
	b := New(reg, rec, nil)
	b.Subscribe()

	msgs := []*core.Message{{ID: "m1"}, {ID: "m2"}}
	reg.msgs[0].OnMessagesRead(msgs)
	reg.msgs[0].OnMessagesDelivered(msgs)

	assert.Equal(t, []core.EventKind{
		core.EventMessageReadAck,
		core.EventMessageReadAck,
		core.EventMessagesRead,
		core.EventMessageDeliveryAck,
		core.EventMessageDeliveryAck,
		core.EventMessagesDelivered,
	}, rec.kinds())
	assert.Equal(t, "m1", rec.events[0].Message.ID)
	assert.Equal(t, "m2", rec.events[1].Message.ID)
	require.Len(t, rec.events[2].Messages, 2)
}

func TestForwardsEveryNotification(t *testing.T) {
	reg := &fakeRegistry{}
	rec := &recorder{}
	b := New(reg, rec, nil)
	b.Subscribe()

	ml, cl := reg.msgs[0], reg.conv[0]
	ml.OnMessagesReceived([]*core.Message{{ID: "r"}})
	ml.OnCmdMessagesReceived([]*core.Message{{ID: "c"}})
	ml.OnMessagesRecalled([]*core.Message{{ID: "x"}})
	ml.OnGroupMessageRead([]*core.GroupReadAck{{AckID: "a"}})
	ml.OnReadAckForGroupMessageUpdated()
	ml.OnReactionChanged([]*core.ReactionChange{{MessageID: "r"}})
	ml.OnMessageContentChanged(&core.Message{ID: "e"}, "alice", 42)
	ml.OnMessagePinChanged("p", "conv", core.PinOperationUnpin, &core.PinInfo{OperatorID: "bob"})
	cl.OnConversationUpdate()
	cl.OnConversationRead("bob", "alice")

	assert.Equal(t, []core.EventKind{
		core.EventMessagesReceived,
		core.EventCmdMessagesReceived,
		core.EventMessagesRecalled,
		core.EventGroupMessageRead,
		core.EventGroupAckUpdated,
		core.EventReactionChanged,
		core.EventMessageContentChanged,
		core.EventMessagePinChanged,
		core.EventConversationUpdate,
		core.EventConversationRead,
	}, rec.kinds())

	edit := rec.events[6]
	assert.Equal(t, "alice", edit.Operator)
	assert.Equal(t, int64(42), edit.OperationTime)

	pin := rec.events[7]
	assert.Equal(t, core.PinOperationUnpin, pin.PinOperation)
	assert.Equal(t, "conv", pin.ConversationID)

	read := rec.events[9]
	assert.Equal(t, "bob", read.From)
	assert.Equal(t, "alice", read.To)
}

func TestResubscribeDetachesOldListener(t *testing.T) {
	reg := &fakeRegistry{}
	rec := &recorder{}
	b := New(reg, rec, nil)

	b.Subscribe()
	old := reg.msgs[0]
	b.Subscribe()

	assert.NotSame(t, old, reg.msgs[0])
	reg.msgs[0].OnMessagesReceived(nil)
	assert.Len(t, rec.events, 1)
}
