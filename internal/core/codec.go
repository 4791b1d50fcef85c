package core

import (
	"encoding/json"
	"fmt"
)

// messageJSON is the wire shape of Message. The body is decoded according
// to the message type.
type messageJSON struct {
	ID             string               `json:"msgId"`
	LocalID        string               `json:"localId"`
	ConversationID string               `json:"conversationId"`
	From           string               `json:"from"`
	To             string               `json:"to"`
	ChatType       ChatType             `json:"chatType"`
	Direction      Direction            `json:"direction,omitempty"`
	Type           MessageType          `json:"type"`
	Status         MessageStatus        `json:"status,omitempty"`
	Body           json.RawMessage      `json:"body,omitempty"`
	Attributes     map[string]Attribute `json:"attributes,omitempty"`
	Unread         bool                 `json:"unread"`
	Listened       bool                 `json:"listened"`
	IsThread       bool                 `json:"isThread"`
	NeedGroupAck   bool                 `json:"needGroupAck"`
	HasReadAck     bool                 `json:"hasReadAck"`
	HasDeliverAck  bool                 `json:"hasDeliverAck"`
	GroupAckCount  int                  `json:"groupAckCount"`
	ReceiverList   []string             `json:"receiverList,omitempty"`
	LocalTime      int64                `json:"localTime"`
	ServerTime     int64                `json:"serverTime"`
	Pin            *PinInfo             `json:"pinInfo,omitempty"`
}

func (m *Message) MarshalJSON() ([]byte, error) {
	w := messageJSON{
		ID:             m.ID,
		LocalID:        m.LocalID,
		ConversationID: m.ConversationID,
		From:           m.From,
		To:             m.To,
		ChatType:       m.ChatType,
		Direction:      m.Direction,
		Type:           m.Type,
		Status:         m.Status,
		Attributes:     m.Attributes,
		Unread:         m.Unread,
		Listened:       m.Listened,
		IsThread:       m.IsThread,
		NeedGroupAck:   m.NeedGroupAck,
		HasReadAck:     m.HasReadAck,
		HasDeliverAck:  m.HasDeliverAck,
		GroupAckCount:  m.GroupAckCount,
		ReceiverList:   m.ReceiverList,
		LocalTime:      m.LocalTime,
		ServerTime:     m.ServerTime,
		Pin:            m.Pin,
	}
	if m.Body != nil {
		body, err := json.Marshal(m.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s body: %w", m.Type, err)
		}
		w.Body = body
	}
	return json.Marshal(w)
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var w messageJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*m = Message{
		ID:             w.ID,
		LocalID:        w.LocalID,
		ConversationID: w.ConversationID,
		From:           w.From,
		To:             w.To,
		ChatType:       w.ChatType,
		Direction:      w.Direction,
		Type:           w.Type,
		Status:         w.Status,
		Attributes:     w.Attributes,
		Unread:         w.Unread,
		Listened:       w.Listened,
		IsThread:       w.IsThread,
		NeedGroupAck:   w.NeedGroupAck,
		HasReadAck:     w.HasReadAck,
		HasDeliverAck:  w.HasDeliverAck,
		GroupAckCount:  w.GroupAckCount,
		ReceiverList:   w.ReceiverList,
		LocalTime:      w.LocalTime,
		ServerTime:     w.ServerTime,
		Pin:            w.Pin,
	}
	if len(w.Body) == 0 || string(w.Body) == "null" {
		return nil
	}
	body := NewBody(w.Type)
	if body == nil {
		return fmt.Errorf("unknown message type %q", w.Type)
	}
	if err := json.Unmarshal(w.Body, body); err != nil {
		return fmt.Errorf("decode %s body: %w", w.Type, err)
	}
	m.Body = body
	return nil
}
