package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageDecodesBodyByType(t *testing.T) {
	raw := `{
		"msgId": "",
		"localId": "tmp-1",
		"conversationId": "bob",
		"to": "bob",
		"type": "img",
		"status": "created",
		"body": {"displayName": "cat.png", "remotePath": "https://cdn/cat.png", "fileSize": 2048, "thumbnailStatus": "none"},
		"attributes": {"priority": 1}
	}`

	var m Message
	require.NoError(t, json.Unmarshal([]byte(raw), &m))

	body, ok := m.Body.(*ImageBody)
	require.True(t, ok, "expected image body, got %T", m.Body)
	assert.Equal(t, "cat.png", body.DisplayName)
	assert.Equal(t, int64(2048), body.FileSize)
	assert.Equal(t, DownloadNone, body.ThumbnailDownloadStatus)
	assert.Equal(t, AttrInt, m.Attributes["priority"].Kind())
	assert.Equal(t, "tmp-1", m.Key())
}

func TestMessageUnknownTypeWithBodyFails(t *testing.T) {
	var m Message
	err := json.Unmarshal([]byte(`{"localId":"x","type":"hologram","body":{}}`), &m)
	require.Error(t, err)
}

func TestMessageWithoutBody(t *testing.T) {
	var m Message
	require.NoError(t, json.Unmarshal([]byte(`{"localId":"x","type":"txt"}`), &m))
	assert.Nil(t, m.Body)
}

func TestMessageEncodeDecode(t *testing.T) {
	in := &Message{
		ID:        "srv-1",
		LocalID:   "tmp-1",
		Type:      MessageText,
		Status:    StatusSent,
		Body:      &TextBody{Content: "hi", TargetLanguages: []string{"fr"}},
		Pin:       &PinInfo{PinTime: 10, OperatorID: "alice"},
		LocalTime: 1,
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Message
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, &out)
}

func TestMessageCloneIsDeep(t *testing.T) {
	in := &Message{
		LocalID:      "tmp",
		Type:         MessageVideo,
		Body:         &VideoBody{ThumbnailRemotePath: "r"},
		Attributes:   map[string]Attribute{"k": StringAttr("v")},
		ReceiverList: []string{"a"},
	}
	cp := in.Clone()
	cp.Body.(*VideoBody).ThumbnailRemotePath = "changed"
	cp.Attributes["k"] = StringAttr("w")
	cp.ReceiverList[0] = "b"

	assert.Equal(t, "r", in.Body.(*VideoBody).ThumbnailRemotePath)
	assert.Equal(t, "v", in.Attributes["k"].Str())
	assert.Equal(t, "a", in.ReceiverList[0])
}
