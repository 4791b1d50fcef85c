package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-bridge/internal/core"
	"github.com/vovakirdan/wirechat-bridge/internal/dispatch"
)

func TestHealthEndpoint(t *testing.T) {
	s := newTestStack(t, testConfig())

	resp, err := s.server.Client().Get(s.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestStack(t, testConfig())
	s.login(t, "alice")

	resp, _ := s.postJSON(t, "/api/invoke/getUnreadMessageCount", "", map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	mresp, err := s.server.Client().Get(s.server.URL + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()
	body, err := io.ReadAll(mresp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "wirechat_bridge_hub_dropped_events_total")
	assert.Contains(t, string(body), "wirechat_bridge_operations_in_flight")
}

func TestMetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsEnabled = false
	s := newTestStack(t, cfg)

	resp, err := s.server.Client().Get(s.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMethodsEndpoint(t *testing.T) {
	s := newTestStack(t, testConfig())

	resp, err := s.server.Client().Get(s.server.URL + "/api/methods")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out struct {
		Methods []string `json:"methods"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Contains(t, out.Methods, dispatch.MethodSendMessage)
	assert.Contains(t, out.Methods, dispatch.MethodRecallMessage)
	assert.IsIncreasing(t, out.Methods)
}

func TestInvokeErrorMapping(t *testing.T) {
	s := newTestStack(t, testConfig())

	decode := func(raw []byte) InvokeResponse {
		var out InvokeResponse
		require.NoError(t, json.Unmarshal(raw, &out))
		require.NotNil(t, out.Error)
		return out
	}

	resp, raw := s.postJSON(t, "/api/invoke/getMessage", "", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, string(core.KindValidation), decode(raw).Error.Kind)

	resp, raw = s.postJSON(t, "/api/invoke/noSuchMethod", "", map[string]any{})
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
	assert.Equal(t, core.ErrCodeUnsupported, decode(raw).Error.Code)

	resp, raw = s.postJSON(t, "/api/invoke/recallMessage", "", map[string]any{"msg_id": "missing-1"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, string(core.KindEngine), decode(raw).Error.Kind)

	s.login(t, "alice")
	resp, raw = s.postJSON(t, "/api/invoke/recallMessage", "", map[string]any{"msg_id": "missing-1"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, core.ErrCodeNotFound, decode(raw).Error.Code)
}

func TestInvokeRejectsNonObjectBody(t *testing.T) {
	s := newTestStack(t, testConfig())

	resp, err := s.server.Client().Post(s.server.URL+"/api/invoke/getMessage", "application/json", strings.NewReader(`[1,2]`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInvokeBodyTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxMessageBytes = 16
	s := newTestStack(t, cfg)

	resp, _ := s.postJSON(t, "/api/invoke/getMessage", "", map[string]any{"msg_id": strings.Repeat("x", 64)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestLoginAndLogoutDriveEngineSession(t *testing.T) {
	s := newTestStack(t, testConfig())

	s.login(t, "alice")
	assert.Equal(t, "alice", s.engine.CurrentUser())

	resp, _ := s.postJSON(t, "/api/logout", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, s.engine.CurrentUser())
}

func TestRegisterAndLoginFailures(t *testing.T) {
	s := newTestStack(t, testConfig())
	s.login(t, "alice")

	resp, _ := s.postJSON(t, "/api/register", "", map[string]string{"username": "alice", "password": "password123"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = s.postJSON(t, "/api/register", "", map[string]string{"username": "al"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.postJSON(t, "/api/login", "", map[string]string{"username": "alice", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTokensRequiredWhenSecretSet(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = "test-secret"
	s := newTestStack(t, cfg)

	token := s.login(t, "alice")
	require.NotEmpty(t, token)

	resp, _ := s.postJSON(t, "/api/invoke/getUnreadMessageCount", "", map[string]any{})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.postJSON(t, "/api/invoke/getUnreadMessageCount", "not-a-token", map[string]any{})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, raw := s.postJSON(t, "/api/invoke/getUnreadMessageCount", token, map[string]any{})
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
}

func TestLogoutRejectsOtherUser(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = "test-secret"
	s := newTestStack(t, cfg)

	bobToken := s.login(t, "bob")
	s.login(t, "alice")

	resp, _ := s.postJSON(t, "/api/logout", bobToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "alice", s.engine.CurrentUser())
}

func TestInvokeRejectsOtherUsersToken(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = "test-secret"
	s := newTestStack(t, cfg)

	bobToken := s.login(t, "bob")
	aliceToken := s.login(t, "alice")

	msg := map[string]any{"message": map[string]any{
		"localId": "x1", "to": "carol", "chatType": 0, "type": "txt",
		"body": map[string]any{"content": "from bob"},
	}}
	resp, raw := s.postJSON(t, "/api/invoke/sendMessage", bobToken, msg)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, string(raw))
	assert.Equal(t, "alice", s.engine.CurrentUser())

	resp, raw = s.postJSON(t, "/api/invoke/getUnreadMessageCount", aliceToken, map[string]any{})
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
}
