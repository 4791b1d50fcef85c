package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-bridge/internal/auth"
	"github.com/vovakirdan/wirechat-bridge/internal/config"
	"github.com/vovakirdan/wirechat-bridge/internal/conversation"
	"github.com/vovakirdan/wirechat-bridge/internal/core"
	"github.com/vovakirdan/wirechat-bridge/internal/dispatch"
	"github.com/vovakirdan/wirechat-bridge/internal/engine/local"
	"github.com/vovakirdan/wirechat-bridge/internal/executor"
	"github.com/vovakirdan/wirechat-bridge/internal/listener"
	"github.com/vovakirdan/wirechat-bridge/internal/metrics"
	"github.com/vovakirdan/wirechat-bridge/internal/operation"
	"github.com/vovakirdan/wirechat-bridge/internal/proto"
	"github.com/vovakirdan/wirechat-bridge/internal/store/sqlite"
)

type testStack struct {
	server *httptest.Server
	engine *local.Engine
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.ShutdownTimeout = time.Second
	cfg.RequestsPerMinute = 0
	cfg.SendProgressSteps = 2
	return cfg
}

// newTestStack wires the whole bridge over an in-memory store.
func newTestStack(t *testing.T, cfg config.Config) *testStack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := sqlite.NewWithSetup(":memory:", sqlite.Migrate)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	hub := core.NewHub(nil, core.WithEventBuffer(cfg.EventBuffer))
	go hub.Run(ctx)

	eng := local.New(st, nil, local.WithProgressSteps(cfg.SendProgressSteps))
	tracker := operation.NewTracker(hub, nil)
	bridge := listener.New(eng, hub, nil)
	bridge.Subscribe()
	pool := executor.New(ctx, cfg.Workers)

	d := dispatch.New(dispatch.Deps{
		Engine:        eng,
		Tracker:       tracker,
		Conversations: conversation.New(eng, nil),
		Executor:      pool,
	})
	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	})

	router := NewRouter(Deps{
		Hub:      hub,
		Invoker:  d,
		Auth:     authService,
		Sessions: eng,
		Metrics:  metrics.New(metrics.Sources{HubDropped: hub.Dropped, HubEvicted: hub.Evicted, InFlight: tracker.InFlight}),
		Config:   &cfg,
	})
	ts := httptest.NewServer(router)

	t.Cleanup(func() {
		ts.Close()
		cancel()
		pool.Wait()
		eng.Wait()
		_ = st.Close()
	})
	return &testStack{server: ts, engine: eng}
}

func (s *testStack) postJSON(t *testing.T, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, s.server.URL+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

// login registers username and opens the engine session, returning the token.
func (s *testStack) login(t *testing.T, username string) string {
	t.Helper()
	creds := map[string]string{"username": username, "password": "password123"}
	resp, _ := s.postJSON(t, "/api/register", "", creds)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, raw := s.postJSON(t, "/api/login", "", creds)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var out AuthResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	return out.Token
}

func (s *testStack) dial(t *testing.T, ctx context.Context, token string) *websocket.Conn {
	t.Helper()
	url := strings.Replace(s.server.URL, "http", "ws", 1) + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

// frame is the client-side view of proto.Outbound.
type frame struct {
	Type  string          `json:"type"`
	ID    string          `json:"id"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

// readUntil reads frames until match returns true and returns the matching frame.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, match func(frame) bool) frame {
	t.Helper()
	for {
		var f frame
		require.NoError(t, wsjson.Read(ctx, conn, &f))
		if match(f) {
			return f
		}
	}
}

func request(t *testing.T, ctx context.Context, conn *websocket.Conn, id, method string, params map[string]any) {
	t.Helper()
	raw := make(map[string]json.RawMessage, len(params))
	for k, v := range params {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		raw[k] = b
	}
	require.NoError(t, wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeRequest, ID: id, Method: method, Params: raw}))
}

func dialRaw(ctx context.Context, url string) (*websocket.Conn, *http.Response, error) {
	return websocket.Dial(ctx, url, nil)
}
