package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-bridge/internal/core"
	"github.com/vovakirdan/wirechat-bridge/internal/operation"
)

func TestCounters(t *testing.T) {
	m := New(Sources{})

	m.ObserveRequest("sendMessage", "ok")
	m.ObserveRequest("sendMessage", "ok")
	m.ObserveRequest("recallMessage", "not_found")
	m.ObserveEvent(&core.Event{Kind: core.EventOperationSuccess})
	m.ObserveEvent(nil)
	m.ObserveOperation(operation.KindSend, operation.OutcomeError)
	m.ObserveSortRetry(1)

	text := scrape(t, m)
	assert.Contains(t, text, `wirechat_bridge_requests_total{method="sendMessage",outcome="ok"} 2`)
	assert.Contains(t, text, `wirechat_bridge_requests_total{method="recallMessage",outcome="not_found"} 1`)
	assert.Contains(t, text, `wirechat_bridge_events_total{kind="operation_success"} 1`)
	assert.Contains(t, text, `wirechat_bridge_operations_total{kind="send",outcome="error"} 1`)
	assert.Contains(t, text, "wirechat_bridge_conversation_sort_retries_total 1")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("x", "ok")
		m.ObserveEvent(&core.Event{})
		m.ObserveOperation(operation.KindResend, operation.OutcomeSuccess)
		m.ObserveSortRetry(3)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}

func TestHandlerExposesSources(t *testing.T) {
	m := New(Sources{
		HubDropped: func() uint64 { return 7 },
		HubEvicted: func() uint64 { return 1 },
		InFlight:   func() int { return 2 },
	})
	m.ObserveRequest("getMessage", "ok")

	text := scrape(t, m)
	assert.Contains(t, text, "wirechat_bridge_hub_dropped_events_total 7")
	assert.Contains(t, text, "wirechat_bridge_hub_evicted_clients_total 1")
	assert.Contains(t, text, "wirechat_bridge_operations_in_flight 2")
	assert.Contains(t, text, `wirechat_bridge_requests_total{method="getMessage",outcome="ok"} 1`)
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}
