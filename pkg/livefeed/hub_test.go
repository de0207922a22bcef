package livefeed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/NotCoffee418/emu2mqtt/pkg/types"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	h := NewHub()
	h.now = func() time.Time { return time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC) }
	return h
}

func (h *Hub) clientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func TestStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHub().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"EMU-2 MQTT Bridge","status":"running"}`, rec.Body.String())
}

func TestLatest(t *testing.T) {
	h := newTestHub()

	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/latest", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, h.Publish(types.MetricSummationDelivered, 10.5))
	require.NoError(t, h.Publish(types.MetricInstantaneousDemand, 1.5))
	require.NoError(t, h.Publish(types.MetricInstantaneousDemand, 1.788))

	rec = httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/latest", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got []types.FeedReading
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, types.MetricReading{Metric: "InstantaneousDemand", Value: 1.788}, got[0].MetricReading)
	assert.Equal(t, types.MetricReading{Metric: "SummationDelivered", Value: 10.5}, got[1].MetricReading)
	assert.Equal(t, "2026-10-14T12:00:00Z", got[0].Timestamp)
}

func TestWebSocketBroadcast(t *testing.T) {
	h := newTestHub()
	require.NoError(t, h.Publish(types.MetricSummationDelivered, 10.5))

	server := httptest.NewServer(h.Handler())
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	first := types.FeedReadingFromJsonBytes(msg)
	require.NotNil(t, first)
	assert.Equal(t, "SummationDelivered", first.Metric)

	require.Eventually(t, func() bool { return h.clientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, h.Publish(types.MetricInstantaneousDemand, 1.788))

	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	second := types.FeedReadingFromJsonBytes(msg)
	require.NotNil(t, second)
	assert.Equal(t, types.MetricReading{Metric: "InstantaneousDemand", Value: 1.788}, second.MetricReading)
}

func TestSlowClientDoesNotBlockPublish(t *testing.T) {
	h := newTestHub()
	h.sendBuffer = 2
	h.writeWait = 100 * time.Millisecond

	server := httptest.NewServer(h.Handler())
	defer server.Close()

	// never reads
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return h.clientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	metric := strings.Repeat("x", 1<<20)
	start := time.Now()
	for i := 0; i < 64; i++ {
		require.NoError(t, h.Publish(metric, float64(i)))
	}
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Eventually(t, func() bool { return h.clientCount() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestStartListener(t *testing.T) {
	h := newTestHub()
	require.NoError(t, h.Publish(types.MetricInstantaneousDemand, 1.788))

	server := httptest.NewServer(h.Handler())
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *types.FeedReading, 4)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		StartListener(ctx, strings.TrimPrefix(server.URL, "http://"), func(r *types.FeedReading) {
			received <- r
		})
	}()

	select {
	case r := <-received:
		assert.Equal(t, "InstantaneousDemand", r.Metric)
		assert.Equal(t, 1.788, r.Value)
	case <-time.After(5 * time.Second):
		t.Fatal("no reading received")
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- newTestHub().Serve(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
