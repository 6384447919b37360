package live

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StalkPull/internal/domain/models"
)

type stubMetrics struct{ clients int }

func (m *stubMetrics) RecordForecast(string, string, float64) {}
func (m *stubMetrics) RecordReport(string)                    {}
func (m *stubMetrics) RecordCacheLookup(bool)                 {}
func (m *stubMetrics) RecordError(string)                     {}
func (m *stubMetrics) SetLiveClients(n int)                   { m.clients = n }

func dialHub(t *testing.T, hub *Hub, island string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Subscribe(w, r, island)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHubBroadcastReachesSubscriber(t *testing.T) {
	metrics := &stubMetrics{}
	hub := NewHub(metrics)
	defer hub.Close()

	conn := dialHub(t, hub, "lativ")
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	hub.Broadcast("lativ", &models.Prediction{Island: "lativ", TopPattern: "random"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var got models.Prediction
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, "lativ", got.Island)
	assert.Equal(t, "random", got.TopPattern)
	assert.Equal(t, 1, metrics.clients)
}

func TestHubBroadcastIsScopedToIsland(t *testing.T) {
	hub := NewHub(&stubMetrics{})
	defer hub.Close()

	conn := dialHub(t, hub, "lativ")
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	hub.Broadcast("elsewhere", &models.Prediction{Island: "elsewhere"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "no frame expected for another island")
}

func TestHubCloseDropsSubscribers(t *testing.T) {
	metrics := &stubMetrics{}
	hub := NewHub(metrics)

	conn := dialHub(t, hub, "lativ")
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	hub.Close()
	assert.Zero(t, hub.Clients())
	assert.Zero(t, metrics.clients)

	// The peer sees a close frame once the writer drains.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	// Late subscriptions are refused outright.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Subscribe(w, r, "lativ")
	}))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	late, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		defer late.Close()
		require.NoError(t, late.SetReadDeadline(time.Now().Add(time.Second)))
		_, _, readErr := late.ReadMessage()
		assert.Error(t, readErr)
	}
	assert.Zero(t, hub.Clients())
}
