package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transmaint/backend/internal/contracts"
	"github.com/transmaint/backend/internal/indicators"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func report() *indicators.BatchReport {
	return &indicators.BatchReport{
		RunID:  "3f1c",
		Period: contracts.Period{LineID: 4, Year: 2024, Month: 6},
		Results: []indicators.IndicatorResult{{
			Indicator: contracts.Indicator{ID: 1, Code: "KPI-001", Category: contracts.CategoryGestion},
			Measurement: contracts.Measurement{
				Value:     decimal.RequireFromString("87.5"),
				MeetsGoal: false,
				InAlert:   false,
			},
		}},
	}
}

func TestHub_BroadcastsBatch(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()
	defer hub.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.OnBatch(context.Background(), report())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var event MeasurementEvent
	require.NoError(t, json.Unmarshal(msg, &event))
	assert.Equal(t, "batch", event.Type)
	assert.Equal(t, "3f1c", event.RunID)
	assert.Equal(t, int64(4), event.LineID)
	assert.Equal(t, 6, event.Month)
	require.Len(t, event.Results, 1)
	assert.Equal(t, "KPI-001", event.Results[0].Code)
	assert.True(t, event.Results[0].Value.Equal(decimal.RequireFromString("87.5")))
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := NewHub(nil)
	// cliente sin conexión: nadie vacía su buffer
	c := &client{send: make(chan []byte, 1)}
	hub.register(c)

	require.NoError(t, hub.Broadcast(map[string]int{"n": 1}))
	assert.Equal(t, 1, hub.ClientCount())

	require.NoError(t, hub.Broadcast(map[string]int{"n": 2}))
	assert.Equal(t, 0, hub.ClientCount())
}

func TestNewMeasurementEvent(t *testing.T) {
	r := report()
	r.Skipped = []indicators.SkippedIndicator{{}}
	at := time.Date(2024, 7, 1, 2, 0, 0, 0, time.UTC)

	event := NewMeasurementEvent(r, at)

	assert.Equal(t, 1, event.Skipped)
	assert.Equal(t, 2024, event.Year)
	assert.Equal(t, at, event.OccurredAt)
	assert.Equal(t, "GESTION", event.Results[0].Category)
}
