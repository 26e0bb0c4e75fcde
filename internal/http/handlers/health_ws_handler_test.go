package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/petway-backend/internal/ws"
)

type staticFeed int

func (f staticFeed) ClientCount() int { return int(f) }

func newPingDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return sqlx.NewDb(raw, "postgres"), mock
}

func TestHealthHandler_Healthy(t *testing.T) {
	db, mock := newPingDB(t)
	mock.ExpectPing()

	r := newTestRouter(uuid.Nil)
	r.GET("/health", NewHealthHandler(db, staticFeed(3)).Health)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := jsonBody(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(3), body["feed_clients"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthHandler_DatabaseDown(t *testing.T) {
	db, mock := newPingDB(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	r := newTestRouter(uuid.Nil)
	r.GET("/health", NewHealthHandler(db, nil).Health)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", jsonBody(t, w)["status"])
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func startFeedServer(t *testing.T, allowedOrigins []string) (*ws.Hub, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := ws.NewHub()
	go hub.Run(ctx)

	r := newTestRouter(uuid.Nil)
	r.GET("/ws", NewWSHandler(hub, allowedOrigins).Handle)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestWSHandler_ReceivesEvents(t *testing.T) {
	hub, url := startFeedServer(t, []string{"https://petway.example"})

	header := http.Header{"Origin": []string{"https://petway.example"}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, hub.Publish("pet.status_changed", map[string]string{"status": "found"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var event struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, "pet.status_changed", event.Type)
	assert.Equal(t, "found", event.Data["status"])
}

func TestWSHandler_RejectsUnknownOrigin(t *testing.T) {
	hub, url := startFeedServer(t, []string{"https://petway.example"})

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, hub.ClientCount())
}
