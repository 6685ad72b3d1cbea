package handler

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/htmx-playground/backend/internal/config"
	"github.com/zhouzirui/htmx-playground/backend/internal/service/realtime"
)

func setupServer(t *testing.T) (*httptest.Server, *realtime.Registry) {
	t.Helper()
	registry := realtime.NewRegistry()
	router, err := NewRouter(Dependencies{
		Session: config.SessionConfig{
			Greeting:     realtime.DefaultGreeting,
			PingInterval: time.Minute,
			PongWait:     time.Minute,
			WriteTimeout: time.Second,
			ReadLimit:    1 << 16,
		},
		Registry: registry,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, registry
}

func TestRouterServesRoutes(t *testing.T) {
	srv, _ := setupServer(t)

	cases := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/about", http.StatusOK},
		{http.MethodGet, "/increment", http.StatusOK},
		{http.MethodGet, "/name/ferris", http.StatusOK},
		{http.MethodGet, "/api/open_dialog", http.StatusOK},
		{http.MethodGet, "/api/sanity", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/leaderboard", http.StatusServiceUnavailable},
		{http.MethodPost, "/login", http.StatusServiceUnavailable},
		{http.MethodPost, "/logout", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/missing", http.StatusNotFound},
	}
	for _, tc := range cases {
		req, err := http.NewRequest(tc.method, srv.URL+tc.path, nil)
		require.NoError(t, err)
		res, err := srv.Client().Do(req)
		require.NoError(t, err)
		res.Body.Close()
		require.Equal(t, tc.status, res.StatusCode, "%s %s", tc.method, tc.path)
	}
}

func TestHealthzCountsSessions(t *testing.T) {
	srv, registry := setupServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	_, greeting, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, realtime.DefaultGreeting, string(greeting))

	require.Eventually(t, func() bool { return registry.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	res, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"ok","sessions":1}`, string(body))
}
