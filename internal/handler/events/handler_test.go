package events

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

const chunk = "id:1\ndata: Server-sent event \n\n"

func TestEventsStreamsUntilClientLeaves(t *testing.T) {
	r := chi.NewRouter()
	New(10 * time.Millisecond).RegisterRoutes(r)

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "text/event-stream", resp.Header().Get("Content-Type"))
	require.Equal(t, "no-cache", resp.Header().Get("Cache-Control"))

	body := resp.Body.String()
	require.GreaterOrEqual(t, strings.Count(body, chunk), 2)
	require.Empty(t, strings.ReplaceAll(body, chunk, ""))
}

func TestEventsOverHTTP(t *testing.T) {
	r := chi.NewRouter()
	New(5 * time.Millisecond).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	res, err := srv.Client().Get(srv.URL + "/events")
	require.NoError(t, err)
	defer res.Body.Close()

	reader := bufio.NewReader(res.Body)
	for i := 0; i < 3; i++ {
		id, err := reader.ReadString('\n')
		require.NoError(t, err)
		require.Equal(t, "id:1\n", id)
		data, err := reader.ReadString('\n')
		require.NoError(t, err)
		require.Equal(t, "data: Server-sent event \n", data)
		blank, err := reader.ReadString('\n')
		require.NoError(t, err)
		require.Equal(t, "\n", blank)
	}
}

func TestNewDefaultsInterval(t *testing.T) {
	require.Equal(t, DefaultInterval, New(0).interval)
}
