package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSSEEventFormat(t *testing.T) {
	cases := []struct {
		name  string
		event SSEEvent
		want  string
	}{
		{"id and data", SSEEvent{ID: "1", Data: "Server-sent event "}, "id:1\ndata: Server-sent event \n\n"},
		{"named event", SSEEvent{Event: "heartbeat", Data: "ping"}, "event: heartbeat\ndata: ping\n\n"},
		{"multiline", SSEEvent{Data: "a\nb"}, "data: a\ndata: b\n\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.event.Format())
		})
	}
}

func TestSendSSEEventFlushes(t *testing.T) {
	rec := httptest.NewRecorder()
	SetupSSEHeaders(rec)

	require.NoError(t, SendSSEEvent(rec, rec, SSEEvent{Data: "x"}))
	require.True(t, rec.Flushed)
	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	require.Equal(t, "data: x\n\n", rec.Body.String())
}

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, 503, "unavailable")

	require.Equal(t, 503, rec.Code)
	require.JSONEq(t, `{"error":"unavailable"}`, rec.Body.String())
}
