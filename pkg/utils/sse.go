package utils

import (
	"fmt"
	"net/http"
	"strings"
)

// SSEEvent is one server-sent event. Empty fields are omitted.
type SSEEvent struct {
	ID    string
	Event string
	Data  string
}

// Format renders the event in text/event-stream framing. Multi-line data is
// split across several data fields.
func (e SSEEvent) Format() string {
	var b strings.Builder
	if e.ID != "" {
		fmt.Fprintf(&b, "id:%s\n", e.ID)
	}
	if e.Event != "" {
		fmt.Fprintf(&b, "event: %s\n", e.Event)
	}
	for _, line := range strings.Split(e.Data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")
	return b.String()
}

// SendSSEEvent 发送一个SSE事件并立即flush
func SendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event SSEEvent) error {
	if _, err := w.Write([]byte(event.Format())); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// SetupSSEHeaders 设置Server-Sent Events响应头
func SetupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}
