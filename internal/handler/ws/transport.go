package ws

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/zhouzirui/htmx-playground/backend/internal/metrics"
	"github.com/zhouzirui/htmx-playground/backend/internal/service/realtime"
)

// connTransport adapts a gorilla connection to realtime.Transport.
// Data frames are only written from the read goroutine; close frames go
// through WriteControl, which gorilla allows concurrently.
type connTransport struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func newConnTransport(conn *websocket.Conn, writeTimeout time.Duration) *connTransport {
	return &connTransport{conn: conn, writeTimeout: writeTimeout}
}

func (t *connTransport) WriteText(text string) error {
	return t.write(websocket.TextMessage, []byte(text))
}

func (t *connTransport) WriteBinary(data []byte) error {
	return t.write(websocket.BinaryMessage, data)
}

func (t *connTransport) WriteClose(reason *realtime.CloseReason) error {
	payload := websocket.FormatCloseMessage(websocket.CloseNoStatusReceived, "")
	if reason != nil {
		payload = websocket.FormatCloseMessage(reason.Code, reason.Text)
	}
	metrics.FramesTotal.WithLabelValues("out", realtime.FrameClose.String()).Inc()
	return t.conn.WriteControl(websocket.CloseMessage, payload, t.deadline())
}

func (t *connTransport) Close() error {
	return t.conn.Close()
}

func (t *connTransport) write(messageType int, data []byte) error {
	kind := realtime.FrameText
	if messageType == websocket.BinaryMessage {
		kind = realtime.FrameBinary
	}
	metrics.FramesTotal.WithLabelValues("out", kind.String()).Inc()

	if err := t.conn.SetWriteDeadline(t.deadline()); err != nil {
		return err
	}
	return t.conn.WriteMessage(messageType, data)
}

func (t *connTransport) deadline() time.Time {
	if t.writeTimeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(t.writeTimeout)
}
