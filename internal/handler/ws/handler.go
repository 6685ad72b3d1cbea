package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/htmx-playground/backend/internal/config"
	"github.com/zhouzirui/htmx-playground/backend/internal/metrics"
	"github.com/zhouzirui/htmx-playground/backend/internal/service/realtime"
)

// Handler 负责把 HTTP 请求升级为 WebSocket，并为每个连接驱动一个 realtime.Session
type Handler struct {
	cfg      config.SessionConfig
	registry *realtime.Registry
	upgrader websocket.Upgrader
}

// New 创建 WebSocket 处理器
func New(cfg config.SessionConfig, registry *realtime.Registry) *Handler {
	return &Handler{
		cfg:      cfg,
		registry: registry,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册 WebSocket 路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/", h.handleWebSocket)
}

// handleWebSocket 处理单个 WebSocket 连接，直到连接结束
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("component", "ws").Msg("upgrade failed")
		return
	}

	connID := uuid.NewString()
	logger := log.With().Str("component", "ws").Str("conn_id", connID).Str("remote", r.RemoteAddr).Logger()

	if h.cfg.ReadLimit > 0 {
		conn.SetReadLimit(h.cfg.ReadLimit)
	}
	// The session acknowledges close frames itself.
	conn.SetCloseHandler(func(int, string) error { return nil })

	transport := newConnTransport(conn, h.cfg.WriteTimeout)
	session := realtime.NewSession(connID, transport,
		realtime.WithGreeting(h.cfg.Greeting),
		realtime.WithLogger(logger),
	)

	h.registry.Add(session)
	metrics.SessionsActive.Inc()
	defer func() {
		h.registry.Remove(connID)
		metrics.SessionsActive.Dec()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.armReadDeadline(conn)
	conn.SetPongHandler(func(string) error {
		h.armReadDeadline(conn)
		return nil
	})

	session.Start()
	go h.pingLoop(ctx, conn)

	h.readLoop(conn, session)
}

// readLoop 逐帧读取并交给 session，保证同一连接的帧按顺序串行处理
func (h *Handler) readLoop(conn *websocket.Conn, session *realtime.Session) {
	for session.State() == realtime.StateActive {
		frame, err := readFrame(conn)
		if err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Warn().Err(err).Str("component", "ws").Str("conn_id", session.ID()).Msg("read error")
				}
				session.Abort()
				return
			}
			frame = realtime.CloseFrame(closeReason(closeErr))
		}

		h.armReadDeadline(conn)
		metrics.FramesTotal.WithLabelValues("in", frame.Kind.String()).Inc()
		session.Handle(frame)
	}
	session.Abort()
}

// readFrame maps one gorilla message onto the session frame alphabet.
// gorilla reassembles continuation frames and answers pings internally.
func readFrame(conn *websocket.Conn) (realtime.Frame, error) {
	messageType, data, err := conn.ReadMessage()
	if err != nil {
		return realtime.Frame{}, err
	}

	switch messageType {
	case websocket.TextMessage:
		return realtime.TextFrame(string(data)), nil
	case websocket.BinaryMessage:
		return realtime.BinaryFrame(data), nil
	default:
		return realtime.Frame{Kind: realtime.FrameNop}, nil
	}
}

func closeReason(err *websocket.CloseError) *realtime.CloseReason {
	if err.Code == websocket.CloseNoStatusReceived {
		return nil
	}
	return &realtime.CloseReason{Code: err.Code, Text: err.Text}
}

func (h *Handler) armReadDeadline(conn *websocket.Conn) {
	if h.cfg.PongWait <= 0 {
		return
	}
	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
}

// pingLoop 定期发送 ping 消息
func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	if h.cfg.PingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(h.cfg.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}
