package events

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/htmx-playground/backend/pkg/utils"
)

// DefaultInterval 是两次事件之间的间隔
const DefaultInterval = time.Second

var tick = utils.SSEEvent{ID: "1", Data: "Server-sent event "}

// Handler 提供 Server-Sent Events 演示流
type Handler struct {
	interval time.Duration
}

// New 创建 SSE 处理器；interval<=0 时使用 DefaultInterval
func New(interval time.Duration) *Handler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Handler{interval: interval}
}

// RegisterRoutes 注册 SSE 路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/events", h.handleEvents)
}

// handleEvents 立即发送一个事件，之后每个间隔发送一次，直到客户端断开
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	logger := log.With().Str("component", "sse").Str("remote", r.RemoteAddr).Logger()
	logger.Debug().Msg("event stream opened")
	defer logger.Debug().Msg("event stream closed")

	if err := utils.SendSSEEvent(w, flusher, tick); err != nil {
		return
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := utils.SendSSEEvent(w, flusher, tick); err != nil {
				logger.Debug().Err(err).Msg("event write failed")
				return
			}
		}
	}
}
