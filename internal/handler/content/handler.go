package content

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	cmsModel "github.com/zhouzirui/htmx-playground/backend/internal/model/cms"
	lbModel "github.com/zhouzirui/htmx-playground/backend/internal/model/leaderboard"
	"github.com/zhouzirui/htmx-playground/backend/internal/service/cms"
	"github.com/zhouzirui/htmx-playground/backend/pkg/utils"
)

// MaxItems 是 /api/sanity 返回的最大条目数
const MaxItems = 3

// ItemQuerier 执行 GROQ 查询
type ItemQuerier interface {
	Query(ctx context.Context, groq string) ([]cmsModel.Item, error)
}

// EntryLister 读取排行榜
type EntryLister interface {
	List(ctx context.Context) ([]lbModel.Entry, error)
}

// Handler 提供内容与排行榜 JSON 接口
type Handler struct {
	items   ItemQuerier
	entries EntryLister
}

// New 创建内容处理器；任一依赖为 nil 时对应接口返回 503
func New(items ItemQuerier, entries EntryLister) *Handler {
	return &Handler{items: items, entries: entries}
}

// RegisterRoutes 注册内容路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sanity", h.handleItems)
	r.Get("/leaderboard", h.handleLeaderboard)
}

func (h *Handler) handleItems(w http.ResponseWriter, r *http.Request) {
	if h.items == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "content service is not configured")
		return
	}

	items, err := h.items.Query(r.Context(), cms.ItemsQuery)
	if err != nil {
		log.Error().Err(err).Str("component", "content").Msg("item query failed")
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, cms.Summaries(items, MaxItems))
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if h.entries == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "leaderboard is not configured")
		return
	}

	entries, err := h.entries.List(r.Context())
	if err != nil {
		log.Error().Err(err).Str("component", "content").Msg("leaderboard query failed")
		utils.RespondError(w, http.StatusInternalServerError, "leaderboard unavailable")
		return
	}
	utils.RespondJSON(w, http.StatusOK, entries)
}
