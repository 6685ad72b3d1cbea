package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/htmx-playground/backend/internal/config"
	"github.com/zhouzirui/htmx-playground/backend/internal/handler/auth"
	"github.com/zhouzirui/htmx-playground/backend/internal/handler/content"
	"github.com/zhouzirui/htmx-playground/backend/internal/handler/events"
	"github.com/zhouzirui/htmx-playground/backend/internal/handler/pages"
	"github.com/zhouzirui/htmx-playground/backend/internal/handler/ws"
	"github.com/zhouzirui/htmx-playground/backend/internal/metrics"
	middlewarePkg "github.com/zhouzirui/htmx-playground/backend/internal/middleware"
	"github.com/zhouzirui/htmx-playground/backend/internal/service/counter"
	"github.com/zhouzirui/htmx-playground/backend/internal/service/realtime"
	"github.com/zhouzirui/htmx-playground/backend/pkg/utils"
)

// Dependencies 汇总路由需要的服务；Auth、Items、Leaderboard 为 nil 时对应接口返回 503
type Dependencies struct {
	Session        config.SessionConfig
	Registry       *realtime.Registry
	Counter        counter.Store
	Auth           auth.Exchanger
	Items          content.ItemQuerier
	Leaderboard    content.EntryLister
	EventsInterval time.Duration
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) (http.Handler, error) {
	if deps.Registry == nil {
		deps.Registry = realtime.NewRegistry()
	}
	if deps.Counter == nil {
		deps.Counter = counter.NewMemoryStore()
	}

	pageHandler, err := pages.New(deps.Counter)
	if err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}
	wsHandler := ws.New(deps.Session, deps.Registry)
	eventsHandler := events.New(deps.EventsInterval)
	authHandler := auth.New(deps.Auth)
	contentHandler := content.New(deps.Items, deps.Leaderboard)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Handle("/metrics", metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": deps.Registry.Count(),
		})
	})

	pageHandler.RegisterRoutes(r)
	wsHandler.RegisterRoutes(r)
	eventsHandler.RegisterRoutes(r)
	authHandler.RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		contentHandler.RegisterRoutes(api)
		pageHandler.RegisterAPIRoutes(api)
	})

	return r, nil
}
