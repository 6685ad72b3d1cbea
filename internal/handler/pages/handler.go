package pages

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/htmx-playground/backend/internal/metrics"
	"github.com/zhouzirui/htmx-playground/backend/internal/service/counter"
	"github.com/zhouzirui/htmx-playground/backend/pkg/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

// CounterCookie 是按用户计数的 cookie 名
const CounterCookie = "counter"

const openDialogFragment = `<dialog id="dialog"
    class="absolute top-0 left-0 right-0 bottom-0 bg-blue-500 outline-black outline rounded-xl text-white p-4" open>
    <h1>Olla I am dialog</h1>
    <p>
      Lorem ipsum dolor sit amet, qui minim labore adipisicing minim sint cillum
      sint consectetur cupidatat.
    </p>
    <div>
      <button class="bg-white text-blue-500 px-4 py-2 rounded-xl" hx-get="/api/close_dialog" hx-target="#dialog" hx-swap="outerHTML">Close</button>
    </div>
  </dialog>
`

const closeDialogFragment = `<dialog id="dialog" class="absolute top-0 left-0 right-0 bottom-0 bg-blue-500 outline-black outline rounded-xl text-white p-4"></dialog>`

// Navigation 标记当前页面，用于高亮导航
type Navigation struct {
	CurrentPage string
}

// IsCurrent reports whether page is the one being rendered.
func (n Navigation) IsCurrent(page string) bool {
	return n.CurrentPage == page
}

type pageData struct {
	Navigation Navigation
}

type counterData struct {
	Name     string
	LastName string
	Counter  int64
}

type userCounterData struct {
	Name        string
	LastName    string
	UserCounter int
}

// Handler 渲染页面与 htmx 片段
type Handler struct {
	pages     map[string]*template.Template
	fragments *template.Template
	counter   counter.Store
}

// New 解析内嵌模板并创建页面处理器
func New(store counter.Store) (*Handler, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{"home", "about", "content", "draganddrop"} {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("pages: parse %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	fragments, err := template.ParseFS(templateFS, "templates/comp.html", "templates/comp-user.html")
	if err != nil {
		return nil, fmt.Errorf("pages: parse fragments: %w", err)
	}

	return &Handler{pages: pages, fragments: fragments, counter: store}, nil
}

// RegisterRoutes 注册页面与片段路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.page("home"))
	r.Get("/about", h.page("about"))
	r.Get("/content", h.page("content"))
	r.Get("/draganddrop", h.page("draganddrop"))
	r.Get("/increment", h.handleIncrement)
	r.Get("/cookie", h.handleCookie)
	r.Get("/name/{name}", h.handleHello)
}

// RegisterAPIRoutes 注册挂在 /api 下的对话框片段
func (h *Handler) RegisterAPIRoutes(api chi.Router) {
	api.Get("/open_dialog", h.handleOpenDialog)
	api.Get("/close_dialog", h.handleCloseDialog)
}

func (h *Handler) page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.render(w, h.pages[name], "layout", pageData{Navigation: Navigation{CurrentPage: name}})
	}
}

// handleIncrement 递增全局计数器
func (h *Handler) handleIncrement(w http.ResponseWriter, r *http.Request) {
	n, err := h.counter.Increment(r.Context())
	if err != nil {
		log.Error().Err(err).Str("component", "pages").Msg("counter increment failed")
		http.Error(w, "counter unavailable", http.StatusInternalServerError)
		return
	}
	metrics.CounterIncrements.Inc()

	h.render(w, h.fragments, "comp.html", counterData{
		Name:     "Increment-Andrey",
		LastName: "Kowalski",
		Counter:  n,
	})
}

// handleCookie 基于 cookie 的用户计数器
func (h *Handler) handleCookie(w http.ResponseWriter, r *http.Request) {
	next := nextCookieCount(r)
	http.SetCookie(w, &http.Cookie{Name: CounterCookie, Value: strconv.Itoa(next), Path: "/"})

	h.render(w, h.fragments, "comp-user.html", userCounterData{
		Name:        "Cookie-Andrzej",
		LastName:    "Kowalski",
		UserCounter: next,
	})
}

// nextCookieCount: absent cookie starts at 0, an unparsable one restarts at 1.
func nextCookieCount(r *http.Request) int {
	c, err := r.Cookie(CounterCookie)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(c.Value)
	if err != nil {
		n = 0
	}
	return n + 1
}

func (h *Handler) handleHello(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("hello " + chi.URLParam(r, "name")))
}

func (h *Handler) handleOpenDialog(w http.ResponseWriter, r *http.Request) {
	utils.RespondHTML(w, http.StatusOK, openDialogFragment)
}

func (h *Handler) handleCloseDialog(w http.ResponseWriter, r *http.Request) {
	utils.RespondHTML(w, http.StatusOK, closeDialogFragment)
}

// render 先渲染到缓冲区，模板出错时返回 500 而不是半截页面
func (h *Handler) render(w http.ResponseWriter, tmpl *template.Template, name string, data any) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		log.Error().Err(err).Str("component", "pages").Str("template", name).Msg("render failed")
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	utils.RespondHTML(w, http.StatusOK, buf.String())
}
