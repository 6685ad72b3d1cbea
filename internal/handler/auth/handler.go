package auth

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/htmx-playground/backend/internal/metrics"
	model "github.com/zhouzirui/htmx-playground/backend/internal/model/auth"
	authService "github.com/zhouzirui/htmx-playground/backend/internal/service/auth"
	"github.com/zhouzirui/htmx-playground/backend/pkg/utils"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// Exchanger 用邮箱密码换取会话令牌
type Exchanger interface {
	Exchange(ctx context.Context, creds model.Credentials) (*model.Tokens, error)
}

var fragments = template.Must(template.New("auth").Parse(`
{{define "login"}}<form hx-boost="true" id="form" hx-post="/login">
  <input type="text" name="email" value="" placeholder="email" />
  <input type="password" name="password" value="" placeholder="password" />
  <button type="submit">Login</button>
  {{if .}}<h1>{{.}}</h1>{{end}}
</form>
{{end}}
{{define "logout"}}<form hx-boost="true" id="form" hx-post="/logout">
  <button type="submit">Logout</button>
  <h1>Logged in as {{.}}</h1>
</form>
{{end}}`))

// Handler 处理登录与登出
type Handler struct {
	client Exchanger
}

// New 创建登录处理器；client 为 nil 时登录返回 503
func New(client Exchanger) *Handler {
	return &Handler{client: client}
}

// RegisterRoutes 注册登录相关路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "authentication is not configured")
		return
	}

	if err := r.ParseForm(); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid form")
		return
	}
	creds := model.Credentials{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}

	tokens, err := h.client.Exchange(r.Context(), creds)
	switch {
	case errors.Is(err, authService.ErrInvalidCredentials):
		metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		h.render(w, "login", "Invalid credentials")
		return
	case err != nil:
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		log.Error().Err(err).Str("component", "auth").Msg("token exchange failed")
		utils.RespondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	metrics.LoginAttempts.WithLabelValues("ok").Inc()
	log.Info().Str("component", "auth").Str("user_id", tokens.User.ID).Msg("user logged in")

	http.SetCookie(w, sessionCookie(AccessTokenCookie, tokens.AccessToken, 0))
	http.SetCookie(w, sessionCookie(RefreshTokenCookie, tokens.RefreshToken, 0))
	h.render(w, "logout", tokens.User.Email)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, sessionCookie(AccessTokenCookie, "", -1))
	http.SetCookie(w, sessionCookie(RefreshTokenCookie, "", -1))
	h.render(w, "login", "Logged out")
}

func sessionCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := fragments.ExecuteTemplate(&buf, name, data); err != nil {
		log.Error().Err(err).Str("component", "auth").Msg("render failed")
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	utils.RespondHTML(w, http.StatusOK, buf.String())
}
