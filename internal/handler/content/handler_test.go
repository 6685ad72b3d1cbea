package content

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	cmsModel "github.com/zhouzirui/htmx-playground/backend/internal/model/cms"
	lbModel "github.com/zhouzirui/htmx-playground/backend/internal/model/leaderboard"
	"github.com/zhouzirui/htmx-playground/backend/internal/service/cms"
)

type stubItems struct {
	items []cmsModel.Item
	err   error
	query string
}

func (s *stubItems) Query(_ context.Context, groq string) ([]cmsModel.Item, error) {
	s.query = groq
	return s.items, s.err
}

type stubEntries struct {
	entries []lbModel.Entry
	err     error
}

func (s *stubEntries) List(context.Context) ([]lbModel.Entry, error) {
	return s.entries, s.err
}

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Route("/api", h.RegisterRoutes)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
	return resp
}

func TestItemsReturnsAtMostThreeNames(t *testing.T) {
	stub := &stubItems{items: []cmsModel.Item{
		{Name: "a", Description: "hidden"}, {Name: "b"}, {Name: "c"}, {Name: "d"},
	}}

	resp := serve(New(stub, nil), "/api/sanity")

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, cms.ItemsQuery, stub.query)
	require.JSONEq(t, `[{"name":"a"},{"name":"b"},{"name":"c"}]`, resp.Body.String())
}

func TestItemsEmptyResult(t *testing.T) {
	resp := serve(New(&stubItems{}, nil), "/api/sanity")

	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, `[]`, resp.Body.String())
}

func TestItemsFailure(t *testing.T) {
	resp := serve(New(&stubItems{err: cms.ErrMalformedResponse}, nil), "/api/sanity")

	require.Equal(t, http.StatusInternalServerError, resp.Code)
	require.Contains(t, resp.Body.String(), "malformed")
}

func TestLeaderboard(t *testing.T) {
	stub := &stubEntries{entries: []lbModel.Entry{{ID: 2, Name: "alice", Score: 30}, {ID: 1, Name: "bob", Score: 10}}}

	resp := serve(New(nil, stub), "/api/leaderboard")

	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), `"name":"alice"`)

	failed := serve(New(nil, &stubEntries{err: errors.New("db down")}), "/api/leaderboard")
	require.Equal(t, http.StatusInternalServerError, failed.Code)
}

func TestDisabledCollaborators(t *testing.T) {
	h := New(nil, nil)

	require.Equal(t, http.StatusServiceUnavailable, serve(h, "/api/sanity").Code)
	require.Equal(t, http.StatusServiceUnavailable, serve(h, "/api/leaderboard").Code)
}
