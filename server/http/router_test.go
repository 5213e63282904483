package serverhttp

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"match-service/internal/config"
	"match-service/internal/mapping"
	"match-service/internal/resolve/model"
	"match-service/internal/resolve/service"
)

func testRouterDeps(t *testing.T) (config.Config, *service.Resolver, *mapping.Store) {
	t.Helper()
	cfg := config.Config{AllowOrigins: []string{"*"}, MaxUploadMB: 4, Workers: 2}
	store := mapping.NewStore()
	res := service.NewResolver(zerolog.Nop(), service.DefaultOptions(), store, nil, service.NewStats(), store.Propose)
	require.NoError(t, res.SwapCatalog([]model.CatalogEntry{
		{ID: "1", Sku: "202-110-2000", Name: "Труба ПП 110х2000", PackQty: 10},
	}))
	return cfg, res, store
}

func TestRouterHealth(t *testing.T) {
	cfg, res, store := testRouterDeps(t)
	r := NewRouter(cfg, zerolog.Nop(), res, store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
	// request id проставлен цепочкой middleware
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouterResolve(t *testing.T) {
	cfg, res, store := testRouterDeps(t)
	r := NewRouter(cfg, zerolog.Nop(), res, store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/resolve", strings.NewReader(`{"sku":"202-110-2000"}`))
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"exact_sku"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total": 1`)
}

func TestRouterPprof(t *testing.T) {
	cfg, res, store := testRouterDeps(t)
	r := NewRouter(cfg, zerolog.Nop(), res, store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "goroutine")
}

func TestRouterMethodNotAllowed(t *testing.T) {
	cfg, res, store := testRouterDeps(t)
	r := NewRouter(cfg, zerolog.Nop(), res, store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/resolve", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
