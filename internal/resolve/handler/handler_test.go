package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
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

func testConfig() config.Config {
	return config.Config{Workers: 2, MaxUploadMB: 4}
}

func testResolver(t *testing.T, store *mapping.Store) *service.Resolver {
	t.Helper()
	var propose service.ProposalFunc
	var mappings service.MappingStore
	if store != nil {
		propose = store.Propose
		mappings = store
	}
	r := service.NewResolver(zerolog.Nop(), service.DefaultOptions(), mappings, nil, service.NewStats(), propose)
	require.NoError(t, r.SwapCatalog([]model.CatalogEntry{
		{ID: "1", Sku: "202-110-2000", Name: "Труба ПП 110х2000 серая", PackQty: 10},
		{ID: "2", Sku: "204-110", Name: "Заглушка 110", PackQty: 50},
	}))
	return r
}

func TestResolveSingle(t *testing.T) {
	res := testResolver(t, nil)
	h := Resolve(testConfig(), zerolog.Nop(), res)

	body := `{"client_id":"c1","sku":"202-110-2000","name":"Труба","qty":5}`
	req := httptest.NewRequest(http.MethodPost, "/resolve", strings.NewReader(body))
	w := httptest.NewRecorder()
	h(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var out model.MatchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "1", out.EntryID)
	assert.Equal(t, model.MatchExactSku, out.MatchType)
	assert.Equal(t, 100, out.Confidence)
}

func TestResolveArray(t *testing.T) {
	res := testResolver(t, nil)
	h := Resolve(testConfig(), zerolog.Nop(), res)

	body := `[{"sku":"202-110-2000"},{"sku":"","name":""},{"sku":"204.110"}]`
	req := httptest.NewRequest(http.MethodPost, "/resolve", strings.NewReader(body))
	w := httptest.NewRecorder()
	h(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var out []model.MatchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 3)
	assert.Equal(t, "1", out[0].EntryID)
	assert.Equal(t, model.MatchNotFound, out[1].MatchType)
	assert.Equal(t, "2", out[2].EntryID)
}

func TestResolveBadRequests(t *testing.T) {
	h := Resolve(testConfig(), zerolog.Nop(), testResolver(t, nil))

	for _, body := range []string{"", "не json", "[{]"} {
		req := httptest.NewRequest(http.MethodPost, "/resolve", strings.NewReader(body))
		w := httptest.NewRecorder()
		h(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
	}
}

func multipartFile(t *testing.T, field, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestResolveFile(t *testing.T) {
	res := testResolver(t, nil)
	h := ResolveFile(testConfig(), zerolog.Nop(), res)

	csv := "Артикул,Наименование,Количество\n202-110-2000,Труба ПП,5\n,Заглушка 110,2\n"
	buf, ct := multipartFile(t, "file", "заказ.csv", csv, map[string]string{"client_id": "c1"})

	req := httptest.NewRequest(http.MethodPost, "/resolve/file", buf)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	h(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Lines   []model.OrderLine   `json:"lines"`
		Results []model.MatchResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Lines, 2)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "c1", out.Lines[0].ClientID)
	assert.Equal(t, 5.0, out.Lines[0].Qty)
	assert.Equal(t, "1", out.Results[0].EntryID)
	assert.Equal(t, "2", out.Results[1].EntryID) // по имени, артикула нет
}

func TestResolveFileMissingFile(t *testing.T) {
	h := ResolveFile(testConfig(), zerolog.Nop(), testResolver(t, nil))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/resolve/file", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshCatalog(t *testing.T) {
	res := testResolver(t, nil)
	h := RefreshCatalog(testConfig(), zerolog.Nop(), res)

	csv := "Артикул,Наименование\n301-50,Муфта 50\n"
	buf, ct := multipartFile(t, "file", "каталог.csv", csv, nil)

	req := httptest.NewRequest(http.MethodPost, "/catalog/refresh", buf)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	h(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, res.CatalogSize())

	// старый каталог подменён целиком
	r := res.Resolve(context.Background(), model.OrderLine{Sku: "202-110-2000"})
	assert.Equal(t, model.MatchNotFound, r.MatchType)
}

func TestRefreshCatalogRejectsDuplicates(t *testing.T) {
	res := testResolver(t, nil)
	h := RefreshCatalog(testConfig(), zerolog.Nop(), res)

	csv := "Артикул,Наименование\n301-50,Муфта 50\n301.50,Муфта 50 другая\n"
	buf, ct := multipartFile(t, "file", "каталог.csv", csv, nil)

	req := httptest.NewRequest(http.MethodPost, "/catalog/refresh", buf)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	h(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	// прежний снапшот в работе
	assert.Equal(t, 2, res.CatalogSize())
}

func TestImportMappingsAndResolve(t *testing.T) {
	store := mapping.NewStore()
	res := testResolver(t, store)
	h := ImportMappings(testConfig(), zerolog.Nop(), store)

	csv := "Артикул клиента,Товар,Подтверждён\nAB-7,2,да\n"
	buf, ct := multipartFile(t, "file", "маппинги.csv", csv, map[string]string{"client_id": "c1"})

	req := httptest.NewRequest(http.MethodPost, "/mappings/import", buf)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	h(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, store.Size())

	// импортированный маппинг срабатывает в каскаде
	r := res.Resolve(context.Background(), model.OrderLine{ClientID: "c1", Sku: "AB-7"})
	assert.Equal(t, model.MatchCachedMapping, r.MatchType)
	assert.Equal(t, "2", r.EntryID)
}

func TestStatsEndpoints(t *testing.T) {
	res := testResolver(t, nil)
	res.Resolve(context.Background(), model.OrderLine{Sku: "202-110-2000"})

	w := httptest.NewRecorder()
	Stats(res)(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var snap model.StatsSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, 1, snap.Total)

	w = httptest.NewRecorder()
	ResetStats(zerolog.Nop(), res)(w, httptest.NewRequest(http.MethodPost, "/stats/reset", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, res.Stats().Snapshot().Total)
}

func TestProposalsEndpoint(t *testing.T) {
	store := mapping.NewStore()
	res := testResolver(t, store)

	// fuzzy с достаточной уверенностью порождает предложение
	r := res.Resolve(context.Background(), model.OrderLine{ClientID: "c1", Name: "Труба 110-2000 ПП"})
	require.Equal(t, model.MatchFuzzyName, r.MatchType)

	w := httptest.NewRecorder()
	Proposals(zerolog.Nop(), store)(w, httptest.NewRequest(http.MethodGet, "/mappings/proposals", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var props []model.CachedMapping
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &props))
	require.Len(t, props, 1)
	assert.Equal(t, "1", props[0].EntryID)
}
