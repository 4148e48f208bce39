package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"paper-vault/config"
	"paper-vault/models"
	"paper-vault/repository"
	"paper-vault/services"
)

func setupTestRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if cfg == nil {
		cfg = &config.Config{ListLimit: 100}
	}
	svc := services.NewPaperService(repository.NewMemoryPaperRepository(), zap.NewNop())
	return newRouter(cfg, svc, zap.NewNop())
}

func doJSON(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

const createBody = `{
	"id": "http://arxiv.org/abs/2210.06998v2",
	"title": "T",
	"summary": "S",
	"published": "2022-10-13T13:08:54Z",
	"updated": "2023-01-09T16:33:43Z",
	"pdf_url": "http://arxiv.org/pdf/2210.06998v2"
}`

func TestPaperCRUDScenario(t *testing.T) {
	router := setupTestRouter(t, nil)
	id := "http://arxiv.org/abs/2210.06998v2"

	// Create
	resp := doJSON(router, http.MethodPost, "/paper/", createBody)
	require.Equal(t, http.StatusCreated, resp.Code)

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	require.Equal(t, id, created["id"])
	require.Equal(t, "T", created["title"])
	require.Equal(t, "2022-10-13T13:08:54Z", created["published"])
	require.Nil(t, created["download_path"])
	require.Nil(t, created["doi"])
	require.Nil(t, created["comment"])

	// Doppelter Create liefert 409
	resp = doJSON(router, http.MethodPost, "/paper/", createBody)
	require.Equal(t, http.StatusConflict, resp.Code)

	// Get über die prozent-kodierte ID
	resp = doJSON(router, http.MethodGet, "/paper/"+url.PathEscape(id), "")
	require.Equal(t, http.StatusOK, resp.Code)
	var fetched map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &fetched))
	require.Equal(t, created, fetched)

	// Get über die rohe ID mit Slashes funktioniert ebenfalls
	resp = doJSON(router, http.MethodGet, "/paper/"+id, "")
	require.Equal(t, http.StatusOK, resp.Code)

	// Partielles Update ändert nur den Titel
	resp = doJSON(router, http.MethodPut, "/paper/"+url.PathEscape(id), `{"title":"New"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	var updated map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
	require.Equal(t, "New", updated["title"])
	require.Equal(t, "S", updated["summary"])
	require.Equal(t, "2022-10-13T13:08:54Z", updated["published"])

	// Leeres Update ist ein No-Op und liefert 304
	resp = doJSON(router, http.MethodPut, "/paper/"+url.PathEscape(id), `{}`)
	require.Equal(t, http.StatusNotModified, resp.Code)

	// Delete ist idempotent
	resp = doJSON(router, http.MethodDelete, "/paper/"+url.PathEscape(id), "")
	require.Equal(t, http.StatusOK, resp.Code)
	var deleted map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &deleted))
	require.EqualValues(t, 1, deleted["deleted_count"])

	resp = doJSON(router, http.MethodGet, "/paper/"+url.PathEscape(id), "")
	require.Equal(t, http.StatusNotFound, resp.Code)

	resp = doJSON(router, http.MethodDelete, "/paper/"+url.PathEscape(id), "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &deleted))
	require.EqualValues(t, 0, deleted["deleted_count"])
}

func TestListPapers(t *testing.T) {
	router := setupTestRouter(t, nil)

	resp := doJSON(router, http.MethodGet, "/paper/", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, "[]", resp.Body.String())

	resp = doJSON(router, http.MethodPost, "/paper/", createBody)
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = doJSON(router, http.MethodGet, "/paper/", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var papers []map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &papers))
	require.Len(t, papers, 1)

	// Ungültiges Limit wird abgelehnt
	resp = doJSON(router, http.MethodGet, "/paper/?limit=abc", "")
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestCreateValidation(t *testing.T) {
	router := setupTestRouter(t, nil)

	// Pflichtfeld fehlt
	resp := doJSON(router, http.MethodPost, "/paper/", `{"id":"http://arxiv.org/abs/1","summary":"S","published":"2022-10-13T13:08:54Z","updated":"2023-01-09T16:33:43Z","pdf_url":"http://arxiv.org/pdf/1"}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	// DOI-Format
	resp = doJSON(router, http.MethodPost, "/paper/", strings.Replace(createBody, `"pdf_url"`, `"doi": "not-a-doi", "pdf_url"`, 1))
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	// pdf_url muss eine URL sein
	resp = doJSON(router, http.MethodPost, "/paper/", strings.Replace(createBody, "http://arxiv.org/pdf/2210.06998v2", "nope", 1))
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestUpdateValidation(t *testing.T) {
	router := setupTestRouter(t, nil)

	resp := doJSON(router, http.MethodPost, "/paper/", createBody)
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = doJSON(router, http.MethodPut, "/paper/"+url.PathEscape("http://arxiv.org/abs/2210.06998v2"), `{"doi":"broken"}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestUpdateMissingPaperReturns404(t *testing.T) {
	router := setupTestRouter(t, nil)

	resp := doJSON(router, http.MethodPut, "/paper/"+url.PathEscape("http://arxiv.org/abs/missing"), `{"title":"New"}`)
	require.Equal(t, http.StatusNotFound, resp.Code)
}

func TestAPIKeyMiddleware(t *testing.T) {
	cfg := &config.Config{ListLimit: 100, APISecretKey: "sekrit"}
	router := setupTestRouter(t, cfg)

	resp := doJSON(router, http.MethodGet, "/paper/", "")
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	req := httptest.NewRequest(http.MethodGet, "/paper/", nil)
	req.Header.Set("X-API-KEY", "sekrit")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

// brokenPaperRepository schlägt bei jedem Zugriff fehl und simuliert damit
// eine ausgefallene Datenbank.
type brokenPaperRepository struct {
	err error
}

func (r *brokenPaperRepository) Create(ctx context.Context, paper *models.Paper) (*models.Paper, error) {
	return nil, r.err
}

func (r *brokenPaperRepository) GetByID(ctx context.Context, id string) (*models.Paper, error) {
	return nil, r.err
}

func (r *brokenPaperRepository) List(ctx context.Context, limit int64) ([]*models.Paper, error) {
	return nil, r.err
}

func (r *brokenPaperRepository) Update(ctx context.Context, id string, fields map[string]interface{}) (int64, error) {
	return 0, r.err
}

func (r *brokenPaperRepository) Delete(ctx context.Context, id string) (int64, error) {
	return 0, r.err
}

func TestStorageFailureMapsTo500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &brokenPaperRepository{err: errors.New("mongo: connection reset")}
	svc := services.NewPaperService(repo, zap.NewNop())
	router := newRouter(&config.Config{ListLimit: 100}, svc, zap.NewNop())

	id := url.PathEscape("http://arxiv.org/abs/2210.06998v2")
	requests := []struct {
		method string
		target string
		body   string
	}{
		{http.MethodPost, "/paper/", createBody},
		{http.MethodGet, "/paper/", ""},
		{http.MethodGet, "/paper/" + id, ""},
		{http.MethodPut, "/paper/" + id, `{"title":"New"}`},
		{http.MethodDelete, "/paper/" + id, ""},
	}

	for _, r := range requests {
		resp := doJSON(router, r.method, r.target, r.body)
		require.Equal(t, http.StatusInternalServerError, resp.Code, "%s %s", r.method, r.target)
		// Der rohe Fehler landet im Log, nie in der Antwort.
		require.Contains(t, resp.Body.String(), "database error", "%s %s", r.method, r.target)
		require.NotContains(t, resp.Body.String(), "connection reset", "%s %s", r.method, r.target)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := setupTestRouter(t, nil)
	resp := doJSON(router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, resp.Code)
}
