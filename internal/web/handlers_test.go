// ABOUTME: Tests for the REST API covering CRUD, pagination, CORS, and bulk routes
// ABOUTME: Drives the full mux through httptest recorders

package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentd/contentd/internal/content"
	"github.com/contentd/contentd/internal/mcp"
	"github.com/contentd/contentd/internal/store"
)

func setupTestAPI(t *testing.T) http.Handler {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	st, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		st.Close()
	})

	manager := content.NewManager(st)
	info := mcp.ServerInfo{Name: "contentd-test", Version: "0.0.0"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := NewServer(manager, info, map[string]any{"server": map[string]any{"http_addr": "localhost:0"}}, logger)

	mux := http.NewServeMux()
	server.RegisterRoutes(mux)
	return CORS(mux)
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func createItem(t *testing.T, handler http.Handler, fields map[string]any) float64 {
	t.Helper()
	rec := doRequest(t, handler, http.MethodPost, "/api/content", fields)
	require.Equal(t, http.StatusCreated, rec.Code, "create failed: %s", rec.Body.String())
	envelope := decodeEnvelope(t, rec)
	return envelope["data"].(map[string]any)["id"].(float64)
}

func TestAPI_CreateContent(t *testing.T) {
	api := setupTestAPI(t)

	rec := doRequest(t, api, http.MethodPost, "/api/content", map[string]any{
		"title":   "REST note",
		"content": "posted body",
		"tags":    "rest",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.Equal(t, true, envelope["success"])
	item := envelope["data"].(map[string]any)
	assert.Equal(t, "REST note", item["title"])
	assert.Greater(t, item["id"].(float64), float64(0))
}

func TestAPI_CreateContent_ValidationError(t *testing.T) {
	api := setupTestAPI(t)

	rec := doRequest(t, api, http.MethodPost, "/api/content", map[string]any{
		"content": "no title",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.Equal(t, false, envelope["success"])
	errObj := envelope["error"].(map[string]any)
	assert.Equal(t, float64(400), errObj["code"])
	assert.Equal(t, "Title is required and must be a string", errObj["message"])
}

func TestAPI_GetContent_NotFound(t *testing.T) {
	api := setupTestAPI(t)

	rec := doRequest(t, api, http.MethodGet, "/api/content/9999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "Content not found", envelope["error"].(map[string]any)["message"])
}

func TestAPI_GetContent_InvalidID(t *testing.T) {
	api := setupTestAPI(t)

	rec := doRequest(t, api, http.MethodGet, "/api/content/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "Invalid content ID", envelope["error"].(map[string]any)["message"])
}

func TestAPI_CRUDLifecycle(t *testing.T) {
	api := setupTestAPI(t)

	id := createItem(t, api, map[string]any{"title": "Lifecycle", "content": "v1"})
	path := fmt.Sprintf("/api/content/%d", int64(id))

	rec := doRequest(t, api, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, api, http.MethodPut, path, map[string]any{
		"title":   "Lifecycle v2",
		"content": "v2",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "Lifecycle v2", envelope["data"].(map[string]any)["title"])

	rec = doRequest(t, api, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, api, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_ListContent(t *testing.T) {
	api := setupTestAPI(t)

	for i := 0; i < 3; i++ {
		createItem(t, api, map[string]any{"title": fmt.Sprintf("Item %d", i), "content": "b"})
	}

	rec := doRequest(t, api, http.MethodGet, "/api/content?page=1&page_size=2", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	page := decodeEnvelope(t, rec)["data"].(map[string]any)
	assert.Len(t, page["items"].([]any), 2)
	assert.Equal(t, float64(3), page["total_count"])
	assert.Equal(t, true, page["has_next"])
}

func TestAPI_SearchContent(t *testing.T) {
	api := setupTestAPI(t)

	createItem(t, api, map[string]any{"title": "Observability basics", "content": "metrics and traces"})
	createItem(t, api, map[string]any{"title": "Unrelated", "content": "nothing here"})

	rec := doRequest(t, api, http.MethodGet, "/api/content/search?q=observability", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	page := decodeEnvelope(t, rec)["data"].(map[string]any)
	require.Len(t, page["items"].([]any), 1)

	// Missing query is a validation error
	rec = doRequest(t, api, http.MethodGet, "/api/content/search", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_RecentAndByTag(t *testing.T) {
	api := setupTestAPI(t)

	createItem(t, api, map[string]any{"title": "Tagged", "content": "b", "tags": "alpha"})

	rec := doRequest(t, api, http.MethodGet, "/api/content/recent?limit=5", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeEnvelope(t, rec)["data"].([]any), 1)

	rec = doRequest(t, api, http.MethodGet, "/api/content/by-tag?tag=alpha", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	page := decodeEnvelope(t, rec)["data"].(map[string]any)
	assert.Len(t, page["items"].([]any), 1)

	rec = doRequest(t, api, http.MethodGet, "/api/content/by-tag", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_BulkCreateAndDelete(t *testing.T) {
	api := setupTestAPI(t)

	rec := doRequest(t, api, http.MethodPost, "/api/content/bulk", []map[string]any{
		{"title": "One", "content": "b"},
		{"title": "Two", "content": "b"},
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(2), data["created_count"])

	ids := data["created_ids"].([]any)
	rec = doRequest(t, api, http.MethodPost, "/api/content/bulk-delete", map[string]any{"ids": ids})
	assert.Equal(t, http.StatusOK, rec.Code)
	deleted := decodeEnvelope(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(2), deleted["deleted_count"])
}

func TestAPI_BulkDelete_EmptyIDs(t *testing.T) {
	api := setupTestAPI(t)

	rec := doRequest(t, api, http.MethodPost, "/api/content/bulk-delete", map[string]any{"ids": []int64{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "IDs list cannot be empty", envelope["error"].(map[string]any)["message"])
}

func TestAPI_TagsAndStatistics(t *testing.T) {
	api := setupTestAPI(t)

	createItem(t, api, map[string]any{"title": "A", "content": "b", "tags": "x, y"})

	rec := doRequest(t, api, http.MethodGet, "/api/tags", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"x", "y"}, decodeEnvelope(t, rec)["data"])

	rec = doRequest(t, api, http.MethodGet, "/api/statistics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	stats := decodeEnvelope(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(1), stats["total_content"])
	assert.Equal(t, float64(2), stats["total_tags"])
}

func TestAPI_ExportImport(t *testing.T) {
	api := setupTestAPI(t)
	createItem(t, api, map[string]any{"title": "Exported", "content": "b"})

	rec := doRequest(t, api, http.MethodGet, "/api/export", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	payload := decodeEnvelope(t, rec)["data"].(map[string]any)
	assert.Equal(t, "1.0", payload["version"])

	target := setupTestAPI(t)
	rec = doRequest(t, target, http.MethodPost, "/api/import", payload)
	assert.Equal(t, http.StatusCreated, rec.Code)
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(1), data["created_count"])
}

func TestAPI_ContentHTML(t *testing.T) {
	api := setupTestAPI(t)

	id := createItem(t, api, map[string]any{
		"title":        "Markdown doc",
		"content":      "# Heading\n\nparagraph",
		"content_type": "markdown",
	})

	rec := doRequest(t, api, http.MethodGet, fmt.Sprintf("/api/content/%d/html", int64(id)), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<h1>Heading</h1>")
}

func TestAPI_ContentHTML_PlainTextEscaped(t *testing.T) {
	api := setupTestAPI(t)

	id := createItem(t, api, map[string]any{
		"title":   "Plain note",
		"content": "1 < 2 && <script>alert(1)</script>",
	})

	rec := doRequest(t, api, http.MethodGet, fmt.Sprintf("/api/content/%d/html", int64(id)), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<pre>")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.NotContains(t, body, "<script>")
}

func TestAPI_ContentHTML_HTMLServedAsStored(t *testing.T) {
	api := setupTestAPI(t)

	id := createItem(t, api, map[string]any{
		"title":        "Raw page",
		"content":      "<em>already html</em>",
		"content_type": "html",
	})

	rec := doRequest(t, api, http.MethodGet, fmt.Sprintf("/api/content/%d/html", int64(id)), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<em>already html</em>", rec.Body.String())
}

func TestAPI_Config(t *testing.T) {
	api := setupTestAPI(t)

	rec := doRequest(t, api, http.MethodGet, "/api/config", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.Equal(t, true, envelope["success"])
	assert.Contains(t, envelope["data"].(map[string]any), "server")
}

func TestAPI_HealthAndInfo(t *testing.T) {
	api := setupTestAPI(t)

	rec := doRequest(t, api, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])

	rec = doRequest(t, api, http.MethodGet, "/info", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var info map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "contentd-test", info["name"])
}

func TestAPI_Index(t *testing.T) {
	api := setupTestAPI(t)

	rec := doRequest(t, api, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "contentd-test"))
}

func TestAPI_CORSHeaders(t *testing.T) {
	api := setupTestAPI(t)

	rec := doRequest(t, api, http.MethodGet, "/health", nil)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
}

func TestAPI_CORSPreflight(t *testing.T) {
	api := setupTestAPI(t)

	rec := doRequest(t, api, http.MethodOptions, "/api/content", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
