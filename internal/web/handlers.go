// ABOUTME: REST endpoint handlers translating HTTP requests to manager calls
// ABOUTME: Path and query parsing lives here; all business rules live in the manager

package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strconv"

	"github.com/yuin/goldmark"

	"github.com/contentd/contentd/internal/content"
	"github.com/contentd/contentd/internal/mcp"
	"github.com/contentd/contentd/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": s.info.Name,
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"name":             s.info.Name,
		"version":          s.info.Version,
		"protocol_version": mcp.ProtocolVersion,
		"endpoints": map[string]any{
			"mcp":  "/mcp",
			"rest": "/api",
		},
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, indexPage, s.info.Name, s.info.Name, s.info.Version)
}

func (s *Server) handleCreateContent(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.readBody(w, r)
	if !ok {
		return
	}
	s.writeResult(w, s.manager.CreateContent(r.Context(), raw), http.StatusCreated)
}

func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	s.writeResult(w, s.manager.GetContent(r.Context(), id), http.StatusOK)
}

func (s *Server) handleUpdateContent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	raw, ok := s.readBody(w, r)
	if !ok {
		return
	}
	s.writeResult(w, s.manager.UpdateContent(r.Context(), id, raw), http.StatusOK)
}

func (s *Server) handleDeleteContent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	s.writeResult(w, s.manager.DeleteContent(r.Context(), id), http.StatusOK)
}

func (s *Server) handleListContent(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	s.writeResult(w, s.manager.ListContent(r.Context(), page, pageSize), http.StatusOK)
}

func (s *Server) handleSearchContent(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	query := r.URL.Query().Get("q")
	s.writeResult(w, s.manager.SearchContent(r.Context(), query, page, pageSize), http.StatusOK)
}

func (s *Server) handleRecentContent(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", content.DefaultPageSize)
	s.writeResult(w, s.manager.GetRecentContent(r.Context(), limit), http.StatusOK)
}

func (s *Server) handleContentByTag(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	tag := r.URL.Query().Get("tag")
	s.writeResult(w, s.manager.GetContentByTag(r.Context(), tag, page, pageSize), http.StatusOK)
}

func (s *Server) handleBulkCreate(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.readBody(w, r)
	if !ok {
		return
	}
	s.writeResult(w, s.manager.BulkCreate(r.Context(), raw), http.StatusCreated)
}

func (s *Server) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.readBody(w, r)
	if !ok {
		return
	}
	var body struct {
		IDs []int64 `json:"ids"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		s.writeError(w, content.CodeValidation, "Invalid request body")
		return
	}
	s.writeResult(w, s.manager.BulkDelete(r.Context(), body.IDs), http.StatusOK)
}

func (s *Server) handleGetTags(w http.ResponseWriter, r *http.Request) {
	s.writeResult(w, s.manager.GetTags(r.Context()), http.StatusOK)
}

func (s *Server) handleGetStatistics(w http.ResponseWriter, r *http.Request) {
	s.writeResult(w, s.manager.GetStatistics(r.Context()), http.StatusOK)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	s.writeResult(w, s.manager.ExportContent(r.Context()), http.StatusOK)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.readBody(w, r)
	if !ok {
		return
	}
	s.writeResult(w, s.manager.ImportContent(r.Context(), raw), http.StatusCreated)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, content.Result{Success: true, Data: s.configView})
}

// handleContentHTML renders an item's body as HTML. Markdown runs through the
// markdown renderer, html items are served as stored, and everything else is
// escaped inside a pre block.
func (s *Server) handleContentHTML(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	result := s.manager.GetContent(r.Context(), id)
	if !result.Success {
		s.writeResult(w, result, http.StatusOK)
		return
	}

	item, _ := result.Data.(map[string]any)
	body, _ := item["content"].(string)
	contentType, _ := item["content_type"].(string)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	switch contentType {
	case store.ContentTypeHTML:
		io.WriteString(w, body)
	case store.ContentTypeMarkdown:
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(body), &buf); err != nil {
			s.logger.Error("failed to render markdown", "id", id, "error", err)
			s.writeError(w, content.CodeInternal, "Internal server error")
			return
		}
		w.Write(buf.Bytes())
	default:
		fmt.Fprintf(w, "<pre>%s</pre>\n", html.EscapeString(body))
	}
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, content.CodeValidation, "Invalid content ID")
		return 0, false
	}
	return id, true
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, content.CodeValidation, "Invalid request body")
		return nil, false
	}
	return raw, true
}

func pageParams(r *http.Request) (page, pageSize int) {
	return queryInt(r, "page", 1), queryInt(r, "page_size", content.DefaultPageSize)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

const indexPage = `<!DOCTYPE html>
<html>
<head><title>%s</title></head>
<body>
<h1>%s <small>v%s</small></h1>
<p>Local content management service.</p>
<ul>
<li><code>POST /mcp</code> tool-call protocol endpoint</li>
<li><code>GET /api/content</code> REST API</li>
<li><code>GET /health</code> health check</li>
<li><code>GET /info</code> server info</li>
</ul>
</body>
</html>
`
