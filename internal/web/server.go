// ABOUTME: REST server setup, route registration, CORS, and response helpers
// ABOUTME: HTTP status codes mirror domain envelope error codes

package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/contentd/contentd/internal/content"
	"github.com/contentd/contentd/internal/mcp"
)

// Server holds the REST API handlers.
type Server struct {
	manager    *content.Manager
	info       mcp.ServerInfo
	configView map[string]any
	logger     *slog.Logger
}

// NewServer builds the REST adapter. configView is the sanitized
// configuration snapshot exposed by GET /api/config.
func NewServer(manager *content.Manager, info mcp.ServerInfo, configView map[string]any, logger *slog.Logger) *Server {
	return &Server{
		manager:    manager,
		info:       info,
		configView: configView,
		logger:     logger.With("component", "web"),
	}
}

// RegisterRoutes attaches all REST routes to the mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /info", s.handleInfo)

	mux.HandleFunc("POST /api/content", s.handleCreateContent)
	mux.HandleFunc("GET /api/content", s.handleListContent)
	mux.HandleFunc("GET /api/content/search", s.handleSearchContent)
	mux.HandleFunc("GET /api/content/recent", s.handleRecentContent)
	mux.HandleFunc("GET /api/content/by-tag", s.handleContentByTag)
	mux.HandleFunc("POST /api/content/bulk", s.handleBulkCreate)
	mux.HandleFunc("POST /api/content/bulk-delete", s.handleBulkDelete)
	mux.HandleFunc("GET /api/content/{id}", s.handleGetContent)
	mux.HandleFunc("PUT /api/content/{id}", s.handleUpdateContent)
	mux.HandleFunc("DELETE /api/content/{id}", s.handleDeleteContent)
	mux.HandleFunc("GET /api/content/{id}/html", s.handleContentHTML)

	mux.HandleFunc("GET /api/tags", s.handleGetTags)
	mux.HandleFunc("GET /api/statistics", s.handleGetStatistics)
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/import", s.handleImport)
	mux.HandleFunc("GET /api/config", s.handleGetConfig)
}

// CORS wraps a handler with permissive cross-origin headers and answers
// preflight requests for every path.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		h.Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeResult renders a domain envelope as JSON. successStatus is the HTTP
// status for the success case; failures use the envelope error code.
func (s *Server) writeResult(w http.ResponseWriter, result content.Result, successStatus int) {
	status := successStatus
	if !result.Success && result.Err != nil {
		status = result.Err.Code
	}
	s.writeJSON(w, status, result)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, message string) {
	s.writeJSON(w, code, content.Result{
		Success: false,
		Err:     &content.Error{Code: code, Message: message},
	})
}
