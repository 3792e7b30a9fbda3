// ABOUTME: MCP request dispatch and the POST /mcp HTTP endpoint
// ABOUTME: Success responses are bare result objects; failures carry {"error":{code,message}}

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/contentd/contentd/internal/content"
)

// Protocol error codes. Code -1 covers malformed requests and unknown
// methods or tools; -2 covers faults raised while executing a handler.
const (
	CodeInvalidRequest = -1
	CodeInternalError  = -2
)

// ProtocolVersion is the MCP protocol revision this server speaks.
const ProtocolVersion = "2024-11-05"

// ServerInfo identifies this server in the initialize handshake.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Server dispatches MCP requests against the tool registry.
type Server struct {
	registry *Registry
	manager  *content.Manager
	info     ServerInfo
	logger   *slog.Logger
}

// NewServer builds an MCP server over the given manager.
func NewServer(manager *content.Manager, info ServerInfo, logger *slog.Logger) *Server {
	return &Server{
		registry: NewRegistry(manager),
		manager:  manager,
		info:     info,
		logger:   logger.With("component", "mcp"),
	}
}

// Registry exposes the tool catalog, used by the web layer's info endpoint.
func (s *Server) Registry() *Registry {
	return s.registry
}

// RegisterRoutes attaches the MCP endpoint to the mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /mcp", s.handleHTTP)
}

func (s *Server) handleHTTP(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		s.writeResponse(w, errorResponse(CodeInvalidRequest, "Invalid request"))
		return
	}
	s.writeResponse(w, s.HandleRequest(r.Context(), raw))
}

func (s *Server) writeResponse(w http.ResponseWriter, resp any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

type request struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	ID     json.RawMessage `json:"id"`
}

type protocolError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func errorResponse(code int, message string) map[string]any {
	return map[string]any{"error": protocolError{Code: code, Message: message}}
}

// HandleRequest dispatches a single decoded request and returns the response
// object. The response is always a bare result or an error wrapper, never a
// full JSON-RPC envelope.
func (s *Server) HandleRequest(ctx context.Context, raw json.RawMessage) any {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil || probe == nil {
		return errorResponse(CodeInvalidRequest, "Invalid request")
	}

	var req request
	if err := json.Unmarshal(raw, &req); err != nil || req.Method == "" {
		return errorResponse(CodeInvalidRequest, "Invalid request")
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize()
	case "tools/list":
		return s.handleToolsList()
	case "tools/call":
		return s.handleToolsCall(ctx, req.Params)
	case "resources/list":
		return s.handleResourcesList()
	case "resources/read":
		return s.handleResourcesRead(ctx, req.Params)
	default:
		return errorResponse(CodeInvalidRequest, fmt.Sprintf("Unknown method: %s", req.Method))
	}
}

func (s *Server) handleInitialize() any {
	return map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]any{
			"tools":     map[string]any{},
			"resources": map[string]any{},
		},
		"serverInfo": s.info,
	}
}

func (s *Server) handleToolsList() any {
	tools := make([]map[string]any, 0, len(s.registry.names))
	for _, tool := range s.registry.All() {
		tools = append(tools, map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": tool.InputSchema,
		})
	}
	return map[string]any{"tools": tools}
}

func (s *Server) handleToolsCall(ctx context.Context, params json.RawMessage) (resp any) {
	var call struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &call); err != nil {
			return errorResponse(CodeInvalidRequest, "Invalid tool call parameters")
		}
	}

	tool := s.registry.Get(call.Name)
	if tool == nil {
		return errorResponse(CodeInvalidRequest, fmt.Sprintf("Unknown tool: %s", call.Name))
	}

	callID := uuid.New().String()
	s.logger.Debug("tool call", "call_id", callID, "tool", call.Name)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("tool handler panicked", "call_id", callID, "tool", call.Name, "panic", r)
			resp = errorResponse(CodeInternalError, "Internal server error")
		}
	}()

	result := tool.Handler(ctx, call.Arguments)
	text, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		s.logger.Error("failed to encode tool result", "call_id", callID, "tool", call.Name, "error", err)
		return errorResponse(CodeInternalError, "Internal server error")
	}

	return map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": string(text)},
		},
	}
}

// Resource URIs served by resources/read.
const (
	resourceAllContent = "content://all"
	resourceStats      = "stats://summary"
)

func (s *Server) handleResourcesList() any {
	return map[string]any{
		"resources": []map[string]any{
			{
				"uri":         resourceAllContent,
				"name":        "All Content",
				"description": "All content items in the system",
				"mimeType":    "application/json",
			},
			{
				"uri":         resourceStats,
				"name":        "Content Statistics",
				"description": "Summary statistics for stored content",
				"mimeType":    "application/json",
			},
		},
	}
}

func (s *Server) handleResourcesRead(ctx context.Context, params json.RawMessage) any {
	var read struct {
		URI string `json:"uri"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &read); err != nil {
			return errorResponse(CodeInvalidRequest, "Invalid resource parameters")
		}
	}

	var result content.Result
	switch read.URI {
	case resourceAllContent:
		result = s.manager.ListContent(ctx, 1, content.MaxPageSize)
	case resourceStats:
		result = s.manager.GetStatistics(ctx)
	default:
		return errorResponse(CodeInvalidRequest, fmt.Sprintf("Unknown resource: %s", read.URI))
	}

	text, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		s.logger.Error("failed to encode resource", "uri", read.URI, "error", err)
		return errorResponse(CodeInternalError, "Internal server error")
	}

	return map[string]any{
		"contents": []map[string]any{
			{"uri": read.URI, "mimeType": "application/json", "text": string(text)},
		},
	}
}
