// ABOUTME: Static tool registry binding tool names to content operations
// ABOUTME: Each tool declares a JSON input schema used by tools/list

package mcp

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/contentd/contentd/internal/content"
)

// ToolHandler executes a tool call with raw JSON arguments and returns the
// domain envelope. Handlers never return Go errors; failures are carried
// inside the envelope.
type ToolHandler func(ctx context.Context, args json.RawMessage) content.Result

// Tool is one entry in the static tool catalog.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     ToolHandler
}

// Registry is the fixed name-to-tool mapping built at startup.
// It is read-only after construction and needs no locking.
type Registry struct {
	tools map[string]*Tool
	names []string // registration order, for stable tools/list output
}

// NewRegistry builds the full tool catalog bound to the given manager.
func NewRegistry(manager *content.Manager) *Registry {
	r := &Registry{tools: make(map[string]*Tool)}

	r.register(&Tool{
		Name:        "create_content",
		Description: "Create a new content item",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"title": {"type": "string", "description": "Content title"},
				"content": {"type": "string", "description": "Content body"},
				"content_type": {"type": "string", "description": "Content type (text, markdown, code, etc.)", "default": "text"},
				"tags": {"type": "string", "description": "Comma-separated tags"},
				"metadata": {"type": "object", "description": "Additional metadata"}
			},
			"required": ["title", "content"]
		}`),
		Handler: func(ctx context.Context, args json.RawMessage) content.Result {
			return manager.CreateContent(ctx, args)
		},
	})

	r.register(&Tool{
		Name:        "get_content",
		Description: "Get content by ID",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "integer", "description": "Content ID"}
			},
			"required": ["id"]
		}`),
		Handler: func(ctx context.Context, args json.RawMessage) content.Result {
			id, ok := idArg(args)
			if !ok {
				return idError()
			}
			return manager.GetContent(ctx, id)
		},
	})

	r.register(&Tool{
		Name:        "update_content",
		Description: "Update existing content",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "integer", "description": "Content ID"},
				"title": {"type": "string", "description": "Content title"},
				"content": {"type": "string", "description": "Content body"},
				"content_type": {"type": "string", "description": "Content type"},
				"tags": {"type": "string", "description": "Comma-separated tags"},
				"metadata": {"type": "object", "description": "Additional metadata"}
			},
			"required": ["id", "title", "content"]
		}`),
		Handler: func(ctx context.Context, args json.RawMessage) content.Result {
			id, ok := idArg(args)
			if !ok {
				return idError()
			}
			return manager.UpdateContent(ctx, id, args)
		},
	})

	r.register(&Tool{
		Name:        "delete_content",
		Description: "Delete content by ID",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "integer", "description": "Content ID"}
			},
			"required": ["id"]
		}`),
		Handler: func(ctx context.Context, args json.RawMessage) content.Result {
			id, ok := idArg(args)
			if !ok {
				return idError()
			}
			return manager.DeleteContent(ctx, id)
		},
	})

	r.register(&Tool{
		Name:        "search_content",
		Description: "Search content using full-text search",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "Search query"},
				"page": {"type": "integer", "description": "Page number", "default": 1},
				"page_size": {"type": "integer", "description": "Items per page", "default": 20}
			},
			"required": ["query"]
		}`),
		Handler: func(ctx context.Context, args json.RawMessage) content.Result {
			var params struct {
				Query    string `json:"query"`
				Page     int    `json:"page"`
				PageSize int    `json:"page_size"`
			}
			params.Page = 1
			params.PageSize = content.DefaultPageSize
			if err := json.Unmarshal(args, &params); err != nil || params.Query == "" {
				return content.Result{Success: false, Err: &content.Error{
					Code:    content.CodeValidation,
					Message: "Query parameter is required and must be a string",
				}}
			}
			return manager.SearchContent(ctx, params.Query, params.Page, params.PageSize)
		},
	})

	r.register(&Tool{
		Name:        "list_content",
		Description: "List all content with pagination",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"page": {"type": "integer", "description": "Page number", "default": 1},
				"page_size": {"type": "integer", "description": "Items per page", "default": 20}
			}
		}`),
		Handler: func(ctx context.Context, args json.RawMessage) content.Result {
			var params struct {
				Page     int `json:"page"`
				PageSize int `json:"page_size"`
			}
			params.Page = 1
			params.PageSize = content.DefaultPageSize
			if len(args) > 0 {
				_ = json.Unmarshal(args, &params)
			}
			return manager.ListContent(ctx, params.Page, params.PageSize)
		},
	})

	r.register(&Tool{
		Name:        "get_tags",
		Description: "Get all available tags",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
		Handler: func(ctx context.Context, _ json.RawMessage) content.Result {
			return manager.GetTags(ctx)
		},
	})

	r.register(&Tool{
		Name:        "get_statistics",
		Description: "Get content statistics",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
		Handler: func(ctx context.Context, _ json.RawMessage) content.Result {
			return manager.GetStatistics(ctx)
		},
	})

	return r
}

func (r *Registry) register(tool *Tool) {
	r.tools[tool.Name] = tool
	r.names = append(r.names, tool.Name)
}

// Get returns the tool with the given name, or nil.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// All returns the tools in registration order.
func (r *Registry) All() []*Tool {
	tools := make([]*Tool, 0, len(r.names))
	for _, name := range r.names {
		tools = append(tools, r.tools[name])
	}
	return tools
}

// idArg extracts the integer id argument from raw tool arguments.
// Rejects missing ids and non-integer values (including fractional numbers).
func idArg(args json.RawMessage) (int64, bool) {
	var params struct {
		ID *json.Number `json:"id"`
	}
	dec := json.NewDecoder(bytes.NewReader(args))
	dec.UseNumber()
	if err := dec.Decode(&params); err != nil || params.ID == nil {
		return 0, false
	}
	id, err := params.ID.Int64()
	if err != nil {
		return 0, false
	}
	return id, true
}

func idError() content.Result {
	return content.Result{Success: false, Err: &content.Error{
		Code:    content.CodeValidation,
		Message: "ID parameter is required and must be an integer",
	}}
}
