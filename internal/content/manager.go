// ABOUTME: Domain operations for content management shared by both protocol adapters
// ABOUTME: Validates input, computes pagination, and builds the uniform success/error envelope

package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/contentd/contentd/internal/store"
)

// Field limits enforced on create and update.
const (
	MaxTitleLength   = 500
	MaxContentLength = 1 << 20 // 1 MiB

	// DefaultPageSize is used when page_size is out of range.
	DefaultPageSize = 20
	// MaxPageSize caps page_size.
	MaxPageSize = 100

	// exportLimit caps the number of items included in an export.
	exportLimit = 10000

	// exportVersion tags exported payloads.
	exportVersion = "1.0"
)

// Error codes of the protocol-agnostic taxonomy. Both adapters carry these
// through unchanged; the REST adapter also maps them to HTTP statuses.
const (
	CodeValidation = 400
	CodeNotFound   = 404
	CodeInternal   = 500
)

// Error is the structured error carried inside a failed envelope.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Result is the uniform envelope returned by every domain operation.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Err     *Error `json:"error,omitempty"`
}

func successResult(data any) Result {
	return Result{Success: true, Data: data}
}

func errorResult(code int, message string) Result {
	return Result{Success: false, Err: &Error{Code: code, Message: message}}
}

// Limits bounds pagination arguments. Out-of-range page sizes fall back to
// Default; Max caps what a client may request.
type Limits struct {
	DefaultPageSize int
	MaxPageSize     int
}

// DefaultLimits returns the package-constant pagination bounds.
func DefaultLimits() Limits {
	return Limits{DefaultPageSize: DefaultPageSize, MaxPageSize: MaxPageSize}
}

// Manager implements the domain operations over a Store.
type Manager struct {
	store  store.Store
	limits Limits
	logger *slog.Logger
}

// NewManager creates a Manager backed by the given store, using the default
// pagination limits.
func NewManager(s store.Store) *Manager {
	return NewManagerWithLimits(s, DefaultLimits())
}

// NewManagerWithLimits creates a Manager with configured pagination limits.
// Non-positive values fall back to the package defaults.
func NewManagerWithLimits(s store.Store, limits Limits) *Manager {
	if limits.DefaultPageSize < 1 {
		limits.DefaultPageSize = DefaultPageSize
	}
	if limits.MaxPageSize < limits.DefaultPageSize {
		limits.MaxPageSize = MaxPageSize
	}
	return &Manager{
		store:  s,
		limits: limits,
		logger: slog.Default().With("component", "content"),
	}
}

// storeError maps a store failure to the error taxonomy.
func (m *Manager) storeError(op string, err error) Result {
	if errors.Is(err, store.ErrNotFound) {
		return errorResult(CodeNotFound, "Content not found")
	}
	m.logger.Error(op+" failed", "error", err)
	return errorResult(CodeInternal, "Internal server error")
}

// CreateContent validates the raw fields, persists a new item, and returns the
// freshly re-fetched item so the caller sees exactly what was stored,
// including the assigned id and timestamps.
func (m *Manager) CreateContent(ctx context.Context, raw json.RawMessage) Result {
	fields, errMsg := decodeFields(raw)
	if errMsg != "" {
		return errorResult(CodeValidation, errMsg)
	}
	if errMsg := validateFields(fields); errMsg != "" {
		return errorResult(CodeValidation, errMsg)
	}

	item := itemFromFields(fields)
	id, err := m.store.CreateContent(ctx, item)
	if err != nil {
		m.logger.Error("create content failed", "error", err)
		return errorResult(CodeInternal, "Failed to create content")
	}

	created, err := m.store.GetContent(ctx, id)
	if err != nil {
		// Row was inserted; fall back to reporting the id alone.
		m.logger.Warn("re-fetching created content failed", "id", id, "error", err)
		return successResult(map[string]any{"id": id})
	}

	return successResult(itemView(created))
}

// GetContent returns the item with the given id, or a 404 error envelope.
func (m *Manager) GetContent(ctx context.Context, id int64) Result {
	item, err := m.store.GetContent(ctx, id)
	if err != nil {
		return m.storeError("get content", err)
	}
	return successResult(itemView(item))
}

// UpdateContent checks existence first, then validates and overwrites all
// fields except id and created_at, returning the re-fetched item.
func (m *Manager) UpdateContent(ctx context.Context, id int64, raw json.RawMessage) Result {
	existing, err := m.store.GetContent(ctx, id)
	if err != nil {
		return m.storeError("update content", err)
	}

	fields, errMsg := decodeFields(raw)
	if errMsg != "" {
		return errorResult(CodeValidation, errMsg)
	}
	if errMsg := validateFields(fields); errMsg != "" {
		return errorResult(CodeValidation, errMsg)
	}

	item := itemFromFields(fields)
	item.ID = id
	item.CreatedAt = existing.CreatedAt

	if err := m.store.UpdateContent(ctx, item); err != nil {
		return m.storeError("update content", err)
	}

	updated, err := m.store.GetContent(ctx, id)
	if err != nil {
		m.logger.Warn("re-fetching updated content failed", "id", id, "error", err)
		return successResult(nil)
	}
	return successResult(itemView(updated))
}

// DeleteContent checks existence first and removes the item.
func (m *Manager) DeleteContent(ctx context.Context, id int64) Result {
	if _, err := m.store.GetContent(ctx, id); err != nil {
		return m.storeError("delete content", err)
	}

	if err := m.store.DeleteContent(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errorResult(CodeNotFound, "Content not found")
		}
		m.logger.Error("delete content failed", "id", id, "error", err)
		return errorResult(CodeInternal, "Failed to delete content")
	}
	return successResult(nil)
}

// SearchContent runs a full-text query with pagination clamping.
// total_count is the number of items the limited query returned, not a true
// total across all matches.
func (m *Manager) SearchContent(ctx context.Context, query string, page, pageSize int) Result {
	if query == "" {
		return errorResult(CodeValidation, "Search query cannot be empty")
	}
	page, pageSize = m.clampPage(page, pageSize)

	items, err := m.store.SearchContent(ctx, query, pageSize)
	if err != nil {
		m.logger.Error("search failed", "query", query, "error", err)
		return errorResult(CodeInternal, "Internal server error")
	}

	return successResult(pagedView(items, int64(len(items)), page, pageSize))
}

// GetContentByTag returns items whose tags string contains the given tag as a
// substring (so "db" also matches "database"), newest first.
func (m *Manager) GetContentByTag(ctx context.Context, tag string, page, pageSize int) Result {
	if tag == "" {
		return errorResult(CodeValidation, "Tag cannot be empty")
	}
	page, pageSize = m.clampPage(page, pageSize)

	items, err := m.store.GetContentByTag(ctx, tag, pageSize)
	if err != nil {
		m.logger.Error("get by tag failed", "tag", tag, "error", err)
		return errorResult(CodeInternal, "Internal server error")
	}

	return successResult(pagedView(items, int64(len(items)), page, pageSize))
}

// GetRecentContent returns the most recently updated items, limit clamped to
// the configured bounds.
func (m *Manager) GetRecentContent(ctx context.Context, limit int) Result {
	if limit < 1 || limit > m.limits.MaxPageSize {
		limit = m.limits.DefaultPageSize
	}

	items, err := m.store.GetRecentContent(ctx, limit)
	if err != nil {
		m.logger.Error("get recent failed", "error", err)
		return errorResult(CodeInternal, "Internal server error")
	}

	views := make([]any, 0, len(items))
	for _, item := range items {
		views = append(views, itemView(item))
	}
	return successResult(views)
}

// ListContent pages through all items with an accurate total from CountContent,
// so total_pages is exact on this path.
func (m *Manager) ListContent(ctx context.Context, page, pageSize int) Result {
	page, pageSize = m.clampPage(page, pageSize)
	offset := (page - 1) * pageSize

	items, err := m.store.ListAllContent(ctx, offset, pageSize)
	if err != nil {
		m.logger.Error("list content failed", "error", err)
		return errorResult(CodeInternal, "Internal server error")
	}

	total, err := m.store.CountContent(ctx)
	if err != nil {
		m.logger.Error("count content failed", "error", err)
		return errorResult(CodeInternal, "Internal server error")
	}

	return successResult(pagedView(items, total, page, pageSize))
}

// GetTags returns the deduplicated, sorted tag list.
func (m *Manager) GetTags(ctx context.Context) Result {
	tags, err := m.store.AllTags(ctx)
	if err != nil {
		m.logger.Error("get tags failed", "error", err)
		return errorResult(CodeInternal, "Internal server error")
	}
	if tags == nil {
		tags = []string{}
	}
	return successResult(tags)
}

// GetStatistics reports total item and tag counts plus the tag list.
func (m *Manager) GetStatistics(ctx context.Context) Result {
	total, err := m.store.CountContent(ctx)
	if err != nil {
		m.logger.Error("get statistics failed", "error", err)
		return errorResult(CodeInternal, "Internal server error")
	}
	tags, err := m.store.AllTags(ctx)
	if err != nil {
		m.logger.Error("get statistics failed", "error", err)
		return errorResult(CodeInternal, "Internal server error")
	}
	if tags == nil {
		tags = []string{}
	}

	return successResult(map[string]any{
		"total_content": total,
		"total_tags":    len(tags),
		"tags":          tags,
	})
}

// BulkCreate inserts items one by one, collecting per-item errors instead of
// stopping. There is no cross-item atomicity.
func (m *Manager) BulkCreate(ctx context.Context, raw json.RawMessage) Result {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return errorResult(CodeValidation, "Items must be an array")
	}

	createdIDs := make([]int64, 0, len(items))
	var errs []string

	for i, itemRaw := range items {
		fields, errMsg := decodeFields(itemRaw)
		if errMsg == "" {
			errMsg = validateFields(fields)
		}
		if errMsg != "" {
			errs = append(errs, fmt.Sprintf("Item %d: %s", i, errMsg))
			continue
		}

		id, err := m.store.CreateContent(ctx, itemFromFields(fields))
		if err != nil {
			m.logger.Warn("bulk create item failed", "index", i, "error", err)
			errs = append(errs, fmt.Sprintf("Item %d: Failed to create", i))
			continue
		}
		createdIDs = append(createdIDs, id)
	}

	result := map[string]any{
		"created_ids":   createdIDs,
		"created_count": len(createdIDs),
		"total_count":   len(items),
	}
	if len(errs) > 0 {
		result["errors"] = errs
	}
	return successResult(result)
}

// BulkDelete removes items one by one, collecting per-item errors.
func (m *Manager) BulkDelete(ctx context.Context, ids []int64) Result {
	if len(ids) == 0 {
		return errorResult(CodeValidation, "IDs list cannot be empty")
	}

	deleted := 0
	var errs []string
	for _, id := range ids {
		if err := m.store.DeleteContent(ctx, id); err != nil {
			errs = append(errs, fmt.Sprintf("Failed to delete ID: %d", id))
			continue
		}
		deleted++
	}

	result := map[string]any{
		"deleted_count": deleted,
		"total_count":   len(ids),
	}
	if len(errs) > 0 {
		result["errors"] = errs
	}
	return successResult(result)
}

// ExportContent wraps all items (capped at a fixed limit) with a version tag
// and export timestamp.
func (m *Manager) ExportContent(ctx context.Context) Result {
	items, err := m.store.ListAllContent(ctx, 0, exportLimit)
	if err != nil {
		m.logger.Error("export failed", "error", err)
		return errorResult(CodeInternal, "Internal server error")
	}

	views := make([]any, 0, len(items))
	for _, item := range items {
		views = append(views, itemView(item))
	}

	return successResult(map[string]any{
		"version":     exportVersion,
		"exported_at": time.Now().Unix(),
		"content":     views,
	})
}

// ImportContent accepts an export payload and delegates its content array to
// BulkCreate.
func (m *Manager) ImportContent(ctx context.Context, raw json.RawMessage) Result {
	var payload struct {
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || len(payload.Content) == 0 {
		return errorResult(CodeValidation, "Invalid import data format")
	}
	return m.BulkCreate(ctx, payload.Content)
}

// clampPage normalizes pagination arguments: page >= 1, page_size within the
// configured limits, defaulting when out of range.
func (m *Manager) clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > m.limits.MaxPageSize {
		pageSize = m.limits.DefaultPageSize
	}
	return page, pageSize
}

// pagedView builds the PagedResult shape shared by search and list responses.
func pagedView(items []*store.ContentItem, totalCount int64, page, pageSize int) map[string]any {
	views := make([]any, 0, len(items))
	for _, item := range items {
		views = append(views, itemView(item))
	}

	totalPages := (totalCount + int64(pageSize) - 1) / int64(pageSize)

	return map[string]any{
		"items":        views,
		"total_count":  totalCount,
		"page":         page,
		"page_size":    pageSize,
		"total_pages":  totalPages,
		"has_next":     int64(page) < totalPages,
		"has_previous": page > 1,
	}
}
