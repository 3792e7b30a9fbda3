// ABOUTME: Store interface and data types for contentd persistence
// ABOUTME: Defines ContentItem and the Store interface for database operations

package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested content item does not exist
var ErrNotFound = errors.New("not found")

// Allowed content type values. "text" is the default when unspecified.
const (
	ContentTypeText     = "text"
	ContentTypeMarkdown = "markdown"
	ContentTypeHTML     = "html"
	ContentTypeCode     = "code"
	ContentTypeJSON     = "json"
	ContentTypeXML      = "xml"
	ContentTypeYAML     = "yaml"
)

// ContentItem represents a single piece of managed content.
// Tags is a raw comma-separated string; use SplitTags/JoinTags to work with
// individual tokens. Metadata holds a JSON object serialized as a string.
type ContentItem struct {
	ID          int64
	Title       string
	Content     string
	ContentType string
	Tags        string
	Metadata    string
	CreatedAt   int64 // Unix seconds, set once at creation
	UpdatedAt   int64 // Unix seconds, refreshed on every mutation
}

// Store defines the interface for content persistence with full-text search.
// All read operations return ErrNotFound (not a nil item) when no row matches.
type Store interface {
	// CreateContent inserts a new item and its full-text index entry,
	// assigning ID and timestamps. Returns the new ID.
	CreateContent(ctx context.Context, item *ContentItem) (int64, error)

	// GetContent retrieves an item by ID. Returns ErrNotFound on miss.
	GetContent(ctx context.Context, id int64) (*ContentItem, error)

	// UpdateContent overwrites all fields except ID and CreatedAt, refreshes
	// UpdatedAt, and updates the full-text index entry for the row.
	// Returns ErrNotFound if the ID does not reference an existing row.
	UpdateContent(ctx context.Context, item *ContentItem) error

	// DeleteContent removes the index entry and the primary row.
	// Returns ErrNotFound if the primary row did not exist.
	DeleteContent(ctx context.Context, id int64) error

	// SearchContent runs a full-text match against title, content and tags,
	// ranked by relevance.
	SearchContent(ctx context.Context, query string, limit int) ([]*ContentItem, error)

	// GetContentByTag returns items whose raw tags string contains the given
	// tag as a substring, newest first.
	GetContentByTag(ctx context.Context, tag string, limit int) ([]*ContentItem, error)

	// ListAllContent returns a page of items ordered by updated_at descending.
	ListAllContent(ctx context.Context, offset, limit int) ([]*ContentItem, error)

	// GetRecentContent returns the most recently updated items.
	GetRecentContent(ctx context.Context, limit int) ([]*ContentItem, error)

	// CountContent returns the total number of items.
	CountContent(ctx context.Context) (int64, error)

	// AllTags returns every distinct tag token across all items, trimmed,
	// deduplicated and sorted.
	AllTags(ctx context.Context) ([]string, error)

	// Close releases any resources held by the store
	Close() error
}
