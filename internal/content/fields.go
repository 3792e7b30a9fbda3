// ABOUTME: Field decoding, validation, and item construction for content operations
// ABOUTME: Carries the content_type normalization rule ("document" becomes "text")

package content

import (
	"encoding/json"

	"github.com/contentd/contentd/internal/store"
)

// validContentTypes is the open set of conventional content_type values.
var validContentTypes = map[string]bool{
	store.ContentTypeText:     true,
	store.ContentTypeMarkdown: true,
	store.ContentTypeHTML:     true,
	store.ContentTypeCode:     true,
	store.ContentTypeJSON:     true,
	store.ContentTypeXML:      true,
	store.ContentTypeYAML:     true,
}

// decodeFields parses a raw JSON body into a generic field map.
// Returns a validation message if the body is not a JSON object.
func decodeFields(raw json.RawMessage) (map[string]any, string) {
	if len(raw) == 0 {
		return map[string]any{}, ""
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, "Content item must be an object"
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, ""
}

// validateFields enforces the field constraints for create and update.
// Returns an empty string when the fields are valid, otherwise the
// human-readable validation message.
func validateFields(fields map[string]any) string {
	title, ok := fields["title"].(string)
	if _, present := fields["title"]; !present || !ok {
		return "Title is required and must be a string"
	}
	body, ok := fields["content"].(string)
	if _, present := fields["content"]; !present || !ok {
		return "Content is required and must be a string"
	}

	if title == "" {
		return "Title cannot be empty"
	}
	if body == "" {
		return "Content cannot be empty"
	}
	if len(title) > MaxTitleLength {
		return "Title is too long (max 500 characters)"
	}
	if len(body) > MaxContentLength {
		return "Content is too long (max 1MB)"
	}

	if rawType, present := fields["content_type"]; present {
		contentType, ok := rawType.(string)
		if !ok {
			return "Content type must be a string"
		}
		// "document" is accepted here and normalized to "text" during item
		// construction; existing clients depend on this.
		if !validContentTypes[contentType] && contentType != "document" {
			return "Invalid content type"
		}
	}

	if rawTags, present := fields["tags"]; present {
		if _, ok := rawTags.(string); !ok {
			return "Tags must be a string"
		}
	}

	if rawMeta, present := fields["metadata"]; present {
		if _, ok := rawMeta.(map[string]any); !ok {
			return "Metadata must be an object"
		}
	}

	return ""
}

// itemFromFields builds a ContentItem from validated fields, applying
// defaults and the "document" normalization.
func itemFromFields(fields map[string]any) *store.ContentItem {
	item := &store.ContentItem{
		ContentType: store.ContentTypeText,
		Metadata:    "{}",
	}

	item.Title, _ = fields["title"].(string)
	item.Content, _ = fields["content"].(string)

	if contentType, ok := fields["content_type"].(string); ok && contentType != "" {
		if contentType == "document" {
			contentType = store.ContentTypeText
		}
		item.ContentType = contentType
	}

	if tags, ok := fields["tags"].(string); ok {
		item.Tags = tags
	}

	if meta, ok := fields["metadata"].(map[string]any); ok {
		if encoded, err := json.Marshal(meta); err == nil {
			item.Metadata = string(encoded)
		}
	}

	return item
}

// itemView converts a stored item into its JSON response shape. The metadata
// string is parsed back into an object, defaulting to {} when malformed.
func itemView(item *store.ContentItem) map[string]any {
	metadata := map[string]any{}
	if item.Metadata != "" {
		if err := json.Unmarshal([]byte(item.Metadata), &metadata); err != nil {
			metadata = map[string]any{}
		}
	}

	return map[string]any{
		"id":           item.ID,
		"title":        item.Title,
		"content":      item.Content,
		"content_type": item.ContentType,
		"tags":         item.Tags,
		"metadata":     metadata,
		"created_at":   item.CreatedAt,
		"updated_at":   item.UpdatedAt,
	}
}
