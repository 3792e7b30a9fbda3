// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Keeps an FTS5 index over title/content/tags in lockstep with the content table

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite with FTS5
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the content table and its FTS5 index if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS content (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			content_type TEXT DEFAULT 'text',
			tags TEXT DEFAULT '',
			metadata TEXT DEFAULT '{}',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_content_title ON content(title);
		CREATE INDEX IF NOT EXISTS idx_content_tags ON content(tags);
		CREATE INDEX IF NOT EXISTS idx_content_type ON content(content_type);
		CREATE INDEX IF NOT EXISTS idx_content_created_at ON content(created_at);
		CREATE INDEX IF NOT EXISTS idx_content_updated_at ON content(updated_at);

		CREATE VIRTUAL TABLE IF NOT EXISTS content_fts USING fts5(
			title, content, tags
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// CreateContent inserts a new content item and its FTS index entry in a single
// transaction, so a search can never observe the row without its index entry.
// The store assigns both timestamps; any caller-provided values are ignored.
func (s *SQLiteStore) CreateContent(ctx context.Context, item *ContentItem) (int64, error) {
	now := time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO content (title, content, content_type, tags, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, item.Title, item.Content, item.ContentType, item.Tags, item.Metadata, now, now)
	if err != nil {
		return 0, fmt.Errorf("inserting content: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting insert id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO content_fts (rowid, title, content, tags)
		VALUES (?, ?, ?, ?)
	`, id, item.Title, item.Content, item.Tags); err != nil {
		return 0, fmt.Errorf("inserting FTS entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing content insert: %w", err)
	}

	s.logger.Debug("created content", "id", id, "title", item.Title)
	return id, nil
}

// GetContent retrieves a content item by ID.
// Returns ErrNotFound if no row matches.
func (s *SQLiteStore) GetContent(ctx context.Context, id int64) (*ContentItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, content, content_type, tags, metadata, created_at, updated_at
		FROM content
		WHERE id = ?
	`, id)

	item, err := scanContentItem(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying content: %w", err)
	}
	return item, nil
}

// UpdateContent overwrites all fields except ID and CreatedAt, refreshing
// updated_at and the FTS entry in the same transaction.
// Returns ErrNotFound if the row doesn't exist.
func (s *SQLiteStore) UpdateContent(ctx context.Context, item *ContentItem) error {
	now := time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE content
		SET title = ?, content = ?, content_type = ?, tags = ?, metadata = ?, updated_at = ?
		WHERE id = ?
	`, item.Title, item.Content, item.ContentType, item.Tags, item.Metadata, now, item.ID)
	if err != nil {
		return fmt.Errorf("updating content: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE content_fts SET title = ?, content = ?, tags = ? WHERE rowid = ?
	`, item.Title, item.Content, item.Tags, item.ID); err != nil {
		return fmt.Errorf("updating FTS entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing content update: %w", err)
	}

	s.logger.Debug("updated content", "id", item.ID)
	return nil
}

// DeleteContent removes the FTS entry first, then the primary row, so a
// completed delete is never observable through search.
// Returns ErrNotFound if the primary row didn't exist.
func (s *SQLiteStore) DeleteContent(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM content_fts WHERE rowid = ?`, id); err != nil {
		return fmt.Errorf("deleting FTS entry: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM content WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting content: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted content", "id", id)
	return nil
}

// SearchContent runs an FTS5 match over title, content and tags,
// ranked by relevance. The raw query is rewritten into quoted phrase tokens
// so punctuation like "Node.js" never reaches the FTS5 query parser.
func (s *SQLiteStore) SearchContent(ctx context.Context, query string, limit int) ([]*ContentItem, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.title, c.content, c.content_type, c.tags, c.metadata, c.created_at, c.updated_at
		FROM content c
		JOIN content_fts fts ON c.id = fts.rowid
		WHERE content_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("searching content: %w", err)
	}
	defer rows.Close()

	return collectContentItems(rows)
}

// GetContentByTag returns items whose raw tags string contains the tag as a
// substring, newest first. A tag "db" therefore also matches "database".
func (s *SQLiteStore) GetContentByTag(ctx context.Context, tag string, limit int) ([]*ContentItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, content_type, tags, metadata, created_at, updated_at
		FROM content
		WHERE tags LIKE ?
		ORDER BY updated_at DESC
		LIMIT ?
	`, "%"+tag+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("querying content by tag: %w", err)
	}
	defer rows.Close()

	return collectContentItems(rows)
}

// ListAllContent returns a page of items ordered by updated_at descending.
func (s *SQLiteStore) ListAllContent(ctx context.Context, offset, limit int) ([]*ContentItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, content_type, tags, metadata, created_at, updated_at
		FROM content
		ORDER BY updated_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing content: %w", err)
	}
	defer rows.Close()

	return collectContentItems(rows)
}

// GetRecentContent returns the most recently updated items.
func (s *SQLiteStore) GetRecentContent(ctx context.Context, limit int) ([]*ContentItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, content_type, tags, metadata, created_at, updated_at
		FROM content
		ORDER BY updated_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent content: %w", err)
	}
	defer rows.Close()

	return collectContentItems(rows)
}

// CountContent returns the total number of content items.
func (s *SQLiteStore) CountContent(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM content`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting content: %w", err)
	}
	return count, nil
}

// AllTags splits every row's tags string, then trims, deduplicates and sorts
// the tokens.
func (s *SQLiteStore) AllTags(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT tags FROM content WHERE tags != ''`)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	var tags []string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning tags row: %w", err)
		}
		for _, tag := range SplitTags(raw) {
			if _, ok := seen[tag]; !ok {
				seen[tag] = struct{}{}
				tags = append(tags, tag)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tags rows: %w", err)
	}

	sort.Strings(tags)
	return tags, nil
}

// ftsQuery rewrites user input as space-joined quoted phrases with embedded
// quotes doubled, so FTS5-significant characters (".", "-", quotes, bare
// operators) are treated as literal text instead of query syntax.
func ftsQuery(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(fields))
	for _, field := range fields {
		quoted = append(quoted, `"`+strings.ReplaceAll(field, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanContentItem(row rowScanner) (*ContentItem, error) {
	var item ContentItem
	var contentType, tags, metadata sql.NullString

	err := row.Scan(&item.ID, &item.Title, &item.Content, &contentType, &tags, &metadata,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}

	item.ContentType = ContentTypeText
	if contentType.Valid && contentType.String != "" {
		item.ContentType = contentType.String
	}
	item.Tags = tags.String
	item.Metadata = "{}"
	if metadata.Valid && metadata.String != "" {
		item.Metadata = metadata.String
	}

	return &item, nil
}

func collectContentItems(rows *sql.Rows) ([]*ContentItem, error) {
	var items []*ContentItem
	for rows.Next() {
		item, err := scanContentItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning content row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating content rows: %w", err)
	}
	return items, nil
}

// Ensure SQLiteStore implements Store interface
var _ Store = (*SQLiteStore)(nil)
