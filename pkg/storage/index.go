// Package storage keeps a sqlite copy of the published posts so the site
// can offer full text search. The markdown files stay the source of truth;
// the index is rebuilt from them on every content reload.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/codewithjohnson/folio/pkg/content"
	"github.com/codewithjohnson/folio/pkg/log"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DBName is the index file name inside the storage directory.
const DBName = "folio.db"

var logger = log.ForService("storage")

// Index is the search index. It is safe for concurrent use.
type Index struct {
	db   *sql.DB
	path string
}

// Open creates storageDir if needed, opens the index database and applies
// pending migrations.
func Open(ctx context.Context, storageDir string) (*Index, error) {
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage dir: %w", err)
	}
	return OpenPath(ctx, filepath.Join(storageDir, DBName))
}

// OpenPath opens the index at an explicit database path.
func OpenPath(ctx context.Context, dbPath string) (*Index, error) {
	db, err := OpenDB(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	if err := NewMigrator(db).Apply(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating %s: %w", dbPath, err)
	}
	return &Index{db: db, path: dbPath}, nil
}

// OpenDB opens the database with the connection pragmas but without
// migrating it. The migrate command uses it to report status.
func OpenDB(ctx context.Context, dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA cache_size = -16000",
		"PRAGMA temp_store = memory",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}
	return db, nil
}

// Path returns the database file path.
func (ix *Index) Path() string { return ix.path }

// DB exposes the handle for migration tooling.
func (ix *Index) DB() *sql.DB { return ix.db }

// Close closes the database.
func (ix *Index) Close() error { return ix.db.Close() }

// Replace swaps the indexed posts for posts in a single transaction, so
// readers see either the old or the new set.
func (ix *Index) Replace(ctx context.Context, posts []content.Post) error {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				logger.Warnf("failed to rollback transaction: %v", err)
			}
		}
	}()

	for _, q := range []string{"DELETE FROM posts_fts", "DELETE FROM posts"} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("clearing index: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO posts (slug, title, summary, tags, tag_slugs, body, published_at, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			logger.Warnf("failed to close statement: %v", err)
		}
	}()

	ftsStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO posts_fts (rowid, title, summary, tags, body)
		VALUES ((SELECT rowid FROM posts WHERE slug = ?), ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing FTS statement: %w", err)
	}
	defer func() {
		if err := ftsStmt.Close(); err != nil {
			logger.Warnf("failed to close FTS statement: %v", err)
		}
	}()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, p := range posts {
		tagsJSON, err := json.Marshal(p.Tags)
		if err != nil {
			return fmt.Errorf("marshaling tags for %s: %w", p.Slug, err)
		}
		body := plainText(string(p.Body))
		if _, err := stmt.ExecContext(ctx,
			p.Slug, p.Title, p.Summary, string(tagsJSON), tagSlugs(p.Tags), body, nullableDate(p.Date), now,
		); err != nil {
			return fmt.Errorf("inserting post %s: %w", p.Slug, err)
		}
		if _, err := ftsStmt.ExecContext(ctx,
			p.Slug, p.Title, p.Summary, strings.Join(p.Tags, " "), body,
		); err != nil {
			return fmt.Errorf("indexing post %s: %w", p.Slug, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing index: %w", err)
	}
	committed = true
	logger.Debugf("indexed %d posts", len(posts))
	return nil
}

// Count returns the number of indexed posts.
func (ix *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := ix.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting posts: %w", err)
	}
	return n, nil
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// plainText strips markup from rendered HTML for indexing.
func plainText(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}

// tagSlugs stores slugs space delimited with a leading and trailing space so
// a tag filter is a plain substring match on " slug ".
func tagSlugs(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	slugs := make([]string, 0, len(tags))
	for _, t := range tags {
		if s := content.TagSlug(t); s != "" {
			slugs = append(slugs, s)
		}
	}
	return " " + strings.Join(slugs, " ") + " "
}

func nullableDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
