package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"
)

// Stats summarizes the index for the stats command.
type Stats struct {
	Posts     int
	Tags      int
	Oldest    *time.Time
	Newest    *time.Time
	SizeBytes int64
}

// Stats reads counts and the published date range of the indexed posts.
func (ix *Index) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	var oldest, newest sql.NullString
	err := ix.db.QueryRowContext(ctx,
		"SELECT COUNT(*), MIN(published_at), MAX(published_at) FROM posts",
	).Scan(&st.Posts, &oldest, &newest)
	if err != nil {
		return nil, fmt.Errorf("reading post stats: %w", err)
	}
	st.Oldest = parseNullTime(oldest)
	st.Newest = parseNullTime(newest)

	rows, err := ix.db.QueryContext(ctx, "SELECT tag_slugs FROM posts")
	if err != nil {
		return nil, fmt.Errorf("reading tags: %w", err)
	}
	defer rows.Close()
	seen := map[string]struct{}{}
	for rows.Next() {
		var slugs string
		if err := rows.Scan(&slugs); err != nil {
			return nil, fmt.Errorf("scanning tags: %w", err)
		}
		for _, s := range strings.Fields(slugs) {
			seen[s] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading tags: %w", err)
	}
	st.Tags = len(seen)

	if info, err := os.Stat(ix.path); err == nil {
		st.SizeBytes = info.Size()
	}
	return st, nil
}

// CheckIntegrity runs sqlite's integrity check and, when deep is set, the
// FTS5 index check. It returns the problems found; an empty slice means the
// index is healthy.
func (ix *Index) CheckIntegrity(ctx context.Context, deep bool) ([]string, error) {
	rows, err := ix.db.QueryContext(ctx, "PRAGMA integrity_check")
	if err != nil {
		return nil, fmt.Errorf("running integrity check: %w", err)
	}
	defer rows.Close()

	var problems []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("scanning integrity check: %w", err)
		}
		if line != "ok" {
			problems = append(problems, line)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading integrity check: %w", err)
	}

	if deep {
		if _, err := ix.db.ExecContext(ctx, "INSERT INTO posts_fts(posts_fts) VALUES('integrity-check')"); err != nil {
			problems = append(problems, fmt.Sprintf("posts_fts: %v", err))
		}
	}
	return problems, nil
}

// Optimize merges the FTS5 segments and refreshes planner statistics.
func (ix *Index) Optimize(ctx context.Context) error {
	steps := []struct {
		name string
		sql  string
	}{
		{"FTS optimize", "INSERT INTO posts_fts(posts_fts) VALUES('optimize')"},
		{"PRAGMA optimize", "PRAGMA optimize"},
		{"ANALYZE", "ANALYZE"},
	}
	for _, step := range steps {
		logger.Debugf("running %s", step.name)
		if _, err := ix.db.ExecContext(ctx, step.sql); err != nil {
			return fmt.Errorf("running %s: %w", step.name, err)
		}
	}
	return nil
}

// Vacuum rebuilds the database file to reclaim free pages.
func (ix *Index) Vacuum(ctx context.Context) error {
	if _, err := ix.db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("running VACUUM: %w", err)
	}
	return nil
}

// Checkpoint flushes the WAL into the main database file.
func (ix *Index) Checkpoint(ctx context.Context) error {
	if _, err := ix.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("running WAL checkpoint: %w", err)
	}
	return nil
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}
