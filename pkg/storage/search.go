package storage

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/codewithjohnson/folio/pkg/pagination"
)

// Search defaults.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// SearchParams selects a page of indexed posts.
type SearchParams struct {
	// Query is an FTS5 expression. Empty lists every post.
	Query string
	// Tag restricts results to posts carrying this tag slug.
	Tag string
	// Page is 1-based.
	Page  int
	Limit int
	// StartDate and EndDate bound the publish date, inclusive.
	StartDate *time.Time
	EndDate   *time.Time
}

// SearchResults is one page of matching slugs, newest first.
type SearchResults struct {
	Slugs      []string
	TotalCount int
	Page       int
	Limit      int
	TotalPages int
	HasMore    bool
	Query      string
}

// ParseSearchParams reads q, tag, page, limit, start_date and end_date.
// Invalid page and limit values fall back to defaults; invalid dates are an
// error. end_date covers the whole day.
func ParseSearchParams(values url.Values) (SearchParams, error) {
	params := SearchParams{
		Query: strings.TrimSpace(values.Get("q")),
		Tag:   strings.TrimSpace(values.Get("tag")),
		Page:  1,
		Limit: DefaultLimit,
	}

	if s := values.Get("limit"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil && parsed > 0 {
			params.Limit = min(parsed, MaxLimit)
		}
	}
	if s := values.Get("page"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil && parsed > 0 {
			params.Page = pagination.ClampPage(parsed)
		}
	}
	if s := values.Get("start_date"); s != "" {
		parsed, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return params, fmt.Errorf("invalid start_date %q: %w", s, err)
		}
		params.StartDate = &parsed
	}
	if s := values.Get("end_date"); s != "" {
		parsed, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return params, fmt.Errorf("invalid end_date %q: %w", s, err)
		}
		endOfDay := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 23, 59, 59, 0, time.UTC)
		params.EndDate = &endOfDay
	}
	return params, nil
}

// Search returns the requested page of matching post slugs.
func (ix *Index) Search(ctx context.Context, params SearchParams) (*SearchResults, error) {
	params.Page = pagination.ClampPage(params.Page)
	if params.Limit <= 0 {
		params.Limit = DefaultLimit
	}
	params.Limit = min(params.Limit, MaxLimit)

	var conds []string
	var args []any
	from := "posts p"
	if params.Query != "" {
		from = "posts p JOIN posts_fts fts ON p.rowid = fts.rowid"
		conds = append(conds, "posts_fts MATCH ?")
		args = append(args, params.Query)
	}
	if params.Tag != "" {
		conds = append(conds, "instr(p.tag_slugs, ?) > 0")
		args = append(args, " "+params.Tag+" ")
	}
	if params.StartDate != nil {
		conds = append(conds, "p.published_at >= ?")
		args = append(args, params.StartDate.UTC().Format(time.RFC3339))
	}
	if params.EndDate != nil {
		conds = append(conds, "p.published_at <= ?")
		args = append(args, params.EndDate.UTC().Format(time.RFC3339))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	offset := (params.Page - 1) * params.Limit

	var total int
	if err := ix.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+from+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}

	query := "SELECT p.slug FROM " + from + where +
		" ORDER BY p.published_at IS NULL, p.published_at DESC, p.slug LIMIT ? OFFSET ?"
	rows, err := ix.db.QueryContext(ctx, query, append(args, params.Limit, offset)...)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Warnf("failed to close rows: %v", err)
		}
	}()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		slugs = append(slugs, slug)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}

	totalPages := pagination.TotalPages(total, params.Limit)
	return &SearchResults{
		Slugs:      slugs,
		TotalCount: total,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: totalPages,
		HasMore:    params.Page < totalPages,
		Query:      params.Query,
	}, nil
}

// FriendlyError turns sqlite and FTS5 failures into a message fit for a
// search page.
func FriendlyError(err error) string {
	errStr := err.Error()

	if strings.Contains(errStr, "fts5: syntax error") {
		if strings.Contains(errStr, `syntax error near "/"`) {
			return "Invalid search query: forward slashes (/) are not allowed in search terms. Remove special characters or quote the query and try again."
		}
		if strings.Contains(errStr, `syntax error near "'"`) {
			return "Invalid search query: unmatched single quotes. Use double quotes for phrase searches or remove single quotes."
		}
		return "Invalid search syntax. Check your query for special characters, unmatched quotes or invalid operators."
	}
	if strings.Contains(errStr, "no such column") {
		return "Invalid search query: use quotes around terms that contain a colon."
	}
	if strings.Contains(errStr, "database is locked") {
		return "The search index is busy. Please try again in a moment."
	}
	return "Search failed due to an unexpected error. Please try a simpler query."
}
