package storage

import (
	"context"
	"html/template"
	"math"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/codewithjohnson/folio/pkg/content"
	"github.com/codewithjohnson/folio/pkg/pagination"
	"github.com/google/go-cmp/cmp"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := Open(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	t.Cleanup(func() { _ = ix.Close() })
	return ix
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func fixturePosts() []content.Post {
	return []content.Post{
		{Slug: "pwa-offline", Title: "Offline first PWAs", Date: day(20), Summary: "Service workers", Tags: []string{"PWA", "Web Performance"},
			Body: template.HTML("<p>Caching strategies for <strong>offline</strong> apps</p>")},
		{Slug: "go-generics", Title: "Generics in Go", Date: day(10), Tags: []string{"Go"},
			Body: template.HTML("<p>Type parameters &amp; constraints</p>")},
		{Slug: "web-vitals", Title: "Measuring web vitals", Date: day(15), Tags: []string{"Web Performance"},
			Body: template.HTML("<p>LCP, CLS and INP</p>")},
		{Slug: "undated", Title: "Scratch notes", Body: template.HTML("<p>offline thoughts</p>")},
	}
}

func TestOpenAppliesMigrations(t *testing.T) {
	dir := t.TempDir()
	ix, err := Open(context.Background(), dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if ix.Path() != filepath.Join(dir, DBName) {
		t.Errorf("unexpected path %s", ix.Path())
	}

	status, err := NewMigrator(ix.DB()).Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(status.Pending) != 0 || len(status.Applied) != len(status.Available) || len(status.Available) < 2 {
		t.Fatalf("unexpected migration status: %+v", status)
	}
	for _, m := range status.Applied {
		if m.AppliedAt == nil {
			t.Errorf("migration %d has no applied time", m.Version)
		}
	}
	_ = ix.Close()

	// reopening must not re-apply anything
	ix, err = Open(context.Background(), dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = ix.Close()
}

func TestMigratorFS(t *testing.T) {
	ix := openTestIndex(t)
	fsys := fstest.MapFS{
		"900_extra.sql":  {Data: []byte("CREATE TABLE extra (id INTEGER PRIMARY KEY);")},
		"readme.txt":     {Data: []byte("ignored")},
		"bad_name.sql":   {Data: []byte("ignored")},
		"901_second.sql": {Data: []byte("INSERT INTO extra (id) VALUES (1);")},
	}
	m := NewMigratorFS(ix.DB(), fsys)
	available, err := m.Available()
	if err != nil {
		t.Fatal(err)
	}
	var versions []int
	for _, a := range available {
		versions = append(versions, a.Version)
	}
	if diff := cmp.Diff([]int{900, 901}, versions); diff != "" {
		t.Fatalf("available versions (-want +got):\n%s", diff)
	}
	if err := m.Apply(context.Background()); err != nil {
		t.Fatalf("apply: %v", err)
	}
	var n int
	if err := ix.DB().QueryRow("SELECT COUNT(*) FROM extra").Scan(&n); err != nil || n != 1 {
		t.Fatalf("expected one row in extra, got %d (%v)", n, err)
	}
}

func TestReplaceAndSearch(t *testing.T) {
	ix := openTestIndex(t)
	ctx := context.Background()
	if err := ix.Replace(ctx, fixturePosts()); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if n, err := ix.Count(ctx); err != nil || n != 4 {
		t.Fatalf("count = %d, %v", n, err)
	}

	tests := []struct {
		name   string
		params SearchParams
		want   []string
		total  int
	}{
		{"all newest first, undated last", SearchParams{Page: 1, Limit: 10}, []string{"pwa-offline", "web-vitals", "go-generics", "undated"}, 4},
		{"body text", SearchParams{Query: "offline", Page: 1, Limit: 10}, []string{"pwa-offline", "undated"}, 2},
		{"markup stripped and stemmed", SearchParams{Query: "constraint", Page: 1, Limit: 10}, []string{"go-generics"}, 1},
		{"tag filter", SearchParams{Tag: "web-performance", Page: 1, Limit: 10}, []string{"pwa-offline", "web-vitals"}, 2},
		{"second page", SearchParams{Page: 2, Limit: 3}, []string{"undated"}, 4},
		{"date range", SearchParams{StartDate: ptr(day(12)), EndDate: ptr(day(16)), Page: 1, Limit: 10}, []string{"web-vitals"}, 1},
		{"no match", SearchParams{Query: "kubernetes", Page: 1, Limit: 10}, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ix.Search(ctx, tt.params)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if diff := cmp.Diff(tt.want, res.Slugs); diff != "" {
				t.Errorf("slugs (-want +got):\n%s", diff)
			}
			if res.TotalCount != tt.total {
				t.Errorf("total %d, want %d", res.TotalCount, tt.total)
			}
		})
	}
}

func TestSearchPaginationMetadata(t *testing.T) {
	ix := openTestIndex(t)
	ctx := context.Background()
	if err := ix.Replace(ctx, fixturePosts()); err != nil {
		t.Fatal(err)
	}
	res, err := ix.Search(ctx, SearchParams{Page: 1, Limit: 3})
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalPages != 2 || !res.HasMore {
		t.Fatalf("page 1: %+v", res)
	}
	res, err = ix.Search(ctx, SearchParams{Page: 2, Limit: 3})
	if err != nil {
		t.Fatal(err)
	}
	if res.HasMore || res.Page != 2 {
		t.Fatalf("page 2: %+v", res)
	}
}

func TestSearchHugePageIsEmpty(t *testing.T) {
	ix := openTestIndex(t)
	ctx := context.Background()
	if err := ix.Replace(ctx, fixturePosts()); err != nil {
		t.Fatal(err)
	}
	for _, page := range []int{1844674407370955162, math.MaxInt} {
		res, err := ix.Search(ctx, SearchParams{Query: "offline", Page: page, Limit: MaxLimit * 10})
		if err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
		if len(res.Slugs) != 0 || res.HasMore || res.TotalCount != 2 {
			t.Errorf("page %d: %+v", page, res)
		}
		if res.Page != pagination.MaxPage || res.Limit != MaxLimit {
			t.Errorf("page %d: expected clamped page and limit, got %d/%d", page, res.Page, res.Limit)
		}
	}
}

func TestReplaceDropsRemovedPosts(t *testing.T) {
	ix := openTestIndex(t)
	ctx := context.Background()
	if err := ix.Replace(ctx, fixturePosts()); err != nil {
		t.Fatal(err)
	}
	if err := ix.Replace(ctx, fixturePosts()[:1]); err != nil {
		t.Fatal(err)
	}
	res, err := ix.Search(ctx, SearchParams{Query: "offline", Page: 1, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"pwa-offline"}, res.Slugs); diff != "" {
		t.Fatalf("stale rows left behind (-want +got):\n%s", diff)
	}
}

func TestSearchSyntaxError(t *testing.T) {
	ix := openTestIndex(t)
	ctx := context.Background()
	if err := ix.Replace(ctx, fixturePosts()); err != nil {
		t.Fatal(err)
	}
	_, err := ix.Search(ctx, SearchParams{Query: `"unterminated`, Page: 1, Limit: 10})
	if err == nil {
		t.Fatal("expected an FTS syntax error")
	}
	if msg := FriendlyError(err); !strings.Contains(strings.ToLower(msg), "search") {
		t.Errorf("unfriendly message %q", msg)
	}
}

func TestParseSearchParams(t *testing.T) {
	params, err := ParseSearchParams(url.Values{
		"q":          {"  golang "},
		"tag":        {"go"},
		"page":       {"3"},
		"limit":      {"500"},
		"start_date": {"2024-01-01"},
		"end_date":   {"2024-01-31"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if params.Query != "golang" || params.Tag != "go" || params.Page != 3 || params.Limit != MaxLimit {
		t.Fatalf("unexpected params %+v", params)
	}
	if params.EndDate.Hour() != 23 || params.StartDate.Day() != 1 {
		t.Fatalf("unexpected dates %v %v", params.StartDate, params.EndDate)
	}

	params, err = ParseSearchParams(url.Values{"page": {"-1"}, "limit": {"x"}})
	if err != nil {
		t.Fatal(err)
	}
	if params.Page != 1 || params.Limit != DefaultLimit {
		t.Fatalf("defaults not applied: %+v", params)
	}

	params, err = ParseSearchParams(url.Values{"page": {"1844674407370955162"}})
	if err != nil {
		t.Fatal(err)
	}
	if params.Page != pagination.MaxPage {
		t.Fatalf("huge page not clamped: %+v", params)
	}

	if _, err := ParseSearchParams(url.Values{"start_date": {"yesterday"}}); err == nil {
		t.Fatal("expected error for invalid date")
	}
}

func TestFriendlyError(t *testing.T) {
	tests := map[string]string{
		`fts5: syntax error near "/"`: "forward slashes",
		`fts5: syntax error near "'"`: "single quotes",
		`fts5: syntax error near "&"`: "Invalid search syntax",
		"no such column: foo":         "colon",
		"database is locked":          "busy",
		"boom":                        "unexpected",
	}
	for in, want := range tests {
		if got := FriendlyError(errString(in)); !strings.Contains(got, want) {
			t.Errorf("FriendlyError(%q) = %q, want it to contain %q", in, got, want)
		}
	}
}

type errString string

func (e errString) Error() string { return string(e) }

func ptr[T any](v T) *T { return &v }
