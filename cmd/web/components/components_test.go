package components

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/codewithjohnson/folio/cmd/web/components/types"
	"github.com/codewithjohnson/folio/pkg/contact"
	"github.com/codewithjohnson/folio/pkg/content"
	"github.com/codewithjohnson/folio/pkg/listing"
	"github.com/codewithjohnson/folio/pkg/pagination"
	"github.com/codewithjohnson/folio/pkg/scroll"
)

func TestBlogPageRendersCardsAndPagination(t *testing.T) {
	posts := []content.Post{{
		Slug:  "hello",
		Title: "Hello <World>",
		Date:  time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Tags:  []string{"Go", "Web", "SQL", "CSS", "HTML"},
	}}
	data := types.PageData{
		Path:       "/blog/page/2",
		Nav:        types.Nav,
		Site:       types.SiteInfo{Title: "Site"},
		Heading:    "All Posts",
		List:       listing.Build(posts, listing.NewDateFormatter("en-US")),
		Pagination: pagination.Compute(2, 3, "/blog/page/2"),
	}

	var buf bytes.Buffer
	if err := Blog(data).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	body := buf.String()

	for _, want := range []string{
		"<title>All Posts - Site</title>",
		"Hello &lt;World&gt;",
		`href="/tags/sql"`,
		"+2",
		`href="/blog/"`,
		`href="/blog/page/3"`,
		`class="active" aria-current="page">Blog</a>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected %q in output", want)
		}
	}
	if strings.Contains(body, `href="/tags/css"`) {
		t.Error("Expected tags past the third to be hidden")
	}
}

func TestRenderScroll(t *testing.T) {
	w := scroll.New(listing.NewDateFormatter("en-US"))

	html, err := RenderScroll(context.Background(), w.View())
	if err != nil {
		t.Fatalf("render loading: %v", err)
	}
	if !strings.Contains(html, `data-state="loading"`) {
		t.Errorf("Expected loading panel, got %s", html)
	}

	w.Observe([]content.Post{{Slug: "a", Title: "First"}, {Slug: "b", Title: "Second"}})
	html, err = RenderScroll(context.Background(), w.View())
	if err != nil {
		t.Fatalf("render ready: %v", err)
	}
	for _, want := range []string{`data-state="ready"`, "First", "animation-delay: 100ms", "View all posts"} {
		if !strings.Contains(html, want) {
			t.Errorf("Expected %q in %s", want, html)
		}
	}
	if strings.Contains(html, "<html") {
		t.Error("Expected a fragment without the page layout")
	}
}

func TestContactPageThemeStyle(t *testing.T) {
	data := types.PageData{
		Contact: types.ContactView{
			Email:       "me@example.com",
			ScheduleURL: "https://calendly.com/me",
			Theme:       contact.Themes[1],
			ThemeIndex:  1,
		},
	}

	var buf bytes.Buffer
	if err := Contact(data).Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	body := buf.String()
	for _, want := range []string{
		"--accent: #8B5CF6; --accent-soft: rgba(139, 92, 246, 0.2);",
		`data-theme="violet"`,
		`data-theme-index="1"`,
		`target="_blank"`,
		`data-email="me@example.com"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected %q in output", want)
		}
	}
}

func TestIsActive(t *testing.T) {
	tests := []struct {
		path, href string
		want       bool
	}{
		{"/blog", "/blog", true},
		{"/blog/page/2", "/blog", true},
		{"/blogroll", "/blog", false},
		{"/", "/blog", false},
	}
	for _, tt := range tests {
		if got := isActive(tt.path, tt.href); got != tt.want {
			t.Errorf("isActive(%q, %q) = %v, want %v", tt.path, tt.href, got, tt.want)
		}
	}
}
