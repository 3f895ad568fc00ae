// Package content loads blog posts authored as markdown files with YAML
// frontmatter and keeps an immutable, recency-ordered snapshot of them.
package content

import (
	"errors"
	"html/template"
	"sort"
	"strings"
	"time"
	"unicode"
)

var (
	// ErrNotFound is returned when a slug is not present in the library.
	ErrNotFound = errors.New("post not found")
	// ErrDuplicateSlug is returned when two content files resolve to the same slug.
	ErrDuplicateSlug = errors.New("duplicate post slug")
)

// Post is a single blog entry. Posts are values produced by the loader and
// are never mutated afterwards; consumers must treat Tags as read-only.
type Post struct {
	Slug       string
	Title      string
	Date       time.Time
	Summary    string
	Tags       []string
	Draft      bool
	Body       template.HTML
	SourcePath string
}

// URL is the routable path of the post.
func (p Post) URL() string {
	return "/blog/" + p.Slug
}

// ISODate returns the post date as YYYY-MM-DD, or "" for undated posts.
func (p Post) ISODate() string {
	if p.Date.IsZero() {
		return ""
	}
	return p.Date.Format("2006-01-02")
}

// Core returns the display projection of the post without its body.
func (p Post) Core() Post {
	p.Body = ""
	p.SourcePath = ""
	return p
}

// Source supplies posts sorted by recency, newest first.
type Source interface {
	Posts() []Post
}

// StaticSource is a fixed Source, mostly useful for tests and previews.
type StaticSource []Post

// Posts implements Source.
func (s StaticSource) Posts() []Post { return s }

// SortPosts orders posts newest first. Undated posts go last; ties are
// broken by slug so the order is stable across reloads.
func SortPosts(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		switch {
		case a.Date.IsZero() && !b.Date.IsZero():
			return false
		case !a.Date.IsZero() && b.Date.IsZero():
			return true
		case !a.Date.Equal(b.Date):
			return a.Date.After(b.Date)
		}
		return a.Slug < b.Slug
	})
}

// TagSlug normalizes a tag into the path segment used by /tags/{tag}.
func TagSlug(tag string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(tag)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case r == '-' || r == '_' || unicode.IsSpace(r):
			if !lastDash && b.Len() > 0 {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// TagCount is a tag with the number of posts carrying it.
type TagCount struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// CountTags builds the tag index for posts, most used first.
func CountTags(posts []Post) []TagCount {
	counts := make(map[string]*TagCount)
	for _, p := range posts {
		seen := make(map[string]bool, len(p.Tags))
		for _, tag := range p.Tags {
			slug := TagSlug(tag)
			if slug == "" || seen[slug] {
				continue
			}
			seen[slug] = true
			tc, ok := counts[slug]
			if !ok {
				tc = &TagCount{Name: tag, Slug: slug}
				counts[slug] = tc
			}
			tc.Count++
		}
	}

	out := make([]TagCount, 0, len(counts))
	for _, tc := range counts {
		out = append(out, *tc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Slug < out[j].Slug
	})
	return out
}
