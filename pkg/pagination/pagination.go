// Package pagination maps a page position onto navigation affordances for
// paginated section listings such as /blog/page/{n}.
package pagination

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidPage is returned by ParsePage for non-numeric or non-positive pages.
var ErrInvalidPage = errors.New("invalid page number")

var pageSuffix = regexp.MustCompile(`/page/\d+/?$`)

// Pagination describes one page of a section listing.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	BasePath    string
	HasPrev     bool
	HasNext     bool
	PrevURL     string
	NextURL     string
}

// Visible reports whether navigation should be rendered at all.
func (p Pagination) Visible() bool {
	return p.TotalPages > 1
}

// Compute derives the navigation for currentPage of totalPages. path is the
// request path of the current page (e.g. "/blog/page/3" or "/blog"); the
// section root is recovered from it. Inputs are trusted: callers validate
// 1 <= currentPage <= totalPages.
func Compute(currentPage, totalPages int, path string) Pagination {
	base := BasePath(path)
	p := Pagination{
		CurrentPage: currentPage,
		TotalPages:  totalPages,
		BasePath:    base,
		HasPrev:     currentPage > 1,
		HasNext:     currentPage < totalPages,
	}
	if p.HasPrev {
		if currentPage-1 == 1 {
			p.PrevURL = RootURL(base)
		} else {
			p.PrevURL = PageURL(base, currentPage-1)
		}
	}
	if p.HasNext {
		p.NextURL = PageURL(base, currentPage+1)
	}
	return p
}

// BasePath strips the leading slash, any trailing /page/N and the trailing
// slash from a request path: "/blog/page/2/" becomes "blog".
func BasePath(path string) string {
	base := strings.TrimPrefix(path, "/")
	base = pageSuffix.ReplaceAllString(base, "")
	return strings.TrimSuffix(base, "/")
}

// RootURL is the first page of the section.
func RootURL(base string) string {
	if base == "" {
		return "/"
	}
	return "/" + base + "/"
}

// PageURL is the URL of page n of the section.
func PageURL(base string, n int) string {
	if base == "" {
		return fmt.Sprintf("/page/%d", n)
	}
	return fmt.Sprintf("/%s/page/%d", base, n)
}

// TotalPages returns the number of pages needed for count items, never less than one.
func TotalPages(count, size int) int {
	if size <= 0 || count <= 0 {
		return 1
	}
	return (count + size - 1) / size
}

// Slice returns the items of page (1-based) for the given page size. Pages
// past the end yield an empty slice.
func Slice[T any](items []T, page, size int) []T {
	if size <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	// checked before multiplying, huge pages would overflow
	if page-1 >= (len(items)+size-1)/size {
		return items[:0]
	}
	start := (page - 1) * size
	end := min(start+size, len(items))
	return items[start:end]
}

// MaxPage bounds page numbers taken from requests so that page*size stays
// well inside int range for any accepted page size.
const MaxPage = 1 << 20

// ClampPage limits page to [1, MaxPage].
func ClampPage(page int) int {
	return min(max(page, 1), MaxPage)
}

// ParsePage parses a page path segment.
func ParsePage(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPage, s)
	}
	return n, nil
}
