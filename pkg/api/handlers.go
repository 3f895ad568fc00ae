package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/codewithjohnson/folio/pkg/content"
	"github.com/codewithjohnson/folio/pkg/pagination"
	"github.com/codewithjohnson/folio/pkg/storage"
	"github.com/codewithjohnson/folio/pkg/version"
)

func (s *Server) HandleListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := 1
	if v := q.Get("page"); v != "" {
		parsed, err := pagination.ParsePage(v)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid page", err.Error())
			return
		}
		page = parsed
	}
	limit := s.pageSize
	if v := q.Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = min(parsed, storage.MaxLimit)
		}
	}

	posts := s.posts.Posts()
	tag := q.Get("tag")
	if tag != "" {
		tagged, _, ok := s.posts.ByTag(content.TagSlug(tag))
		if !ok {
			s.writeError(w, http.StatusNotFound, "Tag not found", fmt.Sprintf("No posts tagged '%s'", tag))
			return
		}
		posts = tagged
	}

	totalPages := pagination.TotalPages(len(posts), limit)
	if page > totalPages {
		s.writeError(w, http.StatusNotFound, "Page not found", fmt.Sprintf("Page %d is past the last page (%d)", page, totalPages))
		return
	}

	pageItems := pagination.Slice(posts, page, limit)
	resp := ListPostsResponse{
		Posts:      make([]PostResponse, len(pageItems)),
		Count:      len(pageItems),
		Tag:        tag,
		Page:       page,
		Limit:      limit,
		TotalCount: len(posts),
		TotalPages: totalPages,
		HasMore:    page < totalPages,
	}
	for i, p := range pageItems {
		resp.Posts[i] = toPostResponse(p)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) HandleGetPost(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		s.writeError(w, http.StatusBadRequest, "Invalid path", "Post slug is required")
		return
	}

	post, err := s.posts.Post(slug)
	if errors.Is(err, content.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Post not found", fmt.Sprintf("Post '%s' does not exist", slug))
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to load post", err.Error())
		return
	}

	resp := PostDetailResponse{PostResponse: toPostResponse(post), HTML: post.Body}
	newer, older := s.posts.Adjacent(slug)
	if newer != nil {
		n := toPostResponse(*newer)
		resp.Newer = &n
	}
	if older != nil {
		o := toPostResponse(*older)
		resp.Older = &o
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	params, err := storage.ParseSearchParams(r.URL.Query())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid date format", err.Error())
		return
	}

	// API requires a query parameter
	if params.Query == "" {
		s.writeError(w, http.StatusBadRequest, "Missing query parameter", "Query parameter 'q' is required")
		return
	}
	if s.searcher == nil {
		s.writeError(w, http.StatusServiceUnavailable, "Search unavailable", "The search index is not available")
		return
	}

	results, err := s.searcher.Search(r.Context(), params)
	if err != nil {
		s.log.Debugf("search %q: %v", params.Query, err)
		s.writeError(w, http.StatusBadRequest, "Search failed", storage.FriendlyError(err))
		return
	}

	resp := SearchResponse{
		Query:      results.Query,
		Posts:      make([]PostResponse, 0, len(results.Slugs)),
		TotalCount: results.TotalCount,
		Page:       results.Page,
		Limit:      results.Limit,
		TotalPages: results.TotalPages,
		HasMore:    results.HasMore,
	}
	for _, slug := range results.Slugs {
		// the index can briefly lag a reload; skip slugs that are gone
		if p, err := s.posts.Post(slug); err == nil {
			resp.Posts = append(resp.Posts, toPostResponse(p))
		}
	}
	resp.Count = len(resp.Posts)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) HandleTags(w http.ResponseWriter, r *http.Request) {
	tags := s.posts.Tags()
	if tags == nil {
		tags = []content.TagCount{}
	}
	s.writeJSON(w, http.StatusOK, TagsResponse{Tags: tags, Count: len(tags)})
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
		Posts:     len(s.posts.Posts()),
	}

	s.writeJSON(w, http.StatusOK, health)
}
