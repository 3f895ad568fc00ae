package api

import (
	"html/template"
	"time"

	"github.com/codewithjohnson/folio/pkg/content"
)

// PostResponse is the core content of a post.
type PostResponse struct {
	Slug    string     `json:"slug"`
	Title   string     `json:"title"`
	Date    *time.Time `json:"date,omitempty"`
	Summary string     `json:"summary,omitempty"`
	Tags    []string   `json:"tags"`
	URL     string     `json:"url"`
}

// PostDetailResponse adds the rendered body and neighbours.
type PostDetailResponse struct {
	PostResponse
	HTML  template.HTML `json:"html"`
	Newer *PostResponse `json:"newer,omitempty"`
	Older *PostResponse `json:"older,omitempty"`
}

type ListPostsResponse struct {
	Posts      []PostResponse `json:"posts"`
	Count      int            `json:"count"`
	Tag        string         `json:"tag,omitempty"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalCount int            `json:"total_count"`
	TotalPages int            `json:"total_pages"`
	HasMore    bool           `json:"has_more"`
}

type SearchResponse struct {
	Query      string         `json:"query"`
	Posts      []PostResponse `json:"posts"`
	Count      int            `json:"count"`
	TotalCount int            `json:"total_count"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
	HasMore    bool           `json:"has_more"`
}

type TagsResponse struct {
	Tags  []content.TagCount `json:"tags"`
	Count int                `json:"count"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Posts     int       `json:"posts"`
}

func toPostResponse(p content.Post) PostResponse {
	r := PostResponse{
		Slug:    p.Slug,
		Title:   p.Title,
		Summary: p.Summary,
		Tags:    p.Tags,
		URL:     p.URL(),
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if !p.Date.IsZero() {
		d := p.Date
		r.Date = &d
	}
	return r
}
