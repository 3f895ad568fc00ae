package api

import (
	"net/http"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/posts", s.HandleListPosts)
	mux.HandleFunc("GET /api/posts/{slug...}", s.HandleGetPost)
	mux.HandleFunc("GET /api/search", s.HandleSearch)
	mux.HandleFunc("GET /api/tags", s.HandleTags)
	mux.HandleFunc("GET /health", s.HandleHealth)
}
