package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/codewithjohnson/folio/pkg/content"
	"github.com/codewithjohnson/folio/pkg/log"
	"github.com/codewithjohnson/folio/pkg/storage"
)

// PostStore is the read side of the content library.
type PostStore interface {
	Posts() []content.Post
	Post(slug string) (content.Post, error)
	Adjacent(slug string) (newer, older *content.Post)
	Tags() []content.TagCount
	ByTag(tagSlug string) ([]content.Post, string, bool)
}

// Searcher runs full text queries.
type Searcher interface {
	Search(ctx context.Context, params storage.SearchParams) (*storage.SearchResults, error)
}

type Server struct {
	posts    PostStore
	searcher Searcher
	pageSize int
	log      *log.Logger
}

// NewServer serves posts from store. searcher may be nil, in which case the
// search endpoint reports the index as unavailable.
func NewServer(store PostStore, searcher Searcher, pageSize int) *Server {
	if pageSize <= 0 {
		pageSize = storage.DefaultLimit
	}
	return &Server{
		posts:    store,
		searcher: searcher,
		pageSize: pageSize,
		log:      log.ForService("api"),
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	response := ErrorResponse{
		Error:   error,
		Message: message,
	}
	s.writeJSON(w, status, response)
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
