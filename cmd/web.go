package cmd

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	stdlog "log"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/a-h/templ"
	"github.com/codewithjohnson/folio/cmd/web/components"
	"github.com/codewithjohnson/folio/cmd/web/components/types"
	"github.com/codewithjohnson/folio/pkg/api"
	"github.com/codewithjohnson/folio/pkg/clock"
	"github.com/codewithjohnson/folio/pkg/config"
	"github.com/codewithjohnson/folio/pkg/contact"
	"github.com/codewithjohnson/folio/pkg/content"
	"github.com/codewithjohnson/folio/pkg/listing"
	"github.com/codewithjohnson/folio/pkg/log"
	"github.com/codewithjohnson/folio/pkg/pagination"
	"github.com/codewithjohnson/folio/pkg/projects"
	"github.com/codewithjohnson/folio/pkg/realtime"
	"github.com/codewithjohnson/folio/pkg/scroll"
	"github.com/codewithjohnson/folio/pkg/storage"
	"github.com/codewithjohnson/folio/pkg/version"
	"github.com/klauspost/compress/gzhttp"
	"github.com/urfave/cli/v3"
)

//go:embed web/static/*
var staticFS embed.FS

// WebCommand creates the web command with both API and UI
func WebCommand() *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Start the web server with the site, the JSON API and live updates",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on (overrides server.port)",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind to (overrides server.host)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if c.IsSet("host") {
				cfg.Server.Host = c.String("host")
			}
			if c.IsSet("port") {
				cfg.Server.Port = int(c.Int("port"))
			}
			return startWebServer(ctx, cfg)
		},
	}
}

// WebServer holds the server configuration and dependencies
type WebServer struct {
	config    *config.Config
	library   *content.Library
	index     *storage.Index
	hub       *realtime.Hub
	projects  *projects.Service
	apiServer *api.Server
	live      *realtime.Handler
	dates     listing.DateFormatter
	social    []contact.SocialLink
	log       *log.Logger
}

// newWebServer wires the handlers. index and proj may be nil: search then
// reports itself unavailable and the about page shows no projects.
func newWebServer(cfg *config.Config, lib *content.Library, index *storage.Index, hub *realtime.Hub, proj *projects.Service, clk clock.Clock) *WebServer {
	dates := listing.NewDateFormatter(cfg.Site.Locale)

	var searcher api.Searcher
	if index != nil {
		searcher = index
	}

	return &WebServer{
		config:    cfg,
		library:   lib,
		index:     index,
		hub:       hub,
		projects:  proj,
		apiServer: api.NewServer(lib, searcher, cfg.Site.PostsPerPage),
		live: &realtime.Handler{
			Hub:          hub,
			Source:       lib,
			Clock:        clk,
			Email:        cfg.Contact.Email,
			Dates:        dates,
			RenderScroll: components.RenderScroll,
		},
		dates:  dates,
		social: contact.Links(cfg.Author.Social),
		log:    log.ForService("web"),
	}
}

// startWebServer starts the web server with both API and UI
func startWebServer(ctx context.Context, cfg *config.Config) error {
	logger := log.ForService("web")

	lib := content.NewLibrary(content.NewLoader(cfg.ContentDir, cfg.IncludeDrafts))
	posts, err := lib.Reload()
	if err != nil {
		return fmt.Errorf("loading content: %w", err)
	}
	logger.Infof("loaded %d posts from %s", len(posts), cfg.ContentDir)
	if len(posts) == 0 {
		logger.Warnf("no posts found; the latest posts panel will stay in its loading state until a post is added")
	}

	index, err := storage.Open(ctx, cfg.StorageDir)
	if err != nil {
		return fmt.Errorf("opening search index: %w", err)
	}
	defer func() {
		if err := index.Close(); err != nil {
			logger.Warnf("failed to close search index: %v", err)
		}
	}()
	if err := index.Replace(ctx, posts); err != nil {
		return fmt.Errorf("indexing posts: %w", err)
	}

	proj := projects.New(projects.Config{
		User:       cfg.GitHub.User,
		Token:      cfg.GitHub.Token,
		Limit:      cfg.GitHub.Limit,
		CacheTTL:   cfg.GitHub.CacheTTL.Duration,
		StaticFile: projectsFile(cfg),
	})

	hub := realtime.NewHub(0)
	webServer := newWebServer(cfg, lib, index, hub, proj, clock.Real())

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher := content.NewWatcher(lib, webServer.reloadHandler(ctx))
	go func() {
		if err := watcher.Run(ctx); err != nil {
			logger.Warnf("content watcher stopped: %v", err)
		}
	}()

	server := &http.Server{
		Addr:     cfg.Server.Addr(),
		Handler:  webServer.Handler(),
		ErrorLog: stdlog.New(logger.Writer(), "", 0),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting web server on http://%s", cfg.Server.Addr())
		logger.Infof("  Site:  /, /about, /contact, /blog, /tags, /search")
		logger.Infof("  API:   /api/posts, /api/posts/{slug}, /api/search, /api/tags, /health")
		logger.Infof("  Live:  /live/ws")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("web server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Infof("Shutting down web server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

// projectsFile resolves a relative projects file against the content root.
func projectsFile(cfg *config.Config) string {
	p := cfg.GitHub.ProjectsFile
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cfg.ContentDir, p)
}

// reloadHandler keeps the search index in step with the library and tells
// live sessions that posts changed.
func (s *WebServer) reloadHandler(ctx context.Context) content.ReloadFunc {
	return func(posts []content.Post) {
		if s.index != nil {
			if err := s.index.Replace(ctx, posts); err != nil {
				s.log.Errorf("reindexing posts: %v", err)
			}
		}
		s.hub.Broadcast(realtime.NewReloadEvent(len(posts), time.Now()))
	}
}

// Handler builds the complete HTTP handler. The websocket route is mounted
// outside the compression wrapper, which cannot hijack connections.
func (s *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()

	// API routes
	apiMux := http.NewServeMux()
	s.apiServer.RegisterRoutes(apiMux)
	apiHandler := api.CorsMiddleware(apiMux)
	mux.Handle("/api/", apiHandler)
	mux.Handle("/health", apiHandler)

	// Web UI routes
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /about", s.handleAbout)
	mux.HandleFunc("GET /contact", s.handleContact)
	mux.HandleFunc("GET /blog", s.handleBlog)
	mux.HandleFunc("GET /blog/{$}", s.handleBlog)
	mux.HandleFunc("GET /blog/page/{n}", s.handleBlogPage)
	mux.HandleFunc("GET /blog/page/{n}/{$}", redirectTrimSlash)
	mux.HandleFunc("GET /blog/{slug...}", s.handlePost)
	mux.HandleFunc("GET /tags", s.handleTags)
	mux.HandleFunc("GET /tags/{$}", s.handleTags)
	mux.HandleFunc("GET /tags/{tag}", s.handleTag)
	mux.HandleFunc("GET /tags/{tag}/{$}", s.handleTag)
	mux.HandleFunc("GET /tags/{tag}/page/{n}", s.handleTagPage)
	mux.HandleFunc("GET /tags/{tag}/page/{n}/{$}", redirectTrimSlash)
	mux.HandleFunc("GET /search", s.handleSearch)

	// Static assets
	mux.HandleFunc("GET /static/", s.handleStatic)

	mux.HandleFunc("/", s.notFound)

	var handler http.Handler = mux
	if s.config.Server.Compress {
		handler = gzhttp.GzipHandler(handler)
	}

	root := http.NewServeMux()
	root.Handle("GET /live/ws", s.live)
	root.Handle("/", handler)
	return root
}

// Web UI Handlers

func (s *WebServer) handleHome(w http.ResponseWriter, r *http.Request) {
	widget := scroll.New(s.dates)
	widget.Observe(s.library.Posts())

	data := s.pageData(r)
	data.Scroll = widget.View()
	s.render(w, r, http.StatusOK, components.Home(data))
}

func (s *WebServer) handleAbout(w http.ResponseWriter, r *http.Request) {
	data := s.pageData(r)
	if s.projects != nil {
		data.Projects = s.projects.Projects(r.Context())
	}
	s.render(w, r, http.StatusOK, components.About(data))
}

// handleContact renders the panel on a random theme; the live session then
// owns rotation and copy feedback.
func (s *WebServer) handleContact(w http.ResponseWriter, r *http.Request) {
	i := rand.IntN(len(contact.Themes))
	data := s.pageData(r)
	data.Contact = types.ContactView{
		Email:       s.config.Contact.Email,
		ScheduleURL: s.config.Contact.ScheduleURL,
		Theme:       contact.Themes[i],
		ThemeIndex:  i,
	}
	s.render(w, r, http.StatusOK, components.Contact(data))
}

func (s *WebServer) handleBlog(w http.ResponseWriter, r *http.Request) {
	s.renderListing(w, r, s.library.Posts(), "All Posts", 1)
}

func (s *WebServer) handleBlogPage(w http.ResponseWriter, r *http.Request) {
	page, err := pagination.ParsePage(r.PathValue("n"))
	if err != nil {
		s.notFound(w, r)
		return
	}
	if page == 1 {
		http.Redirect(w, r, "/blog/", http.StatusMovedPermanently)
		return
	}
	s.renderListing(w, r, s.library.Posts(), "All Posts", page)
}

// redirectTrimSlash sends "/blog/page/2/" to its canonical "/blog/page/2".
func redirectTrimSlash(w http.ResponseWriter, r *http.Request) {
	target := strings.TrimSuffix(r.URL.EscapedPath(), "/")
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusMovedPermanently)
}

func (s *WebServer) handlePost(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSuffix(r.PathValue("slug"), "/")
	post, err := s.library.Post(slug)
	if err != nil {
		if !errors.Is(err, content.ErrNotFound) {
			s.log.Errorf("loading post %q: %v", slug, err)
		}
		s.notFound(w, r)
		return
	}

	view := &types.PostView{
		Slug:        post.Slug,
		Title:       post.Title,
		ISODate:     post.ISODate(),
		DisplayDate: s.dates.Format(post.Date),
		Summary:     post.Summary,
		Tags:        listing.SplitTags(post.Tags, len(post.Tags)),
		Body:        post.Body,
	}
	newer, older := s.library.Adjacent(post.Slug)
	if newer != nil {
		c := listing.NewCard(*newer, s.dates)
		view.Newer = &c
	}
	if older != nil {
		c := listing.NewCard(*older, s.dates)
		view.Older = &c
	}

	data := s.pageData(r)
	data.Post = view
	s.render(w, r, http.StatusOK, components.Post(data))
}

func (s *WebServer) handleTags(w http.ResponseWriter, r *http.Request) {
	data := s.pageData(r)
	data.Tags = s.library.Tags()
	s.render(w, r, http.StatusOK, components.Tags(data))
}

func (s *WebServer) handleTag(w http.ResponseWriter, r *http.Request) {
	s.renderTag(w, r, 1)
}

func (s *WebServer) handleTagPage(w http.ResponseWriter, r *http.Request) {
	page, err := pagination.ParsePage(r.PathValue("n"))
	if err != nil {
		s.notFound(w, r)
		return
	}
	if page == 1 {
		http.Redirect(w, r, "/tags/"+url.PathEscape(r.PathValue("tag"))+"/", http.StatusMovedPermanently)
		return
	}
	s.renderTag(w, r, page)
}

func (s *WebServer) renderTag(w http.ResponseWriter, r *http.Request, page int) {
	posts, name, ok := s.library.ByTag(r.PathValue("tag"))
	if !ok {
		s.notFound(w, r)
		return
	}
	s.renderListing(w, r, posts, name, page)
}

// renderListing renders one page of posts. Pages past the end are 404s.
func (s *WebServer) renderListing(w http.ResponseWriter, r *http.Request, posts []content.Post, heading string, page int) {
	size := s.config.Site.PostsPerPage
	total := pagination.TotalPages(len(posts), size)
	if page > total {
		s.notFound(w, r)
		return
	}

	data := s.pageData(r)
	data.Heading = heading
	data.List = listing.Build(pagination.Slice(posts, page, size), s.dates)
	data.Pagination = pagination.Compute(page, total, r.URL.Path)
	s.render(w, r, http.StatusOK, components.Blog(data))
}

// handleSearch handles full text search over the index
func (s *WebServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	data := s.pageData(r)
	data.Query = r.URL.Query().Get("q")

	params, err := storage.ParseSearchParams(r.URL.Query())
	if err != nil {
		data.Error = fmt.Sprintf("Invalid parameters: %v", err)
		s.render(w, r, http.StatusBadRequest, components.Search(data))
		return
	}
	data.Query = params.Query

	// An empty query shows the search form only
	if params.Query == "" {
		s.render(w, r, http.StatusOK, components.Search(data))
		return
	}
	if s.index == nil {
		data.Error = "Search is not available right now."
		s.render(w, r, http.StatusServiceUnavailable, components.Search(data))
		return
	}

	results, err := s.index.Search(r.Context(), params)
	if err != nil {
		// Render the form with a friendly message instead of failing
		data.Error = storage.FriendlyError(err)
		s.render(w, r, http.StatusOK, components.Search(data))
		return
	}
	if results.Page > results.TotalPages {
		s.notFound(w, r)
		return
	}

	posts := make([]content.Post, 0, len(results.Slugs))
	for _, slug := range results.Slugs {
		// The index can briefly lag a reload; skip posts that vanished.
		if p, err := s.library.Post(slug); err == nil {
			posts = append(posts, p)
		}
	}
	data.TotalCount = results.TotalCount
	data.List = listing.Build(posts, s.dates)
	data.Pagination = searchPagination(r.URL.Query(), results)
	s.render(w, r, http.StatusOK, components.Search(data))
}

// searchPagination links pages through the page query parameter, keeping the
// rest of the query intact.
func searchPagination(query url.Values, results *storage.SearchResults) pagination.Pagination {
	p := pagination.Pagination{
		CurrentPage: results.Page,
		TotalPages:  results.TotalPages,
		BasePath:    "search",
		HasPrev:     results.Page > 1,
		HasNext:     results.HasMore,
	}
	pageURL := func(n int) string {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		if n == 1 {
			q.Del("page")
		} else {
			q.Set("page", strconv.Itoa(n))
		}
		return "/search?" + q.Encode()
	}
	if p.HasPrev {
		p.PrevURL = pageURL(p.CurrentPage - 1)
	}
	if p.HasNext {
		p.NextURL = pageURL(p.CurrentPage + 1)
	}
	return p
}

func (s *WebServer) notFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, components.NotFound(s.pageData(r)))
}

// handleStatic serves static assets from embedded files
func (s *WebServer) handleStatic(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	// Remove /static/ prefix and add web/static/ prefix for embedded filesystem
	filePath := "web/static/" + strings.TrimPrefix(path, "/static/")

	content, err := staticFS.ReadFile(filePath)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch {
	case strings.HasSuffix(path, ".css"):
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
	case strings.HasSuffix(path, ".js"):
		w.Header().Set("Content-Type", "application/javascript")
	case strings.HasSuffix(path, ".svg"):
		w.Header().Set("Content-Type", "image/svg+xml")
	case strings.HasSuffix(path, ".ico"):
		w.Header().Set("Content-Type", "image/x-icon")
	case strings.HasSuffix(path, ".png"):
		w.Header().Set("Content-Type", "image/png")
	}

	// Set cache headers for static assets
	w.Header().Set("Cache-Control", "public, max-age=3600")

	if _, err := w.Write(content); err != nil {
		s.log.Debugf("writing static content: %v", err)
	}
}

// Helper methods

// pageData fills the parts every page shares.
func (s *WebServer) pageData(r *http.Request) types.PageData {
	cfg := s.config
	return types.PageData{
		Path: r.URL.Path,
		Nav:  types.Nav,
		Site: types.SiteInfo{
			Title:       cfg.Site.Title,
			Description: cfg.Site.Description,
			URL:         cfg.Site.URL,
		},
		Author: types.AuthorInfo{
			Name:       cfg.Author.Name,
			Occupation: cfg.Author.Occupation,
			Company:    cfg.Author.Company,
			Tagline:    cfg.Author.Tagline,
			Avatar:     cfg.Author.Avatar,
			Bio:        cfg.Author.Bio,
			Skills:     cfg.Author.Skills,
		},
		Social:  s.social,
		Version: version.Version,
	}
}

// render buffers the page so a template error can still become a 500.
func (s *WebServer) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		s.log.Errorf("rendering %s: %v", r.URL.Path, err)
		http.Error(w, fmt.Sprintf("Template error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		s.log.Debugf("writing response: %v", err)
	}
}
