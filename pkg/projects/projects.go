// Package projects builds the project showcase on the about page from a
// hand written projects.yaml and the author's public GitHub repositories.
package projects

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/codewithjohnson/folio/pkg/clock"
	"github.com/codewithjohnson/folio/pkg/log"
	"github.com/google/go-github/v73/github"
	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"
)

// Project sources.
const (
	SourceStatic = "static"
	SourceGitHub = "github"
)

const (
	defaultLimit    = 6
	defaultCacheTTL = time.Hour
)

// Project is one showcase entry.
type Project struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	URL         string    `yaml:"url"`
	Language    string    `yaml:"language"`
	Topics      []string  `yaml:"topics"`
	Stars       int       `yaml:"-"`
	PushedAt    time.Time `yaml:"-"`
	Source      string    `yaml:"-"`
}

// Config selects what is shown.
type Config struct {
	// User is the GitHub login. Empty disables the GitHub listing.
	User string
	// Token is optional; it raises the API rate limit.
	Token    string
	Limit    int
	CacheTTL time.Duration
	// StaticFile is a projects.yaml path. Missing files are ignored.
	StaticFile string
	Clock      clock.Clock
}

// Service caches the combined project list.
type Service struct {
	cfg    Config
	client *github.Client
	log    *log.Logger

	mu        sync.Mutex
	cached    []Project
	fetchedAt time.Time
}

// New builds a service with an authenticated client when a token is set.
func New(cfg Config) *Service {
	var client *github.Client
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		client = github.NewClient(oauth2.NewClient(context.Background(), ts))
	} else {
		client = github.NewClient(nil)
	}
	return NewWithClient(cfg, client)
}

// NewWithClient uses the given client, e.g. one pointed at a test server.
func NewWithClient(cfg Config, client *github.Client) *Service {
	if cfg.Limit <= 0 {
		cfg.Limit = defaultLimit
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	return &Service{cfg: cfg, client: client, log: log.ForService("projects")}
}

// Projects returns static entries first, then GitHub repositories, up to the
// configured limit. Errors are logged and never returned: a failing GitHub
// call leaves the static entries and the previous cache in place.
func (s *Service) Projects(ctx context.Context) []Project {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.cfg.Clock.Now()
	if s.cached != nil && now.Sub(s.fetchedAt) < s.cfg.CacheTTL {
		return clone(s.cached)
	}

	static, err := LoadStatic(s.cfg.StaticFile)
	if err != nil {
		s.log.Warnf("loading %s: %v", s.cfg.StaticFile, err)
	}

	var repos []Project
	if s.cfg.User != "" {
		repos, err = s.fetch(ctx)
		if err != nil {
			s.log.Warnf("listing repositories of %s: %v", s.cfg.User, err)
			if s.cached != nil {
				return clone(s.cached)
			}
		}
	}

	s.cached = merge(static, repos, s.cfg.Limit)
	s.fetchedAt = now
	return clone(s.cached)
}

func (s *Service) fetch(ctx context.Context) ([]Project, error) {
	opts := &github.RepositoryListByUserOptions{
		Type:        "owner",
		Sort:        "pushed",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	repos, _, err := s.client.Repositories.ListByUser(ctx, s.cfg.User, opts)
	if err != nil {
		return nil, err
	}

	projects := make([]Project, 0, len(repos))
	for _, r := range repos {
		if r.GetFork() || r.GetArchived() || r.GetPrivate() {
			continue
		}
		projects = append(projects, Project{
			Name:        r.GetName(),
			Description: r.GetDescription(),
			URL:         r.GetHTMLURL(),
			Language:    r.GetLanguage(),
			Topics:      r.Topics,
			Stars:       r.GetStargazersCount(),
			PushedAt:    r.GetPushedAt().Time,
			Source:      SourceGitHub,
		})
	}
	sort.SliceStable(projects, func(i, j int) bool {
		if projects[i].Stars != projects[j].Stars {
			return projects[i].Stars > projects[j].Stars
		}
		return projects[i].PushedAt.After(projects[j].PushedAt)
	})
	return projects, nil
}

// LoadStatic reads a YAML list of projects. An empty path or a missing
// file yields no projects.
func LoadStatic(path string) ([]Project, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var doc struct {
		Projects []Project `yaml:"projects"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for i := range doc.Projects {
		doc.Projects[i].Source = SourceStatic
		if doc.Projects[i].Name == "" {
			return nil, fmt.Errorf("parsing %s: project %d has no name", path, i+1)
		}
	}
	return doc.Projects, nil
}

// merge keeps static entries first and skips repositories whose name is
// already listed.
func merge(static, repos []Project, limit int) []Project {
	seen := make(map[string]bool, len(static))
	out := make([]Project, 0, limit)
	for _, p := range static {
		if len(out) == limit {
			return out
		}
		seen[strings.ToLower(p.Name)] = true
		out = append(out, p)
	}
	for _, p := range repos {
		if len(out) == limit {
			break
		}
		if seen[strings.ToLower(p.Name)] {
			continue
		}
		out = append(out, p)
	}
	return out
}

func clone(p []Project) []Project {
	return append([]Project(nil), p...)
}
