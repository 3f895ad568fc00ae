package content

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/codewithjohnson/folio/pkg/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// BlogDir is the directory under the content root holding blog posts.
const BlogDir = "blog"

var dateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type frontMatter struct {
	Title   string   `yaml:"title"`
	Slug    string   `yaml:"slug"`
	Date    any      `yaml:"date"`
	Summary string   `yaml:"summary"`
	Tags    []string `yaml:"tags"`
	Draft   bool     `yaml:"draft"`
}

// Loader reads posts from a content directory.
type Loader struct {
	dir           string
	includeDrafts bool
	md            goldmark.Markdown
	logger        *log.Logger
}

// NewLoader creates a loader for the content root dir. Posts are read from
// dir/blog recursively.
func NewLoader(dir string, includeDrafts bool) *Loader {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
	)
	return &Loader{
		dir:           dir,
		includeDrafts: includeDrafts,
		md:            md,
		logger:        log.ForService("content"),
	}
}

// Dir returns the content root.
func (l *Loader) Dir() string {
	return l.dir
}

// Load parses every markdown file under the blog directory and returns the
// posts sorted newest first. A missing blog directory yields no posts.
func (l *Loader) Load() ([]Post, error) {
	root := filepath.Join(l.dir, BlogDir)
	if _, err := os.Stat(root); os.IsNotExist(err) {
		l.logger.Warnf("blog directory %s not found, no posts loaded", root)
		return nil, nil
	}

	var posts []Post
	slugs := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("accessing %s: %w", path, walkErr)
		}
		if d.IsDir() || !isMarkdown(d.Name()) {
			return nil
		}

		post, err := l.parseFile(root, path)
		if err != nil {
			return err
		}
		if post.Draft && !l.includeDrafts {
			l.logger.Debugf("skipping draft %s", path)
			return nil
		}
		if prev, dup := slugs[post.Slug]; dup {
			return fmt.Errorf("%w: %q used by %s and %s", ErrDuplicateSlug, post.Slug, prev, path)
		}
		slugs[post.Slug] = path
		posts = append(posts, post)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading posts from %s: %w", root, err)
	}

	SortPosts(posts)
	l.logger.Debugf("loaded %d posts from %s", len(posts), root)
	return posts, nil
}

func (l *Loader) parseFile(root, path string) (Post, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Post{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var fm frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(raw), &fm)
	if err != nil {
		l.logger.Warnf("could not parse frontmatter for %s, treating as plain markdown: %v", path, err)
		body = raw
		fm = frontMatter{}
	}

	var html bytes.Buffer
	if err := l.md.Convert(body, &html); err != nil {
		return Post{}, fmt.Errorf("rendering markdown %s: %w", path, err)
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return Post{}, fmt.Errorf("resolving %s: %w", path, err)
	}
	slug := strings.Trim(fm.Slug, "/")
	if slug == "" {
		slug = filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
	}

	title := strings.TrimSpace(fm.Title)
	if title == "" {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
		title = cases.Title(language.English).String(base)
	}

	date, err := parseDate(fm.Date)
	if err != nil {
		l.logger.Warnf("%s: %v", path, err)
	}

	tags := make([]string, 0, len(fm.Tags))
	for _, tag := range fm.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	return Post{
		Slug:       slug,
		Title:      title,
		Date:       date,
		Summary:    strings.TrimSpace(fm.Summary),
		Tags:       tags,
		Draft:      fm.Draft,
		Body:       template.HTML(html.String()),
		SourcePath: path,
	}, nil
}

// parseDate accepts either a YAML timestamp or one of the supported string
// layouts. An absent date yields the zero time without error.
func parseDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return d, nil
	case string:
		d = strings.TrimSpace(d)
		if d == "" {
			return time.Time{}, nil
		}
		for _, layout := range dateFormats {
			if t, err := time.Parse(layout, d); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized date %q, use YYYY-MM-DD or RFC3339", d)
	default:
		return time.Time{}, fmt.Errorf("unsupported date value %v", v)
	}
}

func isMarkdown(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".md" || ext == ".markdown"
}
