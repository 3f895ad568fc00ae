package content

import (
	"fmt"
	"sync"
)

type snapshot struct {
	posts  []Post
	bySlug map[string]int
	tags   []TagCount
}

func newSnapshot(posts []Post) *snapshot {
	s := &snapshot{
		posts:  posts,
		bySlug: make(map[string]int, len(posts)),
		tags:   CountTags(posts),
	}
	for i, p := range posts {
		s.bySlug[p.Slug] = i
	}
	return s
}

// Library holds the current set of posts. Reload swaps in a fresh snapshot;
// readers always see a complete, consistent snapshot.
type Library struct {
	loader *Loader

	mu   sync.RWMutex
	snap *snapshot
}

// NewLibrary creates an empty library backed by loader. loader may be nil
// for libraries populated through Set.
func NewLibrary(loader *Loader) *Library {
	return &Library{loader: loader, snap: newSnapshot(nil)}
}

// Reload re-reads all posts from the loader. On error the previous
// snapshot is kept.
func (l *Library) Reload() ([]Post, error) {
	if l.loader == nil {
		return nil, fmt.Errorf("library has no loader")
	}
	posts, err := l.loader.Load()
	if err != nil {
		return nil, err
	}
	l.Set(posts)
	return posts, nil
}

// Set replaces the library contents. posts are sorted in place.
func (l *Library) Set(posts []Post) {
	SortPosts(posts)
	snap := newSnapshot(posts)
	l.mu.Lock()
	l.snap = snap
	l.mu.Unlock()
}

func (l *Library) current() *snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap
}

// Posts returns all posts, newest first. The returned slice is a copy.
func (l *Library) Posts() []Post {
	snap := l.current()
	out := make([]Post, len(snap.posts))
	copy(out, snap.posts)
	return out
}

// Len returns the number of posts.
func (l *Library) Len() int {
	return len(l.current().posts)
}

// Post looks up a post by slug.
func (l *Library) Post(slug string) (Post, error) {
	snap := l.current()
	i, ok := snap.bySlug[slug]
	if !ok {
		return Post{}, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}
	return snap.posts[i], nil
}

// Adjacent returns the newer and older neighbours of slug, if any.
func (l *Library) Adjacent(slug string) (newer, older *Post) {
	snap := l.current()
	i, ok := snap.bySlug[slug]
	if !ok {
		return nil, nil
	}
	if i > 0 {
		p := snap.posts[i-1]
		newer = &p
	}
	if i < len(snap.posts)-1 {
		p := snap.posts[i+1]
		older = &p
	}
	return newer, older
}

// Tags returns the tag index, most used first.
func (l *Library) Tags() []TagCount {
	snap := l.current()
	out := make([]TagCount, len(snap.tags))
	copy(out, snap.tags)
	return out
}

// ByTag returns the posts carrying the tag identified by tagSlug along with
// the tag's display name. ok is false for unknown tags.
func (l *Library) ByTag(tagSlug string) (posts []Post, name string, ok bool) {
	snap := l.current()
	for _, tc := range snap.tags {
		if tc.Slug == tagSlug {
			name, ok = tc.Name, true
			break
		}
	}
	if !ok {
		return nil, "", false
	}
	for _, p := range snap.posts {
		for _, tag := range p.Tags {
			if TagSlug(tag) == tagSlug {
				posts = append(posts, p)
				break
			}
		}
	}
	return posts, name, true
}
