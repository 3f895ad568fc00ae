package scroll

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/codewithjohnson/folio/pkg/content"
	"github.com/codewithjohnson/folio/pkg/listing"
)

func makePosts(n int) []content.Post {
	posts := make([]content.Post, n)
	base := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	for i := range posts {
		posts[i] = content.Post{
			Slug:  fmt.Sprintf("post-%02d", i),
			Title: fmt.Sprintf("Post %d", i),
			Date:  base.AddDate(0, 0, -i),
			Tags:  []string{"a", "b", "c", "d", "e"},
		}
	}
	return posts
}

func TestWidgetStartsLoading(t *testing.T) {
	w := New(listing.NewDateFormatter("en-US"))
	if w.State() != Loading {
		t.Fatalf("expected Loading, got %s", w.State())
	}
	if w.Cards() != nil {
		t.Fatal("expected no cards while loading")
	}
	if w.Observe(nil) {
		t.Fatal("empty observation must not transition")
	}
	if w.State() != Loading {
		t.Fatal("widget left Loading on empty input")
	}
	if v := w.View(); !v.Loading || v.ViewAllURL != ViewAllURL {
		t.Fatalf("unexpected loading view: %+v", v)
	}
}

func TestWidgetRendersFirstSix(t *testing.T) {
	w := New(listing.NewDateFormatter("en-US"))
	if !w.Observe(makePosts(10)) {
		t.Fatal("expected transition on first non-empty observation")
	}
	cards := w.Cards()
	if len(cards) != MaxCards {
		t.Fatalf("expected %d cards, got %d", MaxCards, len(cards))
	}
	for i, c := range cards {
		if c.Slug != fmt.Sprintf("post-%02d", i) {
			t.Errorf("card %d: unexpected slug %s", i, c.Slug)
		}
		if c.Delay != time.Duration(i)*100*time.Millisecond {
			t.Errorf("card %d: delay %v", i, c.Delay)
		}
		if c.DelayMillis() != int64(i*100) || c.DurationMillis() != 400 {
			t.Errorf("card %d: timing %dms/%dms", i, c.DelayMillis(), c.DurationMillis())
		}
		if len(c.Tags.Visible) != 3 || c.Tags.OverflowLabel() != "+2" {
			t.Errorf("card %d: tags %+v", i, c.Tags)
		}
	}
}

func TestWidgetNeverRevertsToLoading(t *testing.T) {
	w := New(listing.NewDateFormatter("en-US"))
	w.Observe(makePosts(2))
	if w.Observe(nil) {
		t.Fatal("no transition expected after Ready")
	}
	if w.Observe(makePosts(8)) {
		t.Fatal("second transition reported")
	}
	if w.State() != Ready {
		t.Fatalf("expected Ready, got %s", w.State())
	}
	if n := len(w.Cards()); n != 2 {
		t.Fatalf("cards should stay those captured at transition, got %d", n)
	}
}

func TestWidgetSingleTransitionUnderConcurrency(t *testing.T) {
	w := New(listing.NewDateFormatter("en-US"))
	posts := makePosts(3)

	var wg sync.WaitGroup
	var mu sync.Mutex
	transitions := 0
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if w.Observe(posts) {
				mu.Lock()
				transitions++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if transitions != 1 {
		t.Fatalf("expected exactly one transition, got %d", transitions)
	}
}
