// Package scroll implements the "Latest Posts" panel on the home page.
//
// A Widget starts in Loading and moves to Ready the first time it observes a
// non-empty post sequence. The transition is one way: a widget that became
// Ready stays Ready even if later observations are empty, and a widget that
// never sees a post stays in Loading.
package scroll

import (
	"sync"
	"time"

	"github.com/codewithjohnson/folio/pkg/content"
	"github.com/codewithjohnson/folio/pkg/listing"
)

const (
	// MaxCards is the number of posts shown in the panel.
	MaxCards = 6
	// Stagger is the entrance delay added per card position.
	Stagger = 100 * time.Millisecond
	// Duration is the entrance animation length of each card.
	Duration = 400 * time.Millisecond
	// ViewAllURL is the target of the "View all posts" link.
	ViewAllURL = "/blog"
)

// State of a Widget.
type State int

const (
	Loading State = iota
	Ready
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Card is a listing card with its entrance timing.
type Card struct {
	listing.Card
	Index    int
	Delay    time.Duration
	Duration time.Duration
}

// DelayMillis is used by templates for the CSS animation-delay.
func (c Card) DelayMillis() int64 { return c.Delay.Milliseconds() }

// DurationMillis is used by templates for the CSS animation-duration.
func (c Card) DurationMillis() int64 { return c.Duration.Milliseconds() }

// Widget is safe for concurrent use.
type Widget struct {
	mu    sync.Mutex
	state State
	posts []content.Post
	dates listing.DateFormatter
}

// New returns a widget in the Loading state.
func New(dates listing.DateFormatter) *Widget {
	return &Widget{dates: dates}
}

// State returns the current state.
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Observe feeds the widget the latest post sequence. It reports true only on
// the call that moves the widget from Loading to Ready. Observations after
// that are ignored; the cards stay those captured at the transition.
func (w *Widget) Observe(posts []content.Post) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == Ready || len(posts) == 0 {
		return false
	}
	n := min(len(posts), MaxCards)
	w.posts = append([]content.Post(nil), posts[:n]...)
	w.state = Ready
	return true
}

// Cards returns the rendered cards, or nil while Loading.
func (w *Widget) Cards() []Card {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != Ready {
		return nil
	}
	cards := make([]Card, len(w.posts))
	for i, p := range w.posts {
		cards[i] = Card{
			Card:     listing.NewCard(p, w.dates),
			Index:    i,
			Delay:    time.Duration(i) * Stagger,
			Duration: Duration,
		}
	}
	return cards
}

// View is the template payload of the panel.
type View struct {
	Loading    bool
	Cards      []Card
	ViewAllURL string
}

// View snapshots the widget for rendering.
func (w *Widget) View() View {
	cards := w.Cards()
	return View{Loading: cards == nil, Cards: cards, ViewAllURL: ViewAllURL}
}
