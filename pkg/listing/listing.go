// Package listing turns posts into the summary cards shown on the blog list,
// tag pages and the home page scroll panel.
package listing

import (
	"strconv"
	"time"

	"github.com/codewithjohnson/folio/pkg/content"
	"golang.org/x/text/language"
)

// MaxVisibleTags is the number of tags shown on a card before the overflow badge.
const MaxVisibleTags = 3

// EmptyMessage is rendered when there is nothing to list.
const EmptyMessage = "No posts found."

// Tag is a tag chip linking to its tag page.
type Tag struct {
	Name string
	URL  string
}

// TagSet is the visible part of a post's tags plus the hidden remainder.
type TagSet struct {
	Visible  []Tag
	Overflow int
}

// OverflowLabel is the badge text for hidden tags, e.g. "+2".
func (t TagSet) OverflowLabel() string {
	if t.Overflow <= 0 {
		return ""
	}
	return "+" + strconv.Itoa(t.Overflow)
}

// SplitTags keeps the first max tags in their original order.
func SplitTags(tags []string, max int) TagSet {
	n := len(tags)
	if max >= 0 && n > max {
		n = max
	}
	set := TagSet{Visible: make([]Tag, 0, n), Overflow: len(tags) - n}
	for _, name := range tags[:n] {
		set.Visible = append(set.Visible, Tag{Name: name, URL: "/tags/" + content.TagSlug(name)})
	}
	return set
}

// Card is the display model of one post.
type Card struct {
	Slug        string
	URL         string
	Title       string
	ISODate     string
	DisplayDate string
	Summary     string
	Tags        TagSet
}

// List is a rendered page of cards.
type List struct {
	Empty bool
	Cards []Card
}

// NewCard builds the card of a single post.
func NewCard(p content.Post, dates DateFormatter) Card {
	return Card{
		Slug:        p.Slug,
		URL:         p.URL(),
		Title:       p.Title,
		ISODate:     p.ISODate(),
		DisplayDate: dates.Format(p.Date),
		Summary:     p.Summary,
		Tags:        SplitTags(p.Tags, MaxVisibleTags),
	}
}

// Build renders posts, already sliced to the current page, into cards in
// the same order. It never modifies the posts.
func Build(posts []content.Post, dates DateFormatter) List {
	if len(posts) == 0 {
		return List{Empty: true}
	}
	cards := make([]Card, len(posts))
	for i, p := range posts {
		cards[i] = NewCard(p, dates)
	}
	return List{Cards: cards}
}

var (
	supportedLocales = []language.Tag{language.AmericanEnglish, language.BritishEnglish}
	localeLayouts    = []string{"January 2, 2006", "2 January 2006"}
	localeMatcher    = language.NewMatcher(supportedLocales)
)

// DateFormatter renders post dates in a long, locale dependent form.
type DateFormatter struct {
	layout string
}

// NewDateFormatter picks the closest supported layout for a BCP 47 locale.
// Unparseable locales fall back to US English.
func NewDateFormatter(locale string) DateFormatter {
	tag, err := language.Parse(locale)
	if err != nil {
		return DateFormatter{layout: localeLayouts[0]}
	}
	_, idx, _ := localeMatcher.Match(tag)
	return DateFormatter{layout: localeLayouts[idx]}
}

// Format returns the display date, or "" for the zero time.
func (f DateFormatter) Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	layout := f.layout
	if layout == "" {
		layout = localeLayouts[0]
	}
	return t.Format(layout)
}
