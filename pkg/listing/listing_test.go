package listing

import (
	"testing"
	"time"

	"github.com/codewithjohnson/folio/pkg/content"
	"github.com/google/go-cmp/cmp"
)

func TestBuildEmpty(t *testing.T) {
	list := Build(nil, NewDateFormatter("en-US"))
	if !list.Empty {
		t.Fatal("expected empty state for no posts")
	}
	if len(list.Cards) != 0 {
		t.Fatalf("expected zero cards, got %d", len(list.Cards))
	}
}

func TestBuildCards(t *testing.T) {
	posts := []content.Post{
		{
			Slug:    "pwa",
			Title:   "Progressive Web Apps",
			Date:    time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
			Summary: "Offline first",
			Tags:    []string{"PWA", "Web Performance", "JavaScript", "Service Workers", "Caching"},
		},
		{Slug: "notes", Title: "Notes", Tags: []string{"go"}},
	}
	original := append([]string(nil), posts[0].Tags...)

	list := Build(posts, NewDateFormatter("en-US"))
	if list.Empty || len(list.Cards) != 2 {
		t.Fatalf("expected two cards, got %+v", list)
	}

	card := list.Cards[0]
	want := Card{
		Slug:        "pwa",
		URL:         "/blog/pwa",
		Title:       "Progressive Web Apps",
		ISODate:     "2024-03-05",
		DisplayDate: "March 5, 2024",
		Summary:     "Offline first",
		Tags: TagSet{
			Visible: []Tag{
				{Name: "PWA", URL: "/tags/pwa"},
				{Name: "Web Performance", URL: "/tags/web-performance"},
				{Name: "JavaScript", URL: "/tags/javascript"},
			},
			Overflow: 2,
		},
	}
	if diff := cmp.Diff(want, card); diff != "" {
		t.Fatalf("card mismatch (-want +got):\n%s", diff)
	}
	if card.Tags.OverflowLabel() != "+2" {
		t.Errorf("expected overflow badge +2, got %q", card.Tags.OverflowLabel())
	}

	if list.Cards[1].DisplayDate != "" {
		t.Errorf("undated post should have no display date, got %q", list.Cards[1].DisplayDate)
	}
	if list.Cards[1].Tags.OverflowLabel() != "" {
		t.Errorf("no overflow expected for a single tag")
	}

	if diff := cmp.Diff(original, posts[0].Tags); diff != "" {
		t.Fatalf("Build mutated post tags (-want +got):\n%s", diff)
	}
}

func TestSplitTagsKeepsOrder(t *testing.T) {
	set := SplitTags([]string{"c", "a", "b"}, MaxVisibleTags)
	if set.Overflow != 0 || len(set.Visible) != 3 {
		t.Fatalf("unexpected split: %+v", set)
	}
	for i, name := range []string{"c", "a", "b"} {
		if set.Visible[i].Name != name {
			t.Errorf("position %d: want %s, got %s", i, name, set.Visible[i].Name)
		}
	}
}

func TestDateFormatterLocales(t *testing.T) {
	d := time.Date(2023, 11, 9, 0, 0, 0, 0, time.UTC)
	tests := map[string]string{
		"en-US":     "November 9, 2023",
		"en-GB":     "9 November 2023",
		"not a tag": "November 9, 2023",
	}
	for locale, want := range tests {
		if got := NewDateFormatter(locale).Format(d); got != want {
			t.Errorf("locale %q: got %q, want %q", locale, got, want)
		}
	}
	var zero DateFormatter
	if got := zero.Format(d); got != "November 9, 2023" {
		t.Errorf("zero formatter should default to US layout, got %q", got)
	}
}
