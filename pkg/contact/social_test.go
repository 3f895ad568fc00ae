package contact

import "testing"

func TestLink(t *testing.T) {
	tests := []struct {
		name string
		kind IconKind
		href string
		ok   bool
	}{
		{"valid mail", Mail, "mailto:codewithjohnson@gmail.com", true},
		{"mail without scheme", Mail, "codewithjohnson@gmail.com", false},
		{"mail bad tld", Mail, "mailto:me@example.c", false},
		{"empty href", GitHub, "", false},
		{"github", GitHub, "https://github.com/codewithjohnson", true},
		{"plain url for x", X, "https://x.com/someone", true},
		{"unknown kind", IconKind(99), "https://example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, ok := Link(tt.kind, tt.href)
			if ok != tt.ok {
				t.Fatalf("Link(%s, %q) ok=%v, want %v", tt.kind, tt.href, ok, tt.ok)
			}
			if ok && link.Href != tt.href {
				t.Errorf("href %q, want %q", link.Href, tt.href)
			}
		})
	}
}

func TestIconKindRoundTrip(t *testing.T) {
	for _, k := range Kinds() {
		b, err := k.MarshalText()
		if err != nil {
			t.Fatalf("%d: %v", k, err)
		}
		var got IconKind
		if err := got.UnmarshalText(b); err != nil {
			t.Fatalf("%s: %v", b, err)
		}
		if got != k {
			t.Errorf("%s parsed as %s", b, got)
		}
		if k.Brand().Default == "" {
			t.Errorf("%s has no brand colour", k)
		}
	}
	if _, err := ParseIconKind("myspace"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestLinksFiltersInvalid(t *testing.T) {
	links := Links([]Entry{
		{Kind: Mail, Href: "not-mail"},
		{Kind: GitHub, Href: "https://github.com/x"},
		{Kind: LinkedIn},
		{Kind: Bluesky, Href: "https://bsky.app/profile/x"},
	})
	if len(links) != 2 || links[0].Kind != GitHub || links[1].Kind != Bluesky {
		t.Fatalf("unexpected links: %+v", links)
	}
	if links[0].Label() != "github" {
		t.Errorf("label %q", links[0].Label())
	}
}
