package contact

import (
	"fmt"
	"regexp"
	"strings"
)

// IconKind is the closed set of social networks a link can point to.
type IconKind int

const (
	Mail IconKind = iota
	GitHub
	Facebook
	YouTube
	LinkedIn
	Twitter
	X
	Mastodon
	Threads
	Instagram
	Medium
	Bluesky
)

var kindNames = [...]string{
	Mail:      "mail",
	GitHub:    "github",
	Facebook:  "facebook",
	YouTube:   "youtube",
	LinkedIn:  "linkedin",
	Twitter:   "twitter",
	X:         "x",
	Mastodon:  "mastodon",
	Threads:   "threads",
	Instagram: "instagram",
	Medium:    "medium",
	Bluesky:   "bluesky",
}

// BrandColor holds the utility classes used to tint an icon.
type BrandColor struct {
	Default string
	Hover   string
	Light   string
}

var brandColors = [...]BrandColor{
	Mail:      {"text-gray-600 dark:text-gray-400", "hover:text-gray-900 dark:hover:text-white", "hover:text-gray-700 dark:hover:text-gray-300"},
	GitHub:    {"text-gray-900 dark:text-white", "hover:text-gray-900 dark:hover:text-white", "hover:text-gray-700 dark:hover:text-gray-200"},
	Facebook:  {"text-[#1877F2] dark:text-[#1877F2]", "hover:text-[#1877F2] dark:hover:text-[#1877F2]", "hover:text-[#4293fb] dark:hover:text-[#4293fb]"},
	YouTube:   {"text-[#FF0000] dark:text-[#FF0000]", "hover:text-[#FF0000] dark:hover:text-[#FF0000]", "hover:text-[#ff3333] dark:hover:text-[#ff3333]"},
	LinkedIn:  {"text-[#0A66C2] dark:text-[#0A66C2]", "hover:text-[#0A66C2] dark:hover:text-[#0A66C2]", "hover:text-[#0e84fa] dark:hover:text-[#0e84fa]"},
	Twitter:   {"text-[#1DA1F2] dark:text-[#1DA1F2]", "hover:text-[#1DA1F2] dark:hover:text-[#1DA1F2]", "hover:text-[#4db5f5] dark:hover:text-[#4db5f5]"},
	X:         {"text-black dark:text-white", "hover:text-black dark:hover:text-white", "hover:text-gray-800 dark:hover:text-gray-200"},
	Mastodon:  {"text-[#6364FF] dark:text-[#6364FF]", "hover:text-[#6364FF] dark:hover:text-[#6364FF]", "hover:text-[#8a8bff] dark:hover:text-[#8a8bff]"},
	Threads:   {"text-black dark:text-white", "hover:text-black dark:hover:text-white", "hover:text-gray-700 dark:hover:text-gray-300"},
	Instagram: {"text-[#E4405F] dark:text-[#E4405F]", "hover:text-[#E4405F] dark:hover:text-[#E4405F]", "hover:text-[#ea6d83] dark:hover:text-[#ea6d83]"},
	Medium:    {"text-black dark:text-white", "hover:text-black dark:hover:text-white", "hover:text-gray-700 dark:hover:text-gray-300"},
	Bluesky:   {"text-[#0085FF] dark:text-[#0085FF]", "hover:text-[#0085FF] dark:hover:text-[#0085FF]", "hover:text-[#339dff] dark:hover:text-[#339dff]"},
}

// Kinds returns every icon kind in declaration order.
func Kinds() []IconKind {
	kinds := make([]IconKind, len(kindNames))
	for i := range kinds {
		kinds[i] = IconKind(i)
	}
	return kinds
}

// Valid reports whether k is one of the declared kinds.
func (k IconKind) Valid() bool { return k >= 0 && int(k) < len(kindNames) }

func (k IconKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("IconKind(%d)", int(k))
	}
	return kindNames[k]
}

// Brand returns the brand colour classes of k.
func (k IconKind) Brand() BrandColor {
	if !k.Valid() {
		return BrandColor{}
	}
	return brandColors[k]
}

// ParseIconKind maps a lower case network name to its kind.
func ParseIconKind(s string) (IconKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range kindNames {
		if n == name {
			return IconKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown social icon kind %q", s)
}

func (k IconKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid social icon kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *IconKind) UnmarshalText(b []byte) error {
	parsed, err := ParseIconKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

var mailtoPattern = regexp.MustCompile(`^mailto:[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// SocialLink is a renderable icon link.
type SocialLink struct {
	Kind    IconKind
	Href    string
	Classes string
}

// Label is the screen reader text of the link.
func (l SocialLink) Label() string { return l.Kind.String() }

// Link validates href for kind. It returns ok=false when the link should not
// be rendered: an empty href, an unknown kind, or a mail link that is not a
// well formed mailto: address.
func Link(kind IconKind, href string) (SocialLink, bool) {
	if href == "" || !kind.Valid() {
		return SocialLink{}, false
	}
	if kind == Mail && !mailtoPattern.MatchString(href) {
		return SocialLink{}, false
	}
	b := kind.Brand()
	return SocialLink{Kind: kind, Href: href, Classes: "fill-current h-6 w-6 " + b.Default + " " + b.Hover}, true
}

// Links filters a configured set down to the renderable ones, keeping order.
func Links(entries []Entry) []SocialLink {
	var out []SocialLink
	for _, e := range entries {
		if l, ok := Link(e.Kind, e.Href); ok {
			out = append(out, l)
		}
	}
	return out
}

// Entry is a configured social link before validation.
type Entry struct {
	Kind IconKind `toml:"kind"`
	Href string   `toml:"href"`
}
