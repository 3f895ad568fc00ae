package types

import (
	"html/template"

	"github.com/codewithjohnson/folio/pkg/contact"
	"github.com/codewithjohnson/folio/pkg/content"
	"github.com/codewithjohnson/folio/pkg/listing"
	"github.com/codewithjohnson/folio/pkg/pagination"
	"github.com/codewithjohnson/folio/pkg/projects"
	"github.com/codewithjohnson/folio/pkg/scroll"
)

// PageData represents data passed to templates
type PageData struct {
	Path    string // Request path, used to highlight the active nav link
	Nav     []NavLink
	Site    SiteInfo
	Author  AuthorInfo
	Social  []contact.SocialLink
	Version string // Application version (for footer display)

	// Listings (blog, tag and search pages)
	Heading    string
	List       listing.List
	Pagination pagination.Pagination

	Post     *PostView
	Tags     []content.TagCount
	Scroll   scroll.View
	Contact  ContactView
	Projects []projects.Project

	Query      string
	TotalCount int
	Error      string
}

// SiteInfo is the site-wide header and metadata.
type SiteInfo struct {
	Title       string
	Description string
	URL         string
}

// AuthorInfo feeds the about page and the home intro.
type AuthorInfo struct {
	Name       string
	Occupation string
	Company    string
	Tagline    string
	Avatar     string
	Bio        string
	Skills     []string
}

// PostView is a single rendered post with its neighbours.
type PostView struct {
	Slug        string
	Title       string
	ISODate     string
	DisplayDate string
	Summary     string
	Tags        listing.TagSet
	Body        template.HTML
	Newer       *listing.Card
	Older       *listing.Card
}

// ContactView is the server rendered state of the contact panel. The live
// session takes over once the page script connects.
type ContactView struct {
	Email       string
	ScheduleURL string
	Theme       contact.Theme
	ThemeIndex  int
}

// NavLink is an entry of the header navigation.
type NavLink struct {
	Title string
	Href  string
}

// Nav is the fixed header navigation.
var Nav = []NavLink{
	{Title: "Blog", Href: "/blog"},
	{Title: "Tags", Href: "/tags"},
	{Title: "About", Href: "/about"},
	{Title: "Contact", Href: "/contact"},
	{Title: "Search", Href: "/search"},
}
