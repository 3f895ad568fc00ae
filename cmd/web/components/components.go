// Package components renders the HTML pages of the site. Pages are Go
// html/template files embedded in the binary and exposed as templ components
// so handlers render them the same way regardless of how they are authored.
package components

import (
	"context"
	"embed"
	"html/template"

	"github.com/a-h/templ"
	"github.com/codewithjohnson/folio/cmd/web/components/types"
	"github.com/codewithjohnson/folio/pkg/scroll"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	homePage     = parsePage("home")
	aboutPage    = parsePage("about")
	contactPage  = parsePage("contact")
	blogPage     = parsePage("blog")
	postPage     = parsePage("post")
	tagsPage     = parsePage("tags")
	searchPage   = parsePage("search")
	notFoundPage = parsePage("notfound")

	scrollFragment = template.Must(template.New("scroll.html").
			Funcs(templateFuncs()).
			ParseFS(templateFS, "templates/partials.html", "templates/scroll.html"))
)

// parsePage combines the layout, the shared partials and one page file. The
// page file defines the "title" and "content" blocks the layout calls.
func parsePage(name string) *template.Template {
	return template.Must(template.New("layout.html").
		Funcs(templateFuncs()).
		ParseFS(templateFS, "templates/layout.html", "templates/partials.html", "templates/"+name+".html"))
}

func Home(data types.PageData) templ.Component     { return templ.FromGoHTML(homePage, data) }
func About(data types.PageData) templ.Component    { return templ.FromGoHTML(aboutPage, data) }
func Contact(data types.PageData) templ.Component  { return templ.FromGoHTML(contactPage, data) }
func Blog(data types.PageData) templ.Component     { return templ.FromGoHTML(blogPage, data) }
func Post(data types.PageData) templ.Component     { return templ.FromGoHTML(postPage, data) }
func Tags(data types.PageData) templ.Component     { return templ.FromGoHTML(tagsPage, data) }
func Search(data types.PageData) templ.Component   { return templ.FromGoHTML(searchPage, data) }
func NotFound(data types.PageData) templ.Component { return templ.FromGoHTML(notFoundPage, data) }

// ScrollPanel renders only the latest posts panel.
func ScrollPanel(v scroll.View) templ.Component {
	return templ.FromGoHTML(scrollFragment, v)
}

// RenderScroll renders the panel to a string for the live session, which
// swaps it into the page when the widget becomes ready.
func RenderScroll(ctx context.Context, v scroll.View) (string, error) {
	html, err := templ.ToGoHTML(ctx, ScrollPanel(v))
	if err != nil {
		return "", err
	}
	return string(html), nil
}
