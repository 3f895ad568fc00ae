package components

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/codewithjohnson/folio/pkg/contact"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// templateFuncs returns the helpers available to every page template.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"year":       func() int { return time.Now().Year() },
		"active":     isActive,
		"title":      titleCaser.String,
		"themeStyle": ThemeStyle,
		"add":        func(a, b int) int { return a + b },
		"plural":     plural,
	}
}

// isActive reports whether the nav entry href covers the current path.
func isActive(path, href string) bool {
	return path == href || strings.HasPrefix(path, href+"/")
}

// ThemeStyle exposes a theme as CSS custom properties. The values come from
// the fixed theme table, never from user input.
func ThemeStyle(t contact.Theme) template.CSS {
	return template.CSS(fmt.Sprintf("--accent: %s; --accent-soft: %s;", t.Primary, t.Secondary))
}

func plural(n int, singular, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, many)
}
