package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/codewithjohnson/folio/pkg/config"
	"github.com/codewithjohnson/folio/pkg/content"
	"github.com/codewithjohnson/folio/pkg/listing"
	"github.com/codewithjohnson/folio/pkg/pagination"
	"github.com/urfave/cli/v3"
)

// Define styles using lipgloss
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Margin(0, 0, 1, 2)

	cardTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	tagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("32"))

	noDataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Margin(1, 0)

	urlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))
)

// PostsCommand creates the posts command
func PostsCommand() *cli.Command {
	return &cli.Command{
		Name:  "posts",
		Usage: "List blog posts, newest first, one page at a time",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "page",
				Usage: "Page to show",
				Value: 1,
			},
			&cli.StringFlag{
				Name:  "tag",
				Usage: "Only show posts with this tag",
			},
			&cli.BoolFlag{
				Name:  "no-pager",
				Usage: "Disable pager and output directly to terminal",
				Value: false,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			output, err := postsOutput(cfg, c.Int("page"), c.String("tag"))
			if err != nil {
				return err
			}
			if c.Bool("no-pager") || !isTerminal() {
				fmt.Print(output)
				return nil
			}
			return displayWithPager(output)
		},
	}
}

// postsOutput loads the library and renders one page of it.
func postsOutput(cfg *config.Config, page int, tag string) (string, error) {
	lib, err := loadLibrary(cfg)
	if err != nil {
		return "", err
	}

	posts := lib.Posts()
	heading := "All Posts"
	if tag != "" {
		var ok bool
		posts, heading, ok = lib.ByTag(content.TagSlug(tag))
		if !ok {
			return "", fmt.Errorf("no posts tagged %q", tag)
		}
	}
	return formatPostsPage(posts, heading, page, cfg.Site.PostsPerPage, listing.NewDateFormatter(cfg.Site.Locale))
}

// formatPostsPage renders page of posts the way the blog list does: the
// same cards, the same tag overflow and the same empty message.
func formatPostsPage(posts []content.Post, heading string, page, size int, dates listing.DateFormatter) (string, error) {
	total := pagination.TotalPages(len(posts), size)
	if page < 1 || page > total {
		return "", fmt.Errorf("page %d out of range (1-%d)", page, total)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s (page %d of %d)", heading, page, total)))
	b.WriteString("\n")

	list := listing.Build(pagination.Slice(posts, page, size), dates)
	if list.Empty {
		b.WriteString(noDataStyle.Render(listing.EmptyMessage))
		b.WriteString("\n")
		return b.String(), nil
	}

	for _, card := range list.Cards {
		b.WriteString(formatCard(card))
		b.WriteString("\n")
	}

	if page < total {
		b.WriteString(metaStyle.Render(fmt.Sprintf("More posts: --page %d", page+1)))
		b.WriteString("\n")
	}
	return b.String(), nil
}

// formatCard formats a single post card using lipgloss
func formatCard(card listing.Card) string {
	var content strings.Builder

	content.WriteString(cardTitleStyle.Render(card.Title))
	if card.DisplayDate != "" {
		content.WriteString("\n")
		content.WriteString(metaStyle.Render(card.DisplayDate))
	}

	if len(card.Tags.Visible) > 0 || card.Tags.Overflow > 0 {
		names := make([]string, 0, len(card.Tags.Visible)+1)
		for _, t := range card.Tags.Visible {
			names = append(names, "#"+t.Name)
		}
		if card.Tags.Overflow > 0 {
			names = append(names, card.Tags.OverflowLabel())
		}
		content.WriteString("\n")
		content.WriteString(tagStyle.Render(strings.Join(names, " ")))
	}

	if card.Summary != "" {
		content.WriteString("\n\n")
		content.WriteString(card.Summary)
	}

	content.WriteString("\n")
	content.WriteString(urlStyle.Render(card.URL))

	return cardStyle.Render(content.String())
}

// isTerminal checks if stdout is a terminal
func isTerminal() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// displayWithPager displays content using a pager
func displayWithPager(content string) error {
	// Try to find a suitable pager
	pagerCmd := os.Getenv("PAGER")
	if pagerCmd == "" {
		// Try common pagers in order of preference
		pagers := []string{"less", "more", "cat"}
		for _, pager := range pagers {
			if _, err := exec.LookPath(pager); err == nil {
				pagerCmd = pager
				break
			}
		}
	}

	if pagerCmd == "" {
		// No pager found, output directly
		fmt.Print(content)
		return nil
	}

	// Set up less with good defaults if it's available
	args := []string{}
	if strings.Contains(pagerCmd, "less") {
		args = []string{"-R", "-S", "-F", "-X"}
	}

	cmd := exec.Command(pagerCmd, args...)
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}
