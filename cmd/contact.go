package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/codewithjohnson/folio/pkg/config"
	"github.com/codewithjohnson/folio/pkg/contact"
	"github.com/urfave/cli/v3"
)

// ContactCommand creates the contact command
func ContactCommand() *cli.Command {
	return &cli.Command{
		Name:  "contact",
		Usage: "Contact shortcuts: copy the email address or print the scheduling link",
		Commands: []*cli.Command{
			{
				Name:  "copy",
				Usage: "Copy the contact email to the system clipboard",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := config.LoadConfig(c.String("config"))
					if err != nil {
						return fmt.Errorf("loading config: %w", err)
					}
					return copyEmail(ctx, os.Stdout, cfg.Contact.Email, systemClipboard{})
				},
			},
			{
				Name:  "schedule",
				Usage: "Print the link to book a call",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := config.LoadConfig(c.String("config"))
					if err != nil {
						return fmt.Errorf("loading config: %w", err)
					}
					fmt.Println(cfg.Contact.ScheduleURL)
					return nil
				},
			},
			{
				Name:  "links",
				Usage: "List the configured social links that would be shown on the site",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := config.LoadConfig(c.String("config"))
					if err != nil {
						return fmt.Errorf("loading config: %w", err)
					}
					printSocialLinks(os.Stdout, cfg.Author.Social)
					return nil
				},
			},
		},
	}
}

// systemClipboard writes through the OS clipboard utilities.
type systemClipboard struct{}

func (systemClipboard) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return clipboard.WriteAll(text)
}

// copyEmail drives a contact panel through one copy, so the terminal gets
// the same confirmation rules as the site: it is only shown once the
// clipboard write succeeded.
func copyEmail(ctx context.Context, w io.Writer, email string, cb contact.ClipboardWriter) error {
	panel := contact.NewPanel(contact.Options{Email: email})
	defer panel.Close()

	if err := panel.Copy(ctx, cb); err != nil {
		return err
	}
	if panel.State().Copied {
		fmt.Fprintf(w, "✓ Copied %s to the clipboard\n", panel.Email())
	}
	return nil
}

func printSocialLinks(w io.Writer, entries []contact.Entry) {
	links := contact.Links(entries)
	if len(links) == 0 {
		fmt.Fprintln(w, noDataStyle.Render("No social links configured"))
		return
	}
	for _, l := range links {
		fmt.Fprintf(w, "%-10s %s\n", l.Label(), urlStyle.Render(l.Href))
	}
	if skipped := len(entries) - len(links); skipped > 0 {
		fmt.Fprintln(w, metaStyle.Render(fmt.Sprintf("%d invalid links skipped", skipped)))
	}
}
