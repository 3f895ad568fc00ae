package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/codewithjohnson/folio/pkg/config"
	"github.com/codewithjohnson/folio/pkg/content"
	"github.com/codewithjohnson/folio/pkg/listing"
	"github.com/codewithjohnson/folio/pkg/storage"
	"github.com/urfave/cli/v3"
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Full text search over the blog posts",
		ArgsUsage: "QUERY",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "query",
				Usage: "Search query (alternative to the positional argument)",
			},
			&cli.StringFlag{
				Name:  "tag",
				Usage: "Only match posts with this tag",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results",
				Value: storage.DefaultLimit,
			},
			&cli.IntFlag{
				Name:  "page",
				Usage: "Result page",
				Value: 1,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			query := c.String("query")
			if query == "" {
				query = strings.Join(c.Args().Slice(), " ")
			}
			if strings.TrimSpace(query) == "" {
				return errors.New("a search query is required")
			}

			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			params := storage.SearchParams{
				Query: query,
				Tag:   content.TagSlug(c.String("tag")),
				Page:  max(c.Int("page"), 1),
				Limit: min(max(c.Int("limit"), 1), storage.MaxLimit),
			}
			return searchPosts(ctx, os.Stdout, cfg, params)
		},
	}
}

// searchPosts searches the index and prints the matching posts
func searchPosts(ctx context.Context, w io.Writer, cfg *config.Config, params storage.SearchParams) error {
	lib, err := loadLibrary(cfg)
	if err != nil {
		return err
	}
	index, err := openSyncedIndex(ctx, cfg, lib)
	if err != nil {
		return err
	}
	defer func() {
		if err := index.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close search index: %v\n", err)
		}
	}()

	results, err := index.Search(ctx, params)
	if err != nil {
		return errors.New(storage.FriendlyError(err))
	}

	if results.TotalCount == 0 {
		fmt.Fprintln(w, noDataStyle.Render("No results found"))
		return nil
	}

	dates := listing.NewDateFormatter(cfg.Site.Locale)
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%d results for %q (page %d of %d)",
		results.TotalCount, results.Query, results.Page, results.TotalPages)))
	for _, slug := range results.Slugs {
		post, err := lib.Post(slug)
		if err != nil {
			continue
		}
		fmt.Fprintln(w, formatCard(listing.NewCard(post, dates)))
	}
	if results.HasMore {
		fmt.Fprintln(w, metaStyle.Render(fmt.Sprintf("More results: --page %d", results.Page+1)))
	}
	return nil
}
