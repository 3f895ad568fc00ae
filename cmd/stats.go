package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/codewithjohnson/folio/pkg/config"
	"github.com/urfave/cli/v3"
)

// StatsCommand creates the stats command
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show content and search index statistics",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return showStats(ctx, os.Stdout, cfg)
		},
	}
}

// showStats displays content and index statistics
func showStats(ctx context.Context, w io.Writer, cfg *config.Config) error {
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

	st, err := index.Stats(ctx)
	if err != nil {
		return fmt.Errorf("getting stats: %w", err)
	}

	formatStats(w, statsReport{
		ContentDir: cfg.ContentDir,
		IndexPath:  index.Path(),
		Index:      st,
		TopTags:    lib.Tags(),
	})
	return nil
}
