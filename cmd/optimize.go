package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/codewithjohnson/folio/pkg/config"
	"github.com/codewithjohnson/folio/pkg/storage"
	"github.com/urfave/cli/v3"
)

// OptimizeCommand creates the optimize command
func OptimizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "optimize",
		Usage: "Search index optimization and maintenance commands",
		Commands: []*cli.Command{
			{
				Name:  "check",
				Usage: "Run integrity checks on the search index",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "quick",
						Usage: "Skip the deep FTS5 integrity check",
						Value: false,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withIndex(ctx, c, func(ix *storage.Index) error {
						return checkIndex(ctx, os.Stdout, ix, !c.Bool("quick"))
					})
				},
			},
			{
				Name:  "vacuum",
				Usage: "Run VACUUM to defragment the database",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withIndex(ctx, c, func(ix *storage.Index) error {
						fmt.Println("Running VACUUM...")
						if err := ix.Vacuum(ctx); err != nil {
							return err
						}
						fmt.Println("✓ VACUUM completed")
						return nil
					})
				},
			},
			{
				Name:  "checkpoint",
				Usage: "Run WAL checkpoint to flush changes",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withIndex(ctx, c, func(ix *storage.Index) error {
						fmt.Println("Running WAL checkpoint...")
						if err := ix.Checkpoint(ctx); err != nil {
							return err
						}
						fmt.Println("✓ WAL checkpoint completed")
						return nil
					})
				},
			},
			{
				Name:  "all",
				Usage: "Run all optimization operations (optimize, analyze, checkpoint)",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withIndex(ctx, c, func(ix *storage.Index) error {
						return optimizeAll(ctx, os.Stdout, ix)
					})
				},
			},
		},
	}
}

func withIndex(ctx context.Context, c *cli.Command, fn func(*storage.Index) error) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	ix, err := storage.Open(ctx, cfg.StorageDir)
	if err != nil {
		return fmt.Errorf("opening search index: %w", err)
	}
	defer func() {
		if err := ix.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close search index: %v\n", err)
		}
	}()
	return fn(ix)
}

// optimizeAll runs all optimization operations
func optimizeAll(ctx context.Context, w io.Writer, ix *storage.Index) error {
	fmt.Fprintln(w, "Optimizing FTS index and refreshing planner statistics...")
	if err := ix.Optimize(ctx); err != nil {
		return err
	}
	fmt.Fprintln(w, "✓ Optimize completed")

	fmt.Fprintln(w, "Running WAL checkpoint...")
	if err := ix.Checkpoint(ctx); err != nil {
		return err
	}
	fmt.Fprintln(w, "✓ WAL checkpoint completed")
	return nil
}

// checkIndex reports integrity problems and fails when any are found
func checkIndex(ctx context.Context, w io.Writer, ix *storage.Index, deep bool) error {
	fmt.Fprintf(w, "Checking %s...\n", ix.Path())
	problems, err := ix.CheckIntegrity(ctx, deep)
	if err != nil {
		return err
	}
	if len(problems) == 0 {
		fmt.Fprintln(w, "✓ Search index is healthy")
		return nil
	}
	for _, p := range problems {
		fmt.Fprintf(w, "  ✗ %s\n", p)
	}
	return fmt.Errorf("found %d integrity problems; rebuild the index by deleting %s and restarting", len(problems), ix.Path())
}
