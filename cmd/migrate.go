package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/codewithjohnson/folio/pkg/config"
	"github.com/codewithjohnson/folio/pkg/storage"
	"github.com/urfave/cli/v3"
)

// MigrateCommand creates the migrate command
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Run search index migrations",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "status",
				Usage: "Show migration status without applying migrations",
				Value: false,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return RunMigrations(ctx, os.Stdout, cfg.StorageDir, c.Bool("status"))
		},
	}
}

// RunMigrations applies or reports the index migrations (exported for testing)
func RunMigrations(ctx context.Context, w io.Writer, storageDir string, statusOnly bool) error {
	dbPath := filepath.Join(storageDir, storage.DBName)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintf(w, "Database does not exist, will be created on first use: %s\n", dbPath)
		return nil
	}

	db, err := storage.OpenDB(ctx, dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	migrator := storage.NewMigrator(db)
	if statusOnly {
		if err := showMigrationStatus(ctx, w, migrator); err != nil {
			return fmt.Errorf("showing migration status: %w", err)
		}
		fmt.Fprintln(w, "\nMigration status check completed")
		return nil
	}

	if err := migrator.Apply(ctx); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	fmt.Fprintln(w, "All migrations completed successfully")
	return nil
}

// showMigrationStatus displays the current migration status
func showMigrationStatus(ctx context.Context, w io.Writer, migrator *storage.Migrator) error {
	status, err := migrator.Status(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Applied migrations: %d\n", len(status.Applied))
	for _, migration := range status.Applied {
		appliedTime := "unknown"
		if migration.AppliedAt != nil {
			appliedTime = migration.AppliedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "  ✓ %03d: %s (applied: %s)\n", migration.Version, migration.Name, appliedTime)
	}

	fmt.Fprintf(w, "Pending migrations: %d\n", len(status.Pending))
	for _, migration := range status.Pending {
		fmt.Fprintf(w, "  • %03d: %s\n", migration.Version, migration.Name)
	}

	if len(status.Pending) == 0 {
		fmt.Fprintln(w, "  (none - database is up to date)")
	}
	return nil
}
