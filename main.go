package main

import (
	"context"
	"log"
	"os"

	"github.com/codewithjohnson/folio/cmd"
	"github.com/codewithjohnson/folio/pkg/config"
	flog "github.com/codewithjohnson/folio/pkg/log"
	"github.com/urfave/cli/v3"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	app := &cli.Command{
		Name:  "folio",
		Usage: "A personal site: blog, portfolio and contact page in one binary",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
				Value: false,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path",
				Value: getDefaultConfigPathOrExit(),
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, configureLogging(c)
		},
		Commands: []*cli.Command{
			cmd.InitCommand(),
			cmd.WebCommand(),
			cmd.PostsCommand(),
			cmd.SearchCommand(),
			cmd.ContactCommand(),
			cmd.StatsCommand(),
			cmd.OptimizeCommand(),
			cmd.MigrateCommand(),
			cmd.VersionCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// configureLogging applies log settings from the config file, with --debug
// turning on debug output for every service.
func configureLogging(c *cli.Command) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		// Commands report config errors themselves.
		flog.SetGlobalDebug(c.Bool("debug"))
		return nil
	}
	flog.Configure(cfg.Log.Debug || c.Bool("debug"), cfg.Log.DebugServices)
	return nil
}

func getDefaultConfigPathOrExit() string {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		log.Fatalf("Failed to get default config path: %v", err)
	}
	return path
}
