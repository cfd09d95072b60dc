package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/notesplit/internal"
	"github.com/starford/notesplit/internal/refactorservice"
	pkgconfig "github.com/starford/notesplit/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func splitHeadings(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	req := refactorservice.HeadingSplitRequest{
		Path:   cmd.String("note"),
		Level:  int(cmd.Int("level")),
		DryRun: cmd.Bool("dry-run"),
	}
	return internal.RunHeadings(ctx, req, internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:    "notesplit",
		Usage:   "Split Markdown notes into linked notes and render note templates",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and event stream",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools over stdio",
				Action: serveMCP,
			},
			{
				Name:   "headings",
				Usage:  "Split a note into one note per heading of the given level",
				Action: splitHeadings,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "note",
						Usage:    "Vault-relative path of the note to split",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "level",
						Usage: "Heading level, 1 to 6",
						Value: 2,
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Print the result without writing",
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
