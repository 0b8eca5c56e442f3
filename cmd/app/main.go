package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/timmcelreath/obsidian-journal-analyzer/internal"
	pkgconfig "github.com/timmcelreath/obsidian-journal-analyzer/pkg/config"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

// loadConfig layers the YAML file over the built-in defaults. A path
// the user set explicitly must exist; the default path may be absent.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	path := cmd.String("config")

	var err error
	if cmd.IsSet("config") {
		err = pkgconfig.Load(path, cfg)
	} else {
		err = pkgconfig.LoadOptional(path, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func analyze(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunAnalyze(ctx, cmd.String("start"), cmd.String("end"), internal.WithConfig(cfg))
}

func connect(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunConnect(ctx, cmd.String("path"), cmd.Bool("apply"), internal.WithConfig(cfg))
}

func entry(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	text := cmd.String("text")
	if text == "" {
		text = strings.Join(cmd.Args().Slice(), " ")
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("entry text is required")
	}
	return internal.RunEntry(ctx, text, internal.WithConfig(cfg))
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:   "journal-analyzer",
		Usage:  "Journal analysis for Markdown vaults: themed summaries, AI-suggested wikilinks, search, and graph APIs",
		Action: serve,
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
				Usage:  "Run the HTTP API, vault watcher, and SSE event stream",
				Action: serve,
			},
			{
				Name:  "analyze",
				Usage: "Analyze journal entries in a date range and write a theme note",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "start",
						Usage: "Range start date (YYYY-MM-DD); defaults to the configured trailing window",
					},
					&cli.StringFlag{
						Name:  "end",
						Usage: "Range end date (YYYY-MM-DD); must be given together with --start",
					},
				},
				Action: analyze,
			},
			{
				Name:  "connect",
				Usage: "Suggest connections for a note, optionally applying them as wikilinks",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "path",
						Usage:    "Vault-relative note path",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "apply",
						Usage: "Rewrite suggested connections into the source notes",
					},
				},
				Action: connect,
			},
			{
				Name:      "entry",
				Usage:     "Append a journal entry for today",
				ArgsUsage: "[text]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "text",
						Usage: "Entry text; positional arguments are used when omitted",
					},
				},
				Action: entry,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tool interface over stdio",
				Action: mcp,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
