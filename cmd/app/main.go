package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/muninn/internal"
	pkgconfig "github.com/starford/muninn/pkg/config"
)

// loadConfig reads the config file named by the --config flag. A missing
// file at the default location falls back to the built-in defaults; an
// explicitly named file must exist.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	path := cmd.String("config")
	cfg := internal.NewDefaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !cmd.IsSet("config") {
		return cfg, nil
	}
	if err := pkgconfig.Load(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// runOptions assembles the application options from the parsed flags.
func runOptions(cmd *cli.Command, cfg *internal.Config) []internal.Option {
	opts := []internal.Option{internal.WithConfig(cfg)}
	if v := cmd.String("vault"); v != "" {
		opts = append(opts, internal.WithVaultPath(v))
	}
	return opts
}

func main() {
	cmd := &cli.Command{
		Name:  "muninn",
		Usage: "Personal knowledge vault with convention-enforced notes, tag suggestions, and semantic search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("MUNINN_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "vault",
				Usage:   "Override the configured vault directory",
				Sources: cli.EnvVars("MUNINN_VAULT_PATH"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the HTTP server with SSE events and the vault watcher",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.Run(ctx, runOptions(cmd, cfg)...)
				},
			},
			{
				Name:  "mcp",
				Usage: "Serve the vault tools over MCP stdio",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunMCP(ctx, runOptions(cmd, cfg)...)
				},
			},
			{
				Name:  "init",
				Usage: "Scaffold the vault folders and write a default config file",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunInit(cmd.String("config"), runOptions(cmd, cfg)...)
				},
			},
			{
				Name:  "sync",
				Usage: "Reconcile the vector index with the vault once",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunSync(ctx, runOptions(cmd, cfg)...)
				},
			},
			{
				Name:  "moc",
				Usage: "Create Maps of Content for every tag cluster over the threshold",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Report what would be created without writing",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					return internal.RunMOC(ctx, cmd.Bool("dry-run"), runOptions(cmd, cfg)...)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
