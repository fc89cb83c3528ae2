package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/stemgraph/stemgraph/internal"
	"github.com/stemgraph/stemgraph/internal/secrets"
	pkgconfig "github.com/stemgraph/stemgraph/pkg/config"
)

// configure builds the effective configuration. Precedence, highest first:
// CLI flags (and their env vars), the YAML file, Docker secrets, defaults.
func configure(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()

	configPath := cmd.String("config")
	if _, err := os.Stat(configPath); err == nil {
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if cmd.IsSet("config") {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	if v := cmd.String("neo4j-user"); v != "" {
		cfg.Neo4j.Username = v
	}
	if v := cmd.String("neo4j-pw"); v != "" {
		cfg.Neo4j.Password = v
	}
	if v := cmd.String("write-token"); v != "" {
		cfg.Auth.WriteToken = v
	}

	// Docker secrets fill whatever is still blank.
	dir := cfg.Auth.SecretsDir
	if cfg.Neo4j.Username == "" {
		if v, ok := secrets.Read(dir, secrets.UserSecret); ok {
			cfg.Neo4j.Username = v
		}
	}
	if cfg.Neo4j.Password == "" {
		if v, ok := secrets.Read(dir, secrets.PasswordSecret); ok {
			cfg.Neo4j.Password = v
		}
	}
	if cfg.Auth.WriteToken == "" {
		if v, ok := secrets.Read(dir, secrets.WriteTokenSecret); ok {
			cfg.Auth.WriteToken = v
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := configure(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := configure(cmd)
	if err != nil {
		return err
	}

	if err := internal.RunMCP(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}

	return nil
}

func main() {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to config file",
			DefaultText: "config/config.yaml",
			Value:       "config/config.yaml",
			Sources:     cli.EnvVars("APP_CONFIG_FILE"),
		},
		&cli.StringFlag{
			Name:    "neo4j-user",
			Usage:   "Neo4j username",
			Sources: cli.EnvVars("STEMgraph_user"),
		},
		&cli.StringFlag{
			Name:    "neo4j-pw",
			Usage:   "Neo4j password",
			Sources: cli.EnvVars("STEMgraph_pw"),
		},
		&cli.StringFlag{
			Name:    "write-token",
			Usage:   "API key required for module creation",
			Sources: cli.EnvVars("STEMgraph_write_access"),
		},
	}

	cmd := &cli.Command{
		Name:   "stemgraph",
		Usage:  "Query and ingestion service for a Neo4j-backed graph of learning modules",
		Action: serve,
		Flags:  flags,
		Commands: []*cli.Command{
			{
				Name:   "mcp",
				Usage:  "Serve read-only graph tools over the MCP stdio transport",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
