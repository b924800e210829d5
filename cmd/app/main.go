package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/lifedash/internal"
	pkgconfig "github.com/starford/lifedash/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func refresh(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	res, err := internal.Refresh(ctx, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}

	out := map[string]any{
		"success": res.OK(),
		"runId":   res.RunID,
		"code":    res.Code,
		"stage":   res.Stage,
		"stats":   res.Stats,
	}
	if res.Err != nil {
		out["error"] = res.Error()
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}
	if !res.OK() {
		return cli.Exit(fmt.Sprintf("refresh failed: %s", res.Code), 1)
	}
	return nil
}

func seedData(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	report, err := internal.Seed(ctx, cmd.String("dir"), internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func status(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// Keep the terminal clean unless something goes wrong.
	cfg.App.LogLevel = slog.LevelWarn
	return internal.Status(ctx, os.Stdout, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx,
		internal.WithConfig(cfg),
		internal.WithLogOutput(os.Stderr),
		internal.WithVersion(version),
	)
}

func main() {
	cmd := &cli.Command{
		Name:    "lifedash",
		Usage:   "Personal life dashboard built from notes, code activity and manual entries",
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
				Usage:  "Start the HTTP API",
				Action: serve,
			},
			{
				Name:   "refresh",
				Usage:  "Run one processing cycle and print the outcome",
				Action: refresh,
			},
			{
				Name:  "seed",
				Usage: "Load seed documents into the store",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Directory holding the seed files (defaults to seed.dir)",
					},
				},
				Action: seedData,
			},
			{
				Name:   "status",
				Usage:  "Print the current snapshot and quadrants",
				Action: status,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the dashboard tools over MCP stdio",
				Action: mcp,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
