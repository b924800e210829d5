package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/starford/lifedash/internal/mcpserver"
	"github.com/starford/lifedash/internal/pipeline"
	"github.com/starford/lifedash/internal/seed"
	"github.com/starford/lifedash/internal/statusview"
)

// Refresh runs one processing cycle and returns its outcome.
func Refresh(ctx context.Context, opts ...Option) (pipeline.Result, error) {
	app, logger, err := newApplication(opts)
	if err != nil {
		return pipeline.Result{}, err
	}
	c, err := app.open(ctx, logger)
	if err != nil {
		return pipeline.Result{}, err
	}
	defer c.Close()

	return c.sync.Run(ctx), nil
}

// Seed loads the seed documents from dir, or from the configured seed
// directory when dir is empty.
func Seed(ctx context.Context, dir string, opts ...Option) (seed.Report, error) {
	app, logger, err := newApplication(opts)
	if err != nil {
		return seed.Report{}, err
	}
	if dir == "" {
		dir = app.config.Seed.Dir
	}
	c, err := app.open(ctx, logger)
	if err != nil {
		return seed.Report{}, err
	}
	defer c.Close()

	report, err := seed.NewLoader(c.db, dir, logger).Load(ctx)
	if err != nil {
		return report, err
	}
	// The loader writes straight to the store.
	if n, err := c.index.Rebuild(ctx, c.db); err != nil {
		logger.Warn("search: rebuild after seed failed", slog.String("error", err.Error()))
	} else {
		logger.Info("search: index rebuilt", slog.Int("documents", n))
	}
	return report, nil
}

// Status writes the current snapshot, quadrants and processing record to w.
func Status(ctx context.Context, w io.Writer, opts ...Option) error {
	app, logger, err := newApplication(opts)
	if err != nil {
		return err
	}
	c, err := app.open(ctx, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	rn, err := c.dashboard.RightNow(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	quadrants, err := c.dashboard.Quadrants(ctx)
	if err != nil {
		return fmt.Errorf("load quadrants: %w", err)
	}
	meta, err := c.dashboard.Metadata(ctx)
	if err != nil {
		return fmt.Errorf("load metadata: %w", err)
	}

	_, err = io.WriteString(w, statusview.Render(rn, quadrants, meta))
	return err
}

// ServeMCP exposes the dashboard tools over stdio until the client
// disconnects.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, logger, err := newApplication(opts)
	if err != nil {
		return err
	}
	c, err := app.open(ctx, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	logger.Info("mcp: serving on stdio", slog.String("version", app.version))
	return mcpserver.New(c.dashboard, c.importer, app.version).ServeStdio()
}
