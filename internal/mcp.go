package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mayri/cookbook/internal/mcpserver"
)

// RunMCP serves the MCP tool surface on stdio. Logs go to stderr so
// stdout stays clean for the protocol.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)

	svcs, err := buildServices(app.config)
	if err != nil {
		return err
	}

	return mcpserver.New(svcs.recipes).ServeStdio()
}
