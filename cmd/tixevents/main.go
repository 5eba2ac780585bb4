package main

import (
	"context"
	"os"

	_ "github.com/kirinyoku/tix-events/docs"
	"github.com/kirinyoku/tix-events/internal/app"
	"github.com/kirinyoku/tix-events/internal/config"
)

// @title Tix Events API
// @version 1.0
// @description Events, attendees, ticket sales and CSV import.
// @host localhost:8080
// @BasePath /
func main() {
	logger := config.NewLogger()

	cfg, err := config.New()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to create application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("application finished with error", "error", err)
		os.Exit(1)
	}
}
