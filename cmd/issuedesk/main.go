package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/issuedesk/internal/logging"
	"github.com/dmitrijs2005/issuedesk/internal/server"
	"github.com/dmitrijs2005/issuedesk/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger := logging.New(os.Stdout, cfg.Server.LogLevel)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "server error", "error", err)
		os.Exit(1)
	}
}
