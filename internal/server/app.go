// Package server wires configuration, storage, services and the HTTP API
// into a runnable application and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/issuedesk/internal/logging"
	"github.com/dmitrijs2005/issuedesk/internal/server/auth"
	"github.com/dmitrijs2005/issuedesk/internal/server/config"
	"github.com/dmitrijs2005/issuedesk/internal/server/httpapi"
	"github.com/dmitrijs2005/issuedesk/internal/server/mailer"
	"github.com/dmitrijs2005/issuedesk/internal/server/metrics"
	"github.com/dmitrijs2005/issuedesk/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/issuedesk/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
)

var newRepoManager = repomanager.New

type App struct {
	config       *config.Config
	logger       logging.Logger
	repos        repomanager.RepositoryManager
	userService  *services.UserService
	issueService *services.IssueService
	server       *httpapi.HTTPServer
}

// NewApp connects to storage, applies migrations and builds the services.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Nop{}
	}

	rm, err := newRepoManager(ctx, c.Storage)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}
	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close(ctx)
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	mailFactory := func() (mailer.Sender, error) { return mailer.New(c.Mail, logger) }

	var photos services.PhotoPresigner
	if c.S3.Bucket != "" {
		photos = services.NewPhotoService(c.S3)
	}

	tokens := auth.NewTokenService([]byte(c.Auth.SecretKey), c.Auth.TokenValidity)
	us := services.NewUserService(rm.Users(), tokens, auth.NewBcryptHasher(0), mailFactory, c.Auth, logger, m)
	is := services.NewIssueService(rm.Issues(), mailFactory, photos, logger, m)

	srv := httpapi.NewHTTPServer(us, is, httpapi.Options{
		Address:         c.Server.Addr,
		ShutdownTimeout: c.Server.ShutdownTimeout,
		Logger:          logger,
		Metrics:         m,
		Registry:        registry,
		CORSOrigins:     c.Server.CORSOrigins,
	})

	return &App{config: c, logger: logger, repos: rm, userService: us, issueService: is, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment, "storage", app.config.Storage.Driver)
	if app.config.Auth.AllowInsecureBypass {
		app.logger.Warn(ctx, "INSECURE admin bypass is enabled; never run like this in production")
	}

	app.initSignalHandler(cancelFunc)

	err := app.server.Run(ctx)
	if cerr := app.repos.Close(context.Background()); cerr != nil {
		app.logger.Error(ctx, "storage close error", "error", cerr)
	}
	app.logger.Info(ctx, "App stopped")
	return err
}
