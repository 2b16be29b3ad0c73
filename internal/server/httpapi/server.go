// Package httpapi exposes the issue desk over HTTP+JSON using gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/issuedesk/internal/logging"
	"github.com/dmitrijs2005/issuedesk/internal/server/metrics"
	"github.com/dmitrijs2005/issuedesk/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type HTTPServer struct {
	address         string
	shutdownTimeout time.Duration
	users           *services.UserService
	issues          *services.IssueService
	logger          logging.Logger
	metrics         *metrics.Metrics
	registry        *prometheus.Registry
	corsOrigins     []string
}

type Options struct {
	Address         string
	ShutdownTimeout time.Duration
	Logger          logging.Logger
	Metrics         *metrics.Metrics
	// Registry is served on /metrics when set.
	Registry *prometheus.Registry
	// CORSOrigins are the browser origins allowed to call the API.
	CORSOrigins []string
}

func NewHTTPServer(us *services.UserService, is *services.IssueService, opts Options) *HTTPServer {
	l := opts.Logger
	if l == nil {
		l = logging.Nop{}
	}
	return &HTTPServer{
		address:         opts.Address,
		shutdownTimeout: opts.ShutdownTimeout,
		users:           us,
		issues:          is,
		logger:          l.With("module", "http_server"),
		metrics:         opts.Metrics,
		registry:        opts.Registry,
		corsOrigins:     opts.CORSOrigins,
	}
}

// Router builds the gin engine with every route and middleware attached.
func (s *HTTPServer) Router() *gin.Engine {
	r := gin.New()
	r.Use(s.requestID(), s.recovery(), s.accessLog(), s.observe(), s.cors())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.registry != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(s.registry)))
	}

	api := r.Group("/api")
	api.POST("/register", s.register)
	api.POST("/login", s.login)
	api.POST("/forgot-password", s.forgotPassword)
	api.POST("/verify-otp", s.verifyOTP)
	api.POST("/reset-password", s.resetPassword)

	authed := api.Group("", s.authenticate())
	authed.GET("/me", s.me)

	issues := authed.Group("/issues")
	issues.POST("", s.createIssue)
	issues.GET("", s.listIssues)
	issues.POST("/photo-upload-url", s.photoUploadURL)
	issues.GET("/:id", s.getIssue)
	issues.PATCH("/:id", s.updateIssue)
	issues.POST("/:id/comments", s.addComment)
	issues.POST("/:id/upvote", s.toggleUpvote)

	admin := authed.Group("/admin", s.requireAdmin())
	admin.GET("/pending-issues", s.pendingIssues)
	admin.POST("/resolve-issue/:id", s.resolveIssue)
	admin.DELETE("/resolved-issues/:id", s.deleteIssue)
	admin.GET("/users", s.listUsers)

	r.NoRoute(s.notFound)
	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most the shutdown timeout.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	timeout := s.shutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
